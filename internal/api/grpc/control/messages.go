package control

import (
	"errors"
	"fmt"
	"math"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oshokin/sunrise-alarm/internal/domain/alarm"
	"github.com/oshokin/sunrise-alarm/internal/service/lifecycle"
)

// Struct field names used by the control messages.
const (
	fieldScheduled    = "scheduled"
	fieldAlarmID      = "alarm_id"
	fieldTriggerAt    = "trigger_at"
	fieldEnabled      = "enabled"
	fieldSnoozed      = "snoozed"
	fieldLimitReached = "limit_reached"
	fieldCount        = "count"
	fieldUntil        = "until"
)

var (
	errFieldMissing = errors.New("field is missing")
	errFieldType    = errors.New("field has a wrong type")
	errInvalidID    = errors.New("alarm id must be a positive integer")
)

// Schedule is the outcome of a scheduling pass as seen by clients.
type Schedule struct {
	// Scheduled is false when no alarm qualified.
	Scheduled bool
	// Next is the armed alarm when Scheduled is set.
	Next alarm.Resolved
}

// EncodeSchedule converts a scheduling outcome into a reply message.
func EncodeSchedule(next *alarm.Resolved) *structpb.Struct {
	fields := map[string]*structpb.Value{
		fieldScheduled: structpb.NewBoolValue(next != nil),
	}

	if next != nil {
		fields[fieldAlarmID] = structpb.NewNumberValue(float64(next.ID))
		fields[fieldTriggerAt] = structpb.NewStringValue(next.TriggerAt.Format(time.RFC3339Nano))
	}

	return &structpb.Struct{Fields: fields}
}

// DecodeSchedule parses a reply produced by EncodeSchedule.
func DecodeSchedule(msg *structpb.Struct) (Schedule, error) {
	scheduled, err := boolField(msg, fieldScheduled)
	if err != nil {
		return Schedule{}, err
	}

	if !scheduled {
		return Schedule{}, nil
	}

	id, err := idField(msg, fieldAlarmID)
	if err != nil {
		return Schedule{}, err
	}

	triggerAt, err := timeField(msg, fieldTriggerAt)
	if err != nil {
		return Schedule{}, err
	}

	return Schedule{
		Scheduled: true,
		Next: alarm.Resolved{
			ID:        id,
			TriggerAt: triggerAt,
		},
	}, nil
}

// EncodeScheduleAt builds a ScheduleAt request.
func EncodeScheduleAt(id int64, at time.Time) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		fieldAlarmID:   structpb.NewNumberValue(float64(id)),
		fieldTriggerAt: structpb.NewStringValue(at.Format(time.RFC3339Nano)),
	}}
}

// DecodeScheduleAt parses a ScheduleAt request.
func DecodeScheduleAt(msg *structpb.Struct) (int64, time.Time, error) {
	id, err := idField(msg, fieldAlarmID)
	if err != nil {
		return 0, time.Time{}, err
	}

	at, err := timeField(msg, fieldTriggerAt)
	if err != nil {
		return 0, time.Time{}, err
	}

	return id, at, nil
}

// EncodeSetEnabled builds a SetEnabled request.
func EncodeSetEnabled(id int64, enabled bool) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		fieldAlarmID: structpb.NewNumberValue(float64(id)),
		fieldEnabled: structpb.NewBoolValue(enabled),
	}}
}

// DecodeSetEnabled parses a SetEnabled request.
func DecodeSetEnabled(msg *structpb.Struct) (int64, bool, error) {
	id, err := idField(msg, fieldAlarmID)
	if err != nil {
		return 0, false, err
	}

	enabled, err := boolField(msg, fieldEnabled)
	if err != nil {
		return 0, false, err
	}

	return id, enabled, nil
}

// EncodeSnooze converts a snooze outcome into a reply message.
func EncodeSnooze(outcome lifecycle.SnoozeOutcome) *structpb.Struct {
	fields := map[string]*structpb.Value{
		fieldSnoozed:      structpb.NewBoolValue(outcome.Snoozed),
		fieldLimitReached: structpb.NewBoolValue(outcome.LimitReached),
		fieldCount:        structpb.NewNumberValue(float64(outcome.Count)),
	}

	if !outcome.Until.IsZero() {
		fields[fieldUntil] = structpb.NewStringValue(outcome.Until.Format(time.RFC3339Nano))
	}

	return &structpb.Struct{Fields: fields}
}

// DecodeSnooze parses a reply produced by EncodeSnooze.
func DecodeSnooze(msg *structpb.Struct) (lifecycle.SnoozeOutcome, error) {
	var (
		outcome lifecycle.SnoozeOutcome
		err     error
	)

	if outcome.Snoozed, err = boolField(msg, fieldSnoozed); err != nil {
		return lifecycle.SnoozeOutcome{}, err
	}

	if outcome.LimitReached, err = boolField(msg, fieldLimitReached); err != nil {
		return lifecycle.SnoozeOutcome{}, err
	}

	count, err := numberField(msg, fieldCount)
	if err != nil {
		return lifecycle.SnoozeOutcome{}, err
	}

	outcome.Count = int(count)

	if _, ok := msg.GetFields()[fieldUntil]; ok {
		if outcome.Until, err = timeField(msg, fieldUntil); err != nil {
			return lifecycle.SnoozeOutcome{}, err
		}
	}

	return outcome, nil
}

func field(msg *structpb.Struct, name string) (*structpb.Value, error) {
	value, ok := msg.GetFields()[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", errFieldMissing, name)
	}

	return value, nil
}

func boolField(msg *structpb.Struct, name string) (bool, error) {
	value, err := field(msg, name)
	if err != nil {
		return false, err
	}

	kind, ok := value.GetKind().(*structpb.Value_BoolValue)
	if !ok {
		return false, fmt.Errorf("%w: %s", errFieldType, name)
	}

	return kind.BoolValue, nil
}

func numberField(msg *structpb.Struct, name string) (float64, error) {
	value, err := field(msg, name)
	if err != nil {
		return 0, err
	}

	kind, ok := value.GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return 0, fmt.Errorf("%w: %s", errFieldType, name)
	}

	return kind.NumberValue, nil
}

func idField(msg *structpb.Struct, name string) (int64, error) {
	number, err := numberField(msg, name)
	if err != nil {
		return 0, err
	}

	if number < 1 || number != math.Trunc(number) || number > math.MaxInt64 {
		return 0, fmt.Errorf("%w: %v", errInvalidID, number)
	}

	return int64(number), nil
}

func timeField(msg *structpb.Struct, name string) (time.Time, error) {
	value, err := field(msg, name)
	if err != nil {
		return time.Time{}, err
	}

	kind, ok := value.GetKind().(*structpb.Value_StringValue)
	if !ok {
		return time.Time{}, fmt.Errorf("%w: %s", errFieldType, name)
	}

	at, err := time.Parse(time.RFC3339Nano, kind.StringValue)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse %s: %w", name, err)
	}

	return at, nil
}
