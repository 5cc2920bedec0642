package control

import (
	"context"
	"errors"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/oshokin/sunrise-alarm/internal/domain/alarm"
	"github.com/oshokin/sunrise-alarm/internal/logger"
	"github.com/oshokin/sunrise-alarm/internal/service/lifecycle"
)

// Service abstracts the lifecycle operations the transport layer depends on.
type Service interface {
	ScheduleNext(ctx context.Context) (*alarm.Resolved, error)
	ScheduleAt(ctx context.Context, id int64, at time.Time) error
	Cancel(ctx context.Context, id int64) error
	OnFire(ctx context.Context, id int64)
	Snooze(ctx context.Context, id int64) (lifecycle.SnoozeOutcome, error)
	Dismiss(ctx context.Context, id int64) error
	SetEnabled(ctx context.Context, id int64, enabled bool) (*alarm.Resolved, error)
	Delete(ctx context.Context, id int64) (*alarm.Resolved, error)
}

// Server implements the AlarmControl gRPC API.
type Server struct {
	// service provides the lifecycle operations.
	service Service
}

// NewServer wires the provided service implementation into a gRPC handler.
func NewServer(service Service) *Server {
	return &Server{
		service: service,
	}
}

// ScheduleNext runs a scheduling pass.
func (s *Server) ScheduleNext(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	ctx = requestContext(ctx, "ScheduleNext")

	next, err := s.service.ScheduleNext(ctx)
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	return EncodeSchedule(next), nil
}

// ScheduleAt arms an alarm for an explicit instant.
func (s *Server) ScheduleAt(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	ctx = requestContext(ctx, "ScheduleAt")

	id, at, err := DecodeScheduleAt(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	if err = s.service.ScheduleAt(ctx, id, at); err != nil {
		return nil, toStatus(ctx, err)
	}

	return new(emptypb.Empty), nil
}

// Cancel removes the timer of an alarm.
func (s *Server) Cancel(ctx context.Context, req *wrapperspb.Int64Value) (*emptypb.Empty, error) {
	ctx = requestContext(ctx, "Cancel")

	id, err := alarmID(req)
	if err != nil {
		return nil, err
	}

	if err = s.service.Cancel(ctx, id); err != nil {
		return nil, toStatus(ctx, err)
	}

	return new(emptypb.Empty), nil
}

// Fire makes an alarm ring as if its timer expired.
func (s *Server) Fire(ctx context.Context, req *wrapperspb.Int64Value) (*emptypb.Empty, error) {
	ctx = requestContext(ctx, "Fire")

	id, err := alarmID(req)
	if err != nil {
		return nil, err
	}

	s.service.OnFire(ctx, id)

	return new(emptypb.Empty), nil
}

// Snooze snoozes a firing alarm.
func (s *Server) Snooze(ctx context.Context, req *wrapperspb.Int64Value) (*structpb.Struct, error) {
	ctx = requestContext(ctx, "Snooze")

	id, err := alarmID(req)
	if err != nil {
		return nil, err
	}

	outcome, err := s.service.Snooze(ctx, id)
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	return EncodeSnooze(outcome), nil
}

// Dismiss dismisses a firing or snoozed alarm.
func (s *Server) Dismiss(ctx context.Context, req *wrapperspb.Int64Value) (*emptypb.Empty, error) {
	ctx = requestContext(ctx, "Dismiss")

	id, err := alarmID(req)
	if err != nil {
		return nil, err
	}

	if err = s.service.Dismiss(ctx, id); err != nil {
		return nil, toStatus(ctx, err)
	}

	return new(emptypb.Empty), nil
}

// SetEnabled switches an alarm on or off.
func (s *Server) SetEnabled(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	ctx = requestContext(ctx, "SetEnabled")

	id, enabled, err := DecodeSetEnabled(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	next, err := s.service.SetEnabled(ctx, id, enabled)
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	return EncodeSchedule(next), nil
}

// Delete removes an alarm.
func (s *Server) Delete(ctx context.Context, req *wrapperspb.Int64Value) (*structpb.Struct, error) {
	ctx = requestContext(ctx, "Delete")

	id, err := alarmID(req)
	if err != nil {
		return nil, err
	}

	next, err := s.service.Delete(ctx, id)
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	return EncodeSchedule(next), nil
}

// requestContext names the logger after the method and tags it with the caller.
func requestContext(ctx context.Context, method string) context.Context {
	ctx = logger.WithName(ctx, "control")

	actor, ok := ActorFromContext(ctx)
	if !ok {
		return logger.WithKV(ctx, "method", method)
	}

	return logger.WithFields(ctx, "method", method, "actor", actor.String())
}

func alarmID(req *wrapperspb.Int64Value) (int64, error) {
	if req == nil || req.GetValue() <= 0 {
		return 0, status.Error(codes.InvalidArgument, "alarm id must be positive")
	}

	return req.GetValue(), nil
}

// toStatus maps domain errors onto gRPC codes.
func toStatus(ctx context.Context, err error) error {
	var code codes.Code

	switch {
	case errors.Is(err, alarm.ErrPermissionDenied):
		code = codes.PermissionDenied
	case errors.Is(err, alarm.ErrNotFound):
		code = codes.NotFound
	case errors.Is(err, alarm.ErrValidation):
		code = codes.InvalidArgument
	case errors.Is(err, lifecycle.ErrNotFiring):
		code = codes.FailedPrecondition
	case errors.Is(err, alarm.ErrPlatformFailure):
		code = codes.Unavailable
	case errors.Is(err, context.Canceled):
		code = codes.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		code = codes.DeadlineExceeded
	default:
		code = codes.Internal
	}

	logger.WarnKV(ctx, "Control call failed", "code", code.String(), "error", err)

	return status.Error(code, err.Error())
}
