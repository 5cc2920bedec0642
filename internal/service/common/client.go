//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/oshokin/sunrise-alarm/internal/api/grpc/control"
	"github.com/oshokin/sunrise-alarm/internal/config"
	"github.com/oshokin/sunrise-alarm/internal/service/lifecycle"
)

// Client wraps the control service connection with convenience helpers.
type Client struct {
	// conn is the underlying gRPC connection to the scheduler.
	conn *grpc.ClientConn
	// actor is attached to every call when set.
	actor *control.Actor

	// callTimeout is the default timeout for individual RPC calls.
	callTimeout time.Duration
}

// Option configures client behaviour.
type Option func(*Client)

// WithCallTimeout sets a default timeout for service calls.
func WithCallTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.callTimeout = timeout
		}
	}
}

// WithActor attaches the actor to every call.
func WithActor(actor *control.Actor) Option {
	return func(c *Client) {
		c.actor = actor
	}
}

// errAddressRequired is returned when a required address value is missing.
var errAddressRequired = errors.New("address must be provided")

// Dial establishes a gRPC connection to the scheduler.
// Note: this uses insecure transport credentials; the control API is meant
// for a trusted local network.
func Dial(_ context.Context, address string, opts ...Option) (*Client, error) {
	if address == "" {
		return nil, errAddressRequired
	}

	conn, err := grpc.NewClient(address, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("dial scheduler: %w", err)
	}

	client := &Client{
		conn:        conn,
		callTimeout: config.DefaultTimeout,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

// Close releases the underlying gRPC connection.
func (c *Client) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}

	return c.conn.Close()
}

// ScheduleNext asks the scheduler to run a scheduling pass.
func (c *Client) ScheduleNext(ctx context.Context) (control.Schedule, error) {
	reply := new(structpb.Struct)
	if err := c.invoke(ctx, control.ScheduleNextMethod, new(emptypb.Empty), reply); err != nil {
		return control.Schedule{}, fmt.Errorf("schedule next: %w", err)
	}

	return control.DecodeSchedule(reply)
}

// ScheduleAt arms an alarm for an explicit instant.
func (c *Client) ScheduleAt(ctx context.Context, id int64, at time.Time) error {
	if err := c.invoke(ctx, control.ScheduleAtMethod, control.EncodeScheduleAt(id, at), new(emptypb.Empty)); err != nil {
		return fmt.Errorf("schedule at: %w", err)
	}

	return nil
}

// Cancel removes the timer of an alarm.
func (c *Client) Cancel(ctx context.Context, id int64) error {
	if err := c.invoke(ctx, control.CancelMethod, wrapperspb.Int64(id), new(emptypb.Empty)); err != nil {
		return fmt.Errorf("cancel: %w", err)
	}

	return nil
}

// Fire makes an alarm ring immediately.
func (c *Client) Fire(ctx context.Context, id int64) error {
	if err := c.invoke(ctx, control.FireMethod, wrapperspb.Int64(id), new(emptypb.Empty)); err != nil {
		return fmt.Errorf("fire: %w", err)
	}

	return nil
}

// Snooze snoozes a firing alarm.
func (c *Client) Snooze(ctx context.Context, id int64) (lifecycle.SnoozeOutcome, error) {
	reply := new(structpb.Struct)
	if err := c.invoke(ctx, control.SnoozeMethod, wrapperspb.Int64(id), reply); err != nil {
		return lifecycle.SnoozeOutcome{}, fmt.Errorf("snooze: %w", err)
	}

	return control.DecodeSnooze(reply)
}

// Dismiss dismisses a firing or snoozed alarm.
func (c *Client) Dismiss(ctx context.Context, id int64) error {
	if err := c.invoke(ctx, control.DismissMethod, wrapperspb.Int64(id), new(emptypb.Empty)); err != nil {
		return fmt.Errorf("dismiss: %w", err)
	}

	return nil
}

// SetEnabled switches an alarm on or off.
func (c *Client) SetEnabled(ctx context.Context, id int64, enabled bool) (control.Schedule, error) {
	reply := new(structpb.Struct)
	if err := c.invoke(ctx, control.SetEnabledMethod, control.EncodeSetEnabled(id, enabled), reply); err != nil {
		return control.Schedule{}, fmt.Errorf("set enabled: %w", err)
	}

	return control.DecodeSchedule(reply)
}

// Delete removes an alarm.
func (c *Client) Delete(ctx context.Context, id int64) (control.Schedule, error) {
	reply := new(structpb.Struct)
	if err := c.invoke(ctx, control.DeleteMethod, wrapperspb.Int64(id), reply); err != nil {
		return control.Schedule{}, fmt.Errorf("delete: %w", err)
	}

	return control.DecodeSchedule(reply)
}

// invoke performs a unary call with the client's timeout and actor.
func (c *Client) invoke(ctx context.Context, method string, req, reply any) error {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	return c.conn.Invoke(control.OutgoingContext(callCtx, c.actor), method, req, reply)
}

// callContext returns a context with the client's call timeout if configured,
// otherwise a cancellable child context without a deadline.
func (c *Client) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, c.callTimeout)
}
