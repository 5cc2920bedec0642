package timer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/oshokin/sunrise-alarm/internal/domain/alarm"
	"github.com/oshokin/sunrise-alarm/internal/logger"
)

var errNoCallback = errors.New("fire callback is required")

// pending is one armed timer.
type pending struct {
	// token identifies this arm; callbacks carrying another token are stale.
	token uuid.UUID
	// at is the instant the timer expires.
	at time.Time
	// timer is the underlying runtime timer.
	timer *time.Timer
}

// Local arms timers inside the current process.
type Local struct {
	// mu protects timers.
	mu sync.Mutex
	// timers maps alarm IDs to their pending timer.
	timers map[int64]*pending
	// permitted gates Arm, mirroring a revocable exact timer permission.
	permitted atomic.Bool
}

// NewLocal creates a timer capability. When permitted is false every Arm
// fails with alarm.ErrPermissionDenied until Grant is called.
func NewLocal(permitted bool) *Local {
	l := &Local{
		timers: make(map[int64]*pending),
	}

	l.permitted.Store(permitted)

	return l
}

// Permitted reports whether exact timers may be armed.
func (l *Local) Permitted() bool {
	return l.permitted.Load()
}

// Grant allows arming timers.
func (l *Local) Grant() {
	l.permitted.Store(true)
}

// Revoke forbids arming new timers. Pending timers keep running.
func (l *Local) Revoke() {
	l.permitted.Store(false)
}

// Arm schedules fire for id at the given instant. Instants in the past fire
// immediately. The callback context keeps the values of ctx but not its
// cancellation.
func (l *Local) Arm(ctx context.Context, id int64, at time.Time, fire alarm.FireFunc) error {
	if fire == nil {
		return errNoCallback
	}

	if !l.Permitted() {
		return fmt.Errorf("%w: alarm %d", alarm.ErrPermissionDenied, id)
	}

	var (
		token    = uuid.New()
		fireCtx  = logger.WithKV(context.WithoutCancel(ctx), "timer", token.String())
		delay    = max(time.Until(at), 0)
		newTimer = &pending{
			token: token,
			at:    at,
		}
	)

	l.mu.Lock()
	defer l.mu.Unlock()

	if previous, ok := l.timers[id]; ok {
		previous.timer.Stop()
	}

	newTimer.timer = time.AfterFunc(delay, func() {
		l.expire(fireCtx, id, token, fire)
	})
	l.timers[id] = newTimer

	logger.DebugKV(ctx, "Timer armed", "alarm_id", id, "timer", token.String(), "delay", delay.String())

	return nil
}

// Cancel stops the timer of id. Unknown ids are ignored.
func (l *Local) Cancel(ctx context.Context, id int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	current, ok := l.timers[id]
	if !ok {
		return nil
	}

	current.timer.Stop()
	delete(l.timers, id)

	logger.DebugKV(ctx, "Timer cancelled", "alarm_id", id, "timer", current.token.String())

	return nil
}

// Pending returns the instant the timer of id expires at.
func (l *Local) Pending(id int64) (time.Time, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	current, ok := l.timers[id]
	if !ok {
		return time.Time{}, false
	}

	return current.at, true
}

// Len returns the number of pending timers.
func (l *Local) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.timers)
}

// Stop cancels every pending timer.
func (l *Local) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()

	for id, current := range l.timers {
		current.timer.Stop()
		delete(l.timers, id)
	}
}

// expire runs fire unless the timer was replaced or cancelled meanwhile.
func (l *Local) expire(ctx context.Context, id int64, token uuid.UUID, fire alarm.FireFunc) {
	l.mu.Lock()

	current, ok := l.timers[id]
	if !ok || current.token != token {
		l.mu.Unlock()
		logger.DebugKV(ctx, "Stale timer dropped", "alarm_id", id)

		return
	}

	delete(l.timers, id)
	l.mu.Unlock()

	fire(ctx, id)
}
