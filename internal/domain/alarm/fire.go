package alarm

import "context"

// FireFunc is invoked when the timer armed for an alarm goes off.
type FireFunc func(ctx context.Context, id int64)
