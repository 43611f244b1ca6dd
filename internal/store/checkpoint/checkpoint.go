package checkpoint

import (
	"context"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const lastCheckKey = "usdt:last_check_time"

// Checkpoint is the shared last-run marker behind the reconciliation debounce.
// TryAdvance is a single SET NX with TTL, so concurrent callers racing the
// "interval elapsed" check resolve atomically in redis: exactly one wins.
type Checkpoint struct {
	rdb *redis.Client
}

func New(rdb *redis.Client) *Checkpoint {
	return &Checkpoint{rdb: rdb}
}

// TryAdvance records now as the last run if at least interval has elapsed
// since the previous one. Returns whether this caller won, and when the next
// run becomes eligible.
func (c *Checkpoint) TryAdvance(ctx context.Context, now time.Time, interval time.Duration) (bool, time.Time, error) {
	won, err := c.rdb.SetNX(ctx, lastCheckKey, now.Unix(), interval).Result()
	if err != nil {
		return false, time.Time{}, errors.Wrap(err, "advance reconciliation checkpoint")
	}
	if won {
		return true, now.Add(interval), nil
	}

	lastRunStr, err := c.rdb.Get(ctx, lastCheckKey).Result()
	if err != nil {
		// Marker expired between SetNX and Get; next caller will win.
		return false, now.Add(interval), nil
	}
	lastRun, err := strconv.ParseInt(lastRunStr, 10, 64)
	if err != nil {
		return false, now.Add(interval), nil
	}
	return false, time.Unix(lastRun, 0).Add(interval), nil
}
