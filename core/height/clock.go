// Package height derives the ledger's only notion of time: a monotonically
// increasing block height computed from a fixed genesis timestamp and block
// interval. Operations never wait on it; they compare the current value
// against stored deadlines.
package height

import (
	"fmt"
	"time"
)

// Clock maps wall-clock time onto block heights. Height 0 covers the first
// interval after genesis. The mapping is monotone as long as the underlying
// clock is.
type Clock struct {
	genesis  time.Time
	interval time.Duration
	nowFn    func() time.Time
}

// NewClock constructs a clock anchored at the genesis timestamp.
func NewClock(genesisUnix int64, interval time.Duration) (*Clock, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("height: block interval must be positive")
	}
	return &Clock{
		genesis:  time.Unix(genesisUnix, 0),
		interval: interval,
		nowFn:    time.Now,
	}, nil
}

// SetNowFunc overrides the time source. Primarily intended for tests to
// provide deterministic heights.
func (c *Clock) SetNowFunc(now func() time.Time) {
	if now == nil {
		c.nowFn = time.Now
		return
	}
	c.nowFn = now
}

// Height returns the current block height.
func (c *Clock) Height() uint64 {
	elapsed := c.nowFn().Sub(c.genesis)
	if elapsed < 0 {
		return 0
	}
	return uint64(elapsed / c.interval)
}

// GenesisUnix returns the anchored genesis timestamp.
func (c *Clock) GenesisUnix() int64 {
	return c.genesis.Unix()
}
