package requestid

import "sync/atomic"

// Counter is a monotonically increasing sequence shared by every sequential
// generator it is handed to. It starts at zero and is never reset.
type Counter struct {
	n atomic.Int64
}

func NewCounter() *Counter { return &Counter{} }

// Next increments the counter and returns the new value.
func (c *Counter) Next() int64 { return c.n.Add(1) }

// Load returns the last value handed out, or zero if none was.
func (c *Counter) Load() int64 { return c.n.Load() }
