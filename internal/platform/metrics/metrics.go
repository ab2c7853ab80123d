package metrics

import (
	"sync/atomic"
	"time"
)

type Collector struct {
	totalRequests   uint64
	errorRequests   uint64
	rateLimited     uint64
	totalDurationMs uint64

	submitted  uint64
	decided    uint64
	overwrites uint64
	noops      uint64
}

func New() *Collector {
	return &Collector{}
}

func (c *Collector) Record(status int, duration time.Duration) {
	atomic.AddUint64(&c.totalRequests, 1)
	if status >= 500 {
		atomic.AddUint64(&c.errorRequests, 1)
	}
	if status == 429 {
		atomic.AddUint64(&c.rateLimited, 1)
	}
	atomic.AddUint64(&c.totalDurationMs, uint64(duration.Milliseconds()))
}

func (c *Collector) LeaveSubmitted() {
	if c == nil {
		return
	}
	atomic.AddUint64(&c.submitted, 1)
}

// LeaveDecided counts a decision. found=false is a no-op on an unknown id;
// overwrote marks a decision on a request that was no longer Pending.
func (c *Collector) LeaveDecided(found, overwrote bool) {
	if c == nil {
		return
	}
	if !found {
		atomic.AddUint64(&c.noops, 1)
		return
	}
	atomic.AddUint64(&c.decided, 1)
	if overwrote {
		atomic.AddUint64(&c.overwrites, 1)
	}
}

func (c *Collector) Snapshot() map[string]any {
	total := atomic.LoadUint64(&c.totalRequests)
	errs := atomic.LoadUint64(&c.errorRequests)
	limited := atomic.LoadUint64(&c.rateLimited)
	totalMs := atomic.LoadUint64(&c.totalDurationMs)
	avg := float64(0)
	if total > 0 {
		avg = float64(totalMs) / float64(total)
	}
	return map[string]any{
		"requestsTotal":          total,
		"errorsTotal":            errs,
		"rateLimitedTotal":       limited,
		"avgDurationMs":          avg,
		"totalDurationMs":        totalMs,
		"leaveSubmittedTotal":    atomic.LoadUint64(&c.submitted),
		"leaveDecidedTotal":      atomic.LoadUint64(&c.decided),
		"leaveOverwrittenTotal":  atomic.LoadUint64(&c.overwrites),
		"leaveDecisionNoopTotal": atomic.LoadUint64(&c.noops),
	}
}
