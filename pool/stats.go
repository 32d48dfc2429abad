package pool

import (
	"sync/atomic"
	"time"
)

// counter is a monotonic atomic counter.
type counter struct {
	v int64
}

func (c *counter) inc() int64 {
	return atomic.AddInt64(&c.v, 1)
}

func (c *counter) add(n int64) int64 {
	return atomic.AddInt64(&c.v, n)
}

func (c *counter) val() int64 {
	return atomic.LoadInt64(&c.v)
}

// stats holds the pool's cumulative counters. Gauges (active/idle) are
// derived from the partitions at snapshot time, not tracked here.
type stats struct {
	leasesGranted        counter
	leasesReleased       counter
	connectionsCreated   counter
	connectionsDestroyed counter
	borrowWaitNanos      counter
}

// StatsSnapshot is a point-in-time view of the pool. Counts are consistent
// per partition but not atomic across partitions.
type StatsSnapshot struct {
	ActiveCount          int
	IdleCount            int
	LeasesGranted        int64
	LeasesReleased       int64
	ConnectionsCreated   int64
	ConnectionsDestroyed int64
	BorrowWaitTotal      time.Duration
}

func (s *stats) snapshot(active, idle int) StatsSnapshot {
	return StatsSnapshot{
		ActiveCount:          active,
		IdleCount:            idle,
		LeasesGranted:        s.leasesGranted.val(),
		LeasesReleased:       s.leasesReleased.val(),
		ConnectionsCreated:   s.connectionsCreated.val(),
		ConnectionsDestroyed: s.connectionsDestroyed.val(),
		BorrowWaitTotal:      time.Duration(s.borrowWaitNanos.val()),
	}
}
