package pool

import (
	"context"
	"sync"
	"time"

	"golang.org/x/xerrors"

	"github.com/shrek82/dbcp/factory"
)

// pconn is one physical connection plus its pool bookkeeping.
type pconn struct {
	conn      factory.Conn
	createdAt time.Time
	lastUsed  time.Time
	part      *partition
}

// partition is an independently locked sub-pool. Contention on one
// partition never blocks borrowers on another.
type partition struct {
	id   int
	pool *Pool

	mu sync.Mutex
	// idle is kept in release order: the coldest connection sits at the
	// front, the most recently released at the back. Borrow pops from the
	// back so callers get warm connections; the sweep trims from the front.
	idle    []*pconn
	active  int
	waiters []chan *pconn
	closed  bool
}

// borrow hands out an idle connection, grows the partition if below max, or
// waits up to timeout for a release. A zero timeout fails fast with
// ErrPoolExhausted.
func (pt *partition) borrow(ctx context.Context, timeout time.Duration) (*pconn, error) {
	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}

	pt.mu.Lock()
	for {
		if pt.closed {
			pt.mu.Unlock()
			return nil, ErrPoolClosed
		}

		if n := len(pt.idle); n > 0 {
			pc := pt.idle[n-1]
			pt.idle = pt.idle[:n-1]
			pt.active++
			pt.mu.Unlock()
			if pt.pool.cfg.TestOnBorrow {
				if err := pc.conn.Ping(ctx); err != nil {
					// Unhealthy connections are discarded; the next loop
					// iteration finds another or grows the partition.
					pt.pool.log.Warn("partition %d: discarding unhealthy connection: %v", pt.id, err)
					pt.pool.destroy(pc)
					pt.mu.Lock()
					pt.active--
					continue
				}
			}
			pc.lastUsed = time.Now()
			return pc, nil
		}

		if pt.active+len(pt.idle) < pt.pool.cfg.MaxPerPartition {
			// Reserve the slot before dialing so a concurrent borrower
			// cannot overshoot max, then create outside the lock.
			pt.active++
			pt.mu.Unlock()
			pc, err := pt.create(ctx)
			if err != nil {
				pt.mu.Lock()
				pt.active--
				pt.mu.Unlock()
				return nil, xerrors.Errorf("partition %d: %w: %v", pt.id, ErrConnectionCreate, err)
			}
			// The pool may have closed while the factory was dialing; a
			// connection born after close is destroyed, never handed out.
			pt.mu.Lock()
			if pt.closed || pt.pool.isClosed() {
				pt.active--
				pt.mu.Unlock()
				pt.pool.destroy(pc)
				return nil, ErrPoolClosed
			}
			pt.mu.Unlock()
			return pc, nil
		}

		if timeout <= 0 {
			pt.mu.Unlock()
			return nil, ErrPoolExhausted
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			pt.mu.Unlock()
			return nil, ErrBorrowTimeout
		}
		pc, retry, err := pt.wait(ctx, remaining)
		if err != nil {
			return nil, err
		}
		if !retry {
			return pc, nil
		}
		// A discarded connection freed a slot without a connection to hand
		// over; go around and grow into it.
		pt.mu.Lock()
	}
}

// wait blocks until a releasing caller hands over a connection, a discard
// frees a slot (nil handoff, retry), the timeout elapses, the context is
// canceled, or the pool closes. Waiters are woken in FIFO order. Called
// with pt.mu held; returns with it released.
func (pt *partition) wait(ctx context.Context, timeout time.Duration) (pc *pconn, retry bool, err error) {
	ch := make(chan *pconn, 1)
	pt.waiters = append(pt.waiters, ch)
	pt.mu.Unlock()

	start := time.Now()
	defer func() {
		pt.pool.stats.borrowWaitNanos.add(int64(time.Since(start)))
	}()
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case pc := <-ch:
		return pc, pc == nil, nil
	case <-timer.C:
		// A release may have handed us a connection in the same instant
		// the timer fired; prefer the connection over the timeout.
		if pc, ok := pt.abandon(ch); ok {
			return pc, pc == nil, nil
		}
		return nil, false, ErrBorrowTimeout
	case <-ctx.Done():
		if pc, ok := pt.abandon(ch); ok && pc != nil {
			pt.release(pc)
		}
		return nil, false, ctx.Err()
	case <-pt.pool.done:
		if pc, ok := pt.abandon(ch); ok && pc != nil {
			pt.release(pc)
		}
		return nil, false, ErrPoolClosed
	}
}

// abandon withdraws a waiter and drains any handoff that raced the
// withdrawal. Handoffs happen under pt.mu, so after removeWaiter the drain
// is deterministic.
func (pt *partition) abandon(ch chan *pconn) (*pconn, bool) {
	pt.mu.Lock()
	pt.removeWaiter(ch)
	pt.mu.Unlock()
	select {
	case pc := <-ch:
		return pc, true
	default:
		return nil, false
	}
}

// removeWaiter drops ch from the waiter queue if still present. Caller
// holds pt.mu.
func (pt *partition) removeWaiter(ch chan *pconn) {
	for i, w := range pt.waiters {
		if w == ch {
			pt.waiters = append(pt.waiters[:i], pt.waiters[i+1:]...)
			return
		}
	}
}

// create dials one new physical connection via the pool's factory. Never
// called with pt.mu held.
func (pt *partition) create(ctx context.Context) (*pconn, error) {
	conn, err := pt.pool.factory.New(ctx)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	pt.pool.stats.connectionsCreated.inc()
	return &pconn{conn: conn, createdAt: now, lastUsed: now, part: pt}, nil
}

// release returns a borrowed connection. The earliest waiter, if any, is
// handed the connection directly and the lease transfers without touching
// the idle set. After closeAll, released connections are destroyed instead
// of idled.
func (pt *partition) release(pc *pconn) {
	pt.mu.Lock()
	if pt.closed {
		pt.active--
		pt.mu.Unlock()
		pt.pool.destroy(pc)
		return
	}
	pc.lastUsed = time.Now()
	if len(pt.waiters) > 0 {
		ch := pt.waiters[0]
		pt.waiters = pt.waiters[1:]
		// The channel is buffered and this is its only sender, so handing
		// over under the lock cannot block. Doing it under the lock keeps
		// the handoff ordered against a timing-out waiter's removal.
		ch <- pc
		pt.mu.Unlock()
		return
	}
	pt.active--
	pt.idle = append(pt.idle, pc)
	pt.mu.Unlock()
}

// discard drops a borrowed connection from the partition's accounting and
// wakes the earliest waiter, if any, so it can grow into the freed slot. No
// replacement is created here; creation stays lazy, on the next borrow.
func (pt *partition) discard(pc *pconn) {
	pt.mu.Lock()
	pt.active--
	if len(pt.waiters) > 0 && !pt.closed {
		ch := pt.waiters[0]
		pt.waiters = pt.waiters[1:]
		ch <- nil
	}
	pt.mu.Unlock()
	pt.pool.destroy(pc)
}

// reclaim closes idle connections unused for longer than IdleMaxAge, never
// shrinking the partition below MinPerPartition.
func (pt *partition) reclaim(now time.Time) {
	maxAge := pt.pool.cfg.IdleMaxAge
	if maxAge <= 0 {
		return
	}

	var victims []*pconn
	pt.mu.Lock()
	for len(pt.idle) > 0 && pt.active+len(pt.idle) > pt.pool.cfg.MinPerPartition {
		oldest := pt.idle[0]
		if now.Sub(oldest.lastUsed) <= maxAge {
			break
		}
		pt.idle = pt.idle[1:]
		victims = append(victims, oldest)
	}
	pt.mu.Unlock()

	for _, pc := range victims {
		pt.pool.destroy(pc)
	}
	if len(victims) > 0 {
		pt.pool.log.Info("partition %d: reclaimed %d idle connections", pt.id, len(victims))
	}
}

// closeAll drains the idle set and marks the partition closed so in-flight
// releases destroy their connections. Borrowed connections are closed on
// return, not revoked.
func (pt *partition) closeAll() {
	pt.mu.Lock()
	pt.closed = true
	victims := pt.idle
	pt.idle = nil
	pt.mu.Unlock()

	for _, pc := range victims {
		pt.pool.destroy(pc)
	}
}

// counts returns the partition's active and idle sizes.
func (pt *partition) counts() (active, idle int) {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	return pt.active, len(pt.idle)
}
