package pool

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/xerrors"

	"github.com/shrek82/dbcp/factory"
	"github.com/shrek82/dbcp/logger"
)

// DefaultReclaimInterval is the idle sweep period used when Config leaves
// ReclaimInterval zero.
const DefaultReclaimInterval = time.Minute

// Config is the pool's immutable configuration. It is validated once at
// Open and never mutated afterwards.
type Config struct {
	// MinPerPartition connections are opened per partition at warm-up and
	// kept through idle reclamation.
	MinPerPartition int
	// MaxPerPartition caps each partition's total (active + idle) size.
	MaxPerPartition int
	// Partitions is the number of independently locked sub-pools.
	Partitions int
	// IdleMaxAge is how long a connection may sit idle before the sweep
	// closes it. Zero disables reclamation.
	IdleMaxAge time.Duration
	// ReclaimInterval is the sweep period. Zero means DefaultReclaimInterval.
	ReclaimInterval time.Duration
	// TestOnBorrow pings previously idled connections before handing them
	// out and discards the ones that fail.
	TestOnBorrow bool
}

func (c Config) validate() error {
	if c.Partitions < 1 {
		return xerrors.Errorf("%w: partitions must be >= 1, got %d", ErrInvalidConfig, c.Partitions)
	}
	if c.MinPerPartition < 0 || c.MaxPerPartition < 1 {
		return xerrors.Errorf("%w: per-partition sizes must be positive", ErrInvalidConfig)
	}
	if c.MinPerPartition > c.MaxPerPartition {
		return xerrors.Errorf("%w: min per partition %d exceeds max %d",
			ErrInvalidConfig, c.MinPerPartition, c.MaxPerPartition)
	}
	return nil
}

// Option configures a Pool at Open.
type Option func(p *Pool)

// WithLogger sets the pool's observability sink.
func WithLogger(l logger.Logger) Option {
	return func(p *Pool) {
		p.log = l
	}
}

// Pool routes borrow and release traffic across a fixed set of partitions,
// runs the background idle sweep, and aggregates statistics.
type Pool struct {
	cfg     Config
	factory factory.Factory
	parts   []*partition
	log     logger.Logger

	next   uint64
	closed int32
	done   chan struct{}
	wg     sync.WaitGroup

	stats stats
}

// Open validates cfg, creates the partitions and warms each one up with
// MinPerPartition connections. If the factory fails during warm-up every
// connection opened so far is closed and Open fails.
func Open(ctx context.Context, cfg Config, f factory.Factory, options ...Option) (*Pool, error) {
	if f == nil {
		return nil, xerrors.Errorf("%w: no connection factory provided", ErrInvalidConfig)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.ReclaimInterval <= 0 {
		cfg.ReclaimInterval = DefaultReclaimInterval
	}

	p := &Pool{
		cfg:     cfg,
		factory: f,
		done:    make(chan struct{}),
		log:     logger.NewNopLogger(),
	}
	for _, opt := range options {
		opt(p)
	}

	p.parts = make([]*partition, cfg.Partitions)
	for i := range p.parts {
		p.parts[i] = &partition{id: i, pool: p}
	}

	if err := p.warmUp(ctx); err != nil {
		return nil, err
	}

	p.wg.Add(1)
	go p.sweep()

	p.log.Info("pool opened: partitions=%d min/partition=%d max/partition=%d idle-max-age=%v",
		cfg.Partitions, cfg.MinPerPartition, cfg.MaxPerPartition, cfg.IdleMaxAge)
	return p, nil
}

func (p *Pool) warmUp(ctx context.Context) error {
	for _, pt := range p.parts {
		for i := 0; i < p.cfg.MinPerPartition; i++ {
			pc, err := pt.create(ctx)
			if err != nil {
				p.drainAll()
				return xerrors.Errorf("%w: partition %d: %v", ErrInitialization, pt.id, err)
			}
			pt.idle = append(pt.idle, pc)
		}
	}
	return nil
}

// Borrow returns a connection handle, failing fast with ErrPoolExhausted if
// the selected partition is at capacity with nothing idle.
func (p *Pool) Borrow(ctx context.Context) (*PooledConn, error) {
	return p.borrow(ctx, 0)
}

// BorrowTimeout is like Borrow but, when the selected partition is
// exhausted, waits up to timeout for another caller's release before
// failing with ErrBorrowTimeout. Canceling ctx ends the wait early with
// ctx.Err().
func (p *Pool) BorrowTimeout(ctx context.Context, timeout time.Duration) (*PooledConn, error) {
	return p.borrow(ctx, timeout)
}

func (p *Pool) borrow(ctx context.Context, timeout time.Duration) (*PooledConn, error) {
	if p.isClosed() {
		return nil, ErrPoolClosed
	}
	// Round-robin partition selection: deterministic, fair, and cheap.
	// Exhaustion is reported per partition, not retried on a sibling.
	idx := atomic.AddUint64(&p.next, 1) % uint64(len(p.parts))
	pc, err := p.parts[idx].borrow(ctx, timeout)
	if err != nil {
		return nil, err
	}
	p.stats.leasesGranted.inc()
	return &PooledConn{pc: pc, pool: p}, nil
}

// Stats returns a snapshot of the pool's gauges and cumulative counters.
// Partition counts are read one partition at a time, so the snapshot is
// consistent per partition but not atomic across them.
func (p *Pool) Stats() StatsSnapshot {
	var active, idle int
	for _, pt := range p.parts {
		a, i := pt.counts()
		active += a
		idle += i
	}
	return p.stats.snapshot(active, idle)
}

// Close shuts the pool down: the sweep goroutine is stopped and joined,
// idle connections are drained, and waiting borrowers fail with
// ErrPoolClosed. Borrowed connections are closed when released. Close is
// idempotent and safe to call concurrently with borrows and releases.
func (p *Pool) Close() error {
	if !atomic.CompareAndSwapInt32(&p.closed, 0, 1) {
		return nil
	}
	close(p.done)
	p.wg.Wait()
	p.drainAll()
	p.log.Info("pool closed")
	return nil
}

func (p *Pool) isClosed() bool {
	return atomic.LoadInt32(&p.closed) == 1
}

func (p *Pool) drainAll() {
	for _, pt := range p.parts {
		pt.closeAll()
	}
}

// destroy closes a physical connection and counts it gone.
func (p *Pool) destroy(pc *pconn) {
	if err := pc.conn.Close(); err != nil {
		p.log.Warn("closing connection: %v", err)
	}
	p.stats.connectionsDestroyed.inc()
}

// sweep periodically reclaims idle connections until Close.
func (p *Pool) sweep() {
	defer p.wg.Done()
	ticker := time.NewTicker(p.cfg.ReclaimInterval)
	defer ticker.Stop()
	for {
		select {
		case now := <-ticker.C:
			for _, pt := range p.parts {
				pt.reclaim(now)
			}
		case <-p.done:
			return
		}
	}
}
