package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/olyamironova/auction-engine/internal/domain"
	"github.com/olyamironova/auction-engine/internal/port"
)

var ErrEngineStopped = errors.New("engine: not running")

type Config struct {
	CountdownSeconds int
	Increment        int64
	MinOpeningBid    int64
	TickInterval     time.Duration
	OpTimeout        time.Duration
	QueueSize        int
	DefaultBudget    int64
}

func DefaultConfig() Config {
	return Config{
		CountdownSeconds: 20,
		Increment:        1,
		MinOpeningBid:    1,
		TickInterval:     time.Second,
		OpTimeout:        10 * time.Second,
		QueueSize:        64,
		DefaultBudget:    100,
	}
}

// Engine owns the auction state. Every transition, including countdown
// ticks and directory writes, runs on the goroutine started by Run, one at
// a time and to completion.
type Engine struct {
	cfg     Config
	items   port.ItemRepository
	bidders port.BidderRepository
	cache   port.StateCache
	pub     port.Publisher
	logger  *slog.Logger

	reqs    chan request
	stopped chan struct{}

	// owned by the Run goroutine
	state     domain.AuctionState
	countdown *countdown
	gen       uint64
}

type request struct {
	ctx   context.Context
	fn    func(ctx context.Context) error
	reply chan error
}

func NewEngine(cfg Config, items port.ItemRepository, bidders port.BidderRepository, cache port.StateCache, pub port.Publisher, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultConfig().QueueSize
	}
	if cfg.OpTimeout <= 0 {
		cfg.OpTimeout = DefaultConfig().OpTimeout
	}
	return &Engine{
		cfg:     cfg,
		items:   items,
		bidders: bidders,
		cache:   cache,
		pub:     pub,
		logger:  logger,
		reqs:    make(chan request, cfg.QueueSize),
		stopped: make(chan struct{}),
	}
}

// Run recovers a stale lot left by a previous process and then processes
// requests until ctx is cancelled.
func (e *Engine) Run(ctx context.Context) error {
	defer close(e.stopped)
	defer e.stopCountdown()

	if err := e.recoverLots(ctx); err != nil {
		return fmt.Errorf("engine: recover: %w", err)
	}
	e.logger.Info("auction engine started",
		"countdown_seconds", e.cfg.CountdownSeconds,
		"increment", e.cfg.Increment,
	)

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("auction engine stopped")
			return nil
		case r := <-e.reqs:
			e.exec(r)
		}
	}
}

func (e *Engine) exec(r request) {
	var err error
	if r.ctx.Err() != nil {
		err = r.ctx.Err()
	} else {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(r.ctx), e.cfg.OpTimeout)
		err = e.call(ctx, r.fn)
		cancel()
	}
	if r.reply != nil {
		r.reply <- err
	}
}

func (e *Engine) call(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			e.logger.Error("engine transition panicked", "panic", p)
			err = fmt.Errorf("engine: panic: %v", p)
		}
	}()
	return fn(ctx)
}

// do runs fn on the engine goroutine and waits for its result. A caller
// that gives up waiting never leaves a transition half applied.
func (e *Engine) do(ctx context.Context, fn func(ctx context.Context) error) error {
	reply := make(chan error, 1)
	select {
	case e.reqs <- request{ctx: ctx, fn: fn, reply: reply}:
	case <-ctx.Done():
		return ctx.Err()
	case <-e.stopped:
		return ErrEngineStopped
	}
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-e.stopped:
		select {
		case err := <-reply:
			return err
		default:
			return ErrEngineStopped
		}
	}
}

func (e *Engine) recoverLots(ctx context.Context) error {
	stale, err := e.items.ListItemsByStatus(ctx, domain.Auctioning)
	if err != nil {
		return err
	}
	for _, it := range stale {
		if _, err := e.items.SetItemStatus(ctx, it.ID, domain.Pending, nil); err != nil {
			return err
		}
		e.logger.Warn("returned stale lot to pool", "item_id", it.ID)
	}
	e.refreshCache(ctx, e.snapshot(ctx))
	return nil
}

// StartAuction opens itemID for bidding.
func (e *Engine) StartAuction(ctx context.Context, itemID string) (*domain.Item, error) {
	var started *domain.Item
	err := e.do(ctx, func(ctx context.Context) error {
		it, err := e.startAuction(ctx, itemID)
		if err != nil {
			e.broadcastFailure(err)
			return err
		}
		started = it
		return nil
	})
	return started, err
}

// PlaceBid accepts a bid of exactly the current highest bid plus the
// increment.
func (e *Engine) PlaceBid(ctx context.Context, itemID, bidderID string, amount int64) (*domain.Snapshot, error) {
	var snap domain.Snapshot
	err := e.do(ctx, func(ctx context.Context) error {
		if err := e.placeBid(ctx, itemID, bidderID, amount); err != nil {
			return err
		}
		snap = e.snapshot(ctx)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

// Resolve closes the current lot, selling it to the highest bidder if any.
func (e *Engine) Resolve(ctx context.Context, itemID string) (*domain.Resolved, error) {
	var res *domain.Resolved
	err := e.do(ctx, func(ctx context.Context) error {
		r, err := e.resolve(ctx, itemID)
		if err != nil {
			e.broadcastFailure(err)
			return err
		}
		res = r
		return nil
	})
	return res, err
}

// NextResult reports what NextItem did.
type NextResult struct {
	Resolved *domain.Resolved `json:"resolved,omitempty"`
	Started  *domain.Item     `json:"started,omitempty"`
}

// NextItem resolves the running lot, if any, and starts itemID or the
// oldest pending item when itemID is empty.
func (e *Engine) NextItem(ctx context.Context, itemID string) (*NextResult, error) {
	res := &NextResult{}
	err := e.do(ctx, func(ctx context.Context) error {
		err := e.nextItem(ctx, itemID, res)
		if err != nil {
			e.broadcastFailure(err)
		}
		return err
	})
	return res, err
}

// ResetAll rolls every item and bidder back to its initial state.
func (e *Engine) ResetAll(ctx context.Context) error {
	return e.do(ctx, func(ctx context.Context) error {
		err := e.resetAll(ctx)
		if err != nil {
			e.broadcastFailure(err)
		}
		return err
	})
}

// Status returns a copy of the current state.
func (e *Engine) Status(ctx context.Context) (*domain.Snapshot, error) {
	var snap domain.Snapshot
	err := e.do(ctx, func(ctx context.Context) error {
		snap = e.snapshot(ctx)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

// Observe calls fn with the current snapshot on the engine goroutine. No
// event is published while fn runs, so an observer registered inside fn
// sees the snapshot followed by every later event.
func (e *Engine) Observe(ctx context.Context, fn func(domain.Snapshot)) error {
	return e.do(ctx, func(ctx context.Context) error {
		fn(e.snapshot(ctx))
		return nil
	})
}

func (e *Engine) Increment() int64 {
	return e.cfg.Increment
}

func (e *Engine) CountdownSeconds() int {
	return e.cfg.CountdownSeconds
}

func (e *Engine) publish(ev domain.Event) {
	if e.pub != nil {
		e.pub.Publish(ev)
	}
}

func (e *Engine) broadcastFailure(err error) {
	code := string(domain.CodeOf(err))
	if code == "" {
		code = "INTERNAL"
	}
	e.publish(domain.EngineError{Message: err.Error(), Code: code})
}
