package quote

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"quoteScope/internal/metrics"
)

// Engine computes an outcome for a request. *Aggregator is an Engine.
type Engine interface {
	Quote(ctx context.Context, req Request) Outcome
}

// Update is a published outcome tagged with the request generation it
// answers.
type Update struct {
	Generation uint64
	Outcome    Outcome
}

// PipelineConfig holds pipeline settings.
type PipelineConfig struct {
	// Debounce delays a computation so rapid resubmissions collapse into one.
	Debounce time.Duration
	Metrics  *metrics.QuoteMetrics
}

// Pipeline recomputes quotes as requests change. Each Submit supersedes the
// previous request: its in-flight work is cancelled and its result, if it
// still arrives, is dropped. Once Submit returns, no update for an older
// generation is published.
//
// publish is called from pipeline goroutines, one update at a time, and must
// not call Submit or Close.
type Pipeline struct {
	engine  Engine
	publish func(Update)
	cfg     PipelineConfig
	logger  *zap.Logger

	root       context.Context
	cancelRoot context.CancelFunc

	generation atomic.Uint64
	publishMu  sync.Mutex

	mu     sync.Mutex
	timer  *time.Timer
	cancel context.CancelFunc
	closed bool
	wg     sync.WaitGroup
}

// NewPipeline builds a Pipeline that publishes outcomes from engine.
func NewPipeline(cfg PipelineConfig, engine Engine, publish func(Update), logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	root, cancel := context.WithCancel(context.Background())
	return &Pipeline{
		engine:     engine,
		publish:    publish,
		cfg:        cfg,
		logger:     logger,
		root:       root,
		cancelRoot: cancel,
	}
}

// Submit replaces the current request and returns its generation.
func (p *Pipeline) Submit(req Request) uint64 {
	p.publishMu.Lock()
	gen := p.generation.Add(1)
	p.publishMu.Unlock()

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return gen
	}

	p.stopPendingLocked()
	ctx, cancel := context.WithCancel(p.root)
	p.cancel = cancel

	p.wg.Add(1)
	p.timer = time.AfterFunc(p.cfg.Debounce, func() {
		defer p.wg.Done()
		p.run(ctx, gen, req)
	})
	return gen
}

// Generation returns the generation of the latest submitted request.
func (p *Pipeline) Generation() uint64 {
	return p.generation.Load()
}

// Close cancels outstanding work and waits for it to finish.
func (p *Pipeline) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.stopPendingLocked()
	p.cancelRoot()
	p.mu.Unlock()

	p.wg.Wait()
}

func (p *Pipeline) stopPendingLocked() {
	if p.timer != nil && p.timer.Stop() {
		// The debounced run never started.
		p.wg.Done()
	}
	p.timer = nil
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
}

func (p *Pipeline) run(ctx context.Context, gen uint64, req Request) {
	if !p.emit(gen, Outcome{State: Fetching}) {
		p.discard(gen)
		return
	}
	out := p.engine.Quote(ctx, req)
	if !p.emit(gen, out) {
		p.discard(gen)
	}
}

func (p *Pipeline) emit(gen uint64, out Outcome) bool {
	p.publishMu.Lock()
	defer p.publishMu.Unlock()
	if p.generation.Load() != gen || p.root.Err() != nil {
		return false
	}
	if p.publish != nil {
		p.publish(Update{Generation: gen, Outcome: out})
	}
	return true
}

func (p *Pipeline) discard(gen uint64) {
	p.cfg.Metrics.StaleDiscarded()
	p.logger.Debug("drop stale quote",
		zap.Uint64("generation", gen),
		zap.Uint64("current", p.generation.Load()),
		zap.NamedError("reason", ErrStaleRequest),
	)
}
