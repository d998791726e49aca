// Package session wraps the compliance evaluator with debounced
// re-evaluation and a content-addressed result cache, so interactive
// editing does not re-run the full rule base on every keystroke.
package session

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/voltlint/voltlint/internal/logging"
	"github.com/voltlint/voltlint/internal/streaming"
	"github.com/voltlint/voltlint/pkg/schema"
)

const (
	// DefaultDebounce is the delay between the last observed mutation
	// and the evaluation it triggers.
	DefaultDebounce = 500 * time.Millisecond
	// DefaultCacheTTL is the freshness window for cached results.
	DefaultCacheTTL = 5 * time.Second
)

// Evaluator is the evaluation dependency of a Session.
// Satisfied by engine.Evaluator.
type Evaluator interface {
	Evaluate(ctx context.Context, d *schema.Diagram, load *schema.LoadContext) *schema.ComplianceResult
}

// Callback receives compliance results as the session produces them.
type Callback func(*schema.ComplianceResult)

// Option configures a Session.
type Option func(*Session)

// WithClock injects the clock used for debounce timing and cache freshness.
func WithClock(c Clock) Option {
	return func(s *Session) { s.clock = c }
}

// WithDebounce overrides the debounce interval.
func WithDebounce(d time.Duration) Option {
	return func(s *Session) { s.debounce = d }
}

// WithCacheTTL overrides the result cache freshness window.
func WithCacheTTL(ttl time.Duration) Option {
	return func(s *Session) { s.cacheTTL = ttl }
}

// WithHub attaches a ResultHub; results are published to it as well as
// to direct subscribers.
func WithHub(hub streaming.ResultHub) Option {
	return func(s *Session) { s.hub = hub }
}

// WithLogger overrides the session logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) { s.logger = logger }
}

// Session owns the debounce timer and result cache for one open editing
// surface. Create one per open diagram; Close it when the surface closes.
type Session struct {
	id        string
	evaluator Evaluator
	logger    *slog.Logger
	clock     Clock
	debounce  time.Duration
	cacheTTL  time.Duration
	cache     *resultCache
	fsm       *FSM
	hub       streaming.ResultHub

	mu          sync.Mutex
	timer       Timer
	pending     *schema.Diagram
	pendingLoad *schema.LoadContext
	last        *schema.ComplianceResult
	closed      bool
	subSeq      uint64
	subs        map[uint64]Callback
}

// New creates a Session around the given evaluator.
func New(evaluator Evaluator, opts ...Option) *Session {
	s := &Session{
		id:        uuid.NewString(),
		evaluator: evaluator,
		logger:    slog.New(slog.NewTextHandler(os.Stderr, nil)),
		clock:     RealClock(),
		debounce:  DefaultDebounce,
		cacheTTL:  DefaultCacheTTL,
		fsm:       NewFSM(),
		subs:      make(map[uint64]Callback),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.cache = newResultCache(s.cacheTTL)
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// State returns the current debounce state.
func (s *Session) State() State { return s.fsm.State() }

// Last returns the most recently computed result, or nil.
func (s *Session) Last() *schema.ComplianceResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Subscribe registers a callback invoked with every result the session
// produces. The returned function removes the subscription.
func (s *Session) Subscribe(cb Callback) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subSeq++
	id := s.subSeq
	s.subs[id] = cb
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// OnDiagramChanged records a mutated snapshot and arms (or rearms) the
// debounce timer. Only the latest snapshot at timer expiry is evaluated.
func (s *Session) OnDiagramChanged(d *schema.Diagram, load *schema.LoadContext) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	s.pending = d
	s.pendingLoad = load

	if err := s.fsm.Transition(StateDebouncing); err != nil {
		// Idle and Debouncing both admit Debouncing; unreachable.
		s.logger.Error("session transition failed", "error", err)
		return
	}

	// Cancel-and-rearm: at most one pending evaluation.
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = s.clock.AfterFunc(s.debounce, s.fire)
}

// fire runs on timer expiry: one transition back to Idle, one evaluation
// of the latest snapshot, one notification pass.
func (s *Session) fire() {
	s.mu.Lock()
	if s.closed || s.fsm.State() != StateDebouncing {
		s.mu.Unlock()
		return
	}
	if err := s.fsm.Transition(StateIdle); err != nil {
		s.logger.Error("session transition failed", "error", err)
		s.mu.Unlock()
		return
	}
	d := s.pending
	load := s.pendingLoad
	s.mu.Unlock()

	if d == nil {
		return
	}

	ctx := logging.WithSessionID(context.Background(), s.id)
	result, fromCache := s.evaluate(ctx, d, load)
	s.notify(ctx, d, result, fromCache)
}

// Evaluate computes a result for the snapshot synchronously, consulting
// the result cache first. It does not touch the debounce timer.
func (s *Session) Evaluate(ctx context.Context, d *schema.Diagram, load *schema.LoadContext) *schema.ComplianceResult {
	ctx = logging.WithSessionID(ctx, s.id)
	result, _ := s.evaluate(ctx, d, load)
	return result
}

func (s *Session) evaluate(ctx context.Context, d *schema.Diagram, load *schema.LoadContext) (*schema.ComplianceResult, bool) {
	key := cacheKey(d, load)
	now := s.clock.Now()

	result, cached := s.cache.get(key, now)
	if cached {
		logging.LogWith(ctx, s.logger).Debug("result served from cache",
			"content_hash", key[:12])
	} else {
		result = s.evaluator.Evaluate(ctx, d, load)
		s.cache.put(key, result, now)
	}

	s.mu.Lock()
	s.last = result
	s.mu.Unlock()
	return result, cached
}

func (s *Session) notify(ctx context.Context, d *schema.Diagram, result *schema.ComplianceResult, fromCache bool) {
	s.mu.Lock()
	cbs := make([]Callback, 0, len(s.subs))
	for _, cb := range s.subs {
		cbs = append(cbs, cb)
	}
	s.mu.Unlock()

	for _, cb := range cbs {
		cb(result)
	}

	if s.hub != nil {
		event := streaming.ResultEvent{
			SessionID:   s.id,
			DiagramID:   d.ID,
			ContentHash: ContentHash(d),
			FromCache:   fromCache,
			Result:      result,
		}
		if err := s.hub.Publish(ctx, event); err != nil {
			logging.LogWith(ctx, s.logger).Warn("publish result event", "error", err)
		}
	}
}

// Close stops the debounce timer and drops subscribers. The result
// cache dies with the session; a new editing surface starts cold.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.subs = make(map[uint64]Callback)
}
