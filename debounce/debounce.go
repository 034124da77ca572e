// Package debounce coalesces rapid search input into one request and
// guarantees that only the newest query's result is ever applied.
package debounce

import (
	"context"
	"sync"
	"time"

	"github.com/openjudge/judgectl/client"
)

// DefaultQuiet is the input quiet period before a query is dispatched.
const DefaultQuiet = 300 * time.Millisecond

// Func runs one search attempt. It must honor ctx cancellation: when a
// newer query supersedes this one, ctx is cancelled.
type Func[T any] func(ctx context.Context, query string) (T, error)

// Searcher drives a debounced search-as-you-type flow. Each Query resets
// the quiet timer; when input quiesces, the superseded in-flight request is
// aborted and the newest query dispatched. Results and errors arrive on the
// callbacks, with cancellations filtered out; a stale response is never
// applied.
type Searcher[T any] struct {
	run    Func[T]
	apply  func(query string, result T)
	reject func(query string, err error)
	quiet  time.Duration

	mu     sync.Mutex
	timer  *time.Timer
	cancel context.CancelFunc
	seq    uint64
	closed bool
}

// Option configures a Searcher.
type Option[T any] func(*Searcher[T])

// WithQuiet overrides the quiet period. Used by tests.
func WithQuiet[T any](d time.Duration) Option[T] {
	return func(s *Searcher[T]) { s.quiet = d }
}

// WithReject sets the callback for non-cancellation failures. Without it
// failures are dropped.
func WithReject[T any](reject func(query string, err error)) Option[T] {
	return func(s *Searcher[T]) { s.reject = reject }
}

// New creates a Searcher running run for each settled query and passing
// results to apply.
func New[T any](run Func[T], apply func(query string, result T), opts ...Option[T]) *Searcher[T] {
	s := &Searcher[T]{
		run:   run,
		apply: apply,
		quiet: DefaultQuiet,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Query records new input, restarting the quiet timer. Only the value held
// when the timer fires is dispatched.
func (s *Searcher[T]) Query(query string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.quiet, func() { s.fire(query) })
}

// Flush dispatches the given query immediately, bypassing the quiet timer.
func (s *Searcher[T]) Flush(query string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.mu.Unlock()
	s.fire(query)
}

func (s *Searcher[T]) fire(query string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	// Abort the superseded request before issuing the new one.
	if s.cancel != nil {
		s.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.seq++
	seq := s.seq
	s.mu.Unlock()

	go func() {
		result, err := s.run(ctx, query)
		cancel()

		s.mu.Lock()
		// A newer query has fired since; this response is stale.
		if s.closed || seq != s.seq {
			s.mu.Unlock()
			return
		}
		apply, reject := s.apply, s.reject
		s.mu.Unlock()

		if err != nil {
			if !client.IsCanceled(err) && reject != nil {
				reject(query, err)
			}
			return
		}
		apply(query, result)
	}()
}

// Close stops the quiet timer and aborts any in-flight request. The
// Searcher must not be used afterwards.
func (s *Searcher[T]) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}
