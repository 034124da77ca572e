package debounce_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openjudge/judgectl/debounce"
)

// collector gathers applied results thread-safely.
type collector struct {
	mu      sync.Mutex
	applied []string
}

func (c *collector) apply(query string, result string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.applied = append(c.applied, query+"="+result)
}

func (c *collector) results() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.applied...)
}

func TestQueryCoalesces(t *testing.T) {
	var calls atomic.Int32
	col := &collector{}
	s := debounce.New(func(ctx context.Context, query string) (string, error) {
		calls.Add(1)
		return "hit:" + query, nil
	}, col.apply, debounce.WithQuiet[string](30*time.Millisecond))
	defer s.Close()

	s.Query("a")
	time.Sleep(5 * time.Millisecond)
	s.Query("ab")
	time.Sleep(5 * time.Millisecond)
	s.Query("abc")

	require.Eventually(t, func() bool {
		return len(col.results()) == 1
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, int32(1), calls.Load(), "one request for the whole burst")
	assert.Equal(t, []string{"abc=hit:abc"}, col.results())
}

func TestStaleResultDiscarded(t *testing.T) {
	firstStarted := make(chan struct{})
	col := &collector{}
	s := debounce.New(func(ctx context.Context, query string) (string, error) {
		if query == "slow" {
			close(firstStarted)
			<-ctx.Done()
			return "", ctx.Err()
		}
		return "hit:" + query, nil
	}, col.apply, debounce.WithQuiet[string](5*time.Millisecond))
	defer s.Close()

	s.Flush("slow")
	<-firstStarted
	s.Flush("fast")

	require.Eventually(t, func() bool {
		return len(col.results()) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"fast=hit:fast"}, col.results())
}

func TestRejectSkipsCancellation(t *testing.T) {
	boom := errors.New("search backend down")
	var rejected atomic.Int32
	s := debounce.New(func(ctx context.Context, query string) (string, error) {
		return "", boom
	}, func(string, string) {
		t.Error("apply must not run on failure")
	},
		debounce.WithQuiet[string](time.Millisecond),
		debounce.WithReject[string](func(query string, err error) {
			assert.ErrorIs(t, err, boom)
			rejected.Add(1)
		}),
	)
	defer s.Close()

	s.Flush("q")
	require.Eventually(t, func() bool {
		return rejected.Load() == 1
	}, time.Second, 5*time.Millisecond)
}

func TestCloseStopsPendingQuery(t *testing.T) {
	var calls atomic.Int32
	s := debounce.New(func(ctx context.Context, query string) (string, error) {
		calls.Add(1)
		return "", nil
	}, func(string, string) {}, debounce.WithQuiet[string](20*time.Millisecond))

	s.Query("about to be dropped")
	s.Close()

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(0), calls.Load())
}
