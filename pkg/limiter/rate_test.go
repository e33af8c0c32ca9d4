package limiter_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/JPArangoRenteria/sitegraph/pkg/limiter"
)

func TestReserveDelay_NeverFetchedHost(t *testing.T) {
	// GIVEN a limiter with a base delay
	r := limiter.NewConcurrentRateLimiter()
	r.SetBaseDelay(time.Second)

	// WHEN reserving the first slot for a host that was never fetched
	delay := r.ReserveDelay("example.com")

	// THEN there is no wait: politeness spaces fetches, it does not
	// delay the first one
	assert.Equal(t, time.Duration(0), delay)
}

func TestReserveDelay_AfterFetch(t *testing.T) {
	r := limiter.NewConcurrentRateLimiter()
	r.SetBaseDelay(time.Second)

	r.MarkLastFetchAsNow("example.com")
	delay := r.ReserveDelay("example.com")

	// Delay is base minus the elapsed slice, so just under a second.
	assert.Greater(t, delay, 900*time.Millisecond)
	assert.LessOrEqual(t, delay, time.Second)
}

func TestReserveDelay_CrawlDelayDominatesBase(t *testing.T) {
	r := limiter.NewConcurrentRateLimiter()
	r.SetBaseDelay(100 * time.Millisecond)
	r.SetCrawlDelay("example.com", 2*time.Second)

	r.MarkLastFetchAsNow("example.com")
	delay := r.ReserveDelay("example.com")

	assert.Greater(t, delay, time.Second)
}

func TestReserveDelay_IsPerHost(t *testing.T) {
	r := limiter.NewConcurrentRateLimiter()
	r.SetBaseDelay(time.Second)

	r.MarkLastFetchAsNow("a.example.com")

	assert.Greater(t, r.ReserveDelay("a.example.com"), time.Duration(0))
	assert.Equal(t, time.Duration(0), r.ReserveDelay("b.example.com"))
}

func TestReserveDelay_SpacesSequentialClaims(t *testing.T) {
	// GIVEN a base delay of 100ms and no completed fetch yet
	r := limiter.NewConcurrentRateLimiter()
	r.SetBaseDelay(100 * time.Millisecond)

	// WHEN three callers claim slots back to back
	first := r.ReserveDelay("example.com")
	second := r.ReserveDelay("example.com")
	third := r.ReserveDelay("example.com")

	// THEN each claim is pushed one interval past the previous one,
	// even though no fetch has completed in between
	assert.Equal(t, time.Duration(0), first)
	assert.InDelta(t, float64(100*time.Millisecond), float64(second), float64(20*time.Millisecond))
	assert.InDelta(t, float64(200*time.Millisecond), float64(third), float64(20*time.Millisecond))
}

func TestReserveDelay_ConcurrentClaimsNeverShareASlot(t *testing.T) {
	// GIVEN several goroutines racing to claim slots for one host
	r := limiter.NewConcurrentRateLimiter()
	r.SetBaseDelay(100 * time.Millisecond)

	const claims = 8
	var mu sync.Mutex
	var waits []time.Duration
	var wg sync.WaitGroup
	for i := 0; i < claims; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			wait := r.ReserveDelay("example.com")
			mu.Lock()
			waits = append(waits, wait)
			mu.Unlock()
		}()
	}
	wg.Wait()

	// THEN every claim received a distinct slot: sorted waits are at
	// least one interval apart (minus the wall clock elapsed between
	// claims)
	assert.Len(t, waits, claims)
	sortDurations(waits)
	for i := 1; i < claims; i++ {
		gap := waits[i] - waits[i-1]
		assert.Greater(t, gap, 80*time.Millisecond,
			"claims %d and %d landed in the same politeness window", i-1, i)
	}
}

func sortDurations(ds []time.Duration) {
	for i := 1; i < len(ds); i++ {
		for j := i; j > 0 && ds[j] < ds[j-1]; j-- {
			ds[j], ds[j-1] = ds[j-1], ds[j]
		}
	}
}

func TestReserveDelay_CompletionRestartsWindow(t *testing.T) {
	// GIVEN a claimed slot whose interval has already passed
	r := limiter.NewConcurrentRateLimiter()
	r.SetBaseDelay(50 * time.Millisecond)
	r.ReserveDelay("example.com")
	time.Sleep(80 * time.Millisecond)

	// WHEN the fetch completes only now
	r.MarkLastFetchAsNow("example.com")
	delay := r.ReserveDelay("example.com")

	// THEN the next slot counts from completion, not from the stale claim
	assert.Greater(t, delay, 25*time.Millisecond)
	assert.LessOrEqual(t, delay, 50*time.Millisecond)
}

func TestBackoff_GrowsAndResets(t *testing.T) {
	r := limiter.NewConcurrentRateLimiter()

	r.MarkLastFetchAsNow("a.example.com")
	r.Backoff("a.example.com")
	first := r.ReserveDelay("a.example.com")

	r.MarkLastFetchAsNow("b.example.com")
	r.Backoff("b.example.com")
	r.Backoff("b.example.com")
	second := r.ReserveDelay("b.example.com")

	r.MarkLastFetchAsNow("c.example.com")
	r.Backoff("c.example.com")
	r.ResetBackoff("c.example.com")
	afterReset := r.ReserveDelay("c.example.com")

	assert.Greater(t, first, time.Duration(0))
	assert.Greater(t, second, first)
	assert.Equal(t, time.Duration(0), afterReset)
}

func TestReserveDelay_JitterIsSeedControlled(t *testing.T) {
	build := func() time.Duration {
		r := limiter.NewConcurrentRateLimiter()
		r.SetBaseDelay(100 * time.Millisecond)
		r.SetJitter(50 * time.Millisecond)
		r.SetRandomSeed(42)
		r.MarkLastFetchAsNow("example.com")
		return r.ReserveDelay("example.com")
	}

	// Two limiters with the same seed produce the same jitter draw.
	// A tolerance absorbs the wall-clock elapsed between the two runs.
	assert.InDelta(t, float64(build()), float64(build()), float64(10*time.Millisecond))
}
