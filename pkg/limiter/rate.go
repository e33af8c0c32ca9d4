package limiter

import (
	"math/rand"
	"sync"
	"time"

	"github.com/JPArangoRenteria/sitegraph/pkg/timeutil"
)

// RateLimiter
// Specialized component to manage per-host politeness during crawling
// Responsibilities:
// - Bookkeep each hostname's last fetch completion timestamp
// - Hand out spaced fetch slots per hostname given various factors
// - Make sure the crawling process respects the server's crawl-delay policy
type RateLimiter interface {
	SetBaseDelay(baseDelay time.Duration)
	SetJitter(jitter time.Duration)
	SetRandomSeed(randomSeed int64)
	SetCrawlDelay(host string, delay time.Duration)
	Backoff(host string)
	ResetBackoff(host string)
	MarkLastFetchAsNow(host string)
	ReserveDelay(host string) time.Duration
}

type ConcurrentRateLimiter struct {
	mu          sync.RWMutex
	rngMu       sync.Mutex
	baseDelay   time.Duration
	jitter      time.Duration
	hostTimings map[string]hostTiming
	rng         *rand.Rand
}

func NewConcurrentRateLimiter() *ConcurrentRateLimiter {
	return &ConcurrentRateLimiter{
		hostTimings: make(map[string]hostTiming),
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *ConcurrentRateLimiter) SetBaseDelay(baseDelay time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.baseDelay = baseDelay
}

func (r *ConcurrentRateLimiter) SetJitter(jitter time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.jitter = jitter
}

func (r *ConcurrentRateLimiter) SetRandomSeed(randomSeed int64) {
	r.rngMu.Lock()
	defer r.rngMu.Unlock()

	r.rng = rand.New(rand.NewSource(randomSeed))
}

// Set delay for the given host, separate from the global base delay.
// Used to apply a robots.txt crawl-delay directive.
func (r *ConcurrentRateLimiter) SetCrawlDelay(host string, delay time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	currentHostTiming := r.hostTimings[host]
	currentHostTiming.crawlDelay = delay
	r.hostTimings[host] = currentHostTiming
}

// exponentialBackoffDelay computes exponential backoff based on count
// Does NOT take lock; caller must hold r.mu (RLock or Lock)
func (r *ConcurrentRateLimiter) exponentialBackoffDelay(backoffCount int) time.Duration {
	initialBackoff := 1 * time.Second
	multiplier := 2.0
	maxBackoff := 30 * time.Second

	// Compute exponential: initial * (multiplier ^ (count - 1))
	// First backoff (count=1): initialBackoff
	exponent := backoffCount - 1
	delay := float64(initialBackoff)
	for i := 0; i < exponent; i++ {
		delay *= multiplier
		if delay > float64(maxBackoff) {
			delay = float64(maxBackoff)
			break
		}
	}

	if r.jitter > 0 {
		delay += float64(r.computeJitter(r.jitter))
	}

	return time.Duration(delay)
}

// Backoff triggers exponential backoff for the given host.
// It increments the backoff counter and computes the delay.
func (r *ConcurrentRateLimiter) Backoff(host string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	currentHostTiming := r.hostTimings[host]
	currentHostTiming.backoffCount++
	currentHostTiming.backoffDelay = r.exponentialBackoffDelay(currentHostTiming.backoffCount)
	r.hostTimings[host] = currentHostTiming
}

// ResetBackoff resets the backoff counter for the given host.
// Called after a successful request to clear backoff state.
func (r *ConcurrentRateLimiter) ResetBackoff(host string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	currentHostTiming, exists := r.hostTimings[host]
	if exists {
		currentHostTiming.backoffCount = 0
		currentHostTiming.backoffDelay = time.Duration(0)
		r.hostTimings[host] = currentHostTiming
	}
}

// MarkLastFetchAsNow records that a fetch for the given host just
// completed. The politeness window for the next fetch starts here.
func (r *ConcurrentRateLimiter) MarkLastFetchAsNow(host string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	currentHostTiming := r.hostTimings[host]
	currentHostTiming.lastFetchAt = time.Now()
	r.hostTimings[host] = currentHostTiming
}

// Compute jitter for the given max duration
// Returns a pseudo-random duration between 0 and max (exclusive)
func (r *ConcurrentRateLimiter) computeJitter(max time.Duration) time.Duration {
	if max <= 0 {
		return 0
	}

	r.rngMu.Lock()
	defer r.rngMu.Unlock()

	if r.rng == nil {
		r.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	return time.Duration(r.rng.Int63n(int64(max)))
}

// ReserveDelay claims the host's next fetch slot and returns how long
// the caller must wait before fetching.
// SlotDelay = max(BaseDelay, crawlDelay, BackoffDelay) + Jitter, counted
// from the later of the previously claimed slot and the host's last
// fetch completion. Claims are serialized under the lock, so concurrent
// callers for one host receive strictly spaced slots; the politeness
// interval holds regardless of how many workers target the host.
func (r *ConcurrentRateLimiter) ReserveDelay(host string) time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()

	currentHostTiming := r.hostTimings[host]

	delays := []time.Duration{r.baseDelay, currentHostTiming.crawlDelay, currentHostTiming.backoffDelay}
	finalDelay := timeutil.MaxDuration(delays)
	finalDelay += r.computeJitter(r.jitter)

	now := time.Now()
	earliest := currentHostTiming.nextSlotAt
	if !currentHostTiming.lastFetchAt.IsZero() {
		if afterFetch := currentHostTiming.lastFetchAt.Add(finalDelay); afterFetch.After(earliest) {
			earliest = afterFetch
		}
	}

	var wait time.Duration
	if earliest.After(now) {
		wait = earliest.Sub(now)
	}

	currentHostTiming.nextSlotAt = now.Add(wait).Add(finalDelay)
	r.hostTimings[host] = currentHostTiming

	return wait
}
