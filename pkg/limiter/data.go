package limiter

import "time"

// timing-related data used to decide when a host may be fetched again
type hostTiming struct {
	lastFetchAt  time.Time
	nextSlotAt   time.Time
	backoffDelay time.Duration
	crawlDelay   time.Duration
	backoffCount int
}

func (h *hostTiming) CrawlDelay() time.Duration {
	return h.crawlDelay
}

func (h *hostTiming) BackoffDelay() time.Duration {
	return h.backoffDelay
}

func (h *hostTiming) LastFetchAt() time.Time {
	return h.lastFetchAt
}

func (h *hostTiming) NextSlotAt() time.Time {
	return h.nextSlotAt
}

func (h *hostTiming) BackoffCount() int {
	return h.backoffCount
}
