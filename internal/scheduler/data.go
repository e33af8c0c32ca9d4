package scheduler

import (
	"net/url"

	"github.com/JPArangoRenteria/sitegraph/internal/fetcher"
	"github.com/JPArangoRenteria/sitegraph/internal/frontier"
	"github.com/JPArangoRenteria/sitegraph/pkg/failure"
)

// discoveredLink is an outbound link already resolved against its page
// and canonicalized, ready for admission.
type discoveredLink struct {
	target url.URL
	anchor string
}

// crawlResult is what a worker reports back for one frontier entry.
// Exactly one of robotsDenied / cancelled / fetchErr / result applies.
type crawlResult struct {
	entry frontier.Entry

	robotsDenied bool
	cancelled    bool

	fetchErr failure.ClassifiedError
	result   fetcher.FetchResult

	links []discoveredLink
}
