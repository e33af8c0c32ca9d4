package fetcher

import (
	"context"

	"github.com/JPArangoRenteria/sitegraph/pkg/failure"
	"github.com/JPArangoRenteria/sitegraph/pkg/retry"
)

type Fetcher interface {
	Fetch(
		ctx context.Context,
		crawlDepth int,
		fetchParam FetchParam,
		retryParam retry.RetryParam,
	) (FetchResult, failure.ClassifiedError)
}
