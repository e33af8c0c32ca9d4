package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"
	"time"

	"github.com/JPArangoRenteria/sitegraph/internal/metadata"
	"github.com/JPArangoRenteria/sitegraph/pkg/failure"
	"github.com/JPArangoRenteria/sitegraph/pkg/retry"
)

/*
Responsibilities

- Perform a single bounded HTTP GET
- Apply user-agent header and timeout
- Follow redirects up to a bounded hop count
- Cap body size; over-cap bodies are truncated and flagged, not rejected
- Classify failures into the crawl error taxonomy

Fetch Semantics

- HTML responses carry their (possibly truncated) body for link extraction
- Non-HTML content is fetched for status/metadata only; the body is discarded
- Exceeding the redirect bound fails the page with a redirect loop
- Every failure is recorded on the page node; fetches never abort the run

The fetcher never parses content; it only returns bytes and metadata.
*/

// errRedirectBound is the sentinel returned by CheckRedirect once the
// configured hop count is exceeded.
var errRedirectBound = errors.New("redirect bound exceeded")

type PageFetcher struct {
	metadataSink metadata.MetadataSink
	httpClient   *http.Client
	maxBodyBytes int64
}

func NewPageFetcher(
	metadataSink metadata.MetadataSink,
	requestTimeout time.Duration,
	maxRedirects int,
	maxBodyBytes int64,
) PageFetcher {
	client := &http.Client{
		Timeout: requestTimeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) > maxRedirects {
				return errRedirectBound
			}
			return nil
		},
	}
	return PageFetcher{
		metadataSink: metadataSink,
		httpClient:   client,
		maxBodyBytes: maxBodyBytes,
	}
}

// NewPageFetcherWithClient creates a PageFetcher with a custom HTTP
// client. This is useful for testing.
func NewPageFetcherWithClient(
	metadataSink metadata.MetadataSink,
	httpClient *http.Client,
	maxBodyBytes int64,
) PageFetcher {
	return PageFetcher{
		metadataSink: metadataSink,
		httpClient:   httpClient,
		maxBodyBytes: maxBodyBytes,
	}
}

func (p *PageFetcher) Fetch(
	ctx context.Context,
	crawlDepth int,
	fetchParam FetchParam,
	retryParam retry.RetryParam,
) (FetchResult, failure.ClassifiedError) {
	callerMethod := "PageFetcher.Fetch"
	startTime := time.Now()

	fetchTask := func() (FetchResult, failure.ClassifiedError) {
		return p.performFetch(ctx, fetchParam.fetchUrl, fetchParam.userAgent)
	}

	result, err := retry.Retry(retryParam, fetchTask)

	duration := time.Since(startTime)

	if err != nil {
		p.recordFailure(callerMethod, fetchParam.fetchUrl, err)
		return FetchResult{}, err
	}

	p.metadataSink.RecordFetch(
		fetchParam.fetchUrl.String(),
		result.Code(),
		duration,
		result.ContentType(),
		crawlDepth,
	)

	return result, nil
}

func (p *PageFetcher) performFetch(ctx context.Context, fetchUrl url.URL, userAgent string) (FetchResult, failure.ClassifiedError) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fetchUrl.String(), nil)
	if err != nil {
		return FetchResult{}, &FetchError{
			Message:   fmt.Sprintf("failed to create request: %v", err),
			Retryable: false,
			Cause:     ErrCauseNetworkFailure,
		}
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return FetchResult{}, classifyTransportError(err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 500:
		// Server errors (5xx) are retryable
		return FetchResult{}, &FetchError{
			Message:   fmt.Sprintf("server error: %d", resp.StatusCode),
			Retryable: true,
			Cause:     ErrCauseRequest5xx,
		}

	case resp.StatusCode == http.StatusTooManyRequests:
		return FetchResult{}, &FetchError{
			Message:   "rate limited (429)",
			Retryable: true,
			Cause:     ErrCauseRequestTooMany,
		}
	}

	// A declared length far past the cap is refused outright rather than
	// streamed and thrown away.
	if resp.ContentLength > 0 && resp.ContentLength > 8*p.maxBodyBytes {
		return FetchResult{}, &FetchError{
			Message:   fmt.Sprintf("declared content length %d exceeds hard cap", resp.ContentLength),
			Retryable: false,
			Cause:     ErrCauseTooLarge,
		}
	}

	contentType := resp.Header.Get("Content-Type")
	isHTML := isHTMLContent(contentType)

	finalURL := fetchUrl
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = *resp.Request.URL
	}

	meta := ResponseMeta{
		statusCode:  resp.StatusCode,
		contentType: contentType,
		isHTML:      isHTML,
	}

	// Non-HTML content contributes status and metadata only
	if !isHTML {
		n, _ := io.Copy(io.Discard, io.LimitReader(resp.Body, p.maxBodyBytes))
		meta.transferredSizeBytes = n
		return FetchResult{
			url:      fetchUrl,
			finalURL: finalURL,
			meta:     meta,
		}, nil
	}

	// Read one byte past the cap to detect truncation
	body, err := io.ReadAll(io.LimitReader(resp.Body, p.maxBodyBytes+1))
	if err != nil {
		return FetchResult{}, &FetchError{
			Message:   fmt.Sprintf("failed to read response body: %v", err),
			Retryable: true,
			Cause:     ErrCauseReadBodyError,
		}
	}

	if int64(len(body)) > p.maxBodyBytes {
		body = body[:p.maxBodyBytes]
		meta.truncated = true
	}
	meta.transferredSizeBytes = int64(len(body))

	return FetchResult{
		url:      fetchUrl,
		finalURL: finalURL,
		body:     body,
		meta:     meta,
	}, nil
}

// classifyTransportError maps a transport-level error from http.Client.Do
// into the fetch error taxonomy.
func classifyTransportError(err error) *FetchError {
	if errors.Is(err, errRedirectBound) {
		return &FetchError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCauseRedirectLoop,
		}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return &FetchError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCauseDNSFailure,
		}
	}

	if errors.Is(err, syscall.ECONNREFUSED) {
		return &FetchError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCauseConnectionRefused,
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &FetchError{
			Message:   err.Error(),
			Retryable: true,
			Cause:     ErrCauseTimeout,
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &FetchError{
			Message:   err.Error(),
			Retryable: true,
			Cause:     ErrCauseTimeout,
		}
	}

	return &FetchError{
		Message:   err.Error(),
		Retryable: true,
		Cause:     ErrCauseNetworkFailure,
	}
}

func (p *PageFetcher) recordFailure(callerMethod string, fetchUrl url.URL, err failure.ClassifiedError) {
	var fetchError *FetchError
	if errors.As(err, &fetchError) {
		p.metadataSink.RecordError(
			time.Now(),
			"fetcher",
			callerMethod,
			mapFetchErrorToMetadataCause(fetchError),
			err.Error(),
			[]metadata.Attribute{
				metadata.NewAttr(metadata.AttrURL, fetchUrl.String()),
			},
		)
		return
	}

	var retryError *retry.RetryError
	if errors.As(err, &retryError) {
		p.metadataSink.RecordError(
			time.Now(),
			"fetcher",
			callerMethod,
			metadata.CauseRetryFailure,
			err.Error(),
			[]metadata.Attribute{
				metadata.NewAttr(metadata.AttrMessage, retryError.Error()),
				metadata.NewAttr(metadata.AttrURL, fetchUrl.String()),
			},
		)
	}
}

func isHTMLContent(contentType string) bool {
	contentType = strings.ToLower(contentType)
	return strings.Contains(contentType, "text/html") ||
		strings.Contains(contentType, "application/xhtml")
}
