package fetcher

import (
	"net/url"
)

// HTTP boundary

type FetchParam struct {
	fetchUrl  url.URL
	userAgent string
}

func NewFetchParam(fetchUrl url.URL, userAgent string) FetchParam {
	return FetchParam{
		fetchUrl:  fetchUrl,
		userAgent: userAgent,
	}
}

func (f FetchParam) URL() url.URL {
	return f.fetchUrl
}

type FetchResult struct {
	url      url.URL
	finalURL url.URL
	body     []byte
	meta     ResponseMeta
}

func (f *FetchResult) URL() url.URL {
	return f.url
}

// FinalURL is the URL after following the redirect chain.
func (f *FetchResult) FinalURL() url.URL {
	return f.finalURL
}

func (f *FetchResult) Body() []byte {
	return f.body
}

func (f *FetchResult) Code() int {
	return f.meta.statusCode
}

func (f *FetchResult) ContentType() string {
	return f.meta.contentType
}

func (f *FetchResult) SizeBytes() int64 {
	return f.meta.transferredSizeBytes
}

// Truncated reports whether the body was cut at the size cap. The link
// extractor treats truncated bodies as partial, never as errors.
func (f *FetchResult) Truncated() bool {
	return f.meta.truncated
}

// IsHTML reports whether the response content type is parseable HTML.
// Non-HTML responses carry no body; they contribute status and metadata
// only and produce no outbound edges.
func (f *FetchResult) IsHTML() bool {
	return f.meta.isHTML
}

type ResponseMeta struct {
	statusCode           int
	contentType          string
	transferredSizeBytes int64
	truncated            bool
	isHTML               bool
}

// NewFetchResultForTest creates a FetchResult for testing purposes.
// This allows test packages to construct FetchResult values without
// accessing unexported fields directly.
func NewFetchResultForTest(
	u url.URL,
	finalURL url.URL,
	body []byte,
	statusCode int,
	contentType string,
	truncated bool,
	isHTML bool,
) FetchResult {
	return FetchResult{
		url:      u,
		finalURL: finalURL,
		body:     body,
		meta: ResponseMeta{
			statusCode:           statusCode,
			contentType:          contentType,
			transferredSizeBytes: int64(len(body)),
			truncated:            truncated,
			isHTML:               isHTML,
		},
	}
}
