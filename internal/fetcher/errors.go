package fetcher

import (
	"fmt"

	"github.com/JPArangoRenteria/sitegraph/internal/metadata"
	"github.com/JPArangoRenteria/sitegraph/pkg/failure"
)

type FetchErrorCause string

const (
	ErrCauseTimeout           FetchErrorCause = "timeout"
	ErrCauseConnectionRefused FetchErrorCause = "connection refused"
	ErrCauseDNSFailure        FetchErrorCause = "DNS failure"
	ErrCauseRedirectLoop      FetchErrorCause = "redirect loop"
	ErrCauseTooLarge          FetchErrorCause = "response too large"
	ErrCauseNetworkFailure    FetchErrorCause = "network failure"
	ErrCauseReadBodyError     FetchErrorCause = "failed to read response body"
	ErrCauseRequest5xx        FetchErrorCause = "5xx"
	ErrCauseRequestTooMany    FetchErrorCause = "too many requests"
)

type FetchError struct {
	Message   string
	Retryable bool
	Cause     FetchErrorCause
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetcher error: %s", e.Cause)
}

// Fetch failures are always recoverable at the run level: the node is
// marked failed and the crawl continues with the remaining frontier.
func (e *FetchError) Severity() failure.Severity {
	return failure.SeverityRecoverable
}

// IsRetryable returns whether this error is retryable
func (e *FetchError) IsRetryable() bool {
	return e.Retryable
}

// mapFetchErrorToMetadataCause maps fetcher-local error semantics
// to the canonical metadata.ErrorCause table.
//
// This mapping is observational only and MUST NOT be used
// to derive control-flow decisions.
func mapFetchErrorToMetadataCause(err *FetchError) metadata.ErrorCause {
	switch err.Cause {
	case ErrCauseTimeout,
		ErrCauseConnectionRefused,
		ErrCauseDNSFailure,
		ErrCauseRedirectLoop,
		ErrCauseNetworkFailure,
		ErrCauseReadBodyError,
		ErrCauseRequest5xx,
		ErrCauseTooLarge:
		return metadata.CauseNetworkFailure
	case ErrCauseRequestTooMany:
		return metadata.CausePolicyDisallow
	default:
		return metadata.CauseUnknown
	}
}
