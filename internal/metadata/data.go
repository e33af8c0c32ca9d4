package metadata

import "time"

type FetchEvent struct {
	fetchUrl    string
	httpStatus  int
	duration    time.Duration
	contentType string
	crawlDepth  int
}

/*
crawlStats
  - Represents a terminal, derived summary of a completed crawl
  - Contains only aggregate counts and durations
  - Is computed by the scheduler after crawl termination
  - Is recorded exactly once
  - Must not influence scheduling, retries, or crawl termination
*/
type crawlStats struct {
	totalPages   int
	totalEdges   int
	totalSkipped int
	totalErrors  int
	durationMs   int64
}

/*
ErrorCause is a closed, canonical classification used exclusively for
observability (logging, metrics, reporting).

Rules:
  - ErrorCause is for observability only.
  - It must never be used to derive retry, continuation, or abort decisions.
  - ErrorCause values MUST have stable, package-agnostic semantics.
  - Pipeline packages MAY map their local errors to ErrorCause,
    but MUST NOT invent new meanings.

If a failure does not clearly match a defined cause, CauseUnknown MUST be used.
*/
type ErrorCause int

const (
	// CauseUnknown: the failure does not map cleanly to any known category.
	CauseUnknown ErrorCause = iota
	// CauseNetworkFailure: transport or remote availability failure
	// (timeouts, DNS failures, connection resets, redirect loops).
	CauseNetworkFailure
	// CausePolicyDisallow: crawling was disallowed by an explicit policy
	// (robots.txt disallow, 403/401, rate-limit enforcement).
	CausePolicyDisallow
	// CauseContentInvalid: content was fetched but could not be processed
	// (unparsable links, malformed seed, invalid configuration input).
	CauseContentInvalid
	// CauseRetryFailure: all retry attempts were exhausted.
	CauseRetryFailure
	// CauseInvariantViolation: a system-level invariant was violated
	// (impossible crawl depth, internal consistency checks failing).
	CauseInvariantViolation
)

type AttributeKey string

const (
	AttrURL     AttributeKey = "url"
	AttrHost    AttributeKey = "host"
	AttrReason  AttributeKey = "reason"
	AttrField   AttributeKey = "field"
	AttrMessage AttributeKey = "message"
)

type Attribute struct {
	key   AttributeKey
	value string
}

func NewAttr(key AttributeKey, value string) Attribute {
	return Attribute{key: key, value: value}
}

func (a Attribute) Key() AttributeKey {
	return a.key
}

func (a Attribute) Value() string {
	return a.value
}
