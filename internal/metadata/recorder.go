package metadata

import (
	"time"

	"github.com/sirupsen/logrus"
)

/*
Metadata Collected
- Fetch timestamps
- HTTP status codes
- Crawl depth
- Skip and failure reasons

Determinism guarantees:
 - Metadata does not affect control flow
 - Errors do not reorder the frontier
 - Output is stable given identical inputs

Metadata is write-only.
No component may read metadata to influence crawl decisions.
*/

/*
Recorder captures structured crawl events and emits them through logrus.
It must not:
- perform I/O decisions
- affect control flow
Ordering guarantees:
- Events are recorded synchronously in the order they are received by a single worker.
- No global ordering across workers is guaranteed.
- Ordering is provided for debuggability, not causality.
*/
type Recorder struct {
	workerId string
	log      *logrus.Logger
}

func NewRecorder(workerId string, log *logrus.Logger) Recorder {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return Recorder{
		workerId: workerId,
		log:      log,
	}
}

func (r *Recorder) RecordError(
	observedAt time.Time,
	packageName string,
	action string,
	cause ErrorCause,
	errorString string,
	attrs []Attribute,
) {
	fields := logrus.Fields{
		"worker":  r.workerId,
		"package": packageName,
		"action":  action,
		"cause":   cause,
		"at":      observedAt.Format(time.RFC3339),
	}
	for _, attr := range attrs {
		fields[string(attr.key)] = attr.value
	}
	r.log.WithFields(fields).Warn(errorString)
}

func (r *Recorder) RecordFetch(
	fetchUrl string,
	httpStatus int,
	duration time.Duration,
	contentType string,
	crawlDepth int,
) {
	r.log.WithFields(logrus.Fields{
		"worker":       r.workerId,
		"url":          fetchUrl,
		"status":       httpStatus,
		"duration_ms":  duration.Milliseconds(),
		"content_type": contentType,
		"depth":        crawlDepth,
	}).Info("fetched")
}

func (r *Recorder) RecordSkip(skippedUrl string, reason string, crawlDepth int) {
	r.log.WithFields(logrus.Fields{
		"worker": r.workerId,
		"url":    skippedUrl,
		"reason": reason,
		"depth":  crawlDepth,
	}).Info("skipped")
}

/*
RecordFinalCrawlStats records a terminal, derived summary of a completed crawl.

Contract:
  - MUST be called exactly once per crawl execution.
  - MUST be called only after crawl termination
    (frontier exhausted, budget reached, or cancellation).
  - The provided stats MUST be derived from finalized run state,
    not accumulated incrementally via the recorder.
  - Recorded stats MUST NOT influence control flow or scheduling.
*/
func (r *Recorder) RecordFinalCrawlStats(
	totalPages int,
	totalEdges int,
	totalSkipped int,
	totalErrors int,
	duration time.Duration,
) {
	stats := crawlStats{
		totalPages:   totalPages,
		totalEdges:   totalEdges,
		totalSkipped: totalSkipped,
		totalErrors:  totalErrors,
		durationMs:   duration.Milliseconds(),
	}

	r.log.WithFields(logrus.Fields{
		"worker":      r.workerId,
		"pages":       stats.totalPages,
		"edges":       stats.totalEdges,
		"skipped":     stats.totalSkipped,
		"errors":      stats.totalErrors,
		"duration_ms": stats.durationMs,
	}).Info("crawl finished")
}

type MetadataSink interface {
	RecordError(
		observedAt time.Time,
		packageName string,
		action string,
		cause ErrorCause,
		details string,
		attrs []Attribute,
	)

	RecordFetch(
		fetchUrl string,
		httpStatus int,
		duration time.Duration,
		contentType string,
		crawlDepth int,
	)

	RecordSkip(skippedUrl string, reason string, crawlDepth int)
}

type CrawlFinalizer interface {
	RecordFinalCrawlStats(
		totalPages int,
		totalEdges int,
		totalSkipped int,
		totalErrors int,
		duration time.Duration,
	)
}

// NoopSink implements MetadataSink and CrawlFinalizer but does nothing.
// The scheduler (or a test) decides whether to inject Recorder or NoopSink;
// the purpose is to keep metadata orthogonal.
type NoopSink struct{}

func (n *NoopSink) RecordError(
	observedAt time.Time,
	packageName string,
	action string,
	cause ErrorCause,
	errorString string,
	attrs []Attribute,
) {
}

func (n *NoopSink) RecordFetch(
	fetchUrl string,
	httpStatus int,
	duration time.Duration,
	contentType string,
	crawlDepth int,
) {
}

func (n *NoopSink) RecordSkip(skippedUrl string, reason string, crawlDepth int) {}

func (n *NoopSink) RecordFinalCrawlStats(
	totalPages int,
	totalEdges int,
	totalSkipped int,
	totalErrors int,
	duration time.Duration,
) {
}
