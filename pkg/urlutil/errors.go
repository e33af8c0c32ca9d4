package urlutil

import (
	"fmt"

	"github.com/JPArangoRenteria/sitegraph/pkg/failure"
)

type NormalizeErrorCause string

const (
	// ErrCauseMalformedURL indicates the raw link string could not be
	// parsed as a URL at all. The link is skipped; the page it was found
	// on is unaffected.
	ErrCauseMalformedURL NormalizeErrorCause = "malformed URL"
)

type NormalizeError struct {
	Message string
	Cause   NormalizeErrorCause
}

func (e *NormalizeError) Error() string {
	return fmt.Sprintf("normalize error: %s", e.Cause)
}

// Malformed links never abort the run.
func (e *NormalizeError) Severity() failure.Severity {
	return failure.SeverityRecoverable
}
