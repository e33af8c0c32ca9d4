package failure

type Severity int

// scheduler control flow
const (
	SeverityFatal Severity = iota
	SeverityRecoverable
)

// ClassifiedError is the error contract shared by all crawl components.
// The scheduler consults Severity to decide whether a failure aborts the
// run or is recorded on the affected page while the crawl continues.
type ClassifiedError interface {
	error
	Severity() Severity
}
