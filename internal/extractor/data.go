package extractor

// Link is a raw candidate hyperlink pulled from an HTML body.
// The href is untouched: resolution and canonicalization happen in
// urlutil, admission in the scheduler.
type Link struct {
	Href       string
	AnchorText string
}
