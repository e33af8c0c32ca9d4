package extractor

import (
	"bytes"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"

	"github.com/JPArangoRenteria/sitegraph/internal/metadata"
)

/*
Responsibilities

- Parse an HTML body into a DOM tree
- Produce the candidate outbound links of one page
- Ignore non-navigational elements

Extraction Semantics

- Only href-bearing navigational elements are considered (a, area)
- Each fetch produces its own finite link sequence
- Malformed HTML yields a best-effort partial extraction, never a page
  failure; a page with zero extractable links is valid
*/

type LinkExtractor struct {
	metadataSink metadata.MetadataSink
}

func NewLinkExtractor(
	metadataSink metadata.MetadataSink,
) LinkExtractor {
	return LinkExtractor{
		metadataSink: metadataSink,
	}
}

// Links returns the candidate outbound links of the page in document
// order. goquery's parser (x/net/html) is tolerant of malformed markup,
// so broken pages degrade to whatever anchors were recoverable.
//
// contentType is the response Content-Type header; non-UTF-8 bodies are
// transcoded before parsing, falling back to BOM/meta sniffing when the
// header carries no charset.
func (l *LinkExtractor) Links(pageURL url.URL, contentType string, htmlBody []byte) []Link {
	reader, err := charset.NewReader(bytes.NewReader(htmlBody), contentType)
	if err != nil {
		reader = bytes.NewReader(htmlBody)
	}
	doc, err := goquery.NewDocumentFromReader(reader)
	if err != nil {
		// Parse-level failure: record and treat as a page with no links
		l.metadataSink.RecordError(
			time.Now(),
			"extractor",
			"LinkExtractor.Links",
			metadata.CauseContentInvalid,
			err.Error(),
			[]metadata.Attribute{
				metadata.NewAttr(metadata.AttrURL, pageURL.String()),
			},
		)
		return nil
	}

	var links []Link
	doc.Find("a[href], area[href]").Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok {
			return
		}
		href = strings.TrimSpace(href)
		if href == "" {
			return
		}
		links = append(links, Link{
			Href:       href,
			AnchorText: strings.TrimSpace(sel.Text()),
		})
	})

	return links
}
