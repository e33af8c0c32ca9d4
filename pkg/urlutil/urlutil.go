package urlutil

import (
	"net/url"
	"path"
	"strings"
)

// Canonicalize applies a deterministic normalization to a URL, producing
// the canonical form used as node identity in the link graph.
//
// The normalization follows these rules:
//   - Scheme and host are lowercased
//   - Default ports are omitted (:80 for http, :443 for https)
//   - Dot segments ("." and "..") are collapsed
//   - Trailing slashes are removed, except for the root path "/"
//   - Fragments are removed
//   - Query strings are preserved verbatim: two URLs differing only by
//     query are distinct nodes
//
// Properties:
//   - Pure: no state, no memory
//   - Deterministic: same input always produces same output
//   - Idempotent: Canonicalize(Canonicalize(url)) == Canonicalize(url)
func Canonicalize(sourceUrl url.URL) url.URL {
	// Create a copy to avoid mutating the original
	canonical := sourceUrl

	// Lowercase scheme and host
	canonical.Scheme = lowerASCII(canonical.Scheme)
	canonical.Host = lowerASCII(canonical.Host)

	// Remove default port if present
	if host, port := canonical.Hostname(), canonical.Port(); port != "" {
		if (canonical.Scheme == "http" && port == "80") ||
			(canonical.Scheme == "https" && port == "443") {
			canonical.Host = host
		}
	}

	// Collapse dot segments, then strip trailing slashes (except root)
	if canonical.Path != "" {
		canonical.Path = path.Clean(canonical.Path)
		// path.Clean maps "" and "." to "."; the root stays "/"
		if canonical.Path == "." {
			canonical.Path = ""
		}
		canonical.RawPath = ""
	}
	if len(canonical.Path) > 1 {
		canonical.Path = stripTrailingSlash(canonical.Path)
	}

	// Remove fragment (anchor)
	canonical.Fragment = ""
	canonical.RawFragment = ""

	return canonical
}

// Resolve parses a raw (possibly relative) link found on basePage and
// returns its canonical absolute form.
//
// The second return value reports whether the link is crawlable at all:
// non-http(s) schemes (mailto:, javascript:, tel:, ...) are filtered,
// not errors. A raw string that cannot be parsed as a URL at all is a
// *NormalizeError with cause ErrCauseMalformedURL.
func Resolve(basePage url.URL, rawLink string) (url.URL, bool, error) {
	rawLink = strings.TrimSpace(rawLink)
	if rawLink == "" {
		return url.URL{}, false, nil
	}

	parsed, err := url.Parse(rawLink)
	if err != nil {
		return url.URL{}, false, &NormalizeError{
			Message: "cannot parse link: " + rawLink,
			Cause:   ErrCauseMalformedURL,
		}
	}

	resolved := basePage.ResolveReference(parsed)

	switch lowerASCII(resolved.Scheme) {
	case "http", "https":
	default:
		// mailto:, javascript:, tel:, ftp:, data: ... silently filtered
		return url.URL{}, false, nil
	}

	if resolved.Host == "" {
		return url.URL{}, false, &NormalizeError{
			Message: "link resolves to no host: " + rawLink,
			Cause:   ErrCauseMalformedURL,
		}
	}

	return Canonicalize(*resolved), true, nil
}

// lowerASCII converts ASCII characters to lowercase without allocating.
// This is faster than strings.ToLower for ASCII-only strings.
func lowerASCII(s string) string {
	var needsLower bool
	for i := 0; i < len(s); i++ {
		if s[i] >= 'A' && s[i] <= 'Z' {
			needsLower = true
			break
		}
	}
	if !needsLower {
		return s
	}
	b := make([]byte, len(s))
	copy(b, s)
	for i := 0; i < len(b); i++ {
		if b[i] >= 'A' && b[i] <= 'Z' {
			b[i] += 'a' - 'A'
		}
	}
	return string(b)
}

// stripTrailingSlash removes trailing slashes from a path.
func stripTrailingSlash(path string) string {
	for len(path) > 1 && path[len(path)-1] == '/' {
		path = path[:len(path)-1]
	}
	return path
}
