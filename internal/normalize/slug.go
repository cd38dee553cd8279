package normalize

import (
	"html"
	"net/url"
	"path"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	nonSlug    = regexp.MustCompile(`[^a-z0-9]+`)
	spaceRun   = regexp.MustCompile(`\s+`)
	slugSuffix = regexp.MustCompile(`\.(html?|php|aspx?)$`)
)

// Slugify turns free text into a URL and CSV safe handle: lowercase ASCII
// letters and digits joined by single hyphens.
func Slugify(s string) string {
	s = stripAccents(strings.ToLower(strings.TrimSpace(s)))
	s = nonSlug.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

func stripAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// slugFromURL extracts the last path segment of a product URL. Values that
// are not URLs are treated as ready-made handles.
func slugFromURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if !strings.Contains(raw, "/") {
		return Slugify(raw)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	p := strings.TrimRight(u.Path, "/")
	if p == "" {
		return ""
	}
	seg := slugSuffix.ReplaceAllString(path.Base(p), "")
	return Slugify(seg)
}

// cleanText unescapes HTML entities and collapses whitespace.
func cleanText(s string) string {
	s = html.UnescapeString(s)
	return strings.TrimSpace(spaceRun.ReplaceAllString(s, " "))
}
