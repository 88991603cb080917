// Package normalize provides the canonical forms used for title identity:
// canonical names, humanized website origins, and chapter labels derived
// from chapter URLs. Two titles are "the same" iff their canonical names
// are string-equal; two chapter URLs are "the same chapter" iff their
// labels are string-equal.
package normalize

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// titlePunctuation is the punctuation stripped from names before comparison.
const titlePunctuation = "[]',.’`?!()\n&:/\\"

//nolint:gochecknoglobals // Reused caser, construction is not cheap.
var titleCaser = cases.Title(language.English, cases.NoLower)

// CanonicalTitle reduces a display name to its canonical identity form:
// lower-cased, punctuation stripped, separators collapsed to single spaces,
// each word title-cased. "Solo Leveling!" and "solo-leveling" both yield
// "Solo Leveling".
func CanonicalTitle(name string) string {
	s := strings.ToLower(name)
	s = strings.ReplaceAll(s, "-", " ")

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if strings.ContainsRune(titlePunctuation, r) {
			continue
		}
		b.WriteRune(r)
	}

	words := strings.Fields(b.String())
	for i, w := range words {
		words[i] = titleCaser.String(w)
	}

	return strings.Join(words, " ")
}

// SlugFromTitle builds the URL slug form of a name, used when deriving a
// fallback name from a page URL and when probing listing sites for a title.
func SlugFromTitle(name string) string {
	s := strings.ToLower(name)

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == ' ':
			b.WriteRune('-')
		case strings.ContainsRune(titlePunctuation, r):
		default:
			b.WriteRune(r)
		}
	}

	return b.String()
}

// Origin returns the humanized website name a URL belongs to, e.g.
// "https://www.asuracomic.net/series/x" -> "Asuracomic". The origin is the
// unit of circuit breaking and of FullMatch/PartialMatch classification.
// Unparseable URLs return OriginUnknown.
func Origin(rawURL string) string {
	parts := strings.Split(rawURL, "/")
	if len(parts) < 3 || parts[2] == "" {
		return OriginUnknown
	}
	return OriginFromHost(parts[2])
}

// OriginFromHost converts a bare hostname to the same humanized origin form
// Origin derives from a full URL. Config surfaces (breaker overrides) take
// hostnames; everything keyed per origin must go through this so the keys
// line up with what titles report.
func OriginFromHost(host string) string {
	labels := strings.Split(host, ".")
	if len(labels) < 2 {
		return OriginUnknown
	}

	// Every host label except the TLD and "www" contributes a word.
	var words []string
	for _, l := range labels[:len(labels)-1] {
		if l == "" || l == "www" {
			continue
		}
		words = append(words, strings.ToUpper(l[:1])+l[1:])
	}
	if len(words) == 0 {
		return OriginUnknown
	}

	return strings.Join(words, " ")
}

// OriginUnknown is returned for URLs whose host cannot be determined.
const OriginUnknown = "???"

// CanonicalURL normalizes a source URL for identity and cache-key purposes:
// doubled slashes after the scheme collapse to one, doubled hyphens to one,
// and a trailing slash is dropped.
func CanonicalURL(rawURL string) string {
	u := rawURL

	if i := strings.Index(u, "://"); i >= 0 {
		scheme, rest := u[:i+3], u[i+3:]
		for strings.Contains(rest, "//") {
			rest = strings.ReplaceAll(rest, "//", "/")
		}
		u = scheme + rest
	}

	for strings.Contains(u, "--") {
		u = strings.ReplaceAll(u, "--", "-")
	}

	return strings.TrimSuffix(u, "/")
}
