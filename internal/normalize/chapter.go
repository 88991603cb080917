package normalize

import "strings"

// UnknownChapter is the sentinel label for chapter URLs whose number cannot
// be derived. It never compares equal to a real chapter label, so a single
// malformed URL can never satisfy a diff stop condition.
const UnknownChapter = "Chapter ?"

// segmentRule picks which URL path segment carries the chapter number for a
// given origin substring. Segments are indexed over strings.Split(url, "/"),
// so "https://host/a/b/c" yields [https:  host a b c] with c at index 5.
type segmentRule struct {
	match string
	pick  func(parts []string) (segment string, sep string, ok bool)
}

func fixedIndex(i int) func([]string) (string, string, bool) {
	return func(parts []string) (string, string, bool) {
		if i >= len(parts) {
			return "", "", false
		}
		return parts[i], "-", true
	}
}

func fromEnd(offset int) func([]string) (string, string, bool) {
	return func(parts []string) (string, string, bool) {
		i := len(parts) - 1 - offset
		if i < 0 {
			return "", "", false
		}
		return parts[i], "-", true
	}
}

//nolint:gochecknoglobals // Static per-origin extraction table.
var segmentRules = []segmentRule{
	{match: "mangakakalot", pick: fixedIndex(5)},
	{match: "manganato", pick: fixedIndex(4)},
	{match: "mangabuddy", pick: fixedIndex(4)},
	{match: "bato.to", pick: func(parts []string) (string, string, bool) {
		if len(parts) <= 5 {
			return "", "", false
		}
		chunks := strings.Split(parts[5], "_")
		return chunks[len(chunks)-1], ".", true
	}},
	{match: "flamecomics", pick: func(parts []string) (string, string, bool) {
		if len(parts) <= 3 {
			return "", "", false
		}
		seg := parts[3]
		i := strings.Index(seg, "chapter")
		if i < 0 || i+8 > len(seg) {
			return "", "", false
		}
		return seg[i+8:], "-", true
	}},
	{match: "asura", pick: fromEnd(0)},
	{match: "arenascan", pick: fromEnd(1)},
	{match: "kingofshojo", pick: fromEnd(1)},
	{match: "comic.naver", pick: func(parts []string) (string, string, bool) {
		_, after, found := strings.Cut(strings.Join(parts, "/"), "no=")
		if !found {
			return "", "", false
		}
		return after, "\x00", true // single token, no splitting
	}},
	{match: "mgdemon", pick: func(parts []string) (string, string, bool) {
		if len(parts) <= 6 {
			return "", "", false
		}
		return strings.ReplaceAll(parts[6], "-VA54", ""), "-", true
	}},
}

// ChapterLabel derives the displayable label for a chapter URL, e.g.
// ".../solo-leveling/chapter-180" -> "Chapter 180" and
// ".../chapter-21-5" -> "Chapter 21.5". The function is total: anything it
// cannot parse yields UnknownChapter, never an error.
func ChapterLabel(chapterURL string) string {
	if chapterURL == "" {
		return UnknownChapter
	}

	parts := strings.Split(chapterURL, "/")

	segment, sep := "", "-"
	ok := false
	for _, rule := range segmentRules {
		if strings.Contains(chapterURL, rule.match) {
			segment, sep, ok = rule.pick(parts)
			break
		}
	}
	if !ok {
		// Default layout: https://host/<kind>/<title>/<chapter>.
		if len(parts) <= 5 {
			return UnknownChapter
		}
		segment, sep = parts[5], "-"
	}

	var tokens []string
	if sep == "\x00" {
		tokens = []string{segment}
	} else {
		tokens = strings.Split(segment, sep)
	}

	number := ""
	for _, tok := range tokens {
		digits := digitsOf(tok)
		if digits == "" {
			continue
		}
		if number != "" {
			number += "."
		}
		number += digits
	}

	if number == "" {
		return UnknownChapter
	}

	return "Chapter " + number
}

// digitsOf strips letters from a token, then turns every remaining non-digit
// run into a dot separator. "180" -> "180", "s2e05" -> "2.05", "abc" -> "".
func digitsOf(tok string) string {
	var b strings.Builder
	lastDot := false
	for _, r := range tok {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
			// dropped entirely, does not become a separator
		case r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDot = false
		default:
			if b.Len() > 0 && !lastDot {
				b.WriteRune('.')
				lastDot = true
			}
		}
	}

	return strings.TrimSuffix(strings.Trim(b.String(), "."), ".")
}

// SameChapter reports whether two chapter URLs denote the same chapter.
// The sentinel label never matches anything, including itself on a second
// URL, unless both URLs are literally equal.
func SameChapter(urlA, urlB string) bool {
	la, lb := ChapterLabel(urlA), ChapterLabel(urlB)
	if la == UnknownChapter || lb == UnknownChapter {
		return urlA == urlB
	}
	return la == lb
}
