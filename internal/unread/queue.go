// Package unread implements the per-user unread queue: a flat,
// insertion-ordered backlog of chapters, with read/undo semantics. All
// operations work on one user's queue at a time.
package unread

import (
	"github.com/chaptrailapp/chaptrail-server/internal/domain"
	"github.com/chaptrailapp/chaptrail-server/internal/normalize"
)

// End appends instead of splicing when passed as the insert index.
const End = -1

// Insert places entries into the queue at the given index, or appends when
// index is End or past the current length (the list may have shrunk since
// the index was recorded; appending is the undo fallback, never an error).
func Insert(queue []domain.UnreadChapter, entries []domain.UnreadChapter, index int) []domain.UnreadChapter {
	if index == End || index > len(queue) {
		return append(queue, entries...)
	}

	out := make([]domain.UnreadChapter, 0, len(queue)+len(entries))
	out = append(out, queue[:index]...)
	out = append(out, entries...)
	out = append(out, queue[index:]...)
	return out
}

// ReadResult carries everything needed to undo a read operation.
type ReadResult struct {
	// Removed holds the entries taken out, in their original relative order.
	Removed []domain.UnreadChapter
	// FirstIndex is the queue position of the first removed entry, -1 when
	// nothing matched.
	FirstIndex int
}

// Read removes every entry whose title matches titleName (canonical-form
// comparison) and, when urls is non-empty, whose URL is one of urls. The
// scan splices in place, so surviving entries keep their relative order.
func Read(queue []domain.UnreadChapter, titleName string, urls []string) ([]domain.UnreadChapter, ReadResult) {
	canonical := normalize.CanonicalTitle(titleName)
	res := ReadResult{FirstIndex: -1}

	out := queue[:0]
	for i := range queue {
		entry := queue[i]
		if normalize.CanonicalTitle(entry.TitleName) == canonical && urlWanted(urls, entry.URL) {
			if res.FirstIndex == -1 {
				res.FirstIndex = len(out)
			}
			res.Removed = append(res.Removed, entry)
			continue
		}
		out = append(out, entry)
	}

	return out, res
}

func urlWanted(urls []string, url string) bool {
	if len(urls) == 0 {
		return true
	}
	for _, u := range urls {
		if u == url {
			return true
		}
	}
	return false
}

// GroupByTitle is a read-only projection for display: entries bucketed by
// canonical title, preserving insertion order within each bucket and the
// order in which titles first appear.
func GroupByTitle(queue []domain.UnreadChapter) ([]string, map[string][]domain.UnreadChapter) {
	var order []string
	groups := make(map[string][]domain.UnreadChapter)

	for _, entry := range queue {
		key := normalize.CanonicalTitle(entry.TitleName)
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], entry)
	}

	return order, groups
}

// HealURLs re-points queued entries of one title at freshly scraped chapter
// URLs when the source rewrote its links: an entry whose chapter label
// matches a scraped URL but whose stored URL differs gets the new URL. The
// scan stops at the first scraped chapter with no queued counterpart, since
// anything older cannot have been queued either.
func HealURLs(queue []domain.UnreadChapter, titleName string, scrapedChapters []string) {
	canonical := normalize.CanonicalTitle(titleName)

	var mine []*domain.UnreadChapter
	for i := range queue {
		if normalize.CanonicalTitle(queue[i].TitleName) == canonical {
			mine = append(mine, &queue[i])
		}
	}
	if len(mine) == 0 {
		return
	}

	for _, newURL := range scrapedChapters {
		label := normalize.ChapterLabel(newURL)
		if label == normalize.UnknownChapter {
			continue
		}

		var match *domain.UnreadChapter
		for _, entry := range mine {
			if normalize.ChapterLabel(entry.URL) == label {
				match = entry
				break
			}
		}
		if match == nil {
			break
		}
		if match.URL != newURL {
			match.URL = newURL
		}
	}
}
