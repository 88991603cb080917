// Package diff implements the incremental chapter-diff engine: given a
// title's last-known chapter marker and a freshly scraped newest-first
// chapter list, it computes which chapters are new and how the marker pair
// advances. Everything here is pure; the sweep scheduler owns all I/O.
package diff

import (
	"github.com/chaptrailapp/chaptrail-server/internal/domain"
	"github.com/chaptrailapp/chaptrail-server/internal/normalize"
	"github.com/chaptrailapp/chaptrail-server/internal/scraper"
)

// Result describes the outcome of diffing one title against one scrape.
type Result struct {
	// NewChapters holds the chapter URLs that appeared since the stored
	// marker, ordered oldest-first so delivery reads naturally.
	NewChapters []string
	// Chapter and PreviousChapter are the updated marker pair: always the
	// two most recent scraped URLs, which bounds stored state regardless of
	// how many chapters were found.
	Chapter         string
	PreviousChapter string
	// MarkerStale is set when neither stored marker label appeared anywhere
	// in the scrape (the source renumbered or rewrote its history). Only the
	// newest chapter is reported new in that case; callers should log a
	// reconciliation event.
	MarkerStale bool
}

// Diff walks chapters newest to oldest, collecting URLs until it reaches the
// chapter recorded as current or previous. The previous-marker check
// tolerates a chapter being deleted upstream between sweeps. The scrape must
// be successful and non-empty; callers short-circuit failures before
// diffing.
func Diff(title *domain.Title, scrape *scraper.Result) Result {
	res := Result{
		Chapter: scrape.Chapters[0],
	}
	if len(scrape.Chapters) > 1 {
		res.PreviousChapter = scrape.Chapters[1]
	}

	currentLabel := normalize.ChapterLabel(title.Chapter)
	previousLabel := normalize.ChapterLabel(title.PreviousChapter)

	stopped := false
	for _, url := range scrape.Chapters {
		label := normalize.ChapterLabel(url)
		// The sentinel label never satisfies a stop condition: a malformed
		// marker must not swallow the backlog silently.
		if label != normalize.UnknownChapter && (label == currentLabel || label == previousLabel) {
			stopped = true
			break
		}
		res.NewChapters = append(res.NewChapters, url)
	}

	if !stopped {
		// Stale marker: the stored chapter vanished from the source history.
		// Reporting the whole list would flood recipients with a rebuilt
		// backlog, so only the newest chapter counts as new.
		res.NewChapters = scrape.Chapters[:1:1]
		res.MarkerStale = true
	}

	reverse(res.NewChapters)
	return res
}

// NoticeOnly reports whether the diff found nothing to deliver.
func (r Result) NoticeOnly() bool { return len(r.NewChapters) == 0 }

// Apply advances the title's marker pair. Separated from Diff so the
// scheduler can keep per-title updates atomic: markers move only after the
// whole title step, including notification build-up, is ready to commit.
func (r Result) Apply(title *domain.Title) {
	title.Chapter = r.Chapter
	title.PreviousChapter = r.PreviousChapter
}

func reverse(s []string) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
