package domain

import "strings"

// UnreadChapter is one not-yet-read chapter in a user's queue. The queue is
// a single flat sequence per user; insertion order is display order, which
// is deliberately not chapter-number order.
type UnreadChapter struct {
	// TitleName is the display name of the title the chapter belongs to.
	TitleName string `json:"title_name"`
	// URL is the chapter page URL.
	URL string `json:"url"`
	// Image is the title's cover image at the time the chapter was queued.
	Image string `json:"image,omitempty"`
}

// HasValidImage reports whether the cover image URL is usable.
func (u *UnreadChapter) HasValidImage() bool {
	return u.Image != "" && strings.HasPrefix(u.Image, "http")
}
