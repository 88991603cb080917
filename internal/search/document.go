// Package search provides full-text search over the merged library using
// Bleve, with fuzzy matching and origin filtering.
package search

import (
	"github.com/chaptrailapp/chaptrail-server/internal/domain"
	"github.com/chaptrailapp/chaptrail-server/internal/normalize"
)

// Document is the indexed form of a library entry.
type Document struct {
	ID          string   `json:"id"` // Slug of the entry name
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Origins     []string `json:"origins,omitempty"` // Humanized source names
	Chapter     string   `json:"chapter,omitempty"` // Latest chapter label across sources
	Readers     int      `json:"readers"`
	Servers     int      `json:"servers"`
}

// ToMap converts the document to a map with lowercase field names so they
// match the index mapping (Bleve defaults to Go field names otherwise).
func (d *Document) ToMap() map[string]any {
	m := map[string]any{
		"id":      d.ID,
		"name":    d.Name,
		"readers": d.Readers,
		"servers": d.Servers,
	}
	if d.Description != "" {
		m["description"] = d.Description
	}
	if len(d.Origins) > 0 {
		m["origins"] = d.Origins
	}
	if d.Chapter != "" {
		m["chapter"] = d.Chapter
	}
	return m
}

// EntryToDocument converts a library entry to its indexed form.
func EntryToDocument(entry *domain.LibraryEntry) *Document {
	origins := make([]string, 0, len(entry.URLs))
	for _, u := range entry.URLs {
		origins = append(origins, normalize.Origin(u))
	}

	var chapter string
	if len(entry.LastChapters) > 0 {
		chapter = normalize.ChapterLabel(entry.LastChapters[0])
	}

	return &Document{
		ID:          normalize.SlugFromTitle(entry.Name),
		Name:        entry.Name,
		Description: entry.Description,
		Origins:     origins,
		Chapter:     chapter,
		Readers:     entry.Readers,
		Servers:     entry.Servers,
	}
}
