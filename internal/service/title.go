// Package service implements the application operations on top of the
// catalog: following and unfollowing titles, reading unread chapters,
// rebuilding the library, and reporting stats.
package service

import (
	"context"
	"log/slog"

	"github.com/chaptrailapp/chaptrail-server/internal/domain"
	"github.com/chaptrailapp/chaptrail-server/internal/errors"
	"github.com/chaptrailapp/chaptrail-server/internal/normalize"
	"github.com/chaptrailapp/chaptrail-server/internal/scraper"
	"github.com/chaptrailapp/chaptrail-server/internal/store"
	"github.com/chaptrailapp/chaptrail-server/internal/unread"
)

// OwnerKind distinguishes the two kinds of title list owners.
type OwnerKind string

// Owner kinds.
const (
	OwnerUser   OwnerKind = "user"
	OwnerServer OwnerKind = "server"
)

// TitleService manages follow, unfollow, replace-source, and transfer
// operations on user and server title lists.
type TitleService struct {
	catalog *store.Catalog
	scraper scraper.Scraper
	logger  *slog.Logger
}

// NewTitleService creates a new title service.
func NewTitleService(catalog *store.Catalog, sc scraper.Scraper, logger *slog.Logger) *TitleService {
	return &TitleService{
		catalog: catalog,
		scraper: sc,
		logger:  logger,
	}
}

// Follow scrapes the given URL and adds the title to the owner's list. The
// scraped name is matched against the existing list first: following the
// same title on the same origin is an error, while a new origin of an
// already-followed title is added as an additional source.
func (s *TitleService) Follow(ctx context.Context, kind OwnerKind, ownerID, url string) (*domain.Title, error) {
	titles, save, err := s.owner(kind, ownerID)
	if err != nil {
		return nil, err
	}

	canonical := normalize.CanonicalURL(url)

	result, err := s.scraper.Fetch(ctx, canonical)
	if err != nil {
		return nil, err
	}
	if !result.OK() {
		return nil, errors.Unavailable("source did not return a chapter list").WithCause(
			errors.New(string(result.Status)))
	}
	if len(result.Chapters) == 0 {
		return nil, errors.Validation("source has no chapters")
	}

	title := domain.Title{
		Name:        result.Name,
		URL:         canonical,
		Chapter:     result.Chapters[0],
		Image:       result.Image,
		Description: result.Description,
	}
	if len(result.Chapters) > 1 {
		title.PreviousChapter = result.Chapters[1]
	}

	match, idx := domain.MatchTitles(*titles, title.Name, title.URL)
	switch match {
	case domain.FullMatch:
		return nil, errors.AlreadyExists("already following " + (*titles)[idx].Name + " on this source")
	case domain.PartialMatch:
		// Additional source of a known title keeps the established name.
		title.Name = (*titles)[idx].Name
	case domain.NoMatch:
	}

	*titles = append(*titles, title)
	save()

	s.logger.Info("title followed",
		slog.String("owner", ownerID),
		slog.String("kind", string(kind)),
		slog.String("title", title.Name),
		slog.String("origin", title.Origin()))
	return &title, nil
}

// Unfollow removes every source of the named title from the owner's list.
// For users the title's queued unread chapters are dropped as well.
func (s *TitleService) Unfollow(ctx context.Context, kind OwnerKind, ownerID, name string) (int, error) {
	titles, save, err := s.owner(kind, ownerID)
	if err != nil {
		return 0, err
	}

	canonical := normalize.CanonicalTitle(name)
	kept := (*titles)[:0]
	removed := 0
	for _, t := range *titles {
		if t.CanonicalName() == canonical {
			removed++
			continue
		}
		kept = append(kept, t)
	}
	if removed == 0 {
		return 0, errors.NotFoundf("not following %q", name)
	}
	*titles = kept

	if kind == OwnerUser {
		user := s.catalog.User(ownerID)
		user.Unread, _ = unread.Read(user.Unread, name, nil)
	}
	save()

	s.logger.Info("title unfollowed",
		slog.String("owner", ownerID),
		slog.String("kind", string(kind)),
		slog.String("title", name),
		slog.Int("sources_removed", removed))
	return removed, nil
}

// ReplaceSource swaps one source of a followed title for a new URL, keeping
// the title's identity. The marker is re-anchored by chapter number: the
// chapter in the new source's list with the same label as the old marker
// becomes the new marker, so no chapters are re-announced.
func (s *TitleService) ReplaceSource(ctx context.Context, kind OwnerKind, ownerID, name, newURL string) (*domain.Title, error) {
	titles, save, err := s.owner(kind, ownerID)
	if err != nil {
		return nil, err
	}

	canonical := normalize.CanonicalTitle(name)
	idx := -1
	for i := range *titles {
		if (*titles)[i].CanonicalName() == canonical {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, errors.NotFoundf("not following %q", name)
	}

	canonicalURL := normalize.CanonicalURL(newURL)
	result, err := s.scraper.Fetch(ctx, canonicalURL)
	if err != nil {
		return nil, err
	}
	if !result.OK() || len(result.Chapters) == 0 {
		return nil, errors.Unavailable("replacement source did not return a chapter list")
	}

	title := &(*titles)[idx]
	oldLabel := title.ChapterLabel()

	title.URL = canonicalURL
	if result.HasValidImage() {
		title.Image = result.Image
	}

	// Re-anchor: find the chapter with the old marker's label in the new
	// list. If absent (new source is behind or numbers differently), fall
	// back to the newest chapter so the next sweep starts from a valid spot.
	anchor := 0
	for i, ch := range result.Chapters {
		if normalize.ChapterLabel(ch) == oldLabel {
			anchor = i
			break
		}
	}
	title.Chapter = result.Chapters[anchor]
	title.PreviousChapter = ""
	if anchor+1 < len(result.Chapters) {
		title.PreviousChapter = result.Chapters[anchor+1]
	}

	save()

	s.logger.Info("title source replaced",
		slog.String("owner", ownerID),
		slog.String("title", title.Name),
		slog.String("origin", title.Origin()),
		slog.String("anchored_at", title.ChapterLabel()))
	return title, nil
}

// Transfer moves a title between a user's list and a server's list. Markers
// travel with the title, so the destination continues where the source
// stopped.
func (s *TitleService) Transfer(ctx context.Context, from OwnerKind, fromID string, to OwnerKind, toID, name string) error {
	fromTitles, saveFrom, err := s.owner(from, fromID)
	if err != nil {
		return err
	}
	toTitles, saveTo, err := s.owner(to, toID)
	if err != nil {
		return err
	}

	canonical := normalize.CanonicalTitle(name)
	// kept is a fresh slice: the source list must stay intact until every
	// error return is behind us.
	var moved, kept []domain.Title
	for _, t := range *fromTitles {
		if t.CanonicalName() == canonical {
			moved = append(moved, t)
			continue
		}
		kept = append(kept, t)
	}
	if len(moved) == 0 {
		return errors.NotFoundf("not following %q", name)
	}

	for _, t := range moved {
		if match, _ := domain.MatchTitles(*toTitles, t.Name, t.URL); match == domain.FullMatch {
			return errors.AlreadyExists("destination already follows " + t.Name + " on " + t.Origin())
		}
	}

	*fromTitles = kept
	*toTitles = append(*toTitles, moved...)
	saveFrom()
	saveTo()

	s.logger.Info("title transferred",
		slog.String("title", name),
		slog.String("from", string(from)+":"+fromID),
		slog.String("to", string(to)+":"+toID),
		slog.Int("sources", len(moved)))
	return nil
}

// owner resolves an owner's title list and a save callback.
func (s *TitleService) owner(kind OwnerKind, id string) (*[]domain.Title, func(), error) {
	switch kind {
	case OwnerUser:
		user := s.catalog.User(id)
		if user == nil {
			return nil, nil, errors.NotFoundf("user %s not found", id)
		}
		return &user.Titles, func() { user.Touch(); s.catalog.PutUser(user) }, nil
	case OwnerServer:
		server := s.catalog.Server(id)
		if server == nil {
			return nil, nil, errors.NotFoundf("server %s not found", id)
		}
		return &server.Titles, func() { s.catalog.PutServer(server) }, nil
	default:
		return nil, nil, errors.Validationf("unknown owner kind %q", kind)
	}
}
