package service

import (
	"log/slog"
	"sync"

	"github.com/chaptrailapp/chaptrail-server/internal/domain"
	"github.com/chaptrailapp/chaptrail-server/internal/errors"
	"github.com/chaptrailapp/chaptrail-server/internal/store"
	"github.com/chaptrailapp/chaptrail-server/internal/unread"
)

// UnreadService manages per-user unread queues: listing, marking read with
// undo, and queue-size accounting. Undo stacks are session state, kept in
// memory only.
type UnreadService struct {
	catalog *store.Catalog
	logger  *slog.Logger

	mu    sync.Mutex
	undos map[string]*unread.UndoStack
}

// NewUnreadService creates a new unread service.
func NewUnreadService(catalog *store.Catalog, logger *slog.Logger) *UnreadService {
	return &UnreadService{
		catalog: catalog,
		logger:  logger,
		undos:   make(map[string]*unread.UndoStack),
	}
}

// TitleGroup is one title's bucket of queued chapters, for display.
type TitleGroup struct {
	Title    string                 `json:"title"`
	Chapters []domain.UnreadChapter `json:"chapters"`
}

// List returns the user's unread queue grouped by title, in the order titles
// first entered the queue.
func (s *UnreadService) List(userID string) ([]TitleGroup, error) {
	user := s.catalog.User(userID)
	if user == nil {
		return nil, errors.NotFoundf("user %s not found", userID)
	}

	order, groups := unread.GroupByTitle(user.Unread)
	out := make([]TitleGroup, 0, len(order))
	for _, key := range order {
		entries := groups[key]
		out = append(out, TitleGroup{
			// Display name from the first entry; the key is canonical form.
			Title:    entries[0].TitleName,
			Chapters: entries,
		})
	}
	return out, nil
}

// Read removes the given chapters of one title from the user's queue and
// records an undo entry. Empty urls means "all chapters of this title".
// page is presentation context echoed back on undo.
func (s *UnreadService) Read(userID, titleName string, urls []string, page int) (int, error) {
	user := s.catalog.User(userID)
	if user == nil {
		return 0, errors.NotFoundf("user %s not found", userID)
	}

	queue, res := unread.Read(user.Unread, titleName, urls)
	if len(res.Removed) == 0 {
		return 0, errors.NotFoundf("no unread chapters of %q", titleName)
	}
	user.Unread = queue
	user.Touch()
	s.catalog.PutUser(user)

	s.stack(userID).Push(unread.UndoRecord{
		Entries: res.Removed,
		Index:   res.FirstIndex,
		Page:    page,
	})

	s.logger.Debug("unread chapters read",
		slog.String("user", userID),
		slog.String("title", titleName),
		slog.Int("removed", len(res.Removed)))
	return len(res.Removed), nil
}

// ClearAll empties the user's queue, for "mark all read" and for disabling
// the unread feature. The wiped queue goes on the undo stack as a single
// record, so a fat-fingered clear is recoverable like any other read.
func (s *UnreadService) ClearAll(userID string) (int, error) {
	user := s.catalog.User(userID)
	if user == nil {
		return 0, errors.NotFoundf("user %s not found", userID)
	}

	cleared := len(user.Unread)
	if cleared > 0 {
		s.stack(userID).Push(unread.UndoRecord{
			Entries: user.Unread,
			Index:   0,
		})
	}
	user.Unread = nil
	user.Touch()
	s.catalog.PutUser(user)

	s.logger.Debug("unread queue cleared",
		slog.String("user", userID),
		slog.Int("removed", cleared))
	return cleared, nil
}

// Undo rolls back the user's most recent read operation and returns the
// presentation page recorded with it.
func (s *UnreadService) Undo(userID string) (page int, restored int, err error) {
	user := s.catalog.User(userID)
	if user == nil {
		return 0, 0, errors.NotFoundf("user %s not found", userID)
	}

	rec, ok := s.stack(userID).Pop()
	if !ok {
		return 0, 0, errors.NotFound("nothing to undo")
	}

	user.Unread = rec.Apply(user.Unread)
	user.Touch()
	s.catalog.PutUser(user)

	s.logger.Debug("unread read undone",
		slog.String("user", userID),
		slog.Int("restored", len(rec.Entries)))
	return rec.Page, len(rec.Entries), nil
}

// Count returns the size of the user's unread queue.
func (s *UnreadService) Count(userID string) (int, error) {
	user := s.catalog.User(userID)
	if user == nil {
		return 0, errors.NotFoundf("user %s not found", userID)
	}
	return len(user.Unread), nil
}

func (s *UnreadService) stack(userID string) *unread.UndoStack {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.undos[userID]
	if !ok {
		st = &unread.UndoStack{}
		s.undos[userID] = st
	}
	return st
}
