package unread

import "github.com/chaptrailapp/chaptrail-server/internal/domain"

// undoCapacity bounds how many read operations can be rolled back per
// session; the oldest record is evicted when full.
const undoCapacity = 20

// UndoRecord is one reversible read operation.
type UndoRecord struct {
	// Entries are the chapters removed by the read, original order.
	Entries []domain.UnreadChapter
	// Index is where the first removed entry sat; reinsertion targets it,
	// falling back to append if the queue shrank below it.
	Index int
	// Page is presentation context (which list page the user was on) carried
	// through so the UI can restore its view; opaque to this package.
	Page int
}

// UndoStack is a bounded stack of undo records for one user session.
// The zero value is ready to use.
type UndoStack struct {
	records []UndoRecord
}

// Push saves a record, evicting the oldest when at capacity.
func (s *UndoStack) Push(rec UndoRecord) {
	if len(s.records) >= undoCapacity {
		copy(s.records, s.records[1:])
		s.records = s.records[:len(s.records)-1]
	}
	s.records = append(s.records, rec)
}

// Pop removes and returns the most recent record. ok is false when empty.
func (s *UndoStack) Pop() (rec UndoRecord, ok bool) {
	if len(s.records) == 0 {
		return UndoRecord{}, false
	}
	rec = s.records[len(s.records)-1]
	s.records = s.records[:len(s.records)-1]
	return rec, true
}

// Len returns the number of stored records.
func (s *UndoStack) Len() int { return len(s.records) }

// Apply undoes a read against the queue: entries go back at their recorded
// index when it is still within bounds, otherwise at the end. A structurally
// changed queue therefore degrades to an append, never a failure.
func (rec UndoRecord) Apply(queue []domain.UnreadChapter) []domain.UnreadChapter {
	index := rec.Index
	if index < 0 || index > len(queue) {
		index = End
	}
	return Insert(queue, rec.Entries, index)
}
