// Package events implements Server-Sent Events for real-time sweep progress
// and chapter update broadcasting.
package events

import (
	"time"

	"github.com/chaptrailapp/chaptrail-server/internal/domain"
)

// EventType represents the type of SSE event.
type EventType string

const (
	// EventSweepStarted represents the start of a sweep.
	EventSweepStarted EventType = "sweep.started"
	// EventSweepProgress represents a progress update during a sweep.
	EventSweepProgress EventType = "sweep.progress"
	// EventSweepCompleted represents the completion of a sweep.
	EventSweepCompleted EventType = "sweep.completed"

	// EventChapterNew represents newly detected chapters for a title.
	EventChapterNew EventType = "chapter.new"
	// EventTitleUpdated represents a title whose markers advanced.
	EventTitleUpdated EventType = "title.updated"

	// EventOriginDown represents an origin being excluded by the circuit breaker.
	EventOriginDown EventType = "origin.down"

	// EventLibraryUpdated represents a rebuilt library snapshot.
	EventLibraryUpdated EventType = "library.updated"

	// EventHeartbeat represents a connection keepalive event.
	EventHeartbeat EventType = "heartbeat"
)

// Event represents an SSE event to be sent to clients.
// The Data field contains the event payload as a JSON object for direct deserialization.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
	Type      EventType `json:"type"`
}

// SweepStartedEventData is the data payload for sweep start events.
type SweepStartedEventData struct {
	StartedAt time.Time `json:"started_at"`
	Seq       uint64    `json:"seq"`
	Servers   int       `json:"servers"`
	Users     int       `json:"users"`
}

// SweepProgressEventData is the data payload for sweep progress events.
type SweepProgressEventData struct {
	Activity string `json:"activity"`
	Titles   int    `json:"titles"`
	Errors   int    `json:"errors"`
}

// SweepCompletedEventData is the data payload for sweep completion events.
type SweepCompletedEventData struct {
	CompletedAt time.Time     `json:"completed_at"`
	Seq         uint64        `json:"seq"`
	Duration    time.Duration `json:"duration"`
	Titles      int           `json:"titles"`
	NewChapters int           `json:"new_chapters"`
	Errors      int           `json:"errors"`
}

// ChapterNewEventData is the data payload for new chapter events.
type ChapterNewEventData struct {
	TitleName string   `json:"title_name"`
	Origin    string   `json:"origin"`
	Chapters  []string `json:"chapters"`
}

// TitleUpdatedEventData is the data payload for title marker updates.
type TitleUpdatedEventData struct {
	TitleName string `json:"title_name"`
	Chapter   string `json:"chapter"`
}

// OriginDownEventData is the data payload for origin exclusion events.
type OriginDownEventData struct {
	Origin string `json:"origin"`
	Reason string `json:"reason"`
}

// LibraryUpdatedEventData is the data payload for library rebuild events.
type LibraryUpdatedEventData struct {
	Entries int       `json:"entries"`
	BuiltAt time.Time `json:"built_at"`
}

// HeartbeatEventData is the data payload for heartbeat events.
type HeartbeatEventData struct {
	ServerTime time.Time `json:"server_time"`
}

// NewSweepStartedEvent creates a sweep.started event.
func NewSweepStartedEvent(seq uint64, servers, users int) Event {
	return Event{
		Type: EventSweepStarted,
		Data: SweepStartedEventData{
			StartedAt: time.Now(),
			Seq:       seq,
			Servers:   servers,
			Users:     users,
		},
		Timestamp: time.Now(),
	}
}

// NewSweepProgressEvent creates a sweep.progress event.
func NewSweepProgressEvent(activity string, titles, errors int) Event {
	return Event{
		Type: EventSweepProgress,
		Data: SweepProgressEventData{
			Activity: activity,
			Titles:   titles,
			Errors:   errors,
		},
		Timestamp: time.Now(),
	}
}

// NewSweepCompletedEvent creates a sweep.completed event.
func NewSweepCompletedEvent(seq uint64, duration time.Duration, titles, newChapters, errors int) Event {
	return Event{
		Type: EventSweepCompleted,
		Data: SweepCompletedEventData{
			CompletedAt: time.Now(),
			Seq:         seq,
			Duration:    duration,
			Titles:      titles,
			NewChapters: newChapters,
			Errors:      errors,
		},
		Timestamp: time.Now(),
	}
}

// NewChapterNewEvent creates a chapter.new event.
func NewChapterNewEvent(title *domain.Title, chapters []string) Event {
	return Event{
		Type: EventChapterNew,
		Data: ChapterNewEventData{
			TitleName: title.Name,
			Origin:    title.Origin(),
			Chapters:  chapters,
		},
		Timestamp: time.Now(),
	}
}

// NewTitleUpdatedEvent creates a title.updated event.
func NewTitleUpdatedEvent(title *domain.Title) Event {
	return Event{
		Type: EventTitleUpdated,
		Data: TitleUpdatedEventData{
			TitleName: title.Name,
			Chapter:   title.ChapterLabel(),
		},
		Timestamp: time.Now(),
	}
}

// NewOriginDownEvent creates an origin.down event.
func NewOriginDownEvent(origin, reason string) Event {
	return Event{
		Type: EventOriginDown,
		Data: OriginDownEventData{
			Origin: origin,
			Reason: reason,
		},
		Timestamp: time.Now(),
	}
}

// NewLibraryUpdatedEvent creates a library.updated event.
func NewLibraryUpdatedEvent(entries int, builtAt time.Time) Event {
	return Event{
		Type: EventLibraryUpdated,
		Data: LibraryUpdatedEventData{
			Entries: entries,
			BuiltAt: builtAt,
		},
		Timestamp: time.Now(),
	}
}

// NewHeartbeatEvent creates a heartbeat event.
func NewHeartbeatEvent() Event {
	return Event{
		Type:      EventHeartbeat,
		Data:      HeartbeatEventData{ServerTime: time.Now()},
		Timestamp: time.Now(),
	}
}
