package domain

import "time"

// User is a person following titles through direct messages.
type User struct {
	ID     string  `json:"id"`
	Titles []Title `json:"titles"`
	// Unread is the flat unread queue, insertion-ordered.
	Unread []UnreadChapter `json:"unread"`

	// Settings.
	UnreadEnabled      bool `json:"unread_enabled"`
	ShowAlerts         bool `json:"show_alerts"`
	ReceiveChangelog   bool `json:"receive_changelog"`
	ButtonOnNewChapter bool `json:"button_on_new_chapter"`

	// LastActiveAt is the last time the user issued any command. Owners idle
	// past the configured age are skipped by the sweep.
	LastActiveAt time.Time `json:"last_active_at"`
}

// NewUser returns a user with the original defaults: unread list and alerts
// on, changelogs on, per-chapter buttons off.
func NewUser(id string) *User {
	return &User{
		ID:               id,
		UnreadEnabled:    true,
		ShowAlerts:       true,
		ReceiveChangelog: true,
		LastActiveAt:     time.Now(),
	}
}

// Touch records command activity.
func (u *User) Touch() { u.LastActiveAt = time.Now() }

// InactiveSince reports whether the user has been idle since before cutoff.
func (u *User) InactiveSince(cutoff time.Time) bool {
	return u.LastActiveAt.Before(cutoff)
}

// Server is a community following titles through a broadcast channel.
type Server struct {
	ID        string  `json:"id"`
	ChannelID string  `json:"channel_id,omitempty"`
	Titles    []Title `json:"titles"`

	// Admins lists the user IDs that manage this server's titles. Admins who
	// are no longer registered users are pruned at sweep time.
	Admins []string `json:"admins,omitempty"`

	DefaultRoleID   string `json:"default_role_id,omitempty"`
	MentionAllRoles bool   `json:"mention_all_roles"`
}

// HasChannel reports whether notifications can be delivered anywhere.
func (s *Server) HasChannel() bool { return s.ChannelID != "" }

// RemoveAdmin deletes an admin by user ID, preserving order.
func (s *Server) RemoveAdmin(userID string) {
	for i, id := range s.Admins {
		if id == userID {
			s.Admins = append(s.Admins[:i], s.Admins[i+1:]...)
			return
		}
	}
}
