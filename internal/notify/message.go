package notify

import (
	"fmt"
	"strings"

	"github.com/chaptrailapp/chaptrail-server/internal/domain"
	"github.com/chaptrailapp/chaptrail-server/internal/normalize"
)

// maxChaptersPerMessage limits how many chapter lines one notification
// carries; anything beyond collapses into an "and N more" line.
const maxChaptersPerMessage = 10

// Kind tags a message so transports can style it.
type Kind int

const (
	KindNewChapters Kind = iota
	KindWarning
	KindInfo
)

// ChapterLink is one chapter reference inside a message.
type ChapterLink struct {
	Label string
	URL   string
}

// Message is a transport-agnostic notification. The chat layer renders it
// however it likes (embed, plain text); the core only fills the fields.
type Message struct {
	Kind     Kind
	Title    string
	Body     string
	ImageURL string
	Chapters []ChapterLink
	// Omitted holds how many chapters did not fit in Chapters.
	Omitted int
	// RoleID is set for server messages that should mention a role.
	RoleID string
}

// NewChapters builds the notification for a title's freshly found chapters.
// newChapters must be ordered oldest-first, the order readers catch up in.
func NewChapters(title *domain.Title, newChapters []string) *Message {
	msg := &Message{
		Kind:   KindNewChapters,
		Title:  title.Name,
		RoleID: title.RoleID,
	}
	if title.HasValidImage() {
		msg.ImageURL = title.Image
	}

	for i, url := range newChapters {
		if i == maxChaptersPerMessage {
			msg.Omitted = len(newChapters) - i
			break
		}
		msg.Chapters = append(msg.Chapters, ChapterLink{
			Label: normalize.ChapterLabel(url),
			URL:   url,
		})
	}

	return msg
}

// ScrapeWarning builds the opt-in alert for a failed scrape of a followed
// title. serverName is empty for user-owned titles.
func ScrapeWarning(url, statusDetail, serverName string) *Message {
	from := ""
	if serverName != "" {
		from = fmt.Sprintf(" from server %q", serverName)
	}

	return &Message{
		Kind:  KindWarning,
		Title: statusDetail + from,
		Body: fmt.Sprintf(
			"Failed to access %s\n\n"+
				"This can be a temporary problem on the website's side; try the URL yourself before changing anything. "+
				"If it persists, transfer the title to a supported website.", url),
	}
}

// UnreadOverflow builds the warning sent when a user crosses the unread
// ceiling and notification delivery pauses.
func UnreadOverflow(ceiling int) *Message {
	return &Message{
		Kind:  KindWarning,
		Title: "Too many unread chapters",
		Body: fmt.Sprintf(
			"You have more than %d unread chapters. Mark some as read or disable the unread list; "+
				"until then no new chapter notifications will be delivered.", ceiling),
	}
}

// PlainText renders a message as text for transports and logs without rich
// formatting.
func (m *Message) PlainText() string {
	var b strings.Builder
	b.WriteString(m.Title)

	if m.Body != "" {
		b.WriteString("\n")
		b.WriteString(m.Body)
	}
	for _, c := range m.Chapters {
		fmt.Fprintf(&b, "\n%s <%s>", c.Label, c.URL)
	}
	if m.Omitted > 0 {
		fmt.Fprintf(&b, "\nand %d more chapters...", m.Omitted)
	}

	return b.String()
}
