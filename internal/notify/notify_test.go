package notify_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chaptrailapp/chaptrail-server/internal/domain"
	"github.com/chaptrailapp/chaptrail-server/internal/notify"
)

func TestNewChaptersBuildsLabeledLinks(t *testing.T) {
	title := &domain.Title{
		Name:   "Solo Leveling",
		URL:    "https://asuracomic.net/series/solo-leveling",
		Image:  "https://asuracomic.net/covers/solo-leveling.webp",
		RoleID: "role-7",
	}

	msg := notify.NewChapters(title, []string{
		"https://asuracomic.net/series/solo-leveling/chapter/181",
		"https://asuracomic.net/series/solo-leveling/chapter/182",
	})

	require.Equal(t, notify.KindNewChapters, msg.Kind)
	require.Equal(t, "Solo Leveling", msg.Title)
	require.Equal(t, "role-7", msg.RoleID)
	require.Equal(t, "https://asuracomic.net/covers/solo-leveling.webp", msg.ImageURL)
	require.Len(t, msg.Chapters, 2)
	require.Equal(t, "Chapter 181", msg.Chapters[0].Label)
	require.Equal(t, "Chapter 182", msg.Chapters[1].Label)
	require.Zero(t, msg.Omitted)
}

func TestNewChaptersCapsAtTenAndCountsTheRest(t *testing.T) {
	title := &domain.Title{Name: "Solo Leveling", URL: "https://asuracomic.net/series/solo-leveling"}

	var urls []string
	for n := 150; n < 165; n++ {
		urls = append(urls, fmt.Sprintf("https://asuracomic.net/series/solo-leveling/chapter/%d", n))
	}

	msg := notify.NewChapters(title, urls)

	require.Len(t, msg.Chapters, 10)
	require.Equal(t, 5, msg.Omitted)
	require.Equal(t, "Chapter 150", msg.Chapters[0].Label)
}

func TestNewChaptersSkipsInvalidImage(t *testing.T) {
	title := &domain.Title{Name: "Solo Leveling", Image: "not a url"}

	msg := notify.NewChapters(title, nil)

	require.Empty(t, msg.ImageURL)
}

func TestScrapeWarningMentionsServer(t *testing.T) {
	msg := notify.ScrapeWarning("https://asuracomic.net/series/solo-leveling", "status 404", "srv-1")

	require.Equal(t, notify.KindWarning, msg.Kind)
	require.Contains(t, msg.Title, "status 404")
	require.Contains(t, msg.Title, "srv-1")
	require.Contains(t, msg.Body, "https://asuracomic.net/series/solo-leveling")

	personal := notify.ScrapeWarning("https://asuracomic.net/series/solo-leveling", "status 404", "")
	require.Equal(t, "status 404", personal.Title)
}

func TestUnreadOverflowNamesTheCeiling(t *testing.T) {
	msg := notify.UnreadOverflow(5000)

	require.Equal(t, notify.KindWarning, msg.Kind)
	require.Contains(t, msg.Body, "5000")
}

func TestIsUnreachable(t *testing.T) {
	unreachable := &notify.DeliveryError{Kind: notify.Unreachable, Err: errors.New("recipient blocked the bot")}
	transient := &notify.DeliveryError{Kind: notify.Transient, Err: errors.New("rate limited")}

	require.True(t, notify.IsUnreachable(unreachable))
	require.False(t, notify.IsUnreachable(transient))
	require.False(t, notify.IsUnreachable(errors.New("plain")))

	// Wrapped delivery errors still classify.
	require.True(t, notify.IsUnreachable(fmt.Errorf("send: %w", unreachable)))
}
