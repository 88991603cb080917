package sweep

import (
	"context"
	"fmt"
	"time"

	"github.com/chaptrailapp/chaptrail-server/internal/diff"
	"github.com/chaptrailapp/chaptrail-server/internal/domain"
	"github.com/chaptrailapp/chaptrail-server/internal/events"
	"github.com/chaptrailapp/chaptrail-server/internal/normalize"
	"github.com/chaptrailapp/chaptrail-server/internal/notify"
	"github.com/chaptrailapp/chaptrail-server/internal/scraper"
	"github.com/chaptrailapp/chaptrail-server/internal/unread"
)

// sweepRun is one sweep's mutable state: the scrape cache and the
// per-sweep warning dedupe. Single writer, no locks.
type sweepRun struct {
	*Scheduler

	cache *scrapeCache
	// overflowWarned dedupes the unread-ceiling warning per user per sweep.
	overflowWarned map[string]bool
}

// sweepServers processes every server's titles, pruning admins that are no
// longer registered users along the way. Servers without a configured
// channel are counted but not fetched.
func (r *sweepRun) sweepServers(ctx context.Context, servers []*domain.Server) {
	for _, sv := range servers {
		if ctx.Err() != nil {
			return
		}
		r.pruneAdmins(sv)

		if !sv.HasChannel() {
			for range sv.Titles {
				r.tracker.TitleSkipped("no_channel")
			}
			r.catalog.PutServer(sv)
			r.tracker.OwnerDone()
			continue
		}

		for i := range sv.Titles {
			if ctx.Err() != nil {
				return
			}
			r.processTitle(ctx, &sv.Titles[i], owner{server: sv})
			if !sv.HasChannel() {
				// Channel went unreachable mid-owner; stop fetching.
				for range sv.Titles[i+1:] {
					r.tracker.TitleSkipped("no_channel")
				}
				break
			}
		}

		r.catalog.PutServer(sv)
		r.tracker.OwnerDone()
		r.emitProgress()
	}
	r.tracker.SetPhase(PhaseUsers)
}

// sweepUsers processes every user's titles. Owners idle past the configured
// age are counted but not fetched.
func (r *sweepRun) sweepUsers(ctx context.Context, users []*domain.User) {
	cutoff := time.Now().Add(-r.cfg.InactiveOwnerAge)

	for _, u := range users {
		if ctx.Err() != nil {
			return
		}
		if u.InactiveSince(cutoff) {
			for range u.Titles {
				r.tracker.TitleSkipped("owner_inactive")
			}
			r.tracker.OwnerDone()
			continue
		}

		removed := false
		for i := range u.Titles {
			if ctx.Err() != nil {
				return
			}
			if r.processTitle(ctx, &u.Titles[i], owner{user: u}) {
				removed = true
				break
			}
		}

		if !removed {
			r.catalog.PutUser(u)
		}
		r.tracker.OwnerDone()
		r.emitProgress()
	}
}

// owner names the recipient side of one title: exactly one of user or
// server is set.
type owner struct {
	user   *domain.User
	server *domain.Server
}

// processTitle runs the full per-title step: breaker gate, cached scrape,
// failure classification, diff, unread ingestion, delivery, marker commit.
// Errors never escape; every outcome becomes a counter, a skip, or a
// notification. Reports whether the owner was removed from the catalog.
func (r *sweepRun) processTitle(ctx context.Context, title *domain.Title, own owner) (ownerRemoved bool) {
	origin := title.Origin()
	if r.breaker.IsDown(origin) {
		r.tracker.TitleSkipped("origin_down")
		return false
	}

	res := r.fetch(ctx, title.URL, origin)
	if res == nil {
		// Context cancelled mid-fetch; the loop above stops on ctx.Err().
		return false
	}
	if !res.OK() || len(res.Chapters) == 0 {
		r.classifyFailure(ctx, title, own, res, origin)
		r.tracker.TitleFailed()
		r.tracker.TitleDone()
		return false
	}

	r.refreshMetadata(title, res)

	if own.user != nil {
		unread.HealURLs(own.user.Unread, title.Name, res.Chapters)
	}

	d := diff.Diff(title, res)
	if d.MarkerStale {
		r.logger.Warn("chapter marker stale, re-anchoring at newest",
			"title", title.Name,
			"origin", origin,
			"old_marker", normalize.ChapterLabel(title.Chapter),
			"new_marker", normalize.ChapterLabel(d.Chapter),
		)
	}

	if !d.NoticeOnly() {
		delivered, removed := r.deliver(ctx, title, own, d)
		if removed {
			return true
		}
		if !delivered {
			// Transient delivery failure: leave markers so the chapters
			// surface again next sweep. Never retried within this one.
			r.tracker.TitleFailed()
			r.tracker.TitleDone()
			return false
		}
		r.tracker.ChaptersFound(len(d.NewChapters))
		r.emitter.Emit(events.NewChapterNewEvent(title, d.NewChapters))
	}

	d.Apply(title)
	if d.MarkerStale {
		// Markers moved without any announcement; let stream
		// subscribers see the re-anchor.
		r.emitter.Emit(events.NewTitleUpdatedEvent(title))
	}
	r.tracker.TitleDone()
	return false
}

// fetch serves a scrape from the per-sweep cache or performs it. Returns
// nil only on context cancellation.
func (r *sweepRun) fetch(ctx context.Context, url, origin string) *scraper.Result {
	canonical := normalize.CanonicalURL(url)
	if res := r.cache.get(canonical); res != nil {
		return res
	}

	started := time.Now()
	res, err := r.scraper.Fetch(ctx, url)
	if err != nil {
		return nil
	}
	r.load.Add(origin, time.Since(started))
	r.cache.put(res)
	return res
}

// classifyFailure turns a typed scrape failure into breaker bookkeeping and
// opt-in owner warnings. Fatal statuses (521, 403, unresolved name) mark
// the origin down immediately; navigation timeouts count against the
// origin's threshold.
func (r *sweepRun) classifyFailure(ctx context.Context, title *domain.Title, own owner, res *scraper.Result, origin string) {
	warnOwner := false

	switch res.Status {
	case scraper.StatusNameNotResolved:
		r.breaker.RecordFatal(origin, "name not resolved")
		r.emitter.Emit(events.NewOriginDownEvent(origin, "name not resolved"))
		warnOwner = true
	case scraper.StatusError:
		switch res.HTTPStatus {
		case 521, 403:
			reason := fmt.Sprintf("http %d", res.HTTPStatus)
			r.breaker.RecordFatal(origin, reason)
			r.emitter.Emit(events.NewOriginDownEvent(origin, reason))
		case 404:
			warnOwner = true
		}
	case scraper.StatusNavigationTimeout:
		if r.breaker.RecordTimeout(origin) {
			r.emitter.Emit(events.NewOriginDownEvent(origin, "timeouts"))
		}
	}

	r.logger.Debug("scrape failed",
		"title", title.Name,
		"url", title.URL,
		"status", res.Status,
		"http_status", res.HTTPStatus,
		"detail", res.Detail,
	)

	if warnOwner {
		r.warnOwner(ctx, title, own, res)
	}
}

// warnOwner sends the scrape warning to whoever opted into alerts: the
// owning user, or every still-registered admin of the owning server.
func (r *sweepRun) warnOwner(ctx context.Context, title *domain.Title, own owner, res *scraper.Result) {
	detail := res.Detail
	if detail == "" {
		detail = string(res.Status)
	}

	if own.user != nil {
		if !own.user.ShowAlerts {
			return
		}
		msg := notify.ScrapeWarning(title.URL, detail, "")
		if err := r.notifier.SendToUser(ctx, own.user.ID, msg); err != nil {
			r.logger.Debug("scrape warning not delivered", "user_id", own.user.ID, "error", err)
		}
		return
	}

	msg := notify.ScrapeWarning(title.URL, detail, own.server.ID)
	for _, adminID := range own.server.Admins {
		admin := r.catalog.User(adminID)
		if admin == nil || !admin.ShowAlerts {
			continue
		}
		if err := r.notifier.SendToUser(ctx, adminID, msg); err != nil {
			r.logger.Debug("scrape warning not delivered", "user_id", adminID, "error", err)
		}
	}
}

// refreshMetadata picks up the canonical name, cover and description the
// scraper learned.
func (r *sweepRun) refreshMetadata(title *domain.Title, res *scraper.Result) {
	if res.Name != "" {
		title.Name = res.Name
	}
	if res.HasValidImage() {
		title.Image = res.Image
	}
	if res.Description != "" {
		title.Description = res.Description
	}
}

// deliver queues unread entries and sends the new-chapter notification.
// Returns delivered=false for a transient failure (markers must not
// advance) and removed=true when the recipient proved unreachable and was
// dropped from future sweeps.
func (r *sweepRun) deliver(ctx context.Context, title *domain.Title, own owner, d diff.Result) (delivered, removed bool) {
	if own.server != nil {
		return r.deliverToServer(ctx, title, own.server, d)
	}
	return r.deliverToUser(ctx, title, own.user, d)
}

func (r *sweepRun) deliverToServer(ctx context.Context, title *domain.Title, sv *domain.Server, d diff.Result) (delivered, removed bool) {
	msg := notify.NewChapters(title, d.NewChapters)
	if msg.RoleID == "" {
		msg.RoleID = sv.DefaultRoleID
	}

	err := r.notifier.SendToChannel(ctx, sv.ChannelID, msg)
	switch {
	case err == nil:
		return true, false
	case notify.IsUnreachable(err):
		// The channel is gone or the bot was kicked. Keep the server and
		// its titles but stop delivering until a channel is set again.
		// Markers stay put so this batch re-announces on the first sweep
		// after a new channel appears.
		r.logger.Warn("channel unreachable, clearing", "server_id", sv.ID, "channel_id", sv.ChannelID)
		sv.ChannelID = ""
		r.catalog.PutServer(sv)
		return false, false
	default:
		r.logger.Warn("channel delivery failed", "server_id", sv.ID, "error", err)
		return false, false
	}
}

func (r *sweepRun) deliverToUser(ctx context.Context, title *domain.Title, u *domain.User, d diff.Result) (delivered, removed bool) {
	if len(u.Unread) > r.cfg.UnreadCeiling {
		// Past the ceiling both delivery and ingestion pause; markers still
		// advance so the backlog does not grow further. Nothing is deleted.
		if !r.overflowWarned[u.ID] {
			r.overflowWarned[u.ID] = true
			if err := r.notifier.SendToUser(ctx, u.ID, notify.UnreadOverflow(r.cfg.UnreadCeiling)); err != nil {
				r.logger.Debug("overflow warning not delivered", "user_id", u.ID, "error", err)
			}
		}
		r.tracker.noteSkip("unread_overflow")
		return true, false
	}

	err := r.notifier.SendToUser(ctx, u.ID, notify.NewChapters(title, d.NewChapters))
	switch {
	case err == nil:
		// Ingest only after the send: a transient failure leaves markers
		// untouched, so ingesting first would duplicate the queue entries
		// when the chapters surface again next sweep.
		if u.UnreadEnabled {
			entries := make([]domain.UnreadChapter, 0, len(d.NewChapters))
			for _, url := range d.NewChapters {
				entries = append(entries, domain.UnreadChapter{
					TitleName: title.Name,
					URL:       url,
					Image:     title.Image,
				})
			}
			u.Unread = unread.Insert(u.Unread, entries, unread.End)
		}
		return true, false
	case notify.IsUnreachable(err):
		r.logger.Warn("user unreachable, removing", "user_id", u.ID)
		if derr := r.catalog.DeleteUser(ctx, u.ID); derr != nil {
			r.logger.Error("user removal failed", "user_id", u.ID, "error", derr)
		}
		return false, true
	default:
		r.logger.Warn("user delivery failed", "user_id", u.ID, "error", err)
		return false, false
	}
}

// pruneAdmins drops admin entries whose user record no longer exists.
func (r *sweepRun) pruneAdmins(sv *domain.Server) {
	var stale []string
	for _, id := range sv.Admins {
		if r.catalog.User(id) == nil {
			stale = append(stale, id)
		}
	}
	for _, id := range stale {
		r.logger.Info("pruning unregistered admin", "server_id", sv.ID, "user_id", id)
		sv.RemoveAdmin(id)
	}
}

func (r *sweepRun) emitProgress() {
	snap := r.tracker.Get()
	r.emitter.Emit(events.NewSweepProgressEvent(r.tracker.Activity(), snap.TitlesDone, snap.Errors))
}
