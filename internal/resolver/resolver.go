// Package resolver answers "does this user already have a thread in this
// forum". Ownership is derived from the thread name convention, so the check
// has to scan both active and archived threads; no index is kept and repeated
// calls re-scan. Forum thread counts are moderate, so that trade-off holds.
package resolver

import (
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/yuuyuu661/suretto/internal/domain"
)

// ArchivedScanLimit bounds how many archived threads are inspected per forum.
const ArchivedScanLimit = 200

// archivePageSize is the Discord API maximum per archived-threads request.
const archivePageSize = 100

// ThreadLister is the slice of the platform surface the resolver needs.
type ThreadLister interface {
	// ActiveThreads lists the active threads whose parent is the forum.
	ActiveThreads(guild domain.GuildId, forum domain.ForumId) ([]*discordgo.Channel, error)
	// ArchivedThreads fetches one page of public archived threads, older
	// than before when a cursor is given.
	ArchivedThreads(forum domain.ForumId, before *time.Time, limit int) (*discordgo.ThreadsList, error)
}

type Resolver struct {
	lister ThreadLister
}

func New(lister ThreadLister) *Resolver {
	return &Resolver{lister: lister}
}

// FindExisting returns the first thread in the forum owned by displayName,
// checking active threads before paging through archived ones. Archive
// listing failures are logged and swallowed: a possible duplicate thread is
// preferred over blocking creation entirely.
func (r *Resolver) FindExisting(guild domain.GuildId, forum domain.ForumId, displayName string) (*discordgo.Channel, bool) {
	active, err := r.lister.ActiveThreads(guild, forum)
	if err != nil {
		slog.Warn("listing active threads failed", "forum", forum, "error", err)
	}
	for _, t := range active {
		if domain.ThreadBelongsTo(t.Name, displayName) {
			return t, true
		}
	}

	var before *time.Time
	scanned := 0
	for scanned < ArchivedScanLimit {
		limit := min(archivePageSize, ArchivedScanLimit-scanned)
		page, err := r.lister.ArchivedThreads(forum, before, limit)
		if err != nil {
			slog.Warn("listing archived threads failed", "forum", forum, "error", err)
			return nil, false
		}
		for _, t := range page.Threads {
			if domain.ThreadBelongsTo(t.Name, displayName) {
				return t, true
			}
		}
		scanned += len(page.Threads)
		if !page.HasMore || len(page.Threads) == 0 {
			break
		}
		// Cursor for the next page: the archive timestamp of the last
		// thread the platform returned.
		last := page.Threads[len(page.Threads)-1]
		if last.ThreadMetadata == nil {
			break
		}
		ts := last.ThreadMetadata.ArchiveTimestamp
		before = &ts
	}
	return nil, false
}
