package bot

import (
	"errors"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/yuuyuu661/suretto/internal/domain"
)

// Platform is the thread CRUD surface of Discord the orchestrator depends
// on. It is satisfied by discordPlatform in production and by func-field
// mocks in tests.
type Platform interface {
	// ActiveThreads lists the guild's active threads whose parent is the
	// given forum. Discord only exposes active threads guild-wide, so the
	// adapter filters by parent.
	ActiveThreads(guild domain.GuildId, forum domain.ForumId) ([]*discordgo.Channel, error)

	// ArchivedThreads fetches one page of public archived threads of the
	// forum, older than before when a cursor is given.
	ArchivedThreads(forum domain.ForumId, before *time.Time, limit int) (*discordgo.ThreadsList, error)

	// CreateForumThread starts a thread in the forum with an initial
	// message holding content.
	CreateForumThread(forum domain.ForumId, name, content, reason string) (*discordgo.Channel, error)

	// FetchChannel resolves a channel by id, bypassing the state cache.
	FetchChannel(id domain.ChannelId) (*discordgo.Channel, error)

	// DeleteThread deletes a thread, attaching an audit log reason.
	DeleteThread(id domain.ThreadId, reason string) error

	// IsForumChannel reports whether the id is a forum channel of the guild.
	IsForumChannel(guild domain.GuildId, id domain.ForumId) bool
}

type discordPlatform struct {
	session *discordgo.Session
}

var _ Platform = (*discordPlatform)(nil)

// NewDiscordPlatform wraps a discordgo session as a Platform.
func NewDiscordPlatform(session *discordgo.Session) Platform {
	return &discordPlatform{session: session}
}

func (p *discordPlatform) ActiveThreads(guild domain.GuildId, forum domain.ForumId) ([]*discordgo.Channel, error) {
	list, err := p.session.GuildThreadsActive(domain.FormatSnowflake(guild))
	if err != nil {
		return nil, err
	}

	parent := domain.FormatSnowflake(forum)
	var threads []*discordgo.Channel
	for _, t := range list.Threads {
		if t.ParentID == parent {
			threads = append(threads, t)
		}
	}
	return threads, nil
}

func (p *discordPlatform) ArchivedThreads(forum domain.ForumId, before *time.Time, limit int) (*discordgo.ThreadsList, error) {
	return p.session.ThreadsArchived(domain.FormatSnowflake(forum), before, limit)
}

func (p *discordPlatform) CreateForumThread(forum domain.ForumId, name, content, reason string) (*discordgo.Channel, error) {
	return p.session.ForumThreadStart(
		domain.FormatSnowflake(forum),
		name,
		0, // auto-archive duration: platform default
		content,
		discordgo.WithAuditLogReason(reason),
	)
}

func (p *discordPlatform) FetchChannel(id domain.ChannelId) (*discordgo.Channel, error) {
	return p.session.Channel(domain.FormatSnowflake(id))
}

func (p *discordPlatform) DeleteThread(id domain.ThreadId, reason string) error {
	_, err := p.session.ChannelDelete(
		domain.FormatSnowflake(id),
		discordgo.WithAuditLogReason(reason),
	)
	return err
}

func (p *discordPlatform) IsForumChannel(guild domain.GuildId, id domain.ForumId) bool {
	cid := domain.FormatSnowflake(id)
	ch, err := p.session.State.Channel(cid)
	if err != nil {
		ch, err = p.session.Channel(cid)
		if err != nil {
			return false
		}
	}
	return ch.Type == discordgo.ChannelTypeGuildForum && ch.GuildID == domain.FormatSnowflake(guild)
}

// IsNotFound reports whether a platform error means the entity is already
// gone. Deletions treat that as success.
func IsNotFound(err error) bool {
	var rerr *discordgo.RESTError
	return errors.As(err, &rerr) && rerr.Response != nil && rerr.Response.StatusCode == http.StatusNotFound
}
