// Package bot ties routing, duplicate detection and the link store together
// behind the two gateway events the system reacts to.
package bot

import (
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"

	"github.com/yuuyuu661/suretto/internal/domain"
	"github.com/yuuyuu661/suretto/internal/links"
	"github.com/yuuyuu661/suretto/internal/metrics"
	"github.com/yuuyuu661/suretto/internal/resolver"
	"github.com/yuuyuu661/suretto/internal/routing"
)

type Orchestrator struct {
	sources  map[domain.ChannelId]struct{}
	table    domain.RoutingTable
	platform Platform
	resolver *resolver.Resolver
	links    links.Store
}

// New builds the orchestrator. sources and table are immutable after this.
func New(sources []domain.ChannelId, table domain.RoutingTable, platform Platform, store links.Store) *Orchestrator {
	srcSet := make(map[domain.ChannelId]struct{}, len(sources))
	for _, id := range sources {
		srcSet[id] = struct{}{}
	}
	return &Orchestrator{
		sources:  srcSet,
		table:    table,
		platform: platform,
		resolver: resolver.New(platform),
		links:    store,
	}
}

// Register attaches the gateway handlers to a session.
func (o *Orchestrator) Register(s *discordgo.Session) {
	s.AddHandler(o.onMessageCreate)
	s.AddHandler(o.onMessageDelete)
}

func (o *Orchestrator) onMessageCreate(_ *discordgo.Session, m *discordgo.MessageCreate) {
	trigger, ok := o.triggerFromMessage(m)
	if !ok {
		return
	}
	metrics.EventsTotal.WithLabelValues("message_create").Inc()
	o.HandleCreation(trigger)
}

// onMessageDelete fires for every deleted message the gateway reports,
// cached or not; only the id is trusted.
func (o *Orchestrator) onMessageDelete(_ *discordgo.Session, m *discordgo.MessageDelete) {
	id, ok := domain.ParseSnowflake(m.ID)
	if !ok {
		return
	}
	metrics.EventsTotal.WithLabelValues("message_delete").Inc()
	o.HandleDeletion(domain.DeletionTrigger{MessageId: id})
}

// triggerFromMessage filters and flattens an inbound message. Automated
// authors, direct messages and non-source channels are ignored outright.
func (o *Orchestrator) triggerFromMessage(m *discordgo.MessageCreate) (domain.CreationTrigger, bool) {
	if m.Author == nil || m.Author.Bot || m.GuildID == "" {
		return domain.CreationTrigger{}, false
	}

	channelId, ok := domain.ParseSnowflake(m.ChannelID)
	if !ok {
		return domain.CreationTrigger{}, false
	}
	if _, watched := o.sources[channelId]; !watched {
		return domain.CreationTrigger{}, false
	}

	messageId, ok := domain.ParseSnowflake(m.ID)
	if !ok {
		return domain.CreationTrigger{}, false
	}
	guildId, ok := domain.ParseSnowflake(m.GuildID)
	if !ok {
		return domain.CreationTrigger{}, false
	}
	authorId, _ := domain.ParseSnowflake(m.Author.ID)

	roles := make(map[domain.RoleId]struct{})
	displayName := m.Author.Username
	if m.Author.GlobalName != "" {
		displayName = m.Author.GlobalName
	}
	if m.Member != nil {
		for _, r := range m.Member.Roles {
			if id, ok := domain.ParseSnowflake(r); ok {
				roles[id] = struct{}{}
			}
		}
		if m.Member.Nick != "" {
			displayName = m.Member.Nick
		}
	}

	return domain.CreationTrigger{
		MessageId:   messageId,
		ChannelId:   channelId,
		GuildId:     guildId,
		AuthorId:    authorId,
		DisplayName: displayName,
		RoleIds:     roles,
		CreatedAt:   m.Timestamp,
		Permalink: fmt.Sprintf("https://discord.com/channels/%s/%s/%s",
			m.GuildID, m.ChannelID, m.ID),
	}, true
}

// HandleCreation runs the creation path: route, then per forum independently
// skip-or-create and record the link. A failure in one forum never aborts
// the others; partial success across the forum list is expected.
func (o *Orchestrator) HandleCreation(t domain.CreationTrigger) {
	log := slog.With(
		"event_id", uuid.NewString(),
		"message_id", t.MessageId,
		"author_id", t.AuthorId,
	)

	forums := routing.Targets(t.GuildId, t.RoleIds, o.table, o.platform)
	if len(forums) == 0 {
		metrics.RoutingFailures.Inc()
		log.Error("no eligible forum for author; check role-forum mapping and DEFAULT_FORUM_IDS")
		return
	}

	name := ThreadName(t.DisplayName, t.CreatedAt)
	reason := fmt.Sprintf("triggered by message %d in channel %d from %s (%d)",
		t.MessageId, t.ChannelId, t.DisplayName, t.AuthorId)

	for _, forum := range forums {
		if existing, found := o.resolver.FindExisting(t.GuildId, forum, t.DisplayName); found {
			metrics.ThreadsSkipped.Inc()
			log.Info("skip: user already has a thread", "forum", forum, "thread", existing.Name)
			continue
		}

		created, err := o.platform.CreateForumThread(forum, name, t.Permalink, reason)
		if err != nil {
			metrics.PlatformErrors.WithLabelValues("create_thread").Inc()
			log.Error("thread creation failed", "forum", forum, "error", err)
			continue
		}

		threadId, ok := domain.ParseSnowflake(created.ID)
		if !ok {
			log.Error("created thread has unusable id", "forum", forum, "id", created.ID)
			continue
		}
		if err := o.links.Add(t.MessageId, threadId); err != nil {
			metrics.PersistenceFailures.Inc()
			log.Error("failed to record thread link", "thread_id", threadId, "error", err)
		}

		metrics.ThreadsCreated.Inc()
		log.Info("created thread", "forum", forum, "thread_id", threadId, "name", created.Name)
	}
}

// HandleDeletion runs the cascade: pop whatever the creation path recorded
// for this message and delete each thread independently. A message with no
// record is a silent no-op. Thread identity comes only from the store, never
// from re-deriving names.
func (o *Orchestrator) HandleDeletion(t domain.DeletionTrigger) {
	threadIds, err := o.links.PopAll(t.MessageId)
	if err != nil {
		metrics.PersistenceFailures.Inc()
		slog.Error("failed to pop thread links", "message_id", t.MessageId, "error", err)
		return
	}
	if len(threadIds) == 0 {
		return
	}

	log := slog.With("event_id", uuid.NewString(), "message_id", t.MessageId)
	reason := fmt.Sprintf("source message %d deleted; auto-clean thread", t.MessageId)

	for _, threadId := range threadIds {
		ch, err := o.platform.FetchChannel(threadId)
		if err != nil {
			if IsNotFound(err) {
				log.Info("thread already gone", "thread_id", threadId)
				continue
			}
			metrics.PlatformErrors.WithLabelValues("fetch_channel").Inc()
			log.Error("failed to resolve thread", "thread_id", threadId, "error", err)
			continue
		}
		if !ch.IsThread() {
			log.Warn("linked channel is not a thread, leaving it alone", "channel_id", threadId)
			continue
		}

		if err := o.platform.DeleteThread(threadId, reason); err != nil {
			if IsNotFound(err) {
				log.Info("thread already gone", "thread_id", threadId)
				continue
			}
			metrics.PlatformErrors.WithLabelValues("delete_thread").Inc()
			log.Error("thread deletion failed", "thread_id", threadId, "error", err)
			continue
		}
		metrics.ThreadsDeleted.Inc()
		log.Info("deleted thread", "thread_id", threadId)
	}
}
