package resolver

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yuuyuu661/suretto/internal/domain"
)

// MockThreadLister mocks the ThreadLister interface.
type MockThreadLister struct {
	activeFunc   func(guild domain.GuildId, forum domain.ForumId) ([]*discordgo.Channel, error)
	archivedFunc func(forum domain.ForumId, before *time.Time, limit int) (*discordgo.ThreadsList, error)

	archivedCalls int
}

func (m *MockThreadLister) ActiveThreads(guild domain.GuildId, forum domain.ForumId) ([]*discordgo.Channel, error) {
	if m.activeFunc != nil {
		return m.activeFunc(guild, forum)
	}
	return nil, nil
}

func (m *MockThreadLister) ArchivedThreads(forum domain.ForumId, before *time.Time, limit int) (*discordgo.ThreadsList, error) {
	m.archivedCalls++
	if m.archivedFunc != nil {
		return m.archivedFunc(forum, before, limit)
	}
	return &discordgo.ThreadsList{}, nil
}

func thread(id, name string) *discordgo.Channel {
	return &discordgo.Channel{
		ID:             id,
		Name:           name,
		Type:           discordgo.ChannelTypeGuildPublicThread,
		ThreadMetadata: &discordgo.ThreadMetadata{ArchiveTimestamp: time.Now()},
	}
}

func TestFindExisting(t *testing.T) {
	const (
		guild = domain.GuildId(1)
		forum = domain.ForumId(10)
	)

	t.Run("active thread match returns without touching archives", func(t *testing.T) {
		lister := &MockThreadLister{
			activeFunc: func(domain.GuildId, domain.ForumId) ([]*discordgo.Channel, error) {
				return []*discordgo.Channel{
					thread("1", "Bob/1/5"),
					thread("2", "Alice/1/11"),
				}, nil
			},
		}
		r := New(lister)

		got, found := r.FindExisting(guild, forum, "Alice")

		require.True(t, found)
		assert.Equal(t, "2", got.ID)
		assert.Zero(t, lister.archivedCalls, "archived listing should not run when an active thread matches")
	})

	t.Run("archived thread match after active miss", func(t *testing.T) {
		lister := &MockThreadLister{
			archivedFunc: func(_ domain.ForumId, _ *time.Time, _ int) (*discordgo.ThreadsList, error) {
				return &discordgo.ThreadsList{
					Threads: []*discordgo.Channel{thread("3", "Alice/12/24")},
				}, nil
			},
		}
		r := New(lister)

		got, found := r.FindExisting(guild, forum, "Alice")

		require.True(t, found)
		assert.Equal(t, "3", got.ID)
	})

	t.Run("ownership requires exact first segment", func(t *testing.T) {
		lister := &MockThreadLister{
			activeFunc: func(domain.GuildId, domain.ForumId) ([]*discordgo.Channel, error) {
				return []*discordgo.Channel{
					thread("1", "Alicia/1/11"),
					thread("2", "Alice Smith/1/11"),
					thread("3", "Alice"), // no separator, not owned
				}, nil
			},
		}
		r := New(lister)

		_, found := r.FindExisting(guild, forum, "Alice")
		assert.False(t, found)

		_, found = r.FindExisting(guild, forum, "Al")
		assert.False(t, found, "a display name must not match another name it prefixes")
	})

	t.Run("archive paging stops at the scan limit", func(t *testing.T) {
		lister := &MockThreadLister{}
		lister.archivedFunc = func(_ domain.ForumId, before *time.Time, limit int) (*discordgo.ThreadsList, error) {
			page := &discordgo.ThreadsList{HasMore: true}
			for i := 0; i < limit; i++ {
				page.Threads = append(page.Threads, thread(fmt.Sprint(i), fmt.Sprintf("Other%d/1/1", i)))
			}
			return page, nil
		}
		r := New(lister)

		_, found := r.FindExisting(guild, forum, "Alice")

		assert.False(t, found)
		assert.Equal(t, 2, lister.archivedCalls, "200-thread cap should take two 100-sized pages")
	})

	t.Run("paging follows the archive timestamp cursor", func(t *testing.T) {
		var cursors []*time.Time
		first := thread("1", "Bob/1/1")
		firstTs := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
		first.ThreadMetadata.ArchiveTimestamp = firstTs

		lister := &MockThreadLister{}
		lister.archivedFunc = func(_ domain.ForumId, before *time.Time, _ int) (*discordgo.ThreadsList, error) {
			cursors = append(cursors, before)
			if before == nil {
				return &discordgo.ThreadsList{Threads: []*discordgo.Channel{first}, HasMore: true}, nil
			}
			return &discordgo.ThreadsList{Threads: []*discordgo.Channel{thread("2", "Alice/1/1")}}, nil
		}
		r := New(lister)

		got, found := r.FindExisting(guild, forum, "Alice")

		require.True(t, found)
		assert.Equal(t, "2", got.ID)
		require.Len(t, cursors, 2)
		assert.Nil(t, cursors[0])
		require.NotNil(t, cursors[1])
		assert.Equal(t, firstTs, *cursors[1])
	})

	t.Run("archive listing failure is swallowed as no match", func(t *testing.T) {
		lister := &MockThreadLister{
			archivedFunc: func(domain.ForumId, *time.Time, int) (*discordgo.ThreadsList, error) {
				return nil, errors.New("missing access")
			},
		}
		r := New(lister)

		got, found := r.FindExisting(guild, forum, "Alice")

		assert.False(t, found)
		assert.Nil(t, got)
	})

	t.Run("active listing failure still scans archives", func(t *testing.T) {
		lister := &MockThreadLister{
			activeFunc: func(domain.GuildId, domain.ForumId) ([]*discordgo.Channel, error) {
				return nil, errors.New("transport error")
			},
			archivedFunc: func(domain.ForumId, *time.Time, int) (*discordgo.ThreadsList, error) {
				return &discordgo.ThreadsList{
					Threads: []*discordgo.Channel{thread("4", "Alice/2/2")},
				}, nil
			},
		}
		r := New(lister)

		got, found := r.FindExisting(guild, forum, "Alice")

		require.True(t, found)
		assert.Equal(t, "4", got.ID)
	})
}
