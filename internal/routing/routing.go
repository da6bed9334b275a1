// Package routing decides which forums a triggering message targets.
package routing

import (
	"github.com/yuuyuu661/suretto/internal/domain"
)

// ChannelClassifier reports whether an id currently resolves to a forum-type
// channel in the guild. Misconfigured, retyped or deleted channels are
// expected over a deployment's lifetime and must not break routing.
type ChannelClassifier interface {
	IsForumChannel(guild domain.GuildId, id domain.ForumId) bool
}

// Targets accumulates the forum lists of every rule whose role the author
// holds, in rule order, falling back to the table's default list when nothing
// matched. The result is deduplicated preserving first-seen order and
// filtered down to ids that resolve to actual forum channels.
//
// Deterministic given inputs; an empty result means "no eligible forum" and
// is the caller's condition to report.
func Targets(guild domain.GuildId, roles map[domain.RoleId]struct{}, table domain.RoutingTable, channels ChannelClassifier) []domain.ForumId {
	var candidates []domain.ForumId
	for _, rule := range table.Rules {
		if _, ok := roles[rule.Role]; ok {
			candidates = append(candidates, rule.Forums...)
		}
	}
	if len(candidates) == 0 {
		candidates = append(candidates, table.DefaultForums...)
	}

	seen := make(map[domain.ForumId]struct{}, len(candidates))
	var forums []domain.ForumId
	for _, id := range candidates {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if !channels.IsForumChannel(guild, id) {
			continue
		}
		forums = append(forums, id)
	}
	return forums
}
