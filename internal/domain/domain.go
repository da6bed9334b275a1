package domain

import (
	"strconv"
	"strings"
	"time"
)

// Discord snowflakes are kept as int64 throughout config, routing and
// persistence. They are rendered as decimal strings only at the API boundary.
type (
	MessageId = int64
	ThreadId  = int64
	ChannelId = int64
	ForumId   = int64
	RoleId    = int64
	GuildId   = int64
	UserId    = int64
)

// ParseSnowflake converts a Discord id string to int64.
func ParseSnowflake(s string) (int64, bool) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id < 0 {
		return 0, false
	}
	return id, true
}

// FormatSnowflake renders an id the way the Discord API expects it.
func FormatSnowflake(id int64) string {
	return strconv.FormatInt(id, 10)
}

// ThreadBelongsTo reports whether a thread name marks the thread as owned by
// displayName. Ownership is purely a naming convention: the name's first
// path segment before "/" must equal the display name.
func ThreadBelongsTo(threadName, displayName string) bool {
	return strings.HasPrefix(threadName, displayName+"/")
}

// RouteRule maps one role to the ordered forums that role posts into.
type RouteRule struct {
	Label  string
	Role   RoleId
	Forums []ForumId
}

// RoutingTable is loaded once at startup and never mutated afterwards.
// Rules are evaluated in order; DefaultForums apply when no rule matched.
type RoutingTable struct {
	Rules         []RouteRule
	DefaultForums []ForumId
}

// CreationTrigger is the flattened payload of a message that may spawn
// threads. Everything the creation path needs is captured here so handling
// does not depend on gateway cache state.
type CreationTrigger struct {
	MessageId   MessageId
	ChannelId   ChannelId
	GuildId     GuildId
	AuthorId    UserId
	DisplayName string
	RoleIds     map[RoleId]struct{}
	CreatedAt   time.Time
	Permalink   string
}

// DeletionTrigger carries only the message id. Deletions are delivered raw:
// the original message may never have been seen by this process.
type DeletionTrigger struct {
	MessageId MessageId
}
