package bot

import (
	"fmt"
	"time"
)

// Thread names follow "<display name>/<month>/<day>" where the date is the
// message's creation time plus ten days, in JST. The date doubles as a due
// date and the leading segment is what ties a thread back to its author.
var referenceZone = time.FixedZone("JST", 9*60*60)

const (
	dueOffset = 10 * 24 * time.Hour

	// Discord caps channel names at 100; stay under it the way the
	// deployment always has.
	maxThreadNameLen = 95
)

// ThreadName computes the canonical thread name for a trigger.
func ThreadName(displayName string, createdAt time.Time) string {
	due := createdAt.Add(dueOffset).In(referenceZone)
	name := fmt.Sprintf("%s/%d/%d", displayName, int(due.Month()), due.Day())

	runes := []rune(name)
	if len(runes) > maxThreadNameLen {
		return string(runes[:maxThreadNameLen])
	}
	return name
}
