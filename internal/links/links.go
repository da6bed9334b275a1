// Package links owns the durable mapping from a triggering message to the
// threads it spawned. The creation path records links here; the deletion path
// consumes them to cascade-delete threads, possibly long after the process
// that created them has restarted.
package links

import (
	"github.com/yuuyuu661/suretto/internal/domain"
)

// Store is the link record storage contract. Implementations serialize
// mutations: exactly one Add or PopAll is in flight at a time, and each
// mutation is durable (or its failure logged) before the next begins.
type Store interface {
	// Load populates the store from durable storage. Missing storage
	// initializes empty; corrupt storage is logged and reset to empty.
	// Load never fails startup for recoverable conditions.
	Load() error

	// Add inserts threadId into the set for messageId, creating the set if
	// absent. Re-adding an existing pair is a no-op.
	Add(message domain.MessageId, thread domain.ThreadId) error

	// PopAll removes and returns the whole set for messageId, atomically.
	// An absent key yields an empty result with no error.
	PopAll(message domain.MessageId) ([]domain.ThreadId, error)
}
