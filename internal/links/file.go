package links

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/yuuyuu661/suretto/internal/domain"
	"github.com/yuuyuu661/suretto/internal/metrics"
)

// FileStore persists the whole mapping as one JSON document, rewritten on
// every mutation: {"<message_id>": [<thread_id>, ...]}. The in-memory map is
// the source of truth for the process lifetime; a failed flush only risks
// losing that mutation across a restart, which is acceptable for data that
// exists purely to drive cleanup.
type FileStore struct {
	path string

	mu    sync.Mutex
	links map[string][]int64
}

var _ Store = (*FileStore)(nil)

func NewFileStore(path string) *FileStore {
	return &FileStore{
		path:  filepath.Clean(path),
		links: make(map[string][]int64),
	}
}

func (s *FileStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		s.links = make(map[string][]int64)
		return nil
	}
	if err != nil {
		slog.Error("link file unreadable, starting empty", "path", s.path, "error", err)
		s.links = make(map[string][]int64)
		return nil
	}

	links := make(map[string][]int64)
	if err := json.Unmarshal(raw, &links); err != nil {
		slog.Error("link file corrupt, starting empty", "path", s.path, "error", err)
		s.links = make(map[string][]int64)
		return nil
	}
	s.links = links
	return nil
}

func (s *FileStore) Add(message domain.MessageId, thread domain.ThreadId) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := domain.FormatSnowflake(message)
	for _, id := range s.links[key] {
		if id == thread {
			return nil
		}
	}
	s.links[key] = append(s.links[key], thread)
	s.flushLocked()
	return nil
}

func (s *FileStore) PopAll(message domain.MessageId) ([]domain.ThreadId, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := domain.FormatSnowflake(message)
	ids := s.links[key]
	if len(ids) == 0 {
		delete(s.links, key)
		return nil, nil
	}
	delete(s.links, key)
	s.flushLocked()

	out := make([]domain.ThreadId, len(ids))
	copy(out, ids)
	return out, nil
}

// flushLocked rewrites the whole mapping. Write goes to a temp file in the
// same directory followed by a rename, so a crash mid-write never leaves a
// half-written document behind. Failures are logged, not propagated: the
// in-memory state stays authoritative.
func (s *FileStore) flushLocked() {
	if err := s.writeSnapshot(); err != nil {
		metrics.PersistenceFailures.Inc()
		slog.Error("link file flush failed", "path", s.path, "error", err)
	}
}

func (s *FileStore) writeSnapshot() error {
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create link dir: %w", err)
		}
	}

	raw, err := json.MarshalIndent(s.links, "", "  ")
	if err != nil {
		return fmt.Errorf("encode links: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".thread_links_*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write links: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace link file: %w", err)
	}
	return nil
}
