package links

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/yuuyuu661/suretto/internal/domain"
)

// PgStore keeps link records in Postgres instead of a local JSON file, for
// deployments where the bot has no durable disk. Same contract as FileStore;
// atomicity of PopAll comes from a single DELETE ... RETURNING statement.
type PgStore struct {
	db *sql.DB
}

var _ Store = (*PgStore)(nil)

func NewPgStore(dsn string) (*PgStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	s := &PgStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *PgStore) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS message_links (
			message_id TEXT   NOT NULL,
			thread_id  BIGINT NOT NULL,
			PRIMARY KEY (message_id, thread_id)
		)
	`)
	if err != nil {
		return fmt.Errorf("create message_links table: %w", err)
	}
	return nil
}

// Load is a no-op: the database already holds the durable state.
func (s *PgStore) Load() error {
	return s.db.Ping()
}

func (s *PgStore) Add(message domain.MessageId, thread domain.ThreadId) error {
	_, err := s.db.Exec(`
		INSERT INTO message_links (message_id, thread_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, domain.FormatSnowflake(message), thread)
	if err != nil {
		return fmt.Errorf("insert link: %w", err)
	}
	return nil
}

func (s *PgStore) PopAll(message domain.MessageId) ([]domain.ThreadId, error) {
	rows, err := s.db.Query(`
		DELETE FROM message_links
		WHERE message_id = $1
		RETURNING thread_id
	`, domain.FormatSnowflake(message))
	if err != nil {
		return nil, fmt.Errorf("pop links: %w", err)
	}
	defer rows.Close()

	var ids []domain.ThreadId
	for rows.Next() {
		var id domain.ThreadId
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan link: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate links: %w", err)
	}
	return ids, nil
}

func (s *PgStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PgStore) Close() error {
	return s.db.Close()
}
