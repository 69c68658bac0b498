package store

import (
	"context"
	"database/sql"

	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/vipowerus/schedule-bot/internal/subscription"
)

// Config ...
type Config struct {
	Driver      string `toml:"driver"`
	DatabaseURL string `toml:"database_url"`
}

// NewConfig return new initialized struct
func NewConfig() *Config {
	return &Config{}
}

// Store keeps subscriptions in a Postgres table
type Store struct {
	config *Config
	db     *sql.DB
}

// New ...
func New(config *Config) *Store {
	return &Store{
		config: config,
	}
}

// Open database with config data and create the subscriptions table
func (s *Store) Open() error {
	db, err := sql.Open("postgres", s.config.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "open postgres")
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return errors.Wrap(err, "ping postgres")
	}
	s.db = db
	return s.migrate()
}

// Close ...
func (s *Store) Close() {
	if s.db != nil {
		s.db.Close()
	}
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS subscriptions (
		chat_id    BIGINT PRIMARY KEY,
		group_name TEXT NOT NULL,
		added_at   TIMESTAMPTZ NOT NULL DEFAULT now()
	);`)
	return errors.Wrap(err, "create subscriptions table")
}

// Load reads all subscriptions
func (s *Store) Load(ctx context.Context) ([]subscription.Subscription, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT chat_id, group_name, added_at FROM subscriptions;")
	if err != nil {
		return nil, errors.Wrap(err, "select subscriptions")
	}
	defer rows.Close()

	var subs []subscription.Subscription
	for rows.Next() {
		var sub subscription.Subscription
		if err := rows.Scan(&sub.ChatID, &sub.Group, &sub.AddedAt); err != nil {
			return nil, errors.Wrap(err, "scan subscription")
		}
		subs = append(subs, sub)
	}
	return subs, errors.Wrap(rows.Err(), "iterate subscriptions")
}

// Save upserts the subscription of a chat
func (s *Store) Save(ctx context.Context, sub subscription.Subscription) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO subscriptions (chat_id, group_name, added_at) VALUES ($1, $2, $3)
		ON CONFLICT (chat_id) DO UPDATE SET group_name = EXCLUDED.group_name, added_at = EXCLUDED.added_at;`,
		sub.ChatID, sub.Group, sub.AddedAt)
	return errors.Wrapf(err, "upsert subscription %d", sub.ChatID)
}

// Delete removes the subscriptions of the given chats
func (s *Store) Delete(ctx context.Context, chatIDs ...int64) error {
	if len(chatIDs) == 0 {
		return nil
	}
	_, err := s.db.ExecContext(ctx, "DELETE FROM subscriptions WHERE chat_id = ANY($1);", pq.Array(chatIDs))
	return errors.Wrap(err, "delete subscriptions")
}
