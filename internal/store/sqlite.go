package store

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS transcriptions (
	request_id TEXT PRIMARY KEY,
	transcript TEXT,
	channel_index INTEGER,
	num_channels INTEGER,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	duration FLOAT
)`

// timestampLayout is the format SQLite's CURRENT_TIMESTAMP stores.
const timestampLayout = "2006-01-02 15:04:05"

// SQLiteStore implements TranscriptStore on a single SQLite table.
type SQLiteStore struct {
	db     *sql.DB
	logger zerolog.Logger
}

// OpenSQLite opens (creating if needed) the SQLite database at path and
// ensures the transcriptions table exists. WAL mode lets the dashboard's
// polling reads run concurrently with writes; the busy timeout serializes
// concurrent writers instead of failing them.
func OpenSQLite(path string, logger zerolog.Logger) (*SQLiteStore, error) {
	dsn := fmt.Sprintf("file:%s?%s", path, url.Values{
		"_journal_mode": {"WAL"},
		"_busy_timeout": {"5000"},
		"_foreign_keys": {"on"},
	}.Encode())

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("create transcriptions table: %w", err)
	}

	logger.Info().Str("path", path).Msg("SQLite store opened")

	return &SQLiteStore{db: db, logger: logger}, nil
}

// Upsert inserts or replaces the row keyed by u.RequestID. INSERT OR REPLACE
// rewrites the whole row, so created_at takes the column default again on
// replacement; this matches the table's observed replace semantics.
func (s *SQLiteStore) Upsert(ctx context.Context, u Utterance) error {
	const q = `
		INSERT OR REPLACE INTO transcriptions (request_id, transcript, channel_index, num_channels, duration)
		VALUES (?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, q, u.RequestID, u.Transcript, u.ChannelIndex, u.NumChannels, u.Duration)
	if err != nil {
		return fmt.Errorf("upsert utterance for %s: %w", u.RequestID, err)
	}

	s.logger.Debug().
		Str("request_id", u.RequestID).
		Int("channel_index", u.ChannelIndex).
		Float64("duration", u.Duration).
		Msg("Utterance stored")

	return nil
}

// ListConversations returns distinct request IDs ordered by their earliest
// utterance timestamp.
func (s *SQLiteStore) ListConversations(ctx context.Context) ([]Conversation, error) {
	const q = `
		SELECT request_id, MIN(created_at) AS earliest_time
		FROM transcriptions
		GROUP BY request_id
		ORDER BY earliest_time ASC`

	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	var conversations []Conversation
	for rows.Next() {
		var c Conversation
		var earliest string
		if err := rows.Scan(&c.RequestID, &earliest); err != nil {
			return nil, fmt.Errorf("scan conversation row: %w", err)
		}
		// MIN(created_at) is an aggregate expression with no declared column
		// type, so the driver returns the raw CURRENT_TIMESTAMP text instead
		// of converting it to time.Time.
		c.StartedAt, err = time.Parse(timestampLayout, earliest)
		if err != nil {
			return nil, fmt.Errorf("parse conversation timestamp %q: %w", earliest, err)
		}
		conversations = append(conversations, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate conversation rows: %w", err)
	}

	return conversations, nil
}

// ListUtterances returns all rows for one conversation ordered by created_at.
func (s *SQLiteStore) ListUtterances(ctx context.Context, requestID string) ([]Utterance, error) {
	const q = `
		SELECT request_id, transcript, channel_index, num_channels, created_at, duration
		FROM transcriptions
		WHERE request_id = ?
		ORDER BY created_at ASC`

	rows, err := s.db.QueryContext(ctx, q, requestID)
	if err != nil {
		return nil, fmt.Errorf("list utterances for %s: %w", requestID, err)
	}
	defer rows.Close()

	var utterances []Utterance
	for rows.Next() {
		var u Utterance
		if err := rows.Scan(&u.RequestID, &u.Transcript, &u.ChannelIndex, &u.NumChannels, &u.CreatedAt, &u.Duration); err != nil {
			return nil, fmt.Errorf("scan utterance row: %w", err)
		}
		utterances = append(utterances, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate utterance rows: %w", err)
	}

	if len(utterances) == 0 {
		return nil, ErrNotFound
	}

	return utterances, nil
}

// Ping verifies the database file is reachable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
