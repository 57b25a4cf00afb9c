// Package history provides a SQLite-backed conversation.Store.
// All sessions share one database handle; each Store is bound to a single
// session id. The default DSN is an in-memory database, so transcripts live
// only as long as the process.
package history

import (
	"database/sql"
	"time"

	"github.com/cockroachdb/errors"
	_ "github.com/glebarez/go-sqlite"

	"github.com/comigor/tutor-go/internal/conversation"
	"github.com/comigor/tutor-go/internal/logger"
)

const schema = `CREATE TABLE IF NOT EXISTS turns (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id TEXT NOT NULL,
    role TEXT NOT NULL,
    content TEXT NOT NULL,
    created_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS turns_session_id ON turns (session_id, id);`

// DB is a shared transcript database.
type DB struct {
	db *sql.DB
}

// Open opens the SQLite database at dsn and creates the turns table if it
// doesn't exist.
func Open(dsn string) (*DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite history")
	}
	// A shared-cache in-memory database disappears when its last connection
	// closes; pin one connection for the lifetime of the handle.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "create turns table")
	}
	logger.L.Info("sqlite history DB initialized")
	return &DB{db: db}, nil
}

// Close closes the underlying database.
func (d *DB) Close() error {
	return d.db.Close()
}

// Store returns the transcript of one session.
func (d *DB) Store(sessionID string) *Store {
	return &Store{db: d.db, sessionID: sessionID}
}

// Store is the transcript of one session inside a shared DB.
type Store struct {
	db        *sql.DB
	sessionID string
}

var _ conversation.Store = (*Store)(nil)

// Append inserts a turn at the end of the session's transcript.
func (s *Store) Append(turn conversation.Turn) error {
	_, err := s.db.Exec(`INSERT INTO turns (session_id, role, content, created_at) VALUES (?,?,?,?);`,
		s.sessionID, string(turn.Role), turn.Text, time.Now().UTC())
	if err != nil {
		logger.L.Error("failed to store turn in sqlite", "session", s.sessionID, "error", err)
		return errors.Wrap(err, "append turn")
	}
	return nil
}

// Reset deletes every turn of the session.
func (s *Store) Reset() error {
	if _, err := s.db.Exec(`DELETE FROM turns WHERE session_id = ?;`, s.sessionID); err != nil {
		return errors.Wrap(err, "reset turns")
	}
	return nil
}

// All returns the session's turns in chronological order.
func (s *Store) All() ([]conversation.Turn, error) {
	rows, err := s.db.Query(`SELECT role, content FROM turns WHERE session_id = ? ORDER BY id ASC;`, s.sessionID)
	if err != nil {
		return nil, errors.Wrap(err, "list turns")
	}
	defer rows.Close()

	var out []conversation.Turn
	for rows.Next() {
		var role, content string
		if err := rows.Scan(&role, &content); err != nil {
			return nil, errors.Wrap(err, "scan turn")
		}
		out = append(out, conversation.Turn{Role: conversation.Role(role), Text: content})
	}
	return out, rows.Err()
}
