// Package history keeps an audit trail of upload outcomes in SQLite.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/google/uuid"

	"github.com/vmunix/archivist/internal/migrations"
)

// Event types for history records.
const (
	EventUploaded  = "uploaded"
	EventFailed    = "failed"
	EventDuplicate = "duplicate"
	EventMissing   = "missing"
)

// Entry is one item outcome.
type Entry struct {
	ID         int64
	RunID      string
	Bundle     string
	ExternalID string
	Event      string
	RemoteID   string
	Title      string
	Message    string
	CreatedAt  time.Time
}

// Filter specifies criteria for listing history.
type Filter struct {
	RunID string
	Event string
	Limit int
}

// Store persists history records.
type Store struct {
	db    *sql.DB
	runID string
	now   func() time.Time
}

// Open opens (creating if needed) the database at path and applies migrations.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create history dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	// SQLite allows one writer; a single connection also keeps :memory: shared.
	db.SetMaxOpenConns(1)

	if err := migrations.Apply(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return NewStore(db), nil
}

// NewStore wraps an already migrated database. Every store gets a fresh run id.
func NewStore(db *sql.DB) *Store {
	return &Store{
		db:    db,
		runID: uuid.NewString(),
		now:   time.Now,
	}
}

// RunID identifies the entries written through this store.
func (s *Store) RunID() string {
	return s.runID
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Add inserts a new history entry. An empty RunID is filled with the store's.
func (s *Store) Add(e *Entry) error {
	if e.RunID == "" {
		e.RunID = s.runID
	}
	now := s.now().UTC()
	result, err := s.db.Exec(`
		INSERT INTO history (run_id, bundle, external_id, event, remote_id, title, message, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.RunID, e.Bundle, e.ExternalID, e.Event, e.RemoteID, e.Title, e.Message, now,
	)
	if err != nil {
		return fmt.Errorf("insert history: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}

	e.ID = id
	e.CreatedAt = now
	return nil
}

// List returns entries matching the filter, most recent first.
func (s *Store) List(f Filter) ([]*Entry, error) {
	var conditions []string
	var args []any

	if f.RunID != "" {
		conditions = append(conditions, "run_id = ?")
		args = append(args, f.RunID)
	}
	if f.Event != "" {
		conditions = append(conditions, "event = ?")
		args = append(args, f.Event)
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	query := `SELECT id, run_id, bundle, external_id, event, remote_id, title, message, created_at
		FROM history ` + whereClause + ` ORDER BY created_at DESC, id DESC`

	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", f.Limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []*Entry
	for rows.Next() {
		e := &Entry{}
		if err := rows.Scan(&e.ID, &e.RunID, &e.Bundle, &e.ExternalID, &e.Event,
			&e.RemoteID, &e.Title, &e.Message, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		results = append(results, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}

	return results, nil
}

// Counts returns the number of entries per event.
func (s *Store) Counts() (map[string]int, error) {
	rows, err := s.db.Query(`SELECT event, COUNT(*) FROM history GROUP BY event`)
	if err != nil {
		return nil, fmt.Errorf("count history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[string]int)
	for rows.Next() {
		var event string
		var n int
		if err := rows.Scan(&event, &n); err != nil {
			return nil, fmt.Errorf("scan history count: %w", err)
		}
		counts[event] = n
	}
	return counts, rows.Err()
}
