package scheduler

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Store handles reminder persistence. Rows are never deleted; fired
// reminders remain as history.
type Store struct {
	db *sql.DB
}

// OpenStore opens (creating if needed) the SQLite database at dbPath.
func OpenStore(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s, err := NewStore(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewStore wraps an open database and creates the schema if absent.
// The store takes ownership of db.
func NewStore(db *sql.DB) (*Store, error) {
	// One connection serializes writers.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS reminders (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		text TEXT NOT NULL,
		time TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		created_at TEXT NOT NULL,
		fired_at TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_reminders_status ON reminders(status);
	`

	_, err := s.db.Exec(schema)
	return err
}

// begin inserts r inside a new transaction and sets r.ID. The caller
// must commit or roll back the returned transaction.
func (s *Store) begin(ctx context.Context, r *Reminder) (*sql.Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO reminders (text, time, status, created_at)
		VALUES (?, ?, ?, ?)
	`, r.Text, r.FireAt.Format(time.RFC3339Nano), string(StatusPending), r.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		_ = tx.Rollback()
		return nil, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		_ = tx.Rollback()
		return nil, err
	}
	r.ID = id
	r.Status = StatusPending
	return tx, nil
}

// Insert persists a new pending reminder and sets its ID.
func (s *Store) Insert(ctx context.Context, r *Reminder) error {
	tx, err := s.begin(ctx, r)
	if err != nil {
		return err
	}
	return tx.Commit()
}

// MarkFired transitions a pending reminder to fired. It reports false
// when the row does not exist or has already fired.
func (s *Store) MarkFired(ctx context.Context, id int64, at time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE reminders SET status = ?, fired_at = ?
		WHERE id = ? AND status = ?
	`, string(StatusFired), at.Format(time.RFC3339Nano), id, string(StatusPending))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Get retrieves a reminder by ID. Returns nil, nil when it does not exist.
func (s *Store) Get(ctx context.Context, id int64) (*Reminder, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, text, time, status, created_at, fired_at
		FROM reminders WHERE id = ?
	`, id)

	r, err := scanReminder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return r, err
}

// List returns reminders ordered by fire time. An empty status returns
// every row.
func (s *Store) List(ctx context.Context, status Status) ([]*Reminder, error) {
	query := `SELECT id, text, time, status, created_at, fired_at FROM reminders`
	var args []any
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY time, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reminders []*Reminder
	for rows.Next() {
		r, err := scanReminder(rows)
		if err != nil {
			return nil, err
		}
		reminders = append(reminders, r)
	}
	return reminders, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanReminder(row scanner) (*Reminder, error) {
	var r Reminder
	var fireAt, status, createdAt string
	var firedAt sql.NullString

	if err := row.Scan(&r.ID, &r.Text, &fireAt, &status, &createdAt, &firedAt); err != nil {
		return nil, err
	}

	r.Status = Status(status)
	var err error
	if r.FireAt, err = time.Parse(time.RFC3339Nano, fireAt); err != nil {
		return nil, fmt.Errorf("reminder %d: parse time: %w", r.ID, err)
	}
	if r.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("reminder %d: parse created_at: %w", r.ID, err)
	}
	if firedAt.Valid {
		t, err := time.Parse(time.RFC3339Nano, firedAt.String)
		if err != nil {
			return nil, fmt.Errorf("reminder %d: parse fired_at: %w", r.ID, err)
		}
		r.FiredAt = &t
	}
	return &r, nil
}
