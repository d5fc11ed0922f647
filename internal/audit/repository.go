package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Repository defines the data access contract for the activity log. All SQL
// lives in the concrete implementation -- no SQL leaks out.
type Repository interface {
	// Insert writes a new activity entry.
	Insert(ctx context.Context, entry *Entry) error

	// ListByUser returns the most recent activity entries for one user,
	// newest first.
	ListByUser(ctx context.Context, userID string, limit int) ([]Entry, error)
}

// repository implements Repository with MariaDB queries.
type repository struct {
	db *sql.DB
}

// NewRepository creates a new repository backed by the given DB pool.
func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

// Insert writes a new activity entry. An empty UserID is stored as SQL NULL
// so failed logins against unknown emails can still be recorded.
func (r *repository) Insert(ctx context.Context, entry *Entry) error {
	query := `INSERT INTO auth_activity (user_id, email, action, remote_ip, created_at)
	          VALUES (?, ?, ?, ?, ?)`

	var userID any
	if entry.UserID != "" {
		userID = entry.UserID
	}

	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	result, err := r.db.ExecContext(ctx, query,
		userID, entry.Email, entry.Action, entry.RemoteIP, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting activity entry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting activity entry id: %w", err)
	}
	entry.ID = id

	return nil
}

// ListByUser returns the most recent activity entries for one user.
func (r *repository) ListByUser(ctx context.Context, userID string, limit int) ([]Entry, error) {
	query := `SELECT id, user_id, email, action, remote_ip, created_at
	          FROM auth_activity
	          WHERE user_id = ?
	          ORDER BY created_at DESC, id DESC
	          LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing activity for user: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		var e Entry
		var userID sql.NullString
		if err := rows.Scan(&e.ID, &userID, &e.Email, &e.Action, &e.RemoteIP, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning activity entry: %w", err)
		}
		e.UserID = userID.String
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating activity entries: %w", err)
	}
	return entries, nil
}
