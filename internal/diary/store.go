package diary

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ziadkadry99/krishi-mitra/internal/db"
)

// Store provides CRUD operations for diary entries.
type Store struct {
	db *db.DB
}

// NewStore creates a new diary store.
func NewStore(d *db.DB) *Store {
	return &Store{db: d}
}

// Create inserts a new entry.
func (s *Store) Create(ctx context.Context, e *Entry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	e.CreatedAt = now
	e.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO diary_entries (id, user_id, date, activity, crop, quantity, unit, notes, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.UserID, e.Date, e.Activity, e.Crop, e.Quantity, e.Unit, e.Notes, e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating diary entry: %w", err)
	}
	return nil
}

// Get retrieves an entry by ID.
func (s *Store) Get(ctx context.Context, userID, id string) (*Entry, error) {
	e := &Entry{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, date, activity, crop, quantity, unit, notes, created_at, updated_at
		 FROM diary_entries WHERE id = ? AND user_id = ?`, id, userID,
	).Scan(&e.ID, &e.UserID, &e.Date, &e.Activity, &e.Crop, &e.Quantity, &e.Unit, &e.Notes, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting diary entry: %w", err)
	}
	return e, nil
}

// List returns a user's entries, newest date first.
func (s *Store) List(ctx context.Context, userID string) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, date, activity, crop, quantity, unit, notes, created_at, updated_at
		 FROM diary_entries WHERE user_id = ? ORDER BY date DESC, created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("listing diary entries: %w", err)
	}
	defer rows.Close()

	var result []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Date, &e.Activity, &e.Crop, &e.Quantity, &e.Unit, &e.Notes, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning diary entry: %w", err)
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

// Update overwrites an entry's fields.
func (s *Store) Update(ctx context.Context, e *Entry) error {
	e.UpdatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`UPDATE diary_entries SET date=?, activity=?, crop=?, quantity=?, unit=?, notes=?, updated_at=?
		 WHERE id=? AND user_id=?`,
		e.Date, e.Activity, e.Crop, e.Quantity, e.Unit, e.Notes, e.UpdatedAt, e.ID, e.UserID,
	)
	if err != nil {
		return fmt.Errorf("updating diary entry: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes an entry.
func (s *Store) Delete(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM diary_entries WHERE id=? AND user_id=?`, id, userID)
	if err != nil {
		return fmt.Errorf("deleting diary entry: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
