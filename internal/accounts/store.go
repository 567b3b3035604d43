package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ziadkadry99/krishi-mitra/internal/db"
)

// Store is the SQLite Repository.
type Store struct {
	db *db.DB
}

// NewStore creates a new accounts store.
func NewStore(d *db.DB) *Store {
	return &Store{db: d}
}

// Create inserts u, assigning an ID when empty.
func (s *Store) Create(ctx context.Context, u *User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Language == "" {
		u.Language = "en"
	}
	u.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, name, phone, password_hash, language, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		u.ID, u.Name, u.Phone, u.PasswordHash, u.Language, u.CreatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return ErrPhoneTaken
		}
		return fmt.Errorf("creating user: %w", err)
	}
	return nil
}

// Get retrieves a user by ID.
func (s *Store) Get(ctx context.Context, id string) (*User, error) {
	return s.getBy(ctx, "id", id)
}

// GetByPhone retrieves a user by phone number.
func (s *Store) GetByPhone(ctx context.Context, phone string) (*User, error) {
	return s.getBy(ctx, "phone", phone)
}

func (s *Store) getBy(ctx context.Context, column, value string) (*User, error) {
	u := &User{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, phone, password_hash, language, created_at FROM users WHERE `+column+` = ?`, value,
	).Scan(&u.ID, &u.Name, &u.Phone, &u.PasswordHash, &u.Language, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return u, nil
}
