// Package diary is the farm diary: a per-user log of field activities.
package diary

import (
	"context"
	"errors"
	"time"

	"github.com/ziadkadry99/krishi-mitra/internal/schema"
)

// Entry is one diary record.
type Entry struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Date      string    `json:"date"`
	Activity  string    `json:"activity"`
	Crop      string    `json:"crop"`
	Quantity  float64   `json:"quantity"`
	Unit      string    `json:"unit"`
	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Activities are the kinds of work a diary entry can record.
var Activities = []string{"sowing", "irrigation", "fertilizer", "pesticide", "weeding", "harvest", "sale", "other"}

// EntrySchema validates the user-supplied fields of an entry.
var EntrySchema = schema.Schema{
	schema.String("date", "YYYY-MM-DD").Date(),
	schema.Enum("activity", "kind of work", Activities...),
	schema.String("crop", "crop the work was done on").Opt(),
	schema.Number("quantity", "amount used or harvested").Pos().Opt(),
	schema.String("unit", "unit of quantity, e.g. kg").Opt(),
	schema.String("notes", "free text").Opt(),
}

// ErrNotFound is returned when an entry does not exist for the user.
var ErrNotFound = errors.New("diary entry not found")

// Repository persists diary entries. Every method is scoped to one user.
type Repository interface {
	Create(ctx context.Context, e *Entry) error
	Get(ctx context.Context, userID, id string) (*Entry, error)
	List(ctx context.Context, userID string) ([]Entry, error)
	Update(ctx context.Context, e *Entry) error
	Delete(ctx context.Context, userID, id string) error
}
