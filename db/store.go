// ABOUTME: Storage contract shared by the memory, SQLite and PostgreSQL backends
// ABOUTME: Defines the Store interface, transactions, sentinel errors and record counts
package db

import (
	"context"
	"errors"
	"time"

	"github.com/harperreed/cxboard/models"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when creating a record whose id is taken.
	ErrAlreadyExists = errors.New("already exists")
)

// Store persists contacts and their children. List methods return records
// newest first for contacts and oldest first for a contact's children.
type Store interface {
	GetContact(ctx context.Context, id string) (*models.Contact, error)
	ListContacts(ctx context.Context) ([]models.Contact, error)
	CreateContact(ctx context.Context, contact *models.Contact) error

	GetActivity(ctx context.Context, id string) (*models.Activity, error)
	ListActivities(ctx context.Context, contactID string) ([]models.Activity, error)
	CreateActivity(ctx context.Context, activity *models.Activity) error

	ListSurveys(ctx context.Context, contactID string) ([]models.Survey, error)
	UpsertSurvey(ctx context.Context, survey *models.Survey) error

	ListNotes(ctx context.Context, contactID string) ([]models.Note, error)
	CreateNote(ctx context.Context, note *models.Note) error

	// DeleteAll removes every contact along with its activities, surveys and notes.
	DeleteAll(ctx context.Context) error
	Counts(ctx context.Context) (Counts, error)
	Close() error
}

// Transactor is implemented by stores that can run several writes atomically.
// fn receives a Store bound to the transaction; returning an error rolls back.
type Transactor interface {
	WithTx(ctx context.Context, fn func(tx Store) error) error
}

// Pinger is implemented by stores that can report whether their backend is
// reachable.
type Pinger interface {
	Ready(ctx context.Context) error
}

// Counts is the number of stored records per entity.
type Counts struct {
	Contacts   int `json:"contacts"`
	Activities int `json:"activities"`
	Surveys    int `json:"surveys"`
	Notes      int `json:"notes"`
}

// stamp fills zero timestamps the way every backend does on create.
func stamp(created *time.Time, updated *time.Time) {
	now := time.Now().UTC()
	if created.IsZero() {
		*created = now
	}
	if updated != nil && updated.IsZero() {
		*updated = *created
	}
}
