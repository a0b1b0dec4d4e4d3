// ABOUTME: Loads a contact with its children from storage and builds the view
// ABOUTME: Applies a time window to activities, surveys and notes before enrichment
package insights

import (
	"context"
	"time"

	"github.com/harperreed/cxboard/models"
	"github.com/harperreed/cxboard/timefilter"
)

// Reader is the storage the contact view is read from.
type Reader interface {
	GetContact(ctx context.Context, id string) (*models.Contact, error)
	ListActivities(ctx context.Context, contactID string) ([]models.Activity, error)
	ListSurveys(ctx context.Context, contactID string) ([]models.Survey, error)
	ListNotes(ctx context.Context, contactID string) ([]models.Note, error)
}

// Load reads contact id and keeps the children dated inside window. Activities
// are dated by upload date, falling back to creation; surveys by send date and
// notes by creation. Store errors are returned unwrapped.
func Load(ctx context.Context, store Reader, id string, window timefilter.Window) (models.ContactWithData, error) {
	contact, err := store.GetContact(ctx, id)
	if err != nil {
		return models.ContactWithData{}, err
	}
	activities, err := store.ListActivities(ctx, id)
	if err != nil {
		return models.ContactWithData{}, err
	}
	surveys, err := store.ListSurveys(ctx, id)
	if err != nil {
		return models.ContactWithData{}, err
	}
	notes, err := store.ListNotes(ctx, id)
	if err != nil {
		return models.ContactWithData{}, err
	}

	activities = timefilter.Apply(activities, window, func(a models.Activity) *time.Time {
		if a.ActivityUploadDate != nil {
			return a.ActivityUploadDate
		}
		return &a.CreatedAt
	})
	surveys = timefilter.Apply(surveys, window, func(s models.Survey) *time.Time { return &s.SentAt })
	notes = timefilter.Apply(notes, window, func(n models.Note) *time.Time { return &n.CreatedAt })

	return Enrich(*contact, activities, surveys, notes), nil
}
