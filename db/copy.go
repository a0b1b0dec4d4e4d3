// ABOUTME: Copies every record from one store into another
// ABOUTME: Used to move a SQLite database into PostgreSQL or back
package db

import (
	"context"
	"errors"
	"fmt"
)

// Copy writes every contact of src, with its activities, surveys and notes,
// into dst. Contacts already present in dst are kept and their children are
// still copied; duplicate activities and notes are skipped and surveys are
// upserted. It returns what was written.
func Copy(ctx context.Context, src, dst Store) (Counts, error) {
	var n Counts

	contacts, err := src.ListContacts(ctx)
	if err != nil {
		return n, fmt.Errorf("list contacts: %w", err)
	}
	// Oldest first so insertion order matches the source.
	for i := len(contacts) - 1; i >= 0; i-- {
		c := contacts[i]
		if err := ctx.Err(); err != nil {
			return n, err
		}

		switch err := dst.CreateContact(ctx, &c); {
		case err == nil:
			n.Contacts++
		case !errors.Is(err, ErrAlreadyExists):
			return n, fmt.Errorf("copy contact %s: %w", c.ID, err)
		}

		activities, err := src.ListActivities(ctx, c.ID)
		if err != nil {
			return n, fmt.Errorf("list activities of %s: %w", c.ID, err)
		}
		for j := range activities {
			switch err := dst.CreateActivity(ctx, &activities[j]); {
			case err == nil:
				n.Activities++
			case !errors.Is(err, ErrAlreadyExists):
				return n, fmt.Errorf("copy activity %s: %w", activities[j].ID, err)
			}
		}

		surveys, err := src.ListSurveys(ctx, c.ID)
		if err != nil {
			return n, fmt.Errorf("list surveys of %s: %w", c.ID, err)
		}
		for j := range surveys {
			if err := dst.UpsertSurvey(ctx, &surveys[j]); err != nil {
				return n, fmt.Errorf("copy survey %s: %w", surveys[j].ID, err)
			}
			n.Surveys++
		}

		notes, err := src.ListNotes(ctx, c.ID)
		if err != nil {
			return n, fmt.Errorf("list notes of %s: %w", c.ID, err)
		}
		for j := range notes {
			switch err := dst.CreateNote(ctx, &notes[j]); {
			case err == nil:
				n.Notes++
			case !errors.Is(err, ErrAlreadyExists):
				return n, fmt.Errorf("copy note %s: %w", notes[j].ID, err)
			}
		}
	}
	return n, nil
}
