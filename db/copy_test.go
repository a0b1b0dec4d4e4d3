// ABOUTME: Tests for copying records between stores
// ABOUTME: Copies a seeded memory store into every backend and checks idempotence
package db

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/cxboard/models"
)

func TestCopy(t *testing.T) {
	ctx := context.Background()
	src := NewMemoryStore()
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	first := sampleContact("c1")
	first.CreatedAt = base
	require.NoError(t, src.CreateContact(ctx, first))
	second := sampleContact("c2")
	second.CreatedAt = base.Add(time.Hour)
	require.NoError(t, src.CreateContact(ctx, second))

	require.NoError(t, src.CreateActivity(ctx, &models.Activity{ID: "a1", ContactID: "c1", Activity: "Purchase", CreatedAt: base}))
	activityID := "a1"
	require.NoError(t, src.UpsertSurvey(ctx, &models.Survey{
		ID: "s1", ContactID: "c1", ActivityID: &activityID, SurveyTitle: "CSAT",
		Channel: "Email", Status: models.StatusSent, SentAt: base, Language: models.DefaultLanguage, CreatedAt: base,
	}))
	require.NoError(t, src.CreateNote(ctx, &models.Note{
		ID: "note_1", ContactID: "c2", Content: "Call back", AuthorName: "Ana", AuthorInitials: "A", CreatedAt: base,
	}))

	forEachBackend(t, func(t *testing.T, dst Store) {
		n, err := Copy(ctx, src, dst)
		require.NoError(t, err)
		assert.Equal(t, Counts{Contacts: 2, Activities: 1, Surveys: 1, Notes: 1}, n)

		contacts, err := dst.ListContacts(ctx)
		require.NoError(t, err)
		require.Len(t, contacts, 2)
		assert.Equal(t, "c2", contacts[0].ID)
		assert.Equal(t, "Sarah Chen", contacts[1].DirectoryFields.Text("name"))

		surveys, err := dst.ListSurveys(ctx, "c1")
		require.NoError(t, err)
		require.Len(t, surveys, 1)
		require.NotNil(t, surveys[0].ActivityID)
		assert.Equal(t, "a1", *surveys[0].ActivityID)

		again, err := Copy(ctx, src, dst)
		require.NoError(t, err)
		assert.Equal(t, 0, again.Contacts)
		assert.Equal(t, 0, again.Activities)

		counts, err := dst.Counts(ctx)
		require.NoError(t, err)
		assert.Equal(t, Counts{Contacts: 2, Activities: 1, Surveys: 1, Notes: 1}, counts)
	})
}
