// ABOUTME: Tests for the MCP tool and resource handlers
// ABOUTME: Calls handlers directly against a seeded memory store
package handlers

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/cxboard/db"
	"github.com/harperreed/cxboard/importer"
	"github.com/harperreed/cxboard/models"
)

var fixedNow = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

func setupStore(t *testing.T) *db.MemoryStore {
	t.Helper()
	ctx := context.Background()
	store := db.NewMemoryStore()

	sarah := models.NewFields()
	sarah.Set("name", models.String("Sarah Chen"))
	sarah.Set("email", models.String("sarah@acme.com"))
	sarah.Set("company", models.String("Acme"))
	require.NoError(t, store.CreateContact(ctx, &models.Contact{
		ID: "c1", Directory: "Enterprise", DirectoryFields: sarah, CreatedAt: fixedNow.Add(-time.Hour),
	}))
	marcus := models.NewFields()
	marcus.Set("name", models.String("Marcus Webb"))
	require.NoError(t, store.CreateContact(ctx, &models.Contact{
		ID: "c2", Directory: "SMB", DirectoryFields: marcus, CreatedAt: fixedNow,
	}))

	upload := fixedNow.AddDate(0, 0, -3)
	require.NoError(t, store.CreateActivity(ctx, &models.Activity{
		ID: "a1", ContactID: "c1", Activity: "Support Ticket", ActivityUploadDate: &upload,
	}))
	positive := models.SentimentPositive
	activityID := "a1"
	require.NoError(t, store.UpsertSurvey(ctx, &models.Survey{
		ID: "s1", ContactID: "c1", ActivityID: &activityID, SurveyTitle: "Support CSAT",
		Channel: "Email", Status: models.StatusCompleted, SentAt: upload, OpenEndedSentiment: &positive,
	}))
	require.NoError(t, store.UpsertSurvey(ctx, &models.Survey{
		ID: "s2", ContactID: "c1", SurveyTitle: "Annual NPS", Channel: "Email",
		Status: models.StatusSent, SentAt: fixedNow.AddDate(-1, 0, 0),
	}))
	return store
}

func newContactHandlers(store db.Store) *ContactHandlers {
	h := NewContactHandlers(store)
	h.now = func() time.Time { return fixedNow }
	h.newID = func() string { return "abc" }
	return h
}

func TestListContactsHandler(t *testing.T) {
	h := newContactHandlers(setupStore(t))
	ctx := context.Background()

	_, out, err := h.ListContacts(ctx, nil, ListContactsInput{})
	require.NoError(t, err)
	require.Len(t, out.Contacts, 2)
	assert.Equal(t, "c2", out.Contacts[0].ID)
	assert.Equal(t, "Sarah Chen", out.Contacts[1].Name)
	assert.Equal(t, "Acme", out.Contacts[1].Company)

	_, out, err = h.ListContacts(ctx, nil, ListContactsInput{Query: "acme"})
	require.NoError(t, err)
	require.Len(t, out.Contacts, 1)
	assert.Equal(t, "c1", out.Contacts[0].ID)

	_, out, err = h.ListContacts(ctx, nil, ListContactsInput{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, out.Contacts, 1)
	assert.Equal(t, 2, out.Total)

	_, out, err = h.ListContacts(ctx, nil, ListContactsInput{Directory: "retail"})
	require.NoError(t, err)
	assert.NotNil(t, out.Contacts)
	assert.Empty(t, out.Contacts)
}

func TestGetContactHandler(t *testing.T) {
	h := newContactHandlers(setupStore(t))
	ctx := context.Background()

	_, out, err := h.GetContact(ctx, nil, GetContactInput{ID: "c1"})
	require.NoError(t, err)
	assert.Equal(t, "Sarah Chen", out.Name)
	assert.Equal(t, "sarah@acme.com", out.DirectoryFields["email"])
	require.Len(t, out.Activities, 1)
	assert.Len(t, out.Surveys, 2)
	assert.Equal(t, "a1", out.Surveys[0].ActivityID)
	assert.Equal(t, 0.5, out.CommunicationMetrics.ResponseRate)
	assert.Equal(t, models.SentimentPositive, out.Insights.OverallSentiment)

	_, out, err = h.GetContact(ctx, nil, GetContactInput{ID: "c1", Filter: "rolling", Range: "last_30_days"})
	require.NoError(t, err)
	require.Len(t, out.Surveys, 1)
	assert.Equal(t, "s1", out.Surveys[0].ID)

	_, _, err = h.GetContact(ctx, nil, GetContactInput{ID: "c1", Filter: "rolling", Range: "forever"})
	assert.Error(t, err)

	_, _, err = h.GetContact(ctx, nil, GetContactInput{ID: "ghost"})
	assert.ErrorContains(t, err, "contact not found")

	_, _, err = h.GetContact(ctx, nil, GetContactInput{})
	assert.ErrorContains(t, err, "id is required")
}

func TestAddNoteHandler(t *testing.T) {
	store := setupStore(t)
	h := newContactHandlers(store)
	ctx := context.Background()

	_, note, err := h.AddNote(ctx, nil, AddNoteInput{
		ContactID:  "c1",
		Content:    "  Renewal call booked  ",
		AuthorName: "Ana Ruiz",
	})
	require.NoError(t, err)
	assert.Equal(t, "note_abc", note.ID)
	assert.Equal(t, "Renewal call booked", note.Content)
	assert.Equal(t, "AR", note.AuthorInitials)
	assert.Equal(t, fixedNow.Format(time.RFC3339), note.CreatedAt)

	notes, err := store.ListNotes(ctx, "c1")
	require.NoError(t, err)
	assert.Len(t, notes, 1)

	_, _, err = h.AddNote(ctx, nil, AddNoteInput{ContactID: "c1", AuthorName: "Ana"})
	assert.Error(t, err)

	_, _, err = h.AddNote(ctx, nil, AddNoteInput{ContactID: "ghost", Content: "x", AuthorName: "Ana"})
	assert.ErrorContains(t, err, "contact not found")
}

func TestInitials(t *testing.T) {
	assert.Equal(t, "AR", Initials("ana ruiz"))
	assert.Equal(t, "MJ", Initials("Mary Jane Watson"))
	assert.Equal(t, "É", Initials("élodie"))
	assert.Equal(t, "", Initials("  "))
}

func TestImportFileHandler(t *testing.T) {
	store := db.NewMemoryStore()
	logger, _ := test.NewNullLogger()
	h := NewImportHandlers(importer.New(store, importer.Options{Logger: logger}))
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "contacts.json")
	body := `[{"contact_id":"c1","directory":"Enterprise","name":"Sarah"},{"contact_id":"c2"}]`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	_, out, err := h.ImportFile(ctx, nil, ImportFileInput{Path: path})
	require.NoError(t, err)
	assert.Equal(t, importer.FormatJSON, out.Format)
	assert.Equal(t, 1, out.Contacts)
	assert.Equal(t, 2, out.Records)
	assert.Equal(t, 1, out.Skipped)
	require.Len(t, out.Errors, 1)
	assert.Contains(t, out.Errors[0], "record 2")

	_, _, err = h.ImportFile(ctx, nil, ImportFileInput{Path: " "})
	assert.ErrorContains(t, err, "path is required")

	_, _, err = h.ImportFile(ctx, nil, ImportFileInput{Path: filepath.Join(t.TempDir(), "notes.txt")})
	assert.ErrorIs(t, err, importer.ErrUnsupportedFormat)
}

func TestGenerateGraphHandler(t *testing.T) {
	h := NewVizHandlers(setupStore(t))
	ctx := context.Background()

	_, out, err := h.GenerateGraph(ctx, nil, GenerateGraphInput{ContactID: "c1"})
	require.NoError(t, err)
	assert.Equal(t, "contact", out.GraphType)
	assert.Contains(t, out.DOTSource, "Support Ticket")
	assert.Positive(t, out.NodeCount)
	assert.Positive(t, out.EdgeCount)

	_, out, err = h.GenerateGraph(ctx, nil, GenerateGraphInput{})
	require.NoError(t, err)
	assert.Equal(t, "complete", out.GraphType)
	assert.Contains(t, out.DOTSource, "Marcus Webb")

	_, _, err = h.GenerateGraph(ctx, nil, GenerateGraphInput{ContactID: "ghost"})
	assert.ErrorContains(t, err, "contact not found")
}

func TestReadResource(t *testing.T) {
	h := NewResourceHandlers(setupStore(t))
	ctx := context.Background()
	read := func(uri string) (*mcp.ReadResourceResult, error) {
		return h.ReadResource(ctx, &mcp.ReadResourceRequest{Params: &mcp.ReadResourceParams{URI: uri}})
	}

	res, err := read("cx://contacts")
	require.NoError(t, err)
	var contacts []models.Contact
	require.NoError(t, json.Unmarshal([]byte(res.Contents[0].Text), &contacts))
	assert.Len(t, contacts, 2)

	res, err = read("cx://contacts/c1")
	require.NoError(t, err)
	var view models.ContactWithData
	require.NoError(t, json.Unmarshal([]byte(res.Contents[0].Text), &view))
	assert.Len(t, view.Surveys, 2)
	assert.Equal(t, "application/json", res.Contents[0].MIMEType)

	res, err = read("cx://stats")
	require.NoError(t, err)
	assert.Contains(t, res.Contents[0].Text, `"surveys": 2`)

	_, err = read("cx://contacts/ghost")
	assert.Error(t, err)
	_, err = read("crm://contacts")
	assert.ErrorContains(t, err, "invalid URI scheme")
}
