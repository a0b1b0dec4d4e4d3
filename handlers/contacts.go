// ABOUTME: Contact MCP tool handlers
// ABOUTME: Implements list_contacts, get_contact and add_note over the storage contract
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/cxboard/db"
	"github.com/harperreed/cxboard/insights"
	"github.com/harperreed/cxboard/models"
	"github.com/harperreed/cxboard/timefilter"
)

type ContactHandlers struct {
	store db.Store
	now   func() time.Time
	newID func() string
}

func NewContactHandlers(store db.Store) *ContactHandlers {
	return &ContactHandlers{
		store: store,
		now:   time.Now,
		newID: func() string { return uuid.New().String() },
	}
}

type ContactSummary struct {
	ID        string `json:"id"`
	Directory string `json:"directory"`
	Name      string `json:"name"`
	Email     string `json:"email,omitempty"`
	Company   string `json:"company,omitempty"`
	CreatedAt string `json:"created_at"`
}

type ListContactsInput struct {
	Query     string `json:"query,omitempty" jsonschema:"Fuzzy search over id, name, email, company and directory"`
	Directory string `json:"directory,omitempty" jsonschema:"Only contacts in this directory"`
	Limit     int    `json:"limit,omitempty" jsonschema:"Maximum number of results (default 25)"`
}

type ListContactsOutput struct {
	Contacts []ContactSummary `json:"contacts"`
	Total    int              `json:"total"`
}

func (h *ContactHandlers) ListContacts(ctx context.Context, _ *mcp.CallToolRequest, input ListContactsInput) (*mcp.CallToolResult, ListContactsOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = 25
	}

	contacts, err := h.store.ListContacts(ctx)
	if err != nil {
		return nil, ListContactsOutput{}, fmt.Errorf("failed to list contacts: %w", err)
	}
	contacts = db.FilterContacts(contacts, input.Query, input.Directory)

	out := ListContactsOutput{Contacts: []ContactSummary{}, Total: len(contacts)}
	for i := range contacts {
		if i == limit {
			break
		}
		out.Contacts = append(out.Contacts, summarize(&contacts[i]))
	}
	return nil, out, nil
}

type GetContactInput struct {
	ID     string `json:"id" jsonschema:"Contact ID (required)"`
	Filter string `json:"filter,omitempty" jsonschema:"Time filter kind: fixed, rolling or custom"`
	Range  string `json:"range,omitempty" jsonschema:"Range name such as this_month or last_30_days"`
	Start  string `json:"start,omitempty" jsonschema:"Custom range start (RFC3339 or YYYY-MM-DD)"`
	End    string `json:"end,omitempty" jsonschema:"Custom range end (RFC3339 or YYYY-MM-DD)"`
}

type ActivityOutput struct {
	ID         string         `json:"id"`
	Activity   string         `json:"activity"`
	Fields     map[string]any `json:"fields,omitempty"`
	UploadDate string         `json:"upload_date,omitempty"`
}

type SurveyOutput struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	ActivityID string `json:"activity_id,omitempty"`
	Channel    string `json:"channel"`
	Status     string `json:"status"`
	SentAt     string `json:"sent_at"`
	Sentiment  string `json:"sentiment,omitempty"`
}

type NoteOutput struct {
	ID             string `json:"id"`
	ContactID      string `json:"contact_id"`
	Content        string `json:"content"`
	AuthorName     string `json:"author_name"`
	AuthorInitials string `json:"author_initials"`
	CreatedAt      string `json:"created_at"`
}

type ContactDetailOutput struct {
	ContactSummary
	DirectoryFields      map[string]any              `json:"directory_fields,omitempty"`
	Activities           []ActivityOutput            `json:"activities"`
	Surveys              []SurveyOutput              `json:"surveys"`
	Notes                []NoteOutput                `json:"notes"`
	CommunicationMetrics models.CommunicationMetrics `json:"communication_metrics"`
	Tags                 []models.Tag                `json:"tags"`
	Insights             models.NLPInsights          `json:"insights"`
}

func (h *ContactHandlers) GetContact(ctx context.Context, _ *mcp.CallToolRequest, input GetContactInput) (*mcp.CallToolResult, ContactDetailOutput, error) {
	if input.ID == "" {
		return nil, ContactDetailOutput{}, fmt.Errorf("id is required")
	}
	filter, err := timefilter.Parse(input.Filter, input.Range, input.Start, input.End)
	if err != nil {
		return nil, ContactDetailOutput{}, fmt.Errorf("invalid time filter: %w", err)
	}

	view, err := insights.Load(ctx, h.store, input.ID, filter.Window(h.now()))
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, ContactDetailOutput{}, fmt.Errorf("contact not found: %s", input.ID)
		}
		return nil, ContactDetailOutput{}, fmt.Errorf("failed to fetch contact: %w", err)
	}
	return nil, detailOutput(view), nil
}

type AddNoteInput struct {
	ContactID      string `json:"contact_id" jsonschema:"Contact ID (required)"`
	Content        string `json:"content" jsonschema:"Note text (required)"`
	AuthorName     string `json:"author_name" jsonschema:"Author display name (required)"`
	AuthorInitials string `json:"author_initials,omitempty" jsonschema:"Author initials (derived from the name when empty)"`
}

func (h *ContactHandlers) AddNote(ctx context.Context, _ *mcp.CallToolRequest, input AddNoteInput) (*mcp.CallToolResult, NoteOutput, error) {
	initials := strings.TrimSpace(input.AuthorInitials)
	if initials == "" {
		initials = Initials(input.AuthorName)
	}
	note := &models.Note{
		ID:             "note_" + h.newID(),
		ContactID:      strings.TrimSpace(input.ContactID),
		Content:        strings.TrimSpace(input.Content),
		AuthorName:     strings.TrimSpace(input.AuthorName),
		AuthorInitials: initials,
		CreatedAt:      h.now().UTC(),
	}
	if err := models.Validate("note", note); err != nil {
		return nil, NoteOutput{}, err
	}
	if err := h.store.CreateNote(ctx, note); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, NoteOutput{}, fmt.Errorf("contact not found: %s", note.ContactID)
		}
		return nil, NoteOutput{}, fmt.Errorf("failed to add note: %w", err)
	}
	return nil, noteOutput(*note), nil
}

// Initials returns up to two upper-case initials from a display name.
func Initials(name string) string {
	var b strings.Builder
	for _, word := range strings.Fields(name) {
		for _, r := range word {
			b.WriteString(strings.ToUpper(string(r)))
			break
		}
		if b.Len() >= 2 {
			break
		}
	}
	return b.String()
}

func summarize(c *models.Contact) ContactSummary {
	return ContactSummary{
		ID:        c.ID,
		Directory: c.Directory,
		Name:      c.DisplayName(),
		Email:     c.DirectoryFields.Text("email"),
		Company:   c.DirectoryFields.Text("company"),
		CreatedAt: c.CreatedAt.Format(time.RFC3339),
	}
}

func detailOutput(view models.ContactWithData) ContactDetailOutput {
	out := ContactDetailOutput{
		ContactSummary:       summarize(&view.Contact),
		DirectoryFields:      fieldsMap(view.DirectoryFields),
		Activities:           make([]ActivityOutput, 0, len(view.Activities)),
		Surveys:              make([]SurveyOutput, 0, len(view.Surveys)),
		Notes:                make([]NoteOutput, 0, len(view.Notes)),
		CommunicationMetrics: view.CommunicationMetrics,
		Tags:                 view.Tags,
		Insights:             view.NLPInsights,
	}
	for _, a := range view.Activities {
		ao := ActivityOutput{ID: a.ID, Activity: a.Activity, Fields: fieldsMap(a.ActivityFields)}
		if a.ActivityUploadDate != nil {
			ao.UploadDate = a.ActivityUploadDate.Format(time.RFC3339)
		}
		out.Activities = append(out.Activities, ao)
	}
	for _, s := range view.Surveys {
		so := SurveyOutput{
			ID:      s.ID,
			Title:   s.SurveyTitle,
			Channel: s.Channel,
			Status:  s.Status,
			SentAt:  s.SentAt.Format(time.RFC3339),
		}
		if s.ActivityID != nil {
			so.ActivityID = *s.ActivityID
		}
		if s.OpenEndedSentiment != nil {
			so.Sentiment = *s.OpenEndedSentiment
		}
		out.Surveys = append(out.Surveys, so)
	}
	for _, n := range view.Notes {
		out.Notes = append(out.Notes, noteOutput(n))
	}
	return out
}

func noteOutput(n models.Note) NoteOutput {
	return NoteOutput{
		ID:             n.ID,
		ContactID:      n.ContactID,
		Content:        n.Content,
		AuthorName:     n.AuthorName,
		AuthorInitials: n.AuthorInitials,
		CreatedAt:      n.CreatedAt.Format(time.RFC3339),
	}
}

// fieldsMap flattens an ordered field set into a plain map for tool output.
func fieldsMap(f *models.Fields) map[string]any {
	if f.Len() == 0 {
		return nil
	}
	data, err := json.Marshal(f)
	if err != nil {
		return nil
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil
	}
	return out
}
