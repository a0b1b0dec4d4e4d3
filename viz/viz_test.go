// ABOUTME: Tests for linkage graphs and the terminal dashboard
// ABOUTME: Renders DOT from a memory store seeded with one linked contact
package viz

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-graphviz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/cxboard/db"
	"github.com/harperreed/cxboard/models"
)

func seed(t *testing.T) *db.MemoryStore {
	t.Helper()
	ctx := context.Background()
	s := db.NewMemoryStore()

	fields := models.NewFields()
	fields.Set("name", models.String("Sarah Chen"))
	require.NoError(t, s.CreateContact(ctx, &models.Contact{ID: "c1", Directory: "Enterprise", DirectoryFields: fields}))
	require.NoError(t, s.CreateContact(ctx, &models.Contact{ID: "c2", Directory: "SMB"}))
	require.NoError(t, s.CreateActivity(ctx, &models.Activity{ID: "a1", ContactID: "c1", Activity: "Support Ticket", ActivityFields: models.NewFields()}))

	positive := models.SentimentPositive
	activityID := "a1"
	require.NoError(t, s.UpsertSurvey(ctx, &models.Survey{
		ID: "s1", ContactID: "c1", ActivityID: &activityID, SurveyTitle: "Support CSAT",
		Channel: "Email", Status: models.StatusCompleted, SentAt: time.Now(), OpenEndedSentiment: &positive,
	}))
	require.NoError(t, s.UpsertSurvey(ctx, &models.Survey{
		ID: "s2", ContactID: "c1", SurveyTitle: "Quarterly NPS", Channel: "SMS", Status: models.StatusSent, SentAt: time.Now(),
	}))
	return s
}

func TestGenerateContactGraph(t *testing.T) {
	g := NewGraphGenerator(seed(t))
	out, err := g.GenerateContactGraph(context.Background(), "c1", graphviz.XDOT)
	require.NoError(t, err)

	dot := string(out)
	assert.True(t, strings.HasPrefix(strings.TrimSpace(dot), "digraph"))
	assert.Contains(t, dot, "Sarah Chen")
	assert.Contains(t, dot, "Support Ticket")
	assert.Contains(t, dot, "triggered")
	assert.Contains(t, dot, "Quarterly NPS")
}

func TestGenerateContactGraphMissing(t *testing.T) {
	g := NewGraphGenerator(db.NewMemoryStore())
	_, err := g.GenerateContactGraph(context.Background(), "ghost", graphviz.XDOT)
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestGenerateCompleteGraph(t *testing.T) {
	g := NewGraphGenerator(seed(t))
	out, err := g.GenerateCompleteGraph(context.Background(), graphviz.XDOT)
	require.NoError(t, err)
	assert.Contains(t, string(out), "Enterprise")
	assert.Contains(t, string(out), "SMB")
}

func TestDashboard(t *testing.T) {
	stats, err := GenerateDashboardStats(context.Background(), seed(t))
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalContacts)
	assert.Equal(t, 1, stats.TotalActivities)
	assert.Equal(t, 2, stats.TotalSurveys)
	assert.Equal(t, 1, stats.Unlinked)
	assert.Equal(t, []Bucket{{"Enterprise", 1}, {"SMB", 1}}, stats.ByDirectory)
	assert.Equal(t, []Bucket{{"positive", 1}, {"unlabeled", 1}}, stats.BySentiment)

	out := RenderDashboard(stats)
	assert.Contains(t, out, "CXBOARD DASHBOARD")
	assert.Contains(t, out, "2 contacts  1 activities  2 surveys")
	assert.Contains(t, out, "NEEDS ATTENTION")
}
