// ABOUTME: Tests for contact view aggregates
// ABOUTME: Checks rates, tags and the label summary over hand-built surveys
package insights

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/cxboard/models"
)

func sentiment(s string) *string { return &s }

func survey(id, channel, status string, sent time.Time) models.Survey {
	return models.Survey{ID: id, ContactID: "c1", SurveyTitle: "Survey " + id, Channel: channel, Status: status, SentAt: sent}
}

func TestCommunication(t *testing.T) {
	jan := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	surveys := []models.Survey{
		survey("s1", "Email", models.StatusCompleted, jan),
		survey("s2", "email", models.StatusRead, jan.AddDate(0, 0, 1)),
		survey("s3", "Email", models.StatusSent, jan.AddDate(0, 0, 2)),
		survey("s4", "SMS", models.StatusCompleted, jan.AddDate(0, 0, 3)),
	}
	notes := []models.Note{{ID: "n1", CreatedAt: jan.AddDate(0, 1, 0)}}

	m := Communication(nil, surveys, notes)
	assert.Equal(t, 0.67, m.EmailReadRate)
	assert.Equal(t, 0.5, m.ResponseRate)
	assert.Equal(t, "2024-02-10", m.LastContact)

	empty := Communication(nil, nil, nil)
	assert.Equal(t, models.CommunicationMetrics{}, empty)
}

func TestSummarize(t *testing.T) {
	s1 := survey("s1", "Email", models.StatusCompleted, time.Now())
	s1.OpenEndedSentiment = sentiment(models.SentimentPositive)
	s1.OpenEndedThemes = models.Array(models.String("speed"), models.String("Support"))
	s1.OpenEndedEmotions = models.Array(models.String("joy"))

	s2 := survey("s2", "Email", models.StatusCompleted, time.Now())
	s2.OpenEndedSentiment = sentiment(models.SentimentPositive)
	theme := models.NewFields()
	theme.Set("theme", models.String("support"))
	s2.OpenEndedThemes = models.Array(models.Object(theme))

	s3 := survey("s3", "Email", models.StatusCompleted, time.Now())
	s3.OpenEndedSentiment = sentiment(models.SentimentNegative)
	emotions := models.NewFields()
	emotions.Set("frustration", models.Float(0.8))
	s3.OpenEndedEmotions = models.Object(emotions)

	plain := survey("s4", "SMS", models.StatusSent, time.Now())

	got := Summarize([]models.Survey{s1, s2, s3, plain})
	assert.Equal(t, models.SentimentPositive, got.OverallSentiment)
	assert.Equal(t, 0.67, got.Confidence)
	assert.Equal(t, []string{"speed", "Support"}, got.Themes)
	assert.Equal(t, []string{"joy", "frustration"}, got.Emotions)

	require.Len(t, got.Analysis, 3)
	assert.Equal(t, "speed", got.Analysis[0].Theme)
	assert.Equal(t, "support", got.Analysis[1].Theme)
	assert.Equal(t, "Survey s3", got.Analysis[2].Theme)
	assert.Equal(t, []string{"frustration"}, got.Analysis[2].Emotions)
}

func TestSummarizeTieIsNeutral(t *testing.T) {
	a := survey("a", "Email", models.StatusCompleted, time.Now())
	a.OpenEndedSentiment = sentiment(models.SentimentPositive)
	b := survey("b", "Email", models.StatusCompleted, time.Now())
	b.OpenEndedSentiment = sentiment(models.SentimentNegative)

	got := Summarize([]models.Survey{a, b})
	assert.Equal(t, models.SentimentNeutral, got.OverallSentiment)
	assert.Equal(t, 0.0, got.Confidence)

	none := Summarize(nil)
	assert.Equal(t, "", none.OverallSentiment)
	assert.NotNil(t, none.Themes)
	assert.NotNil(t, none.Analysis)
}

func TestEnrichTags(t *testing.T) {
	fields := models.NewFields()
	fields.Set("segment", models.String("Strategic"))
	c := models.Contact{ID: "c1", Directory: "Enterprise Customers", DirectoryFields: fields}

	s := survey("s1", "Email", models.StatusCompleted, time.Now())
	s.OpenEndedSentiment = sentiment(models.SentimentPositive)

	view := Enrich(c, nil, []models.Survey{s}, nil)
	assert.Equal(t, "c1", view.ID)
	assert.NotNil(t, view.Activities)
	assert.NotNil(t, view.Notes)
	require.Len(t, view.Tags, 3)
	assert.Equal(t, models.Tag{Type: models.TagTypeSystem, Label: "Enterprise Customers", Color: "blue"}, view.Tags[0])
	assert.Equal(t, "Strategic", view.Tags[1].Label)
	assert.Equal(t, models.TagTypeAI, view.Tags[2].Type)
}
