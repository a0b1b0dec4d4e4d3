// ABOUTME: Tests for customer-experience data models
// ABOUTME: Validates required-field contracts, display names, and JSON shape
package models

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateContactRequiresIDAndDirectory(t *testing.T) {
	err := Validate("contact", &Contact{})
	require.Error(t, err)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "contact", verr.Entity)

	fields := map[string]string{}
	for _, fe := range verr.Fields {
		fields[fe.Field] = fe.Msg
	}
	assert.Equal(t, "required", fields["id"])
	assert.Equal(t, "required", fields["directory"])
}

func TestValidateContactAcceptsMissingDirectoryFields(t *testing.T) {
	err := Validate("contact", &Contact{ID: "c1", Directory: "Enterprise Customers"})
	assert.NoError(t, err)
}

func TestValidateSurveyRequiredFields(t *testing.T) {
	survey := &Survey{ID: "s1", ContactID: "c1", SurveyTitle: "NPS Q1"}
	err := Validate("survey", survey)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "channel: required")
	assert.Contains(t, err.Error(), "status: required")

	survey.Channel = "Email"
	survey.Status = StatusSent
	assert.NoError(t, Validate("survey", survey))
}

func TestValidateNote(t *testing.T) {
	note := &Note{ID: "note_1", ContactID: "c1", Content: "Called back"}
	err := Validate("note", note)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "authorName")
	assert.Contains(t, err.Error(), "authorInitials")
}

func TestContactDisplayName(t *testing.T) {
	c := &Contact{ID: "c1"}
	assert.Equal(t, "c1", c.DisplayName())

	c.DirectoryFields = NewFields()
	c.DirectoryFields.Set("email", String("sarah@example.com"))
	assert.Equal(t, "sarah@example.com", c.DisplayName())

	c.DirectoryFields.Set("name", String("Sarah Chen"))
	assert.Equal(t, "Sarah Chen", c.DisplayName())
}

func TestSurveyJSONShape(t *testing.T) {
	activityID := "activity_1"
	sentiment := SentimentPositive
	survey := Survey{
		ID:                 "s1",
		ContactID:          "c1",
		ActivityID:         &activityID,
		SurveyTitle:        "Onboarding",
		Channel:            "Email",
		SentAt:             time.Date(2024, 1, 20, 10, 0, 0, 0, time.UTC),
		Language:           DefaultLanguage,
		Status:             StatusCompleted,
		OpenEndedSentiment: &sentiment,
		OpenEndedThemes:    Array(String("support"), String("value")),
	}

	data, err := json.Marshal(survey)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "activity_1", decoded["activityId"])
	assert.Equal(t, "positive", decoded["openEndedSentiment"])
	assert.Equal(t, []any{"support", "value"}, decoded["openEndedThemes"])
	assert.Nil(t, decoded["openEndedEmotions"])
	assert.Nil(t, decoded["participationDate"])
	assert.Nil(t, decoded["metricScores"])
}

func TestIsSentiment(t *testing.T) {
	assert.True(t, IsSentiment("positive"))
	assert.True(t, IsSentiment("neutral"))
	assert.True(t, IsSentiment("negative"))
	assert.False(t, IsSentiment("Positive"))
	assert.False(t, IsSentiment("mixed"))
}
