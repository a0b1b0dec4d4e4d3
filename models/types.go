// ABOUTME: Data models for customer-experience entities
// ABOUTME: Defines Contact, Activity, Survey, Note, and the enriched contact view
package models

import (
	"time"
)

type Contact struct {
	ID              string    `json:"id" validate:"required"`
	Directory       string    `json:"directory" validate:"required"`
	DirectoryFields *Fields   `json:"directoryFields"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

type Activity struct {
	ID                 string     `json:"id" validate:"required"`
	ContactID          string     `json:"contactId" validate:"required"`
	Activity           string     `json:"activity" validate:"required"`
	ActivityFields     *Fields    `json:"activityFields"`
	ActivityUploadDate *time.Time `json:"activityUploadDate"`
	CreatedAt          time.Time  `json:"createdAt"`
}

type Survey struct {
	ID                  string     `json:"id" validate:"required"`
	ContactID           string     `json:"contactId" validate:"required"`
	ActivityID          *string    `json:"activityId"`
	SurveyTitle         string     `json:"surveyTitle" validate:"required"`
	FeedbackRecipient   *Fields    `json:"feedbackRecipient"`
	Channel             string     `json:"channel" validate:"required"`
	SentAt              time.Time  `json:"sentAt"`
	Language            string     `json:"language"`
	Status              string     `json:"status" validate:"required"`
	ParticipationMethod *string    `json:"participationMethod"`
	ParticipationDate   *time.Time `json:"participationDate"`
	SurveyResponseLink  *string    `json:"surveyResponseLink"`
	MetricScores        *Fields    `json:"metricScores"`
	DriverScores        *Fields    `json:"driverScores"`
	OpenEndedSentiment  *string    `json:"openEndedSentiment"`
	OpenEndedThemes     Value      `json:"openEndedThemes"`
	OpenEndedEmotions   Value      `json:"openEndedEmotions"`
	CreatedAt           time.Time  `json:"createdAt"`
}

type Note struct {
	ID             string    `json:"id" validate:"required"`
	ContactID      string    `json:"contactId" validate:"required"`
	Content        string    `json:"content" validate:"required"`
	AuthorName     string    `json:"authorName" validate:"required"`
	AuthorInitials string    `json:"authorInitials" validate:"required"`
	CreatedAt      time.Time `json:"createdAt"`
}

// DefaultLanguage is applied to surveys that do not declare one.
const DefaultLanguage = "English"

// Survey status values seen in source files. Status is free text; these are conventions.
const (
	StatusSent      = "Sent"
	StatusRead      = "Read"
	StatusCompleted = "Completed"
	StatusBounced   = "Bounced"
)

// Sentiment constants.
const (
	SentimentPositive = "positive"
	SentimentNeutral  = "neutral"
	SentimentNegative = "negative"
)

// IsSentiment reports whether s is one of the known sentiment labels.
func IsSentiment(s string) bool {
	switch s {
	case SentimentPositive, SentimentNeutral, SentimentNegative:
		return true
	}
	return false
}

// Tag types.
const (
	TagTypeAI     = "ai"
	TagTypeSystem = "system"
)

type CommunicationMetrics struct {
	EmailReadRate float64 `json:"emailReadRate"`
	ResponseRate  float64 `json:"responseRate"`
	LastContact   string  `json:"lastContact"`
}

type Tag struct {
	Type  string `json:"type"`
	Label string `json:"label"`
	Color string `json:"color"`
}

type InsightAnalysis struct {
	Theme     string   `json:"theme"`
	Sentiment string   `json:"sentiment"`
	Quote     string   `json:"quote"`
	Emotions  []string `json:"emotions"`
}

type NLPInsights struct {
	OverallSentiment string            `json:"overallSentiment"`
	Confidence       float64           `json:"confidence"`
	Themes           []string          `json:"themes"`
	Emotions         []string          `json:"emotions"`
	Analysis         []InsightAnalysis `json:"analysis"`
}

// ContactWithData is the contact view returned by the contact fetch endpoint.
type ContactWithData struct {
	Contact
	Activities           []Activity           `json:"activities"`
	Surveys              []Survey             `json:"surveys"`
	Notes                []Note               `json:"notes"`
	CommunicationMetrics CommunicationMetrics `json:"communicationMetrics"`
	Tags                 []Tag                `json:"tags"`
	NLPInsights          NLPInsights          `json:"nlpInsights"`
}

// DisplayName picks the best human label for a contact.
func (c *Contact) DisplayName() string {
	if name := c.DirectoryFields.Text("name"); name != "" {
		return name
	}
	if email := c.DirectoryFields.Text("email"); email != "" {
		return email
	}
	return c.ID
}
