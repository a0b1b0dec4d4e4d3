// ABOUTME: JSON column encoding shared by the SQL backends
// ABOUTME: Converts ordered field maps and label values to and from JSON text
package db

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/harperreed/cxboard/models"
)

// encodeFields returns JSON text for f, or nil for SQL NULL.
func encodeFields(f *models.Fields) (any, error) {
	if f == nil {
		return nil, nil
	}
	b, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("encode fields: %w", err)
	}
	return string(b), nil
}

func decodeFields(s string) (*models.Fields, error) {
	if s == "" {
		return nil, nil
	}
	f := models.NewFields()
	if err := json.Unmarshal([]byte(s), f); err != nil {
		return nil, err
	}
	return f, nil
}

func encodeValue(v models.Value) (any, error) {
	if v.IsNull() {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode value: %w", err)
	}
	return string(b), nil
}

func decodeValue(s string) (models.Value, error) {
	if s == "" {
		return models.Null(), nil
	}
	return models.ParseValue([]byte(s))
}

const surveyColumns = `id, contact_id, activity_id, survey_title, feedback_recipient, channel, sent_at,
	language, status, participation_method, participation_date, survey_response_link,
	metric_scores, driver_scores, open_ended_sentiment, open_ended_themes, open_ended_emotions, created_at`

func surveyArgs(s *models.Survey) ([]any, error) {
	recipient, err := encodeFields(s.FeedbackRecipient)
	if err != nil {
		return nil, err
	}
	metrics, err := encodeFields(s.MetricScores)
	if err != nil {
		return nil, err
	}
	drivers, err := encodeFields(s.DriverScores)
	if err != nil {
		return nil, err
	}
	themes, err := encodeValue(s.OpenEndedThemes)
	if err != nil {
		return nil, err
	}
	emotions, err := encodeValue(s.OpenEndedEmotions)
	if err != nil {
		return nil, err
	}
	language := s.Language
	if language == "" {
		language = models.DefaultLanguage
	}
	return []any{
		s.ID, s.ContactID, s.ActivityID, s.SurveyTitle, recipient, s.Channel, s.SentAt,
		language, s.Status, s.ParticipationMethod, s.ParticipationDate, s.SurveyResponseLink,
		metrics, drivers, s.OpenEndedSentiment, themes, emotions, s.CreatedAt,
	}, nil
}

// surveyRow holds nullable columns while scanning a survey.
type surveyRow struct {
	activityID   sql.NullString
	recipient    sql.NullString
	method       sql.NullString
	link         sql.NullString
	metrics      sql.NullString
	drivers      sql.NullString
	sentiment    sql.NullString
	themes       sql.NullString
	emotions     sql.NullString
	participated sql.NullTime
}

func (r *surveyRow) dest(s *models.Survey) []any {
	return []any{
		&s.ID, &s.ContactID, &r.activityID, &s.SurveyTitle, &r.recipient, &s.Channel, &s.SentAt,
		&s.Language, &s.Status, &r.method, &r.participated, &r.link,
		&r.metrics, &r.drivers, &r.sentiment, &r.themes, &r.emotions, &s.CreatedAt,
	}
}

func (r *surveyRow) fill(s *models.Survey) error {
	var err error
	s.ActivityID = nullString(r.activityID)
	s.ParticipationMethod = nullString(r.method)
	s.SurveyResponseLink = nullString(r.link)
	s.OpenEndedSentiment = nullString(r.sentiment)
	if r.participated.Valid {
		t := r.participated.Time
		s.ParticipationDate = &t
	}
	if s.FeedbackRecipient, err = decodeFields(r.recipient.String); err != nil {
		return fmt.Errorf("survey %s feedback_recipient: %w", s.ID, err)
	}
	if s.MetricScores, err = decodeFields(r.metrics.String); err != nil {
		return fmt.Errorf("survey %s metric_scores: %w", s.ID, err)
	}
	if s.DriverScores, err = decodeFields(r.drivers.String); err != nil {
		return fmt.Errorf("survey %s driver_scores: %w", s.ID, err)
	}
	if s.OpenEndedThemes, err = decodeValue(r.themes.String); err != nil {
		return fmt.Errorf("survey %s open_ended_themes: %w", s.ID, err)
	}
	if s.OpenEndedEmotions, err = decodeValue(r.emotions.String); err != nil {
		return fmt.Errorf("survey %s open_ended_emotions: %w", s.ID, err)
	}
	return nil
}

func scanSurvey(row rowScanner) (*models.Survey, error) {
	s := &models.Survey{}
	var r surveyRow
	if err := row.Scan(r.dest(s)...); err != nil {
		return nil, err
	}
	if err := r.fill(s); err != nil {
		return nil, err
	}
	return s, nil
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
