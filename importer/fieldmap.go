// ABOUTME: Field mapper turning one source record into contact, activity and survey fragments
// ABOUTME: Handles aliases, JSON embedded in CSV cells, derived fields, and timestamp parsing
package importer

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/harperreed/cxboard/models"
)

// Fragment is the canonical output of mapping one source record.
type Fragment struct {
	Record   int
	Contact  *models.Contact
	Activity *models.Activity
	Survey   *models.Survey
}

// Issue is a problem tied to one source record. Mapping issues are warnings;
// validation and persistence issues mean a fragment was skipped.
type Issue struct {
	Record int    `json:"record"`
	Entity string `json:"entity,omitempty"`
	ID     string `json:"id,omitempty"`
	Field  string `json:"field,omitempty"`
	Reason string `json:"reason"`
}

// String formats the issue as "record 3: survey s1 channel: reason".
func (i Issue) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "record %d", i.Record)
	if i.Entity != "" || i.ID != "" || i.Field != "" {
		b.WriteString(":")
	}
	for _, part := range []string{i.Entity, i.ID, i.Field} {
		if part != "" {
			b.WriteString(" " + part)
		}
	}
	b.WriteString(": " + i.Reason)
	return b.String()
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"01/02/2006 15:04:05",
	"1/2/2006 15:04",
	"01/02/2006",
	"1/2/2006",
}

// decodeEmbeddedJSON parses JSON text that may carry one extra layer of CSV
// quoting. Text that already parses is used as is.
func decodeEmbeddedJSON(raw string) (models.Value, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return models.Null(), nil
	}
	if v, err := models.ParseValue([]byte(s)); err == nil {
		return v, nil
	}
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	s = strings.ReplaceAll(s, `""`, `"`)
	v, err := models.ParseValue([]byte(s))
	if err != nil {
		return models.Null(), fmt.Errorf("invalid embedded JSON: %w", err)
	}
	return v, nil
}

// parseTimestamp accepts the layouts seen in exports plus Unix epoch seconds.
func parseTimestamp(v models.Value) (time.Time, error) {
	s := strings.TrimSpace(v.Text())
	if f, ok := v.AsFloat(); ok && epochLength(s) {
		return epoch(f), nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	if epochLength(s) {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return epoch(f), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// Bare numbers shorter than this are years or counts, not epochs.
const minEpochDigits = 9

func epochLength(s string) bool {
	whole, _, _ := strings.Cut(strings.TrimPrefix(s, "-"), ".")
	return len(whole) >= minEpochDigits
}

func epoch(f float64) time.Time {
	// Millisecond epochs are common in JSON exports.
	if f > 1e12 {
		return time.UnixMilli(int64(f)).UTC()
	}
	return time.Unix(int64(f), 0).UTC()
}

// mapRecord produces the fragments for one record along with any field-level
// warnings. The contact id is left empty when the source does not carry one.
func mapRecord(rec *sourceRecord) (Fragment, []Issue) {
	m := &recordMapper{rec: rec}
	frag := Fragment{Record: rec.index}
	frag.Contact = m.contact()
	frag.Activity = m.activity()
	frag.Survey = m.survey()
	return frag, m.issues
}

type recordMapper struct {
	rec    *sourceRecord
	issues []Issue
}

func (m *recordMapper) warn(entity string, f field, reason string) {
	m.issues = append(m.issues, Issue{
		Record: m.rec.index,
		Entity: entity,
		Field:  string(f),
		Reason: reason,
	})
}

// object decodes f as an open mapping. Anything other than an object is
// reported and treated as absent.
func (m *recordMapper) object(entity string, f field) *models.Fields {
	v, ok := m.structured(entity, f)
	if !ok {
		return nil
	}
	if v.Kind() != models.KindObject {
		m.warn(entity, f, fmt.Sprintf("expected a JSON object, got %s", v.Kind()))
		return nil
	}
	return v.Fields()
}

// structured returns f as a JSON value, decoding it when it arrives as text.
func (m *recordMapper) structured(entity string, f field) (models.Value, bool) {
	v, ok := m.rec.lookup(f)
	if !ok {
		return models.Null(), false
	}
	if v.Kind() != models.KindString {
		return v, true
	}
	s, _ := v.AsString()
	decoded, err := decodeEmbeddedJSON(s)
	if err != nil {
		m.warn(entity, f, err.Error())
		return models.Null(), false
	}
	return decoded, !decoded.IsNull()
}

func (m *recordMapper) timestamp(entity string, f field) *time.Time {
	v, ok := m.rec.lookup(f)
	if !ok {
		return nil
	}
	t, err := parseTimestamp(v)
	if err != nil {
		m.warn(entity, f, err.Error())
		return nil
	}
	return &t
}

func (m *recordMapper) optionalText(f field) *string {
	s := m.rec.text(f)
	if s == "" {
		return nil
	}
	return &s
}

func (m *recordMapper) contact() *models.Contact {
	c := &models.Contact{
		ID:        m.rec.text(fieldContactID),
		Directory: m.rec.text(fieldDirectory),
	}

	fields := m.object("contact", fieldDirectoryFields)
	if fields == nil {
		fields = models.NewFields()
	} else {
		fields = fields.Clone()
	}
	for _, dk := range directoryKeys {
		if fields.Has(dk.key) {
			continue
		}
		if v, ok := m.rec.values[dk.alias]; ok && !isEmpty(v) {
			if s, isStr := v.AsString(); isStr {
				v = models.String(strings.TrimSpace(s))
			}
			fields.Set(dk.key, v)
		}
	}
	deriveDirectoryFields(fields)
	c.DirectoryFields = fields
	return c
}

// deriveDirectoryFields fills name and location from their parts.
func deriveDirectoryFields(fields *models.Fields) {
	if fields.Text("name") == "" {
		first, last := fields.Text("first_name"), fields.Text("last_name")
		if name := strings.TrimSpace(first + " " + last); name != "" {
			fields.Set("name", models.String(name))
		}
	}
	if fields.Text("location") == "" {
		var parts []string
		for _, k := range []string{"city", "state"} {
			if s := fields.Text(k); s != "" {
				parts = append(parts, s)
			}
		}
		if len(parts) > 0 {
			fields.Set("location", models.String(strings.Join(parts, ", ")))
		}
	}
}

func (m *recordMapper) activity() *models.Activity {
	label := m.rec.text(fieldActivity)
	if label == "" {
		return nil
	}
	fields := m.object("activity", fieldActivityFields)
	if fields == nil {
		return nil
	}
	return &models.Activity{
		Activity:           label,
		ActivityFields:     fields,
		ActivityUploadDate: m.timestamp("activity", fieldActivityUploadDate),
	}
}

func (m *recordMapper) survey() *models.Survey {
	id := m.rec.text(fieldSurveyID)
	title := m.rec.text(fieldSurveyTitle)
	if id == "" || title == "" {
		return nil
	}

	s := &models.Survey{
		ID:                  id,
		SurveyTitle:         title,
		FeedbackRecipient:   m.object("survey", fieldFeedbackRecipient),
		Channel:             m.rec.text(fieldChannel),
		Language:            m.rec.text(fieldLanguage),
		Status:              m.rec.text(fieldStatus),
		ParticipationMethod: m.optionalText(fieldParticipatedVia),
		ParticipationDate:   m.timestamp("survey", fieldParticipatedDate),
		SurveyResponseLink:  m.optionalText(fieldResponseLink),
		MetricScores:        m.object("survey", fieldMetricScores),
		DriverScores:        m.object("survey", fieldDriverScores),
	}
	if sent := m.timestamp("survey", fieldSentAt); sent != nil {
		s.SentAt = *sent
	}
	if s.Language == "" {
		s.Language = models.DefaultLanguage
	}

	if raw := m.rec.text(fieldSentiment); raw != "" {
		label := strings.ToLower(raw)
		if models.IsSentiment(label) {
			s.OpenEndedSentiment = &label
		} else {
			m.warn("survey", fieldSentiment, fmt.Sprintf("unknown sentiment %q", raw))
		}
	}
	s.OpenEndedThemes = m.labels(fieldThemes)
	s.OpenEndedEmotions = m.labels(fieldEmotions)
	return s
}

// labels reads a theme or emotion field. Text that looks like JSON must parse;
// otherwise the field is absent. Other plain text is read as a comma
// separated list.
func (m *recordMapper) labels(f field) models.Value {
	v, ok := m.rec.lookup(f)
	if !ok {
		return models.Null()
	}
	s, isText := v.AsString()
	if !isText {
		return v
	}
	decoded, err := decodeEmbeddedJSON(s)
	if err == nil {
		return decoded
	}
	if looksLikeJSON(s) {
		m.warn("survey", f, err.Error())
		return models.Null()
	}
	var items []models.Value
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			items = append(items, models.String(part))
		}
	}
	if len(items) == 0 {
		return models.Null()
	}
	return models.Array(items...)
}

func looksLikeJSON(s string) bool {
	s = strings.TrimSpace(s)
	return s != "" && strings.ContainsRune(`[{"`, rune(s[0]))
}
