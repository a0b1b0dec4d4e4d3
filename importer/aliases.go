// ABOUTME: Canonical import fields and the source-name alias table
// ABOUTME: Normalizes CSV headers and JSON keys so both formats share one lookup
package importer

import (
	"strings"
	"unicode"
)

// field is a canonical import field.
type field string

const (
	fieldContactID          field = "contact_id"
	fieldDirectory          field = "directory"
	fieldDirectoryFields    field = "directory_fields"
	fieldActivity           field = "activity"
	fieldActivityFields     field = "activity_fields"
	fieldActivityUploadDate field = "activity_upload_date"
	fieldSurveyID           field = "survey_id"
	fieldSurveyTitle        field = "survey_title"
	fieldFeedbackRecipient  field = "feedback_recipient"
	fieldChannel            field = "channel"
	fieldSentAt             field = "sent_at"
	fieldLanguage           field = "language"
	fieldStatus             field = "status"
	fieldParticipatedVia    field = "participated_via"
	fieldParticipatedDate   field = "participated_date"
	fieldResponseLink       field = "survey_response_link"
	fieldMetricScores       field = "metric_scores"
	fieldDriverScores       field = "driver_scores"
	fieldSentiment          field = "open_ended_sentiment"
	fieldThemes             field = "open_ended_themes"
	fieldEmotions           field = "open_ended_emotions"
)

// fieldAliases lists normalized source names per canonical field, in priority
// order. The first alias holding a non-empty value wins.
var fieldAliases = map[field][]string{
	fieldContactID:          {"contactid", "id"},
	fieldDirectory:          {"directory", "directoryname"},
	fieldDirectoryFields:    {"directoryfieldsjsonb", "directoryfields"},
	fieldActivity:           {"activity", "activitytype", "activityname"},
	fieldActivityFields:     {"activityfieldsjsonb", "activityfields"},
	fieldActivityUploadDate: {"activityuploaddate", "activitydate"},
	fieldSurveyID:           {"surveyid"},
	fieldSurveyTitle:        {"surveytitle", "surveyname"},
	fieldFeedbackRecipient:  {"feedbackrecipientjsonb", "feedbackrecipient"},
	fieldChannel:            {"channel", "surveychannel"},
	fieldSentAt:             {"sentat", "sentdate", "surveysentat"},
	fieldLanguage:           {"language", "surveylanguage"},
	fieldStatus:             {"status", "surveystatus"},
	fieldParticipatedVia:    {"participatedvia", "participationmethod"},
	fieldParticipatedDate:   {"participateddate", "participationdate"},
	fieldResponseLink:       {"surveyresponselink", "responselink"},
	fieldMetricScores:       {"metricandcustommetricscoresjsonb", "metricsandcustommetrics", "metricandcustommetricscores", "metricscores"},
	fieldDriverScores:       {"driverscoresjsonb", "driverscores"},
	fieldSentiment:          {"openendedsentiment", "sentiment"},
	fieldThemes:             {"openendedthemesjsonb", "openendedthemes", "themes"},
	fieldEmotions:           {"openendedemotionsjsonb", "openendedemotions", "emotions"},
}

// directoryKeys maps loose contact attributes found at the top level of a
// record to their key inside directoryFields.
var directoryKeys = []struct {
	alias string
	key   string
}{
	{"name", "name"},
	{"fullname", "name"},
	{"firstname", "first_name"},
	{"lastname", "last_name"},
	{"email", "email"},
	{"emailaddress", "email"},
	{"phone", "phone"},
	{"company", "company"},
	{"role", "role"},
	{"title", "role"},
	{"industry", "industry"},
	{"annualrevenue", "annual_revenue"},
	{"location", "location"},
	{"city", "city"},
	{"state", "state"},
	{"joindate", "join_date"},
	{"segment", "segment"},
}

// normalizeKey lower-cases name and drops every rune that is not a letter or
// digit, so "Contact ID", "contact_id" and "contactId" compare equal.
func normalizeKey(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}
