// ABOUTME: Tests for the field mapper, alias normalization and embedded JSON decoding
// ABOUTME: Exercises CSV-style cells and JSON-style objects through the same mapper
package importer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/cxboard/models"
)

func TestNormalizeKey(t *testing.T) {
	cases := map[string]string{
		"Contact ID":               "contactid",
		"contact_id":               "contactid",
		"contactId":                "contactid",
		"Directory Fields (JSONb)": "directoryfieldsjsonb",
		"Open-Ended Sentiment":     "openendedsentiment",
		"Metric and Custom Metric Scores (JSONb)": "metricandcustommetricscoresjsonb",
		"  ": "",
	}
	for in, want := range cases {
		assert.Equal(t, want, normalizeKey(in), in)
	}
}

func TestDecodeEmbeddedJSONDoubledQuotes(t *testing.T) {
	v, err := decodeEmbeddedJSON(`"{""a"":1}"`)
	require.NoError(t, err)
	require.Equal(t, models.KindObject, v.Kind())
	a, ok := v.Fields().Get("a")
	require.True(t, ok)
	f, _ := a.AsFloat()
	assert.Equal(t, 1.0, f)
}

func TestDecodeEmbeddedJSONPlainAndBroken(t *testing.T) {
	v, err := decodeEmbeddedJSON(`{"name":"Sarah","note":""}`)
	require.NoError(t, err)
	assert.Equal(t, "Sarah", v.Fields().Text("name"))
	assert.True(t, v.Fields().Has("note"))

	v, err = decodeEmbeddedJSON(`{""a"":1}`)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, v.Fields().Keys())

	_, err = decodeEmbeddedJSON(`{not json`)
	assert.Error(t, err)

	v, err = decodeEmbeddedJSON("   ")
	require.NoError(t, err)
	assert.True(t, v.IsNull())
}

func csvRecord(pairs ...string) *sourceRecord {
	var header, row []string
	for i := 0; i+1 < len(pairs); i += 2 {
		header = append(header, pairs[i])
		row = append(row, pairs[i+1])
	}
	return recordFromCSV(1, header, row)
}

func TestMapRecordCSVColumns(t *testing.T) {
	rec := csvRecord(
		"Contact ID", "c1",
		"Directory", "Enterprise Customers",
		"Directory Fields (JSONb)", `{"name":"Sarah","email":"s@x.com"}`,
		"Activity", "Support Ticket",
		"Activity Fields (JSONb)", `{"ticket":"T-1"}`,
		"Activity Upload Date", "2024-01-15",
		"Survey ID", "s1",
		"Survey Title", "Support CSAT",
		"Channel", "Email",
		"Sent At", "2024-01-16 10:30:00",
		"Status", "Completed",
		"Participated Via", "Web",
		"Metric and Custom Metric Scores (JSONb)", `{"csat":4.5}`,
		"Open-Ended Sentiment", "Positive",
		"Open-Ended Themes (JSONb)", `["speed","friendliness"]`,
	)

	frag, issues := mapRecord(rec)
	assert.Empty(t, issues)

	require.NotNil(t, frag.Contact)
	assert.Equal(t, "c1", frag.Contact.ID)
	assert.Equal(t, "Enterprise Customers", frag.Contact.Directory)
	assert.Equal(t, "Sarah", frag.Contact.DirectoryFields.Text("name"))

	require.NotNil(t, frag.Activity)
	assert.Equal(t, "Support Ticket", frag.Activity.Activity)
	assert.Equal(t, "T-1", frag.Activity.ActivityFields.Text("ticket"))
	require.NotNil(t, frag.Activity.ActivityUploadDate)
	assert.True(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC).Equal(*frag.Activity.ActivityUploadDate))

	require.NotNil(t, frag.Survey)
	assert.Equal(t, "s1", frag.Survey.ID)
	assert.True(t, time.Date(2024, 1, 16, 10, 30, 0, 0, time.UTC).Equal(frag.Survey.SentAt))
	assert.Equal(t, models.DefaultLanguage, frag.Survey.Language)
	require.NotNil(t, frag.Survey.OpenEndedSentiment)
	assert.Equal(t, "positive", *frag.Survey.OpenEndedSentiment)
	require.NotNil(t, frag.Survey.ParticipationMethod)
	assert.Equal(t, "Web", *frag.Survey.ParticipationMethod)
	assert.Equal(t, "4.5", frag.Survey.MetricScores.Text("csat"))
	assert.Equal(t, []string{"speed", "friendliness"}, frag.Survey.OpenEndedThemes.Labels())
}

func TestMapRecordBrokenEmbeddedFieldIsAbsent(t *testing.T) {
	rec := csvRecord(
		"Contact ID", "c1",
		"Directory", "SMB",
		"Directory Fields (JSONb)", `{"name": broken`,
		"Activity", "Purchase",
		"Activity Fields (JSONb)", `{"sku":"A-1"}`,
	)

	frag, issues := mapRecord(rec)
	require.Len(t, issues, 1)
	assert.Equal(t, "directory_fields", issues[0].Field)

	assert.Equal(t, 0, frag.Contact.DirectoryFields.Len())
	require.NotNil(t, frag.Activity, "the rest of the row still maps")
	assert.Equal(t, "A-1", frag.Activity.ActivityFields.Text("sku"))
}

func TestMapRecordActivityNeedsLabelAndFields(t *testing.T) {
	frag, _ := mapRecord(csvRecord("Contact ID", "c1", "Activity", "Purchase"))
	assert.Nil(t, frag.Activity)

	frag, _ = mapRecord(csvRecord("Contact ID", "c1", "Activity Fields (JSONb)", `{"a":1}`))
	assert.Nil(t, frag.Activity)
}

func TestMapRecordSurveyNeedsIDAndTitle(t *testing.T) {
	frag, _ := mapRecord(csvRecord("Contact ID", "c1", "Survey ID", "s1"))
	assert.Nil(t, frag.Survey)

	frag, _ = mapRecord(csvRecord("Contact ID", "c1", "Survey Title", "NPS"))
	assert.Nil(t, frag.Survey)
}

func TestMapRecordDerivedNameAndLocation(t *testing.T) {
	obj := models.NewFields()
	obj.Set("id", models.String("c9"))
	obj.Set("directory", models.String("Prospects"))
	obj.Set("first_name", models.String(" Maya "))
	obj.Set("last_name", models.String("Patel"))
	obj.Set("city", models.String("Austin"))
	obj.Set("state", models.String("TX"))
	obj.Set("annual_revenue", models.Number("50000"))

	frag, issues := mapRecord(recordFromObject(1, obj))
	assert.Empty(t, issues)
	assert.Equal(t, "c9", frag.Contact.ID)
	assert.Equal(t, "Maya Patel", frag.Contact.DirectoryFields.Text("name"))
	assert.Equal(t, "Austin, TX", frag.Contact.DirectoryFields.Text("location"))
	assert.Equal(t, "50000", frag.Contact.DirectoryFields.Text("annual_revenue"))
}

func TestMapRecordExplicitNameWins(t *testing.T) {
	rec := csvRecord(
		"Contact ID", "c1",
		"Directory Fields (JSONb)", `{"name":"Dr. Sarah Chen","first_name":"Sarah","last_name":"Chen"}`,
	)
	frag, _ := mapRecord(rec)
	assert.Equal(t, "Dr. Sarah Chen", frag.Contact.DirectoryFields.Text("name"))
}

func TestMapRecordUnknownSentimentDropped(t *testing.T) {
	rec := csvRecord(
		"Contact ID", "c1",
		"Survey ID", "s1",
		"Survey Title", "NPS",
		"Open-Ended Sentiment", "ecstatic",
	)
	frag, issues := mapRecord(rec)
	require.NotNil(t, frag.Survey)
	assert.Nil(t, frag.Survey.OpenEndedSentiment)
	require.Len(t, issues, 1)
	assert.Equal(t, "open_ended_sentiment", issues[0].Field)
}

func TestMapRecordPlainTextThemes(t *testing.T) {
	rec := csvRecord(
		"Survey ID", "s1",
		"Survey Title", "NPS",
		"Open-Ended Themes (JSONb)", "pricing, support",
	)
	frag, issues := mapRecord(rec)
	assert.Empty(t, issues)
	assert.Equal(t, []string{"pricing", "support"}, frag.Survey.OpenEndedThemes.Labels())
}

func TestMapRecordBrokenThemesAndEmotionsAreAbsent(t *testing.T) {
	rec := csvRecord(
		"Survey ID", "s1",
		"Survey Title", "NPS",
		"Open-Ended Themes (JSONb)", `["speed", "friendl`,
		"Open-Ended Emotions (JSONb)", `{"joy": `,
	)
	frag, issues := mapRecord(rec)
	require.NotNil(t, frag.Survey)
	assert.True(t, frag.Survey.OpenEndedThemes.IsNull())
	assert.True(t, frag.Survey.OpenEndedEmotions.IsNull())

	require.Len(t, issues, 2)
	assert.Equal(t, "open_ended_themes", issues[0].Field)
	assert.Equal(t, "open_ended_emotions", issues[1].Field)
	assert.Equal(t, "survey", issues[0].Entity)
}

func TestParseTimestampLayouts(t *testing.T) {
	want := time.Date(2024, 2, 3, 0, 0, 0, 0, time.UTC)
	for _, in := range []string{"2024-02-03", "02/03/2024", "2/3/2024", "2024-02-03T00:00:00Z"} {
		got, err := parseTimestamp(models.String(in))
		require.NoError(t, err, in)
		assert.True(t, want.Equal(got), in)
	}

	got, err := parseTimestamp(models.Number("1706918400"))
	require.NoError(t, err)
	assert.True(t, want.Equal(got))

	got, err = parseTimestamp(models.Number("1706918400000"))
	require.NoError(t, err)
	assert.True(t, want.Equal(got))

	_, err = parseTimestamp(models.String("next tuesday"))
	assert.Error(t, err)

	for _, year := range []models.Value{models.String("2024"), models.Number("2024")} {
		_, err = parseTimestamp(year)
		assert.Error(t, err, year.Text())
	}
}

func TestSourceRecordFirstNonEmptyAliasWins(t *testing.T) {
	rec := csvRecord("Contact ID", "", "id", "fallback")
	assert.Equal(t, "fallback", rec.text(fieldContactID))

	rec = csvRecord("contact_id", "primary", "id", "secondary")
	assert.Equal(t, "primary", rec.text(fieldContactID))
}

func TestIssueString(t *testing.T) {
	assert.Equal(t, "record 3: survey s1 channel: required",
		Issue{Record: 3, Entity: "survey", ID: "s1", Field: "channel", Reason: "required"}.String())
	assert.Equal(t, "record 0: bad row", Issue{Reason: "bad row"}.String())
}
