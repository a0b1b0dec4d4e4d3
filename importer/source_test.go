// ABOUTME: Tests for format detection and the CSV and JSON record readers
// ABOUTME: Collects records through the callback without touching storage
package importer

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type collected struct {
	records []*sourceRecord
	bad     []Issue
}

func (c *collected) fn(rec *sourceRecord, bad *Issue) error {
	if bad != nil {
		c.bad = append(c.bad, *bad)
		return nil
	}
	c.records = append(c.records, rec)
	return nil
}

func TestDetectFormat(t *testing.T) {
	for name, want := range map[string]string{
		"a.csv":         FormatCSV,
		"EXPORT.CSV":    FormatCSV,
		"dir/data.json": FormatJSON,
		"data.Json":     FormatJSON,
	} {
		got, err := DetectFormat(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}

	for _, name := range []string{"a.txt", "noext", "a.xlsx", "csv"} {
		_, err := DetectFormat(name)
		assert.ErrorIs(t, err, ErrUnsupportedFormat, name)
	}
}

func TestReadCSVHeaderAndIndexes(t *testing.T) {
	var c collected
	data := "\xEF\xBB\xBF Contact ID , Directory\nc1,Retail\nc2\n"
	require.NoError(t, readCSV(strings.NewReader(data), c.fn))

	require.Len(t, c.records, 2)
	assert.Equal(t, 1, c.records[0].index)
	assert.Equal(t, "c1", c.records[0].text(fieldContactID))
	assert.Equal(t, "Retail", c.records[0].text(fieldDirectory))
	assert.Equal(t, 2, c.records[1].index)
	assert.Equal(t, "", c.records[1].text(fieldDirectory))
}

func TestReadCSVMissingHeader(t *testing.T) {
	var c collected
	err := readCSV(strings.NewReader(""), c.fn)
	var ferr *FormatError
	require.True(t, errors.As(err, &ferr))
	assert.Equal(t, FormatCSV, ferr.Format)
}

func TestReadJSONArrayAndObject(t *testing.T) {
	var c collected
	require.NoError(t, readJSON(strings.NewReader(` [{"id":"a"}, "x", {"id":"b"}] `), c.fn))
	require.Len(t, c.records, 2)
	assert.Equal(t, 1, c.records[0].index)
	assert.Equal(t, 3, c.records[1].index)
	require.Len(t, c.bad, 1)
	assert.Equal(t, 2, c.bad[0].Record)

	c = collected{}
	require.NoError(t, readJSON(strings.NewReader("\xEF\xBB\xBF{\"id\":\"solo\"}\n"), c.fn))
	require.Len(t, c.records, 1)
	assert.Equal(t, "solo", c.records[0].text(fieldContactID))
}

func TestReadJSONRejectsTrailingData(t *testing.T) {
	var c collected
	err := readJSON(strings.NewReader(`{"id":"a"} {"id":"b"}`), c.fn)
	var ferr *FormatError
	assert.True(t, errors.As(err, &ferr))
	assert.Empty(t, c.records)
}

func TestReadJSONStopsOnCallbackError(t *testing.T) {
	stop := errors.New("stop")
	calls := 0
	err := readJSON(strings.NewReader(`[{"id":"a"},{"id":"b"}]`), func(*sourceRecord, *Issue) error {
		calls++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)
}
