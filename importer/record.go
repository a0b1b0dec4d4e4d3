// ABOUTME: Source record representation shared by the CSV and JSON readers
// ABOUTME: Holds one row or object keyed by normalized field name
package importer

import (
	"strings"

	"github.com/harperreed/cxboard/models"
)

// sourceRecord is one CSV row or one JSON object.
type sourceRecord struct {
	index  int
	values map[string]models.Value
}

func newSourceRecord(index int) *sourceRecord {
	return &sourceRecord{index: index, values: make(map[string]models.Value)}
}

// put stores v under the normalized form of name. When two source names
// normalize to the same key, the first non-empty value is kept.
func (r *sourceRecord) put(name string, v models.Value) {
	key := normalizeKey(name)
	if key == "" {
		return
	}
	if existing, ok := r.values[key]; ok && !isEmpty(existing) {
		return
	}
	r.values[key] = v
}

// lookup returns the first non-empty value among f's aliases.
func (r *sourceRecord) lookup(f field) (models.Value, bool) {
	for _, alias := range fieldAliases[f] {
		if v, ok := r.values[alias]; ok && !isEmpty(v) {
			return v, true
		}
	}
	return models.Null(), false
}

// text returns the trimmed text of f, or "" when absent.
func (r *sourceRecord) text(f field) string {
	v, ok := r.lookup(f)
	if !ok {
		return ""
	}
	return strings.TrimSpace(v.Text())
}

// blank reports whether every value in the record is empty.
func (r *sourceRecord) blank() bool {
	for _, v := range r.values {
		if !isEmpty(v) {
			return false
		}
	}
	return true
}

func isEmpty(v models.Value) bool {
	switch v.Kind() {
	case models.KindNull:
		return true
	case models.KindString:
		s, _ := v.AsString()
		return strings.TrimSpace(s) == ""
	}
	return false
}

func recordFromCSV(index int, header, row []string) *sourceRecord {
	rec := newSourceRecord(index)
	for i, name := range header {
		if i >= len(row) {
			break
		}
		rec.put(name, models.String(row[i]))
	}
	return rec
}

func recordFromObject(index int, obj *models.Fields) *sourceRecord {
	rec := newSourceRecord(index)
	for _, k := range obj.Keys() {
		v, _ := obj.Get(k)
		rec.put(k, v)
	}
	return rec
}
