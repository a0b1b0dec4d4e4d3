// ABOUTME: Format-specific readers that stream source records from CSV and JSON input
// ABOUTME: Separates document-level format errors from per-record problems
package importer

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/harperreed/cxboard/models"
)

const (
	FormatCSV  = "csv"
	FormatJSON = "json"
)

// DetectFormat maps a file name to an import format by extension.
func DetectFormat(fileName string) (string, error) {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".csv":
		return FormatCSV, nil
	case ".json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(fileName))
}

// recordFunc receives each source record in order. Exactly one of rec and
// bad is non-nil; bad describes a record that could not be read.
type recordFunc func(rec *sourceRecord, bad *Issue) error

func stripUTF8BOM(r *bufio.Reader) *bufio.Reader {
	b, err := r.Peek(3)
	if err == nil && len(b) == 3 && b[0] == 0xEF && b[1] == 0xBB && b[2] == 0xBF {
		_, _ = r.Discard(3)
	}
	return r
}

// readCSV streams data rows one at a time. The first row is the header.
func readCSV(r io.Reader, fn recordFunc) error {
	cr := csv.NewReader(stripUTF8BOM(bufio.NewReader(r)))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = false

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return &FormatError{Format: FormatCSV, Err: errors.New("missing header row")}
		}
		return &FormatError{Format: FormatCSV, Err: err}
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	index := 0
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		index++
		if err != nil {
			var perr *csv.ParseError
			if !errors.As(err, &perr) {
				return fmt.Errorf("read csv: %w", err)
			}
			if err := fn(nil, &Issue{Record: index, Reason: perr.Error()}); err != nil {
				return err
			}
			continue
		}
		if err := fn(recordFromCSV(index, header, row), nil); err != nil {
			return err
		}
	}
}

// readJSON accepts a single object or an array of objects. Any syntax error
// fails the whole document; a non-object array element is reported per record.
func readJSON(r io.Reader, fn recordFunc) error {
	br := bufio.NewReader(r)
	first, err := peekNonSpace(br)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return &FormatError{Format: FormatJSON, Err: errors.New("empty document")}
		}
		return fmt.Errorf("read json: %w", err)
	}

	dec := json.NewDecoder(br)
	dec.UseNumber()

	switch first {
	case '{':
		v, err := models.DecodeValue(dec)
		if err != nil {
			return &FormatError{Format: FormatJSON, Err: err}
		}
		if err := expectEOF(dec); err != nil {
			return err
		}
		return fn(recordFromObject(1, v.Fields()), nil)
	case '[':
		if _, err := dec.Token(); err != nil {
			return &FormatError{Format: FormatJSON, Err: err}
		}
		index := 0
		for dec.More() {
			index++
			v, err := models.DecodeValue(dec)
			if err != nil {
				return &FormatError{Format: FormatJSON, Err: err}
			}
			if v.Kind() != models.KindObject {
				bad := &Issue{Record: index, Reason: fmt.Sprintf("expected a JSON object, got %s", v.Kind())}
				if err := fn(nil, bad); err != nil {
					return err
				}
				continue
			}
			if err := fn(recordFromObject(index, v.Fields()), nil); err != nil {
				return err
			}
		}
		if _, err := dec.Token(); err != nil {
			return &FormatError{Format: FormatJSON, Err: err}
		}
		return expectEOF(dec)
	}
	return &FormatError{Format: FormatJSON, Err: fmt.Errorf("expected an object or array, found %q", first)}
}

func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		case 0xEF:
			// UTF-8 byte order mark; anything else starting with 0xEF is not JSON.
			if rest, err := br.Peek(2); err == nil && rest[0] == 0xBB && rest[1] == 0xBF {
				_, _ = br.Discard(2)
				continue
			}
			return b, nil
		}
		return b, br.UnreadByte()
	}
}

func expectEOF(dec *json.Decoder) error {
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return &FormatError{Format: FormatJSON, Err: errors.New("unexpected data after document")}
	}
	return nil
}
