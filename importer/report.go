// ABOUTME: Import report and pipeline stages
// ABOUTME: Carries created entities, counts, and per-record errors back to the caller
package importer

import (
	"fmt"

	"github.com/harperreed/cxboard/models"
)

// Stage is a step of the import state machine.
type Stage string

const (
	StageReceived    Stage = "received"
	StageParsing     Stage = "parsing"
	StageParseFailed Stage = "parse_failed"
	StageParsed      Stage = "parsed"
	StagePersisting  Stage = "persisting"
	StageReported    Stage = "reported"
)

// Counts is the number of entities created by one import.
type Counts struct {
	Contacts   int `json:"contacts"`
	Activities int `json:"activities"`
	Surveys    int `json:"surveys"`
}

// Report describes the outcome of one import. Errors lists every fragment
// that was skipped; Warnings lists fields that were dropped during mapping.
type Report struct {
	RunID      string            `json:"runId"`
	Message    string            `json:"message"`
	Format     string            `json:"format"`
	Stage      Stage             `json:"stage"`
	Imported   Counts            `json:"imported"`
	Contacts   []models.Contact  `json:"contacts"`
	Activities []models.Activity `json:"activities"`
	Surveys    []models.Survey   `json:"surveys"`
	Records    int               `json:"records"`
	Skipped    int               `json:"skipped"`
	Errors     []Issue           `json:"errors"`
	Warnings   []Issue           `json:"warnings"`
}

func newReport(runID, format string) *Report {
	return &Report{
		RunID:      runID,
		Format:     format,
		Stage:      StageReceived,
		Contacts:   []models.Contact{},
		Activities: []models.Activity{},
		Surveys:    []models.Survey{},
		Errors:     []Issue{},
		Warnings:   []Issue{},
	}
}

func (r *Report) skip(issue Issue) {
	r.Skipped++
	r.Errors = append(r.Errors, issue)
}

func (r *Report) finish() {
	r.Imported = Counts{
		Contacts:   len(r.Contacts),
		Activities: len(r.Activities),
		Surveys:    len(r.Surveys),
	}
	r.Message = fmt.Sprintf("Imported %d contacts, %d activities and %d surveys from %d records",
		r.Imported.Contacts, r.Imported.Activities, r.Imported.Surveys, r.Records)
	if r.Skipped > 0 {
		r.Message += fmt.Sprintf(" (%d skipped)", r.Skipped)
	}
	r.Stage = StageReported
}
