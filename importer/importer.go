// ABOUTME: Batch importer driving parse, map, resolve, link, validate and persist
// ABOUTME: Produces a report with created entities and per-record errors
package importer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/harperreed/cxboard/db"
	"github.com/harperreed/cxboard/models"
)

// DefaultMaxBytes is the upload size limit applied when Options.MaxBytes is zero.
const DefaultMaxBytes int64 = 10 << 20

// Store is the storage the importer writes to.
type Store interface {
	GetContact(ctx context.Context, id string) (*models.Contact, error)
	CreateContact(ctx context.Context, contact *models.Contact) error
	CreateActivity(ctx context.Context, activity *models.Activity) error
	UpsertSurvey(ctx context.Context, survey *models.Survey) error
}

type Options struct {
	// Atomic runs the persist phase in one transaction when the store
	// supports it. Any write failure then rolls back the whole batch.
	Atomic bool
	// DefaultDirectory is used for contacts whose source has no directory.
	DefaultDirectory string
	MaxBytes         int64
	Logger           logrus.FieldLogger
	Now              func() time.Time
	NewID            func() string
}

type Importer struct {
	store Store
	opts  Options
	log   logrus.FieldLogger
}

func New(store Store, opts Options) *Importer {
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = DefaultMaxBytes
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Importer{store: store, opts: opts, log: log}
}

// MaxBytes is the largest file the importer accepts.
func (i *Importer) MaxBytes() int64 { return i.opts.MaxBytes }

// ImportFile imports a file from disk, rejecting it before reading when it is
// over the size limit.
func (i *Importer) ImportFile(ctx context.Context, path string) (*Report, error) {
	if _, err := DetectFormat(path); err != nil {
		return nil, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat import file: %w", err)
	}
	if info.Size() > i.opts.MaxBytes {
		return nil, fmt.Errorf("%w: %d bytes (limit %d)", ErrFileTooLarge, info.Size(), i.opts.MaxBytes)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open import file: %w", err)
	}
	defer f.Close()
	return i.Import(ctx, f, path)
}

func (i *Importer) ImportBytes(ctx context.Context, data []byte, fileName string) (*Report, error) {
	if int64(len(data)) > i.opts.MaxBytes {
		return nil, fmt.Errorf("%w: %d bytes (limit %d)", ErrFileTooLarge, len(data), i.opts.MaxBytes)
	}
	return i.Import(ctx, bytes.NewReader(data), fileName)
}

// Import reads one CSV or JSON document and persists what it can. A non-nil
// error means the batch as a whole failed; record-level problems are listed
// in the report instead.
func (i *Importer) Import(ctx context.Context, r io.Reader, fileName string) (*Report, error) {
	format, err := DetectFormat(fileName)
	if err != nil {
		importBatches.WithLabelValues("unknown", "unsupported").Inc()
		return nil, err
	}

	start := time.Now()
	defer func() {
		importDuration.WithLabelValues(format).Observe(time.Since(start).Seconds())
	}()

	b := &batch{
		Importer: i,
		report:   newReport(uuid.New().String(), format),
		resolver: newIdentityResolver(i.opts.NewID),
		contacts: make(map[string]contactState),
		owners:   make(map[string]string),
		origin:   make(map[string]int),
	}
	b.log = i.log.WithFields(logrus.Fields{"run_id": b.report.RunID, "file": fileName, "format": format})
	b.stage(StageReceived)

	b.stage(StageParsing)
	read := readCSV
	if format == FormatJSON {
		read = readJSON
	}
	err = read(r, func(rec *sourceRecord, bad *Issue) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		return b.record(ctx, rec, bad)
	})
	if err != nil {
		var ferr *FormatError
		if errors.As(err, &ferr) {
			b.stage(StageParseFailed)
			b.log.WithError(err).Warn("import rejected")
			importBatches.WithLabelValues(format, "format_error").Inc()
			return nil, err
		}
		importBatches.WithLabelValues(format, "error").Inc()
		return nil, err
	}
	b.stage(StageParsed)

	b.stage(StagePersisting)
	if err := b.persist(ctx); err != nil {
		b.log.WithError(err).Error("import persistence failed")
		importBatches.WithLabelValues(format, "persist_error").Inc()
		return nil, err
	}

	b.report.finish()
	b.log.WithFields(logrus.Fields{
		"records":    b.report.Records,
		"contacts":   b.report.Imported.Contacts,
		"activities": b.report.Imported.Activities,
		"surveys":    b.report.Imported.Surveys,
		"skipped":    b.report.Skipped,
	}).Info("import completed")
	observeReport(b.report)
	importBatches.WithLabelValues(format, "ok").Inc()
	return b.report, nil
}

type contactState int

const (
	contactNew contactState = iota + 1
	contactExisting
	contactRejected
)

// batch is the state of one import call.
type batch struct {
	*Importer
	log      logrus.FieldLogger
	report   *Report
	resolver *identityResolver

	contacts   map[string]contactState
	newContact []*models.Contact
	activities []*models.Activity
	// owners maps accepted activity ids to their contact id.
	owners map[string]string
	// origin maps "entity:id" to the source record that produced it.
	origin map[string]int
}

func (b *batch) stage(s Stage) {
	b.report.Stage = s
	b.log.WithField("stage", s).Debug("import stage")
}

func (b *batch) skip(issue Issue) {
	b.log.WithFields(logrus.Fields{
		"record": issue.Record,
		"entity": issue.Entity,
		"id":     issue.ID,
		"field":  issue.Field,
	}).Warn(issue.Reason)
	b.report.skip(issue)
}

// record runs one source record through map, resolve, link and validate.
func (b *batch) record(ctx context.Context, rec *sourceRecord, bad *Issue) error {
	if rec != nil && rec.blank() {
		return nil
	}
	b.report.Records++
	if bad != nil {
		b.skip(*bad)
		return nil
	}

	frag, warnings := mapRecord(rec)
	for _, w := range warnings {
		b.log.WithFields(logrus.Fields{"record": w.Record, "entity": w.Entity, "field": w.Field}).Warn(w.Reason)
		b.report.Warnings = append(b.report.Warnings, w)
	}

	contact, first := b.resolver.resolveContact(frag.Contact)
	frag.Contact = contact
	if first {
		if err := b.admitContact(ctx, frag.Record, contact); err != nil {
			return err
		}
	}
	if frag.Activity != nil {
		b.resolver.assignActivityID(frag.Activity)
	}
	link(&frag)

	if frag.Activity != nil {
		b.acceptActivity(frag.Record, frag.Activity)
	}
	if frag.Survey != nil {
		b.acceptSurvey(frag.Record, frag.Survey)
	}
	return nil
}

// admitContact classifies the first occurrence of a contact id. Contacts that
// already exist in storage are used as parents but never rewritten.
func (b *batch) admitContact(ctx context.Context, record int, c *models.Contact) error {
	if c.Directory == "" && b.opts.DefaultDirectory != "" {
		c.Directory = b.opts.DefaultDirectory
	}
	if c.DirectoryFields == nil {
		c.DirectoryFields = models.NewFields()
	}

	_, err := b.store.GetContact(ctx, c.ID)
	switch {
	case err == nil:
		b.contacts[c.ID] = contactExisting
		b.log.WithField("contact_id", c.ID).Debug("contact already stored")
		return nil
	case !errors.Is(err, db.ErrNotFound):
		return &PersistError{Entity: "contact", ID: c.ID, Err: err}
	}

	if err := models.Validate("contact", c); err != nil {
		b.contacts[c.ID] = contactRejected
		b.skip(Issue{Record: record, Entity: "contact", ID: c.ID, Reason: err.Error()})
		return nil
	}
	b.contacts[c.ID] = contactNew
	b.newContact = append(b.newContact, c)
	b.origin["contact:"+c.ID] = record
	return nil
}

func (b *batch) parentAccepted(contactID string) bool {
	state := b.contacts[contactID]
	return state == contactNew || state == contactExisting
}

func (b *batch) acceptActivity(record int, a *models.Activity) {
	if err := models.Validate("activity", a); err != nil {
		b.skip(Issue{Record: record, Entity: "activity", ID: a.ID, Reason: err.Error()})
		return
	}
	if !b.parentAccepted(a.ContactID) {
		b.skip(Issue{Record: record, Entity: "activity", ID: a.ID, Field: "contactId",
			Reason: fmt.Sprintf("contact %s was not accepted", a.ContactID)})
		return
	}
	b.activities = append(b.activities, a)
	b.owners[a.ID] = a.ContactID
	b.origin["activity:"+a.ID] = record
}

func (b *batch) acceptSurvey(record int, s *models.Survey) {
	if s.SentAt.IsZero() {
		s.SentAt = b.opts.Now().UTC()
	}
	if err := models.Validate("survey", s); err != nil {
		b.skip(Issue{Record: record, Entity: "survey", ID: s.ID, Reason: err.Error()})
		return
	}
	if !b.parentAccepted(s.ContactID) {
		b.skip(Issue{Record: record, Entity: "survey", ID: s.ID, Field: "contactId",
			Reason: fmt.Sprintf("contact %s was not accepted", s.ContactID)})
		return
	}
	if s.ActivityID != nil {
		owner, ok := b.owners[*s.ActivityID]
		if !ok {
			b.skip(Issue{Record: record, Entity: "survey", ID: s.ID, Field: "activityId",
				Reason: fmt.Sprintf("activity %s was not accepted", *s.ActivityID)})
			return
		}
		if owner != s.ContactID {
			b.skip(Issue{Record: record, Entity: "survey", ID: s.ID, Field: "activityId",
				Reason: fmt.Sprintf("activity %s belongs to contact %s", *s.ActivityID, owner)})
			return
		}
	}
	b.origin["survey:"+s.ID] = record
	if b.resolver.acceptSurvey(s) {
		b.log.WithFields(logrus.Fields{"record": record, "survey_id": s.ID}).Info("survey id repeated in batch, replacing earlier entry")
	}
}

// persist writes contacts, then activities, then surveys.
func (b *batch) persist(ctx context.Context) error {
	if b.opts.Atomic {
		if tx, ok := b.store.(db.Transactor); ok {
			var written *persisted
			err := tx.WithTx(ctx, func(txStore db.Store) error {
				var err error
				written, err = b.write(ctx, txStore, true)
				return err
			})
			if err != nil {
				return err
			}
			b.apply(written)
			return nil
		}
		b.log.Warn("store does not support transactions, importing without atomicity")
	}
	written, err := b.write(ctx, b.store, false)
	if err != nil {
		return err
	}
	b.apply(written)
	return nil
}

type persisted struct {
	contacts   []models.Contact
	activities []models.Activity
	surveys    []models.Survey
	issues     []Issue
}

// write performs the create calls. In atomic mode the first failure aborts;
// otherwise each failure is recorded and dependent children are skipped.
func (b *batch) write(ctx context.Context, store Store, atomic bool) (*persisted, error) {
	out := &persisted{}
	now := b.opts.Now().UTC()

	stored := make(map[string]bool, len(b.contacts))
	for id, state := range b.contacts {
		if state == contactExisting {
			stored[id] = true
		}
	}
	issue := func(entity, id, reason string) {
		out.issues = append(out.issues, Issue{
			Record: b.origin[entity+":"+id],
			Entity: entity,
			ID:     id,
			Reason: reason,
		})
	}
	fail := func(entity, id string, err error) error {
		if atomic {
			return &PersistError{Entity: entity, ID: id, Err: err}
		}
		issue(entity, id, err.Error())
		return nil
	}

	for _, c := range b.newContact {
		c.CreatedAt, c.UpdatedAt = now, now
		if err := store.CreateContact(ctx, c); err != nil {
			if ferr := fail("contact", c.ID, err); ferr != nil {
				return nil, ferr
			}
			continue
		}
		stored[c.ID] = true
		out.contacts = append(out.contacts, *c)
	}

	storedActivities := make(map[string]bool, len(b.activities))
	for _, a := range b.activities {
		if !stored[a.ContactID] {
			issue("activity", a.ID, fmt.Sprintf("contact %s was not persisted", a.ContactID))
			continue
		}
		a.CreatedAt = now
		if err := store.CreateActivity(ctx, a); err != nil {
			if ferr := fail("activity", a.ID, err); ferr != nil {
				return nil, ferr
			}
			continue
		}
		storedActivities[a.ID] = true
		out.activities = append(out.activities, *a)
	}

	for _, s := range b.resolver.acceptedSurveys() {
		if !stored[s.ContactID] {
			issue("survey", s.ID, fmt.Sprintf("contact %s was not persisted", s.ContactID))
			continue
		}
		if s.ActivityID != nil && !storedActivities[*s.ActivityID] {
			issue("survey", s.ID, fmt.Sprintf("activity %s was not persisted", *s.ActivityID))
			continue
		}
		s.CreatedAt = now
		if err := store.UpsertSurvey(ctx, s); err != nil {
			if ferr := fail("survey", s.ID, err); ferr != nil {
				return nil, ferr
			}
			continue
		}
		out.surveys = append(out.surveys, *s)
	}
	return out, nil
}

func (b *batch) apply(p *persisted) {
	b.report.Contacts = append(b.report.Contacts, p.contacts...)
	b.report.Activities = append(b.report.Activities, p.activities...)
	b.report.Surveys = append(b.report.Surveys, p.surveys...)
	for _, issue := range p.issues {
		b.skip(issue)
	}
}
