// ABOUTME: SQLite implementation of Store
// ABOUTME: Stores open mappings as JSON text and supports batch transactions
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"

	"github.com/harperreed/cxboard/models"
)

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type SQLiteStore struct {
	db *sql.DB
	q  queryer
	tx bool
}

// NewSQLiteStore wraps an open database and makes sure the schema exists.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	db.SetMaxOpenConns(1)
	if err := InitSchema(db); err != nil {
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &SQLiteStore{db: db, q: db}, nil
}

// OpenSQLiteStore opens (creating if needed) the database file at path.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := OpenDatabase(path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	return &SQLiteStore{db: db, q: db}, nil
}

func (s *SQLiteStore) DB() *sql.DB { return s.db }

func (s *SQLiteStore) Ready(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) Close() error {
	if s.tx {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) WithTx(ctx context.Context, fn func(tx Store) error) error {
	if s.tx {
		return fn(s)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(&SQLiteStore{db: s.db, q: tx, tx: true}); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func sqliteError(err error, entity, id string) error {
	var serr sqlite3.Error
	if errors.As(err, &serr) {
		switch serr.ExtendedCode {
		case sqlite3.ErrConstraintPrimaryKey, sqlite3.ErrConstraintUnique:
			return fmt.Errorf("%s %s: %w", entity, id, ErrAlreadyExists)
		case sqlite3.ErrConstraintForeignKey:
			return fmt.Errorf("%s %s: parent record %w", entity, id, ErrNotFound)
		}
	}
	return fmt.Errorf("%s %s: %w", entity, id, err)
}

func (s *SQLiteStore) CreateContact(ctx context.Context, contact *models.Contact) error {
	if contact.DirectoryFields == nil {
		contact.DirectoryFields = models.NewFields()
	}
	stamp(&contact.CreatedAt, &contact.UpdatedAt)
	fields, err := encodeFields(contact.DirectoryFields)
	if err != nil {
		return err
	}
	_, err = s.q.ExecContext(ctx, `
		INSERT INTO contacts (id, directory, directory_fields, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, contact.ID, contact.Directory, fields, contact.CreatedAt, contact.UpdatedAt)
	if err != nil {
		return sqliteError(err, "contact", contact.ID)
	}
	return nil
}

func (s *SQLiteStore) GetContact(ctx context.Context, id string) (*models.Contact, error) {
	row := s.q.QueryRowContext(ctx, `
		SELECT id, directory, directory_fields, created_at, updated_at
		FROM contacts WHERE id = ?
	`, id)
	contact, err := scanContact(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("contact %s: %w", id, ErrNotFound)
	}
	return contact, err
}

func (s *SQLiteStore) ListContacts(ctx context.Context) ([]models.Contact, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT id, directory, directory_fields, created_at, updated_at
		FROM contacts ORDER BY created_at DESC, rowid DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contacts []models.Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		contacts = append(contacts, *c)
	}
	return contacts, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanContact(row rowScanner) (*models.Contact, error) {
	c := &models.Contact{}
	var fields string
	if err := row.Scan(&c.ID, &c.Directory, &fields, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	f, err := decodeFields(fields)
	if err != nil {
		return nil, fmt.Errorf("contact %s directory_fields: %w", c.ID, err)
	}
	if f == nil {
		f = models.NewFields()
	}
	c.DirectoryFields = f
	return c, nil
}

func (s *SQLiteStore) CreateActivity(ctx context.Context, activity *models.Activity) error {
	stamp(&activity.CreatedAt, nil)
	fields, err := encodeFields(activity.ActivityFields)
	if err != nil {
		return err
	}
	if fields == nil {
		fields = "{}"
	}
	_, err = s.q.ExecContext(ctx, `
		INSERT INTO activities (id, contact_id, activity, activity_fields, activity_upload_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, activity.ID, activity.ContactID, activity.Activity, fields, activity.ActivityUploadDate, activity.CreatedAt)
	if err != nil {
		return sqliteError(err, "activity", activity.ID)
	}
	return nil
}

const activityColumns = `id, contact_id, activity, activity_fields, activity_upload_date, created_at`

func (s *SQLiteStore) GetActivity(ctx context.Context, id string) (*models.Activity, error) {
	row := s.q.QueryRowContext(ctx, `SELECT `+activityColumns+` FROM activities WHERE id = ?`, id)
	a, err := scanActivity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("activity %s: %w", id, ErrNotFound)
	}
	return a, err
}

func (s *SQLiteStore) ListActivities(ctx context.Context, contactID string) ([]models.Activity, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT `+activityColumns+` FROM activities
		WHERE contact_id = ? ORDER BY created_at, rowid
	`, contactID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var activities []models.Activity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		activities = append(activities, *a)
	}
	return activities, rows.Err()
}

func scanActivity(row rowScanner) (*models.Activity, error) {
	a := &models.Activity{}
	var fields string
	var uploaded sql.NullTime
	if err := row.Scan(&a.ID, &a.ContactID, &a.Activity, &fields, &uploaded, &a.CreatedAt); err != nil {
		return nil, err
	}
	f, err := decodeFields(fields)
	if err != nil {
		return nil, fmt.Errorf("activity %s activity_fields: %w", a.ID, err)
	}
	a.ActivityFields = f
	if uploaded.Valid {
		t := uploaded.Time
		a.ActivityUploadDate = &t
	}
	return a, nil
}

// UpsertSurvey inserts a survey or replaces the one with the same id.
func (s *SQLiteStore) UpsertSurvey(ctx context.Context, survey *models.Survey) error {
	stamp(&survey.CreatedAt, nil)
	args, err := surveyArgs(survey)
	if err != nil {
		return err
	}
	_, err = s.q.ExecContext(ctx, `
		INSERT INTO surveys (`+surveyColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			contact_id = excluded.contact_id,
			activity_id = excluded.activity_id,
			survey_title = excluded.survey_title,
			feedback_recipient = excluded.feedback_recipient,
			channel = excluded.channel,
			sent_at = excluded.sent_at,
			language = excluded.language,
			status = excluded.status,
			participation_method = excluded.participation_method,
			participation_date = excluded.participation_date,
			survey_response_link = excluded.survey_response_link,
			metric_scores = excluded.metric_scores,
			driver_scores = excluded.driver_scores,
			open_ended_sentiment = excluded.open_ended_sentiment,
			open_ended_themes = excluded.open_ended_themes,
			open_ended_emotions = excluded.open_ended_emotions
	`, args...)
	if err != nil {
		return sqliteError(err, "survey", survey.ID)
	}
	return nil
}

func (s *SQLiteStore) ListSurveys(ctx context.Context, contactID string) ([]models.Survey, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT `+surveyColumns+` FROM surveys
		WHERE contact_id = ? ORDER BY sent_at, rowid
	`, contactID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var surveys []models.Survey
	for rows.Next() {
		sv, err := scanSurvey(rows)
		if err != nil {
			return nil, err
		}
		surveys = append(surveys, *sv)
	}
	return surveys, rows.Err()
}

func (s *SQLiteStore) CreateNote(ctx context.Context, note *models.Note) error {
	stamp(&note.CreatedAt, nil)
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO notes (id, contact_id, content, author_name, author_initials, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, note.ID, note.ContactID, note.Content, note.AuthorName, note.AuthorInitials, note.CreatedAt)
	if err != nil {
		return sqliteError(err, "note", note.ID)
	}
	return nil
}

func (s *SQLiteStore) ListNotes(ctx context.Context, contactID string) ([]models.Note, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT id, contact_id, content, author_name, author_initials, created_at
		FROM notes WHERE contact_id = ? ORDER BY created_at, rowid
	`, contactID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notes []models.Note
	for rows.Next() {
		var n models.Note
		if err := rows.Scan(&n.ID, &n.ContactID, &n.Content, &n.AuthorName, &n.AuthorInitials, &n.CreatedAt); err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

// DeleteAll removes children explicitly so it works even when foreign keys
// are not enforced on the connection.
func (s *SQLiteStore) DeleteAll(ctx context.Context) error {
	return s.WithTx(ctx, func(tx Store) error {
		q := tx.(*SQLiteStore).q
		for _, table := range []string{"notes", "surveys", "activities", "contacts"} {
			if _, err := q.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return fmt.Errorf("delete %s: %w", table, err)
			}
		}
		return nil
	})
}

func (s *SQLiteStore) Counts(ctx context.Context) (Counts, error) {
	var c Counts
	err := s.q.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM contacts),
			(SELECT COUNT(*) FROM activities),
			(SELECT COUNT(*) FROM surveys),
			(SELECT COUNT(*) FROM notes)
	`).Scan(&c.Contacts, &c.Activities, &c.Surveys, &c.Notes)
	return c, err
}
