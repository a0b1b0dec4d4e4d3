// ABOUTME: PostgreSQL implementation of Store on a pgx connection pool
// ABOUTME: Applies embedded goose migrations and stores open mappings as jsonb
package db

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/harperreed/cxboard/models"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// pgQuerier is satisfied by both *pgxpool.Pool and pgx.Tx.
type pgQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PostgresStore struct {
	pool *pgxpool.Pool
	q    pgQuerier
	tx   bool
}

// ConnectPostgres opens a pool for dsn and brings the schema up to date.
func ConnectPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("pgxpool: %w", err)
	}
	if err := Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &PostgresStore{pool: pool, q: pool}, nil
}

// Migrate applies pending migrations from the embedded migrations directory.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	sub, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return err
	}
	sqlDB := stdlib.OpenDBFromPool(pool)
	defer sqlDB.Close()

	provider, err := goose.NewProvider(goose.DialectPostgres, sqlDB, sub)
	if err != nil {
		return fmt.Errorf("goose provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func (s *PostgresStore) Ready(ctx context.Context) error {
	var one int
	return s.q.QueryRow(ctx, "select 1").Scan(&one)
}

func (s *PostgresStore) Close() error {
	if !s.tx && s.pool != nil {
		s.pool.Close()
	}
	return nil
}

func (s *PostgresStore) WithTx(ctx context.Context, fn func(tx Store) error) error {
	if s.tx {
		return fn(s)
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(&PostgresStore{pool: s.pool, q: tx, tx: true}); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func pgError(err error, entity, id string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return fmt.Errorf("%s %s: %w", entity, id, ErrAlreadyExists)
		case "23503":
			return fmt.Errorf("%s %s: parent record %w", entity, id, ErrNotFound)
		}
	}
	return fmt.Errorf("%s %s: %w", entity, id, err)
}

func (s *PostgresStore) CreateContact(ctx context.Context, contact *models.Contact) error {
	if contact.DirectoryFields == nil {
		contact.DirectoryFields = models.NewFields()
	}
	stamp(&contact.CreatedAt, &contact.UpdatedAt)
	fields, err := encodeFields(contact.DirectoryFields)
	if err != nil {
		return err
	}
	_, err = s.q.Exec(ctx, `
		INSERT INTO contacts (id, directory, directory_fields, created_at, updated_at)
		VALUES ($1, $2, $3::jsonb, $4, $5)
	`, contact.ID, contact.Directory, fields, contact.CreatedAt, contact.UpdatedAt)
	if err != nil {
		return pgError(err, "contact", contact.ID)
	}
	return nil
}

const pgContactColumns = `id, directory, directory_fields::text, created_at, updated_at`

func (s *PostgresStore) GetContact(ctx context.Context, id string) (*models.Contact, error) {
	row := s.q.QueryRow(ctx, `SELECT `+pgContactColumns+` FROM contacts WHERE id = $1`, id)
	c, err := scanContact(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("contact %s: %w", id, ErrNotFound)
	}
	return c, err
}

func (s *PostgresStore) ListContacts(ctx context.Context) ([]models.Contact, error) {
	rows, err := s.q.Query(ctx, `SELECT `+pgContactColumns+` FROM contacts ORDER BY created_at DESC, seq DESC`)
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

func (s *PostgresStore) CreateActivity(ctx context.Context, activity *models.Activity) error {
	stamp(&activity.CreatedAt, nil)
	fields, err := encodeFields(activity.ActivityFields)
	if err != nil {
		return err
	}
	if fields == nil {
		fields = "{}"
	}
	_, err = s.q.Exec(ctx, `
		INSERT INTO activities (id, contact_id, activity, activity_fields, activity_upload_date, created_at)
		VALUES ($1, $2, $3, $4::jsonb, $5, $6)
	`, activity.ID, activity.ContactID, activity.Activity, fields, activity.ActivityUploadDate, activity.CreatedAt)
	if err != nil {
		return pgError(err, "activity", activity.ID)
	}
	return nil
}

const pgActivityColumns = `id, contact_id, activity, activity_fields::text, activity_upload_date, created_at`

func (s *PostgresStore) GetActivity(ctx context.Context, id string) (*models.Activity, error) {
	row := s.q.QueryRow(ctx, `SELECT `+pgActivityColumns+` FROM activities WHERE id = $1`, id)
	a, err := scanActivity(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("activity %s: %w", id, ErrNotFound)
	}
	return a, err
}

func (s *PostgresStore) ListActivities(ctx context.Context, contactID string) ([]models.Activity, error) {
	rows, err := s.q.Query(ctx, `
		SELECT `+pgActivityColumns+` FROM activities
		WHERE contact_id = $1 ORDER BY created_at, seq
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

const pgSurveyColumns = `id, contact_id, activity_id, survey_title, feedback_recipient::text, channel, sent_at,
	language, status, participation_method, participation_date, survey_response_link,
	metric_scores::text, driver_scores::text, open_ended_sentiment, open_ended_themes::text,
	open_ended_emotions::text, created_at`

func (s *PostgresStore) UpsertSurvey(ctx context.Context, survey *models.Survey) error {
	stamp(&survey.CreatedAt, nil)
	args, err := surveyArgs(survey)
	if err != nil {
		return err
	}
	_, err = s.q.Exec(ctx, `
		INSERT INTO surveys (`+surveyColumns+`)
		VALUES ($1, $2, $3, $4, $5::jsonb, $6, $7, $8, $9, $10, $11, $12,
			$13::jsonb, $14::jsonb, $15, $16::jsonb, $17::jsonb, $18)
		ON CONFLICT (id) DO UPDATE SET
			contact_id = EXCLUDED.contact_id,
			activity_id = EXCLUDED.activity_id,
			survey_title = EXCLUDED.survey_title,
			feedback_recipient = EXCLUDED.feedback_recipient,
			channel = EXCLUDED.channel,
			sent_at = EXCLUDED.sent_at,
			language = EXCLUDED.language,
			status = EXCLUDED.status,
			participation_method = EXCLUDED.participation_method,
			participation_date = EXCLUDED.participation_date,
			survey_response_link = EXCLUDED.survey_response_link,
			metric_scores = EXCLUDED.metric_scores,
			driver_scores = EXCLUDED.driver_scores,
			open_ended_sentiment = EXCLUDED.open_ended_sentiment,
			open_ended_themes = EXCLUDED.open_ended_themes,
			open_ended_emotions = EXCLUDED.open_ended_emotions
	`, args...)
	if err != nil {
		return pgError(err, "survey", survey.ID)
	}
	return nil
}

func (s *PostgresStore) ListSurveys(ctx context.Context, contactID string) ([]models.Survey, error) {
	rows, err := s.q.Query(ctx, `
		SELECT `+pgSurveyColumns+` FROM surveys
		WHERE contact_id = $1 ORDER BY sent_at, seq
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

func (s *PostgresStore) CreateNote(ctx context.Context, note *models.Note) error {
	stamp(&note.CreatedAt, nil)
	_, err := s.q.Exec(ctx, `
		INSERT INTO notes (id, contact_id, content, author_name, author_initials, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, note.ID, note.ContactID, note.Content, note.AuthorName, note.AuthorInitials, note.CreatedAt)
	if err != nil {
		return pgError(err, "note", note.ID)
	}
	return nil
}

func (s *PostgresStore) ListNotes(ctx context.Context, contactID string) ([]models.Note, error) {
	rows, err := s.q.Query(ctx, `
		SELECT id, contact_id, content, author_name, author_initials, created_at
		FROM notes WHERE contact_id = $1 ORDER BY created_at, seq
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

// DeleteAll relies on ON DELETE CASCADE from contacts.
func (s *PostgresStore) DeleteAll(ctx context.Context) error {
	if _, err := s.q.Exec(ctx, `DELETE FROM contacts`); err != nil {
		return fmt.Errorf("delete contacts: %w", err)
	}
	return nil
}

func (s *PostgresStore) Counts(ctx context.Context) (Counts, error) {
	var c Counts
	err := s.q.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM contacts),
			(SELECT COUNT(*) FROM activities),
			(SELECT COUNT(*) FROM surveys),
			(SELECT COUNT(*) FROM notes)
	`).Scan(&c.Contacts, &c.Activities, &c.Surveys, &c.Notes)
	return c, err
}
