// ABOUTME: Database schema definitions for the SQLite backend
// ABOUTME: Creates contact, activity, survey and note tables with cascading foreign keys
package db

import (
	"database/sql"
)

const schema = `
PRAGMA foreign_keys = ON;

CREATE TABLE IF NOT EXISTS contacts (
	id TEXT PRIMARY KEY,
	directory TEXT NOT NULL,
	directory_fields TEXT NOT NULL DEFAULT '{}',
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_contacts_directory ON contacts(directory);
CREATE INDEX IF NOT EXISTS idx_contacts_created_at ON contacts(created_at DESC);

CREATE TABLE IF NOT EXISTS activities (
	id TEXT PRIMARY KEY,
	contact_id TEXT NOT NULL,
	activity TEXT NOT NULL,
	activity_fields TEXT NOT NULL DEFAULT '{}',
	activity_upload_date DATETIME,
	created_at DATETIME NOT NULL,
	FOREIGN KEY (contact_id) REFERENCES contacts(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_activities_contact_id ON activities(contact_id);

CREATE TABLE IF NOT EXISTS surveys (
	id TEXT PRIMARY KEY,
	contact_id TEXT NOT NULL,
	activity_id TEXT,
	survey_title TEXT NOT NULL,
	feedback_recipient TEXT,
	channel TEXT NOT NULL,
	sent_at DATETIME NOT NULL,
	language TEXT NOT NULL DEFAULT 'English',
	status TEXT NOT NULL,
	participation_method TEXT,
	participation_date DATETIME,
	survey_response_link TEXT,
	metric_scores TEXT,
	driver_scores TEXT,
	open_ended_sentiment TEXT CHECK(open_ended_sentiment IN ('positive', 'neutral', 'negative')),
	open_ended_themes TEXT,
	open_ended_emotions TEXT,
	created_at DATETIME NOT NULL,
	FOREIGN KEY (contact_id) REFERENCES contacts(id) ON DELETE CASCADE,
	FOREIGN KEY (activity_id) REFERENCES activities(id) ON DELETE SET NULL
);

CREATE INDEX IF NOT EXISTS idx_surveys_contact_id ON surveys(contact_id);
CREATE INDEX IF NOT EXISTS idx_surveys_activity_id ON surveys(activity_id);

CREATE TABLE IF NOT EXISTS notes (
	id TEXT PRIMARY KEY,
	contact_id TEXT NOT NULL,
	content TEXT NOT NULL,
	author_name TEXT NOT NULL,
	author_initials TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	FOREIGN KEY (contact_id) REFERENCES contacts(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_notes_contact_id ON notes(contact_id);
`

func InitSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
