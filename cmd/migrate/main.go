// ABOUTME: Storage migration utility moving a SQLite database into PostgreSQL
// ABOUTME: Backs up the SQLite file, applies the Postgres schema and copies every record

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/harperreed/cxboard/db"
	"github.com/harperreed/cxboard/logging"
)

func main() {
	dbPath := flag.String("db", "", "Path to the SQLite database file (required)")
	dsn := flag.String("postgres", os.Getenv("CXBOARD_STORAGE_POSTGRES_DSN"), "PostgreSQL DSN (default $CXBOARD_STORAGE_POSTGRES_DSN)")
	dryRun := flag.Bool("dry-run", false, "Show what would be copied without touching PostgreSQL")
	backup := flag.Bool("backup", true, "Create a backup of the SQLite file first")
	logLevel := flag.String("log-level", "info", "Log level")
	flag.Parse()

	log := logging.New(*logLevel, "text")
	if *dbPath == "" {
		log.Fatal("-db flag is required")
	}
	if *dsn == "" && !*dryRun {
		log.Fatal("-postgres flag is required")
	}

	if err := migrate(context.Background(), log, *dbPath, *dsn, *dryRun, *backup); err != nil {
		log.WithError(err).Fatal("migration failed")
	}
	log.Info("migration completed successfully")
}

func migrate(ctx context.Context, log logrus.FieldLogger, dbPath, dsn string, dryRun, createBackup bool) error {
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return fmt.Errorf("database file does not exist: %s", dbPath)
	}

	if createBackup && !dryRun {
		backupPath := fmt.Sprintf("%s.backup.%s", dbPath, time.Now().Format("20060102-150405"))
		input, err := os.ReadFile(dbPath)
		if err != nil {
			return fmt.Errorf("failed to read database: %w", err)
		}
		if err := os.WriteFile(backupPath, input, 0600); err != nil {
			return fmt.Errorf("failed to create backup: %w", err)
		}
		log.WithField("path", backupPath).Info("backup created")
	}

	src, err := db.OpenSQLiteStore(dbPath)
	if err != nil {
		return err
	}
	defer func() { _ = src.Close() }()

	counts, err := src.Counts(ctx)
	if err != nil {
		return fmt.Errorf("failed to count source records: %w", err)
	}
	log.WithFields(logrus.Fields{
		"contacts":   counts.Contacts,
		"activities": counts.Activities,
		"surveys":    counts.Surveys,
		"notes":      counts.Notes,
	}).Info("source database")

	if dryRun {
		log.Info("[DRY RUN] would apply the PostgreSQL schema and copy the records above")
		return nil
	}

	dst, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		return fmt.Errorf("failed to connect to postgres: %w", err)
	}
	defer func() { _ = dst.Close() }()

	// One transaction so a failed copy leaves PostgreSQL untouched.
	return dst.WithTx(ctx, func(tx db.Store) error {
		copied, err := db.Copy(ctx, src, tx)
		if err != nil {
			return err
		}
		log.WithFields(logrus.Fields{
			"contacts":   copied.Contacts,
			"activities": copied.Activities,
			"surveys":    copied.Surveys,
			"notes":      copied.Notes,
		}).Info("records copied")
		return nil
	})
}
