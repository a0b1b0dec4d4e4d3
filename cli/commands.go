// ABOUTME: Data subcommands: import, contacts, show, clear and version
// ABOUTME: Thin wrappers that open the store and print through the renderers
package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/harperreed/cxboard/db"
	"github.com/harperreed/cxboard/insights"
	"github.com/harperreed/cxboard/timefilter"
)

func (a *app) newImportCmd() *cobra.Command {
	var atomic bool
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import a CSV or JSON export of contacts, activities and surveys",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("atomic") {
				a.cfg.Import.Atomic = atomic
			}
			return a.withStore(cmd, func(ctx context.Context, store db.Store) error {
				report, err := a.newImporter(store).ImportFile(ctx, args[0])
				if err != nil {
					return err
				}
				_, err = fmt.Fprint(cmd.OutOrStdout(), renderReport(report))
				return err
			})
		},
	}
	cmd.Flags().BoolVar(&atomic, "atomic", false, "roll back the whole file when any write fails")
	return cmd
}

func (a *app) newContactsCmd() *cobra.Command {
	var query, directory string
	var limit int
	cmd := &cobra.Command{
		Use:   "contacts",
		Short: "List contacts, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withStore(cmd, func(ctx context.Context, store db.Store) error {
				contacts, err := store.ListContacts(ctx)
				if err != nil {
					return fmt.Errorf("failed to list contacts: %w", err)
				}
				contacts = db.FilterContacts(contacts, query, directory)
				if len(contacts) == 0 {
					_, err := fmt.Fprintln(cmd.OutOrStdout(), "No contacts found")
					return err
				}
				if limit > 0 && len(contacts) > limit {
					contacts = contacts[:limit]
				}
				return writeContactTable(cmd.OutOrStdout(), contacts)
			})
		},
	}
	cmd.Flags().StringVarP(&query, "query", "q", "", "fuzzy search over id, name, email, company and directory")
	cmd.Flags().StringVar(&directory, "directory", "", "only contacts in this directory")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum results (0 for all)")
	return cmd
}

func (a *app) newShowCmd() *cobra.Command {
	var kind, rng, start, end string
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a contact with its activities, surveys, notes and insights",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := timefilter.Parse(kind, rng, start, end)
			if err != nil {
				return err
			}
			return a.withStore(cmd, func(ctx context.Context, store db.Store) error {
				view, err := insights.Load(ctx, store, args[0], filter.Window(time.Now()))
				if err != nil {
					if errors.Is(err, db.ErrNotFound) {
						return fmt.Errorf("contact %s not found", args[0])
					}
					return err
				}
				_, err = fmt.Fprint(cmd.OutOrStdout(), renderContact(view))
				return err
			})
		},
	}
	cmd.Flags().StringVar(&kind, "filter", "", "time filter kind: fixed, rolling or custom")
	cmd.Flags().StringVar(&rng, "range", "", "range name, e.g. this_month or last_30_days")
	cmd.Flags().StringVar(&start, "start", "", "custom range start (RFC3339 or YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "end", "", "custom range end (RFC3339 or YYYY-MM-DD)")
	return cmd
}

func (a *app) newClearCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every contact with its activities, surveys and notes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return errors.New("refusing to delete everything without --yes")
			}
			return a.withStore(cmd, func(ctx context.Context, store db.Store) error {
				before, err := store.Counts(ctx)
				if err != nil {
					return err
				}
				if err := store.DeleteAll(ctx); err != nil {
					return fmt.Errorf("failed to delete contacts: %w", err)
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "✓ Deleted %d contacts, %d activities, %d surveys and %d notes\n",
					before.Contacts, before.Activities, before.Surveys, before.Notes)
				return err
			})
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm deletion")
	return cmd
}

func (a *app) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		// Skips config loading so version works with a broken config.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "cxboard version %s\n", a.version)
			return err
		},
	}
}
