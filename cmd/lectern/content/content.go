package contentcmder

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lecternlabs/lectern/cmd/lectern/sqlitepath"
	"github.com/lecternlabs/lectern/pkg/store"
	"github.com/lecternlabs/lectern/pkg/summary"
)

const contentLongDesc string = `Inspect the local lectern content database.

Records are content-addressed (SHA-256 of kind and text), so the
same lecture stored twice occupies a single record. Summary records
carry all five knowledge levels; pick one with --level.

Examples:
  lectern content list
  lectern content show 9f86d081 --level 2
  lectern content rm 9f86d081`

const contentShortDesc string = "Inspect stored transcripts and summaries"

type contentCommander struct {
	sqlitePath string
	level      int
}

func NewContentCmd() *cobra.Command {
	cmder := &contentCommander{}

	cmd := &cobra.Command{
		Use:   "content",
		Short: contentShortDesc,
		Long:  contentLongDesc,
	}

	cmd.PersistentFlags().StringVarP(&cmder.sqlitePath, "sqlite", "s", "", "Path to local SQLite database")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List stored records, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.runList(cmd.Context(), cmd)
		},
	}

	showCmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Print a record's text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.runShow(cmd.Context(), cmd, args[0])
		},
	}
	showCmd.Flags().IntVar(&cmder.level, "level", -1, "Summary level to print (0-4, default: the full record)")

	rmCmd := &cobra.Command{
		Use:   "rm <id>",
		Short: "Remove a record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.runRemove(cmd.Context(), cmd, args[0])
		},
	}

	cmd.AddCommand(listCmd, showCmd, rmCmd)
	return cmd
}

func (c *contentCommander) openStore() (store.Storer, error) {
	dbPath, err := sqlitepath.ResolveSQLitePath(c.sqlitePath)
	if err != nil {
		return nil, fmt.Errorf("could not resolve local database: %w", err)
	}
	storer, err := store.NewSQLiteStorer(dbPath)
	if err != nil {
		return nil, fmt.Errorf("could not open local database %s: %w", dbPath, err)
	}
	return storer, nil
}

func (c *contentCommander) runList(ctx context.Context, cmd *cobra.Command) error {
	storer, err := c.openStore()
	if err != nil {
		return err
	}
	defer storer.Close()

	records, err := storer.List(ctx)
	if err != nil {
		return fmt.Errorf("could not list records: %w", err)
	}

	if len(records) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No stored content.")
		return nil
	}

	for _, rec := range records {
		title := rec.Title
		if title == "" {
			title = "(untitled)"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s  %-10s  %s  %s\n",
			rec.ID[:12], rec.Kind, rec.CreatedAt.Format("2006-01-02 15:04"), title)
	}
	return nil
}

func (c *contentCommander) runShow(ctx context.Context, cmd *cobra.Command, id string) error {
	storer, err := c.openStore()
	if err != nil {
		return err
	}
	defer storer.Close()

	rec, err := getByPrefix(ctx, storer, id)
	if err != nil {
		return err
	}

	if c.level >= 0 {
		level := summary.Level(c.level)
		if !level.Valid() {
			return fmt.Errorf("level must be between 0 and %d", summary.NumLevels-1)
		}
		if rec.Levels == nil {
			return fmt.Errorf("record %s has no summary levels", id)
		}
		fmt.Fprintln(cmd.OutOrStdout(), rec.Levels[level])
		return nil
	}

	fmt.Fprintln(cmd.OutOrStdout(), rec.Text)
	return nil
}

func (c *contentCommander) runRemove(ctx context.Context, cmd *cobra.Command, id string) error {
	storer, err := c.openStore()
	if err != nil {
		return err
	}
	defer storer.Close()

	rec, err := getByPrefix(ctx, storer, id)
	if err != nil {
		return err
	}
	if err := storer.Delete(ctx, rec.ID); err != nil {
		return fmt.Errorf("could not remove record: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", rec.ID[:12])
	return nil
}

// getByPrefix accepts a full id or a unique prefix of one.
func getByPrefix(ctx context.Context, storer store.Storer, id string) (*store.Record, error) {
	rec, err := storer.Get(ctx, id)
	if err == nil {
		return rec, nil
	}

	records, err := storer.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not list records: %w", err)
	}

	var match *store.Record
	for _, r := range records {
		if strings.HasPrefix(r.ID, id) {
			if match != nil {
				return nil, fmt.Errorf("id prefix %q is ambiguous", id)
			}
			match = r
		}
	}
	if match == nil {
		return nil, store.ErrNotFound{ID: id}
	}
	return match, nil
}
