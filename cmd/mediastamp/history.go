package main

import (
	"fmt"
	"strings"

	"github.com/jamesainslie/mediastamp/pkg/mediastamp/manifest"
	"github.com/jamesainslie/mediastamp/pkg/mediastamp/types"
	"github.com/spf13/cobra"
)

// maxShownFiles caps the file list printed by history show.
const maxShownFiles = 50

func newHistoryCmd(a *app) *cobra.Command {
	var limit int

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "View run history",
		Long: `View the history of mediastamp runs.

Each run records the photos and videos it saw and whether their sidecar was
created or already present.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runHistory(cmd, limit)
		},
	}
	historyCmd.Flags().IntVarP(&limit, "limit", "l", 20, "maximum number of entries to show")

	historyCmd.AddCommand(
		&cobra.Command{
			Use:   "show <id>",
			Short: "Show details of a specific run",
			Long:  `Display a run by its ID. Any unique prefix of the ID is accepted.`,
			Args:  cobra.ExactArgs(1),
			RunE:  a.runHistoryShow,
		},
		&cobra.Command{
			Use:   "clean",
			Short: "Clean up old history entries",
			Long:  `Remove history entries older than manifest.retention_days. A retention of 0 keeps everything.`,
			Args:  cobra.NoArgs,
			RunE:  a.runHistoryClean,
		},
	)
	return historyCmd
}

func (a *app) openManifest() (*manifest.Manifest, error) {
	m, err := manifest.New(a.cfg.Manifest.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize manifest: %w", err)
	}
	return m, nil
}

func (a *app) runHistory(cmd *cobra.Command, limit int) error {
	m, err := a.openManifest()
	if err != nil {
		return err
	}

	entries, err := m.List(limit)
	if err != nil {
		return fmt.Errorf("failed to list history: %w", err)
	}
	out := cmd.OutOrStdout()

	if len(entries) == 0 {
		fmt.Fprintln(out, "No history entries found.")
		if !a.cfg.Manifest.Enabled {
			fmt.Fprintln(out, "Run history is off; set manifest.enabled: true to record runs.")
		} else {
			fmt.Fprintln(out, "Run 'mediastamp [dir]' to stamp a directory.")
		}
		return nil
	}

	total, err := m.Count()
	if err != nil {
		return fmt.Errorf("failed to count history: %w", err)
	}

	fmt.Fprintf(out, "\n%-36s  %-19s  %7s  %7s  %s\n", "ID", "TIME", "CREATED", "SKIPPED", "DIR")
	fmt.Fprintln(out, strings.Repeat("-", 100))
	for _, entry := range entries {
		fmt.Fprintf(out, "%-36s  %-19s  %7d  %7d  %s\n",
			entry.ID,
			entry.Timestamp.Local().Format("2006-01-02 15:04:05"),
			entry.Summary.Created,
			entry.Summary.Skipped,
			entry.Dir,
		)
	}
	fmt.Fprintln(out, strings.Repeat("-", 100))

	fmt.Fprintf(out, "\nShowing %d of %d entries. Use --limit to see more.\n", len(entries), total)
	fmt.Fprintln(out, "Use 'mediastamp history show <id>' for details on a specific entry.")
	return nil
}

func (a *app) runHistoryShow(cmd *cobra.Command, args []string) error {
	m, err := a.openManifest()
	if err != nil {
		return err
	}

	entry, err := m.Get(args[0])
	if err != nil {
		return fmt.Errorf("failed to get entry: %w", err)
	}
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, "\nRun Details")
	fmt.Fprintln(out, strings.Repeat("=", 60))
	fmt.Fprintf(out, "ID:         %s\n", entry.ID)
	fmt.Fprintf(out, "Timestamp:  %s\n", entry.Timestamp.Local().Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(out, "Operation:  %s\n", entry.Operation)
	fmt.Fprintf(out, "Directory:  %s\n", entry.Dir)
	fmt.Fprintf(out, "Entries:    %d\n", entry.Summary.Entries)
	fmt.Fprintf(out, "Media:      %d (%s)\n", entry.Summary.Media, types.FormatSize(entry.Summary.MediaBytes))
	fmt.Fprintf(out, "Created:    %d\n", entry.Summary.Created)
	fmt.Fprintf(out, "Skipped:    %d\n", entry.Summary.Skipped)

	if len(entry.Files) == 0 {
		return nil
	}

	fmt.Fprintln(out, "\nFiles:")
	fmt.Fprintln(out, strings.Repeat("-", 60))
	fmt.Fprintf(out, "%-8s  %-10s  %s\n", "STATUS", "SIZE", "PATH")
	fmt.Fprintln(out, strings.Repeat("-", 60))

	shown := min(len(entry.Files), maxShownFiles)
	for _, file := range entry.Files[:shown] {
		fmt.Fprintf(out, "%-8s  %-10s  %s\n", file.Status, types.FormatSize(file.Size), file.Path)
	}
	if len(entry.Files) > shown {
		fmt.Fprintf(out, "\n... and %d more files\n", len(entry.Files)-shown)
	}
	return nil
}

func (a *app) runHistoryClean(cmd *cobra.Command, _ []string) error {
	m, err := a.openManifest()
	if err != nil {
		return err
	}

	days := a.cfg.Manifest.RetentionDays
	if days == 0 {
		a.printInfo(cmd, "Retention is 0 days; keeping all history.")
		return nil
	}

	removed, err := m.Cleanup(days)
	if err != nil {
		return fmt.Errorf("failed to clean history: %w", err)
	}
	a.printInfo(cmd, "Removed %d history %s older than %d days.", removed, plural(removed, "entry", "entries"), days)
	return nil
}
