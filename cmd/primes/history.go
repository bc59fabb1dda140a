package main

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jamesainslie/primes/pkg/primes/config"
	"github.com/jamesainslie/primes/pkg/primes/counter"
	"github.com/jamesainslie/primes/pkg/primes/history"
	"github.com/jamesainslie/primes/pkg/primes/output"
)

func newHistoryCmd(a *app) *cobra.Command {
	var limit int

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "View recorded runs",
		Long: `List previous counting runs recorded on this machine, newest first.

Runs are stored in $XDG_DATA_HOME/primes/history unless history.path is set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runHistory(limit)
		},
	}
	historyCmd.Flags().IntVarP(&limit, "limit", "l", 20, "maximum number of runs to show (0 for all)")

	showCmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one run",
		Long:  `Display a recorded run using the selected output format. A unique id prefix is enough.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runHistoryShow(args[0])
		},
	}

	var olderThan int
	cleanCmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove old runs",
		Long:  `Remove runs older than the retention period (history.retention_days).`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runHistoryClean(olderThan)
		},
	}
	cleanCmd.Flags().IntVar(&olderThan, "older-than", 0, "retention in days (default: history.retention_days)")

	historyCmd.AddCommand(showCmd, cleanCmd)
	return historyCmd
}

func (a *app) openHistory() (*history.Store, error) {
	store, err := history.Open(a.cfg.History.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history: %w", err)
	}
	return store, nil
}

// runHistory lists recent runs.
func (a *app) runHistory(limit int) error {
	store, err := a.openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.List(limit)
	if err != nil {
		return fmt.Errorf("failed to list history: %w", err)
	}

	if len(runs) == 0 {
		a.printInfo("No runs recorded yet.")
		a.printInfo("Run 'primes <max>' to record one.")
		return nil
	}

	total, err := store.Count()
	if err != nil {
		return fmt.Errorf("failed to count history: %w", err)
	}

	fmt.Fprint(a.stdout, renderRunTable(runs, time.Now()))
	a.printInfo("\nShowing %d of %d runs. Use 'primes history show <id>' for details.", len(runs), total)
	return nil
}

// renderRunTable lays out runs in aligned, styled columns.
func renderRunTable(runs []history.Run, now time.Time) string {
	headers := []string{"ID", "WHEN", "MAX", "PRIMES", "CPU", "HOST"}
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []string{
			shortID(run.ID),
			humanize.RelTime(run.StartedAt, now, "ago", "from now"),
			humanize.Comma(int64(run.Max)),
			humanize.Comma(run.Primes),
			counter.FormatSeconds(run.CPUSeconds) + "s",
			run.Host,
		})
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if w := lipgloss.Width(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	var sb strings.Builder
	cells := make([]string, len(headers))
	for i, h := range headers {
		cells[i] = output.TableHeaderStyle.Width(widths[i] + 2).Render(h)
	}
	sb.WriteString(strings.TrimRight(lipgloss.JoinHorizontal(lipgloss.Top, cells...), " "))
	sb.WriteByte('\n')

	for _, row := range rows {
		for i, cell := range row {
			cells[i] = output.TableCellStyle.Width(widths[i] + 2).Render(cell)
		}
		sb.WriteString(strings.TrimRight(lipgloss.JoinHorizontal(lipgloss.Top, cells...), " "))
		sb.WriteByte('\n')
	}
	return sb.String()
}

// runHistoryShow prints one run with the selected formatter.
func (a *app) runHistoryShow(id string) error {
	store, err := a.openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	run, err := store.Get(id)
	if err != nil {
		return fmt.Errorf("failed to get run: %w", err)
	}

	formatter, err := a.formatter()
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := formatter.Format(&buf, resultFromRun(run)); err != nil {
		return fmt.Errorf("formatting run: %w", err)
	}
	_, err = a.stdout.Write(buf.Bytes())
	return err
}

// runHistoryClean prunes runs past the retention period.
func (a *app) runHistoryClean(olderThan int) error {
	days := olderThan
	if days <= 0 {
		days = a.cfg.History.RetentionDays
	}
	if days <= 0 {
		days = config.DefaultRetentionDays
	}

	store, err := a.openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	removed, err := store.Prune(time.Now().AddDate(0, 0, -days))
	if err != nil {
		return fmt.Errorf("failed to clean history: %w", err)
	}

	a.printInfo("Removed %d runs older than %d days.", removed, days)
	return nil
}

// shortID returns the first block of a UUID.
func shortID(id string) string {
	if i := strings.IndexByte(id, '-'); i > 0 {
		return id[:i]
	}
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
