package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/kingrea/forumterm/internal/debates"
	"github.com/kingrea/forumterm/internal/forum"
)

var (
	debatesTab  string
	debatesPage int
)

// debatesCmd prints one page of a debate collection
var debatesCmd = &cobra.Command{
	Use:   "debates",
	Short: "Print one page of a debate collection",
	Long: `Fetches a single collection of the configured forum and prints it as a table.

Collections:
  ongoing   - debates still open for arguments
  all       - every debate of the forum and its children
  global    - debates across the whole community
  mine      - debates you created
  proposed  - debates waiting for review`,
	Args: cobra.NoArgs,
	RunE: runDebates,
}

// pointsCmd prints the arguments of a debate
var pointsCmd = &cobra.Command{
	Use:   "points <debate-id>",
	Short: "Print the arguments of a debate with side tallies",
	Args:  cobra.ExactArgs(1),
	RunE:  runPoints,
}

func init() {
	debatesCmd.Flags().StringVar(&debatesTab, "tab", string(forum.CollectionOngoing), "Collection to print")
	debatesCmd.Flags().IntVar(&debatesPage, "page", 1, "Page number")
}

func runDebates(cmd *cobra.Command, args []string) error {
	collection, err := forum.ParseCollection(debatesTab)
	if err != nil {
		return err
	}
	cfg, client, err := loadProject()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()

	board := debates.NewBoard(cfg.Forum())
	if _, err := board.SetPage(collection, debatesPage); err != nil {
		return err
	}
	fetcher := debates.NewFetcher(client, client.PageSize(), debates.WithLogger(logger))
	if err := fetcher.RefreshOne(ctx, board, collection); err != nil {
		return fmt.Errorf("failed to load %s: %w", collection.Title(), err)
	}

	snap := board.Snapshot(collection)
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s · %s · page %d of %d\n", collection.Title(), cfg.Forum(), snap.Page, max(snap.TotalPages, 1))
	if len(snap.Items) == 0 {
		fmt.Fprintln(out, "No debates on this page.")
		return nil
	}
	writeTable(out, debates.Columns, debates.Rows(snap.Items, collection, time.Now()))
	return nil
}

func runPoints(cmd *cobra.Command, args []string) error {
	cfg, client, err := loadProject()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()

	points, err := client.DebatePoints(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to load points: %w", err)
	}
	out := cmd.OutOrStdout()
	t := debates.Tally(points, cfg.Project.Viewer.UserID)
	fmt.Fprintf(out, "Support %d (%+d) · Against %d (%+d)\n", t.Support, t.SupportScore, t.Against, t.AgainstScore)
	if t.ViewerArgument {
		fmt.Fprintln(out, "You have posted an argument on this debate.")
	}
	if len(points) == 0 {
		fmt.Fprintln(out, "No points yet.")
		return nil
	}
	rows := make([][]string, 0, len(points))
	for _, p := range points {
		rows = append(rows, []string{
			p.ID,
			string(p.Side),
			fmt.Sprintf("%d", len(p.Relevant)),
			fmt.Sprintf("%d", len(p.Irrelevant)),
			"@" + p.Participant.Username,
			p.Content,
		})
	}
	writeTable(out, []string{"ID", "Side", "Relevant", "Irrelevant", "By", "Point"}, rows)
	return nil
}

// writeTable prints left-aligned columns separated by two spaces.
func writeTable(w io.Writer, header []string, rows [][]string) {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for i := range widths {
			if i < len(row) {
				widths[i] = max(widths[i], runewidth.StringWidth(row[i]))
			}
		}
	}
	line := func(cells []string) {
		parts := make([]string, len(widths))
		for i := range widths {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			if i == len(widths)-1 {
				parts[i] = cell
				continue
			}
			parts[i] = runewidth.FillRight(cell, widths[i])
		}
		fmt.Fprintln(w, strings.TrimRight(strings.Join(parts, "  "), " "))
	}
	line(header)
	sep := make([]string, len(widths))
	for i, n := range widths {
		sep[i] = strings.Repeat("─", n)
	}
	line(sep)
	for _, row := range rows {
		line(row)
	}
}
