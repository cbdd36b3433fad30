package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kingrea/forumterm/internal/forum"
	"github.com/kingrea/forumterm/internal/reactions"
	"github.com/kingrea/forumterm/internal/votes"
)

var (
	reviewApprove bool
	reviewReason  string
)

// reviewCmd publishes or rejects a proposed debate or chapter
var reviewCmd = &cobra.Command{
	Use:   "review chapter|debate <id>",
	Short: "Approve or reject a proposed debate or chapter",
	Long: `Records a reviewer decision. Pass --approve to publish, or --reason to reject.

A rejection without a reason is refused before anything is sent.

Example:
  forumterm review debate 64f1c2 --reason "duplicate of an ongoing debate"`,
	Args:      cobra.ExactArgs(2),
	ValidArgs: []string{"chapter", "debate"},
	RunE:      runReview,
}

// reactCmd sets the viewer's reaction on a rule, chapter or point
var reactCmd = &cobra.Command{
	Use:   "react rule|chapter|point <id> up|down|clear",
	Short: "Like a rule, vote on a chapter or rate a point",
	Long: `Sets the viewer's single reaction on an entity; "clear" removes it.

Rules can only be liked. Points take the debate id with --debate so the
current reaction is read first and an unchanged reaction sends nothing.`,
	Args: cobra.ExactArgs(3),
	RunE: runReact,
}

var reactDebate string

func init() {
	reviewCmd.Flags().BoolVar(&reviewApprove, "approve", false, "Publish the entity")
	reviewCmd.Flags().StringVar(&reviewReason, "reason", "", "Reason for rejecting")
	reviewCmd.MarkFlagsMutuallyExclusive("approve", "reason")

	reactCmd.Flags().StringVar(&reactDebate, "debate", "", "Debate the point belongs to")
}

func runReview(cmd *cobra.Command, args []string) error {
	kind, id := strings.ToLower(args[0]), args[1]
	review := forum.Review{Approve: reviewApprove, Reason: strings.TrimSpace(reviewReason)}
	if err := review.Validate(); err != nil {
		return err
	}
	_, client, err := loadProject()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()

	switch kind {
	case "chapter":
		err = client.ReviewChapter(ctx, id, review)
	case "debate":
		err = client.ReviewDebate(ctx, id, review)
	default:
		return fmt.Errorf("unknown review target %q (want chapter or debate)", args[0])
	}
	if err != nil {
		return fmt.Errorf("review failed: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s is now %s\n", kind, id, review.Status())
	return nil
}

func runReact(cmd *cobra.Command, args []string) error {
	kind, id := strings.ToLower(args[0]), args[1]
	value, err := votes.ParseValue(args[2])
	if err != nil {
		return err
	}
	cfg, client, err := loadProject()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()

	var remote reactions.Remote
	switch kind {
	case "rule":
		remote = reactions.Rules(client)
	case "chapter":
		remote = reactions.Chapters(client)
	case "point":
		remote = reactions.Points(client)
	default:
		return fmt.Errorf("unknown reaction target %q (want rule, chapter or point)", args[0])
	}
	if kind != "point" {
		// Rule and chapter state is not listed by the API, so the reaction is sent as is.
		if err := remote(ctx, id, value); err != nil {
			return fmt.Errorf("reaction failed: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s set to %s\n", kind, id, value)
		return nil
	}

	if reactDebate == "" {
		return errors.New("--debate is required for point reactions")
	}
	points, err := client.DebatePoints(ctx, reactDebate)
	if err != nil {
		return fmt.Errorf("failed to load points: %w", err)
	}
	toggler := reactions.NewToggler(cfg.Project.Viewer.UserID, remote, logger)
	for _, p := range points {
		toggler.Seed(p.ID, p.Relevant, p.Irrelevant)
	}
	changed, err := toggler.Cast(ctx, id, value)
	if err != nil {
		return fmt.Errorf("reaction failed: %w", err)
	}
	out := cmd.OutOrStdout()
	if !changed {
		fmt.Fprintf(out, "point %s already %s\n", id, value)
		return nil
	}
	t := toggler.Tally(id)
	fmt.Fprintf(out, "point %s set to %s (%d relevant, %d irrelevant)\n", id, value, t.Up, t.Down)
	return nil
}
