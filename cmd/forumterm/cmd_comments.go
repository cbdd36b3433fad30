package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kingrea/forumterm/internal/api"
	"github.com/kingrea/forumterm/internal/comments"
)

var commentParent string

// commentsCmd prints an entity's discussion as a thread tree
var commentsCmd = &cobra.Command{
	Use:   "comments <entity-id>",
	Short: "Print the comment thread of a debate, chapter or point",
	Args:  cobra.ExactArgs(1),
	RunE:  runComments,
}

// commentCmd posts a comment
var commentCmd = &cobra.Command{
	Use:   "comment <entity-id> <text>",
	Short: "Post a comment, resolving @mentions against forum members",
	Long: `Posts a comment on an entity. The text is checked for profanity first and
@mentions are matched against the members of the configured forum.

Example:
  forumterm comment 64f1c2 "good point @ada" --parent 64f1d0`,
	Args: cobra.MinimumNArgs(2),
	RunE: runComment,
}

func init() {
	commentCmd.Flags().StringVar(&commentParent, "parent", "", "Comment to reply to")
}

func runComments(cmd *cobra.Command, args []string) error {
	_, client, err := loadProject()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()

	flat, err := client.Comments(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to load comments: %w", err)
	}
	roots := comments.BuildTree(flat)
	out := cmd.OutOrStdout()
	if len(roots) == 0 {
		fmt.Fprintln(out, "No comments yet.")
		return nil
	}
	comments.Walk(roots, func(n *comments.Node, depth int) bool {
		fmt.Fprintf(out, "%s@%s · %s\n", strings.Repeat("  ", depth), n.Comment.Author.Username,
			n.Comment.CreatedAt.Local().Format("2006-01-02 15:04"))
		fmt.Fprintf(out, "%s  %s\n", strings.Repeat("  ", depth), n.Comment.Content)
		return true
	})
	fmt.Fprintf(out, "%d comment(s)\n", comments.Count(roots))
	return nil
}

func runComment(cmd *cobra.Command, args []string) error {
	cfg, client, err := loadProject()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()

	var resolver *comments.Resolver
	if ref := cfg.Forum(); ref.Validate() == nil {
		entity, err := client.Entity(ctx, ref)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Warning: members of %s unavailable, mentions left unresolved: %v\n", ref, err)
		} else {
			resolver = comments.NewResolver(entity.Members)
		}
	}

	composer := comments.NewComposer(client, resolver, logger)
	posted, err := composer.Post(ctx, api.CommentDraft{
		EntityID: args[0],
		ParentID: commentParent,
		Content:  strings.Join(args[1:], " "),
	})
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Comment %s posted\n", posted.Comment.ID)
	for _, m := range posted.Mentioned {
		fmt.Fprintf(out, "  mentioned @%s\n", m.Username)
	}
	if len(posted.Unknown) > 0 {
		fmt.Fprintf(out, "  unknown mentions: @%s\n", strings.Join(posted.Unknown, ", @"))
	}
	return nil
}
