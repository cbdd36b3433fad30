package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kingrea/forumterm/internal/bookmarks"
	"github.com/kingrea/forumterm/internal/cache"
	"github.com/kingrea/forumterm/internal/forum"
)

// bookmarksCmd manages bookmark folders
var bookmarksCmd = &cobra.Command{
	Use:   "bookmarks",
	Short: "Manage bookmark folders",
	Long: `List and create bookmark folders.

Subcommands:
  list         - List all folders
  add <name>   - Create an empty folder`,
	RunE: runBookmarksList,
}

var bookmarksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List bookmark folders",
	Args:  cobra.NoArgs,
	RunE:  runBookmarksList,
}

var bookmarksAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Create an empty bookmark folder",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runBookmarksAdd,
}

// forumCmd reads or changes the forum the board opens on
var forumCmd = &cobra.Command{
	Use:   "forum",
	Short: "Show or change the default forum",
	RunE:  runForumShow,
}

var forumSetCmd = &cobra.Command{
	Use:   "set <node|club|chapter> <id>",
	Short: "Set the default forum and cache its details",
	Args:  cobra.ExactArgs(2),
	RunE:  runForumSet,
}

func init() {
	bookmarksCmd.AddCommand(bookmarksListCmd)
	bookmarksCmd.AddCommand(bookmarksAddCmd)

	forumCmd.AddCommand(forumSetCmd)
}

func runBookmarksList(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadProject()
	if err != nil {
		return err
	}
	folders, err := bookmarks.Load(cfg.BookmarksPath())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(folders) == 0 {
		fmt.Fprintln(out, "No bookmark folders yet.")
		fmt.Fprintln(out, "\nUse: forumterm bookmarks add <name>")
		return nil
	}
	rows := make([][]string, 0, len(folders))
	for _, f := range folders {
		rows = append(rows, []string{f.Name, fmt.Sprintf("%d", f.PostsCount), f.LastUpdated})
	}
	writeTable(out, []string{"Folder", "Posts", "Updated"}, rows)
	fmt.Fprintf(out, "Total: %d folders\n", len(folders))
	return nil
}

func runBookmarksAdd(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadProject()
	if err != nil {
		return err
	}
	path := cfg.BookmarksPath()
	folders, err := bookmarks.Load(path)
	if err != nil {
		return err
	}
	folders, created, err := bookmarks.CreateFolder(folders, strings.Join(args, " "))
	if err != nil {
		return err
	}
	if err := bookmarks.Save(path, folders); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Folder %q created (%d total)\n", created.Name, len(folders))
	return nil
}

func runForumShow(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadProject()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	ref := cfg.Forum()
	if ref.Validate() != nil {
		fmt.Fprintln(out, "No default forum configured.")
		fmt.Fprintln(out, "\nUse: forumterm forum set <node|club|chapter> <id>")
		return nil
	}
	fmt.Fprintln(out, ref)
	return nil
}

// runForumSet persists the new default, then refreshes the current-entity
// cache. A failed fetch leaves the setting in place.
func runForumSet(cmd *cobra.Command, args []string) error {
	t, err := forum.ParseType(args[0])
	if err != nil {
		return err
	}
	cfg, client, err := loadProject()
	if err != nil {
		return err
	}
	ref := forum.Ref{Type: t, ID: args[1]}
	if err := cfg.SetForum(ref); err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Default forum set to %s\n", cfg.Forum())

	ctx, cancel := commandContext(cmd)
	defer cancel()
	entity, err := client.Entity(ctx, cfg.Forum())
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: could not load forum details: %v\n", err)
		return nil
	}
	store, err := cache.Open(cfg.Project.Cache.RedisURL)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: cache unavailable: %v\n", err)
		return nil
	}
	if closer, ok := store.(io.Closer); ok {
		defer closer.Close()
	}
	if err := store.SetCurrent(ctx, entity); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: could not cache forum details: %v\n", err)
	}
	fmt.Fprintf(out, "%s · %d member(s)\n", entity.Name, entity.MemberCount)
	return nil
}
