// cmd/forumterm/main.go
//
// Entry point for the forumterm CLI. Run with no subcommand to open the
// TUI on the current directory's .forumterm project; the subcommands are
// one-shot versions of the board, review and bookmark actions.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kingrea/forumterm/internal/api"
	"github.com/kingrea/forumterm/internal/config"
	"github.com/kingrea/forumterm/internal/logging"
	"github.com/kingrea/forumterm/internal/tui"
)

var (
	workspace string

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "forumterm",
	Short: "Terminal client for community debate boards",
	Long: `forumterm browses and moderates the debates of a node, club or chapter.

Run without arguments to open the interactive board. Settings live in
.forumterm/config.yaml inside the workspace and are created on first run.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd == cmd.Root() {
			return nil
		}
		ws, err := workspaceDir()
		if err != nil {
			return err
		}
		if err := config.InitDir(ws); err != nil {
			return fmt.Errorf("initialize %s: %w", config.Dir, err)
		}
		logger, err = logging.New(ws)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runInteractive,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", "", "Workspace directory (default: current)")

	rootCmd.AddCommand(debatesCmd)
	rootCmd.AddCommand(pointsCmd)
	rootCmd.AddCommand(reviewCmd)
	rootCmd.AddCommand(reactCmd)
	rootCmd.AddCommand(commentsCmd)
	rootCmd.AddCommand(commentCmd)
	rootCmd.AddCommand(bookmarksCmd)
	rootCmd.AddCommand(forumCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func workspaceDir() (string, error) {
	if workspace != "" {
		return workspace, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting working directory: %w", err)
	}
	return cwd, nil
}

func runInteractive(cmd *cobra.Command, args []string) error {
	ws, err := workspaceDir()
	if err != nil {
		return err
	}
	app, err := tui.NewApp(ws)
	if err != nil {
		return fmt.Errorf("starting forumterm: %w", err)
	}
	defer app.Close()

	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running TUI: %w", err)
	}
	return nil
}

// loadProject reads the workspace config and builds a client for it.
func loadProject() (*config.Config, *api.Client, error) {
	ws, err := workspaceDir()
	if err != nil {
		return nil, nil, err
	}
	cfg, err := config.New(ws)
	if err != nil {
		return nil, nil, err
	}
	opts := []api.Option{}
	if logger != nil {
		opts = append(opts, api.WithLogger(logger))
	}
	return cfg, api.New(api.SettingsFromConfig(cfg), opts...), nil
}

// commandContext is cancelled on SIGINT/SIGTERM.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
