package main

import (
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/dori/plando/internal/app"
	"github.com/dori/plando/internal/config"
	"github.com/dori/plando/internal/ui"
)

var version = "0.1.0"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var configPath, themeName, boardID string

	cmd := &cobra.Command{
		Use:   "plando",
		Short: "plando - a terminal client for kanban boards",
		Long: `plando - a terminal client for kanban boards

Quick Add Syntax:
  plando add "Write release notes"
  plando add "Fix login #doing !high due:friday"

  Column:    #name         (underscores become spaces, default first column)
  Priority:  !low !medium !high
  Due date:  due:today due:tomorrow due:friday due:2025-01-15

Keybindings:
  Navigation:   h/j/k/l       Move between columns and tasks
                tab           Switch pane
                enter         Open board or task

  Actions:      a             Add board or task
                space         Pick up / drop (drag with the mouse too)
                H/L           Move task to the previous/next column
                d / D         Delete task / column (with confirm)
                p / s         Cycle priority / status
                ctrl+t        Cycle theme
                ?             Help
                q             Quit`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(configPath, func(a *app.App) error {
				return runTUI(a, ui.Options{Theme: themeName, Board: boardID})
			})
		},
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default $XDG_CONFIG_HOME/plando/config.yaml)")
	cmd.Flags().StringVar(&themeName, "theme", "", "Theme name (nord, dracula, gruvbox, catppuccin)")
	cmd.Flags().StringVar(&boardID, "board", "", "Board to open on start")

	cmd.AddCommand(
		loginCmd(&configPath),
		signupCmd(&configPath),
		logoutCmd(&configPath),
		whoamiCmd(&configPath),
		boardsCmd(&configPath),
		addCmd(&configPath),
		configCmd(&configPath),
		versionCmd(),
	)
	return cmd
}

// withApp builds the application for one command and closes it afterwards
func withApp(configPath string, fn func(a *app.App) error) (err error) {
	cfg, err := config.NewFileReader(configPath).Read()
	if err != nil {
		return err
	}
	a, err := app.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	defer func() {
		if cerr := a.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(a)
}

func runTUI(a *app.App, opts ui.Options) error {
	if err := a.Lock(); err != nil {
		if errors.Is(err, app.ErrAlreadyRunning) {
			return fmt.Errorf("%w (lock in %s)", err, a.Config.DataDir)
		}
		return err
	}

	p := tea.NewProgram(ui.NewRootModel(a, opts), tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("failed to run program: %w", err)
	}
	return nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "plando v%s\n", version)
		},
	}
}
