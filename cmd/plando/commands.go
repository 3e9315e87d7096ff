package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dori/plando/internal/app"
	"github.com/dori/plando/internal/config"
	"github.com/dori/plando/internal/model"
	"github.com/dori/plando/internal/optimistic"
	"github.com/dori/plando/internal/quickadd"
	"github.com/dori/plando/internal/remote"
	"github.com/dori/plando/internal/session"
	"github.com/dori/plando/internal/store"
)

func loginCmd(configPath *string) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to the board service",
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				p, err := prompt(cmd, "Password: ")
				if err != nil {
					return err
				}
				password = p
			}
			return withApp(*configPath, func(a *app.App) error {
				ctx, cancel := context.WithTimeout(cmd.Context(), a.Config.API.Timeout)
				defer cancel()

				if err := a.Login(ctx, email, password); err != nil {
					return fmt.Errorf("login failed: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", email)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&email, "email", "e", "", "Account email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Account password (prompted when empty)")
	cmd.MarkFlagRequired("email")
	return cmd
}

func signupCmd(configPath *string) *cobra.Command {
	var in remote.SignupInput

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account on the board service",
		RunE: func(cmd *cobra.Command, args []string) error {
			if in.Password == "" {
				p, err := prompt(cmd, "Password: ")
				if err != nil {
					return err
				}
				in.Password = p
			}
			return withApp(*configPath, func(a *app.App) error {
				ctx, cancel := context.WithTimeout(cmd.Context(), a.Config.API.Timeout)
				defer cancel()

				if err := a.Auth.Signup(ctx, in); err != nil {
					return fmt.Errorf("signup failed: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Account created. Run `plando login` to start.")
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&in.Email, "email", "e", "", "Account email")
	cmd.Flags().StringVarP(&in.Password, "password", "p", "", "Account password (prompted when empty)")
	cmd.Flags().StringVar(&in.Name, "name", "", "First name")
	cmd.Flags().StringVar(&in.Surname, "surname", "", "Last name")
	return cmd
}

func logoutCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(*configPath, func(a *app.App) error {
				if err := a.Logout(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
				return nil
			})
		},
	}
}

func whoamiCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged in account",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(*configPath, func(a *app.App) error {
				claims, err := session.ParseClaims(a.Session.Token())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				who := claims.Identity()
				if who == "" {
					who = a.Session.Email()
				}
				fmt.Fprintf(out, "%s on %s\n", who, a.Session.ServerURL())
				if exp, ok := claims.Expiry(); ok {
					state := "expires"
					if claims.Expired(time.Now()) {
						state = "expired"
					}
					fmt.Fprintf(out, "Token %s %s\n", state, exp.Local().Format(time.DateTime))
				}
				return nil
			})
		},
	}
}

func boardsCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "boards",
		Short: "List boards",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(*configPath, func(a *app.App) error {
				if err := a.RequireSession(); err != nil {
					return err
				}
				ctx, cancel := context.WithTimeout(cmd.Context(), a.Config.API.Timeout)
				defer cancel()

				if err := a.Coordinator.ApplyLoad(a.Coordinator.LoadBoards(ctx)); err != nil {
					return fmt.Errorf("failed to load boards: %w", err)
				}
				saved := a.SavedActiveBoard()
				refs := store.BoardRefs(a.Store)
				if len(refs) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No boards yet")
					return nil
				}
				for _, ref := range refs {
					marker := " "
					if ref.ID == saved {
						marker = "*"
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s %-24s %s\n", marker, ref.ID, ref.Title)
				}
				return nil
			})
		},
	}
}

func addCmd(configPath *string) *cobra.Command {
	var boardID, description string

	cmd := &cobra.Command{
		Use:   "add <task>",
		Short: "Quick add a task to a board",
		Example: `  plando add "Write release notes"
  plando add "Fix login #doing !high due:friday" --description "Users get logged out"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entry := quickadd.Parse(strings.Join(args, " "), time.Now())
			return withApp(*configPath, func(a *app.App) error {
				if err := a.RequireSession(); err != nil {
					return err
				}
				return quickAdd(cmd, a, entry, boardID, description)
			})
		},
	}

	cmd.Flags().StringVarP(&boardID, "board", "b", "", "Board id (default: the board open last)")
	cmd.Flags().StringVarP(&description, "description", "d", "", "Task description (default: the title)")
	return cmd
}

func quickAdd(cmd *cobra.Command, a *app.App, entry quickadd.Entry, boardID, description string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), a.Config.API.Timeout)
	defer cancel()
	c := a.Coordinator

	if err := c.ApplyLoad(c.LoadBoards(ctx)); err != nil {
		return fmt.Errorf("failed to load boards: %w", err)
	}
	if boardID == "" {
		boardID = a.SavedActiveBoard()
	}
	if boardID == "" {
		refs := store.BoardRefs(a.Store)
		if len(refs) == 0 {
			return errors.New("no boards yet, create one in the TUI first")
		}
		boardID = refs[0].ID
	}
	if err := c.ApplyLoad(c.LoadBoard(ctx, boardID)); err != nil {
		return fmt.Errorf("failed to load board %s: %w", boardID, err)
	}
	b, _ := a.Store.Board(boardID)

	col, ok := quickadd.ResolveColumn(b.Columns, entry.Column)
	if !ok {
		if entry.Column == "" {
			return fmt.Errorf("board %q has no columns", b.Title)
		}
		return fmt.Errorf("board %q has no column named %q", b.Title, entry.Column)
	}

	if description == "" {
		description = entry.Title
	}
	op, err := c.AddTask(boardID, optimistic.TaskDraft{
		ColumnID:    col.ID,
		Title:       entry.Title,
		Description: description,
		Priority:    entry.Priority,
		Deadline:    entry.Deadline,
		Status:      model.StatusTodo,
	})
	if err != nil {
		return err
	}
	if err := c.Exec(ctx, op); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created: %s\n", entry.Title)
	fmt.Fprintf(out, "Board: %s / %s\n", b.Title, col.Title)
	if entry.Deadline != nil {
		fmt.Fprintf(out, "Due: %s\n", entry.Deadline.Format("Mon, Jan 2"))
	}
	if entry.Priority != model.PriorityLow {
		fmt.Fprintf(out, "Priority: %s\n", entry.Priority)
	}
	return nil
}

func configCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.NewFileReader(*configPath).Read()
			if err != nil {
				return err
			}
			out, err := cfg.YAML()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the default config file location",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), config.DefaultPath())
		},
	})
	return cmd
}

func prompt(cmd *cobra.Command, label string) (string, error) {
	fmt.Fprint(cmd.ErrOrStderr(), label)
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}
