package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/rs/zerolog"
	"go.uber.org/multierr"

	"github.com/dori/plando/internal/config"
	"github.com/dori/plando/internal/db"
	"github.com/dori/plando/internal/model"
	"github.com/dori/plando/internal/notify"
	"github.com/dori/plando/internal/optimistic"
	"github.com/dori/plando/internal/remote"
	"github.com/dori/plando/internal/session"
	"github.com/dori/plando/internal/store"
)

// ErrAlreadyRunning is returned by Lock when another TUI holds the data dir
var ErrAlreadyRunning = errors.New("another instance of plando is already running")

// App holds the application state and dependencies
type App struct {
	Config      *config.Config
	Logger      zerolog.Logger
	DB          *db.DB
	Session     *session.Session
	Client      *remote.Client
	Auth        *remote.AuthClient
	Store       *store.Store
	Notifier    *notify.Notifier
	Coordinator *optimistic.Coordinator

	logFile  *os.File
	lockFile *flock.Flock
}

// New wires every component from cfg and restores the saved session for
// the configured server
func New(cfg *config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	a := &App{Config: cfg}

	logFile, err := openLogFile(cfg.DataDir)
	if err != nil {
		return nil, err
	}
	a.logFile = logFile
	if a.Logger, err = NewLogger(cfg.Env, logFile); err != nil {
		logFile.Close()
		return nil, err
	}

	database, err := db.Open(cfg.DataDir)
	if err != nil {
		logFile.Close()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	a.DB = database
	if v, err := database.SchemaVersion(); err != nil {
		a.Logger.Warn().Err(err).Msg("unknown schema version")
	} else {
		a.Logger.Debug().Str("path", database.Path()).Int64("schema", v).Msg("database ready")
	}

	a.Session = session.New(cfg.API.BaseURL, "", "")
	if err := a.restoreSession(); err != nil {
		a.Logger.Warn().Err(err).Msg("failed to restore session")
	}

	a.Client = remote.NewClient(cfg.API.BaseURL,
		remote.WithTimeout(cfg.API.Timeout),
		remote.WithTokenSource(a.Session),
		remote.WithLogger(a.Logger.With().Str("component", "remote").Logger()),
	)
	a.Auth = remote.NewAuthClient(cfg.API.BaseURL, remote.WithTimeout(cfg.API.Timeout))

	a.Store = store.New(
		store.WithStrict(cfg.Strict()),
		store.WithLogger(a.Logger.With().Str("component", "store").Logger()),
	)
	a.Notifier = notify.NewNotifier(a.Logger)
	if cfg.UI.DesktopNotifications {
		notify.NewDesktop(cfg.UI.NotificationTTL).Attach(a.Notifier)
	}
	a.Coordinator = optimistic.New(a.Store, a.Client, a.Notifier,
		a.Logger.With().Str("component", "optimistic").Logger())

	a.Logger.Info().
		Str("env", cfg.Env).
		Str("server", cfg.API.BaseURL).
		Bool("logged_in", a.Session.LoggedIn()).
		Msg("application started")
	return a, nil
}

func (a *App) restoreSession() error {
	saved, err := a.DB.GetSession(a.Config.API.BaseURL)
	if err != nil || saved == nil {
		return err
	}
	a.Session.Set(saved.Token, saved.Email)

	claims, err := session.ParseClaims(saved.Token)
	if err != nil {
		return fmt.Errorf("failed to inspect saved token: %w", err)
	}
	if claims.Expired(time.Now()) {
		a.Logger.Warn().Str("email", saved.Email).Msg("saved session has expired")
	}
	return nil
}

// Lock acquires an exclusive lock on the data directory so that only one
// TUI runs against it
func (a *App) Lock() error {
	a.lockFile = flock.New(filepath.Join(a.Config.DataDir, "plando.lock"))

	locked, err := a.lockFile.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !locked {
		return ErrAlreadyRunning
	}
	return nil
}

// Login exchanges credentials for a token and remembers it
func (a *App) Login(ctx context.Context, email, password string) error {
	token, err := a.Auth.Login(ctx, email, password)
	if err != nil {
		return err
	}
	if err := a.DB.SaveSession(db.SavedSession{
		ServerURL: a.Config.API.BaseURL,
		Token:     token,
		Email:     email,
	}); err != nil {
		return err
	}
	a.Session.Set(token, email)
	a.Logger.Info().Str("email", email).Msg("logged in")
	return nil
}

// Logout forgets the credential for the configured server
func (a *App) Logout() error {
	if err := a.DB.DeleteSession(a.Config.API.BaseURL); err != nil {
		return err
	}
	a.Session.Clear()
	a.Logger.Info().Msg("logged out")
	return nil
}

// RequireSession fails when no credential is held
func (a *App) RequireSession() error {
	if !a.Session.LoggedIn() {
		return session.ErrNotLoggedIn
	}
	return nil
}

// SavedActiveBoard returns the board selected in a previous run
func (a *App) SavedActiveBoard() string {
	id, _, err := a.DB.GetPreference(db.ActiveBoardKey(a.Config.API.BaseURL))
	if err != nil {
		a.Logger.Warn().Err(err).Msg("failed to read active board")
	}
	return id
}

// SelectBoard makes a board active and remembers the choice. Pending boards
// are selected but not remembered.
func (a *App) SelectBoard(id string) {
	a.Store.SetActiveBoard(id)
	if model.IsPendingID(id) {
		return
	}
	if err := a.DB.SetPreference(db.ActiveBoardKey(a.Config.API.BaseURL), id); err != nil {
		a.Logger.Warn().Err(err).Str("board_id", id).Msg("failed to save active board")
	}
}

// Theme returns the remembered theme, falling back to the configured one
func (a *App) Theme() string {
	name, ok, err := a.DB.GetPreference(db.PrefTheme)
	if err != nil {
		a.Logger.Warn().Err(err).Msg("failed to read theme")
	}
	if !ok {
		return a.Config.UI.Theme
	}
	return name
}

// SetTheme remembers the theme
func (a *App) SetTheme(name string) {
	if err := a.DB.SetPreference(db.PrefTheme, name); err != nil {
		a.Logger.Warn().Err(err).Str("theme", name).Msg("failed to save theme")
	}
}

// Close cleans up application resources
func (a *App) Close() error {
	var err error

	if a.DB != nil {
		if cerr := a.DB.Close(); cerr != nil {
			err = multierr.Append(err, fmt.Errorf("failed to close database: %w", cerr))
		}
	}
	if a.lockFile != nil {
		if cerr := a.lockFile.Unlock(); cerr != nil {
			err = multierr.Append(err, fmt.Errorf("failed to release lock: %w", cerr))
		}
	}
	if a.logFile != nil {
		if cerr := a.logFile.Close(); cerr != nil {
			err = multierr.Append(err, fmt.Errorf("failed to close log file: %w", cerr))
		}
	}

	return err
}
