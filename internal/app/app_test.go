package app

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dori/plando/internal/config"
	"github.com/dori/plando/internal/model"
	"github.com/dori/plando/internal/optimistic"
	"github.com/dori/plando/internal/remote/remotetest"
	"github.com/dori/plando/internal/session"
)

func testConfig(t *testing.T, baseURL string) *config.Config {
	t.Helper()
	return &config.Config{
		Env:     config.EnvDev,
		DataDir: t.TempDir(),
		API:     config.APIConfig{BaseURL: baseURL, Timeout: 5 * time.Second},
		UI:      config.UIConfig{Theme: "nord", NotificationTTL: 4 * time.Second},
	}
}

func newApp(t *testing.T, cfg *config.Config) *App {
	t.Helper()
	a, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return a
}

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		env     string
		debug   bool
		trace   bool
		wantErr bool
	}{
		{config.EnvDev, true, false, false},
		{config.EnvProd, false, false, false},
		{config.EnvLocal, true, true, false},
		{"staging", false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			var buf bytes.Buffer
			logger, err := NewLogger(tt.env, &buf)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v", err)
			}
			if tt.wantErr {
				return
			}
			logger.Debug().Msg("debug line")
			logger.Trace().Msg("trace line")
			if got := strings.Contains(buf.String(), "debug line"); got != tt.debug {
				t.Errorf("debug written = %v", got)
			}
			if got := strings.Contains(buf.String(), "trace line"); got != tt.trace {
				t.Errorf("trace written = %v", got)
			}
		})
	}
}

func TestLoginPersistsSession(t *testing.T) {
	srv := remotetest.NewServer(t)
	srv.AddUser("ada@example.com", "correct horse")
	cfg := testConfig(t, srv.URL())

	a := newApp(t, cfg)
	if err := a.RequireSession(); !errors.Is(err, session.ErrNotLoggedIn) {
		t.Errorf("RequireSession = %v", err)
	}
	if err := a.Login(context.Background(), "ada@example.com", "wrong"); err == nil {
		t.Error("login with a wrong password succeeded")
	}
	if err := a.Login(context.Background(), "ada@example.com", "correct horse"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	a = newApp(t, cfg)
	defer a.Close()
	if !a.Session.LoggedIn() || a.Session.Token() != srv.Token || a.Session.Email() != "ada@example.com" {
		t.Fatalf("session not restored: token=%q email=%q", a.Session.Token(), a.Session.Email())
	}

	if err := a.Coordinator.ApplyLoad(a.Coordinator.LoadBoards(context.Background())); err != nil {
		t.Fatalf("authorized load failed: %v", err)
	}

	if err := a.Logout(); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if a.Session.LoggedIn() {
		t.Error("still logged in after logout")
	}
}

func TestSingleInstanceLock(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:1/api")

	first := newApp(t, cfg)
	defer first.Close()
	if err := first.Lock(); err != nil {
		t.Fatalf("first Lock failed: %v", err)
	}

	second := newApp(t, cfg)
	defer second.Close()
	if err := second.Lock(); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("second Lock = %v, want ErrAlreadyRunning", err)
	}
}

func TestPreferences(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:1/api")
	a := newApp(t, cfg)

	if a.Theme() != "nord" {
		t.Errorf("default theme = %q", a.Theme())
	}
	a.SetTheme("gruvbox")

	a.SelectBoard("b7")
	pending := model.NewPendingID()
	a.SelectBoard(pending)
	if a.Store.ActiveBoardID() != pending {
		t.Errorf("active = %q", a.Store.ActiveBoardID())
	}
	a.Close()

	a = newApp(t, cfg)
	defer a.Close()
	if a.Theme() != "gruvbox" {
		t.Errorf("theme = %q", a.Theme())
	}
	if got := a.SavedActiveBoard(); got != "b7" {
		t.Errorf("saved board = %q, pending boards must not be remembered", got)
	}
}

func TestLogFileIsWritten(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:1/api")
	a := newApp(t, cfg)
	a.Close()

	data, err := os.ReadFile(filepath.Join(cfg.DataDir, LogFileName))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "application started") {
		t.Errorf("log = %s", data)
	}
}

func TestCoordinatorIsWired(t *testing.T) {
	a := newApp(t, testConfig(t, "http://127.0.0.1:1/api"))
	defer a.Close()

	if _, err := a.Coordinator.AddTask("", optimistic.TaskDraft{Title: "x", Description: "y", ColumnID: "c1"}); err == nil {
		t.Error("AddTask without a board succeeded")
	}
}
