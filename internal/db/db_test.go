package db

import (
	"path/filepath"
	"testing"
	"time"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSessionRoundTrip(t *testing.T) {
	db := openTestDB(t)
	const server = "http://localhost:5000/api"

	got, err := db.GetSession(server)
	if err != nil || got != nil {
		t.Fatalf("GetSession on empty db = %+v, %v", got, err)
	}

	created := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	if err := db.SaveSession(SavedSession{ServerURL: server, Token: "tok-1", Email: "a@b.io", CreatedAt: created}); err != nil {
		t.Fatalf("SaveSession failed: %v", err)
	}
	if err := db.SaveSession(SavedSession{ServerURL: server, Token: "tok-2", Email: "a@b.io", CreatedAt: created}); err != nil {
		t.Fatalf("SaveSession replace failed: %v", err)
	}

	got, err = db.GetSession(server)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if got == nil || got.Token != "tok-2" || got.Email != "a@b.io" || !got.CreatedAt.Equal(created) {
		t.Errorf("session = %+v", got)
	}

	if other, _ := db.GetSession("https://other.example.com/api"); other != nil {
		t.Errorf("session leaked across servers: %+v", other)
	}

	if err := db.SetPreference(ActiveBoardKey(server), "b1"); err != nil {
		t.Fatal(err)
	}
	if err := db.DeleteSession(server); err != nil {
		t.Fatalf("DeleteSession failed: %v", err)
	}
	if got, _ := db.GetSession(server); got != nil {
		t.Errorf("session still present: %+v", got)
	}
	if _, ok, _ := db.GetPreference(ActiveBoardKey(server)); ok {
		t.Error("active board survived logout")
	}
}

func TestSaveSessionRequiresToken(t *testing.T) {
	db := openTestDB(t)
	if err := db.SaveSession(SavedSession{ServerURL: "http://x/api"}); err == nil {
		t.Error("expected an error for an empty token")
	}
}

func TestPreferences(t *testing.T) {
	db := openTestDB(t)
	key := ActiveBoardKey("http://localhost:5000/api")
	if key != "active_board:http://localhost:5000/api" {
		t.Errorf("key = %q", key)
	}

	if _, ok, err := db.GetPreference(key); ok || err != nil {
		t.Fatalf("unset preference: ok=%v err=%v", ok, err)
	}

	for _, v := range []string{"b1", "b2"} {
		if err := db.SetPreference(key, v); err != nil {
			t.Fatalf("SetPreference failed: %v", err)
		}
	}
	if v, ok, _ := db.GetPreference(key); !ok || v != "b2" {
		t.Errorf("preference = %q, %v", v, ok)
	}

	if err := db.SetPreference(key, ""); err != nil {
		t.Fatalf("clearing failed: %v", err)
	}
	if _, ok, _ := db.GetPreference(key); ok {
		t.Error("preference survived clearing")
	}
}

func TestReopenKeepsData(t *testing.T) {
	dir := t.TempDir()
	db, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := db.SetPreference(PrefTheme, "dracula"); err != nil {
		t.Fatal(err)
	}
	db.Close()

	db, err = Open(dir)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer db.Close()
	if v, ok, _ := db.GetPreference(PrefTheme); !ok || v != "dracula" {
		t.Errorf("theme = %q, %v", v, ok)
	}
}

func TestOpenCreatesFileInDataDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "plando")
	db, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	if want := filepath.Join(dir, FileName); db.Path() != want {
		t.Errorf("path = %q, want %q", db.Path(), want)
	}
	v, err := db.SchemaVersion()
	if err != nil {
		t.Fatal(err)
	}
	if v < 1 {
		t.Errorf("schema version = %d, migrations not applied", v)
	}
}
