package backups

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/julianstephens/routinely/internal/backup"
	"github.com/julianstephens/routinely/internal/cli"
	"github.com/julianstephens/routinely/internal/models"
	"github.com/julianstephens/routinely/internal/storage/postgres"
	"github.com/julianstephens/routinely/internal/storage/sqlite"
)

func setupTestDB(t *testing.T) (*cli.Context, *sqlite.Store, *bytes.Buffer) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	store := sqlite.NewStore(dbPath)
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("failed to init store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	out := &bytes.Buffer{}
	return &cli.Context{Store: store, Out: out}, store, out
}

func TestBackupListEmpty(t *testing.T) {
	ctx, _, out := setupTestDB(t)
	if err := (&BackupListCmd{}).Run(ctx); err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out.String(), "No backups found.") {
		t.Errorf("unexpected output: %q", out.String())
	}
}

func TestBackupCreateAndRestore(t *testing.T) {
	ctx, store, out := setupTestDB(t)
	bg := context.Background()

	user := models.User{ID: "u1", Name: "alice", TokenHash: "h1", CreatedAt: time.Now()}
	if err := store.AddUser(bg, user); err != nil {
		t.Fatalf("add user: %v", err)
	}
	if err := (&BackupCreateCmd{}).Run(ctx); err != nil {
		t.Fatalf("create: %v", err)
	}
	if !strings.Contains(out.String(), "✓ Backup created: ") {
		t.Fatalf("unexpected output: %q", out.String())
	}

	out.Reset()
	if err := (&BackupListCmd{}).Run(ctx); err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out.String(), "1 total") {
		t.Fatalf("expected one backup listed: %q", out.String())
	}

	// Change the live database after the snapshot.
	if err := store.AddUser(bg, models.User{ID: "u2", Name: "bob", TokenHash: "h2", CreatedAt: time.Now()}); err != nil {
		t.Fatalf("add user: %v", err)
	}

	backups, err := backup.NewManager(store.GetConfigPath()).List()
	if err != nil || len(backups) != 1 {
		t.Fatalf("expected one backup, got %d (%v)", len(backups), err)
	}

	out.Reset()
	if err := (&BackupRestoreCmd{BackupFile: backups[0].Name(), Yes: true}).Run(ctx); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if !strings.Contains(out.String(), "Database restored successfully") {
		t.Errorf("unexpected output: %q", out.String())
	}

	reopened := sqlite.NewStore(store.GetConfigPath())
	if err := reopened.Load(bg); err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	users, err := reopened.ListUsers(bg)
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	if len(users) != 1 || users[0].Name != "alice" {
		t.Errorf("expected only alice after restore, got %+v", users)
	}
}

func TestBackupRestoreMissing(t *testing.T) {
	ctx, _, _ := setupTestDB(t)
	if err := (&BackupRestoreCmd{BackupFile: "nope.db", Yes: true}).Run(ctx); err == nil {
		t.Fatal("expected an error for a missing backup")
	}
}

func TestBackupsRequireSQLite(t *testing.T) {
	ctx := &cli.Context{Store: postgres.New("postgres://user@localhost/db"), Out: &bytes.Buffer{}}
	if err := (&BackupCreateCmd{}).Run(ctx); err == nil {
		t.Fatal("expected an error for a PostgreSQL store")
	}
}
