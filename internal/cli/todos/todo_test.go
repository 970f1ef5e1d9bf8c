package todos

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/julianstephens/routinely/internal/cli"
	"github.com/julianstephens/routinely/internal/config"
	"github.com/julianstephens/routinely/internal/storage/sqlite"
)

func setupTestDB(t *testing.T) (*cli.Context, *bytes.Buffer) {
	t.Helper()
	store := sqlite.NewStore(filepath.Join(t.TempDir(), "test.db"))
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("failed to init store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	cfg := config.Default()
	cfg.Timezone = "UTC"
	out := &bytes.Buffer{}
	ctx := &cli.Context{
		Store:  store,
		Config: cfg,
		Now:    func() time.Time { return time.Date(2024, 3, 13, 9, 0, 0, 0, time.UTC) },
		Out:    out,
	}
	if _, _, err := ctx.Users().Create(context.Background(), "alice", ""); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return ctx, out
}

func onlyTodoID(t *testing.T, ctx *cli.Context) string {
	t.Helper()
	u, err := ctx.Users().ByName(context.Background(), "alice")
	if err != nil {
		t.Fatalf("user: %v", err)
	}
	list, err := ctx.Store.ListTodos(context.Background(), u.ID)
	if err != nil || len(list) != 1 {
		t.Fatalf("expected 1 todo, got %d (%v)", len(list), err)
	}
	return list[0].ID
}

func TestTodoLifecycle(t *testing.T) {
	ctx, out := setupTestDB(t)

	if err := (&TodoAddCmd{Text: "Buy milk", Due: "2024-03-15"}).Run(ctx); err != nil {
		t.Fatalf("add: %v", err)
	}
	id := onlyTodoID(t, ctx)

	out.Reset()
	if err := (&TodoListCmd{}).Run(ctx); err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out.String(), "[ ] Buy milk (due 2024-03-15)") {
		t.Errorf("unexpected list output: %q", out.String())
	}

	if err := (&TodoDoneCmd{ID: id}).Run(ctx); err != nil {
		t.Fatalf("done: %v", err)
	}

	out.Reset()
	if err := (&TodoListCmd{}).Run(ctx); err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out.String(), "No todos found.") {
		t.Errorf("completed todo listed without --all: %q", out.String())
	}

	out.Reset()
	if err := (&TodoListCmd{All: true}).Run(ctx); err != nil {
		t.Fatalf("list --all: %v", err)
	}
	if !strings.Contains(out.String(), "[x] Buy milk") {
		t.Errorf("unexpected list --all output: %q", out.String())
	}

	if err := (&TodoDoneCmd{ID: id, Undo: true}).Run(ctx); err != nil {
		t.Fatalf("undo: %v", err)
	}
	if err := (&TodoDeleteCmd{ID: id}).Run(ctx); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := (&TodoDeleteCmd{ID: id}).Run(ctx); err == nil {
		t.Error("expected an error deleting a missing todo")
	}
}

func TestTodoAddRejects(t *testing.T) {
	tests := []struct {
		name string
		cmd  TodoAddCmd
	}{
		{"empty text", TodoAddCmd{Text: ""}},
		{"bad due date", TodoAddCmd{Text: "Call", Due: "next week"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, _ := setupTestDB(t)
			if err := tt.cmd.Run(ctx); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}
