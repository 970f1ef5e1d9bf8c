package system

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/julianstephens/routinely/internal/cli"
	"github.com/julianstephens/routinely/internal/config"
	"github.com/julianstephens/routinely/internal/storage"
)

type InitCmd struct {
	Force  bool   `help:"Delete an existing SQLite database before initializing."`
	Source string `help:"Database path or connection string to copy data from."`
}

func (c *InitCmd) Run(ctx *cli.Context) error {
	bg := context.Background()

	if c.Force && ctx.IsSQLite() {
		dbPath := ctx.Store.GetConfigPath()
		if c.Source != "" {
			absDB, errDB := filepath.Abs(dbPath)
			absSrc, errSrc := filepath.Abs(c.Source)
			if errDB == nil && errSrc == nil && absDB == absSrc {
				return fmt.Errorf("cannot use --force when source and destination are the same: %s", dbPath)
			}
		}
		if _, err := os.Stat(dbPath); err == nil {
			if err := ctx.Store.Close(); err != nil {
				return fmt.Errorf("failed to close existing database: %w", err)
			}
			if err := os.Remove(dbPath); err != nil {
				return fmt.Errorf("failed to delete existing database: %w", err)
			}
			ctx.Printf("Deleted existing database at: %s\n", dbPath)
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("failed to access existing database: %w", err)
		}
	}

	if err := ctx.Store.Init(bg); err != nil {
		return err
	}
	ctx.Printf("Initialized routinely storage at: %s\n", ctx.Store.GetConfigPath())

	if ctx.ConfigPath != "" {
		path, err := config.ExpandPath(ctx.ConfigPath)
		if err != nil {
			return err
		}
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			if err := config.WriteDefault(path); err != nil {
				return fmt.Errorf("failed to write config: %w", err)
			}
			ctx.Printf("Wrote default config to: %s\n", path)
		}
	}

	if c.Source != "" {
		ctx.Printf("Copying data from: %s\n", c.Source)
		src, err := cli.OpenStore(c.Source)
		if err != nil {
			return err
		}
		if err := src.Load(bg); err != nil {
			return fmt.Errorf("failed to load source database: %w", err)
		}
		defer src.Close()

		if err := CopyData(bg, src, ctx.Store, ctx.Printf); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		ctx.Printf("Migration completed successfully!\n")
	}
	return nil
}

// CopyData copies settings, users, routines and todos from src to dst.
// Ids and completion history are kept.
func CopyData(ctx context.Context, src, dst storage.Provider, printf func(string, ...interface{})) error {
	printf("  Copying settings...\n")
	settings, err := src.GetSettings(ctx)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("failed to get settings from source: %w", err)
	}
	if err == nil {
		if err := dst.SaveSettings(ctx, settings); err != nil {
			return fmt.Errorf("failed to save settings to destination: %w", err)
		}
	}

	printf("  Copying users...\n")
	users, err := src.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("failed to get users from source: %w", err)
	}
	for _, u := range users {
		if err := dst.AddUser(ctx, u); err != nil {
			return fmt.Errorf("failed to add user %s: %w", u.Name, err)
		}
	}
	printf("    Copied %d users\n", len(users))

	printf("  Copying routines...\n")
	routines, err := src.ListRoutines(ctx, "")
	if err != nil {
		return fmt.Errorf("failed to get routines from source: %w", err)
	}
	for _, r := range routines {
		if err := dst.AddRoutine(ctx, r); err != nil {
			return fmt.Errorf("failed to add routine %s: %w", r.ID, err)
		}
	}
	printf("    Copied %d routines\n", len(routines))

	printf("  Copying todos...\n")
	total := 0
	for _, u := range users {
		todos, err := src.ListTodos(ctx, u.ID)
		if err != nil {
			return fmt.Errorf("failed to get todos for %s: %w", u.Name, err)
		}
		for _, t := range todos {
			if err := dst.AddTodo(ctx, t); err != nil {
				return fmt.Errorf("failed to add todo %s: %w", t.ID, err)
			}
		}
		total += len(todos)
	}
	printf("    Copied %d todos\n", total)
	return nil
}
