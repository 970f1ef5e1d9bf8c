package main

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/routinely/internal/cli"
	"github.com/julianstephens/routinely/internal/cli/backups"
	"github.com/julianstephens/routinely/internal/cli/routines"
	"github.com/julianstephens/routinely/internal/cli/settings"
	"github.com/julianstephens/routinely/internal/cli/system"
	"github.com/julianstephens/routinely/internal/cli/todos"
	"github.com/julianstephens/routinely/internal/cli/users"
	"github.com/julianstephens/routinely/internal/config"
	"github.com/julianstephens/routinely/internal/constants"
	"github.com/julianstephens/routinely/internal/errors"
	"github.com/julianstephens/routinely/internal/logger"
)

var CLI struct {
	Version kong.VersionFlag
	Config  string `help:"Config file path." type:"string" default:"${config_path}"`
	DB      string `name:"db" help:"SQLite path, PostgreSQL connection string without password, or 'keyring'. Overrides ROUTINELY_DB_CONNECTION and the config file."`
	Debug   bool   `help:"Log debug output to stderr."`

	Init    system.InitCmd    `cmd:"" help:"Initialize routinely storage."`
	Migrate system.MigrateCmd `cmd:"" help:"Run database migrations."`
	Doctor  system.DoctorCmd  `cmd:"" help:"Run health checks and diagnostics."`
	Serve   system.ServeCmd   `cmd:"" help:"Run the HTTP API."`
	Remind  system.RemindCmd  `cmd:"" help:"Send reminders for tasks that are due."`
	Tui     system.TuiCmd     `cmd:"" help:"Launch the interactive TUI." default:"1"`
	Routine struct {
		Add        routines.RoutineAddCmd        `cmd:"" help:"Add a routine."`
		List       routines.RoutineListCmd       `cmd:"" help:"List routines and today's progress."`
		Delete     routines.RoutineDeleteCmd     `cmd:"" help:"Delete a routine and its history."`
		Complete   routines.RoutineCompleteCmd   `cmd:"" help:"Mark a task done for a day."`
		Uncomplete routines.RoutineUncompleteCmd `cmd:"" help:"Clear a task's completion for a day."`
		Export     routines.RoutineExportCmd     `cmd:"" help:"Export routines as YAML."`
		Import     routines.RoutineImportCmd     `cmd:"" help:"Import routines from a YAML export."`
	} `cmd:"" help:"Manage routines."`
	Stats routines.StatsCmd `cmd:"" help:"Show completion statistics."`
	Todo  struct {
		Add    todos.TodoAddCmd    `cmd:"" help:"Add a todo."`
		List   todos.TodoListCmd   `cmd:"" help:"List todos."`
		Done   todos.TodoDoneCmd   `cmd:"" help:"Mark a todo done."`
		Delete todos.TodoDeleteCmd `cmd:"" help:"Delete a todo."`
	} `cmd:"" help:"Manage todos."`
	User struct {
		Add         users.UserAddCmd         `cmd:"" help:"Add a user and issue an API token."`
		List        users.UserListCmd        `cmd:"" help:"List users."`
		RotateToken users.UserRotateTokenCmd `cmd:"" help:"Issue a new API token."`
		Timezone    users.UserTimezoneCmd    `cmd:"" help:"Set a user's timezone."`
	} `cmd:"" help:"Manage users."`
	Backup struct {
		Create  backups.BackupCreateCmd  `cmd:"" help:"Create a manual backup." default:"1"`
		List    backups.BackupListCmd    `cmd:"" help:"List available backups."`
		Restore backups.BackupRestoreCmd `cmd:"" help:"Restore from a backup."`
	} `cmd:"" help:"Manage database backups."`
	Settings settings.SettingsCmd `cmd:"" help:"Manage server settings."`
	Keyring  struct {
		Set    system.KeyringSetCmd    `cmd:"" help:"Store a secret in the OS keyring."`
		Get    system.KeyringGetCmd    `cmd:"" help:"Show a stored secret, masked."`
		Delete system.KeyringDeleteCmd `cmd:"" help:"Remove a secret from the OS keyring."`
		Status system.KeyringStatusCmd `cmd:"" help:"Check keyring availability."`
	} `cmd:"" help:"Manage secrets in the OS keyring."`
}

// Commands that never touch the database.
var storeless = map[string]bool{"tui": true, "keyring": true}

// Commands that open the database themselves.
var selfLoading = map[string]bool{"init": true, "doctor": true}

func main() {
	kctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Daily routines and habit tracker"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{
			"version":     constants.Version,
			"config_path": constants.DefaultConfigPath,
		},
	)

	cfg, err := config.Load(CLI.Config)
	if err != nil {
		errors.Fatal(err)
	}
	if CLI.Debug {
		cfg.Debug = true
	}
	if err := cfg.Validate(); err != nil {
		errors.Fatal(err)
	}

	top := strings.Fields(kctx.Command())[0]

	configPath, err := config.ExpandPath(CLI.Config)
	if err != nil {
		errors.Fatal(err)
	}
	if err := logger.Init(logger.Config{
		Debug:     cfg.Debug,
		ConfigDir: filepath.Dir(configPath),
		Stderr:    top == "serve" || top == "remind",
	}); err != nil {
		errors.Fatal(err)
	}

	appCtx := &cli.Context{
		Config:     cfg,
		ConfigPath: configPath,
	}

	if !storeless[top] {
		store, err := cli.OpenStore(cli.ResolveDB(CLI.DB, cfg))
		if err != nil {
			errors.Fatal(err)
		}
		defer store.Close()
		appCtx.Store = store

		if !selfLoading[top] {
			if err := store.Load(context.Background()); err != nil {
				errors.Fatal(err)
			}
		}
	}

	if err := kctx.Run(appCtx); err != nil {
		errors.Fatal(err)
	}
}
