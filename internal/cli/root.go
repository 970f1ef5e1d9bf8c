package cli

import (
	"context"
	goerrors "errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/julianstephens/routinely/internal/backup"
	"github.com/julianstephens/routinely/internal/config"
	"github.com/julianstephens/routinely/internal/constants"
	"github.com/julianstephens/routinely/internal/daykey"
	"github.com/julianstephens/routinely/internal/errors"
	"github.com/julianstephens/routinely/internal/keyring"
	"github.com/julianstephens/routinely/internal/logger"
	"github.com/julianstephens/routinely/internal/models"
	"github.com/julianstephens/routinely/internal/routines"
	"github.com/julianstephens/routinely/internal/storage"
	"github.com/julianstephens/routinely/internal/storage/postgres"
	"github.com/julianstephens/routinely/internal/storage/sqlite"
	"github.com/julianstephens/routinely/internal/todos"
	"github.com/julianstephens/routinely/internal/users"
)

type Context struct {
	Store      storage.Provider
	Config     *config.Config
	ConfigPath string
	Now        func() time.Time
	Out        io.Writer
}

// Migrator is implemented by stores backed by versioned SQL migrations.
type Migrator interface {
	Migrate(logFn func(string)) (int, error)
	Pending() (int, error)
}

// ResolveDB picks the database location: an explicit flag, then
// ROUTINELY_DB_CONNECTION, then the config file.
func ResolveDB(flag string, cfg *config.Config) string {
	if flag != "" {
		return flag
	}
	if env := os.Getenv(constants.EnvDBConnection); env != "" {
		return env
	}
	return cfg.DB
}

// OpenStore builds the provider for db, which is a SQLite path, a
// PostgreSQL URL or DSN without a password, or "keyring".
func OpenStore(db string) (storage.Provider, error) {
	if db == constants.KeyringDB {
		connStr, err := keyring.Get(keyring.ConnectionString)
		if err != nil {
			if goerrors.Is(err, keyring.ErrNotFound) {
				return nil, fmt.Errorf("no connection string in keyring, run '%s keyring set db <conn>' first", constants.AppName)
			}
			return nil, err
		}
		// Keyring entries may carry a password; the keyring is the secure store.
		if _, err := postgres.ValidateConnString(connStr); err != nil && !goerrors.Is(err, postgres.ErrEmbeddedCredentials) {
			return nil, err
		}
		return postgres.New(connStr), nil
	}

	if postgres.IsConnString(db) {
		if _, err := postgres.ValidateConnString(db); err != nil {
			if goerrors.Is(err, postgres.ErrEmbeddedCredentials) {
				return nil, fmt.Errorf("PostgreSQL connection strings with embedded passwords are not allowed; use '%s keyring set db', %s or .pgpass", constants.AppName, constants.EnvDBConnection)
			}
			return nil, err
		}
		return postgres.New(db), nil
	}

	path, err := config.ExpandPath(db)
	if err != nil {
		return nil, err
	}
	return sqlite.NewStore(path), nil
}

// Clock returns the current time, honoring Now when set.
func (c *Context) Clock() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

// Printf writes to the command output.
func (c *Context) Printf(format string, args ...interface{}) {
	out := c.Out
	if out == nil {
		out = os.Stdout
	}
	fmt.Fprintf(out, format, args...)
}

func (c *Context) Routines() *routines.Service {
	return routines.New(c.Store, routines.WithClock(c.Clock))
}

func (c *Context) Todos() *todos.Service {
	return todos.New(c.Store, c.Clock)
}

func (c *Context) Users() *users.Service {
	return users.New(c.Store)
}

// Owner resolves the user a local command acts as. An empty name is
// accepted when exactly one user exists.
func (c *Context) Owner(ctx context.Context, name string) (models.User, error) {
	us := c.Users()
	if name != "" {
		return us.ByName(ctx, name)
	}
	all, err := us.List(ctx)
	if err != nil {
		return models.User{}, err
	}
	switch len(all) {
	case 0:
		return models.User{}, errors.Validation("no users yet, run '%s user add <name>' first", constants.AppName)
	case 1:
		return all[0], nil
	default:
		return models.User{}, errors.Validation("%d users exist, pick one with --user", len(all))
	}
}

// Caller builds the routines caller for user. The configured timezone wins
// unless it is Local, then the user's own zone, then the server setting.
func (c *Context) Caller(user models.User) (routines.Caller, error) {
	caller := routines.Caller{UserID: user.ID}
	tz := ""
	if c.Config != nil && c.Config.Timezone != constants.LocalTimezone {
		tz = c.Config.Timezone
	} else if user.Timezone != "" {
		tz = user.Timezone
	}
	if tz == "" {
		return caller, nil
	}
	loc, err := daykey.LoadLocation(tz)
	if err != nil {
		return routines.Caller{}, errors.Validation("invalid timezone %q", tz)
	}
	caller.Location = loc
	return caller, nil
}

// ResolveCaller is Owner followed by Caller.
func (c *Context) ResolveCaller(ctx context.Context, name string) (routines.Caller, error) {
	u, err := c.Owner(ctx, name)
	if err != nil {
		return routines.Caller{}, err
	}
	return c.Caller(u)
}

// IsSQLite reports whether the store is a local SQLite file.
func (c *Context) IsSQLite() bool {
	_, ok := c.Store.(*sqlite.Store)
	return ok
}

// PerformAutomaticBackup snapshots a SQLite database and only logs
// failures. Other backends are skipped.
func (c *Context) PerformAutomaticBackup(ctx context.Context) {
	if !c.IsSQLite() {
		return
	}
	mgr := backup.NewManager(c.Store.GetConfigPath())
	info, err := mgr.Create(ctx)
	if err != nil {
		logger.Warn("Automatic backup failed", "error", err)
		return
	}
	logger.Debug("Automatic backup created", "path", info.Path)
}
