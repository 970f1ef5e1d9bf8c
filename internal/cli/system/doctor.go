package system

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/julianstephens/routinely/internal/backup"
	"github.com/julianstephens/routinely/internal/cli"
	"github.com/julianstephens/routinely/internal/completion"
	"github.com/julianstephens/routinely/internal/constants"
	"github.com/julianstephens/routinely/internal/daykey"
	"github.com/julianstephens/routinely/internal/validation"
)

type DoctorCmd struct{}

type check struct {
	name     string
	needsDB  bool
	warnOnly bool
	run      func(context.Context, *cli.Context) error
}

var checks = []check{
	{name: "Schema version", needsDB: true, run: checkSchemaVersion},
	{name: "Backups present", warnOnly: true, run: checkBackupsPresent},
	{name: "Clock/timezone", run: checkClockTimezone},
	{name: "Routine data", needsDB: true, run: checkRoutines},
	{name: "Duplicate completions", needsDB: true, run: checkDuplicateCompletions},
}

func (cmd *DoctorCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	ctx.Printf("Running diagnostics...\n\n")

	hasError := false
	dbReachable := true
	if err := ctx.Store.Load(bg); err != nil {
		ctx.Printf("❌ Database reachable: FAIL\n")
		ctx.Printf("   Error: %v\n", err)
		hasError = true
		dbReachable = false
	} else {
		ctx.Printf("✓ Database reachable: OK\n")
	}

	for _, c := range checks {
		if c.needsDB && !dbReachable {
			ctx.Printf("⊘ %s: SKIPPED (database not reachable)\n", c.name)
			continue
		}
		err := c.run(bg, ctx)
		switch {
		case err == nil:
			ctx.Printf("✓ %s: OK\n", c.name)
		case c.warnOnly:
			ctx.Printf("⚠ %s: WARNING\n", c.name)
			ctx.Printf("   %v\n", err)
		default:
			ctx.Printf("❌ %s: FAIL\n", c.name)
			ctx.Printf("   Error: %v\n", err)
			hasError = true
		}
	}

	ctx.Printf("\n")
	if hasError {
		return fmt.Errorf("diagnostics failed")
	}
	ctx.Printf("All checks passed.\n")
	return nil
}

func checkSchemaVersion(_ context.Context, ctx *cli.Context) error {
	m, ok := ctx.Store.(cli.Migrator)
	if !ok {
		return nil
	}
	pending, err := m.Pending()
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if pending > 0 {
		return fmt.Errorf("%d migration(s) pending, run '%s migrate'", pending, constants.AppName)
	}
	return nil
}

func checkBackupsPresent(_ context.Context, ctx *cli.Context) error {
	if !ctx.IsSQLite() {
		return nil
	}
	mgr := backup.NewManager(ctx.Store.GetConfigPath())
	backups, err := mgr.List()
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}
	if len(backups) == 0 {
		return fmt.Errorf("no backups found - consider creating one with '%s backup create'", constants.AppName)
	}
	return nil
}

func checkClockTimezone(bg context.Context, ctx *cli.Context) error {
	now := time.Now()
	if now.Year() < 2020 || now.Year() > 2100 {
		return fmt.Errorf("system time appears incorrect: %s", now.Format(time.RFC3339))
	}

	var bad []string
	if ctx.Config != nil && !daykey.ValidateTimezone(ctx.Config.Timezone) {
		bad = append(bad, fmt.Sprintf("config timezone %q", ctx.Config.Timezone))
	}
	if settings, err := ctx.Store.GetSettings(bg); err == nil && !daykey.ValidateTimezone(settings.Timezone) {
		bad = append(bad, fmt.Sprintf("settings timezone %q", settings.Timezone))
	}
	if users, err := ctx.Store.ListUsers(bg); err == nil {
		for _, u := range users {
			if u.Timezone != "" && !daykey.ValidateTimezone(u.Timezone) {
				bad = append(bad, fmt.Sprintf("user %s timezone %q", u.Name, u.Timezone))
			}
		}
	}
	if len(bad) > 0 {
		return fmt.Errorf("invalid %s", strings.Join(bad, ", "))
	}
	return nil
}

func checkRoutines(bg context.Context, ctx *cli.Context) error {
	routines, err := ctx.Store.ListRoutines(bg, "")
	if err != nil {
		return fmt.Errorf("failed to get routines: %w", err)
	}
	v := validation.New()
	var problems []string
	for _, r := range routines {
		result := v.ValidateRoutine(r)
		for _, c := range result.Conflicts {
			problems = append(problems, c.Description)
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("%d problem(s):\n   - %s", len(problems), strings.Join(problems, "\n   - "))
	}
	return nil
}

// checkDuplicateCompletions reports days recorded twice for one task,
// using each owner's own timezone.
func checkDuplicateCompletions(bg context.Context, ctx *cli.Context) error {
	users, err := ctx.Store.ListUsers(bg)
	if err != nil {
		return fmt.Errorf("failed to get users: %w", err)
	}
	svc := ctx.Routines()
	v := validation.New()

	var problems []string
	for _, u := range users {
		caller, err := ctx.Caller(u)
		if err != nil {
			return err
		}
		log := completion.NewLog(svc.Location(bg, caller))
		routines, err := ctx.Store.ListRoutines(bg, u.ID)
		if err != nil {
			return fmt.Errorf("failed to get routines: %w", err)
		}
		for _, r := range routines {
			result := v.ValidateHistory(r, log)
			for _, c := range result.Conflicts {
				problems = append(problems, c.Description)
			}
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("%d duplicate(s):\n   - %s", len(problems), strings.Join(problems, "\n   - "))
	}
	return nil
}
