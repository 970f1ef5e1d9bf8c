package settings

import (
	"context"
	"fmt"

	"github.com/julianstephens/routinely/internal/cli"
	"github.com/julianstephens/routinely/internal/daykey"
	"github.com/julianstephens/routinely/internal/gate"
)

type SettingsCmd struct {
	List bool `help:"List current settings."`

	Timezone          *string `help:"Default IANA timezone for users without their own, or Local."`
	GatePolicy        *string `help:"Default gate policy: strict or permissive."`
	RemindersEnabled  *bool   `help:"Enable or disable task reminders."`
	ReminderWindowMin *int    `help:"Minutes either side of a task's start during which it is reminded."`
}

func (c *SettingsCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	settings, err := ctx.Store.GetSettings(bg)
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	if c.List {
		ctx.Printf("Current Settings:\n")
		ctx.Printf("  Timezone:            %s\n", settings.Timezone)
		ctx.Printf("  Default Gate Policy: %s\n", settings.DefaultGatePolicy)
		ctx.Printf("\nReminder Settings:\n")
		ctx.Printf("  Reminders Enabled:   %v\n", settings.RemindersEnabled)
		ctx.Printf("  Reminder Window:     %d min\n", settings.ReminderWindowMin)
		return nil
	}

	updated := false
	if c.Timezone != nil {
		if !daykey.ValidateTimezone(*c.Timezone) {
			return fmt.Errorf("invalid timezone %q", *c.Timezone)
		}
		settings.Timezone = *c.Timezone
		updated = true
	}
	if c.GatePolicy != nil {
		policy, err := gate.ByName(*c.GatePolicy, "")
		if err != nil {
			return err
		}
		settings.DefaultGatePolicy = policy.Name()
		updated = true
	}
	if c.RemindersEnabled != nil {
		settings.RemindersEnabled = *c.RemindersEnabled
		updated = true
	}
	if c.ReminderWindowMin != nil {
		if *c.ReminderWindowMin < 0 {
			return fmt.Errorf("reminder window must not be negative, got %d", *c.ReminderWindowMin)
		}
		settings.ReminderWindowMin = *c.ReminderWindowMin
		updated = true
	}

	if updated {
		if err := ctx.Store.SaveSettings(bg, settings); err != nil {
			return fmt.Errorf("failed to save settings: %w", err)
		}
		ctx.Printf("Settings updated successfully.\n")
	} else {
		ctx.Printf("No changes specified. Use --list to view settings or flags to update them.\n")
	}
	return nil
}
