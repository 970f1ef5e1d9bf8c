// Package notifier delivers reminder notifications.
package notifier

import (
	"context"
	"fmt"

	"github.com/julianstephens/routinely/internal/constants"
	"github.com/julianstephens/routinely/internal/logger"
)

type Notification struct {
	Title  string
	Body   string
	Urgent bool // alarms and wake-up tasks
}

// Text renders the notification as a single line.
func (n Notification) Text() string {
	if n.Body == "" {
		return n.Title
	}
	return fmt.Sprintf("%s: %s", n.Title, n.Body)
}

type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// Log writes notifications to the application log.
type Log struct{}

func (Log) Notify(_ context.Context, n Notification) error {
	if n.Urgent {
		logger.Warn("Reminder", "title", n.Title, "body", n.Body, "urgent", true)
		return nil
	}
	logger.Info("Reminder", "title", n.Title, "body", n.Body)
	return nil
}

// ByName returns the notifier selected in configuration.
func ByName(name string) (Notifier, error) {
	switch name {
	case "", constants.NotifierLog:
		return Log{}, nil
	case constants.NotifierTray:
		return NewTray(), nil
	default:
		return nil, fmt.Errorf("unknown notifier %q (expected %s or %s)", name, constants.NotifierLog, constants.NotifierTray)
	}
}
