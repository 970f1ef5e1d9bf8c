package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mitchellh/go-ps"

	"github.com/julianstephens/routinely/internal/constants"
)

// Tray posts notifications to the desktop tray companion, which
// advertises itself through a "port|pid|secret" lockfile. The companion
// (routinely-tray) ships separately; without it Notify returns an error.
type Tray struct {
	configDir   func() (string, error)
	findProcess func(int) (ps.Process, error)
	client      *http.Client
}

type webhookPayload struct {
	Text       string `json:"text"`
	Urgent     bool   `json:"urgent,omitempty"`
	DurationMs uint32 `json:"duration_ms"`
}

func NewTray() *Tray {
	return &Tray{
		configDir:   os.UserConfigDir,
		findProcess: ps.FindProcess,
		client:      &http.Client{Timeout: constants.RequestTimeout},
	}
}

func (t *Tray) Notify(ctx context.Context, n Notification) error {
	dir, err := t.lockfileDir()
	if err != nil {
		return err
	}

	port, secret, err := t.findTray(filepath.Join(dir, constants.NotifierLockfileName))
	if err != nil {
		return err
	}

	duration := uint32(constants.NotificationDurationMs)
	if n.Urgent {
		duration *= 3
	}
	return t.send(ctx, port, secret, webhookPayload{Text: n.Text(), Urgent: n.Urgent, DurationMs: duration})
}

// lockfileDir is the tray's config dir unless its settings.json points
// elsewhere.
func (t *Tray) lockfileDir() (string, error) {
	configDir, err := t.configDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config dir: %w", err)
	}
	trayDir := filepath.Join(configDir, constants.TrayAppIdentifier)

	data, err := os.ReadFile(filepath.Join(trayDir, "settings.json"))
	if err != nil {
		return trayDir, nil
	}
	var store struct {
		Settings struct {
			LockfileDir string `json:"lockfile_dir"`
		} `json:"settings"`
	}
	if json.Unmarshal(data, &store) == nil && store.Settings.LockfileDir != "" {
		return store.Settings.LockfileDir, nil
	}
	return trayDir, nil
}

func (t *Tray) findTray(lockfilePath string) (port, secret string, err error) {
	content, err := os.ReadFile(lockfilePath)
	if err != nil {
		return "", "", errors.New("tray app is not running")
	}

	parts := strings.Split(strings.TrimSpace(string(content)), "|")
	if len(parts) != 3 {
		return "", "", errors.New("lockfile is malformed")
	}

	port = strings.TrimSpace(parts[0])
	portNum, err := strconv.Atoi(port)
	if err != nil {
		return "", "", errors.New("invalid port number in lockfile")
	}
	if portNum < 1 || portNum > 65535 {
		return "", "", fmt.Errorf("port number %d is outside valid range (1-65535)", portNum)
	}

	pid, err := strconv.Atoi(parts[1])
	if err != nil {
		return "", "", errors.New("invalid process ID in lockfile")
	}
	secret = strings.TrimSpace(parts[2])
	if secret == "" {
		return "", "", errors.New("secret in lockfile is empty")
	}

	proc, err := t.findProcess(pid)
	if err != nil || proc == nil {
		return "", "", errors.New("tray process not running")
	}
	if !strings.HasPrefix(proc.Executable(), constants.TrayExecutablePrefix) {
		return "", "", fmt.Errorf("process with PID %d is not %s (is %s)", pid, constants.TrayExecutablePrefix, proc.Executable())
	}
	return port, secret, nil
}

func (t *Tray) send(ctx context.Context, port, secret string, payload webhookPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "http://127.0.0.1:"+port, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(constants.TraySecretHeader, secret)

	res, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusOK {
		return nil
	}
	msg, _ := io.ReadAll(res.Body)
	return fmt.Errorf("notification failed with status %d: %s", res.StatusCode, string(msg))
}
