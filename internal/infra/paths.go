package infra

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
)

const (
	AppName = "crypto-trading-bot"

	// ConfigPathEnv overrides config discovery.
	ConfigPathEnv = EnvPrefix + "CONFIG"
)

// GetWorkspaceDir returns the root directory for runtime data. A local
// "_workspace" directory wins over the OS data directory.
func GetWorkspaceDir() string {
	localDir := "_workspace"
	if _, err := os.Stat(localDir); err == nil {
		return localDir
	}

	var baseDir string
	switch runtime.GOOS {
	case "windows":
		baseDir = os.Getenv("APPDATA")
		if baseDir == "" {
			baseDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, _ := os.UserHomeDir()
		baseDir = filepath.Join(home, "Library", "Application Support")
	case "linux":
		baseDir = os.Getenv("XDG_DATA_HOME")
		if baseDir == "" {
			home, _ := os.UserHomeDir()
			baseDir = filepath.Join(home, ".local", "share")
		}
	default:
		return localDir
	}
	return filepath.Join(baseDir, AppName)
}

// Workspace holds the runtime directories below one root.
type Workspace struct {
	Root      string
	Snapshots string
}

// NewWorkspace creates root and its subdirectories.
func NewWorkspace(root string) (*Workspace, error) {
	ws := &Workspace{
		Root:      root,
		Snapshots: filepath.Join(root, "snapshots"),
	}
	for _, dir := range []string{ws.Root, ws.Snapshots} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return ws, nil
}

// Path resolves name inside the workspace unless it is absolute.
func (w *Workspace) Path(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(w.Root, name)
}

// Lock creates an exclusive lock file so only one bot runs per workspace.
// The returned func removes it.
func (w *Workspace) Lock() (func(), error) {
	lockPath := filepath.Join(w.Root, "instance.lock")

	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("another instance is already running (lock file exists: %s)", lockPath)
		}
		return nil, err
	}
	_, _ = f.WriteString(strconv.Itoa(os.Getpid()))
	_ = f.Close()

	return func() { _ = os.Remove(lockPath) }, nil
}

// ResolveConfigPath finds config.yaml: BOT_CONFIG, then ./configs, then the
// OS config directory. Falls back to ./configs/config.yaml.
func ResolveConfigPath() string {
	if p := os.Getenv(ConfigPathEnv); p != "" {
		return p
	}

	defaultPath := filepath.Join("configs", "config.yaml")
	if _, err := os.Stat(defaultPath); err == nil {
		return defaultPath
	}

	if configRoot, err := os.UserConfigDir(); err == nil {
		osPath := filepath.Join(configRoot, AppName, "config.yaml")
		if _, err := os.Stat(osPath); err == nil {
			return osPath
		}
	}
	return defaultPath
}
