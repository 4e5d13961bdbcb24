package app

import (
	"errors"
	"log"

	"deepboot/internal/actionlog"
	"deepboot/internal/backend"
	"deepboot/internal/backup"
	"deepboot/internal/config"
	"deepboot/internal/whitelist"
)

// Options configures the top-level controller.
type Options struct {
	// ConfigPath points to the optional YAML config file.
	ConfigPath string
	// OfflineSnapshot replays a backup file instead of scanning the system.
	OfflineSnapshot string
}

// App exposes high-level operations that the CLI/TUI can reuse.
type App struct {
	cfgPath string
	cfg     config.Config

	backends *backend.Table
	offline  bool

	whitelist    *whitelist.Manager
	whitelistErr error

	backups *backup.Store
	log     actionlog.Logger
	logFile *actionlog.SlogLogger
}

// New loads the configuration and wires every collaborator. Collaborators
// that cannot be opened degrade: the whitelist to a gate that exempts
// nothing and the action log to a no-op, each with a warning.
func New(opts Options) (*App, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	a := &App{
		cfgPath: opts.ConfigPath,
		cfg:     cfg,
		backups: backup.NewStore(cfg.BackupDir()),
		log:     actionlog.Nop(),
	}

	if opts.OfflineSnapshot != "" {
		table, err := offlineBackends(opts.OfflineSnapshot)
		if err != nil {
			return nil, err
		}
		a.backends = table
		a.offline = true
	} else {
		a.backends = systemBackends()
	}

	a.whitelist, a.whitelistErr = whitelist.Open(cfg.WhitelistPath())
	if a.whitelistErr != nil {
		log.Printf("whitelist unavailable, nothing will be exempt: %v", a.whitelistErr)
	}

	if l, err := actionlog.Open(cfg.LogDir(), actionlog.ParseLevel(cfg.LogLevel)); err != nil {
		log.Printf("action log unavailable: %v", err)
	} else {
		a.log = l
		a.logFile = l
	}
	return a, nil
}

// Close releases the action log file.
func (a *App) Close() error {
	if a == nil || a.logFile == nil {
		return nil
	}
	return a.logFile.Close()
}

// ConfigPath returns the configured config file path (if any).
func (a *App) ConfigPath() string {
	return a.cfgPath
}

// Config returns the effective configuration.
func (a *App) Config() config.Config {
	return a.cfg
}

// Offline reports whether entries come from a snapshot.
func (a *App) Offline() bool {
	return a.offline
}

// gate returns the whitelist, or a gate exempting nothing when it could not
// be opened.
func (a *App) gate() whitelist.Gate {
	if a.whitelist == nil {
		return whitelist.Nop()
	}
	return a.whitelist
}

func (a *App) manager() (*whitelist.Manager, error) {
	if a.whitelist == nil {
		if a.whitelistErr != nil {
			return nil, a.whitelistErr
		}
		return nil, errors.New("whitelist is not configured")
	}
	return a.whitelist, nil
}
