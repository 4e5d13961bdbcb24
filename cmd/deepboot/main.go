package main

import (
	"context"
	"log"
	"time"

	"github.com/spf13/cobra"

	"deepboot/internal/app"
	"deepboot/internal/backup"
	"deepboot/internal/config"
	"deepboot/internal/session"
	"deepboot/internal/startup"
)

var (
	configPath  string
	offlinePath string
)

var rootCmd = &cobra.Command{
	Use:   "deepboot [command]",
	Short: "deepboot: inspect and prune Windows startup entries",
	Long: `deepboot scans the registry Run keys, auto-start services and scheduled tasks,
and lets you disable or remove what should not start with the machine.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file")
	rootCmd.PersistentFlags().StringVar(&offlinePath, "offline", "", "Read entries from a backup snapshot instead of the system")
}

// controllerAPI is the part of app.App the commands use.
type controllerAPI interface {
	Config() config.Config
	Offline() bool
	Close() error

	Scan(ctx context.Context, params app.ScanParams) (app.ScanResult, error)
	Disable(ctx context.Context, params app.ActParams) (app.ActResult, error)
	Remove(ctx context.Context, params app.ActParams) (app.ActResult, error)
	Stats(ctx context.Context, params app.StatsParams) (app.StatsResult, error)
	Export(ctx context.Context, params app.ExportParams) (app.ExportResult, error)

	WhitelistList() (app.WhitelistResult, error)
	WhitelistAdd(params app.WhitelistParams) (app.WhitelistResult, error)
	WhitelistRemove(params app.WhitelistParams) (app.WhitelistResult, error)

	BackupCreate(ctx context.Context, params app.BackupParams) (app.BackupResult, error)
	BackupList() ([]app.BackupInfo, error)
	BackupShow(path string) (backup.Snapshot, error)
	BackupDelete(path string) error

	NewSession(ctx context.Context, timeout time.Duration) (*session.Session, app.ScanResult, error)
	Rescan(ctx context.Context, s *session.Session, timeout time.Duration) (app.ScanResult, error)
	ExportEntries(format string, entries []startup.Entry) (string, error)
}

var controllerFactory = func() (controllerAPI, error) {
	return app.New(app.Options{ConfigPath: configPath, OfflineSnapshot: offlinePath})
}

// withController opens the controller for one command and closes it after.
func withController(fn func(controllerAPI) error) error {
	ctrl, err := controllerFactory()
	if err != nil {
		return err
	}
	defer ctrl.Close()
	return fn(ctrl)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
