package config

import (
	"os"
	"path/filepath"
)

const appDirName = "deepboot"

// DataDir returns the directory holding the whitelist, backups and logs.
// Order of precedence (first wins):
// 1) DEEPBOOT_DATA_DIR
// 2) os.UserConfigDir()/deepboot (%AppData%\deepboot on Windows)
// 3) os.TempDir()/deepboot
func DataDir() string {
	if explicit := os.Getenv(envDataDir); explicit != "" {
		return explicit
	}
	if dir, err := os.UserConfigDir(); err == nil && dir != "" {
		return filepath.Join(dir, appDirName)
	}
	return filepath.Join(os.TempDir(), appDirName)
}

// DefaultConfigPath returns DEEPBOOT_CONFIG when set, else config.yaml in
// the user config directory.
func DefaultConfigPath() string {
	if explicit := os.Getenv("DEEPBOOT_CONFIG"); explicit != "" {
		return explicit
	}
	if dir, err := os.UserConfigDir(); err == nil && dir != "" {
		return filepath.Join(dir, appDirName, "config.yaml")
	}
	return filepath.Join(os.TempDir(), appDirName, "config.yaml")
}

// WhitelistPath is the whitelist file inside the data dir.
func (c Config) WhitelistPath() string {
	return filepath.Join(c.dataDir(), "whitelist.yaml")
}

// BackupDir holds backup snapshots.
func (c Config) BackupDir() string {
	return filepath.Join(c.dataDir(), "backups")
}

// LogDir holds the daily action logs.
func (c Config) LogDir() string {
	return filepath.Join(c.dataDir(), "logs")
}

// ExportDir is where automatic exports land.
func (c Config) ExportDir() string {
	return filepath.Join(c.dataDir(), "exports")
}

func (c Config) dataDir() string {
	if c.DataDir != "" {
		return c.DataDir
	}
	return DataDir()
}
