//go:build !windows

package winreg

import (
	"fmt"
	"runtime"

	"deepboot/internal/startup"
)

type unavailableStore struct{}

// SystemStore has no registry to talk to outside Windows.
func SystemStore() Store { return unavailableStore{} }

func (unavailableStore) Values(Hive, string) ([]Value, error) {
	return nil, fmt.Errorf("registry on %s: %w", runtime.GOOS, startup.ErrBackendUnavailable)
}

func (unavailableStore) DeleteValue(Hive, string, string) error {
	return fmt.Errorf("registry on %s: %w", runtime.GOOS, startup.ErrBackendUnavailable)
}
