//go:build !windows

package services

import (
	"context"
	"fmt"
	"runtime"

	"deepboot/internal/startup"
)

type unavailable struct{}

// SystemManager has no Service Control Manager outside Windows.
func SystemManager() Manager { return unavailable{} }

func (unavailable) List(context.Context) ([]Service, error) {
	return nil, fmt.Errorf("service control manager on %s: %w", runtime.GOOS, startup.ErrBackendUnavailable)
}

func (unavailable) SetStartType(context.Context, string, StartType) error {
	return fmt.Errorf("service control manager on %s: %w", runtime.GOOS, startup.ErrBackendUnavailable)
}
