package app

import (
	"context"
	"time"

	"deepboot/internal/backend"
	"deepboot/internal/backend/offline"
	"deepboot/internal/backend/schtasks"
	"deepboot/internal/backend/services"
	"deepboot/internal/backend/winreg"
	"deepboot/internal/startup"
)

var (
	systemBackends  = defaultSystemBackends
	offlineBackends = defaultOfflineBackends
)

// resetBackendDeps restores the real backends after a test swaps them.
func resetBackendDeps() {
	systemBackends = defaultSystemBackends
	offlineBackends = defaultOfflineBackends
}

func defaultSystemBackends() *backend.Table {
	t := backend.NewTable()
	reg := winreg.New(winreg.SystemStore())
	t.Register(reg, reg.Sources()...)
	t.Register(services.New(services.SystemManager()), startup.Service)
	t.Register(schtasks.New(), startup.TaskScheduler)
	return t
}

func defaultOfflineBackends(path string) (*backend.Table, error) {
	b, err := offline.Open(path)
	if err != nil {
		return nil, err
	}
	t := backend.NewTable()
	b.Register(t)
	return t, nil
}

// withTimeout bounds backend work. A zero timeout falls back to the
// configured scan timeout; when that is zero too, ctx is used as is.
func (a *App) withTimeout(ctx context.Context, timeout time.Duration, fn func(context.Context) error) error {
	if timeout <= 0 {
		timeout = a.cfg.ScanTimeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return fn(ctx)
}
