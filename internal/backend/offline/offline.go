// Package offline replays a backup snapshot as a read-only backend, so an
// inventory can be reviewed away from the machine it was taken on.
package offline

import (
	"context"
	"fmt"

	"deepboot/internal/backend"
	"deepboot/internal/backup"
	"deepboot/internal/startup"
)

// Backend serves the entries of one snapshot.
type Backend struct {
	entries []startup.Entry
	origin  string
}

// New serves entries; origin names the snapshot in error messages.
func New(origin string, entries []startup.Entry) *Backend {
	return &Backend{entries: append([]startup.Entry(nil), entries...), origin: origin}
}

// Open loads the snapshot at path.
func Open(path string) (*Backend, error) {
	snap, err := backup.Load(path)
	if err != nil {
		return nil, err
	}
	return New(path, snap.Entries()), nil
}

// Register binds the backend to every source.
func (b *Backend) Register(t *backend.Table) {
	t.Register(b, startup.AllSources()...)
}

func (b *Backend) Capabilities() backend.Capabilities {
	return backend.Capabilities{}
}

func (b *Backend) Scan(ctx context.Context) ([]startup.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]startup.Entry(nil), b.entries...), nil
}

func (b *Backend) Disable(context.Context, startup.Entry) error {
	return fmt.Errorf("snapshot %s is read-only: %w", b.origin, startup.ErrNotSupported)
}

func (b *Backend) Remove(context.Context, startup.Entry) error {
	return fmt.Errorf("snapshot %s is read-only: %w", b.origin, startup.ErrNotSupported)
}
