// Package winreg serves the Run-style registry keys. Registry values have no
// disabled state, so Disable deletes the value just like Remove.
package winreg

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"deepboot/internal/backend"
	"deepboot/internal/startup"
)

// Hive is a predefined registry root.
type Hive int

const (
	CurrentUser Hive = iota
	LocalMachine
)

func (h Hive) String() string {
	if h == LocalMachine {
		return "HKLM"
	}
	return "HKCU"
}

// Location is one scanned key.
type Location struct {
	Hive   Hive
	Path   string
	Source startup.Source
}

// String is the form stored in Entry.BackendKey, e.g. HKCU\Software\...\Run.
func (l Location) String() string {
	return l.Hive.String() + `\` + l.Path
}

const (
	currentVersion = `Software\Microsoft\Windows\CurrentVersion`
	wowVersion     = `Software\Wow6432Node\Microsoft\Windows\CurrentVersion`
)

// DefaultLocations are the keys scanned on a stock Windows install.
func DefaultLocations() []Location {
	return []Location{
		{CurrentUser, currentVersion + `\Run`, startup.RegistryRun},
		{LocalMachine, currentVersion + `\Run`, startup.RegistryRun},
		{CurrentUser, currentVersion + `\RunOnce`, startup.RegistryRunOnce},
		{LocalMachine, currentVersion + `\RunOnce`, startup.RegistryRunOnce},
		{LocalMachine, currentVersion + `\RunServices`, startup.RegistryRunServices},
		{LocalMachine, wowVersion + `\Run`, startup.RegistryWow6432Node},
	}
}

// Value is a named string value under a key.
type Value struct {
	Name string
	Data string
}

// Store abstracts registry access. Values returns ErrNotFound for a missing
// key, and on a failed read returns the values read so far with the error;
// DeleteValue returns ErrNotFound for a missing value.
type Store interface {
	Values(h Hive, path string) ([]Value, error)
	DeleteValue(h Hive, path, name string) error
}

// Backend scans and deletes Run-key values.
type Backend struct {
	store     Store
	locations []Location
}

// New returns a backend over store. With no locations, DefaultLocations
// are used.
func New(store Store, locations ...Location) *Backend {
	if len(locations) == 0 {
		locations = DefaultLocations()
	}
	return &Backend{store: store, locations: locations}
}

// Sources lists the sources this backend should be registered for.
func (b *Backend) Sources() []startup.Source {
	seen := make(map[startup.Source]bool)
	var out []startup.Source
	for _, l := range b.locations {
		if !seen[l.Source] {
			seen[l.Source] = true
			out = append(out, l.Source)
		}
	}
	return out
}

func (b *Backend) Capabilities() backend.Capabilities {
	return backend.Capabilities{DisableRemoves: true, CanRemove: true}
}

// Scan reads every location. Missing keys are skipped; other failures are
// joined and returned together with whatever was read, including values
// read from a key before it failed.
func (b *Backend) Scan(ctx context.Context) ([]startup.Entry, error) {
	var (
		entries []startup.Entry
		errs    []error
	)
	for _, loc := range b.locations {
		if err := ctx.Err(); err != nil {
			return entries, err
		}
		values, err := b.store.Values(loc.Hive, loc.Path)
		if err != nil {
			if errors.Is(err, startup.ErrNotFound) {
				continue
			}
			if errors.Is(err, startup.ErrBackendUnavailable) {
				return entries, err
			}
			errs = append(errs, fmt.Errorf("%s: %w", loc, err))
		}
		for _, v := range values {
			entries = append(entries, startup.Entry{
				Name:       v.Name,
				Command:    v.Data,
				Source:     loc.Source,
				Enabled:    true,
				BackendKey: loc.String(),
			})
		}
	}
	return entries, errors.Join(errs...)
}

func (b *Backend) Disable(ctx context.Context, e startup.Entry) error {
	return b.delete(ctx, e)
}

func (b *Backend) Remove(ctx context.Context, e startup.Entry) error {
	return b.delete(ctx, e)
}

func (b *Backend) delete(ctx context.Context, e startup.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	loc, err := b.locate(e)
	if err != nil {
		return err
	}
	if err := b.store.DeleteValue(loc.Hive, loc.Path, e.Name); err != nil {
		return fmt.Errorf("delete value %q under %s: %w", e.Name, loc, err)
	}
	return nil
}

// locate finds the key an entry was scanned from. Entries without a
// BackendKey (imported from older snapshots) are looked up by probing the
// source's locations in order.
func (b *Backend) locate(e startup.Entry) (Location, error) {
	if e.BackendKey != "" {
		for _, l := range b.locations {
			if l.Source == e.Source && strings.EqualFold(l.String(), e.BackendKey) {
				return l, nil
			}
		}
		return Location{}, fmt.Errorf("unknown registry location %q: %w", e.BackendKey, startup.ErrNotFound)
	}
	for _, l := range b.locations {
		if l.Source != e.Source {
			continue
		}
		values, _ := b.store.Values(l.Hive, l.Path)
		for _, v := range values {
			if v.Name == e.Name {
				return l, nil
			}
		}
	}
	return Location{}, fmt.Errorf("value %q not found in any %s key: %w", e.Name, e.Source.Label(), startup.ErrNotFound)
}
