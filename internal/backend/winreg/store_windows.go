//go:build windows

package winreg

import (
	"errors"
	"fmt"

	"golang.org/x/sys/windows"
	"golang.org/x/sys/windows/registry"

	"deepboot/internal/startup"
)

type systemStore struct{}

// SystemStore reads and writes the live Windows registry.
func SystemStore() Store { return systemStore{} }

func rootKey(h Hive) registry.Key {
	if h == LocalMachine {
		return registry.LOCAL_MACHINE
	}
	return registry.CURRENT_USER
}

func (systemStore) Values(h Hive, path string) ([]Value, error) {
	k, err := registry.OpenKey(rootKey(h), path, registry.QUERY_VALUE)
	if err != nil {
		return nil, classify(err)
	}
	defer k.Close()

	names, err := k.ReadValueNames(-1)
	if err != nil {
		return nil, classify(err)
	}
	values := make([]Value, 0, len(names))
	for _, name := range names {
		data, _, err := k.GetStringValue(name)
		if err != nil {
			// Non-string values cannot launch anything.
			if errors.Is(err, registry.ErrUnexpectedType) {
				continue
			}
			return values, classify(err)
		}
		values = append(values, Value{Name: name, Data: data})
	}
	return values, nil
}

func (systemStore) DeleteValue(h Hive, path, name string) error {
	k, err := registry.OpenKey(rootKey(h), path, registry.SET_VALUE)
	if err != nil {
		return classify(err)
	}
	defer k.Close()
	if err := k.DeleteValue(name); err != nil {
		return classify(err)
	}
	return nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, registry.ErrNotExist):
		return fmt.Errorf("%v: %w", err, startup.ErrNotFound)
	case errors.Is(err, windows.ERROR_ACCESS_DENIED):
		return fmt.Errorf("%v: %w", err, startup.ErrPermissionDenied)
	default:
		return err
	}
}
