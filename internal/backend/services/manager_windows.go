//go:build windows

package services

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sys/windows"
	"golang.org/x/sys/windows/svc/mgr"

	"deepboot/internal/startup"
)

type scm struct{}

// SystemManager talks to the local Service Control Manager with the least
// access each call needs, so listing works without elevation.
func SystemManager() Manager { return scm{} }

func connect(access uint32) (*mgr.Mgr, error) {
	h, err := windows.OpenSCManager(nil, nil, access)
	if err != nil {
		return nil, classify(err)
	}
	return &mgr.Mgr{Handle: h}, nil
}

func open(m *mgr.Mgr, name string, access uint32) (*mgr.Service, error) {
	p, err := windows.UTF16PtrFromString(name)
	if err != nil {
		return nil, err
	}
	h, err := windows.OpenService(m.Handle, p, access)
	if err != nil {
		return nil, classify(err)
	}
	return &mgr.Service{Name: name, Handle: h}, nil
}

func (scm) List(ctx context.Context) ([]Service, error) {
	m, err := connect(windows.SC_MANAGER_CONNECT | windows.SC_MANAGER_ENUMERATE_SERVICE)
	if err != nil {
		return nil, err
	}
	defer m.Disconnect()

	names, err := m.ListServices()
	if err != nil {
		return nil, classify(err)
	}
	out := make([]Service, 0, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		s, err := open(m, name, windows.SERVICE_QUERY_CONFIG)
		if err != nil {
			continue
		}
		cfg, err := s.Config()
		s.Close()
		if err != nil {
			continue
		}
		if cfg.ServiceType&(windows.SERVICE_WIN32_OWN_PROCESS|windows.SERVICE_WIN32_SHARE_PROCESS) == 0 {
			continue
		}
		out = append(out, Service{
			Name:        name,
			DisplayName: cfg.DisplayName,
			BinaryPath:  cfg.BinaryPathName,
			Description: cfg.Description,
			StartType:   fromSCM(cfg.StartType),
		})
	}
	return out, nil
}

func (scm) SetStartType(ctx context.Context, name string, st StartType) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m, err := connect(windows.SC_MANAGER_CONNECT)
	if err != nil {
		return err
	}
	defer m.Disconnect()

	s, err := open(m, name, windows.SERVICE_QUERY_CONFIG|windows.SERVICE_CHANGE_CONFIG)
	if err != nil {
		return err
	}
	defer s.Close()

	cfg, err := s.Config()
	if err != nil {
		return classify(err)
	}
	cfg.StartType = toSCM(st)
	if err := s.UpdateConfig(cfg); err != nil {
		return classify(err)
	}
	return nil
}

func fromSCM(v uint32) StartType {
	switch v {
	case mgr.StartAutomatic:
		return StartAutomatic
	case mgr.StartManual:
		return StartManual
	case mgr.StartDisabled:
		return StartDisabled
	default:
		return StartOther
	}
}

func toSCM(st StartType) uint32 {
	switch st {
	case StartAutomatic:
		return mgr.StartAutomatic
	case StartManual:
		return mgr.StartManual
	default:
		return mgr.StartDisabled
	}
}

func classify(err error) error {
	switch {
	case errors.Is(err, windows.ERROR_ACCESS_DENIED):
		return fmt.Errorf("%v: %w", err, startup.ErrPermissionDenied)
	case errors.Is(err, windows.ERROR_SERVICE_DOES_NOT_EXIST):
		return fmt.Errorf("%v: %w", err, startup.ErrNotFound)
	default:
		return err
	}
}
