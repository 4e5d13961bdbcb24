// Package services exposes auto-start Windows services as startup entries.
package services

import (
	"context"
	"fmt"
	"strings"

	"deepboot/internal/backend"
	"deepboot/internal/startup"
)

// StartType mirrors the Service Control Manager start modes we care about.
type StartType int

const (
	StartOther StartType = iota
	StartAutomatic
	StartManual
	StartDisabled
)

// Service is what the manager reports for one installed service.
type Service struct {
	Name        string
	DisplayName string
	BinaryPath  string
	Description string
	StartType   StartType
}

// Manager abstracts the Service Control Manager.
type Manager interface {
	List(ctx context.Context) ([]Service, error)
	SetStartType(ctx context.Context, name string, st StartType) error
}

// systemServices are built-in Windows services never offered for disabling.
var systemServices = toLowerSet([]string{
	"AudioSrv", "BITS", "Browser", "CryptSvc", "DcomLaunch", "Dhcp", "Dnscache",
	"EventLog", "EventSystem", "FontCache", "gpsvc", "hidserv", "IKEEXT", "iphlpsvc",
	"KeyIso", "LanmanServer", "LanmanWorkstation", "lmhosts", "MMCSS", "MpsSvc",
	"MSiSCSI", "Netlogon", "netprofm", "NlaSvc", "nsi", "p2pimsvc", "p2psvc",
	"PlugPlay", "PolicyAgent", "ProfSvc", "RasMan", "RemoteAccess", "RpcEptMapper",
	"RpcSs", "SamSs", "Schedule", "SENS", "SessionEnv", "Spooler", "SysMain",
	"Themes", "TrkWks", "TrustedInstaller", "UmRdpService", "VaultSvc", "VSS",
	"W32Time", "Wcmsvc", "WcsPlugInService", "WdiServiceHost", "Winmgmt", "WinRM",
	"WlanSvc", "wmiApSrv", "WMPNetworkSvc", "WSearch", "wuauserv", "WudfSvc",
	"wscsvc", "WbioSrvc", "WinHttpAutoProxySvc", "WerSvc", "WebClient", "WaaSMedicSvc",
	"UsoSvc", "UevAgentService", "TabletInputService", "StiSvc", "SstpSvc",
	"SSDPSRV", "ShellHWDetection", "SCardSvr", "SCPolicySvc", "RpcLocator",
	"RemoteRegistry", "RasAuto", "QWAVE", "PNRPsvc", "PcaSvc",
})

func toLowerSet(xs []string) map[string]struct{} {
	m := make(map[string]struct{}, len(xs))
	for _, x := range xs {
		m[strings.ToLower(x)] = struct{}{}
	}
	return m
}

// IsSystemService reports whether name is a built-in Windows service.
func IsSystemService(name string) bool {
	_, ok := systemServices[strings.ToLower(name)]
	return ok
}

// Backend serves startup.Service entries.
type Backend struct {
	mgr Manager
}

func New(mgr Manager) *Backend {
	return &Backend{mgr: mgr}
}

func (b *Backend) Capabilities() backend.Capabilities {
	return backend.Capabilities{CanRemove: false}
}

// Scan lists third-party services that start automatically.
func (b *Backend) Scan(ctx context.Context) ([]startup.Entry, error) {
	svcs, err := b.mgr.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	entries := make([]startup.Entry, 0, len(svcs))
	for _, s := range svcs {
		if s.StartType != StartAutomatic || IsSystemService(s.Name) || strings.TrimSpace(s.BinaryPath) == "" {
			continue
		}
		name := s.DisplayName
		if strings.TrimSpace(name) == "" {
			name = s.Name
		}
		entries = append(entries, startup.Entry{
			Name:        name,
			Command:     s.BinaryPath,
			Source:      startup.Service,
			Enabled:     true,
			Description: s.Description,
			BackendKey:  s.Name,
		})
	}
	return entries, nil
}

// Disable switches the service start type to disabled.
func (b *Backend) Disable(ctx context.Context, e startup.Entry) error {
	if strings.TrimSpace(e.BackendKey) == "" {
		return fmt.Errorf("service entry %q has no service name: %w", e.Name, startup.ErrNotFound)
	}
	if err := b.mgr.SetStartType(ctx, e.BackendKey, StartDisabled); err != nil {
		return fmt.Errorf("disable service %s: %w", e.BackendKey, err)
	}
	return nil
}

// Remove is refused; deleting services is outside what this tool will do.
func (b *Backend) Remove(context.Context, startup.Entry) error {
	return fmt.Errorf("service removal: %w", startup.ErrNotSupported)
}
