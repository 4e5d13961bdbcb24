package main

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"deepboot/internal/app"
)

// selectorFlags are the entry selectors shared by scan, disable, rm, stats,
// export and backup.
type selectorFlags struct {
	names    []string
	search   string
	sources  []string
	enabled  bool
	disabled bool
	timeout  int
}

func (f *selectorFlags) bind(cmd *cobra.Command, withNames bool) {
	if withNames {
		cmd.Flags().StringSliceVar(&f.names, "name", nil, "Match entries with these exact names (repeatable)")
	}
	cmd.Flags().StringVar(&f.search, "search", "", "Substring to match against name, command and description")
	cmd.Flags().StringSliceVar(&f.sources, "source", nil, "Restrict to sources: run, runonce, runservices, wow64, service, tasks (repeatable)")
	cmd.Flags().BoolVar(&f.enabled, "enabled", false, "Only enabled entries")
	cmd.Flags().BoolVar(&f.disabled, "disabled", false, "Only disabled entries")
	cmd.Flags().IntVar(&f.timeout, "timeout", 0, "Timeout in seconds for backend calls (0 uses the configured scan timeout)")
}

func (f *selectorFlags) reset() {
	*f = selectorFlags{}
}

func (f selectorFlags) selectors() app.Selectors {
	return app.Selectors{
		Names:        append([]string(nil), f.names...),
		Search:       f.search,
		Sources:      append([]string(nil), f.sources...),
		EnabledOnly:  f.enabled,
		DisabledOnly: f.disabled,
	}
}

func (f selectorFlags) duration() (time.Duration, error) {
	if f.timeout < 0 {
		return 0, errors.New("timeout must not be negative")
	}
	return time.Duration(f.timeout) * time.Second, nil
}
