package app

import (
	"fmt"

	"deepboot/internal/whitelist"
)

// WhitelistParams names one whitelist value.
type WhitelistParams struct {
	Kind  string
	Value string
}

// WhitelistResult reports the state after an edit.
type WhitelistResult struct {
	Kind  whitelist.Kind
	Value string
	Path  string
	Lists whitelist.Lists
}

// WhitelistList returns the current lists.
func (a *App) WhitelistList() (WhitelistResult, error) {
	m, err := a.manager()
	if err != nil {
		return WhitelistResult{}, err
	}
	return WhitelistResult{Path: m.Path(), Lists: m.Lists()}, nil
}

// WhitelistAdd exempts a value from scans and actions.
func (a *App) WhitelistAdd(params WhitelistParams) (WhitelistResult, error) {
	return a.editWhitelist(params, (*whitelist.Manager).Allow)
}

// WhitelistRemove drops a value from the whitelist.
func (a *App) WhitelistRemove(params WhitelistParams) (WhitelistResult, error) {
	return a.editWhitelist(params, (*whitelist.Manager).Disallow)
}

func (a *App) editWhitelist(params WhitelistParams, edit func(*whitelist.Manager, whitelist.Kind, string) error) (WhitelistResult, error) {
	var result WhitelistResult
	m, err := a.manager()
	if err != nil {
		return result, err
	}
	kind, err := whitelist.ParseKind(params.Kind)
	if err != nil {
		return result, err
	}
	if err := edit(m, kind, params.Value); err != nil {
		return result, fmt.Errorf("update whitelist: %w", err)
	}
	result.Kind = kind
	result.Value = params.Value
	result.Path = m.Path()
	result.Lists = m.Lists()
	return result, nil
}
