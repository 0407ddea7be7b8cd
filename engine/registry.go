// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package engine

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var ErrUnknownBackend = errors.New("unknown proving backend")

// Backend is a named engine factory.
type Backend struct {
	Name    string
	Factory Factory
}

var (
	registryMu sync.RWMutex

	// registeredBackends is kept sorted by name for deterministic iteration
	registeredBackends = make([]Backend, 0)
)

// RegisterBackend makes a backend available by name.
func RegisterBackend(b Backend) error {
	if b.Name == "" {
		return errors.New("backend name is empty")
	}
	if b.Factory == nil {
		return fmt.Errorf("backend %s has no factory", b.Name)
	}

	registryMu.Lock()
	defer registryMu.Unlock()
	for _, registered := range registeredBackends {
		if registered.Name == b.Name {
			return fmt.Errorf("name %s already used by a proving backend", b.Name)
		}
	}
	registeredBackends = append(registeredBackends, b)
	sort.Slice(registeredBackends, func(i, j int) bool {
		return registeredBackends[i].Name < registeredBackends[j].Name
	})
	return nil
}

// GetBackend looks a backend up by name.
func GetBackend(name string) (Backend, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	for _, b := range registeredBackends {
		if b.Name == name {
			return b, true
		}
	}
	return Backend{}, false
}

// LookupFactory returns the factory registered under name or an error
// listing the known backends.
func LookupFactory(name string) (Factory, error) {
	if b, ok := GetBackend(name); ok {
		return b.Factory, nil
	}
	return nil, fmt.Errorf("%w %q (registered: %v)", ErrUnknownBackend, name, BackendNames())
}

// RegisteredBackends returns all backends sorted by name.
func RegisteredBackends() []Backend {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return append([]Backend(nil), registeredBackends...)
}

// BackendNames lists registered backend names.
func BackendNames() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, len(registeredBackends))
	for i, b := range registeredBackends {
		names[i] = b.Name
	}
	return names
}
