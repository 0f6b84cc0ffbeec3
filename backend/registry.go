// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package backend

import (
	"fmt"
	"slices"
	"sync"
)

// Factory opens a new device.
type Factory func(cfg Config) (Device, error)

// registry holds registered backends.
var (
	registryMu sync.RWMutex
	backends   = make(map[string]Factory)
	// Priority order for backend selection (first that opens wins).
	backendPriority = []string{BackendNative, BackendMemory}
)

// Register registers a backend factory with the given name.
// This is typically called from init() functions in backend packages.
// If a backend with the same name is already registered, it will be replaced.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	backends[name] = factory
}

// Unregister removes a backend from the registry.
// This is useful for testing.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(backends, name)
}

// Available returns the sorted list of registered backend names.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// IsRegistered checks if a backend with the given name is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := backends[name]
	return ok
}

// Open opens the named backend. An empty name selects the first backend in
// priority order that opens successfully (native > memory, then any other).
func Open(name string, cfg Config) (Device, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	if name != "" {
		factory, ok := backends[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrBackendNotAvailable, name)
		}
		return factory(cfg)
	}

	var firstErr error
	tried := make(map[string]bool, len(backendPriority))
	for _, n := range backendPriority {
		factory, ok := backends[n]
		if !ok {
			continue
		}
		tried[n] = true
		dev, err := factory(cfg)
		if err == nil {
			return dev, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}

	// Fallback: any other registered backend
	for n, factory := range backends {
		if tried[n] {
			continue
		}
		if dev, err := factory(cfg); err == nil {
			return dev, nil
		} else if firstErr == nil {
			firstErr = err
		}
	}

	if firstErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrBackendNotAvailable, firstErr)
	}
	return nil, ErrBackendNotAvailable
}
