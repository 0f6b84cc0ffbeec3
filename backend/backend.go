// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package backend

import (
	"errors"

	"github.com/gogpu/tiledtex/gpucore"
)

// Common backend errors.
var (
	// ErrBackendNotAvailable is returned when a requested backend is not available.
	ErrBackendNotAvailable = errors.New("backend: not available")
)

// Backend names.
const (
	// BackendNative is the gogpu/wgpu HAL backend.
	BackendNative = "native"

	// BackendMemory is the in-memory backend.
	BackendMemory = "memory"
)

// Config holds settings shared by every backend factory.
type Config struct {
	// MaxTextureDimension overrides the device's reported texture limit
	// when positive. Values above the hardware limit are clamped by the backend.
	MaxTextureDimension int
}

// Device is an opened gpucore.Device that owns its underlying GPU resources.
type Device interface {
	gpucore.Device

	// Name returns the backend identifier (e.g., "memory", "native").
	Name() string

	// Close releases the device. It should not be used afterwards.
	Close() error
}
