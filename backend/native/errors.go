// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package native

import "errors"

// Package errors for the HAL backend.
var (
	// ErrNilHALDevice is returned when creating a device without a HAL device or queue.
	ErrNilHALDevice = errors.New("native: HAL device or queue is nil")

	// ErrNoGPU is returned when no GPU adapter is available.
	ErrNoGPU = errors.New("native: no GPU adapter available")

	// ErrNoHALProvider is returned when a gpucontext.DeviceProvider does not
	// expose HAL types.
	ErrNoHALProvider = errors.New("native: provider does not expose HAL device and queue")

	// ErrDeviceClosed is returned after Close.
	ErrDeviceClosed = errors.New("native: device closed")

	// ErrForeignTexture is returned for textures not created by this device.
	ErrForeignTexture = errors.New("native: texture belongs to another device")

	// ErrTextureDestroyed is returned when operating on a destroyed texture.
	ErrTextureDestroyed = errors.New("native: texture has been destroyed")

	// ErrInvalidTextureSize is returned when texture dimensions exceed the limit.
	ErrInvalidTextureSize = errors.New("native: invalid texture size")

	// ErrDataSize is returned when the pixel buffer length does not match the texture.
	ErrDataSize = errors.New("native: pixel data size mismatch")
)
