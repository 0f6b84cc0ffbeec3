// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package native

import (
	"fmt"

	"github.com/gogpu/tiledtex/gpucore"
	"github.com/gogpu/wgpu/hal"
)

// Texture is a sampled RGBA8 texture on a HAL device.
//
// The view covers every mip level. The sampler is shared by all textures of
// the device with the same filter modes and is owned by the Device.
type Texture struct {
	owner   *Device
	raw     hal.Texture
	view    hal.TextureView
	sampler hal.Sampler
	desc    gpucore.TextureDescriptor
	mips    int

	destroyed bool
}

// Width returns the texture width in pixels.
func (t *Texture) Width() int { return t.desc.Width }

// Height returns the texture height in pixels.
func (t *Texture) Height() int { return t.desc.Height }

// Descriptor returns the descriptor the texture was created with.
func (t *Texture) Descriptor() gpucore.TextureDescriptor { return t.desc }

// MipLevels returns the number of mip levels.
func (t *Texture) MipLevels() int { return t.mips }

// Raw returns the underlying HAL texture handle.
//
// Returns nil if the texture has been destroyed.
func (t *Texture) Raw() hal.Texture {
	t.owner.mu.Lock()
	defer t.owner.mu.Unlock()
	if t.destroyed {
		return nil
	}
	return t.raw
}

// View returns the texture view for binding, or nil if destroyed.
func (t *Texture) View() hal.TextureView {
	t.owner.mu.Lock()
	defer t.owner.mu.Unlock()
	if t.destroyed {
		return nil
	}
	return t.view
}

// Sampler returns the sampler matching the texture's filter modes.
// It stays valid until the Device is closed.
func (t *Texture) Sampler() hal.Sampler {
	return t.sampler
}

// IsDestroyed returns true if the texture has been destroyed.
func (t *Texture) IsDestroyed() bool {
	t.owner.mu.Lock()
	defer t.owner.mu.Unlock()
	return t.destroyed
}

// String returns a string representation of the texture.
func (t *Texture) String() string {
	status := "active"
	if t.IsDestroyed() {
		status = "destroyed"
	}
	return fmt.Sprintf("native.Texture[%s %dx%d %d mips %s %s]",
		t.desc.Label, t.desc.Width, t.desc.Height, t.mips, t.desc.Alpha, status)
}
