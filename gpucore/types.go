// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gpucore

import (
	"errors"
	"fmt"
	"math/bits"
)

// BytesPerPixel is the size of one RGBA8 pixel.
const BytesPerPixel = 4

// ErrInvalidDescriptor is returned when a texture descriptor has
// non-positive dimensions or an unknown filter or allocation mode.
var ErrInvalidDescriptor = errors.New("gpucore: invalid texture descriptor")

// FilterMode selects how texels are sampled.
type FilterMode uint8

const (
	// FilterLinear interpolates between neighboring texels.
	FilterLinear FilterMode = iota

	// FilterNearest picks the closest texel.
	FilterNearest
)

// String returns a human-readable name for the filter mode.
func (f FilterMode) String() string {
	switch f {
	case FilterLinear:
		return "Linear"
	case FilterNearest:
		return "Nearest"
	default:
		return fmt.Sprintf("FilterMode(%d)", f)
	}
}

// IsValid reports whether f is a known filter mode.
func (f FilterMode) IsValid() bool {
	return f <= FilterNearest
}

// AllocationMode selects how pixel bytes are interpreted on upload.
// A texture keeps its mode for its whole lifetime; content updates
// are processed the same way as the initial upload.
type AllocationMode uint8

const (
	// AllocationStandard uploads bytes unchanged (straight alpha).
	AllocationStandard AllocationMode = iota

	// AllocationPremultiplied multiplies color channels by alpha during upload.
	AllocationPremultiplied
)

// String returns a human-readable name for the allocation mode.
func (m AllocationMode) String() string {
	switch m {
	case AllocationStandard:
		return "Standard"
	case AllocationPremultiplied:
		return "Premultiplied"
	default:
		return fmt.Sprintf("AllocationMode(%d)", m)
	}
}

// IsValid reports whether m is a known allocation mode.
func (m AllocationMode) IsValid() bool {
	return m <= AllocationPremultiplied
}

// TextureDescriptor describes a texture to allocate.
// Pixel data is always RGBA8, tightly packed (Width*4 bytes per row).
type TextureDescriptor struct {
	// Label is an optional debug name.
	Label string

	// Width and Height are the texture extents in pixels.
	Width  int
	Height int

	// MinFilter and MagFilter select minification and magnification sampling.
	MinFilter FilterMode
	MagFilter FilterMode

	// Mipmaps requests a full mip chain generated from level 0.
	Mipmaps bool

	// Alpha selects standard or premultiplied upload.
	Alpha AllocationMode
}

// Validate checks the descriptor for usable values.
func (d TextureDescriptor) Validate() error {
	if d.Width <= 0 || d.Height <= 0 {
		return fmt.Errorf("%w: size %dx%d", ErrInvalidDescriptor, d.Width, d.Height)
	}
	if !d.MinFilter.IsValid() || !d.MagFilter.IsValid() {
		return fmt.Errorf("%w: filter min=%v mag=%v", ErrInvalidDescriptor, d.MinFilter, d.MagFilter)
	}
	if !d.Alpha.IsValid() {
		return fmt.Errorf("%w: allocation %v", ErrInvalidDescriptor, d.Alpha)
	}
	return nil
}

// ByteSize returns the size of the level 0 pixel data in bytes.
func (d TextureDescriptor) ByteSize() int {
	return d.Width * d.Height * BytesPerPixel
}

// MipLevelCount returns the number of mip levels the texture holds:
// 1 without mipmaps, otherwise enough levels to reach a 1x1 image.
func (d TextureDescriptor) MipLevelCount() int {
	if !d.Mipmaps {
		return 1
	}
	return MipLevelCount(d.Width, d.Height)
}

// MipLevelCount returns 1 + floor(log2(max(width, height))),
// or 0 for non-positive sizes.
func MipLevelCount(width, height int) int {
	m := max(width, height)
	if m <= 0 {
		return 0
	}
	return bits.Len(uint(m))
}

// Texture is an opaque GPU texture handle owned by a single caller.
type Texture interface {
	// Width returns the texture width in pixels.
	Width() int

	// Height returns the texture height in pixels.
	Height() int
}

// Device is the GPU capability used to upload tiled images.
type Device interface {
	// MaxTextureDimension returns the largest width or height a single
	// texture may have.
	MaxTextureDimension() int

	// CreateTexture allocates a texture and uploads pixels as level 0.
	// len(pixels) must equal desc.ByteSize(). The device must not retain
	// pixels after returning.
	CreateTexture(desc TextureDescriptor, pixels []byte) (Texture, error)

	// WriteTexture replaces the whole contents of tex with pixels,
	// processed with the texture's allocation mode. Mip levels are
	// regenerated when the texture has them. The device must not retain
	// pixels after returning.
	WriteTexture(tex Texture, pixels []byte) error

	// DestroyTexture releases tex. Destroying a texture twice is a no-op.
	DestroyTexture(tex Texture)
}
