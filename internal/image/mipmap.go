// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package image

import "math/bits"

// MipLevel is one level of a mipmap chain.
type MipLevel struct {
	Pix    []byte // tightly packed RGBA8
	Width  int
	Height int
}

// MipmapChain holds pre-computed downscaled versions of an image.
//
// Each level is half the size of the previous level (both width and height,
// clamped to 1). Level 0 is the original full-resolution image. The chain
// continues until both dimensions reach 1 pixel.
type MipmapChain struct {
	levels []MipLevel // Level 0 = original size
}

// GenerateMipmaps creates a mipmap chain from a tightly packed RGBA8 image.
//
// Uses a box filter (2x2 average) to downsample each level. The source
// becomes level 0 and is not copied.
//
// Returns nil if the image is empty or pix is too small.
func GenerateMipmaps(pix []byte, width, height int) *MipmapChain {
	if width <= 0 || height <= 0 || len(pix) < width*height*BytesPerPixel {
		return nil
	}

	numLevels := bits.Len(uint(max(width, height)))
	chain := &MipmapChain{
		levels: make([]MipLevel, numLevels),
	}
	chain.levels[0] = MipLevel{Pix: pix, Width: width, Height: height}

	for i := 1; i < numLevels; i++ {
		chain.levels[i] = downsample(chain.levels[i-1])
	}
	return chain
}

// downsample creates a half-size version of src using a box filter.
// The returned buffer comes from the default pool.
func downsample(src MipLevel) MipLevel {
	srcW, srcH := src.Width, src.Height
	dstW := max(1, srcW/2)
	dstH := max(1, srcH/2)
	dst := GetFromDefault(dstW * dstH * BytesPerPixel)

	at := func(x, y int) int { return (y*srcW + x) * BytesPerPixel }

	for dy := range dstH {
		sy0 := min(dy*2, srcH-1)
		sy1 := min(dy*2+1, srcH-1)
		for dx := range dstW {
			sx0 := min(dx*2, srcW-1)
			sx1 := min(dx*2+1, srcW-1)

			p0, p1, p2, p3 := at(sx0, sy0), at(sx1, sy0), at(sx0, sy1), at(sx1, sy1)
			out := (dy*dstW + dx) * BytesPerPixel
			for c := range BytesPerPixel {
				sum := uint16(src.Pix[p0+c]) + uint16(src.Pix[p1+c]) +
					uint16(src.Pix[p2+c]) + uint16(src.Pix[p3+c])
				dst[out+c] = byte(sum / 4)
			}
		}
	}

	return MipLevel{Pix: dst, Width: dstW, Height: dstH}
}

// Level returns the mipmap at the specified level.
// Level 0 is the original image. Returns the zero MipLevel if out of range.
func (m *MipmapChain) Level(n int) MipLevel {
	if m == nil || n < 0 || n >= len(m.levels) {
		return MipLevel{}
	}
	return m.levels[n]
}

// NumLevels returns the total number of mipmap levels in the chain.
// Returns 0 if the chain is nil.
func (m *MipmapChain) NumLevels() int {
	if m == nil {
		return 0
	}
	return len(m.levels)
}

// Release returns all mipmap buffers to the pool except level 0.
//
// Level 0 was provided by the caller and is not returned to the pool.
// After calling Release, the chain should not be used.
func (m *MipmapChain) Release() {
	if m == nil {
		return
	}
	for i := 1; i < len(m.levels); i++ {
		PutToDefault(m.levels[i].Pix)
	}
	m.levels = nil
}
