// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package image

import (
	"errors"
	"fmt"
)

// BytesPerPixel is the size of one RGBA8 pixel.
const BytesPerPixel = 4

// Common errors for region operations.
var (
	// ErrInvalidDimensions is returned when width or height is non-positive.
	ErrInvalidDimensions = errors.New("image: invalid dimensions")

	// ErrInvalidStride is returned when stride is less than minimum required.
	ErrInvalidStride = errors.New("image: stride too small for width")

	// ErrOutOfBounds is returned when a region falls outside the buffer.
	ErrOutOfBounds = errors.New("image: region out of bounds")
)

// checkRegion verifies that the w x h region at (x, y) lies within a buffer
// of length n with the given stride.
func checkRegion(n, stride, x, y, w, h int) error {
	if w <= 0 || h <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, w, h)
	}
	if x < 0 || y < 0 {
		return fmt.Errorf("%w: origin (%d,%d)", ErrOutOfBounds, x, y)
	}
	if stride < (x+w)*BytesPerPixel {
		return fmt.Errorf("%w: stride %d, need %d", ErrInvalidStride, stride, (x+w)*BytesPerPixel)
	}
	// Last byte touched: start of the last row plus its width.
	end := (y+h-1)*stride + (x+w)*BytesPerPixel
	if end > n {
		return fmt.Errorf("%w: region (%d,%d)+(%dx%d) needs %d bytes, have %d",
			ErrOutOfBounds, x, y, w, h, end, n)
	}
	return nil
}

// Extract copies the w x h region at (x, y) of src into a tightly packed
// buffer (w*4 bytes per row). dst is reused when it has enough capacity.
// Reads never leave the region.
func Extract(dst, src []byte, stride, x, y, w, h int) ([]byte, error) {
	if err := checkRegion(len(src), stride, x, y, w, h); err != nil {
		return nil, err
	}

	rowBytes := w * BytesPerPixel
	size := rowBytes * h
	if cap(dst) < size {
		dst = make([]byte, size)
	}
	dst = dst[:size]

	for row := range h {
		off := (y+row)*stride + x*BytesPerPixel
		copy(dst[row*rowBytes:(row+1)*rowBytes], src[off:off+rowBytes])
	}
	return dst, nil
}

// Blit copies a tightly packed w x h buffer into dst at (x, y).
// It is the inverse of Extract.
func Blit(dst []byte, stride int, src []byte, x, y, w, h int) error {
	if err := checkRegion(len(dst), stride, x, y, w, h); err != nil {
		return err
	}
	rowBytes := w * BytesPerPixel
	if len(src) < rowBytes*h {
		return fmt.Errorf("%w: source has %d bytes, need %d", ErrOutOfBounds, len(src), rowBytes*h)
	}

	for row := range h {
		off := (y+row)*stride + x*BytesPerPixel
		copy(dst[off:off+rowBytes], src[row*rowBytes:(row+1)*rowBytes])
	}
	return nil
}

// IsPacked reports whether a buffer with the given stride holds w x h pixels
// with no row padding, so it can be uploaded without copying.
func IsPacked(buf []byte, stride, w, h int) bool {
	return stride == w*BytesPerPixel && len(buf) >= stride*h
}
