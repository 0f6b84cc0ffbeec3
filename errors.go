// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package tiledtex

import (
	"errors"
	"fmt"
	"image"
)

// Common errors returned by tiledtex operations.
var (
	// ErrNilDevice is returned when a nil gpucore.Device is passed.
	ErrNilDevice = errors.New("tiledtex: nil device")

	// ErrInvalidImage is returned when the raster image is nil or empty.
	ErrInvalidImage = errors.New("tiledtex: invalid image")

	// ErrInvalidSize is returned when partition dimensions are non-positive.
	ErrInvalidSize = errors.New("tiledtex: invalid image size")

	// ErrInvalidLimit is returned when the hardware tile limit is non-positive.
	ErrInvalidLimit = errors.New("tiledtex: invalid tile limit")

	// ErrSizeMismatch is returned when Refresh receives an image whose size
	// differs from the size the tiles were built for.
	ErrSizeMismatch = errors.New("tiledtex: image size does not match tiled texture")

	// ErrReleased is returned when operating on a destroyed tiled texture.
	ErrReleased = errors.New("tiledtex: tiled texture has been released")

	// ErrBuild matches every *BuildError.
	ErrBuild = errors.New("tiledtex: build failed")

	// ErrUpdate matches every *UpdateError.
	ErrUpdate = errors.New("tiledtex: tile update failed")
)

// BuildError reports the tile whose allocation aborted a build.
// All tiles allocated before it have been released.
type BuildError struct {
	Index  int             // row-major tile index
	Row    int             // grid row
	Column int             // grid column
	Rect   image.Rectangle // tile rectangle in logical image space
	Err    error           // underlying device error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("tiledtex: build failed at tile %d (row %d, col %d, %v): %v",
		e.Index, e.Row, e.Column, e.Rect, e.Err)
}

// Unwrap returns ErrBuild and the device error, so errors.Is matches both.
func (e *BuildError) Unwrap() []error {
	return []error{ErrBuild, e.Err}
}

// UpdateError reports a tile whose content update failed during Refresh.
// The tile keeps its previous contents.
type UpdateError struct {
	Index  int
	Row    int
	Column int
	Rect   image.Rectangle
	Err    error
}

func (e *UpdateError) Error() string {
	return fmt.Sprintf("tiledtex: update failed at tile %d (row %d, col %d, %v): %v",
		e.Index, e.Row, e.Column, e.Rect, e.Err)
}

// Unwrap returns ErrUpdate and the device error, so errors.Is matches both.
func (e *UpdateError) Unwrap() []error {
	return []error{ErrUpdate, e.Err}
}
