// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package tiledtex

import (
	"errors"
	"fmt"
	"image"
	"iter"
	"slices"

	"github.com/gogpu/tiledtex/gpucore"
	pix "github.com/gogpu/tiledtex/internal/image"
)

// TiledTexture is one logical raster image stored as a grid of GPU textures.
//
// Each tile is an independent texture no larger than the device's maximum
// texture dimension. The grid is fixed at Build time; Refresh replaces tile
// contents in place without reallocating or repartitioning.
//
// TiledTexture is NOT safe for concurrent use. All calls must happen on the
// goroutine that owns the device.
type TiledTexture struct {
	part  Partition
	tiles []gpucore.Texture // row-major
	opts  buildOptions

	released bool
}

// Tile describes one tile for a compositor: its grid position, its pixel
// rectangle in logical image space and its texture handle.
type Tile struct {
	Index   int
	Row     int
	Column  int
	Rect    image.Rectangle
	Texture gpucore.Texture
}

// Build uploads img to dev as a grid of textures.
//
// The grid is derived from dev.MaxTextureDimension(). Every tile gets the
// same magnification filter and allocation mode; minification is linear and
// mipmaps are generated for every tile.
//
// Build is all-or-nothing: if any tile allocation fails, the tiles already
// allocated are destroyed and a *BuildError is returned.
func Build(dev gpucore.Device, img *image.RGBA, opts ...BuildOption) (*TiledTexture, error) {
	if dev == nil {
		return nil, ErrNilDevice
	}
	if img == nil || img.Rect.Empty() {
		return nil, fmt.Errorf("%w: nil or empty image", ErrInvalidImage)
	}

	o := defaultBuildOptions()
	for _, opt := range opts {
		opt(&o)
	}

	part, err := ComputePartition(img.Rect.Dx(), img.Rect.Dy(), dev.MaxTextureDimension())
	if err != nil {
		return nil, err
	}

	log := Logger()
	log.Debug("tiledtex: building",
		"width", part.Width, "height", part.Height,
		"columns", part.Columns, "rows", part.Rows,
		"tile_width", part.TileWidth, "tile_height", part.TileHeight,
		"mag_filter", o.magFilter, "alloc", o.alloc)

	tiles := make([]gpucore.Texture, 0, part.Len())
	for index, rect := range part.All() {
		tex, err := createTile(dev, img, index, rect, o)
		if err != nil {
			row, col := part.Position(index)
			for _, t := range tiles {
				dev.DestroyTexture(t)
			}
			log.Warn("tiledtex: build rolled back",
				"tile", index, "allocated", len(tiles), "error", err)
			return nil, &BuildError{Index: index, Row: row, Column: col, Rect: rect, Err: err}
		}
		tiles = append(tiles, tex)
	}

	log.Info("tiledtex: built", "tiles", len(tiles), "width", part.Width, "height", part.Height)
	return &TiledTexture{part: part, tiles: tiles, opts: o}, nil
}

// createTile extracts rect from img and allocates a texture from it.
func createTile(dev gpucore.Device, img *image.RGBA, index int, rect image.Rectangle, o buildOptions) (gpucore.Texture, error) {
	desc := gpucore.TextureDescriptor{
		Label:     fmt.Sprintf("%s_%d", o.label, index),
		Width:     rect.Dx(),
		Height:    rect.Dy(),
		MinFilter: gpucore.FilterLinear,
		MagFilter: o.magFilter,
		Mipmaps:   true,
		Alpha:     o.alloc,
	}
	if err := desc.Validate(); err != nil {
		return nil, err
	}

	buf, release, err := tilePixels(img, rect)
	if err != nil {
		return nil, err
	}
	defer release()

	return dev.CreateTexture(desc, buf)
}

// tilePixels returns the tightly packed pixels of rect (logical space) and
// a function returning any scratch buffer to the pool. When img already holds
// exactly rect with no row padding, its buffer is returned without copying.
func tilePixels(img *image.RGBA, rect image.Rectangle) ([]byte, func(), error) {
	w, h := rect.Dx(), rect.Dy()
	x := rect.Min.X
	y := rect.Min.Y

	// Pix starts at img.Rect.Min, so logical coordinates index it directly.
	if x == 0 && y == 0 && w == img.Rect.Dx() && h == img.Rect.Dy() && pix.IsPacked(img.Pix, img.Stride, w, h) {
		return img.Pix[:w*h*pix.BytesPerPixel], func() {}, nil
	}

	scratch := pix.GetFromDefault(w * h * pix.BytesPerPixel)
	buf, err := pix.Extract(scratch, img.Pix, img.Stride, x, y, w, h)
	if err != nil {
		pix.PutToDefault(scratch)
		return nil, nil, err
	}
	return buf, func() { pix.PutToDefault(buf) }, nil
}

// Refresh replaces the contents of every tile with the matching region of img.
//
// img must have the size the texture was built with; otherwise Refresh
// returns ErrSizeMismatch and changes nothing. The partition and the tile
// handles never change.
//
// A tile whose update fails is logged and skipped; the remaining tiles are
// still updated. The returned error joins every *UpdateError and is nil when
// all tiles were updated. The texture stays valid either way.
func (t *TiledTexture) Refresh(dev gpucore.Device, img *image.RGBA) error {
	if dev == nil {
		return ErrNilDevice
	}
	if t.released {
		return ErrReleased
	}
	if img == nil {
		return fmt.Errorf("%w: nil image", ErrInvalidImage)
	}
	if w, h := img.Rect.Dx(), img.Rect.Dy(); w != t.part.Width || h != t.part.Height {
		return fmt.Errorf("%w: got %dx%d, built for %dx%d", ErrSizeMismatch, w, h, t.part.Width, t.part.Height)
	}

	log := Logger()

	// Single tile: one whole-image update.
	if t.part.IsSingle() {
		rect := t.part.Rect(0, 0)
		if err := t.writeTile(dev, img, 0, rect); err != nil {
			uerr := &UpdateError{Index: 0, Rect: rect, Err: err}
			log.Error("tiledtex: tile update failed", "tile", 0, "error", err)
			return uerr
		}
		return nil
	}

	var errs []error
	for index, rect := range t.part.All() {
		if err := t.writeTile(dev, img, index, rect); err != nil {
			row, col := t.part.Position(index)
			log.Error("tiledtex: tile update failed",
				"tile", index, "row", row, "col", col, "error", err)
			errs = append(errs, &UpdateError{Index: index, Row: row, Column: col, Rect: rect, Err: err})
		}
	}
	if len(errs) > 0 {
		log.Warn("tiledtex: refresh incomplete", "failed", len(errs), "tiles", len(t.tiles))
	}
	return errors.Join(errs...)
}

func (t *TiledTexture) writeTile(dev gpucore.Device, img *image.RGBA, index int, rect image.Rectangle) error {
	buf, release, err := tilePixels(img, rect)
	if err != nil {
		return err
	}
	defer release()
	return dev.WriteTexture(t.tiles[index], buf)
}

// Destroy releases every tile. Destroy is idempotent.
// The geometry accessors keep reporting the built size afterwards.
func (t *TiledTexture) Destroy(dev gpucore.Device) {
	if t == nil || t.released {
		return
	}
	t.released = true
	for _, tex := range t.tiles {
		dev.DestroyTexture(tex)
	}
	t.tiles = nil
}

// IsReleased returns true if Destroy has been called.
func (t *TiledTexture) IsReleased() bool {
	return t.released
}

// Size returns the logical image size.
func (t *TiledTexture) Size() (width, height int) {
	return t.part.Width, t.part.Height
}

// Width returns the logical image width in pixels.
func (t *TiledTexture) Width() int {
	return t.part.Width
}

// Height returns the logical image height in pixels.
func (t *TiledTexture) Height() int {
	return t.part.Height
}

// Columns returns the number of tile columns.
func (t *TiledTexture) Columns() int { return t.part.Columns }

// Rows returns the number of tile rows.
func (t *TiledTexture) Rows() int { return t.part.Rows }

// TileWidth returns the horizontal stride between tile origins.
func (t *TiledTexture) TileWidth() int { return t.part.TileWidth }

// TileHeight returns the vertical stride between tile origins.
func (t *TiledTexture) TileHeight() int { return t.part.TileHeight }

// Partition returns the tile grid.
func (t *TiledTexture) Partition() Partition {
	return t.part
}

// Len returns the number of live tiles (0 after Destroy).
func (t *TiledTexture) Len() int {
	return len(t.tiles)
}

// Filter returns the magnification filter the tiles were built with.
func (t *TiledTexture) Filter() gpucore.FilterMode {
	return t.opts.magFilter
}

// Allocation returns the allocation mode the tiles were built with.
func (t *TiledTexture) Allocation() gpucore.AllocationMode {
	return t.opts.alloc
}

// Tile returns the texture at the row-major index, or nil if out of range.
func (t *TiledTexture) Tile(index int) gpucore.Texture {
	if index < 0 || index >= len(t.tiles) {
		return nil
	}
	return t.tiles[index]
}

// Tiles returns a copy of the tile handles in row-major order.
func (t *TiledTexture) Tiles() []gpucore.Texture {
	return slices.Clone(t.tiles)
}

// All returns an iterator over the tiles in row-major order.
func (t *TiledTexture) All() iter.Seq2[int, Tile] {
	return func(yield func(int, Tile) bool) {
		for index, rect := range t.part.All() {
			if index >= len(t.tiles) {
				return
			}
			row, col := t.part.Position(index)
			tile := Tile{Index: index, Row: row, Column: col, Rect: rect, Texture: t.tiles[index]}
			if !yield(index, tile) {
				return
			}
		}
	}
}

// String returns a compact description of the tiled texture.
func (t *TiledTexture) String() string {
	status := "active"
	if t.released {
		status = "released"
	}
	return fmt.Sprintf("TiledTexture[%dx%d, %dx%d tiles, %s %s, %s]",
		t.part.Width, t.part.Height, t.part.Columns, t.part.Rows,
		t.opts.magFilter, t.opts.alloc, status)
}
