// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package tiledtex

import (
	"fmt"
	"image"
	"iter"
)

// Partition is the tile grid of a logical image.
//
// Tiles are laid out row-major with a fixed stride of TileWidth x TileHeight.
// Only the last column and the last row may be narrower or shorter; every
// other tile measures exactly TileWidth x TileHeight.
type Partition struct {
	// Columns and Rows are the tile grid counts.
	Columns int
	Rows    int

	// TileWidth and TileHeight are the stride between tile origins.
	TileWidth  int
	TileHeight int

	// Width and Height are the logical image extents.
	Width  int
	Height int
}

// ComputePartition splits a width x height image into tiles no larger
// than limit in either dimension.
func ComputePartition(width, height, limit int) (Partition, error) {
	if width <= 0 || height <= 0 {
		return Partition{}, fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	if limit <= 0 {
		return Partition{}, fmt.Errorf("%w: %d", ErrInvalidLimit, limit)
	}

	return Partition{
		Columns:    ceilDiv(width, limit),
		Rows:       ceilDiv(height, limit),
		TileWidth:  min(limit, width),
		TileHeight: min(limit, height),
		Width:      width,
		Height:     height,
	}, nil
}

func ceilDiv(a, b int) int {
	return (a-1)/b + 1
}

// Len returns the number of tiles.
func (p Partition) Len() int {
	return p.Columns * p.Rows
}

// IsSingle reports whether the partition is the degenerate 1x1 grid.
func (p Partition) IsSingle() bool {
	return p.Columns == 1 && p.Rows == 1
}

// Size returns the logical image extents.
func (p Partition) Size() (width, height int) {
	return p.Width, p.Height
}

// Rect returns the pixel rectangle of the tile at (row, col) in logical
// image space, clipped to the image bounds. It returns the empty rectangle
// for positions outside the grid.
func (p Partition) Rect(row, col int) image.Rectangle {
	if row < 0 || row >= p.Rows || col < 0 || col >= p.Columns {
		return image.Rectangle{}
	}
	x0 := col * p.TileWidth
	y0 := row * p.TileHeight
	return image.Rect(x0, y0, min(x0+p.TileWidth, p.Width), min(y0+p.TileHeight, p.Height))
}

// TileRect returns the pixel rectangle of the tile at the row-major index.
func (p Partition) TileRect(index int) image.Rectangle {
	if index < 0 || index >= p.Len() {
		return image.Rectangle{}
	}
	return p.Rect(index/p.Columns, index%p.Columns)
}

// Position returns the grid position of the row-major index.
func (p Partition) Position(index int) (row, col int) {
	return index / p.Columns, index % p.Columns
}

// All returns an iterator over tile indices and rectangles in row-major
// order (row outer, column inner).
func (p Partition) All() iter.Seq2[int, image.Rectangle] {
	return func(yield func(int, image.Rectangle) bool) {
		index := 0
		for row := range p.Rows {
			for col := range p.Columns {
				if !yield(index, p.Rect(row, col)) {
					return
				}
				index++
			}
		}
	}
}

// Locate maps a logical pixel to the index of the tile containing it and
// the pixel's offset within that tile. ok is false outside the image.
func (p Partition) Locate(x, y int) (index int, local image.Point, ok bool) {
	if x < 0 || y < 0 || x >= p.Width || y >= p.Height || p.TileWidth <= 0 || p.TileHeight <= 0 {
		return 0, image.Point{}, false
	}
	col := x / p.TileWidth
	row := y / p.TileHeight
	local = image.Pt(x-col*p.TileWidth, y-row*p.TileHeight)
	return row*p.Columns + col, local, true
}

// String returns a compact description of the grid.
func (p Partition) String() string {
	return fmt.Sprintf("Partition[%dx%d image, %dx%d tiles, stride %dx%d]",
		p.Width, p.Height, p.Columns, p.Rows, p.TileWidth, p.TileHeight)
}
