// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package tiledtex uploads raster images larger than the GPU's maximum
// texture dimension as a grid of cooperating textures.
//
// # Overview
//
// A [TiledTexture] owns the textures of one logical image plus the grid
// geometry that maps logical pixels to tiles. [Build] allocates the grid
// from an [image.RGBA]; [TiledTexture.Refresh] replaces tile contents in
// place, for animation frames or edits of the same size, without
// reallocating GPU memory.
//
// # Quick Start
//
//	import (
//	    "github.com/gogpu/tiledtex"
//	    "github.com/gogpu/tiledtex/backend/native"
//	)
//
//	dev, _ := native.NewDevice(halDevice, halQueue, limits)
//	tt, err := tiledtex.Build(dev, img)
//	if err != nil {
//	    return err
//	}
//	defer tt.Destroy(dev)
//
//	for _, tile := range tt.All() {
//	    draw(tile.Texture, tile.Rect.Min)
//	}
//
// # Partition
//
// For an image of width W, height H and device limit L the grid has
// ceil(W/L) columns and ceil(H/L) rows with a stride of min(L, W) by
// min(L, H). Only the last column and the last row are clipped:
//
//	5000x3000 @ 2048  ->  3x2 tiles, last column 904 wide, last row 952 high
//	 800x600  @ 2048  ->  1x1, a single texture for the whole image
//
// # Failure Semantics
//
// Build is all-or-nothing: a failed tile allocation destroys every tile
// allocated so far and returns a [*BuildError]. Refresh degrades gracefully:
// a failed tile update is logged, the other tiles are still updated and the
// texture stays valid.
//
// # Threading
//
// Devices are not safe for concurrent use. [Stage] models the owning
// goroutine: producers hand decoded frames over a channel, the owner calls
// [Stage.Poll] or [Stage.Run] and performs every build and refresh.
package tiledtex
