// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package main

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"

	"github.com/gogpu/tiledtex"
	"github.com/gogpu/tiledtex/backend/memory"
	pix "github.com/gogpu/tiledtex/internal/image"
)

var errNotMemoryTile = errors.New("snapshot needs the memory backend")

// snapshot reassembles the stored tile pixels of tex into one image.
func snapshot(tex *tiledtex.TiledTexture) (*image.RGBA, error) {
	out := image.NewRGBA(image.Rect(0, 0, tex.Width(), tex.Height()))
	for _, tile := range tex.All() {
		mt, ok := tile.Texture.(*memory.Texture)
		if !ok {
			return nil, errNotMemoryTile
		}
		r := tile.Rect
		if err := pix.Blit(out.Pix, out.Stride, mt.Pixels(), r.Min.X, r.Min.Y, r.Dx(), r.Dy()); err != nil {
			return nil, fmt.Errorf("tile %d: %w", tile.Index, err)
		}
	}
	return out, nil
}

func writeSnapshot(path string, tex *tiledtex.TiledTexture) error {
	img, err := snapshot(tex)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
