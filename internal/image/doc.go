// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package image provides RGBA8 buffer helpers for tiledtex.
//
// All functions operate on raw row-major byte slices with 4 bytes per pixel
// and an explicit stride, so they work on image.RGBA pixel buffers, tile
// scratch buffers and GPU upload buffers alike.
package image
