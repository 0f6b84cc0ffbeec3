// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package tiledtex

import "github.com/gogpu/tiledtex/gpucore"

// BuildOption configures a Build call.
//
// Example:
//
//	// Pixel-art viewing: nearest magnification, premultiplied upload
//	tt, err := tiledtex.Build(dev, img,
//	    tiledtex.WithMagFilter(gpucore.FilterNearest),
//	    tiledtex.WithAllocation(gpucore.AllocationPremultiplied))
type BuildOption func(*buildOptions)

// buildOptions holds the settings applied uniformly to every tile.
type buildOptions struct {
	magFilter gpucore.FilterMode
	alloc     gpucore.AllocationMode
	label     string
}

// defaultBuildOptions returns linear magnification with standard upload.
func defaultBuildOptions() buildOptions {
	return buildOptions{
		magFilter: gpucore.FilterLinear,
		alloc:     gpucore.AllocationStandard,
		label:     "tile",
	}
}

// WithMagFilter selects the magnification filter for every tile.
// Minification is always linear.
func WithMagFilter(f gpucore.FilterMode) BuildOption {
	return func(o *buildOptions) {
		o.magFilter = f
	}
}

// WithAllocation selects standard or premultiplied upload for every tile.
func WithAllocation(m gpucore.AllocationMode) BuildOption {
	return func(o *buildOptions) {
		o.alloc = m
	}
}

// WithLabel sets the debug label prefix; tiles are labeled "<prefix>_<index>".
func WithLabel(prefix string) BuildOption {
	return func(o *buildOptions) {
		if prefix != "" {
			o.label = prefix
		}
	}
}

// StageOption configures a Stage during creation.
type StageOption func(*stageOptions)

type stageOptions struct {
	frameBuffer   int
	messageBuffer int
	build         []BuildOption
}

func defaultStageOptions() stageOptions {
	return stageOptions{
		frameBuffer:   1,
		messageBuffer: 16,
	}
}

// WithFrameBuffer sets the capacity of the frame channel.
// A producer blocks once this many frames are waiting.
func WithFrameBuffer(n int) StageOption {
	return func(o *stageOptions) {
		if n >= 0 {
			o.frameBuffer = n
		}
	}
}

// WithMessageBuffer sets the capacity of the message channel.
// Messages are dropped when the channel is full.
func WithMessageBuffer(n int) StageOption {
	return func(o *stageOptions) {
		if n >= 0 {
			o.messageBuffer = n
		}
	}
}

// WithBuildOptions sets the options the Stage uses for every build.
func WithBuildOptions(opts ...BuildOption) StageOption {
	return func(o *stageOptions) {
		o.build = append(o.build, opts...)
	}
}
