// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package tiledtex

import (
	"testing"

	"github.com/gogpu/tiledtex/gpucore"
)

func TestDefaultBuildOptions(t *testing.T) {
	o := defaultBuildOptions()
	if o.magFilter != gpucore.FilterLinear {
		t.Errorf("magFilter = %v, want Linear", o.magFilter)
	}
	if o.alloc != gpucore.AllocationStandard {
		t.Errorf("alloc = %v, want Standard", o.alloc)
	}
	if o.label != "tile" {
		t.Errorf("label = %q, want tile", o.label)
	}
}

func TestBuildOptions(t *testing.T) {
	o := defaultBuildOptions()
	for _, opt := range []BuildOption{
		WithMagFilter(gpucore.FilterNearest),
		WithAllocation(gpucore.AllocationPremultiplied),
		WithLabel("scan"),
	} {
		opt(&o)
	}
	if o.magFilter != gpucore.FilterNearest || o.alloc != gpucore.AllocationPremultiplied || o.label != "scan" {
		t.Errorf("options not applied: %+v", o)
	}

	// An empty label keeps the previous one.
	WithLabel("")(&o)
	if o.label != "scan" {
		t.Errorf("WithLabel(\"\") changed label to %q", o.label)
	}
}

func TestStageOptions(t *testing.T) {
	tests := []struct {
		name        string
		opts        []StageOption
		wantFrames  int
		wantMessage int
		wantBuild   int
	}{
		{"defaults", nil, 1, 16, 0},
		{"buffers", []StageOption{WithFrameBuffer(4), WithMessageBuffer(0)}, 4, 0, 0},
		{"negative ignored", []StageOption{WithFrameBuffer(-1), WithMessageBuffer(-2)}, 1, 16, 0},
		{"build options accumulate", []StageOption{
			WithBuildOptions(WithMagFilter(gpucore.FilterNearest)),
			WithBuildOptions(WithLabel("a"), WithLabel("b")),
		}, 1, 16, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := defaultStageOptions()
			for _, opt := range tt.opts {
				opt(&o)
			}
			if o.frameBuffer != tt.wantFrames || o.messageBuffer != tt.wantMessage || len(o.build) != tt.wantBuild {
				t.Errorf("got frames=%d messages=%d build=%d, want %d/%d/%d",
					o.frameBuffer, o.messageBuffer, len(o.build), tt.wantFrames, tt.wantMessage, tt.wantBuild)
			}
		})
	}
}
