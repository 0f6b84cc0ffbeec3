// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package image

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// gradient returns a w x h RGBA8 buffer where every pixel is unique.
func gradient(w, h, stride int) []byte {
	pix := make([]byte, stride*h)
	for y := range h {
		for x := range w {
			off := y*stride + x*BytesPerPixel
			pix[off] = byte(x)
			pix[off+1] = byte(y)
			pix[off+2] = byte(x ^ y)
			pix[off+3] = 255
		}
	}
	return pix
}

func TestExtract(t *testing.T) {
	const w, h = 5, 4
	src := gradient(w, h, w*BytesPerPixel)

	got, err := Extract(nil, src, w*BytesPerPixel, 3, 1, 2, 3)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(got) != 2*3*BytesPerPixel {
		t.Fatalf("len = %d, want %d", len(got), 2*3*BytesPerPixel)
	}
	// First pixel of the region is (3,1).
	if diff := cmp.Diff([]byte{3, 1, 3 ^ 1, 255}, got[:4]); diff != "" {
		t.Errorf("first pixel mismatch (-want +got):\n%s", diff)
	}
	// Last pixel is (4,3).
	if diff := cmp.Diff([]byte{4, 3, 4 ^ 3, 255}, got[len(got)-4:]); diff != "" {
		t.Errorf("last pixel mismatch (-want +got):\n%s", diff)
	}
}

func TestExtract_PaddedStride(t *testing.T) {
	const w, h, stride = 3, 3, 20
	src := gradient(w, h, stride)

	got, err := Extract(nil, src, stride, 0, 0, w, h)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if IsPacked(src, stride, w, h) {
		t.Error("IsPacked() = true for padded stride")
	}
	if !IsPacked(got, w*BytesPerPixel, w, h) {
		t.Error("extracted buffer should be packed")
	}
	want := gradient(w, h, w*BytesPerPixel)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Extract mismatch (-want +got):\n%s", diff)
	}
}

func TestExtract_ReusesDst(t *testing.T) {
	src := gradient(4, 4, 16)
	dst := make([]byte, 0, 64)
	got, err := Extract(dst, src, 16, 0, 0, 2, 2)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if &got[0] != &dst[:1][0] {
		t.Error("Extract should reuse dst when capacity allows")
	}
}

func TestExtract_Errors(t *testing.T) {
	src := gradient(4, 4, 16)
	tests := []struct {
		name       string
		x, y, w, h int
		stride     int
		want       error
	}{
		{"zero width", 0, 0, 0, 2, 16, ErrInvalidDimensions},
		{"negative origin", -1, 0, 2, 2, 16, ErrOutOfBounds},
		{"past right edge", 3, 0, 2, 2, 16, ErrInvalidStride},
		{"past bottom edge", 0, 3, 2, 2, 16, ErrOutOfBounds},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Extract(nil, src, tt.stride, tt.x, tt.y, tt.w, tt.h)
			if !errors.Is(err, tt.want) {
				t.Errorf("Extract() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestBlit_RoundTrip(t *testing.T) {
	const w, h = 7, 5
	src := gradient(w, h, w*BytesPerPixel)
	dst := make([]byte, len(src))

	// Split into 3x2 strides, clipped at the edges.
	const tw, th = 3, 3
	for y := 0; y < h; y += th {
		for x := 0; x < w; x += tw {
			cw, ch := min(tw, w-x), min(th, h-y)
			tile, err := Extract(nil, src, w*BytesPerPixel, x, y, cw, ch)
			if err != nil {
				t.Fatalf("Extract(%d,%d) error = %v", x, y, err)
			}
			if err := Blit(dst, w*BytesPerPixel, tile, x, y, cw, ch); err != nil {
				t.Fatalf("Blit(%d,%d) error = %v", x, y, err)
			}
		}
	}
	if diff := cmp.Diff(src, dst); diff != "" {
		t.Errorf("reassembled image mismatch (-want +got):\n%s", diff)
	}
}

func TestBlit_ShortSource(t *testing.T) {
	dst := make([]byte, 64)
	err := Blit(dst, 16, make([]byte, 4), 0, 0, 2, 2)
	if !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("Blit() error = %v, want ErrOutOfBounds", err)
	}
}
