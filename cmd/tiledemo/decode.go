// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package main

import (
	"bufio"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"time"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/gogpu/tiledtex"
)

// decoded is the result of decoding one file.
type decoded struct {
	path   string
	format string
	frames []tiledtex.Frame
	err    error
}

// decodeAll decodes paths on g with at most jobs files in flight.
// Results are delivered per path so the caller can keep the input order.
func decodeAll(ctx context.Context, g *errgroup.Group, paths []string, jobs int64) []<-chan decoded {
	sem := semaphore.NewWeighted(max(jobs, 1))
	out := make([]<-chan decoded, len(paths))
	for i, p := range paths {
		ch := make(chan decoded, 1)
		out[i] = ch
		g.Go(func() error {
			if err := sem.Acquire(ctx, 1); err != nil {
				return err
			}
			defer sem.Release(1)

			format, frames, err := decodeFile(p)
			ch <- decoded{path: p, format: format, frames: frames, err: err}
			return nil
		})
	}
	return out
}

func decodeFile(path string) (string, []tiledtex.Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", nil, err
	}
	defer f.Close()
	return decode(bufio.NewReader(f))
}

// decode reads a still image, or every frame of an animated GIF.
func decode(r *bufio.Reader) (string, []tiledtex.Frame, error) {
	if head, _ := r.Peek(6); string(head) == "GIF89a" || string(head) == "GIF87a" {
		frames, err := decodeGIF(r)
		return "gif", frames, err
	}

	img, format, err := image.Decode(r)
	if err != nil {
		return "", nil, fmt.Errorf("decode: %w", err)
	}
	return format, []tiledtex.Frame{{Image: toRGBA(img), Source: tiledtex.SourceStill}}, nil
}

// decodeGIF composites every GIF frame onto a full-size canvas.
// The first frame is a still, later frames are animation frames.
func decodeGIF(r io.Reader) ([]tiledtex.Frame, error) {
	g, err := gif.DecodeAll(r)
	if err != nil {
		return nil, fmt.Errorf("decode gif: %w", err)
	}
	if len(g.Image) == 0 {
		return nil, fmt.Errorf("decode gif: no frames")
	}

	bounds := image.Rect(0, 0, g.Config.Width, g.Config.Height)
	if bounds.Empty() {
		bounds = g.Image[0].Bounds()
	}
	canvas := image.NewRGBA(bounds)

	frames := make([]tiledtex.Frame, 0, len(g.Image))
	for i, p := range g.Image {
		prev := clone(canvas)
		draw.Draw(canvas, p.Bounds(), p, p.Bounds().Min, draw.Over)

		src := tiledtex.SourceAnimation
		if i == 0 {
			src = tiledtex.SourceStill
		}
		frames = append(frames, tiledtex.Frame{
			Image:  clone(canvas),
			Source: src,
			Delay:  time.Duration(g.Delay[i]) * 10 * time.Millisecond,
		})

		if i < len(g.Disposal) {
			switch g.Disposal[i] {
			case gif.DisposalBackground:
				draw.Draw(canvas, p.Bounds(), image.Transparent, image.Point{}, draw.Src)
			case gif.DisposalPrevious:
				canvas = prev
			}
		}
	}
	return frames, nil
}

// toRGBA returns img as a zero-origin *image.RGBA, converting if needed.
func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) {
		return rgba
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Copy(dst, image.Point{}, img, b, draw.Src, nil)
	return dst
}

func clone(img *image.RGBA) *image.RGBA {
	out := image.NewRGBA(img.Rect)
	copy(out.Pix, img.Pix)
	return out
}

// editFrame returns a copy of img with a translucent band drawn over row
// band n, the way an interactive edit would change part of the image.
func editFrame(img *image.RGBA, n int) tiledtex.Frame {
	out := clone(img)
	h := max(1, img.Rect.Dy()/8)
	y0 := (n * h) % max(1, img.Rect.Dy())
	band := image.Rect(img.Rect.Min.X, img.Rect.Min.Y+y0, img.Rect.Max.X, img.Rect.Min.Y+y0+h).Intersect(img.Rect)
	draw.Draw(out, band, image.NewUniform(color.NRGBA{R: 255, G: 255, B: 255, A: 96}), image.Point{}, draw.Over)
	return tiledtex.Frame{Image: out, Source: tiledtex.SourceEdit}
}
