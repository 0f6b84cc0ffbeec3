// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package memory provides a gpucore.Device that keeps textures in main memory.
//
// The device stores the uploaded pixels of every texture, tracks live and
// peak texture bytes, and can be told to fail a chosen CreateTexture or
// WriteTexture call. It backs the tiledtex tests and the demo command when
// no GPU is present.
package memory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/gogpu/tiledtex/backend"
	"github.com/gogpu/tiledtex/gpucore"
	pix "github.com/gogpu/tiledtex/internal/image"
)

// DefaultMaxTextureDimension matches the WebGPU default limit for 2D textures.
const DefaultMaxTextureDimension = 8192

// Memory device errors.
var (
	// ErrInjected is the default error returned by an injected failure.
	ErrInjected = errors.New("memory: injected failure")

	// ErrForeignTexture is returned for textures not created by this device.
	ErrForeignTexture = errors.New("memory: texture belongs to another device")

	// ErrTextureDestroyed is returned when writing to a destroyed texture.
	ErrTextureDestroyed = errors.New("memory: texture has been destroyed")

	// ErrDataSize is returned when the pixel buffer length does not match the texture.
	ErrDataSize = errors.New("memory: pixel data size mismatch")

	// ErrTooLarge is returned when a texture exceeds the dimension limit.
	ErrTooLarge = errors.New("memory: texture exceeds max dimension")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("memory: device closed")
)

func init() {
	backend.Register(backend.BackendMemory, func(cfg backend.Config) (backend.Device, error) {
		var opts []Option
		if cfg.MaxTextureDimension > 0 {
			opts = append(opts, WithMaxTextureDimension(cfg.MaxTextureDimension))
		}
		return New(opts...), nil
	})
}

// Option configures a Device.
type Option func(*Device)

// WithMaxTextureDimension sets the limit reported by MaxTextureDimension.
func WithMaxTextureDimension(n int) Option {
	return func(d *Device) {
		if n > 0 {
			d.limit = n
		}
	}
}

// Device is an in-memory gpucore.Device.
//
// Device is safe for concurrent use, although tiledtex only calls it from
// one goroutine.
type Device struct {
	mu     sync.Mutex
	limit  int
	closed bool

	live      map[*Texture]struct{}
	liveBytes int
	peakBytes int

	creates int // CreateTexture calls so far
	writes  int // WriteTexture calls so far

	failCreate map[int]error // call ordinal -> error
	failWrite  map[int]error
	failTex    map[*Texture]error

	logger *slog.Logger
}

// New creates an empty device.
func New(opts ...Option) *Device {
	d := &Device{
		limit:      DefaultMaxTextureDimension,
		live:       make(map[*Texture]struct{}),
		failCreate: make(map[int]error),
		failWrite:  make(map[int]error),
		failTex:    make(map[*Texture]error),
		logger:     slog.New(discardHandler{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Name returns "memory".
func (d *Device) Name() string { return backend.BackendMemory }

// SetLogger sets the device logger. Pass nil to disable logging.
func (d *Device) SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(discardHandler{})
	}
	d.mu.Lock()
	d.logger = l
	d.mu.Unlock()
}

// MaxTextureDimension returns the configured limit.
func (d *Device) MaxTextureDimension() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.limit
}

// CreateTexture stores a copy of pixels, premultiplied when requested,
// and computes the mip chain length.
func (d *Device) CreateTexture(desc gpucore.TextureDescriptor, pixels []byte) (gpucore.Texture, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	ordinal := d.creates
	d.creates++

	if d.closed {
		return nil, ErrClosed
	}
	if err, ok := d.failCreate[ordinal]; ok {
		delete(d.failCreate, ordinal)
		return nil, err
	}
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	if desc.Width > d.limit || desc.Height > d.limit {
		return nil, fmt.Errorf("%w: %dx%d > %d", ErrTooLarge, desc.Width, desc.Height, d.limit)
	}
	if len(pixels) != desc.ByteSize() {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrDataSize, len(pixels), desc.ByteSize())
	}

	tex := &Texture{
		owner: d,
		desc:  desc,
		pix:   make([]byte, len(pixels)),
	}
	tex.upload(pixels)

	d.live[tex] = struct{}{}
	d.liveBytes += desc.ByteSize()
	d.peakBytes = max(d.peakBytes, d.liveBytes)

	d.logger.Debug("memory: texture created",
		"label", desc.Label, "width", desc.Width, "height", desc.Height,
		"mips", tex.mips, "alpha", desc.Alpha)
	return tex, nil
}

// WriteTexture replaces the contents of a texture created by this device.
func (d *Device) WriteTexture(t gpucore.Texture, pixels []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	ordinal := d.writes
	d.writes++

	tex, ok := t.(*Texture)
	if !ok || tex.owner != d {
		return ErrForeignTexture
	}
	if tex.destroyed {
		return ErrTextureDestroyed
	}
	if err, ok := d.failWrite[ordinal]; ok {
		delete(d.failWrite, ordinal)
		return err
	}
	if err, ok := d.failTex[tex]; ok {
		return err
	}
	if len(pixels) != tex.desc.ByteSize() {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrDataSize, len(pixels), tex.desc.ByteSize())
	}

	tex.upload(pixels)
	tex.writes++
	return nil
}

// DestroyTexture releases a texture. Destroying twice is a no-op.
func (d *Device) DestroyTexture(t gpucore.Texture) {
	d.mu.Lock()
	defer d.mu.Unlock()

	tex, ok := t.(*Texture)
	if !ok || tex.owner != d || tex.destroyed {
		return
	}
	d.destroyLocked(tex)
}

func (d *Device) destroyLocked(tex *Texture) {
	tex.destroyed = true
	delete(d.live, tex)
	delete(d.failTex, tex)
	d.liveBytes -= tex.desc.ByteSize()
	d.logger.Debug("memory: texture destroyed", "label", tex.desc.Label)
}

// Close destroys every live texture. Close is idempotent.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	for tex := range d.live {
		d.destroyLocked(tex)
	}
	return nil
}

// FailCreate makes the n-th CreateTexture call from now fail with err
// (n = 0 is the next call). A nil err means ErrInjected.
func (d *Device) FailCreate(n int, err error) {
	if err == nil {
		err = ErrInjected
	}
	d.mu.Lock()
	d.failCreate[d.creates+n] = err
	d.mu.Unlock()
}

// FailWrite makes the n-th WriteTexture call from now fail with err
// (n = 0 is the next call). A nil err means ErrInjected.
func (d *Device) FailWrite(n int, err error) {
	if err == nil {
		err = ErrInjected
	}
	d.mu.Lock()
	d.failWrite[d.writes+n] = err
	d.mu.Unlock()
}

// FailTexture makes every WriteTexture call on tex fail with err until
// tex is destroyed. A nil err means ErrInjected.
func (d *Device) FailTexture(t gpucore.Texture, err error) {
	if err == nil {
		err = ErrInjected
	}
	tex, ok := t.(*Texture)
	if !ok {
		return
	}
	d.mu.Lock()
	d.failTex[tex] = err
	d.mu.Unlock()
}

// Stats is a snapshot of device counters.
type Stats struct {
	Live      int // live textures
	LiveBytes int // level 0 bytes of live textures
	PeakBytes int // highest LiveBytes observed
	Creates   int // CreateTexture calls, including failed ones
	Writes    int // WriteTexture calls, including failed ones
}

// Stats returns the current counters.
func (d *Device) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return Stats{
		Live:      len(d.live),
		LiveBytes: d.liveBytes,
		PeakBytes: d.peakBytes,
		Creates:   d.creates,
		Writes:    d.writes,
	}
}

// ResetPeak sets the peak counter to the current live bytes.
func (d *Device) ResetPeak() {
	d.mu.Lock()
	d.peakBytes = d.liveBytes
	d.mu.Unlock()
}

// Textures returns the live textures in creation-independent order.
func (d *Device) Textures() []*Texture {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]*Texture, 0, len(d.live))
	for tex := range d.live {
		out = append(out, tex)
	}
	return out
}

// Texture is an in-memory texture.
type Texture struct {
	owner     *Device
	desc      gpucore.TextureDescriptor
	pix       []byte
	mips      int
	writes    int
	destroyed bool
}

// upload stores pixels using the texture's allocation mode and regenerates
// the mip chain when requested.
func (t *Texture) upload(pixels []byte) {
	if t.desc.Alpha == gpucore.AllocationPremultiplied {
		t.pix = pix.Premultiply(t.pix, pixels)
	} else {
		copy(t.pix, pixels)
	}

	t.mips = 1
	if t.desc.Mipmaps {
		chain := pix.GenerateMipmaps(t.pix, t.desc.Width, t.desc.Height)
		t.mips = chain.NumLevels()
		chain.Release()
	}
}

// Width returns the texture width in pixels.
func (t *Texture) Width() int { return t.desc.Width }

// Height returns the texture height in pixels.
func (t *Texture) Height() int { return t.desc.Height }

// Descriptor returns the descriptor the texture was created with.
func (t *Texture) Descriptor() gpucore.TextureDescriptor { return t.desc }

// Label returns the debug label.
func (t *Texture) Label() string { return t.desc.Label }

// Pixels returns a copy of the stored level 0 pixels.
func (t *Texture) Pixels() []byte {
	t.owner.mu.Lock()
	defer t.owner.mu.Unlock()
	return slices.Clone(t.pix)
}

// MipLevels returns the number of mip levels generated on the last upload.
func (t *Texture) MipLevels() int {
	t.owner.mu.Lock()
	defer t.owner.mu.Unlock()
	return t.mips
}

// Writes returns the number of successful WriteTexture calls.
func (t *Texture) Writes() int {
	t.owner.mu.Lock()
	defer t.owner.mu.Unlock()
	return t.writes
}

// IsDestroyed returns true if the texture has been destroyed.
func (t *Texture) IsDestroyed() bool {
	t.owner.mu.Lock()
	defer t.owner.mu.Unlock()
	return t.destroyed
}

// String returns a string representation of the texture.
func (t *Texture) String() string {
	return fmt.Sprintf("memory.Texture[%s %dx%d %s]", t.desc.Label, t.desc.Width, t.desc.Height, t.desc.Alpha)
}

// discardHandler silently discards all log records.
type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (discardHandler) WithAttrs([]slog.Attr) slog.Handler        { return discardHandler{} }
func (discardHandler) WithGroup(string) slog.Handler             { return discardHandler{} }
