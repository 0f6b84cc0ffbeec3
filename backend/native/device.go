// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package native provides a gpucore.Device on top of a gogpu/wgpu HAL device.
//
// Textures are RGBA8Unorm with TextureBinding and CopyDst usage. Mip chains
// are generated on the CPU with a box filter and uploaded level by level with
// queue.WriteTexture. Premultiplied allocation premultiplies on the CPU before
// upload. One sampler per (min, mag) filter pair is created lazily and shared.
package native

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/tiledtex/backend"
	"github.com/gogpu/tiledtex/gpucore"
	pix "github.com/gogpu/tiledtex/internal/image"
	"github.com/gogpu/wgpu/hal"
)

// Option configures a Device.
type Option func(*options)

type options struct {
	maxDim int
	noop   bool
}

// WithMaxTextureDimension caps the reported texture limit at n.
// Values above the hardware limit are ignored.
func WithMaxTextureDimension(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxDim = n
		}
	}
}

// WithNoop makes Open use the noop HAL backend instead of Vulkan.
// Textures are accepted and discarded; useful for headless runs.
func WithNoop() Option {
	return func(o *options) {
		o.noop = true
	}
}

// samplerKey identifies a shared sampler.
type samplerKey struct {
	min, mag gpucore.FilterMode
}

// Device implements gpucore.Device using gogpu/wgpu/hal directly.
//
// Thread Safety: Device is safe for concurrent use from multiple goroutines.
// All resource operations are protected by a mutex.
type Device struct {
	mu     sync.Mutex
	device hal.Device
	queue  hal.Queue
	limit  int

	samplers map[samplerKey]hal.Sampler
	live     map[*Texture]struct{}

	// release destroys the HAL device and instance when this Device opened
	// them itself; nil for external devices.
	release func()
	closed  bool
	name    string
}

// NewDevice wraps an existing HAL device and queue. The caller keeps
// ownership of both; Close only releases resources created by the Device.
func NewDevice(device hal.Device, queue hal.Queue, limits gputypes.Limits, opts ...Option) (*Device, error) {
	if device == nil || queue == nil {
		return nil, ErrNilHALDevice
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return newDevice(device, queue, limits, o, nil, backend.BackendNative), nil
}

func newDevice(device hal.Device, queue hal.Queue, limits gputypes.Limits, o options, release func(), name string) *Device {
	limit := int(limits.MaxTextureDimension2D)
	if limit <= 0 {
		limit = int(gputypes.DefaultLimits().MaxTextureDimension2D)
	}
	if o.maxDim > 0 && o.maxDim < limit {
		limit = o.maxDim
	}
	slogger().Debug("native: device ready", "max_texture_dimension", limit, "owned", release != nil)
	return &Device{
		device:   device,
		queue:    queue,
		limit:    limit,
		samplers: make(map[samplerKey]hal.Sampler),
		live:     make(map[*Texture]struct{}),
		release:  release,
		name:     name,
	}
}

// FromProvider creates a Device sharing the HAL device of a gpucontext
// provider (e.g. a gogpu application). The provider must implement
// HalDevice() any and HalQueue() any returning hal.Device and hal.Queue.
// Default WebGPU limits are assumed.
func FromProvider(provider gpucontext.DeviceProvider, opts ...Option) (*Device, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, ErrNoHALProvider
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w: HalDevice is not hal.Device", ErrNoHALProvider)
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("%w: HalQueue is not hal.Queue", ErrNoHALProvider)
	}
	return NewDevice(device, queue, gputypes.DefaultLimits(), opts...)
}

// Name returns the backend identifier.
func (d *Device) Name() string { return d.name }

// SetLogger sets the logger for backend/native.
func (d *Device) SetLogger(l *slog.Logger) { setLogger(l) }

// MaxTextureDimension returns the largest supported 2D texture dimension.
func (d *Device) MaxTextureDimension() int {
	return d.limit
}

// CreateTexture allocates a texture with a full view and uploads pixels
// (and the generated mip chain) to it.
func (d *Device) CreateTexture(desc gpucore.TextureDescriptor, pixels []byte) (gpucore.Texture, error) {
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	if desc.Width > d.limit || desc.Height > d.limit {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d", ErrInvalidTextureSize, desc.Width, desc.Height, d.limit)
	}
	if len(pixels) != desc.ByteSize() {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrDataSize, len(pixels), desc.ByteSize())
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, ErrDeviceClosed
	}

	mips := desc.MipLevelCount()
	//nolint:gosec // G115: dimensions are validated positive and below the device limit
	size := hal.Extent3D{Width: uint32(desc.Width), Height: uint32(desc.Height), DepthOrArrayLayers: 1}

	raw, err := d.device.CreateTexture(&hal.TextureDescriptor{
		Label:         desc.Label,
		Size:          size,
		MipLevelCount: uint32(mips), //nolint:gosec // at most 32 levels
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create texture %q: %w", desc.Label, err)
	}

	view, err := d.device.CreateTextureView(raw, &hal.TextureViewDescriptor{
		Label:         desc.Label + "_view",
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: uint32(mips), //nolint:gosec // at most 32 levels
	})
	if err != nil {
		d.device.DestroyTexture(raw)
		return nil, fmt.Errorf("create texture view %q: %w", desc.Label, err)
	}

	sampler, err := d.samplerLocked(desc.MinFilter, desc.MagFilter)
	if err != nil {
		d.device.DestroyTextureView(view)
		d.device.DestroyTexture(raw)
		return nil, err
	}

	tex := &Texture{
		owner:   d,
		raw:     raw,
		view:    view,
		sampler: sampler,
		desc:    desc,
		mips:    mips,
	}
	if err := d.uploadLocked(tex, pixels); err != nil {
		d.device.DestroyTextureView(view)
		d.device.DestroyTexture(raw)
		return nil, err
	}
	d.live[tex] = struct{}{}

	slogger().Debug("native: texture created",
		"label", desc.Label, "width", desc.Width, "height", desc.Height,
		"mips", mips, "alpha", desc.Alpha, "mag_filter", desc.MagFilter)
	return tex, nil
}

// samplerLocked returns the shared sampler for the filter pair, creating it
// on first use. Caller must hold d.mu.
func (d *Device) samplerLocked(minF, magF gpucore.FilterMode) (hal.Sampler, error) {
	key := samplerKey{min: minF, mag: magF}
	if s, ok := d.samplers[key]; ok {
		return s, nil
	}
	s, err := d.device.CreateSampler(&hal.SamplerDescriptor{
		Label:        fmt.Sprintf("tile_sampler_%s_%s", minF, magF),
		AddressModeU: gputypes.AddressModeClampToEdge,
		AddressModeV: gputypes.AddressModeClampToEdge,
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    toFilterMode(magF),
		MinFilter:    toFilterMode(minF),
		MipmapFilter: gputypes.FilterModeLinear,
	})
	if err != nil {
		return nil, fmt.Errorf("create sampler %v/%v: %w", minF, magF, err)
	}
	d.samplers[key] = s
	return s, nil
}

func toFilterMode(f gpucore.FilterMode) gputypes.FilterMode {
	if f == gpucore.FilterNearest {
		return gputypes.FilterModeNearest
	}
	return gputypes.FilterModeLinear
}

// uploadLocked writes pixels and every generated mip level to tex.
// Caller must hold d.mu.
func (d *Device) uploadLocked(tex *Texture, pixels []byte) error {
	level0 := pixels
	if tex.desc.Alpha == gpucore.AllocationPremultiplied {
		scratch := pix.GetFromDefault(len(pixels))
		level0 = pix.Premultiply(scratch, pixels)
		defer pix.PutToDefault(level0)
	}

	if tex.mips == 1 {
		return d.writeLevel(tex, 0, level0, tex.desc.Width, tex.desc.Height)
	}

	chain := pix.GenerateMipmaps(level0, tex.desc.Width, tex.desc.Height)
	defer chain.Release()
	for i := range min(tex.mips, chain.NumLevels()) {
		lv := chain.Level(i)
		if err := d.writeLevel(tex, i, lv.Pix, lv.Width, lv.Height); err != nil {
			return err
		}
	}
	return nil
}

func (d *Device) writeLevel(tex *Texture, level int, data []byte, w, h int) error {
	//nolint:gosec // G115: level sizes derive from validated texture dimensions
	err := d.queue.WriteTexture(
		&hal.ImageCopyTexture{
			Texture:  tex.raw,
			MipLevel: uint32(level),
		},
		data,
		&hal.ImageDataLayout{
			Offset:       0,
			BytesPerRow:  uint32(w * gpucore.BytesPerPixel),
			RowsPerImage: uint32(h),
		},
		&hal.Extent3D{Width: uint32(w), Height: uint32(h), DepthOrArrayLayers: 1},
	)
	if err != nil {
		return fmt.Errorf("write texture %q level %d: %w", tex.desc.Label, level, err)
	}
	return nil
}

// WriteTexture replaces the contents of a texture created by this device
// and regenerates its mip chain.
func (d *Device) WriteTexture(t gpucore.Texture, pixels []byte) error {
	tex, ok := t.(*Texture)
	if !ok || tex.owner != d {
		return ErrForeignTexture
	}
	if len(pixels) != tex.desc.ByteSize() {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrDataSize, len(pixels), tex.desc.ByteSize())
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrDeviceClosed
	}
	if tex.destroyed {
		return ErrTextureDestroyed
	}
	return d.uploadLocked(tex, pixels)
}

// DestroyTexture releases the texture and its view. Destroying twice is a no-op.
func (d *Device) DestroyTexture(t gpucore.Texture) {
	tex, ok := t.(*Texture)
	if !ok || tex.owner != d {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if tex.destroyed {
		return
	}
	d.destroyLocked(tex)
}

func (d *Device) destroyLocked(tex *Texture) {
	tex.destroyed = true
	delete(d.live, tex)
	if tex.view != nil {
		d.device.DestroyTextureView(tex.view)
		tex.view = nil
	}
	if tex.raw != nil {
		d.device.DestroyTexture(tex.raw)
		tex.raw = nil
	}
}

// Live returns the number of textures not yet destroyed.
func (d *Device) Live() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.live)
}

// Close destroys remaining textures and samplers, then the HAL device if
// the Device opened it. Close is idempotent.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true

	if n := len(d.live); n > 0 {
		slogger().Warn("native: closing device with live textures", "count", n)
	}
	for tex := range d.live {
		d.destroyLocked(tex)
	}
	for key, s := range d.samplers {
		d.device.DestroySampler(s)
		delete(d.samplers, key)
	}
	if d.release != nil {
		d.release()
		d.release = nil
	}
	return nil
}
