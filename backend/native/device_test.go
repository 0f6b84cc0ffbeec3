// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package native

import (
	"errors"
	"image"
	"sync/atomic"
	"testing"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/tiledtex"
	"github.com/gogpu/tiledtex/backend"
	"github.com/gogpu/tiledtex/gpucore"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
)

// createNoopDevice creates a noop device and queue for testing.
// Returns the device, queue, and a cleanup function.
func createNoopDevice(t *testing.T) (hal.Device, hal.Queue, func()) {
	t.Helper()
	api := noop.API{}
	instance, err := api.CreateInstance(nil)
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		t.Fatalf("Open failed: %v", err)
	}
	cleanup := func() {
		openDev.Device.Destroy()
		instance.Destroy()
	}
	return openDev.Device, openDev.Queue, cleanup
}

func newTestDevice(t *testing.T, opts ...Option) *Device {
	t.Helper()
	device, queue, cleanup := createNoopDevice(t)
	d, err := NewDevice(device, queue, gputypes.DefaultLimits(), opts...)
	if err != nil {
		cleanup()
		t.Fatalf("NewDevice failed: %v", err)
	}
	t.Cleanup(func() {
		_ = d.Close()
		cleanup()
	})
	return d
}

func testDesc(w, h int) gpucore.TextureDescriptor {
	return gpucore.TextureDescriptor{
		Label:     "test",
		Width:     w,
		Height:    h,
		MinFilter: gpucore.FilterLinear,
		MagFilter: gpucore.FilterLinear,
		Mipmaps:   true,
	}
}

func TestNewDeviceNil(t *testing.T) {
	if _, err := NewDevice(nil, nil, gputypes.DefaultLimits()); !errors.Is(err, ErrNilHALDevice) {
		t.Errorf("NewDevice(nil, nil) error = %v, want ErrNilHALDevice", err)
	}
}

func TestMaxTextureDimension(t *testing.T) {
	hw := int(gputypes.DefaultLimits().MaxTextureDimension2D)
	tests := []struct {
		name string
		opts []Option
		want int
	}{
		{"hardware", nil, hw},
		{"capped", []Option{WithMaxTextureDimension(256)}, 256},
		{"above hardware", []Option{WithMaxTextureDimension(hw * 2)}, hw},
		{"zero ignored", []Option{WithMaxTextureDimension(0)}, hw},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newTestDevice(t, tt.opts...)
			if got := d.MaxTextureDimension(); got != tt.want {
				t.Errorf("MaxTextureDimension() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCreateTexture(t *testing.T) {
	d := newTestDevice(t)
	desc := testDesc(16, 8)
	tex, err := d.CreateTexture(desc, make([]byte, desc.ByteSize()))
	if err != nil {
		t.Fatalf("CreateTexture failed: %v", err)
	}
	nt, ok := tex.(*Texture)
	if !ok {
		t.Fatalf("CreateTexture returned %T, want *Texture", tex)
	}
	if nt.Width() != 16 || nt.Height() != 8 {
		t.Errorf("size = %dx%d, want 16x8", nt.Width(), nt.Height())
	}
	if nt.MipLevels() != 5 {
		t.Errorf("MipLevels() = %d, want 5", nt.MipLevels())
	}
	if nt.Raw() == nil || nt.View() == nil || nt.Sampler() == nil {
		t.Error("expected raw texture, view and sampler")
	}
	if d.Live() != 1 {
		t.Errorf("Live() = %d, want 1", d.Live())
	}
}

func TestCreateTextureErrors(t *testing.T) {
	d := newTestDevice(t, WithMaxTextureDimension(64))
	tests := []struct {
		name string
		desc gpucore.TextureDescriptor
		size int
		want error
	}{
		{"zero width", testDesc(0, 8), 0, gpucore.ErrInvalidDescriptor},
		{"over limit", testDesc(65, 8), 65 * 8 * 4, ErrInvalidTextureSize},
		{"short data", testDesc(8, 8), 10, ErrDataSize},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := d.CreateTexture(tt.desc, make([]byte, tt.size))
			if !errors.Is(err, tt.want) {
				t.Errorf("CreateTexture error = %v, want %v", err, tt.want)
			}
		})
	}
	if d.Live() != 0 {
		t.Errorf("Live() = %d after failures, want 0", d.Live())
	}
}

func TestSamplerShared(t *testing.T) {
	d := newTestDevice(t)
	linear := testDesc(4, 4)
	nearest := testDesc(4, 4)
	nearest.MagFilter = gpucore.FilterNearest

	a, _ := d.CreateTexture(linear, make([]byte, linear.ByteSize()))
	b, _ := d.CreateTexture(linear, make([]byte, linear.ByteSize()))
	c, _ := d.CreateTexture(nearest, make([]byte, nearest.ByteSize()))

	if a.(*Texture).Sampler() != b.(*Texture).Sampler() {
		t.Error("textures with equal filters should share a sampler")
	}
	if len(d.samplers) != 2 {
		t.Errorf("samplers = %d, want 2", len(d.samplers))
	}
	_ = c
}

func TestWriteTexture(t *testing.T) {
	d := newTestDevice(t)
	desc := testDesc(8, 8)
	desc.Alpha = gpucore.AllocationPremultiplied
	tex, err := d.CreateTexture(desc, make([]byte, desc.ByteSize()))
	if err != nil {
		t.Fatalf("CreateTexture failed: %v", err)
	}

	if err := d.WriteTexture(tex, make([]byte, desc.ByteSize())); err != nil {
		t.Errorf("WriteTexture failed: %v", err)
	}
	if err := d.WriteTexture(tex, make([]byte, 3)); !errors.Is(err, ErrDataSize) {
		t.Errorf("WriteTexture(short) error = %v, want ErrDataSize", err)
	}

	other := newTestDevice(t)
	if err := other.WriteTexture(tex, make([]byte, desc.ByteSize())); !errors.Is(err, ErrForeignTexture) {
		t.Errorf("foreign WriteTexture error = %v, want ErrForeignTexture", err)
	}

	d.DestroyTexture(tex)
	if err := d.WriteTexture(tex, make([]byte, desc.ByteSize())); !errors.Is(err, ErrTextureDestroyed) {
		t.Errorf("WriteTexture after destroy error = %v, want ErrTextureDestroyed", err)
	}
}

func TestDestroyTexture(t *testing.T) {
	d := newTestDevice(t)
	desc := testDesc(4, 4)
	tex, _ := d.CreateTexture(desc, make([]byte, desc.ByteSize()))

	d.DestroyTexture(tex)
	d.DestroyTexture(tex) // no-op

	nt := tex.(*Texture)
	if !nt.IsDestroyed() {
		t.Error("IsDestroyed() = false after DestroyTexture")
	}
	if nt.Raw() != nil || nt.View() != nil {
		t.Error("destroyed texture should return nil handles")
	}
	if d.Live() != 0 {
		t.Errorf("Live() = %d, want 0", d.Live())
	}
}

func TestClose(t *testing.T) {
	d := newTestDevice(t)
	desc := testDesc(4, 4)
	tex, _ := d.CreateTexture(desc, make([]byte, desc.ByteSize()))

	if err := d.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := d.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}
	if !tex.(*Texture).IsDestroyed() {
		t.Error("Close should destroy live textures")
	}
	if _, err := d.CreateTexture(desc, make([]byte, desc.ByteSize())); !errors.Is(err, ErrDeviceClosed) {
		t.Errorf("CreateTexture after Close error = %v, want ErrDeviceClosed", err)
	}
}

func TestOpenNoop(t *testing.T) {
	d, err := Open(WithNoop(), WithMaxTextureDimension(512))
	if err != nil {
		t.Fatalf("Open(WithNoop) failed: %v", err)
	}
	defer d.Close()

	if d.Name() != BackendNoop {
		t.Errorf("Name() = %q, want %q", d.Name(), BackendNoop)
	}
	if d.MaxTextureDimension() != 512 {
		t.Errorf("MaxTextureDimension() = %d, want 512", d.MaxTextureDimension())
	}
}

func TestRegistered(t *testing.T) {
	for _, name := range []string{backend.BackendNative, BackendNoop} {
		if !backend.IsRegistered(name) {
			t.Errorf("backend %q not registered", name)
		}
	}

	dev, err := backend.Open(BackendNoop, backend.Config{MaxTextureDimension: 128})
	if err != nil {
		t.Fatalf("backend.Open(noop) failed: %v", err)
	}
	defer dev.Close()
	if dev.MaxTextureDimension() != 128 {
		t.Errorf("MaxTextureDimension() = %d, want 128", dev.MaxTextureDimension())
	}
}

// fakeGPUDevice implements gpucontext.Device for testing.
type fakeGPUDevice struct{}

func (fakeGPUDevice) Poll(wait bool) {}
func (fakeGPUDevice) Destroy()       {}

type fakeGPUQueue struct{}

type fakeGPUAdapter struct{}

// fakeProvider implements gpucontext.DeviceProvider and exposes HAL handles.
type fakeProvider struct {
	device hal.Device
	queue  hal.Queue
}

func (p fakeProvider) Device() gpucontext.Device             { return fakeGPUDevice{} }
func (p fakeProvider) Queue() gpucontext.Queue               { return fakeGPUQueue{} }
func (p fakeProvider) Adapter() gpucontext.Adapter           { return fakeGPUAdapter{} }
func (p fakeProvider) SurfaceFormat() gputypes.TextureFormat { return gputypes.TextureFormatRGBA8Unorm }
func (p fakeProvider) AdapterInfo() gpucontext.AdapterInfo   { return gpucontext.AdapterInfo{} }
func (p fakeProvider) HalDevice() any                        { return p.device }
func (p fakeProvider) HalQueue() any                         { return p.queue }

// plainProvider implements gpucontext.DeviceProvider without HAL accessors.
type plainProvider struct{}

func (plainProvider) Device() gpucontext.Device             { return fakeGPUDevice{} }
func (plainProvider) Queue() gpucontext.Queue               { return fakeGPUQueue{} }
func (plainProvider) Adapter() gpucontext.Adapter           { return fakeGPUAdapter{} }
func (plainProvider) SurfaceFormat() gputypes.TextureFormat { return gputypes.TextureFormatRGBA8Unorm }
func (plainProvider) AdapterInfo() gpucontext.AdapterInfo   { return gpucontext.AdapterInfo{} }

func TestFromProvider(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	d, err := FromProvider(fakeProvider{device: device, queue: queue})
	if err != nil {
		t.Fatalf("FromProvider failed: %v", err)
	}
	defer d.Close()
	if d.MaxTextureDimension() <= 0 {
		t.Error("expected positive texture limit")
	}
}

func TestFromProviderWithoutHAL(t *testing.T) {
	if _, err := FromProvider(plainProvider{}); !errors.Is(err, ErrNoHALProvider) {
		t.Errorf("FromProvider error = %v, want ErrNoHALProvider", err)
	}
}

var errQueueWrite = errors.New("queue write failed")

// failingQueue fails WriteTexture once armed.
type failingQueue struct {
	hal.Queue
	armed atomic.Bool
}

func (q *failingQueue) WriteTexture(dst *hal.ImageCopyTexture, data []byte, layout *hal.ImageDataLayout, size *hal.Extent3D) error {
	if q.armed.Load() {
		return errQueueWrite
	}
	return q.Queue.WriteTexture(dst, data, layout, size)
}

func newFailingQueueDevice(t *testing.T) (*Device, *failingQueue) {
	t.Helper()
	device, queue, cleanup := createNoopDevice(t)
	fq := &failingQueue{Queue: queue}
	d, err := NewDevice(device, fq, gputypes.DefaultLimits(), WithMaxTextureDimension(4))
	if err != nil {
		cleanup()
		t.Fatalf("NewDevice failed: %v", err)
	}
	t.Cleanup(func() {
		_ = d.Close()
		cleanup()
	})
	return d, fq
}

func TestCreateTextureUploadError(t *testing.T) {
	d, fq := newFailingQueueDevice(t)
	fq.armed.Store(true)

	desc := testDesc(4, 4)
	_, err := d.CreateTexture(desc, make([]byte, desc.ByteSize()))
	if !errors.Is(err, errQueueWrite) {
		t.Fatalf("CreateTexture error = %v, want queue write error", err)
	}
	if d.Live() != 0 {
		t.Errorf("Live() = %d after failed upload, want 0", d.Live())
	}

	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	tt, err := tiledtex.Build(d, img)
	if err == nil {
		t.Fatalf("Build succeeded with failing queue: %v", tt)
	}
	var be *tiledtex.BuildError
	if !errors.As(err, &be) || !errors.Is(err, errQueueWrite) {
		t.Errorf("Build error = %v, want *BuildError wrapping queue write error", err)
	}
	if d.Live() != 0 {
		t.Errorf("Live() = %d after failed Build, want 0", d.Live())
	}
}

func TestRefreshUploadError(t *testing.T) {
	d, fq := newFailingQueueDevice(t)
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	tt, err := tiledtex.Build(d, img)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer tt.Destroy(d)

	fq.armed.Store(true)
	err = tt.Refresh(d, img)
	var ue *tiledtex.UpdateError
	if !errors.As(err, &ue) {
		t.Fatalf("Refresh error = %v, want *UpdateError", err)
	}
	if !errors.Is(err, errQueueWrite) {
		t.Errorf("Refresh error = %v, want it to wrap the queue write error", err)
	}
	if d.Live() != 4 {
		t.Errorf("Live() = %d after failed Refresh, want 4", d.Live())
	}

	desc := testDesc(4, 4)
	tex := tt.Tile(0)
	if err := d.WriteTexture(tex, make([]byte, desc.ByteSize())); !errors.Is(err, errQueueWrite) {
		t.Errorf("WriteTexture error = %v, want queue write error", err)
	}
}
