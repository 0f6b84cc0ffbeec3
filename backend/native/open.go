// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package native

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/tiledtex/backend"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
)

// BackendNoop is the registry name of the noop HAL device.
const BackendNoop = "noop"

func init() {
	backend.Register(backend.BackendNative, func(cfg backend.Config) (backend.Device, error) {
		return Open(configOptions(cfg)...)
	})
	backend.Register(BackendNoop, func(cfg backend.Config) (backend.Device, error) {
		return Open(append(configOptions(cfg), WithNoop())...)
	})
}

func configOptions(cfg backend.Config) []Option {
	if cfg.MaxTextureDimension > 0 {
		return []Option{WithMaxTextureDimension(cfg.MaxTextureDimension)}
	}
	return nil
}

// Open creates a standalone device on the first discrete or integrated GPU,
// or on the noop HAL with WithNoop. Close destroys the HAL device and
// instance.
func Open(opts ...Option) (*Device, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	var (
		instance hal.Instance
		err      error
		name     = backend.BackendNative
	)
	if o.noop {
		name = BackendNoop
		instance, err = noop.API{}.CreateInstance(nil)
	} else {
		b, ok := hal.GetBackend(gputypes.BackendVulkan)
		if !ok {
			return nil, fmt.Errorf("%w: vulkan backend not available", ErrNoGPU)
		}
		instance, err = b.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	}
	if err != nil {
		return nil, fmt.Errorf("create instance: %w", err)
	}

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, ErrNoGPU
	}

	selected := &adapters[0]
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}

	limits := gputypes.DefaultLimits()
	openDev, err := selected.Adapter.Open(gputypes.Features(0), limits)
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("open device: %w", err)
	}

	release := func() {
		openDev.Device.Destroy()
		instance.Destroy()
	}
	slogger().Info("native: GPU initialized (standalone)", "adapter", selected.Info.Name, "backend", name)
	return newDevice(openDev.Device, openDev.Queue, limits, o, release, name), nil
}
