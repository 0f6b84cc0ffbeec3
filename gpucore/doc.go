// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package gpucore defines the GPU capability consumed by tiledtex.
//
// A [Device] reports the largest texture dimension it supports, allocates
// textures from RGBA8 byte buffers and replaces the contents of existing
// textures. Backends live under backend/:
//   - backend/native: gogpu/wgpu HAL device and queue
//   - backend/memory: in-memory textures with fault injection, for tests
//
//	               +-----------------+
//	               |    tiledtex     |
//	               | (Build/Refresh) |
//	               +--------+--------+
//	                        |
//	               +--------v--------+
//	               | gpucore.Device  |
//	               +--------+--------+
//	                        |
//	         +--------------+--------------+
//	         |                             |
//	+--------v--------+          +--------v--------+
//	| backend/native  |          | backend/memory  |
//	|  (hal.Device)   |          |   (CPU only)    |
//	+-----------------+          +-----------------+
//
// Devices are not required to be safe for concurrent use. Callers serialize
// access on the goroutine that owns the GPU context.
package gpucore
