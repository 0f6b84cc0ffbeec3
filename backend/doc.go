// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package backend provides a registry of gpucore.Device implementations.
//
// Backends register a factory under a name from their init() functions and
// are selected at runtime:
//
//	import (
//	    "github.com/gogpu/tiledtex/backend"
//	    _ "github.com/gogpu/tiledtex/backend/memory"
//	    _ "github.com/gogpu/tiledtex/backend/native"
//	)
//
//	// Best available backend (native > memory)
//	dev, err := backend.Open("", backend.Config{})
//	if err != nil {
//	    return err
//	}
//	defer dev.Close()
//
//	// Or a specific one, with a forced tile limit
//	dev, err = backend.Open(backend.BackendMemory, backend.Config{MaxTextureDimension: 512})
package backend
