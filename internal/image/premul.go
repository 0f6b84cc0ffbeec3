// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package image

// Premultiply writes the premultiplied version of RGBA8 src into dst and
// returns dst[:len(src)]. dst may alias src for in-place conversion.
// A dst without enough capacity is replaced by a new buffer.
func Premultiply(dst, src []byte) []byte {
	if cap(dst) < len(src) {
		dst = make([]byte, len(src))
	}
	dst = dst[:len(src)]

	for off := 0; off+BytesPerPixel <= len(src); off += BytesPerPixel {
		a := uint16(src[off+3])
		switch a {
		case 255:
			copy(dst[off:off+BytesPerPixel], src[off:off+BytesPerPixel])
		case 0:
			dst[off], dst[off+1], dst[off+2], dst[off+3] = 0, 0, 0, 0
		default:
			// Premultiply: channel = channel * alpha / 255
			dst[off] = byte((uint16(src[off])*a + 127) / 255)
			dst[off+1] = byte((uint16(src[off+1])*a + 127) / 255)
			dst[off+2] = byte((uint16(src[off+2])*a + 127) / 255)
			dst[off+3] = byte(a)
		}
	}
	return dst
}
