// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/precomp

package precomp

import "encoding/binary"

// putVarint encodes v as a PCF variable-length integer into dst, returning
// the number of bytes written. This is spec section 4.2's scheme, distinct
// from encoding/binary's LEB128: while v >= 128, emit (v&127)|128 and set
// v = (v>>7)-1, then emit the final byte.
func putVarint(dst []byte, v uint64) int {
	i := 0
	for v >= 128 {
		dst[i] = byte(v&127) | 128
		v = (v >> 7) - 1
		i++
	}
	dst[i] = byte(v)
	return i + 1
}

// varintSize returns the encoded length of v without writing it.
func varintSize(v uint64) int {
	n := 1
	for v >= 128 {
		v = (v >> 7) - 1
		n++
	}
	return n
}

// getVarint decodes a PCF variable-length integer from src, returning the
// value and the number of bytes consumed. It returns (0, 0) if src does
// not contain a complete encoding.
func getVarint(src []byte) (uint64, int) {
	var v uint64
	var shift uint
	for i, b := range src {
		payload := uint64(b & 127)
		if shift == 0 {
			v = payload
		} else {
			v = v + ((payload + 1) << shift)
		}
		if b < 128 {
			return v, i + 1
		}
		shift += 7
	}
	return 0, 0
}

// appendVarint appends v's PCF varint encoding to dst.
func appendVarint(dst []byte, v uint64) []byte {
	var buf [10]byte
	n := putVarint(buf[:], v)
	return append(dst, buf[:n]...)
}

// putUint32LE writes v as fixed 4-byte little-endian.
func putUint32LE(dst []byte, v uint32) {
	binary.LittleEndian.PutUint32(dst, v)
}

// putUint32BE writes v as fixed 4-byte big-endian.
func putUint32BE(dst []byte, v uint32) {
	binary.BigEndian.PutUint32(dst, v)
}
