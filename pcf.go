// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/precomp

package precomp

import "io"

// pcfMagic identifies a PCF container: the first three bytes of every
// precompressed output, per spec section 6.
var pcfMagic = [3]byte{'P', 'C', 'F'}

// Container format version this package writes and the minimum major
// version it will read.
const (
	pcfVersionMajor byte = 1
	pcfVersionMinor byte = 0
	pcfVersionPatch byte = 0
)

// pcfHeader is the container prologue: magic, a three-byte version, one
// reserved byte, and the NUL-terminated input filename with any
// directory path stripped.
type pcfHeader struct {
	VersionMajor byte
	VersionMinor byte
	VersionPatch byte
	Filename     string
}

// encode serializes the header to its variable-length wire form.
func (h *pcfHeader) encode() []byte {
	out := make([]byte, 0, len(pcfMagic)+4+len(h.Filename)+1)
	out = append(out, pcfMagic[:]...)
	out = append(out, h.VersionMajor, h.VersionMinor, h.VersionPatch, 0)
	out = append(out, []byte(h.Filename)...)
	out = append(out, 0)
	return out
}

// decodePCFHeaderFrom reads the header from r one byte at a time, since
// the filename field has no length prefix ahead of it. Rejects a major
// version newer than this package understands.
func decodePCFHeaderFrom(r io.ByteReader) (*pcfHeader, error) {
	var magic [3]byte
	for i := range magic {
		b, err := r.ReadByte()
		if err != nil {
			return nil, newErr(KindHeaderMissing, "read pcf magic", err)
		}
		magic[i] = b
	}
	if magic != pcfMagic {
		return nil, newErr(KindHeaderMissing, "pcf magic mismatch", nil)
	}

	var vbuf [4]byte
	for i := range vbuf {
		b, err := r.ReadByte()
		if err != nil {
			return nil, newErr(KindHeaderMissing, "read pcf version", err)
		}
		vbuf[i] = b
	}
	h := &pcfHeader{VersionMajor: vbuf[0], VersionMinor: vbuf[1], VersionPatch: vbuf[2]}
	if h.VersionMajor > pcfVersionMajor {
		return nil, newErr(KindHeaderVersionMismatch, "pcf version too new", nil)
	}

	var name []byte
	for {
		b, err := r.ReadByte()
		if err != nil {
			return nil, newErr(KindHeaderMissing, "read pcf filename", err)
		}
		if b == 0 {
			break
		}
		name = append(name, b)
	}
	h.Filename = string(name)
	return h, nil
}
