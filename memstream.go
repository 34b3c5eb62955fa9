// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/precomp

package precomp

import (
	"io"

	"github.com/xaionaro-go/bytesextra"
)

// memoryStream is the memory-backed Stream variant from spec section 4.1.
// Fixed-size buffers (a fully materialized payload, e.g. a loaded
// recursion result) delegate directly to bytesextra's ReadWriteSeeker,
// grounded on its use in dargueta-disko/testing/images.go for a
// known-size in-memory image. Buffers that must grow while being written
// (building an output blob of unknown final size) instead grow a plain
// []byte themselves, since bytesextra's ReadWriteSeeker is sized at
// construction.
type memoryStream struct {
	rws      io.ReadWriteSeeker
	growable bool
	buf      []byte
	pos      int64
	atEOF    bool
	lastErr  error
}

// newMemoryStreamFromBytes wraps an existing, fully-known buffer as a
// fixed-size seekable Stream.
func newMemoryStreamFromBytes(data []byte) Stream {
	return &memoryStream{rws: bytesextra.NewReadWriteSeeker(data)}
}

// newGrowableMemoryStream returns an empty Stream whose backing buffer
// grows on write, for building output of unknown final size.
func newGrowableMemoryStream() *memoryStream {
	return &memoryStream{growable: true}
}

// Read implements Stream.
func (m *memoryStream) Read(p []byte) (int, error) {
	var n int
	var err error
	if m.growable {
		if m.pos >= int64(len(m.buf)) {
			m.atEOF = true
			return 0, io.EOF
		}
		n = copy(p, m.buf[m.pos:])
		m.pos += int64(n)
		if m.pos >= int64(len(m.buf)) {
			err = io.EOF
		}
	} else {
		n, err = m.rws.Read(p)
	}
	if err == io.EOF {
		m.atEOF = true
	} else if err != nil {
		m.lastErr = err
	}
	return n, err
}

// Write implements Stream, growing the backing buffer for growable streams.
func (m *memoryStream) Write(p []byte) (int, error) {
	if !m.growable {
		n, err := m.rws.Write(p)
		if err != nil {
			m.lastErr = err
		}
		return n, err
	}
	end := m.pos + int64(len(p))
	if end > int64(len(m.buf)) {
		grown := make([]byte, end)
		copy(grown, m.buf)
		m.buf = grown
	}
	n := copy(m.buf[m.pos:end], p)
	m.pos += int64(n)
	return n, nil
}

// Seek implements Stream.
func (m *memoryStream) Seek(offset int64, whence int) (int64, error) {
	if !m.growable {
		pos, err := m.rws.Seek(offset, whence)
		if err == nil {
			m.atEOF = false
		} else {
			m.lastErr = err
		}
		return pos, err
	}
	var target int64
	switch whence {
	case io.SeekStart:
		target = offset
	case io.SeekCurrent:
		target = m.pos + offset
	case io.SeekEnd:
		target = int64(len(m.buf)) + offset
	default:
		return 0, ErrSeekUnsupported
	}
	if target < 0 {
		return 0, ErrSeekUnsupported
	}
	m.pos = target
	m.atEOF = false
	return m.pos, nil
}

// Tell returns the current position.
func (m *memoryStream) Tell() int64 {
	if !m.growable {
		pos, _ := m.rws.Seek(0, io.SeekCurrent)
		return pos
	}
	return m.pos
}

// EOF reports whether the last Read reached the end of the buffer.
func (m *memoryStream) EOF() bool { return m.atEOF }

// Err returns the last non-EOF error observed.
func (m *memoryStream) Err() error { return m.lastErr }

// Bytes returns the growable stream's current contents. It is only valid
// for streams created with newGrowableMemoryStream.
func (m *memoryStream) Bytes() []byte { return m.buf }
