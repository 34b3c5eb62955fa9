// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/precomp

package precomp

import (
	"io"
	"os"
)

// fileStream is the file-backed Stream variant from spec section 4.1,
// wrapping *os.File with EOF/error latching so callers can query state
// without inspecting the last Read/Write's return values themselves.
type fileStream struct {
	f       *os.File
	atEOF   bool
	lastErr error
}

// OpenFile opens an existing file at path read-write for use as a
// precomp Stream. It does not create a missing file; CreateFile does.
func OpenFile(path string) (Stream, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0o644)
	if err != nil {
		return nil, newErr(KindIoFailure, "open file", err)
	}
	return &fileStream{f: f}, nil
}

// CreateFile creates (or truncates) path for use as a precomp output Stream.
func CreateFile(path string) (Stream, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, newErr(KindIoFailure, "create file", err)
	}
	return &fileStream{f: f}, nil
}

// newFileStreamFromHandle wraps an already-open *os.File, matching the
// reference API's PrecompSetInputFile/PrecompSetOutputFile which accept a
// caller-owned handle instead of a path.
func newFileStreamFromHandle(f *os.File) Stream {
	return &fileStream{f: f}
}

// Read implements Stream.
func (s *fileStream) Read(p []byte) (int, error) {
	n, err := s.f.Read(p)
	if err == io.EOF {
		s.atEOF = true
	} else if err != nil {
		s.lastErr = err
	}
	return n, err
}

// Write implements Stream.
func (s *fileStream) Write(p []byte) (int, error) {
	n, err := s.f.Write(p)
	if err != nil {
		s.lastErr = err
	}
	return n, err
}

// Seek implements Stream, clearing the latched EOF flag on success.
func (s *fileStream) Seek(offset int64, whence int) (int64, error) {
	pos, err := s.f.Seek(offset, whence)
	if err != nil {
		s.lastErr = err
		return pos, err
	}
	s.atEOF = false
	return pos, nil
}

// Tell returns the current absolute file offset.
func (s *fileStream) Tell() int64 {
	pos, _ := s.f.Seek(0, io.SeekCurrent)
	return pos
}

// EOF reports whether the last Read reached end of file.
func (s *fileStream) EOF() bool { return s.atEOF }

// Err returns the last non-EOF error observed.
func (s *fileStream) Err() error { return s.lastErr }

// Close closes the underlying file handle.
func (s *fileStream) Close() error {
	return s.f.Close()
}

// Size returns the file's current size in bytes.
func (s *fileStream) Size() (int64, error) {
	info, err := s.f.Stat()
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}
