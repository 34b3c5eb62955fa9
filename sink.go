// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/precomp

package precomp

import (
	"io"
	"os"

	"github.com/noxer/bytewriter"
)

// uncompressedSink accumulates a decompressed payload for one candidate
// stream. It starts as a fixed-capacity in-memory buffer (bytewriter.Writer
// over a pre-allocated []byte, per dargueta-disko's compression tests) and,
// once that capacity is exhausted, spills the buffered prefix plus all
// further writes into a temp file. This bounds peak memory when a single
// embedded stream decompresses to something far larger than its
// capacity. tryRecompression does not use it; inflated payloads are held
// in memory.
type uncompressedSink struct {
	capacity int64
	mem      []byte
	memW     *bytewriter.Writer
	written  int64

	tmp     *os.File
	tmpFact TempFileFactory
	spilled bool
}

// newUncompressedSink returns a sink that buffers up to capacity bytes in
// memory before spilling to a temp file created by fact.
func newUncompressedSink(capacity int64, fact TempFileFactory) *uncompressedSink {
	if fact == nil {
		fact = defaultTempFileFactory()
	}
	buf := make([]byte, capacity)
	return &uncompressedSink{
		capacity: capacity,
		mem:      buf,
		memW:     bytewriter.New(buf),
		tmpFact:  fact,
	}
}

// Write implements io.Writer, transparently spilling to disk on overflow.
func (s *uncompressedSink) Write(p []byte) (int, error) {
	if s.spilled {
		n, err := s.tmp.Write(p)
		s.written += int64(n)
		return n, err
	}

	room := s.capacity - s.written
	if int64(len(p)) <= room {
		n, err := s.memW.Write(p)
		s.written += int64(n)
		return n, err
	}

	// Overflow: spill what's buffered so far, then continue on disk.
	tmp, err := s.tmpFact.Create("precomp-sink-*")
	if err != nil {
		return 0, err
	}
	if _, err := tmp.Write(s.mem[:s.written]); err != nil {
		s.tmpFact.Remove(tmp)
		return 0, newErr(KindIoFailure, "spill sink to temp file", err)
	}
	s.tmp = tmp
	s.spilled = true
	s.mem = nil
	s.memW = nil

	n, err := s.tmp.Write(p)
	s.written += int64(n)
	return n, err
}

// Size reports the total number of bytes written so far.
func (s *uncompressedSink) Size() int64 { return s.written }

// Reader returns a fresh reader over the full accumulated payload from the
// start, seeking the temp file back to zero if the sink has spilled.
func (s *uncompressedSink) Reader() (io.ReadSeeker, error) {
	if !s.spilled {
		return newByteSliceReadSeeker(s.mem[:s.written]), nil
	}
	if _, err := s.tmp.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	return s.tmp, nil
}

// Close releases the sink's temp file, if any.
func (s *uncompressedSink) Close() error {
	if s.spilled && s.tmp != nil {
		return s.tmpFact.Remove(s.tmp)
	}
	return nil
}

// byteSliceReadSeeker adapts a []byte to io.ReadSeeker without copying,
// used for the in-memory (non-spilled) sink path.
type byteSliceReadSeeker struct {
	data []byte
	pos  int64
}

func newByteSliceReadSeeker(data []byte) *byteSliceReadSeeker {
	return &byteSliceReadSeeker{data: data}
}

func (r *byteSliceReadSeeker) Read(p []byte) (int, error) {
	if r.pos >= int64(len(r.data)) {
		return 0, io.EOF
	}
	n := copy(p, r.data[r.pos:])
	r.pos += int64(n)
	return n, nil
}

func (r *byteSliceReadSeeker) Seek(offset int64, whence int) (int64, error) {
	var target int64
	switch whence {
	case io.SeekStart:
		target = offset
	case io.SeekCurrent:
		target = r.pos + offset
	case io.SeekEnd:
		target = int64(len(r.data)) + offset
	}
	if target < 0 {
		return 0, ErrSeekUnsupported
	}
	r.pos = target
	return r.pos, nil
}
