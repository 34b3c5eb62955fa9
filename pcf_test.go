// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/precomp

package precomp

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"testing"
)

func TestPCFHeaderEncodeDecode(t *testing.T) {
	t.Parallel()

	h := &pcfHeader{VersionMajor: 1, VersionMinor: 2, VersionPatch: 3, Filename: "archive.tar"}
	buf := h.encode()

	got, err := decodePCFHeaderFrom(bufio.NewReader(bytes.NewReader(buf)))
	if err != nil {
		t.Fatalf("decodePCFHeaderFrom failed: %v", err)
	}
	if *got != *h {
		t.Fatalf("decoded header %+v, want %+v", got, h)
	}
}

func TestPCFHeaderEncodeDecodeEmptyFilename(t *testing.T) {
	t.Parallel()

	h := &pcfHeader{VersionMajor: 1, VersionMinor: 0, VersionPatch: 0, Filename: ""}
	buf := h.encode()
	got, err := decodePCFHeaderFrom(bufio.NewReader(bytes.NewReader(buf)))
	if err != nil {
		t.Fatalf("decodePCFHeaderFrom failed: %v", err)
	}
	if got.Filename != "" {
		t.Fatalf("Filename = %q, want empty", got.Filename)
	}
}

func TestDecodePCFHeaderTruncated(t *testing.T) {
	t.Parallel()

	_, err := decodePCFHeaderFrom(bufio.NewReader(bytes.NewReader([]byte{'P', 'C', 'F'})))
	if err == nil {
		t.Fatalf("decodePCFHeaderFrom accepted a truncated buffer")
	}
	var perr *Error
	if !errors.As(err, &perr) || perr.Kind != KindHeaderMissing {
		t.Fatalf("expected KindHeaderMissing, got %v", err)
	}
}

func TestDecodePCFHeaderBadMagic(t *testing.T) {
	t.Parallel()

	buf := append([]byte{'X', 'X', 'X'}, 1, 0, 0, 0, 0)
	_, err := decodePCFHeaderFrom(bufio.NewReader(bytes.NewReader(buf)))
	if err == nil {
		t.Fatalf("decodePCFHeaderFrom accepted a bad magic")
	}
	var perr *Error
	if !errors.As(err, &perr) || perr.Kind != KindHeaderMissing {
		t.Fatalf("expected KindHeaderMissing, got %v", err)
	}
}

func TestDecodePCFHeaderFutureVersion(t *testing.T) {
	t.Parallel()

	h := &pcfHeader{VersionMajor: pcfVersionMajor + 1, Filename: "x"}
	_, err := decodePCFHeaderFrom(bufio.NewReader(bytes.NewReader(h.encode())))
	if err == nil {
		t.Fatalf("decodePCFHeaderFrom accepted a future major version")
	}
	var perr *Error
	if !errors.As(err, &perr) || perr.Kind != KindHeaderVersionMismatch {
		t.Fatalf("expected KindHeaderVersionMismatch, got %v", err)
	}
}

func TestPCFWriterReaderRoundTrip(t *testing.T) {
	t.Parallel()

	out := newGrowableMemoryStream()
	w := newPCFWriter(out, "dir/name.bin")
	if err := w.writeHeader(); err != nil {
		t.Fatalf("writeHeader: %v", err)
	}
	if err := w.writeLiteral([]byte("hello ")); err != nil {
		t.Fatalf("writeLiteral: %v", err)
	}

	rec := &record{
		Format:         DGZip,
		OriginalOffset: 6,
		OriginalLength: 40,
		Flavor:         flavorRaw,
		Perfect:        true,
		CompLevel:      6,
		MemLevel:       8,
		WindowBits:     15,
		FormatMeta:     []byte("gz-header-and-trailer"),
	}
	if err := w.writeRecord(rec, []byte("world")); err != nil {
		t.Fatalf("writeRecord: %v", err)
	}
	if err := w.writeLiteral([]byte("!")); err != nil {
		t.Fatalf("writeLiteral: %v", err)
	}
	if err := w.close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	in := newMemoryStreamFromBytes(out.Bytes())
	r, err := newPCFReader(in)
	if err != nil {
		t.Fatalf("newPCFReader: %v", err)
	}
	defer r.close()

	if r.Header().Filename != "name.bin" {
		t.Fatalf("header filename = %q, want %q (directory path must be stripped)", r.Header().Filename, "name.bin")
	}

	var chunks []*pcfChunk
	for {
		c, err := r.next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		chunks = append(chunks, c)
	}

	if len(chunks) != 3 {
		t.Fatalf("got %d chunks, want 3", len(chunks))
	}
	if string(chunks[0].Literal) != "hello " {
		t.Fatalf("chunk 0 literal = %q", chunks[0].Literal)
	}
	got := chunks[1]
	if got.Record == nil || got.Record.Format != DGZip || string(got.Payload) != "world" {
		t.Fatalf("chunk 1 = %+v, payload %q", got.Record, got.Payload)
	}
	if !got.Record.Perfect || got.Record.CompLevel != 6 || got.Record.WindowBits != 15 || got.Record.MemLevel != 8 {
		t.Fatalf("chunk 1 record deflate metadata mismatch: %+v", got.Record)
	}
	if string(got.Record.FormatMeta) != "gz-header-and-trailer" {
		t.Fatalf("chunk 1 FormatMeta = %q", got.Record.FormatMeta)
	}
	if string(chunks[2].Literal) != "!" {
		t.Fatalf("chunk 2 literal = %q", chunks[2].Literal)
	}
}

func TestPCFWriterNonPerfectRecordCarriesReconData(t *testing.T) {
	t.Parallel()

	out := newGrowableMemoryStream()
	w := newPCFWriter(out, "")
	if err := w.writeHeader(); err != nil {
		t.Fatalf("writeHeader: %v", err)
	}

	original := []byte{0x78, 0x9c, 0x01, 0x02, 0x03}
	rec := &record{
		Format:         DRaw,
		OriginalLength: int64(len(original)),
		Flavor:         flavorZlib,
		Perfect:        false,
		ReconData:      original,
	}
	if err := w.writeRecord(rec, []byte("payload")); err != nil {
		t.Fatalf("writeRecord: %v", err)
	}
	if err := w.close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	in := newMemoryStreamFromBytes(out.Bytes())
	r, err := newPCFReader(in)
	if err != nil {
		t.Fatalf("newPCFReader: %v", err)
	}
	defer r.close()

	chunk, err := r.next()
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if chunk.Record.Perfect {
		t.Fatalf("record decoded as Perfect, want non-perfect")
	}
	if !bytes.Equal(chunk.Record.ReconData, original) {
		t.Fatalf("ReconData = % x, want % x", chunk.Record.ReconData, original)
	}
}

func TestPCFWriterEmptyLiteralSkipped(t *testing.T) {
	t.Parallel()

	out := newGrowableMemoryStream()
	w := newPCFWriter(out, "")
	if err := w.writeHeader(); err != nil {
		t.Fatalf("writeHeader: %v", err)
	}
	if err := w.writeLiteral(nil); err != nil {
		t.Fatalf("writeLiteral(nil): %v", err)
	}
	if err := w.close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	in := newMemoryStreamFromBytes(out.Bytes())
	r, err := newPCFReader(in)
	if err != nil {
		t.Fatalf("newPCFReader: %v", err)
	}
	defer r.close()

	_, err = r.next()
	if err != io.EOF {
		t.Fatalf("next() = %v, want io.EOF (empty literal must not be written)", err)
	}
}

func TestPCFRecursionLengthMismatchRejected(t *testing.T) {
	t.Parallel()

	out := newGrowableMemoryStream()
	w := newPCFWriter(out, "")
	if err := w.writeHeader(); err != nil {
		t.Fatalf("writeHeader: %v", err)
	}
	rec := &record{Format: DBase64, OriginalLength: 10, RecursionUsed: true}
	if err := w.writeRecord(rec, []byte("nested")); err != nil {
		t.Fatalf("writeRecord: %v", err)
	}
	if err := w.close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	raw := out.Bytes()
	// Corrupt the trailing recursion-length varint (the last byte before
	// the terminator) so it no longer equals len(payload).
	raw[len(raw)-3] = 0x63

	in := newMemoryStreamFromBytes(raw)
	r, err := newPCFReader(in)
	if err != nil {
		t.Fatalf("newPCFReader: %v", err)
	}
	defer r.close()

	_, err = r.next()
	if err == nil {
		t.Fatalf("next accepted a corrupted recursion length")
	}
	var perr *Error
	if !errors.As(err, &perr) || perr.Kind != KindRecompressionFailure {
		t.Fatalf("expected KindRecompressionFailure, got %v", err)
	}
}
