// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/precomp

package precomp

import (
	"bytes"
	"io"

	kflate "github.com/klauspost/compress/flate"
	kzlib "github.com/klauspost/compress/zlib"
)

// DeflateOracle reencodes a raw inflated payload back into a candidate
// compressed stream, so the precompressor can verify a decompressed
// stream reconstructs bit-for-bit (module for module, save any recorded
// penalty bytes) before committing to precompressing it. Swappable so a
// caller can plug in a different deflate implementation tuned to match a
// particular original encoder more closely.
type DeflateOracle interface {
	// DeflateRaw reencodes raw (an inflated payload) as a raw deflate
	// stream at the given compression level.
	DeflateRaw(raw []byte, level int) ([]byte, error)
	// DeflateZlib reencodes raw as a zlib-wrapped deflate stream.
	DeflateZlib(raw []byte, level int) ([]byte, error)
	// InflateRaw inflates a raw deflate stream starting at window[0],
	// reporting how many leading bytes of window the stream actually
	// occupies, since window is scanner lookahead and typically extends
	// well past the end of the compressed data.
	InflateRaw(window []byte) (payload []byte, consumed int64, err error)
	// InflateZlib inflates a zlib-wrapped deflate stream starting at
	// window[0], with the same consumed-length contract as InflateRaw.
	InflateZlib(window []byte) (payload []byte, consumed int64, err error)
}

// klauspostOracle is the default DeflateOracle, backed by
// github.com/klauspost/compress's flate/zlib implementations, used in
// place of compress/flate. Its writers are configured by compression
// level only; no dictionary, window or memory parameters are set.
type klauspostOracle struct{}

// newDefaultDeflateOracle returns the klauspost/compress-backed oracle.
func newDefaultDeflateOracle() DeflateOracle { return klauspostOracle{} }

func (klauspostOracle) DeflateRaw(raw []byte, level int) ([]byte, error) {
	var buf bytes.Buffer
	w, err := kflate.NewWriter(&buf, level)
	if err != nil {
		return nil, newErr(KindRecompressionFailure, "construct flate writer", err)
	}
	if _, err := w.Write(raw); err != nil {
		return nil, newErr(KindRecompressionFailure, "flate write", err)
	}
	if err := w.Close(); err != nil {
		return nil, newErr(KindRecompressionFailure, "flate close", err)
	}
	return buf.Bytes(), nil
}

func (klauspostOracle) DeflateZlib(raw []byte, level int) ([]byte, error) {
	var buf bytes.Buffer
	w, err := kzlib.NewWriterLevel(&buf, level)
	if err != nil {
		return nil, newErr(KindRecompressionFailure, "construct zlib writer", err)
	}
	if _, err := w.Write(raw); err != nil {
		return nil, newErr(KindRecompressionFailure, "zlib write", err)
	}
	if err := w.Close(); err != nil {
		return nil, newErr(KindRecompressionFailure, "zlib close", err)
	}
	return buf.Bytes(), nil
}

func (klauspostOracle) InflateRaw(window []byte) ([]byte, int64, error) {
	cr := newCountingByteReader(window)
	r := kflate.NewReader(cr)
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, 0, newErr(KindIoFailure, "flate inflate", err)
	}
	return out, cr.n, nil
}

func (klauspostOracle) InflateZlib(window []byte) ([]byte, int64, error) {
	cr := newCountingByteReader(window)
	r, err := kzlib.NewReader(cr)
	if err != nil {
		return nil, 0, newErr(KindIoFailure, "construct zlib reader", err)
	}
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, 0, newErr(KindIoFailure, "zlib inflate", err)
	}
	return out, cr.n, nil
}

// countingByteReader wraps a byte slice and tracks how many bytes have
// been consumed through it. It implements io.ByteReader in addition to
// io.Reader so klauspost/compress's flate/zlib readers pull one byte at
// a time instead of buffering ahead internally, keeping the consumed
// count close to the true end of the compressed stream rather than the
// end of whatever read-ahead buffer they'd otherwise use.
type countingByteReader struct {
	buf []byte
	n   int64
}

func newCountingByteReader(buf []byte) *countingByteReader {
	return &countingByteReader{buf: buf}
}

func (c *countingByteReader) Read(p []byte) (int, error) {
	if c.n >= int64(len(c.buf)) {
		return 0, io.EOF
	}
	n := copy(p, c.buf[c.n:])
	c.n += int64(n)
	return n, nil
}

func (c *countingByteReader) ReadByte() (byte, error) {
	if c.n >= int64(len(c.buf)) {
		return 0, io.EOF
	}
	b := c.buf[c.n]
	c.n++
	return b, nil
}
