// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/precomp

package precomp

import (
	"bytes"
	"context"
	"encoding/binary"
	"hash/crc32"
	"testing"

	kflate "github.com/klauspost/compress/flate"
	kzlib "github.com/klauspost/compress/zlib"
	"github.com/stretchr/testify/require"
)

func mustDeflateRaw(t *testing.T, payload []byte, level int) []byte {
	t.Helper()
	var buf bytes.Buffer
	w, err := kflate.NewWriter(&buf, level)
	require.NoError(t, err)
	_, err = w.Write(payload)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func mustDeflateZlib(t *testing.T, payload []byte, level int) []byte {
	t.Helper()
	var buf bytes.Buffer
	w, err := kzlib.NewWriterLevel(&buf, level)
	require.NoError(t, err)
	_, err = w.Write(payload)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

// buildGzipMember hand-assembles a gzip member with an FNAME field
// around a raw-deflated payload, using the same klauspost encoder the
// production oracle uses so the reencode path matches byte-for-byte.
func buildGzipMember(t *testing.T, payload []byte, name string, level int) []byte {
	t.Helper()
	header := []byte{0x1F, 0x8B, 8, gzipFlagFNAME, 0, 0, 0, 0, 0, 0xFF}
	header = append(header, []byte(name)...)
	header = append(header, 0)

	body := mustDeflateRaw(t, payload, level)

	trailer := make([]byte, 8)
	binary.LittleEndian.PutUint32(trailer[0:4], crc32.ChecksumIEEE(payload))
	binary.LittleEndian.PutUint32(trailer[4:8], uint32(len(payload)))

	out := append([]byte(nil), header...)
	out = append(out, body...)
	out = append(out, trailer...)
	return out
}

// pseudoRandomBytes returns deterministic high-entropy bytes, used
// where a fixture needs data that won't itself compress away.
func pseudoRandomBytes(n int) []byte {
	buf := make([]byte, n)
	x := uint32(0x2545F491)
	for i := range buf {
		x ^= x << 13
		x ^= x >> 17
		x ^= x << 5
		buf[i] = byte(x)
	}
	return buf
}

func runRoundTrip(t *testing.T, cfg Config, original []byte) (ReturnCode, ReturnCode, []byte, Stats) {
	t.Helper()

	p, err := New(cfg)
	require.NoError(t, err)

	in := newMemoryStreamFromBytes(append([]byte(nil), original...))
	out := newGrowableMemoryStream()
	p.SetInput(in, "fixture")
	p.SetOutput(out, "fixture.pcf")

	preCode, err := p.Precompress(context.Background())
	require.NoError(t, err)
	stats := p.Stats()

	pcfBytes := out.Bytes()

	p2, err := New(cfg)
	require.NoError(t, err)
	pcfIn := newMemoryStreamFromBytes(append([]byte(nil), pcfBytes...))
	rebuilt := newGrowableMemoryStream()
	p2.SetInput(pcfIn, "fixture.pcf")
	p2.SetOutput(rebuilt, "fixture.out")

	hdrCode, err := p2.ReadHeader(true)
	require.NoError(t, err)
	require.Equal(t, Success, hdrCode)

	recCode, err := p2.Recompress(context.Background())
	require.NoError(t, err)

	return preCode, recCode, rebuilt.Bytes(), stats
}

func TestEngineRoundTripScenarios(t *testing.T) {
	t.Run("literal only", func(t *testing.T) {
		t.Parallel()
		cfg := DefaultConfig().Freeze()
		original := []byte("plain text with no embedded compressed substream whatsoever, just prose.")

		preCode, recCode, rebuilt, stats := runRoundTrip(t, cfg, original)
		require.Equal(t, NothingDecompressed, preCode)
		require.Equal(t, Success, recCode)
		require.Equal(t, original, rebuilt)
		require.Zero(t, stats.DecompressedStreamsCount)
	})

	t.Run("raw zlib with defaults", func(t *testing.T) {
		t.Parallel()
		cfg := DefaultConfig()
		cfg.IntenseMode = true
		cfg.Enable(DRaw)
		frozen := cfg.Freeze()

		payload := bytes.Repeat([]byte("structured payload data for a raw zlib stream. "), 60)
		zlibBytes := mustDeflateZlib(t, payload, 6)
		original := append(append([]byte("leading literal bytes before the stream. "), zlibBytes...), []byte(" trailing literal bytes after the stream.")...)

		preCode, recCode, rebuilt, stats := runRoundTrip(t, frozen, original)
		require.Equal(t, Success, preCode)
		require.Equal(t, Success, recCode)
		require.Equal(t, original, rebuilt)
		require.EqualValues(t, 1, stats.DecompressedZlibCount)
	})

	t.Run("gzip with filename", func(t *testing.T) {
		t.Parallel()
		cfg := DefaultConfig().Freeze()

		payload := bytes.Repeat([]byte("gzip member payload text, repeated for a real deflate body. "), 40)
		member := buildGzipMember(t, payload, "data.bin", 6)
		original := append(append([]byte("prefix literal. "), member...), []byte(" suffix literal.")...)

		preCode, recCode, rebuilt, stats := runRoundTrip(t, cfg, original)
		require.Equal(t, Success, preCode)
		require.Equal(t, Success, recCode)
		require.Equal(t, original, rebuilt)
		require.EqualValues(t, 1, stats.DecompressedGZipCount)
	})

	t.Run("pdf 24bpp image", func(t *testing.T) {
		t.Parallel()
		cfg := DefaultConfig()
		cfg.PDFBMPMode = true
		frozen := cfg.Freeze()

		width, height := 4, 4
		pixels := pseudoRandomBytes(width * height * 3)
		zlibBytes := mustDeflateZlib(t, pixels, 6)

		var obj bytes.Buffer
		obj.WriteString("5 0 obj<</Type/XObject/Subtype/Image")
		obj.WriteString("/FlateDecode")
		obj.WriteString("/Width 4/Height 4/BitsPerComponent 8/ColorSpace/DeviceRGB>>\n")
		obj.WriteString("stream\n")
		obj.Write(zlibBytes)
		obj.WriteString("\nendstream endobj")

		original := append([]byte("%PDF-1.4\n"), obj.Bytes()...)

		preCode, recCode, rebuilt, stats := runRoundTrip(t, frozen, original)
		require.Equal(t, Success, preCode)
		require.Equal(t, Success, recCode)
		require.Equal(t, original, rebuilt)
		require.EqualValues(t, 1, stats.DecompressedPDFCount)
		require.EqualValues(t, 1, stats.DecompressedPDFCount24Bit)
	})

	t.Run("brute false positive", func(t *testing.T) {
		t.Parallel()
		cfg := DefaultConfig()
		cfg.BruteMode = true
		cfg.Enable(DBrute)
		frozen := cfg.Freeze()

		// High-entropy bytes with a BTYPE-plausible first byte, so
		// quickCheck's histogram gate lets it through, but the bytes
		// aren't a real deflate stream and inflate must fail.
		garbage := pseudoRandomBytes(512)
		garbage[0] = 0x02 // BTYPE = 1 (fixed Huffman), not reserved or stored

		original := append(append([]byte("before. "), garbage...), []byte(" after.")...)

		preCode, recCode, rebuilt, stats := runRoundTrip(t, frozen, original)
		require.Equal(t, NothingDecompressed, preCode)
		require.Equal(t, Success, recCode)
		require.Equal(t, original, rebuilt)
		require.Zero(t, stats.DecompressedBruteCount)
	})

	t.Run("recursive gzip of zlib", func(t *testing.T) {
		t.Parallel()
		cfg := DefaultConfig()
		cfg.IntenseMode = true
		cfg.Enable(DRaw)
		frozen := cfg.Freeze()

		innerPayload := pseudoRandomBytes(6000)
		innerZlib := mustDeflateZlib(t, innerPayload, 6)
		require.GreaterOrEqual(t, len(innerZlib), CheckbufSize)

		member := buildGzipMember(t, innerZlib, "nested.zlib", 6)
		original := append(append([]byte("outer literal prefix. "), member...), []byte(" outer literal suffix.")...)

		preCode, recCode, rebuilt, stats := runRoundTrip(t, frozen, original)
		require.Equal(t, Success, preCode)
		require.Equal(t, Success, recCode)
		require.Equal(t, original, rebuilt)
		require.EqualValues(t, 1, stats.DecompressedGZipCount)
	})
}

func TestPrecompressNilStreams(t *testing.T) {
	t.Parallel()
	cfg := DefaultConfig().Freeze()
	p, err := New(cfg)
	require.NoError(t, err)

	code, err := p.Precompress(context.Background())
	require.ErrorIs(t, err, ErrNilStream)
	require.Equal(t, GenericOrUnknown, code)
}

func TestPrecompressRejectsCancelledContext(t *testing.T) {
	t.Parallel()
	cfg := DefaultConfig().Freeze()
	p, err := New(cfg)
	require.NoError(t, err)

	p.SetInput(newMemoryStreamFromBytes([]byte("data")), "in")
	p.SetOutput(newGrowableMemoryStream(), "out")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	code, err := p.Precompress(ctx)
	require.Error(t, err)
	require.Equal(t, GenericOrUnknown, code)
}

func TestReadHeaderRejectsMissingMagic(t *testing.T) {
	t.Parallel()
	cfg := DefaultConfig().Freeze()
	p, err := New(cfg)
	require.NoError(t, err)

	p.SetInput(newMemoryStreamFromBytes([]byte("not a pcf container")), "in")
	code, err := p.ReadHeader(false)
	require.Error(t, err)
	require.Equal(t, NoPCFHeader, code)
}

func TestRecompressRequiresReadHeaderFirst(t *testing.T) {
	t.Parallel()
	cfg := DefaultConfig().Freeze()
	p, err := New(cfg)
	require.NoError(t, err)

	p.SetInput(newMemoryStreamFromBytes([]byte("irrelevant")), "in")
	p.SetOutput(newGrowableMemoryStream(), "out")

	code, err := p.Recompress(context.Background())
	require.ErrorIs(t, err, ErrHeaderMissing)
	require.Equal(t, GenericOrUnknown, code)
}

func TestClosedPrecompRejectsOperations(t *testing.T) {
	t.Parallel()
	cfg := DefaultConfig().Freeze()
	p, err := New(cfg)
	require.NoError(t, err)
	require.NoError(t, p.Close())

	p.SetInput(newMemoryStreamFromBytes([]byte("data")), "in")
	p.SetOutput(newGrowableMemoryStream(), "out")

	code, err := p.Precompress(context.Background())
	require.ErrorIs(t, err, ErrClosed)
	require.Equal(t, GenericOrUnknown, code)
}
