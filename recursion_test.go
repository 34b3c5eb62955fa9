// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/precomp

package precomp

import (
	"bytes"
	"context"
	"io"
	"testing"
)

func newTestRecursionEngine(cfg *Config) *recursionEngine {
	return newRecursionEngine(cfg, newHandlerRegistry(), newDefaultDeflateOracle(), nil)
}

func TestRecursionPayloadTooSmallSkipsRecursion(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig().Freeze()
	re := newTestRecursionEngine(&cfg)

	small := bytes.Repeat([]byte{0x42}, CheckbufSize-1)
	_, used, err := re.precompressPayload(context.Background(), small, 0)
	if err != nil {
		t.Fatalf("precompressPayload: %v", err)
	}
	if used {
		t.Fatalf("recursion was applied to a payload smaller than CheckbufSize")
	}
}

func TestRecursionDepthLimitStopsDescent(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.MaxRecursionDepth = 2
	frozen := cfg.Freeze()
	re := newTestRecursionEngine(&frozen)

	big := bytes.Repeat([]byte("abcdefghij"), CheckbufSize)
	_, used, err := re.precompressPayload(context.Background(), big, 2)
	if err != nil {
		t.Fatalf("precompressPayload: %v", err)
	}
	if used {
		t.Fatalf("recursion descended past MaxRecursionDepth")
	}
	if !re.maxDepthReached {
		t.Fatalf("maxDepthReached flag not set after hitting the depth limit")
	}
}

func TestRecursionDepthLimitRespectsUnderLimit(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.MaxRecursionDepth = 5
	frozen := cfg.Freeze()
	re := newTestRecursionEngine(&frozen)

	// Large, high-entropy payload with no embedded deflate streams: the
	// scanner should still run (recursion attempted) even though nothing
	// gets claimed, since depth is under the limit and the payload
	// clears the minimum size.
	payload := make([]byte, CheckbufSize*2)
	x := byte(7)
	for i := range payload {
		x = x*197 + 13
		payload[i] = x
	}

	out, used, err := re.precompressPayload(context.Background(), payload, 0)
	if err != nil {
		t.Fatalf("precompressPayload: %v", err)
	}
	if !used {
		t.Fatalf("recursion was skipped for a payload under the depth limit and over the size floor")
	}
	if len(out) == 0 {
		t.Fatalf("recursion produced an empty PCF container")
	}
}

func TestRecursionPayloadRespectsCancelledContext(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig().Freeze()
	re := newTestRecursionEngine(&cfg)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	big := bytes.Repeat([]byte("abcdefghij"), CheckbufSize)
	_, _, err := re.precompressPayload(ctx, big, 0)
	if err == nil {
		t.Fatalf("precompressPayload ignored a cancelled context")
	}
}

func TestRecompressIntoRoundTripsLiteralOnlyPayload(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig().Freeze()
	re := newTestRecursionEngine(&cfg)

	original := []byte("nothing compressible here, just plain text")
	out := newGrowableMemoryStream()
	w := newPCFWriter(out, "")
	if err := w.writeHeader(); err != nil {
		t.Fatalf("writeHeader: %v", err)
	}
	if err := w.writeLiteral(original); err != nil {
		t.Fatalf("writeLiteral: %v", err)
	}
	if err := w.close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	var buf bytes.Buffer
	if err := re.recompressInto(out.Bytes(), 0, &buf); err != nil {
		t.Fatalf("recompressInto: %v", err)
	}
	if !bytes.Equal(buf.Bytes(), original) {
		t.Fatalf("recompressInto reproduced %q, want %q", buf.Bytes(), original)
	}
}

func TestRecompressPipelinedYieldsSameBytesAsRecompressInto(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig().Freeze()
	re := newTestRecursionEngine(&cfg)

	original := []byte("pipelined recompress must match the direct writer path exactly")
	out := newGrowableMemoryStream()
	w := newPCFWriter(out, "")
	if err := w.writeHeader(); err != nil {
		t.Fatalf("writeHeader: %v", err)
	}
	if err := w.writeLiteral(original); err != nil {
		t.Fatalf("writeLiteral: %v", err)
	}
	if err := w.close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	got, err := io.ReadAll(re.recompressPipelined(out.Bytes(), 0))
	if err != nil {
		t.Fatalf("reading pipelined recompress: %v", err)
	}
	if !bytes.Equal(got, original) {
		t.Fatalf("pipelined recompress produced %q, want %q", got, original)
	}
}
