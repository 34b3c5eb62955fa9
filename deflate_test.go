// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/precomp

package precomp

import (
	"bytes"
	"testing"

	kflate "github.com/klauspost/compress/flate"
	kzlib "github.com/klauspost/compress/zlib"
)

func deflateRawAt(t *testing.T, payload []byte, level int) []byte {
	t.Helper()
	var buf bytes.Buffer
	w, err := kflate.NewWriter(&buf, level)
	if err != nil {
		t.Fatalf("kflate.NewWriter: %v", err)
	}
	if _, err := w.Write(payload); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	return buf.Bytes()
}

func deflateZlibAt(t *testing.T, payload []byte, level int) []byte {
	t.Helper()
	var buf bytes.Buffer
	w, err := kzlib.NewWriterLevel(&buf, level)
	if err != nil {
		t.Fatalf("kzlib.NewWriterLevel: %v", err)
	}
	if _, err := w.Write(payload); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	return buf.Bytes()
}

func newTestHandlerContext() (*handlerContext, DeflateOracle) {
	oracle := newDefaultDeflateOracle()
	cfg := DefaultConfig().Freeze()
	hc := &handlerContext{cfg: &cfg, oracle: oracle, filter: newFalsePositiveFilter(), tmpFact: defaultTempFileFactory()}
	return hc, oracle
}

func TestTryRecompressionRawExactWindow(t *testing.T) {
	t.Parallel()

	hc, _ := newTestHandlerContext()
	payload := bytes.Repeat([]byte("the quick brown fox jumps over the lazy dog. "), 40)
	compressed := deflateRawAt(t, payload, 6)

	result, ok, err := tryRecompression(hc, compressed, flavorRaw, true)
	if err != nil {
		t.Fatalf("tryRecompression: %v", err)
	}
	if !ok {
		t.Fatalf("tryRecompression did not find a matching level")
	}
	if !result.Perfect {
		t.Fatalf("expected a perfect record")
	}
	if result.CompLevel != 6 {
		t.Fatalf("recovered level = %d, want 6", result.CompLevel)
	}
	if string(result.Inflated) != string(payload) {
		t.Fatalf("inflated payload mismatch")
	}
	if result.OriginalLength != int64(len(compressed)) {
		t.Fatalf("OriginalLength = %d, want %d", result.OriginalLength, len(compressed))
	}
}

func TestTryRecompressionZlibWithTrailingLookahead(t *testing.T) {
	t.Parallel()

	hc, _ := newTestHandlerContext()
	payload := bytes.Repeat([]byte("some structured data payload, "), 50)
	compressed := deflateZlibAt(t, payload, 9)

	// Simulate a scanner lookahead window that extends past the end of
	// the actual compressed stream.
	window := append(append([]byte(nil), compressed...), []byte("trailing garbage bytes not part of the stream")...)

	result, ok, err := tryRecompression(hc, window, flavorZlib, true)
	if err != nil {
		t.Fatalf("tryRecompression: %v", err)
	}
	if !ok {
		t.Fatalf("tryRecompression did not find a matching level with trailing lookahead")
	}
	if result.OriginalLength != int64(len(compressed)) {
		t.Fatalf("OriginalLength = %d, want %d (must not include trailing bytes)", result.OriginalLength, len(compressed))
	}
	if !result.Perfect {
		t.Fatalf("expected a perfect record")
	}
	if result.CompLevel != 9 {
		t.Fatalf("recovered level = %d, want 9", result.CompLevel)
	}
}

func TestTryRecompressionFastModeSkipsVerify(t *testing.T) {
	t.Parallel()

	hc, _ := newTestHandlerContext()
	payload := []byte("short payload")
	compressed := deflateRawAt(t, payload, 6)

	result, ok, err := tryRecompression(hc, compressed, flavorRaw, false)
	if err != nil {
		t.Fatalf("tryRecompression: %v", err)
	}
	if !ok {
		t.Fatalf("fast-mode tryRecompression rejected a valid stream")
	}
	if result.Perfect {
		t.Fatalf("fast-mode result should not be marked Perfect")
	}
	if !bytes.Equal(result.ReconData, compressed) {
		t.Fatalf("fast-mode ReconData does not match the original compressed bytes")
	}
	if string(result.Inflated) != string(payload) {
		t.Fatalf("inflated payload mismatch in fast mode")
	}
}

func TestTryRecompressionRejectsGarbage(t *testing.T) {
	t.Parallel()

	hc, _ := newTestHandlerContext()
	garbage := []byte("this is plain text, not a deflate stream at all")

	_, ok, err := tryRecompression(hc, garbage, flavorRaw, true)
	if err != nil {
		t.Fatalf("tryRecompression returned an error instead of ok=false: %v", err)
	}
	if ok {
		t.Fatalf("tryRecompression accepted non-deflate data")
	}
}

func TestTryRecompressionRejectsEmptyInflatedPayload(t *testing.T) {
	t.Parallel()

	hc, _ := newTestHandlerContext()
	compressed := deflateRawAt(t, []byte{}, 6)

	_, ok, err := tryRecompression(hc, compressed, flavorRaw, true)
	if err != nil {
		t.Fatalf("tryRecompression returned an error instead of ok=false: %v", err)
	}
	if ok {
		t.Fatalf("tryRecompression accepted a stream that inflates to zero bytes")
	}
}

func TestReconstructDeflateRoundTrip(t *testing.T) {
	t.Parallel()

	hc, oracle := newTestHandlerContext()
	payload := bytes.Repeat([]byte("round trip payload data "), 30)
	compressed := deflateRawAt(t, payload, 6)

	result, ok, err := tryRecompression(hc, compressed, flavorRaw, true)
	if err != nil || !ok {
		t.Fatalf("tryRecompression failed: ok=%v err=%v", ok, err)
	}

	rebuilt, err := reconstructDeflate(oracle, result)
	if err != nil {
		t.Fatalf("reconstructDeflate: %v", err)
	}
	if !bytes.Equal(rebuilt, compressed) {
		t.Fatalf("reconstructed stream does not match original bit-for-bit")
	}
}

func TestReconstructDeflateNonPerfectRoundTrips(t *testing.T) {
	t.Parallel()

	_, oracle := newTestHandlerContext()
	original := []byte("verbatim bytes stored because reencoding wasn't attempted or didn't match")
	result := &recompressDeflateResult{Perfect: false, ReconData: original}
	rebuilt, err := reconstructDeflate(oracle, result)
	if err != nil {
		t.Fatalf("reconstructDeflate: %v", err)
	}
	if !bytes.Equal(rebuilt, original) {
		t.Fatalf("non-perfect reconstruction did not return the stored bytes verbatim")
	}
}

func TestReconstructDeflateNonPerfectMissingReconDataFails(t *testing.T) {
	t.Parallel()

	_, oracle := newTestHandlerContext()
	result := &recompressDeflateResult{Perfect: false}
	if _, err := reconstructDeflate(oracle, result); err == nil {
		t.Fatalf("reconstructDeflate accepted a non-perfect result with no ReconData")
	}
}

func TestCompareWithPenaltiesWithinBudget(t *testing.T) {
	t.Parallel()

	// Two mismatches (-5 score each) amortized over a long run of matches
	// (+1 each): the score recovers well past the initial deficit long
	// before the end, so the best-scoring truncation point reaches the
	// full length and both penalty entries survive.
	original := bytes.Repeat([]byte{0x42}, 1000)
	candidate := append([]byte(nil), original...)
	candidate[0] = 0x99
	candidate[1] = 0x77

	pl, ok := compareWithPenalties(original, candidate)
	if !ok {
		t.Fatalf("compareWithPenalties rejected two mismatches amortized over 1000 bytes")
	}
	if pl.len() != 2 {
		t.Fatalf("penalty count = %d, want 2", pl.len())
	}

	rebuilt := append([]byte(nil), candidate...)
	pl.apply(rebuilt)
	if !bytes.Equal(rebuilt, original) {
		t.Fatalf("applying penalties did not reproduce the original")
	}
}

func TestCompareWithPenaltiesTinyMismatchNeverAmortizes(t *testing.T) {
	t.Parallel()

	// A mismatch's -5 score can't be recovered from just a few trailing
	// matching bytes, so the best-scoring truncation point never reaches
	// the full length and the candidate is rejected outright.
	original := []byte{1, 2, 3, 4, 5}
	candidate := []byte{1, 9, 3, 9, 5}

	if _, ok := compareWithPenalties(original, candidate); ok {
		t.Fatalf("compareWithPenalties accepted mismatches too close to the tail to amortize")
	}
}

func TestCompareWithPenaltiesLengthMismatch(t *testing.T) {
	t.Parallel()

	// A shorter candidate can never reach a truncation point covering
	// the full length of original, regardless of score.
	if _, ok := compareWithPenalties([]byte{1, 2, 3}, []byte{1, 2}); ok {
		t.Fatalf("compareWithPenalties accepted a candidate shorter than original")
	}
}

func TestCompareWithPenaltiesExceedsBudget(t *testing.T) {
	t.Parallel()

	original := make([]byte, MaxPenaltyBytes+10)
	candidate := make([]byte, MaxPenaltyBytes+10)
	for i := range candidate {
		candidate[i] = original[i] + 1 // every byte mismatches
	}
	if _, ok := compareWithPenalties(original, candidate); ok {
		t.Fatalf("compareWithPenalties accepted a stream mismatching on every byte")
	}
}
