// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/precomp

package precomp

import (
	"bytes"
	"testing"
)

func TestPDFBMPHintFromLookbackFindsDictBeforeFlateDecode(t *testing.T) {
	t.Parallel()

	// /Width, /Height and /BitsPerComponent conventionally precede
	// /Filter /FlateDecode in the object dictionary, not follow it.
	lookback := []byte("5 0 obj\n<< /Type /XObject /Subtype /Image /Width 10 /Height 3 " +
		"/BitsPerComponent 8 /ColorSpace /DeviceGray /Filter ")

	hint, width, height := pdfBMPHintFromLookback(lookback, 30)
	if hint != pdfBMP8Bit {
		t.Fatalf("hint = %#x, want pdfBMP8Bit", hint)
	}
	if width != 10 || height != 3 {
		t.Fatalf("width,height = %d,%d, want 10,3", width, height)
	}
}

func TestPDFBMPHintFromLookbackNoDictStart(t *testing.T) {
	t.Parallel()

	hint, _, _ := pdfBMPHintFromLookback([]byte("/Width 10 /Height 3 /BitsPerComponent 8"), 30)
	if hint != pdfBMPNone {
		t.Fatalf("hint = %#x, want pdfBMPNone without a preceding '<<'", hint)
	}
}

func TestPDFBMPHintFromLookbackSizeMismatchRejected(t *testing.T) {
	t.Parallel()

	lookback := []byte("<< /Width 10 /Height 3 /BitsPerComponent 8 /Filter ")
	hint, _, _ := pdfBMPHintFromLookback(lookback, 999)
	if hint != pdfBMPNone {
		t.Fatalf("hint = %#x, want pdfBMPNone when inflated size matches neither w*h nor w*h*3", hint)
	}
}

func TestWrapUnwrapBMP8BitRoundTripsWithRowPadding(t *testing.T) {
	t.Parallel()

	width, height := 10, 3 // 10 bytes/row, not 4-byte aligned: padding required
	raw := make([]byte, width*height)
	for i := range raw {
		raw[i] = byte(i + 1)
	}

	wrapped := wrapBMP(pdfBMP8Bit, width, height, raw)
	if len(wrapped) != bmpFileHeaderSize+bmpPaletteSize+((width+3)&^3)*height {
		t.Fatalf("wrapped length = %d, want header+palette+padded rows", len(wrapped))
	}
	if wrapped[0] != 'B' || wrapped[1] != 'M' {
		t.Fatalf("wrapped data missing BM magic")
	}

	back, err := unwrapBMP(pdfBMP8Bit, wrapped)
	if err != nil {
		t.Fatalf("unwrapBMP: %v", err)
	}
	if !bytes.Equal(back, raw) {
		t.Fatalf("unwrapBMP did not recover the original pixel bytes")
	}
}

func TestWrapUnwrapBMP24BitRoundTripsAligned(t *testing.T) {
	t.Parallel()

	width, height := 4, 2 // 12 bytes/row at 24bpp: already 4-byte aligned
	raw := make([]byte, width*3*height)
	for i := range raw {
		raw[i] = byte(200 - i)
	}

	wrapped := wrapBMP(pdfBMP24Bit, width, height, raw)
	back, err := unwrapBMP(pdfBMP24Bit, wrapped)
	if err != nil {
		t.Fatalf("unwrapBMP: %v", err)
	}
	if !bytes.Equal(back, raw) {
		t.Fatalf("unwrapBMP did not recover the original pixel bytes")
	}
}

func TestUnwrapBMPNoneIsIdentity(t *testing.T) {
	t.Parallel()

	payload := []byte("not a bmp, just an inflated deflate payload")
	back, err := unwrapBMP(pdfBMPNone, payload)
	if err != nil {
		t.Fatalf("unwrapBMP: %v", err)
	}
	if !bytes.Equal(back, payload) {
		t.Fatalf("unwrapBMP(pdfBMPNone) mutated the payload")
	}
}

func TestPDFHandlerAttemptAndRecompressRoundTrip(t *testing.T) {
	t.Parallel()

	hc, _ := newTestHandlerContext()

	width, height := 10, 3
	raw := make([]byte, width*height)
	for i := range raw {
		raw[i] = byte(i * 7)
	}
	compressed := deflateZlibAt(t, raw, 6)

	preDict := []byte("5 0 obj\n<< /Type /XObject /Subtype /Image /Width 10 /Height 3 " +
		"/BitsPerComponent 8 /Filter ")
	hc.cfg.PDFBMPMode = true
	hc.historyBefore = func() []byte { return preDict }

	window := append([]byte("/FlateDecode\r\nstream\r\n"), compressed...)
	window = append(window, []byte("\r\nendstream\r\nendobj\r\n")...)
	absPos := int64(len(preDict))

	h := pdfHandler{}
	if !h.quickCheck(hc, window, absPos) {
		t.Fatalf("quickCheck rejected a window starting with /FlateDecode")
	}

	result, err := h.attemptPrecompression(hc, window, absPos)
	if err != nil {
		t.Fatalf("attemptPrecompression: %v", err)
	}
	if result == nil {
		t.Fatalf("attemptPrecompression did not claim the position")
	}
	if result.Record.BMPHint != pdfBMP8Bit {
		t.Fatalf("BMPHint = %#x, want pdfBMP8Bit", result.Record.BMPHint)
	}

	wantPayload := wrapBMP(pdfBMP8Bit, width, height, raw)
	if !bytes.Equal(result.Payload, wantPayload) {
		t.Fatalf("attemptPrecompression payload is not the BMP-wrapped image bytes")
	}

	wantOriginal := append(append([]byte(nil), window[:len("/FlateDecode\r\nstream\r\n")]...), compressed...)
	if result.ConsumedLength != int64(len(wantOriginal)) {
		t.Fatalf("ConsumedLength = %d, want %d", result.ConsumedLength, len(wantOriginal))
	}

	out := newGrowableMemoryStream()
	if err := h.recompress(hc, result.Record, result.Payload, out); err != nil {
		t.Fatalf("recompress: %v", err)
	}
	if !bytes.Equal(out.Bytes(), wantOriginal) {
		t.Fatalf("recompress did not reproduce the original PDF stream bytes")
	}
}
