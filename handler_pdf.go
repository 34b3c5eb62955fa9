// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/precomp

package precomp

import (
	"bytes"
	"encoding/binary"
	"strconv"
)

// PDF BMP-wrap hint values. Per SPEC_FULL.md's decision on Open
// Question (b): the reference implementation masks bmp_c with
// 0b11000000 and compares against the resulting 0x40/0x80 rather than
// 1/2, so this package encodes the corrected mask values directly
// instead of reproducing the off-by-shift comparison bug.
const (
	pdfBMPNone  byte = 0x00
	pdfBMP8Bit  byte = 0x40
	pdfBMP24Bit byte = 0x80
)

var (
	pdfFlateDecodeMarker = []byte("/FlateDecode")
	pdfStreamMarkerCRLF  = []byte("stream\r\n")
	pdfStreamMarkerLF    = []byte("stream\n")
)

// bmpFileHeaderSize is the combined size of a BITMAPFILEHEADER (14
// bytes) and a BITMAPINFOHEADER (40 bytes).
const bmpFileHeaderSize = 54

// bmpPaletteSize is the grayscale palette an 8bpp BMP wrapper carries
// (256 entries * 4 bytes).
const bmpPaletteSize = 1024

// pdfHandler implements D_PDF: a `/FlateDecode` object whose stream
// body is raw zlib. When Config.PDFBMPMode is set and the surrounding
// dictionary carries /Width, /Height and an 8-bit /BitsPerComponent
// matching the inflated stream's size, the inflated payload is wrapped
// in a BMP file header (plus a palette for 8bpp) with each row padded to
// a 4-byte boundary, so a downstream general-purpose compressor sees
// real image row structure instead of a raw pixel blob. recompress
// parses that header back out of the stored payload to recover the
// bytes that were actually deflated.
type pdfHandler struct{}

func newPDFHandler() handler { return pdfHandler{} }

func (pdfHandler) tags() []SupportedFormat { return []SupportedFormat{DPDF} }

func (pdfHandler) quickCheck(hc *handlerContext, window []byte, position int64) bool {
	return bytes.HasPrefix(window, pdfFlateDecodeMarker)
}

func (h pdfHandler) attemptPrecompression(hc *handlerContext, window []byte, absPos int64) (*attemptResult, error) {
	dictEnd := bytes.Index(window, pdfStreamMarkerCRLF)
	streamKwLen := len(pdfStreamMarkerCRLF)
	if dictEnd < 0 {
		dictEnd = bytes.Index(window, pdfStreamMarkerLF)
		streamKwLen = len(pdfStreamMarkerLF)
	}
	if dictEnd < 0 {
		return nil, nil
	}
	beforeStream := window[:dictEnd]
	dataStart := dictEnd + streamKwLen
	if dataStart+2 > len(window) || !isZlibPrefix(window[dataStart], window[dataStart+1]) {
		return nil, nil
	}
	body := window[dataStart:]
	result, ok, err := tryRecompression(hc, body, flavorZlib, !hc.cfg.FastMode)
	if err != nil || !ok {
		return nil, err
	}

	bmpHint := pdfBMPNone
	payload := result.Inflated
	if hc.cfg.PDFBMPMode {
		lookback := pdfLookbackBuffer(hc, beforeStream)
		hint, width, height := pdfBMPHintFromLookback(lookback, len(result.Inflated))
		if hint != pdfBMPNone {
			bmpHint = hint
			payload = wrapBMP(hint, width, height, result.Inflated)
		}
	}

	header := append([]byte(nil), window[:dataStart]...)
	rec := &record{
		Format:         DPDF,
		OriginalOffset: absPos,
		OriginalLength: int64(dataStart) + result.OriginalLength,
		Flavor:         flavorZlib,
		Perfect:        result.Perfect,
		CompLevel:      result.CompLevel,
		MemLevel:       result.MemLevel,
		WindowBits:     result.WindowBits,
		ReconData:      result.ReconData,
		Penalties:      result.Penalties,
		BMPHint:        bmpHint,
		FormatMeta:     header,
	}
	return &attemptResult{Record: rec, Payload: payload, ConsumedLength: rec.OriginalLength}, nil
}

// pdfLookbackBuffer returns up to pdfDictLookbackSize bytes of original
// input ending right at the "stream" keyword: the handler's own
// already-scanned history (bytes strictly before the current position)
// followed by beforeStream (the bytes between the /FlateDecode marker
// and the "stream" keyword within the current lookahead window).
// Mirrors the reference implementation's read of 4096 bytes preceding
// the stream keyword, since a PDF object's /Width, /Height and
// /BitsPerComponent entries conventionally precede /Filter /FlateDecode
// in the dictionary rather than follow it.
func pdfLookbackBuffer(hc *handlerContext, beforeStream []byte) []byte {
	var buf []byte
	if hc.historyBefore != nil {
		buf = append(buf, hc.historyBefore()...)
	}
	buf = append(buf, beforeStream...)
	if len(buf) > pdfDictLookbackSize {
		buf = buf[len(buf)-pdfDictLookbackSize:]
	}
	return buf
}

// pdfFindDictStart returns the index within buf of the second '<' of the
// dictionary-opening "<<" closest to the end of buf, matching the reference implementation's
// backward scan from the stream keyword that stops at the first pair
// found.
func pdfFindDictStart(buf []byte) int {
	for i := len(buf) - 1; i > 0; i-- {
		if buf[i] == '<' && buf[i-1] == '<' {
			return i
		}
	}
	return -1
}

// pdfBMPHintFromLookback searches lookback (original input ending at the
// "stream" keyword) backward for the enclosing dictionary's opening "<<",
// then looks for /Width, /Height and /BitsPerComponent 8 from there
// forward. When the inflated length matches w*h (8bpp) or w*h*3 (24bpp),
// it returns the corresponding hint along with the width and height.
func pdfBMPHintFromLookback(lookback []byte, inflatedLen int) (hint byte, width, height int) {
	start := pdfFindDictStart(lookback)
	if start < 0 {
		return pdfBMPNone, 0, 0
	}
	dict := lookback[start:]
	width, wok := pdfIntAfter(dict, "/Width")
	height, hok := pdfIntAfter(dict, "/Height")
	bpc, bok := pdfIntAfter(dict, "/BitsPerComponent")
	if !wok || !hok || !bok || bpc != 8 || width <= 0 || height <= 0 {
		return pdfBMPNone, 0, 0
	}
	switch inflatedLen {
	case width * height:
		return pdfBMP8Bit, width, height
	case width * height * 3:
		return pdfBMP24Bit, width, height
	default:
		return pdfBMPNone, 0, 0
	}
}

// appendUint32LE appends v to dst as 4 little-endian bytes.
func appendUint32LE(dst []byte, v uint32) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	return append(dst, b[:]...)
}

// wrapBMP prepends a BMP file header (and, for 8bpp, a 1024-byte
// grayscale palette) to raw, padding each row to a 4-byte boundary when
// its natural width isn't already aligned. Grounded on the reference
// implementation's dump_bmp_hdr_to_outfile and
// dump_precompressed_data_to_outfile: it always writes the header (plus
// palette for 8bpp) ahead of the pixel data, and pads rows only when the
// unpadded row width isn't already a multiple of 4.
func wrapBMP(hint byte, width, height int, raw []byte) []byte {
	is8Bit := hint == pdfBMP8Bit
	widthBytes := width
	if !is8Bit {
		widthBytes = width * 3
	}
	rowBytes := (widthBytes + 3) &^ 3
	dataSize := rowBytes * height

	pixelOffset := bmpFileHeaderSize
	bmpSize := dataSize + bmpFileHeaderSize
	if is8Bit {
		pixelOffset += bmpPaletteSize
		bmpSize += bmpPaletteSize
	}

	out := make([]byte, 0, pixelOffset+dataSize)
	out = append(out, 'B', 'M')
	out = appendUint32LE(out, uint32(bmpSize))
	out = append(out, 0, 0, 0, 0)
	out = appendUint32LE(out, uint32(pixelOffset))
	out = appendUint32LE(out, 40)
	out = appendUint32LE(out, uint32(width))
	out = appendUint32LE(out, uint32(height))
	out = append(out, 1, 0)
	if is8Bit {
		out = append(out, 8, 0)
	} else {
		out = append(out, 24, 0)
	}
	out = appendUint32LE(out, 0)
	out = appendUint32LE(out, uint32(dataSize))
	out = append(out, make([]byte, 16)...)
	if is8Bit {
		out = append(out, make([]byte, bmpPaletteSize)...)
	}

	if rowBytes == widthBytes {
		return append(out, raw...)
	}
	pad := make([]byte, rowBytes-widthBytes)
	for y := 0; y < height; y++ {
		start := y * widthBytes
		out = append(out, raw[start:start+widthBytes]...)
		out = append(out, pad...)
	}
	return out
}

// unwrapBMP reverses wrapBMP, parsing width/height/row-offset directly
// out of the stored header rather than from a separately carried field.
func unwrapBMP(hint byte, wrapped []byte) ([]byte, error) {
	if hint == pdfBMPNone {
		return wrapped, nil
	}
	if len(wrapped) < bmpFileHeaderSize {
		return nil, newErr(KindRecompressionFailure, "pdf bmp wrapper truncated", nil)
	}
	pixelOffset := int(binary.LittleEndian.Uint32(wrapped[10:14]))
	width := int(int32(binary.LittleEndian.Uint32(wrapped[18:22])))
	height := int(int32(binary.LittleEndian.Uint32(wrapped[22:26])))
	if pixelOffset < bmpFileHeaderSize || pixelOffset > len(wrapped) || width <= 0 || height <= 0 {
		return nil, newErr(KindRecompressionFailure, "pdf bmp wrapper has an invalid header", nil)
	}
	widthBytes := width
	if hint != pdfBMP8Bit {
		widthBytes = width * 3
	}
	rowBytes := (widthBytes + 3) &^ 3
	pixels := wrapped[pixelOffset:]

	if rowBytes == widthBytes {
		return append([]byte(nil), pixels...), nil
	}
	raw := make([]byte, 0, widthBytes*height)
	for y := 0; y < height; y++ {
		start := y * rowBytes
		if start+widthBytes > len(pixels) {
			return nil, newErr(KindRecompressionFailure, "pdf bmp wrapper pixel data truncated", nil)
		}
		raw = append(raw, pixels[start:start+widthBytes]...)
	}
	return raw, nil
}

// pdfIntAfter finds key in dict and parses the integer token that follows it.
func pdfIntAfter(dict []byte, key string) (int, bool) {
	idx := bytes.Index(dict, []byte(key))
	if idx < 0 {
		return 0, false
	}
	rest := dict[idx+len(key):]
	start := -1
	for i, b := range rest {
		if b >= '0' && b <= '9' {
			if start < 0 {
				start = i
			}
		} else if start >= 0 {
			rest = rest[start:i]
			v, err := strconv.Atoi(string(rest))
			return v, err == nil
		}
	}
	return 0, false
}

func (pdfHandler) recompress(hc *handlerContext, rec *record, payload []byte, out Stream) error {
	header := rec.FormatMeta
	raw, err := unwrapBMP(rec.BMPHint, payload)
	if err != nil {
		return err
	}
	body, err := reconstructDeflate(hc.oracle, &recompressDeflateResult{
		Inflated:       raw,
		Flavor:         flavorZlib,
		Perfect:        rec.Perfect,
		CompLevel:      rec.CompLevel,
		ReconData:      rec.ReconData,
		Penalties:      rec.Penalties,
		OriginalLength: rec.OriginalLength - int64(len(header)),
	})
	if err != nil {
		return err
	}
	if _, err := out.Write(header); err != nil {
		return newErr(KindIoFailure, "write pdf dictionary+stream keyword", err)
	}
	if _, err := out.Write(body); err != nil {
		return newErr(KindIoFailure, "write pdf stream body", err)
	}
	return nil
}
