// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/precomp

package precomp

import (
	"bytes"
	"encoding/base64"
)

const base64MinRunLength = 16

func isBase64Char(b byte) bool {
	switch {
	case b >= 'A' && b <= 'Z', b >= 'a' && b <= 'z', b >= '0' && b <= '9', b == '+', b == '/', b == '=':
		return true
	default:
		return false
	}
}

// base64Handler implements D_BASE64: a run of base64 alphabet
// characters, possibly wrapped at a fixed line width with LF or CRLF
// line endings (the common encoding used to embed binary data in text
// formats). The record stores the line width and line-ending style so
// recompress reproduces the original text layout exactly rather than
// just the decoded bytes re-encoded canonically.
type base64Handler struct{}

func newBase64Handler() handler { return base64Handler{} }

func (base64Handler) tags() []SupportedFormat { return []SupportedFormat{DBase64} }

func (base64Handler) quickCheck(hc *handlerContext, window []byte, position int64) bool {
	if len(window) < base64MinRunLength {
		return false
	}
	for i := 0; i < base64MinRunLength; i++ {
		if !isBase64Char(window[i]) {
			return false
		}
	}
	return true
}

// base64ScanRun walks window collecting base64 alphabet bytes plus
// line-break bytes, stopping at the first byte that fits neither,
// returning the encoded text (without line breaks), the detected line
// width (0 if no line breaks were seen), whether lines end in CRLF, and
// how many original bytes were consumed.
func base64ScanRun(window []byte) (encoded []byte, lineWidth int, crlf bool, consumed int) {
	var currentLineLen int
	i := 0
	for i < len(window) {
		b := window[i]
		if isBase64Char(b) {
			encoded = append(encoded, b)
			currentLineLen++
			i++
			continue
		}
		if b == '\n' {
			if lineWidth == 0 {
				lineWidth = currentLineLen
			}
			currentLineLen = 0
			i++
			continue
		}
		if b == '\r' && i+1 < len(window) && window[i+1] == '\n' {
			crlf = true
			if lineWidth == 0 {
				lineWidth = currentLineLen
			}
			currentLineLen = 0
			i += 2
			continue
		}
		break
	}
	return encoded, lineWidth, crlf, i
}

// base64Wrap re-inserts line breaks into encoded every lineWidth bytes.
func base64Wrap(encoded []byte, lineWidth int, crlf bool) []byte {
	if lineWidth <= 0 {
		return encoded
	}
	nl := []byte("\n")
	if crlf {
		nl = []byte("\r\n")
	}
	var out []byte
	for len(encoded) > 0 {
		n := lineWidth
		if n > len(encoded) {
			n = len(encoded)
		}
		out = append(out, encoded[:n]...)
		encoded = encoded[n:]
		if len(encoded) > 0 {
			out = append(out, nl...)
		}
	}
	return out
}

func (h base64Handler) attemptPrecompression(hc *handlerContext, window []byte, absPos int64) (*attemptResult, error) {
	encoded, lineWidth, crlf, consumed := base64ScanRun(window)
	if len(encoded) < base64MinRunLength {
		return nil, nil
	}
	// Trim to a multiple of 4 (valid base64 quantum) and reject a
	// trailing partial group rather than guessing at padding.
	usable := len(encoded) - len(encoded)%4
	if usable < base64MinRunLength {
		return nil, nil
	}
	trimmed := encoded[:usable]

	decoded, err := base64.StdEncoding.DecodeString(string(trimmed))
	if err != nil {
		return nil, nil
	}
	reencoded := []byte(base64.StdEncoding.EncodeToString(decoded))
	if !bytes.Equal(reencoded, trimmed) {
		return nil, nil
	}
	rewrapped := base64Wrap(trimmed, lineWidth, crlf)
	if !bytes.Equal(rewrapped, window[:len(rewrapped)]) {
		return nil, nil
	}

	crlfByte := byte(0)
	if crlf {
		crlfByte = 1
	}
	meta := appendVarint([]byte{crlfByte}, uint64(lineWidth))
	rec := &record{
		Format:         DBase64,
		OriginalOffset: absPos,
		OriginalLength: int64(len(rewrapped)),
		FormatMeta:     meta,
	}
	_ = consumed
	return &attemptResult{Record: rec, Payload: decoded, ConsumedLength: int64(len(rewrapped))}, nil
}

func (base64Handler) recompress(hc *handlerContext, rec *record, payload []byte, out Stream) error {
	if len(rec.FormatMeta) < 2 {
		return newErr(KindRecompressionFailure, "base64 record missing layout metadata", nil)
	}
	crlf := rec.FormatMeta[0] != 0
	lineWidth, n := getVarint(rec.FormatMeta[1:])
	if n == 0 {
		return newErr(KindRecompressionFailure, "base64 record invalid line width", nil)
	}
	encoded := []byte(base64.StdEncoding.EncodeToString(payload))
	wrapped := base64Wrap(encoded, int(lineWidth), crlf)
	if _, err := out.Write(wrapped); err != nil {
		return newErr(KindIoFailure, "write base64 text", err)
	}
	return nil
}
