// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/precomp

package precomp

import (
	"bytes"
	"compress/lzw"
	"io"
)

const gifSubBlockMax = 255

// gifHandler implements D_GIF: an image data block, LZW-min-code-size
// byte followed by length-prefixed sub-blocks terminated by an empty
// sub-block. Go's compress/lzw already implements the GIF variant of
// LZW (LSB-first bit packing), so no custom LZW codec is needed here,
// only the sub-block framing around it.
type gifHandler struct{}

func newGIFHandler() handler { return gifHandler{} }

func (gifHandler) tags() []SupportedFormat { return []SupportedFormat{DGIF} }

func (gifHandler) quickCheck(hc *handlerContext, window []byte, position int64) bool {
	if len(window) < 3 {
		return false
	}
	minCodeSize := window[0]
	return minCodeSize >= 2 && minCodeSize <= 8 && window[1] != 0
}

// gifSubBlocks concatenates window's sub-block payloads starting at
// offset 1 (after the min-code-size byte), returning the concatenated
// LZW stream and the total number of original bytes consumed
// (min-code-size byte + every length byte and payload + the terminator).
func gifSubBlocks(window []byte) (data []byte, consumed int, ok bool) {
	pos := 1
	for {
		if pos >= len(window) {
			return nil, 0, false
		}
		blockLen := int(window[pos])
		pos++
		if blockLen == 0 {
			return data, pos, true
		}
		if pos+blockLen > len(window) {
			return nil, 0, false
		}
		data = append(data, window[pos:pos+blockLen]...)
		pos += blockLen
	}
}

// gifChunkSubBlocks re-splits data into the standard fixed-255-byte
// sub-block layout GIF encoders use, terminated by an empty sub-block.
func gifChunkSubBlocks(data []byte) []byte {
	var out []byte
	for len(data) > 0 {
		n := len(data)
		if n > gifSubBlockMax {
			n = gifSubBlockMax
		}
		out = append(out, byte(n))
		out = append(out, data[:n]...)
		data = data[n:]
	}
	out = append(out, 0)
	return out
}

func (h gifHandler) attemptPrecompression(hc *handlerContext, window []byte, absPos int64) (*attemptResult, error) {
	minCodeSize := window[0]
	lzwData, consumed, ok := gifSubBlocks(window)
	if !ok {
		return nil, nil
	}
	r := lzw.NewReader(bytes.NewReader(lzwData), lzw.LSB, int(minCodeSize))
	defer r.Close()
	indices, err := io.ReadAll(r)
	if err != nil || len(indices) == 0 {
		return nil, nil
	}

	var buf bytes.Buffer
	w := lzw.NewWriter(&buf, lzw.LSB, int(minCodeSize))
	if _, err := w.Write(indices); err != nil {
		return nil, nil
	}
	if err := w.Close(); err != nil {
		return nil, nil
	}
	reencoded := gifChunkSubBlocks(buf.Bytes())
	if !bytes.Equal(reencoded, window[1:consumed]) {
		return nil, nil
	}

	rec := &record{
		Format:         DGIF,
		OriginalOffset: absPos,
		OriginalLength: int64(consumed),
		FormatMeta:     []byte{minCodeSize},
	}
	return &attemptResult{Record: rec, Payload: indices, ConsumedLength: int64(consumed)}, nil
}

func (gifHandler) recompress(hc *handlerContext, rec *record, payload []byte, out Stream) error {
	if len(rec.FormatMeta) < 1 {
		return newErr(KindRecompressionFailure, "gif record missing min code size", nil)
	}
	minCodeSize := rec.FormatMeta[0]
	var buf bytes.Buffer
	w := lzw.NewWriter(&buf, lzw.LSB, int(minCodeSize))
	if _, err := w.Write(payload); err != nil {
		return newErr(KindRecompressionFailure, "gif lzw reencode", err)
	}
	if err := w.Close(); err != nil {
		return newErr(KindRecompressionFailure, "gif lzw reencode close", err)
	}
	if _, err := out.Write([]byte{minCodeSize}); err != nil {
		return newErr(KindIoFailure, "write gif min code size", err)
	}
	if _, err := out.Write(gifChunkSubBlocks(buf.Bytes())); err != nil {
		return newErr(KindIoFailure, "write gif sub-blocks", err)
	}
	return nil
}
