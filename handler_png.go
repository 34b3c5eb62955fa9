// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/precomp

package precomp

import "encoding/binary"

const pngChunkOverhead = 12 // 4-byte length + 4-byte type + 4-byte CRC

var pngIDATType = [4]byte{'I', 'D', 'A', 'T'}

// pngHandler implements D_PNG and D_MULTIPNG: one or more consecutive
// IDAT chunks (PNG only allows IDAT chunks to appear consecutively for
// a single image) whose concatenated data is a single zlib stream.
// D_MULTIPNG covers the multi-chunk case; a record with exactly one
// consumed chunk is tagged D_PNG instead. Records of both tags carry
// the chunk-length table.
type pngHandler struct{}

func newPNGHandler() handler { return pngHandler{} }

func (pngHandler) tags() []SupportedFormat { return []SupportedFormat{DPNG, DMultiPNG} }

func (pngHandler) quickCheck(hc *handlerContext, window []byte, position int64) bool {
	return len(window) >= 8 && [4]byte(window[4:8]) == pngIDATType
}

// pngIDATChunkLen reads a chunk's length field, or -1 if window doesn't
// start with an IDAT chunk of that declared length within bounds.
func pngIDATChunkLen(window []byte) int {
	if len(window) < pngChunkOverhead {
		return -1
	}
	if [4]byte(window[4:8]) != pngIDATType {
		return -1
	}
	length := int(binary.BigEndian.Uint32(window[0:4]))
	if pngChunkOverhead+length > len(window) {
		return -1
	}
	return length
}

func (h pngHandler) attemptPrecompression(hc *handlerContext, window []byte, absPos int64) (*attemptResult, error) {
	var chunkLens []int
	var crcs [][4]byte
	var data []byte
	pos := 0
	for {
		remaining := window[pos:]
		length := pngIDATChunkLen(remaining)
		if length < 0 {
			break
		}
		chunkLens = append(chunkLens, length)
		data = append(data, remaining[8:8+length]...)
		var crc [4]byte
		copy(crc[:], remaining[8+length:8+length+4])
		crcs = append(crcs, crc)
		pos += pngChunkOverhead + length
		if pos >= len(window) {
			break
		}
	}
	if len(chunkLens) == 0 {
		return nil, nil
	}

	result, ok, err := tryRecompression(hc, data, flavorZlib, !hc.cfg.FastMode)
	if err != nil {
		return nil, err
	}
	if !ok || result.OriginalLength != int64(len(data)) {
		return nil, nil
	}

	format := DPNG
	if len(chunkLens) > 1 {
		format = DMultiPNG
	}
	meta := appendVarint(nil, uint64(len(chunkLens)))
	for i, l := range chunkLens {
		meta = appendVarint(meta, uint64(l))
		meta = append(meta, crcs[i][:]...)
	}
	rec := &record{
		Format:         format,
		OriginalOffset: absPos,
		OriginalLength: int64(pos),
		Flavor:         flavorZlib,
		Perfect:        result.Perfect,
		CompLevel:      result.CompLevel,
		MemLevel:       result.MemLevel,
		WindowBits:     result.WindowBits,
		ReconData:      result.ReconData,
		Penalties:      result.Penalties,
		FormatMeta:     meta,
	}
	return &attemptResult{Record: rec, Payload: result.Inflated, ConsumedLength: int64(pos)}, nil
}

func (pngHandler) recompress(hc *handlerContext, rec *record, payload []byte, out Stream) error {
	count, n := getVarint(rec.FormatMeta)
	if n == 0 {
		return newErr(KindRecompressionFailure, "png record missing chunk count", nil)
	}
	pos := n
	chunkLens := make([]int, count)
	crcs := make([][4]byte, count)
	dataLen := 0
	for i := uint64(0); i < count; i++ {
		l, ln := getVarint(rec.FormatMeta[pos:])
		if ln == 0 || pos+ln+4 > len(rec.FormatMeta) {
			return newErr(KindRecompressionFailure, "png record truncated chunk table", nil)
		}
		pos += ln
		copy(crcs[i][:], rec.FormatMeta[pos:pos+4])
		pos += 4
		chunkLens[i] = int(l)
		dataLen += int(l)
	}

	data, err := reconstructDeflate(hc.oracle, &recompressDeflateResult{
		Inflated:       payload,
		Flavor:         flavorZlib,
		Perfect:        rec.Perfect,
		CompLevel:      rec.CompLevel,
		ReconData:      rec.ReconData,
		Penalties:      rec.Penalties,
		OriginalLength: int64(dataLen),
	})
	if err != nil {
		return err
	}

	offset := 0
	for i, l := range chunkLens {
		chunk := make([]byte, pngChunkOverhead+l)
		binary.BigEndian.PutUint32(chunk[0:4], uint32(l))
		copy(chunk[4:8], pngIDATType[:])
		copy(chunk[8:8+l], data[offset:offset+l])
		copy(chunk[8+l:8+l+4], crcs[i][:])
		offset += l
		if _, err := out.Write(chunk); err != nil {
			return newErr(KindIoFailure, "write png IDAT chunk", err)
		}
	}
	return nil
}
