// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/precomp

package precomp

import "encoding/binary"

// zipLocalHeaderMinLen is the fixed portion of a ZIP local file header,
// before the variable-length filename and extra fields.
const zipLocalHeaderMinLen = 30

// zipHandler implements D_ZIP: a ZIP local file header (PK\x03\x04)
// whose compression method is 8 (deflate). The compressed size field
// gives the deflate body's exact length, unlike gzip's unknown-length
// body, so no optimistic-inflate step is needed to find the boundary.
type zipHandler struct{}

func newZIPHandler() handler { return zipHandler{} }

func (zipHandler) tags() []SupportedFormat { return []SupportedFormat{DZIP} }

func (zipHandler) quickCheck(hc *handlerContext, window []byte, position int64) bool {
	return len(window) >= 4 && window[0] == 'P' && window[1] == 'K' && window[2] == 3 && window[3] == 4
}

func (h zipHandler) attemptPrecompression(hc *handlerContext, window []byte, absPos int64) (*attemptResult, error) {
	if len(window) < zipLocalHeaderMinLen {
		return nil, nil
	}
	method := binary.LittleEndian.Uint16(window[8:10])
	if method != 8 {
		return nil, nil
	}
	compressedSize := int64(binary.LittleEndian.Uint32(window[18:22]))
	fnLen := int(binary.LittleEndian.Uint16(window[26:28]))
	extraLen := int(binary.LittleEndian.Uint16(window[28:30]))
	dataStart := zipLocalHeaderMinLen + fnLen + extraLen
	if compressedSize <= 0 || int64(dataStart)+compressedSize > int64(len(window)) {
		return nil, nil
	}
	body := window[dataStart : int64(dataStart)+compressedSize]
	result, ok, err := tryRecompression(hc, body, flavorRaw, !hc.cfg.FastMode)
	if err != nil || !ok {
		return nil, err
	}
	if result.OriginalLength != compressedSize {
		return nil, nil
	}
	header := append([]byte(nil), window[:dataStart]...)
	rec := &record{
		Format:         DZIP,
		OriginalOffset: absPos,
		OriginalLength: int64(dataStart) + compressedSize,
		Flavor:         flavorRaw,
		Perfect:        result.Perfect,
		CompLevel:      result.CompLevel,
		MemLevel:       result.MemLevel,
		WindowBits:     result.WindowBits,
		ReconData:      result.ReconData,
		Penalties:      result.Penalties,
		FormatMeta:     header,
	}
	return &attemptResult{Record: rec, Payload: result.Inflated, ConsumedLength: rec.OriginalLength}, nil
}

func (zipHandler) recompress(hc *handlerContext, rec *record, payload []byte, out Stream) error {
	body, err := reconstructDeflate(hc.oracle, &recompressDeflateResult{
		Inflated:       payload,
		Flavor:         flavorRaw,
		Perfect:        rec.Perfect,
		CompLevel:      rec.CompLevel,
		ReconData:      rec.ReconData,
		Penalties:      rec.Penalties,
		OriginalLength: rec.OriginalLength - int64(len(rec.FormatMeta)),
	})
	if err != nil {
		return err
	}
	if _, err := out.Write(rec.FormatMeta); err != nil {
		return newErr(KindIoFailure, "write zip local header", err)
	}
	if _, err := out.Write(body); err != nil {
		return newErr(KindIoFailure, "write zip body", err)
	}
	return nil
}
