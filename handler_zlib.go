// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/precomp

package precomp

// isZlibPrefix reports whether b0,b1 form a valid raw zlib stream
// prefix: (b0<<8|b1) a multiple of 31, FDICT clear, and CM == 8
// (deflate), per spec section 4.5.
func isZlibPrefix(b0, b1 byte) bool {
	if b0&0x0F != 8 {
		return false
	}
	if b1&0x20 != 0 {
		return false
	}
	word := uint16(b0)<<8 | uint16(b1)
	return word%31 == 0
}

// rawZlibHandler implements the D_RAW tag: intense mode's exhaustive
// probe of every position for a valid zlib 2-byte prefix, independent
// of any surrounding container framing.
type rawZlibHandler struct{}

func newRawZlibHandler() handler { return rawZlibHandler{} }

func (rawZlibHandler) tags() []SupportedFormat { return []SupportedFormat{DRaw} }

func (rawZlibHandler) quickCheck(hc *handlerContext, window []byte, position int64) bool {
	if !hc.cfg.IntenseMode || len(window) < 2 {
		return false
	}
	if limit := hc.cfg.IntenseModeDepthLimit; limit > 0 && hc.depth > limit {
		return false
	}
	return isZlibPrefix(window[0], window[1])
}

func (h rawZlibHandler) attemptPrecompression(hc *handlerContext, window []byte, absPos int64) (*attemptResult, error) {
	result, ok, err := tryRecompression(hc, window, flavorZlib, !hc.cfg.FastMode)
	if err != nil || !ok {
		return nil, err
	}
	rec := &record{
		Format:         DRaw,
		OriginalOffset: absPos,
		OriginalLength: result.OriginalLength,
		Flavor:         flavorZlib,
		Perfect:        result.Perfect,
		CompLevel:      result.CompLevel,
		MemLevel:       result.MemLevel,
		WindowBits:     result.WindowBits,
		ReconData:      result.ReconData,
		Penalties:      result.Penalties,
	}
	return &attemptResult{Record: rec, Payload: result.Inflated, ConsumedLength: result.OriginalLength}, nil
}

func (rawZlibHandler) recompress(hc *handlerContext, rec *record, payload []byte, out Stream) error {
	return recompressDeflateRecord(hc, rec, payload, out)
}

// recompressDeflateRecord is shared by every deflate-family handler: it
// reconstructs the original bytes via reconstructDeflate, which itself
// picks between reencoding (Perfect) and the stored verbatim bytes
// (ReconData) as appropriate.
func recompressDeflateRecord(hc *handlerContext, rec *record, payload []byte, out Stream) error {
	original, err := reconstructDeflate(hc.oracle, &recompressDeflateResult{
		Inflated:       payload,
		Flavor:         rec.Flavor,
		Perfect:        rec.Perfect,
		CompLevel:      rec.CompLevel,
		ReconData:      rec.ReconData,
		Penalties:      rec.Penalties,
		OriginalLength: rec.OriginalLength,
	})
	if err != nil {
		return err
	}
	if _, err := out.Write(original); err != nil {
		return newErr(KindIoFailure, "write reconstructed deflate span", err)
	}
	return nil
}
