// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/precomp

package precomp

// deflateBTYPE extracts the 2-bit BTYPE field from a raw deflate
// stream's first byte (bits 1-2, bit 0 being BFINAL).
func deflateBTYPE(b0 byte) byte {
	return (b0 >> 1) & 0x03
}

// bruteHandler implements D_BRUTE: probes every position for a raw
// deflate stream with no surrounding signature at all, gated by the
// false-positive histogram filter since without a signature almost
// every position is a plausible candidate.
type bruteHandler struct{}

func newBruteHandler() handler { return bruteHandler{} }

func (bruteHandler) tags() []SupportedFormat { return []SupportedFormat{DBrute} }

func (bruteHandler) quickCheck(hc *handlerContext, window []byte, position int64) bool {
	if !hc.cfg.BruteMode || len(window) < 2 {
		return false
	}
	if limit := hc.cfg.BruteModeDepthLimit; limit > 0 && hc.depth > limit {
		return false
	}
	btype := deflateBTYPE(window[0])
	if btype == 3 {
		return false // reserved, never valid
	}
	if btype == 0 {
		return false // stored blocks are trivial matches, not worth brute-forcing
	}
	return hc.filter.check(hc.inputID, window, position)
}

func (h bruteHandler) attemptPrecompression(hc *handlerContext, window []byte, absPos int64) (*attemptResult, error) {
	result, ok, err := tryRecompression(hc, window, flavorRaw, !hc.cfg.FastMode)
	if err != nil || !ok {
		return nil, err
	}
	rec := &record{
		Format:         DBrute,
		OriginalOffset: absPos,
		OriginalLength: result.OriginalLength,
		Flavor:         flavorRaw,
		Perfect:        result.Perfect,
		CompLevel:      result.CompLevel,
		MemLevel:       result.MemLevel,
		WindowBits:     result.WindowBits,
		ReconData:      result.ReconData,
		Penalties:      result.Penalties,
	}
	return &attemptResult{Record: rec, Payload: result.Inflated, ConsumedLength: result.OriginalLength}, nil
}

func (bruteHandler) recompress(hc *handlerContext, rec *record, payload []byte, out Stream) error {
	return recompressDeflateRecord(hc, rec, payload, out)
}
