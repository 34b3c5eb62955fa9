// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/precomp

package precomp

const swfHeaderLen = 8

// swfHandler implements D_SWF: a compressed Flash movie (`CWS`
// signature) whose body, starting right after the 8-byte
// signature/version/file-length header, is a zlib stream running to
// the end of the file. Since the scanner only exposes a bounded
// lookahead window rather than the whole remaining input, this handler
// only claims a movie whose full zlib body fits within one window,
// which covers small embedded SWFs but not large standalone ones; the
// uncompressed variant (`FWS`) needs no handling at all, its body is
// already literal.
type swfHandler struct{}

func newSWFHandler() handler { return swfHandler{} }

func (swfHandler) tags() []SupportedFormat { return []SupportedFormat{DSWF} }

func (swfHandler) quickCheck(hc *handlerContext, window []byte, position int64) bool {
	return len(window) >= swfHeaderLen && window[0] == 'C' && window[1] == 'W' && window[2] == 'S'
}

func (h swfHandler) attemptPrecompression(hc *handlerContext, window []byte, absPos int64) (*attemptResult, error) {
	body := window[swfHeaderLen:]
	if len(body) < 2 || !isZlibPrefix(body[0], body[1]) {
		return nil, nil
	}
	result, ok, err := tryRecompression(hc, body, flavorZlib, !hc.cfg.FastMode)
	if err != nil || !ok {
		return nil, err
	}
	header := append([]byte(nil), window[:swfHeaderLen]...)
	rec := &record{
		Format:         DSWF,
		OriginalOffset: absPos,
		OriginalLength: int64(swfHeaderLen) + result.OriginalLength,
		Flavor:         flavorZlib,
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

func (swfHandler) recompress(hc *handlerContext, rec *record, payload []byte, out Stream) error {
	body, err := reconstructDeflate(hc.oracle, &recompressDeflateResult{
		Inflated:       payload,
		Flavor:         flavorZlib,
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
		return newErr(KindIoFailure, "write swf header", err)
	}
	if _, err := out.Write(body); err != nil {
		return newErr(KindIoFailure, "write swf body", err)
	}
	return nil
}
