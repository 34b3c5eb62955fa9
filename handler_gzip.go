// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/precomp

package precomp

const (
	gzipFlagFTEXT    = 1 << 0
	gzipFlagFHCRC    = 1 << 1
	gzipFlagFEXTRA   = 1 << 2
	gzipFlagFNAME    = 1 << 3
	gzipFlagFCOMMENT = 1 << 4
)

// gzipHandler implements D_GZIP: locates the gzip member header,
// skips any optional fields to the deflate stream, and delegates the
// deflate body to the shared reencode wrapper. The header prefix and
// the 8-byte CRC32+ISIZE trailer are stored verbatim in the record's
// FormatMeta so recompress can splice them back around the
// reconstructed deflate body without needing to recompute them.
type gzipHandler struct{}

func newGZipHandler() handler { return gzipHandler{} }

func (gzipHandler) tags() []SupportedFormat { return []SupportedFormat{DGZip} }

func (gzipHandler) quickCheck(hc *handlerContext, window []byte, position int64) bool {
	return len(window) >= 10 && window[0] == 0x1F && window[1] == 0x8B && window[2] == 8
}

// gzipHeaderEnd returns the length of the gzip member header (through
// any optional FEXTRA/FNAME/FCOMMENT/FHCRC fields), or -1 if window is
// truncated before the header completes.
func gzipHeaderEnd(window []byte) int {
	if len(window) < 10 {
		return -1
	}
	flags := window[3]
	pos := 10
	if flags&gzipFlagFEXTRA != 0 {
		if pos+2 > len(window) {
			return -1
		}
		xlen := int(window[pos]) | int(window[pos+1])<<8
		pos += 2 + xlen
	}
	if flags&gzipFlagFNAME != 0 {
		for {
			if pos >= len(window) {
				return -1
			}
			if window[pos] == 0 {
				pos++
				break
			}
			pos++
		}
	}
	if flags&gzipFlagFCOMMENT != 0 {
		for {
			if pos >= len(window) {
				return -1
			}
			if window[pos] == 0 {
				pos++
				break
			}
			pos++
		}
	}
	if flags&gzipFlagFHCRC != 0 {
		pos += 2
	}
	if pos > len(window) {
		return -1
	}
	return pos
}

func (h gzipHandler) attemptPrecompression(hc *handlerContext, window []byte, absPos int64) (*attemptResult, error) {
	headerLen := gzipHeaderEnd(window)
	if headerLen < 0 || headerLen+8 > len(window) {
		return nil, nil
	}
	// The deflate body's length isn't known up front; the reencode
	// wrapper inflates optimistically against the remaining window and
	// tryRecompression reports back how much of it round-trips.
	body := window[headerLen:]
	result, ok, err := tryRecompression(hc, body, flavorRaw, !hc.cfg.FastMode)
	if err != nil || !ok {
		return nil, err
	}
	trailerStart := headerLen + int(result.OriginalLength)
	if trailerStart+8 > len(window) {
		return nil, nil
	}
	meta := append([]byte(nil), window[:headerLen]...)
	meta = append(meta, window[trailerStart:trailerStart+8]...)
	rec := &record{
		Format:         DGZip,
		OriginalOffset: absPos,
		OriginalLength: int64(headerLen) + result.OriginalLength + 8,
		Flavor:         flavorRaw,
		Perfect:        result.Perfect,
		CompLevel:      result.CompLevel,
		MemLevel:       result.MemLevel,
		WindowBits:     result.WindowBits,
		ReconData:      result.ReconData,
		Penalties:      result.Penalties,
		FormatMeta:     meta,
	}
	return &attemptResult{Record: rec, Payload: result.Inflated, ConsumedLength: rec.OriginalLength}, nil
}

func (gzipHandler) recompress(hc *handlerContext, rec *record, payload []byte, out Stream) error {
	if len(rec.FormatMeta) < 8 {
		return newErr(KindRecompressionFailure, "gzip record missing header/trailer", nil)
	}
	headerLen := len(rec.FormatMeta) - 8
	header := rec.FormatMeta[:headerLen]
	trailer := rec.FormatMeta[headerLen:]

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
	if _, err := out.Write(header); err != nil {
		return newErr(KindIoFailure, "write gzip header", err)
	}
	if _, err := out.Write(body); err != nil {
		return newErr(KindIoFailure, "write gzip body", err)
	}
	if _, err := out.Write(trailer); err != nil {
		return newErr(KindIoFailure, "write gzip trailer", err)
	}
	return nil
}
