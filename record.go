// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/precomp

package precomp

// record is one entry in a PCF container: a single detected-and-replaced
// stream, carrying everything needed to reproduce the original bytes it
// replaced. See pcf_writer.go/pcf_reader.go for its wire encoding.
type record struct {
	Format         SupportedFormat
	OriginalOffset int64 // scanner-local bookkeeping; never serialized
	OriginalLength int64

	// Deflate reconstruction metadata, valid when Format is one of the
	// deflate-family tags (isDeflateFamily). Perfect records reencode
	// the stored payload at CompLevel/MemLevel/WindowBits and patch in
	// Penalties; non-perfect records instead carry the original
	// compressed bytes verbatim in ReconData.
	Flavor     deflateFlavor
	Perfect    bool
	CompLevel  int
	MemLevel   int
	WindowBits int
	ReconData  []byte
	Penalties  *penaltyList

	// BMPHint is set only on DPDF records with Config.PDFBMPMode, one of
	// pdfBMPNone/pdfBMP8Bit/pdfBMP24Bit. It occupies the same two flag
	// bits a non-PDF record would use for RecursionUsed; PDF records
	// never encode recursion-used on the wire.
	BMPHint byte
	// RecursionUsed reports whether this record's payload is itself a
	// nested PCF container from a further precompression pass.
	RecursionUsed bool

	// FormatMeta holds handler-specific reconstruction bytes (gzip
	// header+trailer, PNG chunk-length/CRC table, PDF dictionary+stream
	// keyword, base64 line layout, GIF minimum code size, etc) that
	// don't fit the generic fields above.
	FormatMeta []byte
}

// isDeflateFamily reports whether f's records carry the perfect/recon_data
// deflate reconstruction fields, per spec section 3's data model.
func isDeflateFamily(f SupportedFormat) bool {
	switch f {
	case DPDF, DZIP, DGZip, DPNG, DMultiPNG, DSWF, DRaw, DBrute:
		return true
	default:
		return false
	}
}

// buildFlags packs this record's flags byte: bit0 always set (the
// precompressed marker, distinguishing a record from a literal chunk's
// 0x00 tag), bit1 clear for a perfect (zlib-reencoded) record or set for
// a non-perfect one carrying verbatim ReconData, bits2-5 the compression
// level for deflate-family records, and bits6-7 either the PDF BMP hint
// or, for every other format, bit7 alone as the recursion-used flag.
func (r *record) buildFlags() byte {
	flags := byte(1)
	if isDeflateFamily(r.Format) {
		if !r.Perfect {
			flags |= 1 << 1
		}
		flags |= byte(r.CompLevel&0x0F) << 2
	}
	if r.Format == DPDF {
		flags |= r.BMPHint & 0xC0
	} else if r.RecursionUsed {
		flags |= 1 << 7
	}
	return flags
}

// decodeFlags is buildFlags's inverse, needing the record's tag to know
// whether bits6-7 hold a BMP hint or the recursion-used flag.
func decodeFlags(flags byte, tag SupportedFormat) (perfect bool, compLevel int, bmpHint byte, recursionUsed bool) {
	perfect = true
	if isDeflateFamily(tag) {
		perfect = flags&(1<<1) == 0
		compLevel = int((flags >> 2) & 0x0F)
	}
	if tag == DPDF {
		bmpHint = flags & 0xC0
	} else {
		recursionUsed = flags&(1<<7) != 0
	}
	return perfect, compLevel, bmpHint, recursionUsed
}
