// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/precomp

package precomp

// Stats accumulates monotone per-format counters across one precompress
// or recompress run. Fields mirror the reference implementation's
// CResultStatistics; counters are signed and clamped at zero per
// SPEC_FULL.md's decision on the source's underflow-prone unsigned
// counters (Open Question c).
type Stats struct {
	RecompressedStreamsCount int64
	RecompressedPDFCount     int64
	RecompressedPDFCount8Bit int64
	RecompressedPDFCount24Bit int64
	RecompressedZIPCount     int64
	RecompressedGZipCount    int64
	RecompressedPNGCount     int64
	RecompressedPNGMultiCount int64
	RecompressedGIFCount     int64
	RecompressedJPGCount     int64
	RecompressedJPGProgCount int64
	RecompressedMP3Count     int64
	RecompressedSWFCount     int64
	RecompressedBase64Count  int64
	RecompressedBzip2Count   int64
	RecompressedZlibCount    int64 // intense mode
	RecompressedBruteCount   int64 // brute mode

	DecompressedStreamsCount int64
	DecompressedPDFCount     int64
	DecompressedPDFCount8Bit int64
	DecompressedPDFCount24Bit int64
	DecompressedZIPCount     int64
	DecompressedGZipCount    int64
	DecompressedPNGCount     int64
	DecompressedPNGMultiCount int64
	DecompressedGIFCount     int64
	DecompressedJPGCount     int64
	DecompressedJPGProgCount int64
	DecompressedMP3Count     int64
	DecompressedSWFCount     int64
	DecompressedBase64Count  int64
	DecompressedBzip2Count   int64
	DecompressedZlibCount    int64 // intense mode
	DecompressedBruteCount   int64 // brute mode
}

// recordDecompressed increments the counters for a successful detection
// of format f during precompress (scanning finds and expands a stream).
func (s *Stats) recordDecompressed(f SupportedFormat) {
	s.DecompressedStreamsCount++
	switch f {
	case DZIP:
		s.DecompressedZIPCount++
	case DGZip:
		s.DecompressedGZipCount++
	case DPNG:
		s.DecompressedPNGCount++
	case DMultiPNG:
		s.DecompressedPNGMultiCount++
	case DGIF:
		s.DecompressedGIFCount++
	case DJPG:
		s.DecompressedJPGCount++
	case DMP3:
		s.DecompressedMP3Count++
	case DSWF:
		s.DecompressedSWFCount++
	case DBase64:
		s.DecompressedBase64Count++
	case DBzip2:
		s.DecompressedBzip2Count++
	case DRaw:
		s.DecompressedZlibCount++
	case DBrute:
		s.DecompressedBruteCount++
	}
}

// recordDecompressedPDF increments PDF-specific decompress counters. bpp
// is 8 or 24; any other value increments only the generic PDF counter.
func (s *Stats) recordDecompressedPDF(bpp int) {
	s.DecompressedStreamsCount++
	s.DecompressedPDFCount++
	switch bpp {
	case 8:
		s.DecompressedPDFCount8Bit++
	case 24:
		s.DecompressedPDFCount24Bit++
	}
}

// recordRecompressed increments the counters for a successful
// reconstruction of format f during recompress.
func (s *Stats) recordRecompressed(f SupportedFormat) {
	s.RecompressedStreamsCount++
	switch f {
	case DZIP:
		s.RecompressedZIPCount++
	case DGZip:
		s.RecompressedGZipCount++
	case DPNG:
		s.RecompressedPNGCount++
	case DMultiPNG:
		s.RecompressedPNGMultiCount++
	case DGIF:
		s.RecompressedGIFCount++
	case DJPG:
		s.RecompressedJPGCount++
	case DMP3:
		s.RecompressedMP3Count++
	case DSWF:
		s.RecompressedSWFCount++
	case DBase64:
		s.RecompressedBase64Count++
	case DBzip2:
		s.RecompressedBzip2Count++
	case DRaw:
		s.RecompressedZlibCount++
	case DBrute:
		s.RecompressedBruteCount++
	}
}

// recordRecompressedPDF increments the PDF-specific recompress counters.
func (s *Stats) recordRecompressedPDF(bpp int) {
	s.RecompressedStreamsCount++
	s.RecompressedPDFCount++
	switch bpp {
	case 8:
		s.RecompressedPDFCount8Bit++
	case 24:
		s.RecompressedPDFCount24Bit++
	}
}

// clampNonNegative floors a signed counter at zero; merge applies it to
// the PDF 8-bit/24-bit sub-counters.
func clampNonNegative(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}

// merge folds delta's counters into s. Precompress uses it to add the
// top-level scan's counters to the Precomp's totals; nested recursion
// scans' counters are not merged.
func (s *Stats) merge(delta Stats) {
	*s = Stats{
		RecompressedStreamsCount:  s.RecompressedStreamsCount + delta.RecompressedStreamsCount,
		RecompressedPDFCount:      s.RecompressedPDFCount + delta.RecompressedPDFCount,
		RecompressedPDFCount8Bit:  clampNonNegative(s.RecompressedPDFCount8Bit + delta.RecompressedPDFCount8Bit),
		RecompressedPDFCount24Bit: clampNonNegative(s.RecompressedPDFCount24Bit + delta.RecompressedPDFCount24Bit),
		RecompressedZIPCount:      s.RecompressedZIPCount + delta.RecompressedZIPCount,
		RecompressedGZipCount:     s.RecompressedGZipCount + delta.RecompressedGZipCount,
		RecompressedPNGCount:      s.RecompressedPNGCount + delta.RecompressedPNGCount,
		RecompressedPNGMultiCount: s.RecompressedPNGMultiCount + delta.RecompressedPNGMultiCount,
		RecompressedGIFCount:      s.RecompressedGIFCount + delta.RecompressedGIFCount,
		RecompressedJPGCount:      s.RecompressedJPGCount + delta.RecompressedJPGCount,
		RecompressedJPGProgCount:  s.RecompressedJPGProgCount + delta.RecompressedJPGProgCount,
		RecompressedMP3Count:      s.RecompressedMP3Count + delta.RecompressedMP3Count,
		RecompressedSWFCount:      s.RecompressedSWFCount + delta.RecompressedSWFCount,
		RecompressedBase64Count:   s.RecompressedBase64Count + delta.RecompressedBase64Count,
		RecompressedBzip2Count:    s.RecompressedBzip2Count + delta.RecompressedBzip2Count,
		RecompressedZlibCount:     s.RecompressedZlibCount + delta.RecompressedZlibCount,
		RecompressedBruteCount:    s.RecompressedBruteCount + delta.RecompressedBruteCount,

		DecompressedStreamsCount:  s.DecompressedStreamsCount + delta.DecompressedStreamsCount,
		DecompressedPDFCount:      s.DecompressedPDFCount + delta.DecompressedPDFCount,
		DecompressedPDFCount8Bit:  clampNonNegative(s.DecompressedPDFCount8Bit + delta.DecompressedPDFCount8Bit),
		DecompressedPDFCount24Bit: clampNonNegative(s.DecompressedPDFCount24Bit + delta.DecompressedPDFCount24Bit),
		DecompressedZIPCount:      s.DecompressedZIPCount + delta.DecompressedZIPCount,
		DecompressedGZipCount:     s.DecompressedGZipCount + delta.DecompressedGZipCount,
		DecompressedPNGCount:      s.DecompressedPNGCount + delta.DecompressedPNGCount,
		DecompressedPNGMultiCount: s.DecompressedPNGMultiCount + delta.DecompressedPNGMultiCount,
		DecompressedGIFCount:      s.DecompressedGIFCount + delta.DecompressedGIFCount,
		DecompressedJPGCount:      s.DecompressedJPGCount + delta.DecompressedJPGCount,
		DecompressedJPGProgCount:  s.DecompressedJPGProgCount + delta.DecompressedJPGProgCount,
		DecompressedMP3Count:      s.DecompressedMP3Count + delta.DecompressedMP3Count,
		DecompressedSWFCount:      s.DecompressedSWFCount + delta.DecompressedSWFCount,
		DecompressedBase64Count:   s.DecompressedBase64Count + delta.DecompressedBase64Count,
		DecompressedBzip2Count:    s.DecompressedBzip2Count + delta.DecompressedBzip2Count,
		DecompressedZlibCount:     s.DecompressedZlibCount + delta.DecompressedZlibCount,
		DecompressedBruteCount:    s.DecompressedBruteCount + delta.DecompressedBruteCount,
	}
}
