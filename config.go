// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/precomp

package precomp

import (
	bitmap "github.com/boljen/go-bitmap"
)

// SupportedFormat is a closed-set format tag byte, matching the C
// reference's SupportedFormats enum and spec section 4.5's dispatch set.
type SupportedFormat uint8

// Format tag bytes. Values are stable across the container format and
// must never be renumbered.
const (
	DNone SupportedFormat = iota
	DPDF
	DZIP
	DGZip
	DPNG
	DMultiPNG
	DGIF
	DJPG
	DMP3
	DSWF
	DBase64
	DBzip2
	DRaw
	DBrute
	numSupportedFormats
)

// String names a format tag for diagnostics.
func (f SupportedFormat) String() string {
	names := [...]string{
		"none", "pdf", "zip", "gzip", "png", "multipng", "gif",
		"jpg", "mp3", "swf", "base64", "bzip2", "raw", "brute",
	}
	if int(f) < len(names) {
		return names[f]
	}
	return "unknown"
}

// Default tuning constants, named after the reference implementation.
const (
	// CheckbufSize is the minimum guaranteed lookahead window length.
	CheckbufSize = 4096
	// DefaultInBufSize is the default sliding window buffer capacity.
	DefaultInBufSize = 64 * 1024
	// DefaultMinIdentSize is the minimum identical run length switches use.
	DefaultMinIdentSize = 4
	// DefaultPreflateMetaBlockSize bounds one deflate reencode attempt.
	DefaultPreflateMetaBlockSize = 1 << 21
	// DefaultMaxIOBufferSize is the in-memory ceiling before a sink spills
	// its uncompressed payload to a temporary file.
	DefaultMaxIOBufferSize = 1 << 24
	// MaxPenaltyBytes bounds the number of (offset,byte) patches per record.
	MaxPenaltyBytes = 16384
	// DefaultMaxRecursionDepth bounds nested precompression.
	DefaultMaxRecursionDepth = 10
	// PassthroughChunkSize is the passthrough stream's bounded buffer size.
	PassthroughChunkSize = 1 << 16
)

// Config holds one run's tunables. Construct with DefaultConfig, mutate
// the copy, then pass to New; New freezes it for the run's lifetime.
type Config struct {
	// DebugMode enables verbose diagnostic accounting (dump files on
	// verification mismatch, etc).
	DebugMode bool

	// IntenseMode probes every position for a valid zlib 2-byte prefix.
	IntenseMode bool
	// IntenseModeDepthLimit caps recursion depth for intense-mode hits; 0 means unlimited.
	IntenseModeDepthLimit int
	// FastMode skips the deflate verification round-trip for speed.
	FastMode bool
	// BruteMode probes every position for raw deflate with no signature.
	BruteMode bool
	// BruteModeDepthLimit caps recursion depth for brute-mode hits; 0 means unlimited.
	BruteModeDepthLimit int

	// PDFBMPMode wraps a BMP header hint around PDF images per bit depth.
	PDFBMPMode bool
	// ProgressiveOnly restricts JPEG recompression to progressive JPEGs.
	ProgressiveOnly bool
	// UseMJPEG inserts a Huffman table for MJPEG recompression.
	UseMJPEG bool
	// UseBrunsli prefers brunsli for JPEG compression.
	UseBrunsli bool
	// UsePackJPGFallback falls back to packJPG when brunsli fails.
	UsePackJPGFallback bool

	// MinIdentSize holds the minimum identical byte count setting. Freeze
	// defaults it; no handler reads it.
	MinIdentSize uint

	// enabledFormats is the per-format handler bitmap; use Enable/Disable/Enabled.
	enabledFormats bitmap.Bitmap

	// MaxRecursionDepth bounds nested nested precompression across all modes.
	MaxRecursionDepth int
	// PreflateMetaBlockSize bounds one deflate reencode attempt's span.
	PreflateMetaBlockSize int
	// MaxIOBufferSize holds the in-memory ceiling setting for an
	// uncompressed payload. Freeze defaults it; nothing reads it, and
	// tryRecompression keeps every inflated payload in memory.
	MaxIOBufferSize int64
	// PreflateVerify enables the reencode-and-compare round trip;
	// FastMode turns it off regardless.
	PreflateVerify bool

	// IgnorePositions is a caller-supplied list of absolute offsets to
	// never probe, merged into every format's ignore set at startup.
	IgnorePositions []int64

	// Progress, when non-nil, receives fractional progress updates.
	Progress ProgressReporter

	frozen bool
}

// DefaultConfig returns a Config with every format handler enabled
// except DRaw and DBrute, and the reference implementation's default
// tunables.
func DefaultConfig() Config {
	cfg := Config{
		UseMJPEG:               true,
		UseBrunsli:             true,
		UsePackJPGFallback:     true,
		MinIdentSize:           DefaultMinIdentSize,
		MaxRecursionDepth:      DefaultMaxRecursionDepth,
		PreflateMetaBlockSize:  DefaultPreflateMetaBlockSize,
		MaxIOBufferSize:        DefaultMaxIOBufferSize,
		PreflateVerify:         true,
		enabledFormats:         bitmap.New(int(numSupportedFormats)),
	}
	for f := DPDF; f < numSupportedFormats; f++ {
		if f == DRaw || f == DBrute {
			continue // intense/brute default off, matching the reference switches
		}
		cfg.enabledFormats.Set(int(f), true)
	}
	return cfg
}

// Enable turns on the handler for format f.
func (c *Config) Enable(f SupportedFormat) {
	c.ensureBitmap()
	c.enabledFormats.Set(int(f), true)
}

// Disable turns off the handler for format f.
func (c *Config) Disable(f SupportedFormat) {
	c.ensureBitmap()
	c.enabledFormats.Set(int(f), false)
}

// Enabled reports whether format f's handler is active, including the
// mode-gated DRaw/DBrute tags which additionally require IntenseMode/BruteMode.
func (c *Config) Enabled(f SupportedFormat) bool {
	c.ensureBitmap()
	if !c.enabledFormats.Get(int(f)) {
		return false
	}
	switch f {
	case DRaw:
		return c.IntenseMode
	case DBrute:
		return c.BruteMode
	default:
		return true
	}
}

func (c *Config) ensureBitmap() {
	if c.enabledFormats == nil {
		c.enabledFormats = bitmap.New(int(numSupportedFormats))
	}
}

// applyDefaults fills zero-valued fields with their defaults, matching
// the teacher's PackOptions.applyDefaults / ReaderOptions.applyDefaults shape.
func (c *Config) applyDefaults() {
	c.ensureBitmap()
	if c.MinIdentSize == 0 {
		c.MinIdentSize = DefaultMinIdentSize
	}
	if c.MaxRecursionDepth == 0 {
		c.MaxRecursionDepth = DefaultMaxRecursionDepth
	}
	if c.PreflateMetaBlockSize == 0 {
		c.PreflateMetaBlockSize = DefaultPreflateMetaBlockSize
	}
	if c.MaxIOBufferSize == 0 {
		c.MaxIOBufferSize = DefaultMaxIOBufferSize
	}
	if c.Progress == nil {
		c.Progress = noopProgress{}
	}
}

// Freeze fills in defaults (it does no other validation), returning a copy
// safe to share across the recursion context tree for one run.
func (c Config) Freeze() Config {
	c.applyDefaults()
	c.frozen = true
	return c
}
