// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/precomp

package precomp

import (
	"fmt"
	"sync/atomic"
)

// deflateFlavor distinguishes a raw deflate stream from a zlib-wrapped one.
type deflateFlavor int

const (
	flavorRaw deflateFlavor = iota
	flavorZlib
)

// deflateFlavorForFormat reports which flavor of deflate stream a
// deflate-family tag wraps, used by pcf_reader.go when a record's flavor
// isn't otherwise carried on the wire.
func deflateFlavorForFormat(tag SupportedFormat) deflateFlavor {
	switch tag {
	case DPDF, DSWF, DPNG, DMultiPNG, DRaw:
		return flavorZlib
	default:
		return flavorRaw
	}
}

// defaultWindowBits and defaultMemLevel are the only window/mem
// parameters this package's oracle can produce: klauspost/compress's
// flate.NewWriter and zlib.NewWriterLevel take a compression level only,
// with no deflateInit2-style windowBits/memLevel knobs, so every
// "perfect" record is encoded at zlib's own defaults (32K window, level-8
// memory).
const (
	defaultWindowBits = 15
	defaultMemLevel   = 8
)

// recompressDeflateResult is what tryRecompression returns on a
// successful precompression of one candidate deflate stream: the
// inflated payload to store instead of the original bytes, plus enough
// metadata to reconstruct the original compressed bytes bit-for-bit on
// recompression, either by reencoding (Perfect) or by falling back to
// the verbatim compressed bytes (ReconData).
type recompressDeflateResult struct {
	Inflated       []byte
	Flavor         deflateFlavor
	Perfect        bool
	CompLevel      int
	MemLevel       int
	WindowBits     int
	ReconData      []byte
	Penalties      *penaltyList
	OriginalLength int64
}

// deflateLevelsToTry is the level search order tryRecompression walks,
// starting from the most common encoder default.
var deflateLevelsToTry = []int{6, 9, 8, 7, 5, 4, 3, 2, 1}

// debugDumpCounter numbers Config.DebugMode's diagnostic dump files.
var debugDumpCounter int64

// dumpDebugBytes writes data to a uniquely numbered temp file via
// tmpFact, for later inspection of a candidate that failed to reencode
// within the penalty budget. Errors are the caller's to decide whether
// to propagate; a failed diagnostic dump shouldn't abort a precompress
// run.
func dumpDebugBytes(tmpFact TempFileFactory, data []byte) error {
	if tmpFact == nil {
		tmpFact = defaultTempFileFactory()
	}
	n := atomic.AddInt64(&debugDumpCounter, 1)
	f, err := tmpFact.Create(fmt.Sprintf("precomp-debug-%d-*.bin", n))
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// tryRecompression attempts to reproduce the deflate-family stream
// starting at window[0] by inflating it, then, when verify is set and
// Config.PreflateVerify is on, reencoding the result at each candidate
// level to find one that matches byte-for-byte or within MaxPenaltyBytes-many
// single-byte mismatches (a "perfect" record). window is scanner
// lookahead and typically extends well past the end of the actual
// compressed stream; the oracle itself reports how many leading bytes it
// consumed, and only that prefix is compared against each reencode
// candidate.
//
// Unlike a pure signature match, any stream that successfully inflates
// is accepted: when verify is false, or no candidate level reproduces
// the original bytes acceptably, the record falls back to storing the
// original compressed bytes verbatim (Perfect=false, ReconData set),
// which always reconstructs exactly since those bytes were already
// proven to inflate. It returns (nil, false, nil) when window doesn't
// decode as a deflate-family stream at all or inflates to an empty
// payload.
func tryRecompression(hc *handlerContext, window []byte, flavor deflateFlavor, verify bool) (*recompressDeflateResult, bool, error) {
	verify = verify && hc.cfg.PreflateVerify
	oracle := hc.oracle
	var inflated []byte
	var consumed int64
	var err error
	switch flavor {
	case flavorZlib:
		inflated, consumed, err = oracle.InflateZlib(window)
	default:
		inflated, consumed, err = oracle.InflateRaw(window)
	}
	if err != nil || consumed == 0 || consumed > int64(len(window)) {
		return nil, false, nil
	}
	if len(inflated) == 0 {
		return nil, false, nil
	}
	compressed := window[:consumed]

	if verify {
		for _, level := range deflateLevelsToTry {
			var candidate []byte
			var rerr error
			switch flavor {
			case flavorZlib:
				candidate, rerr = oracle.DeflateZlib(inflated, level)
			default:
				candidate, rerr = oracle.DeflateRaw(inflated, level)
			}
			if rerr != nil {
				continue
			}
			penalties, ok := compareWithPenalties(compressed, candidate)
			if !ok {
				if hc.cfg.DebugMode {
					_ = dumpDebugBytes(hc.tmpFact, compressed)
				}
				continue
			}
			return &recompressDeflateResult{
				Inflated:       inflated,
				Flavor:         flavor,
				Perfect:        true,
				CompLevel:      level,
				MemLevel:       defaultMemLevel,
				WindowBits:     defaultWindowBits,
				Penalties:      penalties,
				OriginalLength: consumed,
			}, true, nil
		}
	}

	return &recompressDeflateResult{
		Inflated:       inflated,
		Flavor:         flavor,
		Perfect:        false,
		ReconData:      append([]byte(nil), compressed...),
		OriginalLength: consumed,
	}, true, nil
}

// compareWithPenalties compares original against candidate over
// min(len(original), len(candidate)), scoring a running match/mismatch
// tally: +1 per matching byte, -5 per mismatch (a penalty entry's wire
// cost: a 4-byte offset plus a 1-byte replacement). It remembers the
// truncation point with the best score seen so far, and gives up early
// once the score has fallen so far that matching every remaining byte
// couldn't bring it back to zero. This amortizes the cost of a handful of
// reencoder mismatches over an otherwise-matching stream instead of
// rejecting outright on the first difference, matching the reference
// implementation's compare_files_penalty. The candidate is only usable
// when the best-scoring truncation point reaches the full length of
// original; anything short of that means too many mismatches (or a
// structurally different stream) for this level to be the right one.
func compareWithPenalties(original, candidate []byte) (*penaltyList, bool) {
	compareEnd := int64(len(original))
	if int64(len(candidate)) < compareEnd {
		compareEnd = int64(len(candidate))
	}

	pl := &penaltyList{}
	var score int64
	bestScore := int64(-1)
	var bestLen int64

	for i := int64(0); i < compareEnd; i++ {
		if original[i] != candidate[i] {
			score -= 5
			if score+(compareEnd-i) < 0 {
				break
			}
			if !pl.add(i, original[i]) {
				break
			}
		} else {
			score++
		}
		if score > bestScore {
			bestScore = score
			bestLen = i + 1
		}
	}

	if bestLen != int64(len(original)) {
		return nil, false
	}
	return pl, true
}

// reconstructDeflate rebuilds the original compressed bytes from a
// recompressDeflateResult, either by returning the stored verbatim bytes
// (non-perfect) or by reencoding the inflated payload and patching in
// the recorded penalty bytes (perfect).
func reconstructDeflate(oracle DeflateOracle, r *recompressDeflateResult) ([]byte, error) {
	if !r.Perfect {
		if r.ReconData == nil {
			return nil, newErr(KindRecompressionFailure, "non-perfect deflate record missing reconstruction data", nil)
		}
		return append([]byte(nil), r.ReconData...), nil
	}
	var out []byte
	var err error
	switch r.Flavor {
	case flavorZlib:
		out, err = oracle.DeflateZlib(r.Inflated, r.CompLevel)
	default:
		out, err = oracle.DeflateRaw(r.Inflated, r.CompLevel)
	}
	if err != nil {
		return nil, err
	}
	if int64(len(out)) != r.OriginalLength {
		return nil, newErr(KindRecompressionFailure, "reencoded length mismatch", nil)
	}
	if r.Penalties != nil {
		r.Penalties.apply(out)
	}
	return out, nil
}
