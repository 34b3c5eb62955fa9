// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/precomp

package precomp

import (
	"context"
	"sync/atomic"
)

// scanIDCounter hands out a fresh identifier per scan context so the
// false-positive filter can tell whether consecutive quickCheck calls
// belong to the same input.
var scanIDCounter uintptr

func nextScanID() uintptr {
	return uintptr(atomic.AddUintptr(&scanIDCounter, 1))
}

// pdfDictLookbackSize bounds how much already-scanned original input the
// PDF handler can search backward through for a stream's enclosing
// dictionary, matching the reference implementation's 4096-byte read
// preceding the "stream" keyword.
const pdfDictLookbackSize = 4096

// scanContext is one recursion level's mutable scanning state: cursor,
// pending literal run, per-format ignore sets, and the statistics delta
// accumulated at this depth. Grounded on spec section 4.6's per-context
// state and on the reference implementation's RecursionContext.
type scanContext struct {
	cfg      *Config
	registry *handlerRegistry
	hc       *handlerContext

	cursor      int64
	pendingByte []byte
	history     []byte

	ignore map[SupportedFormat]*ignoreSet

	stats           Stats
	maxDepthReached bool
	depth           int
}

// newScanContext returns a scan context at the given recursion depth,
// with a fresh ignore set per format seeded from
// Config.IgnorePositions.
func newScanContext(cfg *Config, registry *handlerRegistry, oracle DeflateOracle, tmpFact TempFileFactory, depth int, recurse func(context.Context, []byte, int) ([]byte, bool, error)) *scanContext {
	sc := &scanContext{
		cfg:      cfg,
		registry: registry,
		ignore:   make(map[SupportedFormat]*ignoreSet),
		depth:    depth,
	}
	sc.hc = &handlerContext{
		cfg:     cfg,
		oracle:  oracle,
		filter:  newFalsePositiveFilter(),
		tmpFact: tmpFact,
		inputID: nextScanID(),
		depth:   depth,
		recurse: recurse,
	}
	sc.hc.historyBefore = func() []byte { return sc.history }
	for f := DPDF; f < numSupportedFormats; f++ {
		sc.ignore[f] = newIgnoreSet(cfg.IgnorePositions)
	}
	return sc
}

// anyIgnores reports whether offset is ignored by every currently
// enabled format, meaning detection can be skipped outright for it.
func (sc *scanContext) anyIgnores(offset int64) bool {
	for f := DPDF; f < numSupportedFormats; f++ {
		if !sc.cfg.Enabled(f) {
			continue
		}
		if !sc.ignore[f].contains(offset) {
			return false
		}
	}
	return true
}

// correlatedIgnore adds offset to the ignore sets of formats correlated
// with a failed probe of triedFormat, per spec section 4.6/7: an swf
// failure also rules out raw/brute at the same position, and a
// non-brute deflate failure rules out brute (the two would find the
// same false start).
func (sc *scanContext) correlatedIgnore(triedFormat SupportedFormat, offset int64) {
	switch triedFormat {
	case DSWF:
		sc.ignore[DRaw].add(offset)
		sc.ignore[DBrute].add(offset)
	case DPDF, DZIP, DGZip, DPNG, DMultiPNG:
		sc.ignore[DBrute].add(offset)
	}
}

// run scans in from position 0 to its end, writing literal runs and
// records to w in input order. ctx is checked once per scan step; a
// cancelled context aborts the scan with ctx.Err().
func (sc *scanContext) run(ctx context.Context, in Stream, w *pcfWriter, inputLength int64) error {
	window := newSlidingWindow(in, DefaultInBufSize)
	for {
		if sc.cursor >= inputLength {
			break
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		lookahead, err := window.lookahead()
		if err != nil {
			return newErr(KindIoFailure, "refill scan window", err)
		}
		if len(lookahead) == 0 {
			break
		}

		claimed := false
		if !sc.anyIgnores(sc.cursor) {
			for _, h := range sc.registry.order {
				tag := h.tags()[0]
				if !sc.cfg.Enabled(tag) && !formatTagsAnyEnabled(sc.cfg, h.tags()) {
					continue
				}
				if sc.ignore[tag].contains(sc.cursor) {
					continue
				}
				if !h.quickCheck(sc.hc, lookahead, sc.cursor) {
					continue
				}
				result, err := h.attemptPrecompression(sc.hc, lookahead, sc.cursor)
				if err != nil {
					return err
				}
				if result == nil {
					sc.correlatedIgnore(tag, sc.cursor)
					continue
				}
				if err := sc.flushLiteral(w); err != nil {
					return err
				}
				format := result.Record.Format
				if isPDFFormat(format) {
					sc.stats.recordDecompressedPDF(pdfBPPFromHint(result.Record.BMPHint))
				} else {
					sc.stats.recordDecompressed(format)
				}
				payload := result.Payload
				// DPDF records have no wire representation for
				// RecursionUsed (bits6-7 of the flags byte are the BMP
				// hint for this tag instead), so recursion is never
				// attempted into a PDF stream's payload.
				if sc.hc.recurse != nil && format != DPDF {
					if nested, used, rerr := sc.hc.recurse(ctx, result.Payload, sc.depth); rerr != nil {
						return rerr
					} else if used {
						result.Record.RecursionUsed = true
						payload = nested
					}
				}
				if err := w.writeRecord(result.Record, payload); err != nil {
					return err
				}
				sc.appendHistory(lookahead[:result.ConsumedLength])
				if err := window.advance(int(result.ConsumedLength)); err != nil {
					return newErr(KindIoFailure, "advance scan window", err)
				}
				sc.cursor += result.ConsumedLength
				claimed = true
				break
			}
		}
		if claimed {
			continue
		}

		sc.pendingByte = append(sc.pendingByte, lookahead[0])
		sc.appendHistory(lookahead[:1])
		if err := window.advance(1); err != nil {
			return newErr(KindIoFailure, "advance scan window", err)
		}
		sc.cursor++
	}
	if err := sc.flushLiteral(w); err != nil {
		return err
	}
	return nil
}

// appendHistory records b (original input bytes just consumed by the
// scan cursor) into the rolling lookback buffer, trimmed to
// pdfDictLookbackSize bytes.
func (sc *scanContext) appendHistory(b []byte) {
	sc.history = append(sc.history, b...)
	if len(sc.history) > pdfDictLookbackSize {
		sc.history = sc.history[len(sc.history)-pdfDictLookbackSize:]
	}
}

// flushLiteral emits the pending literal run, if any, as a single PCF
// literal chunk and resets the run.
func (sc *scanContext) flushLiteral(w *pcfWriter) error {
	if len(sc.pendingByte) == 0 {
		return nil
	}
	if err := w.writeLiteral(sc.pendingByte); err != nil {
		return err
	}
	sc.pendingByte = sc.pendingByte[:0]
	return nil
}

// formatTagsAnyEnabled reports whether any tag a multi-tag handler
// claims is enabled, so e.g. the shared PNG handler still runs when
// only D_MULTIPNG is enabled.
func formatTagsAnyEnabled(cfg *Config, tags []SupportedFormat) bool {
	for _, t := range tags {
		if cfg.Enabled(t) {
			return true
		}
	}
	return false
}

func isPDFFormat(f SupportedFormat) bool { return f == DPDF }

func pdfBPPFromHint(hint byte) int {
	switch hint {
	case pdfBMP8Bit:
		return 8
	case pdfBMP24Bit:
		return 24
	default:
		return 0
	}
}
