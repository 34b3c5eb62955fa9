// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/precomp

package precomp

// histogramWindowSize is the width of one growing checkpoint the filter
// tallies before a brute-force deflate probe, per spec section 4.3.
const histogramWindowSize = 64

// histogramWindowCount is the number of checkpoints sampled ahead of a
// candidate offset, each covering [0, histogramWindowSize*(i+1)) of the span.
const histogramWindowCount = 4

// histogramSpan is the total lookahead the filter needs.
const histogramSpan = histogramWindowSize * histogramWindowCount

// falsePositiveFilter gates brute-force deflate probing behind a cheap
// byte-frequency check. Deflate streams tend to have a roughly flat byte
// histogram over any short run of their output; a skewed prefix (long runs,
// sparse alphabets) is extremely unlikely to be compressed data and is
// rejected before the much more expensive deflate attempt runs.
//
// The filter keeps one running histogram over the current 256-byte span
// and checks it at four growing checkpoints ([0,64), [0,128), [0,192),
// [0,256)) without resetting between them, so a highly repetitive prefix
// is rejected as early as the first 64 bytes. Consecutive calls at
// adjacent positions for the same input slide the histogram by one byte
// (drop the byte leaving the window, add the byte entering it) instead of
// rescanning 256 bytes on every position, matching the scanner's
// one-byte-at-a-time advance.
type falsePositiveFilter struct {
	hist [256]int

	hasPrev       bool
	prevInputID   uintptr
	prevPos       int64
	prevFirstByte byte
	prevUsed      int
	prevI         int
}

// newFalsePositiveFilter returns a filter with no history; the first call
// to check always performs a full rebuild.
func newFalsePositiveFilter() *falsePositiveFilter {
	return &falsePositiveFilter{}
}

// check reports whether the histogramSpan bytes at window (the bytes
// starting at position in the stream identified by inputID) look
// plausible for compressed data. window shorter than histogramSpan is
// always accepted, since there isn't enough lookahead to reject on.
//
// When called with the same inputID and position == the previous call's
// position + 1, the histogram is updated incrementally by sliding one
// byte; otherwise it's rebuilt from window from scratch.
func (f *falsePositiveFilter) check(inputID uintptr, window []byte, position int64) bool {
	if len(window) < histogramSpan {
		return true
	}
	data := window[:histogramSpan]

	var i, j, maximum, used int
	if !f.hasPrev || inputID != f.prevInputID || position != f.prevPos+1 {
		f.hist = [256]int{}
		i, j = 0, 0
	} else {
		i = f.prevI
		if i == histogramWindowCount {
			i--
		}
		j = histogramWindowSize - 1

		firstByteRepeated := f.hist[f.prevFirstByte] > 1
		f.hist[f.prevFirstByte]--
		maximum = maxHistogramCount(&f.hist)
		used = f.prevUsed
		if !firstByteRepeated {
			used--
		}
	}

	for ; i < histogramWindowCount; i++ {
		base := i * histogramWindowSize
		for ; j < histogramWindowSize; j++ {
			b := data[base+j]
			if f.hist[b] == 0 {
				used++
			}
			f.hist[b]++
			if f.hist[b] > maximum {
				maximum = f.hist[b]
			}
		}
		if maximum >= (12+i)<<uint(i) || used*(7-(i+i/2)) < (i+1)*64 {
			break
		}
		if i != histogramWindowCount-1 {
			j = 0
		}
	}

	f.hasPrev = true
	f.prevInputID = inputID
	f.prevPos = position
	f.prevFirstByte = data[0]
	f.prevUsed = used
	f.prevI = i

	return i == histogramWindowCount
}

// maxHistogramCount returns the largest bucket count in hist.
func maxHistogramCount(hist *[256]int) int {
	maximum := 0
	for _, c := range hist {
		if c > maximum {
			maximum = c
		}
	}
	return maximum
}
