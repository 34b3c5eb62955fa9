// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/precomp

package precomp

// ProgressReporter receives fractional progress updates in [0,1]. It is
// an out-of-scope external collaborator per spec section 1: this package
// only computes the fraction and calls the interface, never renders it.
type ProgressReporter interface {
	Progress(fraction float64)
}

// noopProgress discards all updates; the zero-value default.
type noopProgress struct{}

// Progress implements ProgressReporter as a no-op.
func (noopProgress) Progress(float64) {}

// rangedProgress maps an inner [0,1] fraction onto [min,max] of a parent
// range before forwarding to the underlying reporter, matching spec
// section 4.9's recursion sub-range mapping.
type rangedProgress struct {
	inner    ProgressReporter
	min, max float64
}

// newRangedProgress builds a progress mapper for one recursion level.
func newRangedProgress(inner ProgressReporter, min, max float64) ProgressReporter {
	if inner == nil {
		inner = noopProgress{}
	}
	return &rangedProgress{inner: inner, min: min, max: max}
}

// Progress maps fraction onto this reporter's [min,max] sub-range.
func (r *rangedProgress) Progress(fraction float64) {
	if fraction < 0 {
		fraction = 0
	} else if fraction > 1 {
		fraction = 1
	}
	r.inner.Progress(r.min + fraction*(r.max-r.min))
}

// positionProgress derives a fraction from a stream position over a
// known total length and reports it, matching spec section 4.9:
// "input_file_pos / fin_length mapped into [min%, max%]".
func positionProgress(reporter ProgressReporter, pos, total int64) {
	if reporter == nil || total <= 0 {
		return
	}
	reporter.Progress(float64(pos) / float64(total))
}
