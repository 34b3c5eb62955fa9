// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/precomp

package precomp

import "sort"

// ignoreSet holds absolute input offsets a handler must never probe
// again: positions that already failed a signature check, positions
// covered by an already-accepted record (so a nested handler can't also
// claim bytes inside it), and any caller-supplied Config.IgnorePositions.
// Grounded on spec section 4.6's per-format skip lists, kept sorted for
// binary-search membership tests during a scan that can visit millions
// of offsets.
type ignoreSet struct {
	positions   []int64
	sorted      bool
	rangeStarts []int64
	rangeEnds   []int64
}

// newIgnoreSet returns an ignoreSet seeded with extra, typically
// Config.IgnorePositions.
func newIgnoreSet(extra []int64) *ignoreSet {
	s := &ignoreSet{positions: append([]int64(nil), extra...)}
	s.ensureSorted()
	return s
}

// add records offset as ignored.
func (s *ignoreSet) add(offset int64) {
	s.positions = append(s.positions, offset)
	s.sorted = false
}

// addRange records every offset in [start, end) as ignored. The scanner
// does not call it; it advances past a claimed span instead.
func (s *ignoreSet) addRange(start, end int64) {
	// Stored as a single start/end pair rather than one entry per byte;
	// contains() below checks each stored range in turn.
	s.rangeStarts = append(s.rangeStarts, start)
	s.rangeEnds = append(s.rangeEnds, end)
}

// contains reports whether offset has already been ruled out.
func (s *ignoreSet) contains(offset int64) bool {
	s.ensureSorted()
	i := sort.Search(len(s.positions), func(i int) bool { return s.positions[i] >= offset })
	if i < len(s.positions) && s.positions[i] == offset {
		return true
	}
	for i, start := range s.rangeStarts {
		if offset >= start && offset < s.rangeEnds[i] {
			return true
		}
	}
	return false
}

func (s *ignoreSet) ensureSorted() {
	if !s.sorted {
		sort.Slice(s.positions, func(i, j int) bool { return s.positions[i] < s.positions[j] })
		s.sorted = true
	}
}
