// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/precomp

package precomp

// penaltyByte is a single (offset, original byte) patch recorded when the
// reencoder's output differs from the original compressed stream at one
// position but the streams otherwise match, per spec section 4.4's
// tolerance for reencoder non-determinism (nonstandard Huffman tie-breaks,
// window search order).
type penaltyByte struct {
	Offset int64
	Value  byte
}

// penaltyList accumulates penalty bytes for one reencode attempt, aborting
// the attempt once MaxPenaltyBytes is exceeded since a stream needing more
// isn't a reencoder quirk, it is a genuinely different codec.
type penaltyList struct {
	entries []penaltyByte
}

// add records a mismatch at offset, returning false once the list has
// grown past MaxPenaltyBytes or offset can't fit the wire format's
// 32-bit offset field.
func (p *penaltyList) add(offset int64, original byte) bool {
	if len(p.entries) >= MaxPenaltyBytes {
		return false
	}
	if offset < 0 || offset > 0xFFFFFFFF {
		return false
	}
	p.entries = append(p.entries, penaltyByte{Offset: offset, Value: original})
	return true
}

// len reports how many penalty bytes have been recorded.
func (p *penaltyList) len() int { return len(p.entries) }

// encode serializes the penalty list as a PCF penalty-byte block: a
// varint entry count followed by fixed (offset:u32-big-endian,
// replacement_byte:u8) tuples in the order recorded, per spec section 3.
func (p *penaltyList) encode() []byte {
	out := appendVarint(nil, uint64(len(p.entries)))
	for _, e := range p.entries {
		var tuple [5]byte
		putUint32BE(tuple[0:4], uint32(e.Offset))
		tuple[4] = e.Value
		out = append(out, tuple[:]...)
	}
	return out
}

// encodePenalties is a nil-safe wrapper around penaltyList.encode, so a
// record with no penalty bytes still emits a well-formed vli(0) block.
func encodePenalties(p *penaltyList) []byte {
	if p == nil {
		p = &penaltyList{}
	}
	return p.encode()
}

// decodePenaltyList parses the encoding produced by encode, returning the
// list and the number of bytes consumed from src.
func decodePenaltyList(src []byte) (*penaltyList, int, error) {
	count, n := getVarint(src)
	if n == 0 {
		return nil, 0, ErrInvalidVarInt
	}
	total := n
	pl := &penaltyList{entries: make([]penaltyByte, 0, count)}
	for i := uint64(0); i < count; i++ {
		if total+5 > len(src) {
			return nil, 0, ErrInvalidVarInt
		}
		offset := int64(uint32(src[total])<<24 | uint32(src[total+1])<<16 | uint32(src[total+2])<<8 | uint32(src[total+3]))
		value := src[total+4]
		total += 5
		pl.entries = append(pl.entries, penaltyByte{Offset: offset, Value: value})
	}
	return pl, total, nil
}

// decodePenaltiesFromReader reads a penalty-byte block directly from br,
// used by pcfReader which has no fixed-size buffer to slice from.
func decodePenaltiesFromReader(read func([]byte) error, count uint64) (*penaltyList, error) {
	pl := &penaltyList{entries: make([]penaltyByte, 0, count)}
	var tuple [5]byte
	for i := uint64(0); i < count; i++ {
		if err := read(tuple[:]); err != nil {
			return nil, err
		}
		offset := int64(uint32(tuple[0])<<24 | uint32(tuple[1])<<16 | uint32(tuple[2])<<8 | uint32(tuple[3]))
		pl.entries = append(pl.entries, penaltyByte{Offset: offset, Value: tuple[4]})
	}
	return pl, nil
}

// apply patches buf in place at each recorded offset, restoring the
// reencoder's output back to the original bytes it diverged from.
func (p *penaltyList) apply(buf []byte) {
	for _, e := range p.entries {
		if e.Offset >= 0 && e.Offset < int64(len(buf)) {
			buf[e.Offset] = e.Value
		}
	}
}
