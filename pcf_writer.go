// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/precomp

package precomp

import "path"

// pcfLiteralTag is the control byte introducing a literal run. Any other
// control byte is itself a record's flags byte (bit0 is always set on a
// record, per spec section 6), so the two chunk kinds never collide.
const pcfLiteralTag byte = 0x00

// pcfWriter streams a PCF container to out: a header, then an
// interleaved sequence of literal runs and precompression records in
// input order, terminated by a zero-length literal chunk. This
// sequential, index-free layout mirrors the scanner's own left-to-right
// pass over the input and lets pcfReader replay a container without
// first reading a separate index, at the cost of requiring records to be
// emitted in discovery order.
type pcfWriter struct {
	out           Stream
	filename      string
	headerWritten bool
}

// newPCFWriter returns a writer over out. filename is recorded in the
// header with any directory path stripped; pass "" for a nested payload
// with no meaningful name of its own.
func newPCFWriter(out Stream, filename string) *pcfWriter {
	name := ""
	if filename != "" {
		name = path.Base(filename)
	}
	return &pcfWriter{out: out, filename: name}
}

// writeHeader emits the PCF prologue. Must be called before any chunk is
// written.
func (w *pcfWriter) writeHeader() error {
	h := &pcfHeader{
		VersionMajor: pcfVersionMajor,
		VersionMinor: pcfVersionMinor,
		VersionPatch: pcfVersionPatch,
		Filename:     w.filename,
	}
	if _, err := w.out.Write(h.encode()); err != nil {
		return newErr(KindIoFailure, "write pcf header", err)
	}
	w.headerWritten = true
	return nil
}

// writeVLI appends a single varint-encoded field directly to out.
func (w *pcfWriter) writeVLI(n uint64) error {
	var buf [10]byte
	ln := putVarint(buf[:], n)
	if _, err := w.out.Write(buf[:ln]); err != nil {
		return newErr(KindIoFailure, "write vli", err)
	}
	return nil
}

// writeVarBlock writes a length-prefixed byte block: vli(len(data))
// followed by data itself.
func (w *pcfWriter) writeVarBlock(data []byte) error {
	if err := w.writeVLI(uint64(len(data))); err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	if _, err := w.out.Write(data); err != nil {
		return newErr(KindIoFailure, "write var block body", err)
	}
	return nil
}

// writeLiteral emits a run of bytes copied verbatim from the input as a
// `00, vli(length), bytes` chunk.
func (w *pcfWriter) writeLiteral(p []byte) error {
	if len(p) == 0 {
		return nil
	}
	if _, err := w.out.Write([]byte{pcfLiteralTag}); err != nil {
		return newErr(KindIoFailure, "write literal tag", err)
	}
	if err := w.writeVLI(uint64(len(p))); err != nil {
		return err
	}
	if _, err := w.out.Write(p); err != nil {
		return newErr(KindIoFailure, "write literal body", err)
	}
	return nil
}

// writeRecord emits one precompression record inline: flags, tag, an
// optional deflate params byte, the format metadata block, the penalty
// block, the original/precompressed size pair, optional reconstruction
// data, the (already recursively precompressed) payload, and, if
// recursion was used, a trailing recursion length — the exact field
// order spec section 6 lays out for a deflate-family record, generalized
// to every format tag.
func (w *pcfWriter) writeRecord(r *record, payload []byte) error {
	flags := r.buildFlags()
	if _, err := w.out.Write([]byte{flags, byte(r.Format)}); err != nil {
		return newErr(KindIoFailure, "write record flags/tag", err)
	}

	deflateFamily := isDeflateFamily(r.Format)
	if deflateFamily && r.Perfect {
		params := byte((r.WindowBits-8)<<4) | byte(r.MemLevel&0x0F)
		if _, err := w.out.Write([]byte{params}); err != nil {
			return newErr(KindIoFailure, "write record params byte", err)
		}
	}

	if err := w.writeVarBlock(r.FormatMeta); err != nil {
		return err
	}

	if _, err := w.out.Write(encodePenalties(r.Penalties)); err != nil {
		return newErr(KindIoFailure, "write penalty block", err)
	}

	bodyOriginalLength := r.OriginalLength - int64(len(r.FormatMeta))
	if err := w.writeVLI(uint64(bodyOriginalLength)); err != nil {
		return err
	}
	if err := w.writeVLI(uint64(len(payload))); err != nil {
		return err
	}

	if deflateFamily && !r.Perfect {
		if err := w.writeVarBlock(r.ReconData); err != nil {
			return err
		}
	}

	if _, err := w.out.Write(payload); err != nil {
		return newErr(KindIoFailure, "write record payload", err)
	}

	if r.RecursionUsed {
		if err := w.writeVLI(uint64(len(payload))); err != nil {
			return err
		}
	}
	return nil
}

// close writes the zero-length literal chunk that terminates a
// container's body. It does not close the underlying Stream, matching
// the teacher's writer.Close conventions where the caller owns the
// handle's lifetime.
func (w *pcfWriter) close() error {
	if _, err := w.out.Write([]byte{pcfLiteralTag}); err != nil {
		return newErr(KindIoFailure, "write pcf terminator tag", err)
	}
	if err := w.writeVLI(0); err != nil {
		return err
	}
	return nil
}
