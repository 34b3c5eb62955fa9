// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/precomp

package precomp

import (
	"bufio"
	"io"
	"sync"
)

// pcfBufferedReaderPool reuses bufio.Readers across ReadHeader/Recompress
// calls on distinct input streams, avoiding an allocation per run.
// Grounded on the teacher's entry_reader.go buffered-reader-pool for
// per-entry decompression.
var pcfBufferedReaderPool = sync.Pool{
	New: func() any { return bufio.NewReaderSize(nil, DefaultInBufSize) },
}

// pcfChunk is one decoded unit from a container body: either a literal
// run or a record with its payload.
type pcfChunk struct {
	Literal []byte
	Record  *record
	Payload []byte
}

// pcfReader replays a PCF container written by pcfWriter, yielding
// chunks in the order they were written.
type pcfReader struct {
	br     *bufio.Reader
	source Stream
	header *pcfHeader
}

// newPCFReader wraps in, reading and validating the header before
// returning. The caller must call close when done to release the pooled
// bufio.Reader.
func newPCFReader(in Stream) (*pcfReader, error) {
	br := pcfBufferedReaderPool.Get().(*bufio.Reader)
	br.Reset(&streamReaderAdapter{s: in})

	header, err := decodePCFHeaderFrom(br)
	if err != nil {
		pcfBufferedReaderPool.Put(br)
		return nil, err
	}
	return &pcfReader{br: br, source: in, header: header}, nil
}

// Header returns the parsed container header.
func (r *pcfReader) Header() *pcfHeader { return r.header }

// next reads the next chunk from the container, returning io.EOF once
// the zero-length terminator chunk has been consumed.
func (r *pcfReader) next() (*pcfChunk, error) {
	ctrl, err := r.br.ReadByte()
	if err != nil {
		return nil, newErr(KindIoFailure, "read chunk control byte", err)
	}

	if ctrl == pcfLiteralTag {
		n, err := readVarintFrom(r.br)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return nil, io.EOF
		}
		buf := make([]byte, n)
		if _, err := io.ReadFull(r.br, buf); err != nil {
			return nil, newErr(KindIoFailure, "read literal body", err)
		}
		return &pcfChunk{Literal: buf}, nil
	}

	tagByte, err := r.br.ReadByte()
	if err != nil {
		return nil, newErr(KindIoFailure, "read record tag", err)
	}
	tag := SupportedFormat(tagByte)
	perfect, compLevel, bmpHint, recursionUsed := decodeFlags(ctrl, tag)

	rec := &record{
		Format:        tag,
		Perfect:       perfect,
		CompLevel:     compLevel,
		BMPHint:       bmpHint,
		RecursionUsed: recursionUsed,
		Flavor:        deflateFlavorForFormat(tag),
	}

	deflateFamily := isDeflateFamily(tag)
	if deflateFamily && perfect {
		params, err := r.br.ReadByte()
		if err != nil {
			return nil, newErr(KindIoFailure, "read record params byte", err)
		}
		rec.WindowBits = int(params>>4) + 8
		rec.MemLevel = int(params & 0x0F)
	}

	meta, err := r.readVarBlock()
	if err != nil {
		return nil, err
	}
	rec.FormatMeta = meta

	penCount, err := readVarintFrom(r.br)
	if err != nil {
		return nil, err
	}
	if penCount > 0 {
		pl, err := decodePenaltiesFromReader(func(b []byte) error {
			_, err := io.ReadFull(r.br, b)
			return err
		}, penCount)
		if err != nil {
			return nil, newErr(KindIoFailure, "read penalty block", err)
		}
		rec.Penalties = pl
	}

	bodyOriginalLength, err := readVarintFrom(r.br)
	if err != nil {
		return nil, err
	}
	precompressedSize, err := readVarintFrom(r.br)
	if err != nil {
		return nil, err
	}
	rec.OriginalLength = int64(bodyOriginalLength) + int64(len(meta))

	if deflateFamily && !perfect {
		recon, err := r.readVarBlock()
		if err != nil {
			return nil, err
		}
		rec.ReconData = recon
	}

	payload := make([]byte, precompressedSize)
	if _, err := io.ReadFull(r.br, payload); err != nil {
		return nil, newErr(KindIoFailure, "read record payload", err)
	}

	if recursionUsed {
		recLen, err := readVarintFrom(r.br)
		if err != nil {
			return nil, err
		}
		if recLen != uint64(len(payload)) {
			return nil, newErr(KindRecompressionFailure, "recursion length mismatch", nil)
		}
	}

	return &pcfChunk{Record: rec, Payload: payload}, nil
}

// readVarBlock reads a vli(len)-prefixed byte block, returning nil for a
// zero-length block.
func (r *pcfReader) readVarBlock() ([]byte, error) {
	n, err := readVarintFrom(r.br)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r.br, buf); err != nil {
		return nil, newErr(KindIoFailure, "read var block body", err)
	}
	return buf, nil
}

// close returns the pooled bufio.Reader.
func (r *pcfReader) close() {
	r.br.Reset(nil)
	pcfBufferedReaderPool.Put(r.br)
}

// readVarintFrom decodes a varint from br one byte at a time, since the
// container's varints have no fixed maximum width known in advance.
func readVarintFrom(br *bufio.Reader) (uint64, error) {
	var buf []byte
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, newErr(KindIoFailure, "read varint", err)
		}
		buf = append(buf, b)
		if b < 128 {
			break
		}
	}
	v, n := getVarint(buf)
	if n == 0 {
		return 0, ErrInvalidVarInt
	}
	return v, nil
}

// streamReaderAdapter adapts a Stream to a plain io.Reader for bufio,
// which only needs the Read half.
type streamReaderAdapter struct {
	s Stream
}

func (a *streamReaderAdapter) Read(p []byte) (int, error) {
	if a.s == nil {
		return 0, io.EOF
	}
	return a.s.Read(p)
}
