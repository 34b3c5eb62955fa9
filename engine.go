// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/precomp

package precomp

import (
	"context"
	"errors"
	"io"

	"github.com/hashicorp/go-multierror"
)

// ReturnCode mirrors the C-callable surface's integer status codes from
// spec section 6, for embedders that need a stable numeric result
// rather than a Go error value.
type ReturnCode int

// Return codes.
const (
	Success ReturnCode = iota
	NothingDecompressed
	NoPCFHeader
	PCFHeaderIncompatibleVersion
	DuringRecompression
	GenericOrUnknown
)

// Precomp is the top-level object: create with New, attach input/output
// streams, then call Precompress or ReadHeader followed by Recompress.
type Precomp struct {
	cfg      Config
	registry *handlerRegistry
	oracle   DeflateOracle
	tmpFact  TempFileFactory
	recur    *recursionEngine

	in     Stream
	inName string
	out    Stream

	header *pcfHeader
	stats  Stats
	closed bool

	// headerPos is the input offset ReadHeader parsed the header from.
	headerPos int64
}

// New freezes cfg (filling in defaults), returning a ready-to-configure-streams Precomp.
func New(cfg Config) (*Precomp, error) {
	frozen := cfg.Freeze()
	p := &Precomp{
		cfg:      frozen,
		registry: newHandlerRegistry(),
		oracle:   newDefaultDeflateOracle(),
		tmpFact:  defaultTempFileFactory(),
	}
	p.recur = newRecursionEngine(&p.cfg, p.registry, p.oracle, p.tmpFact)
	return p, nil
}

// SetInput attaches the source stream. name is recorded in the PCF
// header for diagnostics; it carries no path semantics.
func (p *Precomp) SetInput(s Stream, name string) {
	p.in = s
	p.inName = name
}

// SetOutput attaches the destination stream. name is accepted for
// symmetry with SetInput but is not currently recorded anywhere.
func (p *Precomp) SetOutput(s Stream, name string) {
	p.out = s
}

// Precompress scans the input stream end to end, writing a PCF
// container to the output stream. ctx is checked between scan steps;
// a cancelled context aborts the scan and returns ctx.Err().
func (p *Precomp) Precompress(ctx context.Context) (ReturnCode, error) {
	if p.closed {
		return GenericOrUnknown, ErrClosed
	}
	if p.in == nil || p.out == nil {
		return GenericOrUnknown, ErrNilStream
	}
	if err := ctx.Err(); err != nil {
		return GenericOrUnknown, err
	}

	inputLength, err := streamLength(p.in)
	if err != nil {
		return GenericOrUnknown, err
	}

	observed := newObservableStream(p.out)
	observed.onWrite(func(chunk []byte) {
		positionProgress(p.cfg.Progress, observed.BytesWritten(), inputLength)
	})

	w := newPCFWriter(observed, p.inName)
	if err := w.writeHeader(); err != nil {
		return GenericOrUnknown, err
	}

	sc := newScanContext(&p.cfg, p.registry, p.oracle, p.tmpFact, 0, p.recur.precompressPayload)
	if err := sc.run(ctx, p.in, w, inputLength); err != nil {
		var mErr *multierror.Error
		mErr = multierror.Append(mErr, err)
		return classifyReturnCode(err), mErr.ErrorOrNil()
	}
	if err := w.close(); err != nil {
		return GenericOrUnknown, err
	}

	p.stats.merge(sc.stats)
	if sc.stats.DecompressedStreamsCount == 0 {
		return NothingDecompressed, nil
	}
	return Success, nil
}

// ReadHeader parses the PCF header from the input stream, optionally
// seeking to the beginning first, and records it for OutputFilename and
// for a following Recompress, which re-reads the container from the same
// input position.
func (p *Precomp) ReadHeader(seekToBeginning bool) (ReturnCode, error) {
	if p.in == nil {
		return GenericOrUnknown, ErrNilStream
	}
	if seekToBeginning {
		if _, err := p.in.Seek(0, 0); err != nil {
			return GenericOrUnknown, newErr(KindIoFailure, "seek input to start", err)
		}
	}
	headerPos := p.in.Tell()
	reader, err := newPCFReader(p.in)
	if err != nil {
		var perr *Error
		if errors.As(err, &perr) {
			switch perr.Kind {
			case KindHeaderMissing:
				return NoPCFHeader, err
			case KindHeaderVersionMismatch:
				return PCFHeaderIncompatibleVersion, err
			}
		}
		return GenericOrUnknown, err
	}
	p.header = reader.Header()
	p.headerPos = headerPos
	reader.close()
	return Success, nil
}

// Recompress reverses a PCF container from the input stream, writing
// the original bytes to the output stream. ReadHeader must have
// succeeded first. ctx is checked between chunks; a cancelled context
// aborts recompression and returns ctx.Err().
func (p *Precomp) Recompress(ctx context.Context) (ReturnCode, error) {
	if p.closed {
		return GenericOrUnknown, ErrClosed
	}
	if p.header == nil {
		return GenericOrUnknown, ErrHeaderMissing
	}
	if p.in == nil || p.out == nil {
		return GenericOrUnknown, ErrNilStream
	}
	if err := ctx.Err(); err != nil {
		return GenericOrUnknown, err
	}

	// ReadHeader's reader buffered input past the header, so the
	// container is re-read from where ReadHeader started.
	if _, err := p.in.Seek(p.headerPos, 0); err != nil {
		return GenericOrUnknown, newErr(KindIoFailure, "seek input to pcf header", err)
	}
	reader, err := newPCFReader(p.in)
	if err != nil {
		return NoPCFHeader, err
	}
	defer reader.close()

	observed := newObservableStream(p.out)
	// The container carries no declared total length (spec section 6's
	// header has none), so recompress progress is indeterminate;
	// positionProgress no-ops on a non-positive total.
	observed.onWrite(func(chunk []byte) {
		positionProgress(p.cfg.Progress, observed.BytesWritten(), 0)
	})

	hc := &handlerContext{cfg: &p.cfg, oracle: p.oracle, filter: newFalsePositiveFilter(), tmpFact: p.tmpFact, depth: 0}
	for {
		if err := ctx.Err(); err != nil {
			return DuringRecompression, err
		}
		chunk, err := reader.next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return DuringRecompression, err
		}
		if chunk.Literal != nil {
			if _, err := observed.Write(chunk.Literal); err != nil {
				return DuringRecompression, err
			}
			continue
		}
		h, ok := p.registry.forTag(chunk.Record.Format)
		if !ok {
			return DuringRecompression, ErrUnsupportedStreamType
		}
		payload := chunk.Payload
		if chunk.Record.RecursionUsed {
			nested, err := io.ReadAll(p.recur.recompressPipelined(chunk.Payload, 1))
			if err != nil {
				return DuringRecompression, err
			}
			payload = nested
		}
		if err := h.recompress(hc, chunk.Record, payload, observed); err != nil {
			return DuringRecompression, err
		}
		if isPDFFormat(chunk.Record.Format) {
			p.stats.recordRecompressedPDF(pdfBPPFromHint(chunk.Record.BMPHint))
		} else {
			p.stats.recordRecompressed(chunk.Record.Format)
		}
	}
	return Success, nil
}

// OutputFilename returns the input filename recorded in the PCF
// header, or "" if no header has been read.
func (p *Precomp) OutputFilename() string {
	if p.header == nil {
		return ""
	}
	return p.header.Filename
}

// Stats returns the accumulated statistics for every Precompress/Recompress
// call made on this object so far.
func (p *Precomp) Stats() Stats { return p.stats }

// Close marks p closed, after which Precompress and Recompress return
// ErrClosed. It releases nothing else; the attached input/output
// streams are owned by the caller and are not closed here.
func (p *Precomp) Close() error {
	p.closed = true
	return nil
}

// streamLength probes a Stream's total length via seek-to-end, then
// restores the original position.
func streamLength(s Stream) (int64, error) {
	cur := s.Tell()
	end, err := s.Seek(0, 2)
	if err != nil {
		return 0, newErr(KindIoFailure, "seek to end for length probe", err)
	}
	if _, err := s.Seek(cur, 0); err != nil {
		return 0, newErr(KindIoFailure, "restore position after length probe", err)
	}
	return end, nil
}

// classifyReturnCode maps a typed Error to its ReturnCode.
func classifyReturnCode(err error) ReturnCode {
	var perr *Error
	if errors.As(err, &perr) {
		switch perr.Kind {
		case KindHeaderMissing:
			return NoPCFHeader
		case KindHeaderVersionMismatch:
			return PCFHeaderIncompatibleVersion
		case KindRecompressionFailure:
			return DuringRecompression
		}
	}
	return GenericOrUnknown
}
