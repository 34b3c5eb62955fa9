// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/precomp

package precomp

import (
	"context"
	"io"
)

// recursionEngine drives nested precompression/recompression, bounded
// by Config.MaxRecursionDepth. Grounded on spec section 4.8's two
// modes: materialized recursion during precompress (a fresh scan over an
// in-memory copy of the payload) and pipelined recursion during recompress (a
// passthroughStream feeding the inverse scanner's output to the outer
// handler as it's produced).
type recursionEngine struct {
	cfg      *Config
	registry *handlerRegistry
	oracle   DeflateOracle
	tmpFact  TempFileFactory

	maxDepthUsed    int
	maxDepthReached bool
}

func newRecursionEngine(cfg *Config, registry *handlerRegistry, oracle DeflateOracle, tmpFact TempFileFactory) *recursionEngine {
	if tmpFact == nil {
		tmpFact = defaultTempFileFactory()
	}
	return &recursionEngine{cfg: cfg, registry: registry, oracle: oracle, tmpFact: tmpFact}
}

// precompressPayload runs the scanner over payload at depth+1 and
// returns the resulting PCF-encoded bytes plus whether recursion was
// actually applied (false when depth is already at the limit or the
// payload is too small to plausibly help).
func (re *recursionEngine) precompressPayload(ctx context.Context, payload []byte, depth int) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	if depth >= re.cfg.MaxRecursionDepth {
		re.maxDepthReached = true
		return nil, false, nil
	}
	if len(payload) < CheckbufSize {
		return nil, false, nil
	}
	if depth+1 > re.maxDepthUsed {
		re.maxDepthUsed = depth + 1
	}

	in := newMemoryStreamFromBytes(payload)
	out := newGrowableMemoryStream()
	sc := newScanContext(re.cfg, re.registry, re.oracle, re.tmpFact, depth+1, re.precompressPayload)
	w := newPCFWriter(out, "")
	if err := w.writeHeader(); err != nil {
		return nil, false, err
	}
	if err := sc.run(ctx, in, w, int64(len(payload))); err != nil {
		return nil, false, err
	}
	if err := w.close(); err != nil {
		return nil, false, err
	}
	if sc.maxDepthReached {
		re.maxDepthReached = true
	}
	return out.Bytes(), true, nil
}

// recompressPipelined reverses a recursively precompressed payload by
// running the inverse scanner in a goroutine that writes its output
// into a passthroughStream, returning the read side as an io.Reader the
// outer handler can consume incrementally instead of waiting for the
// whole nested payload to materialize.
func (re *recursionEngine) recompressPipelined(pcfPayload []byte, depth int) io.Reader {
	ps := newPassthroughStream(func(w io.Writer) error {
		return re.recompressInto(pcfPayload, depth, w)
	})
	return ps
}

// recompressInto replays a PCF-encoded payload's chunks, regenerating
// the original bytes into w. Used both as the pipelined recursion
// producer and directly when the caller already has the whole payload
// in hand and doesn't need incremental delivery.
func (re *recursionEngine) recompressInto(pcfPayload []byte, depth int, w io.Writer) error {
	in := newMemoryStreamFromBytes(pcfPayload)
	reader, err := newPCFReader(in)
	if err != nil {
		return err
	}
	defer reader.close()

	hc := &handlerContext{cfg: re.cfg, oracle: re.oracle, filter: newFalsePositiveFilter(), tmpFact: re.tmpFact, depth: depth}
	outStream := newObservableStream(&writerStream{w: w})
	for {
		chunk, err := reader.next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		if chunk.Literal != nil {
			if _, err := outStream.Write(chunk.Literal); err != nil {
				return newErr(KindIoFailure, "write recompressed literal", err)
			}
			continue
		}
		h, ok := re.registry.forTag(chunk.Record.Format)
		if !ok {
			return ErrUnsupportedStreamType
		}
		payload := chunk.Payload
		if chunk.Record.RecursionUsed {
			nested, err := io.ReadAll(re.recompressPipelined(chunk.Payload, depth+1))
			if err != nil {
				return err
			}
			payload = nested
		}
		if err := h.recompress(hc, chunk.Record, payload, outStream); err != nil {
			return err
		}
	}
	return nil
}

// writerStream adapts a plain io.Writer to the Stream interface's
// write-only subset, used when the recompress path only ever writes
// forward and never seeks.
type writerStream struct {
	w    io.Writer
	pos  int64
	err  error
	seen bool
}

func (w *writerStream) Read([]byte) (int, error)          { return 0, io.EOF }
func (w *writerStream) Seek(int64, int) (int64, error)    { return 0, ErrSeekUnsupported }
func (w *writerStream) Tell() int64                       { return w.pos }
func (w *writerStream) EOF() bool                         { return w.seen }
func (w *writerStream) Err() error                        { return w.err }
func (w *writerStream) Write(p []byte) (int, error) {
	n, err := w.w.Write(p)
	w.pos += int64(n)
	if err != nil {
		w.err = err
	}
	return n, err
}
