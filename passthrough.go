// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/precomp

package precomp

import (
	"io"
	"sync"
)

// passthroughStream is a single-producer/single-consumer stream used to
// drive one level of recursive precompression: a producer goroutine runs
// the recursive decompress pass and writes its output into the pipe,
// while the caller reads the result as if it were a plain Stream. It is
// grounded directly on the reference implementation's
// RecursionPasstroughStream, whose condvar-guarded ring buffer this
// replaces with the idiomatic Go equivalent, io.Pipe plus a
// goroutine, since io.Pipe already provides the same blocking,
// bounded handoff semantics without hand-rolled locking.
//
// Seeking is unsupported, matching the reference implementation's
// seekg/seekp, which throw: a passthrough stream is read or written
// exactly once, front to back.
type passthroughStream struct {
	pr   *io.PipeReader
	pw   *io.PipeWriter
	done chan producerResult
	pos  int64
	err  error
	eof  bool

	waitOnce   sync.Once
	waitResult error
}

// producerResult carries a recursion producer goroutine's outcome back
// to the owner once it finishes or is cancelled.
type producerResult struct {
	err error
}

// newPassthroughStream starts produce in its own goroutine, writing
// through w to a fresh pipe, and returns the read side as a Stream.
// produce must write everything it wants readable through w and then
// return; passthroughStream closes w on produce's return, propagating
// any returned error as the pipe's close error so a subsequent Read
// surfaces it.
func newPassthroughStream(produce func(w io.Writer) error) *passthroughStream {
	pr, pw := io.Pipe()
	done := make(chan producerResult, 1)
	go func() {
		err := produce(pw)
		pw.CloseWithError(err)
		done <- producerResult{err: err}
	}()
	return &passthroughStream{pr: pr, pw: pw, done: done}
}

// Read implements Stream, blocking until the producer has data or exits.
func (p *passthroughStream) Read(buf []byte) (int, error) {
	n, err := p.pr.Read(buf)
	p.pos += int64(n)
	if err == io.EOF {
		p.eof = true
	} else if err != nil {
		p.err = err
	}
	return n, err
}

// Write always fails: a passthrough stream is read-only from the
// consumer's side, matching the reference type's write() throwing when
// called from any thread other than its own producer.
func (p *passthroughStream) Write([]byte) (int, error) {
	return 0, ErrCancelledRecursion
}

// Seek always fails, matching RecursionPasstroughStream::seekg/seekp.
func (p *passthroughStream) Seek(int64, int) (int64, error) {
	return 0, ErrSeekUnsupported
}

// Tell returns the number of bytes read so far.
func (p *passthroughStream) Tell() int64 { return p.pos }

// EOF reports whether the last Read reached the end of the producer's output.
func (p *passthroughStream) EOF() bool { return p.eof }

// Err returns the last non-EOF error observed.
func (p *passthroughStream) Err() error { return p.err }

// cancel forces both ends of the pipe closed, corresponding to
// unlock_everything: any goroutine blocked in Read or Write is released
// immediately, and the producer's next write fails so it can unwind.
// Safe to call more than once and safe to call even after the producer
// has already finished normally.
func (p *passthroughStream) cancel() {
	p.pr.CloseWithError(ErrCancelledRecursion)
	p.pw.CloseWithError(ErrCancelledRecursion)
}

// wait blocks until the producer goroutine has returned, corresponding
// to get_recursion_return_code's thread.join(), and returns its error.
func (p *passthroughStream) wait() error {
	p.waitOnce.Do(func() {
		res := <-p.done
		p.waitResult = res.err
	})
	return p.waitResult
}
