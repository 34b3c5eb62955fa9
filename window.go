// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/precomp

package precomp

import "io"

// slidingWindow is the scanner's lookahead buffer: it keeps at least
// CheckbufSize bytes available ahead of the current scan position,
// refilling from the input stream as the scan advances, per spec
// section 4.3's requirement that every handler's signature check can
// look ahead without the scanner re-reading the input stream itself.
type slidingWindow struct {
	in       Stream
	buf      []byte
	start    int64 // absolute stream offset of buf[0]
	fillLen  int   // valid bytes in buf
	pos      int   // scan cursor into buf
	inputEOF bool
}

// newSlidingWindow returns a window reading from in with the given
// backing capacity, which must be at least CheckbufSize.
func newSlidingWindow(in Stream, capacity int) *slidingWindow {
	if capacity < CheckbufSize {
		capacity = CheckbufSize
	}
	return &slidingWindow{in: in, buf: make([]byte, capacity)}
}

// fill tops up the buffer, sliding unconsumed bytes to the front first.
func (w *slidingWindow) fill() error {
	if w.pos > 0 {
		remaining := copy(w.buf, w.buf[w.pos:w.fillLen])
		w.start += int64(w.pos)
		w.fillLen = remaining
		w.pos = 0
	}
	for !w.inputEOF && w.fillLen < len(w.buf) {
		n, err := w.in.Read(w.buf[w.fillLen:])
		w.fillLen += n
		if err == io.EOF {
			w.inputEOF = true
		} else if err != nil {
			return err
		}
		if n == 0 {
			break
		}
	}
	return nil
}

// lookahead returns every buffered byte from the current scan position
// to the end of the filled buffer, refilling the buffer first when fewer
// than CheckbufSize bytes remain.
func (w *slidingWindow) lookahead() ([]byte, error) {
	if w.fillLen-w.pos < CheckbufSize && !w.inputEOF {
		if err := w.fill(); err != nil {
			return nil, err
		}
	}
	return w.buf[w.pos:w.fillLen], nil
}

// advance moves the scan cursor forward by n bytes, refilling as needed.
func (w *slidingWindow) advance(n int) error {
	w.pos += n
	if w.pos > len(w.buf)/2 {
		return w.fill()
	}
	return nil
}

// offset returns the absolute input-stream offset of the current scan position.
func (w *slidingWindow) offset() int64 {
	return w.start + int64(w.pos)
}

// exhausted reports whether the window has consumed the entire input.
func (w *slidingWindow) exhausted() bool {
	return w.inputEOF && w.pos >= w.fillLen
}
