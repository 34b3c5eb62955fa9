// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/precomp

package precomp

import "io"

// Stream is the capability set spec section 4.1 requires of every I/O
// participant: read, write, seek, tell, EOF, and error flags. Every
// concrete stream in this package (file-backed, memory-backed, view,
// observable) implements it.
type Stream interface {
	io.Reader
	io.Writer
	io.Seeker
	// Tell returns the current absolute offset.
	Tell() int64
	// EOF reports whether the last Read reached end of stream.
	EOF() bool
	// Err returns the last non-EOF error observed, if any.
	Err() error
}

// viewStream restricts a parent Stream to [base, base+limit), reporting
// EOF at the boundary without affecting the parent's own EOF/error state.
// Grounded on spec section 4.1's "stream view" variant and on the
// teacher's io.SectionReader use in entry_reader.go's openEntryByInfo.
type viewStream struct {
	parent   Stream
	base     int64
	limit    int64
	pos      int64 // relative to base
	atEOF    bool
	lastErr  error
}

// newViewStream returns a view over parent restricted to [base, base+limit).
func newViewStream(parent Stream, base, limit int64) *viewStream {
	return &viewStream{parent: parent, base: base, limit: limit}
}

// Read implements Stream, refusing to read past the view boundary.
func (v *viewStream) Read(p []byte) (int, error) {
	if v.pos >= v.limit {
		v.atEOF = true
		return 0, io.EOF
	}
	remaining := v.limit - v.pos
	if int64(len(p)) > remaining {
		p = p[:remaining]
	}
	if _, err := v.parent.Seek(v.base+v.pos, io.SeekStart); err != nil {
		v.lastErr = err
		return 0, err
	}
	n, err := v.parent.Read(p)
	v.pos += int64(n)
	if err == io.EOF {
		v.atEOF = true
	} else if err != nil {
		v.lastErr = err
	}
	return n, err
}

// Write implements Stream, refusing to write past the view boundary.
func (v *viewStream) Write(p []byte) (int, error) {
	remaining := v.limit - v.pos
	if remaining <= 0 {
		return 0, io.ErrShortWrite
	}
	if int64(len(p)) > remaining {
		p = p[:remaining]
	}
	if _, err := v.parent.Seek(v.base+v.pos, io.SeekStart); err != nil {
		v.lastErr = err
		return 0, err
	}
	n, err := v.parent.Write(p)
	v.pos += int64(n)
	if err != nil {
		v.lastErr = err
	}
	return n, err
}

// Seek implements Stream within the view's boundary.
func (v *viewStream) Seek(offset int64, whence int) (int64, error) {
	var target int64
	switch whence {
	case io.SeekStart:
		target = offset
	case io.SeekCurrent:
		target = v.pos + offset
	case io.SeekEnd:
		target = v.limit + offset
	default:
		return 0, ErrSeekUnsupported
	}
	if target < 0 {
		return 0, ErrSeekUnsupported
	}
	v.pos = target
	v.atEOF = v.pos >= v.limit
	return v.pos, nil
}

// Tell returns the current position relative to the view's base.
func (v *viewStream) Tell() int64 { return v.pos }

// EOF reports whether the view has reached its boundary.
func (v *viewStream) EOF() bool { return v.atEOF }

// Err returns the last error observed on this view.
func (v *viewStream) Err() error { return v.lastErr }

// writeObserver is called with every byte slice written through an
// observableStream, driving progress reporting from produced bytes.
type writeObserver func(p []byte)

// observableStream wraps a Stream and invokes registered callbacks on
// every write, used to drive progress reporting from the output side
// per spec section 4.9 ("reported via the output sink's write observer").
type observableStream struct {
	Stream
	observers []writeObserver
	written   int64
}

// newObservableStream wraps s with an empty observer list.
func newObservableStream(s Stream) *observableStream {
	return &observableStream{Stream: s}
}

// onWrite registers a callback invoked after every successful Write.
func (o *observableStream) onWrite(cb writeObserver) {
	o.observers = append(o.observers, cb)
}

// Write implements Stream, notifying observers after delegating to the wrapped stream.
func (o *observableStream) Write(p []byte) (int, error) {
	n, err := o.Stream.Write(p)
	if n > 0 {
		o.written += int64(n)
		for _, cb := range o.observers {
			cb(p[:n])
		}
	}
	return n, err
}

// BytesWritten returns the total byte count observed so far.
func (o *observableStream) BytesWritten() int64 { return o.written }
