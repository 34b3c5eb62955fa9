// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/precomp

package precomp

import "context"

// handlerContext carries everything a handler needs to attempt or
// reverse one precompression: the shared deflate oracle, tunables, and
// the recursion depth of the record currently being processed.
type handlerContext struct {
	cfg     *Config
	oracle  DeflateOracle
	filter  *falsePositiveFilter
	tmpFact TempFileFactory
	inputID uintptr
	depth   int
	recurse func(ctx context.Context, payload []byte, depth int) ([]byte, bool, error)
	// historyBefore returns the most recently scanned original input
	// bytes ending at the current scan position, capped at
	// pdfDictLookbackSize. Only the PDF handler needs it, to search
	// backward for the dictionary enclosing a /FlateDecode stream.
	historyBefore func() []byte
}

// attemptResult is what a handler returns on successfully claiming a
// scan position: the record to emit and how many original input bytes
// it consumed.
type attemptResult struct {
	Record         *record
	Payload        []byte
	ConsumedLength int64
}

// handler is the four-operation capability set spec section 4.5
// requires of every format binding. Detection is split into a cheap
// quickCheck and a heavier attemptPrecompression so the scanner can
// reject most positions without doing real work.
type handler interface {
	// tags lists the SupportedFormat values this handler claims.
	tags() []SupportedFormat
	// quickCheck is a cheap signature test against the head of window.
	// position is the absolute offset window starts at, needed by
	// handlers whose gate is itself stateful across consecutive offsets.
	quickCheck(hc *handlerContext, window []byte, position int64) bool
	// attemptPrecompression tries to claim the input at the scanner's
	// current position, given the lookahead window starting there.
	attemptPrecompression(hc *handlerContext, window []byte, absPos int64) (*attemptResult, error)
	// recompress regenerates the original span from a decoded record,
	// writing exactly rec.OriginalLength bytes to out.
	recompress(hc *handlerContext, rec *record, payload []byte, out Stream) error
}

// handlerRegistry maps SupportedFormat tags to their handler and
// preserves the fixed dispatch order spec section 4.6 requires.
type handlerRegistry struct {
	order []handler
	byTag map[SupportedFormat]handler
}

// newHandlerRegistry builds the registry with every built-in handler
// registered in the fixed dispatch order: pdf, zip, gzip, png, gif, jpg,
// mp3, swf, base64, bzip2, raw, brute.
func newHandlerRegistry() *handlerRegistry {
	r := &handlerRegistry{byTag: make(map[SupportedFormat]handler)}
	for _, h := range []handler{
		newPDFHandler(),
		newZIPHandler(),
		newGZipHandler(),
		newPNGHandler(),
		newGIFHandler(),
		newJPEGHandler(),
		newMP3Handler(),
		newSWFHandler(),
		newBase64Handler(),
		newBzip2Handler(),
		newRawZlibHandler(),
		newBruteHandler(),
	} {
		r.order = append(r.order, h)
		for _, tag := range h.tags() {
			r.byTag[tag] = h
		}
	}
	return r
}

// forTag looks up the handler registered for tag, or (nil, false) if none.
func (r *handlerRegistry) forTag(tag SupportedFormat) (handler, bool) {
	h, ok := r.byTag[tag]
	return h, ok
}
