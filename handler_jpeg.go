// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/precomp

package precomp

// JPEGOracle is the external codec collaborator spec section 1 leaves
// contract-only: a JPEG-specific compressor (brunsli, packJPG, or an
// MJPEG-aware Huffman rewrite) able to losslessly transform a JPEG
// scan into a more compressible representation and back. No such
// binding ships in this package, and Config has no field to supply one.
type JPEGOracle interface {
	Encode(jpeg []byte, opts JPEGOptions) (transformed []byte, ok bool, err error)
	Decode(transformed []byte, opts JPEGOptions) (jpeg []byte, err error)
}

// JPEGOptions mirrors the tunables spec section 6 lists for the JPEG
// path: progressive-only restriction, MJPEG Huffman table insertion,
// and the brunsli/packJPG preference order.
type JPEGOptions struct {
	ProgressiveOnly    bool
	UseMJPEG           bool
	UseBrunsli         bool
	UsePackJPGFallback bool
}

var jpegMagic = [2]byte{0xFF, 0xD8}

// jpegHandler implements D_JPG. No JPEGOracle is wired, so quickCheck
// always fails and JPEG content simply passes through as
// literal bytes; this keeps the handler's tag, dispatch slot, and
// header framing in place per spec section 4.5 without fabricating a
// codec this package doesn't have.
type jpegHandler struct{}

func newJPEGHandler() handler { return jpegHandler{} }

func (jpegHandler) tags() []SupportedFormat { return []SupportedFormat{DJPG} }

func (jpegHandler) quickCheck(hc *handlerContext, window []byte, position int64) bool {
	if len(window) < 2 || [2]byte(window[0:2]) != jpegMagic {
		return false
	}
	return false // no JPEGOracle wired; see doc comment above
}

func (jpegHandler) attemptPrecompression(hc *handlerContext, window []byte, absPos int64) (*attemptResult, error) {
	return nil, nil
}

func (jpegHandler) recompress(hc *handlerContext, rec *record, payload []byte, out Stream) error {
	return ErrUnsupportedStreamType
}
