// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/precomp

package precomp

// MP3Oracle is the external codec collaborator for D_MP3 (packMP3 in
// the reference implementation): a format-aware MP3 recompressor able
// to losslessly rearrange frame data for better downstream
// compression. Not bundled here; see the JPEGOracle doc comment for
// the same reasoning.
type MP3Oracle interface {
	Encode(mp3 []byte) (transformed []byte, ok bool, err error)
	Decode(transformed []byte) (mp3 []byte, err error)
}

var mp3FrameSyncMask = byte(0xE0)

// mp3Handler implements D_MP3. No MP3Oracle is wired, so quickCheck
// always fails.
type mp3Handler struct{}

func newMP3Handler() handler { return mp3Handler{} }

func (mp3Handler) tags() []SupportedFormat { return []SupportedFormat{DMP3} }

func (mp3Handler) quickCheck(hc *handlerContext, window []byte, position int64) bool {
	if len(window) < 2 || window[0] != 0xFF || window[1]&mp3FrameSyncMask != mp3FrameSyncMask {
		return false
	}
	return false // no MP3Oracle wired; see doc comment above
}

func (mp3Handler) attemptPrecompression(hc *handlerContext, window []byte, absPos int64) (*attemptResult, error) {
	return nil, nil
}

func (mp3Handler) recompress(hc *handlerContext, rec *record, payload []byte, out Stream) error {
	return ErrUnsupportedStreamType
}
