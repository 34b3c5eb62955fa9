// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/precomp

package precomp

import (
	"bytes"
	"compress/bzip2"
	"io"
)

var bzip2Magic = [3]byte{'B', 'Z', 'h'}

// bzip2Handler implements D_BZIP2. The standard library only ships a
// bzip2 decompressor, no encoder, and none of the example repos pull in
// a third-party bzip2 compression library either, so there is no oracle
// able to reproduce a bzip2 stream from its decompressed bytes. This
// handler still decompresses to extract a payload worth recursing into
// and expanding for the downstream compressor, but falls back to
// storing the original compressed bytes verbatim in FormatMeta so
// recompress always reproduces the stream bit-exact regardless of the
// missing encoder. Bzip2 isn't part of the deflate family, so it never
// touches the record's Perfect/CompLevel/ReconData fields at all.
type bzip2Handler struct{}

func newBzip2Handler() handler { return bzip2Handler{} }

func (bzip2Handler) tags() []SupportedFormat { return []SupportedFormat{DBzip2} }

func (bzip2Handler) quickCheck(hc *handlerContext, window []byte, position int64) bool {
	return len(window) >= 4 && [3]byte(window[0:3]) == bzip2Magic && window[3] == '1'
}

// countingReader tracks how many bytes have been read from an
// underlying reader, used to find where a bzip2 stream ends within a
// window. It implements ReadByte in addition to Read so bzip2.NewReader
// (which wraps any reader lacking ReadByte in its own buffered reader)
// pulls bytes one at a time instead of prefetching a whole buffer past
// the true end of the compressed stream.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

func (c *countingReader) ReadByte() (byte, error) {
	var b [1]byte
	n, err := c.r.Read(b[:])
	c.n += int64(n)
	if n == 0 && err == nil {
		err = io.ErrNoProgress
	}
	return b[0], err
}

func (h bzip2Handler) attemptPrecompression(hc *handlerContext, window []byte, absPos int64) (*attemptResult, error) {
	cr := &countingReader{r: bytes.NewReader(window)}
	r := bzip2.NewReader(cr)
	payload, err := io.ReadAll(r)
	if err != nil || len(payload) == 0 {
		return nil, nil
	}
	consumed := cr.n
	if consumed <= 0 || consumed > int64(len(window)) {
		return nil, nil
	}
	original := append([]byte(nil), window[:consumed]...)
	rec := &record{
		Format:         DBzip2,
		OriginalOffset: absPos,
		OriginalLength: consumed,
		FormatMeta:     original,
	}
	return &attemptResult{Record: rec, Payload: payload, ConsumedLength: consumed}, nil
}

func (bzip2Handler) recompress(hc *handlerContext, rec *record, payload []byte, out Stream) error {
	if _, err := out.Write(rec.FormatMeta); err != nil {
		return newErr(KindIoFailure, "write stored bzip2 stream", err)
	}
	return nil
}
