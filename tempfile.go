// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/precomp

package precomp

import "os"

// TempFileFactory creates and cleans up scratch files: Config.DebugMode's
// diagnostic dumps and uncompressedSink's spill file.
// Callers embedding this package in a sandboxed environment can supply
// their own to control where scratch data lands.
type TempFileFactory interface {
	Create(pattern string) (*os.File, error)
	Remove(f *os.File) error
}

// osTempFileFactory is the default TempFileFactory, using os.CreateTemp
// under the system temp directory.
type osTempFileFactory struct {
	dir string
}

// defaultTempFileFactory returns a TempFileFactory rooted at os.TempDir.
func defaultTempFileFactory() TempFileFactory {
	return &osTempFileFactory{dir: os.TempDir()}
}

// Create opens a new temp file matching pattern.
func (f *osTempFileFactory) Create(pattern string) (*os.File, error) {
	tf, err := os.CreateTemp(f.dir, pattern)
	if err != nil {
		return nil, newErr(KindIoFailure, "create temp file", err)
	}
	return tf, nil
}

// Remove closes and deletes f.
func (f *osTempFileFactory) Remove(tf *os.File) error {
	name := tf.Name()
	closeErr := tf.Close()
	removeErr := os.Remove(name)
	if closeErr != nil {
		return closeErr
	}
	return removeErr
}
