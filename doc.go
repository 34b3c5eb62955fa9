// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/precomp

/*
Package precomp implements a lossless precompressor: it scans an
arbitrary byte stream, finds embedded deflate-family substreams (raw
zlib, gzip, PDF /FlateDecode, ZIP local files, PNG IDAT, SWF, GIF/LZW,
base64-wrapped containers) and replaces each one with its uncompressed
payload plus a small reconstruction record. The expanded stream
compresses far better under a downstream general-purpose compressor;
recompression reverses the process bit-exactly.

# Precompressing

	p, err := precomp.New(precomp.DefaultConfig())
	if err != nil {
	    return err
	}
	defer p.Close()

	in, err := precomp.OpenFile("input.bin")
	if err != nil {
	    return err
	}
	defer in.Close()
	out, err := precomp.CreateFile("input.bin.pcf")
	if err != nil {
	    return err
	}
	defer out.Close()

	p.SetInput(in, "input.bin")
	p.SetOutput(out, "input.bin")
	code, err := p.Precompress(context.Background())
	if err != nil {
	    return err
	}
	_ = code

# Recompressing

	p, err := precomp.New(precomp.DefaultConfig())
	if err != nil {
	    return err
	}
	defer p.Close()

	in, _ := precomp.OpenFile("input.bin.pcf")
	defer in.Close()
	p.SetInput(in, "input.bin.pcf")
	if code, err := p.ReadHeader(true); err != nil {
	    return err
	} else if code != precomp.Success {
	    return fmt.Errorf("bad PCF header: %v", code)
	}

	out, _ := precomp.CreateFile(p.OutputFilename())
	defer out.Close()
	p.SetOutput(out, p.OutputFilename())
	if _, err := p.Recompress(context.Background()); err != nil {
	    return err
	}

# Configuration

Config toggles per-format handlers, brute/intense modes and their depth
limits, the PDF BMP-wrapping hint, and deflate verification (it also
carries a minimum identical run size that no handler reads):

	cfg := precomp.DefaultConfig()
	cfg.BruteMode = true
	cfg.BruteModeDepthLimit = 2
	cfg.PreflateVerify = true
	p, err := precomp.New(cfg)

Statistics accumulate per format across a run and are available via
p.Stats() after Precompress/Recompress returns.
*/
package precomp
