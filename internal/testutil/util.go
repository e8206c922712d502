// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

// Package testutil is a collection of testing helpers: hand-scripted bit
// streams, a stable random source, generated corpora, and faulty I/O.
package testutil

import (
	"encoding/hex"
	"io"
	"io/ioutil"

	"github.com/pkg/errors"
)

// ResizeData returns exactly n bytes derived from input, or input itself
// if n < 0. Shorter inputs are truncated. Longer outputs repeat the input,
// XORing each further copy with an incrementing mask so that a large LZ77
// window does not turn the repetition into a single long match.
//
// If n > len(input), then len(input) must be > 0.
func ResizeData(input []byte, n int) []byte {
	switch {
	case n < 0:
		return input
	case n <= len(input):
		return input[:n]
	case len(input) == 0:
		panic("testutil: unable to replicate an empty input")
	}

	output := make([]byte, 0, n)
	for mask := byte(0); len(output) < n; mask++ {
		chunk := input
		if m := n - len(output); len(chunk) > m {
			chunk = chunk[:m]
		}
		for _, c := range chunk {
			output = append(output, c^mask)
		}
	}
	return output
}

// LoadFile loads the first n bytes of the input file. If n is positive and
// the file is shorter, its contents are resized with ResizeData.
func LoadFile(file string, n int) ([]byte, error) {
	b, err := ioutil.ReadFile(file)
	if err != nil {
		return nil, errors.Wrap(err, "testutil: load file")
	}
	if n <= 0 {
		return b, nil
	}
	if len(b) == 0 {
		return nil, errors.Errorf("testutil: empty file %s", file)
	}
	return ResizeData(b, n), nil
}

// MustDecodeHex must decode a hexadecimal string or else panics.
func MustDecodeHex(s string) []byte {
	b, err := hex.DecodeString(s)
	if err != nil {
		panic(err)
	}
	return b
}

// MustDecodeBitGen must decode a BitGen formatted string or else panics.
func MustDecodeBitGen(s string) []byte {
	b, err := DecodeBitGen(s)
	if err != nil {
		panic(err)
	}
	return b
}

// budget limits I/O to N bytes and then reports Err.
type budget struct {
	N   int64
	Err error
}

func (b *budget) clip(buf []byte) []byte {
	if b.N <= 0 {
		return buf[:0]
	}
	if int64(len(buf)) > b.N {
		return buf[:b.N]
	}
	return buf
}

func (b *budget) spend(n int, err error) (int, error) {
	b.N -= int64(n)
	if err == nil && b.N <= 0 {
		return n, b.Err
	}
	return n, err
}

// BuggyReader returns Err after N bytes have been read from R.
type BuggyReader struct {
	R   io.Reader
	N   int64 // Number of valid bytes to read
	Err error // Return this error after N bytes
}

func (br *BuggyReader) Read(buf []byte) (int, error) {
	b := budget{br.N, br.Err}
	n, err := b.spend(br.R.Read(b.clip(buf)))
	br.N = b.N
	return n, err
}

// BuggyWriter returns Err after N bytes have been written to W.
type BuggyWriter struct {
	W   io.Writer
	N   int64 // Number of valid bytes to write
	Err error // Return this error after N bytes
}

func (bw *BuggyWriter) Write(buf []byte) (int, error) {
	b := budget{bw.N, bw.Err}
	n, err := b.spend(bw.W.Write(b.clip(buf)))
	bw.N = b.N
	return n, err
}
