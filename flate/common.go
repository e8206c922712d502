// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

// Package flate implements the DEFLATE compressed data format,
// described in RFC 1951, and the zlib framing around it, described in RFC 1950.
//
// The Deflater and Inflater types are the core of this package. They never
// perform I/O of their own; the caller hands them input slices and receives
// output into provided slices. Running out of input or output space is a
// normal return, not an error. The Writer and Reader types adapt the core
// to the io.Writer and io.Reader interfaces.
package flate

import (
	"fmt"

	"github.com/dsnet/zflate/internal/errors"
)

const (
	maxHistSize = 1 << 15 // Size of the LZ77 window
	histMask    = maxHistSize - 1

	minMatchLen  = 3
	maxMatchLen  = 258
	minLookahead = maxMatchLen + minMatchLen + 1
	maxMatchDist = maxHistSize - minLookahead // Farthest match the compressor emits

	hashBits  = 15
	hashSize  = 1 << hashBits
	hashMask  = hashSize - 1
	hashShift = (hashBits + minMatchLen - 1) / minMatchLen

	maxStoredSize = 1<<16 - 1 // Largest payload of a stored block
	maxTokens     = 1 << 14   // Tokens buffered before a block is emitted
	tooFar        = 4096      // Length-3 matches farther than this are poor

	endBlockSym = 256
)

// Block types, RFC section 3.2.3.
const (
	blockStored = iota
	blockFixed
	blockDynamic
)

// Header values, RFC 1950 section 2.2.
const (
	zlibDeflate    = 8
	zlibPresetDict = 0x20
)

const (
	NoCompression      = 0
	BestSpeed          = 1
	BestCompression    = 9
	DefaultCompression = -1
)

// Strategy alters how the compressor searches for matches.
type Strategy int

const (
	// DefaultStrategy uses the level's matching parameters unchanged.
	DefaultStrategy Strategy = iota

	// Filtered rejects short matches, which favors literal coding for data
	// produced by a filter or predictor.
	Filtered

	// HuffmanOnly disables match searching entirely.
	HuffmanOnly
)

func (s Strategy) String() string {
	switch s {
	case DefaultStrategy:
		return "default"
	case Filtered:
		return "filtered"
	case HuffmanOnly:
		return "huffman"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

func errorf(c int, f string, a ...interface{}) error {
	return errors.Error{Code: c, Pkg: "flate", Msg: fmt.Sprintf(f, a...)}
}

var (
	// ErrCorrupt reports malformed compressed data.
	ErrCorrupt error = errors.Error{Code: errors.Corrupted, Pkg: "flate", Msg: "stream is corrupted"}

	// ErrChecksum reports an Adler-32 trailer that does not match the output.
	ErrChecksum error = errors.Error{Code: errors.Corrupted, Pkg: "flate", Msg: "checksum mismatch"}

	// ErrDictionary reports a preset dictionary whose Adler-32 does not match
	// the identifier stored in the stream header.
	ErrDictionary error = errors.Error{Code: errors.Corrupted, Pkg: "flate", Msg: "dictionary checksum mismatch"}

	// ErrClosed reports use of a closed stream.
	ErrClosed error = errors.Error{Code: errors.Closed, Pkg: "flate"}

	errNeedDict = errorf(errors.Invalid, "stream requires a preset dictionary")
)

// compressionLevel holds the matcher parameters for a single level.
type compressionLevel struct {
	good, lazy, nice, chain int
	fn                      int
}

// Compression functions.
const (
	fnStored = iota
	fnFast
	fnSlow
)

var levels = [...]compressionLevel{
	{0, 0, 0, 0, fnStored},
	{4, 4, 8, 4, fnFast},
	{4, 5, 16, 8, fnFast},
	{4, 6, 32, 32, fnFast},
	{4, 4, 16, 16, fnSlow},
	{8, 16, 32, 32, fnSlow},
	{8, 16, 128, 128, fnSlow},
	{8, 32, 128, 256, fnSlow},
	{32, 128, 258, 1024, fnSlow},
	{32, 258, 258, 4096, fnSlow},
}

func normalizeLevel(level int) (int, error) {
	if level == DefaultCompression {
		return 6, nil
	}
	if level < NoCompression || level > BestCompression {
		return 0, errorf(errors.Invalid, "invalid compression level: %d", level)
	}
	return level, nil
}
