// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package flate

import (
	"sync"

	"github.com/dsnet/zflate/internal"
)

const maxPrefixBits = 15

const (
	maxNumCLenSyms = 19
	maxNumLitSyms  = 286
	maxNumDistSyms = 30
	maxCLenBits    = 7
)

var (
	lenLUT  [maxNumLitSyms - 257]rangeCode // RFC section 3.2.5
	distLUT [maxNumDistSyms]rangeCode      // RFC section 3.2.5
)

type rangeCode struct {
	base uint32 // Starting base offset of the range
	bits uint32 // Bit-width of a subsequent integer to add to base offset
}

// RFC section 3.2.7.
// Order in which the code-length code lengths are transmitted.
var clenOrder = [maxNumCLenSyms]int{
	16, 17, 18, 0, 8, 7, 9, 6, 10, 5, 11, 4, 12, 3, 13, 2, 14, 1, 15,
}

func init() {
	// These come from the RFC section 3.2.5.
	for i, base := 0, 3; i < len(lenLUT)-1; i++ {
		nb := uint(0)
		if i >= 4 {
			nb = uint(i/4 - 1)
		}
		lenLUT[i] = rangeCode{base: uint32(base), bits: uint32(nb)}
		base += 1 << nb
	}
	lenLUT[len(lenLUT)-1] = rangeCode{base: 258, bits: 0}

	// These come from the RFC section 3.2.5.
	for i, base := 0, 1; i < len(distLUT); i++ {
		nb := uint(0)
		if i >= 2 {
			nb = uint(i/2 - 1)
		}
		distLUT[i] = rangeCode{base: uint32(base), bits: uint32(nb)}
		base += 1 << nb
	}
}

// fixedTables holds the static Huffman codes of RFC section 3.2.6.
// They are built on first use and never modified afterwards.
type fixedTables struct {
	litLens   [288]uint8
	distLens  [32]uint8
	litCodes  [288]uint16
	distCodes [32]uint16

	litDecoder  prefixDecoder
	distDecoder prefixDecoder
}

var (
	fixedOnce sync.Once
	fixed     *fixedTables
)

func getFixedTables() *fixedTables {
	fixedOnce.Do(func() {
		ft := new(fixedTables)
		for i := range ft.litLens {
			switch {
			case i < 144:
				ft.litLens[i] = 8
			case i < 256:
				ft.litLens[i] = 9
			case i < 280:
				ft.litLens[i] = 7
			default:
				ft.litLens[i] = 8
			}
		}
		for i := range ft.distLens {
			ft.distLens[i] = 5
		}
		canonicalCodes(ft.litCodes[:], ft.litLens[:])
		canonicalCodes(ft.distCodes[:], ft.distLens[:])

		// Symbols 286, 287, 30, and 31 have codes but are never valid;
		// the decoders return them and the caller rejects them.
		ft.litDecoder.Init(ft.litLens[:], len(ft.litLens))
		ft.distDecoder.Init(ft.distLens[:], len(ft.distLens))
		fixed = ft
	})
	return fixed
}

// canonicalCodes assigns the canonical prefix codes of RFC section 3.2.2 to
// the given code lengths. Codes are stored bit-reversed so that they can be
// written directly into an LSB-first bit stream.
func canonicalCodes(codes []uint16, lens []uint8) {
	var counts, next [maxPrefixBits + 1]int
	for _, n := range lens {
		counts[n]++
	}
	counts[0] = 0
	var code int
	for n := 1; n <= maxPrefixBits; n++ {
		code = (code + counts[n-1]) << 1
		next[n] = code
	}
	for i, n := range lens {
		if n > 0 {
			codes[i] = uint16(internal.ReverseUint32N(uint32(next[n]), uint(n)))
			next[n]++
		}
	}
}
