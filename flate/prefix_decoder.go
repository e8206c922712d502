// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package flate

import (
	"github.com/dsnet/zflate/internal"
	"github.com/dsnet/zflate/internal/errors"
)

const (
	prefixCountBits = 4
	prefixCountMask = (1 << prefixCountBits) - 1
	prefixChunkBits = 9 // This can be tuned for better performance
	prefixChunkMask = (1 << prefixChunkBits) - 1
)

// prefixDecoder decodes symbols of a canonical prefix code.
//
// Each table entry packs a symbol and the full bit-length of its code as
// sym<<prefixCountBits | len. Codes up to prefixChunkBits long are resolved by
// the chunks table alone. For longer codes, the chunks entry holds a link index
// together with the longest code length sharing that 9-bit prefix, and the
// link table is indexed by the bits that follow the prefix.
type prefixDecoder struct {
	chunks  [1 << prefixChunkBits]uint32 // First-level lookup map
	links   [][]uint32                   // Second-level lookup map
	numSyms int                          // Number of coded symbols
}

// Init initializes prefixDecoder from a list of code lengths indexed by
// symbol, where a length of zero means the symbol is unused.
//
// The lengths must form a complete prefix code. The only exception is a code
// with exactly one symbol of length 1; the unused code is then assigned to
// fillSym, which must lie outside the alphabet so that using it fails.
func (pd *prefixDecoder) Init(lens []uint8, fillSym int) {
	var bitCnts [maxPrefixBits + 1]int
	var maxBits uint8
	var numSyms, lastSym int
	for sym, n := range lens {
		if n == 0 {
			continue
		}
		if n > maxPrefixBits {
			errors.Panic(ErrCorrupt)
		}
		if maxBits < n {
			maxBits = n
		}
		bitCnts[n]++
		numSyms++
		lastSym = sym
	}
	pd.numSyms = numSyms
	pd.links = pd.links[:0]

	// Handle special case trees.
	switch numSyms {
	case 0: // Empty tree (panics if used later)
		for i := range pd.chunks {
			pd.chunks[i] = 0
		}
		return
	case 1: // Degenerate tree (a single code of length 1)
		if maxBits != 1 {
			errors.Panic(ErrCorrupt)
		}
		for i := range pd.chunks {
			sym := lastSym
			if i&1 > 0 {
				sym = fillSym
			}
			pd.chunks[i] = uint32(sym)<<prefixCountBits | 1
		}
		return
	}

	// Compute the next code for a symbol of a given bit length.
	var nextCodes [maxPrefixBits + 1]uint
	var code uint
	for i := uint8(1); i <= maxBits; i++ {
		code <<= 1
		nextCodes[i] = code
		code += uint(bitCnts[i])
	}
	if code != 1<<maxBits {
		errors.Panic(ErrCorrupt) // Tree is under or over subscribed
	}

	// Allocate a link table for every prefix shared by long codes. Each table
	// is as wide as the longest code sharing the prefix requires.
	if maxBits > prefixChunkBits {
		var linkBits [1 << prefixChunkBits]uint8
		codes := nextCodes
		for _, n := range lens {
			if n <= prefixChunkBits {
				continue
			}
			val := internal.ReverseUint32N(uint32(codes[n]), uint(n))
			codes[n]++
			if p := val & prefixChunkMask; linkBits[p] < n {
				linkBits[p] = n
			}
		}
		for p, n := range linkBits {
			if n == 0 {
				continue
			}
			linkIdx := len(pd.links)
			pd.links = extendSliceUint32s(pd.links, linkIdx+1)
			pd.links[linkIdx] = extendUint32s(pd.links[linkIdx], 1<<(n-prefixChunkBits))
			pd.chunks[p] = uint32(linkIdx)<<prefixCountBits | uint32(n)
		}
	}

	// Fill out chunks and links tables with values.
	for sym, n := range lens {
		if n == 0 {
			continue
		}
		val := internal.ReverseUint32N(uint32(nextCodes[n]), uint(n))
		nextCodes[n]++
		chunk := uint32(sym)<<prefixCountBits | uint32(n)

		if n <= prefixChunkBits {
			skip := 1 << n
			for i := int(val); i < len(pd.chunks); i += skip {
				pd.chunks[i] = chunk
			}
		} else {
			links := pd.links[pd.chunks[val&prefixChunkMask]>>prefixCountBits]
			skip := 1 << (n - prefixChunkBits)
			for i := int(val >> prefixChunkBits); i < len(links); i += skip {
				links[i] = chunk
			}
		}
	}
}

// Decode reads the next symbol. It reports false, consuming nothing, if the
// input does not hold enough bits to complete the code.
func (pd *prefixDecoder) Decode(br *bitReader) (int, bool) {
	if pd.numSyms == 0 {
		errors.Panic(ErrCorrupt)
	}

	v, ok := br.PeekBits(prefixChunkBits)
	if !ok {
		// Near the end of input; try to resolve a short code.
		nb := br.AvailableBits()
		v, _ = br.PeekBits(nb)
		chunk := pd.chunks[v]
		if n := uint(chunk & prefixCountMask); n <= nb && n <= prefixChunkBits {
			br.DropBits(n)
			return int(chunk >> prefixCountBits), true
		}
		return 0, false
	}

	chunk := pd.chunks[v]
	n := uint(chunk & prefixCountMask)
	if n <= prefixChunkBits {
		br.DropBits(n)
		return int(chunk >> prefixCountBits), true
	}

	links := pd.links[chunk>>prefixCountBits]
	if v, ok = br.PeekBits(n); !ok {
		n = br.AvailableBits()
		v, _ = br.PeekBits(n)
	}
	chunk = links[v>>prefixChunkBits]
	if nl := uint(chunk & prefixCountMask); nl <= n {
		br.DropBits(nl)
		return int(chunk >> prefixCountBits), true
	}
	return 0, false
}

// extendUint32s returns a slice with length n, reusing s if possible.
func extendUint32s(s []uint32, n int) []uint32 {
	if cap(s) >= n {
		return s[:n]
	}
	return append(s[:cap(s)], make([]uint32, n-cap(s))...)
}

// extendSliceUint32s returns a slice with length n, reusing s if possible.
func extendSliceUint32s(s [][]uint32, n int) [][]uint32 {
	if cap(s) >= n {
		return s[:n]
	}
	return append(s[:cap(s)], make([][]uint32, n-cap(s))...)
}
