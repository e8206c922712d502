// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package flate

import "github.com/dsnet/zflate/internal/errors"

// Phases of the dynamic block header, RFC section 3.2.7.
const (
	dynPhaseCounts = iota // HLIT, HDIST, and HCLEN
	dynPhaseCLens         // Code lengths for the code length alphabet
	dynPhaseLens          // Literal/length and distance code lengths
	dynPhaseRepeat        // Extra bits of a repeat symbol
	dynPhaseDone
)

// dynHeader incrementally parses the header of a dynamic block. All progress
// lives in the struct so that Decode can stop whenever input runs out and pick
// up exactly where it left off on the next call.
type dynHeader struct {
	phase   int
	numLits int
	numDist int
	numCLen int
	idx     int // Index of the next length to read in the current phase
	repSym  int // Pending repeat symbol (16, 17, or 18)

	clens      [maxNumCLenSyms]uint8
	lens       [maxNumLitSyms + maxNumDistSyms]uint8
	clenDecode prefixDecoder
}

func (dh *dynHeader) Reset() {
	dh.phase = dynPhaseCounts
	dh.idx = 0
}

// Decode continues parsing the header and reports whether it is complete.
// Once complete, lt and dt are initialized with the literal/length and
// distance codes. Malformed headers panic with ErrCorrupt.
func (dh *dynHeader) Decode(br *bitReader, lt, dt *prefixDecoder) bool {
	for {
		switch dh.phase {
		case dynPhaseCounts:
			v, ok := br.PeekBits(14)
			if !ok {
				return false
			}
			br.DropBits(14)
			dh.numLits = int(v&0x1f) + 257
			dh.numDist = int(v>>5&0x1f) + 1
			dh.numCLen = int(v>>10&0xf) + 4
			if dh.numLits > maxNumLitSyms || dh.numDist > maxNumDistSyms {
				errors.Panic(ErrCorrupt)
			}
			dh.clens = [maxNumCLenSyms]uint8{}
			dh.idx = 0
			dh.phase = dynPhaseCLens

		case dynPhaseCLens:
			for dh.idx < dh.numCLen {
				v, ok := br.PeekBits(3)
				if !ok {
					return false
				}
				br.DropBits(3)
				dh.clens[clenOrder[dh.idx]] = uint8(v)
				dh.idx++
			}
			dh.clenDecode.Init(dh.clens[:], maxNumCLenSyms)
			dh.idx = 0
			dh.phase = dynPhaseLens

		case dynPhaseLens:
			total := dh.numLits + dh.numDist
			for dh.idx < total {
				sym, ok := dh.clenDecode.Decode(br)
				if !ok {
					return false
				}
				if sym < 16 {
					dh.lens[dh.idx] = uint8(sym)
					dh.idx++
					continue
				}
				if sym >= maxNumCLenSyms || (sym == 16 && dh.idx == 0) {
					errors.Panic(ErrCorrupt)
				}
				dh.repSym = sym
				dh.phase = dynPhaseRepeat
				break
			}
			if dh.phase == dynPhaseLens {
				dh.phase = dynPhaseDone
			}

		case dynPhaseRepeat:
			var rep, val int
			var nb uint
			switch dh.repSym {
			case 16: // Repeat previous length
				nb, rep, val = 2, 3, int(dh.lens[dh.idx-1])
			case 17: // Repeat zero
				nb, rep = 3, 3
			case 18: // Repeat zero
				nb, rep = 7, 11
			}
			if !br.TryGetBits(nb, &rep, rep) {
				return false
			}
			if dh.idx+rep > dh.numLits+dh.numDist {
				errors.Panic(ErrCorrupt)
			}
			for i := 0; i < rep; i++ {
				dh.lens[dh.idx] = uint8(val)
				dh.idx++
			}
			dh.phase = dynPhaseLens

		case dynPhaseDone:
			if dh.lens[endBlockSym] == 0 {
				errors.Panic(ErrCorrupt) // EOB symbol must be coded
			}
			lt.Init(dh.lens[:dh.numLits], maxNumLitSyms)
			dt.Init(dh.lens[dh.numLits:dh.numLits+dh.numDist], maxNumDistSyms)
			return true

		default:
			errors.Panic(errorf(errors.Internal, "invalid header phase: %d", dh.phase))
		}
	}
}
