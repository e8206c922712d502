// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package flate

import "github.com/dsnet/zflate/internal/errors"

// The bitReader reads LSB-first bits out of a caller supplied input slice.
// It never performs I/O; when the slice runs dry, the Peek and TryGet methods
// report failure and the caller must provide more input through SetInput.
//
// Bits are pulled from the input into a 64-bit buffer as eagerly as possible
// so that symbol decoding usually succeeds on the first peek. Whole bytes that
// sit in the bit buffer are still counted by AvailableBytes.
type bitReader struct {
	in      []byte // Unread input, bound by reference
	bufBits uint64 // Buffer to hold some bits
	numBits uint   // Number of valid bits in bufBits
}

func (br *bitReader) Reset() {
	*br = bitReader{}
}

// SetInput binds buf as the next input. It is only valid once the previous
// input slice has been fully pulled into the bit buffer.
func (br *bitReader) SetInput(buf []byte) {
	if len(br.in) > 0 {
		errors.Panic(errorf(errors.Internal, "input was not completely consumed"))
	}
	br.in = buf
}

// IsNeedingInput reports whether the input slice is exhausted.
// Bits may still be buffered.
func (br *bitReader) IsNeedingInput() bool {
	return len(br.in) == 0
}

// fill pulls whole bytes from the input until at least 57 bits are buffered
// or the input is exhausted.
func (br *bitReader) fill() {
	for br.numBits <= 56 && len(br.in) > 0 {
		br.bufBits |= uint64(br.in[0]) << br.numBits
		br.numBits += 8
		br.in = br.in[1:]
	}
}

// PeekBits returns the next nb bits without consuming them.
// It reports false if fewer than nb bits are available.
func (br *bitReader) PeekBits(nb uint) (uint, bool) {
	if br.numBits < nb {
		br.fill()
		if br.numBits < nb {
			return 0, false
		}
	}
	return uint(br.bufBits & (1<<nb - 1)), true
}

// DropBits consumes nb bits that were previously peeked.
func (br *bitReader) DropBits(nb uint) {
	br.bufBits >>= nb
	br.numBits -= nb
}

// TryGetBits reads nb bits and stores base plus their value in field.
// It reports false, leaving field unmodified, if fewer than nb bits exist.
func (br *bitReader) TryGetBits(nb uint, field *int, base int) bool {
	v, ok := br.PeekBits(nb)
	if !ok {
		return false
	}
	br.DropBits(nb)
	*field = base + int(v)
	return true
}

// SkipToByteBoundary discards bits up to the next byte boundary.
func (br *bitReader) SkipToByteBoundary() {
	br.DropBits(br.numBits % 8)
}

// AvailableBits reports the number of bits that can still be read.
func (br *bitReader) AvailableBits() uint {
	return br.numBits + 8*uint(len(br.in))
}

// AvailableBytes reports the number of whole bytes that can still be read.
func (br *bitReader) AvailableBytes() int {
	return len(br.in) + int(br.numBits/8)
}

// CopyBytes copies whole bytes into buf and reports how many were copied.
// The reader must be aligned to a byte boundary.
func (br *bitReader) CopyBytes(buf []byte) int {
	if br.numBits%8 != 0 {
		errors.Panic(errorf(errors.Internal, "unaligned byte copy"))
	}
	var cnt int
	for br.numBits > 0 && cnt < len(buf) {
		buf[cnt] = byte(br.bufBits)
		br.DropBits(8)
		cnt++
	}
	n := copy(buf[cnt:], br.in)
	br.in = br.in[n:]
	return cnt + n
}
