// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package flate

import "github.com/dsnet/zflate/internal/errors"

// The bitWriter holds compressed output until the caller drains it with Flush.
// Bits are packed LSB-first; whole bytes may only be written while no partial
// group of bits is pending.
type bitWriter struct {
	buf     []byte // Pending output; buf[start:] has not been flushed
	start   int
	bufBits uint32 // Accumulator for bit-level writes
	numBits uint   // Number of valid bits in bufBits
}

func (bw *bitWriter) Reset() {
	*bw = bitWriter{buf: bw.buf[:0]}
}

func (bw *bitWriter) checkAligned() {
	if bw.numBits != 0 {
		errors.Panic(errorf(errors.Internal, "unaligned byte write"))
	}
}

func (bw *bitWriter) WriteUint8(b byte) {
	bw.checkAligned()
	bw.buf = append(bw.buf, b)
}

// WriteShort writes the low 16 bits of v in little-endian order.
func (bw *bitWriter) WriteShort(v int) {
	bw.checkAligned()
	bw.buf = append(bw.buf, byte(v), byte(v>>8))
}

// WriteShortMSB writes the low 16 bits of v in big-endian order.
func (bw *bitWriter) WriteShortMSB(v int) {
	bw.checkAligned()
	bw.buf = append(bw.buf, byte(v>>8), byte(v))
}

func (bw *bitWriter) WriteInt(v int) {
	bw.checkAligned()
	bw.buf = append(bw.buf, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}

func (bw *bitWriter) WriteBlock(b []byte) {
	bw.checkAligned()
	bw.buf = append(bw.buf, b...)
}

// WriteBits writes the low nb bits of v, where nb is at most 16.
func (bw *bitWriter) WriteBits(v uint, nb uint) {
	bw.bufBits |= uint32(v) << bw.numBits
	bw.numBits += nb
	if bw.numBits >= 16 {
		bw.buf = append(bw.buf, byte(bw.bufBits), byte(bw.bufBits>>8))
		bw.bufBits >>= 16
		bw.numBits -= 16
	}
}

// AlignToByte writes any pending bits, padding them with zeros.
func (bw *bitWriter) AlignToByte() {
	if bw.numBits > 0 {
		bw.buf = append(bw.buf, byte(bw.bufBits))
		if bw.numBits > 8 {
			bw.buf = append(bw.buf, byte(bw.bufBits>>8))
		}
	}
	bw.bufBits = 0
	bw.numBits = 0
}

// BitCount reports the number of bits held in the accumulator.
func (bw *bitWriter) BitCount() uint {
	return bw.numBits
}

// IsFlushed reports whether all whole bytes have been flushed.
func (bw *bitWriter) IsFlushed() bool {
	return bw.start == len(bw.buf)
}

// Flush copies as many whole bytes as possible into out and returns the
// number copied. Fewer than 8 pending bits are kept back.
func (bw *bitWriter) Flush(out []byte) int {
	if bw.numBits >= 8 {
		bw.buf = append(bw.buf, byte(bw.bufBits))
		bw.bufBits >>= 8
		bw.numBits -= 8
	}
	n := copy(out, bw.buf[bw.start:])
	bw.start += n
	if bw.start == len(bw.buf) {
		bw.buf = bw.buf[:0]
		bw.start = 0
	}
	return n
}
