// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package flate

import "github.com/dsnet/zflate/internal/errors"

// The outputWindow implements the LZ77 sliding dictionary of the decompressor.
//
// The window is a circular buffer of maxHistSize bytes. Freshly decoded bytes
// are written at end and stay there until CopyOutput hands them to the caller.
// Bytes that have already been handed out remain available as history for
// back-references until they are overwritten.
type outputWindow struct {
	hist    [maxHistSize]byte
	end     int // Position where the next byte is written
	filled  int // Number of bytes not yet copied out
	histLen int // Number of valid bytes of history, at most maxHistSize
}

func (ow *outputWindow) Reset() {
	ow.end, ow.filled, ow.histLen = 0, 0, 0
}

// FreeSpace reports how many bytes can be written before the caller must
// drain the window with CopyOutput.
func (ow *outputWindow) FreeSpace() int {
	return maxHistSize - ow.filled
}

// Available reports how many bytes are waiting for CopyOutput.
func (ow *outputWindow) Available() int {
	return ow.filled
}

func (ow *outputWindow) advance(n int) {
	ow.end = (ow.end + n) & histMask
	ow.filled += n
	if ow.histLen += n; ow.histLen > maxHistSize {
		ow.histLen = maxHistSize
	}
}

// Write appends a single literal.
func (ow *outputWindow) Write(c byte) {
	if ow.filled == maxHistSize {
		errors.Panic(errorf(errors.Internal, "window full"))
	}
	ow.hist[ow.end] = c
	ow.advance(1)
}

// Repeat appends length bytes copied from dist bytes back.
// The source may overlap the bytes being written.
func (ow *outputWindow) Repeat(length, dist int) {
	if ow.filled+length > maxHistSize {
		errors.Panic(errorf(errors.Internal, "window full"))
	}
	if dist <= 0 || dist > ow.histLen {
		errors.Panic(ErrCorrupt)
	}

	src := (ow.end - dist) & histMask
	for length > 0 {
		n := length
		if n > dist {
			n = dist // Only copy what has already been produced
		}
		if m := maxHistSize - src; n > m {
			n = m
		}
		if m := maxHistSize - ow.end; n > m {
			n = m
		}
		copy(ow.hist[ow.end:ow.end+n], ow.hist[src:src+n])
		src = (src + n) & histMask
		ow.advance(n)
		length -= n
	}
}

// CopyStored copies up to length raw bytes from the bit reader into the
// window and reports how many were copied. The reader must be byte aligned.
func (ow *outputWindow) CopyStored(br *bitReader, length int) int {
	if m := ow.FreeSpace(); length > m {
		length = m
	}
	if m := br.AvailableBytes(); length > m {
		length = m
	}

	var copied int
	for copied < length {
		n := length - copied
		if m := maxHistSize - ow.end; n > m {
			n = m
		}
		n = br.CopyBytes(ow.hist[ow.end : ow.end+n])
		ow.advance(n)
		copied += n
	}
	return copied
}

// CopyDict loads a preset dictionary as history. Only the trailing
// maxHistSize bytes matter. The dictionary is not part of the output.
func (ow *outputWindow) CopyDict(dict []byte) {
	if ow.filled > 0 || ow.histLen > 0 {
		errors.Panic(errorf(errors.Internal, "dictionary set after output"))
	}
	if len(dict) > maxHistSize {
		dict = dict[len(dict)-maxHistSize:]
	}
	copy(ow.hist[:], dict)
	ow.end = len(dict) & histMask
	ow.histLen = len(dict)
}

// CopyOutput moves pending bytes into out in the order they were produced
// and reports how many were moved.
func (ow *outputWindow) CopyOutput(out []byte) int {
	n := ow.filled
	if n > len(out) {
		n = len(out)
	}
	start := (ow.end - ow.filled) & histMask
	cnt := copy(out[:n], ow.hist[start:])
	if cnt < n {
		cnt += copy(out[cnt:n], ow.hist[:])
	}
	ow.filled -= cnt
	return cnt
}
