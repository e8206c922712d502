// Copyright 2016, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package testutil

import (
	"bytes"
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/dsnet/zflate/internal"
	"github.com/pkg/errors"
)

// DecodeBitGen decodes a BitGen formatted string into the bit stream it
// describes. BitGen lets a test author script compressed streams bit by bit,
// with comments to record what each field means.
//
// Tokens are separated by white space and '#' starts a comment that runs to
// the end of the line. The first token selects how bits are packed into
// bytes: "<<<" fills each byte from its least significant bit, as DEFLATE
// does, while ">>>" fills from the most significant bit.
//
// The remaining tokens are:
//
//	<, >          Set the parse order for following tokens. In "<" order the
//	              rightmost bit of a bit-string is written first; in ">" order
//	              the leftmost one is. The default is "<".
//	0110          A bit-string of 1 to 64 bits.
//	D5:17         A decimal value written as an unsigned field of 5 bits.
//	H16:fffb      A hexadecimal value written as an unsigned field of 16 bits.
//	X:deadcafe    Literal bytes, only valid while the stream is byte aligned.
//	              Neither packing nor parse order applies.
//
// A bit-string or numeric token may be prefixed with "<" or ">" to set the
// parse order for that token alone, and any token may be suffixed with "*N"
// to repeat it N times. Numbers in "<" order are written least significant
// bit first, which is how DEFLATE stores everything except prefix codes.
// Prefix codes are written most significant bit first, so they are usually
// given as ">" bit-strings. The stream is zero padded to a whole byte.
//
// Example stream with a raw block followed by a fixed block:
//
//	<<<
//	< 0 00 0*5          # Non-last, raw block, padding
//	< H16:0004 H16:fffb # Length 4 and its complement
//	X:deadcafe          # Raw data
//	< 1 01              # Last, fixed block
//	> 0000000           # EOB
//
// zlib stores its header and Adler-32 trailer as big-endian byte fields,
// which are simplest to give as "X:" tokens:
//
//	<<< X:789c < 1 01 > 0000000 < 0*6 X:00000001
func DecodeBitGen(str string) ([]byte, error) {
	toks := tokenize(str)
	if len(toks) == 0 {
		return nil, errors.New("testutil: missing bit-packing mode")
	}

	var g bitGen
	switch toks[0] {
	case "<<<":
	case ">>>":
		g.msbPacking = true
	default:
		return nil, errors.Errorf("testutil: unknown bit-packing mode: %q", toks[0])
	}
	for _, t := range toks[1:] {
		if err := g.token(t); err != nil {
			return nil, err
		}
	}
	return g.bytes(), nil
}

func tokenize(str string) []string {
	var toks []string
	for _, line := range strings.Split(str, "\n") {
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		toks = append(toks, strings.Fields(line)...)
	}
	return toks
}

// bitGen accumulates bits LSB first, one bit at a time. The flate bit writer
// is not reused so that encoder bugs cannot mask themselves in test vectors.
type bitGen struct {
	buf        []byte
	mask       byte // Next bit to set in the last byte; zero when aligned
	msbOrder   bool // Global parse order
	msbPacking bool
}

func (g *bitGen) token(t string) error {
	msb := g.msbOrder
	if t[0] == '<' || t[0] == '>' {
		msb = t[0] == '>'
		if t = t[1:]; t == "" {
			g.msbOrder = msb
			return nil
		}
	}

	rep := 1
	if i := strings.LastIndexByte(t, '*'); i >= 0 {
		n, err := strconv.Atoi(t[i+1:])
		if err != nil || n < 0 {
			return errors.Errorf("testutil: invalid repeat count: %q", t)
		}
		t, rep = t[:i], n
	}

	switch {
	case strings.HasPrefix(t, "X:"):
		b, err := hex.DecodeString(t[2:])
		if err != nil || len(b) == 0 {
			return errors.Errorf("testutil: invalid raw bytes: %q", t)
		}
		if g.mask != 0 {
			return errors.Errorf("testutil: unaligned raw bytes: %q", t)
		}
		g.buf = append(g.buf, bytes.Repeat(b, rep)...)
		return nil
	case strings.HasPrefix(t, "D"), strings.HasPrefix(t, "H"):
		v, n, err := parseNumeric(t)
		if err != nil {
			return err
		}
		g.writeField(v, n, msb, rep)
		return nil
	default:
		v, n, err := parseBinary(t)
		if err != nil {
			return err
		}
		g.writeField(v, n, msb, rep)
		return nil
	}
}

// writeField writes the low n bits of v rep times, starting from the most
// significant of them if msbFirst is set.
func (g *bitGen) writeField(v uint64, n uint, msbFirst bool, rep int) {
	if msbFirst && n > 0 {
		v = internal.ReverseUint64N(v, n)
	}
	for ; rep > 0; rep-- {
		for i := uint(0); i < n; i++ {
			if g.mask == 0 {
				g.buf = append(g.buf, 0)
				g.mask = 0x01
			}
			if v>>i&1 != 0 {
				g.buf[len(g.buf)-1] |= g.mask
			}
			g.mask <<= 1
		}
	}
}

func (g *bitGen) bytes() []byte {
	if g.msbPacking {
		for i, b := range g.buf {
			g.buf[i] = internal.ReverseLUT[b]
		}
	}
	return g.buf
}

// parseBinary parses a bit-string, returning it as a number whose least
// significant bit is the rightmost character.
func parseBinary(t string) (v uint64, n uint, err error) {
	if len(t) == 0 || len(t) > 64 {
		return 0, 0, errors.Errorf("testutil: invalid token: %q", t)
	}
	for _, c := range t {
		if c != '0' && c != '1' {
			return 0, 0, errors.Errorf("testutil: invalid token: %q", t)
		}
		v = v<<1 | uint64(c-'0')
	}
	return v, uint(len(t)), nil
}

// parseNumeric parses a "D<bits>:<decimal>" or "H<bits>:<hex>" token.
func parseNumeric(t string) (v uint64, n uint, err error) {
	width, val, ok := strings.Cut(t[1:], ":")
	base := 10
	if t[0] == 'H' {
		base = 16
	}
	nb, err1 := strconv.ParseUint(width, 10, 8)
	v, err2 := strconv.ParseUint(val, base, 64)
	if !ok || err1 != nil || err2 != nil || nb > 64 {
		return 0, 0, errors.Errorf("testutil: invalid numeric token: %q", t)
	}
	if nb < 64 && v>>nb != 0 {
		return 0, 0, errors.Errorf("testutil: value overflows %d bits: %q", nb, t)
	}
	return v, uint(nb), nil
}
