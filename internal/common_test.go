// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package internal

import "testing"

func TestReverse(t *testing.T) {
	var vectors = []struct {
		in   uint64
		n    uint
		want uint64
	}{
		{0x1, 1, 0x1},
		{0x1, 7, 0x40},
		{0x30, 8, 0x0c},
		{0x0e, 4, 0x7},
		{0x1234, 16, 0x2c48},
		{0x80000000, 32, 0x1},
		{0x1, 64, 0x8000000000000000},
	}
	for i, v := range vectors {
		if got := ReverseUint64N(v.in, v.n); got != v.want {
			t.Errorf("test %d: ReverseUint64N(%#x, %d) = %#x, want %#x", i, v.in, v.n, got, v.want)
		}
		if v.n <= 32 {
			if got := ReverseUint32N(uint32(v.in), v.n); uint64(got) != v.want {
				t.Errorf("test %d: ReverseUint32N(%#x, %d) = %#x, want %#x", i, v.in, v.n, got, v.want)
			}
		}
	}
	for i := 0; i < 256; i++ {
		if ReverseLUT[ReverseLUT[i]] != byte(i) {
			t.Errorf("ReverseLUT is not an involution at %d", i)
		}
	}
}
