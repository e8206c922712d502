// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package flate

import (
	"bytes"
	"strings"
	"testing"

	"github.com/dsnet/zflate/internal/errors"
	"github.com/dsnet/zflate/internal/testutil"
	"github.com/stretchr/testify/assert"
)

// windowHarness drives an outputWindow while keeping a plain copy of
// everything written, draining whenever the window fills up.
type windowHarness struct {
	ow   outputWindow
	want []byte
	got  bytes.Buffer
	buf  [777]byte
}

func (h *windowHarness) drain() {
	for h.ow.Available() > 0 {
		n := h.ow.CopyOutput(h.buf[:])
		h.got.Write(h.buf[:n])
	}
}

func (h *windowHarness) write(s []byte) {
	for _, c := range s {
		if h.ow.FreeSpace() == 0 {
			h.drain()
		}
		h.ow.Write(c)
		h.want = append(h.want, c)
	}
}

func (h *windowHarness) repeat(dist, length int) {
	for length > 0 {
		if h.ow.FreeSpace() == 0 {
			h.drain()
		}
		n := length
		if m := h.ow.FreeSpace(); n > m {
			n = m
		}
		h.ow.Repeat(n, dist)
		for i := 0; i < n; i++ {
			h.want = append(h.want, h.want[len(h.want)-dist])
		}
		length -= n
	}
}

func TestOutputWindow(t *testing.T) {
	const fox = "The quick brown fox jumped over the lazy dog!\n"

	var h windowHarness
	h.write([]byte("ABC\n"))
	h.repeat(4, 4*49) // Overlapping copy
	h.write([]byte(fox))
	h.repeat(len(fox), len(fox)*99)
	h.repeat(1, 1000) // Run of a single byte

	// Random literals and copies wrap around the window several times.
	r := testutil.NewRand(0)
	for len(h.want) < 5*maxHistSize {
		if r.Intn(4) == 0 {
			h.write(r.Bytes(1 + r.Intn(20)))
			continue
		}
		dist := 1 + r.Intn(len(h.want))
		if dist > maxHistSize {
			dist = maxHistSize
		}
		h.repeat(dist, minMatchLen+r.Intn(maxMatchLen-minMatchLen+1))
	}
	h.drain()

	if !bytes.Equal(h.got.Bytes(), h.want) {
		t.Errorf("output mismatch: got %d bytes, want %d bytes", h.got.Len(), len(h.want))
	}
	if !strings.HasPrefix(h.got.String(), strings.Repeat("ABC\n", 50)+fox) {
		t.Errorf("output prefix mismatch")
	}
}

func TestOutputWindowInvalidDistance(t *testing.T) {
	var vectors = []struct {
		desc    string
		prefill int
		dist    int
	}{
		{"empty history", 0, 1},
		{"beyond history", 10, 11},
		{"zero distance", 10, 0},
		{"beyond window", maxHistSize, maxHistSize + 1},
	}
	for i, v := range vectors {
		var ow outputWindow
		buf := make([]byte, maxHistSize)
		for j := 0; j < v.prefill; j++ {
			ow.Write(byte(j))
		}
		ow.CopyOutput(buf)
		err := recoverError(func() { ow.Repeat(3, v.dist) })
		if err != ErrCorrupt {
			t.Errorf("test %d, %s: got %v, want %v", i, v.desc, err, ErrCorrupt)
		}
	}
}

func TestOutputWindowFull(t *testing.T) {
	var ow outputWindow
	for i := 0; i < maxHistSize; i++ {
		ow.Write('a')
	}
	assert.Equal(t, 0, ow.FreeSpace())
	err := recoverError(func() { ow.Write('b') })
	assert.True(t, errors.IsInternal(err), "got %v", err)
	err = recoverError(func() { ow.Repeat(3, 1) })
	assert.True(t, errors.IsInternal(err), "got %v", err)
}

func TestOutputWindowDict(t *testing.T) {
	dict := testutil.NewRand(0).Bytes(maxHistSize + 100)

	var ow outputWindow
	ow.CopyDict(dict)
	assert.Equal(t, 0, ow.Available(), "dictionary is not output")

	// The oldest retained byte is the one maxHistSize back.
	ow.Repeat(4, maxHistSize)
	out := make([]byte, 10)
	n := ow.CopyOutput(out)
	assert.Equal(t, dict[100:104], out[:n])

	// A dictionary after output has begun is a misuse.
	err := recoverError(func() { ow.CopyDict([]byte("abc")) })
	assert.True(t, errors.IsInternal(err), "got %v", err)

	ow.Reset()
	ow.CopyDict([]byte("hello"))
	ow.Repeat(5, 5)
	ow.Repeat(3, 1)
	n = ow.CopyOutput(out)
	assert.Equal(t, "helloooo", string(out[:n]))
}

func TestOutputWindowStored(t *testing.T) {
	data := testutil.NewRand(1).Bytes(3 * maxHistSize)
	var br bitReader
	br.SetInput(data)

	var ow outputWindow
	var got []byte
	buf := make([]byte, 5000)
	for len(got) < len(data) {
		ow.CopyStored(&br, len(data))
		n := ow.CopyOutput(buf)
		got = append(got, buf[:n]...)
	}
	assert.True(t, bytes.Equal(data, got), "stored data mismatch")
	assert.True(t, br.IsNeedingInput())
}
