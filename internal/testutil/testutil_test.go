// Copyright 2016, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package testutil

import (
	"bytes"
	"errors"
	"io"
	"io/ioutil"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeBitGen(t *testing.T) {
	var vectors = []struct {
		input  string
		output string // Hex encoded; empty means an error is expected
		valid  bool
	}{
		{"<<<", "", true},
		{"<<< 1", "01", true},
		{"<<< 10", "02", true},
		{"<<< > 10", "01", true},
		{"<<< >10 10", "09", true},
		{">>> 1", "80", true},
		{"<<< 1*9", "ff01", true},
		{"<<< D8:200 H8:c8", "c8c8", true},
		{"<<< >D3:1", "04", true},
		{"<<< H16:0004 H16:fffb X:deadcafe", "0400fbffdeadcafe", true},
		{"<<< X:01*3 # comment X:ff", "010101", true},
		{"<<< 1 01 0000000 0*6 # empty fixed block", "0300", true},
		{"<<< X:789c < 1 01 > 0000000 < 0*6 X:00000001", "789c030000000001", true},

		{"", "", false},
		{"1", "", false},
		{"<<< 2", "", false},
		{"<<< D3:8", "", false},
		{"<<< H65:0", "", false},
		{"<<< 1 X:00", "", false},
		{"<<< X:0", "", false},
		{"<<< 1*x", "", false},
	}
	for i, v := range vectors {
		got, err := DecodeBitGen(v.input)
		if v.valid != (err == nil) {
			t.Errorf("test %d, %q: got error %v, want valid %v", i, v.input, err, v.valid)
			continue
		}
		if want := MustDecodeHex(v.output); v.valid && !bytes.Equal(got, want) {
			t.Errorf("test %d, %q: output mismatch: got %x, want %x", i, v.input, got, want)
		}
	}
}

func TestRand(t *testing.T) {
	r1, r2 := NewRand(5), NewRand(5)
	assert.Equal(t, r1.Bytes(100), r2.Bytes(100))
	assert.Equal(t, r1.Int(), r2.Int())
	assert.NotEqual(t, NewRand(6).Bytes(16), NewRand(5).Bytes(16))
	for i := 0; i < 1000; i++ {
		if n := r1.Intn(7); n < 0 || n >= 7 {
			t.Fatalf("Intn(7) = %d", n)
		}
	}
}

func TestCorpus(t *testing.T) {
	for _, name := range CorpusNames() {
		for _, n := range []int{0, 1, 1000, 100000} {
			b, err := Corpus(name, n)
			if err != nil || len(b) != n {
				t.Errorf("Corpus(%q, %d) = (%d bytes, %v)", name, n, len(b), err)
			}
		}
		assert.Equal(t, MustCorpus(name, 5000), MustCorpus(name, 5000), "corpus %q is not deterministic", name)
	}
	_, err := Corpus("missing", 10)
	assert.Error(t, err)
	_, err = Corpus("zeros", -1)
	assert.Error(t, err)
}

func TestResizeData(t *testing.T) {
	in := []byte("abc")
	assert.Equal(t, in, ResizeData(in, -1))
	assert.Equal(t, []byte("ab"), ResizeData(in, 2))
	assert.Equal(t, []byte{'a', 'b', 'c', 'a' ^ 1, 'b' ^ 1, 'c' ^ 1, 'a' ^ 2}, ResizeData(in, 7))
}

func TestBuggyIO(t *testing.T) {
	errFail := errors.New("fail")

	br := &BuggyReader{R: bytes.NewReader(make([]byte, 100)), N: 10, Err: errFail}
	b, err := ioutil.ReadAll(br)
	assert.Equal(t, errFail, err)
	assert.Len(t, b, 10)

	var buf bytes.Buffer
	bw := &BuggyWriter{W: &buf, N: 10, Err: errFail}
	n, err := bw.Write(make([]byte, 4))
	assert.Equal(t, 4, n)
	assert.NoError(t, err)
	n, err = bw.Write(make([]byte, 20))
	assert.Equal(t, 6, n)
	assert.Equal(t, errFail, err)
	n, err = bw.Write(make([]byte, 1))
	assert.Equal(t, 0, n)
	assert.Equal(t, errFail, err)
	assert.Equal(t, 10, buf.Len())

	_, err = io.Copy(ioutil.Discard, &BuggyReader{R: bytes.NewReader(nil), N: 5, Err: errFail})
	assert.NoError(t, err)
}
