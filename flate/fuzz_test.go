// Copyright 2016, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package flate

import (
	"bytes"
	"io"
	"io/ioutil"
	"testing"

	"github.com/dsnet/zflate/internal/errors"
	"github.com/dsnet/zflate/internal/testutil"
	kpflate "github.com/klauspost/compress/flate"
)

func fuzzSeeds() [][]byte {
	var seeds [][]byte
	for _, name := range testutil.CorpusNames() {
		seeds = append(seeds, testutil.MustCorpus(name, 3000))
	}
	return append(seeds, nil, []byte("a"), []byte("abcabcabcabc"))
}

// FuzzInflate checks that arbitrary input never panics the decoder and
// that it agrees with another implementation whenever both succeed.
// Both decoders may reject the input for different reasons.
func FuzzInflate(f *testing.F) {
	for i, seed := range fuzzSeeds() {
		var buf bytes.Buffer
		kw, _ := kpflate.NewWriter(&buf, i%10)
		kw.Write(seed)
		kw.Close()
		f.Add(buf.Bytes())
	}
	f.Add(testutil.MustDecodeHex("0300"))
	f.Add(testutil.MustDecodeHex("010000ffff"))

	f.Fuzz(func(t *testing.T, data []byte) {
		fi := NewInflater(&InflaterConfig{NoHeader: true})
		got, err := inflateAll(fi, data, nil, 17, 29)
		if err != nil && !errors.IsCorrupted(err) && err != io.ErrUnexpectedEOF {
			t.Fatalf("unexpected error class: %v", err)
		}

		want, kerr := ioutil.ReadAll(kpflate.NewReader(bytes.NewReader(data)))
		if err == nil && kerr == nil && !bytes.Equal(got, want) {
			t.Fatalf("output mismatch:\ngot  %x\nwant %x", got, want)
		}
	})
}

// FuzzRoundTrip checks that compressed output is decoded back to the input
// by this package and by another implementation.
func FuzzRoundTrip(f *testing.F) {
	for i, seed := range fuzzSeeds() {
		f.Add(seed, uint8(i), false)
	}
	f.Fuzz(func(t *testing.T, input []byte, level uint8, zlib bool) {
		lvl := int(level % 10)
		fd, err := NewDeflater(lvl, &DeflaterConfig{NoHeader: !zlib, Strategy: Strategy(level/10) % 3})
		if err != nil {
			t.Fatalf("unexpected NewDeflater error: %v", err)
		}
		data := deflateAll(t, fd, input, 1+int(level), 64)

		fi := NewInflater(&InflaterConfig{NoHeader: !zlib})
		got, err := inflateAll(fi, data, nil, 1+int(level)/2, 100)
		if err != nil {
			t.Fatalf("unexpected inflate error: %v", err)
		}
		if !bytes.Equal(got, input) {
			t.Fatalf("round trip mismatch at level %d", lvl)
		}
		if fi.Adler() != fd.Adler() {
			t.Fatalf("checksum mismatch: %08x != %08x", fi.Adler(), fd.Adler())
		}

		if !zlib {
			want, err := ioutil.ReadAll(kpflate.NewReader(bytes.NewReader(data)))
			if err != nil || !bytes.Equal(want, input) {
				t.Fatalf("reference decoder mismatch: %v", err)
			}
		}
	})
}
