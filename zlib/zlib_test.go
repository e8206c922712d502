// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package zlib

import (
	"bytes"
	"hash/adler32"
	"io"
	"io/ioutil"
	"testing"

	"github.com/dsnet/zflate/flate"
	"github.com/dsnet/zflate/internal/errors"
	"github.com/dsnet/zflate/internal/testutil"
	kpzlib "github.com/klauspost/compress/zlib"
	"github.com/stretchr/testify/assert"
)

func compress(t *testing.T, input []byte, level int, conf *WriterConfig) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw, err := NewWriter(&buf, level, conf)
	if err != nil {
		t.Fatalf("unexpected NewWriter error: %v", err)
	}
	if _, err := zw.Write(input); err != nil {
		t.Fatalf("unexpected Write error: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("unexpected Close error: %v", err)
	}
	return buf.Bytes()
}

func decompress(input []byte, conf *ReaderConfig) ([]byte, error) {
	zr, err := NewReader(bytes.NewReader(input), conf)
	if err != nil {
		return nil, err
	}
	output, err := ioutil.ReadAll(zr)
	if err != nil {
		return output, err
	}
	return output, zr.Close()
}

func TestRoundTrip(t *testing.T) {
	var vectors = []struct {
		desc  string
		input []byte
	}{
		{"empty", nil},
		{"text", testutil.MustCorpus("text", 1<<16)},
		{"binary", testutil.MustCorpus("binary", 100000)},
		{"random", testutil.MustCorpus("random", 1<<15)},
	}
	for i, v := range vectors {
		for _, level := range []int{NoCompression, BestSpeed, DefaultCompression, BestCompression} {
			data := compress(t, v.input, level, nil)
			if len(data) < 6 || (int(data[0])<<8|int(data[1]))%31 != 0 {
				t.Errorf("test %d, %s, level %d: invalid header: %x", i, v.desc, level, data)
				continue
			}
			if got := adler32.Checksum(v.input); got != uint32(data[len(data)-4])<<24|uint32(data[len(data)-3])<<16|uint32(data[len(data)-2])<<8|uint32(data[len(data)-1]) {
				t.Errorf("test %d, %s, level %d: trailer mismatch", i, v.desc, level)
			}
			output, err := decompress(data, nil)
			if err != nil {
				t.Errorf("test %d, %s, level %d: unexpected error: %v", i, v.desc, level, err)
			}
			if !bytes.Equal(output, v.input) {
				t.Errorf("test %d, %s, level %d: output mismatch", i, v.desc, level)
			}
		}
	}
}

func TestEmpty(t *testing.T) {
	data := compress(t, nil, DefaultCompression, nil)
	assert.Equal(t, testutil.MustDecodeHex("789c030000000001"), data)
}

func TestDictionary(t *testing.T) {
	dict := testutil.MustCorpus("text", 4096)
	input := append(append([]byte(nil), dict[1000:3000]...), "and a tail"...)

	data := compress(t, input, BestCompression, &WriterConfig{Dict: dict})
	if data[1]&0x20 == 0 {
		t.Fatalf("FDICT flag not set in header %x", data[:2])
	}
	withoutDict := compress(t, input, BestCompression, nil)
	if len(data) >= len(withoutDict) {
		t.Errorf("dictionary did not help: %d >= %d bytes", len(data), len(withoutDict))
	}

	output, err := decompress(data, &ReaderConfig{Dict: dict})
	assert.NoError(t, err)
	assert.Equal(t, input, output)

	// A stream that needs a dictionary cannot be read without one.
	_, err = decompress(data, nil)
	assert.True(t, errors.IsInvalid(err), "got %v", err)

	_, err = decompress(data, &ReaderConfig{Dict: []byte("wrong")})
	assert.Equal(t, ErrDictionary, err)

	// A dictionary given to the reader is ignored if the stream does not
	// need one.
	output, err = decompress(withoutDict, &ReaderConfig{Dict: dict})
	assert.NoError(t, err)
	assert.Equal(t, input, output)
}

func TestWriterReset(t *testing.T) {
	dict := []byte("hello, world")
	input := []byte("hello, world! hello, world!")

	var buf1, buf2 bytes.Buffer
	zw, err := NewWriter(&buf1, DefaultCompression, &WriterConfig{Dict: dict})
	assert.NoError(t, err)
	zw.Write(input)
	assert.NoError(t, zw.Close())

	// Reset must apply the dictionary again.
	assert.NoError(t, zw.Reset(&buf2))
	zw.Write(input)
	assert.NoError(t, zw.Close())
	assert.Equal(t, buf1.Bytes(), buf2.Bytes())

	output, err := decompress(buf2.Bytes(), &ReaderConfig{Dict: dict})
	assert.NoError(t, err)
	assert.Equal(t, input, output)
}

func TestReaderReset(t *testing.T) {
	input1 := testutil.MustCorpus("digits", 5000)
	input2 := testutil.MustCorpus("text", 5000)
	data1 := compress(t, input1, BestSpeed, nil)
	data2 := compress(t, input2, BestSpeed, nil)

	zr, err := NewReader(bytes.NewReader(data1), nil)
	assert.NoError(t, err)
	output, err := ioutil.ReadAll(zr)
	assert.NoError(t, err)
	assert.Equal(t, input1, output)
	assert.Equal(t, int64(len(data1)), zr.InputOffset)

	assert.NoError(t, zr.Reset(bytes.NewReader(data2)))
	output, err = ioutil.ReadAll(zr)
	assert.NoError(t, err)
	assert.Equal(t, input2, output)
	assert.Equal(t, int64(len(input2)), zr.OutputOffset)
}

func TestCorrupt(t *testing.T) {
	input := testutil.MustCorpus("text", 10000)
	data := compress(t, input, DefaultCompression, nil)

	// Flip a bit in the trailer.
	bad := append([]byte(nil), data...)
	bad[len(bad)-1] ^= 0x01
	output, err := decompress(bad, nil)
	assert.Equal(t, ErrChecksum, err)
	assert.Equal(t, input, output, "all data precedes the checksum")

	// Truncate the stream.
	_, err = decompress(data[:len(data)/2], nil)
	assert.Equal(t, io.ErrUnexpectedEOF, err)

	// Raw DEFLATE data lacks a valid header.
	var raw bytes.Buffer
	fw, _ := flate.NewWriter(&raw, DefaultCompression, nil)
	fw.Write(input)
	fw.Close()
	_, err = decompress(raw.Bytes(), nil)
	assert.True(t, errors.IsCorrupted(err), "got %v", err)
}

func TestCrossValidate(t *testing.T) {
	input := testutil.MustCorpus("repeats", 1<<17)

	// Ours, decoded by another implementation.
	for _, level := range []int{NoCompression, BestSpeed, 4, BestCompression} {
		data := compress(t, input, level, nil)
		kr, err := kpzlib.NewReader(bytes.NewReader(data))
		if err != nil {
			t.Fatalf("level %d: unexpected NewReader error: %v", level, err)
		}
		output, err := ioutil.ReadAll(kr)
		if err != nil {
			t.Errorf("level %d: unexpected error: %v", level, err)
		}
		if !bytes.Equal(output, input) {
			t.Errorf("level %d: output mismatch", level)
		}
	}

	// Another implementation's output, decoded by ours.
	var buf bytes.Buffer
	kw, err := kpzlib.NewWriterLevelDict(&buf, kpzlib.BestCompression, []byte("preset"))
	if err != nil {
		t.Fatalf("unexpected NewWriterLevelDict error: %v", err)
	}
	kw.Write(input)
	kw.Close()
	output, err := decompress(buf.Bytes(), &ReaderConfig{Dict: []byte("preset")})
	assert.NoError(t, err)
	assert.True(t, bytes.Equal(input, output), "output mismatch")
}

func TestInvalidLevel(t *testing.T) {
	_, err := NewWriter(ioutil.Discard, 10, nil)
	assert.True(t, errors.IsInvalid(err), "got %v", err)
	_, err = NewWriter(ioutil.Discard, -2, nil)
	assert.True(t, errors.IsInvalid(err), "got %v", err)
}
