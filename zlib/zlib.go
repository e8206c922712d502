// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

// Package zlib implements reading and writing of zlib streams, described in
// RFC 1950, on top of the DEFLATE implementation in package flate.
package zlib

import (
	"io"

	"github.com/dsnet/zflate/flate"
)

const (
	NoCompression      = flate.NoCompression
	BestSpeed          = flate.BestSpeed
	BestCompression    = flate.BestCompression
	DefaultCompression = flate.DefaultCompression
)

var (
	// ErrChecksum reports an Adler-32 trailer that does not match the data.
	ErrChecksum = flate.ErrChecksum

	// ErrDictionary reports a preset dictionary that does not match the
	// identifier in the stream header.
	ErrDictionary = flate.ErrDictionary
)

// WriterConfig configures a Writer.
type WriterConfig struct {
	Strategy flate.Strategy

	// Dict is a preset dictionary. The stream header records its Adler-32
	// and the same dictionary must be given to the Reader.
	Dict []byte

	_ struct{} // Blank field to prevent unkeyed struct literals
}

// ReaderConfig configures a Reader.
type ReaderConfig struct {
	// Dict is the preset dictionary to use if the stream asks for one.
	Dict []byte

	_ struct{} // Blank field to prevent unkeyed struct literals
}

// Writer compresses data into a zlib stream.
type Writer struct {
	*flate.Writer
	fd   *flate.Deflater
	dict []byte
}

// NewWriter creates a new Writer at the given compression level.
func NewWriter(w io.Writer, level int, conf *WriterConfig) (*Writer, error) {
	var dc flate.DeflaterConfig
	var dict []byte
	if conf != nil {
		dc.Strategy = conf.Strategy
		dict = conf.Dict
	}
	fd, err := flate.NewDeflater(level, &dc)
	if err != nil {
		return nil, err
	}
	zw := &Writer{Writer: flate.WrapDeflater(w, fd), fd: fd, dict: dict}
	if err := zw.setDict(); err != nil {
		return nil, err
	}
	return zw, nil
}

func (zw *Writer) setDict() error {
	if zw.dict == nil {
		return nil
	}
	return zw.fd.SetDictionary(zw.dict)
}

// Reset discards the Writer's state and makes it write a new stream to w,
// using the same level, strategy, and dictionary.
func (zw *Writer) Reset(w io.Writer) error {
	if err := zw.Writer.Reset(w); err != nil {
		return err
	}
	return zw.setDict()
}

// Reader decompresses a zlib stream.
type Reader struct {
	*flate.Reader
}

// NewReader creates a new Reader that decompresses the zlib stream in r.
func NewReader(r io.Reader, conf *ReaderConfig) (*Reader, error) {
	var dict []byte
	if conf != nil {
		dict = conf.Dict
	}
	fi := flate.NewInflater(nil)
	return &Reader{flate.WrapInflater(r, fi, dict)}, nil
}
