// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package flate

import (
	"io"

	"github.com/dsnet/zflate/internal/errors"
)

// ReaderConfig configures a Reader. The zero value reads raw DEFLATE data.
type ReaderConfig struct {
	_ struct{} // Blank field to prevent unkeyed struct literals
}

// Reader decompresses a stream read from an underlying io.Reader.
type Reader struct {
	InputOffset  int64 // Total number of compressed bytes consumed
	OutputOffset int64 // Total number of bytes emitted from Read

	rd   io.Reader
	fi   *Inflater
	dict []byte // Preset dictionary, if any
	buf  [1 << 12]byte
	err  error // Persistent error
}

// NewReader creates a new Reader that decompresses raw DEFLATE data from r.
func NewReader(r io.Reader, conf *ReaderConfig) (*Reader, error) {
	return WrapInflater(r, NewInflater(&InflaterConfig{NoHeader: true}), nil), nil
}

// WrapInflater creates a Reader that decompresses r using fi, whose framing
// is left as configured. The dictionary is given to fi if the stream asks
// for one; it may be nil.
func WrapInflater(r io.Reader, fi *Inflater, dict []byte) *Reader {
	zr := &Reader{fi: fi, dict: dict}
	zr.Reset(r)
	return zr
}

func (zr *Reader) Read(buf []byte) (int, error) {
	if zr.err != nil {
		return 0, zr.err
	}
	if len(buf) == 0 {
		return 0, nil
	}
	for {
		n, err := zr.fi.Inflate(buf)
		zr.OutputOffset += int64(n)
		zr.InputOffset = zr.fi.TotalIn()
		if err != nil {
			zr.err = err
			return n, err
		}
		if n > 0 {
			return n, nil
		}

		switch {
		case zr.fi.IsFinished():
			zr.err = io.EOF
			return 0, io.EOF
		case zr.fi.IsNeedingDictionary():
			if zr.dict == nil {
				zr.err = errNeedDict
				return 0, zr.err
			}
			if err := zr.fi.SetDictionary(zr.dict); err != nil {
				zr.err = err
				return 0, err
			}
		case zr.fi.IsNeedingInput():
			cnt, err := zr.rd.Read(zr.buf[:])
			if cnt > 0 {
				if err := zr.fi.SetInput(zr.buf[:cnt]); err != nil {
					zr.err = err
					return 0, err
				}
				continue
			}
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			if err != nil {
				zr.err = err
				return 0, err
			}
		default:
			zr.err = errorf(errors.Internal, "inflater made no progress")
			return 0, zr.err
		}
	}
}

// Close ends the Reader. It reports the persistent error, if any, other than
// the normal end of the stream.
func (zr *Reader) Close() error {
	if zr.err == io.EOF || zr.err == ErrClosed {
		zr.err = ErrClosed
		return nil
	}
	err := zr.err
	zr.err = ErrClosed
	return err
}

// Reset discards the Reader's state and makes it equivalent to the result of
// its original state from NewReader, but reading from r instead.
func (zr *Reader) Reset(r io.Reader) error {
	zr.InputOffset, zr.OutputOffset = 0, 0
	zr.rd = r
	zr.err = nil
	zr.fi.Reset()
	return nil
}
