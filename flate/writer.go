// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package flate

import (
	"io"

	"github.com/dsnet/zflate/internal/errors"
)

// WriterConfig configures a Writer. The zero value uses the default strategy.
type WriterConfig struct {
	Strategy Strategy

	_ struct{} // Blank field to prevent unkeyed struct literals
}

// Writer compresses data written to it and writes the result to an
// underlying io.Writer.
type Writer struct {
	InputOffset  int64 // Total number of bytes issued to Write
	OutputOffset int64 // Total number of bytes written to underlying io.Writer

	wr  io.Writer
	fd  *Deflater
	buf [1 << 12]byte
	err error // Persistent error
}

// NewWriter creates a new Writer that writes raw DEFLATE data to w.
func NewWriter(w io.Writer, level int, conf *WriterConfig) (*Writer, error) {
	dc := &DeflaterConfig{NoHeader: true}
	if conf != nil {
		dc.Strategy = conf.Strategy
	}
	fd, err := NewDeflater(level, dc)
	if err != nil {
		return nil, err
	}
	return WrapDeflater(w, fd), nil
}

// WrapDeflater creates a Writer that compresses with fd, whose framing and
// dictionary are left as configured.
func WrapDeflater(w io.Writer, fd *Deflater) *Writer {
	return &Writer{wr: w, fd: fd}
}

func (zw *Writer) Write(buf []byte) (int, error) {
	if zw.err != nil {
		return 0, zw.err
	}
	if err := zw.fd.SetInput(buf); err != nil {
		zw.err = err
		return 0, err
	}
	for !zw.fd.IsNeedingInput() {
		if _, err := zw.deflate(); err != nil {
			return 0, err
		}
	}
	zw.InputOffset += int64(len(buf))
	return len(buf), nil
}

// Flush writes all pending data to the underlying writer, so that a reader
// can decompress everything written so far.
func (zw *Writer) Flush() error {
	if zw.err != nil {
		return zw.err
	}
	zw.fd.Flush()
	return zw.drain()
}

// Close ends the stream and flushes it to the underlying writer.
// It does not close the underlying writer.
func (zw *Writer) Close() error {
	if zw.err == ErrClosed {
		return nil
	}
	if zw.err != nil {
		return zw.err
	}
	zw.fd.Finish()
	if err := zw.drain(); err != nil {
		return err
	}
	if !zw.fd.IsFinished() {
		zw.err = errorf(errors.Internal, "stream did not finish")
		return zw.err
	}
	zw.err = ErrClosed
	return nil
}

// Reset discards the Writer's state and makes it equivalent to the result of
// its original state from NewWriter, but writing to w instead.
func (zw *Writer) Reset(w io.Writer) error {
	zw.InputOffset, zw.OutputOffset = 0, 0
	zw.wr = w
	zw.err = nil
	zw.fd.Reset()
	return nil
}

// drain runs the Deflater until it produces no more output.
func (zw *Writer) drain() error {
	for {
		n, err := zw.deflate()
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
	}
}

func (zw *Writer) deflate() (int, error) {
	n, err := zw.fd.Deflate(zw.buf[:])
	if err == nil && n > 0 {
		_, err = zw.wr.Write(zw.buf[:n])
		zw.OutputOffset += int64(n)
	}
	if err != nil {
		zw.err = err
		return n, err
	}
	return n, nil
}
