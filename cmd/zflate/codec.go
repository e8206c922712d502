// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package main

import (
	"io"
	"os"

	"github.com/dsnet/golib/unitconv"
	"github.com/dsnet/zflate/flate"
	"github.com/dsnet/zflate/zlib"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var strategies = map[string]flate.Strategy{
	"default":  flate.DefaultStrategy,
	"filtered": flate.Filtered,
	"huffman":  flate.HuffmanOnly,
}

// streamOptions are shared by compress and decompress.
type streamOptions struct {
	Output  string `kong:"help='Output file, - for standard output',short='o',default='-'"`
	Raw     bool   `kong:"help='Use raw DEFLATE data without zlib framing',short='r'"`
	Dict    string `kong:"help='Preset dictionary file (zlib only)',type='path'"`
	BufSize string `kong:"help='Size of the copy buffer, such as 65536 or 64Ki',default='32768'"`
}

func (o *streamOptions) bufSize() (int, error) {
	f, err := unitconv.ParsePrefix(o.BufSize, unitconv.AutoParse)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid buffer size %q", o.BufSize)
	}
	if f < 1 || f > 1<<30 {
		return 0, errors.Errorf("buffer size out of range: %s", o.BufSize)
	}
	return int(f), nil
}

func (o *streamOptions) dict() ([]byte, error) {
	if o.Dict == "" {
		return nil, nil
	}
	if o.Raw {
		return nil, errors.New("a preset dictionary requires zlib framing")
	}
	b, err := os.ReadFile(o.Dict)
	if err != nil {
		return nil, errors.Wrap(err, "unable to read dictionary")
	}
	return b, nil
}

type CompressCmd struct {
	streamOptions
	Level    int    `kong:"help='Compression level from 0 to 9, or -1 for the default',short='l',default='-1'"`
	Strategy string `kong:"help='Match search strategy',short='s',enum='default,filtered,huffman',default='default'"`
	Input    string `kong:"arg,help='Input file, - for standard input',default='-'"`
}

func (c *CompressCmd) Run() error {
	return withFiles(c.Input, c.Output, c.compress)
}

func (c *CompressCmd) compress(w io.Writer, r io.Reader) error {
	bufSize, err := c.bufSize()
	if err != nil {
		return err
	}
	dict, err := c.dict()
	if err != nil {
		return err
	}
	strategy, ok := strategies[c.Strategy]
	if !ok {
		return errors.Errorf("unknown strategy %q", c.Strategy)
	}

	cw := &countWriter{w: w}
	var zw io.WriteCloser
	if c.Raw {
		zw, err = flate.NewWriter(cw, c.Level, &flate.WriterConfig{Strategy: strategy})
	} else {
		zw, err = zlib.NewWriter(cw, c.Level, &zlib.WriterConfig{Strategy: strategy, Dict: dict})
	}
	if err != nil {
		return errors.Wrap(err, "unable to create compressor")
	}

	logrus.Debugf("compressing at level %d with %v strategy, raw: %v", c.Level, strategy, c.Raw)
	n, err := io.CopyBuffer(zw, r, make([]byte, bufSize))
	if err != nil {
		return errors.Wrap(err, "compression failed")
	}
	if err := zw.Close(); err != nil {
		return errors.Wrap(err, "unable to finish stream")
	}
	logStats("compressed", n, cw.n, ratio(n, cw.n))
	return nil
}

type DecompressCmd struct {
	streamOptions
	Input string `kong:"arg,help='Input file, - for standard input',default='-'"`
}

func (c *DecompressCmd) Run() error {
	return withFiles(c.Input, c.Output, c.decompress)
}

func (c *DecompressCmd) decompress(w io.Writer, r io.Reader) error {
	bufSize, err := c.bufSize()
	if err != nil {
		return err
	}
	dict, err := c.dict()
	if err != nil {
		return err
	}

	var zr io.ReadCloser
	var offset func() int64
	if c.Raw {
		fr, err := flate.NewReader(r, nil)
		if err != nil {
			return errors.Wrap(err, "unable to create decompressor")
		}
		zr, offset = fr, func() int64 { return fr.InputOffset }
	} else {
		fr, err := zlib.NewReader(r, &zlib.ReaderConfig{Dict: dict})
		if err != nil {
			return errors.Wrap(err, "unable to create decompressor")
		}
		zr, offset = fr, func() int64 { return fr.InputOffset }
	}

	n, err := io.CopyBuffer(w, zr, make([]byte, bufSize))
	if err != nil {
		return errors.Wrapf(err, "decompression failed after %d input bytes", offset())
	}
	if err := zr.Close(); err != nil {
		return errors.Wrap(err, "unable to finish stream")
	}
	logStats("decompressed", offset(), n, ratio(n, offset()))
	return nil
}

func ratio(raw, comp int64) float64 {
	if comp == 0 {
		return 0
	}
	return float64(raw) / float64(comp)
}

func logStats(verb string, in, out int64, ratio float64) {
	logrus.Infof("%s %sB to %sB (ratio %.2fx)", verb,
		unitconv.FormatPrefix(float64(in), unitconv.Base1024, 2),
		unitconv.FormatPrefix(float64(out), unitconv.Base1024, 2),
		ratio)
}

// withFiles opens the named input and output, where "-" selects the
// standard streams, and calls f with them.
func withFiles(input, output string, f func(io.Writer, io.Reader) error) (err error) {
	var r io.Reader = os.Stdin
	if input != "-" {
		rf, err := os.Open(input)
		if err != nil {
			return errors.Wrap(err, "unable to open input")
		}
		defer rf.Close()
		r = rf
	}

	var w io.Writer = os.Stdout
	if output != "-" {
		wf, err := os.Create(output)
		if err != nil {
			return errors.Wrap(err, "unable to create output")
		}
		defer func() {
			if cerr := wf.Close(); err == nil && cerr != nil {
				err = errors.Wrap(cerr, "unable to close output")
			}
		}()
		w = wf
	}
	return f(w, r)
}

type countWriter struct {
	w io.Writer
	n int64
}

func (cw *countWriter) Write(b []byte) (int, error) {
	n, err := cw.w.Write(b)
	cw.n += int64(n)
	return n, err
}
