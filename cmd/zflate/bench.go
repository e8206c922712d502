// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package main

import (
	"io"
	"os"
	"time"

	"github.com/dsnet/golib/unitconv"
	"github.com/dsnet/zflate/internal/testutil"
	"github.com/dsnet/zflate/internal/tool/bench"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// BenchCmd runs benchmarks over every combination of the listed formats,
// tests, codecs, inputs, levels, and sizes. Empty lists select everything
// that is registered.
type BenchCmd struct {
	Formats []string `kong:"help='Formats to benchmark (fl, zl, xz, sz, lz4)',short='f'"`
	Tests   []string `kong:"help='Benchmark tests (encRate, decRate, ratio)',short='t'"`
	Codecs  []string `kong:"help='Codecs to benchmark',short='c'"`
	Inputs  []string `kong:"help='Generated corpora or input files',short='i'"`
	Paths   []string `kong:"help='Paths to search for input files',short='p'"`
	Levels  []string `kong:"help='Compression levels',default='1,6,9'"`
	Sizes   []string `kong:"help='Input sizes, such as 1e4 or 64Ki',default='1e4,1e5,1e6'"`
}

func (c *BenchCmd) Run() error {
	conf, err := c.config()
	if err != nil {
		return err
	}
	bench.Paths = c.Paths
	return runBench(os.Stdout, conf)
}

func runBench(w io.Writer, conf bench.Config) error {
	logrus.Debugf("benchmarking formats %v with codecs %v", conf.Formats, conf.Codecs)
	ts := time.Now()
	err := bench.Run(w, conf, func(done, total int) {
		logrus.Debugf("[%6.2f%%] %d of %d", 100.0*float64(done)/float64(total), done, total)
	})
	if err != nil {
		return errors.Wrap(err, "benchmark failed")
	}
	logrus.Infof("runtime: %v", time.Since(ts))
	return nil
}

func (c *BenchCmd) config() (conf bench.Config, err error) {
	if len(c.Formats) == 0 {
		conf.Formats = bench.Formats()
	}
	for _, s := range c.Formats {
		f, err := bench.ParseFormat(s)
		if err != nil {
			return conf, err
		}
		conf.Formats = append(conf.Formats, f)
	}

	if len(c.Tests) == 0 {
		conf.Tests = []bench.Test{bench.TestEncodeRate, bench.TestDecodeRate, bench.TestCompressRatio}
	}
	for _, s := range c.Tests {
		t, err := bench.ParseTest(s)
		if err != nil {
			return conf, err
		}
		conf.Tests = append(conf.Tests, t)
	}

	conf.Codecs = c.Codecs
	if len(conf.Codecs) == 0 {
		conf.Codecs = bench.Codecs()
	}
	conf.Inputs = c.Inputs
	if len(conf.Inputs) == 0 {
		conf.Inputs = testutil.CorpusNames()
	}

	for _, s := range c.Levels {
		lvl, err := unitconv.ParsePrefix(s, unitconv.AutoParse)
		if err != nil {
			return conf, errors.Wrapf(err, "invalid level %q", s)
		}
		conf.Levels = append(conf.Levels, int(lvl))
	}
	for _, s := range c.Sizes {
		n, err := unitconv.ParsePrefix(s, unitconv.AutoParse)
		if err != nil || n < 0 {
			return conf, errors.Errorf("invalid size %q", s)
		}
		conf.Sizes = append(conf.Sizes, int(n))
	}
	return conf, nil
}
