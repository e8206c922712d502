// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/dsnet/zflate/internal/testutil"
	"github.com/dsnet/zflate/internal/tool/bench"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, args ...string) *CLI {
	t.Helper()
	var cli CLI
	parser, err := newParser(&cli)
	require.NoError(t, err)
	_, err = parser.Parse(args)
	require.NoError(t, err)
	return &cli
}

func TestVersionFlag(t *testing.T) {
	for _, arg := range []string{"-v", "--version"} {
		var cli CLI
		var out bytes.Buffer
		exit := -1
		parser, err := newParser(&cli,
			kong.Writers(&out, &out),
			kong.Exit(func(code int) { exit = code }),
			kong.Vars{"version": "1.2.3"},
		)
		require.NoError(t, err)
		parser.Parse([]string{arg}) // Parsing continues after the exit hook returns
		assert.Equal(t, 0, exit, "flag %s", arg)
		assert.Contains(t, out.String(), "1.2.3", "flag %s", arg)
	}
}

func TestParse(t *testing.T) {
	cli := parse(t, "compress", "-l", "9", "-s", "filtered", "-o", "out.zz", "in.txt")
	assert.Equal(t, 9, cli.Compress.Level)
	assert.Equal(t, "filtered", cli.Compress.Strategy)
	assert.Equal(t, "out.zz", cli.Compress.Output)
	assert.Equal(t, "in.txt", cli.Compress.Input)
	assert.Equal(t, "32768", cli.Compress.BufSize)

	cli = parse(t, "decompress", "--raw")
	assert.True(t, cli.Decompress.Raw)
	assert.Equal(t, "-", cli.Decompress.Input)
	assert.Equal(t, "-", cli.Decompress.Output)

	cli = parse(t, "-d", "bench", "-f", "fl,zl", "--levels", "6")
	assert.True(t, cli.Debug)
	assert.Equal(t, []string{"fl", "zl"}, cli.Bench.Formats)
	assert.Equal(t, []string{"6"}, cli.Bench.Levels)
}

func TestCompressRoundTrip(t *testing.T) {
	input := testutil.MustCorpus("text", 100000)
	dir := t.TempDir()
	dictFile := filepath.Join(dir, "dict")
	require.NoError(t, os.WriteFile(dictFile, input[:4096], 0644))

	var vectors = []struct {
		desc string
		opts streamOptions
	}{
		{"zlib", streamOptions{BufSize: "32768"}},
		{"raw", streamOptions{BufSize: "1000", Raw: true}},
		{"zlib with dictionary", streamOptions{BufSize: "4096", Dict: dictFile}},
	}
	for i, v := range vectors {
		for _, strategy := range []string{"default", "filtered", "huffman"} {
			var comp, decomp bytes.Buffer
			cc := &CompressCmd{streamOptions: v.opts, Level: 6, Strategy: strategy}
			if err := cc.compress(&comp, bytes.NewReader(input)); err != nil {
				t.Errorf("test %d, %s, %s: unexpected compress error: %v", i, v.desc, strategy, err)
				continue
			}
			dc := &DecompressCmd{streamOptions: v.opts}
			if err := dc.decompress(&decomp, &comp); err != nil {
				t.Errorf("test %d, %s, %s: unexpected decompress error: %v", i, v.desc, strategy, err)
				continue
			}
			if !bytes.Equal(decomp.Bytes(), input) {
				t.Errorf("test %d, %s, %s: output mismatch", i, v.desc, strategy)
			}
		}
	}
}

func TestCompressErrors(t *testing.T) {
	var buf bytes.Buffer
	cc := &CompressCmd{streamOptions: streamOptions{BufSize: "huge"}, Strategy: "default"}
	assert.Error(t, cc.compress(&buf, bytes.NewReader(nil)))

	cc = &CompressCmd{streamOptions: streamOptions{BufSize: "1024"}, Level: 10, Strategy: "default"}
	assert.Error(t, cc.compress(&buf, bytes.NewReader(nil)))

	cc = &CompressCmd{streamOptions: streamOptions{BufSize: "1024", Raw: true, Dict: "dict"}, Strategy: "default"}
	assert.Error(t, cc.compress(&buf, bytes.NewReader(nil)))

	dc := &DecompressCmd{streamOptions: streamOptions{BufSize: "1024"}}
	assert.Error(t, dc.decompress(&buf, bytes.NewReader([]byte("not a zlib stream"))))
}

func TestFiles(t *testing.T) {
	input := testutil.MustCorpus("repeats", 50000)
	dir := t.TempDir()
	raw := filepath.Join(dir, "input")
	comp := filepath.Join(dir, "input.zz")
	out := filepath.Join(dir, "output")
	require.NoError(t, os.WriteFile(raw, input, 0644))

	cc := &CompressCmd{streamOptions: streamOptions{Output: comp, BufSize: "32768"}, Level: 9, Strategy: "default", Input: raw}
	require.NoError(t, cc.Run())
	dc := &DecompressCmd{streamOptions: streamOptions{Output: out, BufSize: "32768"}, Input: comp}
	require.NoError(t, dc.Run())

	got, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(input, got), "output mismatch")

	dc.Input = filepath.Join(dir, "missing")
	assert.Error(t, dc.Run())
}

func TestBenchConfig(t *testing.T) {
	c := &BenchCmd{Levels: []string{"1", "9"}, Sizes: []string{"1e4"}}
	conf, err := c.config()
	require.NoError(t, err)
	assert.Equal(t, bench.Formats(), conf.Formats)
	assert.Len(t, conf.Tests, 3)
	assert.Equal(t, bench.Codecs(), conf.Codecs)
	assert.Equal(t, testutil.CorpusNames(), conf.Inputs)
	assert.Equal(t, []int{1, 9}, conf.Levels)
	assert.Equal(t, []int{10000}, conf.Sizes)

	_, err = (&BenchCmd{Formats: []string{"br"}}).config()
	assert.Error(t, err)
	_, err = (&BenchCmd{Tests: []string{"speed"}}).config()
	assert.Error(t, err)
	_, err = (&BenchCmd{Sizes: []string{"lots"}}).config()
	assert.Error(t, err)

	c = &BenchCmd{
		Formats: []string{"zl"},
		Tests:   []string{"ratio"},
		Codecs:  []string{"ds"},
		Inputs:  []string{"zeros"},
		Levels:  []string{"6"},
		Sizes:   []string{"1e4"},
	}
	conf, err = c.config()
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, runBench(&buf, conf))
	assert.Contains(t, buf.String(), "zeros:6:1e4")
}
