// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

// Command zflate compresses and decompresses DEFLATE and zlib streams, and
// benchmarks the flate package against other compression libraries.
//
// Example usage:
//
//	$ zflate compress -l 9 -o twain.txt.zz twain.txt
//	$ zflate decompress -o twain.txt twain.txt.zz
//	$ zflate bench --formats fl,zl --tests ratio --inputs text,repeats
package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"github.com/sirupsen/logrus"
)

// VERSION gets set during build
var VERSION = "0.0.0"

type CLI struct {
	Debug   bool             `kong:"help='Enable debug output',short='d'"`
	Version kong.VersionFlag `kong:"help='Show version and exit',short='v'"`

	Compress   CompressCmd   `kong:"cmd,help='Compress a file or standard input'"`
	Decompress DecompressCmd `kong:"cmd,help='Decompress a file or standard input'"`
	Bench      BenchCmd      `kong:"cmd,help='Compare codecs by speed and ratio'"`
}

func newParser(cli *CLI, opts ...kong.Option) (*kong.Kong, error) {
	return kong.New(cli, append([]kong.Option{
		kong.Name("zflate"),
		kong.Description("DEFLATE and zlib compression tool"),
		kong.UsageOnError(),
		kong.Vars{"version": VERSION},
	}, opts...)...)
}

func main() {
	var cli CLI
	parser, err := newParser(&cli)
	if err != nil {
		fmt.Println("ERROR: ", err)
		os.Exit(1)
	}

	ctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)

	if cli.Debug {
		logrus.Info("debug mode enabled")
		logrus.SetLevel(logrus.DebugLevel)
	}

	if err := ctx.Run(); err != nil {
		logrus.Errorf("%s failed: %s", ctx.Command(), err)
		os.Exit(1)
	}
}
