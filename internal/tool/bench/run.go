// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package bench

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/pkg/errors"
)

// The decompression speed benchmark works by decompressing some pre-compressed
// data. In order for the benchmarks to be consistent, the same encoder should
// be used to generate the pre-compressed data for all the trials.
//
// encRefs defines the priority order for which encoders to choose first as the
// reference compressor. If no compressor is found for any of the listed codecs,
// then an arbitrary encoder will be chosen.
var encRefs = []string{"std", "kp", "ds"}

// Config selects the benchmarks performed by Run. Every combination of the
// listed formats, tests, inputs, levels, and sizes is measured for each
// codec that supports the format.
type Config struct {
	Formats []Format
	Tests   []Test
	Codecs  []string
	Inputs  []string
	Levels  []int
	Sizes   []int
}

// Progress is called before each measurement with the number of completed
// measurements and the total for the current test.
type Progress func(done, total int)

// Run performs the configured benchmarks and writes a table of results
// for each format and test to w.
func Run(w io.Writer, c Config, progress Progress) error {
	for _, f := range c.Formats {
		// Get lists of encoders and decoders that exist.
		var encs, decs []string
		for _, name := range c.Codecs {
			if _, ok := Encoders[f][name]; ok {
				encs = append(encs, name)
			}
		}
		for _, name := range c.Codecs {
			if _, ok := Decoders[f][name]; ok {
				decs = append(decs, name)
			}
		}

		for _, t := range c.Tests {
			var results [][]Result
			var names, codecs []string
			var title, suffix string

			// Check that we can actually do this bench.
			fmt.Fprintf(w, "BENCHMARK: %v:%v\n", f, t)
			if len(encs) == 0 {
				fmt.Fprintf(w, "\tSKIP: There are no encoders available.\n\n")
				continue
			}
			if len(decs) == 0 && t == TestDecodeRate {
				fmt.Fprintf(w, "\tSKIP: There are no decoders available.\n\n")
				continue
			}

			var cnt int
			tick := func() {
				if progress != nil {
					progress(cnt, len(codecs)*len(c.Inputs)*len(c.Levels)*len(c.Sizes))
				}
				cnt++
			}

			// Perform the bench. This may take some time.
			switch t {
			case TestEncodeRate:
				codecs, title, suffix = encs, "MB/s", ""
				results, names = BenchmarkEncoderSuite(f, encs, c.Inputs, c.Levels, c.Sizes, tick)
			case TestDecodeRate:
				ref := referenceEncoder(f)
				codecs, title, suffix = decs, "MB/s", ""
				results, names = BenchmarkDecoderSuite(f, decs, c.Inputs, c.Levels, c.Sizes, ref, tick)
			case TestCompressRatio:
				codecs, title, suffix = encs, "ratio", "x"
				results, names = BenchmarkRatioSuite(f, encs, c.Inputs, c.Levels, c.Sizes, tick)
			default:
				return errors.Errorf("unknown test: %v", t)
			}

			WriteResults(w, results, names, codecs, title, suffix)
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w)
	}
	return nil
}

func referenceEncoder(f Format) Encoder {
	for _, c := range encRefs {
		if enc, ok := Encoders[f][c]; ok {
			return enc // Choose by priority
		}
	}
	for _, enc := range Encoders[f] {
		return enc // Choose any encoder
	}
	return nil // There are no encoders
}

// WriteResults writes results as a padded table with one row per name and
// a rate (or ratio) column plus a delta column per codec.
func WriteResults(w io.Writer, results [][]Result, names, codecs []string, title, suffix string) {
	// Allocate result table.
	cells := make([][]string, 1+len(names))
	for i := range cells {
		cells[i] = make([]string, 1+2*len(codecs))
	}

	// Label the first row.
	cells[0][0] = "benchmark"
	for i, c := range codecs {
		cells[0][1+2*i] = c + " " + title
		cells[0][2+2*i] = "delta"
	}

	// Insert all rows.
	for j, row := range results {
		cells[1+j][0] = names[j]
		for i, r := range row {
			if r.R != 0 && !math.IsNaN(r.R) && !math.IsInf(r.R, 0) {
				cells[1+j][1+2*i] = fmt.Sprintf("%.2f", r.R) + suffix
			}
			if r.D != 0 && !math.IsNaN(r.D) && !math.IsInf(r.D, 0) {
				cells[1+j][2+2*i] = fmt.Sprintf("%.2f", r.D) + "x"
			}
		}
	}

	// Compute the maximum lengths.
	maxLens := make([]int, 1+2*len(codecs))
	for _, row := range cells {
		for i, s := range row {
			if maxLens[i] < len(s) {
				maxLens[i] = len(s)
			}
		}
	}

	// Print padded versions of all cells.
	for _, row := range cells {
		fmt.Fprint(w, "\t")
		for i, s := range row {
			switch {
			case i == 0: // Column 0
				row[i] = s + strings.Repeat(" ", maxLens[i]-len(s))
			case i%2 == 1: // Column 1, 3, 5, 7, ...
				row[i] = strings.Repeat(" ", 6+maxLens[i]-len(s)) + s
			case i%2 == 0: // Column 2, 4, 6, 8, ...
				row[i] = strings.Repeat(" ", 2+maxLens[i]-len(s)) + s
			}
			fmt.Fprint(w, row[i])
		}
		fmt.Fprintln(w)
	}
}
