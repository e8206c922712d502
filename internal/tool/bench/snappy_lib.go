// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

//go:build !no_snappy_lib
// +build !no_snappy_lib

package bench

import (
	"io"
	"io/ioutil"

	"github.com/golang/snappy"
)

func init() {
	// Snappy has a single speed; the level is ignored.
	RegisterEncoder(FormatSnappy, "gs",
		func(w io.Writer, _ int) io.WriteCloser {
			return snappy.NewBufferedWriter(w)
		})
	RegisterDecoder(FormatSnappy, "gs",
		func(r io.Reader) io.ReadCloser {
			return ioutil.NopCloser(snappy.NewReader(r))
		})
}
