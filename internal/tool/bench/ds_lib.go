// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

//go:build !no_ds_lib
// +build !no_ds_lib

package bench

import (
	"io"

	"github.com/dsnet/zflate/flate"
	"github.com/dsnet/zflate/zlib"
)

func init() {
	RegisterEncoder(FormatFlate, "ds",
		func(w io.Writer, lvl int) io.WriteCloser {
			zw, err := flate.NewWriter(w, lvl, nil)
			if err != nil {
				panic(err)
			}
			return zw
		})
	RegisterDecoder(FormatFlate, "ds",
		func(r io.Reader) io.ReadCloser {
			zr, err := flate.NewReader(r, nil)
			if err != nil {
				panic(err)
			}
			return zr
		})
	RegisterEncoder(FormatZlib, "ds",
		func(w io.Writer, lvl int) io.WriteCloser {
			zw, err := zlib.NewWriter(w, lvl, nil)
			if err != nil {
				panic(err)
			}
			return zw
		})
	RegisterDecoder(FormatZlib, "ds",
		func(r io.Reader) io.ReadCloser {
			zr, err := zlib.NewReader(r, nil)
			if err != nil {
				panic(err)
			}
			return zr
		})
}
