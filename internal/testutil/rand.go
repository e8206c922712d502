// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package testutil

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/binary"
)

// Rand is a deterministic pseudo-random source built on AES in counter mode.
// Unlike math/rand, its output is fixed across Go releases, which keeps
// generated corpora and compression ratios stable.
type Rand struct {
	s   cipher.Stream
	buf [8]byte
}

func NewRand(seed int) *Rand {
	var key, iv [aes.BlockSize]byte
	binary.LittleEndian.PutUint64(key[:], uint64(seed))
	blk, _ := aes.NewCipher(key[:])
	return &Rand{s: cipher.NewCTR(blk, iv[:])}
}

// Read fills b with pseudo-random bytes. It never fails.
func (r *Rand) Read(b []byte) (int, error) {
	for i := range b {
		b[i] = 0
	}
	r.s.XORKeyStream(b, b)
	return len(b), nil
}

// Int returns a non-negative pseudo-random int of at most 62 bits.
func (r *Rand) Int() int {
	r.Read(r.buf[:])
	return int(binary.LittleEndian.Uint64(r.buf[:]) >> 2)
}

// Intn returns a pseudo-random int in [0, n). It panics if n <= 0.
func (r *Rand) Intn(n int) int {
	if n <= 0 {
		panic("testutil: invalid argument to Intn")
	}
	return r.Int() % n
}

// Bytes returns n pseudo-random bytes.
func (r *Rand) Bytes(n int) []byte {
	b := make([]byte, n)
	r.Read(b)
	return b
}
