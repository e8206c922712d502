// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package testutil

import (
	"bytes"
	"sort"

	"github.com/pkg/errors"
)

// Corpora generated in memory. Every generator is deterministic for a given
// size so that compression ratios are comparable across runs.
var corpora = map[string]func(n int) []byte{
	"zeros":   genZeros,
	"random":  genRandom,
	"digits":  genDigits,
	"text":    genText,
	"repeats": genRepeats,
	"binary":  genBinary,
}

// CorpusNames returns the names accepted by Corpus in sorted order.
func CorpusNames() []string {
	var names []string
	for name := range corpora {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Corpus generates n bytes of the named test data.
func Corpus(name string, n int) ([]byte, error) {
	gen, ok := corpora[name]
	if !ok {
		return nil, errors.Errorf("testutil: unknown corpus %q", name)
	}
	if n < 0 {
		return nil, errors.Errorf("testutil: invalid corpus size %d", n)
	}
	return gen(n), nil
}

// MustCorpus generates the named test data or else panics.
func MustCorpus(name string, n int) []byte {
	b, err := Corpus(name, n)
	if err != nil {
		panic(err)
	}
	return b
}

func genZeros(n int) []byte { return make([]byte, n) }

func genRandom(n int) []byte { return NewRand(0).Bytes(n) }

// genDigits produces decimal digits from a linear congruential sequence.
// Only ten symbols appear, so prefix coding dominates.
func genDigits(n int) []byte {
	b := make([]byte, n)
	x := uint32(314159)
	for i := range b {
		x = x*1103515245 + 12345
		b[i] = '0' + byte((x>>16)%10)
	}
	return b
}

var words = bytes.Fields([]byte(`the of and to in is that for it as was with be by on not he
this are or his from at which but have an they you were her she there would
their we him been has when who will more no if out so said what up its about
into than them can only other new some could time these two may then do first
any my now such like our over man me even most made after also did many before
must through back years where much your way well down should because each just
those people how too little state good very make world still own see men work
long get here between both life being under never day same another know while
last might us great old year off come since against go came right used take`))

// genText produces English-like prose from a fixed vocabulary.
func genText(n int) []byte {
	r := NewRand(1)
	var b bytes.Buffer
	for b.Len() < n {
		cnt := 4 + r.Intn(12)
		for i := 0; i < cnt; i++ {
			w := words[r.Intn(len(words))]
			if i == 0 {
				b.WriteByte(w[0] - 'a' + 'A')
				b.Write(w[1:])
			} else {
				b.WriteByte(' ')
				b.Write(w)
			}
		}
		b.WriteString(".\n")
	}
	return b.Bytes()[:n]
}

// genBinary produces little-endian records with slowly changing fields,
// similar to a table of fixed-width integers.
func genBinary(n int) []byte {
	r := NewRand(2)
	b := make([]byte, 0, n+16)
	var id, ts uint32
	for len(b) < n {
		id++
		ts += uint32(1 + r.Intn(16))
		val := uint16(r.Intn(1 << 10))
		b = append(b,
			byte(id), byte(id>>8), byte(id>>16), byte(id>>24),
			byte(ts), byte(ts>>8), byte(ts>>16), byte(ts>>24),
			byte(val), byte(val>>8), 0, 0,
		)
	}
	return b[:n]
}

// genRepeats heavily favors LZ77 based compression since most of its data is
// a copy from some distance ago. The copied data is mostly random, so prefix
// coding does not benefit as much.
func genRepeats(n int) []byte {
	r := NewRand(3)
	b := make([]byte, 0, n+512)
	if n == 0 {
		return b
	}

	// pick returns a value in [lo, 2*lo) for one of the bucket lower bounds,
	// chosen by the given cumulative weights in percent.
	pick := func(los []int, cdf []int) int {
		p := r.Intn(100)
		for i, c := range cdf {
			if p < c {
				return los[i] + r.Intn(los[i])
			}
		}
		i := len(los) - 1
		return los[i] + r.Intn(los[i])
	}
	randLen := func() int {
		return pick(
			[]int{4, 8, 16, 32, 64, 128, 256},
			[]int{15, 30, 45, 60, 75, 90, 100},
		)
	}
	randDist := func() int {
		for {
			d := pick(
				[]int{1, 2, 4, 8, 16, 32, 64, 128, 256, 512, 1024, 2048, 4096, 8192, 16384},
				[]int{10, 20, 30, 40, 50, 55, 60, 65, 70, 75, 80, 85, 90, 95, 100},
			)
			if d <= len(b) {
				return d
			}
		}
	}
	writeRand := func(l int) {
		b = append(b, r.Bytes(l)...)
	}
	writeCopy := func(d, l int) {
		for i := 0; i < l; i++ {
			b = append(b, b[len(b)-d])
		}
	}

	// Seed enough history that a distance beyond the copy length can be drawn.
	writeRand(512)
	for len(b) < n {
		switch p := r.Intn(10); {
		case p < 1:
			writeRand(randLen())
		case p < 9:
			d, l := randDist(), randLen()
			for d <= l {
				d, l = randDist(), randLen()
			}
			writeCopy(d, l)
		default:
			writeCopy(randDist(), randLen())
		}
	}
	return b[:n]
}
