// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package flate

import (
	"hash"
	"hash/adler32"

	"github.com/dsnet/zflate/internal/errors"
)

type inflaterState int

const (
	inflateHeader inflaterState = iota
	inflateDict
	inflateBlocks
	inflateStoredLen1
	inflateStoredLen2
	inflateStored
	inflateDynHeader
	inflateHuffman
	inflateHuffmanLenBits
	inflateHuffmanDist
	inflateHuffmanDistBits
	inflateChecksum
	inflateFinished
)

// InflaterConfig configures an Inflater. The zero value expects zlib framing.
type InflaterConfig struct {
	// NoHeader selects raw DEFLATE data without the zlib header and trailer.
	NoHeader bool

	_ struct{} // Blank field to prevent unkeyed struct literals
}

// Inflater decompresses DEFLATE data held in caller-provided buffers.
//
// Input is handed over with SetInput and output is produced into the slice
// given to Inflate. When Inflate returns zero bytes, the caller should consult
// IsNeedingInput, IsNeedingDictionary, and IsFinished to decide what to do.
type Inflater struct {
	state      inflaterState
	noHeader   bool
	lastBlock  bool
	neededBits uint // Remaining bits of a multi-step header field
	readAdler  uint32
	repLength  int
	repDist    int
	storedLen  int
	totalIn    int64
	totalOut   int64
	err        error

	br       bitReader
	win      outputWindow
	dyn      dynHeader
	litTree  *prefixDecoder
	distTree *prefixDecoder
	dynLit   prefixDecoder
	dynDist  prefixDecoder
	adler    hash.Hash32
}

// NewInflater creates a new Inflater. A nil conf expects zlib framing.
func NewInflater(conf *InflaterConfig) *Inflater {
	f := new(Inflater)
	if conf != nil {
		f.noHeader = conf.NoHeader
	}
	f.adler = adler32.New()
	f.Reset()
	return f
}

// Reset discards all state, making the Inflater ready for a new stream.
// Decoding tables are reused.
func (f *Inflater) Reset() {
	f.state = inflateHeader
	if f.noHeader {
		f.state = inflateBlocks
	}
	f.lastBlock = false
	f.neededBits = 0
	f.readAdler = 0
	f.repLength, f.repDist, f.storedLen = 0, 0, 0
	f.totalIn, f.totalOut = 0, 0
	f.err = nil
	f.litTree, f.distTree = nil, nil
	f.br.Reset()
	f.win.Reset()
	f.dyn.Reset()
	f.adler.Reset()
}

// SetInput binds buf as the next input. The Inflater keeps a reference to buf
// until IsNeedingInput reports true again.
func (f *Inflater) SetInput(buf []byte) error {
	if !f.br.IsNeedingInput() {
		return errorf(errors.Invalid, "previous input was not completely consumed")
	}
	f.br.SetInput(buf)
	f.totalIn += int64(len(buf))
	return nil
}

// SetDictionary supplies the preset dictionary announced by the header.
// It is only valid while IsNeedingDictionary reports true.
func (f *Inflater) SetDictionary(dict []byte) error {
	if !f.IsNeedingDictionary() {
		return errorf(errors.Invalid, "dictionary is not needed")
	}
	if adler32.Checksum(dict) != f.readAdler {
		return ErrDictionary
	}
	f.adler.Reset()
	f.win.CopyDict(dict)
	f.state = inflateBlocks
	return nil
}

// Inflate decompresses into out and reports the number of bytes produced.
// A return of zero with a nil error means that more input or a dictionary is
// needed, or that the stream is finished. Errors are sticky until Reset.
func (f *Inflater) Inflate(out []byte) (n int, err error) {
	if f.err != nil {
		return 0, f.err
	}
	defer func() {
		if err != nil {
			// Hand out what was decoded before the error.
			cnt := f.win.CopyOutput(out[n:])
			f.adler.Write(out[n : n+cnt])
			n += cnt
			f.totalOut += int64(cnt)
			f.err = err
		}
	}()
	defer errors.Recover(&err)

	if len(out) == 0 {
		if !f.IsFinished() {
			f.decode() // Still check the header and dictionary identifier
		}
		return 0, nil
	}
	for {
		cnt := f.win.CopyOutput(out[n:])
		if cnt > 0 {
			f.adler.Write(out[n : n+cnt])
			n += cnt
			f.totalOut += int64(cnt)
			if n == len(out) {
				return n, nil
			}
		}
		if !f.decode() && f.win.Available() == 0 {
			return n, nil
		}
	}
}

// IsNeedingInput reports whether the Inflater has consumed all of its input.
func (f *Inflater) IsNeedingInput() bool {
	return f.br.IsNeedingInput()
}

// IsNeedingDictionary reports whether the stream header announced a preset
// dictionary that must be provided with SetDictionary.
func (f *Inflater) IsNeedingDictionary() bool {
	return f.state == inflateDict && f.neededBits == 0
}

// IsFinished reports whether the whole stream, including the trailer,
// has been decoded and all output has been returned.
func (f *Inflater) IsFinished() bool {
	return f.state == inflateFinished && f.win.Available() == 0
}

// Adler returns the Adler-32 of the output produced so far, or the expected
// dictionary identifier while a dictionary is needed.
func (f *Inflater) Adler() uint32 {
	if f.IsNeedingDictionary() {
		return f.readAdler
	}
	return f.adler.Sum32()
}

// TotalIn reports the number of compressed bytes consumed.
func (f *Inflater) TotalIn() int64 {
	return f.totalIn - int64(f.RemainingInput())
}

// TotalOut reports the number of decompressed bytes returned.
func (f *Inflater) TotalOut() int64 {
	return f.totalOut
}

// RemainingInput reports how many input bytes have not been consumed.
// After the stream is finished, these are the bytes that follow it.
func (f *Inflater) RemainingInput() int {
	return f.br.AvailableBytes()
}

// decode advances the state machine and reports whether it made progress.
// It returns false when it needs input or a dictionary, or when finished.
func (f *Inflater) decode() bool {
	switch f.state {
	case inflateHeader:
		return f.decodeHeader()
	case inflateDict:
		return f.decodeDict()
	case inflateChecksum:
		return f.decodeChecksum()
	case inflateBlocks:
		if f.lastBlock {
			if f.noHeader {
				f.state = inflateFinished
				return false
			}
			f.br.SkipToByteBoundary()
			f.neededBits = 32
			f.state = inflateChecksum
			return true
		}

		v, ok := f.br.PeekBits(3)
		if !ok {
			return false
		}
		f.br.DropBits(3)
		f.lastBlock = v&1 > 0
		switch v >> 1 {
		case blockStored:
			f.br.SkipToByteBoundary()
			f.state = inflateStoredLen1
		case blockFixed:
			ft := getFixedTables()
			f.litTree, f.distTree = &ft.litDecoder, &ft.distDecoder
			f.state = inflateHuffman
		case blockDynamic:
			f.dyn.Reset()
			f.state = inflateDynHeader
		default:
			errors.Panic(ErrCorrupt) // Reserved block type
		}
		return true
	case inflateStoredLen1:
		if !f.br.TryGetBits(16, &f.storedLen, 0) {
			return false
		}
		f.state = inflateStoredLen2
		fallthrough
	case inflateStoredLen2:
		var nlen int
		if !f.br.TryGetBits(16, &nlen, 0) {
			return false
		}
		if nlen != f.storedLen^0xffff {
			errors.Panic(ErrCorrupt)
		}
		f.state = inflateStored
		fallthrough
	case inflateStored:
		f.storedLen -= f.win.CopyStored(&f.br, f.storedLen)
		if f.storedLen == 0 {
			f.state = inflateBlocks
			return true
		}
		return !f.br.IsNeedingInput()
	case inflateDynHeader:
		if !f.dyn.Decode(&f.br, &f.dynLit, &f.dynDist) {
			return false
		}
		f.litTree, f.distTree = &f.dynLit, &f.dynDist
		f.state = inflateHuffman
		fallthrough
	case inflateHuffman, inflateHuffmanLenBits, inflateHuffmanDist, inflateHuffmanDistBits:
		return f.decodeHuffman()
	case inflateFinished:
		return false
	default:
		errors.Panic(errorf(errors.Internal, "invalid state: %d", f.state))
		return false
	}
}

func (f *Inflater) decodeHeader() bool {
	v, ok := f.br.PeekBits(16)
	if !ok {
		return false
	}
	f.br.DropBits(16)

	// The header is stored most-significant byte first.
	hdr := int(v&0xff)<<8 | int(v>>8)
	if hdr%31 != 0 || hdr>>8&0xf != zlibDeflate {
		errors.Panic(ErrCorrupt)
	}
	if hdr&zlibPresetDict > 0 {
		f.state = inflateDict
		f.neededBits = 32
	} else {
		f.state = inflateBlocks
	}
	return true
}

// decodeDict reads the dictionary identifier. It always returns false since
// the caller has to provide the dictionary before decoding can continue.
func (f *Inflater) decodeDict() bool {
	f.readUint32MSB()
	return false
}

func (f *Inflater) decodeChecksum() bool {
	// The checksum covers output as it leaves the window,
	// so it can only be verified once the window is drained.
	if f.win.Available() > 0 || !f.readUint32MSB() {
		return false
	}
	if f.readAdler != f.adler.Sum32() {
		errors.Panic(ErrChecksum)
	}
	f.state = inflateFinished
	return false
}

// readUint32MSB accumulates a big-endian 32-bit value into readAdler one byte
// at a time, tracking progress in neededBits.
func (f *Inflater) readUint32MSB() bool {
	for f.neededBits > 0 {
		v, ok := f.br.PeekBits(8)
		if !ok {
			return false
		}
		f.br.DropBits(8)
		f.readAdler = f.readAdler<<8 | uint32(v)
		f.neededBits -= 8
	}
	return true
}

// decodeHuffman decodes symbols of a compressed block for as long as the
// window has room for a maximal match.
func (f *Inflater) decodeHuffman() bool {
	free := f.win.FreeSpace()
	for free >= maxMatchLen {
		switch f.state {
		case inflateHuffman:
			for {
				sym, ok := f.litTree.Decode(&f.br)
				if !ok {
					return false
				}
				if sym < endBlockSym {
					f.win.Write(byte(sym))
					if free--; free < maxMatchLen {
						return true
					}
					continue
				}
				if sym == endBlockSym {
					f.litTree, f.distTree = nil, nil
					f.state = inflateBlocks
					return true
				}
				if sym >= maxNumLitSyms {
					errors.Panic(ErrCorrupt)
				}
				rc := lenLUT[sym-257]
				f.repLength = int(rc.base)
				f.neededBits = uint(rc.bits)
				break
			}
			f.state = inflateHuffmanLenBits
			fallthrough
		case inflateHuffmanLenBits:
			if f.neededBits > 0 {
				if !f.br.TryGetBits(f.neededBits, &f.repLength, f.repLength) {
					return false
				}
			}
			f.state = inflateHuffmanDist
			fallthrough
		case inflateHuffmanDist:
			sym, ok := f.distTree.Decode(&f.br)
			if !ok {
				return false
			}
			if sym >= maxNumDistSyms {
				errors.Panic(ErrCorrupt)
			}
			rc := distLUT[sym]
			f.repDist = int(rc.base)
			f.neededBits = uint(rc.bits)
			f.state = inflateHuffmanDistBits
			fallthrough
		case inflateHuffmanDistBits:
			if f.neededBits > 0 {
				if !f.br.TryGetBits(f.neededBits, &f.repDist, f.repDist) {
					return false
				}
			}
			f.win.Repeat(f.repLength, f.repDist)
			free -= f.repLength
			f.state = inflateHuffman
		default:
			errors.Panic(errorf(errors.Internal, "invalid state: %d", f.state))
		}
	}
	return true
}
