// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package flate

import "github.com/dsnet/zflate/internal/errors"

type deflaterState int

const (
	deflaterInit      deflaterState = iota // Header not yet written
	deflaterSetDict                        // Header not yet written, dictionary set
	deflaterBusy                           // Compressing input
	deflaterFlushing                       // Busy, with a flush requested
	deflaterFinishing                      // Busy, with the end of stream requested
	deflaterFinished                       // Trailer written
	deflaterClosed
)

func (s deflaterState) String() string {
	switch s {
	case deflaterInit:
		return "init"
	case deflaterSetDict:
		return "setdict"
	case deflaterBusy:
		return "busy"
	case deflaterFlushing:
		return "flushing"
	case deflaterFinishing:
		return "finishing"
	case deflaterFinished:
		return "finished"
	case deflaterClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// deflaterEvent is an input to the Deflater state machine.
type deflaterEvent int

const (
	evHeader deflaterEvent = iota // Header has been written
	evDict                        // Dictionary was set
	evFlush                       // Flush was requested
	evFinish                      // Finish was requested
	evIdle                        // Engine made no progress
	evReset                       // Reset was called
	evClose                       // End was called
)

// DeflaterConfig configures a Deflater. The zero value produces zlib framing
// with the default strategy.
type DeflaterConfig struct {
	// Strategy alters the match search. See the Strategy constants.
	Strategy Strategy

	// NoHeader omits the zlib header and Adler-32 trailer,
	// producing raw DEFLATE data.
	NoHeader bool

	_ struct{} // Blank field to prevent unkeyed struct literals
}

// Deflater compresses data held in caller-provided buffers.
//
// Input is handed over with SetInput. Each call to Deflate fills the given
// slice with as much compressed output as is currently available. Flush and
// Finish request that all input given so far is emitted, the latter also
// ending the stream.
type Deflater struct {
	state     deflaterState
	flushReq  bool
	finishReq bool
	dictSet   bool
	level     int
	noHeader  bool
	totalOut  int64

	bw  bitWriter
	enc *blockEncoder
	eng *matcher
}

// NewDeflater creates a new Deflater at the given compression level, which is
// either DefaultCompression or in the range NoCompression to BestCompression.
// A nil conf produces zlib framing with the default strategy.
func NewDeflater(level int, conf *DeflaterConfig) (*Deflater, error) {
	lvl, err := normalizeLevel(level)
	if err != nil {
		return nil, err
	}
	d := new(Deflater)
	d.enc = newBlockEncoder(&d.bw)
	d.eng = newMatcher(d.enc)
	if conf != nil {
		d.noHeader = conf.NoHeader
		if err := d.SetStrategy(conf.Strategy); err != nil {
			return nil, err
		}
	}
	d.level = lvl
	d.eng.setLevel(lvl)
	d.Reset()
	return d, nil
}

// next is the transition function of the state machine.
func (d *Deflater) next(ev deflaterEvent) deflaterState {
	switch ev {
	case evReset:
		d.flushReq, d.finishReq, d.dictSet = false, false, false
		if d.noHeader {
			return deflaterBusy
		}
		return deflaterInit
	case evClose:
		return deflaterClosed
	}

	switch d.state {
	case deflaterInit, deflaterSetDict:
		switch ev {
		case evDict:
			d.dictSet = true
			return deflaterSetDict
		case evFlush:
			d.flushReq = true
			return d.state
		case evFinish:
			d.flushReq, d.finishReq = true, true
			return d.state
		case evHeader:
			return d.busyState()
		}
	case deflaterBusy, deflaterFlushing, deflaterFinishing:
		switch ev {
		case evFlush:
			d.flushReq = true
			return d.busyState()
		case evFinish:
			d.flushReq, d.finishReq = true, true
			return d.busyState()
		case evIdle:
			switch d.state {
			case deflaterBusy:
				return deflaterBusy
			case deflaterFlushing:
				d.flushReq = false
				return deflaterBusy
			case deflaterFinishing:
				return deflaterFinished
			}
		}
	case deflaterFinished:
		switch ev {
		case evFlush, evFinish:
			return deflaterFinished
		}
	}
	errors.Panic(errorf(errors.Internal, "invalid transition from %v on event %d", d.state, ev))
	return d.state
}

func (d *Deflater) busyState() deflaterState {
	switch {
	case d.finishReq:
		return deflaterFinishing
	case d.flushReq:
		return deflaterFlushing
	default:
		return deflaterBusy
	}
}

// Reset discards all state, making the Deflater ready for a new stream with
// the same level and strategy.
func (d *Deflater) Reset() {
	d.state = d.next(evReset)
	d.totalOut = 0
	d.bw.Reset()
	d.eng.reset()
}

// End releases the Deflater. Further calls to Deflate fail with ErrClosed.
func (d *Deflater) End() {
	d.state = d.next(evClose)
	d.eng.input = nil
}

// Flush requests that all input given so far is emitted by subsequent calls
// to Deflate, such that a decoder can reproduce it without ending the stream.
func (d *Deflater) Flush() {
	if d.state != deflaterClosed {
		d.state = d.next(evFlush)
	}
}

// Finish requests that the stream is ended once all input is consumed.
func (d *Deflater) Finish() {
	if d.state != deflaterClosed {
		d.state = d.next(evFinish)
	}
}

// IsFinished reports whether the trailer has been written and all output
// has been returned.
func (d *Deflater) IsFinished() bool {
	return d.state == deflaterFinished && d.bw.IsFlushed()
}

// IsNeedingInput reports whether all input has been consumed.
func (d *Deflater) IsNeedingInput() bool {
	return d.eng.needsInput()
}

// Adler returns the Adler-32 of the input consumed so far.
func (d *Deflater) Adler() uint32 {
	return d.eng.checksum()
}

// TotalIn reports the number of input bytes consumed.
func (d *Deflater) TotalIn() int64 {
	return d.eng.totalIn
}

// TotalOut reports the number of compressed bytes returned.
func (d *Deflater) TotalOut() int64 {
	return d.totalOut
}

// Level reports the current compression level.
func (d *Deflater) Level() int {
	return d.level
}

// SetInput binds buf as the next input. The Deflater keeps a reference to buf
// until IsNeedingInput reports true again.
func (d *Deflater) SetInput(buf []byte) error {
	switch {
	case d.state == deflaterClosed:
		return ErrClosed
	case d.finishReq:
		return errorf(errors.Invalid, "input after Finish")
	}
	return d.eng.setInput(buf)
}

// SetDictionary primes the compressor with a preset dictionary. It must be
// called before the first call to Deflate and at most once per stream.
func (d *Deflater) SetDictionary(dict []byte) error {
	if d.state != deflaterInit {
		return errorf(errors.Invalid, "dictionary must be set before compressing")
	}
	d.state = d.next(evDict)
	d.eng.setDictionary(dict)
	return nil
}

// SetLevel changes the compression level. It may be called mid-stream, in
// which case data compressed at the old level is emitted as a block first.
func (d *Deflater) SetLevel(level int) (err error) {
	defer errors.Recover(&err)
	lvl, err := normalizeLevel(level)
	if err != nil {
		return err
	}
	d.level = lvl
	d.eng.setLevel(lvl)
	return nil
}

// SetStrategy changes the match search strategy.
func (d *Deflater) SetStrategy(s Strategy) error {
	switch s {
	case DefaultStrategy, Filtered, HuffmanOnly:
		d.eng.strategy = s
		return nil
	default:
		return errorf(errors.Invalid, "invalid strategy: %v", s)
	}
}

// Deflate compresses into out and reports the number of bytes produced.
// It returns fewer than len(out) bytes only when more input is needed or when
// the stream is finished.
func (d *Deflater) Deflate(out []byte) (n int, err error) {
	defer errors.Recover(&err)
	if d.state == deflaterClosed {
		return 0, ErrClosed
	}
	if d.state == deflaterInit || d.state == deflaterSetDict {
		d.writeHeader()
	}

	for {
		cnt := d.bw.Flush(out[n:])
		n += cnt
		d.totalOut += int64(cnt)
		if n == len(out) || d.state == deflaterFinished {
			return n, nil
		}
		if d.eng.deflate(d.flushReq, d.finishReq) {
			continue
		}

		switch d.state {
		case deflaterBusy:
			return n, nil
		case deflaterFlushing:
			if d.level != NoCompression {
				// Pad with empty fixed blocks until at least 8 bits follow
				// the data, which then lies entirely in whole bytes.
				for nb := 8 + int(-d.bw.BitCount()&7); nb > 0; nb -= 10 {
					d.bw.WriteBits(blockFixed<<1, 10)
				}
			}
		case deflaterFinishing:
			d.bw.AlignToByte()
			if !d.noHeader {
				adler := d.eng.checksum()
				d.bw.WriteShortMSB(int(adler >> 16))
				d.bw.WriteShortMSB(int(adler & 0xffff))
			}
		}
		d.state = d.next(evIdle)
	}
}

// writeHeader emits the zlib header, RFC 1950 section 2.2.
func (d *Deflater) writeHeader() {
	if !d.noHeader {
		header := (zlibDeflate + (7 << 4)) << 8
		levelFlags := (d.level - 1) >> 1
		if levelFlags < 0 || levelFlags > 3 {
			levelFlags = 3
		}
		if d.level == NoCompression {
			levelFlags = 0
		}
		header |= levelFlags << 6
		if d.dictSet {
			header |= zlibPresetDict
		}
		header += 31 - header%31
		d.bw.WriteShortMSB(header)
		if d.dictSet {
			adler := d.eng.checksum()
			d.eng.resetAdler()
			d.bw.WriteShortMSB(int(adler >> 16))
			d.bw.WriteShortMSB(int(adler & 0xffff))
		}
	}
	d.state = d.next(evHeader)
}
