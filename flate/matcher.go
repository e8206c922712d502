// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package flate

import (
	"hash"
	"hash/adler32"

	"github.com/dsnet/zflate/internal/errors"
)

// matcher is the LZ77 engine of the compressor. It copies input into a
// window of two history sizes, finds matches through hash chains over 3-byte
// prefixes, and feeds the resulting tokens into a blockEncoder.
//
// Positions in head and prev are absolute window offsets; zero means "none",
// which is why the engine starts at position 1.
type matcher struct {
	enc      *blockEncoder
	adler    hash.Hash32
	strategy Strategy
	goodLen  int
	maxLazy  int
	niceLen  int
	maxChain int
	fn       int

	window []byte
	head   [hashSize]int32
	prev   [maxHistSize]int32
	insH   int // Rolling hash of the bytes at strStart

	matchStart    int
	matchLen      int
	prevAvailable bool // Whether the byte before strStart is an unemitted literal
	blockStart    int  // May be negative once the block start slid out of the window
	strStart      int
	lookahead     int

	input   []byte // Unconsumed input, bound by reference
	totalIn int64
}

func newMatcher(enc *blockEncoder) *matcher {
	m := &matcher{
		enc:   enc,
		adler: adler32.New(),
		// The tail padding lets match comparisons run past the lookahead;
		// such bytes are stale and matches are clamped to the lookahead.
		window: make([]byte, 2*maxHistSize+maxMatchLen+minMatchLen),
	}
	m.reset()
	return m
}

func (m *matcher) reset() {
	m.enc.reset()
	m.adler.Reset()
	m.blockStart, m.strStart = 1, 1
	m.lookahead = 0
	m.totalIn = 0
	m.prevAvailable = false
	m.matchLen = minMatchLen - 1
	m.input = nil
	for i := range m.head {
		m.head[i] = 0
	}
	for i := range m.prev {
		m.prev[i] = 0
	}
}

func (m *matcher) resetAdler() {
	m.adler.Reset()
}

func (m *matcher) checksum() uint32 {
	return m.adler.Sum32()
}

// setLevel switches the matching parameters. When the compression function
// changes mid-stream, data buffered by the old function is first written out
// as its own block.
func (m *matcher) setLevel(level int) {
	lvl := levels[level]
	m.goodLen, m.maxLazy, m.niceLen, m.maxChain = lvl.good, lvl.lazy, lvl.nice, lvl.chain
	if lvl.fn == m.fn {
		return
	}

	switch m.fn {
	case fnStored:
		if m.strStart > m.blockStart {
			m.enc.flushStoredBlock(m.window[m.blockStart:m.strStart], false)
			m.blockStart = m.strStart
		}
		m.updateHash()
	case fnFast:
		if m.strStart > m.blockStart {
			m.enc.flushBlock(m.blockBytes(m.strStart), false)
			m.blockStart = m.strStart
		}
	case fnSlow:
		if m.prevAvailable {
			m.enc.tallyLit(m.window[m.strStart-1])
		}
		if m.strStart > m.blockStart {
			m.enc.flushBlock(m.blockBytes(m.strStart), false)
			m.blockStart = m.strStart
		}
		m.prevAvailable = false
		m.matchLen = minMatchLen - 1
	}
	m.fn = lvl.fn
}

// setInput binds buf as the next input.
func (m *matcher) setInput(buf []byte) error {
	if len(m.input) > 0 {
		return errorf(errors.Invalid, "previous input was not completely consumed")
	}
	m.input = buf
	return nil
}

func (m *matcher) needsInput() bool {
	return len(m.input) == 0
}

// setDictionary primes the window and hash chains with dict without
// producing any output.
func (m *matcher) setDictionary(dict []byte) {
	m.adler.Write(dict)
	if len(dict) < minMatchLen {
		return
	}
	if len(dict) > maxMatchDist {
		dict = dict[len(dict)-maxMatchDist:]
	}
	copy(m.window[m.strStart:], dict)
	m.updateHash()
	for n := len(dict) - 2; n > 0; n-- {
		m.insertString()
		m.strStart++
	}
	m.strStart += 2
	m.blockStart = m.strStart
}

// deflate runs the compression function until it stops making progress or
// a block is waiting in the bit writer. It reports whether progress was made.
func (m *matcher) deflate(flush, finish bool) bool {
	var progress bool
	for {
		m.fillWindow()
		canFlush := flush && len(m.input) == 0
		switch m.fn {
		case fnStored:
			progress = m.deflateStored(canFlush, finish)
		case fnFast:
			progress = m.deflateFast(canFlush, finish)
		case fnSlow:
			progress = m.deflateSlow(canFlush, finish)
		default:
			errors.Panic(errorf(errors.Internal, "unknown compression function: %d", m.fn))
		}
		if !m.enc.bw.IsFlushed() || !progress {
			return progress
		}
	}
}

// fillWindow slides the window if needed and copies input into the lookahead.
func (m *matcher) fillWindow() {
	if m.strStart >= maxHistSize+maxMatchDist {
		m.slideWindow()
	}
	if m.lookahead < minLookahead && len(m.input) > 0 {
		more := 2*maxHistSize - m.lookahead - m.strStart
		if more > len(m.input) {
			more = len(m.input)
		}
		pos := m.strStart + m.lookahead
		copy(m.window[pos:pos+more], m.input[:more])
		m.adler.Write(m.input[:more])
		m.input = m.input[more:]
		m.totalIn += int64(more)
		m.lookahead += more
	}
	if m.lookahead >= minMatchLen {
		m.updateHash()
	}
}

func (m *matcher) slideWindow() {
	copy(m.window[:maxHistSize], m.window[maxHistSize:2*maxHistSize])
	m.matchStart -= maxHistSize
	m.strStart -= maxHistSize
	m.blockStart -= maxHistSize
	for i, v := range m.head {
		if v >= maxHistSize {
			m.head[i] = v - maxHistSize
		} else {
			m.head[i] = 0
		}
	}
	for i, v := range m.prev {
		if v >= maxHistSize {
			m.prev[i] = v - maxHistSize
		} else {
			m.prev[i] = 0
		}
	}
}

func (m *matcher) updateHash() {
	m.insH = int(m.window[m.strStart])<<hashShift ^ int(m.window[m.strStart+1])
}

// insertString inserts the 3-byte prefix at strStart into the hash chains
// and returns the previous head of its chain.
func (m *matcher) insertString() int {
	h := (m.insH<<hashShift ^ int(m.window[m.strStart+minMatchLen-1])) & hashMask
	match := m.head[h]
	m.prev[m.strStart&histMask] = match
	m.head[h] = int32(m.strStart)
	m.insH = h
	return int(match)
}

// blockBytes returns the raw bytes of the current block up to end, or nil if
// the start of the block has already slid out of the window.
func (m *matcher) blockBytes(end int) []byte {
	if m.blockStart < 0 {
		return nil
	}
	return m.window[m.blockStart:end]
}

// findLongestMatch walks the hash chain starting at curMatch and reports
// whether a match of at least minMatchLen was found. Only matches longer
// than the current matchLen are considered.
func (m *matcher) findLongestMatch(curMatch int) bool {
	chainLen := m.maxChain
	niceLen := m.niceLen
	if niceLen > m.lookahead {
		niceLen = m.lookahead
	}
	maxLen := maxMatchLen
	if maxLen > m.lookahead {
		maxLen = m.lookahead
	}
	bestLen := m.matchLen
	if bestLen < minMatchLen-1 {
		bestLen = minMatchLen - 1
	}
	limit := m.strStart - maxMatchDist
	if limit < 0 {
		limit = 0
	}
	m.matchLen = minMatchLen - 1
	if m.lookahead < minMatchLen {
		return false
	}
	if bestLen >= m.goodLen {
		chainLen >>= 1
	}

	win := m.window
	scan := m.strStart
	for {
		match := curMatch
		// Check the bytes that would extend the best match first.
		if win[match+bestLen] == win[scan+bestLen] &&
			win[match+bestLen-1] == win[scan+bestLen-1] &&
			win[match] == win[scan] && win[match+1] == win[scan+1] {
			if n := matchLength(win[match:], win[scan:], maxLen); n > bestLen {
				m.matchStart = curMatch
				bestLen = n
				if n >= niceLen {
					break
				}
			}
		}
		curMatch = int(m.prev[curMatch&histMask])
		if curMatch <= limit {
			break
		}
		if chainLen--; chainLen == 0 {
			break
		}
	}

	m.matchLen = bestLen
	if m.matchLen > m.lookahead {
		m.matchLen = m.lookahead
	}
	return m.matchLen >= minMatchLen
}

// matchLength reports the length of the common prefix of a and b,
// up to max bytes.
func matchLength(a, b []byte, max int) int {
	a, b = a[:max], b[:max]
	var n int
	for n+8 <= max {
		if a[n] != b[n] || a[n+1] != b[n+1] || a[n+2] != b[n+2] || a[n+3] != b[n+3] ||
			a[n+4] != b[n+4] || a[n+5] != b[n+5] || a[n+6] != b[n+6] || a[n+7] != b[n+7] {
			break
		}
		n += 8
	}
	for n < max && a[n] == b[n] {
		n++
	}
	return n
}

func (m *matcher) deflateStored(flush, finish bool) bool {
	if !flush && m.lookahead == 0 {
		return false
	}
	m.strStart += m.lookahead
	m.lookahead = 0

	storedLen := m.strStart - m.blockStart
	if storedLen >= maxStoredSize || (m.blockStart < maxHistSize && storedLen >= maxMatchDist) || flush {
		last := finish
		if storedLen > maxStoredSize {
			storedLen = maxStoredSize
			last = false
		}
		m.enc.flushStoredBlock(m.window[m.blockStart:m.blockStart+storedLen], last)
		m.blockStart += storedLen
		return !(last || storedLen == 0)
	}
	return true
}

func (m *matcher) deflateFast(flush, finish bool) bool {
	if m.lookahead < minLookahead && !flush {
		return false
	}
	for m.lookahead >= minLookahead || flush {
		if m.lookahead == 0 {
			m.enc.flushBlock(m.blockBytes(m.strStart), finish)
			m.blockStart = m.strStart
			return false
		}
		if m.strStart > 2*maxHistSize-minLookahead {
			m.slideWindow()
		}

		var hashHead int
		if m.lookahead >= minMatchLen {
			hashHead = m.insertString()
		}
		if hashHead != 0 && m.strategy != HuffmanOnly &&
			m.strStart-hashHead <= maxMatchDist && m.findLongestMatch(hashHead) {
			full := m.enc.tallyDist(m.strStart-m.matchStart, m.matchLen)
			m.lookahead -= m.matchLen
			if m.matchLen <= m.maxLazy && m.lookahead >= minMatchLen {
				for m.matchLen--; m.matchLen > 0; m.matchLen-- {
					m.strStart++
					m.insertString()
				}
				m.strStart++
			} else {
				m.strStart += m.matchLen
				if m.lookahead >= minMatchLen-1 {
					m.updateHash()
				}
			}
			m.matchLen = minMatchLen - 1
			if !full {
				continue
			}
		} else {
			m.enc.tallyLit(m.window[m.strStart])
			m.strStart++
			m.lookahead--
		}

		if m.enc.isFull() {
			last := finish && m.lookahead == 0
			m.enc.flushBlock(m.blockBytes(m.strStart), last)
			m.blockStart = m.strStart
			return !last
		}
	}
	return true
}

func (m *matcher) deflateSlow(flush, finish bool) bool {
	if m.lookahead < minLookahead && !flush {
		return false
	}
	for m.lookahead >= minLookahead || flush {
		if m.lookahead == 0 {
			if m.prevAvailable {
				m.enc.tallyLit(m.window[m.strStart-1])
			}
			m.prevAvailable = false
			m.enc.flushBlock(m.blockBytes(m.strStart), finish)
			m.blockStart = m.strStart
			return false
		}
		if m.strStart >= 2*maxHistSize-minLookahead {
			m.slideWindow()
		}

		prevMatch := m.matchStart
		prevLen := m.matchLen
		if m.lookahead >= minMatchLen {
			hashHead := m.insertString()
			switch {
			case prevLen >= m.maxLazy:
				m.matchLen = minMatchLen - 1 // Good enough; skip the lazy search
			case m.strategy != HuffmanOnly && hashHead != 0 &&
				m.strStart-hashHead <= maxMatchDist && m.findLongestMatch(hashHead):
				// Short matches are rarely worth it when far away, and never
				// for filtered data.
				if m.matchLen <= 5 && (m.strategy == Filtered ||
					(m.matchLen == minMatchLen && m.strStart-m.matchStart > tooFar)) {
					m.matchLen = minMatchLen - 1
				}
			}
		}

		if prevLen >= minMatchLen && m.matchLen <= prevLen {
			// The previous match was better, so emit it.
			m.enc.tallyDist(m.strStart-1-prevMatch, prevLen)
			for prevLen -= 2; prevLen > 0; prevLen-- {
				m.strStart++
				m.lookahead--
				if m.lookahead >= minMatchLen {
					m.insertString()
				}
			}
			m.strStart++
			m.lookahead--
			m.prevAvailable = false
			m.matchLen = minMatchLen - 1
		} else {
			if m.prevAvailable {
				m.enc.tallyLit(m.window[m.strStart-1])
			}
			m.prevAvailable = true
			m.strStart++
			m.lookahead--
		}

		if m.enc.isFull() {
			n := m.strStart - m.blockStart
			if m.prevAvailable {
				n-- // The pending literal belongs to the next block
			}
			last := finish && m.lookahead == 0 && !m.prevAvailable
			m.enc.flushBlock(m.blockBytes(m.blockStart+n), last)
			m.blockStart += n
			return !last
		}
	}
	return true
}
