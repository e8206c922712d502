// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package flate

import "github.com/dsnet/zflate/internal/errors"

// huffmanTree accumulates symbol frequencies for one alphabet and derives
// length-limited canonical codes from them.
type huffmanTree struct {
	freqs    []int
	lens     []uint8  // Code lengths; may alias the static tables
	codes    []uint16 // Bit-reversed codes; may alias the static tables
	ownLens  []uint8
	ownCodes []uint16
	minCodes int // Minimum number of codes to transmit
	numCodes int // Number of codes to transmit
	maxBits  int // Maximum code length

	// Scratch space for buildTree and buildLengths.
	heap   []int
	childs []int
	values []int
	depths []int
}

func newHuffmanTree(numSyms, minCodes, maxBits int) *huffmanTree {
	t := &huffmanTree{
		freqs:    make([]int, numSyms),
		ownLens:  make([]uint8, numSyms),
		ownCodes: make([]uint16, numSyms),
		minCodes: minCodes,
		maxBits:  maxBits,
		heap:     make([]int, numSyms),
		childs:   make([]int, 4*numSyms),
		values:   make([]int, 2*numSyms),
		depths:   make([]int, 2*numSyms),
	}
	t.reset()
	return t
}

func (t *huffmanTree) reset() {
	for i := range t.freqs {
		t.freqs[i] = 0
	}
	t.lens, t.codes = t.ownLens, t.ownCodes
}

func (t *huffmanTree) writeSymbol(bw *bitWriter, sym int) {
	bw.WriteBits(uint(t.codes[sym]), uint(t.lens[sym]))
}

// setStaticCodes makes the tree use the fixed codes of RFC section 3.2.6.
func (t *huffmanTree) setStaticCodes(codes []uint16, lens []uint8) {
	t.codes, t.lens = codes, lens
}

// buildTree computes optimal code lengths, limited to maxBits, from the
// symbol frequencies. At least two symbols always receive a code.
//
// The tree is built with a binary min-heap over node weights. Each weight
// carries the depth of its subtree in the low 8 bits so that, among equal
// frequencies, shallower subtrees are merged first.
func (t *huffmanTree) buildTree() {
	numSyms := len(t.freqs)
	heap := t.heap[:numSyms]
	var heapLen, maxCode int
	for n := 0; n < numSyms; n++ {
		freq := t.freqs[n]
		if freq == 0 {
			continue
		}
		pos := heapLen
		heapLen++
		for pos > 0 {
			ppos := (pos - 1) / 2
			if t.freqs[heap[ppos]] <= freq {
				break
			}
			heap[pos] = heap[ppos]
			pos = ppos
		}
		heap[pos] = n
		maxCode = n
	}

	// A decoder needs at least two codes to form a complete tree,
	// so add symbols with zero frequency as needed.
	for heapLen < 2 {
		var node int
		if maxCode < 2 {
			maxCode++
			node = maxCode
		}
		heap[heapLen] = node
		heapLen++
	}

	t.numCodes = maxCode + 1
	if t.numCodes < t.minCodes {
		t.numCodes = t.minCodes
	}

	numLeafs := heapLen
	childs := t.childs[:4*heapLen-2]
	values := t.values[:2*heapLen-1]
	numNodes := numLeafs
	for i := 0; i < heapLen; i++ {
		node := heap[i]
		childs[2*i] = node
		childs[2*i+1] = -1
		values[i] = t.freqs[node] << 8
		heap[i] = i
	}

	// Repeatedly merge the two lightest nodes until one remains.
	for heapLen > 1 {
		first := heap[0]
		heapLen--
		last := heap[heapLen]
		t.siftDown(heap[:heapLen], values, last)

		second := heap[0]
		last = numNodes
		numNodes++
		childs[2*last] = first
		childs[2*last+1] = second
		minDepth := values[first] & 0xff
		if d := values[second] & 0xff; d < minDepth {
			minDepth = d
		}
		values[last] = values[first] + values[second] - minDepth + 1
		t.siftDown(heap[:heapLen], values, last)
	}

	if heap[0] != len(childs)/2-1 {
		errors.Panic(errorf(errors.Internal, "heap invariant violated"))
	}
	t.buildLengths(childs)
}

// siftDown fills the hole at the root of heap with node, keeping the min-heap
// ordering by value.
func (t *huffmanTree) siftDown(heap, values []int, node int) {
	if len(heap) == 0 {
		return
	}
	ppos, path := 0, 1
	for path < len(heap) {
		if path+1 < len(heap) && values[heap[path]] > values[heap[path+1]] {
			path++
		}
		heap[ppos] = heap[path]
		ppos = path
		path = 2*path + 1
	}
	val := values[node]
	for ppos > 0 {
		parent := (ppos - 1) / 2
		if values[heap[parent]] <= val {
			break
		}
		heap[ppos] = heap[parent]
		ppos = parent
	}
	heap[ppos] = node
}

// buildLengths assigns code lengths from the finished tree. Leaves deeper than
// maxBits are pulled up to maxBits, after which the per-length counts are
// repaired until the Kraft sum is exactly one. Lengths are then handed out
// again with the longest codes going to the least frequent symbols.
func (t *huffmanTree) buildLengths(childs []int) {
	t.lens = t.ownLens
	for i := range t.lens {
		t.lens[i] = 0
	}

	numNodes := len(childs) / 2
	numLeafs := (numNodes + 1) / 2
	depths := t.depths[:numNodes]
	var blCounts [maxPrefixBits + 1]int
	var overflow bool

	depths[numNodes-1] = 0
	for i := numNodes - 1; i >= 0; i-- {
		if childs[2*i+1] != -1 {
			depth := depths[i] + 1
			depths[childs[2*i]] = depth
			depths[childs[2*i+1]] = depth
			continue
		}
		depth := depths[i]
		if depth > t.maxBits {
			depth = t.maxBits
			overflow = true
		}
		blCounts[depth]++
		t.lens[childs[2*i]] = uint8(depth)
	}
	if !overflow {
		return
	}

	// Each iteration removes one code of maxBits and reduces the Kraft sum
	// (scaled by 1<<maxBits) by one: a leaf on the deepest under-filled level
	// moves down one level and gains the removed code as its sibling.
	var total int
	for n := 1; n <= t.maxBits; n++ {
		total += blCounts[n] << uint(t.maxBits-n)
	}
	for total > 1<<uint(t.maxBits) {
		blCounts[t.maxBits]--
		for n := t.maxBits - 1; n > 0; n-- {
			if blCounts[n] > 0 {
				blCounts[n]--
				blCounts[n+1] += 2
				break
			}
		}
		total--
	}

	// Internal nodes were created in order of increasing weight, so walking
	// their children visits the leaves from least to most frequent.
	nodePtr := 2 * numLeafs
	for bits := t.maxBits; bits > 0; bits-- {
		for n := blCounts[bits]; n > 0; {
			child := childs[nodePtr]
			nodePtr++
			if childs[2*child+1] == -1 {
				t.lens[childs[2*child]] = uint8(bits)
				n--
			}
		}
	}
}

// buildCodes assigns canonical codes to the current code lengths.
func (t *huffmanTree) buildCodes() {
	t.codes = t.ownCodes
	canonicalCodes(t.codes, t.lens)
}

func (t *huffmanTree) encodedLength() int {
	var n int
	for i, f := range t.freqs {
		n += f * int(t.lens[i])
	}
	return n
}

// calcBLFreq tallies how the code lengths of this tree would be run-length
// encoded using the code length alphabet of blTree.
func (t *huffmanTree) calcBLFreq(blTree *huffmanTree) {
	var maxCount, minCount int
	curLen := -1
	for i := 0; i < t.numCodes; {
		count := 1
		nextLen := int(t.lens[i])
		if nextLen == 0 {
			maxCount, minCount = 138, 3
		} else {
			maxCount, minCount = 6, 3
			if curLen != nextLen {
				blTree.freqs[nextLen]++
				count = 0
			}
		}
		curLen = nextLen
		i++

		for i < t.numCodes && curLen == int(t.lens[i]) {
			i++
			if count++; count >= maxCount {
				break
			}
		}

		switch {
		case count < minCount:
			blTree.freqs[curLen] += count
		case curLen != 0:
			blTree.freqs[16]++
		case count <= 10:
			blTree.freqs[17]++
		default:
			blTree.freqs[18]++
		}
	}
}

// writeTree writes the code lengths of this tree, run-length encoded with the
// codes of blTree. It mirrors calcBLFreq exactly.
func (t *huffmanTree) writeTree(bw *bitWriter, blTree *huffmanTree) {
	var maxCount, minCount int
	curLen := -1
	for i := 0; i < t.numCodes; {
		count := 1
		nextLen := int(t.lens[i])
		if nextLen == 0 {
			maxCount, minCount = 138, 3
		} else {
			maxCount, minCount = 6, 3
			if curLen != nextLen {
				blTree.writeSymbol(bw, nextLen)
				count = 0
			}
		}
		curLen = nextLen
		i++

		for i < t.numCodes && curLen == int(t.lens[i]) {
			i++
			if count++; count >= maxCount {
				break
			}
		}

		switch {
		case count < minCount:
			for ; count > 0; count-- {
				blTree.writeSymbol(bw, curLen)
			}
		case curLen != 0:
			blTree.writeSymbol(bw, 16)
			bw.WriteBits(uint(count-3), 2)
		case count <= 10:
			blTree.writeSymbol(bw, 17)
			bw.WriteBits(uint(count-3), 3)
		default:
			blTree.writeSymbol(bw, 18)
			bw.WriteBits(uint(count-11), 7)
		}
	}
}

// blockEncoder buffers LZ77 tokens and emits them as DEFLATE blocks,
// choosing whichever of the stored, fixed, or dynamic encodings is smallest.
type blockEncoder struct {
	bw       *bitWriter
	litTree  *huffmanTree
	distTree *huffmanTree
	blTree   *huffmanTree

	dists     [maxTokens]uint16 // Distance of a match, 0 for a literal
	lits      [maxTokens]uint8  // Literal, or match length minus 3
	numTokens int
	extraBits int // Number of extra bits the buffered tokens require
}

func newBlockEncoder(bw *bitWriter) *blockEncoder {
	return &blockEncoder{
		bw:       bw,
		litTree:  newHuffmanTree(maxNumLitSyms, 257, maxPrefixBits),
		distTree: newHuffmanTree(maxNumDistSyms, 1, maxPrefixBits),
		blTree:   newHuffmanTree(maxNumCLenSyms, 4, maxCLenBits),
	}
}

func (be *blockEncoder) reset() {
	be.numTokens = 0
	be.extraBits = 0
	be.litTree.reset()
	be.distTree.reset()
	be.blTree.reset()
}

func (be *blockEncoder) isFull() bool {
	return be.numTokens >= maxTokens
}

// tallyLit buffers a literal and reports whether the buffer is now full.
func (be *blockEncoder) tallyLit(c byte) bool {
	be.dists[be.numTokens] = 0
	be.lits[be.numTokens] = c
	be.numTokens++
	be.litTree.freqs[c]++
	return be.isFull()
}

// tallyDist buffers a match and reports whether the buffer is now full.
func (be *blockEncoder) tallyDist(dist, length int) bool {
	be.dists[be.numTokens] = uint16(dist)
	be.lits[be.numTokens] = uint8(length - minMatchLen)
	be.numTokens++

	lc := lengthCode(length - minMatchLen)
	be.litTree.freqs[lc]++
	if lc >= 265 && lc < 285 {
		be.extraBits += (lc - 261) / 4
	}
	dc := distCode(dist - 1)
	be.distTree.freqs[dc]++
	if dc >= 4 {
		be.extraBits += dc/2 - 1
	}
	return be.isFull()
}

// lengthCode returns the literal/length symbol for a match of length l+3.
func lengthCode(l int) int {
	if l == 255 {
		return 285
	}
	code := 257
	for l >= 8 {
		code += 4
		l >>= 1
	}
	return code + l
}

// distCode returns the distance symbol for a distance of d+1.
func distCode(d int) int {
	var code int
	for d >= 4 {
		code += 2
		d >>= 1
	}
	return code + d
}

// compressBlock writes the buffered tokens with the current codes,
// followed by the end-of-block symbol.
func (be *blockEncoder) compressBlock() {
	for i := 0; i < be.numTokens; i++ {
		litLen := int(be.lits[i])
		dist := int(be.dists[i])
		if dist == 0 {
			be.litTree.writeSymbol(be.bw, litLen)
			continue
		}

		lc := lengthCode(litLen)
		be.litTree.writeSymbol(be.bw, lc)
		if bits := (lc - 261) / 4; bits > 0 && bits <= 5 {
			be.bw.WriteBits(uint(litLen&(1<<uint(bits)-1)), uint(bits))
		}

		dist--
		dc := distCode(dist)
		be.distTree.writeSymbol(be.bw, dc)
		if bits := dc/2 - 1; bits > 0 {
			be.bw.WriteBits(uint(dist&(1<<uint(bits)-1)), uint(bits))
		}
	}
	be.litTree.writeSymbol(be.bw, endBlockSym)
}

// sendAllTrees writes the header of a dynamic block.
func (be *blockEncoder) sendAllTrees(blTreeCodes int) {
	be.blTree.buildCodes()
	be.litTree.buildCodes()
	be.distTree.buildCodes()
	be.bw.WriteBits(uint(be.litTree.numCodes-257), 5)
	be.bw.WriteBits(uint(be.distTree.numCodes-1), 5)
	be.bw.WriteBits(uint(blTreeCodes-4), 4)
	for i := 0; i < blTreeCodes; i++ {
		be.bw.WriteBits(uint(be.blTree.lens[clenOrder[i]]), 3)
	}
	be.litTree.writeTree(be.bw, be.blTree)
	be.distTree.writeTree(be.bw, be.blTree)
}

// flushStoredBlock writes buf as a stored block and discards buffered tokens.
func (be *blockEncoder) flushStoredBlock(buf []byte, last bool) {
	var final uint
	if last {
		final = 1
	}
	be.bw.WriteBits(blockStored<<1|final, 3)
	be.bw.AlignToByte()
	be.bw.WriteShort(len(buf))
	be.bw.WriteShort(^len(buf))
	be.bw.WriteBlock(buf)
	be.reset()
}

// flushBlock writes the buffered tokens as a single block. The raw bytes the
// tokens were derived from are given by stored, which is nil when they are no
// longer available in the window.
func (be *blockEncoder) flushBlock(stored []byte, last bool) {
	be.litTree.freqs[endBlockSym]++

	be.litTree.buildTree()
	be.distTree.buildTree()
	be.litTree.calcBLFreq(be.blTree)
	be.distTree.calcBLFreq(be.blTree)
	be.blTree.buildTree()

	blTreeCodes := 4
	for i := maxNumCLenSyms - 1; i > blTreeCodes; i-- {
		if be.blTree.lens[clenOrder[i]] > 0 {
			blTreeCodes = i + 1
		}
	}
	optLen := 14 + 3*blTreeCodes + be.blTree.encodedLength() +
		be.litTree.encodedLength() + be.distTree.encodedLength() + be.extraBits

	ft := getFixedTables()
	staticLen := be.extraBits
	for i := 0; i < maxNumLitSyms; i++ {
		staticLen += be.litTree.freqs[i] * int(ft.litLens[i])
	}
	for i := 0; i < maxNumDistSyms; i++ {
		staticLen += be.distTree.freqs[i] * int(ft.distLens[i])
	}
	if optLen >= staticLen {
		optLen = staticLen // Prefer the fixed codes on a tie
	}

	var final uint
	if last {
		final = 1
	}
	switch {
	case stored != nil && len(stored) <= maxStoredSize && len(stored)+4 < optLen>>3:
		be.flushStoredBlock(stored, last)
	case optLen == staticLen:
		be.bw.WriteBits(blockFixed<<1|final, 3)
		be.litTree.setStaticCodes(ft.litCodes[:maxNumLitSyms], ft.litLens[:maxNumLitSyms])
		be.distTree.setStaticCodes(ft.distCodes[:maxNumDistSyms], ft.distLens[:maxNumDistSyms])
		be.compressBlock()
		be.reset()
	default:
		be.bw.WriteBits(blockDynamic<<1|final, 3)
		be.sendAllTrees(blTreeCodes)
		be.compressBlock()
		be.reset()
	}
}
