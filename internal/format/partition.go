package format

import (
	"errors"
	"fmt"
)

// ErrVertexTooLarge is returned when a single vertex's adjacency exceeds the block size.
var ErrVertexTooLarge = errors.New("format: vertex adjacency exceeds block size")

// BlockBytes returns the in-memory size of a block: its offsets slice
// (nverts+1 entries), its neighbors and optionally its weights.
func BlockBytes(nverts uint32, nedges uint64, weighted bool) int64 {
	size := int64(nverts+1)*8 + int64(nedges)*4
	if weighted {
		size += int64(nedges) * 4
	}
	return size
}

// Partition splits the vertex range greedily in id order so that every
// block fits in blockSize bytes. It returns nblocks+1 vertex and edge boundaries.
func Partition(offsets []uint64, weighted bool, blockSize int64) ([]uint32, []uint64, error) {
	if len(offsets) == 0 {
		return nil, nil, fmt.Errorf("%w: empty offsets", ErrInvalidGraph)
	}
	n := uint32(len(offsets) - 1)

	vblk := []uint32{0}
	eblk := []uint64{0}

	start := uint32(0)
	for v := uint32(0); v < n; v++ {
		if BlockBytes(1, offsets[v+1]-offsets[v], weighted) > blockSize {
			return nil, nil, fmt.Errorf("%w: vertex %d needs %d bytes, block size is %d",
				ErrVertexTooLarge, v, BlockBytes(1, offsets[v+1]-offsets[v], weighted), blockSize)
		}
		if BlockBytes(v+1-start, offsets[v+1]-offsets[start], weighted) > blockSize {
			vblk = append(vblk, v)
			eblk = append(eblk, offsets[v])
			start = v
		}
	}
	if n > 0 {
		vblk = append(vblk, n)
		eblk = append(eblk, offsets[n])
	}
	return vblk, eblk, nil
}

// ExpectedLengths estimates, per block, how many consecutive hops a walker
// stays inside the block: 1/(1-p) where p is the fraction of the block's
// edges pointing back into it. Values are capped at maxLen.
func ExpectedLengths(g *Graph, vblk []uint32, maxLen float32) []float32 {
	if len(vblk) < 2 {
		return nil
	}
	exp := make([]float32, len(vblk)-1)
	for b := range exp {
		lo, hi := vblk[b], vblk[b+1]
		var inside, total uint64
		for v := lo; v < hi; v++ {
			for _, u := range g.Adjacency(v) {
				total++
				if u >= lo && u < hi {
					inside++
				}
			}
		}
		if total == 0 {
			exp[b] = 1
			continue
		}
		p := float32(inside) / float32(total)
		if p >= 1 {
			exp[b] = maxLen
			continue
		}
		exp[b] = min(1/(1-p), maxLen)
	}
	return exp
}
