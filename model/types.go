package model

import (
	"encoding/binary"
	"fmt"
)

// VertexID is a dense, global vertex identifier.
type VertexID uint32

// EdgeID is a global offset into the neighbor array.
type EdgeID uint64

// BlockID identifies a contiguous vertex partition.
type BlockID uint32

// WalkerID identifies one random walk.
type WalkerID uint32

// Hop counts the steps a walker has taken.
type Hop uint16

// Weight is a stored edge weight.
type Weight = float32

// Walker is the progress state of one random walk.
//
// Walkers are stored by value in large slices, so the record is kept compact:
// 18 bytes of payload, 20 bytes in memory.
type Walker struct {
	ID       WalkerID
	Source   VertexID
	Previous VertexID
	Current  VertexID
	Hop      Hop
}

// WalkerSize is the encoded size of a Walker in bytes.
const WalkerSize = 18

// NewWalker creates a walker that starts at source (previous == current).
func NewWalker(id WalkerID, source VertexID) Walker {
	return Walker{ID: id, Source: source, Previous: source, Current: source}
}

// Advance returns a copy of w moved to next.
func (w Walker) Advance(next VertexID) Walker {
	w.Previous = w.Current
	w.Current = next
	w.Hop++
	return w
}

// String returns a string representation of the Walker.
func (w Walker) String() string {
	return fmt.Sprintf("Walker(%d src=%d prev=%d cur=%d hop=%d)", w.ID, w.Source, w.Previous, w.Current, w.Hop)
}

// AppendBinary appends the little-endian encoding of w to dst.
func (w Walker) AppendBinary(dst []byte) []byte {
	dst = binary.LittleEndian.AppendUint32(dst, uint32(w.ID))
	dst = binary.LittleEndian.AppendUint32(dst, uint32(w.Source))
	dst = binary.LittleEndian.AppendUint32(dst, uint32(w.Previous))
	dst = binary.LittleEndian.AppendUint32(dst, uint32(w.Current))
	return binary.LittleEndian.AppendUint16(dst, uint16(w.Hop))
}

// DecodeWalker decodes a walker from the first WalkerSize bytes of b.
func DecodeWalker(b []byte) Walker {
	_ = b[WalkerSize-1]
	return Walker{
		ID:       WalkerID(binary.LittleEndian.Uint32(b[0:])),
		Source:   VertexID(binary.LittleEndian.Uint32(b[4:])),
		Previous: VertexID(binary.LittleEndian.Uint32(b[8:])),
		Current:  VertexID(binary.LittleEndian.Uint32(b[12:])),
		Hop:      Hop(binary.LittleEndian.Uint16(b[16:])),
	}
}

// Bucket identifies the (previous block, current block) pair of a pending walker.
type Bucket struct {
	Prev BlockID
	Cur  BlockID
}

// Index returns the dense matrix index of the bucket.
func (b Bucket) Index(nblocks int) int {
	return int(b.Prev)*nblocks + int(b.Cur)
}

// BucketAt returns the bucket for a dense matrix index.
func BucketAt(index, nblocks int) Bucket {
	return Bucket{Prev: BlockID(index / nblocks), Cur: BlockID(index % nblocks)}
}

// String returns a string representation of the Bucket.
func (b Bucket) String() string {
	return fmt.Sprintf("%d->%d", b.Prev, b.Cur)
}
