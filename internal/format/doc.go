// Package format defines the on-disk layout of a graph dataset and the
// converter that produces it.
//
// A dataset named "g" stored with block size B consists of:
//
//	g.meta      32-byte header (magic, version, flags, counts, CRC32C)
//	g.beg       nvertices+1 little-endian uint64 cumulative offsets
//	g.csr       nedges uint32 neighbor ids, sorted per vertex
//	g.wht       nedges float32 weights (weighted graphs only)
//	g.B.vblk    nblocks+1 uint32 vertex boundaries
//	g.B.eblk    nblocks+1 uint64 edge boundaries
//	g.B.exp     nblocks float32 expected walk lengths (optional)
//
// Partitioning packs vertices greedily in id order so that
// (nverts+1)*8 + nedges*4 (+ nedges*4 if weighted) never exceeds B.
package format
