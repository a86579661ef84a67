// Package walkstore persists pending walkers that do not fit in memory.
//
// Walkers of one bucket are spilled as a sequence of frames:
//
//	[codec u8][rawLen u32][dataLen u32][data]
//
// where data is the concatenation of 18-byte walker records, optionally
// compressed with LZ4 or Zstandard. A Store appends frames per bucket and
// drains all frames of a bucket at once.
package walkstore
