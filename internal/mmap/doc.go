// Package mmap provides read-only memory-mapped access to dataset files.
//
// Local CSR files (offsets, neighbors, weights) are mapped once and sliced by
// the driver for every block load, so a block swap copies from the page cache
// instead of issuing a read syscall per range.
//
//	m, err := mmap.Open("graph.csr")
//	if err != nil { ... }
//	defer m.Close()
//	_ = m.Advise(mmap.AccessRandom)
//	data := m.Bytes()
//
// On Unix the file is mapped with mmap(2) and hints go through madvise(2).
// Other platforms fall back to reading the file into memory.
//
// A Mapping is safe for concurrent reads. Close is idempotent; callers must
// not touch Bytes() after Close returns.
package mmap
