// Package blobstore provides the storage abstraction behind graph datasets
// and spilled walker state.
//
// A dataset is a handful of named blobs (meta record, CSR offsets, neighbors,
// weights and partition files). The disk driver reads byte ranges of them
// when a block is loaded into a cache slot, so every implementation supports
// positional reads and, where possible, zero-copy access via Mappable.
//
// # Built-in Implementations
//
//   - LocalStore: local directory, reads through memory-mapped files
//   - MemoryStore: in-process map, used by tests and small graphs
//   - CachingStore: wraps any store with a byte-block LRU
//   - s3.Store: Amazon S3 with range reads and multipart uploads
//   - minio.Store: MinIO and other S3-compatible servers
//
// Remote stores should be wrapped in a CachingStore so that a block evicted
// from the slot cache and scheduled again is served from memory:
//
//	remote, _ := s3.New(ctx, "graphs", s3.WithPrefix("twitter/"))
//	store := blobstore.NewCachingStore(remote, cache.NewLRUBlockCache(4<<30, rc), 0)
package blobstore
