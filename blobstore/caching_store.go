package blobstore

import (
	"context"
	"errors"
	"io"

	"github.com/hupe1980/graphwalk/internal/blockcache"
	"golang.org/x/sync/errgroup"
)

// DefaultCacheBlockSize is the granularity of cached reads.
const DefaultCacheBlockSize = 64 << 10

// CachingStore wraps a BlobStore and caches reads in fixed-size byte blocks.
// A graph block that is evicted from a cache slot and scheduled again is
// then served from memory instead of another remote range request.
type CachingStore struct {
	inner       BlobStore
	cache       blockcache.BlockCache
	blockSize   int64
	concurrency int
}

// NewCachingStore creates a new CachingStore.
// blockSize defaults to DefaultCacheBlockSize if <= 0.
func NewCachingStore(inner BlobStore, c blockcache.BlockCache, blockSize int64) *CachingStore {
	if blockSize <= 0 {
		blockSize = DefaultCacheBlockSize
	}
	return &CachingStore{
		inner:       inner,
		cache:       c,
		blockSize:   blockSize,
		concurrency: 16,
	}
}

func (s *CachingStore) Open(ctx context.Context, name string) (Blob, error) {
	b, err := s.inner.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	return &CachingBlob{
		inner:       b,
		cache:       s.cache,
		name:        name,
		blockSize:   s.blockSize,
		concurrency: s.concurrency,
	}, nil
}

// Create passes through; the written blob is invalidated so stale blocks are never served.
func (s *CachingStore) Create(ctx context.Context, name string) (WritableBlob, error) {
	s.invalidate(name)
	return s.inner.Create(ctx, name)
}

func (s *CachingStore) Put(ctx context.Context, name string, data []byte) error {
	s.invalidate(name)
	return s.inner.Put(ctx, name, data)
}

func (s *CachingStore) Delete(ctx context.Context, name string) error {
	s.invalidate(name)
	return s.inner.Delete(ctx, name)
}

func (s *CachingStore) List(ctx context.Context, prefix string) ([]string, error) {
	return s.inner.List(ctx, prefix)
}

func (s *CachingStore) invalidate(name string) {
	s.cache.Invalidate(func(key blockcache.CacheKey) bool {
		return key.Kind == blockcache.CacheKindBlob && key.Path == name
	})
}

// CachingBlob wraps a Blob and uses the block cache for reads.
type CachingBlob struct {
	inner       Blob
	cache       blockcache.BlockCache
	name        string
	blockSize   int64
	concurrency int
}

func (b *CachingBlob) Close() error {
	return b.inner.Close()
}

func (b *CachingBlob) Size() int64 {
	return b.inner.Size()
}

func (b *CachingBlob) key(blk int64) blockcache.CacheKey {
	return blockcache.CacheKey{Kind: blockcache.CacheKindBlob, Path: b.name, Offset: uint64(blk)}
}

func (b *CachingBlob) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if off < 0 || off >= b.Size() {
		return 0, io.EOF
	}

	startBlock := off / b.blockSize
	endBlock := (off + int64(len(p)) - 1) / b.blockSize

	if err := b.fillCache(ctx, startBlock, endBlock); err != nil {
		return 0, err
	}

	total := 0
	for blk := startBlock; blk <= endBlock; blk++ {
		blkStart := blk * b.blockSize
		lo := max(blkStart, off)
		hi := min(blkStart+b.blockSize, off+int64(len(p)))
		if hi <= lo {
			continue
		}

		data, err := b.fetchBlock(ctx, blk)
		if err != nil {
			return total, err
		}

		src := lo - blkStart
		if src >= int64(len(data)) {
			break
		}
		n := copy(p[lo-off:hi-off], data[src:])
		total += n
		if int64(n) < hi-lo {
			break
		}
	}

	if total < len(p) {
		return total, io.EOF
	}
	return total, nil
}

// fillCache loads the missing blocks of [startBlock, endBlock], coalescing
// contiguous runs into single backend reads.
func (b *CachingBlob) fillCache(ctx context.Context, startBlock, endBlock int64) error {
	type run struct{ start, count int64 }
	var missing []run

	for blk := startBlock; blk <= endBlock; blk++ {
		if _, ok := b.cache.Get(ctx, b.key(blk)); ok {
			continue
		}
		if n := len(missing); n > 0 && missing[n-1].start+missing[n-1].count == blk {
			missing[n-1].count++
		} else {
			missing = append(missing, run{blk, 1})
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)

	for _, r := range missing {
		g.Go(func() error {
			byteStart := r.start * b.blockSize
			byteSize := min(r.count*b.blockSize, b.Size()-byteStart)
			if byteSize <= 0 {
				return nil
			}

			buf := make([]byte, byteSize)
			n, err := b.inner.ReadAt(gctx, buf, byteStart)
			if err != nil && !errors.Is(err, io.EOF) {
				return err
			}
			buf = buf[:n]

			for i := int64(0); i < r.count; i++ {
				lo := i * b.blockSize
				if lo >= int64(len(buf)) {
					break
				}
				hi := min(lo+b.blockSize, int64(len(buf)))
				// Copy so one cached block never pins the whole run buffer.
				chunk := make([]byte, hi-lo)
				copy(chunk, buf[lo:hi])
				b.cache.Set(gctx, b.key(r.start+i), chunk)
			}
			return nil
		})
	}
	return g.Wait()
}

func (b *CachingBlob) fetchBlock(ctx context.Context, blk int64) ([]byte, error) {
	if data, ok := b.cache.Get(ctx, b.key(blk)); ok {
		return data, nil
	}

	// The cache refused the block (budget or capacity); read it directly.
	buf := make([]byte, b.blockSize)
	n, err := b.inner.ReadAt(ctx, buf, blk*b.blockSize)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return buf[:n], nil
}

// ReadRange serves the range through the block cache.
func (b *CachingBlob) ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error) {
	return io.NopCloser(&contextSectionReader{blob: b, ctx: ctx, off: off, limit: off + length}), nil
}

type contextSectionReader struct {
	blob  *CachingBlob
	ctx   context.Context
	off   int64
	limit int64
}

func (r *contextSectionReader) Read(p []byte) (int, error) {
	if r.off >= r.limit {
		return 0, io.EOF
	}
	if remaining := r.limit - r.off; int64(len(p)) > remaining {
		p = p[:remaining]
	}
	n, err := r.blob.ReadAt(r.ctx, p, r.off)
	r.off += int64(n)
	return n, err
}
