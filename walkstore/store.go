package walkstore

import (
	"context"

	"github.com/hupe1980/graphwalk/model"
)

// Store holds spilled walkers per bucket.
//
// Append and Drain of different buckets may run concurrently.
type Store interface {
	// Append persists walkers for a bucket.
	Append(ctx context.Context, bucket int, walkers []model.Walker) error
	// Drain appends every walker stored for bucket to dst and removes them.
	Drain(ctx context.Context, bucket int, dst []model.Walker) ([]model.Walker, error)
	// Close releases resources held by the store.
	Close() error
}
