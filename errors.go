package graphwalk

import (
	"errors"
	"fmt"

	"github.com/hupe1980/graphwalk/blobstore"
	"github.com/hupe1980/graphwalk/internal/app"
	"github.com/hupe1980/graphwalk/internal/cache"
	"github.com/hupe1980/graphwalk/internal/driver"
	"github.com/hupe1980/graphwalk/internal/engine"
	"github.com/hupe1980/graphwalk/internal/format"
	"github.com/hupe1980/graphwalk/internal/partition"
	"github.com/hupe1980/graphwalk/internal/resource"
	"github.com/hupe1980/graphwalk/internal/sample"
	"github.com/hupe1980/graphwalk/internal/schedule"
	"github.com/hupe1980/graphwalk/walkstore"
)

var (
	// ErrClosed is returned when using a closed Graph.
	ErrClosed = errors.New("graphwalk: closed")
	// ErrNotFound is returned when a dataset file does not exist.
	ErrNotFound = errors.New("graphwalk: not found")
	// ErrInvalidArgument is returned for invalid options or walk parameters.
	ErrInvalidArgument = errors.New("graphwalk: invalid argument")
	// ErrCorrupt is returned when dataset or spill files fail validation.
	ErrCorrupt = errors.New("graphwalk: corrupt data")
	// ErrBlockTooLarge is returned when a block does not fit a cache slot.
	ErrBlockTooLarge = errors.New("graphwalk: block exceeds cache slot")
	// ErrRejectLimit is returned when the rejection sampler gives up on a vertex.
	ErrRejectLimit = errors.New("graphwalk: rejection limit exceeded")
	// ErrNoProgress is returned when pending walkers cannot be scheduled.
	ErrNoProgress = errors.New("graphwalk: no progress")
	// ErrMemoryLimit is returned when the cache memory budget is exhausted.
	ErrMemoryLimit = errors.New("graphwalk: memory limit exceeded")
)

// RejectLimitError carries diagnostics of a failed rejection draw.
//
// errors.Is(err, ErrRejectLimit) reports true for it.
type RejectLimitError = sample.RejectLimitError

// BlockTooLargeError carries the size of the block that did not fit.
//
// errors.Is(err, ErrBlockTooLarge) reports true for it.
type BlockTooLargeError = cache.BlockTooLargeError

func translateError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, driver.ErrClosed):
		return fmt.Errorf("%w: %w", ErrClosed, err)
	case errors.Is(err, blobstore.ErrNotFound):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, format.ErrCorrupt),
		errors.Is(err, format.ErrUnsupportedVersion),
		errors.Is(err, walkstore.ErrCorruptFrame):
		return fmt.Errorf("%w: %w", ErrCorrupt, err)
	case errors.Is(err, cache.ErrBlockTooLarge),
		errors.Is(err, format.ErrVertexTooLarge):
		return fmt.Errorf("%w: %w", ErrBlockTooLarge, err)
	case errors.Is(err, sample.ErrRejectLimit):
		return fmt.Errorf("%w: %w", ErrRejectLimit, err)
	case errors.Is(err, engine.ErrNoProgress):
		return fmt.Errorf("%w: %w", ErrNoProgress, err)
	case errors.Is(err, resource.ErrMemoryLimitExceeded):
		return fmt.Errorf("%w: %w", ErrMemoryLimit, err)
	case errors.Is(err, app.ErrInvalidArgument),
		errors.Is(err, sample.ErrUnknownKind),
		errors.Is(err, sample.ErrMissingTransit),
		errors.Is(err, schedule.ErrUnknownKind),
		errors.Is(err, schedule.ErrCapacity),
		errors.Is(err, format.ErrInvalidGraph),
		errors.Is(err, partition.ErrVertexOutOfRange),
		errors.Is(err, cache.ErrInvalidSlot):
		return fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}

	return err
}
