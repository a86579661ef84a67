// Package resource bounds the process-wide resources of a walk run.
//
// A Controller tracks three budgets:
//
//   - Memory: bytes held by cache slot buffers and spill frames (non-blocking, fail-fast)
//   - Background: concurrent spill writers
//   - IO: bytes per second read from block files and written to spill files
//
// Memory is accounted with a weighted semaphore; AcquireMemory never blocks and
// returns ErrMemoryLimitExceeded when the budget is exhausted:
//
//	rc := resource.NewController(resource.Config{
//	    MemoryLimitBytes:   1 << 30,
//	    IOLimitBytesPerSec: 200 << 20,
//	})
//	if err := rc.AcquireMemory(slotBytes); err != nil {
//	    return err
//	}
//	defer rc.ReleaseMemory(slotBytes)
//
// IO uses a token bucket. Requests larger than one second of budget are
// split into burst-sized waits so a single large block load is throttled
// instead of rejected.
//
// All methods are safe for concurrent use and a nil *Controller is a no-op.
package resource
