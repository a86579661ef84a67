// Package engine runs walk applications to completion.
//
// Each round the scheduler fills the cache and names the buckets whose
// blocks are resident. The engine pulls every bucket in turn and advances
// its walkers on a pool of worker goroutines; walkers that leave the
// resident blocks are re-inserted into the walk manager for a later round.
// Between rounds oversized buckets are spilled. The run ends when no walker
// is pending.
//
// Cache slots are only mutated by the scheduler, which runs while no worker
// is active. Workers read resident slots and append to the walk manager.
package engine
