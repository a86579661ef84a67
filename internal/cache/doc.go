// Package cache holds graph blocks in memory.
//
// Cache is the fixed set of slots the walk engine reads adjacency from. Each
// slot holds at most one block; the block's CacheIndex in the partition table
// points back at the slot. Slots are mutated only between rounds (Load, Evict,
// Swap, Age) and are read concurrently, never written, while walkers advance.
package cache
