// Package driver moves bytes between storage and memory for the walk engine.
//
// Driver reads the offset, neighbor and weight ranges of a block into a cache
// slot. SpillStore writes pending walkers of a bucket to a blob store as
// compressed frames and reads them back.
package driver
