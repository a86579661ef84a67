// Package schedule decides which blocks occupy the cache slots in each round
// and which buckets the round may process.
//
// A scheduler only emits buckets whose previous and current block are both
// resident when Schedule returns. Three policies are available:
//
//   - Greedy loads the block with the most incoming walkers and then, one
//     call at a time, each block that shares walkers with it.
//   - Annealing seeds the slot set with the busiest blocks and improves it
//     with random swaps, keeping a swap only when it strictly raises the
//     walkers served per newly loaded block.
//   - LP selects the set by solving a 0/1 program with gonum's simplex and a
//     bounded branch and bound, falling back to the annealing seed.
package schedule
