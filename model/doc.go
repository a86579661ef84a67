// Package model defines core types used throughout graphwalk.
//
// # Identity Types
//
//   - VertexID: Dense, global vertex identifier (uint32)
//   - EdgeID: Global edge offset into the CSR neighbor array (uint64)
//   - BlockID: Identifier of a contiguous vertex partition (uint32)
//   - WalkerID: Identifier of one random walk (uint32)
//
// # Data Types
//
//   - Walker: Fixed-width progress record of one walk
//   - Bucket: (previous block, current block) pair a pending walker belongs to
package model
