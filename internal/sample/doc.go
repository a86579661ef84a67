// Package sample draws the next hop of a walker.
//
// A Context describes one hop: the current vertex with its adjacency, the
// previous vertex with its adjacency, and the transition functions of the
// application. Each candidate neighbor is classified as the previous vertex
// (Equal), a neighbor of the previous vertex (CommonNeighbor), or neither
// (Other), and weighted by the matching transition function.
//
// Four samplers are available. Naive ignores weights. ITS (inverse transform)
// and Alias materialize all candidate weights. Reject draws candidates
// uniformly and accepts them against the UpperBound and LowerBound functions,
// evaluating only the weight of the drawn candidate.
//
// Samplers are stateless apart from a draw counter and are shared by all
// workers; every worker owns its Context and Rand.
package sample
