// Package testutil provides testing utilities for graphwalk.
//
// This package is intended for use in tests and benchmarks only.
//
// # Graph Fixtures
//
//	g := testutil.Cycle(5)
//	layout := testutil.WriteDataset(t, store, "cycle", g, 40)
//
// # Random Graphs
//
//	rng := testutil.NewRNG(seed)
//	g := rng.PowerLawGraph(1000, 8, 1.5)
//
// # Distribution Checks
//
//	p := testutil.ChiSquarePValue(counts, weights)
package testutil
