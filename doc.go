// Package graphwalk runs second-order random walks over graphs that do not fit
// in memory.
//
// A dataset is a CSR graph split into blocks. Only a few blocks are held in
// the cache at a time; walkers are parked in buckets keyed by the blocks of
// their previous and current vertex, and a scheduler picks which blocks to
// load next so that as many walkers as possible can move.
//
// # Quick Start
//
// Convert an edge list once, then walk it:
//
//	ctx := context.Background()
//	store := blobstore.NewLocalStore("./data")
//	_, _ = graphwalk.Convert(ctx, store, "web", edges, graphwalk.ConvertOptions{BlockSize: 1 << 20})
//
//	g, _ := graphwalk.Open(ctx, "web",
//	    graphwalk.WithBlobStore(store),
//	    graphwalk.WithBlockSize(1<<20),
//	    graphwalk.WithCacheMemory(64<<20),
//	)
//	defer g.Close()
//
//	transit, _ := graphwalk.Node2Vec(0.5, 2)
//	stats, _ := g.Run(ctx, graphwalk.Walk{
//	    WalksPerSource: 10,
//	    Hops:           80,
//	    Transit:        transit,
//	})
//
// # Scheduling
//
// Three schedulers are available through WithScheduler:
//
//	graphwalk.SchedulerGreedy     // majority-vote block choice, one block per round
//	graphwalk.SchedulerAnnealing  // hill climbing over block sets (default)
//	graphwalk.SchedulerLP         // densest-subgraph LP with branch and bound
//
// # Sampling
//
// Transition probabilities are unnormalized weights computed per candidate by
// Transit callbacks. WithSampler picks how candidates are drawn: naive,
// inverse transform (default), alias, or rejection against the Transit bounds.
//
// # Spilling
//
// WithSpill bounds the number of pending walkers kept in memory. Buckets above
// the threshold are written to a walkstore.Store, by default compressed frames
// in the dataset's blob store.
package graphwalk
