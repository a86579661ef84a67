package graphwalk_test

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/hupe1980/graphwalk"
	"github.com/hupe1980/graphwalk/blobstore"
)

func Example() {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	edges := "0 1\n1 2\n2 3\n3 4\n4 0\n"
	info, err := graphwalk.Convert(ctx, store, "ring", strings.NewReader(edges), graphwalk.ConvertOptions{
		BlockSize:  40,
		Undirected: true,
	})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println("vertices:", info.Vertices, "blocks:", info.Blocks)

	g, err := graphwalk.Open(ctx, "ring",
		graphwalk.WithBlobStore(store),
		graphwalk.WithBlockSize(40),
		graphwalk.WithCacheSlots(2),
		graphwalk.WithSeed(1),
	)
	if err != nil {
		log.Fatal(err)
	}
	defer g.Close()

	transit, err := graphwalk.Node2Vec(0.5, 2)
	if err != nil {
		log.Fatal(err)
	}
	stats, err := g.Run(ctx, graphwalk.Walk{WalksPerSource: 4, Hops: 10, Transit: transit})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println("steps:", stats.Steps)

	// Output:
	// vertices: 5 blocks: 3
	// steps: 200
}

func ExampleRecorder() {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	// A path graph: every walker from 0 must go 0 -> 1 -> 2.
	if _, err := graphwalk.Convert(ctx, store, "path", strings.NewReader("0 1\n1 2\n"), graphwalk.ConvertOptions{
		BlockSize: 1024,
	}); err != nil {
		log.Fatal(err)
	}

	g, err := graphwalk.Open(ctx, "path", graphwalk.WithBlobStore(store), graphwalk.WithBlockSize(1024))
	if err != nil {
		log.Fatal(err)
	}
	defer g.Close()

	rec := graphwalk.NewRecorder()
	if _, err := g.Run(ctx, graphwalk.Walk{
		WalksPerSource: 1,
		Hops:           2,
		Sources:        []graphwalk.VertexID{0},
		Observer:       rec,
	}); err != nil {
		log.Fatal(err)
	}
	for _, id := range rec.Walkers() {
		fmt.Println(id, rec.Path(id))
	}

	// Output:
	// 0 [0 1 2]
}
