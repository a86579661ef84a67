// Package s3 provides an Amazon S3 implementation of blobstore.BlobStore.
//
// # Usage
//
//	store, err := s3.New(ctx, "graphs",
//	    s3.WithPrefix("twitter/"),
//	    s3.WithRegion("us-east-1"),
//	)
//
//	g, err := graphwalk.Open(ctx, "twitter", graphwalk.WithBlobStore(store), graphwalk.WithRemoteCache(4<<30))
//
// Block loads become ranged GETs; spilled walker frames are written with
// multipart uploads. Set S3_BUCKET to run the integration test.
package s3
