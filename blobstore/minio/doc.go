// Package minio provides a BlobStore backed by MinIO or any S3-compatible server.
//
//	store, err := minio.New("localhost:9000", "graphs",
//	    minio.WithCredentials("minioadmin", "minioadmin"),
//	    minio.WithPrefix("twitter/"),
//	)
//
// Datasets converted locally can be uploaded with the same file names and
// walked remotely; wrap the store in a blobstore.CachingStore so reloaded
// blocks do not hit the network again.
package minio
