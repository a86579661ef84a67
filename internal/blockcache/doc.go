// Package blockcache caches fixed-size byte blocks of remote blobs.
//
// LRUBlockCache sits underneath blobstore.CachingStore so that reloading an
// evicted graph block does not go back to the network.
package blockcache
