package format

import (
	"fmt"
)

// MetaName returns the blob name of the meta record.
func MetaName(name string) string { return name + ".meta" }

// OffsetsName returns the blob name of the offsets file.
func OffsetsName(name string) string { return name + ".beg" }

// NeighborsName returns the blob name of the neighbor file.
func NeighborsName(name string) string { return name + ".csr" }

// WeightsName returns the blob name of the weight file.
func WeightsName(name string) string { return name + ".wht" }

// VertexBoundsName returns the blob name of the vertex boundaries for blockSize.
func VertexBoundsName(name string, blockSize int64) string {
	return fmt.Sprintf("%s.%d.vblk", name, blockSize)
}

// EdgeBoundsName returns the blob name of the edge boundaries for blockSize.
func EdgeBoundsName(name string, blockSize int64) string {
	return fmt.Sprintf("%s.%d.eblk", name, blockSize)
}

// ExpectedLengthName returns the blob name of the per-block expected walk lengths.
func ExpectedLengthName(name string, blockSize int64) string {
	return fmt.Sprintf("%s.%d.exp", name, blockSize)
}

// WalkPrefix is the blob prefix of spilled walker frames.
const WalkPrefix = "walks/"

// WalkBucketPrefix returns the blob prefix of the spilled frames of a bucket.
func WalkBucketPrefix(bucket int) string {
	return fmt.Sprintf("%s%d/", WalkPrefix, bucket)
}

// WalkName returns the blob name of the seq-th spill of a bucket. Names of one
// bucket sort in spill order.
func WalkName(bucket int, seq uint64) string {
	return fmt.Sprintf("%s%010d.walk", WalkBucketPrefix(bucket), seq)
}
