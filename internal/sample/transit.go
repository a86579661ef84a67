package sample

import (
	"errors"

	"github.com/hupe1980/graphwalk/model"
)

// ErrMissingTransit is returned for transition function sets without
// Equal, CommonNeighbor or Other.
var ErrMissingTransit = errors.New("sample: missing transition function")

// TransitContext describes one side of a transition.
type TransitContext struct {
	Vertex model.VertexID
	Degree int
	// Weight is the stored weight of the candidate edge on the current side
	// of weighted graphs. It is zero otherwise.
	Weight float32
	// Weighted reports whether the graph stores edge weights.
	Weighted bool
}

// TransitFunc scores a transition given the current and previous vertex.
type TransitFunc func(cur, prev TransitContext) float64

// TransitFuncs is the set of transition functions of an application.
//
// UpperBound and LowerBound must bound the scores of Equal, CommonNeighbor
// and Other for the same (cur, prev) pair. They are used only by the
// rejection sampler on unweighted graphs.
type TransitFuncs struct {
	Equal          TransitFunc
	CommonNeighbor TransitFunc
	Other          TransitFunc
	UpperBound     TransitFunc
	LowerBound     TransitFunc
}

// Validate checks that the required functions are set.
func (f *TransitFuncs) Validate() error {
	if f == nil || f.Equal == nil || f.CommonNeighbor == nil || f.Other == nil {
		return ErrMissingTransit
	}
	return nil
}
