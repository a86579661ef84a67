package sample

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"sync/atomic"

	"github.com/hupe1980/graphwalk/model"
)

var (
	// ErrUnknownKind is returned for unknown sampler names.
	ErrUnknownKind = errors.New("sample: unknown sampler")
	// ErrRejectLimit is returned when the rejection sampler exceeds its retry cap.
	ErrRejectLimit = errors.New("sample: rejection limit exceeded")
	// ErrInvalidWeights is returned when no candidate has a positive finite weight.
	ErrInvalidWeights = errors.New("sample: no positive transition weight")
)

// MaxRejectTries is the number of draws after which the rejection sampler
// gives up on an unweighted context.
const MaxRejectTries = 500

// RejectLimitError reports a rejection sampler that did not accept within
// MaxRejectTries draws, which means UpperBound does not bound the weights.
type RejectLimitError struct {
	Vertex     model.VertexID
	PMax       float64
	PMin       float64
	Degree     int
	PrevDegree int
	Tries      int
}

func (e *RejectLimitError) Error() string {
	return fmt.Sprintf("sample: reject %d times at vertex %d (pmax %g, pmin %g, degree %d, previous degree %d)",
		e.Tries, e.Vertex, e.PMax, e.PMin, e.Degree, e.PrevDegree)
}

func (e *RejectLimitError) Unwrap() error { return ErrRejectLimit }

// Kind selects a sampler.
type Kind uint8

const (
	Naive Kind = iota
	ITS
	Alias
	Reject
)

// String returns the sampler name.
func (k Kind) String() string {
	switch k {
	case Naive:
		return "naive"
	case ITS:
		return "its"
	case Alias:
		return "alias"
	case Reject:
		return "reject"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// ParseKind parses a sampler name.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(s) {
	case "naive":
		return Naive, nil
	case "its", "":
		return ITS, nil
	case "alias":
		return Alias, nil
	case "reject", "rejection":
		return Reject, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

// Sampler draws a neighbor index for contexts of degree two or more.
type Sampler interface {
	// Kind returns the sampler kind.
	Kind() Kind
	// Sample returns an index into c.Neighbors.
	Sample(c *Context) (int, error)
	// SampleIndex draws an index with probability proportional to weights.
	SampleIndex(weights []float64, rng *Rand) (int, error)
	// Draws returns the number of random candidate draws performed.
	Draws() uint64
}

// New returns the sampler of kind k.
func New(k Kind) (Sampler, error) {
	switch k {
	case Naive:
		return &naiveSampler{}, nil
	case ITS:
		return &itsSampler{}, nil
	case Alias:
		return &aliasSampler{}, nil
	case Reject:
		return &rejectSampler{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, k)
	}
}

// VertexSample returns the next vertex of the hop described by c.
//
// A vertex without neighbors teleports to a uniformly random vertex. A vertex
// with one neighbor moves there without consuming randomness.
func VertexSample(c *Context, s Sampler) (model.VertexID, error) {
	switch len(c.Neighbors) {
	case 0:
		return model.VertexID(c.Rand.Uint32N(c.NumVertices)), nil
	case 1:
		return c.Neighbors[0], nil
	}
	i, err := s.Sample(c)
	if err != nil {
		return 0, err
	}
	return c.Neighbors[i], nil
}

type counter struct {
	draws atomic.Uint64
}

func (c *counter) Draws() uint64 { return c.draws.Load() }

func checkWeights(weights []float64) (total, maxW float64, err error) {
	if len(weights) == 0 {
		return 0, 0, fmt.Errorf("%w: no candidates", ErrInvalidWeights)
	}
	for _, w := range weights {
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return 0, 0, fmt.Errorf("%w: weight %g", ErrInvalidWeights, w)
		}
		total += w
		maxW = max(maxW, w)
	}
	if total <= 0 {
		return 0, 0, ErrInvalidWeights
	}
	return total, maxW, nil
}
