package app

import (
	"slices"
	"sync"
	"sync/atomic"

	"github.com/hupe1980/graphwalk/model"
)

// Observer is notified of every hop and every finished walker. Methods are
// called concurrently from the engine workers.
type Observer interface {
	OnHop(w model.Walker, next model.VertexID)
	OnFinish(w model.Walker)
}

// Recorder is an Observer that records the path of every walker.
type Recorder struct {
	mu       sync.Mutex
	paths    map[model.WalkerID][]model.VertexID
	finished atomic.Int64
}

// NewRecorder returns an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{paths: make(map[model.WalkerID][]model.VertexID)}
}

func (r *Recorder) OnHop(w model.Walker, next model.VertexID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.paths[w.ID]
	if !ok {
		p = append(p, w.Source)
	}
	r.paths[w.ID] = append(p, next)
}

func (r *Recorder) OnFinish(model.Walker) {
	r.finished.Add(1)
}

// Finished returns the number of finished walkers.
func (r *Recorder) Finished() int64 { return r.finished.Load() }

// Path returns the vertices visited by walker id, starting at its source.
func (r *Recorder) Path(id model.WalkerID) []model.VertexID {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.paths[id])
}

// Walkers returns the ids of all recorded walkers in ascending order.
func (r *Recorder) Walkers() []model.WalkerID {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]model.WalkerID, 0, len(r.paths))
	for id := range r.paths {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
