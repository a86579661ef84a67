package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hupe1980/graphwalk/internal/partition"
	"github.com/hupe1980/graphwalk/internal/resource"
	"github.com/hupe1980/graphwalk/model"
)

var (
	// ErrBlockTooLarge is returned when a block does not fit a cache slot.
	ErrBlockTooLarge = errors.New("cache: block exceeds slot size")
	// ErrInvalidSlot is returned for slot indexes out of range.
	ErrInvalidSlot = errors.New("cache: invalid slot")
	// ErrNotResident is returned when a vertex's block is not in any slot.
	ErrNotResident = errors.New("cache: block not resident")
)

// BlockTooLargeError carries the sizes of a block that does not fit a slot.
type BlockTooLargeError struct {
	Block     model.BlockID
	Bytes     int64
	SlotBytes int64
}

func (e *BlockTooLargeError) Error() string {
	return fmt.Sprintf("cache: block %d needs %d bytes, slot holds %d", e.Block, e.Bytes, e.SlotBytes)
}

func (e *BlockTooLargeError) Unwrap() error { return ErrBlockTooLarge }

// Loader fills a slot's buffers with the data of a block.
// Implementations reuse the capacity of the slot's existing buffers.
type Loader interface {
	LoadBlock(ctx context.Context, blk *partition.Block, dst *Slot) error
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context, blk *partition.Block, dst *Slot) error

// LoadBlock calls f.
func (f LoaderFunc) LoadBlock(ctx context.Context, blk *partition.Block, dst *Slot) error {
	return f(ctx, blk, dst)
}

// Slot is one cache slot.
type Slot struct {
	// Offsets holds NumVertices+1 absolute edge offsets of the block.
	Offsets []uint64
	// Edges holds the block's neighbor ids.
	Edges []model.VertexID
	// EdgeWeights holds the block's edge weights; empty for unweighted graphs.
	EdgeWeights []float32

	block    *partition.Block
	life     uint32
	reserved int64
}

// Block returns the resident block, or nil for an empty slot.
func (s *Slot) Block() *partition.Block { return s.block }

// Life returns the number of rounds since the block was last (re)selected.
func (s *Slot) Life() uint32 { return s.life }

func (s *Slot) span(v model.VertexID) (uint64, uint64) {
	off := v - s.block.StartVertex
	base := uint64(s.block.StartEdge)
	return s.Offsets[off] - base, s.Offsets[off+1] - base
}

// Neighbors returns the sorted adjacency of v, borrowed from the slot buffer.
// v must belong to the resident block.
func (s *Slot) Neighbors(v model.VertexID) []model.VertexID {
	lo, hi := s.span(v)
	return s.Edges[lo:hi:hi]
}

// Weights returns the edge weights of v, or nil for unweighted graphs.
func (s *Slot) Weights(v model.VertexID) []float32 {
	if len(s.EdgeWeights) == 0 {
		return nil
	}
	lo, hi := s.span(v)
	return s.EdgeWeights[lo:hi:hi]
}

// Degree returns the out-degree of v.
func (s *Slot) Degree(v model.VertexID) int {
	lo, hi := s.span(v)
	return int(hi - lo)
}

// Cache is a fixed number of block slots.
//
// Cache is not safe for concurrent mutation. Reads through Slot and Lookup may
// run concurrently as long as no Load, Evict, Swap or Age is in progress.
type Cache struct {
	table     *partition.Table
	slots     []Slot
	slotBytes int64
	loader    Loader
	rc        *resource.Controller
	logger    *slog.Logger
	loads     int
	loadBytes int64
}

// Option configures a Cache.
type Option func(*Cache)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Cache) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a cache of capacity slots of slotBytes each. Capacity is
// clamped to the number of blocks. Slot memory is accounted against rc as
// buffers grow.
func New(table *partition.Table, capacity int, slotBytes int64, loader Loader, rc *resource.Controller, opts ...Option) (*Cache, error) {
	if capacity < 1 {
		return nil, fmt.Errorf("%w: capacity %d", ErrInvalidSlot, capacity)
	}
	capacity = min(capacity, table.NumBlocks())
	if need := table.MaxBlockBytes(); need > slotBytes {
		return nil, &BlockTooLargeError{Block: largestBlock(table), Bytes: need, SlotBytes: slotBytes}
	}

	c := &Cache{
		table:     table,
		slots:     make([]Slot, capacity),
		slotBytes: slotBytes,
		loader:    loader,
		rc:        rc,
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func largestBlock(t *partition.Table) model.BlockID {
	var id model.BlockID
	var size int64
	for i := range t.NumBlocks() {
		if b := t.Block(model.BlockID(i)).Bytes(t.Weighted()); b > size {
			id, size = model.BlockID(i), b
		}
	}
	return id
}

// Table returns the partition table the cache indexes into.
func (c *Cache) Table() *partition.Table { return c.table }

// Capacity returns the number of slots.
func (c *Cache) Capacity() int { return len(c.slots) }

// SlotBytes returns the per-slot byte budget.
func (c *Cache) SlotBytes() int64 { return c.slotBytes }

// Loads returns the number of block loads performed.
func (c *Cache) Loads() int { return c.loads }

// LoadedBytes returns the number of block bytes loaded.
func (c *Cache) LoadedBytes() int64 { return c.loadBytes }

// Slot returns slot i.
func (c *Cache) Slot(i int) *Slot { return &c.slots[i] }

func (c *Cache) checkSlot(i int) error {
	if i < 0 || i >= len(c.slots) {
		return fmt.Errorf("%w: %d of %d", ErrInvalidSlot, i, len(c.slots))
	}
	return nil
}

// Load places block blk into slot i. A block already in slot i only has its
// life reset; a block resident in another slot is moved without I/O.
func (c *Cache) Load(ctx context.Context, blk model.BlockID, i int) error {
	if err := c.checkSlot(i); err != nil {
		return err
	}
	block := c.table.Block(blk)

	if block.CacheIndex != c.table.Sentinel() {
		if int(block.CacheIndex) != i {
			c.Swap(int(block.CacheIndex), i)
		}
		c.slots[i].life = 0
		return nil
	}

	size := block.Bytes(c.table.Weighted())
	if size > c.slotBytes {
		return &BlockTooLargeError{Block: blk, Bytes: size, SlotBytes: c.slotBytes}
	}

	c.Evict(i)
	s := &c.slots[i]
	if size > s.reserved {
		if err := c.rc.AcquireMemory(size - s.reserved); err != nil {
			return fmt.Errorf("cache: load block %d: %w", blk, err)
		}
		s.reserved = size
	}

	if err := c.loader.LoadBlock(ctx, block, s); err != nil {
		return fmt.Errorf("cache: load block %d: %w", blk, err)
	}
	if len(s.Offsets) != int(block.NumVertices)+1 || uint64(len(s.Edges)) != block.NumEdges {
		return fmt.Errorf("cache: load block %d: loader returned %d offsets and %d edges", blk, len(s.Offsets), len(s.Edges))
	}

	s.block = block
	s.life = 0
	block.CacheIndex = uint32(i)
	c.loads++
	c.loadBytes += size

	c.logger.Debug("block loaded", "block", blk, "slot", i, "bytes", size)
	return nil
}

// Evict empties slot i. Its buffers are kept for the next load.
func (c *Cache) Evict(i int) {
	s := &c.slots[i]
	if s.block != nil {
		s.block.CacheIndex = c.table.Sentinel()
		s.block = nil
	}
	s.life = 0
}

// Swap exchanges the contents of slots i and j without I/O.
func (c *Cache) Swap(i, j int) {
	if i == j {
		return
	}
	c.slots[i], c.slots[j] = c.slots[j], c.slots[i]
	if b := c.slots[i].block; b != nil {
		b.CacheIndex = uint32(i)
	}
	if b := c.slots[j].block; b != nil {
		b.CacheIndex = uint32(j)
	}
}

// Occupant returns the block in slot i.
func (c *Cache) Occupant(i int) (model.BlockID, bool) {
	if b := c.slots[i].block; b != nil {
		return b.ID, true
	}
	return 0, false
}

// Resident returns the resident blocks in slot order.
func (c *Cache) Resident() []model.BlockID {
	ids := make([]model.BlockID, 0, len(c.slots))
	for i := range c.slots {
		if b := c.slots[i].block; b != nil {
			ids = append(ids, b.ID)
		}
	}
	return ids
}

// Age increments the life of every occupied slot.
func (c *Cache) Age() {
	for i := range c.slots {
		if c.slots[i].block != nil {
			c.slots[i].life++
		}
	}
}

// ResetLife sets the life of slot i to zero.
func (c *Cache) ResetLife(i int) {
	c.slots[i].life = 0
}

// Lookup returns the slot holding v's block.
func (c *Cache) Lookup(v model.VertexID) (*Slot, error) {
	blk := c.table.BlockOf(v)
	idx := c.table.Block(blk).CacheIndex
	if idx == c.table.Sentinel() {
		return nil, fmt.Errorf("%w: vertex %d in block %d", ErrNotResident, v, blk)
	}
	return &c.slots[idx], nil
}

// Close evicts every slot and returns the slot memory to the controller.
func (c *Cache) Close() error {
	for i := range c.slots {
		c.Evict(i)
		c.rc.ReleaseMemory(c.slots[i].reserved)
		c.slots[i] = Slot{}
	}
	return nil
}
