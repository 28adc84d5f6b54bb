package ipld

import (
	"context"
	"sort"
	"sync"

	block "github.com/ipfs/go-block-format"
	cid "github.com/ipfs/go-cid"
	ipldformat "github.com/ipfs/go-ipld-format"
	"golang.org/x/xerrors"

	"github.com/linear-vesting/vesting-actors/actors/util/adt"
)

// Creates a new, empty IPLD store in memory.
// This store is appropriate for most kinds of testing.
func NewADTStore(ctx context.Context) adt.Store {
	return adt.WrapBlockStore(ctx, NewBlockStoreInMemory())
}

//
// A block store for testing.
// Blocks are held in a map keyed by CID, guarded for concurrent readers.
//

type BlockStoreInMemory struct {
	mu   sync.RWMutex
	data map[cid.Cid]block.Block
}

func NewBlockStoreInMemory() *BlockStoreInMemory {
	return &BlockStoreInMemory{data: make(map[cid.Cid]block.Block)}
}

func (mb *BlockStoreInMemory) Get(c cid.Cid) (block.Block, error) {
	mb.mu.RLock()
	defer mb.mu.RUnlock()
	d, ok := mb.data[c]
	if ok {
		return d, nil
	}
	return nil, xerrors.Errorf("block %v: %w", c, ipldformat.ErrNotFound)
}

func (mb *BlockStoreInMemory) Put(b block.Block) error {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	mb.data[b.Cid()] = b
	return nil
}

func (mb *BlockStoreInMemory) Has(c cid.Cid) bool {
	mb.mu.RLock()
	defer mb.mu.RUnlock()
	_, ok := mb.data[c]
	return ok
}

func (mb *BlockStoreInMemory) Len() int {
	mb.mu.RLock()
	defer mb.mu.RUnlock()
	return len(mb.data)
}

// Visits every block in CID key order.
func (mb *BlockStoreInMemory) ForEach(fn func(b block.Block) error) error {
	mb.mu.RLock()
	blocks := make([]block.Block, 0, len(mb.data))
	for _, b := range mb.data { // nolint:nomaprange
		blocks = append(blocks, b)
	}
	mb.mu.RUnlock()

	sort.Slice(blocks, func(i, j int) bool {
		return blocks[i].Cid().KeyString() < blocks[j].Cid().KeyString()
	})
	for _, b := range blocks {
		if err := fn(b); err != nil {
			return err
		}
	}
	return nil
}

//
// A block store wrapper that counts reads and writes.
//

type MetricsBlockStore struct {
	bs         *BlockStoreInMemory
	mu         sync.Mutex
	Writes     uint64
	WriteBytes uint64
	Reads      uint64
	ReadBytes  uint64
}

func NewMetricsBlockStore(underlying *BlockStoreInMemory) *MetricsBlockStore {
	return &MetricsBlockStore{bs: underlying}
}

func (ms *MetricsBlockStore) Get(c cid.Cid) (block.Block, error) {
	b, err := ms.bs.Get(c)
	if err != nil {
		return nil, err
	}
	ms.mu.Lock()
	ms.Reads++
	ms.ReadBytes += uint64(len(b.RawData()))
	ms.mu.Unlock()
	return b, nil
}

func (ms *MetricsBlockStore) Put(b block.Block) error {
	ms.mu.Lock()
	ms.Writes++
	ms.WriteBytes += uint64(len(b.RawData()))
	ms.mu.Unlock()
	return ms.bs.Put(b)
}

func (ms *MetricsBlockStore) Underlying() *BlockStoreInMemory {
	return ms.bs
}

func (ms *MetricsBlockStore) Reset() {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.Writes, ms.WriteBytes, ms.Reads, ms.ReadBytes = 0, 0, 0, 0
}
