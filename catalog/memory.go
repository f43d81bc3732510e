package catalog

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"sync"

	"github.com/VibhavTh/Sniftr/core"
)

// MemoryCatalog 是内存目录实现，用于测试与原型。
type MemoryCatalog struct {
	mu    sync.RWMutex
	items map[int64]*core.Item
	ids   []int64 // 升序，保证随机抽样可复现
	rng   *rand.Rand

	interactions []Interaction
}

// Interaction 是一条已记录的交互（测试断言用）。
type Interaction struct {
	ItemID int64
	Action string
}

func NewMemoryCatalog(items []*core.Item, seed int64) *MemoryCatalog {
	mc := &MemoryCatalog{
		items: make(map[int64]*core.Item, len(items)),
		rng:   rand.New(rand.NewSource(seed)),
	}
	for _, it := range items {
		if it == nil {
			continue
		}
		if _, ok := mc.items[it.ID]; !ok {
			mc.ids = append(mc.ids, it.ID)
		}
		mc.items[it.ID] = it
	}
	sort.Slice(mc.ids, func(i, j int) bool { return mc.ids[i] < mc.ids[j] })
	return mc
}

func (m *MemoryCatalog) FetchRandom(_ context.Context, limit int) ([]*core.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if limit <= 0 {
		limit = 1
	}
	if limit > len(m.ids) {
		limit = len(m.ids)
	}
	perm := m.rng.Perm(len(m.ids))
	out := make([]*core.Item, 0, limit)
	for _, idx := range perm[:limit] {
		out = append(out, m.items[m.ids[idx]])
	}
	return out, nil
}

func (m *MemoryCatalog) FetchByIDs(_ context.Context, ids []int64) ([]*core.Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*core.Item, 0, len(ids))
	for _, id := range ids {
		if it, ok := m.items[id]; ok {
			out = append(out, it)
		}
	}
	return out, nil
}

func (m *MemoryCatalog) FetchByID(_ context.Context, id int64) (*core.Item, error) {
	m.mu.RLock()
	it, ok := m.items[id]
	m.mu.RUnlock()
	if !ok {
		return nil, core.NewDomainError(core.ModuleCatalog, core.ErrorCodeNotFound,
			fmt.Sprintf("catalog: bottle %d not found", id))
	}
	return it, nil
}

func (m *MemoryCatalog) LogInteraction(_ context.Context, itemID int64, action string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.interactions = append(m.interactions, Interaction{ItemID: itemID, Action: action})
	return nil
}

// Interactions 返回已记录交互的副本。
func (m *MemoryCatalog) Interactions() []Interaction {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Interaction, len(m.interactions))
	copy(out, m.interactions)
	return out
}

func (m *MemoryCatalog) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.ids)
}

var _ core.Catalog = (*MemoryCatalog)(nil)
