// Package session 实现面向客户端的发现会话状态机。
//
// 原始实现是前端 reducer 里的隐式闭包状态；这里重构为显式
// 有限状态机：类型化动作、串行化转移、代际标记的异步结果。
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/VibhavTh/Sniftr/core"
	"github.com/VibhavTh/Sniftr/recall"
)

// Mode 是会话所处的发现模式。
type Mode string

const (
	// ModeRandom 中性随机探索
	ModeRandom Mode = "random"

	// ModeCandidates 个性化候选循环（由最近一次 like 的种子驱动）
	ModeCandidates Mode = "candidates"
)

// Action 是会话的类型化动作。
type Action string

const (
	ActionStart Action = "start"
	ActionLike  Action = "like"
	ActionPass  Action = "pass"
)

// CandidateProvider 是会话消费的候选来源（recommend.Engine 实现之）。
type CandidateProvider interface {
	Candidates(ctx context.Context, seedID int64, seen map[int64]struct{}) ([]int64, error)
}

// Config 控制会话行为。
type Config struct {
	LowWater    int           // 队列低水位：低于此值触发后台补充
	MaxQueue    int           // 队列上限：约束内存
	RandomBatch int           // 随机取数批大小
	FetchWindow time.Duration // 后台补充的超时窗口
}

// DefaultConfig 返回参考配置。
func DefaultConfig() Config {
	return Config{
		LowWater:    5,
		MaxQueue:    100,
		RandomBatch: 10,
		FetchWindow: 5 * time.Second,
	}
}

// Machine 是单个会话的状态机。
//
// 单写者模型：所有转移在同一把锁下串行应用。转移跨越异步网络
// 取数、整体不是原子的，并发 Like/Pass 必须排队而不能交错。
// 每次成功应用的转移都会推进代际计数；后台补充带着发起时的
// 代际回来，代际已变则整批丢弃——过期结果一旦落地就会复活
// 不一致状态（例如把已置 true 的 passLifeUsed 冲回 false）。
type Machine struct {
	mu sync.Mutex

	id       string
	cfg      Config
	provider CandidateProvider
	catalog  core.Catalog
	random   recall.Source
	sf       singleflight.Group

	mode         Mode
	current      *core.Item
	queue        []*core.Item
	passLifeUsed bool
	lastLikedID  int64
	hasLiked     bool
	seen         map[int64]struct{}
	gen          uint64
}

// NewMachine 创建会话状态机（尚未展示任何物品，需先 Start）。
func NewMachine(id string, provider CandidateProvider, catalog core.Catalog, cfg Config) *Machine {
	if cfg.LowWater <= 0 {
		cfg.LowWater = 5
	}
	if cfg.MaxQueue <= 0 {
		cfg.MaxQueue = 100
	}
	if cfg.RandomBatch <= 0 {
		cfg.RandomBatch = 10
	}
	if cfg.FetchWindow <= 0 {
		cfg.FetchWindow = 5 * time.Second
	}
	return &Machine{
		id:       id,
		cfg:      cfg,
		provider: provider,
		catalog:  catalog,
		random:   &recall.Random{Catalog: catalog, Limit: cfg.RandomBatch},
		mode:     ModeRandom,
		seen:     make(map[int64]struct{}),
	}
}

// ID 返回会话标识。
func (m *Machine) ID() string { return m.id }

// State 是会话状态的只读快照（API 层序列化用）。
type State struct {
	Mode         Mode
	Current      *core.Item
	QueueLen     int
	PassLifeUsed bool
	LastLikedID  int64
	SeenCount    int
}

// Snapshot 返回当前状态快照。
func (m *Machine) Snapshot() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return State{
		Mode:         m.mode,
		Current:      m.current,
		QueueLen:     len(m.queue),
		PassLifeUsed: m.passLifeUsed,
		LastLikedID:  m.lastLikedID,
		SeenCount:    len(m.seen),
	}
}

// Start 开启会话：取一个未看过的随机物品展示。
func (m *Machine) Start(ctx context.Context) (*core.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, err := m.fetchRandomUnseenLocked(ctx)
	if err != nil {
		return nil, err
	}
	m.showLocked(item, ModeRandom)
	return item, nil
}

// Like 处理喜欢动作：记录交互、以被喜欢的物品为种子拉新候选池。
// 过滤后非空则进入候选模式并消费首个；全部已看过则降级随机。
// 取数失败时状态保持原样，动作可重试。
func (m *Machine) Like(ctx context.Context) (*core.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return nil, core.NewDomainError(core.ModuleSession, core.ErrorCodeInvalidInput, "session: no current item to like")
	}
	likedID := m.current.ID
	m.logInteraction(likedID, core.ActionLike)

	candidates, err := m.fetchCandidatesLocked(ctx, likedID)
	if err != nil && !core.IsEmptyPool(err) {
		return nil, err
	}

	if len(candidates) == 0 {
		// 候选全部已看过：回退中性探索，不当作错误暴露给用户
		item, rerr := m.fetchRandomUnseenLocked(ctx)
		if rerr != nil {
			return nil, rerr
		}
		m.showLocked(item, ModeRandom)
		return item, nil
	}

	next := candidates[0]
	m.queue = capQueue(candidates[1:], m.cfg.MaxQueue)
	m.passLifeUsed = false
	m.lastLikedID = likedID
	m.hasLiked = true
	m.showLocked(next, ModeCandidates)
	m.maybeRefillLocked()
	return next, nil
}

// Pass 处理划过动作。候选模式下执行“一条命”规则：
// 第一次 Pass 消费下一个候选并用掉生命；连续第二次 Pass
// 终止本轮循环，丢弃队列回到随机探索——这约束了不投入的
// 用户在个性化循环里的最大消耗。
func (m *Machine) Pass(ctx context.Context) (*core.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != nil {
		m.logInteraction(m.current.ID, core.ActionPass)
	}

	if m.mode == ModeCandidates && !m.passLifeUsed {
		if next := m.popQueueLocked(); next != nil {
			m.passLifeUsed = true
			m.showLocked(next, ModeCandidates)
			m.maybeRefillLocked()
			return next, nil
		}
		// 队列被 seen 过滤吃光：与生命用尽同样处理
	}

	// 随机模式下的 Pass、或生命已用尽的第二次 Pass：回到随机
	item, err := m.fetchRandomUnseenLocked(ctx)
	if err != nil {
		return nil, err
	}
	m.queue = nil
	m.showLocked(item, ModeRandom)
	return item, nil
}

// showLocked 是唯一的展示路径：先进 seen 再成为 current。
// 任何转移都不得展示已在 seen 里的物品。
func (m *Machine) showLocked(item *core.Item, mode Mode) {
	m.seen[item.ID] = struct{}{}
	m.current = item
	m.mode = mode
	m.gen++
}

// popQueueLocked 弹出队列中第一个未看过的物品。
func (m *Machine) popQueueLocked() *core.Item {
	for len(m.queue) > 0 {
		next := m.queue[0]
		m.queue = m.queue[1:]
		if _, ok := m.seen[next.ID]; !ok {
			return next
		}
	}
	return nil
}

// fetchCandidatesLocked 拉取以 seedID 为种子的候选并补全目录记录。
// 读层允许乱序返回，按引擎排序重建后才能消费。
func (m *Machine) fetchCandidatesLocked(ctx context.Context, seedID int64) ([]*core.Item, error) {
	ids, err := m.provider.Candidates(ctx, seedID, m.seenSnapshotLocked())
	if err != nil {
		return nil, err
	}
	ids = m.filterIDsLocked(ids, seedID)
	if len(ids) == 0 {
		return nil, core.ErrEmptyPool
	}

	rows, err := m.catalog.FetchByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	return core.ReorderByIDs(ids, rows), nil
}

// fetchRandomUnseenLocked 取一个未看过的随机物品，最多重试 5 批。
// 走随机召回源，展示的物品带上召回来源标签。
func (m *Machine) fetchRandomUnseenLocked(ctx context.Context) (*core.Item, error) {
	for attempt := 0; attempt < 5; attempt++ {
		items, err := m.random.Recall(ctx, nil)
		if err != nil {
			return nil, err
		}
		for _, it := range items {
			if it == nil {
				continue
			}
			if _, ok := m.seen[it.ID]; !ok {
				return it, nil
			}
		}
	}
	return nil, core.NewDomainError(core.ModuleSession, core.ErrorCodeEmptyPool,
		"session: no unseen random item available")
}

// maybeRefillLocked 在队列低于低水位时发起后台补充。
// singleflight 保证同一会话同时只有一个补充在途；补充结果
// 带着发起时的代际，回来时代际已变则整批丢弃。
func (m *Machine) maybeRefillLocked() {
	if m.mode != ModeCandidates || len(m.queue) >= m.cfg.LowWater || !m.hasLiked {
		return
	}

	seedID := m.lastLikedID
	snapGen := m.gen
	seen := m.seenSnapshotLocked()

	go func() {
		_, _, _ = m.sf.Do("refill", func() (any, error) {
			ctx, cancel := context.WithTimeout(context.Background(), m.cfg.FetchWindow)
			defer cancel()

			ids, err := m.provider.Candidates(ctx, seedID, seen)
			if err != nil {
				slog.Debug("session refill failed", "session", m.id, "err", err)
				return nil, nil
			}
			rows, err := m.catalog.FetchByIDs(ctx, ids)
			if err != nil {
				slog.Debug("session refill hydrate failed", "session", m.id, "err", err)
				return nil, nil
			}
			items := core.ReorderByIDs(ids, rows)

			m.mu.Lock()
			defer m.mu.Unlock()
			if m.gen != snapGen || m.mode != ModeCandidates {
				// 被更新的转移超越：应用过期结果会复活不一致状态
				return nil, nil
			}
			inQueue := make(map[int64]struct{}, len(m.queue))
			for _, q := range m.queue {
				inQueue[q.ID] = struct{}{}
			}
			for _, it := range items {
				if len(m.queue) >= m.cfg.MaxQueue {
					break
				}
				if _, ok := m.seen[it.ID]; ok || it.ID == seedID {
					continue
				}
				if _, ok := inQueue[it.ID]; ok {
					continue
				}
				m.queue = append(m.queue, it)
				inQueue[it.ID] = struct{}{}
			}
			return nil, nil
		})
	}()
}

// filterIDsLocked 剔除已看过的 ID 与种子自身。
func (m *Machine) filterIDsLocked(ids []int64, seedID int64) []int64 {
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id == seedID {
			continue
		}
		if _, ok := m.seen[id]; ok {
			continue
		}
		out = append(out, id)
	}
	return out
}

func (m *Machine) seenSnapshotLocked() map[int64]struct{} {
	snap := make(map[int64]struct{}, len(m.seen))
	for id := range m.seen {
		snap[id] = struct{}{}
	}
	return snap
}

// logInteraction 交互日志是 fire-and-forget：失败不影响转移。
func (m *Machine) logInteraction(itemID int64, action string) {
	ctx, cancel := context.WithTimeout(context.Background(), m.cfg.FetchWindow)
	go func() {
		defer cancel()
		if err := m.catalog.LogInteraction(ctx, itemID, action); err != nil {
			slog.Debug("log interaction failed", "session", m.id, "item", itemID, "action", action, "err", err)
		}
	}()
}

func capQueue(items []*core.Item, max int) []*core.Item {
	if len(items) > max {
		items = items[:max]
	}
	out := make([]*core.Item, len(items))
	copy(out, items)
	return out
}
