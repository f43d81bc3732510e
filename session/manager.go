package session

import (
	"sync"

	"github.com/google/uuid"

	"github.com/VibhavTh/Sniftr/core"
)

// Manager 持有进程内的全部活跃会话。
// 会话状态只存在于内存：会话结束即销毁，无跨会话持久化。
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Machine

	provider CandidateProvider
	catalog  core.Catalog
	cfg      Config
}

// NewManager 创建会话管理器。
func NewManager(provider CandidateProvider, catalog core.Catalog, cfg Config) *Manager {
	return &Manager{
		sessions: make(map[string]*Machine),
		provider: provider,
		catalog:  catalog,
		cfg:      cfg,
	}
}

// Create 新建会话并返回其状态机。
func (mgr *Manager) Create() *Machine {
	m := NewMachine(uuid.NewString(), mgr.provider, mgr.catalog, mgr.cfg)
	mgr.mu.Lock()
	mgr.sessions[m.ID()] = m
	mgr.mu.Unlock()
	return m
}

// Get 按 ID 取会话；不存在返回 nil。
func (mgr *Manager) Get(id string) *Machine {
	mgr.mu.RLock()
	defer mgr.mu.RUnlock()
	return mgr.sessions[id]
}

// End 结束并销毁会话（seen 集合随之丢弃）。
func (mgr *Manager) End(id string) {
	mgr.mu.Lock()
	delete(mgr.sessions, id)
	mgr.mu.Unlock()
}

// Len 返回活跃会话数（观测用）。
func (mgr *Manager) Len() int {
	mgr.mu.RLock()
	defer mgr.mu.RUnlock()
	return len(mgr.sessions)
}
