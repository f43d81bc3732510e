// Package feedback 异步收集交互事件（like/pass），供离线分析与
// 未来的协同过滤训练使用。收集是 fire-and-forget：满缓冲丢弃，
// 绝不阻塞推荐主链路。
package feedback

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	json "github.com/goccy/go-json"

	"github.com/VibhavTh/Sniftr/core"
)

// 事件在 KV 存储中的键：按时间戳排序的有序集合。
const eventsKey = "feedback:events"

// Event 是一条交互事件。
type Event struct {
	SessionID string `json:"session_id,omitempty"`
	ItemID    int64  `json:"item_id"`
	Action    string `json:"action"` // like / pass
	Timestamp int64  `json:"timestamp"`
}

// Collector 缓冲事件并由单个后台 worker 批量写入存储。
type Collector struct {
	store core.KeyValueStore
	ch    chan Event
	wg    sync.WaitGroup

	closeOnce sync.Once
}

// NewCollector 创建收集器并启动后台 worker。
func NewCollector(st core.KeyValueStore, buffer int) *Collector {
	if buffer <= 0 {
		buffer = 1024
	}
	c := &Collector{
		store: st,
		ch:    make(chan Event, buffer),
	}
	c.wg.Add(1)
	go c.worker()
	return c
}

// Record 投递一条事件；缓冲已满时丢弃并计入日志。
func (c *Collector) Record(sessionID string, itemID int64, action string) {
	ev := Event{
		SessionID: sessionID,
		ItemID:    itemID,
		Action:    action,
		Timestamp: time.Now().UnixMilli(),
	}
	select {
	case c.ch <- ev:
	default:
		slog.Warn("feedback buffer full, dropping event", "item", itemID, "action", action)
	}
}

// Close 优雅关闭：排空缓冲后返回。
func (c *Collector) Close() error {
	c.closeOnce.Do(func() { close(c.ch) })
	c.wg.Wait()
	return nil
}

func (c *Collector) worker() {
	defer c.wg.Done()
	for ev := range c.ch {
		data, err := json.Marshal(ev)
		if err != nil {
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		member := fmt.Sprintf("%d:%d:%s", ev.Timestamp, ev.ItemID, ev.Action)
		if err := c.store.ZAdd(ctx, eventsKey, float64(ev.Timestamp), member); err != nil {
			slog.Debug("feedback zadd failed", "err", err)
			cancel()
			continue
		}
		if err := c.store.HSet(ctx, eventsKey+":detail", member, data); err != nil {
			slog.Debug("feedback hset failed", "err", err)
		}
		cancel()
	}
}

// Recent 返回最近的至多 n 条事件（调试/观测用）。
func (c *Collector) Recent(ctx context.Context, n int64) ([]Event, error) {
	members, err := c.store.ZRange(ctx, eventsKey, 0, n-1)
	if err != nil {
		return nil, err
	}
	out := make([]Event, 0, len(members))
	for _, member := range members {
		data, err := c.store.HGet(ctx, eventsKey+":detail", member)
		if err != nil {
			continue
		}
		var ev Event
		if err := json.Unmarshal(data, &ev); err != nil {
			continue
		}
		out = append(out, ev)
	}
	return out, nil
}
