package filter

import (
	"context"

	"github.com/VibhavTh/Sniftr/core"
)

// Seen 过滤会话内已展示过的物品，以及本轮的种子物品本身。
// 会话的硬约束：任何转移都不得把已展示的物品再次放进候选。
type Seen struct{}

func (f *Seen) Name() string {
	return "filter.seen"
}

func (f *Seen) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil || rctx == nil {
		return false, nil
	}
	if rctx.HasSeed && item.ID == rctx.SeedItemID {
		return true, nil
	}
	return rctx.HasSeen(item.ID), nil
}
