package core

import "context"

// Catalog 是目录读写层的边界契约。推荐核心只依赖这三个能力，
// 页面渲染、鉴权、收藏列表等全部留在契约之外。
//
// 实现：
//   - catalog.SQLiteCatalog（生产）
//   - catalog.MemoryCatalog（测试/原型）
type Catalog interface {
	// FetchRandom 返回至多 limit 条随机物品记录。
	FetchRandom(ctx context.Context, limit int) ([]*Item, error)

	// FetchByIDs 按 ID 列表返回完整物品记录。
	// 注意：实现允许以任意顺序返回行；需要保持排序的调用方
	// 必须自行按输入 ids 的顺序重建结果（见 ReorderByIDs）。
	FetchByIDs(ctx context.Context, ids []int64) ([]*Item, error)

	// LogInteraction 记录一次交互（like/pass）。fire-and-forget：
	// 调用方不消费返回值之外的任何状态，失败不影响主流程。
	LogInteraction(ctx context.Context, itemID int64, action string) error
}

// 交互动作常量
const (
	ActionLike = "like"
	ActionPass = "pass"
)

// ReorderByIDs 把读层返回的无序行按 ids 的顺序重建。
// 排序信息来自推荐引擎，读层丢给我们什么顺序都不能信；
// 不在 rows 里的 id 被跳过（目录缺行不是排序错误）。
func ReorderByIDs(ids []int64, rows []*Item) []*Item {
	byID := make(map[int64]*Item, len(rows))
	for _, row := range rows {
		if row != nil {
			byID[row.ID] = row
		}
	}
	out := make([]*Item, 0, len(ids))
	for _, id := range ids {
		if row, ok := byID[id]; ok {
			out = append(out, row)
		}
	}
	return out
}
