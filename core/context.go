package core

// RecommendContext 承载一次推荐请求的场景信息，贯穿整个 Pipeline 透传。
// 种子与查询互斥：二者最多填一个，校验在 server 层完成。
type RecommendContext struct {
	SessionID string
	Scene     string // "recommend" / "candidates" / "session" ...

	// SeedItemID 是相似推荐的锚点物品。目录 ID 从 0 开始，
	// 0 是合法物品，不能当“未指定”哨兵用；是否携带种子由
	// HasSeed 显式标记。
	SeedItemID int64
	HasSeed    bool

	// Query 是自然语言查询文本（"" 表示未指定）
	Query string

	// Seen 是本会话已展示过的物品 ID 集合；过滤节点据此去重。
	// 仅会话场景填充，普通推荐请求可为 nil。
	Seen map[int64]struct{}

	// Params 请求级上下文参数（k、pool_size 覆盖等）
	Params map[string]any
}

// HasSeen 判断物品是否已在本会话展示过。
func (rctx *RecommendContext) HasSeen(id int64) bool {
	if rctx == nil || rctx.Seen == nil {
		return false
	}
	_, ok := rctx.Seen[id]
	return ok
}
