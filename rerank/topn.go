package rerank

import (
	"context"

	"github.com/VibhavTh/Sniftr/core"
	"github.com/VibhavTh/Sniftr/pipeline"
)

// TopN 是截断节点：重排之后把候选池裁到调用方要求的 k。
type TopN struct {
	// N 要保留的物品数量；N <= 0 表示不截断
	N int
}

func (n *TopN) Name() string {
	return "rerank.topn"
}

func (n *TopN) Kind() pipeline.Kind {
	return pipeline.KindPostProcess
}

func (n *TopN) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	limit := n.N
	// 请求级覆盖：server 层把 k 放进 Params
	if rctx != nil {
		if k, ok := rctx.Params["k"].(int); ok && k > 0 {
			limit = k
		}
	}
	if limit <= 0 || len(items) <= limit {
		return items, nil
	}
	return items[:limit], nil
}
