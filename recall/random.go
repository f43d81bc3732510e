package recall

import (
	"context"

	"github.com/VibhavTh/Sniftr/core"
	"github.com/VibhavTh/Sniftr/pipeline"
	"github.com/VibhavTh/Sniftr/pkg/utils"
)

// Random 是随机探索召回源：从目录读层取随机物品。
// 会话机在冷启动与候选耗尽时用它回到中性探索。
type Random struct {
	Catalog core.Catalog

	// Limit 每次取回的随机条数（<=0 取 10）
	Limit int
}

func (r *Random) Name() string        { return "recall.random" }
func (r *Random) Kind() pipeline.Kind { return pipeline.KindRecall }

func (r *Random) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

func (r *Random) Recall(
	ctx context.Context,
	_ *core.RecommendContext,
) ([]*core.Item, error) {
	limit := r.Limit
	if limit <= 0 {
		limit = 10
	}
	items, err := r.Catalog.FetchRandom(ctx, limit)
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		it.PutLabel("recall_source", utils.Label{Value: r.Name(), Source: "recall"})
	}
	return items, nil
}
