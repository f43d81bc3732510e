// Package rerank 实现两段式重排：相似度与贝叶斯收缩热度的线性混合。
package rerank

import (
	"context"
	"fmt"
	"sort"

	"github.com/VibhavTh/Sniftr/core"
	"github.com/VibhavTh/Sniftr/pipeline"
	"github.com/VibhavTh/Sniftr/pkg/utils"
	"github.com/VibhavTh/Sniftr/vectorspace"
)

const (
	// DefaultAlpha 是相关性权重的参考值：相关性优先，热度做决胜。
	DefaultAlpha = 0.85

	// DefaultPopularity 是热度图缺项时的兜底值。
	DefaultPopularity = 0.4

	// epsilon 防止候选池内相似度全部相同时除零。
	epsilon = 1e-9
)

// Popularity 是热度混合重排节点。
//
// 两个信号先各自落到 0-1 尺度再混合：
//   - 相似度在候选池内做局部 min-max 归一化。本域的原始余弦
//     相似度挤在很窄的区间（约 0.12–0.15），不重缩放的话热度项
//     会靠数值量级碾压相似度；局部重缩放恢复公平混合。
//   - 热度优先取训练期预计算的全局归一化 WR 工件；缺项时按
//     候选自身的 (rating, count) 现算 WR 兜底。
//
// 最终分：alpha·simNorm + (1-alpha)·pop，同分按物品 ID 升序。
type Popularity struct {
	// Popularity 是训练期工件：物品ID -> 归一化 WR（0-1）
	Popularity map[int64]float64

	// Alpha 相关性 vs 热度的混合权重（<=0 时取 DefaultAlpha）
	Alpha float64

	// MinVotes 与 CorpusMean 用于缺项兜底的现算 WR
	MinVotes   int64
	CorpusMean float64
}

func (n *Popularity) Name() string {
	return "rerank.popularity"
}

func (n *Popularity) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *Popularity) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) == 0 {
		return items, nil
	}

	alpha := n.Alpha
	if alpha <= 0 {
		alpha = DefaultAlpha
	}

	// 局部 min-max：只看本候选池
	lo, hi := items[0].Score, items[0].Score
	for _, it := range items[1:] {
		if it.Score < lo {
			lo = it.Score
		}
		if it.Score > hi {
			hi = it.Score
		}
	}
	span := hi - lo

	type scored struct {
		item  *core.Item
		final float64
	}
	pool := make([]scored, 0, len(items))
	for _, it := range items {
		simNorm := (it.Score - lo) / (span + epsilon)
		pop := n.popularityOf(it)
		final := alpha*simNorm + (1-alpha)*pop
		it.PutLabel("rerank_pop", utils.Label{Value: fmt.Sprintf("%.4f", pop), Source: "rerank"})
		pool = append(pool, scored{item: it, final: final})
	}

	sort.Slice(pool, func(i, j int) bool {
		if pool[i].final != pool[j].final {
			return pool[i].final > pool[j].final
		}
		return pool[i].item.ID < pool[j].item.ID
	})

	out := make([]*core.Item, len(pool))
	for i, s := range pool {
		s.item.Score = s.final
		out[i] = s.item
	}
	return out, nil
}

func (n *Popularity) popularityOf(it *core.Item) float64 {
	if pop, ok := n.Popularity[it.ID]; ok {
		return pop
	}
	if value, count := it.Rating(); count > 0 {
		// 现算 WR 的量纲是评分刻度，折回 0-1 尺度后再参与混合
		wr := vectorspace.WeightedRating(value, count, n.MinVotes, n.CorpusMean)
		if maxRating := 5.0; wr > 0 {
			return wr / maxRating
		}
	}
	return DefaultPopularity
}
