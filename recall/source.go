// Package recall 提供候选生成：向量空间相似召回与随机探索召回。
package recall

import (
	"context"

	"github.com/VibhavTh/Sniftr/core"
)

// Source 表示一个可复用的召回源（相似/随机/...）。
type Source interface {
	Name() string
	Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error)
}
