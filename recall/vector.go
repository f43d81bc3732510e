package recall

import (
	"context"
	"sort"

	"github.com/VibhavTh/Sniftr/core"
	"github.com/VibhavTh/Sniftr/pipeline"
	"github.com/VibhavTh/Sniftr/pkg/utils"
	"github.com/VibhavTh/Sniftr/vectorspace"
)

// DefaultPoolSize 是进入重排的候选池大小。
// 比最终 k 拉得更宽，给热度信号留出“轻推”排序的余地。
const DefaultPoolSize = 50

// VectorSpace 是基于 TF-IDF 余弦相似度的召回源。
// 同时实现 Source 和 pipeline.Node，可直接编排进 Pipeline。
//
// 纯函数：对加载后的只读矩阵计算，无副作用，可并发调用。
type VectorSpace struct {
	Artifacts *vectorspace.Artifacts

	// PoolSize 候选池大小（<=0 时取 DefaultPoolSize）
	PoolSize int

	// reverse 是 物品ID -> 矩阵行号 的反查表，NewVectorSpace 时一次构建
	reverse map[int64]int
}

// NewVectorSpace 创建相似召回源并构建反查表（O(1) 行定位）。
func NewVectorSpace(arts *vectorspace.Artifacts, poolSize int) *VectorSpace {
	reverse := make(map[int64]int, len(arts.RowToID))
	for row, id := range arts.RowToID {
		reverse[id] = row
	}
	return &VectorSpace{
		Artifacts: arts,
		PoolSize:  poolSize,
		reverse:   reverse,
	}
}

func (r *VectorSpace) Name() string        { return "recall.vectorspace" }
func (r *VectorSpace) Kind() pipeline.Kind { return pipeline.KindRecall }

// Process 实现 Node 接口，直接调用 Recall。
func (r *VectorSpace) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

// Recall 实现 Source 接口：种子模式或查询模式二选一。
func (r *VectorSpace) Recall(
	_ context.Context,
	rctx *core.RecommendContext,
) ([]*core.Item, error) {
	if r.Artifacts == nil {
		return nil, core.ErrArtifactsNotLoaded
	}

	pool := r.PoolSize
	if pool <= 0 {
		pool = DefaultPoolSize
	}

	var query vectorspace.SparseVector
	hasSeed := rctx != nil && rctx.HasSeed
	seedID := int64(0)
	switch {
	case hasSeed:
		row, ok := r.reverse[rctx.SeedItemID]
		if !ok {
			return nil, core.ErrSeedNotFound
		}
		seedID = rctx.SeedItemID
		query = r.Artifacts.Matrix.Row(row)
	case rctx != nil && rctx.Query != "":
		query = r.Artifacts.Vectorizer.TransformText(rctx.Query)
	default:
		return nil, core.NewDomainError(core.ModuleEngine, core.ErrorCodeInvalidInput,
			"recall: neither seed item nor query supplied")
	}

	scores := r.Artifacts.Matrix.Similarities(query)

	// 种子模式多取一位：向量与自身的余弦恒为最大值，
	// 种子必然占据第一名，必须显式剔除而不是指望排序“碰巧”处理。
	want := pool
	if hasSeed {
		want = pool + 1
	}

	top := topRows(scores, r.Artifacts.RowToID, want)
	out := make([]*core.Item, 0, pool)
	for _, row := range top {
		id := r.Artifacts.RowToID[row]
		if hasSeed && id == seedID {
			continue
		}
		if len(out) >= pool {
			break
		}
		it := core.NewItem(id)
		it.Score = scores[row]
		it.PutLabel("recall_source", utils.Label{Value: r.Name(), Source: "recall"})
		out = append(out, it)
	}
	return out, nil
}

// topRows 返回得分最高的 n 个行号，降序；同分按物品 ID 升序，保证确定性。
func topRows(scores []float64, rowToID []int64, n int) []int {
	rows := make([]int, len(scores))
	for i := range rows {
		rows[i] = i
	}
	sort.Slice(rows, func(a, b int) bool {
		ra, rb := rows[a], rows[b]
		if scores[ra] != scores[rb] {
			return scores[ra] > scores[rb]
		}
		return rowToID[ra] < rowToID[rb]
	})
	if n < len(rows) {
		rows = rows[:n]
	}
	return rows
}
