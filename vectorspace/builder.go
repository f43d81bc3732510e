package vectorspace

import (
	"context"
	"log/slog"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/VibhavTh/Sniftr/core"
)

// BuilderOptions 控制一次训练运行。
type BuilderOptions struct {
	AccordWeight int               // 主调 token 重复倍数（参考值 3）
	Vectorizer   VectorizerOptions // 词表拟合参数
	MinVotes     int64             // 加权评分的最小票数阈值 m（参考值 50）
}

// DefaultBuilderOptions 返回参考实现的默认参数。
func DefaultBuilderOptions() BuilderOptions {
	return BuilderOptions{
		AccordWeight: DefaultAccordWeight,
		Vectorizer:   DefaultVectorizerOptions(),
		MinVotes:     50,
	}
}

// Build 把物品语料变成完整工件集：
// soup → TF-IDF 拟合 → CSR 矩阵 + 行映射 → 热度图。
//
// 物品按 ID 升序排定矩阵行序，保证同一语料重复构建产出
// 相同的行映射（排序稳定性是可测属性，不是巧合）。
func Build(ctx context.Context, items []*core.Item, opts BuilderOptions) (*Artifacts, error) {
	if len(items) == 0 {
		return nil, core.NewDomainError(core.ModuleEngine, core.ErrorCodeInvalidInput, "vectorspace: no items to build from")
	}

	ordered := make([]*core.Item, len(items))
	copy(ordered, items)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })

	slog.Info("building soup corpus", "items", len(ordered), "accord_weight", opts.AccordWeight)
	docs := make([][]string, len(ordered))
	for i, it := range ordered {
		docs[i] = BuildSoup(it, opts.AccordWeight)
	}

	vec, err := FitVectorizer(docs, opts.Vectorizer)
	if err != nil {
		return nil, err
	}
	slog.Info("vectorizer fitted", "terms", vec.NumTerms())

	// 行向量互相独立，分块并行投影后按行序拼装
	rows := make([]SparseVector, len(docs))
	eg, _ := errgroup.WithContext(ctx)
	eg.SetLimit(runtime.GOMAXPROCS(0))
	const chunk = 512
	for start := 0; start < len(docs); start += chunk {
		start := start
		end := min(start+chunk, len(docs))
		eg.Go(func() error {
			for i := start; i < end; i++ {
				rows[i] = vec.Transform(docs[i])
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	matrix := NewCSRMatrix(vec.NumTerms())
	rowToID := make([]int64, 0, len(ordered))
	for i, it := range ordered {
		matrix.AppendRow(rows[i])
		rowToID = append(rowToID, it.ID)
	}
	slog.Info("matrix built", "rows", matrix.Rows, "cols", matrix.Cols, "nnz", matrix.NNZ())

	return &Artifacts{
		Vectorizer: vec,
		Matrix:     matrix,
		RowToID:    rowToID,
		Popularity: ComputePopularity(ordered, opts.MinVotes),
		CorpusMean: CorpusMeanRating(ordered),
	}, nil
}


// WeightedRating 计算贝叶斯收缩加权评分：
//
//	WR = v/(v+m)·R + m/(v+m)·C
//
// 低票数评分被拉向全局均值 C，防止单条五星评论的冷门物品
// 压过口碑稳定的物品；票数越高，WR 越接近原始评分。
func WeightedRating(value float64, count, minVotes int64, corpusMean float64) float64 {
	v := float64(count)
	m := float64(minVotes)
	if v+m == 0 {
		return corpusMean
	}
	return v/(v+m)*value + m/(v+m)*corpusMean
}

// CorpusMeanRating 只对有评分数据的物品取均值，保证 C 公平。
func CorpusMeanRating(items []*core.Item) float64 {
	var sum float64
	var n int
	for _, it := range items {
		value, count := it.Rating()
		if count > 0 {
			sum += value
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// ComputePopularity 计算全量物品的 WR 并做全局 min-max 归一化，
// 让热度与余弦相似度处在同一数值尺度（0-1）。
func ComputePopularity(items []*core.Item, minVotes int64) map[int64]float64 {
	mean := CorpusMeanRating(items)

	wr := make(map[int64]float64, len(items))
	lo, hi := 0.0, 0.0
	first := true
	for _, it := range items {
		value, count := it.Rating()
		score := WeightedRating(value, count, minVotes, mean)
		wr[it.ID] = score
		if first {
			lo, hi = score, score
			first = false
			continue
		}
		if score < lo {
			lo = score
		}
		if score > hi {
			hi = score
		}
	}

	span := hi - lo
	out := make(map[int64]float64, len(wr))
	for id, score := range wr {
		if span == 0 {
			out[id] = 0
			continue
		}
		out[id] = (score - lo) / span
	}
	return out
}
