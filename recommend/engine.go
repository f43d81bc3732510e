// Package recommend 提供在线推理引擎：启动时加载一次工件，
// 之后对只读矩阵做无锁并发推理。
package recommend

import (
	"context"
	"log/slog"

	"github.com/VibhavTh/Sniftr/core"
	"github.com/VibhavTh/Sniftr/filter"
	"github.com/VibhavTh/Sniftr/pipeline"
	"github.com/VibhavTh/Sniftr/recall"
	"github.com/VibhavTh/Sniftr/rerank"
	"github.com/VibhavTh/Sniftr/vectorspace"
)

// DefaultK 是未指定 k 时的返回条数。
const DefaultK = 20

// DefaultCandidateK 是会话候选接口的固定批大小。
const DefaultCandidateK = 50

// Config 控制引擎行为。m 与 alpha 为经验调参值，
// 这里只保留其角色与公式，数值全部走配置。
type Config struct {
	PoolSize   int     // 重排前候选池大小（参考值 50）
	CandidateK int     // 会话候选批大小（参考值 50）
	Alpha      float64 // 相关性 vs 热度混合权重（参考值 0.85）
	MinVotes   int64   // 贝叶斯收缩最小票数 m（参考值 50）
	RuleExpr   string  // 可选 CEL 候选过滤规则，空表示不启用
}

// DefaultConfig 返回参考配置。
func DefaultConfig() Config {
	return Config{
		PoolSize:   recall.DefaultPoolSize,
		CandidateK: DefaultCandidateK,
		Alpha:      rerank.DefaultAlpha,
		MinVotes:   50,
	}
}

// Engine 是显式构造的不可变推理服务对象：进程启动时创建一次，
// 以引用传给所有请求处理器；绝不按请求重建，加载后绝不修改。
//
// 工件加载是整条链路唯一昂贵的操作（数十 MB 反序列化），按请求
// 重复加载会把 <10ms 的推理拖到秒级——这属于正确性层面的缺陷。
type Engine struct {
	arts *vectorspace.Artifacts
	pipe *pipeline.Pipeline
	cfg  Config
}

// NewEngine 从工件目录构造引擎（加载恰好发生一次）。
func NewEngine(artifactsDir string, cfg Config) (*Engine, error) {
	arts, err := vectorspace.LoadArtifacts(artifactsDir)
	if err != nil {
		return nil, err
	}
	return NewEngineFromArtifacts(arts, cfg)
}

// NewEngineFromArtifacts 用已加载的工件构造引擎（训练后自检、测试用）。
func NewEngineFromArtifacts(arts *vectorspace.Artifacts, cfg Config) (*Engine, error) {
	if arts == nil {
		return nil, core.ErrArtifactsNotLoaded
	}
	if cfg.PoolSize <= 0 {
		cfg.PoolSize = recall.DefaultPoolSize
	}
	if cfg.CandidateK <= 0 {
		cfg.CandidateK = DefaultCandidateK
	}

	nodes := []pipeline.Node{
		recall.NewVectorSpace(arts, cfg.PoolSize),
	}

	filters := []filter.Filter{&filter.Seen{}}
	if cfg.RuleExpr != "" {
		rule, err := filter.NewRule(cfg.RuleExpr)
		if err != nil {
			return nil, err
		}
		filters = append(filters, rule)
	}
	nodes = append(nodes,
		&filter.Node{Filters: filters},
		&rerank.Popularity{
			Popularity: arts.Popularity,
			Alpha:      cfg.Alpha,
			MinVotes:   cfg.MinVotes,
			CorpusMean: arts.CorpusMean,
		},
		&rerank.TopN{N: DefaultK},
	)

	slog.Info("recommend engine ready",
		"rows", arts.Matrix.Rows,
		"terms", arts.Vectorizer.NumTerms(),
		"nnz", arts.Matrix.NNZ(),
		"pool_size", cfg.PoolSize,
		"alpha", cfg.Alpha)

	return &Engine{
		arts: arts,
		pipe: &pipeline.Pipeline{Nodes: nodes},
		cfg:  cfg,
	}, nil
}

// Loaded 报告工件是否就绪（server 据此返回 503 而不是 404）。
func (e *Engine) Loaded() bool {
	return e != nil && e.arts != nil
}

// RecommendByItem 返回与种子物品最相似的至多 k 个物品 ID，
// 降相似度排序、热度混合重排之后；种子自身保证不在结果中。
func (e *Engine) RecommendByItem(ctx context.Context, seedID int64, k int) ([]int64, error) {
	rctx := &core.RecommendContext{
		Scene:      "recommend",
		SeedItemID: seedID,
		HasSeed:    true,
	}
	return e.recommend(ctx, rctx, k)
}

// RecommendByText 对自然语言查询返回至多 k 个物品 ID。
// 查询走与训练完全一致的归一化路径，同一查询文本在工件不变时
// 产出确定的排序。
func (e *Engine) RecommendByText(ctx context.Context, query string, k int) ([]int64, error) {
	rctx := &core.RecommendContext{
		Scene: "recommend",
		Query: query,
	}
	return e.recommend(ctx, rctx, k)
}

// Candidates 是会话机消费的固定批大小候选接口。
// seen 可为 nil；非 nil 时已看过的物品在引擎侧直接滤掉。
func (e *Engine) Candidates(ctx context.Context, seedID int64, seen map[int64]struct{}) ([]int64, error) {
	rctx := &core.RecommendContext{
		Scene:      "candidates",
		SeedItemID: seedID,
		HasSeed:    true,
		Seen:       seen,
	}
	return e.recommend(ctx, rctx, e.cfg.CandidateK)
}

func (e *Engine) recommend(ctx context.Context, rctx *core.RecommendContext, k int) ([]int64, error) {
	if !e.Loaded() {
		return nil, core.ErrArtifactsNotLoaded
	}
	if k <= 0 {
		k = DefaultK
	}
	rctx.Params = map[string]any{"k": k}

	items, err := e.pipe.Run(ctx, rctx, nil)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ID)
	}
	return ids, nil
}
