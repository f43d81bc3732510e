package recommend

import (
	"context"
	"errors"
	"testing"

	"github.com/VibhavTh/Sniftr/core"
	"github.com/VibhavTh/Sniftr/vectorspace"
)

func buildTestEngine(t *testing.T, cfg Config) *Engine {
	t.Helper()

	corpus := []struct {
		id      int64
		accords []string
		notes   []string
		rating  float64
		count   int64
	}{
		{1, []string{"woody"}, []string{"cedar", "musk", "vetiver"}, 4.5, 500},
		{2, []string{"woody"}, []string{"cedar", "musk", "amber"}, 4.0, 100},
		{3, []string{"woody", "fresh"}, []string{"bergamot", "cedar"}, 3.5, 20},
		{4, []string{"floral"}, []string{"rose", "jasmine"}, 4.2, 300},
		{5, []string{"floral"}, []string{"rose", "peony"}, 3.0, 10},
		{6, []string{"citrus"}, []string{"lemon", "bergamot"}, 0, 0},
	}
	items := make([]*core.Item, 0, len(corpus))
	for _, c := range corpus {
		it := core.NewItem(c.id)
		it.MainAccords = c.accords
		it.NotesTop = c.notes
		if c.count > 0 {
			r, n := c.rating, c.count
			it.RatingValue = &r
			it.RatingCount = &n
		}
		items = append(items, it)
	}

	opts := vectorspace.DefaultBuilderOptions()
	opts.Vectorizer.MinDocFreq = 1
	arts, err := vectorspace.Build(context.Background(), items, opts)
	if err != nil {
		t.Fatalf("构建工件失败: %v", err)
	}

	eng, err := NewEngineFromArtifacts(arts, cfg)
	if err != nil {
		t.Fatalf("构建引擎失败: %v", err)
	}
	return eng
}

func TestNewEngineNilArtifacts(t *testing.T) {
	_, err := NewEngineFromArtifacts(nil, DefaultConfig())
	if !errors.Is(err, core.ErrArtifactsNotLoaded) && !core.IsUnavailable(err) {
		t.Errorf("nil 工件应返回 ARTIFACTS_NOT_LOADED, 实际 %v", err)
	}
}

func TestRecommendByItemExcludesSeed(t *testing.T) {
	eng := buildTestEngine(t, DefaultConfig())

	ids, err := eng.RecommendByItem(context.Background(), 1, 5)
	if err != nil {
		t.Fatalf("推荐失败: %v", err)
	}
	if len(ids) == 0 || len(ids) > 5 {
		t.Fatalf("结果数 = %d, 期望 1..5", len(ids))
	}
	for _, id := range ids {
		if id == 1 {
			t.Error("种子物品不得出现在推荐结果中")
		}
	}
}

// 目录 ID 从 0 开始：首行物品当种子必须照常出结果。
func TestRecommendByItemSeedZeroID(t *testing.T) {
	corpus := []struct {
		id    int64
		notes []string
	}{
		{0, []string{"cedar", "musk"}},
		{1, []string{"cedar", "amber"}},
		{2, []string{"rose", "jasmine"}},
		{3, []string{"lemon", "bergamot"}},
	}
	items := make([]*core.Item, 0, len(corpus))
	for _, c := range corpus {
		it := core.NewItem(c.id)
		it.MainAccords = []string{"test"}
		it.NotesTop = c.notes
		items = append(items, it)
	}
	opts := vectorspace.DefaultBuilderOptions()
	opts.Vectorizer.MinDocFreq = 1
	arts, err := vectorspace.Build(context.Background(), items, opts)
	if err != nil {
		t.Fatalf("构建工件失败: %v", err)
	}
	eng, err := NewEngineFromArtifacts(arts, DefaultConfig())
	if err != nil {
		t.Fatalf("构建引擎失败: %v", err)
	}

	ids, err := eng.RecommendByItem(context.Background(), 0, 3)
	if err != nil {
		t.Fatalf("种子为 0 的推荐失败: %v", err)
	}
	if len(ids) == 0 {
		t.Fatal("种子为 0 应返回推荐结果")
	}
	for _, id := range ids {
		if id == 0 {
			t.Error("种子物品不得出现在推荐结果中")
		}
	}
}

func TestRecommendByItemUnknownSeed(t *testing.T) {
	eng := buildTestEngine(t, DefaultConfig())

	_, err := eng.RecommendByItem(context.Background(), 999, 5)
	if !core.IsNotFound(err) {
		t.Errorf("未知种子应返回 NOT_FOUND, 实际 %v", err)
	}
}

func TestRecommendByTextDeterministic(t *testing.T) {
	eng := buildTestEngine(t, DefaultConfig())

	first, err := eng.RecommendByText(context.Background(), "woody cedar musk", 4)
	if err != nil {
		t.Fatalf("推荐失败: %v", err)
	}
	if len(first) == 0 {
		t.Fatal("查询应返回结果")
	}
	for i := 0; i < 3; i++ {
		again, err := eng.RecommendByText(context.Background(), "woody cedar musk", 4)
		if err != nil {
			t.Fatalf("推荐失败: %v", err)
		}
		if len(again) != len(first) {
			t.Fatalf("重复查询结果数不一致: %d vs %d", len(again), len(first))
		}
		for j := range again {
			if again[j] != first[j] {
				t.Fatalf("重复查询排序不一致: 位置 %d 为 %d vs %d", j, again[j], first[j])
			}
		}
	}
}

func TestRecommendKDefault(t *testing.T) {
	eng := buildTestEngine(t, DefaultConfig())

	// k<=0 回退默认值而不是报错
	ids, err := eng.RecommendByText(context.Background(), "woody", 0)
	if err != nil {
		t.Fatalf("推荐失败: %v", err)
	}
	if len(ids) > DefaultK {
		t.Errorf("结果数 %d 超过默认 k=%d", len(ids), DefaultK)
	}
}

func TestCandidatesRespectsSeen(t *testing.T) {
	eng := buildTestEngine(t, DefaultConfig())

	seen := map[int64]struct{}{2: {}, 3: {}}
	ids, err := eng.Candidates(context.Background(), 1, seen)
	if err != nil {
		t.Fatalf("候选获取失败: %v", err)
	}
	for _, id := range ids {
		if id == 1 {
			t.Error("种子物品不得出现在候选中")
		}
		if _, ok := seen[id]; ok {
			t.Errorf("已看过物品 %d 不得出现在候选中", id)
		}
	}
}

func TestEngineWithRuleFilter(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RuleExpr = `item.id == 2`

	eng := buildTestEngine(t, cfg)
	ids, err := eng.RecommendByItem(context.Background(), 1, 5)
	if err != nil {
		t.Fatalf("推荐失败: %v", err)
	}
	for _, id := range ids {
		if id == 2 {
			t.Error("规则过滤的物品不得出现在结果中")
		}
	}
}

func TestEngineWithInvalidRule(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RuleExpr = `item.id ==`

	corpus := []*core.Item{core.NewItem(1)}
	corpus[0].MainAccords = []string{"woody"}
	opts := vectorspace.DefaultBuilderOptions()
	opts.Vectorizer.MinDocFreq = 1
	arts, err := vectorspace.Build(context.Background(), corpus, opts)
	if err != nil {
		t.Fatalf("构建工件失败: %v", err)
	}
	if _, err := NewEngineFromArtifacts(arts, cfg); err == nil {
		t.Error("非法规则表达式应使引擎构造失败")
	}
}
