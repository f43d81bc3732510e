package filter

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/VibhavTh/Sniftr/core"
	"github.com/VibhavTh/Sniftr/pkg/conv"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvOnce sync.Once
	celEnvErr  error
)

func getCELEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = cel.NewEnv(
			cel.Variable("item", cel.DynType),
			cel.Variable("label", cel.DynType),
			cel.Variable("rctx", cel.DynType),
		)
	})
	return celEnv, celEnvErr
}

// Rule 是 CEL (Common Expression Language) 规则过滤器。
// 表达式返回 true 表示该物品被过滤掉，可从配置下发，例如：
//
//	item.gender == "male"
//	item.year != 0 && item.year < 1990
//	item.rating_count == 0.0 && item.score < 0.2
//
// 表达式在构造时编译一次，之后并发安全地复用。
type Rule struct {
	expr string
	prg  cel.Program
}

// NewRule 编译规则表达式。空表达式非法（用 nil Filter 表达“无规则”）。
func NewRule(expr string) (*Rule, error) {
	if expr == "" {
		return nil, core.NewDomainError(core.ModuleEngine, core.ErrorCodeInvalidInput, "filter: empty rule expression")
	}
	env, err := getCELEnv()
	if err != nil {
		return nil, err
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile rule %q: %w", expr, issues.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program rule %q: %w", expr, err)
	}
	return &Rule{expr: expr, prg: prg}, nil
}

func (f *Rule) Name() string {
	return "filter.rule"
}

func (f *Rule) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return false, nil
	}

	out, _, err := f.prg.Eval(buildRuleInput(rctx, item))
	if err != nil {
		return false, fmt.Errorf("eval rule %q: %w", f.expr, err)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("rule %q must return boolean, got %T", f.expr, out.Value())
	}
	return result, nil
}

// buildRuleInput 把物品与请求上下文展开为 CEL 输入。
// 评分字段统一为 double，缺失按 0 处理，表达式侧无需判空。
func buildRuleInput(rctx *core.RecommendContext, item *core.Item) map[string]any {
	value, count := item.Rating()

	labels := make(map[string]any, len(item.Labels))
	for k, v := range item.Labels {
		labels[k] = v.Value
	}

	itemMap := map[string]any{
		"id":           item.ID,
		"score":        item.Score,
		"name":         item.Name,
		"brand":        item.Brand,
		"gender":       item.Gender,
		"country":      item.Country,
		"year":         item.Year,
		"rating_value": value,
		"rating_count": float64(count),
	}

	rctxMap := map[string]any{}
	if rctx != nil {
		rctxMap["session_id"] = rctx.SessionID
		rctxMap["scene"] = rctx.Scene
		rctxMap["seed_item_id"] = rctx.SeedItemID
		rctxMap["query"] = rctx.Query
		for k, v := range rctx.Params {
			if f, ok := conv.ToFloat64(v); ok {
				rctxMap[k] = f
			}
		}
	}

	return map[string]any{
		"item":  itemMap,
		"label": labels,
		"rctx":  rctxMap,
	}
}
