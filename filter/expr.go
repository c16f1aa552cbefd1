package filter

import (
	"context"

	"github.com/rushteam/gamerec/core"
	"github.com/rushteam/gamerec/pkg/dsl"
)

// ExprFilter 按 CEL 表达式过滤候选：表达式为"保留条件"，求值为 false 的物品被剔除。
//
// 典型用法是热门质量门槛（原始行为）：
//
//	f, _ := filter.NewExprFilter(`item.meta.rating_count > 10.0 && item.meta.avg_rating >= 3.5`)
//
// 表达式编译一次，跨请求并发复用；求值出错按"保留"处理，过滤器不放大故障。
type ExprFilter struct {
	prg *dsl.Program
}

// NewExprFilter 编译保留条件表达式；语法错误在构建期暴露。
func NewExprFilter(expr string) (*ExprFilter, error) {
	prg, err := dsl.Compile(expr)
	if err != nil {
		return nil, err
	}
	return &ExprFilter{prg: prg}, nil
}

func (f *ExprFilter) Name() string { return "filter.expr" }

func (f *ExprFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if f.prg == nil || item == nil {
		return false, nil
	}
	keep, err := f.prg.Eval(item, rctx)
	if err != nil {
		// 表达式对个别物品求值失败（如 meta 缺 key）不应剔除该物品
		return false, nil
	}
	return !keep, nil
}
