package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/gamerec/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvOnce sync.Once
)

// initCELEnv 初始化 CEL 环境，定义变量
func initCELEnv() (*cel.Env, error) {
	env, err := cel.NewEnv(
		cel.Variable("item", cel.DynType),
		cel.Variable("label", cel.DynType),
		cel.Variable("rctx", cel.DynType),
	)
	return env, err
}

// getCELEnv 获取或创建 CEL 环境
func getCELEnv() (*cel.Env, error) {
	var err error
	celEnvOnce.Do(func() {
		celEnv, err = initCELEnv()
	})
	if celEnv == nil && err == nil {
		err = fmt.Errorf("cel env init failed")
	}
	return celEnv, err
}

// Program 是编译后的物品表达式，可跨请求并发复用。
//
// 表达式使用 CEL (Common Expression Language) 语法，输入变量：
//   - item: {id, score, meta, labels}，目录元信息在 meta 下，
//     例如 item.meta.rating_count > 10.0 && item.meta.avg_rating >= 3.5
//   - label: 标签值的顶层访问，例如 label.recall_source == "content"
//   - rctx: {user_id, seed_item_id, scene, params}
//
// 注意：CEL 访问不存在的 key 会报错，存在性检查用 label.key != null。
type Program struct {
	expr string
	prg  cel.Program
}

// Compile 编译表达式。编译一次，Eval 可多次并发调用。
func Compile(expr string) (*Program, error) {
	if expr == "" {
		return nil, fmt.Errorf("empty expression")
	}
	env, err := getCELEnv()
	if err != nil {
		return nil, err
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile error: %v", issues.Err())
	}

	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program error: %v", err)
	}

	return &Program{expr: expr, prg: prg}, nil
}

// Expr 返回原始表达式文本（用于观测）。
func (p *Program) Expr() string { return p.expr }

// Eval 对单个物品求值，返回布尔结果。
// 表达式必须返回 bool，否则报错。
func (p *Program) Eval(item *core.Item, rctx *core.RecommendContext) (bool, error) {
	out, _, err := p.prg.Eval(buildInput(item, rctx))
	if err != nil {
		return false, fmt.Errorf("eval error: %v", err)
	}

	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression must return boolean, got %T", out.Value())
	}
	return result, nil
}

// buildInput 构建 CEL 表达式的输入数据
func buildInput(item *core.Item, rctx *core.RecommendContext) map[string]interface{} {
	labels := make(map[string]interface{})
	labelAccessor := make(map[string]interface{})
	if item != nil {
		for k, v := range item.Labels {
			labels[k] = map[string]interface{}{
				"value":  v.Value,
				"source": v.Source,
			}
			// label.recall_source 直接返回 value，兼容简写
			labelAccessor[k] = v.Value
		}
	}

	itemInput := map[string]interface{}{}
	if item != nil {
		itemInput = map[string]interface{}{
			"id":     item.ID,
			"score":  item.Score,
			"meta":   item.Meta,
			"labels": labels,
		}
	}

	rctxInput := map[string]interface{}{}
	if rctx != nil {
		rctxInput = map[string]interface{}{
			"user_id":      rctx.UserID,
			"seed_item_id": rctx.SeedItemID,
			"scene":        rctx.Scene,
			"params":       rctx.Params,
		}
	}

	return map[string]interface{}{
		"item":  itemInput,
		"label": labelAccessor,
		"rctx":  rctxInput,
	}
}
