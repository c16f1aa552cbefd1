package config

import (
	"fmt"

	"github.com/rushteam/gamerec/catalog"
	"github.com/rushteam/gamerec/core"
	"github.com/rushteam/gamerec/filter"
	"github.com/rushteam/gamerec/pipeline"
	"github.com/rushteam/gamerec/pkg/conv"
	"github.com/rushteam/gamerec/recall"
	"github.com/rushteam/gamerec/rerank"
)

// Dependencies 是配置驱动组装时注入的运行时依赖。
// 模型与目录无法从 YAML 还原，必须由调用方先构建好再传入。
type Dependencies struct {
	Catalog      *catalog.Catalog
	Content      *recall.ContentModel
	CF           *recall.CFModel
	Interactions core.InteractionStore
}

// NewFactory 返回包含全部内置 Node 的工厂，builder 闭包持有注入的依赖。
//
// 支持的 node 类型：
//   - recall.content: {top_k}
//   - recall.cf:      {top_k}
//   - recall.popular: {top_k, min_rating_count, min_avg_rating}
//   - filter:         {rules: [{type: rated} | {type: expr, expr: "..."}]}
//   - rerank.diversity: {key}
//   - rerank.topn:    {n}
func NewFactory(deps Dependencies) *pipeline.NodeFactory {
	factory := pipeline.NewNodeFactory()

	factory.Register("recall.content", func(config map[string]interface{}) (pipeline.Node, error) {
		if deps.Content == nil {
			return nil, fmt.Errorf("recall.content: content model is required")
		}
		return &recall.ContentRecall{
			Model: deps.Content,
			TopK:  int(conv.ConfigGetInt64(config, "top_k", 0)),
		}, nil
	})

	factory.Register("recall.cf", func(config map[string]interface{}) (pipeline.Node, error) {
		if deps.CF == nil {
			return nil, fmt.Errorf("recall.cf: cf model is required")
		}
		return &recall.CFRecall{
			Model: deps.CF,
			TopK:  int(conv.ConfigGetInt64(config, "top_k", 0)),
		}, nil
	})

	factory.Register("recall.popular", func(config map[string]interface{}) (pipeline.Node, error) {
		if deps.Catalog == nil {
			return nil, fmt.Errorf("recall.popular: catalog is required")
		}
		return &recall.PopularRecall{
			Catalog:        deps.Catalog,
			TopK:           int(conv.ConfigGetInt64(config, "top_k", 0)),
			MinRatingCount: conv.ConfigGetInt64(config, "min_rating_count", 0),
			MinAvgRating:   conv.ConfigGetFloat64(config, "min_avg_rating", 0),
		}, nil
	})

	factory.Register("filter", func(config map[string]interface{}) (pipeline.Node, error) {
		return buildFilterNode(deps, config)
	})

	factory.Register("rerank.diversity", func(config map[string]interface{}) (pipeline.Node, error) {
		return &rerank.DiversityNode{
			Key: conv.ConfigGet[string](config, "key", ""),
		}, nil
	})

	factory.Register("rerank.topn", func(config map[string]interface{}) (pipeline.Node, error) {
		return &rerank.TopNNode{N: int(conv.ConfigGetInt64(config, "n", 0))}, nil
	})

	return factory
}

func buildFilterNode(deps Dependencies, config map[string]interface{}) (pipeline.Node, error) {
	rulesConfig, ok := config["rules"].([]interface{})
	if !ok {
		return nil, fmt.Errorf("filter: rules not found or invalid")
	}

	filters := make([]filter.Filter, 0, len(rulesConfig))
	for _, rc := range rulesConfig {
		ruleMap, ok := rc.(map[string]interface{})
		if !ok {
			continue
		}
		ruleType := conv.ConfigGet[string](ruleMap, "type", "")
		switch ruleType {
		case "rated":
			if deps.Interactions == nil {
				return nil, fmt.Errorf("filter: rated rule requires interaction store")
			}
			filters = append(filters, filter.NewRatedFilter(deps.Interactions))
		case "expr":
			expr := conv.ConfigGet[string](ruleMap, "expr", "")
			if expr == "" {
				return nil, fmt.Errorf("filter: expr rule requires expr")
			}
			f, err := filter.NewExprFilter(expr)
			if err != nil {
				return nil, fmt.Errorf("filter: compile expr: %w", err)
			}
			filters = append(filters, f)
		default:
			return nil, fmt.Errorf("filter: unknown rule type: %s", ruleType)
		}
	}

	return &filter.Node{Filters: filters}, nil
}
