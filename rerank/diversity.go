package rerank

import (
	"context"

	"github.com/rushteam/gamerec/core"
	"github.com/rushteam/gamerec/pipeline"
)

// DiversityNode 按类别打散候选：每个类别只保留首个出现的物品，其余剔除。
// 内容召回容易整列同类（同一描述词簇得分相近），本节点避免结果页被单一类别刷屏。
//
// 类别取值优先级：
//   - label[Key].Value
//   - meta[Key]（string）
//
// 取不到类别的物品不参与去重，原位保留。
type DiversityNode struct {
	// Key 是类别的 label/meta 键名；空值默认 "primary_genre"（目录元信息键）
	Key string
}

func (n *DiversityNode) Name() string {
	return "rerank.diversity"
}

func (n *DiversityNode) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *DiversityNode) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) == 0 {
		return items, nil
	}

	key := n.Key
	if key == "" {
		key = "primary_genre"
	}

	seen := make(map[string]bool, len(items))
	out := make([]*core.Item, 0, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}
		genre := n.category(key, it)
		if genre != "" {
			if seen[genre] {
				continue
			}
			seen[genre] = true
		}
		out = append(out, it)
	}
	return out, nil
}

// category 从 label 或 meta 取物品类别；都没有时返回空串。
func (n *DiversityNode) category(key string, it *core.Item) string {
	if lbl, ok := it.Labels[key]; ok && lbl.Value != "" {
		return lbl.Value
	}
	if v, ok := it.Meta[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
