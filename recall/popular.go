package recall

import (
	"context"

	"github.com/rushteam/gamerec/catalog"
	"github.com/rushteam/gamerec/core"
	"github.com/rushteam/gamerec/pipeline"
	"github.com/rushteam/gamerec/pkg/utils"
)

// PopularRecall 是热门召回源：零信息兜底。
// 按（评分人数 desc、均分 desc、目录序 asc）排出物品，目录非空时绝不失败。
//
// MinRatingCount / MinAvgRating 是可选的质量门槛（原始行为：人数 > 10 且
// 均分 >= 3.5 才算热门）；默认关闭，保证兜底序就是纯热度序。
// 门槛筛空时回退到无门槛热度序，兜底链路不允许产出空集。
type PopularRecall struct {
	Catalog *catalog.Catalog

	// TopK 返回的物品数；<=0 时默认 20
	TopK int

	// MinRatingCount 评分人数门槛；<=0 不启用
	MinRatingCount int64

	// MinAvgRating 均分门槛；<=0 不启用
	MinAvgRating float64
}

func (r *PopularRecall) Name() string        { return "recall.popular" }
func (r *PopularRecall) Kind() pipeline.Kind { return pipeline.KindRecall }

// Process 实现 Node 接口，直接调用 Recall
func (r *PopularRecall) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

// Recall 实现 Source 接口
func (r *PopularRecall) Recall(
	_ context.Context,
	_ *core.RecommendContext,
) ([]*core.Item, error) {
	if r.Catalog == nil || r.Catalog.Len() == 0 {
		return nil, nil
	}
	topK := r.TopK
	if topK <= 0 {
		topK = 20
	}

	order := r.Catalog.PopularOrder()
	picked := make([]int, 0, topK)
	for _, idx := range order {
		g := r.Catalog.At(idx)
		if r.MinRatingCount > 0 && g.RatingCount <= r.MinRatingCount {
			continue
		}
		if r.MinAvgRating > 0 && g.AvgRating < r.MinAvgRating {
			continue
		}
		picked = append(picked, idx)
		if len(picked) >= topK {
			break
		}
	}

	// 门槛筛空时退回纯热度序
	if len(picked) == 0 {
		if len(order) > topK {
			order = order[:topK]
		}
		picked = order
	}

	out := make([]*core.Item, 0, len(picked))
	for _, idx := range picked {
		g := r.Catalog.At(idx)
		it := core.NewItem(g.ID)
		it.Score = float64(g.RatingCount)
		it.PutLabel("recall_source", utils.Label{Value: "popular", Source: "recall"})
		out = append(out, it)
	}
	return out, nil
}
