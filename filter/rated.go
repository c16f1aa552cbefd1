package filter

import (
	"context"

	"github.com/rushteam/gamerec/core"
)

// ratedSetParam 是请求级缓存键：同一请求内评分集合只从交互存储拉取一次，
// 逐物品判断走内存集合，不再逐物品打存储。
const ratedSetParam = "filter.rated.seen"

// RatedFilter 剔除目标用户已评分的物品。
// 候选列表里出现用户评过的物品是协同/画像路径的硬约束，
// 过滤失败（交互存储不可用）时放行而不中断链路。
type RatedFilter struct {
	Interactions core.InteractionStore
}

func NewRatedFilter(interactions core.InteractionStore) *RatedFilter {
	return &RatedFilter{Interactions: interactions}
}

func (f *RatedFilter) Name() string { return "filter.rated" }

func (f *RatedFilter) ShouldFilter(
	ctx context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if f.Interactions == nil || rctx == nil || rctx.UserID == "" || item == nil {
		return false, nil
	}

	rated, err := f.ratedSet(ctx, rctx)
	if err != nil {
		return false, err
	}
	_, ok := rated[item.ID]
	return ok, nil
}

// ratedSet 返回用户已评分的物品集合，结果缓存在请求上下文参数里。
func (f *RatedFilter) ratedSet(ctx context.Context, rctx *core.RecommendContext) (map[string]struct{}, error) {
	if cached, ok := rctx.Params[ratedSetParam].(map[string]struct{}); ok {
		return cached, nil
	}

	ratings, err := f.Interactions.ListUserRatings(ctx, rctx.UserID)
	if err != nil {
		return nil, err
	}
	rated := make(map[string]struct{}, len(ratings))
	for _, r := range ratings {
		rated[r.ItemID] = struct{}{}
	}

	if rctx.Params == nil {
		rctx.Params = make(map[string]any)
	}
	rctx.Params[ratedSetParam] = rated
	return rated, nil
}
