package recall

import (
	"context"

	"github.com/rushteam/gamerec/core"
)

// Source 是召回源接口：给定请求上下文，产出候选物品集。
type Source interface {
	Name() string
	Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error)
}
