package core

import "github.com/rushteam/gamerec/pkg/utils"

// RecommendContext 承载一次推荐请求的用户/种子/场景信息，贯穿整个 Pipeline 透传。
// UserID 与 SeedItemID 均可为空：两者都为空时走热门兜底。
type RecommendContext struct {
	UserID     string // 可选：目标用户
	SeedItemID string // 可选：种子物品（"看了这个还可能看什么"）
	Scene      string

	// Labels 是请求级标签，可驱动整个 Pipeline 行为
	// 例如：新用户、冷启动、降级层级等
	Labels map[string]utils.Label

	// Params 请求级上下文参数（query、device_type 等）
	Params map[string]any
}

// PutLabel 写入请求级 Label。
func (rctx *RecommendContext) PutLabel(key string, lbl utils.Label) {
	if rctx.Labels == nil {
		rctx.Labels = make(map[string]utils.Label)
	}
	if old, ok := rctx.Labels[key]; ok {
		rctx.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	rctx.Labels[key] = lbl
}

// GetLabel 获取请求级 Label。
func (rctx *RecommendContext) GetLabel(key string) (utils.Label, bool) {
	if rctx.Labels == nil {
		return utils.Label{}, false
	}
	lbl, ok := rctx.Labels[key]
	return lbl, ok
}
