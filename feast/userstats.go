package feast

import (
	"context"

	"github.com/rushteam/gamerec/core"
	"github.com/rushteam/gamerec/pkg/conv"
)

// 默认的特征引用与实体名。与特征仓库里的 user_stats FeatureView 对应。
const (
	DefaultEntityName          = "user_id"
	DefaultFavoriteItemFeature = "user_stats:favorite_item"
	DefaultMeanRatingFeature   = "user_stats:mean_rating"
	DefaultRatingCountFeature  = "user_stats:rating_count"
)

// UserStatsProvider 把 Feast 在线特征映射为 core.UserStats。
// 特征缺失按 NOT_FOUND 上报，调用方据此降级到交互日志。
type UserStatsProvider struct {
	client Client

	// EntityName 实体字段名，默认 "user_id"
	EntityName string

	// FavoriteItemFeature / MeanRatingFeature / RatingCountFeature
	// 为空时使用默认特征引用
	FavoriteItemFeature string
	MeanRatingFeature   string
	RatingCountFeature  string
}

// NewUserStatsProvider 创建适配器，零值字段填默认特征引用。
func NewUserStatsProvider(client Client) *UserStatsProvider {
	return &UserStatsProvider{
		client:              client,
		EntityName:          DefaultEntityName,
		FavoriteItemFeature: DefaultFavoriteItemFeature,
		MeanRatingFeature:   DefaultMeanRatingFeature,
		RatingCountFeature:  DefaultRatingCountFeature,
	}
}

// GetUserStats 实现 core.UserStatsProvider。
func (p *UserStatsProvider) GetUserStats(ctx context.Context, userID string) (*core.UserStats, error) {
	if userID == "" {
		return nil, core.NewDomainError(core.ModuleHybrid, core.ErrorCodeInvalidInput,
			"feast: user_id is required")
	}

	resp, err := p.client.GetOnlineFeatures(ctx, &GetOnlineFeaturesRequest{
		Features:   []string{p.FavoriteItemFeature, p.MeanRatingFeature, p.RatingCountFeature},
		EntityRows: []map[string]interface{}{{p.EntityName: userID}},
	})
	if err != nil {
		return nil, core.NewDomainError(core.ModuleHybrid, core.ErrorCodeUnavailable,
			"feast: "+err.Error())
	}
	if len(resp.FeatureVectors) == 0 || len(resp.FeatureVectors[0].Values) == 0 {
		return nil, core.NewDomainError(core.ModuleHybrid, core.ErrorCodeNotFound,
			"feast: no stats for user: "+userID)
	}

	values := resp.FeatureVectors[0].Values
	stats := &core.UserStats{UserID: userID}
	if v, ok := values[p.FavoriteItemFeature]; ok {
		if s, ok := v.(string); ok {
			stats.FavoriteItem = s
		}
	}
	if v, ok := values[p.MeanRatingFeature]; ok {
		if f, ok := conv.ToFloat64(v); ok {
			stats.MeanRating = f
		}
	}
	if v, ok := values[p.RatingCountFeature]; ok {
		if f, ok := conv.ToFloat64(v); ok {
			stats.RatingCount = int64(f)
		}
	}
	return stats, nil
}

var _ core.UserStatsProvider = (*UserStatsProvider)(nil)
