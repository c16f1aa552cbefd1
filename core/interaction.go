package core

import "context"

// InteractionStore 是交互数据的领域接口：引擎侧只读，写入属于外部协作方。
//
// 契约：
//   - 两个方法都只返回 rating 类型事件，且已按 (user, item) 去重（时间戳最新者胜）
//   - 用户不存在 / 无评分时返回空切片，不返回错误
//   - ListAllRatings 必须是某个时间点的一致快照：协同过滤建矩阵期间
//     不能观察到撕裂读（实现方可用内存快照或事务读）
type InteractionStore interface {
	// ListUserRatings 返回用户的去重评分记录
	ListUserRatings(ctx context.Context, userID string) ([]Rating, error)

	// ListAllRatings 返回全量去重评分记录（一致快照，用于建矩阵）
	ListAllRatings(ctx context.Context) ([]Rating, error)
}

// UserStats 是预计算的用户统计特征（可由在线特征存储提供）。
type UserStats struct {
	UserID       string
	FavoriteItem string  // 最高评分物品
	MeanRating   float64 // 评分均值
	RatingCount  int64
}

// UserStatsProvider 提供预计算的用户统计，省去扫描交互日志。
// 取不到时返回 NOT_FOUND，调用方回退到交互日志计算。
type UserStatsProvider interface {
	GetUserStats(ctx context.Context, userID string) (*UserStats, error)
}
