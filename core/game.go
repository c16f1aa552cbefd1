package core

import "time"

// Game 是目录中的一条游戏记录：固定 schema，加载时校验，加载后只读。
// ID 使用商店 URL（稳定、唯一、不透明字符串）。
type Game struct {
	ID           string // 商店 URL，目录内唯一
	Name         string
	IconURL      string
	AvgRating    float64 // 平均评分
	RatingCount  int64   // 评分人数
	Description  string
	Developer    string
	PrimaryGenre string
	Genres       string
}

// Rating 是一条去重后的评分记录：同一 (user, item) 只保留时间戳最新的一条。
type Rating struct {
	UserID    string
	ItemID    string
	Value     float64
	Timestamp time.Time
}

// EventType 是交互事件类型。推荐引擎只消费 rating；view/like 仅记录。
type EventType string

const (
	EventView   EventType = "view"
	EventRating EventType = "rating"
	EventLike   EventType = "like"
)

// Event 是交互存储中的原始事件（追加写，不回改）。
type Event struct {
	UserID    string    `json:"user_id"`
	ItemID    string    `json:"item_id"`
	Type      EventType `json:"type"`
	Value     float64   `json:"value"`
	Timestamp time.Time `json:"timestamp"`
}
