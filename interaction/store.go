// Package interaction 是交互事件的存储适配层：JSON-over-KV 的事件日志，
// 对引擎暴露 core.InteractionStore 只读契约。
//
// 存储布局（{prefix} 默认 "interactions"）：
//   - Hash {prefix}:user:{userID}：field = "{itemID}:{type}"，value = JSON Event。
//     同一 (user, item, type) 重复写入即覆盖，天然实现评分的时间戳最新者胜
//   - Hash {prefix}:ratings：field = "{userID}\x1f{itemID}"，value = JSON Event，
//     仅 rating 事件。全量评分集中在单个 Hash：ListAllRatings 一条 HGETALL
//     读全，Redis 上是单命令原子读，内存实现是单次锁内拷贝，
//     跨用户不存在撕裂读
//
// 两个 Hash 的写入不在同一事务里；每个 Hash 各自提供一致视图。
package interaction

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/rushteam/gamerec/core"
)

// KVStore 基于 core.KeyValueStore 实现交互事件日志。
// 写入属于外部协作方（Web 层）；引擎只消费 rating 事件。
type KVStore struct {
	store core.KeyValueStore

	// KeyPrefix 是存储 key 的前缀
	KeyPrefix string
}

// NewKVStore 创建交互存储适配器。
func NewKVStore(s core.KeyValueStore, keyPrefix string) *KVStore {
	if keyPrefix == "" {
		keyPrefix = "interactions"
	}
	return &KVStore{store: s, KeyPrefix: keyPrefix}
}

// ratingsFieldSep 拼接全量评分 Hash 的 field。
// 物品 id 是商店 URL（含冒号/斜杠），所以用不可打印分隔符。
const ratingsFieldSep = "\x1f"

func (s *KVStore) userKey(userID string) string {
	return s.KeyPrefix + ":user:" + userID
}

func (s *KVStore) ratingsKey() string {
	return s.KeyPrefix + ":ratings"
}

// RecordEvent 写入一条交互事件；Timestamp 零值时取当前时间。
func (s *KVStore) RecordEvent(ctx context.Context, ev core.Event) error {
	if ev.UserID == "" || ev.ItemID == "" {
		return core.NewDomainError(core.ModuleInteraction, core.ErrorCodeInvalidInput,
			"interaction: user_id and item_id are required")
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}

	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	field := ev.ItemID + ":" + string(ev.Type)
	if err := s.store.HSet(ctx, s.userKey(ev.UserID), field, data); err != nil {
		return err
	}
	if ev.Type != core.EventRating {
		return nil
	}
	return s.store.HSet(ctx, s.ratingsKey(), ev.UserID+ratingsFieldSep+ev.ItemID, data)
}

// RecordRating 记录/更新评分（同一 (user, item) 覆盖为最新）。
func (s *KVStore) RecordRating(ctx context.Context, userID, itemID string, value float64) error {
	return s.RecordEvent(ctx, core.Event{
		UserID: userID,
		ItemID: itemID,
		Type:   core.EventRating,
		Value:  value,
	})
}

// RecordView 记录浏览事件（引擎不消费，仅留档）。
func (s *KVStore) RecordView(ctx context.Context, userID, itemID string) error {
	return s.RecordEvent(ctx, core.Event{
		UserID: userID,
		ItemID: itemID,
		Type:   core.EventView,
		Value:  1,
	})
}

// RecordLike 记录点赞事件（引擎不消费，仅留档）。
func (s *KVStore) RecordLike(ctx context.Context, userID, itemID string) error {
	return s.RecordEvent(ctx, core.Event{
		UserID: userID,
		ItemID: itemID,
		Type:   core.EventLike,
		Value:  1,
	})
}

// ListUserRatings 返回用户的去重评分，按物品 id 排序。
// 用户不存在 → 空切片，不报错。
func (s *KVStore) ListUserRatings(ctx context.Context, userID string) ([]core.Rating, error) {
	fields, err := s.store.HGetAll(ctx, s.userKey(userID))
	if err != nil {
		if core.IsStoreNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	ratings := make([]core.Rating, 0, len(fields))
	for field, data := range fields {
		if !strings.HasSuffix(field, ":"+string(core.EventRating)) {
			continue
		}
		var ev core.Event
		if err := json.Unmarshal(data, &ev); err != nil {
			continue // 脏记录跳过，不放大故障
		}
		ratings = append(ratings, core.Rating{
			UserID:    ev.UserID,
			ItemID:    ev.ItemID,
			Value:     ev.Value,
			Timestamp: ev.Timestamp,
		})
	}
	sort.Slice(ratings, func(i, j int) bool { return ratings[i].ItemID < ratings[j].ItemID })
	return ratings, nil
}

// ListAllRatings 返回全量去重评分，按 (user, item) 排序。
// 对全量评分 Hash 做单次 HGetAll，结果是单个时间点的一致视图，
// 不会混入跨用户的半成品状态。
func (s *KVStore) ListAllRatings(ctx context.Context) ([]core.Rating, error) {
	fields, err := s.store.HGetAll(ctx, s.ratingsKey())
	if err != nil {
		if core.IsStoreNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	all := make([]core.Rating, 0, len(fields))
	for _, data := range fields {
		var ev core.Event
		if err := json.Unmarshal(data, &ev); err != nil {
			continue // 脏记录跳过，不放大故障
		}
		all = append(all, core.Rating{
			UserID:    ev.UserID,
			ItemID:    ev.ItemID,
			Value:     ev.Value,
			Timestamp: ev.Timestamp,
		})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].UserID != all[j].UserID {
			return all[i].UserID < all[j].UserID
		}
		return all[i].ItemID < all[j].ItemID
	})
	return all, nil
}

var _ core.InteractionStore = (*KVStore)(nil)

// Snapshot 把当前评分数据物化为不可变的内存快照。
// 底层的 ListAllRatings 本身就是单次一致读；快照把这份视图固定在内存里，
// 建成后只读，可被任意多个并发请求零开销共享。
func (s *KVStore) Snapshot(ctx context.Context) (*Snapshot, error) {
	all, err := s.ListAllRatings(ctx)
	if err != nil {
		return nil, err
	}
	return NewSnapshot(all), nil
}

// Snapshot 是某个时间点的评分快照，实现 core.InteractionStore。
type Snapshot struct {
	ratings []core.Rating
	byUser  map[string][]core.Rating
}

// NewSnapshot 从去重评分列表构建快照（列表被拷贝，不持有调用方切片）。
func NewSnapshot(ratings []core.Rating) *Snapshot {
	cp := make([]core.Rating, len(ratings))
	copy(cp, ratings)
	byUser := make(map[string][]core.Rating)
	for _, r := range cp {
		byUser[r.UserID] = append(byUser[r.UserID], r)
	}
	return &Snapshot{ratings: cp, byUser: byUser}
}

func (s *Snapshot) ListUserRatings(_ context.Context, userID string) ([]core.Rating, error) {
	return s.byUser[userID], nil
}

func (s *Snapshot) ListAllRatings(_ context.Context) ([]core.Rating, error) {
	return s.ratings, nil
}

var _ core.InteractionStore = (*Snapshot)(nil)
