// Package hybrid 是推荐引擎的唯一公共入口：组合内容相似、协同过滤与热门兜底。
//
// 三层降级链路（本核心的中心故障处理策略）：
//
//	协同过滤 → 以用户最高评分物品为种子的内容推荐 → 热门兜底
//
// 任何一次调用都必须产出一个有序列表（仅当目录为空时才允许为空），
// 单个用户/物品的可恢复错误绝不升级为崩溃，也不影响其他请求。
package hybrid

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/rushteam/gamerec/catalog"
	"github.com/rushteam/gamerec/core"
	"github.com/rushteam/gamerec/feature"
	"github.com/rushteam/gamerec/pkg/utils"
	"github.com/rushteam/gamerec/recall"
)

// Strategy 标识本次结果实际使用的排序策略（降级层级可观测）。
type Strategy string

const (
	StrategyPopular         Strategy = "popular"          // 零信息兜底：热度序
	StrategyContent         Strategy = "content"          // 种子物品内容相似
	StrategyContentFavorite Strategy = "content_favorite" // 以最爱物品为种子的内容降级
	StrategyCollaborative   Strategy = "collaborative"    // 协同过滤
)

// DefaultN 是默认返回条数。
const DefaultN = 10

// Config 是引擎的装配配置：数据源全部显式注入，不存在进程级单例。
type Config struct {
	// Catalog 只读目录，必填
	Catalog *catalog.Catalog

	// Interactions 交互存储（外部协作方），可为 nil：等价于没有任何个性化信号
	Interactions core.InteractionStore

	// UserStats 可选：预计算用户统计（如 Feast 在线特征），
	// 最爱物品降级优先查它，取不到再扫交互日志
	UserStats core.UserStatsProvider

	// Vectorizer 可选：文本特征抽取配置，nil 用默认
	Vectorizer *feature.Vectorizer

	// BatchSize 内容相似度行批大小；<=0 用默认
	BatchSize int

	// TopKSimilarUsers 协同过滤相似用户数；<=0 用默认
	TopKSimilarUsers int
}

// Request 是一次推荐请求。UserID 与 ItemID 均可为空。
type Request struct {
	UserID string
	ItemID string
	N      int
}

// Result 是推荐结果：有序、无重复、长度 ≤ n。
// Items 携带解释用标签（recall_source / fallback_tier）；Games 是对应目录记录。
type Result struct {
	Games    []core.Game
	Items    []*core.Item
	Strategy Strategy
}

// snapshot 是一次构建产出的只读模型集合。
// 构建完成后整体换入（swap-on-complete），读请求之间无锁共享。
type snapshot struct {
	cat     *catalog.Catalog
	content *recall.ContentModel
	cf      *recall.CFModel
}

// Engine 是混合推荐引擎。
//
// 生命周期：New → Build →（任意多并发 Recommend）→ Reload …
//   - Build/Reload 由单写者互斥锁串行化；构建期间读请求继续用旧快照
//   - 协同过滤的输入通过交互存储的一次快照读取，构建期间不观察撕裂状态
type Engine struct {
	cfg Config

	snap    atomic.Pointer[snapshot]
	buildMu sync.Mutex
}

// New 创建引擎；目录缺失直接报 INVALID_INPUT（不产出半成品引擎）。
func New(cfg Config) (*Engine, error) {
	if cfg.Catalog == nil {
		return nil, core.NewDomainError(core.ModuleHybrid, core.ErrorCodeInvalidInput,
			"hybrid: catalog is required")
	}
	return &Engine{cfg: cfg}, nil
}

// Build 首次构建模型快照。等价于 Reload。
func (e *Engine) Build(ctx context.Context) error {
	return e.Reload(ctx)
}

// Reload 重建全部派生结构并原子换入新快照。
// 重建串行（单写者）；任何构建错误都不影响当前正在服务的快照。
func (e *Engine) Reload(ctx context.Context) error {
	e.buildMu.Lock()
	defer e.buildMu.Unlock()

	cat := e.cfg.Catalog

	var contentOpts []recall.ContentOption
	if e.cfg.BatchSize > 0 {
		contentOpts = append(contentOpts, recall.WithBatchSize(e.cfg.BatchSize))
	}
	content, err := recall.BuildContentModel(ctx, cat, e.cfg.Vectorizer, contentOpts...)
	if err != nil {
		return err
	}

	// 交互数据一次读全（契约：一致快照），而不是建矩阵过程中多次读存储
	var ratings []core.Rating
	if e.cfg.Interactions != nil {
		ratings, err = e.cfg.Interactions.ListAllRatings(ctx)
		if err != nil {
			return err
		}
	}
	var cfOpts []recall.CFOption
	if e.cfg.TopKSimilarUsers > 0 {
		cfOpts = append(cfOpts, recall.WithTopKSimilarUsers(e.cfg.TopKSimilarUsers))
	}
	cf := recall.BuildCFModel(ratings, cat, cfOpts...)

	e.snap.Store(&snapshot{cat: cat, content: content, cf: cf})
	return nil
}

// Recommend 返回长度 ≤ n 的有序推荐列表。
//
// 策略优先级：
//  1. 两个 id 都为空 → 热门兜底（目录非空时绝不失败）
//  2. ItemID 非空（无论 UserID）→ 内容相似（未知种子 → 空结果）
//  3. 仅 UserID → 协同过滤；为空/用户未知 → 最爱物品种子的内容推荐；
//     用户完全没有评分 → 热门兜底
func (e *Engine) Recommend(ctx context.Context, req Request) (*Result, error) {
	snap := e.snap.Load()
	if snap == nil {
		return nil, core.NewDomainError(core.ModuleHybrid, core.ErrorCodeUnavailable,
			"hybrid: engine not built, call Build first")
	}

	n := req.N
	if n <= 0 {
		n = DefaultN
	}

	switch {
	case req.ItemID != "":
		items := snap.content.RecommendByItem(req.ItemID, n)
		return e.finish(snap, items, StrategyContent), nil

	case req.UserID != "":
		return e.recommendForUser(ctx, snap, req.UserID, n)

	default:
		return e.finish(snap, e.popularItems(snap, n), StrategyPopular), nil
	}
}

// recommendForUser 执行三层降级链路。
func (e *Engine) recommendForUser(ctx context.Context, snap *snapshot, userID string, n int) (*Result, error) {
	// 第一层：协同过滤。NOT_FOUND 是已定义的降级信号，不是故障
	items, err := snap.cf.Recommend(userID, n)
	if err != nil && !core.IsNotFound(err) {
		return nil, err
	}
	if len(items) > 0 {
		return e.finish(snap, items, StrategyCollaborative), nil
	}

	// 第二层：以最高评分物品为种子的内容推荐
	if favorite := e.favoriteItem(ctx, userID); favorite != "" {
		items := snap.content.RecommendByItem(favorite, n)
		if len(items) > 0 {
			return e.finish(snap, items, StrategyContentFavorite), nil
		}
	}

	// 第三层：热门兜底
	return e.finish(snap, e.popularItems(snap, n), StrategyPopular), nil
}

// favoriteItem 返回用户最高评分的物品 id；没有评分时返回空串。
// 平局规则：评分值高者胜，再比时间戳新者胜，再比物品 id 字典序小者胜。
// 优先查预计算统计（UserStats），取不到再扫交互日志。
func (e *Engine) favoriteItem(ctx context.Context, userID string) string {
	if e.cfg.UserStats != nil {
		stats, err := e.cfg.UserStats.GetUserStats(ctx, userID)
		if err == nil && stats != nil && stats.FavoriteItem != "" {
			return stats.FavoriteItem
		}
		// NOT_FOUND / 特征服务不可用：降级到交互日志，不中断请求
	}

	if e.cfg.Interactions == nil {
		return ""
	}
	ratings, err := e.cfg.Interactions.ListUserRatings(ctx, userID)
	if err != nil || len(ratings) == 0 {
		return ""
	}

	best := ratings[0]
	for _, r := range ratings[1:] {
		switch {
		case r.Value > best.Value:
			best = r
		case r.Value == best.Value && r.Timestamp.After(best.Timestamp):
			best = r
		case r.Value == best.Value && r.Timestamp.Equal(best.Timestamp) && r.ItemID < best.ItemID:
			best = r
		}
	}
	return best.ItemID
}

// popularItems 返回纯热度序的前 n 个物品。
func (e *Engine) popularItems(snap *snapshot, n int) []*core.Item {
	src := &recall.PopularRecall{Catalog: snap.cat, TopK: n}
	items, _ := src.Recall(context.Background(), nil)
	return items
}

// finish 打降级标签并把候选映射回目录记录。
func (e *Engine) finish(snap *snapshot, items []*core.Item, strategy Strategy) *Result {
	games := make([]core.Game, 0, len(items))
	kept := make([]*core.Item, 0, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}
		g, ok := snap.cat.Game(it.ID)
		if !ok {
			continue
		}
		it.PutLabel("fallback_tier", utils.Label{Value: string(strategy), Source: "hybrid"})
		games = append(games, *g)
		kept = append(kept, it)
	}
	return &Result{Games: games, Items: kept, Strategy: strategy}
}

// ItemDetails 按 id 返回目录记录；未知 id 返回 NOT_FOUND。
func (e *Engine) ItemDetails(itemID string) (*core.Game, error) {
	snap := e.snap.Load()
	if snap == nil {
		return nil, core.NewDomainError(core.ModuleHybrid, core.ErrorCodeUnavailable,
			"hybrid: engine not built, call Build first")
	}
	g, ok := snap.cat.Game(itemID)
	if !ok {
		return nil, core.NewDomainError(core.ModuleHybrid, core.ErrorCodeNotFound,
			"hybrid: item not found: "+itemID)
	}
	return g, nil
}
