package recall

import (
	"context"
	"sort"

	"github.com/rushteam/gamerec/catalog"
	"github.com/rushteam/gamerec/core"
	"github.com/rushteam/gamerec/feature"
	"github.com/rushteam/gamerec/pipeline"
	"github.com/rushteam/gamerec/pkg/utils"
)

// DefaultTopKSimilarUsers 是默认考虑的相似用户数。
const DefaultTopKSimilarUsers = 5

// CFModel 是基于用户的协同过滤引擎（User-based CF）。
//
// 核心思想："兴趣相似的用户，喜欢相似的物品"
//
// 矩阵构建：
//   - 输入为去重后的评分记录（同一 (user, item) 时间戳最新者胜）
//   - 每个用户按其评分均值做 mean-centering；缺失格 centering 之后按 0 处理。
//     零填充会让评分很少的用户在余弦上显得偏相似，这是沿用的已知近似，
//     刻意保留，不在此静默修正
//   - 用户×用户余弦在完整中心化矩阵上一次算全（用户维远小于物品维时可接受；
//     用户规模上来后应参照内容引擎按行批分块；行结构已复用同一稀疏类型，
//     加批处理不需要改 API）
//
// 确定性：用户按 id 排序建行；所有排序用稳定排序，平局按目录序。
type CFModel struct {
	cat *catalog.Catalog

	users     []string       // 排序后的用户 id
	userIndex map[string]int // id -> 行号

	rows  []feature.Vector      // 中心化评分行，下标 = 目录下标
	rated []map[int]float64     // 每用户的原始评分（排除项判断用）
	sims  [][]float64           // 用户×用户余弦相似度，对称
	cols  []int                 // 出现过评分的目录下标，升序（候选集）

	topK int
}

// CFOption 是 BuildCFModel 的配置选项。
type CFOption func(*cfConfig)

type cfConfig struct {
	topK int
}

// WithTopKSimilarUsers 设置考虑的相似用户数；n <= 0 时用默认值。
func WithTopKSimilarUsers(n int) CFOption {
	return func(c *cfConfig) { c.topK = n }
}

// BuildCFModel 从评分记录构建用户×物品矩阵并算全用户相似度。
// 指向目录外物品的评分被跳过；无评分输入得到空模型（Recommend 一律 NOT_FOUND）。
func BuildCFModel(ratings []core.Rating, cat *catalog.Catalog, opts ...CFOption) *CFModel {
	cfg := &cfConfig{topK: DefaultTopKSimilarUsers}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.topK <= 0 {
		cfg.topK = DefaultTopKSimilarUsers
	}

	m := &CFModel{
		cat:       cat,
		userIndex: make(map[string]int),
		topK:      cfg.topK,
	}

	// 防御性去重：上游契约是已去重，但矩阵构建不依赖它
	type cell struct {
		rating core.Rating
	}
	byUser := make(map[string]map[int]cell)
	colSet := make(map[int]struct{})
	for _, r := range ratings {
		idx, ok := cat.Index(r.ItemID)
		if !ok {
			continue
		}
		if byUser[r.UserID] == nil {
			byUser[r.UserID] = make(map[int]cell)
		}
		if old, ok := byUser[r.UserID][idx]; !ok || r.Timestamp.After(old.rating.Timestamp) {
			byUser[r.UserID][idx] = cell{rating: r}
		}
		colSet[idx] = struct{}{}
	}
	if len(byUser) == 0 {
		return m
	}

	m.users = make([]string, 0, len(byUser))
	for u := range byUser {
		m.users = append(m.users, u)
	}
	sort.Strings(m.users)
	for i, u := range m.users {
		m.userIndex[u] = i
	}

	m.cols = make([]int, 0, len(colSet))
	for idx := range colSet {
		m.cols = append(m.cols, idx)
	}
	sort.Ints(m.cols)

	// mean-centering：行 = 用户，列 = 目录下标
	m.rows = make([]feature.Vector, len(m.users))
	m.rated = make([]map[int]float64, len(m.users))
	for i, u := range m.users {
		cells := byUser[u]
		raw := make(map[int]float64, len(cells))
		var sum float64
		for idx, c := range cells {
			raw[idx] = c.rating.Value
			sum += c.rating.Value
		}
		mean := sum / float64(len(raw))

		indices := make([]int, 0, len(raw))
		for idx := range raw {
			indices = append(indices, idx)
		}
		sort.Ints(indices)
		values := make([]float64, 0, len(indices))
		kept := indices[:0]
		for _, idx := range indices {
			centered := raw[idx] - mean
			if centered != 0 {
				kept = append(kept, idx)
				values = append(values, centered)
			}
		}
		m.rows[i] = feature.Vector{Indices: kept, Values: values}
		m.rated[i] = raw
	}

	// 用户×用户余弦，一次算全（对称，算上三角后镜像）
	n := len(m.users)
	m.sims = make([][]float64, n)
	norms := make([]float64, n)
	for i := range m.rows {
		norms[i] = m.rows[i].Norm()
		m.sims[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		if norms[i] > 0 {
			m.sims[i][i] = 1.0
		}
		for j := i + 1; j < n; j++ {
			var sim float64
			if norms[i] > 0 && norms[j] > 0 {
				sim = feature.Dot(m.rows[i], m.rows[j]) / (norms[i] * norms[j])
			}
			m.sims[i][j] = sim
			m.sims[j][i] = sim
		}
	}

	return m
}

// Users 返回矩阵中的用户数。
func (m *CFModel) Users() int { return len(m.users) }

// UserSimilarity 返回两个用户的余弦相似度；未知用户返回 0。
func (m *CFModel) UserSimilarity(a, b string) float64 {
	i, ok := m.userIndex[a]
	if !ok {
		return 0
	}
	j, ok := m.userIndex[b]
	if !ok {
		return 0
	}
	return m.sims[i][j]
}

// Recommend 用相似用户的中心化评分加权预测目标用户的偏好排序。
//
// 流程：
//  1. 目标用户不在矩阵 → NOT_FOUND（调用方映射到降级，绝不崩溃）
//  2. 取 TopK 个最相似的其他用户（负相似度合法，起反向降权作用）
//  3. score[item] = Σ similarity × 中心化评分，候选为矩阵中出现过评分的物品
//  4. 排除目标用户已评分的物品，按 score 降序取前 n，平局按目录序
//
// 没有其他用户或候选为空时返回空结果，不报错。
func (m *CFModel) Recommend(userID string, n int) ([]*core.Item, error) {
	target, ok := m.userIndex[userID]
	if !ok {
		return nil, core.NewDomainError(core.ModuleCF, core.ErrorCodeNotFound,
			"cf: user not found: "+userID)
	}
	if n <= 0 {
		return nil, nil
	}

	// TopK 相似的其他用户；相似度平局按行号（即用户 id 序）保证确定性
	type neighbor struct {
		idx int
		sim float64
	}
	neighbors := make([]neighbor, 0, len(m.users)-1)
	for i := range m.users {
		if i == target {
			continue
		}
		neighbors = append(neighbors, neighbor{idx: i, sim: m.sims[target][i]})
	}
	if len(neighbors) == 0 {
		return nil, nil
	}
	sort.SliceStable(neighbors, func(a, b int) bool {
		return neighbors[a].sim > neighbors[b].sim
	})
	if len(neighbors) > m.topK {
		neighbors = neighbors[:m.topK]
	}

	// 加权累加中心化评分
	scores := make(map[int]float64)
	for _, nb := range neighbors {
		row := m.rows[nb.idx]
		for k, idx := range row.Indices {
			scores[idx] += nb.sim * row.Values[k]
		}
	}

	// 候选 = 矩阵列（有过评分的物品）减去目标用户已评分的；按目录序进排序器
	ratedByTarget := m.rated[target]
	order := make([]int, 0, len(m.cols))
	for _, idx := range m.cols {
		if _, ok := ratedByTarget[idx]; ok {
			continue
		}
		order = append(order, idx)
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})
	if len(order) > n {
		order = order[:n]
	}

	out := make([]*core.Item, 0, len(order))
	for _, idx := range order {
		id, _ := m.cat.ID(idx)
		it := core.NewItem(id)
		it.Score = scores[idx]
		it.PutLabel("recall_source", utils.Label{Value: "cf", Source: "recall"})
		out = append(out, it)
	}
	return out, nil
}

// CFRecall 是协同过滤召回 Node：以 rctx.UserID 为目标用户。
// Node 语义下未知用户视为"无候选"返回空；需要区分错误时直接用 CFModel。
type CFRecall struct {
	Model *CFModel

	// TopK 返回的物品数；<=0 时默认 20
	TopK int
}

func (r *CFRecall) Name() string        { return "recall.cf" }
func (r *CFRecall) Kind() pipeline.Kind { return pipeline.KindRecall }

// Process 实现 Node 接口，直接调用 Recall
func (r *CFRecall) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

// Recall 实现 Source 接口
func (r *CFRecall) Recall(
	_ context.Context,
	rctx *core.RecommendContext,
) ([]*core.Item, error) {
	if r.Model == nil || rctx == nil || rctx.UserID == "" {
		return nil, nil
	}
	topK := r.TopK
	if topK <= 0 {
		topK = 20
	}
	items, err := r.Model.Recommend(rctx.UserID, topK)
	if err != nil {
		if core.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return items, nil
}
