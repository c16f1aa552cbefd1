package recall

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/rushteam/gamerec/catalog"
	"github.com/rushteam/gamerec/core"
	"github.com/rushteam/gamerec/feature"
	"github.com/rushteam/gamerec/pipeline"
	"github.com/rushteam/gamerec/pkg/utils"
)

// DefaultBatchSize 是内容相似度矩阵的默认行批大小。
const DefaultBatchSize = 1000

// ContentModel 是基于内容的相似度引擎。
//
// 核心思想："描述文本相似的物品，相互相似"
//
// 内存策略：
//   - 概念上是稠密 N×N 余弦相似度矩阵，实际按固定行批（默认 1000 行）
//     对全矩阵分块计算，每批结果保留稀疏形式（零项丢弃），峰值内存有上界
//   - SimilarityRow 按需从所属批稠密化单行（懒物化），调用方不得假设
//     批粒度之外有任何预计算
//
// 不变量：
//   - similarity(i,j) == similarity(j,i)（浮点容差内）
//   - 非零向量自相似度恰为 1；全零向量定义为 0（不传播 NaN）
//   - 取值范围 [0,1]
type ContentModel struct {
	cat       *catalog.Catalog
	batchSize int
	batches   []simBatch
	n         int
}

// simBatch 是一批相似度行，行内稀疏存放。
type simBatch struct {
	rows []feature.Vector
}

// ContentOption 是 BuildContentModel 的配置选项。
type ContentOption func(*contentConfig)

type contentConfig struct {
	batchSize int
}

// WithBatchSize 设置行批大小；n <= 0 时用 DefaultBatchSize。
func WithBatchSize(n int) ContentOption {
	return func(c *contentConfig) { c.batchSize = n }
}

// BuildContentModel 对目录建内容相似度模型。
// 各批相互独立，用 errgroup 并发计算；结果与顺序计算完全一致。
func BuildContentModel(ctx context.Context, cat *catalog.Catalog, vec *feature.Vectorizer, opts ...ContentOption) (*ContentModel, error) {
	cfg := &contentConfig{batchSize: DefaultBatchSize}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.batchSize <= 0 {
		cfg.batchSize = DefaultBatchSize
	}
	if vec == nil {
		vec = &feature.Vectorizer{}
	}

	n := cat.Len()
	m := &ContentModel{
		cat:       cat,
		batchSize: cfg.batchSize,
		n:         n,
	}
	if n == 0 {
		return m, nil
	}

	matrix := vec.Fit(cat.Games())

	// 预计算每行 L2 范数；零范数行的相似度整行为 0
	norms := make([]float64, n)
	for i := range matrix.Rows {
		norms[i] = matrix.Rows[i].Norm()
	}

	numBatches := (n + cfg.batchSize - 1) / cfg.batchSize
	m.batches = make([]simBatch, numBatches)

	eg, _ := errgroup.WithContext(ctx)
	for b := 0; b < numBatches; b++ {
		batchIdx := b
		eg.Go(func() error {
			start := batchIdx * cfg.batchSize
			end := start + cfg.batchSize
			if end > n {
				end = n
			}
			rows := make([]feature.Vector, end-start)
			for i := start; i < end; i++ {
				rows[i-start] = similarityRowSparse(matrix.Rows, norms, i)
			}
			m.batches[batchIdx] = simBatch{rows: rows}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return m, nil
}

// similarityRowSparse 计算第 i 行对全体物品的余弦相似度，稀疏保留非零项。
func similarityRowSparse(rows []feature.Vector, norms []float64, i int) feature.Vector {
	var indices []int
	var values []float64

	if norms[i] == 0 {
		// 全零向量：整行为 0，自相似度也定义为 0
		return feature.Vector{}
	}

	for j := range rows {
		var sim float64
		if j == i {
			sim = 1.0 // 非零向量自相似度恰为 1
		} else if norms[j] > 0 {
			sim = feature.Dot(rows[i], rows[j]) / (norms[i] * norms[j])
		}
		if sim != 0 {
			indices = append(indices, j)
			values = append(values, sim)
		}
	}
	return feature.Vector{Indices: indices, Values: values}
}

// N 返回目录物品数。
func (m *ContentModel) N() int { return m.n }

// SimilarityRow 返回第 i 行的稠密相似度向量（长度 N），按需从所属批物化。
// 越界返回 nil。
func (m *ContentModel) SimilarityRow(i int) []float64 {
	if i < 0 || i >= m.n {
		return nil
	}
	batch := i / m.batchSize
	rowInBatch := i % m.batchSize

	row := m.batches[batch].rows[rowInBatch]
	dense := make([]float64, m.n)
	for k, idx := range row.Indices {
		dense[idx] = row.Values[k]
	}
	return dense
}

// Similarity 返回 (i, j) 的相似度；越界返回 0。
func (m *ContentModel) Similarity(i, j int) float64 {
	if i < 0 || i >= m.n || j < 0 || j >= m.n {
		return 0
	}
	row := m.batches[i/m.batchSize].rows[i%m.batchSize]
	k := sort.SearchInts(row.Indices, j)
	if k < len(row.Indices) && row.Indices[k] == j {
		return row.Values[k]
	}
	return 0
}

// RecommendByItem 以种子物品为锚，按相似度降序排出其余全部物品。
// 排除种子自身；平局按目录序（稳定排序），输出确定。
// 未知 id 返回空结果而非错误：是否降级到热门由调用方决定。
func (m *ContentModel) RecommendByItem(itemID string, n int) []*core.Item {
	seed, ok := m.cat.Index(itemID)
	if !ok || n <= 0 {
		return nil
	}

	row := m.SimilarityRow(seed)
	order := make([]int, 0, m.n-1)
	for j := 0; j < m.n; j++ {
		if j != seed {
			order = append(order, j)
		}
	}
	sort.SliceStable(order, func(a, b int) bool {
		return row[order[a]] > row[order[b]]
	})
	if len(order) > n {
		order = order[:n]
	}

	out := make([]*core.Item, 0, len(order))
	for _, j := range order {
		id, _ := m.cat.ID(j)
		it := core.NewItem(id)
		it.Score = row[j]
		it.PutLabel("recall_source", utils.Label{Value: "content", Source: "recall"})
		out = append(out, it)
	}
	return out
}

// RecommendByProfile 按用户历史评分构建内容画像并排出未评分物品：
// 画像 = Σ 相似度行(已评分物品) × 评分，再按有效评分数归一。
// 评分全部指向未知物品时返回空（调用方降级）。
func (m *ContentModel) RecommendByProfile(ratings []core.Rating, n int) []*core.Item {
	if len(ratings) == 0 || n <= 0 || m.n == 0 {
		return nil
	}

	profile := make([]float64, m.n)
	rated := make(map[int]struct{}, len(ratings))
	valid := 0
	for _, r := range ratings {
		idx, ok := m.cat.Index(r.ItemID)
		if !ok {
			continue
		}
		row := m.SimilarityRow(idx)
		for j := range profile {
			profile[j] += row[j] * r.Value
		}
		rated[idx] = struct{}{}
		valid++
	}
	if valid == 0 {
		return nil
	}
	for j := range profile {
		profile[j] /= float64(valid)
	}

	order := make([]int, 0, m.n)
	for j := 0; j < m.n; j++ {
		if _, ok := rated[j]; !ok {
			order = append(order, j)
		}
	}
	sort.SliceStable(order, func(a, b int) bool {
		return profile[order[a]] > profile[order[b]]
	})
	if len(order) > n {
		order = order[:n]
	}

	out := make([]*core.Item, 0, len(order))
	for _, j := range order {
		id, _ := m.cat.ID(j)
		it := core.NewItem(id)
		it.Score = profile[j]
		it.PutLabel("recall_source", utils.Label{Value: "content_profile", Source: "recall"})
		out = append(out, it)
	}
	return out
}

// ContentRecall 是内容相似召回 Node：以 rctx.SeedItemID 为种子。
// 同时实现 Source 接口，可直接在 Pipeline 中使用。
type ContentRecall struct {
	Model *ContentModel

	// TopK 返回的物品数；<=0 时默认 20
	TopK int
}

func (r *ContentRecall) Name() string        { return "recall.content" }
func (r *ContentRecall) Kind() pipeline.Kind { return pipeline.KindRecall }

// Process 实现 Node 接口，直接调用 Recall
func (r *ContentRecall) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

// Recall 实现 Source 接口；无种子或种子未知时返回空，不报错。
func (r *ContentRecall) Recall(
	_ context.Context,
	rctx *core.RecommendContext,
) ([]*core.Item, error) {
	if r.Model == nil || rctx == nil || rctx.SeedItemID == "" {
		return nil, nil
	}
	topK := r.TopK
	if topK <= 0 {
		topK = 20
	}
	return r.Model.RecommendByItem(rctx.SeedItemID, topK), nil
}
