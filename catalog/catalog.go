// Package catalog 负责目录数据的加载与索引：CSV 表格源 → 固定 schema 的 Game 记录。
//
// 加载语义：
//   - 必需列缺失 → INIT_FAILED，快速失败，不产出半成品目录
//   - URL 重复时首次出现者胜（first-wins 去重）
//   - id ↔ 稠密下标 双向映射在加载时一次建成，加载后只读
//   - 数值列解析失败按 0 处理（脏数据降级，不中断加载）
package catalog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/rushteam/gamerec/core"
)

// 目录数据源的必需列。
var requiredColumns = []string{
	"URL",
	"Name",
	"Icon URL",
	"Average User Rating",
	"User Rating Count",
	"Description",
	"Developer",
	"Primary Genre",
	"Genres",
}

// DefaultMaxRows 是默认的行数上限（内存约束）。
const DefaultMaxRows = 5000

// Option 是 Load 的配置选项。
type Option func(*loadConfig)

type loadConfig struct {
	maxRows int
}

// WithMaxRows 限制加载的最大行数；n <= 0 表示不限制。
func WithMaxRows(n int) Option {
	return func(c *loadConfig) { c.maxRows = n }
}

// Catalog 是只读的游戏目录：记录、id↔下标双向映射、热门排序。
// 一次加载后不再修改；重新加载产生新的 Catalog 实例。
type Catalog struct {
	games   []core.Game
	index   map[string]int // id -> 稠密下标，双射
	popular []int          // 下标按热度排序（评分人数 desc、均分 desc、目录序 asc）
}

// Load 从 CSV 数据源加载目录。
// 必需列缺失返回 INIT_FAILED；空数据（只有表头或完全无行）得到空目录，不报错。
func Load(r io.Reader, opts ...Option) (*Catalog, error) {
	cfg := &loadConfig{maxRows: DefaultMaxRows}
	for _, opt := range opts {
		opt(cfg)
	}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // 行宽不齐时缺失字段按空串处理

	header, err := cr.Read()
	if err == io.EOF {
		return newCatalog(nil), nil
	}
	if err != nil {
		return nil, core.NewDomainError(core.ModuleCatalog, core.ErrorCodeInitFailed,
			fmt.Sprintf("catalog: read header: %v", err))
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}

	var missing []string
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, core.NewDomainError(core.ModuleCatalog, core.ErrorCodeInitFailed,
			fmt.Sprintf("catalog: missing required columns: %s", strings.Join(missing, ", ")))
	}

	var games []core.Game
	seen := make(map[string]struct{})

	for {
		if cfg.maxRows > 0 && len(games) >= cfg.maxRows {
			break
		}
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, core.NewDomainError(core.ModuleCatalog, core.ErrorCodeInitFailed,
				fmt.Sprintf("catalog: read row %d: %v", len(games)+1, err))
		}

		field := func(name string) string {
			idx := cols[name]
			if idx >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[idx])
		}

		id := field("URL")
		if id == "" {
			continue
		}
		// first-wins 去重
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}

		games = append(games, core.Game{
			ID:           id,
			Name:         field("Name"),
			IconURL:      field("Icon URL"),
			AvgRating:    parseFloat(field("Average User Rating")),
			RatingCount:  parseInt(field("User Rating Count")),
			Description:  field("Description"),
			Developer:    field("Developer"),
			PrimaryGenre: field("Primary Genre"),
			Genres:       field("Genres"),
		})
	}

	return newCatalog(games), nil
}

// LoadFile 从文件路径加载目录。
func LoadFile(path string, opts ...Option) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, core.NewDomainError(core.ModuleCatalog, core.ErrorCodeInitFailed,
			fmt.Sprintf("catalog: open %s: %v", path, err))
	}
	defer f.Close()
	return Load(f, opts...)
}

func newCatalog(games []core.Game) *Catalog {
	c := &Catalog{
		games: games,
		index: make(map[string]int, len(games)),
	}
	for i := range games {
		c.index[games[i].ID] = i
	}

	// 热门序一次算好：评分人数降序、均分降序、目录序升序（确定性平局）
	c.popular = make([]int, len(games))
	for i := range c.popular {
		c.popular[i] = i
	}
	sort.SliceStable(c.popular, func(a, b int) bool {
		ga, gb := &c.games[c.popular[a]], &c.games[c.popular[b]]
		if ga.RatingCount != gb.RatingCount {
			return ga.RatingCount > gb.RatingCount
		}
		if ga.AvgRating != gb.AvgRating {
			return ga.AvgRating > gb.AvgRating
		}
		return c.popular[a] < c.popular[b]
	})

	return c
}

// Len 返回目录中的物品数。
func (c *Catalog) Len() int { return len(c.games) }

// Index 返回物品的稠密下标。
func (c *Catalog) Index(id string) (int, bool) {
	idx, ok := c.index[id]
	return idx, ok
}

// ID 返回下标对应的物品 id。
func (c *Catalog) ID(idx int) (string, bool) {
	if idx < 0 || idx >= len(c.games) {
		return "", false
	}
	return c.games[idx].ID, true
}

// Game 按 id 查找记录；未知 id 返回 (nil, false)。
func (c *Catalog) Game(id string) (*core.Game, bool) {
	idx, ok := c.index[id]
	if !ok {
		return nil, false
	}
	return &c.games[idx], true
}

// At 按稠密下标取记录；越界返回 nil。
func (c *Catalog) At(idx int) *core.Game {
	if idx < 0 || idx >= len(c.games) {
		return nil
	}
	return &c.games[idx]
}

// Games 返回全部记录（调用方视为只读）。
func (c *Catalog) Games() []core.Game { return c.games }

// PopularOrder 返回按热度排序的下标序列（副本，调用方可自由截断）。
func (c *Catalog) PopularOrder() []int {
	out := make([]int, len(c.popular))
	copy(out, c.popular)
	return out
}

// ItemAt 将下标处的记录包装为链路 Item，目录元信息放入 Meta
// 供表达式过滤（item.meta.rating_count 等）与解释使用。
func (c *Catalog) ItemAt(idx int) *core.Item {
	g := c.At(idx)
	if g == nil {
		return nil
	}
	it := core.NewItem(g.ID)
	it.Meta["name"] = g.Name
	it.Meta["avg_rating"] = g.AvgRating
	it.Meta["rating_count"] = float64(g.RatingCount)
	it.Meta["primary_genre"] = g.PrimaryGenre
	it.Meta["developer"] = g.Developer
	return it
}

func parseFloat(s string) float64 {
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

func parseInt(s string) int64 {
	if s == "" {
		return 0
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		// 部分数据源把计数导出成 "1234.0"
		if f, ferr := strconv.ParseFloat(s, 64); ferr == nil {
			return int64(f)
		}
		return 0
	}
	return n
}
