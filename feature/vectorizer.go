// Package feature 把物品的文本描述转成共享词表上的稀疏 TF-IDF 向量。
//
// 约束与权衡：
//   - 词表上限（默认 2000）+ 仅 unigram + 停用词剔除：用可预期的召回损失换内存上界
//   - 长描述按固定字符预算截断（默认 500），限制单物品开销
//   - 对固定输入与固定上限，输出完全确定
//   - 全目录无可用文本时产出全零向量，不报错
package feature

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/rushteam/gamerec/core"
)

const (
	// DefaultMaxFeatures 是默认词表上限。
	DefaultMaxFeatures = 2000

	// DefaultMaxTextLen 是自由文本字段的默认字符预算。
	DefaultMaxTextLen = 500
)

// tokenRegex 只编译一次，用于切词。
var tokenRegex = regexp.MustCompile(`[^a-z0-9_-]+`)

// Vector 是稀疏特征向量：非零项按词表下标升序存放。
type Vector struct {
	Indices []int
	Values  []float64
}

// IsZero 判断是否为全零向量。
func (v Vector) IsZero() bool { return len(v.Indices) == 0 }

// Norm 返回 L2 范数。
func (v Vector) Norm() float64 {
	var sum float64
	for _, x := range v.Values {
		sum += x * x
	}
	return math.Sqrt(sum)
}

// Dot 计算两个稀疏向量的点积（双指针归并）。
func Dot(a, b Vector) float64 {
	var dot float64
	i, j := 0, 0
	for i < len(a.Indices) && j < len(b.Indices) {
		switch {
		case a.Indices[i] == b.Indices[j]:
			dot += a.Values[i] * b.Values[j]
			i++
			j++
		case a.Indices[i] < b.Indices[j]:
			i++
		default:
			j++
		}
	}
	return dot
}

// Matrix 是按目录序排列的物品特征矩阵。
type Matrix struct {
	Rows []Vector // 行序 = 目录下标序
	Dim  int      // 词表大小（≤ MaxFeatures）

	vocab map[string]int
}

// VocabSize 返回实际词表大小。
func (m *Matrix) VocabSize() int { return m.Dim }

// Vectorizer 是 TF-IDF 特征抽取器。零值可用（使用默认上限）。
type Vectorizer struct {
	// MaxFeatures 词表上限；<=0 时用 DefaultMaxFeatures
	MaxFeatures int

	// MaxTextLen 自由文本字段的字符预算；<=0 时用 DefaultMaxTextLen
	MaxTextLen int
}

// Fit 对去重后的目录物品集建词表并产出稀疏向量，行序与输入一致。
// 缺失字段按空串处理；没有任何可用文本时每行都是零向量。
func (v *Vectorizer) Fit(games []core.Game) *Matrix {
	maxFeatures := v.MaxFeatures
	if maxFeatures <= 0 {
		maxFeatures = DefaultMaxFeatures
	}
	maxTextLen := v.MaxTextLen
	if maxTextLen <= 0 {
		maxTextLen = DefaultMaxTextLen
	}

	// 切词 + 文档频率统计
	docs := make([][]string, len(games))
	df := make(map[string]int)
	for i := range games {
		tokens := tokenize(combinedText(&games[i], maxTextLen))
		docs[i] = tokens

		seen := make(map[string]struct{}, len(tokens))
		for _, tok := range tokens {
			if _, ok := seen[tok]; !ok {
				seen[tok] = struct{}{}
				df[tok]++
			}
		}
	}

	vocab := buildVocab(df, maxFeatures)
	numDocs := len(games)

	m := &Matrix{
		Rows:  make([]Vector, len(games)),
		Dim:   len(vocab),
		vocab: vocab,
	}

	for i, tokens := range docs {
		m.Rows[i] = vectorizeDoc(tokens, vocab, df, numDocs)
	}
	return m
}

// combinedText 拼接描述字段：主类型 + 类型 + 截断后的描述 + 开发商。
func combinedText(g *core.Game, maxTextLen int) string {
	return g.PrimaryGenre + " " + g.Genres + " " + truncate(g.Description, maxTextLen) + " " + g.Developer
}

// truncate 按 rune 截断到固定字符预算。
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// tokenize 小写化、按非字母数字切分、剔除停用词与单字符 token。
func tokenize(text string) []string {
	raw := tokenRegex.Split(strings.ToLower(text), -1)
	out := make([]string, 0, len(raw))
	for _, tok := range raw {
		if len(tok) < 2 {
			continue
		}
		if IsStopWord(tok) {
			continue
		}
		out = append(out, tok)
	}
	return out
}

// buildVocab 选取文档频率最高的 maxFeatures 个词；平局按词典序，保证确定性。
// 词表下标按词典序分配，与选取顺序无关。
func buildVocab(df map[string]int, maxFeatures int) map[string]int {
	terms := make([]string, 0, len(df))
	for t := range df {
		terms = append(terms, t)
	}
	sort.Slice(terms, func(i, j int) bool {
		if df[terms[i]] != df[terms[j]] {
			return df[terms[i]] > df[terms[j]]
		}
		return terms[i] < terms[j]
	})
	if len(terms) > maxFeatures {
		terms = terms[:maxFeatures]
	}
	sort.Strings(terms)

	vocab := make(map[string]int, len(terms))
	for i, t := range terms {
		vocab[t] = i
	}
	return vocab
}

// vectorizeDoc 计算单文档的 TF-IDF 稀疏向量。
// TF 按词表内 token 数归一；IDF 用平滑对数：log(1 + N/(1+df))。
func vectorizeDoc(tokens []string, vocab map[string]int, df map[string]int, numDocs int) Vector {
	counts := make(map[int]float64)
	total := 0
	termOf := make(map[int]string, len(tokens))
	for _, tok := range tokens {
		idx, ok := vocab[tok]
		if !ok {
			continue
		}
		counts[idx]++
		termOf[idx] = tok
		total++
	}
	if total == 0 {
		return Vector{}
	}

	indices := make([]int, 0, len(counts))
	for idx := range counts {
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	values := make([]float64, len(indices))
	for i, idx := range indices {
		tf := counts[idx] / float64(total)
		idf := math.Log(1 + float64(numDocs)/(1+float64(df[termOf[idx]])))
		values[i] = tf * idf
	}
	return Vector{Indices: indices, Values: values}
}
