package recall

import (
	"context"
	"math"
	"strings"
	"testing"

	"github.com/rushteam/gamerec/catalog"
	"github.com/rushteam/gamerec/core"
)

const testHeader = "URL,Name,Icon URL,Average User Rating,User Rating Count,Description,Developer,Primary Genre,Genres"

func testCatalog(t *testing.T, rows ...string) *catalog.Catalog {
	t.Helper()
	csvText := testHeader + "\n" + strings.Join(rows, "\n") + "\n"
	cat, err := catalog.Load(strings.NewReader(csvText))
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	return cat
}

// contentTestCatalog: A and B share an identical descriptor, C is unrelated.
func contentTestCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	return testCatalog(t,
		"A,Alpha,i,4.0,100,space adventure shooter,,,",
		"B,Beta,i,3.0,50,space adventure shooter,,,",
		"C,Gamma,i,5.0,10,farm puzzle relax,,,",
	)
}

func buildContent(t *testing.T, cat *catalog.Catalog, opts ...ContentOption) *ContentModel {
	t.Helper()
	m, err := BuildContentModel(context.Background(), cat, nil, opts...)
	if err != nil {
		t.Fatalf("build content model: %v", err)
	}
	return m
}

func TestContentModel_SelfSimilarity(t *testing.T) {
	m := buildContent(t, contentTestCatalog(t))
	for i := 0; i < m.N(); i++ {
		if got := m.Similarity(i, i); math.Abs(got-1.0) > 1e-9 {
			t.Errorf("Similarity(%d,%d) = %v, want 1", i, i, got)
		}
	}
}

func TestContentModel_Symmetric(t *testing.T) {
	m := buildContent(t, contentTestCatalog(t))
	for i := 0; i < m.N(); i++ {
		for j := 0; j < m.N(); j++ {
			a, b := m.Similarity(i, j), m.Similarity(j, i)
			if math.Abs(a-b) > 1e-9 {
				t.Errorf("Similarity(%d,%d)=%v != Similarity(%d,%d)=%v", i, j, a, j, i, b)
			}
		}
	}
}

func TestContentModel_Range(t *testing.T) {
	m := buildContent(t, contentTestCatalog(t))
	for i := 0; i < m.N(); i++ {
		for j := 0; j < m.N(); j++ {
			s := m.Similarity(i, j)
			if s < -1e-9 || s > 1+1e-9 {
				t.Errorf("Similarity(%d,%d) = %v out of [0,1]", i, j, s)
			}
		}
	}
}

func TestRecommendByItem(t *testing.T) {
	m := buildContent(t, contentTestCatalog(t))

	items := m.RecommendByItem("A", 10)
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	// B shares A's descriptor and must rank first with similarity ~1
	if items[0].ID != "B" {
		t.Errorf("first item = %s, want B", items[0].ID)
	}
	if math.Abs(items[0].Score-1.0) > 1e-6 {
		t.Errorf("identical descriptors should score ~1, got %v", items[0].Score)
	}
	for _, it := range items {
		if it.ID == "A" {
			t.Error("seed item must not appear in its own recommendations")
		}
		if lbl, ok := it.Labels["recall_source"]; !ok || lbl.Value != "content" {
			t.Errorf("missing recall_source label on %s", it.ID)
		}
	}
}

func TestRecommendByItem_Limits(t *testing.T) {
	m := buildContent(t, contentTestCatalog(t))

	if items := m.RecommendByItem("A", 1); len(items) != 1 {
		t.Errorf("n=1 should return 1 item, got %d", len(items))
	}
	if items := m.RecommendByItem("A", 0); items != nil {
		t.Errorf("n=0 should return nil, got %v", items)
	}
	if items := m.RecommendByItem("missing", 5); items != nil {
		t.Errorf("unknown seed should return nil, got %v", items)
	}
}

func TestContentModel_BatchSizeEquivalence(t *testing.T) {
	cat := contentTestCatalog(t)
	whole := buildContent(t, cat)
	batched := buildContent(t, cat, WithBatchSize(1))

	if whole.N() != batched.N() {
		t.Fatalf("sizes differ: %d vs %d", whole.N(), batched.N())
	}
	for i := 0; i < whole.N(); i++ {
		a, b := whole.SimilarityRow(i), batched.SimilarityRow(i)
		for j := range a {
			if math.Abs(a[j]-b[j]) > 1e-12 {
				t.Errorf("row %d col %d: %v vs %v", i, j, a[j], b[j])
			}
		}
	}
}

func TestContentModel_ZeroTextRow(t *testing.T) {
	cat := testCatalog(t,
		"A,Alpha,i,4.0,100,space adventure shooter,,,",
		"Z,Zero,i,1.0,1,,,,",
	)
	m := buildContent(t, cat)

	zi, _ := cat.Index("Z")
	row := m.SimilarityRow(zi)
	for j, v := range row {
		if v != 0 {
			t.Errorf("zero-text row should be all zeros, col %d = %v", j, v)
		}
	}
	// self similarity of an all-zero vector is defined as 0, not NaN
	if got := m.Similarity(zi, zi); got != 0 {
		t.Errorf("zero-vector self similarity = %v, want 0", got)
	}
}

func TestContentModel_EmptyCatalog(t *testing.T) {
	cat := testCatalog(t)
	m := buildContent(t, cat)
	if m.N() != 0 {
		t.Errorf("N = %d, want 0", m.N())
	}
	if items := m.RecommendByItem("A", 5); items != nil {
		t.Errorf("empty catalog should recommend nothing, got %v", items)
	}
}

func TestRecommendByProfile(t *testing.T) {
	m := buildContent(t, contentTestCatalog(t))

	items := m.RecommendByProfile([]core.Rating{{UserID: "u", ItemID: "A", Value: 5}}, 10)
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	for _, it := range items {
		if it.ID == "A" {
			t.Error("rated item must be excluded from profile recommendations")
		}
	}
	if items[0].ID != "B" {
		t.Errorf("B should rank above C, got %s first", items[0].ID)
	}
}

func TestRecommendByProfile_UnknownItemsOnly(t *testing.T) {
	m := buildContent(t, contentTestCatalog(t))
	items := m.RecommendByProfile([]core.Rating{{UserID: "u", ItemID: "nope", Value: 5}}, 10)
	if items != nil {
		t.Errorf("ratings on unknown items only should yield nil, got %v", items)
	}
}

func TestContentRecall_Node(t *testing.T) {
	m := buildContent(t, contentTestCatalog(t))
	node := &ContentRecall{Model: m, TopK: 1}

	items, err := node.Recall(context.Background(), &core.RecommendContext{SeedItemID: "A"})
	if err != nil {
		t.Fatalf("recall: %v", err)
	}
	if len(items) != 1 || items[0].ID != "B" {
		t.Errorf("unexpected recall result: %v", items)
	}

	// no seed means no candidates, not an error
	items, err = node.Recall(context.Background(), &core.RecommendContext{})
	if err != nil || items != nil {
		t.Errorf("seedless recall = %v, %v", items, err)
	}
}
