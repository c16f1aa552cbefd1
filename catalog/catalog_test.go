package catalog

import (
	"reflect"
	"strings"
	"testing"

	"github.com/rushteam/gamerec/core"
)

const testHeader = "URL,Name,Icon URL,Average User Rating,User Rating Count,Description,Developer,Primary Genre,Genres"

func mustLoad(t *testing.T, csvText string, opts ...Option) *Catalog {
	t.Helper()
	cat, err := Load(strings.NewReader(csvText), opts...)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return cat
}

func TestLoad_Basic(t *testing.T) {
	csvText := testHeader + "\n" +
		"g1,Chess Master,http://icon/1,4.5,1200,Classic chess game,Acme,Games,\"Games, Board\"\n" +
		"g2,Space Run,http://icon/2,3.8,300,Endless runner in space,Orbit,Games,\"Games, Arcade\"\n"

	cat := mustLoad(t, csvText)
	if cat.Len() != 2 {
		t.Fatalf("expected 2 games, got %d", cat.Len())
	}

	g, ok := cat.Game("g1")
	if !ok {
		t.Fatal("g1 not found")
	}
	if g.Name != "Chess Master" {
		t.Errorf("name = %q", g.Name)
	}
	if g.AvgRating != 4.5 {
		t.Errorf("avg rating = %v", g.AvgRating)
	}
	if g.RatingCount != 1200 {
		t.Errorf("rating count = %v", g.RatingCount)
	}
	if g.Genres != "Games, Board" {
		t.Errorf("genres = %q", g.Genres)
	}

	// id <-> index roundtrip
	idx, ok := cat.Index("g2")
	if !ok {
		t.Fatal("g2 index not found")
	}
	id, ok := cat.ID(idx)
	if !ok || id != "g2" {
		t.Errorf("ID(%d) = %q, %v", idx, id, ok)
	}
}

func TestLoad_MissingColumns(t *testing.T) {
	csvText := "URL,Name,Icon URL\n" + "g1,Chess,http://icon/1\n"

	_, err := Load(strings.NewReader(csvText))
	if err == nil {
		t.Fatal("expected error for missing columns")
	}
	if !core.IsInitFailed(err) {
		t.Errorf("expected INIT_FAILED, got %v", err)
	}
	if !strings.Contains(err.Error(), "Description") {
		t.Errorf("error should name the missing column: %v", err)
	}
}

func TestLoad_DedupFirstWins(t *testing.T) {
	csvText := testHeader + "\n" +
		"g1,First,i,4.0,100,d,dev,Games,Games\n" +
		"g1,Second,i,2.0,50,d,dev,Games,Games\n"

	cat := mustLoad(t, csvText)
	if cat.Len() != 1 {
		t.Fatalf("expected 1 game after dedup, got %d", cat.Len())
	}
	g, _ := cat.Game("g1")
	if g.Name != "First" {
		t.Errorf("first occurrence should win, got %q", g.Name)
	}
}

func TestLoad_MaxRows(t *testing.T) {
	csvText := testHeader + "\n" +
		"g1,A,i,4.0,1,d,dev,Games,Games\n" +
		"g2,B,i,4.0,2,d,dev,Games,Games\n" +
		"g3,C,i,4.0,3,d,dev,Games,Games\n"

	cat := mustLoad(t, csvText, WithMaxRows(2))
	if cat.Len() != 2 {
		t.Fatalf("expected 2 games with max rows 2, got %d", cat.Len())
	}
	if _, ok := cat.Game("g3"); ok {
		t.Error("g3 should not be loaded")
	}
}

func TestLoad_Empty(t *testing.T) {
	tests := []struct {
		name    string
		csvText string
	}{
		{"no data at all", ""},
		{"header only", testHeader + "\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cat := mustLoad(t, tt.csvText)
			if cat.Len() != 0 {
				t.Errorf("expected empty catalog, got %d games", cat.Len())
			}
			if order := cat.PopularOrder(); len(order) != 0 {
				t.Errorf("expected empty popular order, got %v", order)
			}
		})
	}
}

func TestLoad_SkipsBlankID(t *testing.T) {
	csvText := testHeader + "\n" +
		",NoURL,i,4.0,100,d,dev,Games,Games\n" +
		"g1,A,i,4.0,1,d,dev,Games,Games\n"

	cat := mustLoad(t, csvText)
	if cat.Len() != 1 {
		t.Fatalf("expected 1 game, got %d", cat.Len())
	}
}

func TestLoad_DirtyNumbers(t *testing.T) {
	// some exports write counts as "1234.0"; unparseable values degrade to 0
	csvText := testHeader + "\n" +
		"g1,A,i,4.0,1234.0,d,dev,Games,Games\n" +
		"g2,B,i,not-a-number,abc,d,dev,Games,Games\n"

	cat := mustLoad(t, csvText)
	g1, _ := cat.Game("g1")
	if g1.RatingCount != 1234 {
		t.Errorf("float count should parse, got %d", g1.RatingCount)
	}
	g2, _ := cat.Game("g2")
	if g2.AvgRating != 0 || g2.RatingCount != 0 {
		t.Errorf("dirty values should degrade to 0, got %v / %d", g2.AvgRating, g2.RatingCount)
	}
}

func TestLoad_Idempotent(t *testing.T) {
	csvText := testHeader + "\n" +
		"g2,B,i,2.0,500,d,dev,Games,Games\n" +
		"g1,A,i,3.0,100,d,dev,Games,Games\n" +
		"g1,A-dup,i,1.0,1,d,dev,Games,Games\n" +
		"g3,C,i,4.5,100,d,dev,Games,Games\n"

	first := mustLoad(t, csvText)
	second := mustLoad(t, csvText)

	if !reflect.DeepEqual(first.Games(), second.Games()) {
		t.Error("loading the same bytes twice should yield identical records")
	}
	if !reflect.DeepEqual(first.PopularOrder(), second.PopularOrder()) {
		t.Error("popular order should be identical across loads")
	}
	for _, g := range first.Games() {
		i1, ok1 := first.Index(g.ID)
		i2, ok2 := second.Index(g.ID)
		if !ok1 || !ok2 || i1 != i2 {
			t.Errorf("index mismatch for %s: %d/%v vs %d/%v", g.ID, i1, ok1, i2, ok2)
		}
	}
}

func TestPopularOrder(t *testing.T) {
	// g2 has the most ratings; g1 and g3 tie on count, g3 wins on avg;
	// g4 ties g1 on both and keeps catalog order
	csvText := testHeader + "\n" +
		"g1,A,i,3.0,100,d,dev,Games,Games\n" +
		"g2,B,i,2.0,500,d,dev,Games,Games\n" +
		"g3,C,i,4.5,100,d,dev,Games,Games\n" +
		"g4,D,i,3.0,100,d,dev,Games,Games\n"

	cat := mustLoad(t, csvText)
	order := cat.PopularOrder()

	want := []string{"g2", "g3", "g1", "g4"}
	for i, idx := range order {
		id, _ := cat.ID(idx)
		if id != want[i] {
			t.Errorf("popular[%d] = %s, want %s", i, id, want[i])
		}
	}
}

func TestItemAt_Meta(t *testing.T) {
	csvText := testHeader + "\n" +
		"g1,Chess,i,4.5,1200,d,Acme,Games,Games\n"

	cat := mustLoad(t, csvText)
	it := cat.ItemAt(0)
	if it == nil {
		t.Fatal("ItemAt(0) = nil")
	}
	if it.Meta["rating_count"] != float64(1200) {
		t.Errorf("rating_count meta = %v", it.Meta["rating_count"])
	}
	if it.Meta["avg_rating"] != 4.5 {
		t.Errorf("avg_rating meta = %v", it.Meta["avg_rating"])
	}
	if cat.ItemAt(99) != nil {
		t.Error("out of range index should yield nil")
	}
}
