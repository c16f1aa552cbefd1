package feature

import (
	"math"
	"reflect"
	"testing"

	"github.com/rushteam/gamerec/core"
)

func game(id, primaryGenre, genres, description, developer string) core.Game {
	return core.Game{
		ID:           id,
		PrimaryGenre: primaryGenre,
		Genres:       genres,
		Description:  description,
		Developer:    developer,
	}
}

func TestFit_Deterministic(t *testing.T) {
	games := []core.Game{
		game("a", "Games", "Games, Strategy", "classic chess puzzle strategy", "acme"),
		game("b", "Games", "Games, Arcade", "fast arcade shooter action", "orbit"),
		game("c", "Games", "Games, Strategy", "turn based strategy battles", "acme"),
	}

	v := &Vectorizer{}
	m1 := v.Fit(games)
	m2 := v.Fit(games)

	if m1.Dim != m2.Dim {
		t.Fatalf("vocab sizes differ: %d vs %d", m1.Dim, m2.Dim)
	}
	for i := range m1.Rows {
		if !reflect.DeepEqual(m1.Rows[i], m2.Rows[i]) {
			t.Errorf("row %d differs between identical fits", i)
		}
	}
}

func TestFit_ZeroText(t *testing.T) {
	games := []core.Game{
		game("a", "", "", "", ""),
		game("b", "Games", "Games", "playable chess game", "acme"),
	}

	m := (&Vectorizer{}).Fit(games)
	if !m.Rows[0].IsZero() {
		t.Error("empty text should produce a zero vector")
	}
	if m.Rows[1].IsZero() {
		t.Error("non-empty text should produce a non-zero vector")
	}
}

func TestFit_AllStopWords(t *testing.T) {
	games := []core.Game{
		game("a", "", "", "the and of a is", ""),
	}
	m := (&Vectorizer{}).Fit(games)
	if !m.Rows[0].IsZero() {
		t.Error("stop-word-only text should produce a zero vector")
	}
}

func TestFit_VocabCap(t *testing.T) {
	// "shared" appears in all docs (df=3); "alpha"/"bravo" df=1 each.
	// With cap 2 the survivors are shared (highest df) and alpha (df tie broken
	// by lexicographic term order).
	games := []core.Game{
		game("a", "", "", "shared alpha", ""),
		game("b", "", "", "shared bravo", ""),
		game("c", "", "", "shared", ""),
	}

	m := (&Vectorizer{MaxFeatures: 2}).Fit(games)
	if m.Dim != 2 {
		t.Fatalf("vocab size = %d, want 2", m.Dim)
	}
	// doc b only keeps "shared": bravo fell out of the vocab
	if len(m.Rows[1].Indices) != 1 {
		t.Errorf("row b should keep exactly one in-vocab term, got %d", len(m.Rows[1].Indices))
	}
	// doc a keeps both surviving terms
	if len(m.Rows[0].Indices) != 2 {
		t.Errorf("row a should keep two in-vocab terms, got %d", len(m.Rows[0].Indices))
	}
}

func TestFit_DescriptionTruncation(t *testing.T) {
	// budget of 5 chars cuts "alpha bravo" down to "alpha"
	games := []core.Game{
		game("a", "", "", "alpha bravo", ""),
	}
	m := (&Vectorizer{MaxTextLen: 5}).Fit(games)
	if m.Dim != 1 {
		t.Errorf("vocab size = %d, want 1 (bravo truncated away)", m.Dim)
	}
}

func TestDot(t *testing.T) {
	tests := []struct {
		name string
		a, b Vector
		want float64
	}{
		{
			name: "overlapping indices",
			a:    Vector{Indices: []int{0, 2, 5}, Values: []float64{1, 2, 3}},
			b:    Vector{Indices: []int{2, 5, 7}, Values: []float64{4, 5, 6}},
			want: 2*4 + 3*5,
		},
		{
			name: "disjoint",
			a:    Vector{Indices: []int{0, 1}, Values: []float64{1, 1}},
			b:    Vector{Indices: []int{2, 3}, Values: []float64{1, 1}},
			want: 0,
		},
		{
			name: "zero vector",
			a:    Vector{},
			b:    Vector{Indices: []int{0}, Values: []float64{1}},
			want: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Dot(tt.a, tt.b); got != tt.want {
				t.Errorf("Dot = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNorm(t *testing.T) {
	v := Vector{Indices: []int{0, 1}, Values: []float64{3, 4}}
	if got := v.Norm(); math.Abs(got-5) > 1e-12 {
		t.Errorf("Norm = %v, want 5", got)
	}
	if got := (Vector{}).Norm(); got != 0 {
		t.Errorf("zero vector norm = %v", got)
	}
}

func TestFit_IndicesSorted(t *testing.T) {
	games := []core.Game{
		game("a", "Games", "Strategy, Board", "deep tactical chess variants with puzzles", "acme"),
	}
	m := (&Vectorizer{}).Fit(games)
	row := m.Rows[0]
	for i := 1; i < len(row.Indices); i++ {
		if row.Indices[i-1] >= row.Indices[i] {
			t.Fatalf("indices not strictly ascending: %v", row.Indices)
		}
	}
}
