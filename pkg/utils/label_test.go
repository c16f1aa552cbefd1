package utils

import "testing"

func TestMergeLabel(t *testing.T) {
	tests := []struct {
		name       string
		existing   Label
		incoming   Label
		wantValue  string
		wantSource string
	}{
		{
			name:       "both set accumulate",
			existing:   Label{Value: "content", Source: "recall"},
			incoming:   Label{Value: "popular", Source: "hybrid"},
			wantValue:  "content|popular",
			wantSource: "recall,hybrid",
		},
		{
			name:       "empty existing yields incoming",
			existing:   Label{},
			incoming:   Label{Value: "cf", Source: "recall"},
			wantValue:  "cf",
			wantSource: "recall",
		},
		{
			name:       "empty incoming keeps existing",
			existing:   Label{Value: "cf", Source: "recall"},
			incoming:   Label{},
			wantValue:  "cf",
			wantSource: "recall",
		},
		{
			name:       "missing source falls through",
			existing:   Label{Value: "a"},
			incoming:   Label{Value: "b", Source: "s"},
			wantValue:  "a|b",
			wantSource: "s",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MergeLabel(tt.existing, tt.incoming)
			if got.Value != tt.wantValue || got.Source != tt.wantSource {
				t.Errorf("MergeLabel = %+v, want %s / %s", got, tt.wantValue, tt.wantSource)
			}
		})
	}
}
