package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/rushteam/gamerec/core"
)

type stubNode struct {
	name string
	fn   func(items []*core.Item) ([]*core.Item, error)
}

func (n *stubNode) Name() string { return n.name }
func (n *stubNode) Kind() Kind   { return KindRecall }
func (n *stubNode) Process(_ context.Context, _ *core.RecommendContext, items []*core.Item) ([]*core.Item, error) {
	return n.fn(items)
}

func TestPipeline_Run(t *testing.T) {
	p := &Pipeline{Nodes: []Node{
		&stubNode{name: "produce", fn: func([]*core.Item) ([]*core.Item, error) {
			return []*core.Item{core.NewItem("a"), core.NewItem("b")}, nil
		}},
		&stubNode{name: "truncate", fn: func(items []*core.Item) ([]*core.Item, error) {
			return items[:1], nil
		}},
	}}

	out, err := p.Run(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(out) != 1 || out[0].ID != "a" {
		t.Errorf("unexpected output: %v", out)
	}
}

func TestPipeline_RunPropagatesError(t *testing.T) {
	wantErr := errors.New("boom")
	p := &Pipeline{Nodes: []Node{
		&stubNode{name: "fail", fn: func([]*core.Item) ([]*core.Item, error) {
			return nil, wantErr
		}},
	}}

	if _, err := p.Run(context.Background(), nil, nil); !errors.Is(err, wantErr) {
		t.Errorf("expected boom, got %v", err)
	}
}

func TestParseYAML_Invalid(t *testing.T) {
	if _, err := ParseYAML([]byte("pipeline: [not a mapping")); err == nil {
		t.Error("broken yaml should fail")
	}
}

func TestNodeFactory_UnknownType(t *testing.T) {
	f := NewNodeFactory()
	if _, err := f.Build("ghost", nil); err == nil {
		t.Error("unknown node type should fail")
	}
}
