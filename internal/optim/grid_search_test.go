package optim

import (
	"context"
	"testing"
)

func TestGridSearchFindsMinimum(t *testing.T) {
	g := NewGridSearch([]string{"x", "y"}, [][]float64{{0, 1, 2}, {0, 1, 2}})

	run := func(params map[string]float64) (float64, error) {
		x, y := params["x"], params["y"]
		return (x-1)*(x-1) + (y-2)*(y-2), nil
	}

	best, score, err := g.Search(context.Background(), run)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if best["x"] != 1 || best["y"] != 2 {
		t.Errorf("expected x=1,y=2, got %v", best)
	}
	if score != 0 {
		t.Errorf("expected score 0, got %f", score)
	}
}

func TestGridSearchAllErrorsReturnsNilBest(t *testing.T) {
	g := NewGridSearch([]string{"x"}, [][]float64{{0, 1}})
	run := func(params map[string]float64) (float64, error) {
		return 0, context.Canceled
	}
	best, _, err := g.Search(context.Background(), run)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if best != nil {
		t.Errorf("expected nil best params, got %v", best)
	}
}
