package export

import "testing"

func TestTrajectoryToSVG(t *testing.T) {
	points := []Point{{0, 0}, {1, 1}, {2, 0}}
	svg := TrajectoryToSVG(points, 200, 100, "#00ff00")
	if svg == "" {
		t.Fatal("expected non-empty svg")
	}
	if !contains(svg, "<svg") || !contains(svg, "</svg>") {
		t.Error("missing svg tags")
	}
}

func TestTrajectoryToSVGTooFewPoints(t *testing.T) {
	if svg := TrajectoryToSVG([]Point{{0, 0}}, 100, 100, "#fff"); svg != "" {
		t.Error("expected empty string for < 2 points")
	}
}

func TestTableToSVG(t *testing.T) {
	table := [][]float64{
		{0.0, 0.5, 0.0},
		{0.1, 0.49, 0.1},
		{0.2, 0.45, 0.2},
	}
	svg := TableToSVG(table, []int{0, 1}, []string{"q0", "v0"}, 300, 150)
	if svg == "" {
		t.Fatal("expected non-empty svg")
	}
	if !contains(svg, "q0") || !contains(svg, "v0") {
		t.Error("expected legend labels in output")
	}
}

func contains(s, substr string) bool {
	return len(s) >= len(substr) && indexOf(s, substr) >= 0
}

func indexOf(s, substr string) int {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return i
		}
	}
	return -1
}
