package storage

import (
	"path/filepath"
	"testing"
)

func TestSaveAndList(t *testing.T) {
	dir := t.TempDir()
	s := New(filepath.Join(dir, "runs"))
	if err := s.Init(); err != nil {
		t.Fatal(err)
	}

	header := []string{"time", "q0", "v0"}
	table := [][]float64{
		{0.0, 0.5, 0.0},
		{0.01, 0.5001, -0.02},
	}

	runID, err := s.Save("pendulum", "none", 10.0, 1, header, table, map[string]float64{"max_energy": 5.0})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	runs, err := s.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}
	if runs[0].ID != runID {
		t.Errorf("run ID mismatch: %s vs %s", runs[0].ID, runID)
	}

	meta, err := s.Load(runID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if meta.Model != "pendulum" {
		t.Errorf("expected model pendulum, got %s", meta.Model)
	}

	states, times, err := s.LoadStates(runID)
	if err != nil {
		t.Fatalf("LoadStates: %v", err)
	}
	if len(states) != 2 || len(times) != 2 {
		t.Fatalf("expected 2 rows, got %d states, %d times", len(states), len(times))
	}
	if times[1] != 0.01 {
		t.Errorf("expected time 0.01, got %f", times[1])
	}
}

func TestListEmptyDir(t *testing.T) {
	dir := t.TempDir()
	s := New(filepath.Join(dir, "does-not-exist"))
	runs, err := s.List()
	if err != nil {
		t.Fatalf("List on missing dir should not error: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected no runs, got %d", len(runs))
	}
}
