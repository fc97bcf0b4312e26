package telemetrylog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/dynsim/internal/engine"
)

func TestWriteParseBinaryRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.bin")

	header := []string{"time", "iter", "q0", "v0"}
	rows := []engine.TelemetryRow{
		{Time: 0.0, Ints: []int64{0}, Floats: []float64{0.1, 0.0}},
		{Time: 0.01, Ints: []int64{1}, Floats: []float64{0.1001, 0.02}},
		{Time: 0.02, Ints: []int64{2}, Floats: []float64{0.1005, 0.04}},
	}

	if err := WriteBinary(path, header, rows); err != nil {
		t.Fatalf("WriteBinary: %v", err)
	}

	intNames, floatNames, timestamps, intData, floatData, err := ParseBinary(path)
	if err != nil {
		t.Fatalf("ParseBinary: %v", err)
	}

	if len(intNames) != 1 || intNames[0] != "iter" {
		t.Errorf("intNames mismatch: %v", intNames)
	}
	if len(floatNames) != 2 || floatNames[0] != "q0" || floatNames[1] != "v0" {
		t.Errorf("floatNames mismatch: %v", floatNames)
	}
	if len(timestamps) != len(rows) {
		t.Fatalf("expected %d rows, got %d", len(rows), len(timestamps))
	}
	for i, row := range rows {
		if timestamps[i] != row.Time {
			t.Errorf("row %d: time mismatch %f vs %f", i, timestamps[i], row.Time)
		}
		if intData[i][0] != row.Ints[0] {
			t.Errorf("row %d: int mismatch", i)
		}
		for j := range row.Floats {
			if floatData[i][j] != row.Floats[j] {
				t.Errorf("row %d float %d mismatch: %f vs %f", i, j, floatData[i][j], row.Floats[j])
			}
		}
	}
}

func TestParseBinaryBadMagic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.bin")
	if err := os.WriteFile(path, []byte("nope"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, _, _, _, _, err := ParseBinary(path); err == nil {
		t.Error("expected error for bad magic")
	}
}
