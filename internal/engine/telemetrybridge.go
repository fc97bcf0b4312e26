package engine

import "fmt"

// TelemetryRow is one accepted outer-iteration's snapshot.
type TelemetryRow struct {
	Time    float64
	Ints    []int64
	Floats  []float64
}

// TelemetryBridge is an append-only ring buffer of fixed field set,
// snapshotting q, v, a, uCommand, energy and sensor readings after every
// accepted outer iteration, per spec.md §4.7. Field names are registered
// exactly once, at engine-init time; Append rejects a row whose shape
// differs from that registration with an ErrBadInput error.
type TelemetryBridge struct {
	floatNames []string
	intNames   []string
	capacity   int
	rows       []TelemetryRow
}

func NewTelemetryBridge(capacity int) *TelemetryBridge {
	return &TelemetryBridge{capacity: capacity}
}

// RegisterFields sets the field-name schema once; calling it twice with a
// different schema is a BadInput error (duplicate/mismatched telemetry
// field names per spec.md §7).
func (b *TelemetryBridge) RegisterFields(intNames, floatNames []string) error {
	if b.floatNames != nil || b.intNames != nil {
		if !sameStrings(b.intNames, intNames) || !sameStrings(b.floatNames, floatNames) {
			return errBadInput("telemetry field names already registered with a different schema")
		}
		return nil
	}
	b.intNames = append([]string(nil), intNames...)
	b.floatNames = append([]string(nil), floatNames...)
	return nil
}

func sameStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Append adds a snapshot row, dropping the oldest row if at capacity.
func (b *TelemetryBridge) Append(t float64, ints []int64, floats []float64) error {
	if len(ints) != len(b.intNames) || len(floats) != len(b.floatNames) {
		return fmt.Errorf("%w: telemetry row shape %d/%d, want %d/%d", ErrBadInput, len(ints), len(floats), len(b.intNames), len(b.floatNames))
	}
	row := TelemetryRow{Time: t, Ints: append([]int64(nil), ints...), Floats: append([]float64(nil), floats...)}
	if b.capacity > 0 && len(b.rows) >= b.capacity {
		b.rows = b.rows[1:]
	}
	b.rows = append(b.rows, row)
	return nil
}

func (b *TelemetryBridge) Reset() { b.rows = nil }

func (b *TelemetryBridge) Len() int { return len(b.rows) }

// Header returns the tabular column header: time, then integer columns,
// then float columns, matching spec.md §6's log surface contract.
func (b *TelemetryBridge) Header() []string {
	header := make([]string, 0, 1+len(b.intNames)+len(b.floatNames))
	header = append(header, "time")
	header = append(header, b.intNames...)
	header = append(header, b.floatNames...)
	return header
}

// Table returns every row as [time, ints..., floats...] rows of float64
// (the tabular log surface does not distinguish int/float once rendered).
func (b *TelemetryBridge) Table() [][]float64 {
	out := make([][]float64, len(b.rows))
	for i, row := range b.rows {
		r := make([]float64, 0, 1+len(row.Ints)+len(row.Floats))
		r = append(r, row.Time)
		for _, v := range row.Ints {
			r = append(r, float64(v))
		}
		r = append(r, row.Floats...)
		out[i] = r
	}
	return out
}

func (b *TelemetryBridge) Rows() []TelemetryRow { return b.rows }
