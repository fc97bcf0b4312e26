// Package telemetrylog implements a compact binary encoding for
// engine.TelemetryRow sequences, grounded on the schema-header-plus-
// fixed-width-records layout used by the retrieval pack's FTDC writer
// (viamrobotics-rdk/ftdc/custom_format.go): a JSON schema record up front
// names the columns, then every row is written as a fixed sequence of
// binary.Write calls, so a reader never needs to re-parse text.
//
// The format, in order:
//
//	magic      [4]byte  "DSL1"
//	schemaLen  uint32 BigEndian
//	schema     schemaLen bytes of JSON: {"ints":[...],"floats":[...]}
//	rows       repeated until EOF:
//	  time     float64 BigEndian
//	  ints     len(schema.ints) * int64 BigEndian
//	  floats   len(schema.floats) * float64 BigEndian
package telemetrylog

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/san-kum/dynsim/internal/engine"
)

var magic = [4]byte{'D', 'S', 'L', '1'}

type schema struct {
	Ints   []string `json:"ints"`
	Floats []string `json:"floats"`
}

// WriteBinary encodes rows to path in the format documented above. header
// is TelemetryBridge.Header()'s combined ["time", ...intNames, ...floatNames]
// list; the int/float split point is read off the first row's Ints length,
// since every row shares one schema. This is the signature
// EngineFacade.WriteLog calls as its writeBinary argument.
func WriteBinary(path string, header []string, rows []engine.TelemetryRow) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	nInts := 0
	if len(rows) > 0 {
		nInts = len(rows[0].Ints)
	}
	cols := header[1:] // drop "time"
	if nInts > len(cols) {
		return fmt.Errorf("telemetrylog: header has %d non-time columns, fewer than %d int columns", len(cols), nInts)
	}
	intNames := cols[:nInts]
	floatNames := cols[nInts:]

	w := bufio.NewWriter(f)

	if _, err := w.Write(magic[:]); err != nil {
		return err
	}

	schemaBytes, err := json.Marshal(schema{Ints: intNames, Floats: floatNames})
	if err != nil {
		return err
	}
	if err := binary.Write(w, binary.BigEndian, uint32(len(schemaBytes))); err != nil {
		return err
	}
	if _, err := w.Write(schemaBytes); err != nil {
		return err
	}

	for _, row := range rows {
		if len(row.Ints) != len(intNames) || len(row.Floats) != len(floatNames) {
			return fmt.Errorf("telemetrylog: row shape mismatch: got %d ints/%d floats, schema wants %d/%d",
				len(row.Ints), len(row.Floats), len(intNames), len(floatNames))
		}
		if err := binary.Write(w, binary.BigEndian, row.Time); err != nil {
			return err
		}
		for _, v := range row.Ints {
			if err := binary.Write(w, binary.BigEndian, v); err != nil {
				return err
			}
		}
		for _, v := range row.Floats {
			if err := binary.Write(w, binary.BigEndian, v); err != nil {
				return err
			}
		}
	}

	return w.Flush()
}

// ParseBinary decodes a file written by WriteBinary back into its schema
// and row columns.
func ParseBinary(path string) (intNames, floatNames []string, timestamps []float64, intData [][]int64, floatData [][]float64, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, nil, nil, nil, err
	}
	defer f.Close()

	r := bufio.NewReader(f)

	var got [4]byte
	if _, err := io.ReadFull(r, got[:]); err != nil {
		return nil, nil, nil, nil, nil, err
	}
	if got != magic {
		return nil, nil, nil, nil, nil, fmt.Errorf("telemetrylog: bad magic %q", got)
	}

	var schemaLen uint32
	if err := binary.Read(r, binary.BigEndian, &schemaLen); err != nil {
		return nil, nil, nil, nil, nil, err
	}
	schemaBytes := make([]byte, schemaLen)
	if _, err := io.ReadFull(r, schemaBytes); err != nil {
		return nil, nil, nil, nil, nil, err
	}
	var sch schema
	if err := json.Unmarshal(schemaBytes, &sch); err != nil {
		return nil, nil, nil, nil, nil, err
	}

	intData = make([][]int64, 0)
	floatData = make([][]float64, 0)
	timestamps = make([]float64, 0)

	for {
		var t float64
		if err := binary.Read(r, binary.BigEndian, &t); err != nil {
			if err == io.EOF {
				break
			}
			return nil, nil, nil, nil, nil, err
		}

		ints := make([]int64, len(sch.Ints))
		for i := range ints {
			if err := binary.Read(r, binary.BigEndian, &ints[i]); err != nil {
				return nil, nil, nil, nil, nil, err
			}
		}
		floats := make([]float64, len(sch.Floats))
		for i := range floats {
			if err := binary.Read(r, binary.BigEndian, &floats[i]); err != nil {
				return nil, nil, nil, nil, nil, err
			}
		}

		timestamps = append(timestamps, t)
		intData = append(intData, ints)
		floatData = append(floatData, floats)
	}

	return sch.Ints, sch.Floats, timestamps, intData, floatData, nil
}
