package domain

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
)

//go:embed reference.json
var defaultReferenceJSON []byte

// ReferenceEntry describes one supported pollutant and the concentration that
// corresponds to a sub-index of 100.
type ReferenceEntry struct {
	Code        string
	DisplayName string
	FullName    string
	Unit        string
	Reference   float64
}

// ReferenceTable maps canonical pollutant codes to their reference entries.
// It is built once and never mutated.
type ReferenceTable struct {
	entries map[string]ReferenceEntry
}

// referenceFile is the on-disk shape of a reference table.
type referenceFile map[string]struct {
	FullName string  `json:"fullname"`
	Unit     string  `json:"unit"`
	Ref      float64 `json:"ref"`
}

var defaultReferenceTable = mustLoadReferenceTable(defaultReferenceJSON)

// DefaultReferenceTable returns the embedded reference table.
func DefaultReferenceTable() ReferenceTable {
	return defaultReferenceTable
}

// LoadReferenceTable decodes a JSON reference table keyed by canonical code.
func LoadReferenceTable(r io.Reader) (ReferenceTable, error) {
	var file referenceFile
	if err := json.NewDecoder(r).Decode(&file); err != nil {
		return ReferenceTable{}, fmt.Errorf("decode reference table: %w", err)
	}
	if len(file) == 0 {
		return ReferenceTable{}, errors.New("reference table is empty")
	}

	entries := make(map[string]ReferenceEntry, len(file))
	for code, e := range file {
		switch {
		case code == "":
			return ReferenceTable{}, errors.New("reference table: empty pollutant code")
		case e.Ref <= 0:
			return ReferenceTable{}, fmt.Errorf("reference table: %s: ref must be positive, got %g", code, e.Ref)
		case e.FullName == "" || e.Unit == "":
			return ReferenceTable{}, fmt.Errorf("reference table: %s: fullname and unit are required", code)
		}
		entries[code] = ReferenceEntry{
			Code:        code,
			DisplayName: code,
			FullName:    e.FullName,
			Unit:        e.Unit,
			Reference:   e.Ref,
		}
	}
	return ReferenceTable{entries: entries}, nil
}

func mustLoadReferenceTable(data []byte) ReferenceTable {
	t, err := LoadReferenceTable(bytes.NewReader(data))
	if err != nil {
		panic(err)
	}
	return t
}

// Lookup returns the entry for a canonical code.
func (t ReferenceTable) Lookup(code string) (ReferenceEntry, bool) {
	e, ok := t.entries[code]
	return e, ok
}

// Codes returns the supported codes in sorted order.
func (t ReferenceTable) Codes() []string {
	return slices.Sorted(maps.Keys(t.entries))
}
