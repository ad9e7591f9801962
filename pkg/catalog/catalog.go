// Package catalog converts the spreadsheet-style CAN bus description
// into a normalized packet catalog.
//
// The pipeline is single-threaded and stateless across rows: the
// bitfield dictionary is loaded once and read-only afterward, every
// row is an independent transform over in-memory text, and all parse
// functions report problems as structured diagnostics instead of
// printing or aborting. Only unreadable input is an error.
package catalog

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

// Generate reads the main packet table and assembles the catalog.
//
// Rows without a parseable identifier are skipped; everything else
// degrades per field. The returned error is reserved for unreadable
// input.
func Generate(r io.Reader, cols Columns, dict Dictionary) (Catalog, []Diagnostic, error) {
	var c Collector

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, c.All(), fmt.Errorf("failed to read packet table: %w", err)
	}
	if len(records) == 0 {
		return Catalog{}, c.All(), nil
	}

	header := records[0]
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	assembler := NewAssembler(cols, dict)
	cat := Catalog{}

	for i, rec := range records[1:] {
		rowNum := i + 2 // 1-based, after the header
		if isBlankRecord(rec) {
			continue
		}

		row := make(map[string]string, len(header))
		for j, h := range header {
			if j < len(rec) {
				row[h] = rec[j]
			}
		}

		packet, diags := assembler.AssembleRow(row, rowNum)
		c.Extend(diags)
		if packet != nil {
			cat = append(cat, packet)
		}
	}

	return cat, c.All(), nil
}

// GenerateFile runs Generate over a CSV file on disk.
func GenerateFile(path string, cols Columns, dict Dictionary) (Catalog, []Diagnostic, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open packet table: %w", err)
	}
	defer func() { _ = f.Close() }()
	return Generate(f, cols, dict)
}

// LoadBitfieldFile runs LoadBitfieldTable over a CSV file on disk.
func LoadBitfieldFile(path string, cols BitfieldTableColumns) (Dictionary, []Diagnostic, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open bitfield table: %w", err)
	}
	defer func() { _ = f.Close() }()
	return LoadBitfieldTable(f, cols)
}

// WriteJSON serializes the catalog. A zero-row catalog is valid and
// serializes to an empty array.
func (c Catalog) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("failed to encode catalog: %w", err)
	}
	return nil
}

// WriteJSONFile serializes the catalog to a file.
func (c Catalog) WriteJSONFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create catalog file: %w", err)
	}
	if err := c.WriteJSON(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// Load re-parses a serialized catalog. Serializing and loading
// round-trips to a structurally identical sequence, order preserved.
func Load(r io.Reader) (Catalog, error) {
	var cat Catalog
	dec := json.NewDecoder(r)
	if err := dec.Decode(&cat); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}
	return cat, nil
}

// LoadFile re-parses a serialized catalog from a file.
func LoadFile(path string) (Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	defer func() { _ = f.Close() }()
	return Load(f)
}

func isBlankRecord(rec []string) bool {
	for _, cell := range rec {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
