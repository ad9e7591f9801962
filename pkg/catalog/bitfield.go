package catalog

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// BitsPerByte is the number of bit-position columns a bitfield table
// row can carry. Bit indices run 0..BitsPerByte-1.
const BitsPerByte = 8

// Dictionary maps a bitfield-type name to its ordered bit entries.
// It is built once from the secondary table and read-only afterward;
// signal cells reference encodings by name, never by copy.
type Dictionary map[string][]BitfieldBit

// BitfieldTableColumns names the columns of the secondary table.
type BitfieldTableColumns struct {
	// Name is the header of the column holding bitfield-type names.
	Name string
	// BitPrefix is the header prefix of bit-position columns; column
	// i is matched tolerantly as BitPrefix + "i]" with any suffix,
	// so both "b[3]" and "b[3] (lsb)" resolve.
	BitPrefix string
}

// DefaultBitfieldColumns matches the spreadsheet as exported.
func DefaultBitfieldColumns() BitfieldTableColumns {
	return BitfieldTableColumns{Name: "Bitfield", BitPrefix: "b["}
}

// LoadBitfieldTable reads the secondary table and builds the encoding
// dictionary.
//
// Only cells holding a ";"-separated sub-field name populate an entry.
// Rows with a blank name are skipped; rows producing zero entries are
// not added (an encoding with no sub-fields is indistinguishable from
// an undefined one downstream). A missing name column is fatal for the
// loader: it yields an empty dictionary plus an error diagnostic, and
// every later lookup degrades gracefully. A missing bit-position
// column is recorded once and that position is unavailable for all
// rows.
//
// The returned error is reserved for unreadable input (I/O-fatal).
func LoadBitfieldTable(r io.Reader, cols BitfieldTableColumns) (Dictionary, []Diagnostic, error) {
	var c Collector
	dict := Dictionary{}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, c.All(), fmt.Errorf("failed to read bitfield table: %w", err)
	}
	if len(records) == 0 {
		c.Errorf(0, "", "bitfield table is empty")
		return dict, c.All(), nil
	}

	header := records[0]
	if len(header) > 0 {
		// Spreadsheet exports often carry a UTF-8 BOM.
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	nameCol := -1
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), cols.Name) {
			nameCol = i
			break
		}
	}
	if nameCol < 0 {
		c.Errorf(0, "", "bitfield table has no %q column, no encodings loaded", cols.Name)
		return dict, c.All(), nil
	}

	// Resolve the bit-position columns once. Absent positions degrade:
	// they are simply unavailable for every row.
	bitCols := make([]int, BitsPerByte)
	for bit := 0; bit < BitsPerByte; bit++ {
		bitCols[bit] = -1
		want := fmt.Sprintf("%s%d]", cols.BitPrefix, bit)
		for i, h := range header {
			if strings.HasPrefix(strings.ToLower(strings.TrimSpace(h)), strings.ToLower(want)) {
				bitCols[bit] = i
				break
			}
		}
		if bitCols[bit] < 0 {
			c.Infof(0, "", "bitfield table has no column for bit %d (%q)", bit, want)
		}
	}

	for i, rec := range records[1:] {
		rowNum := i + 2 // 1-based, after the header

		if nameCol >= len(rec) {
			continue
		}
		name := strings.TrimSpace(rec[nameCol])
		if name == "" {
			continue
		}

		var bits []BitfieldBit
		for bit := 0; bit < BitsPerByte; bit++ {
			col := bitCols[bit]
			if col < 0 || col >= len(rec) {
				continue
			}
			cell := rec[col]
			sep := strings.IndexByte(cell, ';')
			if sep < 0 {
				continue
			}
			sub := strings.TrimSpace(cell[sep+1:])
			if sub == "" {
				continue
			}
			bits = append(bits, BitfieldBit{BitIndex: bit, ProtobufField: sub})
		}

		if len(bits) == 0 {
			c.Infof(rowNum, name, "bitfield row defines no sub-fields, not added")
			continue
		}

		if _, dup := dict[name]; dup {
			c.Warnf(rowNum, name, "duplicate bitfield name %q, later row wins", name)
		}
		dict[name] = bits
	}

	return dict, c.All(), nil
}
