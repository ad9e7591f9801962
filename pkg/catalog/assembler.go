package catalog

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Columns names the columns of the main packet table and the number
// of positional data cells per row. Data cell i is looked up as
// DataPrefix + "i]".
type Columns struct {
	ID          string
	Name        string
	From        string
	To          string
	DLC         string
	Frequency   string
	Quantity    string
	DataPrefix  string
	DataColumns int
}

// DefaultColumns matches the spreadsheet as exported. Classic CAN
// frames carry eight data bytes; DataColumns is configurable so wider
// frames only need a config change.
func DefaultColumns() Columns {
	return Columns{
		ID:          "CAN ID",
		Name:        "Packet Info",
		From:        "From",
		To:          "To",
		DLC:         "Data Length Code (DLC)",
		Frequency:   "Frequency (Hz)",
		Quantity:    "Quantity",
		DataPrefix:  "Data[",
		DataColumns: 8,
	}
}

// Assembler turns source rows into PacketRow values. The bitfield
// dictionary is read-only after load, so an Assembler is safe to use
// across rows in any order.
type Assembler struct {
	cols Columns
	dict Dictionary
}

// NewAssembler creates an Assembler over the given column layout and
// bitfield dictionary. A nil dictionary means every bitfield lookup
// degrades with a diagnostic.
func NewAssembler(cols Columns, dict Dictionary) *Assembler {
	if cols.DataColumns <= 0 {
		cols.DataColumns = DefaultColumns().DataColumns
	}
	return &Assembler{cols: cols, dict: dict}
}

// AssembleRow builds one PacketRow from a header-keyed source row.
//
// A missing or unparsable packet identifier skips the row (nil row,
// diagnostic only when the identifier was present but malformed).
// Everything else degrades per field and never blocks construction.
func (a *Assembler) AssembleRow(row map[string]string, rowNum int) (*PacketRow, []Diagnostic) {
	var c Collector

	idText := strings.TrimSpace(row[a.cols.ID])
	if idText == "" {
		return nil, nil
	}
	id, err := ParsePacketID(idText)
	if err != nil {
		c.Warnf(rowNum, a.cols.ID, "invalid hex CAN ID %q, skipping row", idText)
		return nil, c.All()
	}

	name := strings.TrimSpace(row[a.cols.Name])
	if name == "" {
		name = fmt.Sprintf("Packet_%s", idText)
	}

	freq, diags := ParseFrequency(row[a.cols.Frequency], rowNum, a.cols.Frequency)
	c.Extend(diags)

	dlc, diags := ParseDLC(row[a.cols.DLC], rowNum, a.cols.DLC)
	c.Extend(diags)

	qty, diags := ParseQuantity(row[a.cols.Quantity], rowNum, a.cols.Quantity)
	c.Extend(diags)

	packet := &PacketRow{
		PacketID:    id,
		PacketName:  name,
		From:        ParseParticipants(row[a.cols.From]),
		To:          ParseParticipants(row[a.cols.To]),
		DataLength:  dlc,
		Frequency:   freq,
		FrequencyMS: FrequencyMS(freq),
		Quantity:    qty,
		Bytes:       []*FieldDefinition{},
	}

	// Walk the positional data cells. The cursor only ever moves
	// forward: a cell at a byte position past the cursor is an
	// unmodeled gap (padding) and the cursor jumps to it; fields are
	// never back-dated below an already placed field.
	cursor := 0
	for pos := 0; pos < a.cols.DataColumns; pos++ {
		key := fmt.Sprintf("%s%d]", a.cols.DataPrefix, pos)
		field, diags := ParseSignalCell(row[key], pos, rowNum, a.dict)
		c.Extend(diags)
		if field == nil {
			continue
		}

		if pos > cursor {
			c.Infof(rowNum, field.Name, "gap before byte %d, treating bytes %d-%d as padding",
				pos, cursor, pos-1)
			cursor = pos
		}

		field.Index = len(packet.Bytes)
		field.StartByte = cursor
		packet.Bytes = append(packet.Bytes, field)
		cursor += field.Length
	}

	return packet, c.All()
}

// ParsePacketID parses a hexadecimal CAN identifier, with or without
// a leading "0x".
func ParsePacketID(s string) (uint32, error) {
	t := strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(s), "0x"), "0X")
	id, err := strconv.ParseUint(t, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid CAN ID %q: %w", s, err)
	}
	return uint32(id), nil
}

// ParseDLC parses the data-length-code cell: a plain integer, a
// "(lo-hi)" range (the upper bound wins), or the "depends" sentinel.
// Anything else degrades to 0 with a diagnostic.
func ParseDLC(s string, rowNum int, field string) (int, []Diagnostic) {
	var c Collector

	t := strings.TrimSpace(s)
	if t == "" {
		return 0, nil
	}
	if _, hi, ok := scanRange(t); ok {
		return hi, nil
	}
	if n, err := strconv.Atoi(t); err == nil {
		return n, nil
	}
	if strings.EqualFold(t, "depends") {
		return 0, nil
	}
	c.Warnf(rowNum, field, "could not parse DLC %q, defaulting to 0", t)
	return 0, c.All()
}

// scanRange scans a "(lo-hi)" integer range.
func scanRange(s string) (lo, hi int, ok bool) {
	if len(s) < 2 || s[0] != '(' || s[len(s)-1] != ')' {
		return 0, 0, false
	}
	inner := s[1 : len(s)-1]
	dash := strings.IndexByte(inner, '-')
	if dash < 0 {
		return 0, 0, false
	}
	lo, err := strconv.Atoi(strings.TrimSpace(inner[:dash]))
	if err != nil {
		return 0, 0, false
	}
	hi, err = strconv.Atoi(strings.TrimSpace(inner[dash+1:]))
	if err != nil {
		return 0, 0, false
	}
	return lo, hi, true
}

// ParseFrequency parses the frequency cell in Hz. Blank, "NA" and "0"
// all mean the packet has no fixed rate (nil).
func ParseFrequency(s string, rowNum int, field string) (*float64, []Diagnostic) {
	var c Collector

	t := strings.ToLower(strings.TrimSpace(s))
	if t == "" || t == "na" || t == "0" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(t, 64)
	if err != nil {
		c.Warnf(rowNum, field, "could not parse frequency %q", t)
		return nil, c.All()
	}
	return &f, nil
}

// FrequencyMS derives the millisecond period from a frequency in Hz,
// rounded to four decimals. Nil or non-positive frequency has no
// period.
func FrequencyMS(hz *float64) *float64 {
	if hz == nil || *hz <= 0 {
		return nil
	}
	ms := math.Round(1000.0 / *hz * 1e4) / 1e4
	return &ms
}

// ParseQuantity parses the quantity cell. Blank and the "depends" /
// "max 32" sentinels mean unspecified (0).
func ParseQuantity(s string, rowNum int, field string) (int, []Diagnostic) {
	var c Collector

	t := strings.TrimSpace(s)
	if t == "" || strings.EqualFold(t, "depends") || strings.EqualFold(t, "max 32") {
		return 0, nil
	}
	n, err := strconv.Atoi(t)
	if err != nil {
		c.Warnf(rowNum, field, "could not parse quantity %q, defaulting to 0", t)
		return 0, c.All()
	}
	return n, nil
}

// ParseParticipants parses a From/To cell into endpoint names. The
// whole trimmed cell is one participant; blank cells have none.
func ParseParticipants(s string) []string {
	t := strings.TrimSpace(s)
	if t == "" {
		return []string{}
	}
	return []string{t}
}
