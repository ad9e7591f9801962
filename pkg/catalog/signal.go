package catalog

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// Signal-cell grammar:
//
//	cell    = can-part [ ";" hint ]
//	can-part = [name] "(" type [ "," context ] ")"
//	hint    = field [ "[" index "]" ] "(" type ")"
//
// The context is either a precision (numeric literal, "2^n" power
// notation, or a descriptive unit) or, for bitfield signals, the name
// of a bitfield encoding from the secondary table.
//
// Parsing is best-effort throughout: a cell that cannot be understood
// degrades to a diagnostic, never an error.

// ParseSignalCell parses one data-byte cell into a field definition.
//
// position is the zero-based data column the cell came from, used for
// the auto-generated name placeholder; row is the 1-based source row
// for diagnostics. A nil field with no diagnostics means the cell is
// empty or marked unused and the byte cursor must not advance.
//
// Index and StartByte of the returned field are left for the caller.
func ParseSignalCell(text string, position, row int, dict Dictionary) (*FieldDefinition, []Diagnostic) {
	var c Collector

	cell := strings.Trim(strings.TrimSpace(text), `"`)
	if isUnusedCell(cell) {
		return nil, nil
	}

	canPart := cell
	var hint *ProtobufHint
	if i := strings.IndexByte(cell, ';'); i >= 0 {
		canPart = strings.TrimSpace(cell[:i])
		hintPart := strings.TrimSpace(cell[i+1:])
		var ok bool
		if hint, ok = parseHint(hintPart); !ok {
			c.Warnf(row, "", "could not parse protobuf hint %q, dropping it", hintPart)
			hint = nil
		}
	}

	sig, ok := scanSignal(canPart)
	if !ok {
		// Fallback: a bare "(type)" cell with nothing else usable.
		sig, ok = scanBareType(canPart)
		if !ok {
			c.Warnf(row, "", "could not parse signal description %q", canPart)
			return nil, c.All()
		}
	}

	name := sig.name
	if name == "" {
		name = fmt.Sprintf("Field_%d", position)
	}

	field := &FieldDefinition{
		Name:      name,
		Precision: 1.0,
		Protobuf:  hint,
	}

	normalized := normalizeType(sig.typeTok)
	if length, known := typeLength(normalized); known {
		field.ConvType = normalized
		field.Length = length
	} else {
		// Never infer zero: assume one byte so the offset walk
		// downstream stays well-defined.
		c.Warnf(row, name, "unknown CAN data type %q, assuming length 1", sig.typeTok)
		field.ConvType = sig.typeTok
		field.Length = 1
	}

	if field.ConvType == TypeBitfield {
		switch {
		case sig.context == "":
			c.Warnf(row, name, "bitfield signal does not name an encoding")
		default:
			enc, ok := dict[sig.context]
			if !ok {
				c.Warnf(row, name, "bitfield encoding %q is not defined", sig.context)
			} else {
				field.Encoding = enc
			}
		}
		return field, c.All()
	}

	if sig.context != "" && !sig.bare {
		prec, ok := parsePrecision(sig.context)
		if !ok {
			c.Warnf(row, name, "could not parse precision %q, using 1.0", sig.context)
			prec = 1.0
		}
		field.Precision = prec
	}

	return field, c.All()
}

// isUnusedCell reports whether a trimmed cell carries no signal.
func isUnusedCell(cell string) bool {
	return cell == "" || cell == "," || strings.EqualFold(cell, "unused")
}

// signalParts is the named result of scanning a can-part.
type signalParts struct {
	name    string
	typeTok string // lowercased raw type token
	context string // trimmed context, empty when absent
	bare    bool   // matched by the bare "(type)" fallback
}

// scanSignal scans `name "(" type ["," context] ")"`. The name is
// everything before the opening parenthesis; the context runs to the
// closing parenthesis with anything after the first whitespace run
// ignored (units like "0.1 V" keep only the leading token for
// precision parsing, handled by parsePrecision).
func scanSignal(s string) (signalParts, bool) {
	open := strings.IndexByte(s, '(')
	if open < 0 {
		return signalParts{}, false
	}
	closing := strings.LastIndexByte(s, ')')
	if closing <= open {
		return signalParts{}, false
	}

	inside := s[open+1 : closing]
	typeTok := inside
	context := ""
	if comma := strings.IndexByte(inside, ','); comma >= 0 {
		typeTok = inside[:comma]
		context = strings.TrimSpace(inside[comma+1:])
	}
	typeTok = strings.ToLower(strings.TrimSpace(typeTok))
	if typeTok == "" {
		return signalParts{}, false
	}

	return signalParts{
		name:    strings.TrimSpace(s[:open]),
		typeTok: typeTok,
		context: context,
	}, true
}

// scanBareType recovers a minimally-specified field from a cell whose
// parentheses hold a single word and nothing the primary scan accepts.
func scanBareType(s string) (signalParts, bool) {
	open := strings.IndexByte(s, '(')
	if open < 0 {
		return signalParts{}, false
	}
	closing := strings.IndexByte(s[open:], ')')
	if closing < 0 {
		return signalParts{}, false
	}
	word := strings.TrimSpace(s[open+1 : open+closing])
	if word == "" || !isWord(word) {
		return signalParts{}, false
	}
	return signalParts{
		name:    strings.TrimSpace(s[:open]),
		typeTok: strings.ToLower(word),
		bare:    true,
	}, true
}

// parsePrecision parses a context token into a float multiplier.
//
// Accepted forms, tried in order: power-of-two notation "2^<int>", a
// leading decimal or exponential numeric literal, or a purely
// alphabetic descriptive unit (implied precision 1.0).
func parsePrecision(context string) (float64, bool) {
	tok := context
	if fields := strings.Fields(context); len(fields) > 0 {
		tok = fields[0]
	}

	if rest, ok := strings.CutPrefix(tok, "2^"); ok {
		if exp, err := strconv.Atoi(rest); err == nil {
			return math.Pow(2, float64(exp)), true
		}
	}

	if lit := leadingNumber(tok); lit != "" {
		if f, err := strconv.ParseFloat(lit, 64); err == nil {
			return f, true
		}
	}

	if isAlphabetic(tok) {
		return 1.0, true
	}

	return 0, false
}

// leadingNumber returns the longest prefix of s that forms a decimal
// or exponential numeric literal, or "" when s has none.
func leadingNumber(s string) string {
	i := 0
	n := len(s)
	if i < n && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digits := 0
	for i < n && s[i] >= '0' && s[i] <= '9' {
		i++
		digits++
	}
	if i < n && s[i] == '.' {
		i++
		for i < n && s[i] >= '0' && s[i] <= '9' {
			i++
			digits++
		}
	}
	if digits == 0 {
		return ""
	}
	// Optional exponent, only consumed when complete.
	if i < n && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < n && (s[j] == '+' || s[j] == '-') {
			j++
		}
		expDigits := 0
		for j < n && s[j] >= '0' && s[j] <= '9' {
			j++
			expDigits++
		}
		if expDigits > 0 {
			i = j
		}
	}
	return s[:i]
}

// parseHint scans a wire-format hint `field[index](type)`.
func parseHint(s string) (*ProtobufHint, bool) {
	i := 0
	n := len(s)
	for i < n && s[i] == ' ' {
		i++
	}

	start := i
	for i < n && isHintNameByte(s[i]) {
		i++
	}
	field := s[start:i]
	if field == "" {
		return nil, false
	}

	var index *int
	for i < n && s[i] == ' ' {
		i++
	}
	if i < n && s[i] == '[' {
		end := strings.IndexByte(s[i:], ']')
		if end < 0 {
			return nil, false
		}
		v, err := strconv.Atoi(strings.TrimSpace(s[i+1 : i+end]))
		if err != nil {
			return nil, false
		}
		index = &v
		i += end + 1
		for i < n && s[i] == ' ' {
			i++
		}
	}

	if i >= n || s[i] != '(' {
		return nil, false
	}
	end := strings.IndexByte(s[i:], ')')
	if end < 0 {
		return nil, false
	}
	typ := strings.TrimSpace(s[i+1 : i+end])
	if typ == "" {
		return nil, false
	}

	return &ProtobufHint{
		Field:    field,
		Type:     typ,
		Repeated: index != nil || strings.HasPrefix(typ, "repeated"),
		Index:    index,
	}, true
}

func isHintNameByte(b byte) bool {
	return b == '_' || b == '.' ||
		(b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

func isWord(s string) bool {
	for _, r := range s {
		if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func isAlphabetic(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
