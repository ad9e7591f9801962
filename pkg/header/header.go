// Package header renders a packet catalog as a C header of symbolic
// constants for the firmware build.
//
// Emission is a pure formatting step: every semantic decision was made
// when the catalog was generated, and malformed catalog entries degrade
// to comments plus diagnostics instead of failing the run.
package header

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/lhre/nightcan/pkg/catalog"
)

// cTypes maps catalog type tags to the C type used in _TYPE defines.
// Bitfields have no signal-level type; their bits get _IDX defines.
var cTypes = map[string]string{
	catalog.TypeUint8:   "uint8_t",
	catalog.TypeInt8:    "int8_t",
	catalog.TypeUint16:  "uint16_t",
	catalog.TypeInt16:   "int16_t",
	catalog.TypeUint32:  "uint32_t",
	catalog.TypeInt32:   "int32_t",
	catalog.TypeUint64:  "uint64_t",
	catalog.TypeInt64:   "int64_t",
	catalog.TypeFloat:   "float",
	catalog.TypeFloat32: "float",
	catalog.TypeDouble:  "double",
	catalog.TypeFloat64: "double",
}

// Generate renders the catalog as C header text. inputName is only
// echoed into the generated banner; outputName derives the include
// guard.
func Generate(cat catalog.Catalog, inputName, outputName string) (string, []catalog.Diagnostic) {
	var c catalog.Collector
	var b strings.Builder

	guard := Guard(outputName)
	fmt.Fprintf(&b, "#ifndef %s\n#define %s\n\n", guard, guard)
	fmt.Fprintf(&b, "// Auto-generated CAN ID header file\n")
	fmt.Fprintf(&b, "// Generated from: %s\n", inputName)
	fmt.Fprintf(&b, "// DO NOT EDIT MANUALLY\n\n")
	b.WriteString("#include <stdint.h>\n\n")

	for _, packet := range cat {
		writePacket(&b, packet, &c)
	}

	fmt.Fprintf(&b, "#endif // %s\n", guard)
	return b.String(), c.All()
}

func writePacket(b *strings.Builder, packet *catalog.PacketRow, c *catalog.Collector) {
	base := MacroName(packet.PacketName)

	fmt.Fprintf(b, "// Packet: %s\n", packet.PacketName)
	if len(packet.From) > 0 {
		fmt.Fprintf(b, "// From: %s\n", strings.Join(packet.From, ", "))
	}
	if len(packet.To) > 0 {
		fmt.Fprintf(b, "// To:   %s\n", strings.Join(packet.To, ", "))
	}

	freqMS := 0
	if packet.FrequencyMS != nil {
		freqMS = int(*packet.FrequencyMS)
	} else {
		c.Warnf(0, packet.PacketName, "frequency_ms is absent, using 0")
	}

	fmt.Fprintf(b, "#define %s_ID %d\n", base, packet.PacketID)
	fmt.Fprintf(b, "#define %s_DLC %d\n", base, packet.DataLength)
	fmt.Fprintf(b, "#define %s_FREQ %d\n", base, freqMS)
	fmt.Fprintf(b, "#define %s_QUANTITY %d\n\n", base, packet.Quantity)

	for _, field := range packet.Bytes {
		writeField(b, base, packet.PacketName, field, c)
	}

	fmt.Fprintf(b, "// End Packet: %s\n\n", packet.PacketName)
}

func writeField(b *strings.Builder, base, packetName string, field *catalog.FieldDefinition, c *catalog.Collector) {
	macro := fmt.Sprintf("%s_%s", base, MacroName(field.Name))

	fmt.Fprintf(b, "#define %s_BYTE %d\n", macro, field.StartByte)
	fmt.Fprintf(b, "#define %s_LENGTH %d\n", macro, field.Length)

	if field.ConvType == catalog.TypeBitfield {
		writeBitfield(b, macro, packetName, field, c)
		b.WriteString("\n")
		return
	}

	if cType, ok := cTypes[field.ConvType]; ok {
		fmt.Fprintf(b, "#define %s_TYPE %s\n", macro, cType)
	} else {
		c.Warnf(0, field.Name, "unknown conversion type %q in packet %q, omitting _TYPE", field.ConvType, packetName)
		fmt.Fprintf(b, "// Unknown conversion type %q - _TYPE define omitted\n", field.ConvType)
	}
	fmt.Fprintf(b, "#define %s_PREC %sf\n\n", macro, formatPrecision(field.Precision))
}

func writeBitfield(b *strings.Builder, macro, packetName string, field *catalog.FieldDefinition, c *catalog.Collector) {
	if len(field.Encoding) == 0 {
		c.Warnf(0, field.Name, "bitfield %q in packet %q has no encoding, skipping index defines", field.Name, packetName)
		fmt.Fprintf(b, "// Bitfield index definitions skipped for %s: missing encoding\n", field.Name)
		return
	}

	maxBit := field.Length*8 - 1
	valid := field.Encoding[:0:0]
	for _, bit := range field.Encoding {
		if bit.BitIndex < 0 || bit.BitIndex > maxBit {
			c.Warnf(0, field.Name, "bit index %d for %q out of range 0-%d, skipping",
				bit.BitIndex, bit.ProtobufField, maxBit)
			continue
		}
		valid = append(valid, bit)
	}
	if len(valid) == 0 {
		return
	}

	fmt.Fprintf(b, "// Bitfield indices for: %s\n", field.Name)
	for _, bit := range valid {
		fmt.Fprintf(b, "#define %s_%s_IDX %d\n", macro, MacroName(bit.ProtobufField), bit.BitIndex)
	}
}

// MacroName converts a readable name to an uppercase C macro name:
// runs of non-alphanumerics collapse to a single underscore and
// leading/trailing underscores are stripped.
func MacroName(name string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r - 'a' + 'A')
			lastUnderscore = false
		case (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_':
			b.WriteRune(r)
			lastUnderscore = r == '_'
		default:
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	return strings.Trim(b.String(), "_")
}

// Guard derives the include guard from the output file name.
func Guard(outputName string) string {
	name := filepath.Base(outputName)
	return strings.ToUpper(strings.ReplaceAll(name, ".", "_"))
}

// formatPrecision renders a precision for a _PREC define. Whole
// values keep one decimal so the C literal reads as a float.
func formatPrecision(p float64) string {
	if p == math.Trunc(p) {
		return fmt.Sprintf("%.1f", p)
	}
	return fmt.Sprintf("%g", p)
}
