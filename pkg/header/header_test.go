package header

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lhre/nightcan/pkg/catalog"
)

func floatPtr(f float64) *float64 { return &f }

func testCatalog() catalog.Catalog {
	return catalog.Catalog{
		{
			PacketID:    0xD0,
			PacketName:  "APPS Packet",
			From:        []string{"APPS"},
			To:          []string{"VCU"},
			DataLength:  8,
			Frequency:   floatPtr(333),
			FrequencyMS: floatPtr(3.003),
			Quantity:    1,
			Bytes: []*catalog.FieldDefinition{
				{
					Index: 0, StartByte: 0, Name: "APPS1 Voltage",
					Length: 2, ConvType: "uint16", Precision: 0.001,
				},
				{
					Index: 1, StartByte: 2, Name: "Status",
					Length: 1, ConvType: "bitfield", Precision: 1.0,
					Encoding: []catalog.BitfieldBit{
						{BitIndex: 0, ProtobufField: "imd_fault"},
						{BitIndex: 1, ProtobufField: "bms_fault"},
					},
				},
			},
		},
	}
}

func TestGenerate(t *testing.T) {
	text, diags := Generate(testCatalog(), "can_packets.json", "night_can_ids.h")
	require.Empty(t, diags)

	assert.Contains(t, text, "#ifndef NIGHT_CAN_IDS_H")
	assert.Contains(t, text, "#define NIGHT_CAN_IDS_H")
	assert.Contains(t, text, "#endif // NIGHT_CAN_IDS_H")

	assert.Contains(t, text, "#define APPS_PACKET_ID 208")
	assert.Contains(t, text, "#define APPS_PACKET_DLC 8")
	assert.Contains(t, text, "#define APPS_PACKET_FREQ 3")
	assert.Contains(t, text, "#define APPS_PACKET_QUANTITY 1")

	assert.Contains(t, text, "#define APPS_PACKET_APPS1_VOLTAGE_BYTE 0")
	assert.Contains(t, text, "#define APPS_PACKET_APPS1_VOLTAGE_LENGTH 2")
	assert.Contains(t, text, "#define APPS_PACKET_APPS1_VOLTAGE_TYPE uint16_t")
	assert.Contains(t, text, "#define APPS_PACKET_APPS1_VOLTAGE_PREC 0.001f")

	// Bitfield signals get per-bit index defines, no _TYPE or _PREC.
	assert.Contains(t, text, "#define APPS_PACKET_STATUS_BYTE 2")
	assert.Contains(t, text, "#define APPS_PACKET_STATUS_IMD_FAULT_IDX 0")
	assert.Contains(t, text, "#define APPS_PACKET_STATUS_BMS_FAULT_IDX 1")
	assert.NotContains(t, text, "APPS_PACKET_STATUS_TYPE")
	assert.NotContains(t, text, "APPS_PACKET_STATUS_PREC")
}

func TestGenerate_MissingFrequency(t *testing.T) {
	cat := testCatalog()
	cat[0].Frequency = nil
	cat[0].FrequencyMS = nil

	text, diags := Generate(cat, "in.json", "out.h")
	assert.Contains(t, text, "#define APPS_PACKET_FREQ 0")
	require.Len(t, diags, 1)
	assert.Equal(t, catalog.SeverityWarning, diags[0].Severity)
}

func TestGenerate_BitfieldWithoutEncoding(t *testing.T) {
	cat := testCatalog()
	cat[0].Bytes[1].Encoding = nil

	text, diags := Generate(cat, "in.json", "out.h")
	require.Len(t, diags, 1)
	assert.Contains(t, text, "// Bitfield index definitions skipped for Status")
	// _BYTE and _LENGTH survive even without an encoding.
	assert.Contains(t, text, "#define APPS_PACKET_STATUS_BYTE 2")
	assert.Contains(t, text, "#define APPS_PACKET_STATUS_LENGTH 1")
}

func TestGenerate_OutOfRangeBit(t *testing.T) {
	cat := testCatalog()
	cat[0].Bytes[1].Encoding = append(cat[0].Bytes[1].Encoding,
		catalog.BitfieldBit{BitIndex: 12, ProtobufField: "ghost"})

	text, diags := Generate(cat, "in.json", "out.h")
	require.Len(t, diags, 1)
	assert.NotContains(t, text, "GHOST_IDX")
}

func TestGenerate_AllBitsOutOfRange(t *testing.T) {
	cat := testCatalog()
	cat[0].Bytes[1].Encoding = []catalog.BitfieldBit{
		{BitIndex: 9, ProtobufField: "ghost_a"},
		{BitIndex: 12, ProtobufField: "ghost_b"},
	}

	text, diags := Generate(cat, "in.json", "out.h")
	require.Len(t, diags, 2)
	// No surviving bit means no index block at all, not an empty one.
	assert.NotContains(t, text, "// Bitfield indices for: Status")
	assert.NotContains(t, text, "_IDX")
	// _BYTE and _LENGTH are unaffected.
	assert.Contains(t, text, "#define APPS_PACKET_STATUS_BYTE 2")
	assert.Contains(t, text, "#define APPS_PACKET_STATUS_LENGTH 1")
}

func TestGenerate_UnknownConvType(t *testing.T) {
	cat := testCatalog()
	cat[0].Bytes[0].ConvType = "uint24"

	text, diags := Generate(cat, "in.json", "out.h")
	require.Len(t, diags, 1)
	assert.NotContains(t, text, "APPS_PACKET_APPS1_VOLTAGE_TYPE")
	// _PREC is still emitted for scalar signals.
	assert.Contains(t, text, "#define APPS_PACKET_APPS1_VOLTAGE_PREC 0.001f")
}

func TestGenerate_EmptyCatalog(t *testing.T) {
	text, diags := Generate(catalog.Catalog{}, "in.json", "out.h")
	assert.Empty(t, diags)
	assert.Contains(t, text, "#ifndef OUT_H")
	assert.Contains(t, text, "#endif // OUT_H")
}

func TestMacroName(t *testing.T) {
	tests := map[string]string{
		"APPS Packet":       "APPS_PACKET",
		"apps1 voltage":     "APPS1_VOLTAGE",
		"Cell-Voltage (mV)": "CELL_VOLTAGE_MV",
		"  spaced  out  ":   "SPACED_OUT",
		"already_macro":     "ALREADY_MACRO",
	}
	for in, want := range tests {
		assert.Equal(t, want, MacroName(in), "MacroName(%q)", in)
	}
}

func TestGuard(t *testing.T) {
	assert.Equal(t, "NIGHT_CAN_IDS_H", Guard("night_can_ids.h"))
	assert.Equal(t, "IDS_H", Guard(strings.Join([]string{"some", "dir", "ids.h"}, "/")))
}
