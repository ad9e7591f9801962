package catalog

import (
	"math"
	"testing"
)

func TestParseSignalCell_Scalar(t *testing.T) {
	field, diags := ParseSignalCell("Speed (uint16, 0.1)", 0, 2, nil)
	if field == nil {
		t.Fatal("expected a field")
	}
	if len(diags) != 0 {
		t.Errorf("expected no diagnostics, got %v", diags)
	}
	if field.Name != "Speed" {
		t.Errorf("expected name Speed, got %q", field.Name)
	}
	if field.ConvType != TypeUint16 {
		t.Errorf("expected conv_type uint16, got %q", field.ConvType)
	}
	if field.Length != 2 {
		t.Errorf("expected length 2, got %d", field.Length)
	}
	if field.Precision != 0.1 {
		t.Errorf("expected precision 0.1, got %v", field.Precision)
	}
}

func TestParseSignalCell_UnusedCells(t *testing.T) {
	for _, cell := range []string{"", "   ", "unused", "UNUSED", ",", `"unused"`} {
		t.Run("cell "+cell, func(t *testing.T) {
			field, diags := ParseSignalCell(cell, 0, 2, nil)
			if field != nil {
				t.Errorf("expected no field for %q, got %+v", cell, field)
			}
			if len(diags) != 0 {
				t.Errorf("expected no diagnostics for %q, got %v", cell, diags)
			}
		})
	}
}

func TestParseSignalCell_TypeNormalization(t *testing.T) {
	tests := []struct {
		cell   string
		wanted string
		length int
	}{
		{"Flag (bool)", TypeUint8, 1},
		{"Flag (Boolean)", TypeUint8, 1},
		{"VSM (byte)", TypeUint8, 1},
		{"Temp (int16)", TypeInt16, 2},
		{"Ticks (uint32)", TypeUint32, 4},
		{"Stamp (uint64)", TypeUint64, 8},
		{"Ratio (float)", TypeFloat, 4},
		{"Ratio (double)", TypeDouble, 8},
	}
	for _, tt := range tests {
		t.Run(tt.cell, func(t *testing.T) {
			field, diags := ParseSignalCell(tt.cell, 0, 2, nil)
			if field == nil {
				t.Fatalf("expected a field for %q", tt.cell)
			}
			if len(diags) != 0 {
				t.Errorf("unexpected diagnostics: %v", diags)
			}
			if field.ConvType != tt.wanted {
				t.Errorf("expected conv_type %q, got %q", tt.wanted, field.ConvType)
			}
			if field.Length != tt.length {
				t.Errorf("expected length %d, got %d", tt.length, field.Length)
			}
		})
	}
}

func TestParseSignalCell_UnknownType(t *testing.T) {
	field, diags := ParseSignalCell("Odometer (uint24)", 3, 2, nil)
	if field == nil {
		t.Fatal("expected a degraded field, not nil")
	}
	if field.Length != 1 {
		t.Errorf("unknown type must degrade to length 1, got %d", field.Length)
	}
	if field.ConvType != "uint24" {
		t.Errorf("unknown type tag must be retained, got %q", field.ConvType)
	}
	if len(diags) != 1 || diags[0].Severity != SeverityWarning {
		t.Errorf("expected one warning diagnostic, got %v", diags)
	}
}

func TestParseSignalCell_PlaceholderName(t *testing.T) {
	field, _ := ParseSignalCell("(uint8)", 5, 2, nil)
	if field == nil {
		t.Fatal("expected a field")
	}
	if field.Name != "Field_5" {
		t.Errorf("expected placeholder name Field_5, got %q", field.Name)
	}
}

func TestParseSignalCell_Bitfield(t *testing.T) {
	dict := Dictionary{
		"Faults": {
			{BitIndex: 0, ProtobufField: "overvolt"},
			{BitIndex: 3, ProtobufField: "overtemp"},
		},
	}

	t.Run("defined encoding", func(t *testing.T) {
		field, diags := ParseSignalCell("Status (bitfield, Faults)", 0, 2, dict)
		if field == nil {
			t.Fatal("expected a field")
		}
		if len(diags) != 0 {
			t.Errorf("unexpected diagnostics: %v", diags)
		}
		if field.ConvType != TypeBitfield {
			t.Errorf("expected conv_type bitfield, got %q", field.ConvType)
		}
		if field.Precision != 1.0 {
			t.Errorf("bitfield precision must be 1.0, got %v", field.Precision)
		}
		if len(field.Encoding) != 2 || field.Encoding[1].ProtobufField != "overtemp" {
			t.Errorf("unexpected encoding: %+v", field.Encoding)
		}
	})

	t.Run("undefined encoding is not fatal", func(t *testing.T) {
		field, diags := ParseSignalCell("Status (bitfield, Mystery)", 0, 2, dict)
		if field == nil {
			t.Fatal("expected a field even for an undefined encoding")
		}
		if field.ConvType != TypeBitfield {
			t.Errorf("expected conv_type bitfield, got %q", field.ConvType)
		}
		if field.Encoding != nil {
			t.Errorf("expected no encoding attached, got %+v", field.Encoding)
		}
		if len(diags) != 1 || diags[0].Severity != SeverityWarning {
			t.Errorf("expected one warning diagnostic, got %v", diags)
		}
	})

	t.Run("missing encoding name", func(t *testing.T) {
		field, diags := ParseSignalCell("Status (bitfield)", 0, 2, dict)
		if field == nil {
			t.Fatal("expected a field")
		}
		if field.Encoding != nil {
			t.Errorf("expected no encoding attached, got %+v", field.Encoding)
		}
		if len(diags) != 1 {
			t.Errorf("expected one diagnostic, got %v", diags)
		}
	})
}

func TestParseSignalCell_ProtobufHint(t *testing.T) {
	t.Run("plain hint", func(t *testing.T) {
		field, diags := ParseSignalCell("Speed (uint16, 0.1); vcu.speed (float)", 0, 2, nil)
		if field == nil {
			t.Fatal("expected a field")
		}
		if len(diags) != 0 {
			t.Errorf("unexpected diagnostics: %v", diags)
		}
		if field.Protobuf == nil {
			t.Fatal("expected a protobuf hint")
		}
		if field.Protobuf.Field != "vcu.speed" || field.Protobuf.Type != "float" {
			t.Errorf("unexpected hint: %+v", field.Protobuf)
		}
		if field.Protobuf.Repeated {
			t.Error("plain hint must not be repeated")
		}
	})

	t.Run("indexed repeated hint", func(t *testing.T) {
		field, _ := ParseSignalCell("Volt (uint16, 0.001); bms.cell_voltage[3] (uint32)", 0, 2, nil)
		if field == nil || field.Protobuf == nil {
			t.Fatal("expected a field with a hint")
		}
		if !field.Protobuf.Repeated {
			t.Error("indexed hint must be repeated")
		}
		if field.Protobuf.Index == nil || *field.Protobuf.Index != 3 {
			t.Errorf("expected index 3, got %v", field.Protobuf.Index)
		}
	})

	t.Run("unparsable hint is dropped, field kept", func(t *testing.T) {
		field, diags := ParseSignalCell("Speed (uint16); ???", 0, 2, nil)
		if field == nil {
			t.Fatal("expected the field to survive a bad hint")
		}
		if field.Protobuf != nil {
			t.Errorf("expected hint to be dropped, got %+v", field.Protobuf)
		}
		if len(diags) != 1 || diags[0].Severity != SeverityWarning {
			t.Errorf("expected one warning diagnostic, got %v", diags)
		}
	})
}

func TestParseSignalCell_Unparsable(t *testing.T) {
	field, diags := ParseSignalCell("not a signal at all", 0, 2, nil)
	if field != nil {
		t.Errorf("expected no field, got %+v", field)
	}
	if len(diags) != 1 {
		t.Errorf("expected one diagnostic, got %v", diags)
	}
}

func TestParsePrecision(t *testing.T) {
	tests := []struct {
		context string
		want    float64
		ok      bool
	}{
		{"2^-7", math.Pow(2, -7), true},
		{"2^3", 8, true},
		{"0.1V", 0.1, true},
		{"0.5", 0.5, true},
		{"1e-3", 0.001, true},
		{"-0.25", -0.25, true},
		{"boolean", 1.0, true},
		{"volts", 1.0, true},
		{"0.1 V", 0.1, true},
		{"%%?", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.context, func(t *testing.T) {
			got, ok := parsePrecision(tt.context)
			if ok != tt.ok {
				t.Fatalf("parsePrecision(%q) ok = %v, want %v", tt.context, ok, tt.ok)
			}
			if ok && math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("parsePrecision(%q) = %v, want %v", tt.context, got, tt.want)
			}
		})
	}
}
