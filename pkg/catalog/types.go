package catalog

// Known CAN value types and their on-wire byte lengths
const (
	TypeUint8   = "uint8"
	TypeInt8    = "int8"
	TypeUint16  = "uint16"
	TypeInt16   = "int16"
	TypeUint32  = "uint32"
	TypeInt32   = "int32"
	TypeUint64  = "uint64"
	TypeInt64   = "int64"
	TypeFloat   = "float"
	TypeFloat32 = "float32"
	TypeDouble  = "double"
	TypeFloat64 = "float64"

	// TypeBitfield marks a byte whose individual bits carry named flags.
	// It has no precision and its layout comes from the bitfield dictionary.
	TypeBitfield = "bitfield"
)

// typeLengths maps a normalized type tag to its byte length.
var typeLengths = map[string]int{
	TypeUint8:    1,
	TypeInt8:     1,
	TypeUint16:   2,
	TypeInt16:    2,
	TypeUint32:   4,
	TypeInt32:    4,
	TypeUint64:   8,
	TypeInt64:    8,
	TypeFloat:    4,
	TypeFloat32:  4,
	TypeDouble:   8,
	TypeFloat64:  8,
	TypeBitfield: 1,
}

// typeAliases maps spreadsheet spellings onto normalized type tags.
// Booleans and bare bytes are carried as one unsigned byte on the bus.
var typeAliases = map[string]string{
	"bool":    TypeUint8,
	"boolean": TypeUint8,
	"byte":    TypeUint8,
}

// ProtobufHint maps a CAN field onto a field of the external
// serialization schema. Index is only set for repeated fields that
// name an explicit slot, e.g. "cell_voltage[3] (uint32)".
type ProtobufHint struct {
	Field    string `json:"field"`
	Type     string `json:"type"`
	Repeated bool   `json:"repeated,omitempty"`
	Index    *int   `json:"index,omitempty"`
}

// BitfieldBit is one named bit of a bitfield byte.
type BitfieldBit struct {
	BitIndex      int    `json:"bit_index"`
	ProtobufField string `json:"protobuf_field"`
}

// FieldDefinition describes one decoded value inside a packet payload.
//
// StartByte values are monotonically non-decreasing in emission order
// and Length is never zero: unrecognized types degrade to length 1 so
// the offset walk downstream stays well-defined.
type FieldDefinition struct {
	Index     int           `json:"index"`
	StartByte int           `json:"start_byte"`
	Name      string        `json:"name"`
	Length    int           `json:"length"`
	ConvType  string        `json:"conv_type"`
	Precision float64       `json:"precision"`
	Protobuf  *ProtobufHint `json:"protobuf,omitempty"`
	Encoding  []BitfieldBit `json:"bitfield_encoding,omitempty"`
}

// PacketRow is one packet of the catalog, built from one source row.
// It is immutable once appended to a Catalog.
type PacketRow struct {
	PacketID    uint32             `json:"packet_id"`
	PacketName  string             `json:"packet_name"`
	From        []string           `json:"from"`
	To          []string           `json:"to"`
	DataLength  int                `json:"data_length"`
	FrequencyMS *float64           `json:"frequency_ms"`
	Frequency   *float64           `json:"frequency"`
	Quantity    int                `json:"quantity"`
	Bytes       []*FieldDefinition `json:"bytes"`
}

// Catalog is the ordered collection of all parsed packets.
type Catalog []*PacketRow

// normalizeType lowers a raw type token and resolves aliases.
func normalizeType(token string) string {
	if alias, ok := typeAliases[token]; ok {
		return alias
	}
	return token
}

// typeLength returns the byte length for a normalized type tag.
// Unknown types report ok=false; callers degrade to length 1.
func typeLength(tag string) (int, bool) {
	n, ok := typeLengths[tag]
	return n, ok
}
