/*
Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package pubsub

import "time"

// BuiltinType is the built-in type index packed into a Variant's encoding
// byte (low 6 bits).
type BuiltinType uint8

// The 25 built-in types a Variant may carry.
const (
	TypeBoolean BuiltinType = iota + 1
	TypeSByte
	TypeByte
	TypeInt16
	TypeUInt16
	TypeInt32
	TypeUInt32
	TypeInt64
	TypeUInt64
	TypeFloat
	TypeDouble
	TypeString
	TypeDateTime
	TypeGUID
	TypeByteString
	TypeXMLElement
	TypeNodeID
	TypeExpandedNodeID
	TypeStatusCode
	TypeQualifiedName
	TypeLocalizedText
	TypeExtensionObject
	TypeDataValue
	TypeVariant
	TypeDiagnosticInfo
)

var builtinTypeNames = map[BuiltinType]string{
	TypeBoolean:         "Boolean",
	TypeSByte:           "SByte",
	TypeByte:            "Byte",
	TypeInt16:           "Int16",
	TypeUInt16:          "UInt16",
	TypeInt32:           "Int32",
	TypeUInt32:          "UInt32",
	TypeInt64:           "Int64",
	TypeUInt64:          "UInt64",
	TypeFloat:           "Float",
	TypeDouble:          "Double",
	TypeString:          "String",
	TypeDateTime:        "DateTime",
	TypeGUID:            "Guid",
	TypeByteString:      "ByteString",
	TypeXMLElement:      "XmlElement",
	TypeNodeID:          "NodeId",
	TypeExpandedNodeID:  "ExpandedNodeId",
	TypeStatusCode:      "StatusCode",
	TypeQualifiedName:   "QualifiedName",
	TypeLocalizedText:   "LocalizedText",
	TypeExtensionObject: "ExtensionObject",
	TypeDataValue:       "DataValue",
	TypeVariant:         "Variant",
	TypeDiagnosticInfo:  "DiagnosticInfo",
}

func (t BuiltinType) String() string {
	if n, ok := builtinTypeNames[t]; ok {
		return n
	}
	return "Unknown"
}

// NodeID identifies a node (or, here, a custom data type) by namespace
// index and a numeric, string, GUID, or opaque identifier.
type NodeID struct {
	NamespaceIndex uint16
	Numeric        uint32
	StringID       string
	GUIDID         [16]byte
	Opaque         []byte
	// IdentifierType selects which of the fields above is meaningful.
	IdentifierType NodeIDType
}

// NodeIDType selects a NodeID's identifier representation.
type NodeIDType uint8

// NodeID identifier kinds.
const (
	NodeIDTypeNumeric NodeIDType = iota
	NodeIDTypeString
	NodeIDTypeGUID
	NodeIDTypeOpaque
)

// ExpandedNodeID adds an optional namespace URI and server index to a NodeID.
type ExpandedNodeID struct {
	NodeID
	NamespaceURI string
	ServerIndex  uint32
}

// QualifiedName is a namespace-scoped name.
type QualifiedName struct {
	NamespaceIndex uint16
	Name           string
}

// LocalizedText carries an optional locale and text.
type LocalizedText struct {
	HasLocale bool
	Locale    string
	HasText   bool
	Text      string
}

// ExtensionObjectEncoding selects how an ExtensionObject's body is carried.
type ExtensionObjectEncoding uint8

// ExtensionObject encoding kinds.
const (
	ExtensionObjectEncodingNoBody    ExtensionObjectEncoding = 0
	ExtensionObjectEncodingByteString ExtensionObjectEncoding = 1
	ExtensionObjectEncodingXML       ExtensionObjectEncoding = 2
)

// ExtensionObject wraps either a known structured type or an opaque body.
type ExtensionObject struct {
	TypeID   NodeID
	Encoding ExtensionObjectEncoding
	Body     []byte
	// Decoded is populated when the type is registered as a CustomType
	// and Encoding is ExtensionObjectEncodingByteString; it holds the
	// recursively-decoded value.
	Decoded any
}

// CustomTypeDescriptor registers a user-defined structured type so the
// Variant/ExtensionObject codec can decode its body recursively instead of
// leaving it opaque.
type CustomTypeDescriptor struct {
	TypeID NodeID
	Name   string
	// Decode parses a type-specific binary body into a value; Encode is
	// its inverse. Both are supplied by the application, not the codec,
	// since the codec has no compile-time knowledge of custom types.
	Decode func([]byte) (any, error)
	Encode func(any) ([]byte, error)
	// EncodeJSON and DecodeJSON are the JSON-codec equivalents of Encode
	// and Decode: EncodeJSON returns a JSON-marshalable value for the
	// ExtensionObject body, DecodeJSON receives the value produced by
	// unmarshaling that body into a generic interface{} (typically a
	// map[string]any) and reconstructs the typed value. Left nil, the
	// JSON codec falls back to treating the body as an opaque byte
	// string, the same as an unregistered type.
	EncodeJSON func(any) (any, error)
	DecodeJSON func(any) (any, error)
}

// Variant is a dynamically typed value carrying its type tag and an
// optional array shape. A Variant carrying a user-defined type is
// serialized as an ExtensionObject internally.
type Variant struct {
	Type BuiltinType

	IsArray    bool
	Dimensions []int32

	// Scalar payload; only the field matching Type is meaningful, unless
	// IsArray is true, in which case the corresponding *Array field holds
	// the flattened element sequence (array-of-array shape is carried by
	// Dimensions, never by nesting slices).
	Bool            bool
	SByte           int8
	Byte            uint8
	Int16           int16
	UInt16          uint16
	Int32           int32
	UInt32          uint32
	Int64           int64
	UInt64          uint64
	Float           float32
	Double          float64
	Str             string
	DateTime        time.Time
	GUID            [16]byte
	ByteString      []byte
	XMLElement      []byte
	NodeID          NodeID
	ExpandedNodeID  ExpandedNodeID
	StatusCode      uint32
	QualifiedName   QualifiedName
	LocalizedText   LocalizedText
	ExtensionObject ExtensionObject
	DataValue       *DataValue

	BoolArray            []bool
	SByteArray           []int8
	ByteArray            []uint8
	Int16Array           []int16
	UInt16Array          []uint16
	Int32Array           []int32
	UInt32Array          []uint32
	Int64Array           []int64
	UInt64Array          []uint64
	FloatArray           []float32
	DoubleArray          []float64
	StrArray             []string
	DateTimeArray        []time.Time
	GUIDArray            [][16]byte
	ByteStringArray      [][]byte
	NodeIDArray          []NodeID
	StatusCodeArray      []uint32
	LocalizedTextArray   []LocalizedText
	ExtensionObjectArray []ExtensionObject
}

// NewUInt32Variant builds a scalar UInt32 Variant, the shape used by S1/S5.
func NewUInt32Variant(v uint32) Variant {
	return Variant{Type: TypeUInt32, UInt32: v}
}

// NewInt64Variant builds a scalar Int64 Variant.
func NewInt64Variant(v int64) Variant {
	return Variant{Type: TypeInt64, Int64: v}
}

// NewGUIDVariant builds a scalar Guid Variant.
func NewGUIDVariant(v [16]byte) Variant {
	return Variant{Type: TypeGUID, GUID: v}
}
