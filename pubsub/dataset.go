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

// DataSetMessageType is one of keyframe (full snapshot), deltaframe
// (indexed changes), keepalive (header only), or event.
type DataSetMessageType uint8

// Dataset message type values, stored in DataSetFlags2's low 4 bits.
const (
	DataSetMessageTypeKeyFrame DataSetMessageType = iota
	DataSetMessageTypeDeltaFrame
	DataSetMessageTypeKeepAlive
	DataSetMessageTypeEvent
)

func (t DataSetMessageType) String() string {
	switch t {
	case DataSetMessageTypeKeyFrame:
		return "KEYFRAME"
	case DataSetMessageTypeDeltaFrame:
		return "DELTAFRAME"
	case DataSetMessageTypeKeepAlive:
		return "KEEPALIVE"
	case DataSetMessageTypeEvent:
		return "EVENT"
	default:
		return "UNKNOWN"
	}
}

// FieldEncoding selects how each field inside a DataSetMessage is framed.
type FieldEncoding uint8

// Field encoding values, packed 2 bits wide in DataSetFlags1.
const (
	FieldEncodingVariant FieldEncoding = iota
	FieldEncodingRaw
	FieldEncodingDataValue
	FieldEncodingReserved
)

func (e FieldEncoding) String() string {
	switch e {
	case FieldEncodingVariant:
		return "VARIANT"
	case FieldEncodingRaw:
		return "RAW"
	case FieldEncodingDataValue:
		return "DATAVALUE"
	default:
		return "RESERVED"
	}
}

// DataSetMessageHeader carries the dataset message's own presence flags and
// optional scalar fields.
type DataSetMessageHeader struct {
	Valid         bool
	Type          DataSetMessageType
	FieldEncoding FieldEncoding

	SequenceNumberEnabled bool
	SequenceNumber        uint16

	TimestampEnabled bool
	Timestamp        uint64 // Windows FILETIME ticks (100ns), UtcTime on the wire

	PicosecondsEnabled bool
	Picoseconds        uint16

	StatusEnabled bool
	Status        uint16

	ConfigMajorVersionEnabled bool
	ConfigMajorVersion        uint32

	ConfigMinorVersionEnabled bool
	ConfigMinorVersion        uint32
}

// Flags2Enabled reports whether DataSetFlags2 must be emitted: the dataset
// flags2 presence bit is derived from the message's type/timestamp/
// picoseconds state, never stored independently, mirroring
// UA_DataSetMessageHeader_DataSetFlags2Enabled.
func (h *DataSetMessageHeader) Flags2Enabled() bool {
	return h.Type != DataSetMessageTypeKeyFrame || h.TimestampEnabled || h.PicosecondsEnabled
}

// KeyFrameData is a full snapshot: FieldCount values (VARIANT/DATAVALUE) or
// a single opaque blob (RAW, which carries no on-wire field count).
type KeyFrameData struct {
	Fields    []DataValue // used when FieldEncoding is Variant or DataValue
	RawFields []byte      // used when FieldEncoding is Raw
}

// DeltaFrameEntry is one indexed change in a DeltaFrameData.
type DeltaFrameEntry struct {
	FieldIndex uint16
	Value      DataValue
}

// DeltaFrameData is an indexed set of changed fields.
type DeltaFrameData struct {
	Entries []DeltaFrameEntry
}

// DataSetMessage is one logical record of published field values.
type DataSetMessage struct {
	Header DataSetMessageHeader

	// Exactly one of these is meaningful, selected by Header.Type:
	// KeyFrame for DataSetMessageTypeKeyFrame and DataSetMessageTypeEvent,
	// DeltaFrame for DataSetMessageTypeDeltaFrame; Keyframe/Deltaframe are
	// both zero for keepalive messages.
	KeyFrame   KeyFrameData
	DeltaFrame DeltaFrameData

	// DataSetWriterID is populated on JSON decode and on binary decode
	// (where it is taken from the NetworkMessage's PayloadHeader) to let a
	// DataSetMessage be inspected outside its NetworkMessage. The binary
	// encoder does not read it; it writes the PayloadHeader's ids instead.
	DataSetWriterID uint16
}
