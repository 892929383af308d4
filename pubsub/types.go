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

// Package pubsub defines the OPC UA PubSub NetworkMessage data model: the
// nested variant-of-records shared by the binary (UADP) and JSON codecs in
// the uadp and json subpackages.
package pubsub

import (
	"time"

	"github.com/google/uuid"
)

// MessageType identifies the overall kind of a NetworkMessage.
type MessageType uint8

// As per the UADP ExtendedFlags2 messageType field; only Dataset is fully
// supported end-to-end.
const (
	MessageTypeDataset          MessageType = 0x0
	MessageTypeDiscoveryRequest MessageType = 0x1
	MessageTypeDiscoveryResp    MessageType = 0x2
)

func (m MessageType) String() string {
	switch m {
	case MessageTypeDataset:
		return "DATASET"
	case MessageTypeDiscoveryRequest:
		return "DISCOVERY_REQUEST"
	case MessageTypeDiscoveryResp:
		return "DISCOVERY_RESPONSE"
	default:
		return "UNKNOWN"
	}
}

// PublisherIDType is the tag of the PublisherID union, stored in 3 bits of
// ExtendedFlags1.
type PublisherIDType uint8

// Publisher ID tag values.
const (
	PublisherIDTypeByte PublisherIDType = iota
	PublisherIDTypeUInt16
	PublisherIDTypeUInt32
	PublisherIDTypeUInt64
	PublisherIDTypeString
	PublisherIDTypeGUID
)

// PublisherID is a tagged union over the six publisher identifier shapes.
// Exactly one of the fields matching Type is meaningful.
type PublisherID struct {
	Type   PublisherIDType
	Byte   uint8
	UInt16 uint16
	UInt32 uint32
	UInt64 uint64
	String string
	GUID   uuid.UUID
}

// GroupHeader carries the group-scoped, independently-flagged fields.
type GroupHeader struct {
	WriterGroupIDEnabled        bool
	WriterGroupID               uint16
	GroupVersionEnabled         bool
	GroupVersion                uint32
	NetworkMessageNumberEnabled bool
	NetworkMessageNumber        uint16
	SequenceNumberEnabled       bool
	SequenceNumber              uint16
}

// DataSetPayloadHeader carries the per-message writer-id table and its
// implicit count, which also governs the length of Payload.DataSetMessages.
type DataSetPayloadHeader struct {
	DataSetWriterIDs []uint16
}

// Count is the wire count field; it is never stored separately from len(ids).
func (h *DataSetPayloadHeader) Count() int {
	return len(h.DataSetWriterIDs)
}

// SecurityHeader frames the security envelope around the payload.
type SecurityHeader struct {
	Signed        bool
	Encrypted     bool
	FooterEnabled bool
	ForceKeyReset bool
	TokenID       uint32
	Nonce         []byte
	FooterSize    uint16
}

// NetworkMessage is one transport-level packet carrying one or more
// DataSetMessages plus framing and an optional security envelope.
type NetworkMessage struct {
	Version     uint8
	MessageType MessageType

	PublisherIDEnabled     bool
	GroupHeaderEnabled     bool
	PayloadHeaderEnabled   bool
	DataSetClassIDEnabled  bool
	SecurityEnabled        bool
	TimestampEnabled       bool
	PicosecondsEnabled     bool
	PromotedFieldsEnabled  bool
	ChunkMessage           bool
	MessageIDEnabled       bool

	MessageID       string
	PublisherID     PublisherID
	DataSetClassID  uuid.UUID

	GroupHeader GroupHeader

	PayloadHeader DataSetPayloadHeader

	Timestamp      time.Time
	Picoseconds    uint16
	PromotedFields []Variant

	SecurityHeader SecurityHeader

	DataSetMessages []DataSetMessage

	SecurityFooter []byte
	Signature      []byte
}

// ExtendedFlags1Enabled reports whether ExtendedFlags1 must be emitted,
// per the NetworkMessage codec's ordering rule: it is present whenever
// ExtendedFlags2 is present or any ExtendedFlags1-gated field is set.
func (m *NetworkMessage) ExtendedFlags1Enabled() bool {
	return m.PublisherID.Type != PublisherIDTypeByte ||
		m.DataSetClassIDEnabled ||
		m.SecurityEnabled ||
		m.TimestampEnabled ||
		m.PicosecondsEnabled ||
		m.ExtendedFlags2Enabled()
}

// ExtendedFlags2Enabled reports whether ExtendedFlags2 must be emitted.
func (m *NetworkMessage) ExtendedFlags2Enabled() bool {
	return m.ChunkMessage || m.PromotedFieldsEnabled || m.MessageType != MessageTypeDataset
}

// EncodingOptions is supplied by the caller at encode/decode time; it
// replaces the C source's UA_NetworkMessage_EncodingOptions external
// metadata array. It is never stored on the message itself.
type EncodingOptions struct {
	DataSets []DataSetMessageMetadata
	// CustomTypes is consulted by the Variant/ExtensionObject codec to
	// recognize user-defined structured types (e.g. Point in S6).
	CustomTypes []CustomTypeDescriptor
}

// DataSetMessageMetadata supplies the field names (for JSON) and field
// count (for RAW decoding) for one DataSetWriterId. The codec never infers
// this information from the wire.
type DataSetMessageMetadata struct {
	WriterID   uint16
	FieldNames []string
	// RawLength is the byte length of a RAW-field-encoded keyframe body.
	// Only consulted when the NetworkMessage carries exactly one
	// DataSetMessage with no per-message size prefix (payload_header
	// disabled, or enabled with count = 1) — with a size prefix, the raw
	// body length is derived from the prefix instead.
	RawLength int
}

// FieldName returns the caller-supplied name for field index i, or "" if
// none was supplied (spec-mandated JSON fallback).
func (m DataSetMessageMetadata) FieldName(i int) string {
	if i < 0 || i >= len(m.FieldNames) {
		return ""
	}
	return m.FieldNames[i]
}

// ForWriter finds the metadata entry for a given DataSetWriterId, if any.
func (o EncodingOptions) ForWriter(id uint16) (DataSetMessageMetadata, bool) {
	for _, d := range o.DataSets {
		if d.WriterID == id {
			return d, true
		}
	}
	return DataSetMessageMetadata{}, false
}
