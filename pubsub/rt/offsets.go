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

// Package rt implements the realtime publish path: a calc_and_record_offsets
// pass over a frozen NetworkMessage shape, and a Channel that reuses the
// resulting offset table to patch a persistent buffer in place every cycle
// instead of re-encoding it from scratch.
package rt

import (
	"strconv"
	"strings"

	"github.com/fraunhoferiosb/opcua-pubsub/pubsub"
	"github.com/fraunhoferiosb/opcua-pubsub/pubsub/uadp"
)

// OffsetKind identifies what an OffsetTable entry points at.
type OffsetKind uint8

// The offset kinds a calc_and_record_offsets pass can produce.
const (
	OffsetNetworkMessageSequenceNumber OffsetKind = iota
	OffsetGroupVersion
	OffsetPayloadSize
	OffsetDataSetMessageSequenceNumber
	OffsetTimestamp
	OffsetStatus
	OffsetKeyframeField
	OffsetRawField
	OffsetSignatureStart
	OffsetEncryptStart
)

func (k OffsetKind) String() string {
	switch k {
	case OffsetNetworkMessageSequenceNumber:
		return "NetworkMessageSequenceNumber"
	case OffsetGroupVersion:
		return "GroupVersion"
	case OffsetPayloadSize:
		return "PayloadSize"
	case OffsetDataSetMessageSequenceNumber:
		return "DataSetMessageSequenceNumber"
	case OffsetTimestamp:
		return "Timestamp"
	case OffsetStatus:
		return "Status"
	case OffsetKeyframeField:
		return "KeyframeField"
	case OffsetRawField:
		return "RawField"
	case OffsetSignatureStart:
		return "SignatureStart"
	case OffsetEncryptStart:
		return "EncryptStart"
	default:
		return "Unknown"
	}
}

// OffsetEntry is one recorded structural offset: a byte position the
// realtime publish path may overwrite (or, for SignatureStart/EncryptStart,
// a boundary it reads) without re-running the full encoder.
type OffsetEntry struct {
	Kind         OffsetKind
	Offset       int
	DataSetIndex int
	FieldIndex   int
	// Length is the number of bytes this entry occupies. For
	// KeyframeField and RawField it bounds what a later cycle may write
	// without invalidating the table; for fixed-width kinds it is
	// informational.
	Length int
}

// OffsetTable is the result of one calc_and_record_offsets pass: every
// entry a later Cycle may patch, plus a fingerprint of the message shape
// the table was built against.
type OffsetTable struct {
	Entries     []OffsetEntry
	Fingerprint uint64
	Size        int
}

// recorder implements uadp.OffsetRecorder, translating the encoder's
// string tags into typed OffsetEntry values.
type recorder struct {
	entries []OffsetEntry
}

func (r *recorder) Record(tag string, offset int) {
	r.entries = append(r.entries, parseTag(tag, offset))
}

func parseTag(tag string, offset int) OffsetEntry {
	switch {
	case tag == "networkmessage.sequencenumber":
		return OffsetEntry{Kind: OffsetNetworkMessageSequenceNumber, Offset: offset, Length: 2}
	case tag == "groupheader.groupversion":
		return OffsetEntry{Kind: OffsetGroupVersion, Offset: offset, Length: 4}
	case tag == "security.encryptstart":
		return OffsetEntry{Kind: OffsetEncryptStart, Offset: offset}
	case tag == "security.signaturestart":
		return OffsetEntry{Kind: OffsetSignatureStart, Offset: offset}
	case strings.HasPrefix(tag, "payloadsize."):
		idx, _ := strconv.Atoi(strings.TrimPrefix(tag, "payloadsize."))
		return OffsetEntry{Kind: OffsetPayloadSize, Offset: offset, DataSetIndex: idx, Length: 2}
	case strings.HasPrefix(tag, "ds."):
		rest := strings.TrimPrefix(tag, "ds.")
		parts := strings.SplitN(rest, ".", 2)
		idx, _ := strconv.Atoi(parts[0])
		if len(parts) != 2 {
			return OffsetEntry{Offset: offset, DataSetIndex: idx}
		}
		switch {
		case parts[1] == "header.sequencenumber":
			return OffsetEntry{Kind: OffsetDataSetMessageSequenceNumber, Offset: offset, DataSetIndex: idx, Length: 2}
		case parts[1] == "header.timestamp":
			return OffsetEntry{Kind: OffsetTimestamp, Offset: offset, DataSetIndex: idx, Length: 8}
		case parts[1] == "header.status":
			return OffsetEntry{Kind: OffsetStatus, Offset: offset, DataSetIndex: idx, Length: 2}
		case parts[1] == "raw":
			return OffsetEntry{Kind: OffsetRawField, Offset: offset, DataSetIndex: idx}
		case strings.HasPrefix(parts[1], "field."):
			j, _ := strconv.Atoi(strings.TrimPrefix(parts[1], "field."))
			return OffsetEntry{Kind: OffsetKeyframeField, Offset: offset, DataSetIndex: idx, FieldIndex: j}
		}
	}
	return OffsetEntry{Offset: offset}
}

// buildOffsetTable runs calculate_and_record_offsets: it encodes m once
// into a freshly allocated buffer while recording the offset of every
// field the realtime path may later patch in place, then resolves the
// variable-length entries' Length from the message itself.
func buildOffsetTable(opts pubsub.EncodingOptions, m *pubsub.NetworkMessage) (OffsetTable, []byte, error) {
	size, err := uadp.CalcSizeNetworkMessage(opts, m)
	if err != nil {
		return OffsetTable{}, nil, err
	}
	buf := make([]byte, size)
	c := uadp.NewWriteCursor(buf)
	rec := &recorder{}
	c.Recorder = rec
	if err := uadp.EncodeNetworkMessage(c, opts, m); err != nil {
		return OffsetTable{}, nil, err
	}
	table := OffsetTable{Entries: rec.entries, Size: size}
	if err := fillLengths(&table, opts, m); err != nil {
		return OffsetTable{}, nil, err
	}
	table.Fingerprint = fingerprint(m)
	return table, buf, nil
}

func fillLengths(t *OffsetTable, opts pubsub.EncodingOptions, m *pubsub.NetworkMessage) error {
	for i := range t.Entries {
		e := &t.Entries[i]
		switch e.Kind {
		case OffsetRawField:
			e.Length = len(m.DataSetMessages[e.DataSetIndex].KeyFrame.RawFields)
		case OffsetKeyframeField:
			dsm := m.DataSetMessages[e.DataSetIndex]
			f := dsm.KeyFrame.Fields[e.FieldIndex]
			n, err := encodedFieldSize(opts, dsm.Header.FieldEncoding, f)
			if err != nil {
				return err
			}
			e.Length = n
		}
	}
	return nil
}

func encodedFieldSize(opts pubsub.EncodingOptions, enc pubsub.FieldEncoding, f pubsub.DataValue) (int, error) {
	c := uadp.NewCountCursor()
	var err error
	if enc == pubsub.FieldEncodingVariant {
		err = uadp.EncodeVariant(c, opts, f.Value)
	} else {
		err = uadp.EncodeDataValue(c, opts, f)
	}
	if err != nil {
		return 0, err
	}
	return c.Pos, nil
}

func encodeField(opts pubsub.EncodingOptions, enc pubsub.FieldEncoding, f pubsub.DataValue) ([]byte, error) {
	n, err := encodedFieldSize(opts, enc, f)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, n)
	c := uadp.NewWriteCursor(buf)
	if enc == pubsub.FieldEncodingVariant {
		err = uadp.EncodeVariant(c, opts, f.Value)
	} else {
		err = uadp.EncodeDataValue(c, opts, f)
	}
	if err != nil {
		return nil, err
	}
	return buf, nil
}
