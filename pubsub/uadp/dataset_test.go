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

package uadp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fraunhoferiosb/opcua-pubsub/pubsub"
)

var exampleTimestamp = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestDataSetMessageHeaderFlags2Derivation(t *testing.T) {
	tests := []struct {
		name string
		h    pubsub.DataSetMessageHeader
		want bool
	}{
		{name: "keyframe no timestamp no picoseconds", h: pubsub.DataSetMessageHeader{Type: pubsub.DataSetMessageTypeKeyFrame}, want: false},
		{name: "keyframe with timestamp", h: pubsub.DataSetMessageHeader{Type: pubsub.DataSetMessageTypeKeyFrame, TimestampEnabled: true}, want: true},
		{name: "keyframe with picoseconds", h: pubsub.DataSetMessageHeader{Type: pubsub.DataSetMessageTypeKeyFrame, PicosecondsEnabled: true}, want: true},
		{name: "deltaframe always", h: pubsub.DataSetMessageHeader{Type: pubsub.DataSetMessageTypeDeltaFrame}, want: true},
		{name: "keepalive always", h: pubsub.DataSetMessageHeader{Type: pubsub.DataSetMessageTypeKeepAlive}, want: true},
		{name: "event always", h: pubsub.DataSetMessageHeader{Type: pubsub.DataSetMessageTypeEvent}, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.h.Flags2Enabled())
		})
	}
}

func TestEncodeDecodeDataSetMessageHeaderRoundTrips(t *testing.T) {
	tests := []struct {
		name string
		h    pubsub.DataSetMessageHeader
	}{
		{
			name: "keyframe minimal",
			h:    pubsub.DataSetMessageHeader{Valid: true, Type: pubsub.DataSetMessageTypeKeyFrame, FieldEncoding: pubsub.FieldEncodingVariant},
		},
		{
			name: "keyframe all optional fields",
			h: pubsub.DataSetMessageHeader{
				Valid: true, Type: pubsub.DataSetMessageTypeKeyFrame, FieldEncoding: pubsub.FieldEncodingRaw,
				SequenceNumberEnabled: true, SequenceNumber: 7,
				TimestampEnabled: true, Timestamp: 123456789,
				PicosecondsEnabled: true, Picoseconds: 42,
				StatusEnabled: true, Status: 0,
				ConfigMajorVersionEnabled: true, ConfigMajorVersion: 1,
				ConfigMinorVersionEnabled: true, ConfigMinorVersion: 2,
			},
		},
		{
			name: "deltaframe",
			h:    pubsub.DataSetMessageHeader{Valid: true, Type: pubsub.DataSetMessageTypeDeltaFrame, FieldEncoding: pubsub.FieldEncodingDataValue},
		},
		{
			name: "keepalive",
			h:    pubsub.DataSetMessageHeader{Valid: true, Type: pubsub.DataSetMessageTypeKeepAlive},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			count := NewCountCursor()
			require.NoError(t, EncodeDataSetMessageHeader(count, tt.h))
			buf := make([]byte, count.Pos)
			require.NoError(t, EncodeDataSetMessageHeader(NewWriteCursor(buf), tt.h))

			got, err := DecodeDataSetMessageHeader(NewDecodeCursor(buf))
			require.NoError(t, err)
			require.Equal(t, tt.h, got)
		})
	}
}

func encodeDataSetMessage(t *testing.T, opts pubsub.EncodingOptions, m pubsub.DataSetMessage) []byte {
	t.Helper()
	size, err := CalcSizeDataSetMessage(opts, m)
	require.NoError(t, err)
	buf := make([]byte, size)
	w := NewWriteCursor(buf)
	require.NoError(t, EncodeDataSetMessage(w, opts, m))
	require.Equal(t, size, w.Pos)
	return buf
}

func TestEncodeDecodeDataSetMessageKeyFrameVariant(t *testing.T) {
	m := pubsub.DataSetMessage{
		Header: pubsub.DataSetMessageHeader{Valid: true, Type: pubsub.DataSetMessageTypeKeyFrame, FieldEncoding: pubsub.FieldEncodingVariant},
		KeyFrame: pubsub.KeyFrameData{
			Fields: []pubsub.DataValue{
				{Value: pubsub.Variant{Type: pubsub.TypeUInt32, UInt32: 99}},
				{Value: pubsub.Variant{Type: pubsub.TypeString, Str: "abc"}},
			},
		},
	}
	opts := pubsub.EncodingOptions{}
	buf := encodeDataSetMessage(t, opts, m)

	got, err := DecodeDataSetMessage(NewDecodeCursor(buf), opts, len(buf), 0)
	require.NoError(t, err)
	require.Equal(t, m.KeyFrame, got.KeyFrame)
}

func TestEncodeDecodeDataSetMessageKeyFrameDataValue(t *testing.T) {
	m := pubsub.DataSetMessage{
		Header: pubsub.DataSetMessageHeader{Valid: true, Type: pubsub.DataSetMessageTypeKeyFrame, FieldEncoding: pubsub.FieldEncodingDataValue},
		KeyFrame: pubsub.KeyFrameData{
			Fields: []pubsub.DataValue{
				{
					Value:              pubsub.Variant{Type: pubsub.TypeDouble, Double: 3.25},
					HasStatus:          true,
					Status:             0x80000000,
					HasSourceTimestamp: true,
					SourceTimestamp:    exampleTimestamp,
				},
				{Value: pubsub.Variant{Type: pubsub.TypeBoolean, Bool: true}},
			},
		},
	}
	opts := pubsub.EncodingOptions{}
	buf := encodeDataSetMessage(t, opts, m)

	got, err := DecodeDataSetMessage(NewDecodeCursor(buf), opts, len(buf), 0)
	require.NoError(t, err)
	require.Equal(t, m.KeyFrame, got.KeyFrame)
}

func TestEncodeDecodeDataSetMessageKeyFrameRawUsesHintWhenNoSizePrefix(t *testing.T) {
	raw := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	m := pubsub.DataSetMessage{
		Header:   pubsub.DataSetMessageHeader{Valid: true, Type: pubsub.DataSetMessageTypeKeyFrame, FieldEncoding: pubsub.FieldEncodingRaw},
		KeyFrame: pubsub.KeyFrameData{RawFields: raw},
	}
	opts := pubsub.EncodingOptions{}
	buf := encodeDataSetMessage(t, opts, m)

	// msgSize 0 forces the caller-supplied rawLenHint path.
	got, err := DecodeDataSetMessage(NewDecodeCursor(buf), opts, 0, len(raw))
	require.NoError(t, err)
	require.Equal(t, raw, got.KeyFrame.RawFields)
}

func TestEncodeDecodeDataSetMessageKeyFrameRawUsesSizePrefixWhenGiven(t *testing.T) {
	raw := []byte{0x01, 0x02, 0x03}
	m := pubsub.DataSetMessage{
		Header:   pubsub.DataSetMessageHeader{Valid: true, Type: pubsub.DataSetMessageTypeKeyFrame, FieldEncoding: pubsub.FieldEncodingRaw},
		KeyFrame: pubsub.KeyFrameData{RawFields: raw},
	}
	opts := pubsub.EncodingOptions{}
	buf := encodeDataSetMessage(t, opts, m)

	got, err := DecodeDataSetMessage(NewDecodeCursor(buf), opts, len(buf), 0)
	require.NoError(t, err)
	require.Equal(t, raw, got.KeyFrame.RawFields)
}

func TestDecodeDataSetMessageRejectsSizeSmallerThanHeader(t *testing.T) {
	m := pubsub.DataSetMessage{
		Header: pubsub.DataSetMessageHeader{Valid: true, Type: pubsub.DataSetMessageTypeKeyFrame, FieldEncoding: pubsub.FieldEncodingRaw, SequenceNumberEnabled: true},
	}
	opts := pubsub.EncodingOptions{}
	buf := encodeDataSetMessage(t, opts, m)

	// header is 3 bytes (flags1 + sequence number); declare a size of 1.
	_, err := DecodeDataSetMessage(NewDecodeCursor(buf), opts, 1, 0)
	require.Error(t, err)
}

func TestEncodeDecodeDataSetMessageDeltaFrameFieldCount(t *testing.T) {
	// Regression: DeltaFrame field count must reflect len(Entries), the
	// number of changed fields, not some unrelated total field count.
	m := pubsub.DataSetMessage{
		Header: pubsub.DataSetMessageHeader{Valid: true, Type: pubsub.DataSetMessageTypeDeltaFrame},
		DeltaFrame: pubsub.DeltaFrameData{
			Entries: []pubsub.DeltaFrameEntry{
				{FieldIndex: 0, Value: pubsub.DataValue{Value: pubsub.Variant{Type: pubsub.TypeUInt32, UInt32: 1}}},
				{FieldIndex: 3, Value: pubsub.DataValue{Value: pubsub.Variant{Type: pubsub.TypeUInt32, UInt32: 2}}},
			},
		},
	}
	opts := pubsub.EncodingOptions{}
	buf := encodeDataSetMessage(t, opts, m)

	// header is 2 bytes (flags1 + flags2, deltaframe always carries flags2);
	// the next 2 bytes are the little-endian entry count.
	require.Equal(t, uint16(len(m.DeltaFrame.Entries)), uint16(buf[2])|uint16(buf[3])<<8)

	got, err := DecodeDataSetMessage(NewDecodeCursor(buf), opts, len(buf), 0)
	require.NoError(t, err)
	require.Equal(t, m.DeltaFrame, got.DeltaFrame)
}

func TestEncodeDataSetMessageRejectsReservedFieldEncoding(t *testing.T) {
	m := pubsub.DataSetMessage{
		Header: pubsub.DataSetMessageHeader{Valid: true, Type: pubsub.DataSetMessageTypeKeyFrame, FieldEncoding: pubsub.FieldEncodingReserved},
	}
	_, err := CalcSizeDataSetMessage(pubsub.EncodingOptions{}, m)
	require.Error(t, err)
}

func TestDecodeDataSetMessageRejectsReservedFieldEncoding(t *testing.T) {
	// flags1 byte: valid=1, fieldEncoding=RESERVED(3) in bits 1-2 => 0b00000111
	buf := []byte{0x07}
	_, err := DecodeDataSetMessage(NewDecodeCursor(buf), pubsub.EncodingOptions{}, len(buf), 0)
	require.Error(t, err)
}

func TestEncodeDecodeDataSetMessageKeepAliveHasNoBody(t *testing.T) {
	m := pubsub.DataSetMessage{Header: pubsub.DataSetMessageHeader{Valid: true, Type: pubsub.DataSetMessageTypeKeepAlive}}
	opts := pubsub.EncodingOptions{}
	buf := encodeDataSetMessage(t, opts, m)
	require.Equal(t, 2, len(buf)) // flags1 + flags2, no body

	got, err := DecodeDataSetMessage(NewDecodeCursor(buf), opts, len(buf), 0)
	require.NoError(t, err)
	require.Equal(t, pubsub.KeyFrameData{}, got.KeyFrame)
	require.Equal(t, pubsub.DeltaFrameData{}, got.DeltaFrame)
}
