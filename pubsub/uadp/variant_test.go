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
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fraunhoferiosb/opcua-pubsub/pubsub"
)

// encodeVariant sizes a buffer via a count pass, then encodes into it.
func encodeVariant(t *testing.T, opts pubsub.EncodingOptions, v pubsub.Variant) []byte {
	t.Helper()
	count := NewCountCursor()
	require.NoError(t, EncodeVariant(count, opts, v))
	buf := make([]byte, count.Pos)
	w := NewWriteCursor(buf)
	require.NoError(t, EncodeVariant(w, opts, v))
	require.Equal(t, len(buf), w.Pos)
	return buf
}

func TestVariantEncodingByteBitLayout(t *testing.T) {
	tests := []struct {
		name string
		in   pubsub.Variant
		want byte // first byte only
	}{
		{name: "scalar uint32", in: pubsub.Variant{Type: pubsub.TypeUInt32, UInt32: 1}, want: byte(pubsub.TypeUInt32)},
		{
			name: "array of uint32",
			in:   pubsub.Variant{Type: pubsub.TypeUInt32, IsArray: true, UInt32Array: []uint32{1, 2}},
			want: byte(pubsub.TypeUInt32) | variantArrayBit,
		},
		{
			name: "array with dimensions",
			in: pubsub.Variant{
				Type: pubsub.TypeUInt32, IsArray: true,
				UInt32Array: []uint32{1, 2, 3, 4}, Dimensions: []int32{2, 2},
			},
			want: byte(pubsub.TypeUInt32) | variantArrayBit | variantDimensionsBit,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := encodeVariant(t, pubsub.EncodingOptions{}, tt.in)
			require.Equal(t, tt.want, buf[0])

			got, err := DecodeVariant(NewDecodeCursor(buf), pubsub.EncodingOptions{})
			require.NoError(t, err)
			require.Equal(t, tt.in, got)
		})
	}
}

func TestVariantScalarRoundTrips(t *testing.T) {
	tests := []struct {
		name string
		in   pubsub.Variant
	}{
		{name: "boolean true", in: pubsub.Variant{Type: pubsub.TypeBoolean, Bool: true}},
		{name: "sbyte negative", in: pubsub.Variant{Type: pubsub.TypeSByte, SByte: -5}},
		{name: "byte", in: pubsub.Variant{Type: pubsub.TypeByte, Byte: 200}},
		{name: "int16 negative", in: pubsub.Variant{Type: pubsub.TypeInt16, Int16: -1000}},
		{name: "uint16", in: pubsub.Variant{Type: pubsub.TypeUInt16, UInt16: 60000}},
		{name: "int32 negative", in: pubsub.Variant{Type: pubsub.TypeInt32, Int32: -100000}},
		{name: "uint32", in: pubsub.Variant{Type: pubsub.TypeUInt32, UInt32: 4000000000}},
		{name: "int64 negative", in: pubsub.Variant{Type: pubsub.TypeInt64, Int64: -1}},
		{name: "uint64", in: pubsub.Variant{Type: pubsub.TypeUInt64, UInt64: 18000000000000000000}},
		{name: "float NaN", in: pubsub.Variant{Type: pubsub.TypeFloat, Float: float32(math.NaN())}},
		{name: "double +Inf", in: pubsub.Variant{Type: pubsub.TypeDouble, Double: math.Inf(1)}},
		{name: "string", in: pubsub.Variant{Type: pubsub.TypeString, Str: "hello"}},
		{name: "datetime", in: pubsub.Variant{Type: pubsub.TypeDateTime, DateTime: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}},
		{name: "guid", in: pubsub.Variant{Type: pubsub.TypeGUID, GUID: [16]byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}}},
		{name: "bytestring", in: pubsub.Variant{Type: pubsub.TypeByteString, ByteString: []byte{0xAA, 0xBB}}},
		{name: "statuscode", in: pubsub.Variant{Type: pubsub.TypeStatusCode, StatusCode: 0x80000000}},
		{
			name: "nodeid numeric",
			in: pubsub.Variant{Type: pubsub.TypeNodeID, NodeID: pubsub.NodeID{
				IdentifierType: pubsub.NodeIDTypeNumeric, NamespaceIndex: 1, Numeric: 42,
			}},
		},
		{
			name: "qualifiedname",
			in:   pubsub.Variant{Type: pubsub.TypeQualifiedName, QualifiedName: pubsub.QualifiedName{NamespaceIndex: 2, Name: "x"}},
		},
		{
			name: "localizedtext",
			in: pubsub.Variant{Type: pubsub.TypeLocalizedText, LocalizedText: pubsub.LocalizedText{
				HasLocale: true, Locale: "en", HasText: true, Text: "hi",
			}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := encodeVariant(t, pubsub.EncodingOptions{}, tt.in)

			got, err := DecodeVariant(NewDecodeCursor(buf), pubsub.EncodingOptions{})
			require.NoError(t, err)

			if tt.in.Type == pubsub.TypeFloat && math.IsNaN(float64(tt.in.Float)) {
				require.True(t, math.IsNaN(float64(got.Float)))
				got.Float = tt.in.Float // NaN != NaN, neutralize for the Equal below
			}
			require.Equal(t, tt.in, got)
		})
	}
}

func TestVariantDataValueTaggedUnion(t *testing.T) {
	inner := pubsub.DataValue{Value: pubsub.Variant{Type: pubsub.TypeInt32, Int32: 7}}
	in := pubsub.Variant{Type: pubsub.TypeDataValue, DataValue: &inner}

	buf := encodeVariant(t, pubsub.EncodingOptions{}, in)
	got, err := DecodeVariant(NewDecodeCursor(buf), pubsub.EncodingOptions{})
	require.NoError(t, err)
	require.NotNil(t, got.DataValue)
	require.Equal(t, inner, *got.DataValue)
}

func TestEncodeVariantDataValueNilPointerFails(t *testing.T) {
	c := NewCountCursor()
	err := EncodeVariant(c, pubsub.EncodingOptions{}, pubsub.Variant{Type: pubsub.TypeDataValue})
	require.Error(t, err)
}

func TestVariantArrayRoundTrips(t *testing.T) {
	tests := []struct {
		name string
		in   pubsub.Variant
	}{
		{name: "uint32 array", in: pubsub.Variant{Type: pubsub.TypeUInt32, IsArray: true, UInt32Array: []uint32{1, 2, 3}}},
		{name: "empty uint32 array", in: pubsub.Variant{Type: pubsub.TypeUInt32, IsArray: true, UInt32Array: []uint32{}}},
		{name: "string array", in: pubsub.Variant{Type: pubsub.TypeString, IsArray: true, StrArray: []string{"a", "bb", ""}}},
		{name: "bool array", in: pubsub.Variant{Type: pubsub.TypeBoolean, IsArray: true, BoolArray: []bool{true, false, true}}},
		{
			name: "localizedtext array",
			in: pubsub.Variant{Type: pubsub.TypeLocalizedText, IsArray: true, LocalizedTextArray: []pubsub.LocalizedText{
				{HasText: true, Text: "a"},
				{HasLocale: true, Locale: "en"},
			}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := encodeVariant(t, pubsub.EncodingOptions{}, tt.in)

			got, err := DecodeVariant(NewDecodeCursor(buf), pubsub.EncodingOptions{})
			require.NoError(t, err)
			require.Equal(t, tt.in, got)
		})
	}
}

func TestVariantArrayWithDimensionsRoundTrips(t *testing.T) {
	in := pubsub.Variant{
		Type: pubsub.TypeUInt32, IsArray: true,
		UInt32Array: []uint32{1, 2, 3, 4, 5, 6},
		Dimensions:  []int32{2, 3},
	}
	buf := encodeVariant(t, pubsub.EncodingOptions{}, in)

	got, err := DecodeVariant(NewDecodeCursor(buf), pubsub.EncodingOptions{})
	require.NoError(t, err)
	require.Equal(t, in, got)
}

func TestDecodeVariantRejectsNegativeArrayLength(t *testing.T) {
	// type byte = UInt32 | array bit, followed by length -1
	buf := []byte{byte(pubsub.TypeUInt32) | variantArrayBit, 0xFF, 0xFF, 0xFF, 0xFF}
	_, err := DecodeVariant(NewDecodeCursor(buf), pubsub.EncodingOptions{})
	require.Error(t, err)
}

func TestDecodeVariantRejectsNegativeDimensionsLength(t *testing.T) {
	// type byte = UInt32 | array bit | dimensions bit, length 0, dims length -1
	buf := []byte{
		byte(pubsub.TypeUInt32) | variantArrayBit | variantDimensionsBit,
		0x00, 0x00, 0x00, 0x00, // array length 0
		0xFF, 0xFF, 0xFF, 0xFF, // dimensions length -1
	}
	_, err := DecodeVariant(NewDecodeCursor(buf), pubsub.EncodingOptions{})
	require.Error(t, err)
}

func TestEncodeVariantUnsupportedTypeFails(t *testing.T) {
	c := NewCountCursor()
	err := EncodeVariant(c, pubsub.EncodingOptions{}, pubsub.Variant{Type: pubsub.BuiltinType(0x3f)})
	require.Error(t, err)
}
