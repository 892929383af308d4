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

package json

import (
	gojson "encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fraunhoferiosb/opcua-pubsub/pubsub"
)

var reversible = Reversible(pubsub.EncodingOptions{})

func TestEncodeDecodeVariantScalarRoundTrips(t *testing.T) {
	tests := []struct {
		name string
		in   pubsub.Variant
	}{
		{name: "boolean", in: pubsub.Variant{Type: pubsub.TypeBoolean, Bool: true}},
		{name: "int32", in: pubsub.Variant{Type: pubsub.TypeInt32, Int32: -12345}},
		{name: "uint32", in: pubsub.Variant{Type: pubsub.TypeUInt32, UInt32: 12345}},
		{name: "int64 as string", in: pubsub.Variant{Type: pubsub.TypeInt64, Int64: -9223372036854775808}},
		{name: "uint64 as string", in: pubsub.Variant{Type: pubsub.TypeUInt64, UInt64: 18446744073709551615}},
		{name: "string", in: pubsub.Variant{Type: pubsub.TypeString, Str: "hello"}},
		{name: "datetime", in: pubsub.Variant{Type: pubsub.TypeDateTime, DateTime: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}},
		{name: "guid", in: pubsub.Variant{Type: pubsub.TypeGUID, GUID: [16]byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}}},
		{name: "bytestring", in: pubsub.Variant{Type: pubsub.TypeByteString, ByteString: []byte{0xDE, 0xAD, 0xBE, 0xEF}}},
		{name: "statuscode", in: pubsub.Variant{Type: pubsub.TypeStatusCode, StatusCode: 0x80000000}},
		{
			name: "qualifiedname",
			in:   pubsub.Variant{Type: pubsub.TypeQualifiedName, QualifiedName: pubsub.QualifiedName{NamespaceIndex: 3, Name: "tag"}},
		},
		{
			name: "localizedtext",
			in: pubsub.Variant{Type: pubsub.TypeLocalizedText, LocalizedText: pubsub.LocalizedText{
				HasLocale: true, Locale: "de", HasText: true, Text: "hallo",
			}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := EncodeVariant(reversible, tt.in)
			require.NoError(t, err)

			got, err := DecodeVariant(reversible, raw)
			require.NoError(t, err)
			require.Equal(t, tt.in, got)
		})
	}
}

func TestEncodeVariantReversibleEnvelopeShape(t *testing.T) {
	v := pubsub.Variant{Type: pubsub.TypeUInt32, UInt32: 7}
	raw, err := EncodeVariant(reversible, v)
	require.NoError(t, err)

	var envelope map[string]any
	require.NoError(t, gojson.Unmarshal(raw, &envelope))
	require.Equal(t, float64(pubsub.TypeUInt32), envelope["Type"])
	require.Equal(t, float64(7), envelope["Body"])
	require.NotContains(t, envelope, "Dimension")
}

func TestEncodeVariantNonReversibleIsBodyOnly(t *testing.T) {
	nonReversible := Options{EncodingOptions: pubsub.EncodingOptions{}, UseReversible: false}
	v := pubsub.Variant{Type: pubsub.TypeUInt32, UInt32: 7}

	raw, err := EncodeVariant(nonReversible, v)
	require.NoError(t, err)
	require.Equal(t, "7", string(raw))

	_, err = DecodeVariant(nonReversible, raw)
	require.Error(t, err) // non-reversible form carries no Type tag to decode against
}

func TestEncodeVariantFloatSpecialValues(t *testing.T) {
	tests := []struct {
		name string
		in   float32
		want string
	}{
		{name: "NaN", in: float32(math.NaN()), want: `"NaN"`},
		{name: "+Infinity", in: float32(math.Inf(1)), want: `"Infinity"`},
		{name: "-Infinity", in: float32(math.Inf(-1)), want: `"-Infinity"`},
		{name: "finite", in: 1.5, want: "1.5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := EncodeVariant(reversible, pubsub.Variant{Type: pubsub.TypeFloat, Float: tt.in})
			require.NoError(t, err)

			var envelope struct {
				Body gojson.RawMessage `json:"Body"`
			}
			require.NoError(t, gojson.Unmarshal(raw, &envelope))
			require.Equal(t, tt.want, string(envelope.Body))

			got, err := DecodeVariant(reversible, raw)
			require.NoError(t, err)
			if math.IsNaN(float64(tt.in)) {
				require.True(t, math.IsNaN(float64(got.Float)))
				return
			}
			require.Equal(t, tt.in, got.Float)
		})
	}
}

func TestEncodeVariantDoubleSpecialValues(t *testing.T) {
	raw, err := EncodeVariant(reversible, pubsub.Variant{Type: pubsub.TypeDouble, Double: math.Inf(1)})
	require.NoError(t, err)

	got, err := DecodeVariant(reversible, raw)
	require.NoError(t, err)
	require.True(t, math.IsInf(got.Double, 1))
}

func TestEncodeVariantByteStringUsesBase64(t *testing.T) {
	in := []byte{0x00, 0xFF, 0x10, 0x20}
	raw, err := EncodeVariant(reversible, pubsub.Variant{Type: pubsub.TypeByteString, ByteString: in})
	require.NoError(t, err)

	var envelope struct {
		Body string `json:"Body"`
	}
	require.NoError(t, gojson.Unmarshal(raw, &envelope))
	require.Equal(t, "AP8QIA==", envelope.Body)
}

func TestEncodeVariantGUIDUsesCanonicalTextForm(t *testing.T) {
	g := [16]byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0A, 0x0B, 0x0C, 0x0D, 0x0E, 0x0F, 0x10}
	raw, err := EncodeVariant(reversible, pubsub.Variant{Type: pubsub.TypeGUID, GUID: g})
	require.NoError(t, err)

	var envelope struct {
		Body string `json:"Body"`
	}
	require.NoError(t, gojson.Unmarshal(raw, &envelope))
	require.Equal(t, "01020304-0506-0708-090a-0b0c0d0e0f10", envelope.Body)
}

func TestEncodeVariantDateTimeUsesRFC3339Nano(t *testing.T) {
	ts := time.Date(2026, 7, 30, 18, 4, 5, 123000000, time.UTC)
	raw, err := EncodeVariant(reversible, pubsub.Variant{Type: pubsub.TypeDateTime, DateTime: ts})
	require.NoError(t, err)

	var envelope struct {
		Body string `json:"Body"`
	}
	require.NoError(t, gojson.Unmarshal(raw, &envelope))
	require.Equal(t, "2026-07-30T18:04:05.123Z", envelope.Body)
}

func TestEncodeDecodeVariantArrayRoundTrips(t *testing.T) {
	tests := []struct {
		name string
		in   pubsub.Variant
	}{
		{name: "uint32 array", in: pubsub.Variant{Type: pubsub.TypeUInt32, IsArray: true, UInt32Array: []uint32{1, 2, 3}}},
		{name: "string array", in: pubsub.Variant{Type: pubsub.TypeString, IsArray: true, StrArray: []string{"a", "b"}}},
		{
			name: "float array with NaN",
			in:   pubsub.Variant{Type: pubsub.TypeFloat, IsArray: true, FloatArray: []float32{1.5, float32(math.NaN())}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := EncodeVariant(reversible, tt.in)
			require.NoError(t, err)

			got, err := DecodeVariant(reversible, raw)
			require.NoError(t, err)
			require.True(t, got.IsArray)

			if tt.in.Type == pubsub.TypeFloat {
				require.Len(t, got.FloatArray, len(tt.in.FloatArray))
				require.Equal(t, tt.in.FloatArray[0], got.FloatArray[0])
				require.True(t, math.IsNaN(float64(got.FloatArray[1])))
				return
			}
			require.Equal(t, tt.in, got)
		})
	}
}

func TestEncodeVariantArrayWithDimensions(t *testing.T) {
	v := pubsub.Variant{Type: pubsub.TypeUInt32, IsArray: true, UInt32Array: []uint32{1, 2, 3, 4}, Dimensions: []int32{2, 2}}
	raw, err := EncodeVariant(reversible, v)
	require.NoError(t, err)

	var envelope map[string]any
	require.NoError(t, gojson.Unmarshal(raw, &envelope))
	dims, ok := envelope["Dimension"].([]any)
	require.True(t, ok)
	require.Equal(t, []any{float64(2), float64(2)}, dims)

	got, err := DecodeVariant(reversible, raw)
	require.NoError(t, err)
	require.Equal(t, v, got)
}

func TestDecodeVariantRejectsMissingBody(t *testing.T) {
	raw := []byte(`{"Type":7}`)
	_, err := DecodeVariant(reversible, raw)
	require.Error(t, err)
}

func TestIsVariantEnvelopeDetectsReversibleWrapper(t *testing.T) {
	reversibleRaw, err := EncodeVariant(reversible, pubsub.Variant{Type: pubsub.TypeUInt32, UInt32: 1})
	require.NoError(t, err)
	require.True(t, IsVariantEnvelope(reversibleRaw))

	bareValue := []byte(`{"SomeField":1}`)
	require.False(t, IsVariantEnvelope(bareValue))
}

func TestEncodeDecodeDataValueWithAllOptionalFields(t *testing.T) {
	d := pubsub.DataValue{
		Value:                pubsub.Variant{Type: pubsub.TypeUInt32, UInt32: 99},
		HasStatus:            true,
		Status:               0x80000000,
		HasSourceTimestamp:   true,
		SourceTimestamp:      time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		HasSourcePicoseconds: true,
		SourcePicoseconds:    500,
		HasServerTimestamp:   true,
		ServerTimestamp:      time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
		HasServerPicoseconds: true,
		ServerPicoseconds:    250,
	}
	raw, err := EncodeDataValue(reversible, d)
	require.NoError(t, err)
	encoded, err := gojson.Marshal(raw)
	require.NoError(t, err)

	got, err := DecodeDataValue(reversible, encoded)
	require.NoError(t, err)
	require.Equal(t, d.Value, got.Value)
	require.Equal(t, d.HasStatus, got.HasStatus)
	require.Equal(t, d.Status, got.Status)
	require.True(t, d.SourceTimestamp.Equal(got.SourceTimestamp))
	require.Equal(t, d.SourcePicoseconds, got.SourcePicoseconds)
	require.True(t, d.ServerTimestamp.Equal(got.ServerTimestamp))
	require.Equal(t, d.ServerPicoseconds, got.ServerPicoseconds)
}
