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
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/fraunhoferiosb/opcua-pubsub/pubsub"
)

type reversibleVariant struct {
	Type       uint8           `json:"Type"`
	Body       json.RawMessage `json:"Body"`
	Dimensions []int32         `json:"Dimension,omitempty"`
}

// EncodeVariant marshals a Variant. In reversible mode (the default) it
// writes {Type, Body, Dimension?}; in non-reversible mode it writes the
// body alone, which the decoder cannot recover a Variant from (the OPC UA
// non-reversible JSON encoding is display-only, never round-tripped).
func EncodeVariant(opts Options, v pubsub.Variant) (json.RawMessage, error) {
	body, err := encodeVariantBody(opts, v)
	if err != nil {
		return nil, err
	}
	if !opts.UseReversible {
		return json.Marshal(body)
	}
	return json.Marshal(reversibleVariant{
		Type:       uint8(v.Type),
		Body:       mustRaw(body),
		Dimensions: v.Dimensions,
	})
}

// DecodeVariant unmarshals a reversible-form Variant. Non-reversible input
// has no type tag to decode against and is rejected.
func DecodeVariant(opts Options, raw json.RawMessage) (pubsub.Variant, error) {
	var rv reversibleVariant
	if err := json.Unmarshal(raw, &rv); err != nil {
		return pubsub.Variant{}, pubsub.NewMalformedError("decoding variant envelope: %v", err)
	}
	if rv.Body == nil {
		return pubsub.Variant{}, pubsub.NewMalformedError("variant missing Body")
	}
	v := pubsub.Variant{Type: pubsub.BuiltinType(rv.Type), Dimensions: rv.Dimensions, IsArray: len(rv.Dimensions) > 0 || isJSONArray(rv.Body)}
	return decodeVariantBody(opts, v, rv.Body)
}

// IsVariantEnvelope reports whether raw looks like a reversible Variant
// wrapper: an object carrying both Type and Body keys. Used by the
// DataSetMessage JSON decoder to distinguish a Variant-encoded field from
// a DataValue-encoded one when field_encoding itself isn't known ahead of
// time from the Payload object alone.
func IsVariantEnvelope(raw json.RawMessage) bool {
	var probe struct {
		Type *uint8          `json:"Type"`
		Body json.RawMessage `json:"Body"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return false
	}
	return probe.Type != nil && probe.Body != nil
}

// isJSONArray reports whether raw's first non-whitespace byte opens a JSON
// array. Dimension alone isn't a reliable array signal: it's only present
// for multi-dimensional Variants, so a plain 1-D array body has to be
// recognized from its own shape.
func isJSONArray(raw json.RawMessage) bool {
	for _, b := range raw {
		switch b {
		case ' ', '\t', '\n', '\r':
			continue
		case '[':
			return true
		default:
			return false
		}
	}
	return false
}

func mustRaw(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage("null")
	}
	return b
}

func encodeVariantBody(opts Options, v pubsub.Variant) (any, error) {
	if v.IsArray {
		return encodeArrayBody(opts, v)
	}
	return encodeScalarBody(opts, v)
}

func encodeFloatJSON(f float64) any {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	default:
		return f
	}
}

func decodeFloatJSON(raw json.RawMessage) (float64, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		switch s {
		case "NaN":
			return math.NaN(), nil
		case "Infinity":
			return math.Inf(1), nil
		case "-Infinity":
			return math.Inf(-1), nil
		}
		return 0, pubsub.NewMalformedError("unrecognized float string %q", s)
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, pubsub.NewMalformedError("decoding float: %v", err)
	}
	return f, nil
}

func encodeScalarBody(opts Options, v pubsub.Variant) (any, error) {
	switch v.Type {
	case pubsub.TypeBoolean:
		return v.Bool, nil
	case pubsub.TypeSByte:
		return v.SByte, nil
	case pubsub.TypeByte:
		return v.Byte, nil
	case pubsub.TypeInt16:
		return v.Int16, nil
	case pubsub.TypeUInt16:
		return v.UInt16, nil
	case pubsub.TypeInt32:
		return v.Int32, nil
	case pubsub.TypeUInt32:
		return v.UInt32, nil
	case pubsub.TypeInt64:
		return fmt.Sprintf("%d", v.Int64), nil
	case pubsub.TypeUInt64:
		return fmt.Sprintf("%d", v.UInt64), nil
	case pubsub.TypeFloat:
		return encodeFloatJSON(float64(v.Float)), nil
	case pubsub.TypeDouble:
		return encodeFloatJSON(v.Double), nil
	case pubsub.TypeString:
		return v.Str, nil
	case pubsub.TypeDateTime:
		return v.DateTime.UTC().Format(time.RFC3339Nano), nil
	case pubsub.TypeGUID:
		return uuid.UUID(v.GUID).String(), nil
	case pubsub.TypeByteString, pubsub.TypeXMLElement:
		body := v.ByteString
		if v.Type == pubsub.TypeXMLElement {
			body = v.XMLElement
		}
		return base64.StdEncoding.EncodeToString(body), nil
	case pubsub.TypeNodeID:
		return encodeNodeID(opts, v.NodeID), nil
	case pubsub.TypeExpandedNodeID:
		return encodeExpandedNodeID(opts, v.ExpandedNodeID), nil
	case pubsub.TypeStatusCode:
		return v.StatusCode, nil
	case pubsub.TypeQualifiedName:
		return encodeQualifiedName(v.QualifiedName), nil
	case pubsub.TypeLocalizedText:
		return encodeLocalizedText(v.LocalizedText), nil
	case pubsub.TypeExtensionObject:
		return encodeExtensionObject(opts, v.ExtensionObject)
	case pubsub.TypeDataValue:
		if v.DataValue == nil {
			return nil, pubsub.NewMalformedError("DataValue variant has nil body")
		}
		return EncodeDataValue(opts, *v.DataValue)
	default:
		return nil, pubsub.NewUnsupportedError("JSON encoding of builtin type %s is not supported", v.Type)
	}
}

func encodeArrayBody(opts Options, v pubsub.Variant) (any, error) {
	switch v.Type {
	case pubsub.TypeBoolean:
		return v.BoolArray, nil
	case pubsub.TypeSByte:
		return v.SByteArray, nil
	case pubsub.TypeByte:
		return v.ByteArray, nil
	case pubsub.TypeInt16:
		return v.Int16Array, nil
	case pubsub.TypeUInt16:
		return v.UInt16Array, nil
	case pubsub.TypeInt32:
		return v.Int32Array, nil
	case pubsub.TypeUInt32:
		return v.UInt32Array, nil
	case pubsub.TypeInt64:
		out := make([]string, len(v.Int64Array))
		for i, e := range v.Int64Array {
			out[i] = fmt.Sprintf("%d", e)
		}
		return out, nil
	case pubsub.TypeUInt64:
		out := make([]string, len(v.UInt64Array))
		for i, e := range v.UInt64Array {
			out[i] = fmt.Sprintf("%d", e)
		}
		return out, nil
	case pubsub.TypeFloat:
		out := make([]any, len(v.FloatArray))
		for i, e := range v.FloatArray {
			out[i] = encodeFloatJSON(float64(e))
		}
		return out, nil
	case pubsub.TypeDouble:
		out := make([]any, len(v.DoubleArray))
		for i, e := range v.DoubleArray {
			out[i] = encodeFloatJSON(e)
		}
		return out, nil
	case pubsub.TypeString:
		return v.StrArray, nil
	case pubsub.TypeDateTime:
		out := make([]string, len(v.DateTimeArray))
		for i, e := range v.DateTimeArray {
			out[i] = e.UTC().Format(time.RFC3339Nano)
		}
		return out, nil
	case pubsub.TypeGUID:
		out := make([]string, len(v.GUIDArray))
		for i, e := range v.GUIDArray {
			out[i] = uuid.UUID(e).String()
		}
		return out, nil
	case pubsub.TypeByteString:
		out := make([]string, len(v.ByteStringArray))
		for i, e := range v.ByteStringArray {
			out[i] = base64.StdEncoding.EncodeToString(e)
		}
		return out, nil
	case pubsub.TypeNodeID:
		out := make([]any, len(v.NodeIDArray))
		for i, e := range v.NodeIDArray {
			out[i] = encodeNodeID(opts, e)
		}
		return out, nil
	case pubsub.TypeStatusCode:
		return v.StatusCodeArray, nil
	case pubsub.TypeLocalizedText:
		out := make([]any, len(v.LocalizedTextArray))
		for i, e := range v.LocalizedTextArray {
			out[i] = encodeLocalizedText(e)
		}
		return out, nil
	case pubsub.TypeExtensionObject:
		out := make([]any, len(v.ExtensionObjectArray))
		for i, e := range v.ExtensionObjectArray {
			b, err := encodeExtensionObject(opts, e)
			if err != nil {
				return nil, err
			}
			out[i] = b
		}
		return out, nil
	default:
		return nil, pubsub.NewUnsupportedError("JSON encoding of %s arrays is not supported", v.Type)
	}
}

func decodeVariantBody(opts Options, v pubsub.Variant, raw json.RawMessage) (pubsub.Variant, error) {
	if v.IsArray {
		return decodeArrayBody(opts, v, raw)
	}
	return decodeScalarBody(opts, v, raw)
}

func decodeScalarBody(opts Options, v pubsub.Variant, raw json.RawMessage) (pubsub.Variant, error) {
	var err error
	switch v.Type {
	case pubsub.TypeBoolean:
		err = json.Unmarshal(raw, &v.Bool)
	case pubsub.TypeSByte:
		err = json.Unmarshal(raw, &v.SByte)
	case pubsub.TypeByte:
		err = json.Unmarshal(raw, &v.Byte)
	case pubsub.TypeInt16:
		err = json.Unmarshal(raw, &v.Int16)
	case pubsub.TypeUInt16:
		err = json.Unmarshal(raw, &v.UInt16)
	case pubsub.TypeInt32:
		err = json.Unmarshal(raw, &v.Int32)
	case pubsub.TypeUInt32:
		err = json.Unmarshal(raw, &v.UInt32)
	case pubsub.TypeInt64:
		var s string
		if err = json.Unmarshal(raw, &s); err == nil {
			_, err = fmt.Sscanf(s, "%d", &v.Int64)
		}
	case pubsub.TypeUInt64:
		var s string
		if err = json.Unmarshal(raw, &s); err == nil {
			_, err = fmt.Sscanf(s, "%d", &v.UInt64)
		}
	case pubsub.TypeFloat:
		var f float64
		f, err = decodeFloatJSON(raw)
		v.Float = float32(f)
	case pubsub.TypeDouble:
		v.Double, err = decodeFloatJSON(raw)
	case pubsub.TypeString:
		err = json.Unmarshal(raw, &v.Str)
	case pubsub.TypeDateTime:
		var s string
		if err = json.Unmarshal(raw, &s); err == nil {
			v.DateTime, err = time.Parse(time.RFC3339Nano, s)
		}
	case pubsub.TypeGUID:
		var s string
		if err = json.Unmarshal(raw, &s); err == nil {
			var u uuid.UUID
			if u, err = uuid.Parse(s); err == nil {
				v.GUID = u
			}
		}
	case pubsub.TypeByteString, pubsub.TypeXMLElement:
		var s string
		if err = json.Unmarshal(raw, &s); err == nil {
			var b []byte
			if b, err = base64.StdEncoding.DecodeString(s); err == nil {
				if v.Type == pubsub.TypeXMLElement {
					v.XMLElement = b
				} else {
					v.ByteString = b
				}
			}
		}
	case pubsub.TypeNodeID:
		v.NodeID, err = decodeNodeID(opts, raw)
	case pubsub.TypeExpandedNodeID:
		v.ExpandedNodeID, err = decodeExpandedNodeID(opts, raw)
	case pubsub.TypeStatusCode:
		err = json.Unmarshal(raw, &v.StatusCode)
	case pubsub.TypeQualifiedName:
		v.QualifiedName, err = decodeQualifiedName(raw)
	case pubsub.TypeLocalizedText:
		v.LocalizedText, err = decodeLocalizedText(raw)
	case pubsub.TypeExtensionObject:
		v.ExtensionObject, err = decodeExtensionObject(opts, raw)
	case pubsub.TypeDataValue:
		var dv pubsub.DataValue
		if dv, err = DecodeDataValue(opts, raw); err == nil {
			v.DataValue = &dv
		}
	default:
		return v, pubsub.NewUnsupportedError("JSON decoding of builtin type %s is not supported", v.Type)
	}
	if err != nil {
		return v, pubsub.NewMalformedError("decoding %s body: %v", v.Type, err)
	}
	return v, nil
}

func decodeArrayBody(opts Options, v pubsub.Variant, raw json.RawMessage) (pubsub.Variant, error) {
	var rawItems []json.RawMessage
	if err := json.Unmarshal(raw, &rawItems); err != nil {
		return v, pubsub.NewMalformedError("decoding %s array: %v", v.Type, err)
	}
	for _, item := range rawItems {
		elem, err := decodeScalarBody(opts, pubsub.Variant{Type: v.Type}, item)
		if err != nil {
			return v, err
		}
		if err := appendArrayElement(&v, elem); err != nil {
			return v, err
		}
	}
	return v, nil
}

func appendArrayElement(v *pubsub.Variant, elem pubsub.Variant) error {
	switch v.Type {
	case pubsub.TypeBoolean:
		v.BoolArray = append(v.BoolArray, elem.Bool)
	case pubsub.TypeSByte:
		v.SByteArray = append(v.SByteArray, elem.SByte)
	case pubsub.TypeByte:
		v.ByteArray = append(v.ByteArray, elem.Byte)
	case pubsub.TypeInt16:
		v.Int16Array = append(v.Int16Array, elem.Int16)
	case pubsub.TypeUInt16:
		v.UInt16Array = append(v.UInt16Array, elem.UInt16)
	case pubsub.TypeInt32:
		v.Int32Array = append(v.Int32Array, elem.Int32)
	case pubsub.TypeUInt32:
		v.UInt32Array = append(v.UInt32Array, elem.UInt32)
	case pubsub.TypeInt64:
		v.Int64Array = append(v.Int64Array, elem.Int64)
	case pubsub.TypeUInt64:
		v.UInt64Array = append(v.UInt64Array, elem.UInt64)
	case pubsub.TypeFloat:
		v.FloatArray = append(v.FloatArray, elem.Float)
	case pubsub.TypeDouble:
		v.DoubleArray = append(v.DoubleArray, elem.Double)
	case pubsub.TypeString:
		v.StrArray = append(v.StrArray, elem.Str)
	case pubsub.TypeDateTime:
		v.DateTimeArray = append(v.DateTimeArray, elem.DateTime)
	case pubsub.TypeGUID:
		v.GUIDArray = append(v.GUIDArray, elem.GUID)
	case pubsub.TypeByteString:
		v.ByteStringArray = append(v.ByteStringArray, elem.ByteString)
	case pubsub.TypeNodeID:
		v.NodeIDArray = append(v.NodeIDArray, elem.NodeID)
	case pubsub.TypeStatusCode:
		v.StatusCodeArray = append(v.StatusCodeArray, elem.StatusCode)
	case pubsub.TypeLocalizedText:
		v.LocalizedTextArray = append(v.LocalizedTextArray, elem.LocalizedText)
	case pubsub.TypeExtensionObject:
		v.ExtensionObjectArray = append(v.ExtensionObjectArray, elem.ExtensionObject)
	default:
		return pubsub.NewUnsupportedError("JSON decoding of %s arrays is not supported", v.Type)
	}
	return nil
}
