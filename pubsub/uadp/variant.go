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
	"time"

	"github.com/fraunhoferiosb/opcua-pubsub/pubsub"
)

const (
	variantTypeMask       = 0x3f
	variantArrayBit       = 0x80
	variantDimensionsBit  = 0x40
)

// EncodeVariant writes a Variant's encoding byte, optional array length,
// scalar or array payload, and optional dimensions array.
func EncodeVariant(c *EncodeCursor, opts pubsub.EncodingOptions, v pubsub.Variant) error {
	enc := byte(v.Type) & variantTypeMask
	hasDims := len(v.Dimensions) > 0
	if v.IsArray {
		enc |= variantArrayBit
	}
	if hasDims {
		enc |= variantDimensionsBit
	}
	if err := c.WriteByte(enc); err != nil {
		return err
	}
	if v.IsArray {
		if err := encodeVariantArray(c, opts, v); err != nil {
			return err
		}
	} else if err := encodeVariantScalar(c, opts, v); err != nil {
		return err
	}
	if hasDims {
		if err := EncodeInt32(c, int32(len(v.Dimensions))); err != nil {
			return err
		}
		for _, d := range v.Dimensions {
			if err := EncodeInt32(c, d); err != nil {
				return err
			}
		}
	}
	return nil
}

func encodeVariantScalar(c *EncodeCursor, opts pubsub.EncodingOptions, v pubsub.Variant) error {
	switch v.Type {
	case pubsub.TypeBoolean:
		return EncodeBool(c, v.Bool)
	case pubsub.TypeSByte:
		return EncodeByte(c, uint8(v.SByte))
	case pubsub.TypeByte:
		return EncodeByte(c, v.Byte)
	case pubsub.TypeInt16:
		return EncodeInt16(c, v.Int16)
	case pubsub.TypeUInt16:
		return EncodeUint16(c, v.UInt16)
	case pubsub.TypeInt32:
		return EncodeInt32(c, v.Int32)
	case pubsub.TypeUInt32:
		return EncodeUint32(c, v.UInt32)
	case pubsub.TypeInt64:
		return EncodeInt64(c, v.Int64)
	case pubsub.TypeUInt64:
		return EncodeUint64(c, v.UInt64)
	case pubsub.TypeFloat:
		return EncodeFloat32(c, v.Float)
	case pubsub.TypeDouble:
		return EncodeFloat64(c, v.Double)
	case pubsub.TypeString:
		return EncodeString(c, v.Str, false)
	case pubsub.TypeDateTime:
		return EncodeDateTime(c, v.DateTime)
	case pubsub.TypeGUID:
		return EncodeGUID(c, v.GUID)
	case pubsub.TypeByteString, pubsub.TypeXMLElement:
		return EncodeByteString(c, v.ByteString)
	case pubsub.TypeNodeID:
		return EncodeNodeID(c, v.NodeID)
	case pubsub.TypeExpandedNodeID:
		return EncodeExpandedNodeID(c, v.ExpandedNodeID)
	case pubsub.TypeStatusCode:
		return EncodeUint32(c, v.StatusCode)
	case pubsub.TypeQualifiedName:
		return EncodeQualifiedName(c, v.QualifiedName)
	case pubsub.TypeLocalizedText:
		return EncodeLocalizedText(c, v.LocalizedText)
	case pubsub.TypeExtensionObject:
		return EncodeExtensionObject(c, opts, v.ExtensionObject)
	case pubsub.TypeDataValue:
		if v.DataValue == nil {
			return pubsub.NewInvalidArgumentError("Variant tagged DataValue but DataValue is nil")
		}
		return EncodeDataValue(c, opts, *v.DataValue)
	default:
		return pubsub.NewUnsupportedError("unsupported Variant builtin type %s", v.Type)
	}
}

func encodeVariantArray(c *EncodeCursor, opts pubsub.EncodingOptions, v pubsub.Variant) error {
	n := variantArrayLen(v)
	if err := EncodeInt32(c, int32(n)); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		if err := encodeVariantArrayElement(c, opts, v, i); err != nil {
			return err
		}
	}
	return nil
}

func variantArrayLen(v pubsub.Variant) int {
	switch v.Type {
	case pubsub.TypeBoolean:
		return len(v.BoolArray)
	case pubsub.TypeSByte:
		return len(v.SByteArray)
	case pubsub.TypeByte, pubsub.TypeByteString:
		if v.Type == pubsub.TypeByteString {
			return len(v.ByteStringArray)
		}
		return len(v.ByteArray)
	case pubsub.TypeInt16:
		return len(v.Int16Array)
	case pubsub.TypeUInt16:
		return len(v.UInt16Array)
	case pubsub.TypeInt32:
		return len(v.Int32Array)
	case pubsub.TypeUInt32:
		return len(v.UInt32Array)
	case pubsub.TypeInt64:
		return len(v.Int64Array)
	case pubsub.TypeUInt64:
		return len(v.UInt64Array)
	case pubsub.TypeFloat:
		return len(v.FloatArray)
	case pubsub.TypeDouble:
		return len(v.DoubleArray)
	case pubsub.TypeString:
		return len(v.StrArray)
	case pubsub.TypeDateTime:
		return len(v.DateTimeArray)
	case pubsub.TypeGUID:
		return len(v.GUIDArray)
	case pubsub.TypeNodeID:
		return len(v.NodeIDArray)
	case pubsub.TypeStatusCode:
		return len(v.StatusCodeArray)
	case pubsub.TypeLocalizedText:
		return len(v.LocalizedTextArray)
	case pubsub.TypeExtensionObject:
		return len(v.ExtensionObjectArray)
	default:
		return 0
	}
}

func encodeVariantArrayElement(c *EncodeCursor, opts pubsub.EncodingOptions, v pubsub.Variant, i int) error {
	switch v.Type {
	case pubsub.TypeBoolean:
		return EncodeBool(c, v.BoolArray[i])
	case pubsub.TypeSByte:
		return EncodeByte(c, uint8(v.SByteArray[i]))
	case pubsub.TypeByte:
		return EncodeByte(c, v.ByteArray[i])
	case pubsub.TypeInt16:
		return EncodeInt16(c, v.Int16Array[i])
	case pubsub.TypeUInt16:
		return EncodeUint16(c, v.UInt16Array[i])
	case pubsub.TypeInt32:
		return EncodeInt32(c, v.Int32Array[i])
	case pubsub.TypeUInt32:
		return EncodeUint32(c, v.UInt32Array[i])
	case pubsub.TypeInt64:
		return EncodeInt64(c, v.Int64Array[i])
	case pubsub.TypeUInt64:
		return EncodeUint64(c, v.UInt64Array[i])
	case pubsub.TypeFloat:
		return EncodeFloat32(c, v.FloatArray[i])
	case pubsub.TypeDouble:
		return EncodeFloat64(c, v.DoubleArray[i])
	case pubsub.TypeString:
		return EncodeString(c, v.StrArray[i], false)
	case pubsub.TypeDateTime:
		return EncodeDateTime(c, v.DateTimeArray[i])
	case pubsub.TypeGUID:
		return EncodeGUID(c, v.GUIDArray[i])
	case pubsub.TypeByteString:
		return EncodeByteString(c, v.ByteStringArray[i])
	case pubsub.TypeNodeID:
		return EncodeNodeID(c, v.NodeIDArray[i])
	case pubsub.TypeStatusCode:
		return EncodeUint32(c, v.StatusCodeArray[i])
	case pubsub.TypeLocalizedText:
		return EncodeLocalizedText(c, v.LocalizedTextArray[i])
	case pubsub.TypeExtensionObject:
		return EncodeExtensionObject(c, opts, v.ExtensionObjectArray[i])
	default:
		return pubsub.NewUnsupportedError("unsupported Variant array element type %s", v.Type)
	}
}

// DecodeVariant reads a Variant.
func DecodeVariant(c *DecodeCursor, opts pubsub.EncodingOptions) (pubsub.Variant, error) {
	var v pubsub.Variant
	enc, err := DecodeByte(c)
	if err != nil {
		return v, err
	}
	v.Type = pubsub.BuiltinType(enc & variantTypeMask)
	v.IsArray = enc&variantArrayBit != 0
	hasDims := enc&variantDimensionsBit != 0
	if v.IsArray {
		if err := decodeVariantArray(c, opts, &v); err != nil {
			return v, err
		}
	} else if err := decodeVariantScalar(c, opts, &v); err != nil {
		return v, err
	}
	if hasDims {
		n, err := DecodeInt32(c)
		if err != nil {
			return v, err
		}
		if n < 0 {
			return v, pubsub.NewMalformedError("negative dimensions length %d", n)
		}
		dims := make([]int32, n)
		for i := range dims {
			d, err := DecodeInt32(c)
			if err != nil {
				return v, err
			}
			dims[i] = d
		}
		v.Dimensions = dims
	}
	return v, nil
}

func decodeVariantScalar(c *DecodeCursor, opts pubsub.EncodingOptions, v *pubsub.Variant) error {
	var err error
	switch v.Type {
	case pubsub.TypeBoolean:
		v.Bool, err = DecodeBool(c)
	case pubsub.TypeSByte:
		var b uint8
		b, err = DecodeByte(c)
		v.SByte = int8(b)
	case pubsub.TypeByte:
		v.Byte, err = DecodeByte(c)
	case pubsub.TypeInt16:
		v.Int16, err = DecodeInt16(c)
	case pubsub.TypeUInt16:
		v.UInt16, err = DecodeUint16(c)
	case pubsub.TypeInt32:
		v.Int32, err = DecodeInt32(c)
	case pubsub.TypeUInt32:
		v.UInt32, err = DecodeUint32(c)
	case pubsub.TypeInt64:
		v.Int64, err = DecodeInt64(c)
	case pubsub.TypeUInt64:
		v.UInt64, err = DecodeUint64(c)
	case pubsub.TypeFloat:
		v.Float, err = DecodeFloat32(c)
	case pubsub.TypeDouble:
		v.Double, err = DecodeFloat64(c)
	case pubsub.TypeString:
		v.Str, _, err = DecodeString(c)
	case pubsub.TypeDateTime:
		v.DateTime, err = DecodeDateTime(c)
	case pubsub.TypeGUID:
		v.GUID, err = DecodeGUID(c)
	case pubsub.TypeByteString, pubsub.TypeXMLElement:
		v.ByteString, err = DecodeByteString(c)
	case pubsub.TypeNodeID:
		v.NodeID, err = DecodeNodeID(c)
	case pubsub.TypeExpandedNodeID:
		v.ExpandedNodeID, err = DecodeExpandedNodeID(c)
	case pubsub.TypeStatusCode:
		v.StatusCode, err = DecodeUint32(c)
	case pubsub.TypeQualifiedName:
		v.QualifiedName, err = DecodeQualifiedName(c)
	case pubsub.TypeLocalizedText:
		v.LocalizedText, err = DecodeLocalizedText(c)
	case pubsub.TypeExtensionObject:
		v.ExtensionObject, err = DecodeExtensionObject(c, opts)
	case pubsub.TypeDataValue:
		var dv pubsub.DataValue
		dv, err = DecodeDataValue(c, opts)
		v.DataValue = &dv
	default:
		return pubsub.NewUnsupportedError("unsupported Variant builtin type %d", v.Type)
	}
	return err
}

func decodeVariantArray(c *DecodeCursor, opts pubsub.EncodingOptions, v *pubsub.Variant) error {
	n, err := DecodeInt32(c)
	if err != nil {
		return err
	}
	if n < 0 {
		return pubsub.NewMalformedError("negative array length %d", n)
	}
	count := int(n)
	switch v.Type {
	case pubsub.TypeBoolean:
		v.BoolArray = make([]bool, count)
		for i := range v.BoolArray {
			if v.BoolArray[i], err = DecodeBool(c); err != nil {
				return err
			}
		}
	case pubsub.TypeSByte:
		v.SByteArray = make([]int8, count)
		for i := range v.SByteArray {
			b, err := DecodeByte(c)
			if err != nil {
				return err
			}
			v.SByteArray[i] = int8(b)
		}
	case pubsub.TypeByte:
		v.ByteArray = make([]uint8, count)
		for i := range v.ByteArray {
			if v.ByteArray[i], err = DecodeByte(c); err != nil {
				return err
			}
		}
	case pubsub.TypeInt16:
		v.Int16Array = make([]int16, count)
		for i := range v.Int16Array {
			if v.Int16Array[i], err = DecodeInt16(c); err != nil {
				return err
			}
		}
	case pubsub.TypeUInt16:
		v.UInt16Array = make([]uint16, count)
		for i := range v.UInt16Array {
			if v.UInt16Array[i], err = DecodeUint16(c); err != nil {
				return err
			}
		}
	case pubsub.TypeInt32:
		v.Int32Array = make([]int32, count)
		for i := range v.Int32Array {
			if v.Int32Array[i], err = DecodeInt32(c); err != nil {
				return err
			}
		}
	case pubsub.TypeUInt32:
		v.UInt32Array = make([]uint32, count)
		for i := range v.UInt32Array {
			if v.UInt32Array[i], err = DecodeUint32(c); err != nil {
				return err
			}
		}
	case pubsub.TypeInt64:
		v.Int64Array = make([]int64, count)
		for i := range v.Int64Array {
			if v.Int64Array[i], err = DecodeInt64(c); err != nil {
				return err
			}
		}
	case pubsub.TypeUInt64:
		v.UInt64Array = make([]uint64, count)
		for i := range v.UInt64Array {
			if v.UInt64Array[i], err = DecodeUint64(c); err != nil {
				return err
			}
		}
	case pubsub.TypeFloat:
		v.FloatArray = make([]float32, count)
		for i := range v.FloatArray {
			if v.FloatArray[i], err = DecodeFloat32(c); err != nil {
				return err
			}
		}
	case pubsub.TypeDouble:
		v.DoubleArray = make([]float64, count)
		for i := range v.DoubleArray {
			if v.DoubleArray[i], err = DecodeFloat64(c); err != nil {
				return err
			}
		}
	case pubsub.TypeString:
		v.StrArray = make([]string, count)
		for i := range v.StrArray {
			if v.StrArray[i], _, err = DecodeString(c); err != nil {
				return err
			}
		}
	case pubsub.TypeDateTime:
		v.DateTimeArray = make([]time.Time, count)
		for i := range v.DateTimeArray {
			if v.DateTimeArray[i], err = DecodeDateTime(c); err != nil {
				return err
			}
		}
	case pubsub.TypeGUID:
		v.GUIDArray = make([][16]byte, count)
		for i := range v.GUIDArray {
			if v.GUIDArray[i], err = DecodeGUID(c); err != nil {
				return err
			}
		}
	case pubsub.TypeByteString:
		v.ByteStringArray = make([][]byte, count)
		for i := range v.ByteStringArray {
			if v.ByteStringArray[i], err = DecodeByteString(c); err != nil {
				return err
			}
		}
	case pubsub.TypeNodeID:
		v.NodeIDArray = make([]pubsub.NodeID, count)
		for i := range v.NodeIDArray {
			if v.NodeIDArray[i], err = DecodeNodeID(c); err != nil {
				return err
			}
		}
	case pubsub.TypeStatusCode:
		v.StatusCodeArray = make([]uint32, count)
		for i := range v.StatusCodeArray {
			if v.StatusCodeArray[i], err = DecodeUint32(c); err != nil {
				return err
			}
		}
	case pubsub.TypeLocalizedText:
		v.LocalizedTextArray = make([]pubsub.LocalizedText, count)
		for i := range v.LocalizedTextArray {
			if v.LocalizedTextArray[i], err = DecodeLocalizedText(c); err != nil {
				return err
			}
		}
	case pubsub.TypeExtensionObject:
		v.ExtensionObjectArray = make([]pubsub.ExtensionObject, count)
		for i := range v.ExtensionObjectArray {
			if v.ExtensionObjectArray[i], err = DecodeExtensionObject(c, opts); err != nil {
				return err
			}
		}
	default:
		return pubsub.NewUnsupportedError("unsupported Variant array element type %d", v.Type)
	}
	return nil
}
