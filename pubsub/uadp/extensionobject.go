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

import "github.com/fraunhoferiosb/opcua-pubsub/pubsub"

// EncodeExtensionObject writes {TypeId, encoding byte, body}. When Decoded
// is set and a matching CustomTypeDescriptor is registered, the body is
// re-derived from Decoded via the descriptor's Encode function; otherwise
// the raw Body bytes are written as-is.
func EncodeExtensionObject(c *EncodeCursor, opts pubsub.EncodingOptions, eo pubsub.ExtensionObject) error {
	if err := EncodeNodeID(c, eo.TypeID); err != nil {
		return err
	}
	if err := EncodeByte(c, uint8(eo.Encoding)); err != nil {
		return err
	}
	if eo.Encoding == pubsub.ExtensionObjectEncodingNoBody {
		return nil
	}
	body := eo.Body
	if eo.Decoded != nil {
		if desc := findCustomType(opts, eo.TypeID); desc != nil && desc.Encode != nil {
			b, err := desc.Encode(eo.Decoded)
			if err != nil {
				return pubsub.NewMalformedError("encoding custom type %s: %v", desc.Name, err)
			}
			body = b
		}
	}
	return EncodeByteString(c, body)
}

// DecodeExtensionObject reads an ExtensionObject. When the type is
// registered as a CustomType and the encoding is byte-string, the body is
// additionally decoded recursively into Decoded.
func DecodeExtensionObject(c *DecodeCursor, opts pubsub.EncodingOptions) (pubsub.ExtensionObject, error) {
	var eo pubsub.ExtensionObject
	typeID, err := DecodeNodeID(c)
	if err != nil {
		return eo, err
	}
	eo.TypeID = typeID
	encByte, err := DecodeByte(c)
	if err != nil {
		return eo, err
	}
	eo.Encoding = pubsub.ExtensionObjectEncoding(encByte)
	switch eo.Encoding {
	case pubsub.ExtensionObjectEncodingNoBody:
		return eo, nil
	case pubsub.ExtensionObjectEncodingByteString, pubsub.ExtensionObjectEncodingXML:
		body, err := DecodeByteString(c)
		if err != nil {
			return eo, err
		}
		eo.Body = body
	default:
		return eo, pubsub.NewMalformedError("unknown ExtensionObject encoding byte %d", encByte)
	}
	if eo.Encoding == pubsub.ExtensionObjectEncodingByteString {
		if desc := findCustomType(opts, eo.TypeID); desc != nil && desc.Decode != nil {
			v, err := desc.Decode(eo.Body)
			if err != nil {
				return eo, pubsub.NewMalformedError("decoding custom type %s: %v", desc.Name, err)
			}
			eo.Decoded = v
		}
	}
	return eo, nil
}

func findCustomType(opts pubsub.EncodingOptions, id pubsub.NodeID) *pubsub.CustomTypeDescriptor {
	for i := range opts.CustomTypes {
		d := &opts.CustomTypes[i]
		if d.TypeID.IdentifierType != id.IdentifierType || d.TypeID.NamespaceIndex != id.NamespaceIndex {
			continue
		}
		switch id.IdentifierType {
		case pubsub.NodeIDTypeNumeric:
			if d.TypeID.Numeric == id.Numeric {
				return d
			}
		case pubsub.NodeIDTypeString:
			if d.TypeID.StringID == id.StringID {
				return d
			}
		case pubsub.NodeIDTypeGUID:
			if d.TypeID.GUIDID == id.GUIDID {
				return d
			}
		}
	}
	return nil
}

// EncodeDataValue writes the presence mask byte followed by each present
// field in fixed order: value, status, source timestamp/picoseconds,
// server timestamp/picoseconds.
func EncodeDataValue(c *EncodeCursor, opts pubsub.EncodingOptions, d pubsub.DataValue) error {
	if err := EncodeByte(c, d.Mask()); err != nil {
		return err
	}
	if err := EncodeVariant(c, opts, d.Value); err != nil {
		return err
	}
	if d.HasStatus {
		if err := EncodeUint32(c, d.Status); err != nil {
			return err
		}
	}
	if d.HasSourceTimestamp {
		if err := EncodeDateTime(c, d.SourceTimestamp); err != nil {
			return err
		}
	}
	if d.HasSourcePicoseconds {
		if err := EncodeUint16(c, d.SourcePicoseconds); err != nil {
			return err
		}
	}
	if d.HasServerTimestamp {
		if err := EncodeDateTime(c, d.ServerTimestamp); err != nil {
			return err
		}
	}
	if d.HasServerPicoseconds {
		if err := EncodeUint16(c, d.ServerPicoseconds); err != nil {
			return err
		}
	}
	return nil
}

// DecodeDataValue reads a DataValue.
func DecodeDataValue(c *DecodeCursor, opts pubsub.EncodingOptions) (pubsub.DataValue, error) {
	var d pubsub.DataValue
	mask, err := DecodeByte(c)
	if err != nil {
		return d, err
	}
	d.Value, err = DecodeVariant(c, opts)
	if err != nil {
		return d, err
	}
	if mask&pubsub.DataValueMaskStatus != 0 {
		d.HasStatus = true
		if d.Status, err = DecodeUint32(c); err != nil {
			return d, err
		}
	}
	if mask&pubsub.DataValueMaskSourceTimestamp != 0 {
		d.HasSourceTimestamp = true
		if d.SourceTimestamp, err = DecodeDateTime(c); err != nil {
			return d, err
		}
	}
	if mask&pubsub.DataValueMaskSourcePicoseconds != 0 {
		d.HasSourcePicoseconds = true
		if d.SourcePicoseconds, err = DecodeUint16(c); err != nil {
			return d, err
		}
	}
	if mask&pubsub.DataValueMaskServerTimestamp != 0 {
		d.HasServerTimestamp = true
		if d.ServerTimestamp, err = DecodeDateTime(c); err != nil {
			return d, err
		}
	}
	if mask&pubsub.DataValueMaskServerPicoseconds != 0 {
		d.HasServerPicoseconds = true
		if d.ServerPicoseconds, err = DecodeUint16(c); err != nil {
			return d, err
		}
	}
	return d, nil
}
