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

	"github.com/google/uuid"

	"github.com/fraunhoferiosb/opcua-pubsub/pubsub"
)

type jsonNodeID struct {
	IdType    *int `json:"IdType,omitempty"`
	ID        any  `json:"Id"`
	Namespace any  `json:"Namespace,omitempty"`
}

func nodeIDID(n pubsub.NodeID) any {
	switch n.IdentifierType {
	case pubsub.NodeIDTypeString:
		return n.StringID
	case pubsub.NodeIDTypeGUID:
		return uuid.UUID(n.GUIDID).String()
	case pubsub.NodeIDTypeOpaque:
		return base64.StdEncoding.EncodeToString(n.Opaque)
	default:
		return n.Numeric
	}
}

func encodeNodeID(opts Options, n pubsub.NodeID) jsonNodeID {
	out := jsonNodeID{ID: nodeIDID(n)}
	if n.IdentifierType != pubsub.NodeIDTypeNumeric {
		it := int(n.IdentifierType)
		out.IdType = &it
	}
	if n.NamespaceIndex != 0 {
		if opts.StringNodeIDs && int(n.NamespaceIndex) < len(opts.Namespaces) {
			out.Namespace = opts.Namespaces[n.NamespaceIndex]
		} else {
			out.Namespace = n.NamespaceIndex
		}
	}
	return out
}

func decodeNodeID(opts Options, raw json.RawMessage) (pubsub.NodeID, error) {
	var jn struct {
		IdType    int             `json:"IdType"`
		ID        json.RawMessage `json:"Id"`
		Namespace json.RawMessage `json:"Namespace"`
	}
	if err := json.Unmarshal(raw, &jn); err != nil {
		return pubsub.NodeID{}, err
	}
	n := pubsub.NodeID{IdentifierType: pubsub.NodeIDType(jn.IdType)}
	switch n.IdentifierType {
	case pubsub.NodeIDTypeString:
		if err := json.Unmarshal(jn.ID, &n.StringID); err != nil {
			return n, err
		}
	case pubsub.NodeIDTypeGUID:
		var s string
		if err := json.Unmarshal(jn.ID, &s); err != nil {
			return n, err
		}
		u, err := uuid.Parse(s)
		if err != nil {
			return n, err
		}
		n.GUIDID = u
	case pubsub.NodeIDTypeOpaque:
		var s string
		if err := json.Unmarshal(jn.ID, &s); err != nil {
			return n, err
		}
		b, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return n, err
		}
		n.Opaque = b
	default:
		if err := json.Unmarshal(jn.ID, &n.Numeric); err != nil {
			return n, err
		}
	}
	if len(jn.Namespace) > 0 {
		var ns uint16
		if err := json.Unmarshal(jn.Namespace, &ns); err == nil {
			n.NamespaceIndex = ns
		} else {
			var name string
			if err := json.Unmarshal(jn.Namespace, &name); err != nil {
				return n, err
			}
			for i, candidate := range opts.Namespaces {
				if candidate == name {
					n.NamespaceIndex = uint16(i)
					break
				}
			}
		}
	}
	return n, nil
}

func encodeExpandedNodeID(opts Options, n pubsub.ExpandedNodeID) any {
	base := encodeNodeID(opts, n.NodeID)
	out := struct {
		jsonNodeID
		ServerURI string `json:"ServerUri,omitempty"`
	}{jsonNodeID: base, ServerURI: n.NamespaceURI}
	return out
}

func decodeExpandedNodeID(opts Options, raw json.RawMessage) (pubsub.ExpandedNodeID, error) {
	base, err := decodeNodeID(opts, raw)
	if err != nil {
		return pubsub.ExpandedNodeID{}, err
	}
	var extra struct {
		ServerURI string `json:"ServerUri"`
	}
	if err := json.Unmarshal(raw, &extra); err != nil {
		return pubsub.ExpandedNodeID{}, err
	}
	return pubsub.ExpandedNodeID{NodeID: base, NamespaceURI: extra.ServerURI}, nil
}

func encodeQualifiedName(q pubsub.QualifiedName) any {
	type jqn struct {
		Name string `json:"Name"`
		URI  uint16 `json:"Uri,omitempty"`
	}
	return jqn{Name: q.Name, URI: q.NamespaceIndex}
}

func decodeQualifiedName(raw json.RawMessage) (pubsub.QualifiedName, error) {
	var jqn struct {
		Name string `json:"Name"`
		URI  uint16 `json:"Uri"`
	}
	if err := json.Unmarshal(raw, &jqn); err != nil {
		return pubsub.QualifiedName{}, err
	}
	return pubsub.QualifiedName{Name: jqn.Name, NamespaceIndex: jqn.URI}, nil
}

func encodeLocalizedText(t pubsub.LocalizedText) any {
	type jlt struct {
		Locale string `json:"Locale,omitempty"`
		Text   string `json:"Text,omitempty"`
	}
	out := jlt{}
	if t.HasLocale {
		out.Locale = t.Locale
	}
	if t.HasText {
		out.Text = t.Text
	}
	return out
}

func decodeLocalizedText(raw json.RawMessage) (pubsub.LocalizedText, error) {
	var jlt struct {
		Locale *string `json:"Locale"`
		Text   *string `json:"Text"`
	}
	if err := json.Unmarshal(raw, &jlt); err != nil {
		return pubsub.LocalizedText{}, err
	}
	var lt pubsub.LocalizedText
	if jlt.Locale != nil {
		lt.HasLocale = true
		lt.Locale = *jlt.Locale
	}
	if jlt.Text != nil {
		lt.HasText = true
		lt.Text = *jlt.Text
	}
	return lt, nil
}

func encodeExtensionObject(opts Options, eo pubsub.ExtensionObject) (any, error) {
	out := struct {
		TypeID any `json:"TypeId"`
		Body   any `json:"Body,omitempty"`
	}{TypeID: encodeNodeID(opts, eo.TypeID)}
	if eo.Decoded != nil {
		if desc := findCustomType(opts, eo.TypeID); desc != nil && desc.EncodeJSON != nil {
			body, err := desc.EncodeJSON(eo.Decoded)
			if err != nil {
				return nil, pubsub.NewMalformedError("encoding custom type %s to JSON: %v", desc.Name, err)
			}
			out.Body = body
			return out, nil
		}
	}
	if eo.Body != nil {
		out.Body = base64.StdEncoding.EncodeToString(eo.Body)
	}
	return out, nil
}

func decodeExtensionObject(opts Options, raw json.RawMessage) (pubsub.ExtensionObject, error) {
	var jeo struct {
		TypeID json.RawMessage `json:"TypeId"`
		Body   json.RawMessage `json:"Body"`
	}
	if err := json.Unmarshal(raw, &jeo); err != nil {
		return pubsub.ExtensionObject{}, err
	}
	var eo pubsub.ExtensionObject
	if jeo.TypeID != nil {
		typeID, err := decodeNodeID(opts, jeo.TypeID)
		if err != nil {
			return eo, err
		}
		eo.TypeID = typeID
	}
	if jeo.Body == nil {
		eo.Encoding = pubsub.ExtensionObjectEncodingNoBody
		return eo, nil
	}
	eo.Encoding = pubsub.ExtensionObjectEncodingByteString
	if desc := findCustomType(opts, eo.TypeID); desc != nil && desc.DecodeJSON != nil {
		var generic any
		if err := json.Unmarshal(jeo.Body, &generic); err != nil {
			return eo, err
		}
		decoded, err := desc.DecodeJSON(generic)
		if err != nil {
			return eo, pubsub.NewMalformedError("decoding custom type %s from JSON: %v", desc.Name, err)
		}
		eo.Decoded = decoded
		return eo, nil
	}
	var s string
	if err := json.Unmarshal(jeo.Body, &s); err == nil {
		if b, err := base64.StdEncoding.DecodeString(s); err == nil {
			eo.Body = b
		}
	}
	return eo, nil
}

func findCustomType(opts Options, id pubsub.NodeID) *pubsub.CustomTypeDescriptor {
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

type jsonDataValue struct {
	Value             json.RawMessage `json:"Value"`
	Status            *uint32         `json:"Status,omitempty"`
	SourceTimestamp   *string         `json:"SourceTimestamp,omitempty"`
	SourcePicoseconds *uint16         `json:"SourcePicoseconds,omitempty"`
	ServerTimestamp   *string         `json:"ServerTimestamp,omitempty"`
	ServerPicoseconds *uint16         `json:"ServerPicoseconds,omitempty"`
}

// EncodeDataValue marshals a DataValue: the value as EncodeVariant writes
// it (under the Variant envelope when opts.UseReversible is set) plus
// whichever optional status/timestamp keys are set.
func EncodeDataValue(opts Options, d pubsub.DataValue) (any, error) {
	value, err := EncodeVariant(opts, d.Value)
	if err != nil {
		return nil, err
	}
	jd := jsonDataValue{Value: value}
	if d.HasStatus {
		jd.Status = &d.Status
	}
	if d.HasSourceTimestamp {
		s := d.SourceTimestamp.UTC().Format(rfc3339Nano)
		jd.SourceTimestamp = &s
	}
	if d.HasSourcePicoseconds {
		jd.SourcePicoseconds = &d.SourcePicoseconds
	}
	if d.HasServerTimestamp {
		s := d.ServerTimestamp.UTC().Format(rfc3339Nano)
		jd.ServerTimestamp = &s
	}
	if d.HasServerPicoseconds {
		jd.ServerPicoseconds = &d.ServerPicoseconds
	}
	return jd, nil
}

// DecodeDataValue unmarshals a DataValue envelope.
func DecodeDataValue(opts Options, raw json.RawMessage) (pubsub.DataValue, error) {
	var jd jsonDataValue
	if err := json.Unmarshal(raw, &jd); err != nil {
		return pubsub.DataValue{}, err
	}
	var d pubsub.DataValue
	v, err := DecodeVariant(opts, jd.Value)
	if err != nil {
		return d, err
	}
	d.Value = v
	if jd.Status != nil {
		d.HasStatus = true
		d.Status = *jd.Status
	}
	if jd.SourceTimestamp != nil {
		d.HasSourceTimestamp = true
		if d.SourceTimestamp, err = parseTimestamp(*jd.SourceTimestamp); err != nil {
			return d, err
		}
	}
	if jd.SourcePicoseconds != nil {
		d.HasSourcePicoseconds = true
		d.SourcePicoseconds = *jd.SourcePicoseconds
	}
	if jd.ServerTimestamp != nil {
		d.HasServerTimestamp = true
		if d.ServerTimestamp, err = parseTimestamp(*jd.ServerTimestamp); err != nil {
			return d, err
		}
	}
	if jd.ServerPicoseconds != nil {
		d.HasServerPicoseconds = true
		d.ServerPicoseconds = *jd.ServerPicoseconds
	}
	return d, nil
}
