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
	"encoding/json"

	"github.com/fraunhoferiosb/opcua-pubsub/pubsub"
)

type jsonFieldMetaData struct {
	Name            string   `json:"Name"`
	DataType        any      `json:"DataType"`
	BuiltinType     uint8    `json:"BuiltinType"`
	ValueRank       int32    `json:"ValueRank,omitempty"`
	ArrayDimensions []uint32 `json:"ArrayDimensions,omitempty"`
}

type jsonDataSetMetaData struct {
	Name          string              `json:"Name"`
	Fields        []jsonFieldMetaData `json:"Fields"`
	MajorVersion  uint32              `json:"MajorVersion"`
	MinorVersion  uint32              `json:"MinorVersion"`
}

// EncodeMetaData marshals a DataSetMetaData: the field name/type/shape
// schema carried by the "ua-metadata" side channel. This is a sibling
// artifact to the NetworkMessage JSON codec, not a NetworkMessage itself —
// used by cmd/pubsub-convert to dump or load a dataset's schema alongside
// its data.
func EncodeMetaData(opts Options, md pubsub.DataSetMetaData) ([]byte, error) {
	jmd := jsonDataSetMetaData{
		Name:         md.Name,
		MajorVersion: md.ConfigVersion.MajorVersion,
		MinorVersion: md.ConfigVersion.MinorVersion,
	}
	jmd.Fields = make([]jsonFieldMetaData, len(md.Fields))
	for i, f := range md.Fields {
		jmd.Fields[i] = jsonFieldMetaData{
			Name:            f.Name,
			DataType:        encodeNodeID(opts, f.DataType),
			BuiltinType:     uint8(f.BuiltinType),
			ValueRank:       f.ValueRank,
			ArrayDimensions: f.ArrayDimensions,
		}
	}
	if opts.PrettyPrint {
		return json.MarshalIndent(jmd, "", "  ")
	}
	return json.Marshal(jmd)
}

// DecodeMetaData unmarshals a DataSetMetaData.
func DecodeMetaData(opts Options, data []byte) (pubsub.DataSetMetaData, error) {
	var jmd jsonDataSetMetaData
	if err := json.Unmarshal(data, &jmd); err != nil {
		return pubsub.DataSetMetaData{}, pubsub.NewMalformedError("decoding DataSetMetaData: %v", err)
	}
	md := pubsub.DataSetMetaData{Name: jmd.Name}
	md.ConfigVersion.MajorVersion = jmd.MajorVersion
	md.ConfigVersion.MinorVersion = jmd.MinorVersion
	md.Fields = make([]pubsub.FieldMetaData, len(jmd.Fields))
	for i, f := range jmd.Fields {
		raw, err := json.Marshal(f.DataType)
		if err != nil {
			return md, err
		}
		dataType, err := decodeNodeID(opts, raw)
		if err != nil {
			return md, pubsub.NewMalformedError("decoding field %q DataType: %v", f.Name, err)
		}
		md.Fields[i] = pubsub.FieldMetaData{
			Name:            f.Name,
			DataType:        dataType,
			BuiltinType:     pubsub.BuiltinType(f.BuiltinType),
			ValueRank:       f.ValueRank,
			ArrayDimensions: f.ArrayDimensions,
		}
	}
	return md, nil
}
