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

package pubsub

// FieldMetaData describes one field of a dataset: its name, wire type, and
// array shape. This is configuration data exchanged out of band (or via
// the "ua-metadata" sibling artifact in pubsub/json) — it is never carried
// on a NetworkMessage itself.
type FieldMetaData struct {
	Name            string
	DataType        NodeID
	BuiltinType     BuiltinType
	ValueRank       int32
	ArrayDimensions []uint32
}

// DataSetMetaData is the field/type schema for one DataSetWriterId,
// the OPC UA counterpart of a SQL table's column definitions.
type DataSetMetaData struct {
	Name          string
	Fields        []FieldMetaData
	ConfigVersion struct {
		MajorVersion uint32
		MinorVersion uint32
	}
}
