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

package rt

import (
	"encoding/binary"

	"github.com/cespare/xxhash"

	"github.com/fraunhoferiosb/opcua-pubsub/pubsub"
)

// fingerprint hashes the *shape* of m — which headers are present, and
// each DataSetMessage's type, field encoding, and field count/types — not
// its values. Configure compares this against the previously configured
// fingerprint to tell a value-only Reconfigure from one that actually
// changed the wire layout, the same distinction the offset table's
// OFFSET_INVALIDATED contract is built around.
func fingerprint(m *pubsub.NetworkMessage) uint64 {
	h := xxhash.New()
	var scratch [4]byte
	writeBool := func(b bool) {
		if b {
			scratch[0] = 1
		} else {
			scratch[0] = 0
		}
		h.Write(scratch[:1])
	}
	writeU32 := func(v uint32) {
		binary.LittleEndian.PutUint32(scratch[:4], v)
		h.Write(scratch[:4])
	}
	writeBool(m.PublisherIDEnabled)
	writeU32(uint32(m.PublisherID.Type))
	writeBool(m.GroupHeaderEnabled)
	writeBool(m.PayloadHeaderEnabled)
	writeBool(m.DataSetClassIDEnabled)
	writeBool(m.SecurityEnabled)
	writeBool(m.TimestampEnabled)
	writeBool(m.PicosecondsEnabled)
	writeBool(m.PromotedFieldsEnabled)
	writeU32(uint32(m.MessageType))
	writeU32(uint32(len(m.DataSetMessages)))
	for _, dsm := range m.DataSetMessages {
		writeU32(uint32(dsm.Header.Type))
		writeU32(uint32(dsm.Header.FieldEncoding))
		writeBool(dsm.Header.SequenceNumberEnabled)
		writeBool(dsm.Header.TimestampEnabled)
		writeBool(dsm.Header.StatusEnabled)
		writeBool(dsm.Header.ConfigMajorVersionEnabled)
		writeBool(dsm.Header.ConfigMinorVersionEnabled)
		writeU32(uint32(len(dsm.KeyFrame.Fields)))
		writeU32(uint32(len(dsm.KeyFrame.RawFields)))
		for _, f := range dsm.KeyFrame.Fields {
			writeU32(uint32(f.Value.Type))
			writeBool(f.Value.IsArray)
		}
	}
	return h.Sum64()
}
