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

import "time"

// DataValue carries a Variant extended with status and source/server
// timestamps, each independently present under a bit in its own encoding
// mask byte.
type DataValue struct {
	Value Variant

	HasStatus             bool
	Status                uint32
	HasSourceTimestamp     bool
	SourceTimestamp        time.Time
	HasSourcePicoseconds   bool
	SourcePicoseconds      uint16
	HasServerTimestamp     bool
	ServerTimestamp        time.Time
	HasServerPicoseconds   bool
	ServerPicoseconds      uint16
}

// DataValueEncodingMask bits, written as the first byte of a DataValue.
const (
	DataValueMaskValue             uint8 = 1 << 0
	DataValueMaskStatus             uint8 = 1 << 1
	DataValueMaskSourceTimestamp    uint8 = 1 << 2
	DataValueMaskServerTimestamp    uint8 = 1 << 3
	DataValueMaskSourcePicoseconds  uint8 = 1 << 4
	DataValueMaskServerPicoseconds  uint8 = 1 << 5
)

// Mask computes the DataValue's encoding mask byte from its presence bits.
// The value bit is always set: a DataValue always carries a Variant.
func (d *DataValue) Mask() uint8 {
	m := DataValueMaskValue
	if d.HasStatus {
		m |= DataValueMaskStatus
	}
	if d.HasSourceTimestamp {
		m |= DataValueMaskSourceTimestamp
	}
	if d.HasServerTimestamp {
		m |= DataValueMaskServerTimestamp
	}
	if d.HasSourcePicoseconds {
		m |= DataValueMaskSourcePicoseconds
	}
	if d.HasServerPicoseconds {
		m |= DataValueMaskServerPicoseconds
	}
	return m
}
