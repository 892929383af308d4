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

type jsonConfigVersion struct {
	MajorVersion uint32 `json:"MajorVersion"`
	MinorVersion uint32 `json:"MinorVersion"`
}

type jsonDataSetMessage struct {
	DataSetWriterID uint16                     `json:"DataSetWriterId"`
	SequenceNumber  *uint16                    `json:"SequenceNumber,omitempty"`
	MetaDataVersion *jsonConfigVersion         `json:"MetaDataVersion,omitempty"`
	Timestamp       *string                    `json:"Timestamp,omitempty"`
	Status          *uint16                    `json:"Status,omitempty"`
	Payload         map[string]json.RawMessage `json:"Payload,omitempty"`
}

// EncodeDataSetMessage marshals one DataSetMessage. Only the KEYFRAME,
// EVENT, and KEEPALIVE types have a JSON form — DELTAFRAME's indexed,
// partial field set has no defined JSON shape and is rejected, as is the
// RAW field encoding (an opaque byte blob with no natural JSON body).
func EncodeDataSetMessage(opts Options, m pubsub.DataSetMessage) (json.RawMessage, error) {
	if m.Header.FieldEncoding == pubsub.FieldEncodingRaw {
		return nil, pubsub.NewUnsupportedError("RAW field encoding has no JSON representation")
	}
	jm := jsonDataSetMessage{DataSetWriterID: m.DataSetWriterID}
	if m.Header.SequenceNumberEnabled {
		jm.SequenceNumber = &m.Header.SequenceNumber
	}
	if m.Header.ConfigMajorVersionEnabled || m.Header.ConfigMinorVersionEnabled {
		jm.MetaDataVersion = &jsonConfigVersion{
			MajorVersion: m.Header.ConfigMajorVersion,
			MinorVersion: m.Header.ConfigMinorVersion,
		}
	}
	if m.Header.TimestampEnabled {
		s := timeFromTicks(m.Header.Timestamp).Format(rfc3339Nano)
		jm.Timestamp = &s
	}
	if m.Header.StatusEnabled {
		jm.Status = &m.Header.Status
	}
	switch m.Header.Type {
	case pubsub.DataSetMessageTypeKeepAlive:
		// no Payload
	case pubsub.DataSetMessageTypeKeyFrame, pubsub.DataSetMessageTypeEvent:
		md, _ := opts.ForWriter(m.DataSetWriterID)
		payload := make(map[string]json.RawMessage, len(m.KeyFrame.Fields))
		for i, f := range m.KeyFrame.Fields {
			name := md.FieldName(i)
			var raw json.RawMessage
			var err error
			if m.Header.FieldEncoding == pubsub.FieldEncodingVariant {
				raw, err = EncodeVariant(opts, f.Value)
			} else {
				var v any
				v, err = EncodeDataValue(opts, f)
				if err == nil {
					raw, err = json.Marshal(v)
				}
			}
			if err != nil {
				return nil, err
			}
			payload[name] = raw
		}
		jm.Payload = payload
	default:
		return nil, pubsub.NewUnsupportedError("DataSetMessage type %s has no JSON representation", m.Header.Type)
	}
	return json.Marshal(jm)
}

// DecodeDataSetMessage unmarshals one DataSetMessage object. Field order
// and identity come from opts' DataSetMessageMetadata for the object's
// DataSetWriterId — the JSON payload is a name-keyed map, not a positional
// array, so without metadata there is no way to recover field indices.
func DecodeDataSetMessage(opts Options, raw json.RawMessage) (pubsub.DataSetMessage, error) {
	var jm jsonDataSetMessage
	if err := json.Unmarshal(raw, &jm); err != nil {
		return pubsub.DataSetMessage{}, pubsub.NewMalformedError("decoding DataSetMessage: %v", err)
	}
	var m pubsub.DataSetMessage
	m.DataSetWriterID = jm.DataSetWriterID
	h := &m.Header
	h.Valid = true
	if jm.SequenceNumber != nil {
		h.SequenceNumberEnabled = true
		h.SequenceNumber = *jm.SequenceNumber
	}
	if jm.MetaDataVersion != nil {
		h.ConfigMajorVersionEnabled = true
		h.ConfigMinorVersionEnabled = true
		h.ConfigMajorVersion = jm.MetaDataVersion.MajorVersion
		h.ConfigMinorVersion = jm.MetaDataVersion.MinorVersion
	}
	if jm.Timestamp != nil {
		t, err := parseTimestamp(*jm.Timestamp)
		if err != nil {
			return m, pubsub.NewMalformedError("parsing Timestamp: %v", err)
		}
		h.TimestampEnabled = true
		h.Timestamp = ticksFromTime(t)
	}
	if jm.Status != nil {
		h.StatusEnabled = true
		h.Status = *jm.Status
	}
	if jm.Payload == nil {
		h.Type = pubsub.DataSetMessageTypeKeepAlive
		return m, nil
	}
	h.Type = pubsub.DataSetMessageTypeKeyFrame
	md, ok := opts.ForWriter(jm.DataSetWriterID)
	if !ok {
		return m, pubsub.NewUnsupportedError("no field metadata registered for DataSetWriterId %d; cannot resolve Payload field order", jm.DataSetWriterID)
	}
	fields := make([]pubsub.DataValue, len(md.FieldNames))
	fieldEncoding := pubsub.FieldEncodingVariant
	seenFirst := false
	for i, name := range md.FieldNames {
		fieldRaw, present := jm.Payload[name]
		if !present {
			continue
		}
		if !seenFirst {
			if !IsVariantEnvelope(fieldRaw) {
				fieldEncoding = pubsub.FieldEncodingDataValue
			}
			seenFirst = true
		}
		if fieldEncoding == pubsub.FieldEncodingVariant {
			v, err := DecodeVariant(opts, fieldRaw)
			if err != nil {
				return m, err
			}
			fields[i] = pubsub.DataValue{Value: v}
		} else {
			dv, err := DecodeDataValue(opts, fieldRaw)
			if err != nil {
				return m, err
			}
			fields[i] = dv
		}
	}
	h.FieldEncoding = fieldEncoding
	m.KeyFrame.Fields = fields
	return m, nil
}
