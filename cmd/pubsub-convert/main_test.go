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

package main

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fraunhoferiosb/opcua-pubsub/pubsub"
	"github.com/fraunhoferiosb/opcua-pubsub/pubsub/uadp"
)

func sampleMessage() *pubsub.NetworkMessage {
	return &pubsub.NetworkMessage{
		MessageType:          pubsub.MessageTypeDataset,
		PayloadHeaderEnabled: true,
		GroupHeaderEnabled:   true,
		GroupHeader:          pubsub.GroupHeader{GroupVersionEnabled: true, GroupVersion: 7},
		PayloadHeader:        pubsub.DataSetPayloadHeader{DataSetWriterIDs: []uint16{1}},
		DataSetMessages: []pubsub.DataSetMessage{
			{
				Header: pubsub.DataSetMessageHeader{Valid: true, Type: pubsub.DataSetMessageTypeKeyFrame, FieldEncoding: pubsub.FieldEncodingVariant},
				KeyFrame: pubsub.KeyFrameData{
					Fields: []pubsub.DataValue{{Value: pubsub.Variant{Type: pubsub.TypeUInt32, UInt32: 27}}},
				},
			},
		},
	}
}

func TestConvertNetworkMessageBinaryToJSONAndBack(t *testing.T) {
	prettyOut = false
	opts := pubsub.EncodingOptions{}
	m := sampleMessage()
	size, err := uadp.CalcSizeNetworkMessage(opts, m)
	require.NoError(t, err)
	binary, err := uadp.EncodeBinary(make([]byte, size), opts, m)
	require.NoError(t, err)

	jsonBytes, err := convertNetworkMessage(binary, false)
	require.NoError(t, err)
	require.Contains(t, string(jsonBytes), "DataSetWriterId")

	roundTripped, err := convertNetworkMessage(jsonBytes, true)
	require.NoError(t, err)

	decoded, err := uadp.DecodeBinary(roundTripped, opts)
	require.NoError(t, err)
	require.Equal(t, uint32(7), decoded.GroupHeader.GroupVersion)
	require.Equal(t, uint32(27), decoded.DataSetMessages[0].KeyFrame.Fields[0].Value.UInt32)
}
