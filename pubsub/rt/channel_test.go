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
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/fraunhoferiosb/opcua-pubsub/pubsub"
	"github.com/fraunhoferiosb/opcua-pubsub/pubsub/uadp"
)

type fakeTransport struct {
	registered bool
	closed     bool
	sent       [][]byte
}

func (f *fakeTransport) Register() error { f.registered = true; return nil }
func (f *fakeTransport) Close() error     { f.closed = true; return nil }
func (f *fakeTransport) Send(_ context.Context, buf []byte) error {
	cp := append([]byte(nil), buf...)
	f.sent = append(f.sent, cp)
	return nil
}

func testMessage(counter uint32, name string) *pubsub.NetworkMessage {
	return &pubsub.NetworkMessage{
		MessageType:          pubsub.MessageTypeDataset,
		PayloadHeaderEnabled: true,
		GroupHeaderEnabled:   true,
		GroupHeader: pubsub.GroupHeader{
			GroupVersionEnabled: true,
			GroupVersion:        1,
		},
		PayloadHeader: pubsub.DataSetPayloadHeader{DataSetWriterIDs: []uint16{7}},
		DataSetMessages: []pubsub.DataSetMessage{
			{
				Header: pubsub.DataSetMessageHeader{
					Valid:         true,
					Type:          pubsub.DataSetMessageTypeKeyFrame,
					FieldEncoding: pubsub.FieldEncodingVariant,
				},
				KeyFrame: pubsub.KeyFrameData{
					Fields: []pubsub.DataValue{
						{Value: pubsub.Variant{Type: pubsub.TypeUInt32, UInt32: counter}},
						{Value: pubsub.Variant{Type: pubsub.TypeString, Str: name}},
					},
				},
			},
		},
	}
}

func TestChannelCyclePatchesInPlace(t *testing.T) {
	opts := pubsub.EncodingOptions{}
	ch := NewChannel(opts, nil, nil, "test")

	m := testMessage(1, "abc")
	require.NoError(t, ch.Configure(m))
	require.Equal(t, StateConfigured, ch.State())

	tr := &fakeTransport{}
	require.NoError(t, ch.Register(tr, nil))
	require.Equal(t, StateOperational, ch.State())
	require.True(t, tr.registered)

	require.NoError(t, ch.Cycle(context.Background(), time.Time{}))
	require.Len(t, tr.sent, 1)

	m.GroupHeader.GroupVersion = 2
	m.DataSetMessages[0].KeyFrame.Fields[0].Value.UInt32 = 42
	require.NoError(t, ch.Cycle(context.Background(), time.Time{}))
	require.Len(t, tr.sent, 2)
	require.NotEqual(t, tr.sent[0], tr.sent[1])

	decoded, err := uadp.DecodeBinary(tr.sent[1], opts)
	require.NoError(t, err)
	require.Equal(t, uint32(2), decoded.GroupHeader.GroupVersion)
	require.Equal(t, uint32(42), decoded.DataSetMessages[0].KeyFrame.Fields[0].Value.UInt32)
	require.Equal(t, "abc", decoded.DataSetMessages[0].KeyFrame.Fields[1].Value.Str)
}

func TestChannelCycleInvalidatesOnShapeChange(t *testing.T) {
	opts := pubsub.EncodingOptions{}
	ch := NewChannel(opts, nil, nil, "test-invalidate")

	m := testMessage(1, "abc")
	require.NoError(t, ch.Configure(m))
	require.NoError(t, ch.Register(&fakeTransport{}, nil))

	m.DataSetMessages[0].KeyFrame.Fields[1].Value.Str = "a much longer string than before"
	err := ch.Cycle(context.Background(), time.Time{})
	require.Error(t, err)
	var pubsubErr *pubsub.Error
	require.True(t, errors.As(err, &pubsubErr))
	require.Equal(t, pubsub.ErrorKindOffsetInvalidated, pubsubErr.Kind)
	require.Equal(t, StateConfigured, ch.State())
}

func TestChannelRejectsCycleBeforeOperational(t *testing.T) {
	ch := NewChannel(pubsub.EncodingOptions{}, nil, nil, "test-lifecycle")
	err := ch.Cycle(context.Background(), time.Time{})
	require.Error(t, err)

	m := testMessage(1, "abc")
	require.NoError(t, ch.Configure(m))
	err = ch.Cycle(context.Background(), time.Time{})
	require.Error(t, err, "must be registered before cycling")

	require.NoError(t, ch.Dispose())
	require.Equal(t, StateDisposed, ch.State())
	require.Error(t, ch.Configure(m), "a disposed channel cannot be reconfigured")
}

func TestChannelConfigureCountsReshapesOnlyOnShapeChange(t *testing.T) {
	reg := prometheus.NewRegistry()
	ch := NewChannel(pubsub.EncodingOptions{}, nil, reg, "test-reshape")

	m := testMessage(1, "abc")
	require.NoError(t, ch.Configure(m))
	require.Equal(t, float64(0), testutil.ToFloat64(ch.metrics.reshapes), "first Configure has nothing to compare against")

	m.DataSetMessages[0].KeyFrame.Fields[0].Value.UInt32 = 2
	require.NoError(t, ch.Configure(m))
	require.Equal(t, float64(0), testutil.ToFloat64(ch.metrics.reshapes), "value-only reconfigure is not a reshape")

	m.DataSetMessages[0].KeyFrame.Fields = append(m.DataSetMessages[0].KeyFrame.Fields,
		pubsub.DataValue{Value: pubsub.Variant{Type: pubsub.TypeBoolean, Bool: true}})
	require.NoError(t, ch.Configure(m))
	require.Equal(t, float64(1), testutil.ToFloat64(ch.metrics.reshapes), "adding a field changes the shape")
}
