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

package transport

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestUDPChannelSendReceiveLoopback(t *testing.T) {
	recv := NewUDP(UDPConfig{LocalAddr: "127.0.0.1:0"})
	require.NoError(t, recv.Register())
	defer recv.Close()

	send := NewUDP(UDPConfig{LocalAddr: "127.0.0.1:0", RemoteAddr: recv.conn.LocalAddr().String()})
	require.NoError(t, send.Register())
	defer send.Close()

	ctx := context.Background()
	payload := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	require.NoError(t, send.Send(ctx, payload))

	got, err := recv.Receive(ctx, 2*time.Second)
	require.NoError(t, err)
	require.Equal(t, payload, got)
}

func TestUDPChannelReceiveTimesOut(t *testing.T) {
	recv := NewUDP(UDPConfig{LocalAddr: "127.0.0.1:0"})
	require.NoError(t, recv.Register())
	defer recv.Close()

	_, err := recv.Receive(context.Background(), 50*time.Millisecond)
	require.Error(t, err)
}

func TestUDPChannelReceiveWithInvokesHandler(t *testing.T) {
	recv := NewUDP(UDPConfig{LocalAddr: "127.0.0.1:0"})
	require.NoError(t, recv.Register())
	defer recv.Close()

	send := NewUDP(UDPConfig{LocalAddr: "127.0.0.1:0", RemoteAddr: recv.conn.LocalAddr().String()})
	require.NoError(t, send.Register())
	defer send.Close()

	received := make(chan []byte, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		_ = recv.ReceiveWith(ctx, 50*time.Millisecond, func(_ context.Context, buf []byte) {
			cp := append([]byte(nil), buf...)
			received <- cp
			cancel()
		})
	}()

	require.NoError(t, send.Send(context.Background(), []byte("hello")))

	select {
	case buf := <-received:
		require.Equal(t, []byte("hello"), buf)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for ReceiveWith to invoke handler")
	}
}

func TestUDPChannelSendWithoutRemoteFails(t *testing.T) {
	ch := NewUDP(UDPConfig{LocalAddr: "127.0.0.1:0"})
	require.NoError(t, ch.Register())
	defer ch.Close()

	err := ch.Send(context.Background(), []byte("x"))
	require.Error(t, err)
}
