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

// Package transport defines the Transport collaborator a publisher or
// subscriber registers against a channel, plus a UDP multicast
// implementation grounded on ptp4u/server and sptp/client's own socket
// setup.
package transport

import (
	"context"
	"time"
)

// Sender is the publish-side transport collaborator: register the
// channel, hand off a finished buffer, release the socket on shutdown.
// pubsub/rt.Channel depends on exactly this interface.
type Sender interface {
	Register() error
	Send(ctx context.Context, buf []byte) error
	Close() error
}

// MessageHandler processes one arrived message; buf is only valid for the
// duration of the call.
type MessageHandler func(ctx context.Context, buf []byte)

// Receiver is the subscribe-side transport collaborator. Receive pulls one
// message per call; ReceiveWith runs until ctx is done or ReceiveWith's own
// read loop errors, invoking handler per arrived message — the "pull
// callback" alternative named alongside Receive.
type Receiver interface {
	Register() error
	Receive(ctx context.Context, timeout time.Duration) ([]byte, error)
	ReceiveWith(ctx context.Context, timeout time.Duration, handler MessageHandler) error
	Close() error
}
