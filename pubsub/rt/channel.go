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
	"encoding/binary"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/fraunhoferiosb/opcua-pubsub/pubsub"
)

// State is a Channel's position in the UNINITIALIZED -> CONFIGURED ->
// OPERATIONAL -> DISPOSED lifecycle. Reconfiguring an OPERATIONAL channel
// (or an offset invalidation during Cycle) drops it back to CONFIGURED
// rather than all the way to UNINITIALIZED.
type State uint8

// Channel lifecycle states.
const (
	StateUninitialized State = iota
	StateConfigured
	StateOperational
	StateDisposed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "UNINITIALIZED"
	case StateConfigured:
		return "CONFIGURED"
	case StateOperational:
		return "OPERATIONAL"
	case StateDisposed:
		return "DISPOSED"
	default:
		return "UNKNOWN"
	}
}

// Transport is the minimal collaborator Cycle needs to hand off a
// finished buffer; pubsub/transport's UDP sender implements it.
type Transport interface {
	Register() error
	Send(ctx context.Context, buf []byte) error
	Close() error
}

// SecurityPolicy signs and encrypts a cycle's buffer in place. Encrypt
// covers the byte range from the table's EncryptStart onward; Sign covers
// the bytes from the buffer start up to SignatureStart and returns the
// signature to be written there.
type SecurityPolicy interface {
	Encrypt(buf []byte) error
	Sign(buf []byte) ([]byte, error)
}

// Channel is one persistent realtime publish buffer: a frozen message
// shape, its offset table, and the collaborators that sign/encrypt and
// transmit each cycle's buffer.
type Channel struct {
	mu sync.Mutex

	opts    pubsub.EncodingOptions
	pool    *BufferPool
	metrics *channelMetrics

	state      State
	message    *pubsub.NetworkMessage
	table      OffsetTable
	buf        []byte
	transport  Transport
	security   SecurityPolicy
	configured bool // true once Configure has succeeded at least once
}

// NewChannel builds a Channel in the UNINITIALIZED state. pool may be nil,
// in which case each Configure allocates a fresh buffer; reg may be nil to
// skip metrics registration (e.g. in tests).
func NewChannel(opts pubsub.EncodingOptions, pool *BufferPool, reg prometheus.Registerer, name string) *Channel {
	return &Channel{opts: opts, pool: pool, metrics: newChannelMetrics(reg, name)}
}

// State reports the channel's current lifecycle state.
func (ch *Channel) State() State {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return ch.state
}

// Configure runs calculate_and_record_offsets against m and freezes its
// shape: moves UNINITIALIZED or CONFIGURED to CONFIGURED, or OPERATIONAL
// back to CONFIGURED (a reconfigure), in which case the caller must
// Register again before the next Cycle.
func (ch *Channel) Configure(m *pubsub.NetworkMessage) error {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	if ch.state == StateDisposed {
		return pubsub.NewInvalidArgumentError("channel is disposed")
	}
	table, buf, err := buildOffsetTable(ch.opts, m)
	if err != nil {
		return err
	}
	if ch.configured && table.Fingerprint != ch.table.Fingerprint {
		ch.metrics.reshapes.Inc()
	}
	ch.configured = true
	if ch.pool != nil {
		if ch.buf != nil {
			ch.pool.Put(ch.buf)
		}
		ch.buf = ch.pool.Get(len(buf))
		copy(ch.buf, buf)
	} else {
		ch.buf = buf
	}
	ch.message = m
	ch.table = table
	ch.transport = nil
	ch.state = StateConfigured
	return nil
}

// Register attaches the transport (and, optionally, a security policy)
// this channel will publish through, moving CONFIGURED to OPERATIONAL.
func (ch *Channel) Register(t Transport, sec SecurityPolicy) error {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	if ch.state != StateConfigured {
		return pubsub.NewInvalidArgumentError("channel must be CONFIGURED to register, is %s", ch.state)
	}
	if err := t.Register(); err != nil {
		return err
	}
	ch.transport = t
	ch.security = sec
	ch.state = StateOperational
	return nil
}

// Dispose releases the transport and pooled buffer, moving to the
// terminal DISPOSED state. A disposed channel cannot be reconfigured.
func (ch *Channel) Dispose() error {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	if ch.state == StateDisposed {
		return nil
	}
	var err error
	if ch.transport != nil {
		err = ch.transport.Close()
	}
	if ch.pool != nil && ch.buf != nil {
		ch.pool.Put(ch.buf)
		ch.buf = nil
	}
	ch.state = StateDisposed
	return err
}

// Cycle is the realtime publish fast path: it overwrites the values at
// the offset table's recorded positions from the channel's current
// message, signs/encrypts the buffer if a security policy is installed,
// and hands it to the transport. A field whose newly encoded value no
// longer fits the length recorded at Configure time invalidates the
// table — the channel drops to CONFIGURED and the caller must Configure
// (and Register) again before the next Cycle.
func (ch *Channel) Cycle(ctx context.Context, now time.Time) error {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	if ch.state != StateOperational {
		return pubsub.NewInvalidArgumentError("channel must be OPERATIONAL to cycle, is %s", ch.state)
	}
	if err := ch.patch(); err != nil {
		ch.state = StateConfigured
		ch.metrics.invalidations.Inc()
		return err
	}
	if ch.security != nil {
		encStart := ch.boundary(OffsetEncryptStart, 0)
		if err := ch.security.Encrypt(ch.buf[encStart:]); err != nil {
			ch.metrics.cycleErrors.Inc()
			return pubsub.NewSecurityFailureError("encrypt: %v", err)
		}
		sigStart := ch.boundary(OffsetSignatureStart, len(ch.buf))
		sig, err := ch.security.Sign(ch.buf[:sigStart])
		if err != nil {
			ch.metrics.cycleErrors.Inc()
			return pubsub.NewSecurityFailureError("sign: %v", err)
		}
		copy(ch.buf[sigStart:], sig)
	}
	if err := ch.transport.Send(ctx, ch.buf); err != nil {
		ch.metrics.cycleErrors.Inc()
		return err
	}
	ch.metrics.cycles.Inc()
	_ = now // the publish timestamp is carried on the message itself, via OffsetTimestamp entries
	return nil
}

func (ch *Channel) boundary(kind OffsetKind, fallback int) int {
	for _, e := range ch.table.Entries {
		if e.Kind == kind {
			return e.Offset
		}
	}
	return fallback
}

func (ch *Channel) patch() error {
	for _, e := range ch.table.Entries {
		switch e.Kind {
		case OffsetGroupVersion:
			binary.LittleEndian.PutUint32(ch.buf[e.Offset:], ch.message.GroupHeader.GroupVersion)
		case OffsetNetworkMessageSequenceNumber:
			binary.LittleEndian.PutUint16(ch.buf[e.Offset:], ch.message.GroupHeader.SequenceNumber)
		case OffsetPayloadSize:
			// Derived from each DataSetMessage's own encoded length, which
			// a frozen shape holds constant; nothing to patch per cycle.
		case OffsetDataSetMessageSequenceNumber:
			dsm := ch.message.DataSetMessages[e.DataSetIndex]
			binary.LittleEndian.PutUint16(ch.buf[e.Offset:], dsm.Header.SequenceNumber)
		case OffsetTimestamp:
			dsm := ch.message.DataSetMessages[e.DataSetIndex]
			binary.LittleEndian.PutUint64(ch.buf[e.Offset:], dsm.Header.Timestamp)
		case OffsetStatus:
			dsm := ch.message.DataSetMessages[e.DataSetIndex]
			binary.LittleEndian.PutUint16(ch.buf[e.Offset:], dsm.Header.Status)
		case OffsetRawField:
			dsm := ch.message.DataSetMessages[e.DataSetIndex]
			if len(dsm.KeyFrame.RawFields) != e.Length {
				return pubsub.NewOffsetInvalidatedError(
					"dataset %d raw field length changed %d -> %d bytes",
					e.DataSetIndex, e.Length, len(dsm.KeyFrame.RawFields))
			}
			copy(ch.buf[e.Offset:e.Offset+e.Length], dsm.KeyFrame.RawFields)
		case OffsetKeyframeField:
			dsm := ch.message.DataSetMessages[e.DataSetIndex]
			f := dsm.KeyFrame.Fields[e.FieldIndex]
			encoded, err := encodeField(ch.opts, dsm.Header.FieldEncoding, f)
			if err != nil {
				return err
			}
			if len(encoded) != e.Length {
				return pubsub.NewOffsetInvalidatedError(
					"dataset %d field %d encoded length changed %d -> %d bytes",
					e.DataSetIndex, e.FieldIndex, e.Length, len(encoded))
			}
			copy(ch.buf[e.Offset:e.Offset+e.Length], encoded)
		}
	}
	return nil
}
