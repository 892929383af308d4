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

// Package uadp implements the bit-packed UADP binary wire format for OPC UA
// PubSub NetworkMessages: a cursor-based primitive codec, the chained
// flag-byte framing, and the DataSetMessage/NetworkMessage encoders,
// decoders, and size calculators built on top of them.
//
// The cursor becomes an explicit parameter passed through every codec call
// (no global mutable position, unlike the C source this is ported from).
// A single EncodeCursor is parameterized by mode: Write actually copies
// bytes into the destination buffer, Count only advances the position so
// the same encode logic doubles as calc_size.
package uadp

import "github.com/fraunhoferiosb/opcua-pubsub/pubsub"

// Mode selects whether an EncodeCursor writes bytes or only counts them.
type Mode uint8

// Cursor modes.
const (
	ModeWrite Mode = iota
	ModeCount
)

// OffsetRecorder receives structural byte offsets during an instrumented
// encode pass. pubsub/rt implements this to build the realtime offset
// table; outside that pass Recorder is nil and Mark costs one nil check.
type OffsetRecorder interface {
	Record(tag string, offset int)
}

// EncodeCursor wraps a destination buffer and the encoder's current
// position. In ModeCount, Buf may be nil; Write only advances Pos and
// never dereferences Buf.
type EncodeCursor struct {
	Mode Mode
	Buf  []byte
	Pos  int

	// Recorder and DSIndex support an instrumented encode
	// pass that records structural offsets as it writes. DSIndex is the
	// current DataSetMessage's position in the payload, set by
	// EncodePayload before each EncodeDataSetMessage call.
	Recorder OffsetRecorder
	DSIndex  int
}

// Mark reports the cursor's current position under tag, if a Recorder is
// installed.
func (c *EncodeCursor) Mark(tag string) {
	if c.Recorder != nil {
		c.Recorder.Record(tag, c.Pos)
	}
}

// NewWriteCursor builds a cursor that writes into buf starting at 0.
func NewWriteCursor(buf []byte) *EncodeCursor {
	return &EncodeCursor{Mode: ModeWrite, Buf: buf}
}

// NewCountCursor builds a cursor that only counts bytes.
func NewCountCursor() *EncodeCursor {
	return &EncodeCursor{Mode: ModeCount}
}

// Write copies p into the cursor's buffer at the current position (in
// ModeWrite) or simply advances Pos by len(p) (in ModeCount).
func (c *EncodeCursor) Write(p []byte) error {
	if c.Mode == ModeCount {
		c.Pos += len(p)
		return nil
	}
	if c.Pos+len(p) > len(c.Buf) {
		return pubsub.NewBufferTooSmallError("need %d bytes at offset %d, have %d", len(p), c.Pos, len(c.Buf))
	}
	copy(c.Buf[c.Pos:], p)
	c.Pos += len(p)
	return nil
}

// WriteByte writes a single byte.
func (c *EncodeCursor) WriteByte(b byte) error {
	return c.Write([]byte{b})
}

// Reserve advances the cursor by n bytes without writing, returning the
// absolute offset the reserved range starts at, so a caller can record the
// offset, encode the real value, and Write it in later. The RT offset
// table does not use it; it records offsets through Mark.
func (c *EncodeCursor) Reserve(n int) (int, error) {
	start := c.Pos
	if err := c.Write(make([]byte, n)); err != nil {
		return 0, err
	}
	return start, nil
}

// DecodeCursor wraps a source buffer and the decoder's current position.
type DecodeCursor struct {
	Buf []byte
	Pos int
}

// NewDecodeCursor builds a cursor reading from buf starting at 0.
func NewDecodeCursor(buf []byte) *DecodeCursor {
	return &DecodeCursor{Buf: buf}
}

// Read returns the next n bytes and advances the cursor.
func (c *DecodeCursor) Read(n int) ([]byte, error) {
	if c.Pos+n > len(c.Buf) {
		return nil, pubsub.NewBufferTooSmallError("need %d bytes at offset %d, have %d", n, c.Pos, len(c.Buf))
	}
	b := c.Buf[c.Pos : c.Pos+n]
	c.Pos += n
	return b, nil
}

// Remaining returns the number of unread bytes.
func (c *DecodeCursor) Remaining() int {
	return len(c.Buf) - c.Pos
}

// PeekByte returns the byte at the current position without advancing.
func (c *DecodeCursor) PeekByte() (byte, error) {
	if c.Remaining() < 1 {
		return 0, pubsub.NewBufferTooSmallError("need 1 byte at offset %d, have %d", c.Pos, len(c.Buf))
	}
	return c.Buf[c.Pos], nil
}
