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

package uadp

import (
	"encoding/binary"
	"math"
	"time"

	"github.com/fraunhoferiosb/opcua-pubsub/pubsub"
)

// filetimeEpoch is the Windows FILETIME epoch (1601-01-01) DateTime values
// are encoded relative to, in 100ns ticks.
var filetimeEpoch = time.Date(1601, 1, 1, 0, 0, 0, 0, time.UTC)

// EncodeByte writes a single byte.
func EncodeByte(c *EncodeCursor, v uint8) error {
	return c.WriteByte(v)
}

// DecodeByte reads a single byte.
func DecodeByte(c *DecodeCursor) (uint8, error) {
	b, err := c.Read(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// EncodeUint16 writes a little-endian uint16.
func EncodeUint16(c *EncodeCursor, v uint16) error {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	return c.Write(b[:])
}

// DecodeUint16 reads a little-endian uint16.
func DecodeUint16(c *DecodeCursor) (uint16, error) {
	b, err := c.Read(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// EncodeUint32 writes a little-endian uint32.
func EncodeUint32(c *EncodeCursor, v uint32) error {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	return c.Write(b[:])
}

// DecodeUint32 reads a little-endian uint32.
func DecodeUint32(c *DecodeCursor) (uint32, error) {
	b, err := c.Read(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// EncodeUint64 writes a little-endian uint64.
func EncodeUint64(c *EncodeCursor, v uint64) error {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	return c.Write(b[:])
}

// DecodeUint64 reads a little-endian uint64.
func DecodeUint64(c *DecodeCursor) (uint64, error) {
	b, err := c.Read(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// EncodeInt16 writes a little-endian int16.
func EncodeInt16(c *EncodeCursor, v int16) error { return EncodeUint16(c, uint16(v)) }

// DecodeInt16 reads a little-endian int16.
func DecodeInt16(c *DecodeCursor) (int16, error) {
	v, err := DecodeUint16(c)
	return int16(v), err
}

// EncodeInt32 writes a little-endian int32.
func EncodeInt32(c *EncodeCursor, v int32) error { return EncodeUint32(c, uint32(v)) }

// DecodeInt32 reads a little-endian int32.
func DecodeInt32(c *DecodeCursor) (int32, error) {
	v, err := DecodeUint32(c)
	return int32(v), err
}

// EncodeInt64 writes a little-endian int64.
func EncodeInt64(c *EncodeCursor, v int64) error { return EncodeUint64(c, uint64(v)) }

// DecodeInt64 reads a little-endian int64.
func DecodeInt64(c *DecodeCursor) (int64, error) {
	v, err := DecodeUint64(c)
	return int64(v), err
}

// EncodeFloat32 writes an IEEE 754 binary32; bit patterns (including NaN
// and infinities) round-trip exactly.
func EncodeFloat32(c *EncodeCursor, v float32) error {
	return EncodeUint32(c, math.Float32bits(v))
}

// DecodeFloat32 reads an IEEE 754 binary32.
func DecodeFloat32(c *DecodeCursor) (float32, error) {
	v, err := DecodeUint32(c)
	return math.Float32frombits(v), err
}

// EncodeFloat64 writes an IEEE 754 binary64.
func EncodeFloat64(c *EncodeCursor, v float64) error {
	return EncodeUint64(c, math.Float64bits(v))
}

// DecodeFloat64 reads an IEEE 754 binary64.
func DecodeFloat64(c *DecodeCursor) (float64, error) {
	v, err := DecodeUint64(c)
	return math.Float64frombits(v), err
}

// EncodeString writes {length: i32, bytes}; length -1 represents a null
// string, distinct from an empty one.
func EncodeString(c *EncodeCursor, s string, isNull bool) error {
	if isNull {
		return EncodeInt32(c, -1)
	}
	if err := EncodeInt32(c, int32(len(s))); err != nil {
		return err
	}
	return c.Write([]byte(s))
}

// DecodeString reads a length-prefixed string. The second return value is
// true when the string was encoded as null (length -1).
func DecodeString(c *DecodeCursor) (string, bool, error) {
	n, err := DecodeInt32(c)
	if err != nil {
		return "", false, err
	}
	if n < -1 {
		return "", false, pubsub.NewMalformedError("negative string length %d", n)
	}
	if n == -1 {
		return "", true, nil
	}
	b, err := c.Read(int(n))
	if err != nil {
		return "", false, err
	}
	return string(b), false, nil
}

// EncodeByteString writes a byte string using the same {length, bytes}
// framing as a string; nil is encoded as null.
func EncodeByteString(c *EncodeCursor, b []byte) error {
	if b == nil {
		return EncodeInt32(c, -1)
	}
	if err := EncodeInt32(c, int32(len(b))); err != nil {
		return err
	}
	return c.Write(b)
}

// DecodeByteString reads a byte string; a null encoding (length -1)
// decodes to a nil slice.
func DecodeByteString(c *DecodeCursor) ([]byte, error) {
	n, err := DecodeInt32(c)
	if err != nil {
		return nil, err
	}
	if n < -1 {
		return nil, pubsub.NewMalformedError("negative byte string length %d", n)
	}
	if n == -1 {
		return nil, nil
	}
	b, err := c.Read(int(n))
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}

// EncodeGUID writes a GUID in its OPC UA wire layout: Data1 (u32 LE),
// Data2 (u16 LE), Data3 (u16 LE), Data4 (8 raw bytes) — distinct from the
// RFC 4122 byte order used by uuid.UUID's own Marshal methods.
func EncodeGUID(c *EncodeCursor, g [16]byte) error {
	var b [16]byte
	binary.LittleEndian.PutUint32(b[0:], binary.BigEndian.Uint32(g[0:4]))
	binary.LittleEndian.PutUint16(b[4:], binary.BigEndian.Uint16(g[4:6]))
	binary.LittleEndian.PutUint16(b[6:], binary.BigEndian.Uint16(g[6:8]))
	copy(b[8:], g[8:16])
	return c.Write(b[:])
}

// DecodeGUID reads a GUID in its OPC UA wire layout.
func DecodeGUID(c *DecodeCursor) ([16]byte, error) {
	var g [16]byte
	b, err := c.Read(16)
	if err != nil {
		return g, err
	}
	binary.BigEndian.PutUint32(g[0:4], binary.LittleEndian.Uint32(b[0:4]))
	binary.BigEndian.PutUint16(g[4:6], binary.LittleEndian.Uint16(b[4:6]))
	binary.BigEndian.PutUint16(g[6:8], binary.LittleEndian.Uint16(b[6:8]))
	copy(g[8:16], b[8:16])
	return g, nil
}

// EncodeDateTime writes a 64-bit FILETIME-epoch, 100ns-tick DateTime.
func EncodeDateTime(c *EncodeCursor, t time.Time) error {
	t = t.UTC()
	ticks := (t.Unix()-filetimeEpoch.Unix())*1e7 + int64(t.Nanosecond()/100)
	return EncodeInt64(c, ticks)
}

// DecodeDateTime reads a 64-bit FILETIME-epoch DateTime.
func DecodeDateTime(c *DecodeCursor) (time.Time, error) {
	ticks, err := DecodeInt64(c)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(filetimeEpoch.Unix()+ticks/1e7, (ticks%1e7)*100).UTC(), nil
}

// EncodeBool writes a Boolean as a single byte, 0 or 1.
func EncodeBool(c *EncodeCursor, v bool) error {
	if v {
		return c.WriteByte(1)
	}
	return c.WriteByte(0)
}

// DecodeBool reads a Boolean byte.
func DecodeBool(c *DecodeCursor) (bool, error) {
	b, err := DecodeByte(c)
	return b != 0, err
}

// EncodeLocalizedText writes the presence mask then the optional locale
// and text strings.
func EncodeLocalizedText(c *EncodeCursor, v pubsub.LocalizedText) error {
	var mask uint8
	if v.HasLocale {
		mask |= 1
	}
	if v.HasText {
		mask |= 2
	}
	if err := EncodeByte(c, mask); err != nil {
		return err
	}
	if v.HasLocale {
		if err := EncodeString(c, v.Locale, false); err != nil {
			return err
		}
	}
	if v.HasText {
		if err := EncodeString(c, v.Text, false); err != nil {
			return err
		}
	}
	return nil
}

// DecodeLocalizedText reads a LocalizedText.
func DecodeLocalizedText(c *DecodeCursor) (pubsub.LocalizedText, error) {
	var lt pubsub.LocalizedText
	mask, err := DecodeByte(c)
	if err != nil {
		return lt, err
	}
	if mask&1 != 0 {
		lt.HasLocale = true
		lt.Locale, _, err = DecodeString(c)
		if err != nil {
			return lt, err
		}
	}
	if mask&2 != 0 {
		lt.HasText = true
		lt.Text, _, err = DecodeString(c)
		if err != nil {
			return lt, err
		}
	}
	return lt, nil
}

// EncodeQualifiedName writes a namespace index followed by a string.
func EncodeQualifiedName(c *EncodeCursor, v pubsub.QualifiedName) error {
	if err := EncodeUint16(c, v.NamespaceIndex); err != nil {
		return err
	}
	return EncodeString(c, v.Name, false)
}

// DecodeQualifiedName reads a QualifiedName.
func DecodeQualifiedName(c *DecodeCursor) (pubsub.QualifiedName, error) {
	var qn pubsub.QualifiedName
	ns, err := DecodeUint16(c)
	if err != nil {
		return qn, err
	}
	name, _, err := DecodeString(c)
	if err != nil {
		return qn, err
	}
	qn.NamespaceIndex = ns
	qn.Name = name
	return qn, nil
}
