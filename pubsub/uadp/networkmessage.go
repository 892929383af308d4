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
	"fmt"

	"github.com/fraunhoferiosb/opcua-pubsub/pubsub"
)

// EncodeHeaders writes every field up through the security header, in the
// fixed order the NetworkMessage codec specifies: UADP byte, the two
// extended flag bytes, PublisherId, DataSetClassId, GroupHeader, Payload
// Header, Timestamp, Picoseconds, PromotedFields, SecurityHeader.
func EncodeHeaders(c *EncodeCursor, m *pubsub.NetworkMessage) error {
	ext1 := m.ExtendedFlags1Enabled()
	ext2 := m.ExtendedFlags2Enabled()
	hb := headerByte(m.Version, m.PublisherIDEnabled, m.GroupHeaderEnabled, m.PayloadHeaderEnabled, ext1)
	if err := c.WriteByte(hb); err != nil {
		return err
	}
	if ext1 {
		f1 := extendedFlags1{
			pubIDType:        uint8(m.PublisherID.Type),
			dsClassEnabled:   m.DataSetClassIDEnabled,
			securityEnabled:  m.SecurityEnabled,
			timestampEnabled: m.TimestampEnabled,
			picosecsEnabled:  m.PicosecondsEnabled,
			ext2Enabled:      ext2,
		}
		if err := c.WriteByte(packExtendedFlags1(f1)); err != nil {
			return err
		}
		if ext2 {
			f2 := extendedFlags2{
				chunkMessage: m.ChunkMessage,
				promoted:     m.PromotedFieldsEnabled,
				msgType:      uint8(m.MessageType),
			}
			if err := c.WriteByte(packExtendedFlags2(f2)); err != nil {
				return err
			}
		}
	}
	if m.PublisherIDEnabled {
		if err := encodePublisherID(c, m.PublisherID); err != nil {
			return err
		}
	}
	if m.DataSetClassIDEnabled {
		if err := EncodeGUID(c, m.DataSetClassID); err != nil {
			return err
		}
	}
	if m.GroupHeaderEnabled {
		if err := encodeGroupHeader(c, m.GroupHeader); err != nil {
			return err
		}
	}
	if m.PayloadHeaderEnabled {
		if err := encodePayloadHeader(c, m.PayloadHeader); err != nil {
			return err
		}
	}
	if m.TimestampEnabled {
		if err := EncodeDateTime(c, m.Timestamp); err != nil {
			return err
		}
	}
	if m.PicosecondsEnabled {
		if err := EncodeUint16(c, m.Picoseconds); err != nil {
			return err
		}
	}
	if m.PromotedFieldsEnabled {
		if err := encodePromotedFields(c, m.PromotedFields); err != nil {
			return err
		}
	}
	if m.SecurityEnabled {
		if err := encodeSecurityHeader(c, m.SecurityHeader); err != nil {
			return err
		}
	}
	return nil
}

func encodePublisherID(c *EncodeCursor, p pubsub.PublisherID) error {
	switch p.Type {
	case pubsub.PublisherIDTypeByte:
		return EncodeByte(c, p.Byte)
	case pubsub.PublisherIDTypeUInt16:
		return EncodeUint16(c, p.UInt16)
	case pubsub.PublisherIDTypeUInt32:
		return EncodeUint32(c, p.UInt32)
	case pubsub.PublisherIDTypeUInt64:
		return EncodeUint64(c, p.UInt64)
	case pubsub.PublisherIDTypeString:
		return EncodeString(c, p.String, false)
	case pubsub.PublisherIDTypeGUID:
		return EncodeGUID(c, p.GUID)
	default:
		return pubsub.NewMalformedError("unknown PublisherId type %d", p.Type)
	}
}

func decodePublisherID(c *DecodeCursor, t pubsub.PublisherIDType) (pubsub.PublisherID, error) {
	p := pubsub.PublisherID{Type: t}
	var err error
	switch t {
	case pubsub.PublisherIDTypeByte:
		p.Byte, err = DecodeByte(c)
	case pubsub.PublisherIDTypeUInt16:
		p.UInt16, err = DecodeUint16(c)
	case pubsub.PublisherIDTypeUInt32:
		p.UInt32, err = DecodeUint32(c)
	case pubsub.PublisherIDTypeUInt64:
		p.UInt64, err = DecodeUint64(c)
	case pubsub.PublisherIDTypeString:
		p.String, _, err = DecodeString(c)
	case pubsub.PublisherIDTypeGUID:
		p.GUID, err = DecodeGUID(c)
	default:
		return p, pubsub.NewMalformedError("unknown PublisherId type %d", t)
	}
	return p, err
}

func encodeGroupHeader(c *EncodeCursor, g pubsub.GroupHeader) error {
	flags := packGroupFlags(g.WriterGroupIDEnabled, g.GroupVersionEnabled, g.NetworkMessageNumberEnabled, g.SequenceNumberEnabled)
	if err := c.WriteByte(flags); err != nil {
		return err
	}
	if g.WriterGroupIDEnabled {
		if err := EncodeUint16(c, g.WriterGroupID); err != nil {
			return err
		}
	}
	if g.GroupVersionEnabled {
		c.Mark("groupheader.groupversion")
		if err := EncodeUint32(c, g.GroupVersion); err != nil {
			return err
		}
	}
	if g.NetworkMessageNumberEnabled {
		if err := EncodeUint16(c, g.NetworkMessageNumber); err != nil {
			return err
		}
	}
	if g.SequenceNumberEnabled {
		c.Mark("networkmessage.sequencenumber")
		if err := EncodeUint16(c, g.SequenceNumber); err != nil {
			return err
		}
	}
	return nil
}

func decodeGroupHeader(c *DecodeCursor) (pubsub.GroupHeader, error) {
	var g pubsub.GroupHeader
	b, err := DecodeByte(c)
	if err != nil {
		return g, err
	}
	f := unpackGroupFlags(b)
	g.WriterGroupIDEnabled = f.writerGroupID
	g.GroupVersionEnabled = f.groupVersion
	g.NetworkMessageNumberEnabled = f.nmNumber
	g.SequenceNumberEnabled = f.seqNumber
	if g.WriterGroupIDEnabled {
		if g.WriterGroupID, err = DecodeUint16(c); err != nil {
			return g, err
		}
	}
	if g.GroupVersionEnabled {
		if g.GroupVersion, err = DecodeUint32(c); err != nil {
			return g, err
		}
	}
	if g.NetworkMessageNumberEnabled {
		if g.NetworkMessageNumber, err = DecodeUint16(c); err != nil {
			return g, err
		}
	}
	if g.SequenceNumberEnabled {
		if g.SequenceNumber, err = DecodeUint16(c); err != nil {
			return g, err
		}
	}
	return g, nil
}

func encodePayloadHeader(c *EncodeCursor, h pubsub.DataSetPayloadHeader) error {
	if err := EncodeByte(c, uint8(h.Count())); err != nil {
		return err
	}
	for _, id := range h.DataSetWriterIDs {
		if err := EncodeUint16(c, id); err != nil {
			return err
		}
	}
	return nil
}

func decodePayloadHeader(c *DecodeCursor) (pubsub.DataSetPayloadHeader, error) {
	var h pubsub.DataSetPayloadHeader
	count, err := DecodeByte(c)
	if err != nil {
		return h, err
	}
	h.DataSetWriterIDs = make([]uint16, count)
	for i := range h.DataSetWriterIDs {
		if h.DataSetWriterIDs[i], err = DecodeUint16(c); err != nil {
			return h, err
		}
	}
	return h, nil
}

func encodePromotedFields(c *EncodeCursor, fields []pubsub.Variant) error {
	inner := NewCountCursor()
	for _, f := range fields {
		if err := EncodeVariant(inner, pubsub.EncodingOptions{}, f); err != nil {
			return err
		}
	}
	if err := EncodeUint16(c, uint16(inner.Pos)); err != nil {
		return err
	}
	for _, f := range fields {
		if err := EncodeVariant(c, pubsub.EncodingOptions{}, f); err != nil {
			return err
		}
	}
	return nil
}

func decodePromotedFields(c *DecodeCursor) ([]pubsub.Variant, error) {
	byteLen, err := DecodeUint16(c)
	if err != nil {
		return nil, err
	}
	end := c.Pos + int(byteLen)
	if end > len(c.Buf) {
		return nil, pubsub.NewBufferTooSmallError("promoted fields byte length %d exceeds remaining buffer", byteLen)
	}
	var fields []pubsub.Variant
	for c.Pos < end {
		v, err := DecodeVariant(c, pubsub.EncodingOptions{})
		if err != nil {
			return nil, err
		}
		fields = append(fields, v)
	}
	if c.Pos != end {
		return nil, pubsub.NewMalformedError("promoted fields decoded past declared byte length")
	}
	return fields, nil
}

func encodeSecurityHeader(c *EncodeCursor, s pubsub.SecurityHeader) error {
	flags := packSecurityFlags(s.Signed, s.Encrypted, s.FooterEnabled, s.ForceKeyReset)
	if err := c.WriteByte(flags); err != nil {
		return err
	}
	if err := EncodeUint32(c, s.TokenID); err != nil {
		return err
	}
	if err := EncodeByte(c, uint8(len(s.Nonce))); err != nil {
		return err
	}
	if err := c.Write(s.Nonce); err != nil {
		return err
	}
	if s.FooterEnabled {
		if err := EncodeUint16(c, s.FooterSize); err != nil {
			return err
		}
	}
	return nil
}

func decodeSecurityHeader(c *DecodeCursor) (pubsub.SecurityHeader, error) {
	var s pubsub.SecurityHeader
	b, err := DecodeByte(c)
	if err != nil {
		return s, err
	}
	f := unpackSecurityFlags(b)
	s.Signed = f.signed
	s.Encrypted = f.encrypted
	s.FooterEnabled = f.footer
	s.ForceKeyReset = f.keyReset
	if s.TokenID, err = DecodeUint32(c); err != nil {
		return s, err
	}
	nonceLen, err := DecodeByte(c)
	if err != nil {
		return s, err
	}
	nonce, err := c.Read(int(nonceLen))
	if err != nil {
		return s, err
	}
	s.Nonce = append([]byte(nil), nonce...)
	if s.FooterEnabled {
		if s.FooterSize, err = DecodeUint16(c); err != nil {
			return s, err
		}
	}
	return s, nil
}

// EncodePayload writes the per-message size prefix array (when count > 1
// and the payload header is present), then each DataSetMessage in order.
func EncodePayload(c *EncodeCursor, opts pubsub.EncodingOptions, m *pubsub.NetworkMessage) error {
	count := len(m.DataSetMessages)
	needsSizePrefix := m.PayloadHeaderEnabled && count > 1
	if needsSizePrefix {
		for i, dsm := range m.DataSetMessages {
			size, err := CalcSizeDataSetMessage(opts, dsm)
			if err != nil {
				return err
			}
			c.Mark(fmt.Sprintf("payloadsize.%d", i))
			if err := EncodeUint16(c, uint16(size)); err != nil {
				return err
			}
		}
	}
	for i, dsm := range m.DataSetMessages {
		c.DSIndex = i
		if err := EncodeDataSetMessage(c, opts, dsm); err != nil {
			return err
		}
	}
	return nil
}

// DecodePayload mirrors EncodePayload. When payload_header_enabled is
// false, count defaults to 1; when true and count = 1, the per-message
// size prefix is still omitted (per the NetworkMessage codec's tie-break
// rules).
func DecodePayload(c *DecodeCursor, opts pubsub.EncodingOptions, m *pubsub.NetworkMessage) error {
	count := 1
	if m.PayloadHeaderEnabled {
		count = m.PayloadHeader.Count()
	}
	var sizes []uint16
	if m.PayloadHeaderEnabled && count > 1 {
		sizes = make([]uint16, count)
		for i := range sizes {
			s, err := DecodeUint16(c)
			if err != nil {
				return err
			}
			sizes[i] = s
		}
	}
	m.DataSetMessages = make([]pubsub.DataSetMessage, count)
	for i := 0; i < count; i++ {
		var writerID uint16
		if m.PayloadHeaderEnabled && i < len(m.PayloadHeader.DataSetWriterIDs) {
			writerID = m.PayloadHeader.DataSetWriterIDs[i]
		}
		msgSize := 0
		if sizes != nil {
			msgSize = int(sizes[i])
		}
		rawLenHint := 0
		if md, ok := opts.ForWriter(writerID); ok {
			rawLenHint = md.RawLength
		} else if len(opts.DataSets) > 0 {
			rawLenHint = opts.DataSets[0].RawLength
		}
		dsm, err := DecodeDataSetMessage(c, opts, msgSize, rawLenHint)
		if err != nil {
			return err
		}
		dsm.DataSetWriterID = writerID
		m.DataSetMessages[i] = dsm
	}
	return nil
}

// EncodeFooters writes the security footer and signature when security is
// enabled.
func EncodeFooters(c *EncodeCursor, m *pubsub.NetworkMessage) error {
	if !m.SecurityEnabled {
		return nil
	}
	if m.SecurityHeader.FooterEnabled {
		if err := EncodeByteString(c, m.SecurityFooter); err != nil {
			return err
		}
	}
	c.Mark("security.signaturestart")
	return EncodeByteString(c, m.Signature)
}

// DecodeFooters mirrors EncodeFooters.
func DecodeFooters(c *DecodeCursor, m *pubsub.NetworkMessage) error {
	if !m.SecurityEnabled {
		return nil
	}
	if m.SecurityHeader.FooterEnabled {
		footer, err := DecodeByteString(c)
		if err != nil {
			return err
		}
		m.SecurityFooter = footer
	}
	sig, err := DecodeByteString(c)
	if err != nil {
		return err
	}
	m.Signature = sig
	return nil
}

// EncodeNetworkMessage encodes m into c's buffer in full: headers, payload,
// footers.
func EncodeNetworkMessage(c *EncodeCursor, opts pubsub.EncodingOptions, m *pubsub.NetworkMessage) error {
	if m.MessageType != pubsub.MessageTypeDataset {
		return pubsub.NewUnsupportedError("only DATASET network messages are supported, got %s", m.MessageType)
	}
	if err := EncodeHeaders(c, m); err != nil {
		return err
	}
	c.Mark("security.encryptstart")
	if err := EncodePayload(c, opts, m); err != nil {
		return err
	}
	return EncodeFooters(c, m)
}

// DecodeHeaders reads every field up through the security header.
func DecodeHeaders(c *DecodeCursor, m *pubsub.NetworkMessage) error {
	hb, err := DecodeByte(c)
	if err != nil {
		return err
	}
	hf := unpackHeaderByte(hb)
	m.Version = hf.version
	m.PublisherIDEnabled = hf.pubIDEnabled
	m.GroupHeaderEnabled = hf.groupHdrEnabled
	m.PayloadHeaderEnabled = hf.payloadHdrEnabled
	m.MessageType = pubsub.MessageTypeDataset

	if hf.ext1Enabled {
		b1, err := DecodeByte(c)
		if err != nil {
			return err
		}
		f1 := unpackExtendedFlags1(b1)
		m.PublisherID.Type = pubsub.PublisherIDType(f1.pubIDType)
		m.DataSetClassIDEnabled = f1.dsClassEnabled
		m.SecurityEnabled = f1.securityEnabled
		m.TimestampEnabled = f1.timestampEnabled
		m.PicosecondsEnabled = f1.picosecsEnabled
		if f1.ext2Enabled {
			b2, err := DecodeByte(c)
			if err != nil {
				return err
			}
			f2 := unpackExtendedFlags2(b2)
			m.ChunkMessage = f2.chunkMessage
			m.PromotedFieldsEnabled = f2.promoted
			m.MessageType = pubsub.MessageType(f2.msgType)
		}
	} else {
		m.PublisherID.Type = pubsub.PublisherIDTypeByte
	}

	if m.MessageType != pubsub.MessageTypeDataset {
		return pubsub.NewUnsupportedError("only DATASET network messages are supported, got %s", m.MessageType)
	}

	if m.PublisherIDEnabled {
		pid, err := decodePublisherID(c, m.PublisherID.Type)
		if err != nil {
			return err
		}
		m.PublisherID = pid
	}
	if m.DataSetClassIDEnabled {
		if m.DataSetClassID, err = DecodeGUID(c); err != nil {
			return err
		}
	}
	if m.GroupHeaderEnabled {
		if m.GroupHeader, err = decodeGroupHeader(c); err != nil {
			return err
		}
	}
	if m.PayloadHeaderEnabled {
		if m.PayloadHeader, err = decodePayloadHeader(c); err != nil {
			return err
		}
	}
	if m.TimestampEnabled {
		if m.Timestamp, err = DecodeDateTime(c); err != nil {
			return err
		}
	}
	if m.PicosecondsEnabled {
		if m.Picoseconds, err = DecodeUint16(c); err != nil {
			return err
		}
	}
	if m.PromotedFieldsEnabled {
		if m.PromotedFields, err = decodePromotedFields(c); err != nil {
			return err
		}
	}
	if m.SecurityEnabled {
		if m.SecurityHeader, err = decodeSecurityHeader(c); err != nil {
			return err
		}
	}
	return nil
}

// DecodeNetworkMessage decodes a full NetworkMessage from c's buffer:
// headers, payload, footers. On any substep failure the caller must treat
// m as invalid and must not reuse c.
func DecodeNetworkMessage(c *DecodeCursor, opts pubsub.EncodingOptions) (pubsub.NetworkMessage, error) {
	var m pubsub.NetworkMessage
	if err := DecodeHeaders(c, &m); err != nil {
		return pubsub.NetworkMessage{}, err
	}
	if err := DecodePayload(c, opts, &m); err != nil {
		return pubsub.NetworkMessage{}, err
	}
	if err := DecodeFooters(c, &m); err != nil {
		return pubsub.NetworkMessage{}, err
	}
	return m, nil
}

// CalcSizeNetworkMessage runs the same decision logic as EncodeNetworkMessage
// against a count-only cursor.
func CalcSizeNetworkMessage(opts pubsub.EncodingOptions, m *pubsub.NetworkMessage) (int, error) {
	c := NewCountCursor()
	if err := EncodeNetworkMessage(c, opts, m); err != nil {
		return 0, err
	}
	return c.Pos, nil
}

// EncodeBinary is the producer-facing entry point: it encodes m into buf
// and returns the encoded byte range.
func EncodeBinary(buf []byte, opts pubsub.EncodingOptions, m *pubsub.NetworkMessage) ([]byte, error) {
	c := NewWriteCursor(buf)
	if err := EncodeNetworkMessage(c, opts, m); err != nil {
		return nil, err
	}
	return buf[:c.Pos], nil
}

// DecodeBinary is the subscriber-facing entry point.
func DecodeBinary(buf []byte, opts pubsub.EncodingOptions) (pubsub.NetworkMessage, error) {
	c := NewDecodeCursor(buf)
	return DecodeNetworkMessage(c, opts)
}
