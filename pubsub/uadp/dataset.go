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

// EncodeDataSetMessageHeader writes DataSetFlags1, conditionally
// DataSetFlags2, then each optional header field in fixed order.
func EncodeDataSetMessageHeader(c *EncodeCursor, h pubsub.DataSetMessageHeader) error {
	flags2Enabled := h.Flags2Enabled()
	f1 := dataSetFlags1{
		valid:           h.Valid,
		fieldEncoding:   uint8(h.FieldEncoding),
		seqNrEnabled:    h.SequenceNumberEnabled,
		statusEnabled:   h.StatusEnabled,
		cfgMajorEnabled: h.ConfigMajorVersionEnabled,
		cfgMinorEnabled: h.ConfigMinorVersionEnabled,
		flags2Enabled:   flags2Enabled,
	}
	if err := c.WriteByte(packDataSetFlags1(f1)); err != nil {
		return err
	}
	if flags2Enabled {
		f2 := dataSetFlags2{
			msgType:            uint8(h.Type),
			timestampEnabled:   h.TimestampEnabled,
			picosecondsEnabled: h.PicosecondsEnabled,
		}
		if err := c.WriteByte(packDataSetFlags2(f2)); err != nil {
			return err
		}
	}
	if h.SequenceNumberEnabled {
		c.Mark(fmt.Sprintf("ds.%d.header.sequencenumber", c.DSIndex))
		if err := EncodeUint16(c, h.SequenceNumber); err != nil {
			return err
		}
	}
	if h.TimestampEnabled {
		c.Mark(fmt.Sprintf("ds.%d.header.timestamp", c.DSIndex))
		if err := EncodeUint64(c, h.Timestamp); err != nil {
			return err
		}
	}
	if h.PicosecondsEnabled {
		if err := EncodeUint16(c, h.Picoseconds); err != nil {
			return err
		}
	}
	if h.StatusEnabled {
		c.Mark(fmt.Sprintf("ds.%d.header.status", c.DSIndex))
		if err := EncodeUint16(c, h.Status); err != nil {
			return err
		}
	}
	if h.ConfigMajorVersionEnabled {
		if err := EncodeUint32(c, h.ConfigMajorVersion); err != nil {
			return err
		}
	}
	if h.ConfigMinorVersionEnabled {
		if err := EncodeUint32(c, h.ConfigMinorVersion); err != nil {
			return err
		}
	}
	return nil
}

// DecodeDataSetMessageHeader mirrors EncodeDataSetMessageHeader.
func DecodeDataSetMessageHeader(c *DecodeCursor) (pubsub.DataSetMessageHeader, error) {
	var h pubsub.DataSetMessageHeader
	b, err := DecodeByte(c)
	if err != nil {
		return h, err
	}
	f1 := unpackDataSetFlags1(b)
	h.Valid = f1.valid
	h.FieldEncoding = pubsub.FieldEncoding(f1.fieldEncoding)
	h.SequenceNumberEnabled = f1.seqNrEnabled
	h.StatusEnabled = f1.statusEnabled
	h.ConfigMajorVersionEnabled = f1.cfgMajorEnabled
	h.ConfigMinorVersionEnabled = f1.cfgMinorEnabled
	h.Type = pubsub.DataSetMessageTypeKeyFrame
	if f1.flags2Enabled {
		b2, err := DecodeByte(c)
		if err != nil {
			return h, err
		}
		f2 := unpackDataSetFlags2(b2)
		h.Type = pubsub.DataSetMessageType(f2.msgType)
		h.TimestampEnabled = f2.timestampEnabled
		h.PicosecondsEnabled = f2.picosecondsEnabled
	}
	if h.SequenceNumberEnabled {
		if h.SequenceNumber, err = DecodeUint16(c); err != nil {
			return h, err
		}
	}
	if h.TimestampEnabled {
		if h.Timestamp, err = DecodeUint64(c); err != nil {
			return h, err
		}
	}
	if h.PicosecondsEnabled {
		if h.Picoseconds, err = DecodeUint16(c); err != nil {
			return h, err
		}
	}
	if h.StatusEnabled {
		if h.Status, err = DecodeUint16(c); err != nil {
			return h, err
		}
	}
	if h.ConfigMajorVersionEnabled {
		if h.ConfigMajorVersion, err = DecodeUint32(c); err != nil {
			return h, err
		}
	}
	if h.ConfigMinorVersionEnabled {
		if h.ConfigMinorVersion, err = DecodeUint32(c); err != nil {
			return h, err
		}
	}
	return h, nil
}

// EncodeDataSetMessage writes the header then the body per type and field
// encoding. VARIANT/DATAVALUE keyframes carry an explicit field count;
// RAW carries none. KEEPALIVE writes no body.
func EncodeDataSetMessage(c *EncodeCursor, opts pubsub.EncodingOptions, m pubsub.DataSetMessage) error {
	if m.Header.FieldEncoding == pubsub.FieldEncodingReserved {
		return pubsub.NewUnsupportedError("DataSetMessage field encoding RESERVED is not supported")
	}
	if err := EncodeDataSetMessageHeader(c, m.Header); err != nil {
		return err
	}
	switch m.Header.Type {
	case pubsub.DataSetMessageTypeKeyFrame:
		return encodeKeyFrame(c, opts, m.Header.FieldEncoding, m.KeyFrame)
	case pubsub.DataSetMessageTypeDeltaFrame:
		return encodeDeltaFrame(c, opts, m.DeltaFrame)
	case pubsub.DataSetMessageTypeKeepAlive:
		return nil
	case pubsub.DataSetMessageTypeEvent:
		return encodeKeyFrame(c, opts, m.Header.FieldEncoding, m.KeyFrame)
	default:
		return pubsub.NewMalformedError("unknown DataSetMessage type %d", m.Header.Type)
	}
}

func encodeKeyFrame(c *EncodeCursor, opts pubsub.EncodingOptions, enc pubsub.FieldEncoding, kf pubsub.KeyFrameData) error {
	if enc == pubsub.FieldEncodingRaw {
		c.Mark(fmt.Sprintf("ds.%d.raw", c.DSIndex))
		return c.Write(kf.RawFields)
	}
	if err := EncodeUint16(c, uint16(len(kf.Fields))); err != nil {
		return err
	}
	for j, f := range kf.Fields {
		c.Mark(fmt.Sprintf("ds.%d.field.%d", c.DSIndex, j))
		if enc == pubsub.FieldEncodingVariant {
			if err := EncodeVariant(c, opts, f.Value); err != nil {
				return err
			}
		} else {
			if err := EncodeDataValue(c, opts, f); err != nil {
				return err
			}
		}
	}
	return nil
}

func encodeDeltaFrame(c *EncodeCursor, opts pubsub.EncodingOptions, df pubsub.DeltaFrameData) error {
	if err := EncodeUint16(c, uint16(len(df.Entries))); err != nil {
		return err
	}
	for _, e := range df.Entries {
		if err := EncodeUint16(c, e.FieldIndex); err != nil {
			return err
		}
		if err := EncodeDataValue(c, opts, e.Value); err != nil {
			return err
		}
	}
	return nil
}

// DecodeDataSetMessage mirrors EncodeDataSetMessage. msgSize is the total
// encoded byte length of this message as declared by the NetworkMessage's
// per-message size prefix, or 0 when no such prefix applies (the codec has
// no dataset metadata schema of its own, so a RAW keyframe body's length
// is derived from msgSize minus the header bytes actually consumed; with
// msgSize 0 the caller must instead resolve the RAW length from
// EncodingOptions before calling, via rawLenHint).
func DecodeDataSetMessage(c *DecodeCursor, opts pubsub.EncodingOptions, msgSize int, rawLenHint int) (pubsub.DataSetMessage, error) {
	var m pubsub.DataSetMessage
	start := c.Pos
	h, err := DecodeDataSetMessageHeader(c)
	if err != nil {
		return m, err
	}
	m.Header = h
	if h.FieldEncoding == pubsub.FieldEncodingReserved {
		return m, pubsub.NewUnsupportedError("DataSetMessage field encoding RESERVED is not supported")
	}
	rawLen := rawLenHint
	if msgSize > 0 {
		rawLen = msgSize - (c.Pos - start)
		if rawLen < 0 {
			return m, pubsub.NewMalformedError("declared message size %d is smaller than its header", msgSize)
		}
	}
	switch h.Type {
	case pubsub.DataSetMessageTypeKeyFrame, pubsub.DataSetMessageTypeEvent:
		m.KeyFrame, err = decodeKeyFrame(c, opts, h.FieldEncoding, rawLen)
	case pubsub.DataSetMessageTypeDeltaFrame:
		m.DeltaFrame, err = decodeDeltaFrame(c, opts)
	case pubsub.DataSetMessageTypeKeepAlive:
		// no body
	default:
		return m, pubsub.NewMalformedError("unknown DataSetMessage type %d", h.Type)
	}
	return m, err
}

func decodeKeyFrame(c *DecodeCursor, opts pubsub.EncodingOptions, enc pubsub.FieldEncoding, rawLen int) (pubsub.KeyFrameData, error) {
	var kf pubsub.KeyFrameData
	if enc == pubsub.FieldEncodingRaw {
		b, err := c.Read(rawLen)
		if err != nil {
			return kf, err
		}
		kf.RawFields = append([]byte(nil), b...)
		return kf, nil
	}
	n, err := DecodeUint16(c)
	if err != nil {
		return kf, err
	}
	kf.Fields = make([]pubsub.DataValue, n)
	for i := range kf.Fields {
		if enc == pubsub.FieldEncodingVariant {
			v, err := DecodeVariant(c, opts)
			if err != nil {
				return kf, err
			}
			kf.Fields[i] = pubsub.DataValue{Value: v}
		} else {
			dv, err := DecodeDataValue(c, opts)
			if err != nil {
				return kf, err
			}
			kf.Fields[i] = dv
		}
	}
	return kf, nil
}

func decodeDeltaFrame(c *DecodeCursor, opts pubsub.EncodingOptions) (pubsub.DeltaFrameData, error) {
	var df pubsub.DeltaFrameData
	n, err := DecodeUint16(c)
	if err != nil {
		return df, err
	}
	df.Entries = make([]pubsub.DeltaFrameEntry, n)
	for i := range df.Entries {
		idx, err := DecodeUint16(c)
		if err != nil {
			return df, err
		}
		v, err := DecodeDataValue(c, opts)
		if err != nil {
			return df, err
		}
		df.Entries[i] = pubsub.DeltaFrameEntry{FieldIndex: idx, Value: v}
	}
	return df, nil
}

// CalcSizeDataSetMessage returns the encoded size of m in bytes by running
// the encoder against a count-only cursor.
func CalcSizeDataSetMessage(opts pubsub.EncodingOptions, m pubsub.DataSetMessage) (int, error) {
	c := NewCountCursor()
	if err := EncodeDataSetMessage(c, opts, m); err != nil {
		return 0, err
	}
	return c.Pos, nil
}
