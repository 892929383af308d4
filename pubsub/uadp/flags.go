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

// Flag-byte framing: each function below packs or unpacks exactly one of
// the seven chained flag bytes, and tells the caller which optional
// fields follow. Kept as dedicated pack/unpack pairs per field-byte
// rather than ad-hoc masks sprinkled through the encoder.

// UADP header byte bit positions.
const (
	uadpVersionMask    = 0x0f
	uadpPubIDEnabled   = 1 << 4
	uadpGroupHdrEnabled = 1 << 5
	uadpPayloadHdrEnabled = 1 << 6
	uadpExt1Enabled    = 1 << 7
)

// headerByte packs the UADP header byte from version + three presence
// bits + whether ExtendedFlags1 must follow.
func headerByte(version uint8, pubIDEnabled, groupHdrEnabled, payloadHdrEnabled, ext1Enabled bool) byte {
	b := version & uadpVersionMask
	if pubIDEnabled {
		b |= uadpPubIDEnabled
	}
	if groupHdrEnabled {
		b |= uadpGroupHdrEnabled
	}
	if payloadHdrEnabled {
		b |= uadpPayloadHdrEnabled
	}
	if ext1Enabled {
		b |= uadpExt1Enabled
	}
	return b
}

type headerFlags struct {
	version           uint8
	pubIDEnabled      bool
	groupHdrEnabled   bool
	payloadHdrEnabled bool
	ext1Enabled       bool
}

func unpackHeaderByte(b byte) headerFlags {
	return headerFlags{
		version:           b & uadpVersionMask,
		pubIDEnabled:      b&uadpPubIDEnabled != 0,
		groupHdrEnabled:   b&uadpGroupHdrEnabled != 0,
		payloadHdrEnabled: b&uadpPayloadHdrEnabled != 0,
		ext1Enabled:       b&uadpExt1Enabled != 0,
	}
}

// ExtendedFlags1 bit positions.
const (
	ext1PubIDTypeMask    = 0x07
	ext1DSClassEnabled   = 1 << 3
	ext1SecurityEnabled  = 1 << 4
	ext1TimestampEnabled = 1 << 5
	ext1PicosecsEnabled  = 1 << 6
	ext1Ext2Enabled      = 1 << 7
)

type extendedFlags1 struct {
	pubIDType        uint8
	dsClassEnabled   bool
	securityEnabled  bool
	timestampEnabled bool
	picosecsEnabled  bool
	ext2Enabled      bool
}

func packExtendedFlags1(f extendedFlags1) byte {
	b := f.pubIDType & ext1PubIDTypeMask
	if f.dsClassEnabled {
		b |= ext1DSClassEnabled
	}
	if f.securityEnabled {
		b |= ext1SecurityEnabled
	}
	if f.timestampEnabled {
		b |= ext1TimestampEnabled
	}
	if f.picosecsEnabled {
		b |= ext1PicosecsEnabled
	}
	if f.ext2Enabled {
		b |= ext1Ext2Enabled
	}
	return b
}

func unpackExtendedFlags1(b byte) extendedFlags1 {
	return extendedFlags1{
		pubIDType:        b & ext1PubIDTypeMask,
		dsClassEnabled:   b&ext1DSClassEnabled != 0,
		securityEnabled:  b&ext1SecurityEnabled != 0,
		timestampEnabled: b&ext1TimestampEnabled != 0,
		picosecsEnabled:  b&ext1PicosecsEnabled != 0,
		ext2Enabled:      b&ext1Ext2Enabled != 0,
	}
}

// ExtendedFlags2 bit positions.
const (
	ext2ChunkMessage  = 1 << 0
	ext2Promoted      = 1 << 1
	ext2MsgTypeMask   = 0x1c
	ext2MsgTypeShift  = 2
)

type extendedFlags2 struct {
	chunkMessage bool
	promoted     bool
	msgType      uint8
}

func packExtendedFlags2(f extendedFlags2) byte {
	var b byte
	if f.chunkMessage {
		b |= ext2ChunkMessage
	}
	if f.promoted {
		b |= ext2Promoted
	}
	b |= (f.msgType << ext2MsgTypeShift) & ext2MsgTypeMask
	return b
}

func unpackExtendedFlags2(b byte) extendedFlags2 {
	return extendedFlags2{
		chunkMessage: b&ext2ChunkMessage != 0,
		promoted:     b&ext2Promoted != 0,
		msgType:      (b & ext2MsgTypeMask) >> ext2MsgTypeShift,
	}
}

// GroupFlags bit positions.
const (
	groupWriterGroupID   = 1 << 0
	groupVersionEnabled  = 1 << 1
	groupNMNumEnabled    = 1 << 2
	groupSeqNumEnabled   = 1 << 3
)

func packGroupFlags(wgid, gver, nmnum, seq bool) byte {
	var b byte
	if wgid {
		b |= groupWriterGroupID
	}
	if gver {
		b |= groupVersionEnabled
	}
	if nmnum {
		b |= groupNMNumEnabled
	}
	if seq {
		b |= groupSeqNumEnabled
	}
	return b
}

type groupFlags struct {
	writerGroupID, groupVersion, nmNumber, seqNumber bool
}

func unpackGroupFlags(b byte) groupFlags {
	return groupFlags{
		writerGroupID: b&groupWriterGroupID != 0,
		groupVersion:  b&groupVersionEnabled != 0,
		nmNumber:      b&groupNMNumEnabled != 0,
		seqNumber:     b&groupSeqNumEnabled != 0,
	}
}

// SecurityFlags bit positions.
const (
	secSigned    = 1 << 0
	secEncrypted = 1 << 1
	secFooter    = 1 << 2
	secKeyReset  = 1 << 3
)

func packSecurityFlags(signed, encrypted, footer, keyReset bool) byte {
	var b byte
	if signed {
		b |= secSigned
	}
	if encrypted {
		b |= secEncrypted
	}
	if footer {
		b |= secFooter
	}
	if keyReset {
		b |= secKeyReset
	}
	return b
}

type securityFlags struct {
	signed, encrypted, footer, keyReset bool
}

func unpackSecurityFlags(b byte) securityFlags {
	return securityFlags{
		signed:    b&secSigned != 0,
		encrypted: b&secEncrypted != 0,
		footer:    b&secFooter != 0,
		keyReset:  b&secKeyReset != 0,
	}
}

// DataSetFlags1 bit positions.
const (
	dsf1Valid         = 1 << 0
	dsf1FieldEncMask  = 0x06
	dsf1FieldEncShift = 1
	dsf1SeqNrEnabled  = 1 << 3
	dsf1StatusEnabled = 1 << 4
	dsf1CfgMajorEnabled = 1 << 5
	dsf1CfgMinorEnabled = 1 << 6
	dsf1Flags2Enabled = 1 << 7
)

type dataSetFlags1 struct {
	valid          bool
	fieldEncoding  uint8
	seqNrEnabled   bool
	statusEnabled  bool
	cfgMajorEnabled bool
	cfgMinorEnabled bool
	flags2Enabled  bool
}

func packDataSetFlags1(f dataSetFlags1) byte {
	var b byte
	if f.valid {
		b |= dsf1Valid
	}
	b |= (f.fieldEncoding << dsf1FieldEncShift) & dsf1FieldEncMask
	if f.seqNrEnabled {
		b |= dsf1SeqNrEnabled
	}
	if f.statusEnabled {
		b |= dsf1StatusEnabled
	}
	if f.cfgMajorEnabled {
		b |= dsf1CfgMajorEnabled
	}
	if f.cfgMinorEnabled {
		b |= dsf1CfgMinorEnabled
	}
	if f.flags2Enabled {
		b |= dsf1Flags2Enabled
	}
	return b
}

func unpackDataSetFlags1(b byte) dataSetFlags1 {
	return dataSetFlags1{
		valid:           b&dsf1Valid != 0,
		fieldEncoding:   (b & dsf1FieldEncMask) >> dsf1FieldEncShift,
		seqNrEnabled:    b&dsf1SeqNrEnabled != 0,
		statusEnabled:   b&dsf1StatusEnabled != 0,
		cfgMajorEnabled: b&dsf1CfgMajorEnabled != 0,
		cfgMinorEnabled: b&dsf1CfgMinorEnabled != 0,
		flags2Enabled:   b&dsf1Flags2Enabled != 0,
	}
}

// DataSetFlags2 bit positions.
const (
	dsf2MsgTypeMask = 0x0f
	dsf2Timestamp   = 1 << 4
	dsf2Picoseconds = 1 << 5
)

type dataSetFlags2 struct {
	msgType             uint8
	timestampEnabled    bool
	picosecondsEnabled  bool
}

func packDataSetFlags2(f dataSetFlags2) byte {
	b := f.msgType & dsf2MsgTypeMask
	if f.timestampEnabled {
		b |= dsf2Timestamp
	}
	if f.picosecondsEnabled {
		b |= dsf2Picoseconds
	}
	return b
}

func unpackDataSetFlags2(b byte) dataSetFlags2 {
	return dataSetFlags2{
		msgType:            b & dsf2MsgTypeMask,
		timestampEnabled:   b&dsf2Timestamp != 0,
		picosecondsEnabled: b&dsf2Picoseconds != 0,
	}
}
