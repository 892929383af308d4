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
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHeaderByteBitLayout(t *testing.T) {
	tests := []struct {
		name                                                       string
		version                                                    uint8
		pubIDEnabled, groupHdrEnabled, payloadHdrEnabled, ext1Enabled bool
		want                                                       byte
	}{
		{name: "version only", version: 1, want: 0x01},
		{name: "pub id", version: 1, pubIDEnabled: true, want: 0x11},
		{name: "group header", version: 1, groupHdrEnabled: true, want: 0x21},
		{name: "payload header", version: 1, payloadHdrEnabled: true, want: 0x41},
		{name: "ext1", version: 1, ext1Enabled: true, want: 0x81},
		{name: "all set", version: 0x0f, pubIDEnabled: true, groupHdrEnabled: true, payloadHdrEnabled: true, ext1Enabled: true, want: 0xFF},
		{name: "version masked to low nibble", version: 0xFF, want: 0x0F},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := headerByte(tt.version, tt.pubIDEnabled, tt.groupHdrEnabled, tt.payloadHdrEnabled, tt.ext1Enabled)
			require.Equal(t, tt.want, got)

			unpacked := unpackHeaderByte(got)
			require.Equal(t, tt.version&uadpVersionMask, unpacked.version)
			require.Equal(t, tt.pubIDEnabled, unpacked.pubIDEnabled)
			require.Equal(t, tt.groupHdrEnabled, unpacked.groupHdrEnabled)
			require.Equal(t, tt.payloadHdrEnabled, unpacked.payloadHdrEnabled)
			require.Equal(t, tt.ext1Enabled, unpacked.ext1Enabled)
		})
	}
}

func TestExtendedFlags1BitLayout(t *testing.T) {
	tests := []struct {
		name string
		in   extendedFlags1
		want byte
	}{
		{name: "zero", in: extendedFlags1{}, want: 0x00},
		{name: "pub id type", in: extendedFlags1{pubIDType: 0x05}, want: 0x05},
		{name: "dataset class", in: extendedFlags1{dsClassEnabled: true}, want: 0x08},
		{name: "security", in: extendedFlags1{securityEnabled: true}, want: 0x10},
		{name: "timestamp", in: extendedFlags1{timestampEnabled: true}, want: 0x20},
		{name: "picoseconds", in: extendedFlags1{picosecsEnabled: true}, want: 0x40},
		{name: "ext2", in: extendedFlags1{ext2Enabled: true}, want: 0x80},
		{
			name: "all set",
			in: extendedFlags1{
				pubIDType: 0x07, dsClassEnabled: true, securityEnabled: true,
				timestampEnabled: true, picosecsEnabled: true, ext2Enabled: true,
			},
			want: 0xFF,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := packExtendedFlags1(tt.in)
			require.Equal(t, tt.want, got)
			require.Equal(t, tt.in, unpackExtendedFlags1(got))
		})
	}
}

func TestExtendedFlags2BitLayout(t *testing.T) {
	tests := []struct {
		name string
		in   extendedFlags2
		want byte
	}{
		{name: "zero", in: extendedFlags2{}, want: 0x00},
		{name: "chunk message", in: extendedFlags2{chunkMessage: true}, want: 0x01},
		{name: "promoted fields", in: extendedFlags2{promoted: true}, want: 0x02},
		{name: "msg type", in: extendedFlags2{msgType: 0x03}, want: 0x0c},
		{
			name: "all set",
			in:   extendedFlags2{chunkMessage: true, promoted: true, msgType: 0x07},
			want: 0x1F,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := packExtendedFlags2(tt.in)
			require.Equal(t, tt.want, got)
			require.Equal(t, tt.in, unpackExtendedFlags2(got))
		})
	}
}

func TestGroupFlagsBitLayout(t *testing.T) {
	tests := []struct {
		name                                 string
		wgid, gver, nmnum, seq               bool
		want                                 byte
	}{
		{name: "zero", want: 0x00},
		{name: "writer group id", wgid: true, want: 0x01},
		{name: "group version", gver: true, want: 0x02},
		{name: "network message number", nmnum: true, want: 0x04},
		{name: "sequence number", seq: true, want: 0x08},
		{name: "all set", wgid: true, gver: true, nmnum: true, seq: true, want: 0x0f},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := packGroupFlags(tt.wgid, tt.gver, tt.nmnum, tt.seq)
			require.Equal(t, tt.want, got)

			unpacked := unpackGroupFlags(got)
			require.Equal(t, tt.wgid, unpacked.writerGroupID)
			require.Equal(t, tt.gver, unpacked.groupVersion)
			require.Equal(t, tt.nmnum, unpacked.nmNumber)
			require.Equal(t, tt.seq, unpacked.seqNumber)
		})
	}
}

func TestSecurityFlagsBitLayout(t *testing.T) {
	tests := []struct {
		name                               string
		signed, encrypted, footer, keyReset bool
		want                               byte
	}{
		{name: "zero", want: 0x00},
		{name: "signed", signed: true, want: 0x01},
		{name: "encrypted", encrypted: true, want: 0x02},
		{name: "footer", footer: true, want: 0x04},
		{name: "key reset", keyReset: true, want: 0x08},
		{name: "all set", signed: true, encrypted: true, footer: true, keyReset: true, want: 0x0f},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := packSecurityFlags(tt.signed, tt.encrypted, tt.footer, tt.keyReset)
			require.Equal(t, tt.want, got)

			unpacked := unpackSecurityFlags(got)
			require.Equal(t, tt.signed, unpacked.signed)
			require.Equal(t, tt.encrypted, unpacked.encrypted)
			require.Equal(t, tt.footer, unpacked.footer)
			require.Equal(t, tt.keyReset, unpacked.keyReset)
		})
	}
}

func TestDataSetFlags1BitLayout(t *testing.T) {
	tests := []struct {
		name string
		in   dataSetFlags1
		want byte
	}{
		{name: "zero", in: dataSetFlags1{}, want: 0x00},
		{name: "valid", in: dataSetFlags1{valid: true}, want: 0x01},
		{name: "field encoding", in: dataSetFlags1{fieldEncoding: 0x03}, want: 0x06},
		{name: "sequence number", in: dataSetFlags1{seqNrEnabled: true}, want: 0x08},
		{name: "status", in: dataSetFlags1{statusEnabled: true}, want: 0x10},
		{name: "config major", in: dataSetFlags1{cfgMajorEnabled: true}, want: 0x20},
		{name: "config minor", in: dataSetFlags1{cfgMinorEnabled: true}, want: 0x40},
		{name: "flags2 present", in: dataSetFlags1{flags2Enabled: true}, want: 0x80},
		{
			name: "all set",
			in: dataSetFlags1{
				valid: true, fieldEncoding: 0x03, seqNrEnabled: true, statusEnabled: true,
				cfgMajorEnabled: true, cfgMinorEnabled: true, flags2Enabled: true,
			},
			want: 0xFF,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := packDataSetFlags1(tt.in)
			require.Equal(t, tt.want, got)
			require.Equal(t, tt.in, unpackDataSetFlags1(got))
		})
	}
}

func TestDataSetFlags2BitLayout(t *testing.T) {
	tests := []struct {
		name string
		in   dataSetFlags2
		want byte
	}{
		{name: "zero", in: dataSetFlags2{}, want: 0x00},
		{name: "msg type", in: dataSetFlags2{msgType: 0x0f}, want: 0x0f},
		{name: "timestamp", in: dataSetFlags2{timestampEnabled: true}, want: 0x10},
		{name: "picoseconds", in: dataSetFlags2{picosecondsEnabled: true}, want: 0x20},
		{
			name: "all set",
			in:   dataSetFlags2{msgType: 0x0f, timestampEnabled: true, picosecondsEnabled: true},
			want: 0x3f,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := packDataSetFlags2(tt.in)
			require.Equal(t, tt.want, got)
			require.Equal(t, tt.in, unpackDataSetFlags2(got))
		})
	}
}
