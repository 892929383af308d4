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

import "github.com/fraunhoferiosb/opcua-pubsub/pubsub"

// NodeId encoding-byte identifier-type values (low 6 bits of the first
// byte; two-byte and four-byte numeric forms are compact aliases of the
// general numeric encoding and are not produced by this codec).
const (
	nodeIDEncodingNumeric = 0x01
	nodeIDEncodingString  = 0x03
	nodeIDEncodingGUID    = 0x04
	nodeIDEncodingOpaque  = 0x05

	nodeIDFlagNamespaceURI = 0x80
	nodeIDFlagServerIndex  = 0x40
)

// EncodeNodeID writes a NodeId using its general (non-compact) numeric,
// string, GUID, or opaque encoding.
func EncodeNodeID(c *EncodeCursor, n pubsub.NodeID) error {
	var tag byte
	switch n.IdentifierType {
	case pubsub.NodeIDTypeNumeric:
		tag = nodeIDEncodingNumeric
	case pubsub.NodeIDTypeString:
		tag = nodeIDEncodingString
	case pubsub.NodeIDTypeGUID:
		tag = nodeIDEncodingGUID
	case pubsub.NodeIDTypeOpaque:
		tag = nodeIDEncodingOpaque
	default:
		return pubsub.NewMalformedError("unknown NodeId identifier type %d", n.IdentifierType)
	}
	if err := c.WriteByte(tag); err != nil {
		return err
	}
	if err := EncodeUint16(c, n.NamespaceIndex); err != nil {
		return err
	}
	switch n.IdentifierType {
	case pubsub.NodeIDTypeNumeric:
		return EncodeUint32(c, n.Numeric)
	case pubsub.NodeIDTypeString:
		return EncodeString(c, n.StringID, false)
	case pubsub.NodeIDTypeGUID:
		return EncodeGUID(c, n.GUIDID)
	case pubsub.NodeIDTypeOpaque:
		return EncodeByteString(c, n.Opaque)
	}
	return nil
}

// DecodeNodeID reads a NodeId.
func DecodeNodeID(c *DecodeCursor) (pubsub.NodeID, error) {
	var n pubsub.NodeID
	tag, err := DecodeByte(c)
	if err != nil {
		return n, err
	}
	switch tag {
	case nodeIDEncodingNumeric:
		n.IdentifierType = pubsub.NodeIDTypeNumeric
	case nodeIDEncodingString:
		n.IdentifierType = pubsub.NodeIDTypeString
	case nodeIDEncodingGUID:
		n.IdentifierType = pubsub.NodeIDTypeGUID
	case nodeIDEncodingOpaque:
		n.IdentifierType = pubsub.NodeIDTypeOpaque
	default:
		return n, pubsub.NewMalformedError("unknown NodeId encoding byte 0x%02x", tag)
	}
	ns, err := DecodeUint16(c)
	if err != nil {
		return n, err
	}
	n.NamespaceIndex = ns
	switch n.IdentifierType {
	case pubsub.NodeIDTypeNumeric:
		n.Numeric, err = DecodeUint32(c)
	case pubsub.NodeIDTypeString:
		n.StringID, _, err = DecodeString(c)
	case pubsub.NodeIDTypeGUID:
		n.GUIDID, err = DecodeGUID(c)
	case pubsub.NodeIDTypeOpaque:
		n.Opaque, err = DecodeByteString(c)
	}
	return n, err
}

// EncodeExpandedNodeID writes a NodeId with its optional namespace URI and
// server index flagged in the encoding byte's top two bits.
func EncodeExpandedNodeID(c *EncodeCursor, n pubsub.ExpandedNodeID) error {
	var tag byte
	switch n.IdentifierType {
	case pubsub.NodeIDTypeNumeric:
		tag = nodeIDEncodingNumeric
	case pubsub.NodeIDTypeString:
		tag = nodeIDEncodingString
	case pubsub.NodeIDTypeGUID:
		tag = nodeIDEncodingGUID
	case pubsub.NodeIDTypeOpaque:
		tag = nodeIDEncodingOpaque
	}
	hasURI := n.NamespaceURI != ""
	hasServer := n.ServerIndex != 0
	if hasURI {
		tag |= nodeIDFlagNamespaceURI
	}
	if hasServer {
		tag |= nodeIDFlagServerIndex
	}
	if err := c.WriteByte(tag); err != nil {
		return err
	}
	if err := EncodeUint16(c, n.NamespaceIndex); err != nil {
		return err
	}
	switch n.IdentifierType {
	case pubsub.NodeIDTypeNumeric:
		if err := EncodeUint32(c, n.Numeric); err != nil {
			return err
		}
	case pubsub.NodeIDTypeString:
		if err := EncodeString(c, n.StringID, false); err != nil {
			return err
		}
	case pubsub.NodeIDTypeGUID:
		if err := EncodeGUID(c, n.GUIDID); err != nil {
			return err
		}
	case pubsub.NodeIDTypeOpaque:
		if err := EncodeByteString(c, n.Opaque); err != nil {
			return err
		}
	}
	if hasURI {
		if err := EncodeString(c, n.NamespaceURI, false); err != nil {
			return err
		}
	}
	if hasServer {
		if err := EncodeUint32(c, n.ServerIndex); err != nil {
			return err
		}
	}
	return nil
}

// DecodeExpandedNodeID reads an ExpandedNodeId.
func DecodeExpandedNodeID(c *DecodeCursor) (pubsub.ExpandedNodeID, error) {
	var n pubsub.ExpandedNodeID
	tag, err := DecodeByte(c)
	if err != nil {
		return n, err
	}
	hasURI := tag&nodeIDFlagNamespaceURI != 0
	hasServer := tag&nodeIDFlagServerIndex != 0
	switch tag & 0x3f {
	case nodeIDEncodingNumeric:
		n.IdentifierType = pubsub.NodeIDTypeNumeric
	case nodeIDEncodingString:
		n.IdentifierType = pubsub.NodeIDTypeString
	case nodeIDEncodingGUID:
		n.IdentifierType = pubsub.NodeIDTypeGUID
	case nodeIDEncodingOpaque:
		n.IdentifierType = pubsub.NodeIDTypeOpaque
	default:
		return n, pubsub.NewMalformedError("unknown ExpandedNodeId encoding byte 0x%02x", tag)
	}
	ns, err := DecodeUint16(c)
	if err != nil {
		return n, err
	}
	n.NamespaceIndex = ns
	switch n.IdentifierType {
	case pubsub.NodeIDTypeNumeric:
		n.Numeric, err = DecodeUint32(c)
	case pubsub.NodeIDTypeString:
		n.StringID, _, err = DecodeString(c)
	case pubsub.NodeIDTypeGUID:
		n.GUIDID, err = DecodeGUID(c)
	case pubsub.NodeIDTypeOpaque:
		n.Opaque, err = DecodeByteString(c)
	}
	if err != nil {
		return n, err
	}
	if hasURI {
		n.NamespaceURI, _, err = DecodeString(c)
		if err != nil {
			return n, err
		}
	}
	if hasServer {
		n.ServerIndex, err = DecodeUint32(c)
		if err != nil {
			return n, err
		}
	}
	return n, nil
}
