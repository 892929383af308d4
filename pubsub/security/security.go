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

// Package security defines the security policy collaborator a channel
// binds to before its first Cycle, plus a symmetric AES/HMAC reference
// implementation. Key management, rotation, and certificate handling are
// the Security Key Service's problem, not this package's.
package security

import "github.com/fraunhoferiosb/opcua-pubsub/pubsub"

// ChannelContext holds the symmetric key material negotiated for one
// security token: a signing key, an encrypting key, and an IV/nonce base.
// A publisher and its subscribers each hold their own context derived
// from the same SKS-distributed key.
type ChannelContext struct {
	signingKey    []byte
	encryptingKey []byte
	iv            []byte
}

// SetLocalSymSigningKey installs the key Sign/Verify authenticate with.
func (c *ChannelContext) SetLocalSymSigningKey(key []byte) {
	c.signingKey = append([]byte(nil), key...)
}

// SetLocalSymEncryptingKey installs the key Encrypt/Decrypt use.
func (c *ChannelContext) SetLocalSymEncryptingKey(key []byte) {
	c.encryptingKey = append([]byte(nil), key...)
}

// SetLocalSymIV installs the base IV Encrypt/Decrypt derive their
// per-message counter from.
func (c *ChannelContext) SetLocalSymIV(iv []byte) {
	c.iv = append([]byte(nil), iv...)
}

func (c *ChannelContext) ready() error {
	if len(c.signingKey) == 0 || len(c.encryptingKey) == 0 || len(c.iv) == 0 {
		return pubsub.NewSecurityFailureError("channel context missing signing key, encrypting key, or IV")
	}
	return nil
}

// Policy is the security policy collaborator: nonce and key generation,
// plus sign/verify/encrypt/decrypt bound to a ChannelContext's installed
// key material. Encrypt and Decrypt must preserve the input length — the
// realtime offset table assumes the encrypted range never grows or
// shrinks relative to the plaintext it replaced.
type Policy interface {
	GenerateNonce(buf []byte) error
	GenerateKey(secret, seed []byte, buf []byte) error

	Sign(ctx *ChannelContext, data []byte) ([]byte, error)
	Verify(ctx *ChannelContext, data, signature []byte) error
	Encrypt(ctx *ChannelContext, data []byte) ([]byte, error)
	Decrypt(ctx *ChannelContext, data []byte) ([]byte, error)
}
