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

package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"io"

	"golang.org/x/crypto/hkdf"

	"github.com/fraunhoferiosb/opcua-pubsub/pubsub"
)

// AESPolicy signs with HMAC-SHA256 and encrypts with AES-CTR, the
// symmetric primitives named for a PubSub security policy without a
// specific profile URI attached. CTR is a stream cipher: ciphertext is
// exactly as long as plaintext, which the realtime offset table depends
// on. The IV used for Encrypt/Decrypt is whatever SetLocalSymIV last
// installed on the ChannelContext — callers derive a fresh one per cycle
// from the message's own security header nonce, the way the wire format
// already carries one.
type AESPolicy struct{}

// NewAESPolicy builds a ready-to-use AESPolicy; it carries no state of
// its own, all key material living on the ChannelContext passed to each call.
func NewAESPolicy() *AESPolicy {
	return &AESPolicy{}
}

// GenerateNonce fills buf with random bytes suitable for a security
// header nonce or a fresh IV.
func (AESPolicy) GenerateNonce(buf []byte) error {
	_, err := rand.Read(buf)
	return err
}

// GenerateKey derives len(buf) bytes from secret and seed via HKDF-SHA256,
// the same construction used elsewhere in the pack to stretch a shared
// secret into a fixed-length symmetric key.
func (AESPolicy) GenerateKey(secret, seed []byte, buf []byte) error {
	kdf := hkdf.New(sha256.New, secret, seed, nil)
	_, err := io.ReadFull(kdf, buf)
	return err
}

// Sign returns an HMAC-SHA256 over data keyed by ctx's signing key.
func (AESPolicy) Sign(ctx *ChannelContext, data []byte) ([]byte, error) {
	if err := ctx.ready(); err != nil {
		return nil, err
	}
	mac := hmac.New(sha256.New, ctx.signingKey)
	mac.Write(data)
	return mac.Sum(nil), nil
}

// Verify recomputes the HMAC over data and compares it to signature in
// constant time.
func (a AESPolicy) Verify(ctx *ChannelContext, data, signature []byte) error {
	expected, err := a.Sign(ctx, data)
	if err != nil {
		return err
	}
	if !hmac.Equal(expected, signature) {
		return pubsub.NewSecurityFailureError("signature mismatch")
	}
	return nil
}

// Encrypt XORs data with an AES-CTR keystream in place, keyed by ctx's
// encrypting key and IV, and returns the same backing slice.
func (AESPolicy) Encrypt(ctx *ChannelContext, data []byte) ([]byte, error) {
	return ctrXOR(ctx, data)
}

// Decrypt is Encrypt's inverse; CTR is its own inverse given the same
// key and IV.
func (AESPolicy) Decrypt(ctx *ChannelContext, data []byte) ([]byte, error) {
	return ctrXOR(ctx, data)
}

func ctrXOR(ctx *ChannelContext, data []byte) ([]byte, error) {
	if err := ctx.ready(); err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(ctx.encryptingKey)
	if err != nil {
		return nil, pubsub.NewSecurityFailureError("building AES cipher: %v", err)
	}
	iv := ctx.iv
	if len(iv) != aes.BlockSize {
		return nil, pubsub.NewSecurityFailureError("IV must be %d bytes, got %d", aes.BlockSize, len(iv))
	}
	stream := cipher.NewCTR(block, iv)
	stream.XORKeyStream(data, data)
	return data, nil
}
