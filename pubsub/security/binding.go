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

// ChannelBinding pairs a Policy with the ChannelContext its keys live on,
// giving the two-argument Policy calls the single-argument shape
// pubsub/rt.Channel's SecurityPolicy interface expects: one bound object
// per channel, not a policy plus a context threaded through every call.
type ChannelBinding struct {
	Policy  Policy
	Context *ChannelContext
}

// NewChannelBinding binds policy to ctx for use as an rt.Channel security policy.
func NewChannelBinding(policy Policy, ctx *ChannelContext) *ChannelBinding {
	return &ChannelBinding{Policy: policy, Context: ctx}
}

// Encrypt satisfies pubsub/rt.SecurityPolicy.
func (b *ChannelBinding) Encrypt(buf []byte) error {
	_, err := b.Policy.Encrypt(b.Context, buf)
	return err
}

// Sign satisfies pubsub/rt.SecurityPolicy.
func (b *ChannelBinding) Sign(buf []byte) ([]byte, error) {
	return b.Policy.Sign(b.Context, buf)
}
