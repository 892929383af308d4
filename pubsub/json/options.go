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

// Package json implements the JSON wire representation of OPC UA PubSub
// NetworkMessages: the same nested message model the uadp package encodes
// as bit-packed binary, reinterpreted here as nested JSON objects with
// named keys. Built on encoding/json directly rather than reaching for a
// third-party JSON library.
package json

import "github.com/fraunhoferiosb/opcua-pubsub/pubsub"

// Options configures the JSON codec. It embeds pubsub.EncodingOptions for
// the field-name/custom-type metadata shared with the binary codec, plus
// the JSON-only switches spec.md lists alongside them.
type Options struct {
	pubsub.EncodingOptions

	// UseReversible selects the reversible encoding (Variants wrapped in
	// {Type, Body, Dimension?}) when true, the default, or the bare,
	// non-reversible body-only encoding when false.
	UseReversible bool

	PrettyPrint   bool
	UnquotedKeys  bool
	StringNodeIDs bool

	// Namespaces and ServerURIs back the non-reversible encoding's
	// namespace/server index lookup tables; unused in reversible mode.
	Namespaces []string
	ServerURIs []string

	// MaxTokens is read through maxTokens, where 0 selects 256. The
	// decoder does not consult it and places no bound on the number of
	// tokens in its input.
	MaxTokens uint16
}

// Reversible returns Options for enc with UseReversible set true, the common case.
func Reversible(enc pubsub.EncodingOptions) Options {
	return Options{EncodingOptions: enc, UseReversible: true}
}

func (o Options) maxTokens() int {
	if o.MaxTokens == 0 {
		return 256
	}
	return int(o.MaxTokens)
}
