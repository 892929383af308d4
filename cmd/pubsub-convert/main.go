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

// pubsub-convert reads a NetworkMessage from stdin or a file and writes
// its other wire form: binary UADP to JSON by default, or JSON back to
// binary UADP with --reverse. With --metadata, it converts a
// DataSetMetaData document instead of a NetworkMessage.
package main

import (
	"io"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/fraunhoferiosb/opcua-pubsub/pubsub"
	pubsubjson "github.com/fraunhoferiosb/opcua-pubsub/pubsub/json"
	"github.com/fraunhoferiosb/opcua-pubsub/pubsub/uadp"
)

var (
	inPath    string
	outPath   string
	reverse   bool
	metadata  bool
	prettyOut bool
)

var rootCmd = &cobra.Command{
	Use:   "pubsub-convert",
	Short: "convert a PubSub NetworkMessage between binary UADP and JSON",
	Run:   run,
}

func init() {
	rootCmd.Flags().StringVar(&inPath, "in", "", "input file; defaults to stdin")
	rootCmd.Flags().StringVar(&outPath, "out", "", "output file; defaults to stdout")
	rootCmd.Flags().BoolVar(&reverse, "reverse", false, "convert JSON to binary UADP instead of binary to JSON")
	rootCmd.Flags().BoolVar(&metadata, "metadata", false, "convert a DataSetMetaData document instead of a NetworkMessage")
	rootCmd.Flags().BoolVar(&prettyOut, "pretty", true, "pretty-print JSON output")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

func run(_ *cobra.Command, _ []string) {
	input, err := readInput(inPath)
	if err != nil {
		log.Fatalf("reading input: %v", err)
	}

	var output []byte
	if metadata {
		output, err = convertMetaData(input)
	} else {
		output, err = convertNetworkMessage(input, reverse)
	}
	if err != nil {
		log.Fatalf("conversion failed: %v", err)
	}

	if err := writeOutput(outPath, output); err != nil {
		log.Fatalf("writing output: %v", err)
	}
}

func convertNetworkMessage(input []byte, fromJSON bool) ([]byte, error) {
	opts := pubsub.EncodingOptions{}
	jsonOpts := pubsubjson.Options{EncodingOptions: opts, UseReversible: true, PrettyPrint: prettyOut}

	if fromJSON {
		m, err := pubsubjson.DecodeNetworkMessage(jsonOpts, input)
		if err != nil {
			return nil, err
		}
		size, err := uadp.CalcSizeNetworkMessage(opts, &m)
		if err != nil {
			return nil, err
		}
		return uadp.EncodeBinary(make([]byte, size), opts, &m)
	}

	m, err := uadp.DecodeBinary(input, opts)
	if err != nil {
		return nil, err
	}
	return pubsubjson.EncodeNetworkMessage(jsonOpts, &m)
}

// convertMetaData decodes then re-encodes a DataSetMetaData document.
// MetaData has only one wire form (JSON); --reverse is meaningless here
// and ignored — the useful operation is reformatting (e.g. --pretty).
func convertMetaData(input []byte) ([]byte, error) {
	opts := pubsubjson.Options{PrettyPrint: prettyOut, UseReversible: true}
	md, err := pubsubjson.DecodeMetaData(opts, input)
	if err != nil {
		return nil, err
	}
	return pubsubjson.EncodeMetaData(opts, md)
}

func readInput(path string) ([]byte, error) {
	if path == "" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

func writeOutput(path string, data []byte) error {
	if path == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0644)
}
