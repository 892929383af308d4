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

// pubsub-subscriber listens for NetworkMessages on UDP and dumps each
// one's dataset field values to a table, decoding either binary (UADP)
// or JSON depending on config.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/fraunhoferiosb/opcua-pubsub/internal/config"
	"github.com/fraunhoferiosb/opcua-pubsub/internal/logging"
	"github.com/fraunhoferiosb/opcua-pubsub/pubsub"
	pubsubjson "github.com/fraunhoferiosb/opcua-pubsub/pubsub/json"
	"github.com/fraunhoferiosb/opcua-pubsub/pubsub/transport"
	"github.com/fraunhoferiosb/opcua-pubsub/pubsub/uadp"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "pubsub-subscriber",
	Short: "receive PubSub NetworkMessages over UDP and print their dataset values",
	Run:   run,
}

func init() {
	rootCmd.Flags().StringVar(&configFile, "config", "", "path to a YAML config file")
	if err := rootCmd.MarkFlagRequired("config"); err != nil {
		log.Fatal(err)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

func run(_ *cobra.Command, _ []string) {
	c, err := config.Read(configFile)
	if err != nil {
		log.Fatalf("reading config: %v", err)
	}
	logging.Setup(c.LogLevel, false)

	opts := pubsub.EncodingOptions{}
	for _, fs := range c.FieldSets {
		opts.DataSets = append(opts.DataSets, pubsub.DataSetMessageMetadata{
			WriterID:   fs.WriterID,
			FieldNames: fs.FieldNames,
			RawLength:  fs.RawLength,
		})
	}

	udp := transport.NewUDP(transport.UDPConfig{
		LocalAddr:       c.Transport.LocalAddr,
		MulticastGroup:  c.Transport.MulticastGroup,
		Interface:       c.Transport.Interface,
		ReadBufferBytes: c.Transport.ReadBufferBytes,
	})
	if err := udp.Register(); err != nil {
		log.Fatalf("registering receiver: %v", err)
	}
	defer udp.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	log.Infof("listening on %s", c.Transport.LocalAddr)
	err = udp.ReceiveWith(ctx, 0, func(_ context.Context, buf []byte) {
		m, err := decode(buf, opts, c.Encoding.JSON)
		if err != nil {
			log.Errorf("decode failed: %v", color.RedString(err.Error()))
			return
		}
		printMessage(m)
	})
	if err != nil && ctx.Err() == nil {
		log.Fatalf("receive loop failed: %v", err)
	}
}

func decode(buf []byte, opts pubsub.EncodingOptions, useJSON bool) (pubsub.NetworkMessage, error) {
	if useJSON {
		return pubsubjson.DecodeNetworkMessage(pubsubjson.Reversible(opts), buf)
	}
	return uadp.DecodeBinary(buf, opts)
}

func printMessage(m pubsub.NetworkMessage) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetColWidth(20)
	table.SetHeader([]string{"writer id", "type", "field", "value"})

	for i, dsm := range m.DataSetMessages {
		writerID := dsm.DataSetWriterID
		if i < len(m.PayloadHeader.DataSetWriterIDs) {
			writerID = m.PayloadHeader.DataSetWriterIDs[i]
		}
		if len(dsm.KeyFrame.Fields) == 0 {
			table.Append([]string{fmt.Sprintf("%d", writerID), dsm.Header.Type.String(), "-", "-"})
			continue
		}
		for j, f := range dsm.KeyFrame.Fields {
			table.Append([]string{
				fmt.Sprintf("%d", writerID),
				dsm.Header.Type.String(),
				fmt.Sprintf("field[%d]", j),
				formatVariant(f.Value),
			})
		}
	}
	table.Render()
}

// formatVariant prints the one scalar field Type selects, rather than
// dumping the whole tagged-union struct with its dozens of zero fields.
func formatVariant(v pubsub.Variant) string {
	switch v.Type {
	case pubsub.TypeBoolean:
		return fmt.Sprintf("%v", v.Bool)
	case pubsub.TypeSByte:
		return fmt.Sprintf("%d", v.SByte)
	case pubsub.TypeByte:
		return fmt.Sprintf("%d", v.Byte)
	case pubsub.TypeInt16:
		return fmt.Sprintf("%d", v.Int16)
	case pubsub.TypeUInt16:
		return fmt.Sprintf("%d", v.UInt16)
	case pubsub.TypeInt32:
		return fmt.Sprintf("%d", v.Int32)
	case pubsub.TypeUInt32:
		return fmt.Sprintf("%d", v.UInt32)
	case pubsub.TypeInt64:
		return fmt.Sprintf("%d", v.Int64)
	case pubsub.TypeUInt64:
		return fmt.Sprintf("%d", v.UInt64)
	case pubsub.TypeFloat:
		return fmt.Sprintf("%g", v.Float)
	case pubsub.TypeDouble:
		return fmt.Sprintf("%g", v.Double)
	case pubsub.TypeString:
		return v.Str
	case pubsub.TypeDateTime:
		return v.DateTime.String()
	default:
		return fmt.Sprintf("%s(...)", v.Type)
	}
}
