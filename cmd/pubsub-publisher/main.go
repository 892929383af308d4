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

// pubsub-publisher runs a realtime PubSub publish loop over UDP: it
// builds one NetworkMessage shape from its field sets, hands it to
// pubsub/rt.Channel, and cycles it on an interval, mutating the sample
// field values each time. Sourcing real values from a server's address
// space is the host application's job; this binary stands in a
// monotonic counter per field so the realtime patch path has something
// to do.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"net/http"

	"github.com/fraunhoferiosb/opcua-pubsub/internal/config"
	"github.com/fraunhoferiosb/opcua-pubsub/internal/logging"
	"github.com/fraunhoferiosb/opcua-pubsub/pubsub"
	"github.com/fraunhoferiosb/opcua-pubsub/pubsub/rt"
	"github.com/fraunhoferiosb/opcua-pubsub/pubsub/security"
	"github.com/fraunhoferiosb/opcua-pubsub/pubsub/sks"
	"github.com/fraunhoferiosb/opcua-pubsub/pubsub/transport"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "pubsub-publisher",
	Short: "publish a realtime PubSub NetworkMessage over UDP",
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

	reg := prometheus.NewRegistry()
	if c.MetricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
			log.Warningf("serving metrics on %s", c.MetricsAddr)
			log.Error(http.ListenAndServe(c.MetricsAddr, mux))
		}()
	}

	opts := buildEncodingOptions(c.FieldSets)
	message := buildMessage(c.FieldSets)

	pool := rt.NewBufferPool()
	channel := rt.NewChannel(opts, pool, reg, "publisher")
	if err := channel.Configure(message); err != nil {
		log.Fatalf("configuring channel: %v", err)
	}

	udp := transport.NewUDP(transport.UDPConfig{
		LocalAddr:       c.Transport.LocalAddr,
		RemoteAddr:      c.Transport.RemoteAddr,
		MulticastGroup:  c.Transport.MulticastGroup,
		Interface:       c.Transport.Interface,
		ReadBufferBytes: c.Transport.ReadBufferBytes,
	})

	var sec rt.SecurityPolicy
	if c.Security.Enabled {
		sec, err = buildSecurityPolicy(c.Security)
		if err != nil {
			log.Fatalf("building security policy: %v", err)
		}
	}

	if err := channel.Register(udp, sec); err != nil {
		log.Fatalf("registering channel: %v", err)
	}
	defer channel.Dispose()

	interval := c.CycleInterval
	if interval <= 0 {
		interval = time.Second
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var counter uint32
	log.Infof("publishing every %s to %s", interval, c.Transport.RemoteAddr)
	for {
		select {
		case <-ctx.Done():
			log.Info("shutting down")
			return
		case now := <-ticker.C:
			counter++
			bumpSampleValues(message, counter)
			if err := channel.Cycle(ctx, now); err != nil {
				log.Errorf("publish cycle failed: %v", err)
				if err := channel.Configure(message); err != nil {
					log.Errorf("reconfigure after invalidation failed: %v", err)
					continue
				}
				if err := channel.Register(udp, sec); err != nil {
					log.Errorf("re-register after invalidation failed: %v", err)
				}
			}
		}
	}
}

func buildEncodingOptions(fieldSets []config.FieldSet) pubsub.EncodingOptions {
	opts := pubsub.EncodingOptions{}
	for _, fs := range fieldSets {
		opts.DataSets = append(opts.DataSets, pubsub.DataSetMessageMetadata{
			WriterID:   fs.WriterID,
			FieldNames: fs.FieldNames,
			RawLength:  fs.RawLength,
		})
	}
	return opts
}

func buildMessage(fieldSets []config.FieldSet) *pubsub.NetworkMessage {
	m := &pubsub.NetworkMessage{
		MessageType:          pubsub.MessageTypeDataset,
		GroupHeaderEnabled:   true,
		PayloadHeaderEnabled: true,
		GroupHeader: pubsub.GroupHeader{
			GroupVersionEnabled: true,
			GroupVersion:        1,
		},
	}
	for _, fs := range fieldSets {
		m.PayloadHeader.DataSetWriterIDs = append(m.PayloadHeader.DataSetWriterIDs, fs.WriterID)
		fields := make([]pubsub.DataValue, len(fs.FieldNames))
		for i := range fields {
			fields[i] = pubsub.DataValue{Value: pubsub.Variant{Type: pubsub.TypeUInt32, UInt32: 0}}
		}
		m.DataSetMessages = append(m.DataSetMessages, pubsub.DataSetMessage{
			Header: pubsub.DataSetMessageHeader{
				Valid:         true,
				Type:          pubsub.DataSetMessageTypeKeyFrame,
				FieldEncoding: pubsub.FieldEncodingVariant,
			},
			KeyFrame: pubsub.KeyFrameData{Fields: fields},
		})
	}
	return m
}

func bumpSampleValues(m *pubsub.NetworkMessage, counter uint32) {
	m.GroupHeader.GroupVersion = counter
	for i := range m.DataSetMessages {
		for j := range m.DataSetMessages[i].KeyFrame.Fields {
			m.DataSetMessages[i].KeyFrame.Fields[j].Value.UInt32 = counter
		}
	}
}

func buildSecurityPolicy(sc config.Security) (rt.SecurityPolicy, error) {
	registry := sks.NewRegistry()
	ks, err := registry.AddSecurityGroup(sc.SecurityGroup, 2, 2)
	if err != nil {
		return nil, err
	}
	policy := security.NewAESPolicy()

	signingKey := make([]byte, 32)
	if err := policy.GenerateKey([]byte(sc.SecurityGroup), []byte("signing"), signingKey); err != nil {
		return nil, err
	}
	derivedEncryptingKey := make([]byte, 16)
	if err := policy.GenerateKey([]byte(sc.SecurityGroup), []byte("encrypting"), derivedEncryptingKey); err != nil {
		return nil, err
	}
	iv := make([]byte, 16)
	if err := policy.GenerateNonce(iv); err != nil {
		return nil, err
	}
	// Rotate installs the freshly derived key as this group's current key;
	// the channel context is then loaded back from the SKS rather than
	// from derivedEncryptingKey directly. This runs once at startup: the
	// registry is local to this function, and a reconfigure re-registers
	// the same policy, so the key does not change while the process runs.
	if err := ks.Rotate(sks.Key{ID: 1, Data: derivedEncryptingKey}); err != nil {
		return nil, err
	}
	currentKey, err := ks.CurrentKey()
	if err != nil {
		return nil, err
	}

	ctx := &security.ChannelContext{}
	ctx.SetLocalSymSigningKey(signingKey)
	ctx.SetLocalSymEncryptingKey(currentKey.Data)
	ctx.SetLocalSymIV(iv)

	return security.NewChannelBinding(policy, ctx), nil
}
