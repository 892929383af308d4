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

// Package config loads the YAML configuration for the pubsub command-line
// tools: transport addressing, encoding options, security group binding,
// and the realtime cycle interval. Split into Static (requires a process
// restart to change) and Dynamic (safe to hot-reload) the way ptp4u's own
// server config is split.
package config

import (
	"fmt"
	"os"
	"time"

	yaml "gopkg.in/yaml.v2"
)

// FieldSet names the published fields of one DataSetWriter, resolving to
// a pubsub.DataSetMessageMetadata at startup.
type FieldSet struct {
	WriterID   uint16   `yaml:"writer_id"`
	FieldNames []string `yaml:"field_names"`
	RawLength  int      `yaml:"raw_length"`
}

// Transport configures the UDP channel a publisher sends through or a
// subscriber receives on.
type Transport struct {
	LocalAddr       string `yaml:"local_addr"`
	RemoteAddr      string `yaml:"remote_addr"`
	MulticastGroup  string `yaml:"multicast_group"`
	Interface       string `yaml:"interface"`
	ReadBufferBytes int    `yaml:"read_buffer_bytes"`
}

// Security configures the symmetric security policy binding for a
// channel. Enabled false skips signing/encryption entirely. SecurityGroup
// names the Security Key Service group this channel's keys come from;
// actual key material is never stored in this file.
type Security struct {
	Enabled       bool   `yaml:"enabled"`
	SecurityGroup string `yaml:"security_group"`
}

// Encoding configures the wire codec: binary (UADP) vs JSON, and JSON's
// own formatting switches.
type Encoding struct {
	JSON          bool     `yaml:"json"`
	UseReversible bool     `yaml:"use_reversible"`
	PrettyPrint   bool     `yaml:"pretty_print"`
	UnquotedKeys  bool     `yaml:"unquoted_keys"`
	StringNodeIDs bool     `yaml:"string_node_ids"`
	Namespaces    []string `yaml:"namespaces"`
	ServerURIs    []string `yaml:"server_uris"`
	MaxJSONTokens uint16   `yaml:"max_json_tokens"`
}

// StaticConfig is the set of options that require a process restart to
// take effect: addressing, the data set shape, and the codec choice.
type StaticConfig struct {
	ConfigFile  string
	LogLevel    string     `yaml:"log_level"`
	MetricsAddr string     `yaml:"metrics_addr"`
	Transport   Transport  `yaml:"transport"`
	Encoding    Encoding   `yaml:"encoding"`
	FieldSets   []FieldSet `yaml:"field_sets"`
}

// DynamicConfig is the set of options safe to change without a restart: a
// running publisher reloads these on its own schedule.
type DynamicConfig struct {
	Security     Security      `yaml:"security"`
	CycleInterval time.Duration `yaml:"cycle_interval"`
}

// Config is the full configuration for a pubsub-publisher or
// pubsub-subscriber binary.
type Config struct {
	StaticConfig  `yaml:",inline"`
	DynamicConfig `yaml:",inline"`
}

// sanityCheck rejects configurations that would silently misbehave.
func (dc *DynamicConfig) sanityCheck() error {
	if dc.CycleInterval < 0 {
		return fmt.Errorf("cycle_interval must not be negative, got %s", dc.CycleInterval)
	}
	return nil
}

// Read loads a full Config from a YAML file at path.
func Read(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c := &Config{}
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, err
	}
	c.ConfigFile = path
	if err := c.sanityCheck(); err != nil {
		return nil, err
	}
	return c, nil
}

// ReadDynamicConfig reloads just the hot-reloadable section of path,
// leaving the caller's StaticConfig untouched — the same shape as
// ptp4u's own dynamic-config reload.
func ReadDynamicConfig(path string) (*DynamicConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	dc := &DynamicConfig{}
	if err := yaml.Unmarshal(data, dc); err != nil {
		return nil, err
	}
	if err := dc.sanityCheck(); err != nil {
		return nil, err
	}
	return dc, nil
}

// Write serializes c back to path, e.g. after a CLI flag override.
func (c *Config) Write(path string) error {
	d, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, d, 0644)
}
