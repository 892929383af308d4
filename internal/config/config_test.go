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

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const testYAML = `
log_level: debug
metrics_addr: ":9200"
transport:
  local_addr: "0.0.0.0:4840"
  remote_addr: "239.0.0.1:4840"
  multicast_group: "239.0.0.1"
encoding:
  json: false
  use_reversible: true
field_sets:
  - writer_id: 1
    field_names: ["temperature", "pressure"]
security:
  enabled: true
  security_group: "group-1"
cycle_interval: 100ms
`

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
	return path
}

func TestReadParsesFullConfig(t *testing.T) {
	path := writeTempConfig(t, testYAML)

	c, err := Read(path)
	require.NoError(t, err)
	require.Equal(t, "debug", c.LogLevel)
	require.Equal(t, "0.0.0.0:4840", c.Transport.LocalAddr)
	require.Equal(t, "239.0.0.1", c.Transport.MulticastGroup)
	require.True(t, c.Encoding.UseReversible)
	require.Len(t, c.FieldSets, 1)
	require.Equal(t, uint16(1), c.FieldSets[0].WriterID)
	require.True(t, c.Security.Enabled)
	require.Equal(t, "group-1", c.Security.SecurityGroup)
	require.Equal(t, 100*time.Millisecond, c.CycleInterval)
	require.Equal(t, path, c.ConfigFile)
}

func TestReadRejectsNegativeCycleInterval(t *testing.T) {
	path := writeTempConfig(t, "cycle_interval: -1s\n")
	_, err := Read(path)
	require.Error(t, err)
}

func TestReadMissingFileReturnsError(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestReadDynamicConfigOnlyTouchesDynamicSection(t *testing.T) {
	path := writeTempConfig(t, "security:\n  enabled: true\n  security_group: g\ncycle_interval: 250ms\n")
	dc, err := ReadDynamicConfig(path)
	require.NoError(t, err)
	require.True(t, dc.Security.Enabled)
	require.Equal(t, 250*time.Millisecond, dc.CycleInterval)
}

func TestWriteRoundTrips(t *testing.T) {
	path := writeTempConfig(t, testYAML)
	c, err := Read(path)
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "out.yaml")
	require.NoError(t, c.Write(out))

	reread, err := Read(out)
	require.NoError(t, err)
	require.Equal(t, c.Transport, reread.Transport)
	require.Equal(t, c.Encoding, reread.Encoding)
}
