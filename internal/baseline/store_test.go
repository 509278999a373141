package baseline

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"premigration-validator/internal/parser"
)

var runTime = time.Date(2026, 10, 19, 21, 5, 9, 0, time.UTC)

func TestStoreNaming(t *testing.T) {
	s := NewStore(runTime)
	assert.Equal(t, "20261019_210509", s.Version())
	assert.Equal(t, "baseline_20261019_210509.json", s.Filename())
}

func TestStoreSave(t *testing.T) {
	s := NewStore(runTime)
	s.Put("UPE9", Record{
		BGPSessions:   12,
		OSPFNeighbors: 2,
		Interfaces:    map[string]parser.InterfaceRate{"Bundle-Ether100": {InputBps: 1000, OutputBps: 2000}},
	})
	s.Put("UPE10", Record{Error: "connect to UPE10: i/o timeout"})

	dir := filepath.Join(t.TempDir(), "out")
	path, err := s.Save(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "baseline_20261019_210509.json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `{
  "UPE10": {
    "bgp_sessions": 0,
    "bgp_prefixes": 0,
    "ospf_neighbors": 0,
    "interfaces": {},
    "error": "connect to UPE10: i/o timeout"
  },
  "UPE9": {
    "bgp_sessions": 12,
    "bgp_prefixes": 0,
    "ospf_neighbors": 2,
    "interfaces": {
      "Bundle-Ether100": {
        "input_bps": 1000,
        "output_bps": 2000
      }
    }
  }
}`, string(data))

	var decoded map[string]Record
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, s.Records, decoded)
}

func TestStoreSaveEmpty(t *testing.T) {
	path, err := NewStore(runTime).Save(t.TempDir())
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(data))
}

func TestStoreSaveUnwritable(t *testing.T) {
	file := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	_, err := NewStore(runTime).Save(file)
	assert.Error(t, err)
}
