// Package baseline captures the pre-migration state of every router and
// persists it as baseline_<YYYYMMDD_HHMMSS>.json.
package baseline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"premigration-validator/internal/parser"
)

// VersionLayout formats the run timestamp used as baseline version and file suffix.
const VersionLayout = "20060102_150405"

// Record is the snapshot of one router. Counters a run could not determine
// stay zero; Error is set when the router could not be queried at all.
type Record struct {
	BGPSessions   int                             `json:"bgp_sessions"`
	BGPPrefixes   int                             `json:"bgp_prefixes"`
	OSPFNeighbors int                             `json:"ospf_neighbors"`
	Interfaces    map[string]parser.InterfaceRate `json:"interfaces"`
	Error         string                          `json:"error,omitempty"`
}

func NewRecord() Record {
	return Record{Interfaces: make(map[string]parser.InterfaceRate)}
}

// Store holds the records of a single run, keyed by hostname. A store is
// never merged with the file of an earlier run.
type Store struct {
	Timestamp time.Time
	Records   map[string]Record
}

func NewStore(ts time.Time) *Store {
	return &Store{Timestamp: ts, Records: make(map[string]Record)}
}

// Put adds or replaces the record of hostname.
func (s *Store) Put(hostname string, r Record) {
	if r.Interfaces == nil {
		r.Interfaces = make(map[string]parser.InterfaceRate)
	}
	s.Records[hostname] = r
}

func (s *Store) Version() string {
	return s.Timestamp.Format(VersionLayout)
}

func (s *Store) Filename() string {
	return fmt.Sprintf("baseline_%s.json", s.Version())
}

// JSON returns the records as a hostname keyed object with two-space indent.
func (s *Store) JSON() ([]byte, error) {
	return json.MarshalIndent(s.Records, "", "  ")
}

// Save writes the store into dir and returns the file path.
func (s *Store) Save(dir string) (string, error) {
	data, err := s.JSON()
	if err != nil {
		return "", fmt.Errorf("encoding baseline: %w", err)
	}
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}
	path := filepath.Join(dir, s.Filename())
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing baseline: %w", err)
	}
	return path, nil
}
