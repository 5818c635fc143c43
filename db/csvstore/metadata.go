package csvstore

import (
	"encoding/json"
	"os"
	"path/filepath"

	"pricecalc/core/partition"
	"pricecalc/internal/errors"
)

// MetadataFile is the per-service index metadata file name
const MetadataFile = "index_metadata.json"

// IndexMetadata describes a service's shard layout. The document is opaque
// apart from an optional "partitions" array listing the shards that exist;
// when present, shards outside it are never opened.
type IndexMetadata struct {
	Document   map[string]json.RawMessage
	partitions map[partition.Key]bool
}

// Has reports whether key may exist on disk
func (m *IndexMetadata) Has(key partition.Key) bool {
	if m == nil || m.partitions == nil {
		return true
	}
	return m.partitions[key]
}

// Partitions returns the number of shards listed, or -1 when unlisted
func (m *IndexMetadata) Partitions() int {
	if m == nil || m.partitions == nil {
		return -1
	}
	return len(m.partitions)
}

// Metadata returns a service's index metadata, loading it once. A missing
// file yields empty metadata.
func (s *Store) Metadata(service string) (*IndexMetadata, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if m, ok := s.metadata[service]; ok {
		return m, nil
	}

	m, err := LoadMetadata(filepath.Join(s.ServiceDir(service), MetadataFile))
	if err != nil {
		return nil, err
	}
	s.metadata[service] = m
	return m, nil
}

// LoadMetadata reads an index metadata file
func LoadMetadata(path string) (*IndexMetadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &IndexMetadata{}, nil
		}
		return nil, errors.Store("read index metadata "+path, err)
	}

	m := &IndexMetadata{}
	if err := json.Unmarshal(data, &m.Document); err != nil {
		return nil, errors.Parsing("decode index metadata "+path, err)
	}

	if raw, ok := m.Document["partitions"]; ok {
		var keys []string
		if err := json.Unmarshal(raw, &keys); err != nil {
			return nil, errors.Parsing("decode partitions in "+path, err)
		}
		m.partitions = make(map[partition.Key]bool, len(keys))
		for _, k := range keys {
			m.partitions[partition.Key(k)] = true
		}
	}
	return m, nil
}
