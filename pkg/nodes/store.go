// Package nodes keeps a small registry of peers seen by this client: the
// devices reported by scans and the identities announced in nodeinfo
// packets. It exists so inbound messages can render a friendly sender
// name instead of a bare id. Entries expire; nothing is persisted.
package nodes

import (
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"blechat/pkg/memkv"
	"blechat/pkg/protocol"
	"blechat/pkg/transport"
)

// defaultTTL bounds how long a node stays known without being seen again.
const defaultTTL = 12 * time.Hour

// Meta is the stored record for one known node.
type Meta struct {
	ID        string `json:"id"`
	LongName  string `json:"long_name,omitempty"`
	ShortName string `json:"short_name,omitempty"`
	Address   string `json:"address,omitempty"`
	LastSeen  int64  `json:"last_seen_unix_ms"`
}

// Store persists node metadata in the in-memory KV.
type Store struct {
	kv *memkv.Store
}

func NewStore(kv *memkv.Store) *Store { return &Store{kv: kv} }

func keyNode(id string) string { return "node:" + id }

// Upsert records an identity announcement.
func (s *Store) Upsert(ni protocol.NodeInfo) {
	if ni.ID == "" {
		return
	}
	m, _ := s.Get(ni.ID)
	m.ID = ni.ID
	if ni.LongName != "" {
		m.LongName = ni.LongName
	}
	if ni.ShortName != "" {
		m.ShortName = ni.ShortName
	}
	m.LastSeen = time.Now().UnixMilli()
	s.put(m)
	zap.L().Debug("node upsert", zap.String("node", ni.ID), zap.String("long_name", ni.LongName))
}

// RecordSeen notes that a scan observed the device. The descriptor's
// advertised name is kept as a fallback display name.
func (s *Store) RecordSeen(d transport.DeviceDescriptor) {
	if d.Address == "" {
		return
	}
	m, _ := s.Get(d.Address)
	m.ID = d.Address
	m.Address = d.Address
	if d.Name != "" && m.LongName == "" {
		m.LongName = d.Name
	}
	m.LastSeen = time.Now().UnixMilli()
	s.put(m)
}

// Get returns the stored record for id.
func (s *Store) Get(id string) (Meta, bool) {
	b, ok := s.kv.Get(keyNode(id))
	if !ok {
		return Meta{}, false
	}
	var m Meta
	if err := json.Unmarshal(b, &m); err != nil {
		return Meta{}, false
	}
	return m, true
}

// DisplayName renders id for the console: "id (LongName)" when a name is
// known, the bare id otherwise.
func (s *Store) DisplayName(id string) string {
	m, ok := s.Get(id)
	if !ok || m.LongName == "" || m.LongName == id {
		return id
	}
	return id + " (" + m.LongName + ")"
}

func (s *Store) put(m Meta) {
	b, _ := json.Marshal(m)
	s.kv.Set(keyNode(m.ID), b, defaultTTL)
}
