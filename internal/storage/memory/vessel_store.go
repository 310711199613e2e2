package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/sailscout/sailscout/internal/persist"
	"github.com/sailscout/sailscout/internal/vessel"
)

// VesselStore is an in-memory DocumentStore. Documents are held as JSON
// field maps so set/unset patches behave exactly like the JSONB store.
type VesselStore struct {
	mu     sync.RWMutex
	nextID int
	docs   map[string]map[string]any
}

// NewVesselStore constructs a VesselStore.
func NewVesselStore() *VesselStore {
	return &VesselStore{docs: make(map[string]map[string]any)}
}

// FindByModel returns a stored record whose model contains the trimmed
// needle case-insensitively, the same match the JSONB store runs via ~*.
func (s *VesselStore) FindByModel(_ context.Context, model string) (string, *vessel.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	want := strings.ToLower(strings.TrimSpace(model))
	if want == "" {
		return "", nil, persist.ErrNotFound
	}
	for id, doc := range s.docs {
		stored, _ := doc["model"].(string)
		if strings.Contains(strings.ToLower(stored), want) {
			rec, err := decodeRecord(doc)
			if err != nil {
				return "", nil, err
			}
			return id, rec, nil
		}
	}
	return "", nil, persist.ErrNotFound
}

// Insert stores a new record and returns its id.
func (s *VesselStore) Insert(_ context.Context, rec *vessel.Record) (string, error) {
	doc, err := encodeRecord(rec)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := fmt.Sprintf("mem-%d", s.nextID)
	s.docs[id] = doc
	return id, nil
}

// UpdateFields merges set into the stored document and removes unset keys.
func (s *VesselStore) UpdateFields(_ context.Context, id string, set map[string]any, unset []string) error {
	patch, err := normalizeValues(set)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[id]
	if !ok {
		return fmt.Errorf("update fields: no document %s", id)
	}
	for k, v := range patch {
		doc[k] = v
	}
	for _, k := range unset {
		delete(doc, k)
	}
	return nil
}

// Len reports the number of stored documents.
func (s *VesselStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

func encodeRecord(rec *vessel.Record) (map[string]any, error) {
	raw, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode record document: %w", err)
	}
	return doc, nil
}

func decodeRecord(doc map[string]any) (*vessel.Record, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	var rec vessel.Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return &rec, nil
}

// normalizeValues round-trips patch values through JSON so typed values
// (pairs, times) land in the document the same way Insert stores them.
func normalizeValues(set map[string]any) (map[string]any, error) {
	if len(set) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(set)
	if err != nil {
		return nil, fmt.Errorf("encode patch: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode patch: %w", err)
	}
	return out, nil
}
