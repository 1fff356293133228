package clipstore

import (
	"context"
	"errors"
	"slices"
	"sort"
	"sync"
	"time"
)

type clipKey struct {
	assetID     string
	packageUUID string
	intent      string
}

// Memory is an in-memory Store equivalent for tests and embedding hosts that
// do not want a database on disk. All methods are safe for concurrent use and
// records are deep-copied both ways. Context parameters exist for interface
// parity with Store; no Memory operation blocks.
type Memory struct {
	mu      sync.Mutex
	records map[clipKey]*Record
	nextID  int64
}

// NewMemory returns an empty in-memory clip store.
func NewMemory() *Memory {
	return &Memory{records: make(map[clipKey]*Record), nextID: 1}
}

// Upsert mirrors Store.Upsert against the in-memory map.
func (m *Memory) Upsert(_ context.Context, record *Record) (*Record, error) {
	if record == nil {
		return nil, errors.New("record is nil")
	}
	if record.AssetID == "" || record.PackageUUID == "" || record.Intent == "" {
		return nil, errors.New("record requires asset_id, package_uuid, and intent")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key := clipKey{record.AssetID, record.PackageUUID, record.Intent}
	now := time.Now().UTC()
	stored := record.Clone()
	stored.UpdatedAt = now
	if existing, ok := m.records[key]; ok {
		stored.ID = existing.ID
		stored.CreatedAt = existing.CreatedAt
	} else {
		stored.ID = m.nextID
		m.nextID++
		stored.CreatedAt = now
	}
	m.records[key] = stored
	return stored.Clone(), nil
}

// Get mirrors Store.Get. Missing rows return nil.
func (m *Memory) Get(_ context.Context, assetID, packageUUID, intent string) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.records[clipKey{assetID, packageUUID, intent}].Clone(), nil
}

// ListClips mirrors Store.ListClips with the same filter semantics and order.
func (m *Memory) ListClips(_ context.Context, filter Filter) ([]*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var matches []*Record
	for key, record := range m.records {
		if filter.PackageUUID != "" {
			if key.packageUUID != filter.PackageUUID {
				continue
			}
		} else if len(filter.PackageUUIDs) > 0 && !slices.Contains(filter.PackageUUIDs, key.packageUUID) {
			continue
		}
		if len(filter.Intents) > 0 && !slices.Contains(filter.Intents, key.intent) {
			continue
		}
		matches = append(matches, record.Clone())
	}
	sort.Slice(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if a.PackageUUID != b.PackageUUID {
			return a.PackageUUID < b.PackageUUID
		}
		if a.Intent != b.Intent {
			return a.Intent < b.Intent
		}
		return a.AssetID < b.AssetID
	})
	return matches, nil
}

// RemoveMissing mirrors Store.RemoveMissing.
func (m *Memory) RemoveMissing(_ context.Context, packageUUID, intent string, keep []string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var removed int64
	for key := range m.records {
		if key.packageUUID != packageUUID || key.intent != intent {
			continue
		}
		if slices.Contains(keep, key.assetID) {
			continue
		}
		delete(m.records, key)
		removed++
	}
	return removed, nil
}

// RemovePackage mirrors Store.RemovePackage.
func (m *Memory) RemovePackage(_ context.Context, packageUUID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var removed int64
	for key := range m.records {
		if key.packageUUID == packageUUID {
			delete(m.records, key)
			removed++
		}
	}
	return removed, nil
}

// Stats mirrors Store.Stats.
func (m *Memory) Stats(_ context.Context) ([]PackageStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	clips := make(map[string]int)
	intents := make(map[string]map[string]struct{})
	for key := range m.records {
		clips[key.packageUUID]++
		if intents[key.packageUUID] == nil {
			intents[key.packageUUID] = make(map[string]struct{})
		}
		intents[key.packageUUID][key.intent] = struct{}{}
	}

	stats := make([]PackageStats, 0, len(clips))
	for pkg, count := range clips {
		stats = append(stats, PackageStats{
			PackageUUID: pkg,
			Intents:     len(intents[pkg]),
			Clips:       count,
		})
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].PackageUUID < stats[j].PackageUUID })
	return stats, nil
}

// Close exists so Memory satisfies the same lifecycle as Store.
func (m *Memory) Close() error {
	return nil
}
