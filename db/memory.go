package db

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"tripsheet/models"
)

type memoryEntry struct {
	rec models.ItineraryRecord
	seq int
}

// MemoryRepository keeps records in process memory.
type MemoryRepository struct {
	mu      sync.RWMutex
	records map[string]memoryEntry
	seq     int
	now     func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{records: map[string]memoryEntry{}, now: time.Now}
}

func (m *MemoryRepository) Create(_ context.Context, rec models.ItineraryRecord) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec = copyRecord(rec)
	rec.ID = uuid.NewString()
	rec.CreatedAt = m.now().UTC()
	m.seq++
	m.records[rec.ID] = memoryEntry{rec: rec, seq: m.seq}
	return rec.ID, nil
}

func (m *MemoryRepository) ListAll(_ context.Context) ([]models.ItineraryRecord, error) {
	m.mu.RLock()
	entries := make([]memoryEntry, 0, len(m.records))
	for _, e := range m.records {
		entries = append(entries, e)
	}
	m.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if !a.rec.CreatedAt.Equal(b.rec.CreatedAt) {
			return a.rec.CreatedAt.After(b.rec.CreatedAt)
		}
		return a.seq > b.seq
	})

	out := make([]models.ItineraryRecord, len(entries))
	for i, e := range entries {
		out[i] = copyRecord(e.rec)
	}
	return out, nil
}

func (m *MemoryRepository) GetByID(_ context.Context, id string) (models.ItineraryRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.records[id]
	if !ok {
		return models.ItineraryRecord{}, ErrNotFound
	}
	return copyRecord(e.rec), nil
}

func (m *MemoryRepository) Update(_ context.Context, id string, rec models.ItineraryRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.records[id]
	if !ok {
		return ErrNotFound
	}
	rec = copyRecord(rec)
	e.rec.CustomerName = rec.CustomerName
	e.rec.Details = rec.Details
	e.rec.Days = rec.Days
	e.rec.TotalCost = rec.TotalCost
	m.records[id] = e
	return nil
}

func (m *MemoryRepository) DeleteByID(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.records[id]; !ok {
		return ErrNotFound
	}
	delete(m.records, id)
	return nil
}

func (m *MemoryRepository) Close(context.Context) error { return nil }

func copyRecord(rec models.ItineraryRecord) models.ItineraryRecord {
	rec.Days = models.CloneDays(rec.Days)
	if rec.Details.CostBefore != nil {
		v := *rec.Details.CostBefore
		rec.Details.CostBefore = &v
	}
	return rec
}
