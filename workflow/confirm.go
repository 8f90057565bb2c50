package workflow

import (
	"context"
	"sync"
	"time"
)

// Confirmation is a pending request to delete one record.
type Confirmation struct {
	Token     string    `json:"token"`
	RecordID  string    `json:"record_id"`
	Prompt    string    `json:"prompt"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Confirmations stores pending confirmations until they are taken or expire.
// An expired confirmation behaves as if it never existed.
type Confirmations interface {
	Put(ctx context.Context, c Confirmation, ttl time.Duration) error
	Peek(ctx context.Context, token string) (Confirmation, bool, error)
	// Take removes and returns the confirmation.
	Take(ctx context.Context, token string) (Confirmation, bool, error)
}

// MemoryConfirmations is a process-local Confirmations.
type MemoryConfirmations struct {
	mu      sync.Mutex
	now     func() time.Time
	pending map[string]memoryConfirmation
}

type memoryConfirmation struct {
	c       Confirmation
	expires time.Time
}

func NewMemoryConfirmations(now func() time.Time) *MemoryConfirmations {
	if now == nil {
		now = time.Now
	}
	return &MemoryConfirmations{now: now, pending: map[string]memoryConfirmation{}}
}

func (m *MemoryConfirmations) Put(_ context.Context, c Confirmation, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweep()
	m.pending[c.Token] = memoryConfirmation{c: c, expires: m.now().Add(ttl)}
	return nil
}

func (m *MemoryConfirmations) Peek(_ context.Context, token string) (Confirmation, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweep()
	p, ok := m.pending[token]
	return p.c, ok, nil
}

func (m *MemoryConfirmations) Take(_ context.Context, token string) (Confirmation, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweep()
	p, ok := m.pending[token]
	delete(m.pending, token)
	return p.c, ok, nil
}

// sweep drops expired entries. Callers hold mu.
func (m *MemoryConfirmations) sweep() {
	now := m.now()
	for k, p := range m.pending {
		if !now.Before(p.expires) {
			delete(m.pending, k)
		}
	}
}
