// Package notify carries user-facing transient notices. A notice with the same
// ID as an earlier one replaces it, so a "loading" notice resolves in place.
package notify

import "sync"

type Level string

const (
	Loading Level = "loading"
	Success Level = "success"
	Failure Level = "error"
	Confirm Level = "confirm"
)

type Notice struct {
	ID      string `json:"id"`
	Level   Level  `json:"level"`
	Message string `json:"message"`
}

// Notifier is the presentation-side sink for notices.
type Notifier interface {
	Notify(n Notice)
	Dismiss(id string)
}

// Board keeps the outstanding notices, at most one per ID, in first-shown order.
type Board struct {
	mu      sync.Mutex
	notices []Notice
}

func NewBoard() *Board {
	return &Board{}
}

func (b *Board) Notify(n Notice) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if n.ID != "" {
		for i := range b.notices {
			if b.notices[i].ID == n.ID {
				b.notices[i] = n
				return
			}
		}
	}
	b.notices = append(b.notices, n)
}

func (b *Board) Dismiss(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.notices {
		if b.notices[i].ID == id {
			b.notices = append(b.notices[:i], b.notices[i+1:]...)
			return
		}
	}
}

// Notices returns a snapshot; never nil.
func (b *Board) Notices() []Notice {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Notice, len(b.notices))
	copy(out, b.notices)
	return out
}

// Last returns the most recently shown notice.
func (b *Board) Last() (Notice, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.notices) == 0 {
		return Notice{}, false
	}
	return b.notices[len(b.notices)-1], true
}

// Multi fans every call out to all notifiers.
type Multi []Notifier

func (m Multi) Notify(n Notice) {
	for _, x := range m {
		x.Notify(n)
	}
}

func (m Multi) Dismiss(id string) {
	for _, x := range m {
		x.Dismiss(id)
	}
}

// Discard drops everything.
var Discard Notifier = discard{}

type discard struct{}

func (discard) Notify(Notice)  {}
func (discard) Dismiss(string) {}
