package workflow

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"tripsheet/models"
	"tripsheet/mq"
	"tripsheet/notify"
)

type ListState int

const (
	ListLoading ListState = iota
	ListLoaded
	ListFailed
)

func (s ListState) String() string {
	switch s {
	case ListLoaded:
		return "loaded"
	case ListFailed:
		return "failed"
	default:
		return "loading"
	}
}

// ListFlow shows saved itineraries newest first and deletes them after an
// explicit confirmation.
type ListFlow struct {
	deps   Deps
	closed atomic.Bool

	mu      sync.Mutex
	state   ListState
	records []models.ItineraryRecord
}

func NewListFlow(deps Deps) *ListFlow {
	f := &ListFlow{}
	deps = deps.withDefaults()
	deps.Notifier = gate{next: deps.Notifier, closed: &f.closed}
	f.deps = deps
	return f
}

func (f *ListFlow) State() ListState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Load fetches every record, replacing the current list.
func (f *ListFlow) Load(ctx context.Context) error {
	recs, err := f.deps.Repo.ListAll(ctx)

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed.Load() {
		return ErrClosed
	}
	if err != nil {
		f.state = ListFailed
		f.deps.Log.WithError(err).Error("list itineraries")
		f.deps.Notifier.Notify(notify.Notice{ID: noticeLoad, Level: notify.Failure, Message: msgListLoadFailed})
		return err
	}
	f.records = recs
	f.state = ListLoaded
	return nil
}

// Records returns a copy of the list in display order.
func (f *ListFlow) Records() []models.ItineraryRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.ItineraryRecord, len(f.records))
	copy(out, f.records)
	return out
}

func (f *ListFlow) IsEmpty() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records) == 0
}

// Find returns a listed record.
func (f *ListFlow) Find(id string) (models.ItineraryRecord, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.index(id)
	if i < 0 {
		return models.ItineraryRecord{}, false
	}
	return f.records[i], true
}

// RequestDelete asks the user to confirm deleting a listed record. The
// confirmation lapses after the configured TTL, which counts as a decline.
func (f *ListFlow) RequestDelete(ctx context.Context, id string) (Confirmation, error) {
	if f.closed.Load() {
		return Confirmation{}, ErrClosed
	}
	rec, ok := f.Find(id)
	if !ok {
		return Confirmation{}, ErrNotListed
	}
	name := rec.CustomerName
	if name == "" {
		name = "this itinerary"
	}
	c := Confirmation{
		Token:     uuid.NewString(),
		RecordID:  id,
		Prompt:    fmt.Sprintf("Are you sure you want to delete %s?", name),
		ExpiresAt: f.deps.Now().Add(f.deps.ConfirmTTL),
	}
	if err := f.deps.Confirmations.Put(ctx, c, f.deps.ConfirmTTL); err != nil {
		f.deps.Log.WithError(err).Error("store delete confirmation")
		f.deps.Notifier.Notify(notify.Notice{ID: noticeConfirm, Level: notify.Failure, Message: msgConfirmFailed})
		return Confirmation{}, err
	}
	f.deps.Notifier.Notify(notify.Notice{ID: noticeConfirm, Level: notify.Confirm, Message: c.Prompt})
	return c, nil
}

// Pending looks up an open confirmation without consuming it.
func (f *ListFlow) Pending(ctx context.Context, token string) (Confirmation, error) {
	c, ok, err := f.deps.Confirmations.Peek(ctx, token)
	if err != nil {
		return Confirmation{}, err
	}
	if !ok {
		return Confirmation{}, ErrConfirmationExpired
	}
	return c, nil
}

// ConfirmDelete deletes the record named by an open confirmation and removes
// only that record from the list. The list is not refetched.
func (f *ListFlow) ConfirmDelete(ctx context.Context, token string) error {
	if f.closed.Load() {
		return ErrClosed
	}
	c, ok, err := f.deps.Confirmations.Take(ctx, token)
	f.deps.Notifier.Dismiss(noticeConfirm)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConfirmationExpired
	}
	if _, listed := f.Find(c.RecordID); !listed {
		return ErrNotListed
	}

	f.deps.Notifier.Notify(notify.Notice{ID: noticeDelete, Level: notify.Loading, Message: msgDeleting})
	err = f.deps.Repo.DeleteByID(ctx, c.RecordID)

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed.Load() {
		return ErrClosed
	}
	if err != nil {
		f.deps.Log.WithError(err).WithField("id", c.RecordID).Error("delete itinerary")
		f.deps.Notifier.Notify(notify.Notice{ID: noticeDelete, Level: notify.Failure, Message: msgDeleteFailed})
		return err
	}
	if i := f.index(c.RecordID); i >= 0 {
		f.records = append(f.records[:i:i], f.records[i+1:]...)
	}
	f.deps.Log.WithField("id", c.RecordID).Info("itinerary deleted")
	f.deps.Notifier.Notify(notify.Notice{ID: noticeDelete, Level: notify.Success, Message: msgDeleted})
	f.deps.Events.Publish(ctx, mq.Event{Type: mq.EventDeleted, ItineraryID: c.RecordID, At: f.deps.Now()})
	return nil
}

// Decline drops a confirmation. Nothing else changes.
func (f *ListFlow) Decline(ctx context.Context, token string) error {
	_, _, err := f.deps.Confirmations.Take(ctx, token)
	f.deps.Notifier.Dismiss(noticeConfirm)
	return err
}

// Download renders a listed record.
func (f *ListFlow) Download(ctx context.Context, id string, w io.Writer) error {
	if f.closed.Load() {
		return ErrClosed
	}
	rec, ok := f.Find(id)
	if !ok {
		return ErrNotListed
	}
	return download(ctx, f.deps, rec, w)
}

func (f *ListFlow) Close() { f.closed.Store(true) }

// index finds id in records. Callers hold mu.
func (f *ListFlow) index(id string) int {
	for i, r := range f.records {
		if r.ID == id {
			return i
		}
	}
	return -1
}
