package workflow

import (
	"context"
	"io"
	"sync"
	"sync/atomic"

	"tripsheet/days"
	"tripsheet/models"
	"tripsheet/mq"
	"tripsheet/notify"
	"tripsheet/validation"
)

type CreateState int

const (
	CreateIdle CreateState = iota
	CreateSaving
	CreateSaved
)

func (s CreateState) String() string {
	switch s {
	case CreateSaving:
		return "saving"
	case CreateSaved:
		return "saved"
	default:
		return "idle"
	}
}

// CreateFlow builds a new itinerary from an empty draft and saves it.
type CreateFlow struct {
	deps   Deps
	closed atomic.Bool

	mu    sync.Mutex
	state CreateState
	draft *Draft
}

func NewCreateFlow(deps Deps) *CreateFlow {
	f := &CreateFlow{}
	deps = deps.withDefaults()
	deps.Notifier = gate{next: deps.Notifier, closed: &f.closed}
	f.deps = deps
	f.draft = &Draft{Form: validation.NewForm(deps.Notifier), Days: days.NewEditor(nil)}
	return f
}

func (f *CreateFlow) Draft() *Draft { return f.draft }

func (f *CreateFlow) State() CreateState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Submit validates the draft and creates a record. A validation failure never
// reaches the repository. After a successful save the draft may be submitted
// again, which creates another record. If the flow is closed while the save is
// in flight, the new id is returned together with ErrClosed.
func (f *CreateFlow) Submit(ctx context.Context) (string, error) {
	f.mu.Lock()
	if f.closed.Load() {
		f.mu.Unlock()
		return "", ErrClosed
	}
	if f.state == CreateSaving {
		f.mu.Unlock()
		return "", ErrSaveInFlight
	}
	details := f.draft.Form.Details()
	if err := checkDraft(f.deps.Notifier, details); err != nil {
		f.mu.Unlock()
		return "", err
	}
	rec := models.NewRecord(details, f.draft.Days.Entries())
	f.state = CreateSaving
	f.deps.Notifier.Notify(notify.Notice{ID: noticeSave, Level: notify.Loading, Message: msgSaving})
	f.mu.Unlock()

	id, err := f.deps.Repo.Create(ctx, rec)

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed.Load() {
		return id, ErrClosed
	}
	if err != nil {
		f.state = CreateIdle
		f.deps.Log.WithError(err).Error("create itinerary")
		f.deps.Notifier.Notify(notify.Notice{ID: noticeSave, Level: notify.Failure, Message: msgSaveFailed})
		return "", err
	}
	f.state = CreateSaved
	f.deps.Log.WithField("id", id).Info("itinerary created")
	f.deps.Notifier.Notify(notify.Notice{ID: noticeSave, Level: notify.Success, Message: msgSaved})
	f.deps.Events.Publish(ctx, mq.Event{
		Type: mq.EventCreated, ItineraryID: id, CustomerName: rec.CustomerName,
		TotalCost: rec.TotalCost, At: f.deps.Now(),
	})
	return id, nil
}

// Download renders the current draft without saving it.
func (f *CreateFlow) Download(ctx context.Context, w io.Writer) error {
	if f.closed.Load() {
		return ErrClosed
	}
	f.mu.Lock()
	rec := f.draft.Record()
	f.mu.Unlock()
	return download(ctx, f.deps, rec, w)
}

// Close discards results that arrive afterwards.
func (f *CreateFlow) Close() { f.closed.Store(true) }
