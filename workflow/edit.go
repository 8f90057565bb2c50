package workflow

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"tripsheet/db"
	"tripsheet/models"
	"tripsheet/mq"
	"tripsheet/notify"
)

type EditState int

const (
	EditLoading EditState = iota
	EditLoaded
	EditFailed
)

func (s EditState) String() string {
	switch s {
	case EditLoaded:
		return "loaded"
	case EditFailed:
		return "failed"
	default:
		return "loading"
	}
}

// EditFlow edits one saved itinerary in place or saves it as a copy.
type EditFlow struct {
	deps   Deps
	id     string
	closed atomic.Bool

	mu       sync.Mutex
	state    EditState
	original models.ItineraryRecord
	draft    *Draft
	saving   bool
}

func NewEditFlow(deps Deps, id string) *EditFlow {
	f := &EditFlow{id: id}
	deps = deps.withDefaults()
	deps.Notifier = gate{next: deps.Notifier, closed: &f.closed}
	f.deps = deps
	return f
}

func (f *EditFlow) ID() string { return f.id }

func (f *EditFlow) State() EditState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Load fetches the record. Any failure is terminal: the user is sent back to
// the list and no form is shown.
func (f *EditFlow) Load(ctx context.Context) error {
	f.mu.Lock()
	state := f.state
	f.mu.Unlock()
	switch state {
	case EditLoaded:
		return nil
	case EditFailed:
		return ErrNotLoaded
	}

	rec, err := f.deps.Repo.GetByID(ctx, f.id)

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed.Load() {
		return ErrClosed
	}
	if err != nil {
		f.state = EditFailed
		f.deps.Log.WithError(err).WithField("id", f.id).Warn("load itinerary")
		f.deps.Notifier.Notify(notify.Notice{ID: noticeLoad, Level: notify.Failure, Message: msgLoadFailed})
		f.deps.Navigator.Navigate(Destination{View: ViewList})
		return err
	}
	f.original = rec
	f.draft = newDraft(rec.Details, rec.Days, f.deps.Notifier)
	f.state = EditLoaded
	return nil
}

// Draft returns the editable form, or ErrNotLoaded before a successful Load.
func (f *EditFlow) Draft() (*Draft, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != EditLoaded {
		return nil, ErrNotLoaded
	}
	return f.draft, nil
}

// Original is the record as it was loaded or last updated.
func (f *EditFlow) Original() (models.ItineraryRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != EditLoaded {
		return models.ItineraryRecord{}, ErrNotLoaded
	}
	return f.original, nil
}

// begin checks the preconditions shared by Update and SaveAsCopy and marks a
// save in flight. It returns the validated details and days.
func (f *EditFlow) begin() (models.Details, []models.DayEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed.Load() {
		return models.Details{}, nil, ErrClosed
	}
	if f.state != EditLoaded {
		return models.Details{}, nil, ErrNotLoaded
	}
	if f.saving {
		return models.Details{}, nil, ErrSaveInFlight
	}
	details := f.draft.Form.Details()
	if err := checkDraft(f.deps.Notifier, details); err != nil {
		return models.Details{}, nil, err
	}
	f.saving = true
	return details, f.draft.Days.Entries(), nil
}

// Update overwrites the loaded record. On success the user goes back to the list.
// If the record was deleted meanwhile the flow fails for good and also goes
// back to the list; other storage failures leave the form loaded for a retry.
func (f *EditFlow) Update(ctx context.Context) error {
	details, entries, err := f.begin()
	if err != nil {
		return err
	}
	rec := models.NewRecord(details, entries)
	f.deps.Notifier.Notify(notify.Notice{ID: noticeUpdate, Level: notify.Loading, Message: msgUpdating})

	err = f.deps.Repo.Update(ctx, f.id, rec)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.saving = false
	if f.closed.Load() {
		return ErrClosed
	}
	if err != nil {
		f.deps.Log.WithError(err).WithField("id", f.id).Error("update itinerary")
		f.deps.Notifier.Notify(notify.Notice{ID: noticeUpdate, Level: notify.Failure, Message: msgUpdateFailed})
		// the record is gone, so this form can never be saved
		if errors.Is(err, db.ErrNotFound) {
			f.state = EditFailed
			f.deps.Navigator.Navigate(Destination{View: ViewList})
		}
		return err
	}
	rec.ID = f.id
	rec.CreatedAt = f.original.CreatedAt
	f.original = rec
	f.deps.Log.WithField("id", f.id).Info("itinerary updated")
	f.deps.Notifier.Notify(notify.Notice{ID: noticeUpdate, Level: notify.Success, Message: msgUpdated})
	f.deps.Events.Publish(ctx, mq.Event{
		Type: mq.EventUpdated, ItineraryID: f.id, CustomerName: rec.CustomerName,
		TotalCost: rec.TotalCost, At: f.deps.Now(),
	})
	f.deps.Navigator.Navigate(Destination{View: ViewList})
	return nil
}

// SaveAsCopy creates a new record from the current draft with " (Copy)"
// appended to the name. The loaded record is never modified.
func (f *EditFlow) SaveAsCopy(ctx context.Context) (string, error) {
	details, entries, err := f.begin()
	if err != nil {
		return "", err
	}
	rec := models.CopyOf(details, entries)
	f.deps.Notifier.Notify(notify.Notice{ID: noticeCopy, Level: notify.Loading, Message: msgCopying})

	id, err := f.deps.Repo.Create(ctx, rec)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.saving = false
	if f.closed.Load() {
		return id, ErrClosed
	}
	if err != nil {
		f.deps.Log.WithError(err).WithField("source", f.id).Error("copy itinerary")
		f.deps.Notifier.Notify(notify.Notice{ID: noticeCopy, Level: notify.Failure, Message: msgCopyFailed})
		return "", err
	}
	f.deps.Log.WithFields(logrus.Fields{"id": id, "source": f.id}).Info("itinerary copied")
	f.deps.Notifier.Notify(notify.Notice{ID: noticeCopy, Level: notify.Success, Message: msgCopied})
	f.deps.Events.Publish(ctx, mq.Event{
		Type: mq.EventCopied, ItineraryID: id, SourceID: f.id, CustomerName: rec.CustomerName,
		TotalCost: rec.TotalCost, At: f.deps.Now(),
	})
	f.deps.Navigator.Navigate(Destination{View: ViewList})
	return id, nil
}

// Download renders the current draft, including unsaved edits.
func (f *EditFlow) Download(ctx context.Context, w io.Writer) error {
	f.mu.Lock()
	if f.closed.Load() {
		f.mu.Unlock()
		return ErrClosed
	}
	if f.state != EditLoaded {
		f.mu.Unlock()
		return ErrNotLoaded
	}
	rec := f.draft.Record()
	rec.ID = f.id
	rec.CreatedAt = f.original.CreatedAt
	f.mu.Unlock()
	return download(ctx, f.deps, rec, w)
}

func (f *EditFlow) Close() { f.closed.Store(true) }
