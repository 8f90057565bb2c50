// Package workflow implements the create, edit and list lifecycles of an
// itinerary on top of the repository, the notifier and the renderer.
package workflow

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"tripsheet/db"
	"tripsheet/days"
	"tripsheet/models"
	"tripsheet/mq"
	"tripsheet/notify"
	"tripsheet/render"
	"tripsheet/validation"
)

// DefaultConfirmTTL is how long a delete confirmation stays answerable.
const DefaultConfirmTTL = 6 * time.Second

var (
	ErrSaveInFlight        = errors.New("a save is already in progress")
	ErrConfirmationExpired = errors.New("delete confirmation expired or unknown")
	ErrNotListed           = errors.New("itinerary is not in the current list")
	ErrClosed              = errors.New("workflow closed")
	ErrNotLoaded           = errors.New("itinerary not loaded")
)

// Deps are the collaborators shared by all flows. Repo is required; every
// other field has a usable default.
type Deps struct {
	Repo          db.Repository
	Notifier      notify.Notifier
	Renderer      render.Renderer
	Navigator     Navigator
	Confirmations Confirmations
	Events        mq.Publisher
	Log           *logrus.Entry
	Now           func() time.Time
	ConfirmTTL    time.Duration
}

func (d Deps) withDefaults() Deps {
	if d.Notifier == nil {
		d.Notifier = notify.Discard
	}
	if d.Navigator == nil {
		d.Navigator = nopNavigator{}
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Confirmations == nil {
		d.Confirmations = NewMemoryConfirmations(d.Now)
	}
	if d.Events == nil {
		d.Events = mq.Nop{}
	}
	if d.Log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		d.Log = logrus.NewEntry(l)
	}
	if d.ConfirmTTL <= 0 {
		d.ConfirmTTL = DefaultConfirmTTL
	}
	return d
}

// Draft is the editable state of one itinerary: the customer form and its days.
type Draft struct {
	Form *validation.Form
	Days *days.Editor
}

func newDraft(d models.Details, entries []models.DayEntry, n notify.Notifier) *Draft {
	return &Draft{Form: validation.FormFrom(d, n), Days: days.NewEditor(entries)}
}

// Record builds the record that would be saved from the draft.
func (d *Draft) Record() models.ItineraryRecord {
	return models.NewRecord(d.Form.Details(), d.Days.Entries())
}

// checkDraft runs the submit gates and reports a failure as one notice.
func checkDraft(n notify.Notifier, details models.Details) error {
	err := validation.Check(details)
	if err == nil {
		return nil
	}
	msg := err.Error()
	var verr *validation.Error
	if errors.As(err, &verr) {
		msg = verr.Message()
	}
	n.Notify(notify.Notice{ID: noticeValidation, Level: notify.Failure, Message: msg})
	return err
}

// download renders rec fully before writing so a failed render leaves w untouched.
func download(ctx context.Context, d Deps, rec models.ItineraryRecord, w io.Writer) error {
	d.Notifier.Notify(notify.Notice{ID: noticePDF, Level: notify.Loading, Message: msgPDFLoading})

	var buf bytes.Buffer
	var err error
	if d.Renderer == nil {
		err = &render.Error{Op: "render", Err: errors.New("no renderer configured")}
	} else {
		err = d.Renderer.Render(ctx, rec, &buf)
	}
	if err == nil {
		_, err = buf.WriteTo(w)
	}
	if err != nil {
		d.Log.WithError(err).WithField("id", rec.ID).Error("pdf generation failed")
		d.Notifier.Notify(notify.Notice{ID: noticePDF, Level: notify.Failure, Message: msgPDFFailed})
		return err
	}
	d.Notifier.Notify(notify.Notice{ID: noticePDF, Level: notify.Success, Message: msgPDFDone})
	return nil
}

// gate drops notices once its flow is closed.
type gate struct {
	next   notify.Notifier
	closed *atomic.Bool
}

func (g gate) Notify(n notify.Notice) {
	if !g.closed.Load() {
		g.next.Notify(n)
	}
}

func (g gate) Dismiss(id string) {
	if !g.closed.Load() {
		g.next.Dismiss(id)
	}
}
