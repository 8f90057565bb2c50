// Package itinerary exposes the itinerary workflows over HTTP. Every request
// runs its own workflow instance and reports notices and navigation in the
// response body.
package itinerary

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/sirupsen/logrus"

	"tripsheet/db"
	"tripsheet/days"
	"tripsheet/models"
	"tripsheet/notify"
	"tripsheet/render"
	"tripsheet/utils"
	"tripsheet/validation"
	"tripsheet/workflow"
)

const requestTimeout = 10 * time.Second

// Payload is the JSON body for create, update, copy and preview.
type Payload struct {
	Details models.Details    `json:"details"`
	Days    []models.DayEntry `json:"days"`
}

// Response is the JSON envelope of every workflow route.
type Response struct {
	ID           string                  `json:"id,omitempty"`
	Itinerary    *models.ItineraryRecord `json:"itinerary,omitempty"`
	Confirmation *workflow.Confirmation  `json:"confirmation,omitempty"`
	Notices      []notify.Notice         `json:"notices"`
	Redirect     string                  `json:"redirect,omitempty"`
	Error        string                  `json:"error,omitempty"`
}

// ListResponse is returned by GET /api/itineraries.
type ListResponse struct {
	Itineraries []models.ItineraryRecord `json:"itineraries"`
	EmptyState  string                   `json:"empty_state,omitempty"`
	Notices     []notify.Notice          `json:"notices"`
}

// Handlers serves the itinerary routes. deps is copied per request with a
// fresh notice board and redirect recorder.
type Handlers struct {
	deps workflow.Deps
}

// NewHandlers fills in the collaborators that must outlive a single request:
// the confirmation store and the logger.
func NewHandlers(deps workflow.Deps) *Handlers {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Confirmations == nil {
		deps.Confirmations = workflow.NewMemoryConfirmations(deps.Now)
	}
	if deps.Log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		deps.Log = logrus.NewEntry(l)
	}
	return &Handlers{deps: deps}
}

type session struct {
	deps     workflow.Deps
	board    *notify.Board
	redirect *workflow.Redirect
}

func (h *Handlers) session() *session {
	s := &session{board: notify.NewBoard(), redirect: &workflow.Redirect{}}
	s.deps = h.deps
	if h.deps.Notifier != nil {
		s.deps.Notifier = notify.Multi{s.board, h.deps.Notifier}
	} else {
		s.deps.Notifier = s.board
	}
	s.deps.Navigator = s.redirect
	return s
}

func (s *session) respond(w http.ResponseWriter, status int, resp Response) {
	resp.Notices = s.board.Notices()
	if dest, ok := s.redirect.Target(); ok {
		resp.Redirect = dest.Path()
	}
	utils.RespondWithJSON(w, status, resp)
}

func (s *session) fail(w http.ResponseWriter, err error) {
	s.respond(w, statusFor(err), Response{Error: messageFor(err)})
}

// GET /api/itineraries
func (h *Handlers) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	s := h.session()
	flow := workflow.NewListFlow(s.deps)
	defer flow.Close()
	if err := flow.Load(ctx); err != nil {
		s.fail(w, err)
		return
	}
	resp := ListResponse{Itineraries: flow.Records(), Notices: s.board.Notices()}
	if flow.IsEmpty() {
		resp.EmptyState = workflow.EmptyList
	}
	utils.RespondWithJSON(w, http.StatusOK, resp)
}

// POST /api/itineraries
func (h *Handlers) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var p Payload
	if err := utils.DecodeJSON(w, r, &p); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	s := h.session()
	flow := workflow.NewCreateFlow(s.deps)
	defer flow.Close()
	fillDraft(flow.Draft(), p, s.deps.Notifier)

	id, err := flow.Submit(ctx)
	if err != nil {
		s.fail(w, err)
		return
	}
	w.Header().Set("Location", "/api/itineraries/all/"+id)
	s.respond(w, http.StatusCreated, Response{ID: id})
}

// POST /api/preview/pdf renders an unsaved draft.
func (h *Handlers) Preview(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var p Payload
	if err := utils.DecodeJSON(w, r, &p); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	s := h.session()
	flow := workflow.NewCreateFlow(s.deps)
	defer flow.Close()
	fillDraft(flow.Draft(), p, s.deps.Notifier)

	var buf bytes.Buffer
	if err := flow.Download(ctx, &buf); err != nil {
		s.fail(w, err)
		return
	}
	_ = utils.RespondWithAttachment(w, "application/pdf", render.Filename(flow.Draft().Record()), &buf)
}

// GET /api/itineraries/all/:id
func (h *Handlers) Get(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	s := h.session()
	flow := workflow.NewEditFlow(s.deps, ps.ByName("id"))
	defer flow.Close()
	if err := flow.Load(ctx); err != nil {
		s.fail(w, err)
		return
	}
	rec, _ := flow.Original()
	s.respond(w, http.StatusOK, Response{ID: rec.ID, Itinerary: &rec})
}

// PUT /api/itineraries/:id
func (h *Handlers) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var p Payload
	if err := utils.DecodeJSON(w, r, &p); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	s := h.session()
	flow := workflow.NewEditFlow(s.deps, ps.ByName("id"))
	defer flow.Close()
	if err := flow.Load(ctx); err != nil {
		s.fail(w, err)
		return
	}
	draft, _ := flow.Draft()
	fillDraft(draft, p, s.deps.Notifier)

	if err := flow.Update(ctx); err != nil {
		s.fail(w, err)
		return
	}
	rec, _ := flow.Original()
	s.respond(w, http.StatusOK, Response{ID: rec.ID, Itinerary: &rec})
}

// POST /api/itineraries/:id/copy saves the loaded record, or the body when one
// is sent, as a new itinerary.
func (h *Handlers) Copy(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var p *Payload
	if r.ContentLength != 0 && r.Body != http.NoBody {
		p = &Payload{}
		if err := utils.DecodeJSON(w, r, p); err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
			return
		}
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	s := h.session()
	flow := workflow.NewEditFlow(s.deps, ps.ByName("id"))
	defer flow.Close()
	if err := flow.Load(ctx); err != nil {
		s.fail(w, err)
		return
	}
	if p != nil {
		draft, _ := flow.Draft()
		fillDraft(draft, *p, s.deps.Notifier)
	}

	id, err := flow.SaveAsCopy(ctx)
	if err != nil {
		s.fail(w, err)
		return
	}
	w.Header().Set("Location", "/api/itineraries/all/"+id)
	s.respond(w, http.StatusCreated, Response{ID: id})
}

// GET /api/itineraries/pdf/:id
func (h *Handlers) PDF(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	s := h.session()
	flow := workflow.NewListFlow(s.deps)
	defer flow.Close()
	if err := flow.Load(ctx); err != nil {
		s.fail(w, err)
		return
	}
	id := ps.ByName("id")
	var buf bytes.Buffer
	if err := flow.Download(ctx, id, &buf); err != nil {
		s.fail(w, err)
		return
	}
	rec, _ := flow.Find(id)
	_ = utils.RespondWithAttachment(w, "application/pdf", render.Filename(rec), &buf)
}

// POST /api/itineraries/:id/delete-request
func (h *Handlers) RequestDelete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	s := h.session()
	flow := workflow.NewListFlow(s.deps)
	defer flow.Close()
	if err := flow.Load(ctx); err != nil {
		s.fail(w, err)
		return
	}
	c, err := flow.RequestDelete(ctx, ps.ByName("id"))
	if err != nil {
		s.fail(w, err)
		return
	}
	s.respond(w, http.StatusAccepted, Response{ID: c.RecordID, Confirmation: &c})
}

// DELETE /api/itineraries/:id?confirm=<token>
func (h *Handlers) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	token := r.URL.Query().Get("confirm")
	if token == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Missing confirm token")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	s := h.session()
	flow := workflow.NewListFlow(s.deps)
	defer flow.Close()

	id := ps.ByName("id")
	c, err := flow.Pending(ctx, token)
	if err == nil && c.RecordID != id {
		err = workflow.ErrConfirmationExpired
	}
	if err != nil {
		s.fail(w, err)
		return
	}
	if err := flow.Load(ctx); err != nil {
		s.fail(w, err)
		return
	}
	if err := flow.ConfirmDelete(ctx, token); err != nil {
		s.fail(w, err)
		return
	}
	s.respond(w, http.StatusOK, Response{ID: id})
}

// POST /api/itineraries/:id/delete-decline?confirm=<token>
func (h *Handlers) DeclineDelete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	s := h.session()
	flow := workflow.NewListFlow(s.deps)
	defer flow.Close()
	if err := flow.Decline(ctx, r.URL.Query().Get("confirm")); err != nil {
		s.fail(w, err)
		return
	}
	s.respond(w, http.StatusOK, Response{ID: ps.ByName("id")})
}

// GET /api/itineraries/export.xlsx
func (h *Handlers) Export(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	s := h.session()
	flow := workflow.NewListFlow(s.deps)
	defer flow.Close()
	if err := flow.Load(ctx); err != nil {
		s.fail(w, err)
		return
	}
	var buf bytes.Buffer
	if err := ExportXLSX(flow.Records(), &buf); err != nil {
		s.deps.Log.WithError(err).Error("export itineraries")
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to export itineraries")
		return
	}
	_ = utils.RespondWithAttachment(w,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "itineraries.xlsx", &buf)
}

// fillDraft copies a request body into a workflow draft. Days without an id
// get a fresh one.
func fillDraft(d *workflow.Draft, p Payload, n notify.Notifier) {
	d.Form = validation.FormFrom(p.Details, n)
	entries := models.CloneDays(p.Days)
	for i := range entries {
		if entries[i].ID == "" {
			entries[i].ID = days.NewID()
		}
	}
	d.Days.Replace(entries)
}

func statusFor(err error) int {
	var rerr *render.Error
	var serr *db.StorageError
	switch {
	case errors.Is(err, validation.ErrInvalid):
		return http.StatusUnprocessableEntity
	case errors.Is(err, db.ErrNotFound), errors.Is(err, workflow.ErrNotListed):
		return http.StatusNotFound
	case errors.Is(err, workflow.ErrConfirmationExpired), errors.Is(err, workflow.ErrSaveInFlight):
		return http.StatusConflict
	case errors.As(err, &rerr):
		return http.StatusInternalServerError
	case errors.As(err, &serr):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func messageFor(err error) string {
	var verr *validation.Error
	switch {
	case errors.As(err, &verr):
		return verr.Message()
	case errors.Is(err, db.ErrNotFound), errors.Is(err, workflow.ErrNotListed):
		return "Itinerary not found"
	case errors.Is(err, workflow.ErrConfirmationExpired):
		return "Delete confirmation expired"
	case errors.Is(err, workflow.ErrSaveInFlight):
		return "A save is already in progress"
	}
	var rerr *render.Error
	if errors.As(err, &rerr) {
		return "Failed to generate PDF"
	}
	return "Storage unavailable"
}
