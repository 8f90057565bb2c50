package itinerary

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripsheet/db"
	"tripsheet/models"
	"tripsheet/render"
	"tripsheet/workflow"
)

type stubRenderer struct{ err error }

func (s stubRenderer) Render(_ context.Context, rec models.ItineraryRecord, w io.Writer) error {
	if s.err != nil {
		return &render.Error{Op: "render", Err: s.err}
	}
	_, err := io.WriteString(w, "%PDF-stub "+rec.CustomerName)
	return err
}

type fixture struct {
	repo   *db.MemoryRepository
	router *httprouter.Router
}

func newFixture(t *testing.T, r render.Renderer) *fixture {
	t.Helper()
	repo := db.NewMemoryRepository()
	h := NewHandlers(workflow.Deps{Repo: repo, Renderer: r})

	router := httprouter.New()
	router.GET("/api/itineraries", h.List)
	router.POST("/api/itineraries", h.Create)
	router.GET("/api/itineraries/all/:id", h.Get)
	router.PUT("/api/itineraries/:id", h.Update)
	router.DELETE("/api/itineraries/:id", h.Delete)
	router.POST("/api/itineraries/:id/copy", h.Copy)
	router.POST("/api/itineraries/:id/delete-request", h.RequestDelete)
	router.POST("/api/itineraries/:id/delete-decline", h.DeclineDelete)
	router.GET("/api/itineraries/pdf/:id", h.PDF)
	router.GET("/api/itineraries/export.xlsx", h.Export)
	router.POST("/api/preview/pdf", h.Preview)
	return &fixture{repo: repo, router: router}
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v))
	return v
}

func payload(name string) Payload {
	return Payload{
		Details: models.Details{
			CustomerName: name, Persons: 4, HotelCategory: models.Hotel3Star,
			Rooms: 2, Vehicle: models.VehicleSedan, FinalCost: 15000,
		},
		Days: []models.DayEntry{{Title: "Arrival", Description: "Check-in\nAarti"}},
	}
}

func (f *fixture) seed(t *testing.T, name string) string {
	t.Helper()
	rr := f.do(t, http.MethodPost, "/api/itineraries", payload(name))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	return decode[Response](t, rr).ID
}

func TestCreateAndGet(t *testing.T) {
	f := newFixture(t, stubRenderer{})

	rr := f.do(t, http.MethodPost, "/api/itineraries", payload("  Rahul Sharma "))
	require.Equal(t, http.StatusCreated, rr.Code)
	created := decode[Response](t, rr)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, "/api/itineraries/all/"+created.ID, rr.Header().Get("Location"))
	require.NotEmpty(t, created.Notices)
	assert.Equal(t, "Itinerary saved successfully!", created.Notices[len(created.Notices)-1].Message)

	rr = f.do(t, http.MethodGet, "/api/itineraries/all/"+created.ID, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	got := decode[Response](t, rr)
	require.NotNil(t, got.Itinerary)
	assert.Equal(t, "Rahul Sharma", got.Itinerary.CustomerName)
	assert.Equal(t, 15000.0, got.Itinerary.TotalCost)
	require.Len(t, got.Itinerary.Days, 1)
	assert.NotEmpty(t, got.Itinerary.Days[0].ID, "days without an id get one")
}

func TestCreateValidationFailure(t *testing.T) {
	f := newFixture(t, stubRenderer{})
	p := payload("Asha")
	p.Details.Persons = 0

	rr := f.do(t, http.MethodPost, "/api/itineraries", p)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	resp := decode[Response](t, rr)
	assert.NotEmpty(t, resp.Error)

	recs, err := f.repo.ListAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestCreateRejectsBadJSON(t *testing.T) {
	f := newFixture(t, stubRenderer{})
	req := httptest.NewRequest(http.MethodPost, "/api/itineraries", bytes.NewBufferString(`{"details":{},"extra":1}`))
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestGetMissingRedirectsToList(t *testing.T) {
	f := newFixture(t, stubRenderer{})
	rr := f.do(t, http.MethodGet, "/api/itineraries/all/nope", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	resp := decode[Response](t, rr)
	assert.Equal(t, "/saved", resp.Redirect)
	require.NotEmpty(t, resp.Notices)
	assert.Equal(t, "Error loading itinerary", resp.Notices[0].Message)
}

func TestListNewestFirstAndEmptyState(t *testing.T) {
	f := newFixture(t, stubRenderer{})

	rr := f.do(t, http.MethodGet, "/api/itineraries", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, workflow.EmptyList, decode[ListResponse](t, rr).EmptyState)

	f.seed(t, "Older")
	f.seed(t, "Newer")
	rr = f.do(t, http.MethodGet, "/api/itineraries", nil)
	list := decode[ListResponse](t, rr)
	require.Len(t, list.Itineraries, 2)
	assert.Equal(t, "Newer", list.Itineraries[0].CustomerName)
	assert.Empty(t, list.EmptyState)
}

func TestUpdateAndCopy(t *testing.T) {
	f := newFixture(t, stubRenderer{})
	id := f.seed(t, "Asha")

	p := payload("Asha Verma")
	p.Details.FinalCost = 9000
	rr := f.do(t, http.MethodPut, "/api/itineraries/"+id, p)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	resp := decode[Response](t, rr)
	assert.Equal(t, "/saved", resp.Redirect)

	rec, err := f.repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Asha Verma", rec.CustomerName)
	assert.Equal(t, 9000.0, rec.TotalCost)

	rr = f.do(t, http.MethodPost, "/api/itineraries/"+id+"/copy", nil)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	copyID := decode[Response](t, rr).ID
	assert.NotEqual(t, id, copyID)

	cp, err := f.repo.GetByID(context.Background(), copyID)
	require.NoError(t, err)
	assert.Equal(t, "Asha Verma"+models.CopySuffix, cp.CustomerName)
}

func TestUpdateMissingIs404(t *testing.T) {
	f := newFixture(t, stubRenderer{})
	rr := f.do(t, http.MethodPut, "/api/itineraries/missing", payload("X"))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestTwoPhaseDelete(t *testing.T) {
	f := newFixture(t, stubRenderer{})
	keep := f.seed(t, "Keep")
	drop := f.seed(t, "Drop")

	rr := f.do(t, http.MethodPost, "/api/itineraries/"+drop+"/delete-request", nil)
	require.Equal(t, http.StatusAccepted, rr.Code)
	c := decode[Response](t, rr).Confirmation
	require.NotNil(t, c)
	assert.Equal(t, "Are you sure you want to delete Drop?", c.Prompt)

	rr = f.do(t, http.MethodDelete, "/api/itineraries/"+keep+"?confirm="+c.Token, nil)
	assert.Equal(t, http.StatusConflict, rr.Code, "token is bound to its record")

	rr = f.do(t, http.MethodDelete, "/api/itineraries/"+drop+"?confirm="+c.Token, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	_, err := f.repo.GetByID(context.Background(), drop)
	assert.ErrorIs(t, err, db.ErrNotFound)
	_, err = f.repo.GetByID(context.Background(), keep)
	assert.NoError(t, err)

	rr = f.do(t, http.MethodDelete, "/api/itineraries/"+drop+"?confirm="+c.Token, nil)
	assert.Equal(t, http.StatusConflict, rr.Code, "tokens are single use")
}

func TestDeleteDecline(t *testing.T) {
	f := newFixture(t, stubRenderer{})
	id := f.seed(t, "Asha")

	rr := f.do(t, http.MethodPost, "/api/itineraries/"+id+"/delete-request", nil)
	c := decode[Response](t, rr).Confirmation
	require.NotNil(t, c)

	rr = f.do(t, http.MethodPost, "/api/itineraries/"+id+"/delete-decline?confirm="+c.Token, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = f.do(t, http.MethodDelete, "/api/itineraries/"+id+"?confirm="+c.Token, nil)
	assert.Equal(t, http.StatusConflict, rr.Code)
	_, err := f.repo.GetByID(context.Background(), id)
	assert.NoError(t, err)
}

func TestDeleteNeedsToken(t *testing.T) {
	f := newFixture(t, stubRenderer{})
	id := f.seed(t, "Asha")
	rr := f.do(t, http.MethodDelete, "/api/itineraries/"+id, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestPDFDownload(t *testing.T) {
	f := newFixture(t, stubRenderer{})
	id := f.seed(t, "Rahul/Sharma")

	rr := f.do(t, http.MethodGet, "/api/itineraries/pdf/"+id, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/pdf", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "Rahul-Sharma.pdf")
	assert.Equal(t, "%PDF-stub Rahul/Sharma", rr.Body.String())

	rr = f.do(t, http.MethodGet, "/api/itineraries/pdf/missing", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestPDFRenderFailure(t *testing.T) {
	f := newFixture(t, stubRenderer{err: errors.New("boom")})
	id := f.seed(t, "Asha")

	rr := f.do(t, http.MethodGet, "/api/itineraries/pdf/"+id, nil)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	resp := decode[Response](t, rr)
	assert.Equal(t, "Failed to generate PDF", resp.Error)
}

func TestPreviewRendersUnsavedDraft(t *testing.T) {
	f := newFixture(t, stubRenderer{})
	rr := f.do(t, http.MethodPost, "/api/preview/pdf", payload("Draft Only"))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "%PDF-stub Draft Only", rr.Body.String())

	recs, err := f.repo.ListAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{db.ErrNotFound, http.StatusNotFound},
		{workflow.ErrNotListed, http.StatusNotFound},
		{workflow.ErrConfirmationExpired, http.StatusConflict},
		{workflow.ErrSaveInFlight, http.StatusConflict},
		{&render.Error{Op: "render", Err: errors.New("x")}, http.StatusInternalServerError},
		{&db.StorageError{Op: "create", Err: errors.New("x")}, http.StatusBadGateway},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}
