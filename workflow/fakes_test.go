package workflow

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"tripsheet/db"
	"tripsheet/models"
	"tripsheet/mq"
	"tripsheet/notify"
)

// fakeRepo records every call and delegates to an in-memory store.
type fakeRepo struct {
	*db.MemoryRepository

	mu    sync.Mutex
	calls []string
	fail  map[string]error
	// when set, Create signals entered and waits for release
	entered chan struct{}
	release chan struct{}
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{MemoryRepository: db.NewMemoryRepository(), fail: map[string]error{}}
}

func (r *fakeRepo) record(op string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, op)
	return r.fail[op]
}

func (r *fakeRepo) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func (r *fakeRepo) count(op string) int {
	n := 0
	for _, c := range r.Calls() {
		if c == op {
			n++
		}
	}
	return n
}

func (r *fakeRepo) failOn(op string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fail[op] = err
}

func (r *fakeRepo) Create(ctx context.Context, rec models.ItineraryRecord) (string, error) {
	if r.entered != nil {
		r.entered <- struct{}{}
		<-r.release
	}
	if err := r.record("Create"); err != nil {
		return "", err
	}
	return r.MemoryRepository.Create(ctx, rec)
}

func (r *fakeRepo) ListAll(ctx context.Context) ([]models.ItineraryRecord, error) {
	if err := r.record("ListAll"); err != nil {
		return nil, err
	}
	return r.MemoryRepository.ListAll(ctx)
}

func (r *fakeRepo) GetByID(ctx context.Context, id string) (models.ItineraryRecord, error) {
	if err := r.record("GetByID"); err != nil {
		return models.ItineraryRecord{}, err
	}
	return r.MemoryRepository.GetByID(ctx, id)
}

func (r *fakeRepo) Update(ctx context.Context, id string, rec models.ItineraryRecord) error {
	if err := r.record("Update"); err != nil {
		return err
	}
	return r.MemoryRepository.Update(ctx, id, rec)
}

func (r *fakeRepo) DeleteByID(ctx context.Context, id string) error {
	if err := r.record("DeleteByID"); err != nil {
		return err
	}
	return r.MemoryRepository.DeleteByID(ctx, id)
}

// seed stores records directly, bypassing the call log.
func (r *fakeRepo) seed(t *testing.T, recs ...models.ItineraryRecord) []string {
	t.Helper()
	ids := make([]string, len(recs))
	for i, rec := range recs {
		id, err := r.MemoryRepository.Create(context.Background(), rec)
		require.NoError(t, err)
		ids[i] = id
	}
	return ids
}

type fakeRenderer struct {
	mu   sync.Mutex
	err  error
	seen []models.ItineraryRecord
}

func (f *fakeRenderer) Render(_ context.Context, rec models.ItineraryRecord, w io.Writer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen = append(f.seen, rec)
	if f.err != nil {
		_, _ = io.WriteString(w, "partial")
		return f.err
	}
	_, err := io.WriteString(w, "%PDF-fake")
	return err
}

type eventLog struct {
	mu     sync.Mutex
	events []mq.Event
}

func (e *eventLog) Publish(_ context.Context, ev mq.Event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, ev)
}

func (e *eventLog) types() []mq.EventType {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]mq.EventType, len(e.events))
	for i, ev := range e.events {
		out[i] = ev.Type
	}
	return out
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type harness struct {
	repo     *fakeRepo
	board    *notify.Board
	renderer *fakeRenderer
	redirect *Redirect
	events   *eventLog
	clock    *fakeClock
	deps     Deps
}

func newHarness() *harness {
	h := &harness{
		repo:     newFakeRepo(),
		board:    notify.NewBoard(),
		renderer: &fakeRenderer{},
		redirect: &Redirect{},
		events:   &eventLog{},
		clock:    newFakeClock(),
	}
	h.deps = Deps{
		Repo:       h.repo,
		Notifier:   h.board,
		Renderer:   h.renderer,
		Navigator:  h.redirect,
		Events:     h.events,
		Now:        h.clock.Now,
		ConfirmTTL: DefaultConfirmTTL,
	}
	return h
}

func (h *harness) notice(id string) (notify.Notice, bool) {
	for _, n := range h.board.Notices() {
		if n.ID == id {
			return n, true
		}
	}
	return notify.Notice{}, false
}

func validRecord(name string, final float64) models.ItineraryRecord {
	return models.NewRecord(models.Details{
		CustomerName: name, Persons: 2, HotelCategory: models.HotelStandard,
		Rooms: 1, Vehicle: models.VehicleSedan, FinalCost: final,
	}, []models.DayEntry{{ID: "d1", Title: "Arrival", Description: "Check-in"}})
}
