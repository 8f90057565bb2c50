package workflow

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripsheet/models"
	"tripsheet/mq"
	"tripsheet/notify"
	"tripsheet/validation"
)

func fill(t *testing.T, f *validation.Form, values map[models.CustomerField]string) {
	t.Helper()
	for field, v := range values {
		require.True(t, f.Enter(field, v), "enter %s", field.Key())
	}
}

func TestCreateSubmitScenario(t *testing.T) {
	h := newHarness()
	flow := NewCreateFlow(h.deps)
	fill(t, flow.Draft().Form, map[models.CustomerField]string{
		models.FieldCustomerName: "Rahul Sharma",
		models.FieldPersons:      "4",
		models.FieldRooms:        "2",
		models.FieldFinalCost:    "15000",
	})

	id, err := flow.Submit(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, id)

	assert.Equal(t, []string{"Create"}, h.repo.Calls())
	saved, err := h.repo.MemoryRepository.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Rahul Sharma", saved.CustomerName)
	assert.Equal(t, 15000.0, saved.TotalCost)
	assert.Equal(t, saved.TotalCost, saved.Details.FinalCost)
	assert.Empty(t, saved.Days)

	n, ok := h.notice(noticeSave)
	require.True(t, ok)
	assert.Equal(t, notify.Notice{ID: "save", Level: notify.Success, Message: "Itinerary saved successfully!"}, n)
	assert.Len(t, h.board.Notices(), 1, "loading notice replaced in place")
	assert.Equal(t, CreateSaved, flow.State())
	assert.Equal(t, []mq.EventType{mq.EventCreated}, h.events.types())
}

func TestCreateSubmitSavesDaysInOrder(t *testing.T) {
	h := newHarness()
	flow := NewCreateFlow(h.deps)
	fill(t, flow.Draft().Form, map[models.CustomerField]string{
		models.FieldCustomerName: "Asha", models.FieldPersons: "2",
		models.FieldRooms: "1", models.FieldFinalCost: "0",
	})
	ed := flow.Draft().Days
	first, second := ed.Add(), ed.Add()
	ed.Update(first, models.SetTitle("Arrival"))
	ed.Update(second, models.SetTitle("Govardhan"))

	id, err := flow.Submit(context.Background())
	require.NoError(t, err)

	saved, err := h.repo.MemoryRepository.GetByID(context.Background(), id)
	require.NoError(t, err)
	require.Len(t, saved.Days, 2)
	assert.Equal(t, "Arrival", saved.Days[0].Title)
	assert.Equal(t, "Govardhan", saved.Days[1].Title)
}

func TestCreateValidationNeverReachesRepository(t *testing.T) {
	tests := []struct {
		name    string
		values  map[models.CustomerField]string
		message string
	}{
		{
			name:    "zero persons",
			values:  map[models.CustomerField]string{models.FieldCustomerName: "Rahul", models.FieldPersons: "0", models.FieldRooms: "2", models.FieldFinalCost: "100"},
			message: "Number of persons must be at least 1",
		},
		{
			name:    "blank name",
			values:  map[models.CustomerField]string{models.FieldCustomerName: "   ", models.FieldPersons: "2", models.FieldRooms: "2", models.FieldFinalCost: "100"},
			message: "Please enter a customer name",
		},
		{
			name:    "zero rooms",
			values:  map[models.CustomerField]string{models.FieldCustomerName: "Rahul", models.FieldPersons: "2", models.FieldRooms: "0", models.FieldFinalCost: "100"},
			message: "Number of rooms must be at least 1",
		},
		{
			name:    "unparseable persons",
			values:  map[models.CustomerField]string{models.FieldCustomerName: "Rahul", models.FieldPersons: "two", models.FieldRooms: "1", models.FieldFinalCost: "100"},
			message: "Number of persons must be at least 1",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness()
			flow := NewCreateFlow(h.deps)
			fill(t, flow.Draft().Form, tt.values)

			_, err := flow.Submit(context.Background())
			assert.ErrorIs(t, err, validation.ErrInvalid)
			assert.Empty(t, h.repo.Calls())
			assert.Equal(t, CreateIdle, flow.State())

			notices := h.board.Notices()
			require.Len(t, notices, 1)
			assert.Equal(t, notify.Failure, notices[0].Level)
			assert.Equal(t, tt.message, notices[0].Message)
		})
	}
}

func TestCreateRepositoryFailure(t *testing.T) {
	h := newHarness()
	boom := errors.New("network down")
	h.repo.failOn("Create", boom)
	flow := NewCreateFlow(h.deps)
	fill(t, flow.Draft().Form, map[models.CustomerField]string{
		models.FieldCustomerName: "Rahul", models.FieldPersons: "1",
		models.FieldRooms: "1", models.FieldFinalCost: "10",
	})

	_, err := flow.Submit(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, CreateIdle, flow.State())
	n, _ := h.notice(noticeSave)
	assert.Equal(t, "Failed to save itinerary", n.Message)
	assert.Equal(t, notify.Failure, n.Level)
	assert.Empty(t, h.events.types())

	h.repo.failOn("Create", nil)
	_, err = flow.Submit(context.Background())
	assert.NoError(t, err, "retry after failure is allowed")
}

func TestCreateRejectsSecondSubmitWhileSaving(t *testing.T) {
	h := newHarness()
	h.repo.entered = make(chan struct{})
	h.repo.release = make(chan struct{})
	flow := NewCreateFlow(h.deps)
	fill(t, flow.Draft().Form, map[models.CustomerField]string{
		models.FieldCustomerName: "Rahul", models.FieldPersons: "1",
		models.FieldRooms: "1", models.FieldFinalCost: "10",
	})

	done := make(chan error, 1)
	go func() {
		_, err := flow.Submit(context.Background())
		done <- err
	}()
	<-h.repo.entered
	assert.Equal(t, CreateSaving, flow.State())

	_, err := flow.Submit(context.Background())
	assert.ErrorIs(t, err, ErrSaveInFlight)

	close(h.repo.release)
	require.NoError(t, <-done)
	assert.Equal(t, 1, h.repo.count("Create"))
}

func TestCreateResultAfterCloseIsDiscarded(t *testing.T) {
	h := newHarness()
	h.repo.entered = make(chan struct{})
	h.repo.release = make(chan struct{})
	flow := NewCreateFlow(h.deps)
	fill(t, flow.Draft().Form, map[models.CustomerField]string{
		models.FieldCustomerName: "Rahul", models.FieldPersons: "1",
		models.FieldRooms: "1", models.FieldFinalCost: "10",
	})

	done := make(chan error, 1)
	go func() {
		_, err := flow.Submit(context.Background())
		done <- err
	}()
	<-h.repo.entered
	flow.Close()
	close(h.repo.release)

	assert.ErrorIs(t, <-done, ErrClosed)
	n, _ := h.notice(noticeSave)
	assert.Equal(t, notify.Loading, n.Level, "no outcome notice after close")
	assert.Equal(t, CreateSaving, flow.State())
	assert.Empty(t, h.events.types())
}

func TestCreateDownloadDraft(t *testing.T) {
	h := newHarness()
	flow := NewCreateFlow(h.deps)
	fill(t, flow.Draft().Form, map[models.CustomerField]string{models.FieldCustomerName: "Asha"})

	var buf bytes.Buffer
	require.NoError(t, flow.Download(context.Background(), &buf))
	assert.Equal(t, "%PDF-fake", buf.String())
	assert.Empty(t, h.repo.Calls(), "download never touches storage")
	require.Len(t, h.renderer.seen, 1)
	assert.Equal(t, "Asha", h.renderer.seen[0].CustomerName)

	n, _ := h.notice(noticePDF)
	assert.Equal(t, "PDF Downloaded!", n.Message)
}

func TestCreateDownloadFailure(t *testing.T) {
	h := newHarness()
	h.renderer.err = errors.New("font missing")
	flow := NewCreateFlow(h.deps)

	var buf bytes.Buffer
	err := flow.Download(context.Background(), &buf)
	assert.Error(t, err)
	assert.Zero(t, buf.Len(), "partial output is not written")
	n, _ := h.notice(noticePDF)
	assert.Equal(t, notify.Notice{ID: "pdf", Level: notify.Failure, Message: "Failed to generate PDF"}, n)
}

func TestDownloadWithoutRenderer(t *testing.T) {
	h := newHarness()
	h.deps.Renderer = nil
	flow := NewCreateFlow(h.deps)

	err := flow.Download(context.Background(), &bytes.Buffer{})
	assert.Error(t, err)
	n, _ := h.notice(noticePDF)
	assert.Equal(t, "Failed to generate PDF", n.Message)
}
