package workflow

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripsheet/db"
	"tripsheet/models"
	"tripsheet/mq"
	"tripsheet/notify"
	"tripsheet/validation"
)

func TestEditLoadMissingRedirectsToList(t *testing.T) {
	h := newHarness()
	flow := NewEditFlow(h.deps, "does-not-exist")

	err := flow.Load(context.Background())
	assert.ErrorIs(t, err, db.ErrNotFound)
	assert.Equal(t, EditFailed, flow.State())

	dest, ok := h.redirect.Target()
	require.True(t, ok)
	assert.Equal(t, "/saved", dest.Path())

	n, _ := h.notice(noticeLoad)
	assert.Equal(t, notify.Notice{ID: "load", Level: notify.Failure, Message: "Error loading itinerary"}, n)

	_, err = flow.Draft()
	assert.ErrorIs(t, err, ErrNotLoaded, "no form is shown")
	assert.ErrorIs(t, flow.Load(context.Background()), ErrNotLoaded, "failure is terminal")
	assert.ErrorIs(t, flow.Update(context.Background()), ErrNotLoaded)
}

func TestEditLoadPrefillsDraft(t *testing.T) {
	h := newHarness()
	ids := h.repo.seed(t, validRecord("Asha", 900))
	flow := NewEditFlow(h.deps, ids[0])

	require.NoError(t, flow.Load(context.Background()))
	assert.Equal(t, EditLoaded, flow.State())

	draft, err := flow.Draft()
	require.NoError(t, err)
	assert.Equal(t, "Asha", draft.Form.Value(models.FieldCustomerName))
	assert.Equal(t, "900", draft.Form.Value(models.FieldFinalCost))
	assert.Equal(t, 1, draft.Days.Len())

	_, ok := h.redirect.Target()
	assert.False(t, ok)
}

func TestEditUpdate(t *testing.T) {
	h := newHarness()
	ids := h.repo.seed(t, validRecord("Asha", 900))
	flow := NewEditFlow(h.deps, ids[0])
	require.NoError(t, flow.Load(context.Background()))

	draft, _ := flow.Draft()
	draft.Form.Enter(models.FieldFinalCost, "850")
	draft.Days.Add()

	require.NoError(t, flow.Update(context.Background()))
	assert.Equal(t, []string{"GetByID", "Update"}, h.repo.Calls())

	saved, err := h.repo.MemoryRepository.GetByID(context.Background(), ids[0])
	require.NoError(t, err)
	assert.Equal(t, 850.0, saved.TotalCost)
	assert.Equal(t, 850.0, saved.Details.FinalCost)
	assert.Len(t, saved.Days, 2)

	n, _ := h.notice(noticeUpdate)
	assert.Equal(t, "Updated successfully!", n.Message)
	dest, ok := h.redirect.Target()
	require.True(t, ok)
	assert.Equal(t, ViewList, dest.View)
	assert.Equal(t, []mq.EventType{mq.EventUpdated}, h.events.types())

	orig, err := flow.Original()
	require.NoError(t, err)
	assert.Equal(t, 850.0, orig.TotalCost)
}

func TestEditUpdateFailureStaysLoaded(t *testing.T) {
	h := newHarness()
	ids := h.repo.seed(t, validRecord("Asha", 900))
	h.repo.failOn("Update", &db.StorageError{Op: "update", Err: errors.New("timeout")})
	flow := NewEditFlow(h.deps, ids[0])
	require.NoError(t, flow.Load(context.Background()))

	err := flow.Update(context.Background())
	var serr *db.StorageError
	assert.ErrorAs(t, err, &serr)
	assert.Equal(t, EditLoaded, flow.State())
	n, _ := h.notice(noticeUpdate)
	assert.Equal(t, notify.Notice{ID: "update", Level: notify.Failure, Message: "Failed to update itinerary"}, n)
	_, ok := h.redirect.Target()
	assert.False(t, ok)
}

func TestEditUpdateOfDeletedRecordIsTerminal(t *testing.T) {
	h := newHarness()
	ids := h.repo.seed(t, validRecord("Asha", 900))
	flow := NewEditFlow(h.deps, ids[0])
	require.NoError(t, flow.Load(context.Background()))
	require.NoError(t, h.repo.DeleteByID(context.Background(), ids[0]))

	err := flow.Update(context.Background())
	assert.ErrorIs(t, err, db.ErrNotFound)
	assert.Equal(t, EditFailed, flow.State())

	dest, ok := h.redirect.Target()
	require.True(t, ok)
	assert.Equal(t, ViewList, dest.View)
	n, _ := h.notice(noticeUpdate)
	assert.Equal(t, notify.Failure, n.Level)

	_, err = flow.Draft()
	assert.ErrorIs(t, err, ErrNotLoaded)
	assert.ErrorIs(t, flow.Update(context.Background()), ErrNotLoaded)
	assert.Empty(t, h.events.types())
}

func TestEditUpdateValidation(t *testing.T) {
	h := newHarness()
	ids := h.repo.seed(t, validRecord("Asha", 900))
	flow := NewEditFlow(h.deps, ids[0])
	require.NoError(t, flow.Load(context.Background()))

	draft, _ := flow.Draft()
	draft.Form.Enter(models.FieldRooms, "0")

	assert.ErrorIs(t, flow.Update(context.Background()), validation.ErrInvalid)
	_, err := flow.SaveAsCopy(context.Background())
	assert.ErrorIs(t, err, validation.ErrInvalid)
	assert.Equal(t, []string{"GetByID"}, h.repo.Calls())
}

func TestEditSaveAsCopy(t *testing.T) {
	h := newHarness()
	ids := h.repo.seed(t, validRecord("Asha", 900))
	flow := NewEditFlow(h.deps, ids[0])
	require.NoError(t, flow.Load(context.Background()))

	newID, err := flow.SaveAsCopy(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, ids[0], newID)

	ctx := context.Background()
	original, err := h.repo.MemoryRepository.GetByID(ctx, ids[0])
	require.NoError(t, err)
	copied, err := h.repo.MemoryRepository.GetByID(ctx, newID)
	require.NoError(t, err)

	assert.Equal(t, "Asha", original.CustomerName, "original untouched")
	assert.Equal(t, "Asha (Copy)", copied.CustomerName)
	assert.Equal(t, "Asha (Copy)", copied.Details.CustomerName)
	wantDetails := original.Details
	wantDetails.CustomerName = "Asha (Copy)"
	assert.Equal(t, wantDetails, copied.Details)
	assert.Equal(t, original.Days, copied.Days)
	assert.Equal(t, original.TotalCost, copied.TotalCost)

	n, _ := h.notice(noticeCopy)
	assert.Equal(t, "Saved as new itinerary!", n.Message)
	dest, _ := h.redirect.Target()
	assert.Equal(t, ViewList, dest.View)
	require.Len(t, h.events.events, 1)
	assert.Equal(t, mq.EventCopied, h.events.events[0].Type)
	assert.Equal(t, ids[0], h.events.events[0].SourceID)
}

func TestEditSaveAsCopyFailure(t *testing.T) {
	h := newHarness()
	ids := h.repo.seed(t, validRecord("Asha", 900))
	h.repo.failOn("Create", errors.New("quota"))
	flow := NewEditFlow(h.deps, ids[0])
	require.NoError(t, flow.Load(context.Background()))

	_, err := flow.SaveAsCopy(context.Background())
	assert.Error(t, err)
	assert.Equal(t, EditLoaded, flow.State())
	n, _ := h.notice(noticeCopy)
	assert.Equal(t, "Could not save copy", n.Message)

	list, err := h.repo.MemoryRepository.ListAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestEditLoadAfterCloseDiscarded(t *testing.T) {
	h := newHarness()
	flow := NewEditFlow(h.deps, "missing")
	flow.Close()

	assert.ErrorIs(t, flow.Load(context.Background()), ErrClosed)
	assert.Empty(t, h.board.Notices())
	_, ok := h.redirect.Target()
	assert.False(t, ok)
	assert.Equal(t, EditLoading, flow.State())
}

func TestEditDownloadIncludesUnsavedEdits(t *testing.T) {
	h := newHarness()
	ids := h.repo.seed(t, validRecord("Asha", 900))
	flow := NewEditFlow(h.deps, ids[0])
	require.NoError(t, flow.Load(context.Background()))

	draft, _ := flow.Draft()
	draft.Form.Enter(models.FieldCustomerName, "Asha Verma")

	var buf bytes.Buffer
	require.NoError(t, flow.Download(context.Background(), &buf))
	require.Len(t, h.renderer.seen, 1)
	assert.Equal(t, ids[0], h.renderer.seen[0].ID)
	assert.Equal(t, "Asha Verma", h.renderer.seen[0].CustomerName)
	assert.Equal(t, []string{"GetByID"}, h.repo.Calls())
}
