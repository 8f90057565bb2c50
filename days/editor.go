// Package days edits the ordered day-by-day schedule of one itinerary.
package days

import (
	"github.com/google/uuid"

	"tripsheet/models"
)

// EmptyState is shown instead of an empty schedule.
const EmptyState = "No days added yet"

// IDSource generates day identifiers. IDs must never repeat.
type IDSource func() string

// NewID returns a time-ordered UUIDv7, falling back to a random UUID.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Editor is the in-memory CRUD over one itinerary's days. onChange receives the
// whole new sequence after every mutation.
type Editor struct {
	entries  []models.DayEntry
	newID    IDSource
	onChange func([]models.DayEntry)
}

func NewEditor(entries []models.DayEntry, opts ...Option) *Editor {
	e := &Editor{entries: models.CloneDays(entries), newID: NewID}
	for _, o := range opts {
		o(e)
	}
	return e
}

type Option func(*Editor)

func WithIDSource(src IDSource) Option {
	return func(e *Editor) { e.newID = src }
}

func OnChange(fn func([]models.DayEntry)) Option {
	return func(e *Editor) { e.onChange = fn }
}

// Add appends an empty day and returns its ID.
func (e *Editor) Add() string {
	d := models.DayEntry{ID: e.newID()}
	e.replace(append(models.CloneDays(e.entries), d))
	return d.ID
}

// Update applies u to the day with the given id. Unknown ids are ignored.
func (e *Editor) Update(id string, u models.DayUpdate) bool {
	i := e.index(id)
	if i < 0 {
		return false
	}
	next := models.CloneDays(e.entries)
	next[i] = next[i].Apply(u)
	e.replace(next)
	return true
}

// Delete removes the first day with the given id.
func (e *Editor) Delete(id string) bool {
	i := e.index(id)
	if i < 0 {
		return false
	}
	next := make([]models.DayEntry, 0, len(e.entries)-1)
	next = append(next, e.entries[:i]...)
	next = append(next, e.entries[i+1:]...)
	e.replace(next)
	return true
}

// Replace swaps the whole sequence, e.g. when a saved record is loaded.
func (e *Editor) Replace(entries []models.DayEntry) {
	e.replace(models.CloneDays(entries))
}

func (e *Editor) Entries() []models.DayEntry {
	return models.CloneDays(e.entries)
}

func (e *Editor) Len() int { return len(e.entries) }

func (e *Editor) IsEmpty() bool { return len(e.entries) == 0 }

// Number returns the "Day N" index of the entry, or 0 if it is not present.
func (e *Editor) Number(id string) int {
	i := e.index(id)
	if i < 0 {
		return 0
	}
	return models.DayNumber(i)
}

func (e *Editor) index(id string) int {
	for i, d := range e.entries {
		if d.ID == id {
			return i
		}
	}
	return -1
}

func (e *Editor) replace(next []models.DayEntry) {
	e.entries = next
	if e.onChange != nil {
		e.onChange(models.CloneDays(next))
	}
}
