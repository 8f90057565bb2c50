// Package render turns an itinerary record into a printable document.
package render

import (
	"context"
	"fmt"
	"io"
	"strings"

	"tripsheet/models"
)

// Renderer writes a document for rec to w. It never touches storage.
type Renderer interface {
	Render(ctx context.Context, rec models.ItineraryRecord, w io.Writer) error
}

// Error is returned for any failure while producing a document.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("render: %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Filename is the download name for rec: "<customer name>.pdf", or
// "itinerary.pdf" when the record has no name yet.
func Filename(rec models.ItineraryRecord) string {
	name := strings.TrimSpace(rec.CustomerName)
	if name == "" {
		name = strings.TrimSpace(rec.Details.CustomerName)
	}
	if name == "" {
		name = "itinerary"
	}
	name = strings.NewReplacer("/", "-", `\`, "-", `"`, "'").Replace(name)
	return name + ".pdf"
}
