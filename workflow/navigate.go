package workflow

import "sync"

type View int

const (
	ViewCreate View = iota
	ViewList
	ViewEdit
)

// Destination is a view plus, for the edit view, the record id.
type Destination struct {
	View View
	ID   string
}

func (d Destination) Path() string {
	switch d.View {
	case ViewList:
		return "/saved"
	case ViewEdit:
		return "/edit/" + d.ID
	default:
		return "/"
	}
}

// Navigator moves the user to another view.
type Navigator interface {
	Navigate(Destination)
}

type nopNavigator struct{}

func (nopNavigator) Navigate(Destination) {}

// Redirect remembers the last requested destination, for transports that
// report navigation instead of performing it.
type Redirect struct {
	mu   sync.Mutex
	dest *Destination
}

func (r *Redirect) Navigate(d Destination) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dest = &d
}

// Target returns the last destination, if any.
func (r *Redirect) Target() (Destination, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.dest == nil {
		return Destination{}, false
	}
	return *r.dest, true
}
