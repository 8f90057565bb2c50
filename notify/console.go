package notify

import (
	"fmt"
	"io"
	"sync"
)

// Console prints notices for a terminal. A loading notice stays on the current
// line until a notice with the same ID overwrites it.
type Console struct {
	mu      sync.Mutex
	w       io.Writer
	pending string
}

func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

func (c *Console) Notify(n Notice) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pending != "" {
		if c.pending == n.ID {
			fmt.Fprint(c.w, "\r\033[K")
		} else {
			fmt.Fprintln(c.w)
		}
		c.pending = ""
	}

	line := prefix(n.Level) + n.Message
	if n.Level == Loading {
		fmt.Fprint(c.w, line)
		c.pending = n.ID
		return
	}
	fmt.Fprintln(c.w, line)
}

func (c *Console) Dismiss(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending != "" && c.pending == id {
		fmt.Fprint(c.w, "\r\033[K")
		c.pending = ""
	}
}

func prefix(l Level) string {
	switch l {
	case Success:
		return "✔ "
	case Failure:
		return "✖ "
	case Confirm:
		return "? "
	case Loading:
		return "… "
	}
	return ""
}
