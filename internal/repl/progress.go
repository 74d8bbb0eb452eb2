package repl

import (
	"fmt"
	"io"
	"time"
)

// dotInterval throttles the dot trail so long streams don't flood the line.
const dotInterval = 250 * time.Millisecond

// progress prints a "⏳ Thinking..." dot trail while a response streams, for
// modes that hold output back until the full text has arrived.
type progress struct {
	w    io.Writer
	last time.Time
}

func newProgress(w io.Writer) *progress {
	fmt.Fprint(w, dimStyle.Render("⏳ Thinking"))
	return &progress{w: w}
}

// delta marks stream activity; at most one dot per dotInterval.
func (p *progress) delta(string) {
	if time.Since(p.last) < dotInterval {
		return
	}
	fmt.Fprint(p.w, dimStyle.Render("."))
	p.last = time.Now()
}

// done terminates the indicator line.
func (p *progress) done() {
	fmt.Fprintln(p.w)
}
