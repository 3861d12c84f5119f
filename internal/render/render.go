package render

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/loginflow/internal/engine"
)

// Frame lines around each snapshot.
const (
	HeaderLine = "---------- STORE STATE ----------"
	FooterLine = "---------------------------------"
)

// Renderer writes snapshots to Out and then calls Pauser, if set.
type Renderer struct {
	Out    io.Writer
	Pauser Pauser
	Style  Style
}

// New creates a renderer with styles derived from out.
func New(out io.Writer, pauser Pauser) *Renderer {
	return &Renderer{Out: out, Pauser: pauser, Style: NewStyle(out)}
}

// Render writes one snapshot frame and waits for acknowledgment.
func (r *Renderer) Render(snapshot any) error {
	body, err := json.MarshalIndent(snapshot, "", "    ")
	if err != nil {
		return fmt.Errorf("render snapshot: %w", err)
	}

	if _, err := fmt.Fprintf(r.Out, "%s\n%s\n%s\n",
		r.Style.Header.Render(HeaderLine),
		body,
		r.Style.Footer.Render(FooterLine),
	); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}

	if r.Pauser == nil {
		return nil
	}
	return r.Pauser.Pause()
}

// Step writes a narration line, as the demo does between operations.
func (r *Renderer) Step(format string, args ...any) {
	fmt.Fprintln(r.Out, r.Style.Prompt.Render(fmt.Sprintf(format, args...)))
}

// Listener adapts r to a store listener that renders get() after every
// commit. Render errors are logged; they never reach the store.
func Listener[T any](get func() T, r *Renderer, logger *slog.Logger) engine.Listener {
	if logger == nil {
		logger = slog.Default()
	}
	return func() {
		if err := r.Render(get()); err != nil {
			logger.Warn("render failed", "error", err)
		}
	}
}
