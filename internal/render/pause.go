package render

import (
	"errors"
	"io"
	"sync"

	"github.com/ergochat/readline"
)

// ErrAborted is returned by a Pauser when the operator interrupts.
var ErrAborted = errors.New("operator aborted")

// Pauser blocks until the operator acknowledges a frame.
type Pauser interface {
	Pause() error
}

// NoPause never blocks.
type NoPause struct{}

// Pause returns immediately.
func (NoPause) Pause() error { return nil }

// ReadlinePauser waits for Enter on the terminal. After an interrupt or
// EOF it stops waiting for the rest of the session.
type ReadlinePauser struct {
	mu      sync.Mutex
	rl      *readline.Instance
	aborted bool
}

// NewReadlinePauser opens a readline instance with prompt.
func NewReadlinePauser(prompt string) (*ReadlinePauser, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          prompt,
		InterruptPrompt: "^C",
		EOFPrompt:       "",
	})
	if err != nil {
		return nil, err
	}
	return &ReadlinePauser{rl: rl}, nil
}

// Pause reads one line.
func (p *ReadlinePauser) Pause() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.aborted || p.rl == nil {
		return nil
	}

	_, err := p.rl.Readline()
	switch {
	case err == nil:
		return nil
	case errors.Is(err, readline.ErrInterrupt), errors.Is(err, io.EOF):
		p.aborted = true
		return ErrAborted
	default:
		return err
	}
}

// Close releases the terminal.
func (p *ReadlinePauser) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.rl == nil {
		return nil
	}
	err := p.rl.Close()
	p.rl = nil
	return err
}
