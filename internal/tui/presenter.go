package tui

import (
	"context"
	"sync"

	"github.com/mcrowther/veil/internal/overlay"
)

// TermPresenter is the terminal platform layer. Presenting a surface makes
// it eligible for compositing in the next View; hiding removes it. The
// terminal repaints synchronously, so both confirm immediately.
type TermPresenter struct {
	mu        sync.Mutex
	presented map[overlay.Openable]bool
}

// NewTermPresenter creates an empty presenter.
func NewTermPresenter() *TermPresenter {
	return &TermPresenter{presented: make(map[overlay.Openable]bool)}
}

func (p *TermPresenter) State(el overlay.Openable) overlay.PresentState {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.presented[el] {
		return overlay.Presented
	}
	return overlay.NotPresented
}

func (p *TermPresenter) Present(el overlay.Openable) error {
	p.mu.Lock()
	p.presented[el] = true
	p.mu.Unlock()
	return nil
}

func (p *TermPresenter) Hide(_ context.Context, el overlay.Openable) error {
	p.mu.Lock()
	p.presented[el] = false
	p.mu.Unlock()
	return nil
}

// Visible reports whether el is currently composited.
func (p *TermPresenter) Visible(el overlay.Openable) bool {
	return p.State(el) == overlay.Presented
}
