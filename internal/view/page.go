package view

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Loader fetches and redraws one region.
type Loader func(ctx context.Context) error

// Page is the set of regions currently on screen. Reloading it re-fetches
// every region, the way navigating to the current URL does.
type Page struct {
	mu      sync.Mutex
	names   []string
	loaders map[string]Loader
	reloads int
}

func NewPage() *Page {
	return &Page{loaders: make(map[string]Loader)}
}

// Register adds a region loader. Registering a name again replaces its loader
// and keeps its position.
func (p *Page) Register(name string, loader Loader) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.loaders[name]; !ok {
		p.names = append(p.names, name)
	}
	p.loaders[name] = loader
}

// Regions lists registered region names in registration order.
func (p *Page) Regions() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.names...)
}

// Reloads counts full reloads so far.
func (p *Page) Reloads() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.reloads
}

// Reload runs every loader in order. A failing loader leaves its region as it
// was and does not stop the others.
func (p *Page) Reload(ctx context.Context) error {
	p.mu.Lock()
	p.reloads++
	names := append([]string(nil), p.names...)
	loaders := make([]Loader, len(names))
	for i, name := range names {
		loaders[i] = p.loaders[name]
	}
	p.mu.Unlock()

	var errs []error
	for i, load := range loaders {
		if err := load(ctx); err != nil {
			errs = append(errs, fmt.Errorf("reload %s: %w", names[i], err))
		}
	}
	return errors.Join(errs...)
}
