package http

import (
	"sync"

	"github.com/aussiebroadwan/console/pkg/idx"
)

type FlashKind string

const (
	FlashSuccess FlashKind = "success"
	FlashError   FlashKind = "error"
)

// Flash is a one-shot notification shown on the next rendered page.
type Flash struct {
	ID      idx.ID
	Kind    FlashKind
	Message string
}

// Flashes queues notifications per browser id, so a page rendered for one
// browser never shows another's.
type Flashes struct {
	mu      sync.Mutex
	pending map[string][]Flash
}

func (f *Flashes) Success(browser, msg string) { f.add(browser, FlashSuccess, msg) }

func (f *Flashes) Error(browser, msg string) { f.add(browser, FlashError, msg) }

func (f *Flashes) add(browser string, kind FlashKind, msg string) {
	if browser == "" {
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.pending == nil {
		f.pending = make(map[string][]Flash)
	}
	f.pending[browser] = append(f.pending[browser], Flash{ID: idx.New(), Kind: kind, Message: msg})
}

// Drain returns the browser's pending flashes, oldest first, and clears its
// queue.
func (f *Flashes) Drain(browser string) []Flash {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := f.pending[browser]
	delete(f.pending, browser)
	return out
}

// Forget drops whatever is queued for a browser id that is being replaced.
func (f *Flashes) Forget(browser string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.pending, browser)
}
