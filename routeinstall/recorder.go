package routeinstall

import (
	"sync"

	"github.com/nereid-net/ospfd/spt"
)

// Recorder is an Installer test double recording Install/Remove calls
// instead of touching the kernel routing table.
type Recorder struct {
	mu        sync.Mutex
	installed []spt.Item
	removed   []spt.Item
}

func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) Install(item spt.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.installed = append(r.installed, item)
	return nil
}

func (r *Recorder) Remove(item spt.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removed = append(r.removed, item)
	return nil
}

func (r *Recorder) Installed() []spt.Item {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]spt.Item(nil), r.installed...)
}

func (r *Recorder) Removed() []spt.Item {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]spt.Item(nil), r.removed...)
}
