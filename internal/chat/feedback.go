package chat

import "sync"

// Visibility tracks which feedback-entry forms are currently open, keyed by
// message or QA item ID. An ID that was never shown is hidden.
type Visibility struct {
	mu    sync.RWMutex
	shown map[string]bool
}

func NewVisibility() *Visibility {
	return &Visibility{shown: make(map[string]bool)}
}

// Show opens the feedback form for id. Showing an already-open form is a
// no-op.
func (v *Visibility) Show(id string) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.shown[id] = true
}

// Hide closes the feedback form for id.
func (v *Visibility) Hide(id string) {
	v.mu.Lock()
	defer v.mu.Unlock()

	delete(v.shown, id)
}

// IsVisible reports whether the feedback form for id is open.
func (v *Visibility) IsVisible(id string) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()

	return v.shown[id]
}
