package dispatch

import "sync"

// CaptchaSlot holds the most recently observed captcha challenge id.
// Only one challenge may be outstanding server-wide at a time: the slot
// is last-writer-wins across all sessions and cleared when a
// driver.set_captcha command consumes it. This is a deliberate design
// constraint of the backend's captcha flow, not per-client state.
type CaptchaSlot struct {
	mu sync.Mutex
	id string
}

// Store records a challenge id, replacing any previous one.
func (s *CaptchaSlot) Store(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.id = id
}

// Take returns the outstanding challenge id, if any, and clears the slot.
func (s *CaptchaSlot) Take() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.id
	s.id = ""
	return id, id != ""
}
