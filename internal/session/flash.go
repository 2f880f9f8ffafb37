package session

import (
	"encoding/gob"
	"fmt"
	"net/http"
)

// Flash categories used by the templates.
const (
	FlashSuccess = "success"
	FlashDanger  = "danger"
)

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Category string
	Message  string
}

func init() {
	gob.Register(Flash{})
}

// AddFlash queues a message and writes the flash cookie. Call it before the
// response headers are written.
func (m *Manager) AddFlash(w http.ResponseWriter, r *http.Request, category, message string) error {
	s, _ := m.flashes.Get(r, m.flashName) // a tampered cookie yields a fresh session
	s.AddFlash(Flash{Category: category, Message: message})
	if err := s.Save(r, w); err != nil {
		return fmt.Errorf("save flash: %w", err)
	}
	return nil
}

// Flashes drains queued messages and rewrites the flash cookie.
func (m *Manager) Flashes(w http.ResponseWriter, r *http.Request) []Flash {
	s, _ := m.flashes.Get(r, m.flashName)
	raw := s.Flashes()
	if len(raw) == 0 {
		return nil
	}
	_ = s.Save(r, w)

	out := make([]Flash, 0, len(raw))
	for _, v := range raw {
		if f, ok := v.(Flash); ok {
			out = append(out, f)
		}
	}
	return out
}
