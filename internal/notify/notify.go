// Package notify keeps the short-lived messages shown to an agent after
// an action: toasts for quick confirmations and modals for results that
// need a title.
package notify

import (
	"sync"
	"time"
)

// Kind styles a modal.
type Kind string

const (
	KindInfo    Kind = "info"
	KindSuccess Kind = "success"
	KindError   Kind = "error"
)

// How long each kind of message stays visible.
const (
	ToastTTL = 2500 * time.Millisecond
	ModalTTL = 5 * time.Second
)

// Notification is one visible message.
type Notification struct {
	ID        int64     `json:"id"`
	Modal     bool      `json:"modal"`
	Kind      Kind      `json:"kind"`
	Title     string    `json:"title,omitempty"`
	Message   string    `json:"message"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Center holds notifications until they expire or are dismissed.
// It is safe for concurrent use.
type Center struct {
	mu     sync.Mutex
	now    func() time.Time
	nextID int64
	items  []Notification
}

// NewCenter returns an empty center using the wall clock.
func NewCenter() *Center {
	return &Center{now: time.Now}
}

// WithClock replaces the time source, for tests.
func (c *Center) WithClock(now func() time.Time) *Center {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
	return c
}

// Toast shows a brief message.
func (c *Center) Toast(message string) Notification {
	return c.add(Notification{Kind: KindSuccess, Message: message}, ToastTTL)
}

// Modal shows a titled message.
func (c *Center) Modal(title, message string, kind Kind) Notification {
	if kind == "" {
		kind = KindInfo
	}
	return c.add(Notification{Modal: true, Kind: kind, Title: title, Message: message}, ModalTTL)
}

func (c *Center) add(n Notification, ttl time.Duration) Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	n.ID = c.nextID
	n.ExpiresAt = c.now().Add(ttl)
	c.items = append(c.items, n)
	return n
}

// Active drops expired notifications and returns the rest, oldest first.
func (c *Center) Active() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	kept := c.items[:0]
	for _, n := range c.items {
		if now.Before(n.ExpiresAt) {
			kept = append(kept, n)
		}
	}
	c.items = kept
	out := make([]Notification, len(kept))
	copy(out, kept)
	return out
}

// Dismiss removes a notification before it expires.
func (c *Center) Dismiss(id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, n := range c.items {
		if n.ID == id {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return
		}
	}
}
