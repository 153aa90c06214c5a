// Package notice holds short user-facing messages that clear themselves after a
// fixed delay.
package notice

import (
	"sync"
	"time"
)

const (
	SuccessTTL = 1500 * time.Millisecond
	ErrorTTL   = 2 * time.Second
	// AdminTTL is how long admin panel confirmations stay visible.
	AdminTTL = 3 * time.Second
)

type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

type Notice struct {
	Level     Level     `json:"level"`
	Text      string    `json:"text"`
	ExpiresAt time.Time `json:"expires_at,omitzero"`
}

// Board is a single notice slot. A newer notice replaces the older one. A zero
// ttl keeps the notice until Clear, which is how form errors behave.
type Board struct {
	now func() time.Time

	mu      sync.Mutex
	current *Notice
}

func NewBoard(now func() time.Time) *Board {
	if now == nil {
		now = time.Now
	}
	return &Board{now: now}
}

func (b *Board) Show(level Level, text string, ttl time.Duration) {
	n := Notice{Level: level, Text: text}
	if ttl > 0 {
		n.ExpiresAt = b.now().Add(ttl)
	}
	b.mu.Lock()
	b.current = &n
	b.mu.Unlock()
}

func (b *Board) Success(text string) { b.Show(LevelSuccess, text, SuccessTTL) }

func (b *Board) Error(text string) { b.Show(LevelError, text, ErrorTTL) }

func (b *Board) Clear() {
	b.mu.Lock()
	b.current = nil
	b.mu.Unlock()
}

// Current returns the live notice, dropping it once its time is up.
func (b *Board) Current() (Notice, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.current == nil {
		return Notice{}, false
	}
	if !b.current.ExpiresAt.IsZero() && !b.now().Before(b.current.ExpiresAt) {
		b.current = nil
		return Notice{}, false
	}
	return *b.current, true
}

// Text is Current without the metadata; "" when nothing is showing.
func (b *Board) Text() string {
	n, ok := b.Current()
	if !ok {
		return ""
	}
	return n.Text
}
