package service

import (
	"sync"
	"time"
)

// Level grades a notice.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notice is a short message for the user.
type Notice struct {
	ID      uint64    `json:"id"`
	Level   Level     `json:"level"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Notices is a bounded ring of the most recent notices.
type Notices struct {
	mu   sync.Mutex
	ring []Notice
	next int
	full bool
	seq  uint64
}

// NewNotices creates a ring keeping the last capacity notices.
func NewNotices(capacity int) *Notices {
	if capacity < 1 {
		capacity = 1
	}
	return &Notices{ring: make([]Notice, capacity)}
}

// Publish appends a notice, evicting the oldest when full.
func (n *Notices) Publish(level Level, message string) Notice {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.seq++
	notice := Notice{ID: n.seq, Level: level, Message: message, At: time.Now()}
	n.ring[n.next] = notice
	n.next = (n.next + 1) % len(n.ring)
	if n.next == 0 {
		n.full = true
	}
	return notice
}

// Since returns the kept notices with an id above after, oldest first.
func (n *Notices) Since(after uint64) []Notice {
	n.mu.Lock()
	defer n.mu.Unlock()

	start, count := 0, n.next
	if n.full {
		start, count = n.next, len(n.ring)
	}

	out := make([]Notice, 0, count)
	for i := 0; i < count; i++ {
		notice := n.ring[(start+i)%len(n.ring)]
		if notice.ID > after {
			out = append(out, notice)
		}
	}
	return out
}
