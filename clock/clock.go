package clock

import (
	"sync"
	"time"
)

// Clock источник текущего времени для сервисов
type Clock interface {
	Now() time.Time
}

// SystemClock возвращает системное время
type SystemClock struct{}

// Now возвращает текущее время
func (SystemClock) Now() time.Time {
	return time.Now()
}

// FixedClock всегда возвращает заданное время, пока его не сдвинут
type FixedClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewFixedClock создает часы, остановленные на t
func NewFixedClock(t time.Time) *FixedClock {
	return &FixedClock{now: t}
}

// Now возвращает зафиксированное время
func (c *FixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance сдвигает часы вперед на d
func (c *FixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Set переводит часы на t
func (c *FixedClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}
