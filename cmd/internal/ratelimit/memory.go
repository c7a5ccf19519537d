package ratelimit

import (
	"context"
	"sync"
	"time"
)

// maxKeys bounds the number of tracked keys. When it is reached, idle keys are
// pruned; if that frees nothing the oldest-touched key is evicted.
const maxKeys = 100_000

// Memory is a per-key sliding-window limiter held in process memory.
type Memory struct {
	rule Rule

	mu   sync.Mutex
	keys map[string]*window
}

type window struct {
	events  []time.Time
	touched time.Time
}

// NewMemory returns a Memory limiter for rule.
func NewMemory(rule Rule) *Memory {
	return &Memory{rule: rule, keys: make(map[string]*window)}
}

// Blocked implements Limiter.
func (m *Memory) Blocked(_ context.Context, key string, now time.Time) (time.Duration, bool, error) {
	if !m.rule.Enabled() {
		return 0, false, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	w, ok := m.keys[key]
	if !ok {
		return 0, false, nil
	}
	w.prune(now.Add(-m.rule.Window))
	if len(w.events) < m.rule.Max {
		return 0, false, nil
	}
	// The oldest event leaving the window is what frees a slot.
	return w.events[0].Add(m.rule.Window).Sub(now), true, nil
}

// Hit implements Limiter.
func (m *Memory) Hit(_ context.Context, key string, now time.Time) error {
	if !m.rule.Enabled() {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	w, ok := m.keys[key]
	if !ok {
		if len(m.keys) >= maxKeys {
			m.evict(now)
		}
		w = &window{events: make([]time.Time, 0, m.rule.Max)}
		m.keys[key] = w
	}
	w.prune(now.Add(-m.rule.Window))
	w.events = append(w.events, now)
	// Keep at most Max events; older ones cannot change the outcome.
	if len(w.events) > m.rule.Max {
		w.events = w.events[len(w.events)-m.rule.Max:]
	}
	w.touched = now
	return nil
}

// Reset implements Limiter.
func (m *Memory) Reset(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.keys, key)
	m.mu.Unlock()
	return nil
}

// Len returns the number of tracked keys.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.keys)
}

func (w *window) prune(cut time.Time) {
	dst := w.events[:0]
	for _, t := range w.events {
		if t.After(cut) {
			dst = append(dst, t)
		}
	}
	w.events = dst
}

func (m *Memory) evict(now time.Time) {
	cut := now.Add(-m.rule.Window)
	var (
		oldestKey string
		oldest    time.Time
	)
	for k, w := range m.keys {
		if !w.touched.After(cut) {
			delete(m.keys, k)
			continue
		}
		if oldestKey == "" || w.touched.Before(oldest) {
			oldestKey, oldest = k, w.touched
		}
	}
	if len(m.keys) >= maxKeys && oldestKey != "" {
		delete(m.keys, oldestKey)
	}
}
