// Package input maps physical keys to logical game actions. The engine does
// not install any default bindings yet; games that want input bind their own
// keys and poll the manager from Update.
package input

import (
	"sync"

	"github.com/go-gl/glfw/v3.3/glfw"
)

// Action represents a logical game action, not a physical key
type Action int

const (
	ActionMoveLeft Action = iota
	ActionMoveRight
	ActionMoveUp
	ActionMoveDown
	ActionPrimary
	ActionSecondary
	ActionPause
	ActionCount // Sentinel value for array sizing
)

// Manager tracks per-action key state with edge detection. The glfw key
// callback delivers on the main thread; polling happens from Update on the
// same thread, the lock just keeps occasional off-thread reads safe.
type Manager struct {
	mu sync.RWMutex

	keyToActions map[glfw.Key][]Action

	currentState [ActionCount]bool
	justPressed  [ActionCount]bool
	justReleased [ActionCount]bool
}

// NewManager creates an empty manager. No keys are bound by default.
func NewManager() *Manager {
	return &Manager{
		keyToActions: make(map[glfw.Key][]Action),
	}
}

// BindKey binds a physical key to a logical action. Multiple keys can be
// bound to the same action.
func (m *Manager) BindKey(key glfw.Key, action Action) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if action < 0 || action >= ActionCount {
		return
	}
	m.keyToActions[key] = append(m.keyToActions[key], action)
}

// UnbindKey removes all action bindings for a key
func (m *Manager) UnbindKey(key glfw.Key) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.keyToActions, key)
}

// Install registers the manager's key callback on the window.
func (m *Manager) Install(window *glfw.Window) {
	window.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, _ int, keyAction glfw.Action, _ glfw.ModifierKey) {
		switch keyAction {
		case glfw.Press:
			m.setKey(key, true)
		case glfw.Release:
			m.setKey(key, false)
		}
	})
}

func (m *Manager) setKey(key glfw.Key, down bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, action := range m.keyToActions[key] {
		if m.currentState[action] == down {
			continue
		}
		m.currentState[action] = down
		if down {
			m.justPressed[action] = true
		} else {
			m.justReleased[action] = true
		}
	}
}

// IsActive reports whether the action's key is currently held.
func (m *Manager) IsActive(action Action) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.currentState[action]
}

// JustPressed reports whether the action went down since the last PostUpdate.
func (m *Manager) JustPressed(action Action) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.justPressed[action]
}

// JustReleased reports whether the action went up since the last PostUpdate.
func (m *Manager) JustReleased(action Action) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.justReleased[action]
}

// PostUpdate clears the edge flags. Call once per frame, after update logic.
func (m *Manager) PostUpdate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.justPressed {
		m.justPressed[i] = false
		m.justReleased[i] = false
	}
}
