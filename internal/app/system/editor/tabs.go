package editor

import (
	"context"
	"sync"
)

// Decision is the user's answer when closing a tab with unsaved changes.
type Decision int

const (
	// DecisionSave persists the buffer before closing the tab.
	DecisionSave Decision = iota
	// DecisionDiscard closes the tab and drops the unsaved content.
	DecisionDiscard
	// DecisionCancel aborts the close; the tab stays open.
	DecisionCancel
)

// DecideFunc resolves the save-or-discard prompt for one file.
type DecideFunc func(fileID string) Decision

// dirtyTracker is the slice of Session the tab manager needs.
type dirtyTracker interface {
	Dirty(fileID string) bool
	Save(ctx context.Context, fileID string) error
	Forget(fileID string)
	SetCurrent(fileID string)
}

// TabManager maintains the ordered set of open tabs. Order is presentation
// state only; dirty indicators come from the session.
type TabManager struct {
	mu      sync.Mutex
	tabs    []string
	current string
	session dirtyTracker
}

// NewTabManager creates a tab manager backed by the given session.
func NewTabManager(session dirtyTracker) *TabManager {
	return &TabManager{session: session}
}

// Open adds a tab for fileID (if absent) and makes it current.
func (m *TabManager) Open(fileID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.indexOf(fileID) < 0 {
		m.tabs = append(m.tabs, fileID)
	}
	m.setCurrent(fileID)
}

// Close closes a tab. When the buffer is dirty, decide resolves the prompt:
// save (persisted before removal, so the sync status reflects the outcome),
// discard, or cancel. A failed save still closes the tab and returns the
// error. Closing the current tab selects the last remaining tab.
func (m *TabManager) Close(ctx context.Context, fileID string, decide DecideFunc) (closed bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexOf(fileID)
	if i < 0 {
		return false, nil
	}

	if m.session.Dirty(fileID) {
		switch decide(fileID) {
		case DecisionCancel:
			return false, nil
		case DecisionSave:
			err = m.session.Save(ctx, fileID)
		}
	}

	m.session.Forget(fileID)
	m.tabs = append(m.tabs[:i], m.tabs[i+1:]...)

	if m.current == fileID {
		next := ""
		if len(m.tabs) > 0 {
			next = m.tabs[len(m.tabs)-1]
		}
		m.setCurrent(next)
	}
	return true, err
}

// Activate makes an already-open tab current. Unknown tabs are ignored.
func (m *TabManager) Activate(fileID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.indexOf(fileID) >= 0 {
		m.setCurrent(fileID)
	}
}

// Reorder moves the tab at index from to index to. Out-of-range indices are
// ignored. Reordering never changes which tab is current.
func (m *TabManager) Reorder(from, to int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if from < 0 || from >= len(m.tabs) || to < 0 || to >= len(m.tabs) || from == to {
		return
	}
	tab := m.tabs[from]
	m.tabs = append(m.tabs[:from], m.tabs[from+1:]...)
	m.tabs = append(m.tabs[:to], append([]string{tab}, m.tabs[to:]...)...)
}

// Tabs returns the open tabs in display order.
func (m *TabManager) Tabs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.tabs))
	copy(out, m.tabs)
	return out
}

// Current returns the current tab ("" when none).
func (m *TabManager) Current() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

func (m *TabManager) indexOf(fileID string) int {
	for i, t := range m.tabs {
		if t == fileID {
			return i
		}
	}
	return -1
}

func (m *TabManager) setCurrent(fileID string) {
	m.current = fileID
	m.session.SetCurrent(fileID)
}
