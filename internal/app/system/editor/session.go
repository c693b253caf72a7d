// Package editor provides the editor-side state machines: per-file content
// buffers with debounced autosave, and the ordered tab set.
//
// Both are pure in-memory structures driven by the caller; persistence goes
// through the injected save function. Responses that arrive out of order are
// discarded by issue order, so the newest issued save always wins.
package editor

import (
	"context"
	"sync"
	"time"
)

// DefaultDebounce is the autosave delay after the last edit.
const DefaultDebounce = 2 * time.Second

// SaveFunc persists buffer content. Called off the caller's goroutine for
// debounced autosaves and on it for manual saves.
type SaveFunc func(ctx context.Context, fileID, content string) error

type buffer struct {
	content string
	dirty   bool
	lastErr error

	timer *time.Timer

	editGen uint64 // bumped on every Edit
	loadGen uint64 // bumped on every Open
	saveSeq uint64 // issue counter for saves
	applied uint64 // highest save seq already applied
}

// Session tracks open file buffers and their dirty state. Each file gets its
// own debounce timer: editing one file never delays or cancels another
// file's pending autosave.
type Session struct {
	mu       sync.Mutex
	buffers  map[string]*buffer
	current  string
	debounce time.Duration
	save     SaveFunc
}

// NewSession creates a session. A zero debounce selects DefaultDebounce.
func NewSession(save SaveFunc, debounce time.Duration) *Session {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Session{
		buffers:  map[string]*buffer{},
		debounce: debounce,
		save:     save,
	}
}

// Open registers a buffer for fileID (if needed), makes it current, and
// returns a load token. The caller fetches content and hands it back via
// DeliverLoad with the same token.
func (s *Session) Open(fileID string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	b := s.buffers[fileID]
	if b == nil {
		b = &buffer{}
		s.buffers[fileID] = b
	}
	b.loadGen++
	s.current = fileID
	return b.loadGen
}

// DeliverLoad applies fetched content to a buffer. The load is discarded
// when the file is no longer current or a newer Open superseded the token,
// and when local edits arrived while the fetch was in flight.
func (s *Session) DeliverLoad(fileID string, token uint64, content string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	b := s.buffers[fileID]
	if b == nil || s.current != fileID || b.loadGen != token || b.dirty {
		return false
	}
	b.content = content
	return true
}

// SetCurrent switches the current file without touching buffers.
func (s *Session) SetCurrent(fileID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = fileID
}

// Current returns the current file ID ("" when none).
func (s *Session) Current() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Edit replaces a buffer's content, marks it dirty, and (re)starts that
// file's autosave timer. Unknown file IDs are ignored.
func (s *Session) Edit(fileID, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b := s.buffers[fileID]
	if b == nil {
		return
	}
	b.content = content
	b.dirty = true
	b.editGen++

	if b.timer != nil {
		b.timer.Stop()
	}
	b.timer = time.AfterFunc(s.debounce, func() {
		s.autosave(fileID)
	})
}

func (s *Session) autosave(fileID string) {
	s.mu.Lock()
	b := s.buffers[fileID]
	if b == nil || !b.dirty {
		s.mu.Unlock()
		return
	}
	content, seq, gen := b.content, s.issue(b), b.editGen
	s.mu.Unlock()

	err := s.save(context.Background(), fileID, content)
	s.complete(fileID, seq, gen, err)
}

// Save persists a buffer immediately, bypassing the debounce. A pending
// autosave for the file is cancelled. Returns the save error, if any; a
// clean buffer saves as a no-op.
func (s *Session) Save(ctx context.Context, fileID string) error {
	s.mu.Lock()
	b := s.buffers[fileID]
	if b == nil || !b.dirty {
		s.mu.Unlock()
		return nil
	}
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	content, seq, gen := b.content, s.issue(b), b.editGen
	s.mu.Unlock()

	err := s.save(ctx, fileID, content)
	s.complete(fileID, seq, gen, err)
	return err
}

// issue allocates the next save sequence number. Caller holds the lock.
func (s *Session) issue(b *buffer) uint64 {
	b.saveSeq++
	return b.saveSeq
}

// complete applies a save outcome. Completions for saves older than one
// already applied are dropped: last-write-wins by issue order, not by
// completion order. The dirty flag clears only when the save succeeded and
// no edit landed after it was issued.
func (s *Session) complete(fileID string, seq, gen uint64, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b := s.buffers[fileID]
	if b == nil || seq < b.applied {
		return
	}
	b.applied = seq
	b.lastErr = err
	if err == nil && b.editGen == gen {
		b.dirty = false
	}
}

// Dirty reports whether a file has unsaved changes.
func (s *Session) Dirty(fileID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.buffers[fileID]
	return b != nil && b.dirty
}

// LastError returns the most recent save error for a file (nil when the
// last applied save succeeded or none ran).
func (s *Session) LastError(fileID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b := s.buffers[fileID]; b != nil {
		return b.lastErr
	}
	return nil
}

// Content returns a buffer's current content.
func (s *Session) Content(fileID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b := s.buffers[fileID]; b != nil {
		return b.content, true
	}
	return "", false
}

// Forget drops a buffer and cancels its pending autosave. Unsaved content
// is discarded.
func (s *Session) Forget(fileID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b := s.buffers[fileID]; b != nil && b.timer != nil {
		b.timer.Stop()
	}
	delete(s.buffers, fileID)
	if s.current == fileID {
		s.current = ""
	}
}

// Close cancels every pending autosave. Buffers stay readable.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.buffers {
		if b.timer != nil {
			b.timer.Stop()
			b.timer = nil
		}
	}
}
