package editor

import (
	"errors"
	"sync"

	"resume-studio/internal/doctree"
)

var (
	// ErrNothingToUndo is returned by Undo on a session without history.
	ErrNothingToUndo = errors.New("nothing to undo")
	// ErrStale is returned by DispatchAt when the tree moved on since the
	// version the transaction was computed against.
	ErrStale = errors.New("transaction computed against a stale version")
)

const defaultHistory = 100

// ChangeFunc is notified after every committed change with the new version.
type ChangeFunc func(version int64)

// Session owns one live document. All mutations go through Dispatch, Replace
// or Undo, each of which swaps in a new tree atomically and then notifies
// listeners outside the lock.
type Session struct {
	mu        sync.RWMutex
	doc       *doctree.Node
	version   int64
	history   []*doctree.Node
	maxUndo   int
	listeners []ChangeFunc
}

// NewSession starts a session on a copy of doc.
func NewSession(doc *doctree.Node) *Session {
	return &Session{doc: doctree.Clone(doc), maxUndo: defaultHistory}
}

// Doc returns a copy of the current tree.
func (s *Session) Doc() *doctree.Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return doctree.Clone(s.doc)
}

// Snapshot returns a copy of the current tree and its version together.
func (s *Session) Snapshot() (*doctree.Node, int64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return doctree.Clone(s.doc), s.version
}

// Version returns the number of committed changes.
func (s *Session) Version() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// OnChange registers a listener.
func (s *Session) OnChange(fn ChangeFunc) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// Dispatch applies tr atomically.
func (s *Session) Dispatch(tr *Transaction) error {
	s.mu.Lock()
	next, err := tr.Apply(s.doc)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	v, listeners := s.commit(next)
	s.mu.Unlock()

	notify(listeners, v)
	return nil
}

// DispatchAt applies tr only if the session is still at version. Callers
// that plan positions from a snapshot use it so their paths cannot land on a
// newer tree.
func (s *Session) DispatchAt(tr *Transaction, version int64) error {
	s.mu.Lock()
	if s.version != version {
		s.mu.Unlock()
		return ErrStale
	}
	next, err := tr.Apply(s.doc)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	v, listeners := s.commit(next)
	s.mu.Unlock()

	notify(listeners, v)
	return nil
}

// Replace swaps the whole tree, e.g. after a template switch.
func (s *Session) Replace(doc *doctree.Node) {
	s.mu.Lock()
	v, listeners := s.commit(doctree.Clone(doc))
	s.mu.Unlock()

	notify(listeners, v)
}

// Undo restores the tree before the last committed change.
func (s *Session) Undo() error {
	s.mu.Lock()
	if len(s.history) == 0 {
		s.mu.Unlock()
		return ErrNothingToUndo
	}
	prev := s.history[len(s.history)-1]
	s.history = s.history[:len(s.history)-1]
	s.doc = prev
	s.version++
	v := s.version
	listeners := append([]ChangeFunc(nil), s.listeners...)
	s.mu.Unlock()

	notify(listeners, v)
	return nil
}

// commit must be called with mu held.
func (s *Session) commit(next *doctree.Node) (int64, []ChangeFunc) {
	s.history = append(s.history, s.doc)
	if len(s.history) > s.maxUndo {
		s.history = s.history[len(s.history)-s.maxUndo:]
	}
	s.doc = next
	s.version++
	return s.version, append([]ChangeFunc(nil), s.listeners...)
}

func notify(listeners []ChangeFunc, v int64) {
	for _, fn := range listeners {
		fn(v)
	}
}
