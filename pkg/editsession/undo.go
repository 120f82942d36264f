// Package editsession holds the per-editing-session helpers a client of
// the editing API keeps on its side of the wire: a bounded undo/redo log
// and a debounced autosaver. One instance of each per open editor
// session; nothing here is a process-wide singleton.
package editsession

import (
	"context"
	"errors"
	"sync"
)

// DefaultUndoLimit bounds the undo log. The oldest entries fall off
// first once the limit is reached.
const DefaultUndoLimit = 50

var ErrNothingToUndo = errors.New("nothing to undo")
var ErrNothingToRedo = errors.New("nothing to redo")

// Entry is one undoable operation. Undo and Redo are inverse API calls
// prepared by the caller.
//
// Entries are pushed only after the server confirmed the original
// mutation; a failed request never lands in the log. For an "add"
// entry, Redo re-creates the resource and therefore yields a fresh
// server-assigned id; callers that capture ids must re-resolve them
// after a redo.
type Entry struct {
	Label string
	Undo  func(ctx context.Context) error
	Redo  func(ctx context.Context) error
}

// UndoStack is a bounded undo/redo log. Safe for concurrent use.
type UndoStack struct {
	mu    sync.Mutex
	limit int
	undo  []Entry
	redo  []Entry
}

func NewUndoStack(limit int) *UndoStack {
	if limit <= 0 {
		limit = DefaultUndoLimit
	}
	return &UndoStack{limit: limit}
}

// Push records a confirmed operation. Any redo history is discarded:
// once the user edits past an undo point, the abandoned branch is gone.
func (s *UndoStack) Push(e Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.undo = append(s.undo, e)
	if len(s.undo) > s.limit {
		s.undo = s.undo[len(s.undo)-s.limit:]
	}
	s.redo = nil
}

// Undo executes the most recent entry's inverse and moves it to the
// redo log. On failure the entry stays on the undo log so the user can
// retry.
func (s *UndoStack) Undo(ctx context.Context) (string, error) {
	s.mu.Lock()
	if len(s.undo) == 0 {
		s.mu.Unlock()
		return "", ErrNothingToUndo
	}
	entry := s.undo[len(s.undo)-1]
	s.undo = s.undo[:len(s.undo)-1]
	s.mu.Unlock()

	if err := entry.Undo(ctx); err != nil {
		s.mu.Lock()
		s.undo = append(s.undo, entry)
		s.mu.Unlock()
		return entry.Label, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.redo = append(s.redo, entry)
	return entry.Label, nil
}

// Redo re-applies the most recently undone entry.
func (s *UndoStack) Redo(ctx context.Context) (string, error) {
	s.mu.Lock()
	if len(s.redo) == 0 {
		s.mu.Unlock()
		return "", ErrNothingToRedo
	}
	entry := s.redo[len(s.redo)-1]
	s.redo = s.redo[:len(s.redo)-1]
	s.mu.Unlock()

	if err := entry.Redo(ctx); err != nil {
		s.mu.Lock()
		s.redo = append(s.redo, entry)
		s.mu.Unlock()
		return entry.Label, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.undo = append(s.undo, entry)
	return entry.Label, nil
}

func (s *UndoStack) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.undo) > 0
}

func (s *UndoStack) CanRedo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.redo) > 0
}

// Len returns the number of undoable entries.
func (s *UndoStack) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.undo)
}

// Clear wipes both logs, e.g. when the edit lock is lost.
func (s *UndoStack) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.undo = nil
	s.redo = nil
}
