// Package session tracks per-task conversation state and mediates requests
// against the inference service.
package session

import (
	"slices"

	"github.com/joescharf/fixxy/internal/models"
)

// Store holds one isolated Session per task mode. It does no I/O and no
// locking; the Dispatcher serializes access to it.
type Store struct {
	sessions [models.TaskModeCount]models.Session
}

// NewStore returns a store with an empty session for every task mode.
func NewStore() *Store {
	return &Store{}
}

// Session returns a copy of the state for mode. Unknown modes yield an empty session.
func (s *Store) Session(mode models.TaskMode) models.Session {
	if !mode.Valid() {
		return models.Session{}
	}
	sess := s.sessions[mode]
	sess.Transcript = slices.Clone(sess.Transcript)
	return sess
}

// SetInput assigns value to the given field of mode's session.
func (s *Store) SetInput(mode models.TaskMode, field models.InputField, value string) {
	if !mode.Valid() {
		return
	}
	switch field {
	case models.FieldQuestion:
		s.sessions[mode].Question = value
	case models.FieldCode:
		s.sessions[mode].Code = value
	}
}

// AppendMessage adds msg to the end of mode's transcript.
func (s *Store) AppendMessage(mode models.TaskMode, msg models.Message) {
	if !mode.Valid() {
		return
	}
	s.sessions[mode].Transcript = append(s.sessions[mode].Transcript, msg)
}

// ClearTranscript empties mode's transcript.
func (s *Store) ClearTranscript(mode models.TaskMode) {
	if !mode.Valid() {
		return
	}
	s.sessions[mode].Transcript = nil
}

// ResetInput clears both the question and the code of mode.
func (s *Store) ResetInput(mode models.TaskMode) {
	if !mode.Valid() {
		return
	}
	s.sessions[mode].Question = ""
	s.sessions[mode].Code = ""
}

// Len returns the transcript length of mode.
func (s *Store) Len(mode models.TaskMode) int {
	if !mode.Valid() {
		return 0
	}
	return len(s.sessions[mode].Transcript)
}
