package models

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// Origin identifies who produced a message.
type Origin string

const (
	OriginUser Origin = "user"
	OriginBot  Origin = "bot"
)

// Message is one transcript entry. Messages are never edited once appended.
type Message struct {
	ID       string
	Origin   Origin
	Text     string
	Language Language
	Task     TaskMode
	// Failed marks the sentinel entry appended when a request could not be answered.
	Failed    bool
	CreatedAt time.Time
}

// NewMessageID returns a new ULID string.
func NewMessageID() string {
	return ulid.Make().String()
}

// InputField names one of a session's two input fields.
type InputField int

const (
	FieldQuestion InputField = iota
	FieldCode
)

func (f InputField) String() string {
	if f == FieldCode {
		return "code"
	}
	return "question"
}

// Session is the per-task bundle of pending input and transcript.
type Session struct {
	Question   string
	Code       string
	Transcript []Message
}

// ActiveInput returns the input that a submission in mode m would send.
func (s Session) ActiveInput(m TaskMode) string {
	if m.UsesCode() {
		return s.Code
	}
	return s.Question
}

// RequestState tracks whether a network exchange is outstanding for a mode.
type RequestState int

const (
	RequestIdle RequestState = iota
	RequestInFlight
	RequestSettled
)

func (s RequestState) String() string {
	switch s {
	case RequestIdle:
		return "idle"
	case RequestInFlight:
		return "in_flight"
	case RequestSettled:
		return "settled"
	default:
		return "unknown"
	}
}
