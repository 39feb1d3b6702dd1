package types

import "time"

// SenderKind distinguishes who authored a message.
type SenderKind string

const (
	SenderUser    SenderKind = "user"
	SenderPersona SenderKind = "persona"
)

// CrewSenderID is the synthetic sender identity used when an answer was
// produced by the whole crew rather than any single persona.
const CrewSenderID = "crew"

// CrewSenderName is the frozen display name written for crew replies.
const CrewSenderName = "Crew Response"

// MaxMessageContentLength bounds the content of an incoming message.
const MaxMessageContentLength = 1000

// Message is one entry in a meeting's conversation. Messages are append-only:
// no edits, no deletes. SenderName is denormalized at write time so a later
// persona rename never alters past messages. The storage layer assigns ID and
// Timestamp and guarantees per-meeting append ordering.
type Message struct {
	ID         string     `json:"id"`
	MeetingID  string     `json:"meeting_id"`
	Content    string     `json:"content"`
	SenderKind SenderKind `json:"sender_type"`
	SenderID   string     `json:"sender_id,omitempty"`
	SenderName string     `json:"sender_name"`
	Timestamp  time.Time  `json:"timestamp"`
}

// FromPersona reports whether the message was authored by a persona (or the
// crew as a whole) rather than a human participant.
func (m Message) FromPersona() bool {
	return m.SenderKind == SenderPersona
}
