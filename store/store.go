package store

import (
	"context"

	"github.com/BaSui01/boardroom/types"
)

// PersonaCreate carries the fields needed to create a persona.
// SystemPrompt is optional; when empty the caller is expected to have
// synthesized one already (see the persona service in api/handlers).
type PersonaCreate struct {
	Name         string
	Role         string
	Personality  string
	Expertise    []string
	Provider     types.ProviderName
	Model        string
	SystemPrompt string
}

// MeetingCreate carries the fields needed to create a meeting.
type MeetingCreate struct {
	Title       string
	Description string
	PersonaIDs  []string
}

// MessageAppend carries one append-only message write. The store assigns
// the identifier and timestamp.
type MessageAppend struct {
	MeetingID  string
	Content    string
	SenderKind types.SenderKind
	SenderID   string
	SenderName string
}

// PersonaStore persists personas. Deletion is a soft-delete that also
// publishes a PersonaDeactivated event for roster maintenance.
type PersonaStore interface {
	CreatePersona(ctx context.Context, in PersonaCreate) (*types.Persona, error)
	GetPersona(ctx context.Context, id string) (*types.Persona, error)
	ListPersonas(ctx context.Context) ([]types.Persona, error)
	DeletePersona(ctx context.Context, id string) error

	// ListActivePersonas resolves a meeting roster to its existing active
	// personas, preserving roster order. Deactivated entries silently drop
	// out; that is accepted behavior, not an error.
	ListActivePersonas(ctx context.Context, personaIDs []string) ([]types.Persona, error)
}

// MeetingStore persists meetings and their rosters.
type MeetingStore interface {
	CreateMeeting(ctx context.Context, in MeetingCreate) (*types.Meeting, error)
	GetMeeting(ctx context.Context, id string) (*types.Meeting, error)
	ListMeetings(ctx context.Context) ([]types.Meeting, error)
	DeleteMeeting(ctx context.Context, id string) error

	// RemovePersonaFromRosters scrubs a persona id from every meeting
	// roster that references it. Consumed by roster maintenance when a
	// persona is deactivated.
	RemovePersonaFromRosters(ctx context.Context, personaID string) error
}

// MessageStore persists the append-only conversation log.
type MessageStore interface {
	AppendMessage(ctx context.Context, in MessageAppend) (*types.Message, error)
	ListMessages(ctx context.Context, meetingID string) ([]types.Message, error)
}

// Store aggregates the three collaborator interfaces.
type Store interface {
	PersonaStore
	MeetingStore
	MessageStore
}
