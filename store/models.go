package store

import (
	"time"

	"github.com/BaSui01/boardroom/types"
)

type personaRecord struct {
	ID           string   `gorm:"primaryKey;size:36"`
	Name         string   `gorm:"size:100;not null"`
	Role         string   `gorm:"size:100;not null"`
	Personality  string   `gorm:"size:500;not null"`
	Expertise    []string `gorm:"serializer:json;type:text"`
	Provider     string   `gorm:"size:32;not null"`
	Model        string   `gorm:"size:100;not null"`
	SystemPrompt string   `gorm:"type:text"`
	Active       bool     `gorm:"column:is_active;default:true;index"`
	CreatedAt    time.Time
}

func (personaRecord) TableName() string { return "personas" }

type meetingRecord struct {
	ID          string `gorm:"primaryKey;size:36"`
	Title       string `gorm:"size:200;not null"`
	Description string `gorm:"type:text"`
	Active      bool   `gorm:"column:is_active;default:true;index"`
	CreatedAt   time.Time
}

func (meetingRecord) TableName() string { return "meetings" }

// rosterRecord is one roster membership row. A join table rather than a
// serialized column so roster scrubbing is a single delete.
type rosterRecord struct {
	MeetingID string `gorm:"primaryKey;size:36"`
	PersonaID string `gorm:"primaryKey;size:36;index"`
	Position  int    `gorm:"not null"`
}

func (rosterRecord) TableName() string { return "meeting_rosters" }

type messageRecord struct {
	ID         string `gorm:"primaryKey;size:36"`
	MeetingID  string `gorm:"size:36;uniqueIndex:idx_meeting_seq,priority:1;not null"`
	Seq        int64  `gorm:"uniqueIndex:idx_meeting_seq,priority:2;not null"`
	Content    string `gorm:"size:1000;not null"`
	SenderKind string `gorm:"size:16;not null"`
	SenderID   string `gorm:"size:36"`
	SenderName string `gorm:"size:100;not null"`
	CreatedAt  time.Time
}

func (messageRecord) TableName() string { return "messages" }

func (r personaRecord) toDomain() types.Persona {
	return types.Persona{
		ID:           r.ID,
		Name:         r.Name,
		Role:         r.Role,
		Personality:  r.Personality,
		Expertise:    r.Expertise,
		Provider:     types.ProviderName(r.Provider),
		Model:        r.Model,
		SystemPrompt: r.SystemPrompt,
		Active:       r.Active,
		CreatedAt:    r.CreatedAt,
	}
}

func (r meetingRecord) toDomain(personaIDs []string) types.Meeting {
	return types.Meeting{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		PersonaIDs:  personaIDs,
		Active:      r.Active,
		CreatedAt:   r.CreatedAt,
	}
}

func (r messageRecord) toDomain() types.Message {
	return types.Message{
		ID:         r.ID,
		MeetingID:  r.MeetingID,
		Content:    r.Content,
		SenderKind: types.SenderKind(r.SenderKind),
		SenderID:   r.SenderID,
		SenderName: r.SenderName,
		Timestamp:  r.CreatedAt,
	}
}
