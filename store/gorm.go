package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/BaSui01/boardroom/types"
)

// AppendMetrics counts persisted messages by sender kind. Implemented by
// internal/metrics.
type AppendMetrics interface {
	RecordMessageAppended(senderKind string)
}

// Gorm implements Store on a relational database through GORM.
type Gorm struct {
	db      *gorm.DB
	bus     *EventBus
	metrics AppendMetrics
	logger  *zap.Logger
}

// NewGorm creates a store over an open database handle. The bus may be nil
// when no event consumers are wired (tests mostly).
func NewGorm(db *gorm.DB, bus *EventBus, logger *zap.Logger) *Gorm {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gorm{
		db:     db,
		bus:    bus,
		logger: logger.With(zap.String("component", "store")),
	}
}

// DB exposes the underlying handle for health probes and pool metrics.
func (s *Gorm) DB() *gorm.DB {
	return s.db
}

// SetMetrics wires a message-append counter. May stay unset in tests.
func (s *Gorm) SetMetrics(m AppendMetrics) {
	s.metrics = m
}

// AutoMigrate ensures the schema is current.
func (s *Gorm) AutoMigrate() error {
	if err := s.db.AutoMigrate(
		&personaRecord{},
		&meetingRecord{},
		&rosterRecord{},
		&messageRecord{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// --- personas ---

func (s *Gorm) CreatePersona(ctx context.Context, in PersonaCreate) (*types.Persona, error) {
	rec := personaRecord{
		ID:           uuid.NewString(),
		Name:         in.Name,
		Role:         in.Role,
		Personality:  in.Personality,
		Expertise:    in.Expertise,
		Provider:     string(in.Provider),
		Model:        in.Model,
		SystemPrompt: in.SystemPrompt,
		Active:       true,
	}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return nil, fmt.Errorf("create persona: %w", err)
	}
	p := rec.toDomain()
	s.logger.Info("persona created", zap.String("id", p.ID), zap.String("name", p.Name))
	return &p, nil
}

func (s *Gorm) GetPersona(ctx context.Context, id string) (*types.Persona, error) {
	var rec personaRecord
	err := s.db.WithContext(ctx).
		Where("id = ? AND is_active = ?", id, true).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, types.NotFound("persona not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get persona: %w", err)
	}
	p := rec.toDomain()
	return &p, nil
}

func (s *Gorm) ListPersonas(ctx context.Context) ([]types.Persona, error) {
	var recs []personaRecord
	if err := s.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("created_at").
		Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("list personas: %w", err)
	}
	out := make([]types.Persona, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (s *Gorm) DeletePersona(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).
		Model(&personaRecord{}).
		Where("id = ? AND is_active = ?", id, true).
		Update("is_active", false)
	if res.Error != nil {
		return fmt.Errorf("delete persona: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return types.NotFound("persona not found")
	}
	s.logger.Info("persona deactivated", zap.String("id", id))
	if s.bus != nil {
		s.bus.Publish(ctx, PersonaDeactivated{PersonaID: id})
	}
	return nil
}

func (s *Gorm) ListActivePersonas(ctx context.Context, personaIDs []string) ([]types.Persona, error) {
	if len(personaIDs) == 0 {
		return nil, nil
	}
	var recs []personaRecord
	if err := s.db.WithContext(ctx).
		Where("id IN ? AND is_active = ?", personaIDs, true).
		Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("list active personas: %w", err)
	}

	// preserve roster order
	byID := make(map[string]personaRecord, len(recs))
	for _, r := range recs {
		byID[r.ID] = r
	}
	out := make([]types.Persona, 0, len(recs))
	for _, id := range personaIDs {
		if r, ok := byID[id]; ok {
			out = append(out, r.toDomain())
		}
	}
	return out, nil
}

// --- meetings ---

func (s *Gorm) CreateMeeting(ctx context.Context, in MeetingCreate) (*types.Meeting, error) {
	if len(in.PersonaIDs) < types.MinRosterSize {
		return nil, types.PreconditionFailed(
			fmt.Sprintf("a meeting requires at least %d personas", types.MinRosterSize))
	}

	// every roster entry must resolve to an existing active persona
	resolved, err := s.ListActivePersonas(ctx, in.PersonaIDs)
	if err != nil {
		return nil, err
	}
	found := make(map[string]bool, len(resolved))
	for _, p := range resolved {
		found[p.ID] = true
	}
	for _, id := range in.PersonaIDs {
		if !found[id] {
			return nil, types.PreconditionFailed(fmt.Sprintf("persona %s not found", id))
		}
	}

	rec := meetingRecord{
		ID:          uuid.NewString(),
		Title:       in.Title,
		Description: in.Description,
		Active:      true,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&rec).Error; err != nil {
			return err
		}
		for i, pid := range in.PersonaIDs {
			if err := tx.Create(&rosterRecord{MeetingID: rec.ID, PersonaID: pid, Position: i}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("create meeting: %w", err)
	}

	m := rec.toDomain(in.PersonaIDs)
	s.logger.Info("meeting created", zap.String("id", m.ID), zap.Int("roster", len(in.PersonaIDs)))
	return &m, nil
}

func (s *Gorm) GetMeeting(ctx context.Context, id string) (*types.Meeting, error) {
	var rec meetingRecord
	err := s.db.WithContext(ctx).
		Where("id = ? AND is_active = ?", id, true).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, types.NotFound("meeting not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get meeting: %w", err)
	}
	roster, err := s.roster(ctx, id)
	if err != nil {
		return nil, err
	}
	m := rec.toDomain(roster)
	return &m, nil
}

func (s *Gorm) ListMeetings(ctx context.Context) ([]types.Meeting, error) {
	var recs []meetingRecord
	if err := s.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("created_at").
		Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("list meetings: %w", err)
	}
	out := make([]types.Meeting, 0, len(recs))
	for _, r := range recs {
		roster, err := s.roster(ctx, r.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, r.toDomain(roster))
	}
	return out, nil
}

func (s *Gorm) DeleteMeeting(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).
		Model(&meetingRecord{}).
		Where("id = ? AND is_active = ?", id, true).
		Update("is_active", false)
	if res.Error != nil {
		return fmt.Errorf("delete meeting: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return types.NotFound("meeting not found")
	}
	s.logger.Info("meeting deactivated", zap.String("id", id))
	return nil
}

func (s *Gorm) RemovePersonaFromRosters(ctx context.Context, personaID string) error {
	if err := s.db.WithContext(ctx).
		Where("persona_id = ?", personaID).
		Delete(&rosterRecord{}).Error; err != nil {
		return fmt.Errorf("scrub rosters: %w", err)
	}
	return nil
}

func (s *Gorm) roster(ctx context.Context, meetingID string) ([]string, error) {
	var rows []rosterRecord
	if err := s.db.WithContext(ctx).
		Where("meeting_id = ?", meetingID).
		Order("position").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load roster: %w", err)
	}
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.PersonaID)
	}
	return ids, nil
}

// --- messages ---

// AppendMessage assigns id, per-meeting sequence, and timestamp inside one
// transaction. The unique (meeting_id, seq) index is what serializes
// concurrent appends on the same meeting.
func (s *Gorm) AppendMessage(ctx context.Context, in MessageAppend) (*types.Message, error) {
	rec := messageRecord{
		ID:         uuid.NewString(),
		MeetingID:  in.MeetingID,
		Content:    in.Content,
		SenderKind: string(in.SenderKind),
		SenderID:   in.SenderID,
		SenderName: in.SenderName,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var maxSeq int64
		if err := tx.Model(&messageRecord{}).
			Where("meeting_id = ?", in.MeetingID).
			Select("COALESCE(MAX(seq), 0)").
			Scan(&maxSeq).Error; err != nil {
			return err
		}
		rec.Seq = maxSeq + 1
		return tx.Create(&rec).Error
	})
	if err != nil {
		return nil, fmt.Errorf("append message: %w", err)
	}
	if s.metrics != nil {
		s.metrics.RecordMessageAppended(string(in.SenderKind))
	}
	m := rec.toDomain()
	return &m, nil
}

func (s *Gorm) ListMessages(ctx context.Context, meetingID string) ([]types.Message, error) {
	var recs []messageRecord
	if err := s.db.WithContext(ctx).
		Where("meeting_id = ?", meetingID).
		Order("seq").
		Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	out := make([]types.Message, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.toDomain())
	}
	return out, nil
}
