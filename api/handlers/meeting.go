package handlers

import (
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/boardroom/store"
	"github.com/BaSui01/boardroom/types"
)

const maxTitleLength = 200

// MeetingHandler serves the meeting CRUD surface.
type MeetingHandler struct {
	store  store.MeetingStore
	logger *zap.Logger
}

// NewMeetingHandler creates a meeting handler.
func NewMeetingHandler(s store.MeetingStore, logger *zap.Logger) *MeetingHandler {
	return &MeetingHandler{
		store:  s,
		logger: logger.With(zap.String("component", "meeting_handler")),
	}
}

// CreateMeetingRequest is the meeting creation payload.
type CreateMeetingRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	PersonaIDs  []string `json:"persona_ids"`
}

// Validate checks the request bounds. Roster membership against existing
// active personas is verified by the store inside the create transaction.
func (r *CreateMeetingRequest) Validate() error {
	if err := requireLength("title", r.Title, maxTitleLength); err != nil {
		return err
	}
	if len(r.PersonaIDs) < types.MinRosterSize {
		return types.NewError(types.ErrInvalidRequest,
			fmt.Sprintf("a meeting requires at least %d personas", types.MinRosterSize))
	}
	seen := make(map[string]struct{}, len(r.PersonaIDs))
	for _, id := range r.PersonaIDs {
		if id == "" {
			return types.NewError(types.ErrInvalidRequest, "persona_ids must not contain empty entries")
		}
		if _, dup := seen[id]; dup {
			return types.NewError(types.ErrInvalidRequest,
				fmt.Sprintf("persona %s appears more than once in the roster", id))
		}
		seen[id] = struct{}{}
	}
	return nil
}

// MeetingInfo is the meeting representation returned by the API.
type MeetingInfo struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	PersonaIDs  []string `json:"persona_ids"`
	Active      bool     `json:"is_active"`
	CreatedAt   string   `json:"created_at,omitempty"`
}

// HandleCreate creates a meeting over an existing persona roster.
// @Summary Create meeting
// @Tags meeting
// @Accept json
// @Produce json
// @Param request body CreateMeetingRequest true "Meeting definition"
// @Success 201 {object} Response{data=MeetingInfo} "Created meeting"
// @Failure 400 {object} Response "Invalid request or unknown persona"
// @Router /api/meetings [post]
func (h *MeetingHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	if !ValidateContentType(w, r, h.logger) {
		return
	}

	var req CreateMeetingRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}
	if err := req.Validate(); err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	m, err := h.store.CreateMeeting(r.Context(), store.MeetingCreate{
		Title:       req.Title,
		Description: req.Description,
		PersonaIDs:  req.PersonaIDs,
	})
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	h.logger.Info("meeting created",
		zap.String("meeting_id", m.ID),
		zap.String("title", m.Title),
		zap.Int("roster_size", len(m.PersonaIDs)),
	)
	WriteCreated(w, toMeetingInfo(m))
}

// HandleGet returns one meeting by id.
// @Summary Get meeting
// @Tags meeting
// @Produce json
// @Param id path string true "Meeting ID"
// @Success 200 {object} Response{data=MeetingInfo} "Meeting"
// @Failure 404 {object} Response "Meeting not found"
// @Router /api/meetings/{id} [get]
func (h *MeetingHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidRequest, "meeting ID is required", h.logger)
		return
	}

	m, err := h.store.GetMeeting(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	WriteSuccess(w, toMeetingInfo(m))
}

// HandleList returns every active meeting.
// @Summary List meetings
// @Tags meeting
// @Produce json
// @Success 200 {object} Response{data=[]MeetingInfo} "Meeting list"
// @Router /api/meetings [get]
func (h *MeetingHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	meetings, err := h.store.ListMeetings(r.Context())
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	result := make([]MeetingInfo, 0, len(meetings))
	for i := range meetings {
		result = append(result, toMeetingInfo(&meetings[i]))
	}

	WriteSuccess(w, result)
}

// HandleDelete soft-deletes a meeting. Its message log is retained.
// @Summary Delete meeting
// @Tags meeting
// @Produce json
// @Param id path string true "Meeting ID"
// @Success 200 {object} Response "Deleted"
// @Failure 404 {object} Response "Meeting not found"
// @Router /api/meetings/{id} [delete]
func (h *MeetingHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidRequest, "meeting ID is required", h.logger)
		return
	}

	if err := h.store.DeleteMeeting(r.Context(), id); err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	h.logger.Info("meeting deleted", zap.String("meeting_id", id))
	WriteSuccess(w, map[string]string{"id": id, "status": "deleted"})
}

func toMeetingInfo(m *types.Meeting) MeetingInfo {
	info := MeetingInfo{
		ID:          m.ID,
		Title:       m.Title,
		Description: m.Description,
		PersonaIDs:  m.PersonaIDs,
		Active:      m.Active,
	}
	if !m.CreatedAt.IsZero() {
		info.CreatedAt = m.CreatedAt.UTC().Format(time.RFC3339)
	}
	return info
}
