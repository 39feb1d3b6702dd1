package handlers

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/boardroom/orchestrator"
	"github.com/BaSui01/boardroom/store"
	"github.com/BaSui01/boardroom/types"
)

// defaultSenderName labels human messages that arrive without a name.
const defaultSenderName = "User"

// MessageHandler serves the conversation surface of a meeting: sending
// user messages, listing the log, and requesting persona or crew replies.
type MessageHandler struct {
	store  store.Store
	orch   *orchestrator.Orchestrator
	logger *zap.Logger
}

// NewMessageHandler creates a message handler.
func NewMessageHandler(s store.Store, orch *orchestrator.Orchestrator, logger *zap.Logger) *MessageHandler {
	return &MessageHandler{
		store:  s,
		orch:   orch,
		logger: logger.With(zap.String("component", "message_handler")),
	}
}

// SendMessageRequest is the payload for posting a user message.
type SendMessageRequest struct {
	Content    string `json:"content"`
	SenderName string `json:"sender_name,omitempty"`
}

// Validate checks the message bounds.
func (r *SendMessageRequest) Validate() error {
	return requireLength("content", r.Content, types.MaxMessageContentLength)
}

// RespondRequest selects how a reply should be produced.
type RespondRequest struct {
	// Mode is "single" or "crew".
	Mode string `json:"mode"`
	// PersonaID is required when mode is "single".
	PersonaID string `json:"persona_id,omitempty"`
}

// Validate checks the mode selection.
func (r *RespondRequest) Validate() error {
	switch orchestrator.Mode(r.Mode) {
	case orchestrator.ModeSingle:
		if r.PersonaID == "" {
			return types.NewError(types.ErrInvalidRequest, "persona_id is required in single mode")
		}
	case orchestrator.ModeCrew:
	default:
		return types.NewError(types.ErrInvalidRequest, "mode must be single or crew")
	}
	return nil
}

// MessageInfo is the message representation returned by the API.
type MessageInfo struct {
	ID         string `json:"id"`
	MeetingID  string `json:"meeting_id"`
	Content    string `json:"content"`
	SenderKind string `json:"sender_type"`
	SenderID   string `json:"sender_id,omitempty"`
	SenderName string `json:"sender_name"`
	Timestamp  string `json:"timestamp,omitempty"`
}

// HandleSend appends a user message to a meeting's conversation.
// @Summary Send message
// @Tags message
// @Accept json
// @Produce json
// @Param id path string true "Meeting ID"
// @Param request body SendMessageRequest true "Message"
// @Success 201 {object} Response{data=MessageInfo} "Appended message"
// @Failure 400 {object} Response "Invalid request"
// @Failure 404 {object} Response "Meeting not found"
// @Router /api/meetings/{id}/messages [post]
func (h *MessageHandler) HandleSend(w http.ResponseWriter, r *http.Request) {
	meetingID := r.PathValue("id")
	if meetingID == "" {
		WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidRequest, "meeting ID is required", h.logger)
		return
	}

	if !ValidateContentType(w, r, h.logger) {
		return
	}

	var req SendMessageRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}
	if err := req.Validate(); err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	// reject sends to unknown or deleted meetings before writing
	if _, err := h.store.GetMeeting(r.Context(), meetingID); err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	senderName := req.SenderName
	if senderName == "" {
		senderName = defaultSenderName
	}

	msg, err := h.store.AppendMessage(r.Context(), store.MessageAppend{
		MeetingID:  meetingID,
		Content:    req.Content,
		SenderKind: types.SenderUser,
		SenderName: senderName,
	})
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	h.logger.Info("message appended",
		zap.String("meeting_id", meetingID),
		zap.String("message_id", msg.ID),
	)
	WriteCreated(w, toMessageInfo(msg))
}

// HandleList returns a meeting's conversation in append order.
// @Summary List messages
// @Tags message
// @Produce json
// @Param id path string true "Meeting ID"
// @Success 200 {object} Response{data=[]MessageInfo} "Conversation log"
// @Failure 404 {object} Response "Meeting not found"
// @Router /api/meetings/{id}/messages [get]
func (h *MessageHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	meetingID := r.PathValue("id")
	if meetingID == "" {
		WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidRequest, "meeting ID is required", h.logger)
		return
	}

	if _, err := h.store.GetMeeting(r.Context(), meetingID); err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	messages, err := h.store.ListMessages(r.Context(), meetingID)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	result := make([]MessageInfo, 0, len(messages))
	for i := range messages {
		result = append(result, toMessageInfo(&messages[i]))
	}

	WriteSuccess(w, result)
}

// HandleRespond produces a reply in the meeting, either from one persona
// or from the assembled crew.
// @Summary Generate reply
// @Tags message
// @Accept json
// @Produce json
// @Param id path string true "Meeting ID"
// @Param request body RespondRequest true "Reply mode"
// @Success 200 {object} Response{data=MessageInfo} "Generated reply"
// @Failure 400 {object} Response "Invalid request or empty conversation"
// @Failure 404 {object} Response "Meeting or persona not found"
// @Failure 502 {object} Response "Crew execution failed"
// @Router /api/meetings/{id}/respond [post]
func (h *MessageHandler) HandleRespond(w http.ResponseWriter, r *http.Request) {
	meetingID := r.PathValue("id")
	if meetingID == "" {
		WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidRequest, "meeting ID is required", h.logger)
		return
	}

	if !ValidateContentType(w, r, h.logger) {
		return
	}

	var req RespondRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}
	if err := req.Validate(); err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	msg, err := h.orch.Respond(r.Context(), orchestrator.Request{
		MeetingID: meetingID,
		Mode:      orchestrator.Mode(req.Mode),
		PersonaID: req.PersonaID,
	})
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	WriteSuccess(w, toMessageInfo(msg))
}

func toMessageInfo(m *types.Message) MessageInfo {
	info := MessageInfo{
		ID:         m.ID,
		MeetingID:  m.MeetingID,
		Content:    m.Content,
		SenderKind: string(m.SenderKind),
		SenderID:   m.SenderID,
		SenderName: m.SenderName,
	}
	if !m.Timestamp.IsZero() {
		info.Timestamp = m.Timestamp.UTC().Format(time.RFC3339)
	}
	return info
}
