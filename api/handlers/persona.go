package handlers

import (
	"fmt"
	"net/http"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/BaSui01/boardroom/prompt"
	"github.com/BaSui01/boardroom/store"
	"github.com/BaSui01/boardroom/types"
)

const (
	maxNameLength        = 100
	maxRoleLength        = 100
	maxPersonalityLength = 500
)

// PersonaHandler serves the persona CRUD surface.
type PersonaHandler struct {
	store  store.PersonaStore
	logger *zap.Logger
}

// NewPersonaHandler creates a persona handler.
func NewPersonaHandler(s store.PersonaStore, logger *zap.Logger) *PersonaHandler {
	return &PersonaHandler{
		store:  s,
		logger: logger.With(zap.String("component", "persona_handler")),
	}
}

// CreatePersonaRequest is the persona creation payload.
type CreatePersonaRequest struct {
	Name         string   `json:"name"`
	Role         string   `json:"role"`
	Personality  string   `json:"personality"`
	Expertise    []string `json:"expertise,omitempty"`
	Provider     string   `json:"llm_provider"`
	Model        string   `json:"llm_model"`
	SystemPrompt string   `json:"system_prompt,omitempty"`
}

// Validate checks the request bounds before any storage work.
func (r *CreatePersonaRequest) Validate() error {
	if err := requireLength("name", r.Name, maxNameLength); err != nil {
		return err
	}
	if err := requireLength("role", r.Role, maxRoleLength); err != nil {
		return err
	}
	if err := requireLength("personality", r.Personality, maxPersonalityLength); err != nil {
		return err
	}
	switch types.ProviderName(r.Provider) {
	case types.ProviderOpenAI, types.ProviderAnthropic:
	default:
		return types.NewError(types.ErrInvalidRequest,
			fmt.Sprintf("llm_provider must be one of: openai, anthropic (got %q)", r.Provider))
	}
	if r.Model == "" {
		return types.NewError(types.ErrInvalidRequest, "llm_model is required")
	}
	return nil
}

// PersonaInfo is the persona representation returned by the API.
type PersonaInfo struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Role         string   `json:"role"`
	Personality  string   `json:"personality"`
	Expertise    []string `json:"expertise"`
	Provider     string   `json:"llm_provider"`
	Model        string   `json:"llm_model"`
	SystemPrompt string   `json:"system_prompt,omitempty"`
	Active       bool     `json:"is_active"`
	CreatedAt    string   `json:"created_at,omitempty"`
}

// HandleCreate creates a persona. When no system prompt is supplied, one
// is synthesized from the persona fields and frozen at creation time.
// @Summary Create persona
// @Tags persona
// @Accept json
// @Produce json
// @Param request body CreatePersonaRequest true "Persona definition"
// @Success 201 {object} Response{data=PersonaInfo} "Created persona"
// @Failure 400 {object} Response "Invalid request"
// @Router /api/personas [post]
func (h *PersonaHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	if !ValidateContentType(w, r, h.logger) {
		return
	}

	var req CreatePersonaRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}
	if err := req.Validate(); err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	systemPrompt := req.SystemPrompt
	if systemPrompt == "" {
		systemPrompt = prompt.Synthesize(types.Persona{
			Name:        req.Name,
			Role:        req.Role,
			Personality: req.Personality,
			Expertise:   req.Expertise,
		})
	}

	p, err := h.store.CreatePersona(r.Context(), store.PersonaCreate{
		Name:         req.Name,
		Role:         req.Role,
		Personality:  req.Personality,
		Expertise:    req.Expertise,
		Provider:     types.ProviderName(req.Provider),
		Model:        req.Model,
		SystemPrompt: systemPrompt,
	})
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	h.logger.Info("persona created",
		zap.String("persona_id", p.ID),
		zap.String("name", p.Name),
		zap.String("backend", p.BackendRef()),
	)
	WriteCreated(w, toPersonaInfo(p))
}

// HandleGet returns one persona by id.
// @Summary Get persona
// @Tags persona
// @Produce json
// @Param id path string true "Persona ID"
// @Success 200 {object} Response{data=PersonaInfo} "Persona"
// @Failure 404 {object} Response "Persona not found"
// @Router /api/personas/{id} [get]
func (h *PersonaHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidRequest, "persona ID is required", h.logger)
		return
	}

	p, err := h.store.GetPersona(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	WriteSuccess(w, toPersonaInfo(p))
}

// HandleList returns every active persona.
// @Summary List personas
// @Tags persona
// @Produce json
// @Success 200 {object} Response{data=[]PersonaInfo} "Persona list"
// @Router /api/personas [get]
func (h *PersonaHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	personas, err := h.store.ListPersonas(r.Context())
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	result := make([]PersonaInfo, 0, len(personas))
	for i := range personas {
		result = append(result, toPersonaInfo(&personas[i]))
	}

	WriteSuccess(w, result)
}

// HandleDelete soft-deletes a persona. Roster maintenance picks up the
// deactivation event and scrubs the persona from meeting rosters.
// @Summary Delete persona
// @Tags persona
// @Produce json
// @Param id path string true "Persona ID"
// @Success 200 {object} Response "Deleted"
// @Failure 404 {object} Response "Persona not found"
// @Router /api/personas/{id} [delete]
func (h *PersonaHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidRequest, "persona ID is required", h.logger)
		return
	}

	if err := h.store.DeletePersona(r.Context(), id); err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	h.logger.Info("persona deleted", zap.String("persona_id", id))
	WriteSuccess(w, map[string]string{"id": id, "status": "deleted"})
}

func toPersonaInfo(p *types.Persona) PersonaInfo {
	info := PersonaInfo{
		ID:           p.ID,
		Name:         p.Name,
		Role:         p.Role,
		Personality:  p.Personality,
		Expertise:    p.Expertise,
		Provider:     string(p.Provider),
		Model:        p.Model,
		SystemPrompt: p.SystemPrompt,
		Active:       p.Active,
	}
	if !p.CreatedAt.IsZero() {
		info.CreatedAt = p.CreatedAt.UTC().Format(time.RFC3339)
	}
	return info
}

// requireLength enforces a non-empty field with an upper rune bound.
func requireLength(field, value string, max int) error {
	if value == "" {
		return types.NewError(types.ErrInvalidRequest, field+" is required")
	}
	if utf8.RuneCountInString(value) > max {
		return types.NewError(types.ErrInvalidRequest,
			fmt.Sprintf("%s must be at most %d characters", field, max))
	}
	return nil
}
