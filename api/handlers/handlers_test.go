package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BaSui01/boardroom/crew"
	"github.com/BaSui01/boardroom/llm"
	"github.com/BaSui01/boardroom/orchestrator"
	"github.com/BaSui01/boardroom/store"
	"github.com/BaSui01/boardroom/types"
)

// fakeStore is an in-memory store.Store for handler tests.
type fakeStore struct {
	personas map[string]*types.Persona
	meetings map[string]*types.Meeting
	messages map[string][]types.Message
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		personas: make(map[string]*types.Persona),
		meetings: make(map[string]*types.Meeting),
		messages: make(map[string][]types.Message),
	}
}

func (f *fakeStore) CreatePersona(_ context.Context, in store.PersonaCreate) (*types.Persona, error) {
	p := &types.Persona{
		ID: fmt.Sprintf("p%d", len(f.personas)+1), Name: in.Name, Role: in.Role,
		Personality: in.Personality, Expertise: in.Expertise,
		Provider: in.Provider, Model: in.Model, SystemPrompt: in.SystemPrompt, Active: true,
	}
	f.personas[p.ID] = p
	return p, nil
}

func (f *fakeStore) GetPersona(_ context.Context, id string) (*types.Persona, error) {
	if p, ok := f.personas[id]; ok && p.Active {
		return p, nil
	}
	return nil, types.NotFound("persona not found")
}

func (f *fakeStore) ListPersonas(context.Context) ([]types.Persona, error) {
	var out []types.Persona
	for _, p := range f.personas {
		if p.Active {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeStore) DeletePersona(_ context.Context, id string) error {
	if p, ok := f.personas[id]; ok && p.Active {
		p.Active = false
		return nil
	}
	return types.NotFound("persona not found")
}

func (f *fakeStore) ListActivePersonas(_ context.Context, ids []string) ([]types.Persona, error) {
	var out []types.Persona
	for _, id := range ids {
		if p, ok := f.personas[id]; ok && p.Active {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeStore) CreateMeeting(_ context.Context, in store.MeetingCreate) (*types.Meeting, error) {
	for _, id := range in.PersonaIDs {
		if p, ok := f.personas[id]; !ok || !p.Active {
			return nil, types.PreconditionFailed(fmt.Sprintf("persona %s not found", id))
		}
	}
	m := &types.Meeting{
		ID: fmt.Sprintf("m%d", len(f.meetings)+1), Title: in.Title,
		Description: in.Description, PersonaIDs: in.PersonaIDs, Active: true,
	}
	f.meetings[m.ID] = m
	return m, nil
}

func (f *fakeStore) GetMeeting(_ context.Context, id string) (*types.Meeting, error) {
	if m, ok := f.meetings[id]; ok && m.Active {
		return m, nil
	}
	return nil, types.NotFound("meeting not found")
}

func (f *fakeStore) ListMeetings(context.Context) ([]types.Meeting, error) {
	var out []types.Meeting
	for _, m := range f.meetings {
		if m.Active {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (f *fakeStore) DeleteMeeting(_ context.Context, id string) error {
	if m, ok := f.meetings[id]; ok && m.Active {
		m.Active = false
		return nil
	}
	return types.NotFound("meeting not found")
}

func (f *fakeStore) RemovePersonaFromRosters(context.Context, string) error { return nil }

func (f *fakeStore) AppendMessage(_ context.Context, in store.MessageAppend) (*types.Message, error) {
	msg := types.Message{
		ID:        fmt.Sprintf("msg%d", len(f.messages[in.MeetingID])+1),
		MeetingID: in.MeetingID, Content: in.Content,
		SenderKind: in.SenderKind, SenderID: in.SenderID, SenderName: in.SenderName,
	}
	f.messages[in.MeetingID] = append(f.messages[in.MeetingID], msg)
	return &msg, nil
}

func (f *fakeStore) ListMessages(_ context.Context, meetingID string) ([]types.Message, error) {
	return f.messages[meetingID], nil
}

type stubProvider struct {
	fn func(req *llm.CompletionRequest) (*llm.CompletionResponse, error)
}

func (s *stubProvider) Name() string { return "openai" }

func (s *stubProvider) Completion(_ context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	return s.fn(req)
}

type stubRunner struct {
	fn func(c *crew.Crew, task crew.Task) (string, error)
}

func (s *stubRunner) Run(_ context.Context, c *crew.Crew, task crew.Task) (string, error) {
	return s.fn(c, task)
}

func jsonRequest(method, target string, body any) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func dataAsMap(t *testing.T, resp Response) map[string]any {
	t.Helper()
	m, ok := resp.Data.(map[string]any)
	require.True(t, ok, "data should be an object, got %T", resp.Data)
	return m
}

// --- personas ---

func TestPersonaHandler_Create(t *testing.T) {
	fs := newFakeStore()
	h := NewPersonaHandler(fs, zap.NewNop())

	rec := httptest.NewRecorder()
	h.HandleCreate(rec, jsonRequest(http.MethodPost, "/api/personas", CreatePersonaRequest{
		Name:        "Ada",
		Role:        "Engineer",
		Personality: "direct and pragmatic",
		Expertise:   []string{"distributed systems"},
		Provider:    "openai",
		Model:       "gpt-4o-mini",
	}))

	require.Equal(t, http.StatusCreated, rec.Code)
	resp := decodeEnvelope(t, rec)
	require.True(t, resp.Success)

	data := dataAsMap(t, resp)
	assert.Equal(t, "Ada", data["name"])
	assert.Equal(t, true, data["is_active"])

	// no system prompt was given, so one was synthesized and frozen
	sp, _ := data["system_prompt"].(string)
	assert.Contains(t, sp, "You are Ada, a Engineer AI Employee.")
	assert.Contains(t, sp, "direct and pragmatic")

	stored := fs.personas["p1"]
	require.NotNil(t, stored)
	assert.Equal(t, sp, stored.SystemPrompt)
}

func TestPersonaHandler_Create_ExplicitPromptKept(t *testing.T) {
	fs := newFakeStore()
	h := NewPersonaHandler(fs, zap.NewNop())

	rec := httptest.NewRecorder()
	h.HandleCreate(rec, jsonRequest(http.MethodPost, "/api/personas", CreatePersonaRequest{
		Name: "Bo", Role: "Designer", Personality: "visual",
		Provider: "anthropic", Model: "claude-2.1",
		SystemPrompt: "Answer only in haiku.",
	}))

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Answer only in haiku.", fs.personas["p1"].SystemPrompt)
}

func TestPersonaHandler_Create_Validation(t *testing.T) {
	h := NewPersonaHandler(newFakeStore(), zap.NewNop())

	valid := func() CreatePersonaRequest {
		return CreatePersonaRequest{
			Name: "Ada", Role: "Engineer", Personality: "direct",
			Provider: "openai", Model: "gpt-4o-mini",
		}
	}

	cases := []struct {
		name   string
		mutate func(*CreatePersonaRequest)
		want   string
	}{
		{"missing name", func(r *CreatePersonaRequest) { r.Name = "" }, "name is required"},
		{"name too long", func(r *CreatePersonaRequest) { r.Name = strings.Repeat("a", 101) }, "at most 100"},
		{"personality too long", func(r *CreatePersonaRequest) { r.Personality = strings.Repeat("p", 501) }, "at most 500"},
		{"bad provider", func(r *CreatePersonaRequest) { r.Provider = "mistral" }, "llm_provider must be one of"},
		{"missing model", func(r *CreatePersonaRequest) { r.Model = "" }, "llm_model is required"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := valid()
			tc.mutate(&req)

			rec := httptest.NewRecorder()
			h.HandleCreate(rec, jsonRequest(http.MethodPost, "/api/personas", req))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			resp := decodeEnvelope(t, rec)
			require.NotNil(t, resp.Error)
			assert.Contains(t, resp.Error.Message, tc.want)
		})
	}
}

func TestPersonaHandler_Create_RejectsUnknownFields(t *testing.T) {
	h := NewPersonaHandler(newFakeStore(), zap.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/api/personas",
		strings.NewReader(`{"name":"Ada","bogus":true}`))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	h.HandleCreate(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPersonaHandler_GetAndDelete(t *testing.T) {
	fs := newFakeStore()
	p, err := fs.CreatePersona(context.Background(), store.PersonaCreate{
		Name: "Ada", Role: "Engineer", Provider: types.ProviderOpenAI, Model: "gpt-4o-mini",
	})
	require.NoError(t, err)

	h := NewPersonaHandler(fs, zap.NewNop())

	get := httptest.NewRequest(http.MethodGet, "/api/personas/"+p.ID, nil)
	get.SetPathValue("id", p.ID)
	rec := httptest.NewRecorder()
	h.HandleGet(rec, get)
	require.Equal(t, http.StatusOK, rec.Code)

	del := httptest.NewRequest(http.MethodDelete, "/api/personas/"+p.ID, nil)
	del.SetPathValue("id", p.ID)
	rec = httptest.NewRecorder()
	h.HandleDelete(rec, del)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, fs.personas[p.ID].Active, "delete is a soft-delete")

	// deleted personas are gone from the API surface
	rec = httptest.NewRecorder()
	h.HandleGet(rec, get)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// --- meetings ---

func seedPersonas(t *testing.T, fs *fakeStore, n int) []string {
	t.Helper()
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		p, err := fs.CreatePersona(context.Background(), store.PersonaCreate{
			Name: fmt.Sprintf("P%d", i+1), Role: "Engineer",
			Provider: types.ProviderOpenAI, Model: "gpt-4o-mini",
		})
		require.NoError(t, err)
		ids = append(ids, p.ID)
	}
	return ids
}

func TestMeetingHandler_Create(t *testing.T) {
	fs := newFakeStore()
	ids := seedPersonas(t, fs, 2)
	h := NewMeetingHandler(fs, zap.NewNop())

	rec := httptest.NewRecorder()
	h.HandleCreate(rec, jsonRequest(http.MethodPost, "/api/meetings", CreateMeetingRequest{
		Title:       "Launch",
		Description: "Plan the Q3 launch",
		PersonaIDs:  ids,
	}))

	require.Equal(t, http.StatusCreated, rec.Code)
	data := dataAsMap(t, decodeEnvelope(t, rec))
	assert.Equal(t, "Launch", data["title"])
}

func TestMeetingHandler_Create_Validation(t *testing.T) {
	fs := newFakeStore()
	ids := seedPersonas(t, fs, 2)
	h := NewMeetingHandler(fs, zap.NewNop())

	cases := []struct {
		name string
		req  CreateMeetingRequest
		want string
	}{
		{"missing title", CreateMeetingRequest{PersonaIDs: ids}, "title is required"},
		{"roster too small", CreateMeetingRequest{Title: "T", PersonaIDs: ids[:1]}, "at least 2 personas"},
		{"duplicate roster entry", CreateMeetingRequest{Title: "T", PersonaIDs: []string{ids[0], ids[0]}}, "more than once"},
		{"unknown persona", CreateMeetingRequest{Title: "T", PersonaIDs: []string{ids[0], "ghost"}}, "persona ghost not found"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.HandleCreate(rec, jsonRequest(http.MethodPost, "/api/meetings", tc.req))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			resp := decodeEnvelope(t, rec)
			require.NotNil(t, resp.Error)
			assert.Contains(t, resp.Error.Message, tc.want)
		})
	}
}

// --- messages ---

func newTestOrchestrator(fs *fakeStore, registry *llm.Registry, runner crew.Runner) *orchestrator.Orchestrator {
	return orchestrator.New(fs, registry,
		crew.NewAssembler(crew.DefaultConfig(), zap.NewNop()),
		runner, llm.DefaultGenerationPolicy(), zap.NewNop())
}

func seedMeeting(t *testing.T, fs *fakeStore) *types.Meeting {
	t.Helper()
	ids := seedPersonas(t, fs, 2)
	m, err := fs.CreateMeeting(context.Background(), store.MeetingCreate{
		Title: "Launch", Description: "Plan the Q3 launch", PersonaIDs: ids,
	})
	require.NoError(t, err)
	return m
}

func TestMessageHandler_Send(t *testing.T) {
	fs := newFakeStore()
	m := seedMeeting(t, fs)
	h := NewMessageHandler(fs, newTestOrchestrator(fs, llm.NewRegistry(), nil), zap.NewNop())

	req := jsonRequest(http.MethodPost, "/api/meetings/"+m.ID+"/messages", SendMessageRequest{
		Content: "What's the launch date?",
	})
	req.SetPathValue("id", m.ID)

	rec := httptest.NewRecorder()
	h.HandleSend(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	data := dataAsMap(t, decodeEnvelope(t, rec))
	assert.Equal(t, "user", data["sender_type"])
	assert.Equal(t, "User", data["sender_name"], "anonymous sends get the default name")
}

func TestMessageHandler_Send_Bounds(t *testing.T) {
	fs := newFakeStore()
	m := seedMeeting(t, fs)
	h := NewMessageHandler(fs, newTestOrchestrator(fs, llm.NewRegistry(), nil), zap.NewNop())

	req := jsonRequest(http.MethodPost, "/api/meetings/"+m.ID+"/messages", SendMessageRequest{
		Content: strings.Repeat("x", types.MaxMessageContentLength+1),
	})
	req.SetPathValue("id", m.ID)

	rec := httptest.NewRecorder()
	h.HandleSend(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, fs.messages[m.ID], "rejected sends must not be persisted")
}

func TestMessageHandler_Send_UnknownMeeting(t *testing.T) {
	fs := newFakeStore()
	h := NewMessageHandler(fs, newTestOrchestrator(fs, llm.NewRegistry(), nil), zap.NewNop())

	req := jsonRequest(http.MethodPost, "/api/meetings/ghost/messages", SendMessageRequest{Content: "hi"})
	req.SetPathValue("id", "ghost")

	rec := httptest.NewRecorder()
	h.HandleSend(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMessageHandler_Respond_Single(t *testing.T) {
	fs := newFakeStore()
	m := seedMeeting(t, fs)
	_, err := fs.AppendMessage(context.Background(), store.MessageAppend{
		MeetingID: m.ID, Content: "What's the launch date?",
		SenderKind: types.SenderUser, SenderName: "User",
	})
	require.NoError(t, err)

	registry := llm.NewRegistry()
	registry.Register("openai", &stubProvider{fn: func(*llm.CompletionRequest) (*llm.CompletionResponse, error) {
		return &llm.CompletionResponse{Content: "March 1st.", Provider: "openai"}, nil
	}})
	h := NewMessageHandler(fs, newTestOrchestrator(fs, registry, nil), zap.NewNop())

	req := jsonRequest(http.MethodPost, "/api/meetings/"+m.ID+"/respond", RespondRequest{
		Mode: "single", PersonaID: m.PersonaIDs[0],
	})
	req.SetPathValue("id", m.ID)

	rec := httptest.NewRecorder()
	h.HandleRespond(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	data := dataAsMap(t, decodeEnvelope(t, rec))
	assert.Equal(t, "March 1st.", data["content"])
	assert.Equal(t, "persona", data["sender_type"])
	assert.Equal(t, "P1", data["sender_name"])
}

func TestMessageHandler_Respond_Crew(t *testing.T) {
	fs := newFakeStore()
	m := seedMeeting(t, fs)
	_, err := fs.AppendMessage(context.Background(), store.MessageAppend{
		MeetingID: m.ID, Content: "What's the launch date?",
		SenderKind: types.SenderUser, SenderName: "User",
	})
	require.NoError(t, err)

	runner := &stubRunner{fn: func(*crew.Crew, crew.Task) (string, error) {
		return "We ship March 1st.", nil
	}}
	h := NewMessageHandler(fs, newTestOrchestrator(fs, llm.NewRegistry(), runner), zap.NewNop())

	req := jsonRequest(http.MethodPost, "/api/meetings/"+m.ID+"/respond", RespondRequest{Mode: "crew"})
	req.SetPathValue("id", m.ID)

	rec := httptest.NewRecorder()
	h.HandleRespond(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	data := dataAsMap(t, decodeEnvelope(t, rec))
	assert.Equal(t, "We ship March 1st.", data["content"])
	assert.Equal(t, types.CrewSenderID, data["sender_id"])
	assert.Equal(t, types.CrewSenderName, data["sender_name"])
}

func TestMessageHandler_Respond_Validation(t *testing.T) {
	fs := newFakeStore()
	m := seedMeeting(t, fs)
	h := NewMessageHandler(fs, newTestOrchestrator(fs, llm.NewRegistry(), nil), zap.NewNop())

	cases := []struct {
		name string
		req  RespondRequest
		want string
	}{
		{"bad mode", RespondRequest{Mode: "telepathy"}, "mode must be single or crew"},
		{"single without persona", RespondRequest{Mode: "single"}, "persona_id is required"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := jsonRequest(http.MethodPost, "/api/meetings/"+m.ID+"/respond", tc.req)
			req.SetPathValue("id", m.ID)

			rec := httptest.NewRecorder()
			h.HandleRespond(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			resp := decodeEnvelope(t, rec)
			require.NotNil(t, resp.Error)
			assert.Contains(t, resp.Error.Message, tc.want)
		})
	}
}

func TestMessageHandler_Respond_EmptyHistory(t *testing.T) {
	fs := newFakeStore()
	m := seedMeeting(t, fs)
	h := NewMessageHandler(fs, newTestOrchestrator(fs, llm.NewRegistry(), nil), zap.NewNop())

	req := jsonRequest(http.MethodPost, "/api/meetings/"+m.ID+"/respond", RespondRequest{Mode: "crew"})
	req.SetPathValue("id", m.ID)

	rec := httptest.NewRecorder()
	h.HandleRespond(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeEnvelope(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, string(types.ErrPreconditionFailed), resp.Error.Code)
}

// --- health ---

func TestHealthHandler(t *testing.T) {
	h := NewHealthHandler(zap.NewNop())

	rec := httptest.NewRecorder()
	h.HandleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	h.RegisterCheck(NewDatabaseHealthCheck("database", func(context.Context) error { return nil }))
	rec = httptest.NewRecorder()
	h.HandleReady(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	h.RegisterCheck(NewDatabaseHealthCheck("broken", func(context.Context) error {
		return fmt.Errorf("connection refused")
	}))
	rec = httptest.NewRecorder()
	h.HandleReady(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var status HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "unhealthy", status.Status)
	assert.Equal(t, "fail", status.Checks["broken"].Status)
}
