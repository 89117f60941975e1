package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zaidev/internal/capabilities"
	"zaidev/internal/config"
	"zaidev/internal/domain"
	"zaidev/internal/domain/models/chat"
	"zaidev/internal/httputil"
	"zaidev/internal/repository/memory"
	"zaidev/internal/service/auth"
	chatService "zaidev/internal/service/chat"
	genService "zaidev/internal/service/generation"
)

const pixel = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg=="

type apiResponse struct {
	status int
	body   []byte
}

func (r apiResponse) decode(t *testing.T, dest any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(r.body, dest), string(r.body))
}

type testAPI struct {
	handler http.Handler
}

// testUserHeader stands in for the auth middleware.
const testUserHeader = "X-Test-User"

// newTestAPI wires the fake backends behind the real routes.
func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	registry, err := capabilities.NewRegistry()
	require.NoError(t, err)

	cfg := &config.Config{
		TextProvider:   "fake",
		ImageProvider:  "fake",
		SpeechProvider: "fake",
	}
	stack, err := genService.Setup(context.Background(), cfg, registry, logger)
	require.NoError(t, err)

	orchestrator := chatService.NewOrchestrator(stack.Client, chatService.Config{Suggestions: true, PreserveRejectedInput: true}, logger)
	svc := chatService.NewConversationService(
		memory.NewConversationRepository(10, time.Hour),
		orchestrator,
		stack.Client,
		auth.NewOwnerBasedAuthorizer(),
		true,
		logger,
	)

	h := &Handlers{
		Conversations: NewConversationHandler(svc, logger),
		Media:         NewMediaHandler(stack.Client, logger),
		Models:        NewModelsHandler(stack, registry, logger),
		Health:        NewHealthHandler(stack.BreakerStates),
	}
	mux := http.NewServeMux()
	h.Register(mux)

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mux.ServeHTTP(w, httputil.WithUserID(r, r.Header.Get(testUserHeader)))
	})
	return &testAPI{handler: handler}
}

func (a *testAPI) do(t *testing.T, method, path, body string) apiResponse {
	t.Helper()
	return a.doAs(t, "", method, path, body)
}

func (a *testAPI) doAs(t *testing.T, user, method, path, body string) apiResponse {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if user != "" {
		req.Header.Set(testUserHeader, user)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return apiResponse{status: rec.Code, body: rec.Body.Bytes()}
}

func (a *testAPI) create(t *testing.T) chat.Conversation {
	t.Helper()
	resp := a.do(t, http.MethodPost, "/api/conversations", "")
	require.Equal(t, http.StatusCreated, resp.status)
	var conv chat.Conversation
	resp.decode(t, &conv)
	return conv
}

func TestHealth(t *testing.T) {
	api := newTestAPI(t)
	resp := api.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, resp.status)

	var body map[string]any
	resp.decode(t, &body)
	assert.Equal(t, "ok", body["status"])
	assert.NotContains(t, body, "breakers")
}

func TestConversationLifecycle(t *testing.T) {
	api := newTestAPI(t)
	conv := api.create(t)
	assert.Equal(t, int64(1), conv.Version)
	require.Equal(t, 1, conv.State.Len())

	resp := api.do(t, http.MethodPost, "/api/conversations/"+conv.ID+"/messages", `{"text":"hello there"}`)
	require.Equal(t, http.StatusOK, resp.status)
	var updated chat.Conversation
	resp.decode(t, &updated)
	assert.Equal(t, int64(2), updated.Version)
	require.Equal(t, 3, updated.State.Len())
	assert.Empty(t, updated.State.Error)

	reply, _ := updated.State.Last()
	assert.Equal(t, chat.RoleAssistant, reply.Role)
	assert.NotEmpty(t, reply.Suggestions)

	resp = api.do(t, http.MethodGet, "/api/conversations/"+conv.ID, "")
	require.Equal(t, http.StatusOK, resp.status)
	var stored chat.Conversation
	resp.decode(t, &stored)
	assert.Equal(t, updated.State, stored.State)
}

func TestCreateWithoutGreeting(t *testing.T) {
	api := newTestAPI(t)
	resp := api.do(t, http.MethodPost, "/api/conversations", `{"greeting":false}`)
	require.Equal(t, http.StatusCreated, resp.status)
	var conv chat.Conversation
	resp.decode(t, &conv)
	assert.Zero(t, conv.State.Len())
}

func TestSendMessageValidationCarriedInState(t *testing.T) {
	api := newTestAPI(t)
	conv := api.create(t)

	resp := api.do(t, http.MethodPost, "/api/conversations/"+conv.ID+"/messages", `{"text":"   "}`)
	require.Equal(t, http.StatusOK, resp.status)
	var updated chat.Conversation
	resp.decode(t, &updated)
	assert.Equal(t, chatService.MessageRequired, updated.State.Error)
}

func TestSendMessageMalformedJSON(t *testing.T) {
	api := newTestAPI(t)
	conv := api.create(t)

	resp := api.do(t, http.MethodPost, "/api/conversations/"+conv.ID+"/messages", `{"text":`)
	assert.Equal(t, http.StatusBadRequest, resp.status)

	var problem map[string]any
	resp.decode(t, &problem)
	assert.Equal(t, float64(http.StatusBadRequest), problem["status"])
}

func TestSendMessageBodyTooLarge(t *testing.T) {
	api := newTestAPI(t)
	conv := api.create(t)

	big := `{"text":"` + strings.Repeat("a", config.MaxRequestBodyBytes) + `"}`
	resp := api.do(t, http.MethodPost, "/api/conversations/"+conv.ID+"/messages", big)
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.status)
}

func TestUnknownConversation(t *testing.T) {
	api := newTestAPI(t)
	resp := api.do(t, http.MethodGet, "/api/conversations/missing", "")
	assert.Equal(t, http.StatusNotFound, resp.status)
}

func TestOwnerOnlyAccess(t *testing.T) {
	api := newTestAPI(t)

	resp := api.doAs(t, "owner", http.MethodPost, "/api/conversations", "")
	require.Equal(t, http.StatusCreated, resp.status)
	var conv chat.Conversation
	resp.decode(t, &conv)
	assert.Equal(t, "owner", conv.UserID)

	resp = api.doAs(t, "intruder", http.MethodGet, "/api/conversations/"+conv.ID, "")
	assert.Equal(t, http.StatusForbidden, resp.status)

	resp = api.doAs(t, "intruder", http.MethodPost, "/api/conversations/"+conv.ID+"/messages", `{"text":"hi"}`)
	assert.Equal(t, http.StatusForbidden, resp.status)

	resp = api.doAs(t, "owner", http.MethodGet, "/api/conversations/"+conv.ID, "")
	assert.Equal(t, http.StatusOK, resp.status)
}

func TestImageEditEndpoint(t *testing.T) {
	api := newTestAPI(t)

	resp := api.do(t, http.MethodPost, "/api/images/edits", `{"imageDataUri":"`+pixel+`","prompt":"make it blue"}`)
	require.Equal(t, http.StatusOK, resp.status)
	var out map[string]string
	resp.decode(t, &out)
	assert.Equal(t, pixel, out["editedImageDataUri"])

	resp = api.do(t, http.MethodPost, "/api/images/edits", `{"prompt":"make it blue"}`)
	assert.Equal(t, http.StatusBadRequest, resp.status)
	var failed ActionError
	resp.decode(t, &failed)
	assert.Equal(t, "Image and prompt are required.", failed.Error)

	resp = api.do(t, http.MethodPost, "/api/images/edits", `{"imageDataUri":"data:text/plain;base64,aGk=","prompt":"x"}`)
	assert.Equal(t, http.StatusBadRequest, resp.status)
}

func TestSpeechEndpoints(t *testing.T) {
	api := newTestAPI(t)

	resp := api.do(t, http.MethodPost, "/api/speech", `{"text":"hello"}`)
	require.Equal(t, http.StatusOK, resp.status)
	var out SpeechResponse
	resp.decode(t, &out)
	assert.True(t, strings.HasPrefix(out.AudioDataURI, "data:audio/wav;base64,"))

	resp = api.do(t, http.MethodPost, "/api/speech", `{"text":""}`)
	assert.Equal(t, http.StatusBadRequest, resp.status)

	conv := api.create(t)
	resp = api.do(t, http.MethodPost, "/api/conversations/"+conv.ID+"/messages/"+chat.GreetingID+"/speech", "")
	require.Equal(t, http.StatusOK, resp.status)
	resp.decode(t, &out)
	assert.NotEmpty(t, out.AudioDataURI)

	resp = api.do(t, http.MethodPost, "/api/conversations/"+conv.ID+"/messages/nope/speech", "")
	assert.Equal(t, http.StatusNotFound, resp.status)
}

func TestDecomposeEndpoint(t *testing.T) {
	api := newTestAPI(t)
	conv := api.create(t)

	resp := api.do(t, http.MethodPost, "/api/conversations/"+conv.ID+"/decompose", `{"text":"launch the site"}`)
	require.Equal(t, http.StatusOK, resp.status)
	var updated chat.Conversation
	resp.decode(t, &updated)
	reply, _ := updated.State.Last()
	assert.Contains(t, reply.Content, "launch the site")
}

func TestModelsEndpoint(t *testing.T) {
	api := newTestAPI(t)
	resp := api.do(t, http.MethodGet, "/api/models", "")
	require.Equal(t, http.StatusOK, resp.status)

	var out ModelsResponse
	resp.decode(t, &out)
	require.Len(t, out.Capabilities, 6)
	for _, c := range out.Capabilities {
		assert.Equal(t, "fake", c.Provider)
		assert.NotEmpty(t, c.Model)
	}
	require.Len(t, out.Providers, 1)
	assert.Equal(t, "fake", out.Providers[0].ID)
}

func TestHandleErrorMapping(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{domain.NewValidationError("bad"), http.StatusBadRequest},
		{&domain.NotFoundError{Message: "gone"}, http.StatusNotFound},
		{domain.ErrForbidden, http.StatusForbidden},
		{domain.ErrUnauthorized, http.StatusUnauthorized},
		{&domain.ConflictError{Message: "stale"}, http.StatusConflict},
		{domain.NewGenerationError("speech", io.ErrUnexpectedEOF), http.StatusBadGateway},
		{io.EOF, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		handleError(rec, tt.err)
		assert.Equal(t, tt.want, rec.Code, tt.err.Error())
	}
}
