package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/llmbridge"
	"github.com/hupe1980/llmbridge/core"
	"github.com/hupe1980/llmbridge/credential"
	"github.com/hupe1980/llmbridge/model"
)

const sessionBody = `{
	"host_llm": {"provider": "openai", "model_name": "gpt-4o", "display_name": "GPT-4o"},
	"target_llm": {"provider": "anthropic", "model_name": "claude-sonnet-4-20250514", "display_name": "Claude Sonnet 4"},
	"protocol": "gibberlink",
	"api_keys": {"anthropic": "sk-ant-secret", "gemini": ""}
}`

func newTestServer(t *testing.T, binder *model.MockBinder, optFns ...func(o *Options)) http.Handler {
	t.Helper()
	bridge := llmbridge.New(func(o *llmbridge.Options) {
		o.Binder = binder
		o.Resolver = credential.NewResolver(core.ProviderOpenAI, "sk-ambient")
	})
	return NewServer(":0", bridge, optFns...).Handler()
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func createSession(t *testing.T, h http.Handler) map[string]any {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/api/session", sessionBody)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func detail(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Detail string `json:"detail"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Detail
}

func TestRootAndModels(t *testing.T) {
	h := newTestServer(t, model.NewMockBinder())

	rec := do(t, h, http.MethodGet, "/api/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"LLM Communication Hub Active"}`, rec.Body.String())
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = do(t, h, http.MethodGet, "/api/models", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var catalog map[string][]core.ModelDescriptor
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &catalog))
	assert.Len(t, catalog, 3)
	assert.NotEmpty(t, catalog["anthropic"])
}

func TestPreflight(t *testing.T) {
	h := newTestServer(t, model.NewMockBinder())
	rec := do(t, h, http.MethodOptions, "/api/extract", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")
}

func TestCreateSession_OmitsCredentials(t *testing.T) {
	h := newTestServer(t, model.NewMockBinder())

	rec := do(t, h, http.MethodPost, "/api/session", sessionBody)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "sk-ant-secret")
	assert.NotContains(t, rec.Body.String(), "api_keys")

	var sess map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sess))
	assert.Equal(t, "gibberlink", sess["protocol"])
	assert.Equal(t, "active", sess["status"])
	assert.NotEmpty(t, sess["id"])

	get := do(t, h, http.MethodGet, "/api/session/"+sess["id"].(string), "")
	require.Equal(t, http.StatusOK, get.Code)
	assert.NotContains(t, get.Body.String(), "sk-ant-secret")

	list := do(t, h, http.MethodGet, "/api/sessions", "")
	require.Equal(t, http.StatusOK, list.Code)
	var sessions []map[string]any
	require.NoError(t, json.Unmarshal(list.Body.Bytes(), &sessions))
	assert.Len(t, sessions, 1)
}

func TestCreateSession_BadRequests(t *testing.T) {
	h := newTestServer(t, model.NewMockBinder())

	rec := do(t, h, http.MethodPost, "/api/session", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/session", `{
		"host_llm": {"provider": "openai", "model_name": "gpt-4o"},
		"target_llm": {"provider": "openai", "model_name": "gpt-4o"},
		"protocol": "semaphore"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, detail(t, rec), "mcp, gibberlink, droidspeak, natural")

	rec = do(t, h, http.MethodPost, "/api/session", `{
		"host_llm": {"provider": "mistral", "model_name": "large"},
		"target_llm": {"provider": "openai", "model_name": "gpt-4o"}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetSession_NotFound(t *testing.T) {
	h := newTestServer(t, model.NewMockBinder())
	rec := do(t, h, http.MethodGet, "/api/session/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Session not found", detail(t, rec))
}

func TestExtract_Success(t *testing.T) {
	binder := model.NewMockBinder()
	h := newTestServer(t, binder)
	sess := createSession(t, h)

	rec := do(t, h, http.MethodPost, "/api/extract",
		`{"session_id":"`+sess["id"].(string)+`","query":"Explain attention","protocol":"natural"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res core.ExtractionResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "Mock response to: Explain attention", res.TargetResponse)
	assert.Equal(t, "natural", res.ProtocolUsed.String())

	binds := binder.Binds()
	require.Len(t, binds, 2)
	assert.Equal(t, "sk-ant-secret", binds[0].Credential)
	assert.Equal(t, "sk-ambient", binds[1].Credential)
}

func TestExtract_ErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		sendErr error
		query   string
		proto   string
		status  int
		contain string
	}{
		{name: "invalid protocol", query: "q", proto: "klingon", status: http.StatusBadRequest, contain: "invalid protocol"},
		{name: "quota", sendErr: errors.New("429 quota exceeded"), query: "q", status: http.StatusTooManyRequests, contain: "billing"},
		{name: "auth", sendErr: errors.New("Incorrect API key provided"), query: "q", status: http.StatusUnauthorized, contain: "check your API keys"},
		{name: "other", sendErr: errors.New("connection reset"), query: "q", status: http.StatusInternalServerError, contain: "connection reset"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			binder := model.NewMockBinder()
			h := newTestServer(t, binder)
			sess := createSession(t, h)
			id := sess["id"].(string)
			if tt.sendErr != nil {
				binder.FailSend(id+"_target", tt.sendErr)
			}

			body := `{"session_id":"` + id + `","query":"` + tt.query + `"`
			if tt.proto != "" {
				body += `,"protocol":"` + tt.proto + `"`
			}
			body += `}`

			rec := do(t, h, http.MethodPost, "/api/extract", body)
			assert.Equal(t, tt.status, rec.Code)
			msg := detail(t, rec)
			assert.Contains(t, msg, tt.contain)
			assert.NotContains(t, msg, "sk-ant-secret")
			if tt.sendErr != nil {
				assert.Contains(t, msg, "'demo' or 'test'")
			}
		})
	}
}

func TestExtract_CredentialMissing(t *testing.T) {
	binder := model.NewMockBinder()
	h := newTestServer(t, binder)

	rec := do(t, h, http.MethodPost, "/api/session", `{
		"host_llm": {"provider": "openai", "model_name": "gpt-4o"},
		"target_llm": {"provider": "gemini", "model_name": "gemini-2.0-flash"}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var sess map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sess))

	rec = do(t, h, http.MethodPost, "/api/extract", `{"session_id":"`+sess["id"].(string)+`","query":"hello"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, detail(t, rec), "gemini")
	assert.Empty(t, binder.Binds())

	rec = do(t, h, http.MethodPost, "/api/extract", `{"session_id":"`+sess["id"].(string)+`","query":"hello demo"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestExtract_UnknownSession(t *testing.T) {
	h := newTestServer(t, model.NewMockBinder())
	rec := do(t, h, http.MethodPost, "/api/extract", `{"session_id":"nope","query":"demo"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExtract_RateLimited(t *testing.T) {
	h := newTestServer(t, model.NewMockBinder(), func(o *Options) {
		o.RateLimit = 0.001
		o.RateBurst = 1
	})
	sess := createSession(t, h)
	body := `{"session_id":"` + sess["id"].(string) + `","query":"demo"}`

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/api/extract", body).Code)
	assert.Equal(t, http.StatusTooManyRequests, do(t, h, http.MethodPost, "/api/extract", body).Code)
}

func TestStatusChecks(t *testing.T) {
	ts := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	h := newTestServer(t, model.NewMockBinder(), func(o *Options) {
		o.Now = func() time.Time { return ts }
	})

	rec := do(t, h, http.MethodPost, "/api/status", `{"client_name":"uptime-monitor"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var check StatusCheck
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &check))
	assert.Equal(t, "uptime-monitor", check.ClientName)
	assert.True(t, ts.Equal(check.Timestamp))
	assert.NotEmpty(t, check.ID)

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/api/status", `{}`).Code)

	rec = do(t, h, http.MethodGet, "/api/status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var checks []StatusCheck
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &checks))
	assert.Len(t, checks, 1)
}
