package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/xxxsen/gsqlai/internal/ai"
	"github.com/xxxsen/gsqlai/internal/handler"
	"github.com/xxxsen/gsqlai/internal/middleware"
	"github.com/xxxsen/gsqlai/internal/model"
	"github.com/xxxsen/gsqlai/internal/pkg/jwt"
	"github.com/xxxsen/gsqlai/internal/service"
)

var testSecret = []byte("test-secret")

type staticChunks []*model.KnowledgeChunk

func (s staticChunks) Chunks(ctx context.Context) []*model.KnowledgeChunk {
	return s
}

type fakeLLM struct {
	configured bool
	reply      string
	err        error
	calls      int
}

func (f *fakeLLM) Configured() bool {
	return f.configured
}

func (f *fakeLLM) Converse(ctx context.Context, turns []model.ChatTurn) (string, error) {
	f.calls++
	return f.reply, f.err
}

func testChunks() staticChunks {
	return staticChunks{
		{ID: 0, Hash: "h0", Title: "ACCUMULATORS", Content: "SumAccum collects PageRank scores.", Keywords: []string{"sumaccum"}},
		{ID: 1, Hash: "h1", Title: "CONTROL_FLOW", Content: "WHILE loops repeat traversal steps.", Keywords: []string{"while"}},
	}
}

func setupRouter(t *testing.T, llm *fakeLLM, debug bool, window time.Duration) http.Handler {
	t.Helper()
	gin.SetMode(gin.TestMode)
	svc := service.NewGSQLService(testChunks(), llm)
	r := gin.New()
	r.Use(middleware.RequestID())
	handler.RegisterRoutes(r.Group("/api"), handler.RouterDeps{
		GSQL:            handler.NewGSQLHandler(svc, debug),
		Authenticator:   middleware.NewJWTAuthenticator(testSecret),
		RateLimitWindow: window,
	})
	return r
}

func authHeader(t *testing.T) string {
	t.Helper()
	token, err := jwt.GenerateToken("user-1", "dev@example.com", testSecret, time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}

func doRequest(t *testing.T, h http.Handler, method, path string, body interface{}, auth string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	out := map[string]interface{}{}
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func TestHealth_Unauthenticated(t *testing.T) {
	r := setupRouter(t, &fakeLLM{configured: true}, false, 0)
	rec, body := doRequest(t, r, http.MethodGet, "/api/gsql-ai/health", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", body["status"])
	require.Equal(t, true, body["geminiConfigured"])
	_, err := time.Parse(time.RFC3339, body["timestamp"].(string))
	require.NoError(t, err)

	r = setupRouter(t, &fakeLLM{configured: false}, false, 0)
	_, body = doRequest(t, r, http.MethodGet, "/api/gsql-ai/health", nil, "")
	require.Equal(t, false, body["geminiConfigured"])
}

func TestGenerate_RequiresAuth(t *testing.T) {
	llm := &fakeLLM{configured: true, reply: "x"}
	r := setupRouter(t, llm, false, 0)
	rec, body := doRequest(t, r, http.MethodPost, "/api/gsql-ai/generate", map[string]string{"prompt": "pagerank"}, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.NotEmpty(t, body["error"])
	require.Equal(t, 0, llm.calls)
}

func TestGenerate_Success(t *testing.T) {
	llm := &fakeLLM{configured: true, reply: "```gsql\nCREATE QUERY pr() FOR GRAPH g {}\n```\n\n**Explanation**: Ranks pages.\n\n**Key Features**:\n- SumAccum"}
	r := setupRouter(t, llm, false, 0)
	rec, body := doRequest(t, r, http.MethodPost, "/api/gsql-ai/generate", map[string]interface{}{
		"prompt": "pagerank with sumaccum",
		"schema": "VERTEX Page",
	}, authHeader(t))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "CREATE QUERY pr() FOR GRAPH g {}", body["code"])
	require.Equal(t, "Ranks pages.", body["explanation"])
	require.Equal(t, []interface{}{"SumAccum"}, body["features"])
	require.NotEmpty(t, body["fullResponse"])
	rag, ok := body["ragContext"].(map[string]interface{})
	require.True(t, ok)
	require.Equal(t, float64(1), rag["chunksRetrieved"])
	require.Equal(t, []interface{}{"ACCUMULATORS"}, rag["relevantSections"])
	require.NotContains(t, body, "degraded")
}

func TestGenerate_ErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		llm        *fakeLLM
		prompt     string
		status     int
		degraded   bool
		wantDetail bool
	}{
		{name: "blank prompt", llm: &fakeLLM{configured: true}, prompt: "  ", status: http.StatusBadRequest},
		{name: "not configured", llm: &fakeLLM{configured: false}, prompt: "pagerank", status: http.StatusServiceUnavailable},
		{name: "rate limited", llm: &fakeLLM{configured: true, err: ai.ErrRateLimited}, prompt: "pagerank", status: http.StatusTooManyRequests},
		{name: "upstream auth", llm: &fakeLLM{configured: true, err: ai.ErrUpstreamAuth}, prompt: "pagerank", status: http.StatusServiceUnavailable},
		{name: "upstream failure", llm: &fakeLLM{configured: true, err: errors.New("reset")}, prompt: "pagerank", status: http.StatusOK, degraded: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := setupRouter(t, tc.llm, false, 0)
			rec, body := doRequest(t, r, http.MethodPost, "/api/gsql-ai/generate", map[string]string{"prompt": tc.prompt}, authHeader(t))
			require.Equal(t, tc.status, rec.Code)
			if tc.status != http.StatusOK {
				require.NotEmpty(t, body["error"])
				require.NotContains(t, body, "details")
				return
			}
			require.Equal(t, tc.degraded, body["degraded"])
		})
	}
}

func TestGenerate_MalformedBody(t *testing.T) {
	r := setupRouter(t, &fakeLLM{configured: true}, true, 0)
	req := httptest.NewRequest(http.MethodPost, "/api/gsql-ai/generate", bytes.NewBufferString("{not json"))
	req.Header.Set("Authorization", authHeader(t))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGenerate_RateLimitMiddleware(t *testing.T) {
	llm := &fakeLLM{configured: true, reply: "CREATE QUERY q() FOR GRAPH g {}"}
	r := setupRouter(t, llm, false, time.Minute)
	auth := authHeader(t)
	rec, _ := doRequest(t, r, http.MethodPost, "/api/gsql-ai/generate", map[string]string{"prompt": "pagerank"}, auth)
	require.Equal(t, http.StatusOK, rec.Code)
	rec, body := doRequest(t, r, http.MethodPost, "/api/gsql-ai/generate", map[string]string{"prompt": "pagerank"}, auth)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.NotEmpty(t, body["error"])
	require.Equal(t, 1, llm.calls)
}

func TestChat(t *testing.T) {
	llm := &fakeLLM{configured: true, reply: "Use WHILE loops."}
	r := setupRouter(t, llm, false, 0)
	rec, body := doRequest(t, r, http.MethodPost, "/api/gsql-ai/chat", map[string]interface{}{
		"message": "how do while loops work",
		"history": []map[string]string{{"role": "user", "content": "hi"}, {"role": "assistant", "content": "hello"}},
	}, authHeader(t))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Use WHILE loops.", body["reply"])
	require.NotNil(t, body["ragContext"])

	rec, _ = doRequest(t, r, http.MethodPost, "/api/gsql-ai/chat", map[string]interface{}{
		"message": "x loops",
		"history": []map[string]string{{"role": "system", "content": "hi"}},
	}, authHeader(t))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = doRequest(t, r, http.MethodPost, "/api/gsql-ai/chat", map[string]string{"message": ""}, authHeader(t))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchAndSections(t *testing.T) {
	r := setupRouter(t, &fakeLLM{}, false, 0)
	rec, body := doRequest(t, r, http.MethodPost, "/api/gsql-ai/search", map[string]interface{}{"query": "pagerank while", "topK": 50}, authHeader(t))
	require.Equal(t, http.StatusOK, rec.Code)
	items, ok := body["items"].([]interface{})
	require.True(t, ok)
	require.Len(t, items, 2)
	first := items[0].(map[string]interface{})
	require.NotEmpty(t, first["hash"])
	require.Greater(t, first["score"].(float64), float64(0))

	rec, _ = doRequest(t, r, http.MethodPost, "/api/gsql-ai/search", map[string]string{"query": ""}, authHeader(t))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec, body = doRequest(t, r, http.MethodGet, "/api/gsql-ai/sections", nil, authHeader(t))
	require.Equal(t, http.StatusOK, rec.Code)
	sections := body["sections"].([]interface{})
	require.Len(t, sections, 2)
	require.Equal(t, "ACCUMULATORS", sections[0].(map[string]interface{})["title"])
}

func TestGenerations_EmptyWithoutStore(t *testing.T) {
	r := setupRouter(t, &fakeLLM{}, false, 0)
	rec, body := doRequest(t, r, http.MethodGet, "/api/gsql-ai/generations?limit=5", nil, authHeader(t))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, []interface{}{}, body["items"])

	rec, _ = doRequest(t, r, http.MethodGet, "/api/gsql-ai/generations?limit=abc", nil, authHeader(t))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUserScopedHandlers_RejectMissingUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	llm := &fakeLLM{configured: true, reply: "x"}
	h := handler.NewGSQLHandler(service.NewGSQLService(testChunks(), llm), false)
	r := gin.New()
	r.POST("/generate", h.Generate)
	r.POST("/chat", h.Chat)
	r.GET("/generations", h.Generations)

	rec, body := doRequest(t, r, http.MethodPost, "/generate", map[string]string{"prompt": "pagerank"}, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "Authentication required", body["error"])
	rec, _ = doRequest(t, r, http.MethodPost, "/chat", map[string]string{"message": "loops"}, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	rec, _ = doRequest(t, r, http.MethodGet, "/generations", nil, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, 0, llm.calls)
}
