package http

import (
	"bytes"
	"context"
	"encoding/json"
	nethttp "net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gopherai-rag/internal/bootstrap"
	"gopherai-rag/internal/config"
	"gopherai-rag/internal/model"
	"gopherai-rag/internal/transport/http/response"
)

func fakeCompletions(t *testing.T, answer string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "cmpl-1",
			"object":  "chat.completion",
			"choices": []map[string]any{{"index": 0, "message": map[string]any{"role": "assistant", "content": answer}}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

const testAdminToken = "admin-token"

func newTestApp(t *testing.T, apiKey string, buildIndex bool) *bootstrap.App {
	t.Helper()
	gin.SetMode(gin.TestMode)
	t.Setenv("LLM_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "")

	cfg, err := config.LoadFile("")
	require.NoError(t, err)
	dir := t.TempDir()
	cfg.App.GinMode = gin.TestMode
	cfg.Paths.IndexDir = filepath.Join(dir, "index")
	cfg.Paths.ChunkFile = filepath.Join(dir, "chunks.json")
	cfg.Auth.JWTSecret = "test-secret"
	cfg.Auth.AdminToken = testAdminToken
	cfg.Paths.DataDir = filepath.Join(dir, "data")
	cfg.LLM.BaseURL = fakeCompletions(t, "Gophers are rodents.").URL
	cfg.LLM.APIKey = apiKey

	a, err := bootstrap.New(context.Background(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	if buildIndex {
		_, err := a.Indexer.Build(context.Background(), []model.Chunk{
			{Text: "Gophers are burrowing rodents of North America.", Metadata: model.ChunkMetadata{Source: "g.pdf", Page: 1}},
			{Text: "Go is a programming language.", Metadata: model.ChunkMetadata{Source: "g.pdf", Page: 2, Position: 1}},
		})
		require.NoError(t, err)
	}
	return a
}

func doJSON(router *gin.Engine, method, path, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var out map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w, out
}

func TestRouter_Ask(t *testing.T) {
	t.Run("Should answer with sources", func(t *testing.T) {
		router := NewRouter(newTestApp(t, "key", true))

		w, body := doJSON(router, nethttp.MethodPost, "/api/v1/ask", "", map[string]string{"query": "What are gophers?"})
		require.Equal(t, nethttp.StatusOK, w.Code, w.Body.String())
		data := body["data"].(map[string]any)
		assert.Equal(t, "Gophers are rodents.", data["answer"])
		assert.Len(t, data["sources"], 2)
	})

	t.Run("Should explain a missing credential", func(t *testing.T) {
		router := NewRouter(newTestApp(t, "", true))

		w, body := doJSON(router, nethttp.MethodPost, "/api/v1/ask", "", map[string]string{"query": "hi"})
		assert.Equal(t, nethttp.StatusUnauthorized, w.Code)
		assert.EqualValues(t, response.CodeModelCredential, body["code"])
		assert.Contains(t, body["hint"], "LLM_API_KEY")
	})

	t.Run("Should report a missing index", func(t *testing.T) {
		router := NewRouter(newTestApp(t, "key", false))

		w, body := doJSON(router, nethttp.MethodPost, "/api/v1/ask", "", map[string]string{"query": "hi"})
		assert.Equal(t, nethttp.StatusNotFound, w.Code)
		assert.EqualValues(t, response.CodeIndexNotFound, body["code"])
	})

	t.Run("Should reject a payload without a query", func(t *testing.T) {
		router := NewRouter(newTestApp(t, "key", true))
		w, _ := doJSON(router, nethttp.MethodPost, "/api/v1/ask", "", map[string]string{})
		assert.Equal(t, nethttp.StatusBadRequest, w.Code)
	})
}

func TestRouter_Chat(t *testing.T) {
	t.Run("Should run a session end to end", func(t *testing.T) {
		router := NewRouter(newTestApp(t, "key", true))

		w, body := doJSON(router, nethttp.MethodPost, "/api/v1/chat/sessions", "", nil)
		require.Equal(t, nethttp.StatusOK, w.Code)
		token := body["data"].(map[string]any)["token"].(string)
		require.NotEmpty(t, token)

		w, body = doJSON(router, nethttp.MethodPost, "/api/v1/chat/messages", token, map[string]string{"content": "What are gophers?"})
		require.Equal(t, nethttp.StatusOK, w.Code, w.Body.String())
		data := body["data"].(map[string]any)
		messages := data["messages"].([]any)
		require.Len(t, messages, 2)
		assert.Equal(t, "Gophers are rodents.", messages[1].(map[string]any)["content"])
		assert.Equal(t, "awaiting-input", data["state"])

		w, body = doJSON(router, nethttp.MethodGet, "/api/v1/chat/transcript", token, nil)
		require.Equal(t, nethttp.StatusOK, w.Code)
		assert.Len(t, body["data"].(map[string]any)["messages"], 2)

		w, _ = doJSON(router, nethttp.MethodDelete, "/api/v1/chat/sessions", token, nil)
		require.Equal(t, nethttp.StatusOK, w.Code)

		w, _ = doJSON(router, nethttp.MethodGet, "/api/v1/chat/transcript", token, nil)
		assert.Equal(t, nethttp.StatusNotFound, w.Code)
	})

	t.Run("Should keep failures in the transcript", func(t *testing.T) {
		router := NewRouter(newTestApp(t, "", true))

		_, body := doJSON(router, nethttp.MethodPost, "/api/v1/chat/sessions", "", nil)
		token := body["data"].(map[string]any)["token"].(string)

		w, body := doJSON(router, nethttp.MethodPost, "/api/v1/chat/messages", token, map[string]string{"content": "hello"})
		require.Equal(t, nethttp.StatusOK, w.Code)
		messages := body["data"].(map[string]any)["messages"].([]any)
		require.Len(t, messages, 2)
		assert.Contains(t, messages[1].(map[string]any)["content"], "Error generating answer")
	})

	t.Run("Should require a bearer token", func(t *testing.T) {
		router := NewRouter(newTestApp(t, "key", true))
		w, _ := doJSON(router, nethttp.MethodPost, "/api/v1/chat/messages", "", map[string]string{"content": "x"})
		assert.Equal(t, nethttp.StatusUnauthorized, w.Code)

		w, _ = doJSON(router, nethttp.MethodPost, "/api/v1/chat/messages", "garbage", map[string]string{"content": "x"})
		assert.Equal(t, nethttp.StatusUnauthorized, w.Code)
	})
}

func TestRouter_Operations(t *testing.T) {
	t.Run("Should expose engine info and reload", func(t *testing.T) {
		router := NewRouter(newTestApp(t, "key", true))

		w, body := doJSON(router, nethttp.MethodGet, "/api/v1/info", "", nil)
		require.Equal(t, nethttp.StatusOK, w.Code)
		data := body["data"].(map[string]any)
		assert.Equal(t, "gemini-1.5-flash", data["model"])
		assert.Equal(t, "hashing-v1:384", data["embedder"])

		w, body = doJSON(router, nethttp.MethodPost, "/api/v1/engine/reload", testAdminToken, nil)
		require.Equal(t, nethttp.StatusOK, w.Code)
		assert.Equal(t, true, body["data"].(map[string]any)["index_loaded"])
	})

	t.Run("Should fail reload without an index", func(t *testing.T) {
		router := NewRouter(newTestApp(t, "key", false))
		w, _ := doJSON(router, nethttp.MethodPost, "/api/v1/engine/reload", testAdminToken, nil)
		assert.Equal(t, nethttp.StatusNotFound, w.Code)
	})

	t.Run("Should refuse index jobs without rabbitmq", func(t *testing.T) {
		a := newTestApp(t, "key", false)
		router := NewRouter(a)
		doc := filepath.Join(a.Config.Paths.DataDir, "x.pdf")
		w, body := doJSON(router, nethttp.MethodPost, "/api/v1/index/jobs", testAdminToken, map[string]string{"document_path": doc})
		assert.Equal(t, nethttp.StatusServiceUnavailable, w.Code)
		assert.EqualValues(t, response.CodeUnavailable, body["code"])
	})

	t.Run("Should reject index jobs for files outside the data directory", func(t *testing.T) {
		a := newTestApp(t, "key", false)
		router := NewRouter(a)
		for _, path := range []string{
			"/etc/passwd",
			filepath.Join(a.Config.Paths.DataDir, "..", "chunks.json"),
		} {
			w, body := doJSON(router, nethttp.MethodPost, "/api/v1/index/jobs", testAdminToken, map[string]string{"document_path": path})
			assert.Equal(t, nethttp.StatusBadRequest, w.Code, path)
			assert.EqualValues(t, response.CodeBadRequest, body["code"])
			assert.Contains(t, body["message"], "outside the data directory")
		}
	})

	t.Run("Should require the admin token for index jobs and reloads", func(t *testing.T) {
		router := NewRouter(newTestApp(t, "key", true))
		for _, path := range []string{"/api/v1/index/jobs", "/api/v1/engine/reload"} {
			w, _ := doJSON(router, nethttp.MethodPost, path, "", map[string]string{"document_path": "/etc/passwd"})
			assert.Equal(t, nethttp.StatusUnauthorized, w.Code, path)

			w, _ = doJSON(router, nethttp.MethodPost, path, "wrong-token", nil)
			assert.Equal(t, nethttp.StatusUnauthorized, w.Code, path)
		}

		_, body := doJSON(router, nethttp.MethodPost, "/api/v1/chat/sessions", "", nil)
		sessionToken := body["data"].(map[string]any)["token"].(string)
		w, _ := doJSON(router, nethttp.MethodPost, "/api/v1/engine/reload", sessionToken, nil)
		assert.Equal(t, nethttp.StatusUnauthorized, w.Code)
	})

	t.Run("Should disable admin routes without a configured token", func(t *testing.T) {
		a := newTestApp(t, "key", true)
		a.Config.Auth.AdminToken = ""
		router := NewRouter(a)
		w, body := doJSON(router, nethttp.MethodPost, "/api/v1/engine/reload", "anything", nil)
		assert.Equal(t, nethttp.StatusForbidden, w.Code)
		assert.EqualValues(t, response.CodeForbidden, body["code"])
	})

	t.Run("Should report health with optional dependencies off", func(t *testing.T) {
		router := NewRouter(newTestApp(t, "key", false))
		w, body := doJSON(router, nethttp.MethodGet, "/healthz", "", nil)
		assert.Equal(t, nethttp.StatusOK, w.Code)
		assert.Equal(t, "gopherai-rag", body["app"])
		assert.Equal(t, false, body["index_loaded"])
	})
}
