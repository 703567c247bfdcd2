package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikhilbhutani/reviewinsight/internal/apperr"
)

const chatCompletionBody = `{
	"id": "chatcmpl-1",
	"model": "gpt-4o-mini",
	"choices": [{"index": 0, "message": {"role": "assistant", "content": "수분감이 좋아요"}}],
	"usage": {"prompt_tokens": 12, "completion_tokens": 4, "total_tokens": 16}
}`

func TestAzureProviderUsesDeployment(t *testing.T) {
	var gotPath, gotKey, gotVersion string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("api-key")
		gotVersion = r.URL.Query().Get("api-version")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(chatCompletionBody))
	}))
	defer srv.Close()

	p := NewAzureOpenAIProvider(AzureOptions{
		Endpoint:    srv.URL,
		APIKey:      "secret",
		APIVersion:  "2024-06-01",
		Deployments: map[string]string{"gpt-4o-mini": "chat-deploy"},
	})

	resp, err := p.ChatCompletion(context.Background(), ChatRequest{
		Model:    "gpt-4o-mini",
		Messages: []Message{{Role: RoleUser, Content: "질문"}},
	})
	require.NoError(t, err)

	assert.Equal(t, "/openai/deployments/chat-deploy/chat/completions", gotPath)
	assert.Equal(t, "secret", gotKey)
	assert.Equal(t, "2024-06-01", gotVersion)
	assert.Equal(t, "azure", resp.Provider)
	assert.Equal(t, "수분감이 좋아요", resp.Content)
	assert.Equal(t, 16, resp.TotalTokens)
}

func TestOpenAIProviderMapsAuthErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error": {"message": "Incorrect API key", "type": "invalid_request_error"}}`))
	}))
	defer srv.Close()

	p := NewOpenAIProviderWithBaseURL("bad", srv.URL+"/v1")
	_, err := p.ChatCompletion(context.Background(), ChatRequest{
		Model:    "gpt-4o-mini",
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
	})

	require.Error(t, err)
	assert.Equal(t, apperr.ClassAuthentication, apperr.Classify(err))
}

func TestOllamaProvider(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/chat":
			var req ollamaChatReq
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.False(t, req.Stream)
			json.NewEncoder(w).Encode(ollamaChatResp{
				Message:         ollamaMessage{Role: "assistant", Content: "ok"},
				PromptEvalCount: 2,
				EvalCount:       1,
			})
		case "/api/embed":
			json.NewEncoder(w).Encode(ollamaEmbedResp{Embeddings: [][]float32{{0.1, 0.2}}})
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL)

	chat, err := p.ChatCompletion(context.Background(), ChatRequest{Model: "llama3", Messages: []Message{{Role: RoleUser, Content: "hi"}}})
	require.NoError(t, err)
	assert.Equal(t, "ok", chat.Content)
	assert.Equal(t, 3, chat.TotalTokens)

	emb, err := p.GenerateEmbedding(context.Background(), EmbeddingRequest{Input: []string{"x"}})
	require.NoError(t, err)
	assert.Equal(t, "nomic-embed-text", emb.Model)
	assert.Len(t, emb.Embeddings, 1)
}

func TestOllamaProviderStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewOllamaProvider(srv.URL).ChatCompletion(context.Background(), ChatRequest{Model: "nope"})
	require.Error(t, err)
	assert.Equal(t, apperr.ClassHTTP, apperr.Classify(err))
}

type stubProvider struct {
	name  string
	calls int
	model string
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) ChatCompletion(_ context.Context, req ChatRequest) (*ChatResponse, error) {
	s.calls++
	s.model = req.Model
	return &ChatResponse{Provider: s.name, Content: "from " + s.name}, nil
}

func (s *stubProvider) GenerateEmbedding(_ context.Context, req EmbeddingRequest) (*EmbeddingResponse, error) {
	return &EmbeddingResponse{Provider: s.name, Embeddings: make([][]float32, len(req.Input))}, nil
}

func TestGatewayRouting(t *testing.T) {
	azure := &stubProvider{name: "azure"}
	ollama := &stubProvider{name: "ollama"}
	gw := NewGatewayWithProviders("azure", "gpt-4o-mini", azure, ollama)

	resp, err := gw.Chat(context.Background(), ChatRequest{})
	require.NoError(t, err)
	assert.Equal(t, "from azure", resp.Content)
	assert.Equal(t, "gpt-4o-mini", azure.model)

	resp, err = gw.Chat(context.Background(), ChatRequest{Provider: "ollama", Model: "llama3"})
	require.NoError(t, err)
	assert.Equal(t, "from ollama", resp.Content)
	assert.Equal(t, "llama3", ollama.model)

	_, err = gw.Chat(context.Background(), ChatRequest{Provider: "anthropic"})
	assert.ErrorContains(t, err, `provider "anthropic" not configured`)

	assert.Equal(t, 1, azure.calls)
}

func TestCalculateCost(t *testing.T) {
	assert.InDelta(t, 0.00075, CalculateCost("gpt-4o-mini", 1000, 1000), 1e-9)
	assert.Zero(t, CalculateCost("my-local-model", 1000, 1000))
}

func TestCalculateCostDatedSnapshot(t *testing.T) {
	assert.InDelta(t, 0.00075, CalculateCost("gpt-4o-mini-2024-07-18", 1000, 1000), 1e-9)
	assert.InDelta(t, 0.018, CalculateCost("claude-sonnet-4-20250514", 1000, 1000), 1e-9)
	assert.InDelta(t, 0.002, CalculateCost("gpt-35-turbo-0613", 1000, 1000), 1e-9)
	assert.Zero(t, CalculateCost("gpt-4o-minimal", 1000, 1000))
	assert.Zero(t, CalculateCost("gpt-4o-custom-2024-07-18", 1000, 1000))
}
