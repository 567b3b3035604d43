package llm

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"google.golang.org/genai"

	"github.com/ziadkadry99/krishi-mitra/internal/schema"
)

// MockProvider is a test provider that records calls and returns canned responses.
type MockProvider struct {
	mu       sync.Mutex
	Calls    []CompletionRequest
	Response *CompletionResponse
	Err      error
	ProvName string
}

func NewMockProvider(name string) *MockProvider {
	return &MockProvider{
		ProvName: name,
		Response: &CompletionResponse{
			Content:      "mock response",
			InputTokens:  10,
			OutputTokens: 20,
			Model:        "mock-model",
			FinishReason: "stop",
		},
	}
}

func (m *MockProvider) Name() string {
	return m.ProvName
}

func (m *MockProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, req)
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Response, nil
}

func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// --- Factory ---

func TestFactoryReturnsErrorForMissingAPIKey(t *testing.T) {
	for _, p := range []string{"google", "openai"} {
		_, err := NewProvider(context.Background(), p, "some-model", "")
		if !errors.Is(err, ErrMissingAPIKey) {
			t.Errorf("provider %q: expected ErrMissingAPIKey, got %v", p, err)
		}
	}
}

func TestFactoryReturnsErrorForUnknownProvider(t *testing.T) {
	_, err := NewProvider(context.Background(), "unknown", "some-model", "key")
	if err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestFactoryCreatesOllamaWithDefaultHost(t *testing.T) {
	t.Setenv("OLLAMA_HOST", "")
	provider, err := NewProvider(context.Background(), "ollama", "llava", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ollamaP, ok := provider.(*OllamaProvider)
	if !ok {
		t.Fatal("expected *OllamaProvider")
	}
	if ollamaP.baseURL != "http://localhost:11434" {
		t.Errorf("expected default host, got %q", ollamaP.baseURL)
	}
}

func TestFactoryCreatesNamedProviders(t *testing.T) {
	for _, name := range []string{"google", "openai"} {
		provider, err := NewProvider(context.Background(), name, "m", "test-key")
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", name, err)
		}
		if provider.Name() != name {
			t.Errorf("expected name %q, got %q", name, provider.Name())
		}
	}
}

// --- Google ---

func TestGoogleProviderSendsMediaAndParsesText(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "gemini-2.5-flash:generateContent") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &got)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{
			"candidates": [{"content": {"role": "model", "parts": [{"text": "{\"advice\":"}, {"text": "\"water early\"}"}]}, "finishReason": "STOP"}],
			"usageMetadata": {"promptTokenCount": 12, "candidatesTokenCount": 7}
		}`)
	}))
	defer srv.Close()

	p, err := NewGoogleProvider(context.Background(), "key", "gemini-2.5-flash", srv.URL)
	if err != nil {
		t.Fatalf("NewGoogleProvider: %v", err)
	}
	resp, err := p.Complete(context.Background(), CompletionRequest{
		Messages: []Message{
			{Role: RoleSystem, Content: "You are an agronomist."},
			{Role: RoleUser, Content: "What is wrong with this leaf?"},
		},
		Media:    []Media{{MIMEType: "image/jpeg", Data: []byte("jpeg")}},
		JSONMode: true,
		ResponseSchema: schema.Schema{
			schema.String("advice", ""),
		},
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if resp.Content != `{"advice":"water early"}` {
		t.Errorf("content = %q", resp.Content)
	}
	if resp.InputTokens != 12 || resp.OutputTokens != 7 || resp.FinishReason != "STOP" {
		t.Errorf("usage = %+v", resp)
	}

	contents := got["contents"].([]any)
	parts := contents[0].(map[string]any)["parts"].([]any)
	if len(parts) != 2 {
		t.Fatalf("expected text + media parts, got %d", len(parts))
	}
	inline := parts[1].(map[string]any)["inlineData"].(map[string]any)
	if inline["mimeType"] != "image/jpeg" || inline["data"] != base64.StdEncoding.EncodeToString([]byte("jpeg")) {
		t.Errorf("inline data = %v", inline)
	}
	if _, ok := got["systemInstruction"]; !ok {
		t.Error("expected system instruction to be sent")
	}
}

func TestGoogleProviderReturnsAudio(t *testing.T) {
	pcm := []byte{1, 0, 2, 0}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"candidates": [{"content": {"role": "model", "parts": [{"inlineData": {"mimeType": "audio/L16;codec=pcm;rate=24000", "data": "`+
			base64.StdEncoding.EncodeToString(pcm)+`"}}]}}]}`)
	}))
	defer srv.Close()

	p, err := NewGoogleProvider(context.Background(), "key", "tts", srv.URL)
	if err != nil {
		t.Fatalf("NewGoogleProvider: %v", err)
	}
	resp, err := p.Complete(context.Background(), CompletionRequest{
		Messages:   []Message{{Role: RoleUser, Content: "namaste"}},
		Modalities: []Modality{ModalityAudio},
		Voice:      "Algenib",
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if resp.Audio == nil || string(resp.Audio.Data) != string(pcm) {
		t.Fatalf("audio = %+v", resp.Audio)
	}
	if !strings.HasPrefix(resp.Audio.MIMEType, "audio/L16") {
		t.Errorf("mime = %q", resp.Audio.MIMEType)
	}
}

func TestToGenAISchema(t *testing.T) {
	s := toGenAISchema(schema.Schema{
		schema.ObjectList("possibleIssues", "issues",
			schema.String("issue", ""),
			schema.StringList("organic_solutions", "").Opt(),
		).Min(1),
		schema.Enum("severity", "", "low", "high"),
	})
	if s.Type != genai.TypeObject || len(s.Required) != 2 {
		t.Fatalf("top-level = %+v", s)
	}
	issues := s.Properties["possibleIssues"]
	if issues.Type != genai.TypeArray || issues.MinItems == nil || *issues.MinItems != 1 {
		t.Errorf("possibleIssues = %+v", issues)
	}
	item := issues.Items
	if item.Type != genai.TypeObject || len(item.Required) != 1 || item.Required[0] != "issue" {
		t.Errorf("item = %+v", item)
	}
	if sev := s.Properties["severity"]; len(sev.Enum) != 2 {
		t.Errorf("severity = %+v", sev)
	}
}

// --- OpenAI ---

func TestOpenAIProviderSendsImageParts(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &got)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":"1","object":"chat.completion","model":"gpt-4o","choices":[{"index":0,"message":{"role":"assistant","content":"rust"},"finish_reason":"stop"}],"usage":{"prompt_tokens":5,"completion_tokens":1,"total_tokens":6}}`)
	}))
	defer srv.Close()

	p := NewOpenAIProvider("key", "gpt-4o", srv.URL+"/v1")
	resp, err := p.Complete(context.Background(), CompletionRequest{
		Messages: []Message{{Role: RoleUser, Content: "diagnose"}},
		Media:    []Media{{MIMEType: "image/png", Data: []byte("png")}},
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if resp.Content != "rust" || resp.InputTokens != 5 {
		t.Errorf("resp = %+v", resp)
	}
	msgs := got["messages"].([]any)
	content := msgs[0].(map[string]any)["content"].([]any)
	if len(content) != 2 {
		t.Fatalf("expected 2 content parts, got %d", len(content))
	}
}

func TestOpenAIProviderRejectsAudio(t *testing.T) {
	p := NewOpenAIProvider("key", "gpt-4o", "http://127.0.0.1:0")
	_, err := p.Complete(context.Background(), CompletionRequest{
		Messages: []Message{{Role: RoleUser, Content: "transcribe"}},
		Media:    []Media{{MIMEType: "audio/webm", Data: []byte("x")}},
	})
	if err == nil {
		t.Error("expected audio media to be rejected")
	}
}

// --- Ollama ---

func TestOllamaProviderSendsImagesAndSchema(t *testing.T) {
	var got ollamaChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&got)
		io.WriteString(w, `{"model":"llava","message":{"role":"assistant","content":"{}"},"done":true,"done_reason":"stop","prompt_eval_count":3,"eval_count":2}`)
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL+"/", "llava")
	resp, err := p.Complete(context.Background(), CompletionRequest{
		Messages:       []Message{{Role: RoleSystem, Content: "s"}, {Role: RoleUser, Content: "u"}},
		Media:          []Media{{MIMEType: "image/jpeg", Data: []byte("img")}},
		JSONMode:       true,
		ResponseSchema: schema.Schema{schema.String("advice", "")},
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if resp.Content != "{}" || resp.OutputTokens != 2 {
		t.Errorf("resp = %+v", resp)
	}
	if len(got.Messages) != 2 || len(got.Messages[1].Images) != 1 || len(got.Messages[0].Images) != 0 {
		t.Errorf("images not attached to the user message: %+v", got.Messages)
	}
	format, ok := got.Format.(map[string]any)
	if !ok || format["type"] != "object" {
		t.Errorf("format = %#v", got.Format)
	}
}

func TestOllamaProviderErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL, "missing")
	if _, err := p.Complete(context.Background(), CompletionRequest{Messages: []Message{{Role: RoleUser, Content: "hi"}}}); err == nil {
		t.Error("expected error for 404")
	}
}

// --- Rate limiter ---

func TestRateLimiterDisabled(t *testing.T) {
	mock := NewMockProvider("test")
	if p := NewRateLimitedProvider(mock, 0); p != Provider(mock) {
		t.Error("rpm 0 should return the provider unchanged")
	}
}

func TestRateLimiterPassesThrough(t *testing.T) {
	mock := NewMockProvider("test")
	rl := NewRateLimitedProvider(mock, 60)

	resp, err := rl.Complete(context.Background(), CompletionRequest{
		Messages: []Message{{Role: RoleUser, Content: "hello"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Content != "mock response" {
		t.Errorf("expected 'mock response', got %q", resp.Content)
	}
	if rl.Name() != "test" {
		t.Errorf("expected name 'test', got %q", rl.Name())
	}
}

func TestRateLimiterLimitsRequests(t *testing.T) {
	mock := NewMockProvider("test")
	// Allow only 2 requests per minute.
	rl := NewRateLimitedProvider(mock, 2)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	req := CompletionRequest{Messages: []Message{{Role: RoleUser, Content: "hello"}}}
	for i := 0; i < 2; i++ {
		if _, err := rl.Complete(ctx, req); err != nil {
			t.Fatalf("request %d: unexpected error: %v", i, err)
		}
	}

	// Third should block and eventually fail due to context timeout.
	_, err := rl.Complete(ctx, req)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
	if mock.CallCount() != 2 {
		t.Errorf("expected 2 upstream calls, got %d", mock.CallCount())
	}
}

// --- Cost ---

func TestEstimateCost(t *testing.T) {
	// gemini-2.5-flash: $0.30/1M input, $2.50/1M output
	cost := EstimateCost("gemini-2.5-flash", 1_000_000, 1_000_000)
	if cost < 2.79 || cost > 2.81 {
		t.Errorf("expected cost ~$2.80, got $%.2f", cost)
	}
	if c := EstimateCost("unknown-model", 1000, 500); c != 0 {
		t.Errorf("expected 0 for unknown model, got %f", c)
	}
}

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"", 0},
		{"hi", 1},
		{"hello world!!", 3},
	}
	for _, tt := range tests {
		if got := EstimateTokens(tt.text); got != tt.want {
			t.Errorf("EstimateTokens(%q) = %d, want %d", tt.text, got, tt.want)
		}
	}
}

func TestWantsAudio(t *testing.T) {
	if (CompletionRequest{}).WantsAudio() {
		t.Error("empty request should not want audio")
	}
	if !(CompletionRequest{Modalities: []Modality{ModalityAudio}}).WantsAudio() {
		t.Error("expected WantsAudio")
	}
}
