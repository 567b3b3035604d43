package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ziadkadry99/krishi-mitra/internal/llm"
	"github.com/ziadkadry99/krishi-mitra/internal/llm/llmtest"
	"github.com/ziadkadry99/krishi-mitra/internal/schema"
)

func chatSpec(t *testing.T) *Spec {
	t.Helper()
	s := &Spec{
		Name:     "chat",
		Input:    schema.Schema{schema.String("prompt", "user message")},
		Output:   schema.Schema{schema.String("response", "reply")},
		Template: "{{prompt}}",
	}
	if err := s.Compile(); err != nil {
		t.Fatalf("Compile: %v", err)
	}
	return s
}

func adviceSpec(t *testing.T) *Spec {
	t.Helper()
	s := &Spec{
		Name:  "advice",
		Input: schema.Schema{schema.String("question", "farmer question")},
		Output: schema.Schema{
			schema.String("advice", "answer"),
			schema.StringList("tips", "short tips").Opt(),
		},
		System:     "You are an agronomist.",
		Template:   "Question: {{question}}",
		Structured: true,
	}
	if err := s.Compile(); err != nil {
		t.Fatalf("Compile: %v", err)
	}
	return s
}

func TestCompile_UnknownPlaceholder(t *testing.T) {
	s := &Spec{
		Name:     "broken",
		Input:    schema.Schema{schema.String("question", "")},
		Output:   schema.Schema{schema.String("answer", "")},
		Template: "{{question}} {{crop}}",
	}
	err := s.Compile()
	if KindOf(err) != KindConfiguration {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if !strings.Contains(err.Error(), "crop") {
		t.Errorf("error should name the unknown field: %v", err)
	}
}

func TestCompile_UnstructuredNeedsSingleString(t *testing.T) {
	s := &Spec{
		Name:     "two",
		Output:   schema.Schema{schema.String("a", ""), schema.String("b", "")},
		Template: "hello",
	}
	if KindOf(s.Compile()) != KindConfiguration {
		t.Fatal("expected configuration error for two unstructured outputs")
	}
}

func TestRun_ValidationSkipsModel(t *testing.T) {
	p := llmtest.New(`{"advice":"water twice"}`)
	r := NewRunner(p, "test-model")

	_, err := r.Run(context.Background(), adviceSpec(t), map[string]any{"crop": "rice"})
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if diff := cmp.Diff([]string{"question"}, ve.Fields()); diff != "" {
		t.Errorf("violated fields (-want +got):\n%s", diff)
	}
	if p.CallCount() != 0 {
		t.Errorf("provider called %d times, want 0", p.CallCount())
	}
}

func TestRun_StructuredRoundTrip(t *testing.T) {
	p := llmtest.New("```json\n{\"advice\":\"Sow after first rain\",\"tips\":[\"mulch\",\"test soil\"]}\n```")
	r := NewRunner(p, "test-model")

	res, err := r.Run(context.Background(), adviceSpec(t), map[string]any{"question": "When to sow millet?"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := map[string]any{
		"advice": "Sow after first rain",
		"tips":   []any{"mulch", "test soil"},
	}
	if diff := cmp.Diff(want, res.Output); diff != "" {
		t.Errorf("output (-want +got):\n%s", diff)
	}
	if res.Usage.InputTokens != 10 || res.Usage.OutputTokens != 20 {
		t.Errorf("usage = %+v", res.Usage)
	}

	req := p.LastCall()
	if !req.JSONMode {
		t.Error("structured flow should request JSON mode")
	}
	if req.Model != "test-model" {
		t.Errorf("model = %q", req.Model)
	}
	if len(req.ResponseSchema) != 2 {
		t.Errorf("response schema has %d fields", len(req.ResponseSchema))
	}
	if len(req.Messages) != 2 || req.Messages[0].Role != llm.RoleSystem {
		t.Fatalf("messages = %+v", req.Messages)
	}
	if !strings.HasPrefix(req.Messages[0].Content, "You are an agronomist.") {
		t.Errorf("system message = %q", req.Messages[0].Content)
	}
	if req.Messages[1].Content != "Question: When to sow millet?" {
		t.Errorf("user message = %q", req.Messages[1].Content)
	}
}

func TestRun_MissingOutputFieldIsCoercionError(t *testing.T) {
	p := llmtest.New(`{"tips":["mulch"]}`)
	r := NewRunner(p, "test-model")

	res, err := r.Run(context.Background(), adviceSpec(t), map[string]any{"question": "q"})
	if res != nil {
		t.Errorf("expected no result, got %+v", res)
	}
	if KindOf(err) != KindCoercion {
		t.Fatalf("expected coercion error, got %v", err)
	}
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatal("coercion error should wrap the output validation error")
	}
}

func TestRun_EmptyAndMalformedPayloads(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"empty", ""},
		{"whitespace", "   \n"},
		{"not json", "sure, here is advice"},
		{"array", `["advice"]`},
		{"null", "null"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRunner(llmtest.New(tt.content), "m")
			_, err := r.Run(context.Background(), adviceSpec(t), map[string]any{"question": "q"})
			if KindOf(err) != KindCoercion {
				t.Errorf("expected coercion error, got %v", err)
			}
		})
	}
}

func TestRun_UpstreamError(t *testing.T) {
	p := llmtest.Failing(errors.New("429 too many requests"))
	r := NewRunner(p, "m")

	_, err := r.Run(context.Background(), chatSpec(t), map[string]any{"prompt": "hi"})
	var up *UpstreamError
	if !errors.As(err, &up) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if up.Service != "mock" {
		t.Errorf("service = %q", up.Service)
	}
	if p.CallCount() != 1 {
		t.Errorf("provider called %d times, want exactly 1", p.CallCount())
	}
}

func TestRun_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := NewRunner(llmtest.New("hi"), "m")

	_, err := r.Run(ctx, chatSpec(t), map[string]any{"prompt": "hi"})
	if KindOf(err) != KindCanceled {
		t.Errorf("expected canceled, got %v", err)
	}
}

func TestRun_Idempotent(t *testing.T) {
	r := NewRunner(llmtest.New("Namaste! How can I help?"), "m")
	spec := chatSpec(t)
	in := map[string]any{"prompt": "hello"}

	first, err := r.Run(context.Background(), spec, in)
	if err != nil {
		t.Fatal(err)
	}
	second, err := r.Run(context.Background(), spec, in)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(first.Output, second.Output); diff != "" {
		t.Errorf("outputs differ (-first +second):\n%s", diff)
	}
	if first.Output["response"] != "Namaste! How can I help?" {
		t.Errorf("response = %v", first.Output["response"])
	}
}

func TestRun_UncompiledSpec(t *testing.T) {
	r := NewRunner(llmtest.New("x"), "m")
	_, err := r.Run(context.Background(), &Spec{Name: "raw"}, nil)
	if KindOf(err) != KindConfiguration {
		t.Errorf("expected configuration error, got %v", err)
	}
}

func TestRun_AudioFlow(t *testing.T) {
	spec := &Spec{
		Name:       "speak",
		Input:      schema.Schema{schema.String("text", "")},
		Output:     schema.Schema{schema.String("audio", "")},
		Template:   "{{text}}",
		Audio:      true,
		Modalities: []llm.Modality{llm.ModalityAudio},
		Voice:      "Algenib",
		Model:      "tts-model",
	}
	if err := spec.Compile(); err != nil {
		t.Fatal(err)
	}

	p := &llmtest.Provider{ProvName: "mock", Response: &llm.CompletionResponse{
		Audio: &llm.Media{MIMEType: "audio/L16;codec=pcm;rate=24000", Data: []byte{1, 2, 3, 4}},
	}}
	res, err := NewRunner(p, "text-model").Run(context.Background(), spec, map[string]any{"text": "hello"})
	if err != nil {
		t.Fatal(err)
	}
	if res.Audio == nil || len(res.Audio.Data) != 4 {
		t.Fatalf("audio = %+v", res.Audio)
	}
	req := p.LastCall()
	if req.Model != "tts-model" || req.Voice != "Algenib" || !req.WantsAudio() {
		t.Errorf("request = %+v", req)
	}

	p.Response = &llm.CompletionResponse{Content: "no audio here"}
	if _, err := NewRunner(p, "m").Run(context.Background(), spec, map[string]any{"text": "x"}); KindOf(err) != KindCoercion {
		t.Errorf("expected coercion error without audio, got %v", err)
	}
}

type adviceIn struct {
	Question string `json:"question"`
}

type adviceOut struct {
	Advice string   `json:"advice"`
	Tips   []string `json:"tips"`
}

func TestInvoke_Typed(t *testing.T) {
	r := NewRunner(llmtest.New(`{"advice":"irrigate","tips":["morning"]}`), "m")
	out, res, err := Invoke[adviceOut](context.Background(), r, adviceSpec(t), adviceIn{Question: "water?"})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(&adviceOut{Advice: "irrigate", Tips: []string{"morning"}}, out); diff != "" {
		t.Errorf("typed output (-want +got):\n%s", diff)
	}
	if res.Flow != "advice" {
		t.Errorf("flow = %q", res.Flow)
	}
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	for _, name := range []string{"b", "a"} {
		if err := reg.Register(&Spec{
			Name:     name,
			Input:    schema.Schema{schema.String("prompt", "")},
			Output:   schema.Schema{schema.String("response", "")},
			Template: "{{prompt}}",
		}); err != nil {
			t.Fatalf("Register(%s): %v", name, err)
		}
	}

	dup := &Spec{Name: "a", Output: schema.Schema{schema.String("r", "")}, Template: "x"}
	if KindOf(reg.Register(dup)) != KindConfiguration {
		t.Error("duplicate registration should be a configuration error")
	}

	malformed := &Spec{
		Name:     "c",
		Input:    schema.Schema{schema.String("crop", "")},
		Output:   schema.Schema{schema.String("response", "")},
		Template: "Advice for {{crop-name}}",
	}
	err := reg.Register(malformed)
	if KindOf(err) != KindConfiguration {
		t.Errorf("malformed placeholder should be a configuration error, got %v", err)
	}
	if _, getErr := reg.Get("c"); KindOf(getErr) != KindNotFound {
		t.Error("a spec that failed to compile must not be registered")
	}

	var names []string
	for _, s := range reg.List() {
		names = append(names, s.Name)
	}
	if diff := cmp.Diff([]string{"a", "b"}, names); diff != "" {
		t.Errorf("List (-want +got):\n%s", diff)
	}

	_, err = reg.Get("missing")
	if KindOf(err) != KindNotFound {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		err  error
		want ErrorKind
	}{
		{nil, ""},
		{&ConfigurationError{Component: "weather", Reason: "missing key"}, KindConfiguration},
		{&schema.ValidationError{Violations: []schema.Violation{{Field: "q"}}}, KindValidation},
		{&UpstreamError{Service: "google", Err: errors.New("boom")}, KindUpstream},
		{&CoercionError{Flow: "x", Reason: "empty"}, KindCoercion},
		{&NotFoundError{Name: "x"}, KindNotFound},
		{context.Canceled, KindCanceled},
		{errors.New("other"), KindInternal},
	}
	for _, tt := range tests {
		if got := KindOf(tt.err); got != tt.want {
			t.Errorf("KindOf(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
