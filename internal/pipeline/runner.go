package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"go.uber.org/zap"

	"github.com/ziadkadry99/krishi-mitra/internal/llm"
	"github.com/ziadkadry99/krishi-mitra/internal/schema"
)

// Usage is the token accounting of one flow run.
type Usage struct {
	Model        string  `json:"model"`
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
	CostUSD      float64 `json:"cost_usd"`
}

// Result is the typed output of one flow run.
type Result struct {
	Flow     string         `json:"flow"`
	Output   map[string]any `json:"output"`
	Audio    *llm.Media     `json:"-"`
	Usage    Usage          `json:"usage"`
	Duration time.Duration  `json:"-"`
}

// Runner executes specs against a provider. It holds no per-call state and is
// safe for concurrent use.
type Runner struct {
	provider    llm.Provider
	model       string
	temperature float64
	logger      *zap.Logger
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithTemperature sets the sampling temperature for every call.
func WithTemperature(t float64) RunnerOption {
	return func(r *Runner) { r.temperature = t }
}

// WithLogger sets the logger used for per-run records.
func WithLogger(l *zap.Logger) RunnerOption {
	return func(r *Runner) { r.logger = l }
}

// NewRunner creates a Runner using model unless a spec overrides it.
func NewRunner(provider llm.Provider, model string, opts ...RunnerOption) *Runner {
	r := &Runner{provider: provider, model: model, temperature: 0.7, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run validates input, renders the prompt, makes a single model call and
// coerces the reply. Validation failures return before the provider is called.
func (r *Runner) Run(ctx context.Context, spec *Spec, input map[string]any) (*Result, error) {
	start := time.Now()
	res, err := r.run(ctx, spec, input)

	fields := []zap.Field{
		zap.String("flow", spec.Name),
		zap.Duration("duration", time.Since(start)),
	}
	if err != nil {
		r.logger.Warn("flow failed", append(fields, zap.String("kind", string(KindOf(err))), zap.Error(err))...)
		return nil, err
	}
	res.Duration = time.Since(start)
	r.logger.Info("flow completed", append(fields,
		zap.String("model", res.Usage.Model),
		zap.Int("input_tokens", res.Usage.InputTokens),
		zap.Int("output_tokens", res.Usage.OutputTokens),
		zap.Float64("cost_usd", res.Usage.CostUSD),
	)...)
	return res, nil
}

func (r *Runner) run(ctx context.Context, spec *Spec, input map[string]any) (*Result, error) {
	if !spec.Compiled() {
		return nil, &ConfigurationError{Component: "flow " + spec.Name, Reason: "spec was not compiled"}
	}
	if r.provider == nil {
		return nil, &ConfigurationError{Component: "flow " + spec.Name, Reason: "no model provider configured"}
	}
	if input == nil {
		input = map[string]any{}
	}
	if err := schema.Validate(spec.Input, input); err != nil {
		return nil, err
	}

	rendered, err := spec.tmpl.Render(input)
	if err != nil {
		return nil, fmt.Errorf("rendering %s prompt: %w", spec.Name, err)
	}

	req := r.buildRequest(spec, rendered.Text)
	for _, m := range rendered.Media {
		req.Media = append(req.Media, llm.Media{MIMEType: m.MIMEType, Data: m.Data})
	}

	resp, err := r.provider.Complete(ctx, req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("flow %s: %w", spec.Name, ctxErr)
		}
		return nil, &UpstreamError{Service: r.provider.Name(), Err: err}
	}

	output, audio, err := Coerce(spec, resp)
	if err != nil {
		return nil, err
	}

	model := resp.Model
	if model == "" {
		model = req.Model
	}
	return &Result{
		Flow:   spec.Name,
		Output: output,
		Audio:  audio,
		Usage: Usage{
			Model:        model,
			InputTokens:  resp.InputTokens,
			OutputTokens: resp.OutputTokens,
			CostUSD:      llm.EstimateCost(model, resp.InputTokens, resp.OutputTokens),
		},
	}, nil
}

func (r *Runner) buildRequest(spec *Spec, text string) llm.CompletionRequest {
	model := spec.Model
	if model == "" {
		model = r.model
	}
	req := llm.CompletionRequest{
		Model:       model,
		Temperature: r.temperature,
		JSONMode:    spec.Structured,
		Modalities:  spec.Modalities,
		Voice:       spec.Voice,
	}

	system := spec.System
	if spec.Structured {
		req.ResponseSchema = spec.Output
		shape, _ := json.Marshal(schema.JSONSchema(spec.Output))
		system += "\n\nRespond only with a JSON object matching this JSON Schema:\n" + string(shape)
	}
	if system != "" {
		req.Messages = append(req.Messages, llm.Message{Role: llm.RoleSystem, Content: system})
	}
	req.Messages = append(req.Messages, llm.Message{Role: llm.RoleUser, Content: text})
	return req
}

// Invoke runs spec with a typed input and decodes the output into Out using
// the json tags of Out's fields.
func Invoke[Out any](ctx context.Context, r *Runner, spec *Spec, in any) (*Out, *Result, error) {
	input, err := ToMap(in)
	if err != nil {
		return nil, nil, err
	}
	res, err := r.Run(ctx, spec, input)
	if err != nil {
		return nil, nil, err
	}
	out := new(Out)
	if err := Decode(res.Output, out); err != nil {
		return nil, nil, &CoercionError{Flow: spec.Name, Reason: "decoding output", Err: err}
	}
	return out, res, nil
}

// ToMap converts a struct (or map) to the generic map form the validator uses.
func ToMap(in any) (map[string]any, error) {
	if in == nil {
		return map[string]any{}, nil
	}
	if m, ok := in.(map[string]any); ok {
		return m, nil
	}
	b, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("encoding flow input: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("flow input must be an object: %w", err)
	}
	if m == nil {
		m = map[string]any{}
	}
	return m, nil
}

// Decode copies a generic map into out, matching keys to json tags.
func Decode(in map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "json",
		Result:  out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(in)
}
