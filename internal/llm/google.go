package llm

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/ziadkadry99/krishi-mitra/internal/schema"
)

// GoogleProvider implements Provider using the Gemini API through the
// google.golang.org/genai SDK.
type GoogleProvider struct {
	client *genai.Client
	model  string
}

// NewGoogleProvider creates a new Google Gemini provider. baseURL overrides the
// API endpoint and is empty in production.
func NewGoogleProvider(ctx context.Context, apiKey, model, baseURL string) (*GoogleProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GoogleProvider{client: client, model: model}, nil
}

func (p *GoogleProvider) Name() string {
	return "google"
}

func (p *GoogleProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}

	var systemParts []*genai.Part
	var contents []*genai.Content
	lastUser := -1

	for _, msg := range req.Messages {
		switch msg.Role {
		case RoleSystem:
			systemParts = append(systemParts, genai.NewPartFromText(msg.Content))
		case RoleUser:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleUser))
			lastUser = len(contents) - 1
		case RoleAssistant:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleModel))
		}
	}

	if lastUser < 0 {
		contents = append(contents, genai.NewContentFromParts(nil, genai.RoleUser))
		lastUser = len(contents) - 1
	}
	for _, m := range req.Media {
		contents[lastUser].Parts = append(contents[lastUser].Parts, genai.NewPartFromBytes(m.Data, m.MIMEType))
	}

	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(req.Temperature)),
	}
	if len(systemParts) > 0 {
		cfg.SystemInstruction = genai.NewContentFromParts(systemParts, genai.RoleUser)
	}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxTokens)
	}
	if req.JSONMode {
		cfg.ResponseMIMEType = "application/json"
		if len(req.ResponseSchema) > 0 {
			cfg.ResponseSchema = toGenAISchema(req.ResponseSchema)
		}
	}
	for _, m := range req.Modalities {
		cfg.ResponseModalities = append(cfg.ResponseModalities, string(m))
	}
	if req.Voice != "" {
		cfg.SpeechConfig = &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: req.Voice},
			},
		}
	}

	resp, err := p.client.Models.GenerateContent(ctx, model, contents, cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini request failed: %w", err)
	}

	out := &CompletionResponse{Model: model}
	if resp.UsageMetadata != nil {
		out.InputTokens = int(resp.UsageMetadata.PromptTokenCount)
		out.OutputTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}
	if len(resp.Candidates) == 0 {
		return out, nil
	}

	cand := resp.Candidates[0]
	out.FinishReason = string(cand.FinishReason)
	if cand.Content == nil {
		return out, nil
	}

	var text strings.Builder
	for _, part := range cand.Content.Parts {
		if part == nil {
			continue
		}
		if part.InlineData != nil && out.Audio == nil && strings.HasPrefix(part.InlineData.MIMEType, "audio/") {
			out.Audio = &Media{MIMEType: part.InlineData.MIMEType, Data: part.InlineData.Data}
			continue
		}
		if !part.Thought {
			text.WriteString(part.Text)
		}
	}
	out.Content = text.String()
	return out, nil
}

// toGenAISchema converts a top-level object schema to the Gemini schema type.
func toGenAISchema(s schema.Schema) *genai.Schema {
	return genAIObject(s, "")
}

func genAIObject(fields []schema.Field, description string) *genai.Schema {
	out := &genai.Schema{
		Type:        genai.TypeObject,
		Description: description,
		Properties:  make(map[string]*genai.Schema, len(fields)),
	}
	for _, f := range fields {
		out.Properties[f.Name] = genAIField(f)
		out.PropertyOrdering = append(out.PropertyOrdering, f.Name)
		if !f.Optional {
			out.Required = append(out.Required, f.Name)
		}
	}
	return out
}

func genAIField(f schema.Field) *genai.Schema {
	switch f.Kind {
	case schema.KindObject:
		return genAIObject(f.Fields, f.Description)
	case schema.KindArray:
		s := &genai.Schema{Type: genai.TypeArray, Description: f.Description}
		if f.Items != nil {
			s.Items = genAIField(*f.Items)
		}
		if f.MinItems > 0 {
			s.MinItems = genai.Ptr(int64(f.MinItems))
		}
		return s
	case schema.KindEnum:
		return &genai.Schema{Type: genai.TypeString, Format: "enum", Enum: f.Enum, Description: f.Description}
	case schema.KindNumber:
		return &genai.Schema{Type: genai.TypeNumber, Description: f.Description}
	case schema.KindInteger:
		return &genai.Schema{Type: genai.TypeInteger, Description: f.Description}
	case schema.KindBoolean:
		return &genai.Schema{Type: genai.TypeBoolean, Description: f.Description}
	default:
		return &genai.Schema{Type: genai.TypeString, Description: f.Description}
	}
}
