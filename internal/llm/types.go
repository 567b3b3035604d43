package llm

import "github.com/ziadkadry99/krishi-mitra/internal/schema"

// Role represents the role of a message sender in a conversation.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Modality is an output modality a model can be asked to produce.
type Modality string

const (
	ModalityText  Modality = "TEXT"
	ModalityAudio Modality = "AUDIO"
)

// Message represents a single message in a conversation.
type Message struct {
	Role    Role
	Content string
}

// Media is binary content sent alongside (or returned instead of) text.
type Media struct {
	MIMEType string
	Data     []byte
}

// CompletionRequest contains the parameters for an LLM completion request.
type CompletionRequest struct {
	Model    string
	Messages []Message

	// Media is attached to the last user message.
	Media       []Media
	MaxTokens   int
	Temperature float64
	JSONMode    bool

	// ResponseSchema constrains structured output when JSONMode is set.
	ResponseSchema schema.Schema
	Modalities     []Modality

	// Voice selects a prebuilt voice for audio output.
	Voice string
}

// WantsAudio reports whether audio output was requested.
func (r CompletionRequest) WantsAudio() bool {
	for _, m := range r.Modalities {
		if m == ModalityAudio {
			return true
		}
	}
	return false
}

// CompletionResponse contains the result of an LLM completion request.
type CompletionResponse struct {
	Content      string
	Audio        *Media
	InputTokens  int
	OutputTokens int
	Model        string
	FinishReason string
}
