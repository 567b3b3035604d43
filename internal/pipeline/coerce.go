package pipeline

import (
	"encoding/json"
	"strings"

	"github.com/ziadkadry99/krishi-mitra/internal/llm"
	"github.com/ziadkadry99/krishi-mitra/internal/schema"
)

// Coerce turns a raw model response into the spec's output. A missing or empty
// payload is always an error; nothing is defaulted.
func Coerce(spec *Spec, resp *llm.CompletionResponse) (map[string]any, *llm.Media, error) {
	if resp == nil {
		return nil, nil, &CoercionError{Flow: spec.Name, Reason: "no response from model"}
	}

	if spec.Audio {
		if resp.Audio == nil || len(resp.Audio.Data) == 0 {
			return nil, nil, &CoercionError{Flow: spec.Name, Reason: "no audio payload in response"}
		}
		return map[string]any{}, resp.Audio, nil
	}

	text := strings.TrimSpace(resp.Content)
	if text == "" {
		return nil, nil, &CoercionError{Flow: spec.Name, Reason: "empty payload (finish reason " + finishReason(resp) + ")"}
	}

	if !spec.Structured {
		return map[string]any{spec.Output[0].Name: text}, nil, nil
	}

	var out map[string]any
	if err := json.Unmarshal([]byte(stripFences(text)), &out); err != nil {
		return nil, nil, &CoercionError{Flow: spec.Name, Reason: "malformed JSON payload", Err: err}
	}
	if out == nil {
		return nil, nil, &CoercionError{Flow: spec.Name, Reason: "payload is not a JSON object"}
	}
	if err := schema.Validate(spec.Output, out); err != nil {
		return nil, nil, &CoercionError{Flow: spec.Name, Reason: "output does not match schema", Err: err}
	}
	return out, nil, nil
}

// stripFences removes a surrounding ```json ... ``` block that some models add
// even in JSON mode.
func stripFences(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func finishReason(resp *llm.CompletionResponse) string {
	if resp.FinishReason == "" {
		return "unknown"
	}
	return resp.FinishReason
}
