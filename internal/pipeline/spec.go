// Package pipeline runs typed prompt flows: validate input, render the prompt,
// call the model once, and coerce the reply into the declared output shape.
package pipeline

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/ziadkadry99/krishi-mitra/internal/llm"
	"github.com/ziadkadry99/krishi-mitra/internal/prompt"
	"github.com/ziadkadry99/krishi-mitra/internal/schema"
)

// Spec is the static definition of one flow. It must not be modified after
// Compile or Register.
type Spec struct {
	Name        string
	Description string
	Input       schema.Schema
	Output      schema.Schema

	// System is sent as the system instruction.
	System string
	// Template is rendered with the validated input into the user message.
	Template string

	// Structured asks the model for JSON matching Output. Unstructured flows
	// must have exactly one string output field which receives the reply text.
	Structured bool
	// Audio flows return the model's audio payload instead of text.
	Audio      bool
	Modalities []llm.Modality
	Voice      string
	// Model overrides the runner's default model.
	Model string

	tmpl *prompt.Template
}

// Compile checks the spec and parses its template. A template naming an
// unknown field is a ConfigurationError.
func (s *Spec) Compile() error {
	if s.Name == "" {
		return &ConfigurationError{Component: "flow", Reason: "name is required"}
	}
	if s.Template == "" {
		return &ConfigurationError{Component: "flow " + s.Name, Reason: "template is required"}
	}
	if !s.Structured && !s.Audio {
		if len(s.Output) != 1 || s.Output[0].Kind != schema.KindString {
			return &ConfigurationError{Component: "flow " + s.Name, Reason: "unstructured output must be a single string field"}
		}
	}

	tmpl, err := prompt.Compile(s.Name, s.Template, s.Input)
	if err != nil {
		var ufe *prompt.UnknownFieldError
		if errors.As(err, &ufe) {
			return &ConfigurationError{Component: "flow " + s.Name, Reason: "bad template", Err: err}
		}
		return err
	}
	s.tmpl = tmpl
	return nil
}

// Compiled reports whether Compile has succeeded.
func (s *Spec) Compiled() bool { return s.tmpl != nil }

// Registry holds compiled specs by name.
type Registry struct {
	mu    sync.RWMutex
	specs map[string]*Spec
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{specs: make(map[string]*Spec)}
}

// Register compiles spec and adds it.
func (r *Registry) Register(spec *Spec) error {
	if err := spec.Compile(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.specs[spec.Name]; exists {
		return &ConfigurationError{Component: "registry", Reason: fmt.Sprintf("duplicate flow %q", spec.Name)}
	}
	r.specs[spec.Name] = spec
	return nil
}

// Get returns the spec with the given name.
func (r *Registry) Get(name string) (*Spec, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	spec, ok := r.specs[name]
	if !ok {
		return nil, &NotFoundError{Name: name}
	}
	return spec, nil
}

// List returns all specs sorted by name.
func (r *Registry) List() []*Spec {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Spec, 0, len(r.specs))
	for _, s := range r.specs {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
