// Package flows defines Krishi Mitra's AI-backed operations on top of the
// pipeline runner.
package flows

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/ziadkadry99/krishi-mitra/internal/datauri"
	"github.com/ziadkadry99/krishi-mitra/internal/pipeline"
	"github.com/ziadkadry99/krishi-mitra/internal/schema"
	"github.com/ziadkadry99/krishi-mitra/internal/wav"
	"github.com/ziadkadry99/krishi-mitra/internal/weather"
)

// DefaultTTSModel and DefaultVoice select Gemini's speech model.
const (
	DefaultTTSModel = "gemini-2.5-flash-preview-tts"
	DefaultVoice    = "Algenib"
)

// WeatherSource provides weather reports. *weather.Client implements it.
type WeatherSource interface {
	Report(ctx context.Context, lat, lon float64) (*weather.Report, error)
}

// Options tunes the flows that need more than a prompt.
type Options struct {
	TTSModel string
	Voice    string
}

// Info describes a flow for listings and tool registration.
type Info struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Input       schema.Schema `json:"-"`
	InputSchema any           `json:"input_schema"`
}

var weatherInput = schema.Schema{
	schema.Number("lat", "latitude in degrees"),
	schema.Number("lon", "longitude in degrees"),
}

// Service runs flows by name or through typed methods. It keeps no state
// between calls.
type Service struct {
	runner   *pipeline.Runner
	registry *pipeline.Registry
	weather  WeatherSource
}

// NewService compiles every flow. A bad template fails here rather than on
// first use. weather may be nil, in which case the weather flow reports a
// configuration error.
func NewService(runner *pipeline.Runner, ws WeatherSource, opts Options) (*Service, error) {
	if opts.TTSModel == "" {
		opts.TTSModel = DefaultTTSModel
	}
	if opts.Voice == "" {
		opts.Voice = DefaultVoice
	}
	reg := pipeline.NewRegistry()
	for _, spec := range specs(opts) {
		if err := reg.Register(spec); err != nil {
			return nil, err
		}
	}
	return &Service{runner: runner, registry: reg, weather: ws}, nil
}

// Names returns every invocable flow name, sorted.
func (s *Service) Names() []string {
	infos := s.List()
	names := make([]string, len(infos))
	for i, info := range infos {
		names[i] = info.Name
	}
	return names
}

// List describes every invocable flow, sorted by name.
func (s *Service) List() []Info {
	out := []Info{weatherInfo()}
	for _, spec := range s.registry.List() {
		out = append(out, Info{
			Name:        spec.Name,
			Description: spec.Description,
			Input:       spec.Input,
			InputSchema: schema.JSONSchema(spec.Input),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func weatherInfo() Info {
	return Info{
		Name:        Weather,
		Description: "Current weather, a 5-day forecast and a farming recommendation for a location.",
		Input:       weatherInput,
		InputSchema: schema.JSONSchema(weatherInput),
	}
}

// Invoke runs the named flow with a generic JSON-shaped input.
func (s *Service) Invoke(ctx context.Context, name string, input map[string]any) (*pipeline.Result, error) {
	switch name {
	case Weather:
		return s.weatherFlow(ctx, input)
	case TextToSpeech:
		return s.textToSpeech(ctx, input)
	}
	spec, err := s.registry.Get(name)
	if err != nil {
		return nil, err
	}
	return s.runner.Run(ctx, spec, input)
}

func (s *Service) textToSpeech(ctx context.Context, input map[string]any) (*pipeline.Result, error) {
	spec, err := s.registry.Get(TextToSpeech)
	if err != nil {
		return nil, err
	}
	res, err := s.runner.Run(ctx, spec, input)
	if err != nil {
		return nil, err
	}

	data := res.Audio.Data
	mime := strings.ToLower(res.Audio.MIMEType)
	if !strings.HasPrefix(mime, "audio/wav") && !strings.HasPrefix(mime, "audio/x-wav") {
		data = wav.Encode(data, wav.ParseMIME(res.Audio.MIMEType))
	}
	res.Output = map[string]any{"audio": datauri.Encode("audio/wav", data)}
	return res, nil
}

func (s *Service) weatherFlow(ctx context.Context, input map[string]any) (*pipeline.Result, error) {
	start := time.Now()
	if input == nil {
		input = map[string]any{}
	}
	if err := schema.Validate(weatherInput, input); err != nil {
		return nil, err
	}
	var in WeatherInput
	if err := pipeline.Decode(input, &in); err != nil {
		return nil, err
	}
	if s.weather == nil {
		return nil, &pipeline.ConfigurationError{Component: "weather", Reason: "no weather client configured"}
	}

	report, err := s.weather.Report(ctx, in.Lat, in.Lon)
	if err != nil {
		return nil, err
	}

	recSpec, err := s.registry.Get(WeatherRecommendation)
	if err != nil {
		return nil, err
	}
	rec, res, err := pipeline.Invoke[RecommendationOutput](ctx, s.runner, recSpec, RecommendationInput{
		Temperature: float64(report.Current.Temp),
		Humidity:    float64(report.Current.Humidity),
		Description: report.Current.Description,
		WindSpeed:   report.Current.Wind,
	})
	if err != nil {
		return nil, err
	}

	forecast := report.Forecast
	if forecast == nil {
		forecast = []weather.Day{}
	}
	out := WeatherOutput{
		LocationName: report.LocationName,
		Weather: WeatherData{
			Current: CurrentWeather{
				Temp:           report.Current.Temp,
				Description:    report.Current.Description,
				Icon:           report.Current.Icon,
				Humidity:       report.Current.Humidity,
				Wind:           report.Current.Wind,
				Recommendation: rec.Recommendation,
			},
			Forecast: forecast,
		},
	}
	m, err := pipeline.ToMap(out)
	if err != nil {
		return nil, err
	}
	return &pipeline.Result{Flow: Weather, Output: m, Usage: res.Usage, Duration: time.Since(start)}, nil
}

// typed runs a flow through Invoke and decodes its output into Out.
func typed[Out any](ctx context.Context, s *Service, name string, in any) (*Out, error) {
	input, err := pipeline.ToMap(in)
	if err != nil {
		return nil, err
	}
	res, err := s.Invoke(ctx, name, input)
	if err != nil {
		return nil, err
	}
	out := new(Out)
	if err := pipeline.Decode(res.Output, out); err != nil {
		return nil, &pipeline.CoercionError{Flow: name, Reason: "decoding output", Err: err}
	}
	return out, nil
}

func (s *Service) CropAdvice(ctx context.Context, in CropAdviceInput) (*CropAdviceOutput, error) {
	return typed[CropAdviceOutput](ctx, s, CropAdvice, in)
}

func (s *Service) DiagnoseDisease(ctx context.Context, in DiseaseInput) (*DiseaseOutput, error) {
	return typed[DiseaseOutput](ctx, s, DiseaseID, in)
}

func (s *Service) SpeechToText(ctx context.Context, in SpeechToTextInput) (*SpeechToTextOutput, error) {
	return typed[SpeechToTextOutput](ctx, s, SpeechToText, in)
}

// TextToSpeech synthesizes in.Text and returns a WAV data URI.
func (s *Service) TextToSpeech(ctx context.Context, in TextToSpeechInput) (*TextToSpeechOutput, error) {
	return typed[TextToSpeechOutput](ctx, s, TextToSpeech, in)
}

func (s *Service) VoiceQuery(ctx context.Context, in VoiceQueryInput) (*VoiceQueryOutput, error) {
	return typed[VoiceQueryOutput](ctx, s, VoiceQuery, in)
}

// Weather fetches conditions for a location and adds a farming recommendation.
func (s *Service) Weather(ctx context.Context, in WeatherInput) (*WeatherOutput, error) {
	return typed[WeatherOutput](ctx, s, Weather, in)
}

// MarketPrices asks the model for at least MinMarketPrices price records.
func (s *Service) MarketPrices(ctx context.Context) (*MarketPricesOutput, error) {
	return typed[MarketPricesOutput](ctx, s, MarketPrices, nil)
}

func (s *Service) GeneralChat(ctx context.Context, in ChatInput) (*ChatOutput, error) {
	return typed[ChatOutput](ctx, s, GeneralChat, in)
}
