package flows

import (
	"github.com/ziadkadry99/krishi-mitra/internal/llm"
	"github.com/ziadkadry99/krishi-mitra/internal/pipeline"
	"github.com/ziadkadry99/krishi-mitra/internal/schema"
)

// Flow names.
const (
	CropAdvice            = "crop-advice"
	DiseaseID             = "disease-id"
	SpeechToText          = "speech-to-text"
	TextToSpeech          = "text-to-speech"
	VoiceQuery            = "voice-query"
	Weather               = "weather"
	WeatherRecommendation = "weather-recommendation"
	MarketPrices          = "market-prices"
	GeneralChat           = "general-chat"
)

// MinMarketPrices is the least number of price records a market-prices reply
// may contain.
const MinMarketPrices = 100

const advisorPersona = `You are Krishi Mitra, an agricultural advisor for small and marginal farmers in India. ` +
	`Give practical advice that works with locally available inputs and budgets. Prefer simple language.`

var solutionFields = []schema.Field{
	schema.String("name", "product or preparation name"),
	schema.String("instructions", "dose, timing and how to apply"),
}

func specs(opts Options) []*pipeline.Spec {
	return []*pipeline.Spec{
		{
			Name:        CropAdvice,
			Description: "Answer a farmer's crop question with practical advice.",
			Input:       schema.Schema{schema.String("question", "the farmer's question")},
			Output:      schema.Schema{schema.String("advice", "the answer, a few short paragraphs")},
			System:      advisorPersona,
			Template:    "A farmer asks: {{question}}\n\nGive clear, actionable advice.",
			Structured:  true,
		},
		{
			Name:        DiseaseID,
			Description: "Identify diseases or pests in a crop photo and suggest organic and chemical remedies.",
			Input:       schema.Schema{schema.Media("photoDataUri", "photo of the affected plant as a data URI")},
			Output: schema.Schema{
				schema.ObjectList("possibleIssues", "suspected problems, most likely first",
					schema.String("issue", "disease or pest name"),
					schema.String("recommendation", "what to do first"),
					schema.ObjectList("organic_solutions", "organic remedies", solutionFields...),
					schema.ObjectList("chemical_solutions", "chemical remedies", solutionFields...),
				),
			},
			System: advisorPersona + ` You are also a plant pathologist. If the plant looks healthy, return an empty possibleIssues list.`,
			Template: "Examine the attached photo of a crop. List the diseases, pests or deficiencies that could explain what you see. " +
				"For each one give a first recommendation plus organic and chemical solutions with instructions.",
			Structured: true,
		},
		{
			Name:        SpeechToText,
			Description: "Transcribe spoken audio to text.",
			Input:       schema.Schema{schema.Media("audio", "recorded speech as a data URI")},
			Output:      schema.Schema{schema.String("text", "the transcript")},
			Template:    "Transcribe the attached audio exactly as spoken. Reply with the transcript only.",
		},
		{
			Name:        TextToSpeech,
			Description: "Read text aloud; returns a WAV data URI.",
			Input:       schema.Schema{schema.String("text", "text to speak")},
			Output:      schema.Schema{schema.String("audio", "data:audio/wav;base64 URI")},
			Template:    "{{text}}",
			Audio:       true,
			Modalities:  []llm.Modality{llm.ModalityAudio},
			Voice:       opts.Voice,
			Model:       opts.TTSModel,
		},
		{
			Name:        VoiceQuery,
			Description: "Answer a farming question asked by voice, in the requested language.",
			Input: schema.Schema{
				schema.Media("voiceQuery", "recorded question as a data URI"),
				schema.String("language", "language to answer in, e.g. Hindi"),
			},
			Output:   schema.Schema{schema.String("answer", "the answer")},
			System:   advisorPersona,
			Template: "The attached audio is a farmer's question. Answer it in {{language}}. Reply with the answer only.",
		},
		{
			Name:        WeatherRecommendation,
			Description: "Suggest farm work suited to the current weather.",
			Input: schema.Schema{
				schema.Number("temperature", "degrees Celsius"),
				schema.Number("humidity", "percent"),
				schema.String("description", "conditions, e.g. light rain"),
				schema.Number("windSpeed", "metres per second"),
			},
			Output: schema.Schema{schema.String("recommendation", "one or two sentences")},
			System: advisorPersona,
			Template: "Current weather: {{temperature}}°C, humidity {{humidity}}%, {{description}}, wind {{windSpeed}} m/s. " +
				"In one or two sentences, tell a farmer what field work to do or avoid today.",
		},
		{
			Name:        MarketPrices,
			Description: "Generate sample mandi prices for common commodities.",
			Output: schema.Schema{
				schema.ObjectList("prices", "price records",
					schema.String("id", "unique record id"),
					schema.String("name", "commodity"),
					schema.String("variety", "variety or grade"),
					schema.String("mandi", "market name and state"),
					schema.Number("minPrice", "rupees per quintal"),
					schema.Number("maxPrice", "rupees per quintal"),
					schema.Number("modalPrice", "most common price, rupees per quintal"),
					schema.String("date", "YYYY-MM-DD"),
				).Min(MinMarketPrices),
			},
			Template: "Generate at least 100 realistic price records from Indian agricultural markets (mandis) for today. " +
				"Cover cereals, pulses, oilseeds, vegetables, fruits and spices across many states. " +
				"Use string ids and keep minPrice <= modalPrice <= maxPrice.",
			Structured: true,
		},
		{
			Name:        GeneralChat,
			Description: "Open-ended chat; the prompt is sent as is.",
			Input:       schema.Schema{schema.String("prompt", "the user message")},
			Output:      schema.Schema{schema.String("response", "the reply")},
			Template:    "{{prompt}}",
		},
	}
}
