package flows

import "github.com/ziadkadry99/krishi-mitra/internal/weather"

type CropAdviceInput struct {
	Question string `json:"question"`
}

type CropAdviceOutput struct {
	Advice string `json:"advice"`
}

// DiseaseInput carries a crop photo as a data URI.
type DiseaseInput struct {
	PhotoDataURI string `json:"photoDataUri"`
}

// Solution is one remedy with application instructions.
type Solution struct {
	Name         string `json:"name"`
	Instructions string `json:"instructions"`
}

// Issue is one suspected disease or pest.
type Issue struct {
	Issue             string     `json:"issue"`
	Recommendation    string     `json:"recommendation"`
	OrganicSolutions  []Solution `json:"organic_solutions"`
	ChemicalSolutions []Solution `json:"chemical_solutions"`
}

type DiseaseOutput struct {
	PossibleIssues []Issue `json:"possibleIssues"`
}

type SpeechToTextInput struct {
	Audio string `json:"audio"`
}

type SpeechToTextOutput struct {
	Text string `json:"text"`
}

type TextToSpeechInput struct {
	Text string `json:"text"`
}

// TextToSpeechOutput holds a data:audio/wav;base64 URI.
type TextToSpeechOutput struct {
	Audio string `json:"audio"`
}

type VoiceQueryInput struct {
	VoiceQuery string `json:"voiceQuery"`
	Language   string `json:"language"`
}

type VoiceQueryOutput struct {
	Answer string `json:"answer"`
}

type WeatherInput struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// CurrentWeather is the present conditions plus a farming recommendation.
type CurrentWeather struct {
	Temp           int     `json:"temp"`
	Description    string  `json:"description"`
	Icon           string  `json:"icon"`
	Humidity       int     `json:"humidity"`
	Wind           float64 `json:"wind"`
	Recommendation string  `json:"recommendation"`
}

type WeatherData struct {
	Current  CurrentWeather `json:"current"`
	Forecast []weather.Day  `json:"forecast"`
}

type WeatherOutput struct {
	Weather      WeatherData `json:"weather"`
	LocationName string      `json:"locationName"`
}

type RecommendationInput struct {
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	Description string  `json:"description"`
	WindSpeed   float64 `json:"windSpeed"`
}

type RecommendationOutput struct {
	Recommendation string `json:"recommendation"`
}

// Price is one mandi price record. Prices are in rupees per quintal.
type Price struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Variety    string  `json:"variety"`
	Mandi      string  `json:"mandi"`
	MinPrice   float64 `json:"minPrice"`
	MaxPrice   float64 `json:"maxPrice"`
	ModalPrice float64 `json:"modalPrice"`
	Date       string  `json:"date"`
}

type MarketPricesOutput struct {
	Prices []Price `json:"prices"`
}

type ChatInput struct {
	Prompt string `json:"prompt"`
}

type ChatOutput struct {
	Response string `json:"response"`
}
