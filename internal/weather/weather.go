// Package weather fetches current conditions and a daily forecast from the
// OpenWeatherMap 2.5 API.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ziadkadry99/krishi-mitra/internal/pipeline"
)

// DefaultBaseURL is the public OpenWeatherMap endpoint.
const DefaultBaseURL = "https://api.openweathermap.org/data/2.5"

// ForecastDays is the number of daily entries kept from the 5-day forecast.
const ForecastDays = 5

// Current is the present conditions at a location.
type Current struct {
	Temp        int     `json:"temp"`
	Description string  `json:"description"`
	Icon        string  `json:"icon"`
	Humidity    int     `json:"humidity"`
	Wind        float64 `json:"wind"`
}

// Day is one entry of the daily forecast.
type Day struct {
	Day         string `json:"day"`
	Temp        int    `json:"temp"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// Report bundles current conditions, the daily forecast and the place name.
type Report struct {
	LocationName string
	Current      Current
	Forecast     []Day
}

// Client talks to the weather API. The zero value is not usable; use New.
type Client struct {
	apiKey  string
	baseURL string
	units   string
	http    *http.Client
}

// New creates a client. An empty baseURL selects DefaultBaseURL and an empty
// units selects "metric".
func New(apiKey, baseURL, units string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if units == "" {
		units = "metric"
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		units:   units,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

type condition struct {
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

type currentResponse struct {
	Name string `json:"name"`
	Main struct {
		Temp     float64 `json:"temp"`
		Humidity float64 `json:"humidity"`
	} `json:"main"`
	Weather []condition `json:"weather"`
	Wind    struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
}

// Entry is one 3-hourly forecast sample.
type Entry struct {
	Dt     int64  `json:"dt"`
	DtText string `json:"dt_txt"`
	Main   struct {
		Temp float64 `json:"temp"`
	} `json:"main"`
	Weather []condition `json:"weather"`
}

type forecastResponse struct {
	List []Entry `json:"list"`
	City struct {
		Name string `json:"name"`
	} `json:"city"`
}

// Report fetches current conditions and the forecast concurrently.
func (c *Client) Report(ctx context.Context, lat, lon float64) (*Report, error) {
	if c.apiKey == "" {
		return nil, &pipeline.ConfigurationError{
			Component: "weather",
			Reason:    "OPENWEATHER_API_KEY is not set (or run `krishi auth set openweather`)",
		}
	}

	var cur currentResponse
	var fc forecastResponse
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return c.get(gctx, "weather", lat, lon, &cur) })
	g.Go(func() error { return c.get(gctx, "forecast", lat, lon, &fc) })
	if err := g.Wait(); err != nil {
		return nil, err
	}

	r := &Report{
		LocationName: cur.Name,
		Current: Current{
			Temp:     round(cur.Main.Temp),
			Humidity: round(cur.Main.Humidity),
			Wind:     cur.Wind.Speed,
		},
		Forecast: DailyMidday(fc.List, ForecastDays),
	}
	if r.LocationName == "" {
		r.LocationName = fc.City.Name
	}
	if len(cur.Weather) > 0 {
		r.Current.Description = cur.Weather[0].Description
		r.Current.Icon = cur.Weather[0].Icon
	}
	return r, nil
}

func (c *Client) get(ctx context.Context, endpoint string, lat, lon float64, out any) error {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("appid", c.apiKey)
	q.Set("units", c.units)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("creating %s request: %w", endpoint, err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &pipeline.UpstreamError{Service: "openweathermap", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &pipeline.UpstreamError{Service: "openweathermap", Err: fmt.Errorf("reading %s response: %w", endpoint, err)}
	}
	if resp.StatusCode != http.StatusOK {
		return &pipeline.UpstreamError{
			Service: "openweathermap",
			Err:     fmt.Errorf("%s returned status %d: %s", endpoint, resp.StatusCode, strings.TrimSpace(string(body))),
		}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &pipeline.UpstreamError{Service: "openweathermap", Err: fmt.Errorf("decoding %s response: %w", endpoint, err)}
	}
	return nil
}

// DailyMidday keeps the 12:00 sample of each calendar day, in chronological
// order, up to n days. Temperatures are rounded to the nearest degree.
func DailyMidday(list []Entry, n int) []Day {
	sorted := make([]Entry, len(list))
	copy(sorted, list)
	sort.SliceStable(sorted, func(i, j int) bool { return entryTime(sorted[i]).Before(entryTime(sorted[j])) })

	days := make([]Day, 0, n)
	seen := make(map[string]bool)
	for _, e := range sorted {
		if len(days) == n {
			break
		}
		t := entryTime(e)
		if t.Hour() != 12 || t.Minute() != 0 {
			continue
		}
		date := t.Format("2006-01-02")
		if seen[date] {
			continue
		}
		seen[date] = true

		d := Day{Day: t.Format("Mon"), Temp: round(e.Main.Temp)}
		if len(e.Weather) > 0 {
			d.Description = e.Weather[0].Description
			d.Icon = e.Weather[0].Icon
		}
		days = append(days, d)
	}
	return days
}

func entryTime(e Entry) time.Time {
	if e.DtText != "" {
		if t, err := time.Parse("2006-01-02 15:04:05", e.DtText); err == nil {
			return t
		}
	}
	return time.Unix(e.Dt, 0).UTC()
}

func round(f float64) int {
	return int(math.Round(f))
}
