package weather

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ziadkadry99/krishi-mitra/internal/pipeline"
)

// forecastJSON builds a forecast body with 3-hourly samples over six days
// starting Monday 2024-06-03. The midday sample of day i has temp 30.4+i.
func forecastJSON() string {
	var items []string
	for day := 0; day < 6; day++ {
		for hour := 0; hour < 24; hour += 3 {
			temp := 25.0
			if hour == 12 {
				temp = 30.4 + float64(day)
			}
			items = append(items, fmt.Sprintf(
				`{"dt":0,"dt_txt":"2024-06-%02d %02d:00:00","main":{"temp":%.2f},"weather":[{"description":"clear sky","icon":"01d"}]}`,
				3+day, hour, temp))
		}
	}
	return `{"list":[` + strings.Join(items, ",") + `],"city":{"name":"Pune"}}`
}

const currentJSON = `{"name":"Pune","main":{"temp":31.6,"humidity":48},"weather":[{"description":"haze","icon":"50d"}],"wind":{"speed":3.6}}`

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("appid") != "test-key" {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"cod":401,"message":"Invalid API key"}`)
			return
		}
		if r.URL.Query().Get("units") != "metric" {
			t.Errorf("units = %q", r.URL.Query().Get("units"))
		}
		switch r.URL.Path {
		case "/weather":
			fmt.Fprint(w, currentJSON)
		case "/forecast":
			fmt.Fprint(w, forecastJSON())
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestReport(t *testing.T) {
	srv := newServer(t)
	c := New("test-key", srv.URL, "")

	r, err := c.Report(context.Background(), 18.52, 73.85)
	if err != nil {
		t.Fatalf("Report: %v", err)
	}

	wantCurrent := Current{Temp: 32, Description: "haze", Icon: "50d", Humidity: 48, Wind: 3.6}
	if diff := cmp.Diff(wantCurrent, r.Current); diff != "" {
		t.Errorf("current (-want +got):\n%s", diff)
	}
	if r.LocationName != "Pune" {
		t.Errorf("location = %q", r.LocationName)
	}

	want := []Day{
		{Day: "Mon", Temp: 30, Description: "clear sky", Icon: "01d"},
		{Day: "Tue", Temp: 31, Description: "clear sky", Icon: "01d"},
		{Day: "Wed", Temp: 32, Description: "clear sky", Icon: "01d"},
		{Day: "Thu", Temp: 33, Description: "clear sky", Icon: "01d"},
		{Day: "Fri", Temp: 34, Description: "clear sky", Icon: "01d"},
	}
	if diff := cmp.Diff(want, r.Forecast); diff != "" {
		t.Errorf("forecast (-want +got):\n%s", diff)
	}
}

func TestReport_MissingKey(t *testing.T) {
	_, err := New("", "", "").Report(context.Background(), 0, 0)
	if pipeline.KindOf(err) != pipeline.KindConfiguration {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestReport_BadKeyIsUpstream(t *testing.T) {
	srv := newServer(t)
	_, err := New("wrong", srv.URL, "metric").Report(context.Background(), 1, 2)
	if pipeline.KindOf(err) != pipeline.KindUpstream {
		t.Fatalf("expected upstream error, got %v", err)
	}
	if !strings.Contains(err.Error(), "401") {
		t.Errorf("error should carry the status: %v", err)
	}
}

func TestDailyMidday_OrderAndDedup(t *testing.T) {
	list := []Entry{
		{DtText: "2024-06-05 12:00:00"},
		{DtText: "2024-06-04 09:00:00"},
		{DtText: "2024-06-04 12:00:00"},
		{DtText: "2024-06-04 12:00:00"},
	}
	list[0].Main.Temp = 19.5
	list[2].Main.Temp = -0.4

	got := DailyMidday(list, 5)
	want := []Day{{Day: "Tue", Temp: 0}, {Day: "Wed", Temp: 20}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestDailyMidday_UnixFallback(t *testing.T) {
	// 2024-06-03 12:00:00 UTC
	got := DailyMidday([]Entry{{Dt: 1717416000}}, 5)
	if len(got) != 1 || got[0].Day != "Mon" {
		t.Errorf("got %+v", got)
	}
}
