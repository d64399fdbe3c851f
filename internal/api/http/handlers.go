package apihttp

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	analytics "aqsensor-cloud/internal/analytics/application"
	masterdata "aqsensor-cloud/internal/masterdata/domain"
	monitoring "aqsensor-cloud/internal/monitoring/domain"
	"aqsensor-cloud/internal/period"
)

const dateLayout = "2006-01-02"

// UptimeQuery computes the uptime report of a country.
type UptimeQuery interface {
	RunCountry(ctx context.Context, country string, p period.Period) (analytics.CountryReport, error)
}

// OffTwiceQuery lists sensors off in two consecutive sessions.
type OffTwiceQuery interface {
	OffTwice(ctx context.Context, country string, date time.Time) ([]string, error)
}

// UptimeHandler serves country uptime queries.
type UptimeHandler struct {
	query UptimeQuery
	now   func() time.Time
}

// NewUptimeHandler constructs an UptimeHandler.
func NewUptimeHandler(query UptimeQuery) *UptimeHandler {
	return &UptimeHandler{query: query, now: time.Now}
}

// ServeHTTP handles GET /api/v1/uptime/{country}.
func (h *UptimeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.query == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}

	country, err := countryParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	p := period.ForDate(h.now())
	if label := r.URL.Query().Get("period"); label != "" {
		p, err = period.Parse(label)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	report, err := h.query.RunCountry(r.Context(), country, p)
	if errors.Is(err, analytics.ErrNoCountryData) {
		http.Error(w, "no sensor data for country", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "uptime query error", http.StatusInternalServerError)
		return
	}

	if r.URL.Query().Get("format") == "csv" {
		writeUptimeCSV(w, report)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(toUptimeResponse(report))
}

// OffTwiceHandler serves monitoring queries.
type OffTwiceHandler struct {
	query OffTwiceQuery
	now   func() time.Time
}

// NewOffTwiceHandler constructs an OffTwiceHandler.
func NewOffTwiceHandler(query OffTwiceQuery) *OffTwiceHandler {
	return &OffTwiceHandler{query: query, now: time.Now}
}

// ServeHTTP handles GET /api/v1/status/{country}/off-twice.
func (h *OffTwiceHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.query == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}

	country, err := countryParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	date := monitoring.SessionDate(h.now())
	if value := r.URL.Query().Get("date"); value != "" {
		date, err = time.Parse(dateLayout, value)
		if err != nil {
			http.Error(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}
	}

	sensors, err := h.query.OffTwice(r.Context(), country, date)
	if err != nil {
		http.Error(w, "status query error", http.StatusInternalServerError)
		return
	}
	if sensors == nil {
		sensors = []string{}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(offTwiceResponse{
		Country: country,
		Date:    date.Format(dateLayout),
		Sensors: sensors,
	})
}

type sensorUptimeRow struct {
	SensorID string `json:"sensor_id"`
	Type     string `json:"sensor_type"`
	Percent  int    `json:"uptime_percent"`
}

type dailyTableRow struct {
	Date   string         `json:"date"`
	Values map[string]int `json:"values"`
}

type uptimeResponse struct {
	Country  string                     `json:"country"`
	Period   string                     `json:"period"`
	Uptimes  []sensorUptimeRow          `json:"uptimes"`
	Daily    map[string][]dailyTableRow `json:"daily"`
	NoData   []string                   `json:"no_data"`
	Failures []string                   `json:"failures"`
}

type offTwiceResponse struct {
	Country string   `json:"country"`
	Date    string   `json:"date"`
	Sensors []string `json:"sensors"`
}

func toUptimeResponse(report analytics.CountryReport) uptimeResponse {
	resp := uptimeResponse{
		Country:  report.Country,
		Period:   report.Period.Label(),
		Uptimes:  make([]sensorUptimeRow, 0, len(report.Uptimes)),
		Daily:    make(map[string][]dailyTableRow, len(report.Daily)),
		NoData:   append([]string{}, report.NoData...),
		Failures: make([]string, 0, len(report.Failures)),
	}
	for _, u := range report.Uptimes {
		resp.Uptimes = append(resp.Uptimes, sensorUptimeRow{SensorID: u.SensorID, Type: string(u.Type), Percent: u.Percent})
	}
	for sensorType, table := range report.Daily {
		rows := make([]dailyTableRow, 0, len(table.Dates))
		for _, date := range table.Dates {
			values := make(map[string]int, len(table.Sensors))
			for _, sensor := range table.Sensors {
				values[sensor] = table.Value(date, sensor)
			}
			rows = append(rows, dailyTableRow{Date: date.Format(dateLayout), Values: values})
		}
		resp.Daily[string(sensorType)] = rows
	}
	for _, failure := range report.Failures {
		resp.Failures = append(resp.Failures, failure.SensorID)
	}
	return resp
}

func writeUptimeCSV(w http.ResponseWriter, report analytics.CountryReport) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	writer := csv.NewWriter(w)
	_ = writer.Write([]string{"sensor_id", "sensor_type", "uptime_percent"})
	for _, u := range report.Uptimes {
		_ = writer.Write([]string{u.SensorID, string(u.Type), strconv.Itoa(u.Percent)})
	}
	writer.Flush()
}

func countryParam(r *http.Request) (string, error) {
	country := strings.ToUpper(chi.URLParam(r, "country"))
	if country == "" {
		return "", errors.New("country is required")
	}
	if !masterdata.KnownCountry(country) {
		return "", errors.New("unknown country")
	}
	return country, nil
}
