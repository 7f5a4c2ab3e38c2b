package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/flightontime/flightontime/internal/encoding"
	"github.com/flightontime/flightontime/internal/lookup"
	"github.com/flightontime/flightontime/internal/models"
	"github.com/flightontime/flightontime/internal/predictor"
	"github.com/flightontime/flightontime/internal/storage"
)

type stubScorer struct {
	probability float64
	err         error
}

func (s *stubScorer) PredictProba(_ context.Context, rows [][]float64) ([]float64, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([]float64, len(rows))
	for i := range out {
		out[i] = s.probability
	}
	return out, nil
}

type stubNotifier struct {
	alerts chan string
}

func (n *stubNotifier) SendDelayAlert(flightKey string, _ *models.PredictionResult) error {
	n.alerts <- flightKey
	return nil
}

func testPredictor(s *stubScorer) *predictor.Predictor {
	encoders := encoding.NewSet(map[string][]string{
		encoding.FieldAirline:   {"9E", "AA", "DL"},
		encoding.FieldOrigin:    {"ATL", "JFK", "LAX"},
		encoding.FieldDest:      {"ATL", "JFK", "LAX"},
		encoding.FieldTimeOfDay: {"Afternoon", "Evening", "Morning", "Night"},
	})
	table := lookup.NewEmpty()
	importance := []models.FeatureWeight{
		{Feature: "origin_delay_rate", Importance: 0.22},
		{Feature: "carrier_delay_rate", Importance: 0.18},
		{Feature: "dephour", Importance: 0.12},
	}
	return predictor.New(table, encoders, importance, 0.409, 3, s)
}

func newTestServer(t *testing.T, s *stubScorer, notifier Notifier) (*Server, *storage.Storage) {
	t.Helper()

	store, err := storage.New(":memory:", 100)
	if err != nil {
		t.Fatalf("failed to open storage: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return New(testPredictor(s), store, notifier, 10), store
}

func queryBody(t *testing.T, mutate func(*models.FlightQuery)) *bytes.Buffer {
	t.Helper()
	q := models.FlightQuery{
		Airline:    "AA",
		Origin:     "JFK",
		Dest:       "LAX",
		Distance:   2475,
		DayOfWeek:  3,
		FlightDate: "2024-06-15",
		CRSDepTime: 830,
	}
	if mutate != nil {
		mutate(&q)
	}
	body, err := json.Marshal(q)
	if err != nil {
		t.Fatal(err)
	}
	return bytes.NewBuffer(body)
}

func TestHandlePredict(t *testing.T) {
	srv, store := newTestServer(t, &stubScorer{probability: 0.85}, nil)
	router := srv.Router()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/predict", queryBody(t, nil)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var resp predictResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Prediction != models.LabelDelayed {
		t.Errorf("prediction = %q, want %q", resp.Prediction, models.LabelDelayed)
	}
	if resp.Flight != "AA JFK-LAX 2024-06-15" {
		t.Errorf("flight key = %q", resp.Flight)
	}
	if len(resp.Recommendations) != 5 {
		t.Errorf("got %d recommendations, want 5", len(resp.Recommendations))
	}

	// The served prediction lands in the history.
	records, err := store.RecentPredictions(context.Background(), 10)
	if err != nil {
		t.Fatalf("failed to read history: %v", err)
	}
	if len(records) != 1 || records[0].FlightKey != "AA JFK-LAX 2024-06-15" {
		t.Errorf("unexpected history: %+v", records)
	}
}

func TestHandlePredictInvalidBody(t *testing.T) {
	srv, _ := newTestServer(t, &stubScorer{}, nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/predict", bytes.NewBufferString("{not json")))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandlePredictValidationFailure(t *testing.T) {
	srv, _ := newTestServer(t, &stubScorer{}, nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/predict",
		queryBody(t, func(q *models.FlightQuery) { q.DayOfWeek = 9 })))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400: %s", rec.Code, rec.Body.String())
	}
}

func TestHandlePredictScorerDown(t *testing.T) {
	srv, _ := newTestServer(t, &stubScorer{err: context.DeadlineExceeded}, nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/predict", queryBody(t, nil)))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestHandlePredictBrokenEncoders(t *testing.T) {
	// A deployed encoder artifact missing a required vocabulary is an
	// operational defect, not the caller's fault: the request is valid but
	// the service cannot construct features until the artifact is fixed.
	encoders := encoding.NewSet(map[string][]string{
		encoding.FieldAirline: {"9E", "AA", "DL"},
		encoding.FieldOrigin:  {"ATL", "JFK", "LAX"},
		encoding.FieldDest:    {"ATL", "JFK", "LAX"},
		// time_of_day vocabulary absent
	})
	importance := []models.FeatureWeight{{Feature: "dephour", Importance: 0.12}}
	p := predictor.New(lookup.NewEmpty(), encoders, importance, 0.409, 3, &stubScorer{probability: 0.5})
	srv := New(p, nil, nil, 10)

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/predict", queryBody(t, nil)))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503 for missing encoder vocabulary", rec.Code)
	}
}

func TestHandlePredictBatch(t *testing.T) {
	srv, _ := newTestServer(t, &stubScorer{probability: 0.2}, nil)

	var req batchRequest
	for i := 0; i < 3; i++ {
		q := models.FlightQuery{
			Airline: "DL", Origin: "ATL", Dest: "JFK",
			Distance: 760, DayOfWeek: i + 1, Month: 7, CRSDepTime: 1430,
		}
		req.Flights = append(req.Flights, q)
	}
	body, _ := json.Marshal(req)

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/predict/batch", bytes.NewBuffer(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var resp batchResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Count != 3 || len(resp.Predictions) != 3 {
		t.Fatalf("count = %d, predictions = %d, want 3", resp.Count, len(resp.Predictions))
	}
	for _, p := range resp.Predictions {
		if p.Prediction != models.LabelOnTime {
			t.Errorf("prediction = %q, want %q", p.Prediction, models.LabelOnTime)
		}
	}
}

func TestHandlePredictBatchEmpty(t *testing.T) {
	srv, _ := newTestServer(t, &stubScorer{}, nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/predict/batch",
		bytes.NewBufferString(`{"flights": []}`)))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for empty batch", rec.Code)
	}
}

func TestHandlePredictBatchOverLimit(t *testing.T) {
	srv, _ := newTestServer(t, &stubScorer{probability: 0.2}, nil)

	var req batchRequest
	for i := 0; i < 11; i++ {
		req.Flights = append(req.Flights, models.FlightQuery{
			Airline: "AA", Origin: "JFK", Dest: "LAX",
			Distance: 2475, DayOfWeek: 1, Month: 6, CRSDepTime: 830,
		})
	}
	body, _ := json.Marshal(req)

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/predict/batch", bytes.NewBuffer(body)))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for oversized batch", rec.Code)
	}
}

func TestHandleHistoryLimit(t *testing.T) {
	srv, store := newTestServer(t, &stubScorer{probability: 0.85}, nil)
	router := srv.Router()

	for i := 0; i < 4; i++ {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/predict", queryBody(t, nil)))
		if rec.Code != http.StatusOK {
			t.Fatalf("predict %d failed: %d", i, rec.Code)
		}
	}

	if n, err := store.Count(context.Background()); err != nil || n != 4 {
		t.Fatalf("count = %d (err %v), want 4", n, err)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/history?limit=2", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp struct {
		Count       int                       `json:"count"`
		Predictions []models.PredictionRecord `json:"predictions"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Count != 2 {
		t.Errorf("count = %d, want 2", resp.Count)
	}
}

func TestHandleHistoryBadLimit(t *testing.T) {
	srv, _ := newTestServer(t, &stubScorer{}, nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/history?limit=abc", nil))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandleHealth(t *testing.T) {
	srv, _ := newTestServer(t, &stubScorer{}, nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp struct {
		Status    string  `json:"status"`
		Threshold float64 `json:"threshold"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Status != "ok" {
		t.Errorf("status = %q, want ok", resp.Status)
	}
	if resp.Threshold != 0.409 {
		t.Errorf("threshold = %v, want 0.409", resp.Threshold)
	}
}

func TestDelayAlertFiresForHighConfidence(t *testing.T) {
	notifier := &stubNotifier{alerts: make(chan string, 1)}
	srv, _ := newTestServer(t, &stubScorer{probability: 0.85}, notifier)

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/predict", queryBody(t, nil)))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	select {
	case key := <-notifier.alerts:
		if key != "AA JFK-LAX 2024-06-15" {
			t.Errorf("alert key = %q", key)
		}
	case <-time.After(time.Second):
		t.Fatal("expected a delay alert")
	}
}

func TestDelayAlertSkippedForModerateConfidence(t *testing.T) {
	notifier := &stubNotifier{alerts: make(chan string, 1)}
	srv, _ := newTestServer(t, &stubScorer{probability: 0.55}, notifier)

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/predict", queryBody(t, nil)))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	select {
	case key := <-notifier.alerts:
		t.Errorf("unexpected alert for %q", key)
	case <-time.After(50 * time.Millisecond):
	}
}
