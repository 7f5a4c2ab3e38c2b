package scorer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestPredictProba(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/predict_proba" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method %s", r.Method)
		}

		var req struct {
			Instances [][]float64 `json:"instances"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if len(req.Instances) != 2 || len(req.Instances[0]) != 13 {
			t.Errorf("unexpected instances shape: %d x %d", len(req.Instances), len(req.Instances[0]))
		}

		json.NewEncoder(w).Encode(map[string][]float64{"probabilities": {0.85, 0.12}})
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second, 3, 10*time.Millisecond)
	row := make([]float64, 13)
	probas, err := client.PredictProba(context.Background(), [][]float64{row, row})
	if err != nil {
		t.Fatalf("PredictProba failed: %v", err)
	}
	if len(probas) != 2 || probas[0] != 0.85 || probas[1] != 0.12 {
		t.Errorf("unexpected probabilities: %v", probas)
	}
}

func TestPredictProbaRetriesServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(map[string][]float64{"probabilities": {0.5}})
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second, 3, time.Millisecond)
	probas, err := client.PredictProba(context.Background(), [][]float64{{1, 2, 3}})
	if err != nil {
		t.Fatalf("PredictProba failed after retries: %v", err)
	}
	if probas[0] != 0.5 {
		t.Errorf("unexpected probability: %v", probas)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("server called %d times, want 3", got)
	}
}

func TestPredictProbaDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second, 3, time.Millisecond)
	_, err := client.PredictProba(context.Background(), [][]float64{{1}})
	if err == nil {
		t.Fatal("expected error for 400 response")
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("server called %d times, want 1 (no retry on 4xx)", got)
	}
}

func TestPredictProbaLengthMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string][]float64{"probabilities": {0.5}})
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second, 1, time.Millisecond)
	_, err := client.PredictProba(context.Background(), [][]float64{{1}, {2}})
	if err == nil {
		t.Fatal("expected error when response length does not match request")
	}
}

func TestPredictProbaRejectsOutOfRange(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string][]float64{"probabilities": {1.7}})
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second, 1, time.Millisecond)
	_, err := client.PredictProba(context.Background(), [][]float64{{1}})
	if err == nil {
		t.Fatal("expected error for probability outside [0,1]")
	}
}

func TestPredictProbaEmptyBatch(t *testing.T) {
	client := NewClient("http://localhost:0", time.Second, 1, time.Millisecond)
	probas, err := client.PredictProba(context.Background(), nil)
	if err != nil {
		t.Fatalf("empty batch must not call the service: %v", err)
	}
	if len(probas) != 0 {
		t.Errorf("expected empty result, got %v", probas)
	}
}
