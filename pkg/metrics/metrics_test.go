package metrics_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/binhbb2204/nocturne/pkg/metrics"
	"github.com/gin-gonic/gin"
)

func TestCountersAndReset(t *testing.T) {
	metrics.Reset()
	metrics.IncrementGatewayReads()
	metrics.IncrementGatewayReads()
	metrics.IncrementDemoFallbacks()
	metrics.SetActiveReaders(3)

	if got := metrics.GetGatewayReads(); got != 2 {
		t.Fatalf("expected 2 reads, got %d", got)
	}
	if got := metrics.GetDemoFallbacks(); got != 1 {
		t.Fatalf("expected 1 fallback, got %d", got)
	}
	if got := metrics.GetActiveReaders(); got != 3 {
		t.Fatalf("expected 3 readers, got %d", got)
	}

	metrics.Reset()
	if metrics.GetGatewayReads() != 0 || metrics.GetActiveReaders() != 0 {
		t.Fatal("expected counters to reset")
	}
}

func TestMetricsHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metrics.Reset()
	metrics.IncrementChaptersSaved()

	r := gin.New()
	r.GET("/metrics", metrics.NewHandler().Metrics)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var body map[string]int64
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["chapters_saved_total"] != 1 {
		t.Fatalf("expected chapters_saved_total=1, got %v", body)
	}
}
