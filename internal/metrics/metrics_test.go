package metrics

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/matzehuels/linkgraph/pkg/observability"
)

func TestPipelineHooks(t *testing.T) {
	m := New()
	ctx := context.Background()

	m.OnIngestComplete(ctx, "vardb", 3, 12, time.Millisecond, nil)
	m.OnBuildComplete(ctx, 12, 40, time.Millisecond, nil)
	m.OnBuildComplete(ctx, 0, 0, time.Millisecond, errors.New("cancelled"))

	if got := testutil.ToFloat64(m.records); got != 12 {
		t.Errorf("snapshot_records = %v, want 12", got)
	}
	// A failed build leaves the last good values in place.
	if got := testutil.ToFloat64(m.edges); got != 40 {
		t.Errorf("graph_closed_edges = %v, want 40", got)
	}
	if got := testutil.ToFloat64(m.stageErrors.WithLabelValues("build")); got != 1 {
		t.Errorf("stage_errors_total{build} = %v, want 1", got)
	}
	if got := testutil.CollectAndCount(m.stageDuration); got != 2 {
		t.Errorf("stage_duration_seconds series = %d, want 2", got)
	}
}

func TestCacheHooks(t *testing.T) {
	m := New()
	ctx := context.Background()

	m.OnCacheMiss(ctx, "graph")
	m.OnCacheSet(ctx, "graph", 100)
	m.OnCacheHit(ctx, "graph")
	m.OnCacheHit(ctx, "graph")
	m.OnCacheError(ctx, "artifact", errors.New("down"))

	tests := []struct {
		keyType, result string
		want            float64
	}{
		{"graph", "hit", 2},
		{"graph", "miss", 1},
		{"graph", "set", 1},
		{"artifact", "error", 1},
	}
	for _, tt := range tests {
		if got := testutil.ToFloat64(m.cacheOps.WithLabelValues(tt.keyType, tt.result)); got != tt.want {
			t.Errorf("operations_total{%s,%s} = %v, want %v", tt.keyType, tt.result, got, tt.want)
		}
	}
	if got := testutil.ToFloat64(m.cacheBytes.WithLabelValues("graph")); got != 100 {
		t.Errorf("written_bytes_total{graph} = %v, want 100", got)
	}
}

func TestHandler(t *testing.T) {
	m := New()
	m.OnRequest(context.Background(), "GET", "/v1/{abi}/deps", 200, time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)

	want := `linkgraph_http_requests_total{method="GET",route="/v1/{abi}/deps",status="200"} 1`
	if !strings.Contains(string(body), want) {
		t.Errorf("Handler() output missing %q:\n%s", want, body)
	}
}

func TestRegister(t *testing.T) {
	defer observability.Reset()

	m := New()
	m.Register()
	if observability.Pipeline() != m || observability.Cache() != m || observability.HTTP() != m {
		t.Error("Register() should install m for every hook type")
	}
}
