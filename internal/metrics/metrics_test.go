package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCollector(t *testing.T) {
	loaded := time.Now().Add(-time.Minute)
	c := NewCollector(func() time.Time { return loaded })

	c.ObserveQuery(OutcomeFound)
	c.ObserveQuery(OutcomeFound)
	c.ObserveQuery(OutcomeNoRoute)
	c.ObserveSearch(5 * time.Millisecond)
	c.CacheHits.Inc()
	c.CacheMisses.Inc()
	c.ObserveReload(3)

	if got := testutil.ToFloat64(c.Queries.WithLabelValues(OutcomeFound)); got != 2 {
		t.Errorf("Expected 2 found queries, got %v", got)
	}
	if got := testutil.ToFloat64(c.Queries.WithLabelValues(OutcomeNoRoute)); got != 1 {
		t.Errorf("Expected 1 no_route query, got %v", got)
	}
	if got := testutil.ToFloat64(c.CacheMisses); got != 1 {
		t.Errorf("Expected 1 cache miss, got %v", got)
	}
	if got := testutil.CollectAndCount(c.SearchDuration); got != 1 {
		t.Errorf("Expected one search duration series, got %d", got)
	}
	if got := testutil.ToFloat64(c.Networks); got != 3 {
		t.Errorf("Expected 3 networks, got %v", got)
	}
	if got := testutil.ToFloat64(c.LastReloadAge); got < 59 {
		t.Errorf("Expected reload age of about a minute, got %v", got)
	}
}

func TestHandler(t *testing.T) {
	c := NewCollector(nil)
	c.ObserveQuery(OutcomeBadRequest)

	srv := httptest.NewServer(c.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `railroute_queries_total{outcome="bad_request"} 1`) {
		t.Errorf("Expected query counter in exposition, got:\n%s", body)
	}
	if !strings.Contains(string(body), "railroute_last_reload_age_seconds 0") {
		t.Errorf("Expected zero reload age without a reload source, got:\n%s", body)
	}
}
