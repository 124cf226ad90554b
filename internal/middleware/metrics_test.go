package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"offlinetube-relay/internal/metrics"
)

func TestMetricsMiddleware_RecordsRequest(t *testing.T) {
	m := metrics.New()
	e := echo.New()
	e.Use(MetricsMiddleware(m))
	e.GET("/api/trending", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	req := httptest.NewRequest(http.MethodGet, "/api/trending", http.NoBody)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	families, err := m.Registry.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}

	found := false
	for _, fam := range families {
		if fam.GetName() != "offlinetube_relay_http_requests_total" {
			continue
		}
		for _, metric := range fam.GetMetric() {
			labels := map[string]string{}
			for _, lp := range metric.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			if labels["method"] == "GET" && labels["status_code"] == "200" && labels["path_prefix"] == "/api/trending" {
				found = true
				if v := metric.GetCounter().GetValue(); v != 1 {
					t.Errorf("requests_total = %v, want 1", v)
				}
			}
		}
	}
	if !found {
		t.Error("expected requests_total sample for GET 200 /api/trending")
	}
}

func TestMetricsMiddleware_ResolvesHTTPErrorStatus(t *testing.T) {
	m := metrics.New()
	e := echo.New()
	e.Use(MetricsMiddleware(m))
	e.GET("/api/trending", func(echo.Context) error {
		return echo.NewHTTPError(http.StatusServiceUnavailable)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/trending", http.NoBody)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}

	families, err := m.Registry.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}

	for _, fam := range families {
		if fam.GetName() != "offlinetube_relay_http_requests_total" {
			continue
		}
		for _, metric := range fam.GetMetric() {
			for _, lp := range metric.GetLabel() {
				if lp.GetName() == "status_code" && lp.GetValue() == "503" {
					return
				}
			}
		}
	}
	t.Error("expected requests_total sample labeled with status 503")
}
