package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// TestHTTPMetrics_RequestsTotalRegistered verifies that after a request,
// the registry's Gather() output contains the taskpf_http_requests_total metric.
func TestHTTPMetrics_RequestsTotalRegistered(t *testing.T) {
	reg := prometheus.NewRegistry()

	r := gin.New()
	r.Use(HTTPMetricsMiddleware(reg))
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	families, err := reg.Gather()
	require.NoError(t, err)

	found := false
	for _, mf := range families {
		if mf.GetName() == "taskpf_http_requests_total" {
			found = true
			break
		}
	}
	assert.True(t, found, "Gather() must contain taskpf_http_requests_total after a request")
}

// TestHTTPMetrics_RouteLabel verifies that the route label uses the
// route template (c.FullPath()) rather than the actual request path.
// A route registered as /api/v1/orgs/:orgId/teams/:teamId should produce label
// "/api/v1/orgs/:orgId/teams/:teamId" even when the request path is
// "/api/v1/orgs/42/teams/team-abc".
func TestHTTPMetrics_RouteLabel(t *testing.T) {
	reg := prometheus.NewRegistry()

	r := gin.New()
	r.Use(HTTPMetricsMiddleware(reg))
	r.GET("/api/v1/orgs/:orgId/teams/:teamId", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orgs/42/teams/team-abc", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	families, err := reg.Gather()
	require.NoError(t, err)

	var routeLabel string
	for _, mf := range families {
		if mf.GetName() == "taskpf_http_requests_total" {
			for _, m := range mf.GetMetric() {
				for _, lp := range m.GetLabel() {
					if lp.GetName() == "route" {
						routeLabel = lp.GetValue()
					}
				}
			}
		}
	}

	assert.Equal(t, "/api/v1/orgs/:orgId/teams/:teamId", routeLabel,
		"route label must be the template, not the actual path /api/v1/orgs/42/teams/team-abc")
}

// TestHTTPMetrics_NilRegistry verifies that passing a nil registry does
// not panic and the middleware still forwards the request.
func TestHTTPMetrics_NilRegistry(t *testing.T) {
	assert.NotPanics(t, func() {
		mw := HTTPMetricsMiddleware(nil)

		r := gin.New()
		r.Use(mw)
		r.GET("/safe", func(c *gin.Context) {
			c.String(http.StatusOK, "safe")
		})

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/safe", nil)
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	}, "HTTPMetricsMiddleware(nil) must not panic")
}

// TestHTTPMetrics_SharedRegistry verifies that building the middleware twice
// on the same registry does not panic and that both engines feed the same
// counter. One process may assemble several gin engines against the
// singleton registry.
func TestHTTPMetrics_SharedRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()

	newEngine := func() *gin.Engine {
		r := gin.New()
		r.Use(HTTPMetricsMiddleware(reg))
		r.GET("/ping", func(c *gin.Context) {
			c.String(http.StatusOK, "pong")
		})
		return r
	}

	var first, second *gin.Engine
	require.NotPanics(t, func() {
		first = newEngine()
		second = newEngine()
	}, "second middleware on the same registry must reuse the collectors")

	for _, r := range []*gin.Engine{first, second} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}

	families, err := reg.Gather()
	require.NoError(t, err)

	var total float64
	for _, mf := range families {
		if mf.GetName() == "taskpf_http_requests_total" {
			for _, m := range mf.GetMetric() {
				total += m.GetCounter().GetValue()
			}
		}
	}
	assert.Equal(t, float64(2), total, "both engines must record into the shared counter")
}

// TestHTTPMetrics_DurationRegistered verifies that the histogram metric
// taskpf_http_request_duration_seconds is also present after a request.
func TestHTTPMetrics_DurationRegistered(t *testing.T) {
	reg := prometheus.NewRegistry()

	r := gin.New()
	r.Use(HTTPMetricsMiddleware(reg))
	r.GET("/duration", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/duration", nil)
	r.ServeHTTP(w, req)

	families, err := reg.Gather()
	require.NoError(t, err)

	found := false
	for _, mf := range families {
		if mf.GetName() == "taskpf_http_request_duration_seconds" {
			found = true
			break
		}
	}
	assert.True(t, found, "Gather() must contain taskpf_http_request_duration_seconds after a request")
}

// TestHTTPMetrics_UnknownRoute verifies that when a request does not match
// any registered route, the route label falls back to "unknown".
func TestHTTPMetrics_UnknownRoute(t *testing.T) {
	reg := prometheus.NewRegistry()

	r := gin.New()
	r.Use(HTTPMetricsMiddleware(reg))
	// No routes registered, so any request results in an empty FullPath().

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/does-not-exist", nil)
	r.ServeHTTP(w, req)

	families, err := reg.Gather()
	require.NoError(t, err)

	var routeLabel string
	for _, mf := range families {
		if mf.GetName() == "taskpf_http_requests_total" {
			for _, m := range mf.GetMetric() {
				for _, lp := range m.GetLabel() {
					if lp.GetName() == "route" {
						routeLabel = lp.GetValue()
					}
				}
			}
		}
	}

	assert.Equal(t, "unknown", routeLabel,
		"route label must be 'unknown' when no route matches")
}
