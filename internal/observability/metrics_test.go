package observability

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCollector(t *testing.T) {
	c := NewCollector("todo")

	c.RecordHTTPRequest("GET", "/todos", 200, 20*time.Millisecond)
	c.RecordHTTPRequest("GET", "/todos", 200, 10*time.Millisecond)
	c.RecordOperation("create", nil)
	c.RecordOperation("create", errors.New("boom"))
	c.RecordThumbnail(nil)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.HTTPRequests.WithLabelValues("GET", "/todos", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.TodoOperations.WithLabelValues("create", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.TodoOperations.WithLabelValues("create", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Thumbnails.WithLabelValues("ok")))

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "todo_http_requests_total")
}

func TestNewCollectorIsolated(t *testing.T) {
	// Separate registries, so building twice must not panic on duplicate registration.
	assert.NotPanics(t, func() {
		NewCollector("todo")
		NewCollector("todo")
	})
}

func TestInstrumentAWS(t *testing.T) {
	cfg := aws.Config{}
	InstrumentAWS(&cfg)
	assert.NotEmpty(t, cfg.APIOptions)
}
