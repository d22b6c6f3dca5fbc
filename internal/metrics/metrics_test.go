package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/fintrack/internal/models"
)

func TestProposalCounters(t *testing.T) {
	m := New()

	m.ProposalTransition(models.ProposalApproved, "ok")
	m.ProposalTransition(models.ProposalApproved, "ok")
	m.ProposalTransition(models.ProposalRejected, "forbidden")
	m.DebtsCreated(3)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.transitions.WithLabelValues("approved", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.transitions.WithLabelValues("rejected", "forbidden")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.debtsCreated))
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.ObserveRequest("POST", "/proposals/:id/approve", 200, 15*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	text := string(body)
	assert.True(t, strings.Contains(text, `fintrack_http_requests_total{method="POST",route="/proposals/:id/approve",status="200"} 1`), text)
	assert.Contains(t, text, "fintrack_http_request_duration_seconds_bucket")
	assert.Contains(t, text, "go_goroutines")
}
