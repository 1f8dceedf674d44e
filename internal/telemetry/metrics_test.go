package telemetry

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitIdempotent(t *testing.T) {
	Init()
	first := VerdictsTotal
	Init()
	assert.Same(t, first, VerdictsTotal)
}

func TestObserveVerdict(t *testing.T) {
	Init()

	checkedBefore := testutil.ToFloat64(VerdictsTotal.WithLabelValues("CHECKED"))
	deleteBefore := testutil.ToFloat64(VerdictsTotal.WithLabelValues("DELETE"))
	uniqueBefore := testutil.ToFloat64(UniqueChecks)

	ObserveVerdict("CHECKED", true)
	ObserveVerdict("CHECKED", false)
	ObserveVerdict("DELETE", false)

	assert.Equal(t, checkedBefore+2, testutil.ToFloat64(VerdictsTotal.WithLabelValues("CHECKED")))
	assert.Equal(t, deleteBefore+1, testutil.ToFloat64(VerdictsTotal.WithLabelValues("DELETE")))
	assert.Equal(t, uniqueBefore+1, testutil.ToFloat64(UniqueChecks))
}

func TestFailureCounters(t *testing.T) {
	Init()

	before := testutil.ToFloat64(DeleteFailures)
	IncDeleteFailures()
	assert.Equal(t, before+1, testutil.ToFloat64(DeleteFailures))

	before = testutil.ToFloat64(UnhandledCombinations)
	IncUnhandledCombinations()
	assert.Equal(t, before+1, testutil.ToFloat64(UnhandledCombinations))

	before = testutil.ToFloat64(TimezonesSet)
	IncTimezonesSet()
	assert.Equal(t, before+1, testutil.ToFloat64(TimezonesSet))
}

func TestTimeFunc(t *testing.T) {
	called := false
	d := TimeFunc(nil, func() {
		called = true
		time.Sleep(time.Millisecond)
	})
	assert.True(t, called)
	assert.GreaterOrEqual(t, d, time.Millisecond)
}

func TestHandlerExposesMetrics(t *testing.T) {
	Init()
	ObserveVerdict("PASS", false)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "quads_verdicts_total"))
	assert.True(t, strings.Contains(body, `verdict="PASS"`))
}

func TestHealthz(t *testing.T) {
	Init()

	tests := []struct {
		name   string
		health HealthFunc
		code   int
	}{
		{"no check", nil, http.StatusOK},
		{"healthy", func(context.Context) error { return nil }, http.StatusOK},
		{"database down", func(context.Context) error { return errors.New("connection refused") }, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			NewMux(tt.health).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
			assert.Equal(t, tt.code, rec.Code)
		})
	}
}
