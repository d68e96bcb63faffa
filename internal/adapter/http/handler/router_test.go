package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"payflow/internal/adapter/client"
	"payflow/internal/core/ports/mocks"
	"payflow/internal/metrics"
	"payflow/pkg/apperror"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestSetupRouter_HealthRoute(t *testing.T) {
	r := SetupRouter(RouterDeps{Logger: zerolog.Nop()})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}

func TestSetupRouter_CorrelationIDEchoed(t *testing.T) {
	r := SetupRouter(RouterDeps{Logger: zerolog.Nop()})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Correlation-ID", "corr-99")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "corr-99", w.Header().Get("X-Correlation-ID"))
}

func TestSetupRouter_MetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	r := SetupRouter(RouterDeps{
		Metrics:  m,
		Gatherer: reg,
		Logger:   zerolog.Nop(),
	})

	// Generate one observation so the histogram series exists.
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_request_duration_seconds")
}

func TestSetupRouter_MetricsDisabledWithoutGatherer(t *testing.T) {
	r := SetupRouter(RouterDeps{Logger: zerolog.Nop()})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

// The wallet endpoint and the processor-side client speak the same wire
// format; this exercises both ends over a real HTTP server.
func TestSetupRouter_WalletClientRoundTrip(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockLedger := mocks.NewMockLedgerService(ctrl)
	mockLedger.EXPECT().Transfer(gomock.Any(), "acc_1", "acc_2", decimal.NewFromInt(100)).
		Return(apperror.ErrInsufficientFunds())

	r := SetupRouter(RouterDeps{LedgerSvc: mockLedger, Logger: zerolog.Nop()})
	srv := httptest.NewServer(r)
	defer srv.Close()

	wc := client.NewWalletClient(srv.URL, time.Second, zerolog.Nop())
	err := wc.Transfer(t.Context(), "acc_1", "acc_2", decimal.NewFromInt(100))

	require.Error(t, err)
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "TRF_001", appErr.Code)
	assert.False(t, appErr.Transient)
}

func TestSetupRouter_WalletClientRoundTripSuccess(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockLedger := mocks.NewMockLedgerService(ctrl)
	mockLedger.EXPECT().Transfer(gomock.Any(), "acc_1", "acc_2", decimal.NewFromInt(50)).Return(nil)

	r := SetupRouter(RouterDeps{LedgerSvc: mockLedger, Logger: zerolog.Nop()})
	srv := httptest.NewServer(r)
	defer srv.Close()

	wc := client.NewWalletClient(srv.URL, time.Second, zerolog.Nop())
	assert.NoError(t, wc.Transfer(t.Context(), "acc_1", "acc_2", decimal.NewFromInt(50)))
}
