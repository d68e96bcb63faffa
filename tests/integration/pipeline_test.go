package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"payflow/internal/adapter/client"
	httpHandler "payflow/internal/adapter/http/handler"
	redisStorage "payflow/internal/adapter/storage/redis"
	"payflow/internal/core/domain"
	"payflow/internal/metrics"
	"payflow/internal/resilience"
	"payflow/internal/service"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testApp wires the full pipeline without external infrastructure: the real
// HTTP layer, services and resilience stack over in-memory storage, with
// miniredis backing the Redis stores and an inline dispatcher replacing the
// broker. The processor's wallet client calls back into the same HTTP
// server, so transfers traverse the real wire format end to end.
type testApp struct {
	server        *httptest.Server
	redis         *miniredis.Miniredis
	accounts      *inMemoryAccountRepo
	txRepo        *inMemoryTransactionRepo
	queue         *inlineQueue
	notifications *captureNotifier
}

// newTestApp builds the stack. walletURL overrides where the processor
// sends balance mutations; empty means the app's own server.
func newTestApp(t *testing.T, walletURL string) *testApp {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	idempotencyStore := redisStorage.NewIdempotencyStore(rdb)
	balanceCache := redisStorage.NewBalanceCache(rdb)

	accounts := newInMemoryAccountRepo()
	txRepo := newInMemoryTransactionRepo()
	queue := newInlineQueue()
	notifications := newCaptureNotifier()

	log := zerolog.Nop()
	maxAmount := decimal.NewFromInt(10000)

	ledgerSvc := service.NewLedgerService(accounts, balanceCache, newInMemoryTransactor(), maxAmount, log)
	guard := service.NewIdempotencyGuard(idempotencyStore, time.Hour, log)
	intakeSvc := service.NewIntakeService(txRepo, queue, guard, maxAmount, log)

	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		IntakeSvc: intakeSvc,
		LedgerSvc: ledgerSvc,
		TxRepo:    txRepo,
		Logger:    log,
	})
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	if walletURL == "" {
		walletURL = server.URL
	}
	walletClient := client.NewWalletClient(walletURL, time.Second, log)

	breaker := resilience.NewBreakerManager(resilience.BreakerConfig{
		FailureThreshold: 10,
		OpenTimeout:      50 * time.Millisecond,
		CallTimeout:      2 * time.Second,
	}, log)
	retryPolicy := resilience.RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}

	processor := service.NewTransactionProcessor(
		txRepo,
		walletClient,
		breaker,
		retryPolicy,
		notifications,
		metrics.New(prometheus.NewRegistry()),
		3,
		log,
	)
	queue.handler = service.HandlerWithTimeout(processor, 10*time.Second)

	return &testApp{
		server:        server,
		redis:         mr,
		accounts:      accounts,
		txRepo:        txRepo,
		queue:         queue,
		notifications: notifications,
	}
}

func (app *testApp) post(t *testing.T, path string, body interface{}, headers map[string]string) (*http.Response, map[string]interface{}) {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, app.server.URL+path, bytes.NewReader(raw))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := app.server.Client().Do(req)
	require.NoError(t, err)
	return resp, decodeBody(t, resp)
}

func (app *testApp) get(t *testing.T, path string) (*http.Response, map[string]interface{}) {
	t.Helper()
	resp, err := app.server.Client().Get(app.server.URL + path)
	require.NoError(t, err)
	return resp, decodeBody(t, resp)
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func (app *testApp) createAccount(t *testing.T, id, name string, balance int64) {
	t.Helper()
	resp, _ := app.post(t, "/api/v1/accounts", map[string]interface{}{
		"id":              id,
		"name":            name,
		"initial_balance": balance,
	}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
}

func (app *testApp) transfer(t *testing.T, source, dest string, amount interface{}, headers map[string]string) (*http.Response, map[string]interface{}) {
	t.Helper()
	return app.post(t, "/api/v1/transfers", map[string]interface{}{
		"source_account_id":      source,
		"destination_account_id": dest,
		"amount":                 amount,
	}, headers)
}

func (app *testApp) balance(t *testing.T, id string) string {
	t.Helper()
	resp, body := app.get(t, "/api/v1/accounts/"+id)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return body["data"].(map[string]interface{})["balance"].(string)
}

func TestPipeline_TransferCompletes(t *testing.T) {
	app := newTestApp(t, "")
	app.createAccount(t, "acc_alice", "Alice", 1000)
	app.createAccount(t, "acc_bob", "Bob", 200)

	resp, body := app.transfer(t, "acc_alice", "acc_bob", 250, nil)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	data := body["data"].(map[string]interface{})
	txID := data["id"].(string)
	require.NotEmpty(t, txID)

	// The inline queue dispatches synchronously, so the terminal state is
	// already visible.
	resp, body = app.get(t, "/api/v1/transfers/"+txID)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data = body["data"].(map[string]interface{})
	assert.Equal(t, "COMPLETED", data["status"])
	assert.NotEmpty(t, data["completed_at"])

	assert.Equal(t, "750", app.balance(t, "acc_alice"))
	assert.Equal(t, "450", app.balance(t, "acc_bob"))

	sent := app.notifications.byType(domain.NotificationTransferSent)
	received := app.notifications.byType(domain.NotificationTransferReceived)
	require.Len(t, sent, 1)
	require.Len(t, received, 1)
	assert.Equal(t, "acc_alice", sent[0].UserID)
	assert.Equal(t, "acc_bob", received[0].UserID)

	assert.Empty(t, app.queue.deadLetters())
}

func TestPipeline_InsufficientFundsFailsPermanently(t *testing.T) {
	app := newTestApp(t, "")
	app.createAccount(t, "acc_alice", "Alice", 100)
	app.createAccount(t, "acc_bob", "Bob", 0)

	resp, body := app.transfer(t, "acc_alice", "acc_bob", 500, nil)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	txID := body["data"].(map[string]interface{})["id"].(string)

	_, body = app.get(t, "/api/v1/transfers/"+txID)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "FAILED", data["status"])
	assert.Contains(t, data["error_message"], "Insufficient funds")

	// Balances untouched, message dead-lettered after a single attempt.
	assert.Equal(t, "100", app.balance(t, "acc_alice"))
	assert.Equal(t, "0", app.balance(t, "acc_bob"))
	assert.Len(t, app.queue.deadLetters(), 1)

	failed := app.notifications.byType(domain.NotificationTransferFailed)
	require.Len(t, failed, 1)
	assert.Equal(t, "acc_alice", failed[0].UserID)
}

func TestPipeline_UnknownAccountFailsPermanently(t *testing.T) {
	app := newTestApp(t, "")
	app.createAccount(t, "acc_alice", "Alice", 1000)

	resp, body := app.transfer(t, "acc_alice", "acc_ghost", 50, nil)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	txID := body["data"].(map[string]interface{})["id"].(string)

	_, body = app.get(t, "/api/v1/transfers/"+txID)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "FAILED", data["status"])
	assert.Equal(t, "1000", app.balance(t, "acc_alice"))
	assert.Len(t, app.queue.deadLetters(), 1)
}

func TestPipeline_IdempotentReplay(t *testing.T) {
	app := newTestApp(t, "")
	app.createAccount(t, "acc_alice", "Alice", 1000)
	app.createAccount(t, "acc_bob", "Bob", 0)

	headers := map[string]string{"Idempotency-Key": "once-please"}

	resp, body := app.transfer(t, "acc_alice", "acc_bob", 100, headers)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	firstID := body["data"].(map[string]interface{})["id"].(string)

	resp, body = app.transfer(t, "acc_alice", "acc_bob", 100, headers)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, firstID, body["data"].(map[string]interface{})["id"].(string))

	// Exactly one debit despite two requests.
	assert.Equal(t, "900", app.balance(t, "acc_alice"))
	assert.Equal(t, "100", app.balance(t, "acc_bob"))

	// Same key with different params is a new request.
	resp, body = app.transfer(t, "acc_alice", "acc_bob", 25, headers)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.NotEqual(t, firstID, body["data"].(map[string]interface{})["id"].(string))
	assert.Equal(t, "875", app.balance(t, "acc_alice"))
}

func TestPipeline_ValidationRejectedAtIntake(t *testing.T) {
	app := newTestApp(t, "")
	app.createAccount(t, "acc_alice", "Alice", 1000)

	cases := []struct {
		name   string
		source string
		dest   string
		amount interface{}
	}{
		{"same account", "acc_alice", "acc_alice", 10},
		{"negative amount", "acc_alice", "acc_bob", -5},
		{"zero amount", "acc_alice", "acc_bob", 0},
		{"over cap", "acc_alice", "acc_bob", 10001},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, _ := app.transfer(t, tc.source, tc.dest, tc.amount, nil)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}

	// Nothing reached the pipeline.
	_, body := app.get(t, "/api/v1/transfers")
	assert.Equal(t, float64(0), body["data"].(map[string]interface{})["count"])
}

func TestPipeline_DownstreamOutageExhaustsRetries(t *testing.T) {
	// Wallet endpoint at a dead address: every call is a connection error,
	// classified transient. In-process retries then queue redeliveries all
	// fail, and the message dead-letters with the record FAILED.
	dead := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	dead.Close()

	app := newTestApp(t, dead.URL)
	app.createAccount(t, "acc_alice", "Alice", 1000)
	app.createAccount(t, "acc_bob", "Bob", 0)

	resp, body := app.transfer(t, "acc_alice", "acc_bob", 100, nil)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	txID := body["data"].(map[string]interface{})["id"].(string)

	_, body = app.get(t, "/api/v1/transfers/"+txID)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "FAILED", data["status"])
	assert.Len(t, app.queue.deadLetters(), 1)

	// No money moved.
	assert.Equal(t, "1000", app.balance(t, "acc_alice"))
	assert.Equal(t, "0", app.balance(t, "acc_bob"))
}

func TestPipeline_ListTransfersByAccount(t *testing.T) {
	app := newTestApp(t, "")
	app.createAccount(t, "acc_alice", "Alice", 1000)
	app.createAccount(t, "acc_bob", "Bob", 1000)
	app.createAccount(t, "acc_carol", "Carol", 1000)

	for i := 0; i < 3; i++ {
		resp, _ := app.transfer(t, "acc_alice", "acc_bob", 10+i, nil)
		require.Equal(t, http.StatusAccepted, resp.StatusCode)
	}
	resp, _ := app.transfer(t, "acc_carol", "acc_bob", 5, nil)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	_, body := app.get(t, "/api/v1/transfers?account_id=acc_alice")
	assert.Equal(t, float64(3), body["data"].(map[string]interface{})["count"])

	_, body = app.get(t, "/api/v1/transfers?account_id=acc_bob&status=COMPLETED")
	assert.Equal(t, float64(4), body["data"].(map[string]interface{})["count"])

	_, body = app.get(t, fmt.Sprintf("/api/v1/transfers?account_id=acc_alice&limit=%d", 2))
	assert.Equal(t, float64(2), body["data"].(map[string]interface{})["count"])
}

func TestPipeline_StatsReflectOutcomes(t *testing.T) {
	app := newTestApp(t, "")
	app.createAccount(t, "acc_alice", "Alice", 100)
	app.createAccount(t, "acc_bob", "Bob", 0)

	resp, _ := app.transfer(t, "acc_alice", "acc_bob", 50, nil)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	resp, _ = app.transfer(t, "acc_alice", "acc_bob", 500, nil)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	counts, err := app.txRepo.CountByStatus(t.Context())
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts[domain.TransactionStatusCompleted])
	assert.Equal(t, int64(1), counts[domain.TransactionStatusFailed])
}
