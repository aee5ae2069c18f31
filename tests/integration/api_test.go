package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"wallet-ledger/internal/adapter/events"
	httpHandler "wallet-ledger/internal/adapter/http/handler"
	redisStorage "wallet-ledger/internal/adapter/storage/redis"
	"wallet-ledger/internal/service"
	"wallet-ledger/pkg/apperror"
	"wallet-ledger/pkg/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testApp builds the full application stack: real HTTP layer, middleware,
// handlers and services, backed by miniredis and the in-memory repos. Payouts
// go to a stub processor that confirms everything except the "ba_fail"
// destination.

type testApp struct {
	server *httptest.Server
	redis  *miniredis.Miniredis
	payout *stubPayoutGateway
}

// stubPayoutGateway confirms payouts with generated references.
type stubPayoutGateway struct {
	calls atomic.Int64
}

func (g *stubPayoutGateway) InitiatePayout(ctx context.Context, userID uuid.UUID, amount int64, destination string) (string, error) {
	n := g.calls.Add(1)
	if destination == "ba_fail" {
		return "", apperror.ErrPayoutFailed(errors.New("stub processor declined"))
	}
	return fmt.Sprintf("po_stub_%d", n), nil
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)

	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})

	idempotencyCache := redisStorage.NewIdempotencyCache(rdb)

	userRepo := newInMemoryUserRepo()
	walletRepo := newInMemoryWalletRepo()
	txRepo := newInMemoryTransactionRepo()
	idempotencyRepo := newInMemoryIdempotencyRepo()
	transactor := newSerialTransactor()

	payoutGateway := &stubPayoutGateway{}

	log := logger.New("debug", false)
	hashSvc := service.NewArgon2HashService()
	tokenSvc := service.NewJWTTokenService("test-jwt-secret-key-32bytes!!", 24*time.Hour, "test-issuer")

	authSvc := service.NewAuthService(userRepo, walletRepo, hashSvc, tokenSvc, log)
	ledgerSvc := service.NewLedgerService(
		walletRepo,
		txRepo,
		idempotencyRepo,
		idempotencyCache,
		transactor,
		payoutGateway,
		events.NoopPublisher{},
		nil,
		10*time.Second,
		24*time.Hour,
		2*time.Second,
		log,
	)
	querySvc := service.NewQueryService(walletRepo, txRepo, log)
	contactSvc := service.NewContactService(userRepo)

	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		AuthSvc:    authSvc,
		LedgerSvc:  ledgerSvc,
		QuerySvc:   querySvc,
		ContactSvc: contactSvc,
		TokenSvc:   tokenSvc,
		Logger:     log,
	})

	server := httptest.NewServer(router)

	return &testApp{
		server: server,
		redis:  mr,
		payout: payoutGateway,
	}
}

func (a *testApp) close() {
	a.server.Close()
	a.redis.Close()
}

// --- Helpers ---

func signupAndLogin(t *testing.T, app *testApp, email, name string) (userID, token string) {
	t.Helper()

	regBody, _ := json.Marshal(map[string]string{
		"email":            email,
		"name":             name,
		"password":         "StrongPass123!",
		"confirm_password": "StrongPass123!",
	})
	resp, err := http.Post(app.server.URL+"/api/v1/auth/signup", "application/json", bytes.NewReader(regBody))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var regResp map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&regResp))
	userID = regResp["data"].(map[string]interface{})["user_id"].(string)

	loginBody, _ := json.Marshal(map[string]string{
		"email":    email,
		"password": "StrongPass123!",
	})
	resp2, err := http.Post(app.server.URL+"/api/v1/auth/login", "application/json", bytes.NewReader(loginBody))
	require.NoError(t, err)
	defer resp2.Body.Close()
	require.Equal(t, http.StatusOK, resp2.StatusCode)

	var loginResp map[string]interface{}
	require.NoError(t, json.NewDecoder(resp2.Body).Decode(&loginResp))
	token = loginResp["data"].(map[string]interface{})["token"].(string)
	return userID, token
}

func doJSON(t *testing.T, app *testApp, method, path, token string, body string, headers map[string]string) (*http.Response, map[string]interface{}) {
	t.Helper()

	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, app.server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var parsed map[string]interface{}
	_ = json.NewDecoder(resp.Body).Decode(&parsed)
	return resp, parsed
}

func deposit(t *testing.T, app *testApp, token, amount string) {
	t.Helper()
	resp, _ := doJSON(t, app, http.MethodPost, "/api/v1/wallet/deposit", token,
		fmt.Sprintf(`{"amount":%q}`, amount), nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
}

func getBalance(t *testing.T, app *testApp, token string) string {
	t.Helper()
	resp, body := doJSON(t, app, http.MethodGet, "/api/v1/wallet/balance", token, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return body["data"].(map[string]interface{})["balance"].(string)
}

// --- Integration Tests ---

func TestIntegration_HealthCheck(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	resp, err := http.Get(app.server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "healthy", body["status"])
}

func TestIntegration_SignupAndLogin(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	userID, token := signupAndLogin(t, app, "alice@example.com", "Alice")
	assert.NotEmpty(t, userID)
	assert.NotEmpty(t, token)

	// A fresh account starts with a zero-balance wallet.
	assert.Equal(t, "0.00", getBalance(t, app, token))
}

func TestIntegration_DuplicateEmail(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	signupAndLogin(t, app, "dup@example.com", "First")

	regBody, _ := json.Marshal(map[string]string{
		"email":            "dup@example.com",
		"name":             "Second",
		"password":         "StrongPass123!",
		"confirm_password": "StrongPass123!",
	})
	resp, err := http.Post(app.server.URL+"/api/v1/auth/signup", "application/json", bytes.NewReader(regBody))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestIntegration_LoginWrongCredentials(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	loginBody, _ := json.Marshal(map[string]string{
		"email":    "nobody@example.com",
		"password": "wrong",
	})
	resp, err := http.Post(app.server.URL+"/api/v1/auth/login", "application/json", bytes.NewReader(loginBody))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestIntegration_Unauthorized(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	resp, _ := doJSON(t, app, http.MethodGet, "/api/v1/wallet/balance", "", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestIntegration_DepositAndBalance(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	_, token := signupAndLogin(t, app, "alice@example.com", "Alice")

	resp, body := doJSON(t, app, http.MethodPost, "/api/v1/wallet/deposit", token, `{"amount":"100.00"}`, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	data := body["data"].(map[string]interface{})
	assert.NotEmpty(t, data["transaction_id"])
	assert.Equal(t, "100.00", data["new_balance"])

	deposit(t, app, token, "0.50")
	assert.Equal(t, "100.50", getBalance(t, app, token))
}

func TestIntegration_Deposit_MalformedAmount(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	_, token := signupAndLogin(t, app, "alice@example.com", "Alice")

	for _, amount := range []string{"10", "10.5", "-1.00", "0.00", "1,00"} {
		resp, body := doJSON(t, app, http.MethodPost, "/api/v1/wallet/deposit", token,
			fmt.Sprintf(`{"amount":%q}`, amount), nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "amount %q", amount)
		assert.Equal(t, "LED_001", body["error_code"], "amount %q", amount)
	}
}

func TestIntegration_TransferEndToEnd(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	aliceID, aliceToken := signupAndLogin(t, app, "alice@example.com", "Alice")
	bobID, bobToken := signupAndLogin(t, app, "bob@example.com", "Bob")
	_ = aliceID

	deposit(t, app, aliceToken, "100.00")

	resp, body := doJSON(t, app, http.MethodPost, "/api/v1/wallet/transfer", aliceToken,
		fmt.Sprintf(`{"recipient_id":%q,"amount":"30.00"}`, bobID), nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "70.00", body["data"].(map[string]interface{})["new_balance"])

	assert.Equal(t, "70.00", getBalance(t, app, aliceToken))
	assert.Equal(t, "30.00", getBalance(t, app, bobToken))

	// Alice sees the transfer under sent, Bob under received.
	_, aliceHist := doJSON(t, app, http.MethodGet, "/api/v1/transactions", aliceToken, "", nil)
	aliceSent := aliceHist["data"].(map[string]interface{})["sent"].([]interface{})
	require.Len(t, aliceSent, 1)
	assert.Equal(t, "TRANSFER", aliceSent[0].(map[string]interface{})["kind"])
	assert.Equal(t, "30.00", aliceSent[0].(map[string]interface{})["amount"])

	_, bobHist := doJSON(t, app, http.MethodGet, "/api/v1/transactions", bobToken, "", nil)
	bobReceived := bobHist["data"].(map[string]interface{})["received"].([]interface{})
	require.Len(t, bobReceived, 1)
	assert.Equal(t, "TRANSFER", bobReceived[0].(map[string]interface{})["kind"])
}

func TestIntegration_Transfer_InsufficientBalance(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	_, aliceToken := signupAndLogin(t, app, "alice@example.com", "Alice")
	bobID, bobToken := signupAndLogin(t, app, "bob@example.com", "Bob")

	deposit(t, app, aliceToken, "10.00")

	resp, body := doJSON(t, app, http.MethodPost, "/api/v1/wallet/transfer", aliceToken,
		fmt.Sprintf(`{"recipient_id":%q,"amount":"10.01"}`, bobID), nil)
	assert.Equal(t, http.StatusPaymentRequired, resp.StatusCode)
	assert.Equal(t, "LED_002", body["error_code"])

	// A rejected transfer moves nothing.
	assert.Equal(t, "10.00", getBalance(t, app, aliceToken))
	assert.Equal(t, "0.00", getBalance(t, app, bobToken))
}

func TestIntegration_Transfer_UnknownRecipient(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	_, aliceToken := signupAndLogin(t, app, "alice@example.com", "Alice")
	deposit(t, app, aliceToken, "10.00")

	resp, body := doJSON(t, app, http.MethodPost, "/api/v1/wallet/transfer", aliceToken,
		fmt.Sprintf(`{"recipient_id":%q,"amount":"5.00"}`, uuid.New()), nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "LED_004", body["error_code"])
}

func TestIntegration_Transfer_SelfRejected(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	aliceID, aliceToken := signupAndLogin(t, app, "alice@example.com", "Alice")
	deposit(t, app, aliceToken, "10.00")

	resp, body := doJSON(t, app, http.MethodPost, "/api/v1/wallet/transfer", aliceToken,
		fmt.Sprintf(`{"recipient_id":%q,"amount":"5.00"}`, aliceID), nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "LED_005", body["error_code"])
}

func TestIntegration_WithdrawEndToEnd(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	_, token := signupAndLogin(t, app, "alice@example.com", "Alice")
	deposit(t, app, token, "100.00")

	resp, body := doJSON(t, app, http.MethodPost, "/api/v1/wallet/withdraw", token,
		`{"amount":"40.00","destination":"ba_test_123"}`, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "60.00", data["new_balance"])
	assert.NotEmpty(t, data["payout_ref"])

	assert.Equal(t, "60.00", getBalance(t, app, token))

	// A withdrawal is the user paying themselves out: sent side only.
	_, hist := doJSON(t, app, http.MethodGet, "/api/v1/transactions", token, "", nil)
	sent := hist["data"].(map[string]interface{})["sent"].([]interface{})
	received := hist["data"].(map[string]interface{})["received"].([]interface{})
	require.Len(t, sent, 1)
	assert.Equal(t, "WITHDRAWAL", sent[0].(map[string]interface{})["kind"])
	for _, item := range received {
		assert.NotEqual(t, "WITHDRAWAL", item.(map[string]interface{})["kind"])
	}
}

func TestIntegration_Withdraw_PayoutFailure(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	_, token := signupAndLogin(t, app, "alice@example.com", "Alice")
	deposit(t, app, token, "100.00")

	resp, body := doJSON(t, app, http.MethodPost, "/api/v1/wallet/withdraw", token,
		`{"amount":"40.00","destination":"ba_fail"}`, nil)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, "PAYOUT_001", body["error_code"])

	// Nothing was debited and no ledger record was written.
	assert.Equal(t, "100.00", getBalance(t, app, token))
	_, hist := doJSON(t, app, http.MethodGet, "/api/v1/transactions", token, "", nil)
	sent := hist["data"].(map[string]interface{})["sent"].([]interface{})
	assert.Empty(t, sent)
}

func TestIntegration_Withdraw_InsufficientBalance_NoPayoutCall(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	_, token := signupAndLogin(t, app, "alice@example.com", "Alice")
	deposit(t, app, token, "10.00")

	before := app.payout.calls.Load()
	resp, _ := doJSON(t, app, http.MethodPost, "/api/v1/wallet/withdraw", token,
		`{"amount":"10.01","destination":"ba_test_123"}`, nil)
	assert.Equal(t, http.StatusPaymentRequired, resp.StatusCode)
	assert.Equal(t, before, app.payout.calls.Load(), "processor must not be contacted when the balance check fails")
}

func TestIntegration_IdempotentDeposit(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	_, token := signupAndLogin(t, app, "alice@example.com", "Alice")

	headers := map[string]string{"X-Idempotency-Key": "dep-2024-001"}

	resp1, body1 := doJSON(t, app, http.MethodPost, "/api/v1/wallet/deposit", token, `{"amount":"25.00"}`, headers)
	require.Equal(t, http.StatusCreated, resp1.StatusCode)
	tx1 := body1["data"].(map[string]interface{})["transaction_id"]

	resp2, body2 := doJSON(t, app, http.MethodPost, "/api/v1/wallet/deposit", token, `{"amount":"25.00"}`, headers)
	require.Equal(t, http.StatusCreated, resp2.StatusCode)
	tx2 := body2["data"].(map[string]interface{})["transaction_id"]

	assert.Equal(t, tx1, tx2, "replay must return the original result")
	assert.Equal(t, "25.00", getBalance(t, app, token), "balance credited exactly once")
}

func TestIntegration_IdempotentReplay_SurvivesCacheLoss(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	_, token := signupAndLogin(t, app, "alice@example.com", "Alice")

	headers := map[string]string{"X-Idempotency-Key": "dep-2024-002"}

	resp1, body1 := doJSON(t, app, http.MethodPost, "/api/v1/wallet/deposit", token, `{"amount":"25.00"}`, headers)
	require.Equal(t, http.StatusCreated, resp1.StatusCode)
	tx1 := body1["data"].(map[string]interface{})["transaction_id"]

	// Redis loses everything; the durable record still answers the replay.
	app.redis.FlushAll()

	resp2, body2 := doJSON(t, app, http.MethodPost, "/api/v1/wallet/deposit", token, `{"amount":"25.00"}`, headers)
	require.Equal(t, http.StatusCreated, resp2.StatusCode)
	assert.Equal(t, tx1, body2["data"].(map[string]interface{})["transaction_id"])
	assert.Equal(t, "25.00", getBalance(t, app, token))
}

func TestIntegration_IdempotencyKeys_ScopedPerUser(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	_, aliceToken := signupAndLogin(t, app, "alice@example.com", "Alice")
	_, bobToken := signupAndLogin(t, app, "bob@example.com", "Bob")

	headers := map[string]string{"X-Idempotency-Key": "shared-key"}

	resp1, _ := doJSON(t, app, http.MethodPost, "/api/v1/wallet/deposit", aliceToken, `{"amount":"10.00"}`, headers)
	require.Equal(t, http.StatusCreated, resp1.StatusCode)

	// The same client key under another account is a distinct operation.
	resp2, _ := doJSON(t, app, http.MethodPost, "/api/v1/wallet/deposit", bobToken, `{"amount":"20.00"}`, headers)
	require.Equal(t, http.StatusCreated, resp2.StatusCode)

	assert.Equal(t, "10.00", getBalance(t, app, aliceToken))
	assert.Equal(t, "20.00", getBalance(t, app, bobToken))
}

func TestIntegration_Contacts(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	_, aliceToken := signupAndLogin(t, app, "alice@example.com", "Alice")
	bobID, _ := signupAndLogin(t, app, "bob@example.com", "Bob")

	resp, body := doJSON(t, app, http.MethodGet, "/api/v1/contacts", aliceToken, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	items := body["data"].([]interface{})
	require.Len(t, items, 1)
	assert.Equal(t, bobID, items[0].(map[string]interface{})["user_id"])
	assert.Equal(t, "Bob", items[0].(map[string]interface{})["name"])
}

func TestIntegration_HistoryOrdering(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	_, token := signupAndLogin(t, app, "alice@example.com", "Alice")

	for _, amount := range []string{"1.00", "2.00", "3.00"} {
		deposit(t, app, token, amount)
	}

	_, hist := doJSON(t, app, http.MethodGet, "/api/v1/transactions", token, "", nil)
	received := hist["data"].(map[string]interface{})["received"].([]interface{})
	require.Len(t, received, 3)

	amounts := make([]string, 0, 3)
	for _, item := range received {
		amounts = append(amounts, item.(map[string]interface{})["amount"].(string))
	}
	assert.Equal(t, []string{"1.00", "2.00", "3.00"}, amounts, "history is oldest first")
}
