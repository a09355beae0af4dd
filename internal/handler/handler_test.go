package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/ledgercore/internal/ledger"
	"github.com/josh-kwaku/ledgercore/internal/scheduler"
)

type testEnv struct {
	server    *httptest.Server
	ledger    *ledger.Ledger
	scheduler *scheduler.Scheduler
}

func setupTestServer(t *testing.T) *testEnv {
	t.Helper()

	l := ledger.New(3)
	s := scheduler.New(l, scheduler.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	pages := PageConfig{DefaultSize: 10, MaxSize: 50}

	router := NewRouter(
		NewAccountHandler(l, pages),
		NewScheduleHandler(s, pages),
		NewHealthHandler(s),
	)
	srv := httptest.NewServer(router)
	t.Cleanup(func() {
		srv.Close()
		s.Shutdown()
	})

	return &testEnv{server: srv, ledger: l, scheduler: s}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *APIError       `json:"error"`
}

func doJSON(t *testing.T, method, url string, body any, wantCode int) envelope {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, wantCode, resp.StatusCode)

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return env
}

type accountBody struct {
	ID           string `json:"id"`
	Balance      string `json:"balance"`
	Transactions []struct {
		From   string `json:"from"`
		To     string `json:"to"`
		Amount string `json:"amount"`
		Kind   string `json:"kind"`
	} `json:"transactions"`
}

func decodeData[T any](t *testing.T, env envelope) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

func TestDepositAndGetAccount(t *testing.T) {
	env := setupTestServer(t)
	base := env.server.URL + "/api/v1"

	resp := doJSON(t, http.MethodPost, base+"/accounts/alice/deposit", map[string]string{"amount": "25.50"}, http.StatusOK)
	require.True(t, resp.Success)
	acct := decodeData[accountBody](t, resp)
	assert.Equal(t, "alice", acct.ID)
	assert.Equal(t, "25.5", acct.Balance)
	require.Len(t, acct.Transactions, 1)
	assert.Equal(t, "deposit", acct.Transactions[0].Kind)

	resp = doJSON(t, http.MethodGet, base+"/accounts/alice", nil, http.StatusOK)
	acct = decodeData[accountBody](t, resp)
	assert.Equal(t, "25.5", acct.Balance)
}

func TestDeposit_InvalidAmount(t *testing.T) {
	env := setupTestServer(t)
	base := env.server.URL + "/api/v1"

	for _, amount := range []any{"0", "-3", 0} {
		t.Run(fmt.Sprint(amount), func(t *testing.T) {
			resp := doJSON(t, http.MethodPost, base+"/accounts/bob/deposit", map[string]any{"amount": amount}, http.StatusBadRequest)
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, "INVALID_AMOUNT", resp.Error.Code)
		})
	}

	resp := doJSON(t, http.MethodGet, base+"/accounts/bob", nil, http.StatusOK)
	assert.Equal(t, "0", decodeData[accountBody](t, resp).Balance)
}

func TestGetAccount_Unknown(t *testing.T) {
	env := setupTestServer(t)

	resp := doJSON(t, http.MethodGet, env.server.URL+"/api/v1/accounts/ghost", nil, http.StatusNotFound)

	require.NotNil(t, resp.Error)
	assert.Equal(t, "ACCOUNT_NOT_FOUND", resp.Error.Code)
}

func TestTransfer(t *testing.T) {
	env := setupTestServer(t)
	base := env.server.URL + "/api/v1"
	doJSON(t, http.MethodPost, base+"/accounts/A/deposit", map[string]string{"amount": "100"}, http.StatusOK)

	doJSON(t, http.MethodPost, base+"/transfers", map[string]string{"from": "A", "to": "B", "amount": "40"}, http.StatusOK)

	resp := doJSON(t, http.MethodPost, base+"/transfers", map[string]string{"from": "A", "to": "B", "amount": "61"}, http.StatusUnprocessableEntity)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "TRANSFER_FAILED", resp.Error.Code)

	resp = doJSON(t, http.MethodPost, base+"/transfers", map[string]string{"from": "A", "to": "B", "amount": "0"}, http.StatusBadRequest)
	assert.Equal(t, "INVALID_AMOUNT", resp.Error.Code)

	resp = doJSON(t, http.MethodPost, base+"/transfers", map[string]string{"to": "B", "amount": "1"}, http.StatusBadRequest)
	assert.Equal(t, "VALIDATION_FAILED", resp.Error.Code)

	a := decodeData[accountBody](t, doJSON(t, http.MethodGet, base+"/accounts/A", nil, http.StatusOK))
	b := decodeData[accountBody](t, doJSON(t, http.MethodGet, base+"/accounts/B", nil, http.StatusOK))
	assert.Equal(t, "60", a.Balance)
	assert.Equal(t, "40", b.Balance)
}

func TestMerge(t *testing.T) {
	env := setupTestServer(t)
	base := env.server.URL + "/api/v1"
	doJSON(t, http.MethodPost, base+"/accounts/X/deposit", map[string]string{"amount": "12"}, http.StatusOK)

	resp := doJSON(t, http.MethodPost, base+"/accounts/merge", map[string]string{"from": "X", "into": "Y"}, http.StatusOK)
	y := decodeData[accountBody](t, resp)
	assert.Equal(t, "Y", y.ID)
	assert.Equal(t, "12", y.Balance)
	require.Len(t, y.Transactions, 2)
	assert.Equal(t, "X", y.Transactions[0].From)

	resp = doJSON(t, http.MethodPost, base+"/accounts/merge", map[string]string{"from": "Y", "into": "Y"}, http.StatusUnprocessableEntity)
	assert.Equal(t, "SELF_MERGE", resp.Error.Code)
}

func TestTopAccounts_Paginated(t *testing.T) {
	env := setupTestServer(t)
	base := env.server.URL + "/api/v1"
	for i, id := range []string{"a", "b", "c", "d"} {
		doJSON(t, http.MethodPost, base+"/accounts/"+id+"/deposit", map[string]int{"amount": (i + 1) * 10}, http.StatusOK)
	}

	type page struct {
		Items []struct {
			ID      string `json:"id"`
			Balance string `json:"balance"`
		} `json:"items"`
		Total int `json:"total"`
	}

	first := decodeData[page](t, doJSON(t, http.MethodGet, base+"/top-accounts?page=0&size=2", nil, http.StatusOK))
	assert.Equal(t, 3, first.Total)
	require.Len(t, first.Items, 2)
	assert.Equal(t, "d", first.Items[0].ID)
	assert.Equal(t, "40", first.Items[0].Balance)
	assert.Equal(t, "c", first.Items[1].ID)

	second := decodeData[page](t, doJSON(t, http.MethodGet, base+"/top-accounts?page=1&size=2", nil, http.StatusOK))
	require.Len(t, second.Items, 1)
	assert.Equal(t, "b", second.Items[0].ID)

	past := decodeData[page](t, doJSON(t, http.MethodGet, base+"/top-accounts?page=5&size=2", nil, http.StatusOK))
	assert.Empty(t, past.Items)

	huge := decodeData[page](t, doJSON(t, http.MethodGet, base+"/top-accounts?page=922337203685477581&size=10", nil, http.StatusOK))
	assert.Empty(t, huge.Items)
	assert.Equal(t, 3, huge.Total)

	resp := doJSON(t, http.MethodGet, base+"/top-accounts?page=-1", nil, http.StatusBadRequest)
	assert.Equal(t, "VALIDATION_FAILED", resp.Error.Code)
}

func TestScheduledTransferAndLogs(t *testing.T) {
	env := setupTestServer(t)
	base := env.server.URL + "/api/v1"
	doJSON(t, http.MethodPost, base+"/accounts/A/deposit", map[string]string{"amount": "100"}, http.StatusOK)

	resp := doJSON(t, http.MethodPost, base+"/transfers/scheduled",
		map[string]any{"from": "A", "to": "B", "amount": "50", "delay_ms": 20}, http.StatusAccepted)
	require.True(t, resp.Success)

	type logPage struct {
		Items []string `json:"items"`
	}
	logs := decodeData[logPage](t, doJSON(t, http.MethodGet, base+"/logs", nil, http.StatusOK))
	require.NotEmpty(t, logs.Items)
	assert.Contains(t, logs.Items[0], "in 20ms: A -> B $50")

	require.Eventually(t, func() bool { return env.scheduler.Pending() == 0 }, 5*time.Second, 5*time.Millisecond)

	logs = decodeData[logPage](t, doJSON(t, http.MethodGet, base+"/logs", nil, http.StatusOK))
	require.Len(t, logs.Items, 2)
	assert.Contains(t, logs.Items[1], "success: true")

	b := decodeData[accountBody](t, doJSON(t, http.MethodGet, base+"/accounts/B", nil, http.StatusOK))
	assert.Equal(t, "50", b.Balance)

	resp = doJSON(t, http.MethodPost, base+"/transfers/scheduled",
		map[string]any{"from": "A", "to": "B", "amount": "1", "delay_ms": -5}, http.StatusBadRequest)
	assert.Equal(t, "VALIDATION_FAILED", resp.Error.Code)
}

func TestScheduledTransfer_AfterShutdown(t *testing.T) {
	env := setupTestServer(t)
	env.scheduler.Shutdown()

	resp := doJSON(t, http.MethodPost, env.server.URL+"/api/v1/transfers/scheduled",
		map[string]any{"from": "A", "to": "B", "amount": "1", "delay_ms": 0}, http.StatusServiceUnavailable)

	assert.Equal(t, "SCHEDULER_STOPPED", resp.Error.Code)
}

func TestInvalidBody(t *testing.T) {
	env := setupTestServer(t)

	req, err := http.NewRequest(http.MethodPost, env.server.URL+"/api/v1/transfers", bytes.NewBufferString("{not json"))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHealth(t *testing.T) {
	env := setupTestServer(t)

	resp, err := http.Get(env.server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
	assert.EqualValues(t, 0, body["pending_transfers"])
}

func TestScheduledTransfer_DelayOverflow(t *testing.T) {
	env := setupTestServer(t)
	base := env.server.URL + "/api/v1"
	doJSON(t, http.MethodPost, base+"/accounts/A/deposit", map[string]string{"amount": "100"}, http.StatusOK)

	for _, delay := range []int64{maxDelayMS + 1, 18446744073710} {
		t.Run(fmt.Sprint(delay), func(t *testing.T) {
			resp := doJSON(t, http.MethodPost, base+"/transfers/scheduled",
				map[string]any{"from": "A", "to": "B", "amount": "50", "delay_ms": delay}, http.StatusBadRequest)
			require.NotNil(t, resp.Error)
			assert.Equal(t, "VALIDATION_FAILED", resp.Error.Code)
		})
	}

	assert.Zero(t, env.scheduler.Pending())
	assert.Empty(t, env.scheduler.Logs())
	a := decodeData[accountBody](t, doJSON(t, http.MethodGet, base+"/accounts/A", nil, http.StatusOK))
	assert.Equal(t, "100", a.Balance)
}

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	tests := []struct {
		name       string
		items      []int
		page, size int
		want       []int
	}{
		{name: "first page", items: items, page: 0, size: 2, want: []int{1, 2}},
		{name: "last partial page", items: items, page: 2, size: 2, want: []int{5}},
		{name: "past the end", items: items, page: 3, size: 2, want: []int{}},
		{name: "page times size overflows", items: items, page: 922337203685477581, size: 10, want: []int{}},
		{name: "empty items", items: nil, page: 0, size: 10, want: []int{}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := paginate(tc.items, tc.page, tc.size)
			assert.Equal(t, tc.want, got.Items)
			assert.Equal(t, len(tc.items), got.Total)
		})
	}
}
