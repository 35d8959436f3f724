package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/vesting"
	"github.com/xraph/vesting/api"
	"github.com/xraph/vesting/store/memory"
	"github.com/xraph/vesting/transfer"
)

const (
	admin   = "admin.example"
	tokenID = "token.example"
	alice   = "alice.example"
)

type nopTransfers struct {
	mu   sync.Mutex
	reqs []transfer.Request
}

func (n *nopTransfers) RequestTransfer(_ context.Context, req transfer.Request) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.reqs = append(n.reqs, req)
	return nil
}

type harness struct {
	t     *testing.T
	srv   *api.Server
	now   time.Time
	sends *nopTransfers
}

// clients maps every test identity to the key "key-<identity>".
var clients = api.StaticKeys{
	{Identity: admin, Key: "key-" + admin},
	{Identity: tokenID, Key: "key-" + tokenID},
	{Identity: alice, Key: "key-" + alice},
	{Identity: "other.token", Key: "key-other.token"},
}

func newHarness(t *testing.T, opts ...api.Option) *harness {
	t.Helper()
	h := &harness{t: t, now: time.Unix(350, 0), sends: &nopTransfers{}}
	clock := func() time.Time { return h.now }

	v := vesting.New(memory.New(), h.sends, vesting.WithClock(clock))
	require.NoError(t, v.Start(context.Background()))
	t.Cleanup(func() { _ = v.Stop() })

	if len(opts) == 0 {
		opts = []api.Option{api.WithAuthenticator(clients)}
	}
	h.srv = api.New(v, opts...)
	return h
}

// do sends a request authenticated as caller. An empty caller sends no key.
func (h *harness) do(method, path, caller string, body any) (int, []byte) {
	h.t.Helper()
	var headers map[string]string
	if caller != "" {
		headers = map[string]string{fiber.HeaderAuthorization: "Bearer key-" + caller}
	}
	return h.send(method, path, headers, body)
}

func (h *harness) send(method, path string, headers map[string]string, body any) (int, []byte) {
	h.t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(h.t, err)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := h.srv.App().Test(req)
	require.NoError(h.t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(h.t, err)
	return resp.StatusCode, out
}

func (h *harness) reason(body []byte) string {
	h.t.Helper()
	var e api.ErrorResponse
	require.NoError(h.t, json.Unmarshal(body, &e))
	return e.Reason
}

func (h *harness) initPerAccount() {
	h.t.Helper()
	status, body := h.do(http.MethodPost, "/v1/init", admin, map[string]any{
		"administrator": admin,
		"token":         tokenID,
		"mode":          "per_account",
		"schedules": []map[string]any{{
			"beneficiary":       alice,
			"start_time":        100,
			"period_length":     100,
			"period_count":      4,
			"amount_per_period": "100",
		}},
	})
	require.Equal(h.t, http.StatusCreated, status, string(body))
}

func TestHealth(t *testing.T) {
	h := newHarness(t)
	status, body := h.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), vesting.Version)
}

func TestClaimFlow(t *testing.T) {
	h := newHarness(t)

	status, body := h.do(http.MethodGet, "/v1/pool", "", nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "ERR_NOT_INITIALIZED", h.reason(body))

	h.initPerAccount()

	status, body = h.do(http.MethodPost, "/v1/deposits", tokenID, map[string]any{
		"sender": admin, "amount": "400", "tag": alice,
	})
	require.Equal(t, http.StatusNoContent, status, string(body))

	status, body = h.do(http.MethodGet, "/v1/schedules/"+alice, "", nil)
	require.Equal(t, http.StatusOK, status)
	var view struct {
		Unclaimed vesting.Amount `json:"unclaimed"`
		Dormant   bool           `json:"dormant"`
	}
	require.NoError(t, json.Unmarshal(body, &view))
	assert.Equal(t, "200", view.Unclaimed.String())
	assert.False(t, view.Dormant)

	status, body = h.do(http.MethodPost, "/v1/claims", alice, nil)
	require.Equal(t, http.StatusAccepted, status, string(body))
	var cr api.ClaimResponse
	require.NoError(t, json.Unmarshal(body, &cr))
	require.NotNil(t, cr.Claim)
	assert.Equal(t, "200", cr.Claim.Amount.String())
	assert.Equal(t, uint32(2), cr.Claim.Periods)
	assert.Len(t, h.sends.reqs, 1)

	// Nothing more is due in the same instant.
	status, body = h.do(http.MethodPost, "/v1/claims", alice, nil)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(body, &cr))
	assert.Nil(t, cr.Claim)

	status, body = h.do(http.MethodGet, "/v1/claims", "", nil)
	require.Equal(t, http.StatusOK, status)
	var page struct {
		Items []json.RawMessage `json:"items"`
		Limit int               `json:"limit"`
	}
	require.NoError(t, json.Unmarshal(body, &page))
	assert.Len(t, page.Items, 1)
	assert.Equal(t, api.DefaultLimit, page.Limit)
}

func TestErrorMapping(t *testing.T) {
	h := newHarness(t)
	h.initPerAccount()

	tests := []struct {
		name       string
		method     string
		path       string
		caller     string
		body       any
		wantStatus int
		wantReason string
	}{
		{
			name:       "missing credentials",
			method:     http.MethodPost,
			path:       "/v1/claims",
			wantStatus: http.StatusUnauthorized,
			wantReason: "ERR_NOT_ALLOWED",
		},
		{
			name:       "unknown schedule",
			method:     http.MethodGet,
			path:       "/v1/schedules/nobody",
			wantStatus: http.StatusNotFound,
			wantReason: "ERR_ACCOUNT_NOT_EXIST",
		},
		{
			name:   "non-admin sets schedule",
			method: http.MethodPost,
			path:   "/v1/schedules",
			caller: alice,
			body: map[string]any{
				"beneficiary": alice, "start_time": 0, "period_length": 1, "period_count": 1, "amount_per_period": "1",
			},
			wantStatus: http.StatusForbidden,
			wantReason: "ERR_NOT_ALLOWED",
		},
		{
			name:       "deposit from another token",
			method:     http.MethodPost,
			path:       "/v1/deposits",
			caller:     "other.token",
			body:       map[string]any{"sender": admin, "amount": "1", "tag": alice},
			wantStatus: http.StatusForbidden,
			wantReason: "ERR_ILLEGAL_TOKEN",
		},
		{
			name:       "deposit without tag",
			method:     http.MethodPost,
			path:       "/v1/deposits",
			caller:     tokenID,
			body:       map[string]any{"sender": admin, "amount": "1"},
			wantStatus: http.StatusUnprocessableEntity,
			wantReason: "ERR_MISSING_ACCOUNT_ID",
		},
		{
			name:       "payment in per-account mode",
			method:     http.MethodPost,
			path:       "/v1/payments",
			caller:     admin,
			body:       map[string]any{"recipient": alice, "amount": "1"},
			wantStatus: http.StatusConflict,
			wantReason: "ERR_UNSUPPORTED_MODE",
		},
		{
			name:       "bad limit",
			method:     http.MethodGet,
			path:       "/v1/schedules?limit=many",
			wantStatus: http.StatusBadRequest,
			wantReason: vesting.ReasonInvalidInput,
		},
		{
			name:   "invalid schedule",
			method: http.MethodPost,
			path:   "/v1/schedules",
			caller: admin,
			body: map[string]any{
				"beneficiary": "carol.example", "start_time": 0, "period_length": 0, "period_count": 1, "amount_per_period": "1",
			},
			wantStatus: http.StatusBadRequest,
			wantReason: vesting.ReasonInvalidInput,
		},
		{
			name:       "second init",
			method:     http.MethodPost,
			path:       "/v1/init",
			caller:     admin,
			body:       map[string]any{"administrator": admin, "token": tokenID, "mode": "per_account"},
			wantStatus: http.StatusConflict,
			wantReason: "ERR_ALREADY_INITIALIZED",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := h.do(tt.method, tt.path, tt.caller, tt.body)
			assert.Equal(t, tt.wantStatus, status, string(body))
			assert.Equal(t, tt.wantReason, h.reason(body))
		})
	}
}

func TestScheduleAdministration(t *testing.T) {
	h := newHarness(t)
	h.initPerAccount()

	status, body := h.do(http.MethodPost, "/v1/schedules", admin, map[string]any{
		"beneficiary": "carol.example", "start_time": 1000, "period_length": 10, "period_count": 2, "amount_per_period": "5",
	})
	require.Equal(t, http.StatusOK, status, string(body))

	status, body = h.do(http.MethodGet, "/v1/schedules?limit=1&offset=1", "", nil)
	require.Equal(t, http.StatusOK, status)
	var page struct {
		Items []struct {
			Beneficiary string `json:"beneficiary"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(body, &page))
	require.Len(t, page.Items, 1)
	assert.Equal(t, "carol.example", page.Items[0].Beneficiary)

	// Removal is a pool-wide operation.
	status, body = h.do(http.MethodDelete, "/v1/schedules/carol.example", admin, nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "ERR_UNSUPPORTED_MODE", h.reason(body))

	status, _ = h.do(http.MethodPost, "/v1/administrator", admin, map[string]any{"administrator": "new.admin"})
	require.Equal(t, http.StatusNoContent, status)

	status, body = h.do(http.MethodGet, "/v1/pool", "", nil)
	require.Equal(t, http.StatusOK, status)
	var sum vesting.Summary
	require.NoError(t, json.Unmarshal(body, &sum))
	assert.Equal(t, "new.admin", sum.Administrator)
	assert.Equal(t, 2, sum.Schedules)
}

func TestAuthentication(t *testing.T) {
	poolOf := func(t *testing.T, h *harness) vesting.Summary {
		t.Helper()
		status, body := h.do(http.MethodGet, "/v1/pool", "", nil)
		require.Equal(t, http.StatusOK, status, string(body))
		var sum vesting.Summary
		require.NoError(t, json.Unmarshal(body, &sum))
		return sum
	}

	t.Run("CallerHeaderIgnoredWithoutKey", func(t *testing.T) {
		h := newHarness(t)
		h.initPerAccount()

		status, body := h.send(http.MethodPost, "/v1/deposits",
			map[string]string{api.CallerHeader: tokenID},
			map[string]any{"sender": admin, "amount": "1000000", "tag": alice})
		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, "ERR_NOT_ALLOWED", h.reason(body))

		status, _ = h.send(http.MethodPost, "/v1/administrator",
			map[string]string{api.CallerHeader: admin},
			map[string]any{"administrator": "mallory.example"})
		assert.Equal(t, http.StatusUnauthorized, status)

		sum := poolOf(t, h)
		assert.Equal(t, admin, sum.Administrator)
		assert.True(t, sum.TotalFunded.IsZero())
	})

	t.Run("UnknownKeyRejected", func(t *testing.T) {
		h := newHarness(t)
		h.initPerAccount()

		status, body := h.send(http.MethodPost, "/v1/administrator",
			map[string]string{fiber.HeaderAuthorization: "Bearer guessed"},
			map[string]any{"administrator": "mallory.example"})
		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, "ERR_NOT_ALLOWED", h.reason(body))
		assert.Equal(t, admin, poolOf(t, h).Administrator)
	})

	t.Run("NoAuthenticationConfigured", func(t *testing.T) {
		h := newHarness(t, api.WithBasePath(""))
		status, _ := h.send(http.MethodPost, "/v1/init",
			map[string]string{api.CallerHeader: admin},
			map[string]any{"administrator": admin, "token": tokenID, "mode": "per_account"})
		assert.Equal(t, http.StatusUnauthorized, status)
	})

	t.Run("TrustedCallerHeader", func(t *testing.T) {
		h := newHarness(t, api.WithTrustedCallerHeader())
		status, body := h.send(http.MethodPost, "/v1/init",
			map[string]string{api.CallerHeader: admin},
			map[string]any{"administrator": admin, "token": tokenID, "mode": "per_account"})
		require.Equal(t, http.StatusCreated, status, string(body))
		assert.Equal(t, admin, poolOf(t, h).Administrator)
	})
}
