package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/accesslog-scanner/internal/models"
)

// fakeAccountStore is an in-memory AccountStore.
type fakeAccountStore struct {
	accounts map[string]*models.Account
	order    []string
	nextID   int
}

func newFakeAccountStore() *fakeAccountStore {
	return &fakeAccountStore{accounts: map[string]*models.Account{}}
}

func (f *fakeAccountStore) Create(_ context.Context, account *models.Account) error {
	if account.ID == "" {
		f.nextID++
		account.ID = fmt.Sprintf("00000000-0000-4000-8000-%012d", f.nextID)
	}
	f.accounts[account.ID] = account
	f.order = append(f.order, account.ID)
	return nil
}

func (f *fakeAccountStore) GetByID(_ context.Context, id string) (*models.Account, error) {
	account, ok := f.accounts[id]
	if !ok {
		return nil, fmt.Errorf("account not found: %s", id)
	}
	return account, nil
}

func (f *fakeAccountStore) List(_ context.Context, limit, offset int) ([]*models.Account, int64, error) {
	total := int64(len(f.order))
	var page []*models.Account
	for i := offset; i < len(f.order) && i < offset+limit; i++ {
		page = append(page, f.accounts[f.order[i]])
	}
	return page, total, nil
}

func (f *fakeAccountStore) Update(_ context.Context, account *models.Account) error {
	if _, ok := f.accounts[account.ID]; !ok {
		return fmt.Errorf("account not found: %s", account.ID)
	}
	f.accounts[account.ID] = account
	return nil
}

func (f *fakeAccountStore) Delete(_ context.Context, id string) error {
	if _, ok := f.accounts[id]; !ok {
		return fmt.Errorf("account not found: %s", id)
	}
	delete(f.accounts, id)
	for i, existing := range f.order {
		if existing == id {
			f.order = append(f.order[:i], f.order[i+1:]...)
			break
		}
	}
	return nil
}

// fakeTrafficReader reports a fixed traffic total.
type fakeTrafficReader struct {
	total int64
	since time.Time
}

func (f *fakeTrafficReader) TrafficTotalSince(_ context.Context, _ string, since time.Time) (int64, error) {
	f.since = since
	return f.total, nil
}

func newTestServer(store *fakeAccountStore, traffic *fakeTrafficReader) *Server {
	if traffic == nil {
		traffic = &fakeTrafficReader{}
	}
	return NewServer(&ServerConfig{
		Host:           "127.0.0.1",
		Port:           "0",
		RequestsPerSec: 1000,
	}, store, traffic)
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestCreateAccount(t *testing.T) {
	store := newFakeAccountStore()
	server := newTestServer(store, nil)

	rec := doJSON(t, server.Router(), http.MethodPost, "/api/accounts", map[string]interface{}{
		"name":           "Acme Hosting",
		"email":          "ops@acme.example",
		"password":       "opaque",
		"contractType":   "flat",
		"diskQuotaGb":    10,
		"trafficQuotaGb": 100,
	})

	require.Equal(t, http.StatusCreated, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "Acme Hosting", body["name"])
	assert.Equal(t, float64(10), body["diskQuotaGb"])
	assert.Equal(t, float64(100), body["trafficQuotaGb"])
	// Stored quotas are in bytes
	assert.Equal(t, float64(10*(1<<30)), body["diskQuota"])
	// The password never appears in responses
	assert.NotContains(t, body, "password")

	require.Len(t, store.accounts, 1)
	for _, account := range store.accounts {
		assert.Equal(t, int64(10*(1<<30)), account.DiskQuota)
		assert.Equal(t, int64(100*(1<<30)), account.TrafficQuota)
		assert.Equal(t, models.ContractTypeFlat, account.ContractType)
	}
}

func TestCreateAccount_SpecificContractHasNoTrafficQuota(t *testing.T) {
	store := newFakeAccountStore()
	server := newTestServer(store, nil)

	rec := doJSON(t, server.Router(), http.MethodPost, "/api/accounts", map[string]interface{}{
		"name":           "Metered Co",
		"email":          "ops@metered.example",
		"contractType":   "specific",
		"diskQuotaGb":    5,
		"trafficQuotaGb": 100,
	})

	require.Equal(t, http.StatusCreated, rec.Code)

	body := decodeBody(t, rec)
	// Metered contracts ignore the submitted traffic quota entirely
	assert.NotContains(t, body, "trafficQuotaGb")
	for _, account := range store.accounts {
		assert.Equal(t, int64(0), account.TrafficQuota)
	}
}

func TestCreateAccount_Validation(t *testing.T) {
	tests := []struct {
		name    string
		payload map[string]interface{}
	}{
		{
			name:    "missing name",
			payload: map[string]interface{}{"email": "a@b.example"},
		},
		{
			name:    "missing email",
			payload: map[string]interface{}{"name": "No Email"},
		},
		{
			name: "bad contract type",
			payload: map[string]interface{}{
				"name": "Bad", "email": "a@b.example", "contractType": "monthly",
			},
		},
		{
			name: "bad availability date",
			payload: map[string]interface{}{
				"name": "Bad", "email": "a@b.example", "availabledOn": "01/02/2024",
			},
		},
	}

	server := newTestServer(newFakeAccountStore(), nil)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, server.Router(), http.MethodPost, "/api/accounts", tt.payload)
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			body := decodeBody(t, rec)
			errObj, ok := body["error"].(map[string]interface{})
			require.True(t, ok, "error envelope missing: %v", body)
			assert.Equal(t, "INVALID_INPUT", errObj["code"])
		})
	}
}

func TestCreateAccount_DefaultsToFlatContract(t *testing.T) {
	store := newFakeAccountStore()
	server := newTestServer(store, nil)

	rec := doJSON(t, server.Router(), http.MethodPost, "/api/accounts", map[string]interface{}{
		"name":  "Defaults",
		"email": "d@d.example",
	})

	require.Equal(t, http.StatusCreated, rec.Code)
	for _, account := range store.accounts {
		assert.Equal(t, models.ContractTypeFlat, account.ContractType)
	}
}

func TestGetAccount(t *testing.T) {
	store := newFakeAccountStore()
	server := newTestServer(store, nil)

	created := doJSON(t, server.Router(), http.MethodPost, "/api/accounts", map[string]interface{}{
		"name": "Acme", "email": "a@acme.example",
	})
	require.Equal(t, http.StatusCreated, created.Code)
	id := decodeBody(t, created)["id"].(string)

	rec := doJSON(t, server.Router(), http.MethodGet, "/api/accounts/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Acme", decodeBody(t, rec)["name"])

	missing := doJSON(t, server.Router(), http.MethodGet, "/api/accounts/does-not-exist", nil)
	assert.Equal(t, http.StatusNotFound, missing.Code)
}

func TestUpdateAccount(t *testing.T) {
	store := newFakeAccountStore()
	server := newTestServer(store, nil)

	created := doJSON(t, server.Router(), http.MethodPost, "/api/accounts", map[string]interface{}{
		"name": "Before", "email": "b@b.example", "diskQuotaGb": 1,
	})
	id := decodeBody(t, created)["id"].(string)

	rec := doJSON(t, server.Router(), http.MethodPut, "/api/accounts/"+id, map[string]interface{}{
		"name": "After", "email": "b@b.example", "diskQuotaGb": 2,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, "After", store.accounts[id].Name)
	assert.Equal(t, int64(2*(1<<30)), store.accounts[id].DiskQuota)

	missing := doJSON(t, server.Router(), http.MethodPut, "/api/accounts/nope", map[string]interface{}{
		"name": "X", "email": "x@x.example",
	})
	assert.Equal(t, http.StatusNotFound, missing.Code)
}

func TestDeleteAccount(t *testing.T) {
	store := newFakeAccountStore()
	server := newTestServer(store, nil)

	created := doJSON(t, server.Router(), http.MethodPost, "/api/accounts", map[string]interface{}{
		"name": "Doomed", "email": "d@d.example",
	})
	id := decodeBody(t, created)["id"].(string)

	rec := doJSON(t, server.Router(), http.MethodDelete, "/api/accounts/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, store.accounts)

	again := doJSON(t, server.Router(), http.MethodDelete, "/api/accounts/"+id, nil)
	assert.Equal(t, http.StatusNotFound, again.Code)
}

func TestListAccounts_Pagination(t *testing.T) {
	store := newFakeAccountStore()
	server := newTestServer(store, nil)

	for i := 0; i < 35; i++ {
		rec := doJSON(t, server.Router(), http.MethodPost, "/api/accounts", map[string]interface{}{
			"name":  fmt.Sprintf("Account %02d", i),
			"email": fmt.Sprintf("a%02d@x.example", i),
		})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	first := doJSON(t, server.Router(), http.MethodGet, "/api/accounts", nil)
	require.Equal(t, http.StatusOK, first.Code)
	body := decodeBody(t, first)
	assert.Len(t, body["accounts"], 30)
	pagination := body["pagination"].(map[string]interface{})
	assert.Equal(t, float64(1), pagination["page"])
	assert.Equal(t, float64(35), pagination["total"])

	second := doJSON(t, server.Router(), http.MethodGet, "/api/accounts?page=2", nil)
	require.Equal(t, http.StatusOK, second.Code)
	assert.Len(t, decodeBody(t, second)["accounts"], 5)

	bad := doJSON(t, server.Router(), http.MethodGet, "/api/accounts?page=0", nil)
	assert.Equal(t, http.StatusBadRequest, bad.Code)
}

func TestGetAccountTraffic(t *testing.T) {
	store := newFakeAccountStore()
	traffic := &fakeTrafficReader{total: 3 * (1 << 30)}
	server := newTestServer(store, traffic)

	created := doJSON(t, server.Router(), http.MethodPost, "/api/accounts", map[string]interface{}{
		"name": "Acme", "email": "a@acme.example",
	})
	id := decodeBody(t, created)["id"].(string)

	rec := doJSON(t, server.Router(), http.MethodGet, "/api/accounts/"+id+"/traffic?since=2024-01-01", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, float64(3*(1<<30)), body["traffic"])
	assert.Equal(t, float64(3), body["trafficGb"])
	assert.Equal(t, "2024-01-01", body["since"])
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.Local), traffic.since)

	bad := doJSON(t, server.Router(), http.MethodGet, "/api/accounts/"+id+"/traffic?since=Jan-1", nil)
	assert.Equal(t, http.StatusBadRequest, bad.Code)
}

func TestHealthEndpoint(t *testing.T) {
	server := newTestServer(newFakeAccountStore(), nil)

	rec := doJSON(t, server.Router(), http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", decodeBody(t, rec)["status"])
}
