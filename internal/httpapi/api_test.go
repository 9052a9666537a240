package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paybackapp/payback/internal/auth"
	"github.com/paybackapp/payback/internal/invites"
	"github.com/paybackapp/payback/internal/metrics"
	"github.com/paybackapp/payback/internal/models"
	"github.com/paybackapp/payback/internal/service"
	"github.com/paybackapp/payback/internal/store"
)

type memoryUserStorage struct {
	byEmail map[string]*models.User
}

func newMemoryUserStorage() *memoryUserStorage {
	return &memoryUserStorage{byEmail: make(map[string]*models.User)}
}

func (m *memoryUserStorage) CreateUser(_ context.Context, user *models.User) error {
	m.byEmail[user.Email] = user
	return nil
}

func (m *memoryUserStorage) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	return m.byEmail[email], nil
}

func (m *memoryUserStorage) GetUserByID(_ context.Context, id string) (*models.User, error) {
	for _, u := range m.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, nil
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	st := store.NewMemoryStore()
	m := metrics.New()
	api := New(Options{
		Store:     st,
		Imports:   service.NewImportService(st, nil, m),
		Friends:   service.NewFriendService(st, nil, time.Minute, m),
		Auth:      auth.NewPasswordAuthenticator(newMemoryUserStorage()),
		Tokens:    auth.NewTokenManager("test-secret", time.Hour),
		Invites:   invites.NewValidator("test-secret"),
		InviteTTL: time.Hour,
		Metrics:   m,
	})

	srv := httptest.NewServer(api.Router())
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, srv *httptest.Server, method, path, token string, body interface{}) (*http.Response, map[string]json.RawMessage) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, srv.URL+path, &buf)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	decoded := make(map[string]json.RawMessage)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func registerAndLogin(t *testing.T, srv *httptest.Server) string {
	t.Helper()

	resp, body := doJSON(t, srv, http.MethodPost, "/v1/auth/register", "", map[string]string{
		"email":    "me@example.com",
		"name":     "Me",
		"password": "correct horse",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var token string
	require.NoError(t, json.Unmarshal(body["token"], &token))
	require.NotEmpty(t, token)
	return token
}

func TestRegisterAndLogin(t *testing.T) {
	srv := newTestServer(t)
	registerAndLogin(t, srv)

	resp, _ := doJSON(t, srv, http.MethodPost, "/v1/auth/register", "", map[string]string{
		"email":    "me@example.com",
		"name":     "Me",
		"password": "correct horse",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, _ = doJSON(t, srv, http.MethodPost, "/v1/auth/login", "", map[string]string{
		"email":    "me@example.com",
		"password": "wrong password",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body := doJSON(t, srv, http.MethodPost, "/v1/auth/login", "", map[string]string{
		"email":    "me@example.com",
		"password": "correct horse",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "token")
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	srv := newTestServer(t)

	resp, _ := doJSON(t, srv, http.MethodGet, "/v1/groups", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

const apiExport = `===PAYBACK_EXPORT===
EXPORTED_AT: 2026-02-15T08:30:00Z
CURRENT_USER_ID: u1

[FRIENDS]
f-bob,Bob,,false,,

[GROUPS]
g1,Ski Trip,2026-01-10T00:00:00Z,false,false

[GROUP_MEMBERS]
g1,u1,Me,
g1,m-bob,Bob,f-bob

[EXPENSES]
e1,g1,Lift tickets,2026-01-12T18:00:00Z,100.00,u1,false

[EXPENSE_INVOLVED]
e1,u1
e1,m-bob

[EXPENSE_SPLITS]
s1,e1,u1,50.00,false
s2,e1,m-bob,50.00,false

===END_PAYBACK_EXPORT===
`

func TestImportThenBalance(t *testing.T) {
	srv := newTestServer(t)
	token := registerAndLogin(t, srv)

	resp, body := doJSON(t, srv, http.MethodPost, "/v1/import", token, map[string]string{"text": apiExport})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var status string
	require.NoError(t, json.Unmarshal(body["status"], &status))
	assert.Equal(t, "success", status)

	var description string
	require.NoError(t, json.Unmarshal(body["description"], &description))
	assert.Equal(t, "Imported 1 friend, 1 group and 1 expense", description)

	resp, body = doJSON(t, srv, http.MethodGet, "/v1/balance?member_id=u1", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var balance string
	require.NoError(t, json.Unmarshal(body["balance"], &balance))
	assert.Equal(t, "50", balance)
}

func TestImportRejectsGarbage(t *testing.T) {
	srv := newTestServer(t)
	token := registerAndLogin(t, srv)

	resp, body := doJSON(t, srv, http.MethodPost, "/v1/import", token, map[string]string{"text": "not an export"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	var status string
	require.NoError(t, json.Unmarshal(body["status"], &status))
	assert.Equal(t, "incompatible_format", status)
}

func TestGroupAndExpenseFlow(t *testing.T) {
	srv := newTestServer(t)
	token := registerAndLogin(t, srv)

	resp, body := doJSON(t, srv, http.MethodPost, "/v1/groups", token, map[string]interface{}{
		"name":         "Flat",
		"member_names": []string{"Me", "Alice"},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var group models.SpendingGroup
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &group))
	require.Len(t, group.Members, 2)

	payer := group.Members[0].ID
	other := group.Members[1].ID

	resp, _ = doJSON(t, srv, http.MethodPost, "/v1/expenses", token, map[string]interface{}{
		"group_id":    group.ID,
		"description": "Groceries",
		"amount":      "30.00",
		"payer_id":    payer,
		"splits": []map[string]interface{}{
			{"member_id": payer, "amount": "15.00"},
			{"member_id": other, "amount": "15.00"},
		},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body = doJSON(t, srv, http.MethodGet, "/v1/groups/"+group.ID+"/balances", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var edges []struct {
		FromID string
		ToID   string
		Amount string
	}
	require.NoError(t, json.Unmarshal(body["settle"], &edges))
	require.Len(t, edges, 1)
	assert.Equal(t, other, edges[0].FromID)
	assert.Equal(t, payer, edges[0].ToID)
	assert.Equal(t, "15", edges[0].Amount)
}

func TestInviteRoundTrip(t *testing.T) {
	srv := newTestServer(t)
	token := registerAndLogin(t, srv)

	resp, body := doJSON(t, srv, http.MethodPost, "/v1/groups", token, map[string]interface{}{"name": "Trip"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var group models.SpendingGroup
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &group))

	resp, body = doJSON(t, srv, http.MethodPost, "/v1/invites", token, map[string]string{"group_id": group.ID})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var inviteToken string
	require.NoError(t, json.Unmarshal(body["token"], &inviteToken))

	resp, _ = doJSON(t, srv, http.MethodPost, "/v1/invites/validate", token, map[string]string{"token": inviteToken})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, srv, http.MethodPost, "/v1/invites/validate", token, map[string]string{"token": "garbage"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}
