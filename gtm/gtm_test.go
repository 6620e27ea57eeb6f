package gtm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(context.Background(), option.WithEndpoint(srv.URL+"/"), option.WithoutAuthentication())
	require.NoError(t, err)

	return client
}

func reply(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func TestAccountsFollowsPageTokens(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, rq *http.Request) {
		if !strings.HasSuffix(rq.URL.Path, "/tagmanager/v2/accounts") {
			http.NotFound(w, rq)
			return
		}

		switch rq.URL.Query().Get("pageToken") {
		case "":
			reply(w, map[string]any{
				"account": []map[string]any{
					{"accountId": "1001", "name": "Acme"},
					{"accountId": "1002", "name": "Globex"},
				},
				"nextPageToken": "page-2",
			})

		case "page-2":
			reply(w, map[string]any{
				"account": []map[string]any{
					{"accountId": "1003", "name": "Initech"},
				},
			})

		default:
			http.Error(w, "bad page token", http.StatusBadRequest)
		}
	})

	accounts, err := client.Accounts(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []Account{
		{ID: "1001", Name: "Acme"},
		{ID: "1002", Name: "Globex"},
		{ID: "1003", Name: "Initech"},
	}, accounts)
}

func TestAccountsWithNoAccounts(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, rq *http.Request) {
		reply(w, map[string]any{})
	})

	accounts, err := client.Accounts(context.Background())

	require.NoError(t, err)
	assert.Empty(t, accounts)
}

func TestAccountsError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, rq *http.Request) {
		http.Error(w, `{"error":{"code":403,"message":"forbidden"}}`, http.StatusForbidden)
	})

	_, err := client.Accounts(context.Background())

	assert.Error(t, err)
}

func TestPermissions(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, rq *http.Request) {
		if !strings.HasSuffix(rq.URL.Path, "/tagmanager/v2/accounts/1001/user_permissions") {
			http.NotFound(w, rq)
			return
		}

		reply(w, map[string]any{
			"userPermission": []map[string]any{
				{"emailAddress": "alice@example.com", "accountAccess": map[string]any{"permission": "admin"}},
				{"emailAddress": "bob@example.com", "accountAccess": map[string]any{"permission": "user"}},
				{"emailAddress": "carol@example.com"},
			},
		})
	})

	permissions, err := client.Permissions(context.Background(), "1001")

	require.NoError(t, err)
	assert.Equal(t, []Permission{
		{Email: "alice@example.com", Access: "admin"},
		{Email: "bob@example.com", Access: "user"},
		{Email: "carol@example.com", Access: ""},
	}, permissions)

	assert.True(t, permissions[0].IsAdmin())
	assert.False(t, permissions[1].IsAdmin())
	assert.False(t, permissions[2].IsAdmin())
}

func TestPermissionsWithMissingAccountID(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, rq *http.Request) {
		t.Errorf("unexpected request %v", rq.URL)
	})

	_, err := client.Permissions(context.Background(), "")

	assert.Error(t, err)
}

func TestPermissionsError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, rq *http.Request) {
		http.Error(w, `{"error":{"code":403,"message":"insufficient permissions"}}`, http.StatusForbidden)
	})

	_, err := client.Permissions(context.Background(), "1001")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "1001")
}
