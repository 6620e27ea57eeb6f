package auth

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

const secret = `{
  "installed": {
    "client_id": "12345.apps.googleusercontent.com",
    "client_secret": "shhh",
    "auth_uri": "https://accounts.google.com/o/oauth2/auth",
    "token_uri": "https://oauth2.googleapis.com/token",
    "redirect_uris": ["http://localhost"]
  }
}`

func TestTokenFile(t *testing.T) {
	expected := filepath.Join("/var/gtm", ".google", "credentials.tokens")

	assert.Equal(t, expected, TokenFile("/var/gtm", "/etc/gtm/credentials.json"))
}

func TestSaveAndLoadToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".google", "credentials.tokens")
	token := oauth2.Token{
		AccessToken:  "access",
		TokenType:    "Bearer",
		RefreshToken: "refresh",
		Expiry:       time.Date(2026, time.October, 16, 9, 0, 0, 0, time.UTC),
	}

	require.NoError(t, saveToken(path, &token))

	loaded, err := tokenFromFile(path)

	require.NoError(t, err)
	assert.Equal(t, token.AccessToken, loaded.AccessToken)
	assert.Equal(t, token.RefreshToken, loaded.RefreshToken)
	assert.True(t, token.Expiry.Equal(loaded.Expiry))
}

func TestClientWithoutToken(t *testing.T) {
	dir := t.TempDir()
	credentials := filepath.Join(dir, "credentials.json")
	require.NoError(t, os.WriteFile(credentials, []byte(secret), 0600))

	_, err := Client(context.Background(), credentials, filepath.Join(dir, "missing.tokens"), "https://www.googleapis.com/auth/spreadsheets")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "authorise")
}

func TestClientWithToken(t *testing.T) {
	dir := t.TempDir()
	credentials := filepath.Join(dir, "credentials.json")
	tokens := TokenFile(dir, credentials)

	require.NoError(t, os.WriteFile(credentials, []byte(secret), 0600))
	require.NoError(t, saveToken(tokens, &oauth2.Token{AccessToken: "access", RefreshToken: "refresh"}))

	client, err := Client(context.Background(), credentials, tokens, "https://www.googleapis.com/auth/spreadsheets")

	require.NoError(t, err)
	assert.NotNil(t, client)
}

func TestIsServiceAccount(t *testing.T) {
	assert.True(t, isServiceAccount([]byte(`{"type":"service_account","project_id":"audit"}`)))
	assert.False(t, isServiceAccount([]byte(secret)))
	assert.False(t, isServiceAccount([]byte(`not json`)))
}

func TestAuthoriseWithServiceAccount(t *testing.T) {
	credentials := filepath.Join(t.TempDir(), "key.json")
	require.NoError(t, os.WriteFile(credentials, []byte(`{"type":"service_account"}`), 0600))

	err := Authorise(context.Background(), credentials, "", 0)

	assert.Error(t, err)
}
