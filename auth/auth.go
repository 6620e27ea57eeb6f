// Package auth creates authorised HTTP clients for the Google APIs, from either a
// service account key or an OAuth2 client secret with a cached token file.
package auth

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/net/context"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const SERVICE_ACCOUNT = "service_account"

// Client returns an HTTP client authorised for the scopes. A service account key
// is used as is, otherwise the OAuth2 token previously saved by Authorise is used.
func Client(ctx context.Context, credentials string, tokens string, scopes ...string) (*http.Client, error) {
	b, err := os.ReadFile(credentials)
	if err != nil {
		return nil, err
	}

	if isServiceAccount(b) {
		creds, err := google.CredentialsFromJSON(ctx, b, scopes...)
		if err != nil {
			return nil, fmt.Errorf("invalid service account key (%w)", err)
		}

		return oauth2.NewClient(ctx, creds.TokenSource), nil
	}

	config, err := google.ConfigFromJSON(b, scopes...)
	if err != nil {
		return nil, err
	}

	token, err := tokenFromFile(tokens)
	if err != nil {
		return nil, fmt.Errorf("no OAuth2 token in %v - run 'authorise' first (%w)", tokens, err)
	}

	return config.Client(ctx, token), nil
}

// TokenFile returns the path of the token file for the credentials, e.g.
// <workdir>/.google/credentials.tokens.
func TokenFile(workdir string, credentials string) string {
	_, file := filepath.Split(credentials)
	name := strings.TrimSuffix(file, filepath.Ext(file))

	return filepath.Join(workdir, ".google", fmt.Sprintf("%s.tokens", name))
}

// Authorise runs the OAuth2 consent flow for an installed application: it prints
// the consent URL, waits for the redirect to a local HTTP listener and saves the
// exchanged token to the tokens file.
func Authorise(ctx context.Context, credentials string, tokens string, port int, scopes ...string) error {
	b, err := os.ReadFile(credentials)
	if err != nil {
		return err
	}

	if isServiceAccount(b) {
		return fmt.Errorf("%v is a service account key and does not need to be authorised", credentials)
	}

	config, err := google.ConfigFromJSON(b, scopes...)
	if err != nil {
		return err
	}

	listener, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%v", port))
	if err != nil {
		return err
	}

	config.RedirectURL = fmt.Sprintf("http://localhost:%v", listener.Addr().(*net.TCPAddr).Port)

	state := "state-token"
	authorised := make(chan string, 1)
	mux := http.NewServeMux()

	mux.HandleFunc("/", func(w http.ResponseWriter, rq *http.Request) {
		code := rq.FormValue("code")

		if rq.FormValue("state") != state || code == "" {
			http.Error(w, "Invalid authorisation response", http.StatusBadRequest)
			return
		}

		fmt.Fprintln(w, "Authorised - you can close this page")

		select {
		case authorised <- code:
		default:
		}
	})

	srv := &http.Server{
		Handler: mux,
	}

	go func() {
		if err := srv.Serve(listener); err != nil && err != http.ErrServerClosed {
			fmt.Printf("ERROR: %v\n", err)
		}
	}()

	defer srv.Shutdown(context.Background())

	fmt.Printf("Go to the following link in your browser to authorise access:\n\n%v\n\n", config.AuthCodeURL(state, oauth2.AccessTypeOffline))

	select {
	case <-ctx.Done():
		return ctx.Err()

	case code := <-authorised:
		token, err := config.Exchange(ctx, code)
		if err != nil {
			return fmt.Errorf("unable to retrieve token from web (%w)", err)
		}

		return saveToken(tokens, token)
	}
}

func isServiceAccount(b []byte) bool {
	var key struct {
		Type string `json:"type"`
	}

	return json.Unmarshal(b, &key) == nil && key.Type == SERVICE_ACCOUNT
}

// Retrieves a token from a local file.
func tokenFromFile(file string) (*oauth2.Token, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}

	defer f.Close()

	token := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(token); err != nil {
		return nil, err
	}

	return token, nil
}

// Saves a token to a file path.
func saveToken(path string, token *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("unable to cache OAuth2 token (%w)", err)
	}

	defer f.Close()

	fmt.Printf("Saving OAuth2 token to: %s\n", path)

	return json.NewEncoder(f).Encode(token)
}
