package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	SHEETS = "https://www.googleapis.com/auth/spreadsheets.readonly"
	DRIVE  = "https://www.googleapis.com/auth/drive.readonly"
)

var scopes = []string{SHEETS, DRIVE}

// authorize returns an HTTP client for the Google APIs. Service account credentials
// are used as is, OAuth client credentials require a token previously saved by the
// 'authorise' command.
func authorize(ctx context.Context, credentials, workdir string) (*http.Client, error) {
	b, err := os.ReadFile(credentials)
	if err != nil {
		return nil, err
	}

	if isServiceAccount(b) {
		jwt, err := google.JWTConfigFromJSON(b, scopes...)
		if err != nil {
			return nil, err
		}

		return jwt.Client(ctx), nil
	}

	config, err := google.ConfigFromJSON(b, scopes...)
	if err != nil {
		return nil, err
	}

	tokens := tokenFile(credentials, workdir)
	token, err := tokenFromFile(tokens)
	if err != nil {
		return nil, fmt.Errorf("no authorisation token in %v - run '%v authorise' first (%w)", tokens, APP, err)
	}

	return config.Client(ctx, token), nil
}

func isServiceAccount(credentials []byte) bool {
	var v struct {
		Type string `json:"type"`
	}

	return json.Unmarshal(credentials, &v) == nil && v.Type == "service_account"
}

func tokenFile(credentials, workdir string) string {
	_, file := filepath.Split(credentials)
	name := strings.TrimSuffix(file, filepath.Ext(file))

	return filepath.Join(workdir, ".google", fmt.Sprintf("%s.tokens", name))
}

// Retrieves a token from a local file.
func tokenFromFile(file string) (*oauth2.Token, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	token := &oauth2.Token{}
	err = json.NewDecoder(f).Decode(token)

	return token, err
}

// Saves a token to a file path.
func saveToken(file string, token *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(file), 0700); err != nil {
		return err
	}

	f, err := os.OpenFile(file, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("unable to cache oauth token (%w)", err)
	}
	defer f.Close()

	return json.NewEncoder(f).Encode(token)
}
