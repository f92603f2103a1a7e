package calendar

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
)

// Scopes requested for sync.
var Scopes = []string{gcal.CalendarEventsScope, gcal.CalendarReadonlyScope}

// OAuthConfig reads a Google client secrets file.
func OAuthConfig(credentialsFile string) (*oauth2.Config, error) {
	b, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read client secret file %s: %w", credentialsFile, err)
	}
	cfg, err := google.ConfigFromJSON(b, Scopes...)
	if err != nil {
		return nil, fmt.Errorf("parse client secret file: %w", err)
	}
	if cfg.RedirectURL == "" {
		cfg.RedirectURL = "urn:ietf:wg:oauth:2.0:oob"
	}
	return cfg, nil
}

// Authorize runs the copy/paste code flow: the consent URL is written to out
// and the code read from in. The token is cached at tokenFile.
func Authorize(ctx context.Context, cfg *oauth2.Config, tokenFile string, in io.Reader, out io.Writer) (*oauth2.Token, error) {
	url := cfg.AuthCodeURL("compass", oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	fmt.Fprintf(out, "Open this URL, approve access, then paste the code:\n%s\n> ", url)

	code, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("read auth code: %w", err)
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, fmt.Errorf("no auth code entered")
	}

	tok, err := cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange auth code: %w", err)
	}
	if err := SaveToken(tokenFile, tok); err != nil {
		return nil, err
	}
	return tok, nil
}

// Client returns an HTTP client from the cached token. It does not start an
// interactive flow; run Authorize first.
func Client(ctx context.Context, cfg *oauth2.Config, tokenFile string) (*http.Client, error) {
	tok, err := LoadToken(tokenFile)
	if err != nil {
		return nil, fmt.Errorf("no calendar token (run `compass sync --auth`): %w", err)
	}
	src := cfg.TokenSource(ctx, tok)
	fresh, err := src.Token()
	if err != nil {
		return nil, fmt.Errorf("refresh calendar token: %w", err)
	}
	if fresh.AccessToken != tok.AccessToken || fresh.RefreshToken != tok.RefreshToken {
		if err := SaveToken(tokenFile, fresh); err != nil {
			return nil, err
		}
	}
	return oauth2.NewClient(ctx, oauth2.ReuseTokenSource(fresh, src)), nil
}

func LoadToken(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(tok); err != nil {
		return nil, fmt.Errorf("decode token: %w", err)
	}
	return tok, nil
}

func SaveToken(path string, tok *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create token dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("open token file: %w", err)
	}
	defer f.Close()
	if err := json.NewEncoder(f).Encode(tok); err != nil {
		return fmt.Errorf("encode token: %w", err)
	}
	return nil
}
