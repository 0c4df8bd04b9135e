package calendar

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const calendarScope = "https://www.googleapis.com/auth/calendar"

// newTokenSource loads a service-account key file and returns a
// caching token source minting access tokens for the calendar scope.
// Token requests go through httpClient.
func newTokenSource(path string, httpClient *http.Client) (oauth2.TokenSource, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read credentials file: %w", err)
	}

	cfg, err := google.JWTConfigFromJSON(raw, calendarScope)
	if err != nil {
		return nil, fmt.Errorf("parse credentials file: %w", err)
	}

	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, httpClient)
	return cfg.TokenSource(ctx), nil
}
