package client

import (
	"io"
	"net/http"

	"github.com/go-redis/redis/v9"
)

// Client bundles the third-party service adapters. Each call is one
// HTTP round trip; vendor error bodies are surfaced unchanged.
type Client struct {
	*http.Client
	// Redis backs the Terra read cache. Nil disables caching.
	Redis         *redis.Client
	TerraDevID    string
	TerraAPIKey   string
	TavusAPIKey   string
	StripeKey     string
	PlacesAPIKey  string
	PushServerKey string
	Logger        logger

	// Base URL overrides, empty for the real services. Tests point
	// these at local mock servers.
	TerraBaseURL  string
	TavusBaseURL  string
	StripeBaseURL string
	PlacesBaseURL string
	PushBaseURL   string
}

func (c Client) terraBase() string {
	if c.TerraBaseURL != "" {
		return c.TerraBaseURL
	}
	return terraBaseURL
}

func (c Client) tavusBase() string {
	if c.TavusBaseURL != "" {
		return c.TavusBaseURL
	}
	return tavusBaseURL
}

func (c Client) stripeBase() string {
	if c.StripeBaseURL != "" {
		return c.StripeBaseURL
	}
	return stripeBaseURL
}

func (c Client) placesBase() string {
	if c.PlacesBaseURL != "" {
		return c.PlacesBaseURL
	}
	return placesBaseURL
}

func (c Client) pushBase() string {
	if c.PushBaseURL != "" {
		return c.PushBaseURL
	}
	return pushBaseURL
}

type logger interface {
	Debugf(format string, v ...any)
	Infof(format string, v ...any)
	Errorf(format string, v ...any)
}

func newRequest(method string, url string, body io.Reader) (*http.Request, error) {
	r, err := http.NewRequest(method, url, body)
	if err != nil {
		return nil, err
	}
	r.Header.Set("Accept", "application/json")
	return r, nil
}
