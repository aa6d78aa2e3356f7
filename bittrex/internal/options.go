// Copyright (c) 2025 BVK Chaitanya

package internal

import (
	"fmt"
	"net/url"
	"time"
)

var (
	RestURL = url.URL{
		Scheme: "https",
		Host:   "bittrex.com",
		Path:   "/api/v1.1",
	}

	PublicURL = url.URL{
		Scheme: "https",
		Host:   "bittrex.com",
		Path:   "/Api/v2.0",
	}
)

type Options struct {
	// URLs for the v1.1 REST api and the v2 public api.
	RestURL   string
	PublicURL string

	HttpClientTimeout time.Duration

	// RequestsPerSecond limits the rate of all api requests.
	RequestsPerSecond float64

	// RetryDelay is the wait time before retrying a request that failed with
	// an overloaded server status code and no Retry-After header.
	RetryDelay time.Duration
}

func (v *Options) setDefaults() {
	if v.RestURL == "" {
		v.RestURL = RestURL.String()
	}
	if v.PublicURL == "" {
		v.PublicURL = PublicURL.String()
	}
	if v.HttpClientTimeout == 0 {
		v.HttpClientTimeout = 30 * time.Second
	}
	if v.RequestsPerSecond == 0 {
		v.RequestsPerSecond = 1
	}
	if v.RetryDelay == 0 {
		v.RetryDelay = time.Second
	}
}

// Check validates the options.
func (v *Options) Check() error {
	if _, err := url.Parse(v.RestURL); err != nil {
		return fmt.Errorf("invalid rest url: %w", err)
	}
	if _, err := url.Parse(v.PublicURL); err != nil {
		return fmt.Errorf("invalid public url: %w", err)
	}
	if v.HttpClientTimeout <= 0 {
		return fmt.Errorf("http client timeout must be positive")
	}
	if v.RequestsPerSecond <= 0 {
		return fmt.Errorf("requests per second must be positive")
	}
	return nil
}
