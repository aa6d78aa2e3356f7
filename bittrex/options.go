// Copyright (c) 2025 BVK Chaitanya

package bittrex

import (
	"fmt"
	"time"
)

type Options struct {
	// URLs for the v1.1 REST api and the v2 public api. Defaults to the
	// production endpoints.
	RestURL   string
	PublicURL string

	// Timeout to use for the HTTP requests.
	HttpClientTimeout time.Duration

	// RequestsPerSecond limits the api request rate for the account.
	RequestsPerSecond float64
}

func (v *Options) setDefaults() {
	if v.HttpClientTimeout == 0 {
		v.HttpClientTimeout = 30 * time.Second
	}
	if v.RequestsPerSecond == 0 {
		v.RequestsPerSecond = 1
	}
}

// Check validates the options.
func (v *Options) Check() error {
	if v.HttpClientTimeout < 0 {
		return fmt.Errorf("http client timeout cannot be negative")
	}
	if v.RequestsPerSecond < 0 {
		return fmt.Errorf("requests per second cannot be negative")
	}
	return nil
}
