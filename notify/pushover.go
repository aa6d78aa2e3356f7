// Copyright (c) 2023 BVK Chaitanya

package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

var PushoverURL = url.URL{
	Scheme: "https",
	Host:   "api.pushover.net",
	Path:   "/1/messages.json",
}

type PushoverKeys struct {
	ApplicationKey string `json:"application_key" yaml:"applicationKey"`
	UserKey        string `json:"user_key" yaml:"userKey"`
}

func (v *PushoverKeys) Check() error {
	if len(v.ApplicationKey) == 0 {
		return fmt.Errorf("application key cannot be empty")
	}
	if len(v.UserKey) == 0 {
		return fmt.Errorf("user key cannot be empty")
	}
	return nil
}

type Pushover struct {
	token      string
	user       string
	addrURL    string
	httpClient *http.Client
}

// NewPushover creates a pushover notifier. Input url can be empty to use the
// default service endpoint.
func NewPushover(keys *PushoverKeys, addrURL string) (*Pushover, error) {
	if err := keys.Check(); err != nil {
		return nil, err
	}
	if len(addrURL) == 0 {
		addrURL = PushoverURL.String()
	}
	c := &Pushover{
		token:      keys.ApplicationKey,
		user:       keys.UserKey,
		addrURL:    addrURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	return c, nil
}

func (c *Pushover) SendMessage(ctx context.Context, at time.Time, msg string) error {
	type Message struct {
		Token     string `json:"token"`
		User      string `json:"user"`
		Message   string `json:"message"`
		Timestamp int64  `json:"timestamp"`
	}
	m := &Message{
		Token:     c.token,
		User:      c.user,
		Timestamp: at.Unix(),
		Message:   msg,
	}
	var msgbuf bytes.Buffer
	if err := json.NewEncoder(&msgbuf).Encode(m); err != nil {
		return fmt.Errorf("could not json-encode message: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.addrURL, &msgbuf)
	if err != nil {
		return fmt.Errorf("could not create post request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("could not perform post request: %w", err)
	}
	defer resp.Body.Close()
	type Response struct {
		Status  int      `json:"status"`
		Request string   `json:"request"`
		Errors  []string `json:"errors"`
	}
	r := new(Response)
	if err := json.NewDecoder(resp.Body).Decode(r); err != nil {
		return fmt.Errorf("could not json-decode response for http-status %d: %w", resp.StatusCode, err)
	}
	if r.Status != 1 {
		if len(r.Errors) != 0 {
			return fmt.Errorf("send failed with http-status %d and error: %w", resp.StatusCode, errors.New(r.Errors[0]))
		}
		return fmt.Errorf("send failed with http-status %d and zero response-status code (%#v)", resp.StatusCode, *r)
	}
	return nil
}
