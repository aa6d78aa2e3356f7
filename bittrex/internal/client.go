// Copyright (c) 2025 BVK Chaitanya

package internal

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/bvk/refresher/ctxutil"
	"golang.org/x/time/rate"
)

type Client struct {
	opts Options

	client http.Client

	key, secret string

	restURL   *url.URL
	publicURL *url.URL

	limiter *rate.Limiter
}

// New returns a new client instance.
func New(key, secret string, opts *Options) (*Client, error) {
	if opts == nil {
		opts = new(Options)
	}
	opts.setDefaults()
	if err := opts.Check(); err != nil {
		return nil, err
	}
	restURL, _ := url.Parse(opts.RestURL)
	publicURL, _ := url.Parse(opts.PublicURL)

	c := &Client{
		opts:      *opts,
		key:       key,
		secret:    secret,
		restURL:   restURL,
		publicURL: publicURL,
		client: http.Client{
			Timeout: opts.HttpClientTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1),
	}
	return c, nil
}

// Close releases resources and destroys the client instance.
func (c *Client) Close() error {
	c.client.CloseIdleConnections()
	return nil
}

func (c *Client) GetOpenOrders(ctx context.Context) (*GetOpenOrdersResponse, error) {
	addrURL := c.restURL.JoinPath("market/getopenorders")
	resp := new(GetOpenOrdersResponse)
	if err := privateGetJSON(ctx, c, addrURL, nil, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) Cancel(ctx context.Context, uuid string) (*CancelResponse, error) {
	addrURL := c.restURL.JoinPath("market/cancel")
	values := make(url.Values)
	values.Set("uuid", uuid)
	resp := new(CancelResponse)
	if err := privateGetJSON(ctx, c, addrURL, values, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) GetOrder(ctx context.Context, uuid string) (*GetOrderResponse, error) {
	addrURL := c.restURL.JoinPath("account/getorder")
	values := make(url.Values)
	values.Set("uuid", uuid)
	resp := new(GetOrderResponse)
	if err := privateGetJSON(ctx, c, addrURL, values, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// LimitOrderRequest holds the parameters for buylimit and selllimit calls.
// Condition fields are optional.
type LimitOrderRequest struct {
	Market   string
	Quantity string
	Rate     string

	Condition       string
	ConditionTarget string
}

func (v *LimitOrderRequest) values() url.Values {
	values := make(url.Values)
	values.Set("market", v.Market)
	values.Set("quantity", v.Quantity)
	values.Set("rate", v.Rate)
	if len(v.Condition) != 0 {
		values.Set("IsConditional", "true")
		values.Set("Condition", v.Condition)
		values.Set("ConditionTarget", v.ConditionTarget)
	}
	return values
}

func (c *Client) BuyLimit(ctx context.Context, req *LimitOrderRequest) (*LimitOrderResponse, error) {
	addrURL := c.restURL.JoinPath("market/buylimit")
	resp := new(LimitOrderResponse)
	if err := privateGetJSON(ctx, c, addrURL, req.values(), resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) SellLimit(ctx context.Context, req *LimitOrderRequest) (*LimitOrderResponse, error) {
	addrURL := c.restURL.JoinPath("market/selllimit")
	resp := new(LimitOrderResponse)
	if err := privateGetJSON(ctx, c, addrURL, req.values(), resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// GetTicks returns the historical candles for a market from the public api.
func (c *Client) GetTicks(ctx context.Context, market, interval string) (*GetTicksResponse, error) {
	addrURL := c.publicURL.JoinPath("pub/market/GetTicks")
	values := make(url.Values)
	values.Set("marketName", market)
	values.Set("tickInterval", interval)
	addrURL.RawQuery = values.Encode()

	resp := new(GetTicksResponse)
	if err := httpGetJSON(ctx, c, addrURL, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// Sign returns the hex encoded HMAC-SHA512 signature for the request uri.
func Sign(secret, uri string) string {
	hash := hmac.New(sha512.New, []byte(secret))
	io.WriteString(hash, uri)
	return hex.EncodeToString(hash.Sum(nil))
}

func privateGetJSON[PT *T, T any](ctx context.Context, c *Client, addrURL *url.URL, values url.Values, response PT) error {
	newRequest := func() (*http.Request, error) {
		if values == nil {
			values = make(url.Values)
		}
		values.Set("apikey", c.key)
		values.Set("nonce", strconv.FormatInt(time.Now().UnixMilli(), 10))
		u := *addrURL
		u.RawQuery = values.Encode()

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return nil, err
		}
		req.Header.Add("apisign", Sign(c.secret, u.String()))
		return req, nil
	}
	return doJSON(ctx, c, addrURL, newRequest, response)
}

func httpGetJSON[PT *T, T any](ctx context.Context, c *Client, addrURL *url.URL, response PT) error {
	newRequest := func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, addrURL.String(), nil)
	}
	return doJSON(ctx, c, addrURL, newRequest, response)
}

// doJSON performs an http request and decodes the json response. Requests
// that fail with overloaded server status codes are retried till the context
// expires. A new request is created for every attempt so that signed requests
// carry a fresh nonce.
func doJSON[PT *T, T any](ctx context.Context, c *Client, addrURL *url.URL, newRequest func() (*http.Request, error), response PT) error {
	for {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		req, err := newRequest()
		if err != nil {
			slog.Error("could not create http request object with context", "path", addrURL.Path, "err", err)
			return err
		}

		s := time.Now()
		resp, err := c.client.Do(req)
		if d := time.Since(s); d > c.opts.HttpClientTimeout {
			slog.Warn(fmt.Sprintf("get request took %s which is more than the http client timeout %s", d, c.opts.HttpClientTimeout))
		}
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				slog.Error("could not perform http get request", "path", addrURL.Path, "err", err)
			}
			return err
		}

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			slog.Warn("http get returned unsuccessful status code", "path", addrURL.Path, "status-code", resp.StatusCode, "body", string(body))

			switch resp.StatusCode {
			case http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable:
				timeout := c.opts.RetryDelay
				if x := resp.Header.Get("Retry-After"); len(x) != 0 {
					if v, err := strconv.Atoi(x); err == nil {
						timeout = time.Duration(v) * time.Second
					}
				}
				if err := ctxutil.Sleep(ctx, timeout); err != nil {
					return err
				}
				continue
			}
			return fmt.Errorf("http GET returned %d", resp.StatusCode)
		}

		err = json.NewDecoder(resp.Body).Decode(response)
		resp.Body.Close()
		if err != nil {
			slog.Error("could not decode response to json", "path", addrURL.Path, "err", err)
			return err
		}
		return nil
	}
}
