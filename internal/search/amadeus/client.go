// Package amadeus is a search provider backed by the Amadeus Self-Service
// Flight Offers Search API.
package amadeus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"raton/internal/flight"
	"raton/internal/offer"
	"raton/internal/search"
	logx "raton/pkg/logx"
)

const (
	TestBaseURL       = "https://test.api.amadeus.com"
	ProductionBaseURL = "https://api.amadeus.com"

	tokenPath  = "/v1/security/oauth2/token"
	offersPath = "/v2/shopping/flight-offers"

	// tokenSkew refreshes the token slightly before the server expires it.
	tokenSkew = 30 * time.Second

	maxErrorBody = 64 << 10
)

type Config struct {
	APIKey    string
	APISecret string
	// Hostname is "test" or "production". BaseURL wins when set.
	Hostname   string
	BaseURL    string
	Timeout    time.Duration
	MaxResults int
}

// ResolveBaseURL returns the API root for cfg.
func (c Config) ResolveBaseURL() (string, error) {
	if s := strings.TrimSpace(c.BaseURL); s != "" {
		return strings.TrimRight(s, "/"), nil
	}
	switch strings.ToLower(strings.TrimSpace(c.Hostname)) {
	case "", "test":
		return TestBaseURL, nil
	case "production":
		return ProductionBaseURL, nil
	default:
		return "", fmt.Errorf("amadeus: unknown hostname %q (want test or production)", c.Hostname)
	}
}

// Client is safe for concurrent use. The access token is shared and
// refreshed under a mutex.
type Client struct {
	base       string
	key        string
	secret     string
	maxResults int
	http       *http.Client
	log        logx.Logger
	now        func() time.Time

	mu      sync.Mutex
	token   string
	expires time.Time
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

func New(cfg Config, log logx.Logger, opts ...Option) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" || strings.TrimSpace(cfg.APISecret) == "" {
		return nil, errors.New("amadeus: api key and secret are required")
	}
	base, err := cfg.ResolveBaseURL()
	if err != nil {
		return nil, err
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = search.DefaultMaxResults
	}
	c := &Client{
		base:       base,
		key:        cfg.APIKey,
		secret:     cfg.APISecret,
		maxResults: maxResults,
		http:       &http.Client{Timeout: timeout},
		log:        log.With(logx.String("comp", "amadeus")),
		now:        time.Now,
	}
	for _, o := range opts {
		if o != nil {
			o(c)
		}
	}
	return c, nil
}

// Search returns the raw offers for req. Every failure is a *search.Error.
func (c *Client) Search(ctx context.Context, req search.Request) ([]offer.Raw, error) {
	if err := req.Validate(); err != nil {
		return nil, search.Errorf(search.KindAPI, err, "invalid request")
	}
	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	u := c.base + offersPath + "?" + c.query(req).Encode()
	hreq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, search.Errorf(search.KindAPI, err, "build request")
	}
	hreq.Header.Set("Authorization", "Bearer "+token)
	hreq.Header.Set("Accept", "application/vnd.amadeus+json, application/json")

	started := c.now()
	resp, err := c.http.Do(hreq)
	if err != nil {
		return nil, search.Errorf(search.KindNetwork, err, "GET %s", offersPath)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		if resp.StatusCode == http.StatusUnauthorized {
			c.invalidateToken()
		}
		return nil, statusError(resp)
	}

	var env struct {
		Data []json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, search.Errorf(search.KindAPI, err, "decode response")
	}
	out := make([]offer.Raw, 0, len(env.Data))
	for _, d := range env.Data {
		out = append(out, offer.Raw(d))
	}
	c.log.Debug("search done",
		logx.String("route", req.String()),
		logx.Int("offers", len(out)),
		logx.Duration("took", c.now().Sub(started)),
	)
	return out, nil
}

func (c *Client) query(req search.Request) url.Values {
	q := url.Values{}
	q.Set("originLocationCode", req.Origin)
	q.Set("destinationLocationCode", req.Destination)
	q.Set("departureDate", req.DepartureDate.Format(flight.DateLayout))
	if req.ReturnDate != nil {
		q.Set("returnDate", req.ReturnDate.Format(flight.DateLayout))
	}
	q.Set("adults", strconv.Itoa(req.Adults))
	limit := req.MaxResults
	if limit <= 0 {
		limit = c.maxResults
	}
	q.Set("max", strconv.Itoa(limit))
	if req.CabinClass != "" {
		q.Set("travelClass", strings.ToUpper(string(req.CabinClass)))
	}
	if req.NonStop {
		q.Set("nonStop", "true")
	}
	return q
}

func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" && c.now().Before(c.expires) {
		return c.token, nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", c.key)
	form.Set("client_secret", c.secret)
	hreq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+tokenPath, strings.NewReader(form.Encode()))
	if err != nil {
		return "", search.Errorf(search.KindAPI, err, "build token request")
	}
	hreq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(hreq)
	if err != nil {
		return "", search.Errorf(search.KindNetwork, err, "POST %s", tokenPath)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		e := statusError(resp)
		// The token endpoint answers bad credentials with 400 invalid_client.
		if resp.StatusCode == http.StatusBadRequest {
			e.Kind = search.KindAuth
		}
		return "", e
	}

	var tok struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return "", search.Errorf(search.KindAPI, err, "decode token")
	}
	if tok.AccessToken == "" {
		return "", search.Errorf(search.KindAuth, nil, "empty access token")
	}
	ttl := time.Duration(tok.ExpiresIn)*time.Second - tokenSkew
	if ttl < 0 {
		ttl = 0
	}
	c.token = tok.AccessToken
	c.expires = c.now().Add(ttl)
	c.log.Debug("access token refreshed", logx.Duration("ttl", ttl))
	return c.token, nil
}

func (c *Client) invalidateToken() {
	c.mu.Lock()
	c.token = ""
	c.expires = time.Time{}
	c.mu.Unlock()
}

type apiError struct {
	Status int    `json:"status"`
	Code   int    `json:"code"`
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

// statusError classifies a non-2xx response and carries the first
// Amadeus error title/detail when the body has one.
func statusError(resp *http.Response) *search.Error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	msg := fmt.Sprintf("status %d", resp.StatusCode)

	var env struct {
		Errors           []apiError `json:"errors"`
		Error            string     `json:"error"`
		ErrorDescription string     `json:"error_description"`
	}
	if json.Unmarshal(body, &env) == nil {
		switch {
		case len(env.Errors) > 0:
			e := env.Errors[0]
			if d := strings.TrimSpace(strings.Join(nonEmpty(e.Title, e.Detail), ": ")); d != "" {
				msg += " (" + d + ")"
			}
		case env.Error != "":
			msg += " (" + strings.Join(nonEmpty(env.Error, env.ErrorDescription), ": ") + ")"
		}
	}
	return &search.Error{Kind: search.KindForStatus(resp.StatusCode), Status: resp.StatusCode, Msg: msg}
}

func nonEmpty(ss ...string) []string {
	out := ss[:0:0]
	for _, s := range ss {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
