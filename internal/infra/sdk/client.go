// Package sdk implements the HTTP client for the MateBot core REST API.
package sdk

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"matebot-telegram/internal/config"
	"matebot-telegram/internal/domain/model"
	"matebot-telegram/internal/domain/ports/adapter"
	"matebot-telegram/internal/infra/metrics"
)

const defaultUserAgent = "matebot-telegram/1.0"

// tokenGrace triggers a proactive re-login shortly before the access token
// expires.
const tokenGrace = 30 * time.Second

var _ adapter.MateBotClient = (*Client)(nil)

// Client talks to the MateBot core API. It logs in with the application
// credentials, keeps the bearer token fresh and retries exactly once on 401.
type Client struct {
	baseURL   string
	app       string
	password  string
	userAgent string
	http      *http.Client
	log       *zerolog.Logger

	mu       sync.Mutex
	token    string
	tokenExp time.Time
	appID    int64
}

func New(cfg *config.Config, logger *zerolog.Logger) (*Client, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	tlsCfg := &tls.Config{}
	if !cfg.SSLVerify {
		tlsCfg.InsecureSkipVerify = true
	}
	if cfg.CAPath != "" {
		pem, err := os.ReadFile(cfg.CAPath)
		if err != nil {
			return nil, fmt.Errorf("read CA file: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("no certificates found in %s", cfg.CAPath)
		}
		tlsCfg.RootCAs = pool
	}
	transport.TLSClientConfig = tlsCfg

	ua := cfg.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}

	return &Client{
		baseURL:   strings.TrimRight(cfg.Server, "/"),
		app:       cfg.Application,
		password:  cfg.Password,
		userAgent: ua,
		http:      &http.Client{Transport: transport, Timeout: 30 * time.Second},
		log:       logger,
	}, nil
}

// Login authenticates with the application credentials and resolves the own
// application ID. It must be called once before using the typed operations;
// subsequent token refreshes happen automatically.
func (c *Client) Login(ctx context.Context) error {
	if err := c.login(ctx); err != nil {
		return err
	}

	// Querying the settings requires valid auth, so this doubles as a check
	// that the token actually works.
	if _, err := c.Settings(ctx); err != nil {
		return fmt.Errorf("verify authentication: %w", err)
	}

	apps := []model.Application{}
	q := url.Values{"name": {c.app}}
	if err := c.do(ctx, http.MethodGet, "/v1/applications", q, nil, &apps); err != nil {
		return fmt.Errorf("resolve application ID: %w", err)
	}
	if len(apps) != 1 {
		return fmt.Errorf("expected exactly one application named %q, got %d", c.app, len(apps))
	}
	c.mu.Lock()
	c.appID = apps[0].ID
	c.mu.Unlock()
	return nil
}

// AppID returns the own application ID resolved during Login.
func (c *Client) AppID() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.appID
}

func (c *Client) login(ctx context.Context) error {
	form := url.Values{
		"grant_type": {"password"},
		"username":   {c.app},
		"password":   {c.password},
		"scope":      {""},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/login", strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.IncAPILogin(false)
		return fmt.Errorf("login request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.IncAPILogin(false)
		return fmt.Errorf("read login response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		metrics.IncAPILogin(false)
		return newAPIError(resp.StatusCode, body)
	}

	var token model.Token
	if err := json.Unmarshal(body, &token); err != nil {
		metrics.IncAPILogin(false)
		return fmt.Errorf("decode login response: %w", err)
	}
	if !strings.EqualFold(token.TokenType, "bearer") || token.AccessToken == "" {
		metrics.IncAPILogin(false)
		return fmt.Errorf("login for %q returned invalid token type %q", c.app, token.TokenType)
	}

	c.mu.Lock()
	c.token = token.AccessToken
	c.tokenExp = tokenExpiry(token.AccessToken)
	c.mu.Unlock()
	metrics.IncAPILogin(true)
	c.log.Debug().Str("application", c.app).Time("expires", c.tokenExp).Msg("logged in to core API")
	return nil
}

// tokenExpiry reads the unverified exp claim of the access token. The token
// is verified server-side anyway; the claim only schedules the re-login.
func tokenExpiry(token string) time.Time {
	var claims jwt.RegisteredClaims
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, &claims); err == nil && claims.ExpiresAt != nil {
		return claims.ExpiresAt.Time
	}
	return time.Now().Add(time.Hour)
}

func (c *Client) currentToken() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token, c.token != "" && time.Now().Add(tokenGrace).Before(c.tokenExp)
}

// do performs one authenticated API call, re-logging in when the token is
// stale and retrying once on 401.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	if _, ok := c.currentToken(); !ok {
		if err := c.login(ctx); err != nil {
			return err
		}
	}

	status, raw, err := c.roundTrip(ctx, method, path, query, body)
	if err != nil {
		return err
	}
	if status == http.StatusUnauthorized {
		c.log.Debug().Str("path", path).Msg("got 401, refreshing token")
		if err := c.login(ctx); err != nil {
			return err
		}
		if status, raw, err = c.roundTrip(ctx, method, path, query, body); err != nil {
			return err
		}
	}
	if status < 200 || status >= 300 {
		return newAPIError(status, raw)
	}
	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode %s %s response: %w", method, path, err)
		}
	}
	return nil
}

func (c *Client) roundTrip(ctx context.Context, method, path string, query url.Values, body interface{}) (int, []byte, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("marshal %s %s body: %w", method, path, err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return 0, nil, err
	}
	token, _ := c.currentToken()
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("read %s %s response: %w", method, path, err)
	}
	metrics.ObserveAPIRequest(method, resp.StatusCode, float64(time.Since(start).Milliseconds()))
	return resp.StatusCode, raw, nil
}
