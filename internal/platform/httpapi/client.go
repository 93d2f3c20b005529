package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	apperrors "carepath/internal/platform/errors"
	"carepath/internal/platform/id"
	"carepath/internal/platform/logging"
)

const maxErrorBody = 64 << 10

// TokenSource supplies the bearer token of the authenticated session.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StatusError is returned for non-2xx responses other than 401.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	msg := e.Field("error", "message")
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, msg)
}

// Field returns the first non-empty string (or number) value among names in
// the JSON object body. Non-object bodies yield "".
func (e *StatusError) Field(names ...string) string {
	if len(e.Body) == 0 {
		return ""
	}
	payload := map[string]any{}
	if err := json.Unmarshal(e.Body, &payload); err != nil {
		return ""
	}
	for _, name := range names {
		switch v := payload[name].(type) {
		case string:
			if strings.TrimSpace(v) != "" {
				return v
			}
		case float64:
			return fmt.Sprint(v)
		}
	}
	return ""
}

type Client struct {
	baseURL *url.URL
	http    *http.Client
	tokens  TokenSource
	ids     id.Generator
	logger  *slog.Logger
}

func New(baseURL string, timeout time.Duration, tokens TokenSource, ids id.Generator, logger *slog.Logger) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: base url %q", apperrors.ErrInvalidInput, baseURL)
	}
	if ids == nil {
		ids = id.UUID{}
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Client{
		baseURL: u,
		http:    &http.Client{Timeout: timeout},
		tokens:  tokens,
		ids:     ids,
		logger:  logger,
	}, nil
}

// Expand substitutes {id} in an endpoint template.
func Expand(template, value string) string {
	return strings.ReplaceAll(template, "{id}", url.PathEscape(value))
}

// Do sends in as JSON (when non-nil) and decodes a 2xx body into out (when
// non-nil). path is already escaped, as produced by Expand. A 401 maps to
// apperrors.ErrSessionExpired.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	target := *c.baseURL
	escaped := c.baseURL.EscapedPath() + path
	unescaped, err := url.PathUnescape(escaped)
	if err != nil {
		return fmt.Errorf("%w: path %q", apperrors.ErrInvalidInput, path)
	}
	target.Path = unescaped
	target.RawPath = escaped
	if len(query) > 0 {
		target.RawQuery = query.Encode()
	}

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	requestID := c.ids.New()
	req.Header.Set("X-Request-ID", requestID)
	if c.tokens != nil {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("api_request", "event", "transport_error", "method", method, "path", path, "request_id", requestID, "error", err)
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()
	c.logger.Debug("api_request", "event", "response", "method", method, "path", path, "status", resp.StatusCode,
		"request_id", requestID, "elapsed", time.Since(started))

	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("%w: %s %s", apperrors.ErrSessionExpired, method, path)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Method: method, Path: path, StatusCode: resp.StatusCode, Body: raw}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}
