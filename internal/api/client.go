// Package api is the typed HTTP client for the community platform's REST API.
// Every call is a single attempt; callers own retries and cancellation through
// the context they pass in.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"
)

// Client talks to the REST API with a bearer token.
type Client struct {
	settings Settings
	http     *http.Client
	logger   *zap.Logger
}

// Option customizes client construction.
type Option func(*Client)

// WithHTTPClient overrides the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithLogger attaches a diagnostic logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New prepares a client using the provided settings.
func New(settings Settings, opts ...Option) *Client {
	settings.normalize()
	c := &Client{
		settings: settings,
		http:     &http.Client{Timeout: settings.Timeout},
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// PageSize is the configured page length for paginated calls.
func (c *Client) PageSize() int {
	return c.settings.PageSize
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := c.settings.BaseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	return c.doJSON(ctx, http.MethodGet, path, query, nil, out)
}

func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("api: encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query), reader)
	if err != nil {
		return fmt.Errorf("api: build %s %s: %w", method, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, out)
}

// multipartField is one form part; File parts carry a filename.
type multipartField struct {
	Name     string
	Value    string
	FileName string
	File     io.Reader
}

func (c *Client) doMultipart(ctx context.Context, method, path string, fields []multipartField, out any) error {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for _, field := range fields {
		if field.File != nil {
			part, err := writer.CreateFormFile(field.Name, field.FileName)
			if err != nil {
				return fmt.Errorf("api: multipart %s: %w", field.Name, err)
			}
			if _, err := io.Copy(part, field.File); err != nil {
				return fmt.Errorf("api: multipart %s: %w", field.Name, err)
			}
			continue
		}
		if err := writer.WriteField(field.Name, field.Value); err != nil {
			return fmt.Errorf("api: multipart %s: %w", field.Name, err)
		}
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("api: multipart close: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, nil), &buf)
	if err != nil {
		return fmt.Errorf("api: build %s %s: %w", method, path, err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return c.send(req, out)
}

func (c *Client) send(req *http.Request, out any) error {
	req.Header.Set("Accept", "application/json")
	if c.settings.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.settings.Token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("api request failed",
			zap.String("method", req.Method),
			zap.String("path", req.URL.Path),
			zap.Error(err))
		return fmt.Errorf("api: %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, c.settings.MaxBodyBytes))
	if err != nil {
		return fmt.Errorf("api: read %s %s: %w", req.Method, req.URL.Path, err)
	}
	c.logger.Debug("api response",
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.Int("status", resp.StatusCode))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &Error{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		var envelope errorBody
		if json.Unmarshal(body, &envelope) == nil {
			apiErr.Code = envelope.Code
			if text := envelope.text(); text != "" {
				apiErr.Message = text
			}
		}
		return apiErr
	}
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("api: decode %s %s: %w", req.Method, req.URL.Path, err)
	}
	return nil
}

// errMissingID guards path parameters.
var errMissingID = errors.New("api: id is required")

func requireID(values ...string) error {
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			return errMissingID
		}
	}
	return nil
}
