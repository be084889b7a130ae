package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"bookbank/internal/lending"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

const (
	// HeaderRequestID correlates a client call with server and client logs.
	HeaderRequestID = "X-Request-ID"

	// SessionCookieName is the cookie the server keeps its login session in.
	SessionCookieName = "session"

	// DefaultMaxBodyBytes caps a response body when Options.MaxBodyBytes is zero.
	DefaultMaxBodyBytes = 16 << 20
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrResponseTooLarge   = errors.New("response body exceeds size limit")
)

// BodyKind selects how a call's fields are encoded.
type BodyKind int

const (
	BodyNone BodyKind = iota
	BodyMultipart
	BodyURLEncoded
)

func (k BodyKind) String() string {
	switch k {
	case BodyMultipart:
		return "multipart"
	case BodyURLEncoded:
		return "urlencoded"
	default:
		return "none"
	}
}

// Call describes one outbound request.
type Call struct {
	Method string
	Path   string
	Body   BodyKind
	Fields [][2]string
}

// Response is the raw answer to a Call. Interpreting it is left to the caller.
type Response struct {
	Status    int
	Body      []byte
	RequestID string
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

// StatusError is returned by the read endpoints on a non-2xx answer.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("unexpected status code: %d", e.Status)
	}
	return fmt.Sprintf("unexpected status code: %d: %s", e.Status, e.Message)
}

// Options configures a LendingClient.
type Options struct {
	BaseURL string
	// Timeout of zero leaves calls without a deadline.
	Timeout time.Duration
	// RateLimit is in calls per second; zero disables throttling.
	RateLimit     float64
	Burst         int
	SessionCookie string
	// MaxBodyBytes caps every response body; zero means DefaultMaxBodyBytes.
	MaxBodyBytes int64
	HTTPClient   *http.Client
}

// LendingClient talks to the BookBank server. It holds no application state
// beyond the session cookie jar.
type LendingClient struct {
	baseURL    *url.URL
	httpClient *http.Client
	limiter    *rate.Limiter
	maxBody    int64
	tracer     trace.Tracer
}

// NewLendingClient creates a client for the server at opts.BaseURL.
func NewLendingClient(opts Options) (*LendingClient, error) {
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid base url %q: scheme and host are required", opts.BaseURL)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}
	if httpClient.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("create cookie jar: %w", err)
		}
		httpClient.Jar = jar
	}
	if opts.SessionCookie != "" {
		httpClient.Jar.SetCookies(base, []*http.Cookie{{Name: SessionCookieName, Value: opts.SessionCookie, Path: "/"}})
	}

	limit := rate.Inf
	if opts.RateLimit > 0 {
		limit = rate.Limit(opts.RateLimit)
	}
	burst := opts.Burst
	if burst < 1 {
		burst = 1
	}

	maxBody := opts.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = DefaultMaxBodyBytes
	}

	return &LendingClient{
		baseURL:    base,
		httpClient: httpClient,
		limiter:    rate.NewLimiter(limit, burst),
		maxBody:    maxBody,
		tracer:     otel.Tracer("bookbank/clients"),
	}, nil
}

// BaseURL returns the server root the client was built for.
func (c *LendingClient) BaseURL() string {
	return c.baseURL.String()
}

// Do issues exactly one request. It never retries.
func (c *LendingClient) Do(ctx context.Context, call Call) (*Response, error) {
	requestID := uuid.New().String()

	ctx, span := c.tracer.Start(ctx, "clients.do",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", call.Method),
			attribute.String("http.path", call.Path),
			attribute.String("request.id", requestID),
			attribute.String("body.kind", call.Body.String()),
		),
	)
	defer span.End()

	if err := c.limiter.Wait(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "rate limiter")
		return nil, fmt.Errorf("wait for rate limiter: %w", err)
	}

	body, contentType, err := encodeBody(call)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, call.Method, c.baseURL.String()+call.Path, body)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(HeaderRequestID, requestID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport")
		return nil, fmt.Errorf("%s %s: %w", call.Method, call.Path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("read response body: %w", err)
	}
	if int64(len(data)) > c.maxBody {
		err := fmt.Errorf("%s %s: %w (%d bytes)", call.Method, call.Path, ErrResponseTooLarge, c.maxBody)
		span.RecordError(err)
		span.SetStatus(codes.Error, "response too large")
		return nil, err
	}

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	return &Response{Status: resp.StatusCode, Body: data, RequestID: requestID}, nil
}

func encodeBody(call Call) (io.Reader, string, error) {
	switch call.Body {
	case BodyNone:
		return nil, "", nil
	case BodyURLEncoded:
		values := url.Values{}
		for _, f := range call.Fields {
			values.Add(f[0], f[1])
		}
		return strings.NewReader(values.Encode()), "application/x-www-form-urlencoded", nil
	case BodyMultipart:
		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)
		for _, f := range call.Fields {
			if err := w.WriteField(f[0], f[1]); err != nil {
				return nil, "", fmt.Errorf("write form field %s: %w", f[0], err)
			}
		}
		if err := w.Close(); err != nil {
			return nil, "", fmt.Errorf("close multipart body: %w", err)
		}
		return &buf, w.FormDataContentType(), nil
	default:
		return nil, "", fmt.Errorf("unknown body kind %d", call.Body)
	}
}

// ListBooks fetches the full book collection.
func (c *LendingClient) ListBooks(ctx context.Context) ([]lending.Book, error) {
	var books []lending.Book
	if err := c.getJSON(ctx, "/api/books", &books); err != nil {
		return nil, err
	}
	return books, nil
}

// ListChat fetches every message of a request's chat thread in server order.
func (c *LendingClient) ListChat(ctx context.Context, id lending.RequestID) ([]lending.ChatMessage, error) {
	var messages []lending.ChatMessage
	if err := c.getJSON(ctx, fmt.Sprintf("/request/%d/chat", id), &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

func (c *LendingClient) getJSON(ctx context.Context, path string, out interface{}) error {
	resp, err := c.Do(ctx, Call{Method: http.MethodGet, Path: path})
	if err != nil {
		return err
	}

	if !resp.OK() {
		var body struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(resp.Body, &body)
		return &StatusError{Status: resp.Status, Message: body.Error}
	}

	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Login posts the login form. The server answers a good login with a redirect
// away from /login and a session cookie, which the jar keeps for later calls.
func (c *LendingClient) Login(ctx context.Context, username, password string) error {
	values := url.Values{"username": {username}, "password": {password}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL.String()+"/login", strings.NewReader(values.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set(HeaderRequestID, uuid.New().String())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, c.maxBody))

	if resp.StatusCode >= 400 {
		return &StatusError{Status: resp.StatusCode}
	}
	if resp.Request != nil && resp.Request.URL.Path == "/login" {
		return ErrInvalidCredentials
	}
	return nil
}

// SessionCookie returns the current session cookie value, if any.
func (c *LendingClient) SessionCookie() string {
	for _, cookie := range c.httpClient.Jar.Cookies(c.baseURL) {
		if cookie.Name == SessionCookieName {
			return cookie.Value
		}
	}
	return ""
}

// ImageAvailable reports whether src, resolved against the server root, answers
// a HEAD request with a 2xx status.
func (c *LendingClient) ImageAvailable(ctx context.Context, src string) bool {
	ref, err := url.Parse(src)
	if err != nil {
		return false
	}
	target := c.baseURL.ResolveReference(ref)

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, target.String(), nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}
