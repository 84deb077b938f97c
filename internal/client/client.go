package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ErrNotSignedIn is returned by operations that need a bearer token when the
// session has none.
var ErrNotSignedIn = errors.New("not signed in")

// APIError is a non-2xx response. Msg is the server's {"msg"} text.
type APIError struct {
	Status int
	Msg    string
}

func (e *APIError) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("request failed with status %d", e.Status)
	}
	return e.Msg
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// Client talks to the events API on behalf of one explicit session.
type Client struct {
	baseURL    string
	httpClient *http.Client
	session    *Session
	now        func() time.Time
}

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.httpClient = httpClient }
}

func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// New returns a client for baseURL (for example http://localhost:5000/api).
// A nil session is treated as anonymous.
func New(baseURL string, session *Session, opts ...Option) *Client {
	if session == nil {
		session = &Session{}
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
		session:    session,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Session returns the session the client is acting for. Register and Login
// replace it; callers persist it through a SessionStore.
func (c *Client) Session() *Session {
	return c.session
}

type authResult struct {
	Token string `json:"token"`
	User  struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
		Role  string `json:"role"`
	} `json:"user"`
}

func (a authResult) session() *Session {
	return &Session{
		UserID: a.User.ID,
		Name:   a.User.Name,
		Email:  a.User.Email,
		Role:   a.User.Role,
		Token:  a.Token,
	}
}

func (c *Client) Register(ctx context.Context, reg Registration) (*Session, error) {
	var out authResult
	if err := c.do(ctx, http.MethodPost, "/auth/register", false, reg, &out); err != nil {
		return nil, err
	}
	c.session = out.session()
	return c.session, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	var out authResult
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", false, body, &out); err != nil {
		return nil, err
	}
	c.session = out.session()
	return c.session, nil
}

// Logout forgets the token locally. The server keeps no session state.
func (c *Client) Logout() {
	c.session = &Session{}
}

func (c *Client) ListEvents(ctx context.Context, opts ListOptions) ([]Event, error) {
	query := url.Values{}
	if opts.Query != "" {
		query.Set("q", opts.Query)
	}
	if opts.City != "" {
		query.Set("city", opts.City)
	}
	if opts.Date != "" {
		query.Set("date", opts.Date)
	}
	if opts.Limit > 0 {
		query.Set("limit", strconv.Itoa(opts.Limit))
	}
	path := "/events"
	if encoded := query.Encode(); encoded != "" {
		path += "?" + encoded
	}

	out := []Event{}
	if err := c.do(ctx, http.MethodGet, path, false, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetEvent(ctx context.Context, id string) (*Event, error) {
	var out Event
	if err := c.do(ctx, http.MethodGet, eventPath(id), false, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateEvent(ctx context.Context, input NewEvent) (*Event, error) {
	var out Event
	if err := c.do(ctx, http.MethodPost, "/events", true, input, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateEvent(ctx context.Context, id string, update EventUpdate) (*Event, error) {
	var out Event
	if err := c.do(ctx, http.MethodPut, eventPath(id), true, update, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteEvent(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, eventPath(id), true, nil, nil)
}

type rsvpResult struct {
	Msg        string `json:"msg"`
	RSVPsCount int    `json:"rsvpsCount"`
}

// RSVP returns the roster size after the caller was added.
func (c *Client) RSVP(ctx context.Context, id string) (int, error) {
	var out rsvpResult
	if err := c.do(ctx, http.MethodPost, eventPath(id)+"/rsvp", true, nil, &out); err != nil {
		return 0, err
	}
	return out.RSVPsCount, nil
}

func (c *Client) CancelRSVP(ctx context.Context, id string) (int, error) {
	var out rsvpResult
	if err := c.do(ctx, http.MethodDelete, eventPath(id)+"/rsvp", true, nil, &out); err != nil {
		return 0, err
	}
	return out.RSVPsCount, nil
}

func (c *Client) Attendees(ctx context.Context, id string) ([]RSVP, error) {
	var out struct {
		Attendees []RSVP `json:"attendees"`
	}
	if err := c.do(ctx, http.MethodGet, eventPath(id)+"/attendees", true, nil, &out); err != nil {
		return nil, err
	}
	return out.Attendees, nil
}

// MyRSVPs lists the events the session user has RSVPed to, split into
// upcoming (soonest first) and past (most recent first).
func (c *Client) MyRSVPs(ctx context.Context) (upcoming, past []Event, err error) {
	if !c.session.Authenticated() {
		return nil, nil, ErrNotSignedIn
	}
	all, err := c.ListEvents(ctx, ListOptions{Limit: 200})
	if err != nil {
		return nil, nil, err
	}

	now := c.now()
	for _, event := range all {
		if !event.HasRSVP(c.session.UserID) {
			continue
		}
		if event.IsPast(now) {
			past = append(past, event)
		} else {
			upcoming = append(upcoming, event)
		}
	}
	// Results arrive sorted by date ascending.
	for i, j := 0, len(past)-1; i < j; i, j = i+1, j-1 {
		past[i], past[j] = past[j], past[i]
	}
	return upcoming, past, nil
}

func eventPath(id string) string {
	return "/events/" + url.PathEscape(id)
}

func (c *Client) do(ctx context.Context, method, path string, authenticated bool, in, out any) error {
	if authenticated && !c.session.Authenticated() {
		return ErrNotSignedIn
	}

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.session.Authenticated() {
		req.Header.Set("Authorization", "Bearer "+c.session.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var envelope struct {
			Msg string `json:"msg"`
		}
		if json.Unmarshal(data, &envelope) == nil {
			apiErr.Msg = envelope.Msg
		}
		return apiErr
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
