package tracker

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

	"github.com/fakeyudi/autopilot/internal/logging"
)

const (
	defaultTimeout    = 15 * time.Second
	defaultMaxRetries = 3
	maxRetryAfter     = 30 * time.Second
	projectPageSize   = 50
)

// Client is a Jira Cloud REST v3 client using basic auth.
type Client struct {
	baseURL    string
	email      string
	token      string
	httpClient *http.Client
	maxRetries int
	sleep      func(ctx context.Context, d time.Duration) error
	log        *logging.Logger
}

// ClientOption configures the client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(client *Client) {
		client.httpClient = c
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(client *Client) {
		client.httpClient.Timeout = d
	}
}

// WithMaxRetries sets how many attempts a rate-limited request gets.
func WithMaxRetries(n int) ClientOption {
	return func(client *Client) {
		client.maxRetries = max(n, 1)
	}
}

// WithSleep replaces the wait between rate-limited attempts.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) ClientOption {
	return func(client *Client) {
		client.sleep = fn
	}
}

// WithLogger records every request in l.
func WithLogger(l *logging.Logger) ClientOption {
	return func(client *Client) {
		client.log = l
	}
}

// NewClient creates a client for the site at baseURL.
func NewClient(baseURL, email, token string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		email:      email,
		token:      token,
		httpClient: &http.Client{Timeout: defaultTimeout},
		maxRetries: defaultMaxRetries,
		sleep:      sleepContext,
		log:        logging.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// CreateIssue creates an issue and returns its key.
func (c *Client) CreateIssue(ctx context.Context, req IssueRequest) (*Issue, error) {
	if req.ProjectKey == "" || req.Summary == "" {
		return nil, errors.New("create issue: project key and summary are required")
	}
	issueType := req.Type
	if issueType == "" {
		issueType = "Task"
	}
	fields := map[string]any{
		"project":   map[string]string{"key": req.ProjectKey},
		"summary":   req.Summary,
		"issuetype": map[string]string{"name": issueType},
	}
	if req.ParentKey != "" {
		fields["parent"] = map[string]string{"key": req.ParentKey}
	}

	var resp struct {
		Key string `json:"key"`
	}
	if err := c.doRequest(ctx, http.MethodPost, "/rest/api/3/issue", map[string]any{"fields": fields}, &resp); err != nil {
		return nil, fmt.Errorf("create issue: %w", err)
	}
	if resp.Key == "" {
		return nil, errors.New("create issue: response has no key")
	}
	return &Issue{Key: resp.Key, Summary: req.Summary, Type: issueType, ParentKey: req.ParentKey}, nil
}

// GetIssue fetches summary, status, type, parent and assignee.
func (c *Client) GetIssue(ctx context.Context, key string) (*Issue, error) {
	var resp struct {
		Key    string `json:"key"`
		Fields struct {
			Summary string `json:"summary"`
			Status  *struct {
				Name string `json:"name"`
			} `json:"status"`
			IssueType *struct {
				Name string `json:"name"`
			} `json:"issuetype"`
			Parent *struct {
				Key string `json:"key"`
			} `json:"parent"`
			Assignee *struct {
				DisplayName string `json:"displayName"`
			} `json:"assignee"`
		} `json:"fields"`
	}
	path := "/rest/api/3/issue/" + url.PathEscape(key) + "?fields=summary,status,issuetype,parent,assignee"
	if err := c.doRequest(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("get issue %s: %w", key, err)
	}
	issue := &Issue{Key: resp.Key, Summary: resp.Fields.Summary}
	if f := resp.Fields.Status; f != nil {
		issue.Status = f.Name
	}
	if f := resp.Fields.IssueType; f != nil {
		issue.Type = f.Name
	}
	if f := resp.Fields.Parent; f != nil {
		issue.ParentKey = f.Key
	}
	if f := resp.Fields.Assignee; f != nil {
		issue.Assignee = f.DisplayName
	}
	return issue, nil
}

// PostWorklog logs seconds against key. An empty comment is replaced by
// "Work on task (Nm)".
func (c *Client) PostWorklog(ctx context.Context, key string, seconds int64, comment string) error {
	if key == "" || seconds <= 0 {
		return errors.New("post worklog: issue key and positive seconds are required")
	}
	if strings.TrimSpace(comment) == "" {
		comment = fmt.Sprintf("Work on task (%dm)", seconds/60)
	}
	body := map[string]any{
		"timeSpentSeconds": seconds,
		"comment":          textDoc(comment),
	}
	path := "/rest/api/3/issue/" + url.PathEscape(key) + "/worklog"
	if err := c.doRequest(ctx, http.MethodPost, path, body, nil); err != nil {
		return fmt.Errorf("post worklog to %s: %w", key, err)
	}
	return nil
}

// ListProjects pages through project search until the last page.
func (c *Client) ListProjects(ctx context.Context) ([]Project, error) {
	var all []Project
	for startAt := 0; ; {
		var page struct {
			Values []Project `json:"values"`
			IsLast bool      `json:"isLast"`
		}
		path := fmt.Sprintf("/rest/api/3/project/search?maxResults=%d&orderBy=key&startAt=%d", projectPageSize, startAt)
		if err := c.doRequest(ctx, http.MethodGet, path, nil, &page); err != nil {
			return nil, fmt.Errorf("list projects: %w", err)
		}
		all = append(all, page.Values...)
		if page.IsLast || len(page.Values) == 0 {
			return all, nil
		}
		startAt += len(page.Values)
	}
}

// doRequest performs an HTTP request and decodes the JSON response.
// A 429 is retried after the Retry-After delay up to maxRetries attempts.
func (c *Client) doRequest(ctx context.Context, method, path string, body, result any) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
	}

	for attempt := 1; ; attempt++ {
		resp, err := c.send(ctx, method, path, payload)
		if err != nil {
			c.log.Error("request failed", "method", method, "path", path, "err", err)
			return err
		}

		if resp.StatusCode == http.StatusTooManyRequests && attempt < c.maxRetries {
			wait := retryAfter(resp.Header.Get("Retry-After"))
			resp.Body.Close()
			c.log.Warn("rate limited", "method", method, "path", path, "attempt", attempt, "wait", wait)
			if err := c.sleep(ctx, wait); err != nil {
				return err
			}
			continue
		}

		err = decode(resp, result)
		c.log.Info("request", "method", method, "path", path, "status", resp.StatusCode, "attempt", attempt)
		return err
	}
}

func (c *Client) send(ctx context.Context, method, path string, payload []byte) (*http.Response, error) {
	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(c.email, c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	return resp, nil
}

func decode(resp *http.Response, result any) error {
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{Status: resp.StatusCode, Body: strings.TrimSpace(string(bodyBytes))}
	}
	if result == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// retryAfter parses a Retry-After header given in seconds.
func retryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs < 1 {
		return time.Second
	}
	return min(time.Duration(secs)*time.Second, maxRetryAfter)
}

var _ Tracker = (*Client)(nil)
