// Package client is the HTTP client of the TaskHub API. It keeps the access
// token in memory and the refresh cookie in a cookie jar, and renews the
// session once when a request is answered with 401.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/taskhub/internal/netx"
)

// ErrUnavailable is returned when the server cannot be reached.
var ErrUnavailable = errors.New("server unavailable")

// APIError is a non-2xx answer of the API.
type APIError struct {
	Status  int
	Code    string `json:"code"`
	Message string `json:"error"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("http %d", e.Status)
	}
	return fmt.Sprintf("%s (%s)", e.Message, e.Code)
}

// IsUnauthorized reports whether err is a 401 answer.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

type User struct {
	ID    string `json:"id"`
	Login string `json:"login"`
	Role  string `json:"role"`
}

// Session is one of the caller's active refresh sessions.
type Session struct {
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type File struct {
	ID           string `json:"id"`
	ProjectID    string `json:"projectId"`
	TaskID       string `json:"taskId"`
	OriginalName string `json:"originalName"`
	MimeType     string `json:"mimeType"`
	Size         int64  `json:"size"`
}

type Task struct {
	ID          string `json:"id"`
	ProjectID   string `json:"projectId"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status"`
	Assignee    string `json:"assignee"`
	Attachments []File `json:"attachments"`
}

type Project struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Members     []string `json:"members"`
	TasksCount  int      `json:"tasksCount"`
	Tasks       []Task   `json:"tasks"`
}

type authResponse struct {
	User        User   `json:"user"`
	AccessToken string `json:"accessToken"`
}

type Client struct {
	baseURL string
	http    *http.Client

	mu          sync.Mutex
	accessToken string
}

// New returns a client for the API rooted at baseURL, e.g. "http://127.0.0.1:8080".
func New(baseURL string, timeout time.Duration) (*Client, error) {
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("server url: %w", err)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Jar: jar, Timeout: timeout},
	}, nil
}

func (c *Client) token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accessToken
}

func (c *Client) setToken(t string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accessToken = t
}

// LoggedIn reports whether an access token is held.
func (c *Client) LoggedIn() bool {
	return c.token() != ""
}

// Do sends one API request. A 401 answer triggers one refresh and, when it
// succeeds, one retry of the original request.
func (c *Client) Do(ctx context.Context, method, path string, in, out any) error {
	var body []byte
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = b
	}

	err := c.send(ctx, method, path, body, out)
	if !IsUnauthorized(err) || strings.HasPrefix(path, "/api/auth/") {
		return err
	}
	if rerr := c.Refresh(ctx); rerr != nil {
		return err
	}
	return c.send(ctx, method, path, body, out)
}

func (c *Client) send(ctx context.Context, method, path string, body []byte, out any) error {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if t := c.token(); t != "" {
		req.Header.Set("Authorization", "Bearer "+t)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		_ = json.NewDecoder(resp.Body).Decode(apiErr)
		return apiErr
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) authenticate(ctx context.Context, path, login, password string) (*User, error) {
	var res authResponse
	in := map[string]string{"login": login, "password": password}
	if err := c.Do(ctx, http.MethodPost, path, in, &res); err != nil {
		return nil, err
	}
	c.setToken(res.AccessToken)
	return &res.User, nil
}

func (c *Client) Register(ctx context.Context, login, password string) (*User, error) {
	return c.authenticate(ctx, "/api/auth/register", login, password)
}

func (c *Client) Login(ctx context.Context, login, password string) (*User, error) {
	return c.authenticate(ctx, "/api/auth/login", login, password)
}

// Refresh trades the refresh cookie for a new access token. The server
// rotates the cookie in the same response.
func (c *Client) Refresh(ctx context.Context) error {
	var res struct {
		AccessToken string `json:"accessToken"`
	}
	if err := c.send(ctx, http.MethodPost, "/api/auth/refresh", nil, &res); err != nil {
		if IsUnauthorized(err) {
			c.setToken("")
		}
		return err
	}
	c.setToken(res.AccessToken)
	return nil
}

// Logout ends the session on the server and forgets the access token.
func (c *Client) Logout(ctx context.Context) error {
	err := c.send(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
	c.setToken("")
	return err
}

func (c *Client) Me(ctx context.Context) (*User, error) {
	var u User
	if err := c.Do(ctx, http.MethodGet, "/api/me", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) Sessions(ctx context.Context) ([]Session, error) {
	var list []Session
	if err := c.Do(ctx, http.MethodGet, "/api/me/sessions", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *Client) Users(ctx context.Context) ([]User, error) {
	var list []User
	if err := c.Do(ctx, http.MethodGet, "/api/users", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *Client) SetRole(ctx context.Context, userID, role string) (*User, error) {
	var u User
	path := "/api/users/" + url.PathEscape(userID) + "/role"
	if err := c.Do(ctx, http.MethodPatch, path, map[string]string{"role": role}, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) LogoutEverywhere(ctx context.Context, userID string) error {
	return c.Do(ctx, http.MethodPost, "/api/users/"+url.PathEscape(userID)+"/logout-all", nil, nil)
}

func (c *Client) Projects(ctx context.Context) ([]Project, error) {
	var list []Project
	if err := c.Do(ctx, http.MethodGet, "/api/projects", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *Client) Project(ctx context.Context, projectID string) (*Project, error) {
	var p Project
	if err := c.Do(ctx, http.MethodGet, "/api/projects/"+url.PathEscape(projectID), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func taskPath(projectID, taskID string) string {
	return "/api/projects/" + url.PathEscape(projectID) + "/tasks/" + url.PathEscape(taskID)
}

// Attach uploads content as an attachment of the task.
func (c *Client) Attach(ctx context.Context, projectID, taskID, name, mimeType string, content []byte) (*File, error) {
	size := int64(len(content))
	in := map[string]any{
		"name":    name,
		"type":    mimeType,
		"size":    size,
		"content": content, // encoding/json writes []byte as base64
	}
	var f File
	if err := c.Do(ctx, http.MethodPost, taskPath(projectID, taskID)+"/files", in, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// Download resolves the presigned URL of an attachment and fetches it.
func (c *Client) Download(ctx context.Context, projectID, taskID, fileID string) (*File, []byte, error) {
	var res struct {
		URL  string `json:"url"`
		File File   `json:"file"`
	}
	if err := c.Do(ctx, http.MethodGet, taskPath(projectID, taskID)+"/files/"+url.PathEscape(fileID), nil, &res); err != nil {
		return nil, nil, err
	}
	data, err := netx.DownloadPresigned(ctx, &http.Client{Timeout: c.http.Timeout}, res.URL)
	if err != nil {
		return nil, nil, err
	}
	return &res.File, data, nil
}
