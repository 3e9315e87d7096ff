package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dori/plando/internal/model"
	"github.com/rs/zerolog"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
)

// APIError is a non-2xx response from the board service
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("board service returned %d", e.Status)
	}
	return fmt.Sprintf("board service returned %d: %s", e.Status, e.Message)
}

// Is matches ErrUnauthorized for 401 and ErrNotFound for 404
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	}
	return false
}

// TokenSource supplies the bearer credential for each call
type TokenSource interface {
	Token() string
}

// StaticToken is a TokenSource that always returns the same token
type StaticToken string

// Token implements TokenSource
func (t StaticToken) Token() string { return string(t) }

// Client is the HTTP implementation of BoardService
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
	logger  zerolog.Logger
}

var _ BoardService = (*Client)(nil)

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithTimeout sets the per-request timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.Timeout = d
	}
}

// WithTokenSource sets where bearer tokens come from
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) {
		c.tokens = ts
	}
}

// WithLogger sets the client's logger
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a client for the service rooted at baseURL,
// e.g. "http://localhost:5000/api"
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
		tokens:  StaticToken(""),
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the service root the client talks to
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.tokens.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug().Err(err).Str("method", method).Str("path", path).Msg("request failed")
		return fmt.Errorf("failed to %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	c.logger.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("took", time.Since(start)).
		Msg("request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp.StatusCode, respBody)
	}

	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func decodeError(status int, body []byte) error {
	apiErr := &APIError{Status: status}
	var e errorDTO
	if json.Unmarshal(body, &e) == nil {
		apiErr.Message = e.Error
		if apiErr.Message == "" {
			apiErr.Message = e.Message
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(body))
	}
	return apiErr
}

func boardPath(boardID string) string {
	return "/boards/" + url.PathEscape(boardID)
}

func columnPath(boardID, columnID string) string {
	return boardPath(boardID) + "/columns/" + url.PathEscape(columnID)
}

func taskPath(boardID, columnID, taskID string) string {
	return columnPath(boardID, columnID) + "/tasks/" + url.PathEscape(taskID)
}

// ListBoards fetches every board of the signed-in user
func (c *Client) ListBoards(ctx context.Context) ([]model.Board, error) {
	var out []boardDTO
	if err := c.do(ctx, http.MethodGet, "/boards", nil, &out); err != nil {
		return nil, err
	}
	return boardsToModel(out), nil
}

// GetBoard fetches one board
func (c *Client) GetBoard(ctx context.Context, id string) (model.Board, error) {
	var out boardDTO
	if err := c.do(ctx, http.MethodGet, boardPath(id), nil, &out); err != nil {
		return model.Board{}, err
	}
	return out.toModel(), nil
}

// CreateBoard creates a board with the given columns
func (c *Client) CreateBoard(ctx context.Context, title string, columnTitles []string) (model.Board, error) {
	in := boardDTO{Title: title, Columns: make([]columnDTO, len(columnTitles))}
	for i, t := range columnTitles {
		in.Columns[i] = columnDTO{Title: t}
	}
	var out boardDTO
	if err := c.do(ctx, http.MethodPost, "/boards", in, &out); err != nil {
		return model.Board{}, err
	}
	return out.toModel(), nil
}

// UpdateBoard renames a board and replaces its column list. The order of
// columns is persisted as given.
func (c *Client) UpdateBoard(ctx context.Context, id, title string, columns []ColumnInput) (model.Board, error) {
	in := boardDTO{Title: title, Columns: columnInputs(columns)}
	var out boardDTO
	if err := c.do(ctx, http.MethodPut, boardPath(id), in, &out); err != nil {
		return model.Board{}, err
	}
	return out.toModel(), nil
}

// DeleteBoard deletes a board and everything under it
func (c *Client) DeleteBoard(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, boardPath(id), nil, nil)
}

// ListColumns fetches a board's columns in order
func (c *Client) ListColumns(ctx context.Context, boardID string) ([]model.Column, error) {
	var out []columnDTO
	if err := c.do(ctx, http.MethodGet, boardPath(boardID)+"/columns", nil, &out); err != nil {
		return nil, err
	}
	return columnsToModel(out), nil
}

// RenameColumn changes a column's title
func (c *Client) RenameColumn(ctx context.Context, boardID, columnID, title string) (model.Column, error) {
	var out columnDTO
	in := map[string]string{"title": title}
	if err := c.do(ctx, http.MethodPut, columnPath(boardID, columnID), in, &out); err != nil {
		return model.Column{}, err
	}
	return out.toModel(), nil
}

// DeleteColumn deletes a column and its tasks
func (c *Client) DeleteColumn(ctx context.Context, boardID, columnID string) error {
	return c.do(ctx, http.MethodDelete, columnPath(boardID, columnID), nil, nil)
}

// ListTasks fetches a column's tasks in order
func (c *Client) ListTasks(ctx context.Context, boardID, columnID string) ([]model.Task, error) {
	var out []taskDTO
	if err := c.do(ctx, http.MethodGet, columnPath(boardID, columnID)+"/tasks", nil, &out); err != nil {
		return nil, err
	}
	return tasksToModel(out), nil
}

// CreateTask adds a task to a column
func (c *Client) CreateTask(ctx context.Context, boardID, columnID string, in TaskInput) (model.Task, error) {
	var out taskDTO
	if err := c.do(ctx, http.MethodPost, columnPath(boardID, columnID)+"/tasks", taskInputDTO(in), &out); err != nil {
		return model.Task{}, err
	}
	return out.toModel(), nil
}

// UpdateTask applies a partial update to a task
func (c *Client) UpdateTask(ctx context.Context, boardID, columnID, taskID string, patch TaskPatch) (model.Task, error) {
	var out taskDTO
	if err := c.do(ctx, http.MethodPatch, taskPath(boardID, columnID, taskID), patchBody(patch), &out); err != nil {
		return model.Task{}, err
	}
	return out.toModel(), nil
}

// DeleteTask deletes a task and its subtasks
func (c *Client) DeleteTask(ctx context.Context, boardID, columnID, taskID string) error {
	return c.do(ctx, http.MethodDelete, taskPath(boardID, columnID, taskID), nil, nil)
}

// ToggleSubTask flips a subtask's done flag and returns the owning task
func (c *Client) ToggleSubTask(ctx context.Context, boardID, columnID, taskID, subTaskID string) (model.Task, error) {
	var out taskDTO
	path := taskPath(boardID, columnID, taskID) + "/subtasks/" + url.PathEscape(subTaskID) + "/toggle"
	if err := c.do(ctx, http.MethodPatch, path, nil, &out); err != nil {
		return model.Task{}, err
	}
	return out.toModel(), nil
}

// ReorderTasks persists the order of a column's tasks
func (c *Client) ReorderTasks(ctx context.Context, boardID, columnID string, taskIDs []string) error {
	in := map[string][]string{"taskIds": taskIDs}
	return c.do(ctx, http.MethodPut, columnPath(boardID, columnID)+"/tasks/order", in, nil)
}
