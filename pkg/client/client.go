// Package client is a Go client for the todo API.
//
// [Client] mirrors the server's endpoints with typed methods. Every method
// takes a context and returns the decoded envelope payload. Non-2xx answers
// become an [*APIError] carrying the status code and the server's message:
//
//	c := client.NewClient("http://localhost:8000/api")
//	todo, err := c.CreateTodo(ctx, models.Todo{Title: "Buy milk"})
//	if client.IsConflict(err) {
//		// a todo with that title already exists
//	}
//
// [Client.Subscribe] opens the live change feed over a WebSocket.
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

	gorilla "github.com/gorilla/websocket"
	"github.com/surrealdb/todoapi/pkg/models"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient returns a client for the API mounted at baseURL, prefix
// included (e.g. http://localhost:8000/api).
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// APIError is a non-2xx answer from the server.
type APIError struct {
	StatusCode int
	Status     string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error: status=%d, message=%s", e.StatusCode, e.Message)
}

func IsNotFound(err error) bool {
	return hasStatus(err, http.StatusNotFound)
}

func IsConflict(err error) bool {
	return hasStatus(err, http.StatusConflict)
}

func hasStatus(err error, code int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == code
}

func (c *Client) doRequest(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	return c.httpClient.Do(req)
}

// decodeResponse decodes the JSON response into target, or the error body
// into an *APIError.
func decodeResponse(resp *http.Response, target any) error {
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: string(body)}
		var generic models.GenericResponse
		if json.Unmarshal(body, &generic) == nil && generic.Status != "" {
			apiErr.Status = generic.Status
			apiErr.Message = generic.Message
		}
		return apiErr
	}

	if target != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// Health returns the server's liveness message.
func (c *Client) Health(ctx context.Context) (string, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/healthchecker", nil)
	if err != nil {
		return "", err
	}

	var result models.GenericResponse
	if err := decodeResponse(resp, &result); err != nil {
		return "", err
	}

	return result.Message, nil
}

// ListTodos returns the given 1-based page of todos.
func (c *Client) ListTodos(ctx context.Context, page, limit int) ([]models.Todo, error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("limit", strconv.Itoa(limit))

	resp, err := c.doRequest(ctx, http.MethodGet, "/todos?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}

	var result models.TodoListResponse
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}

	return result.Results, nil
}

// CreateTodo sends title and content; the server assigns the rest.
func (c *Client) CreateTodo(ctx context.Context, todo models.Todo) (models.Todo, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/todos", todo)
	if err != nil {
		return models.Todo{}, err
	}

	var result models.TodoResponse
	if err := decodeResponse(resp, &result); err != nil {
		return models.Todo{}, err
	}

	return result.Todo, nil
}

func (c *Client) GetTodo(ctx context.Context, id string) (models.Todo, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/todos/"+url.PathEscape(id), nil)
	if err != nil {
		return models.Todo{}, err
	}

	var result models.TodoResponse
	if err := decodeResponse(resp, &result); err != nil {
		return models.Todo{}, err
	}

	return result.Todo, nil
}

// UpdateTodo applies patch. Note that leaving Completed nil resets the todo
// to not completed.
func (c *Client) UpdateTodo(ctx context.Context, id string, patch models.UpdateTodoSchema) (models.Todo, error) {
	resp, err := c.doRequest(ctx, http.MethodPatch, "/todos/"+url.PathEscape(id), patch)
	if err != nil {
		return models.Todo{}, err
	}

	var result models.TodoResponse
	if err := decodeResponse(resp, &result); err != nil {
		return models.Todo{}, err
	}

	return result.Todo, nil
}

func (c *Client) DeleteTodo(ctx context.Context, id string) error {
	resp, err := c.doRequest(ctx, http.MethodDelete, "/todos/"+url.PathEscape(id), nil)
	if err != nil {
		return err
	}

	return decodeResponse(resp, nil)
}

// Subscribe opens the live change feed. The returned channel is closed when
// ctx is cancelled or the server ends the stream.
func (c *Client) Subscribe(ctx context.Context) (<-chan models.Notification, error) {
	wsURL, err := websocketURL(c.baseURL + "/todos/events")
	if err != nil {
		return nil, err
	}

	conn, resp, err := gorilla.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		if resp != nil && resp.StatusCode >= 400 {
			return nil, decodeResponse(resp, nil)
		}
		return nil, fmt.Errorf("failed to open change feed: %w", err)
	}

	notifications := make(chan models.Notification)
	done := make(chan struct{})

	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(gorilla.CloseMessage,
				gorilla.FormatCloseMessage(gorilla.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			conn.Close()
		case <-done:
		}
	}()

	go func() {
		defer close(notifications)
		defer close(done)
		defer conn.Close()
		for {
			var n models.Notification
			if err := conn.ReadJSON(&n); err != nil {
				return
			}
			select {
			case notifications <- n:
			case <-ctx.Done():
				return
			}
		}
	}()

	return notifications, nil
}

func websocketURL(httpURL string) (string, error) {
	u, err := url.Parse(httpURL)
	if err != nil {
		return "", fmt.Errorf("invalid base URL: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	return u.String(), nil
}
