package todoapi_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/surrealdb/todoapi/pkg/logger"
	"github.com/surrealdb/todoapi/pkg/models"
	"github.com/surrealdb/todoapi/pkg/todoapi"
)

type testServer struct {
	*httptest.Server
	app *todoapi.App
	t   *testing.T
}

func newTestServer(t *testing.T, configure func(*todoapi.Config), opts ...todoapi.Option) *testServer {
	t.Helper()

	config := todoapi.DefaultConfig()
	if configure != nil {
		configure(config)
	}
	opts = append([]todoapi.Option{todoapi.WithLogger(logger.Nop())}, opts...)

	app, err := todoapi.New(config, opts...)
	require.NoError(t, err)

	server := httptest.NewServer(app.Handler())
	t.Cleanup(func() {
		app.Hub().Close()
		server.Close()
		require.NoError(t, app.Close())
	})
	return &testServer{Server: server, app: app, t: t}
}

// do sends body (marshalled unless it is a string) and returns the status
// and raw response body.
func (s *testServer) do(method, path string, body any) (int, []byte) {
	s.t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(s.t, err)
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, s.URL+path, reader)
	require.NoError(s.t, err)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(s.t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(s.t, err)
	return resp.StatusCode, data
}

// post is safe to call from spawned goroutines. It reports failures instead
// of stopping the test.
func (s *testServer) post(path string, body any) (int, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return 0, err
	}

	resp, err := http.Post(s.URL+path, "application/json", bytes.NewReader(data))
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	_, err = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, err
}

func (s *testServer) create(title, content string) models.Todo {
	s.t.Helper()
	status, body := s.do(http.MethodPost, "/api/todos", map[string]any{"title": title, "content": content})
	require.Equal(s.t, http.StatusOK, status, string(body))

	var resp models.TodoResponse
	require.NoError(s.t, json.Unmarshal(body, &resp))
	return resp.Todo
}

func decodeFail(t *testing.T, body []byte) models.GenericResponse {
	t.Helper()
	var resp models.GenericResponse
	require.NoError(t, json.Unmarshal(body, &resp), string(body))
	require.Equal(t, models.StatusFail, resp.Status)
	return resp
}
