package adapters

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/toyz/axonbind/pkg/axon"
	"github.com/toyz/axonbind/pkg/binding"
)

// serveFunc sends req through an adapter and returns status and body.
type serveFunc func(t *testing.T, req *http.Request) (int, string)

type itemInput struct {
	ID    int      `json:"id" validate:"required"`
	Name  string   `json:"name" validate:"required"`
	Tags  []string `json:"tags,omitempty"`
	Price float64  `json:"price"`
}

type uploadInput struct {
	Title  string
	Avatar axon.FileHeader
}

func respondItem(rc axon.RequestContext, in *itemInput) error {
	return rc.Response().JSON(http.StatusOK, in)
}

func respondUpload(rc axon.RequestContext, in *uploadInput) error {
	if in.Avatar == nil {
		return axon.ErrBadRequest("missing avatar")
	}
	f, err := in.Avatar.Open()
	if err != nil {
		return err
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return err
	}
	return rc.Response().JSON(http.StatusOK, map[string]any{
		"title":    in.Title,
		"filename": in.Avatar.Filename(),
		"size":     in.Avatar.Size(),
		"content":  string(content),
	})
}

// registerBindingRoutes wires the same resolvers into any adapter.
func registerBindingRoutes(server axon.WebServerInterface) {
	write := binding.MustNewFor[itemInput](binding.Write(binding.WithAcceptFormats("json")))
	form := binding.MustNewFor[itemInput](binding.Write(binding.WithSerializationContext(map[string]any{
		binding.DisableTypeEnforcement: true,
	})))
	read := binding.MustNewFor[itemInput](binding.Read())
	upload := binding.MustNewFor[uploadInput](binding.Write())

	server.RegisterRoute(http.MethodPost, "/items/{id:int}", binding.Handle(write, respondItem))
	server.RegisterRoute(http.MethodPut, "/items/{id:int}", binding.Handle(form, respondItem))
	server.RegisterRoute(http.MethodGet, "/items/{id:int}", binding.Handle(read, respondItem))
	server.RegisterRoute(http.MethodPost, "/search", binding.Handle(read, respondItem))
	server.RegisterRoute(http.MethodPost, "/uploads", binding.Handle(upload, respondUpload))
}

func runBindingCases(t *testing.T, serve serveFunc) {
	t.Helper()

	tests := []struct {
		name        string
		method      string
		target      string
		contentType string
		body        string
		status      int
		response    string
		contains    string
	}{
		{
			name:        "json body with route param",
			method:      http.MethodPost,
			target:      "/items/5",
			contentType: "application/json",
			body:        `{"name":"Lamp","tags":["a"],"price":9.5}`,
			status:      http.StatusOK,
			response:    `{"id":5,"name":"Lamp","tags":["a"],"price":9.5}`,
		},
		{
			name:     "query with route param",
			method:   http.MethodGet,
			target:   "/items/5?name=Lamp&tags=a&tags=b&price=2&id=9",
			status:   http.StatusOK,
			response: `{"id":5,"name":"Lamp","tags":["a","b"],"price":2}`,
		},
		{
			name:        "form body",
			method:      http.MethodPut,
			target:      "/items/5",
			contentType: "application/x-www-form-urlencoded",
			body:        "name=Lamp&price=3&tags=x&tags=y",
			status:      http.StatusOK,
			response:    `{"id":5,"name":"Lamp","tags":["x","y"],"price":3}`,
		},
		{
			name:        "type mismatch",
			method:      http.MethodPost,
			target:      "/items/5",
			contentType: "application/json",
			body:        `{"name":"Lamp","price":"cheap"}`,
			status:      http.StatusBadRequest,
			response: `{"status_code":400,"message":"Invalid request parameters","details":{"violations":[` +
				"{\"message\":\"Invalid parameter type. Expected `float64`\",\"field\":\"price\",\"invalidValue\":\"cheap\"}]}}",
		},
		{
			name:        "rule violation",
			method:      http.MethodPost,
			target:      "/items/5",
			contentType: "application/json",
			body:        `{"price":1}`,
			status:      http.StatusBadRequest,
			contains:    "name is required",
		},
		{
			name:        "read binding rejects post",
			method:      http.MethodPost,
			target:      "/search",
			contentType: "application/json",
			body:        `{}`,
			status:      http.StatusMethodNotAllowed,
			response:    `{"status_code":405,"message":"Method Not Allowed"}`,
		},
		{
			name:        "unaccepted media type",
			method:      http.MethodPost,
			target:      "/items/5",
			contentType: "text/plain",
			body:        "name=Lamp",
			status:      http.StatusUnsupportedMediaType,
			response:    `{"status_code":415,"message":"Unsupported Media Type"}`,
		},
		{
			name:        "malformed json",
			method:      http.MethodPost,
			target:      "/items/5",
			contentType: "application/json",
			body:        `{"name":`,
			status:      http.StatusBadRequest,
			response:    `{"status_code":400,"message":"Malformed request body"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body io.Reader
			if tt.body != "" {
				body = strings.NewReader(tt.body)
			}
			req := httptest.NewRequest(tt.method, tt.target, body)
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}

			status, got := serve(t, req)
			assert.Equal(t, tt.status, status, got)
			if tt.response != "" {
				assert.JSONEq(t, tt.response, got)
			}
			if tt.contains != "" {
				assert.Contains(t, got, tt.contains)
			}
		})
	}

	t.Run("multipart upload", func(t *testing.T) {
		contentType, body := multipartBody(t)
		req := httptest.NewRequest(http.MethodPost, "/uploads", body)
		req.Header.Set("Content-Type", contentType)

		status, got := serve(t, req)
		assert.Equal(t, http.StatusOK, status, got)
		assert.JSONEq(t, `{"title":"Holiday","filename":"avatar.png","size":9,"content":"png-bytes"}`, got)
	})
}

// countingReader counts the bytes handed out by the wrapped reader.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// runBodyLimitCase streams a 10 MB JSON body with no declared length into a
// resolver limited to 16 bytes.
func runBodyLimitCase(t *testing.T, server axon.WebServerInterface, serve serveFunc) {
	t.Helper()

	const limit = 16
	cfg := binding.DefaultConfig()
	cfg.MaxBodySize = limit
	res := binding.MustNewFor[itemInput](binding.Write(), binding.WithConfig(cfg))
	server.RegisterRoute(http.MethodPost, "/limited", binding.Handle(res, respondItem))

	body := &countingReader{r: io.MultiReader(
		strings.NewReader(`{"name":"`),
		strings.NewReader(strings.Repeat("x", 10<<20)),
		strings.NewReader(`"}`),
	)}
	req := httptest.NewRequest(http.MethodPost, "/limited", body)
	req.Header.Set("Content-Type", "application/json")
	require.Equal(t, int64(-1), req.ContentLength)

	status, _ := serve(t, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, status)
	assert.LessOrEqual(t, body.n, int64(limit+1))
}

func multipartBody(t *testing.T) (string, *bytes.Buffer) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("title", "Holiday"))
	part, err := w.CreateFormFile("avatar", "avatar.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("png-bytes"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	return w.FormDataContentType(), &buf
}

// registerPlumbingRoutes covers middleware, groups and wildcards.
func registerPlumbingRoutes(server axon.WebServerInterface) {
	server.Use(func(next axon.HandlerFunc) axon.HandlerFunc {
		return func(rc axon.RequestContext) error {
			rc.Set("request_id", "req-1")
			return next(rc)
		}
	})

	deny := func(next axon.HandlerFunc) axon.HandlerFunc {
		return func(rc axon.RequestContext) error {
			return axon.NewHttpError(http.StatusForbidden, "denied")
		}
	}

	server.RegisterRoute(http.MethodGet, "/ctx", func(rc axon.RequestContext) error {
		return rc.Response().JSON(http.StatusOK, map[string]any{"request_id": rc.Get("request_id")})
	})
	server.RegisterRoute(http.MethodGet, "/private", func(rc axon.RequestContext) error {
		return rc.Response().NoContent(http.StatusNoContent)
	}, deny)
	server.RegisterRoute(http.MethodGet, "/files/{*}", func(rc axon.RequestContext) error {
		return rc.Response().JSON(http.StatusOK, map[string]any{"path": rc.Param("*")})
	})

	api := server.RegisterGroup("/api").Group("/v1")
	api.RegisterRoute(http.MethodGet, "/users/{id}", func(rc axon.RequestContext) error {
		return rc.Response().JSON(http.StatusOK, map[string]any{"id": rc.Param("id"), "route": rc.RouteParams()})
	})
}

func runPlumbingCases(t *testing.T, serve serveFunc, wildcard string) {
	t.Helper()

	tests := []struct {
		name     string
		target   string
		status   int
		response string
	}{
		{"middleware sets value", "/ctx", http.StatusOK, `{"request_id":"req-1"}`},
		{"route middleware short circuits", "/private", http.StatusForbidden, `{"status_code":403,"message":"denied"}`},
		{"wildcard", "/files/docs/a.txt", http.StatusOK, `{"path":"` + wildcard + `"}`},
		{"nested group", "/api/v1/users/42", http.StatusOK, `{"id":"42","route":{"id":"42"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, got := serve(t, httptest.NewRequest(http.MethodGet, tt.target, nil))
			assert.Equal(t, tt.status, status, got)
			assert.JSONEq(t, tt.response, got)
		})
	}
}
