package adapters

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/toyz/axonbind/pkg/axon"
)

func serveFiber(adapter *FiberAdapter) serveFunc {
	return func(t *testing.T, req *http.Request) (int, string) {
		resp, err := adapter.GetApp().Test(req, -1)
		require.NoError(t, err)
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return resp.StatusCode, string(body)
	}
}

func TestFiberAdapter_Basics(t *testing.T) {
	adapter := NewDefaultFiberAdapter()
	assert.Equal(t, "Fiber", adapter.Name())
	assert.NotNil(t, adapter.GetApp())
}

func TestFiberAdapter_Binding(t *testing.T) {
	adapter := NewFiberAdapter()
	registerBindingRoutes(adapter)

	runBindingCases(t, serveFiber(adapter))
}

func TestFiberAdapter_Plumbing(t *testing.T) {
	adapter := NewFiberAdapter()
	registerPlumbingRoutes(adapter)

	runPlumbingCases(t, serveFiber(adapter), "docs/a.txt")
}

func TestFiberAdapter_FrameworkErrors(t *testing.T) {
	adapter := NewFiberAdapter()
	adapter.RegisterRoute(http.MethodGet, "/teapot", func(rc axon.RequestContext) error {
		return fiber.NewError(http.StatusTeapot, "short and stout")
	})

	status, body := serveFiber(adapter)(t, httptest.NewRequest(http.MethodGet, "/teapot", nil))
	assert.Equal(t, http.StatusTeapot, status)
	assert.JSONEq(t, `{"status_code":418,"message":"short and stout"}`, body)

	status, body = serveFiber(adapter)(t, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, status)
	assert.JSONEq(t, `{"status_code":404,"message":"Cannot GET /missing"}`, body)
}

func TestFiberRequestContext_RouteParamsOutliveHandler(t *testing.T) {
	adapter := NewFiberAdapter()

	var params map[string]string
	var body []byte
	adapter.RegisterRoute(http.MethodPost, "/users/{id}", func(rc axon.RequestContext) error {
		params = rc.RouteParams()
		var err error
		body, err = rc.Request().Body()
		if err != nil {
			return err
		}
		return rc.Response().NoContent(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodPost, "/users/abc", strings.NewReader(`{"a":1}`))
	req.Header.Set("Content-Type", "application/json")
	status, _ := serveFiber(adapter)(t, req)

	require.Equal(t, http.StatusNoContent, status)
	assert.Equal(t, map[string]string{"id": "abc"}, params)
	assert.Equal(t, `{"a":1}`, string(body))
}

func TestFiberRequestContext_QueryAndForm(t *testing.T) {
	adapter := NewFiberAdapter()

	var query, form map[string][]string
	var contentLength int64
	adapter.RegisterRoute(http.MethodPut, "/form", func(rc axon.RequestContext) error {
		query = rc.QueryParams()
		contentLength = rc.Request().ContentLength()
		var err error
		form, err = rc.FormParams()
		if err != nil {
			return err
		}
		return rc.Response().NoContent(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodPut, "/form?tag=a&tag=b", strings.NewReader("name=Ann"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	status, _ := serveFiber(adapter)(t, req)

	require.Equal(t, http.StatusNoContent, status)
	assert.Equal(t, map[string][]string{"tag": {"a", "b"}}, query)
	assert.Equal(t, map[string][]string{"name": {"Ann"}}, form)
	assert.Equal(t, int64(len("name=Ann")), contentLength)
}

func TestFiberRequest_LimitedBody(t *testing.T) {
	adapter := NewFiberAdapter()

	var limitErr error
	var body []byte
	adapter.RegisterRoute(http.MethodPost, "/echo", func(rc axon.RequestContext) error {
		_, limitErr = rc.Request().LimitedBody(4)
		var err error
		body, err = rc.Request().LimitedBody(64)
		if err != nil {
			return err
		}
		return rc.Response().NoContent(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(`{"name":"Ann"}`))
	req.Header.Set("Content-Type", "application/json")
	status, _ := serveFiber(adapter)(t, req)

	require.Equal(t, http.StatusNoContent, status)
	assert.ErrorIs(t, limitErr, axon.ErrBodyTooLarge)
	assert.Equal(t, `{"name":"Ann"}`, string(body))
}
