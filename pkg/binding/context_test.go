package binding

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/toyz/axonbind/pkg/axon"
)

// fakeContext is an in-memory axon.RequestContext that records which
// request accessors were used.
type fakeContext struct {
	method  string
	route   map[string]string
	query   map[string][]string
	request *fakeRequest
	form    map[string][]string
	files   map[string][]axon.FileHeader
	formErr error
	values  map[string]any
	calls   []string
}

func newFakeContext(method string) *fakeContext {
	return &fakeContext{
		method:  method,
		route:   map[string]string{},
		query:   map[string][]string{},
		request: &fakeRequest{},
		form:    map[string][]string{},
		files:   map[string][]axon.FileHeader{},
		values:  map[string]any{},
	}
}

func jsonContext(method, body string) *fakeContext {
	c := newFakeContext(method)
	c.request = &fakeRequest{contentType: "application/json", body: []byte(body), contentLength: int64(len(body))}
	return c
}

func formContext(method string, form map[string][]string) *fakeContext {
	c := newFakeContext(method)
	c.request = &fakeRequest{contentType: "application/x-www-form-urlencoded", contentLength: 1}
	c.form = form
	return c
}

func (c *fakeContext) withRoute(route map[string]string) *fakeContext {
	c.route = route
	return c
}

func (c *fakeContext) withQuery(query map[string][]string) *fakeContext {
	c.query = query
	return c
}

func (c *fakeContext) Context() context.Context { return context.Background() }
func (c *fakeContext) Method() string           { return c.method }
func (c *fakeContext) Path() string             { return "/" }
func (c *fakeContext) Param(name string) string { return c.route[name] }

func (c *fakeContext) RouteParams() map[string]string {
	c.calls = append(c.calls, "RouteParams")
	return c.route
}

func (c *fakeContext) QueryParams() map[string][]string {
	c.calls = append(c.calls, "QueryParams")
	return c.query
}

func (c *fakeContext) Request() axon.RequestInterface {
	c.calls = append(c.calls, "Request")
	return c.request
}

func (c *fakeContext) Response() axon.ResponseInterface { return &fakeResponse{} }

func (c *fakeContext) FormParams() (map[string][]string, error) {
	c.calls = append(c.calls, "FormParams")
	return c.form, c.formErr
}

func (c *fakeContext) FormFiles() (map[string][]axon.FileHeader, error) {
	c.calls = append(c.calls, "FormFiles")
	return c.files, nil
}

func (c *fakeContext) Get(key string) any      { return c.values[key] }
func (c *fakeContext) Set(key string, val any) { c.values[key] = val }

type fakeRequest struct {
	contentType   string
	body          []byte
	bodyErr       error
	contentLength int64
	bodyReads     int
	bytesRead     int
}

func (r *fakeRequest) Header(key string) string {
	if key == "Content-Type" {
		return r.contentType
	}
	return ""
}

func (r *fakeRequest) Body() ([]byte, error) {
	return r.LimitedBody(0)
}

// LimitedBody reads at most limit+1 bytes, as the adapters do.
func (r *fakeRequest) LimitedBody(limit int64) ([]byte, error) {
	r.bodyReads++
	if r.bodyErr != nil {
		return nil, r.bodyErr
	}
	if limit > 0 && int64(len(r.body)) > limit {
		r.bytesRead += int(limit) + 1
		return nil, fmt.Errorf("%w: more than %d bytes", axon.ErrBodyTooLarge, limit)
	}
	r.bytesRead += len(r.body)
	return r.body, nil
}

func (r *fakeRequest) ContentLength() int64 { return r.contentLength }
func (r *fakeRequest) ContentType() string  { return r.contentType }

type fakeResponse struct {
	status int
	body   any
}

func (r *fakeResponse) Status() int                 { return r.status }
func (r *fakeResponse) SetHeader(key, value string) {}
func (r *fakeResponse) Written() bool               { return r.status != 0 }

func (r *fakeResponse) JSON(code int, v any) error {
	r.status, r.body = code, v
	return nil
}

func (r *fakeResponse) NoContent(code int) error {
	r.status = code
	return nil
}

type fakeFile struct {
	name    string
	content string
}

func (f *fakeFile) Filename() string            { return f.name }
func (f *fakeFile) Header() map[string][]string { return nil }
func (f *fakeFile) Size() int64                 { return int64(len(f.content)) }
func (f *fakeFile) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader([]byte(f.content))), nil
}
