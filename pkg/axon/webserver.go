package axon

import (
	"context"
	"io"
)

// WebServerInterface defines the contract for web server implementations
type WebServerInterface interface {
	// Route registration
	RegisterRoute(method string, path AxonPath, handler HandlerFunc, middlewares ...MiddlewareFunc)
	RegisterGroup(prefix string) RouteGroup

	// Global middleware
	Use(middleware MiddlewareFunc)

	// Server lifecycle
	Start(addr string) error
	Stop(ctx context.Context) error

	Name() string
}

// RouteGroup represents a group of routes with a common prefix
type RouteGroup interface {
	RegisterRoute(method string, path AxonPath, handler HandlerFunc, middlewares ...MiddlewareFunc)
	Use(middleware MiddlewareFunc)
	Group(prefix string) RouteGroup
}

// RequestContext is the framework-agnostic view of an incoming request that
// the binding layer reads from. Adapters for gin, echo and fiber implement it.
type RequestContext interface {
	// Context returns the request-scoped context.
	Context() context.Context

	Method() string
	Path() string

	// Param returns a single route parameter.
	Param(name string) string
	// RouteParams returns every route parameter matched for this request.
	RouteParams() map[string]string

	// QueryParams returns the parsed query string.
	QueryParams() map[string][]string

	Request() RequestInterface
	Response() ResponseInterface

	// FormParams returns the parsed body fields of a form-encoded or
	// multipart request. Query values are not included.
	FormParams() (map[string][]string, error)
	// FormFiles returns the uploaded files of a multipart request, keyed by
	// field name. Non-multipart requests yield an empty map.
	FormFiles() (map[string][]FileHeader, error)

	// Request-scoped storage
	Get(key string) any
	Set(key string, val any)
}

// RequestInterface provides access to the underlying request
type RequestInterface interface {
	Header(key string) string
	// Body returns the raw request body. Calling it more than once returns
	// the same bytes.
	Body() ([]byte, error)
	// LimitedBody is like Body but stops reading after limit+1 bytes and
	// fails with ErrBodyTooLarge when the body is longer than limit. A limit
	// of zero or less reads the whole body.
	LimitedBody(limit int64) ([]byte, error)
	ContentLength() int64
	ContentType() string
}

// ResponseInterface provides response writing capabilities
type ResponseInterface interface {
	Status() int
	SetHeader(key, value string)
	JSON(code int, v any) error
	NoContent(code int) error
	Written() bool
}

// HandlerFunc defines the signature for HTTP handlers
type HandlerFunc func(RequestContext) error

// MiddlewareFunc defines the signature for middleware
type MiddlewareFunc func(HandlerFunc) HandlerFunc

// FileHeader represents an uploaded file
type FileHeader interface {
	Filename() string
	Header() map[string][]string
	Size() int64
	Open() (io.ReadCloser, error)
}
