package adapters

import (
	"context"

	"github.com/labstack/echo/v4"
	"github.com/toyz/axonbind/pkg/axon"
)

// EchoAdapter implements axon.WebServerInterface for Echo v4
type EchoAdapter struct {
	engine *echo.Echo
}

// NewEchoAdapter creates a new Echo adapter
func NewEchoAdapter(e *echo.Echo) *EchoAdapter {
	return &EchoAdapter{engine: e}
}

// NewDefaultEchoAdapter creates a new Echo adapter with default Echo instance
func NewDefaultEchoAdapter() *EchoAdapter {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = echoErrorHandler
	return &EchoAdapter{engine: e}
}

// RegisterRoute registers a route with the Echo server
func (ea *EchoAdapter) RegisterRoute(method string, path axon.AxonPath, handler axon.HandlerFunc, middlewares ...axon.MiddlewareFunc) {
	ea.engine.Add(method, echoPath(path), echoHandler(handler), echoMiddlewares(middlewares)...)
}

// RegisterGroup registers a route group with the Echo server
func (ea *EchoAdapter) RegisterGroup(prefix string) axon.RouteGroup {
	return &EchoGroupAdapter{group: ea.engine.Group(prefix)}
}

// Use registers global middleware
func (ea *EchoAdapter) Use(middleware axon.MiddlewareFunc) {
	ea.engine.Use(echoMiddleware(middleware))
}

// Start starts the Echo server
func (ea *EchoAdapter) Start(addr string) error {
	return ea.engine.Start(addr)
}

// Stop gracefully stops the Echo server
func (ea *EchoAdapter) Stop(ctx context.Context) error {
	return ea.engine.Shutdown(ctx)
}

// Name returns the adapter name
func (ea *EchoAdapter) Name() string {
	return "Echo"
}

// GetEngine returns the underlying Echo instance
func (ea *EchoAdapter) GetEngine() *echo.Echo {
	return ea.engine
}

// EchoGroupAdapter implements axon.RouteGroup for Echo groups
type EchoGroupAdapter struct {
	group *echo.Group
}

// RegisterRoute registers a route within the group
func (ega *EchoGroupAdapter) RegisterRoute(method string, path axon.AxonPath, handler axon.HandlerFunc, middlewares ...axon.MiddlewareFunc) {
	ega.group.Add(method, echoPath(path), echoHandler(handler), echoMiddlewares(middlewares)...)
}

// Use adds middleware to the group
func (ega *EchoGroupAdapter) Use(middleware axon.MiddlewareFunc) {
	ega.group.Use(echoMiddleware(middleware))
}

// Group creates a sub-group
func (ega *EchoGroupAdapter) Group(prefix string) axon.RouteGroup {
	return &EchoGroupAdapter{group: ega.group.Group(prefix)}
}

func echoPath(path axon.AxonPath) string {
	return path.Format(":", "*")
}

// echoErrorHandler renders axon.HttpError values with their own status code.
func echoErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	if he, ok := err.(*echo.HTTPError); ok {
		_ = c.JSON(he.Code, axon.NewHttpError(he.Code, echoErrorMessage(he)))
		return
	}
	writeHandlerError(err, func(code int, body any) {
		_ = c.JSON(code, body)
	})
}

func echoErrorMessage(he *echo.HTTPError) string {
	if msg, ok := he.Message.(string); ok {
		return msg
	}
	return he.Error()
}

// echoHandler converts axon.HandlerFunc to echo.HandlerFunc
func echoHandler(handler axon.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		return handler(NewEchoRequestContext(c))
	}
}

func echoMiddlewares(middlewares []axon.MiddlewareFunc) []echo.MiddlewareFunc {
	converted := make([]echo.MiddlewareFunc, 0, len(middlewares))
	for _, middleware := range middlewares {
		converted = append(converted, echoMiddleware(middleware))
	}
	return converted
}

// echoMiddleware converts axon.MiddlewareFunc to echo.MiddlewareFunc
func echoMiddleware(middleware axon.MiddlewareFunc) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			axonNext := func(axon.RequestContext) error {
				return next(c)
			}
			return middleware(axonNext)(NewEchoRequestContext(c))
		}
	}
}

// EchoRequestContext implements axon.RequestContext for Echo
type EchoRequestContext struct {
	context echo.Context
	body    *bodyCache
}

// NewEchoRequestContext wraps an echo.Context.
func NewEchoRequestContext(c echo.Context) *EchoRequestContext {
	return &EchoRequestContext{context: c, body: &bodyCache{request: c.Request()}}
}

func (erc *EchoRequestContext) Context() context.Context {
	return erc.context.Request().Context()
}

func (erc *EchoRequestContext) Method() string {
	return erc.context.Request().Method
}

func (erc *EchoRequestContext) Path() string {
	return erc.context.Request().URL.Path
}

func (erc *EchoRequestContext) Param(key string) string {
	return erc.context.Param(key)
}

func (erc *EchoRequestContext) RouteParams() map[string]string {
	names := erc.context.ParamNames()
	values := erc.context.ParamValues()
	params := make(map[string]string, len(names))
	for i, name := range names {
		if i < len(values) {
			params[name] = values[i]
		}
	}
	return params
}

func (erc *EchoRequestContext) QueryParams() map[string][]string {
	return erc.context.QueryParams()
}

func (erc *EchoRequestContext) Request() axon.RequestInterface {
	return &netHTTPRequest{request: erc.context.Request(), body: erc.body}
}

func (erc *EchoRequestContext) Response() axon.ResponseInterface {
	return &EchoResponse{context: erc.context}
}

// FormParams returns body fields only; echo's own FormParams mixes in the query.
func (erc *EchoRequestContext) FormParams() (map[string][]string, error) {
	return postForm(erc.context.Request())
}

func (erc *EchoRequestContext) FormFiles() (map[string][]axon.FileHeader, error) {
	return multipartFiles(erc.context.Request())
}

func (erc *EchoRequestContext) Get(key string) any {
	return erc.context.Get(key)
}

func (erc *EchoRequestContext) Set(key string, val any) {
	erc.context.Set(key, val)
}

// EchoResponse implements axon.ResponseInterface for Echo responses
type EchoResponse struct {
	context echo.Context
}

func (er *EchoResponse) Status() int {
	return er.context.Response().Status
}

func (er *EchoResponse) SetHeader(key, value string) {
	er.context.Response().Header().Set(key, value)
}

func (er *EchoResponse) JSON(code int, v any) error {
	return er.context.JSON(code, v)
}

func (er *EchoResponse) NoContent(code int) error {
	return er.context.NoContent(code)
}

func (er *EchoResponse) Written() bool {
	return er.context.Response().Committed
}
