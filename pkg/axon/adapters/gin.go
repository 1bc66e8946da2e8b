package adapters

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/toyz/axonbind/pkg/axon"
)

// GinAdapter implements axon.WebServerInterface for Gin framework
type GinAdapter struct {
	engine *gin.Engine
	server *http.Server
}

// NewGinAdapter creates a new Gin adapter
func NewGinAdapter(g *gin.Engine) *GinAdapter {
	return &GinAdapter{engine: g}
}

// NewDefaultGinAdapter creates a new Gin adapter with default Gin instance
func NewDefaultGinAdapter() *GinAdapter {
	return &GinAdapter{engine: gin.Default()}
}

// RegisterRoute registers a route with the Gin server
func (ga *GinAdapter) RegisterRoute(method string, path axon.AxonPath, handler axon.HandlerFunc, middlewares ...axon.MiddlewareFunc) {
	ga.engine.Handle(method, ginPath(path), ginHandlers(handler, middlewares)...)
}

// RegisterGroup registers a route group with the Gin server
func (ga *GinAdapter) RegisterGroup(prefix string) axon.RouteGroup {
	return &GinRouteGroup{group: ga.engine.Group(prefix)}
}

// Use registers a global middleware with the Gin server
func (ga *GinAdapter) Use(middleware axon.MiddlewareFunc) {
	ga.engine.Use(ginMiddleware(middleware))
}

// Start starts the Gin server and blocks until it stops
func (ga *GinAdapter) Start(addr string) error {
	ga.server = &http.Server{Addr: addr, Handler: ga.engine}
	if err := ga.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop gracefully shuts down a server started with Start
func (ga *GinAdapter) Stop(ctx context.Context) error {
	if ga.server == nil {
		return nil
	}
	return ga.server.Shutdown(ctx)
}

// Name returns the adapter name
func (ga *GinAdapter) Name() string {
	return "Gin"
}

// GetEngine returns the underlying Gin engine
func (ga *GinAdapter) GetEngine() *gin.Engine {
	return ga.engine
}

// GinRouteGroup implements axon.RouteGroup for Gin
type GinRouteGroup struct {
	group *gin.RouterGroup
}

// RegisterRoute registers a route within the group
func (grg *GinRouteGroup) RegisterRoute(method string, path axon.AxonPath, handler axon.HandlerFunc, middlewares ...axon.MiddlewareFunc) {
	grg.group.Handle(method, ginPath(path), ginHandlers(handler, middlewares)...)
}

// Use registers middleware with the group
func (grg *GinRouteGroup) Use(middleware axon.MiddlewareFunc) {
	grg.group.Use(ginMiddleware(middleware))
}

// Group creates a sub-group
func (grg *GinRouteGroup) Group(prefix string) axon.RouteGroup {
	return &GinRouteGroup{group: grg.group.Group(prefix)}
}

// ginPath converts an Axon path to Gin syntax; Gin names catch-alls.
func ginPath(path axon.AxonPath) string {
	return path.Format(":", "*path")
}

func ginHandlers(handler axon.HandlerFunc, middlewares []axon.MiddlewareFunc) []gin.HandlerFunc {
	handlers := make([]gin.HandlerFunc, 0, len(middlewares)+1)
	for _, middleware := range middlewares {
		handlers = append(handlers, ginMiddleware(middleware))
	}
	return append(handlers, ginHandler(handler))
}

// ginHandler converts axon.HandlerFunc to gin.HandlerFunc
func ginHandler(handler axon.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := handler(NewGinRequestContext(c)); err != nil {
			writeHandlerError(err, c.JSON)
		}
	}
}

// ginMiddleware converts axon.MiddlewareFunc to gin.HandlerFunc
func ginMiddleware(middleware axon.MiddlewareFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		next := func(axon.RequestContext) error {
			c.Next()
			return nil
		}
		if err := middleware(next)(NewGinRequestContext(c)); err != nil {
			writeHandlerError(err, c.AbortWithStatusJSON)
		}
	}
}

// GinRequestContext implements axon.RequestContext for Gin
type GinRequestContext struct {
	ctx  *gin.Context
	body *bodyCache
}

// NewGinRequestContext wraps a gin.Context.
func NewGinRequestContext(c *gin.Context) *GinRequestContext {
	return &GinRequestContext{ctx: c, body: &bodyCache{request: c.Request}}
}

func (grc *GinRequestContext) Context() context.Context {
	return grc.ctx.Request.Context()
}

func (grc *GinRequestContext) Method() string {
	return grc.ctx.Request.Method
}

func (grc *GinRequestContext) Path() string {
	return grc.ctx.Request.URL.Path
}

// Param returns a path parameter; "*" addresses the catch-all.
func (grc *GinRequestContext) Param(name string) string {
	if name == "*" {
		return grc.ctx.Param("path")
	}
	return grc.ctx.Param(name)
}

func (grc *GinRequestContext) RouteParams() map[string]string {
	params := make(map[string]string, len(grc.ctx.Params))
	for _, p := range grc.ctx.Params {
		params[p.Key] = p.Value
	}
	return params
}

func (grc *GinRequestContext) QueryParams() map[string][]string {
	return grc.ctx.Request.URL.Query()
}

func (grc *GinRequestContext) Request() axon.RequestInterface {
	return &netHTTPRequest{request: grc.ctx.Request, body: grc.body}
}

func (grc *GinRequestContext) Response() axon.ResponseInterface {
	return &GinResponse{ctx: grc.ctx}
}

func (grc *GinRequestContext) FormParams() (map[string][]string, error) {
	return postForm(grc.ctx.Request)
}

func (grc *GinRequestContext) FormFiles() (map[string][]axon.FileHeader, error) {
	return multipartFiles(grc.ctx.Request)
}

func (grc *GinRequestContext) Get(key string) any {
	value, _ := grc.ctx.Get(key)
	return value
}

func (grc *GinRequestContext) Set(key string, val any) {
	grc.ctx.Set(key, val)
}

// netHTTPRequest implements axon.RequestInterface for frameworks built on
// *http.Request (gin, echo).
type netHTTPRequest struct {
	request *http.Request
	body    *bodyCache
}

func (r *netHTTPRequest) Header(key string) string {
	return r.request.Header.Get(key)
}

func (r *netHTTPRequest) Body() ([]byte, error) {
	return r.body.bytes(0)
}

func (r *netHTTPRequest) LimitedBody(limit int64) ([]byte, error) {
	return r.body.bytes(limit)
}

func (r *netHTTPRequest) ContentLength() int64 {
	return r.request.ContentLength
}

func (r *netHTTPRequest) ContentType() string {
	return r.request.Header.Get("Content-Type")
}

// GinResponse implements axon.ResponseInterface for Gin
type GinResponse struct {
	ctx *gin.Context
}

func (gr *GinResponse) Status() int {
	return gr.ctx.Writer.Status()
}

func (gr *GinResponse) SetHeader(key, value string) {
	gr.ctx.Header(key, value)
}

func (gr *GinResponse) JSON(code int, v any) error {
	gr.ctx.JSON(code, v)
	return nil
}

func (gr *GinResponse) NoContent(code int) error {
	gr.ctx.Status(code)
	gr.ctx.Writer.WriteHeaderNow()
	return nil
}

func (gr *GinResponse) Written() bool {
	return gr.ctx.Writer.Written()
}
