package adapters

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/toyz/axonbind/pkg/axon"
)

// FiberAdapter wraps a Fiber app to implement axon.WebServerInterface
type FiberAdapter struct {
	app *fiber.App
}

// NewFiberAdapter creates a new Fiber adapter instance
func NewFiberAdapter() *FiberAdapter {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if fe, ok := err.(*fiber.Error); ok {
				return c.Status(fe.Code).JSON(axon.NewHttpError(fe.Code, fe.Message))
			}
			httpErr := axon.AsHttpError(err)
			return c.Status(httpErr.StatusCode).JSON(httpErr)
		},
	})

	return &FiberAdapter{app: app}
}

// NewDefaultFiberAdapter creates a new Fiber adapter with default middleware
func NewDefaultFiberAdapter() *FiberAdapter {
	adapter := NewFiberAdapter()
	adapter.app.Use(logger.New())
	adapter.app.Use(recover.New())
	return adapter
}

// RegisterRoute registers a route with the Fiber app
func (fa *FiberAdapter) RegisterRoute(method string, path axon.AxonPath, handler axon.HandlerFunc, middlewares ...axon.MiddlewareFunc) {
	fa.app.Add(strings.ToUpper(method), fiberPath(path), fiberHandlers(handler, middlewares)...)
}

// RegisterGroup creates a new route group with the given prefix
func (fa *FiberAdapter) RegisterGroup(prefix string) axon.RouteGroup {
	return &FiberRouteGroup{group: fa.app.Group(prefix)}
}

// Use adds middleware to the Fiber app
func (fa *FiberAdapter) Use(middleware axon.MiddlewareFunc) {
	fa.app.Use(fiberMiddleware(middleware))
}

// Start starts the Fiber server
func (fa *FiberAdapter) Start(addr string) error {
	return fa.app.Listen(addr)
}

// Stop stops the Fiber server
func (fa *FiberAdapter) Stop(ctx context.Context) error {
	return fa.app.ShutdownWithContext(ctx)
}

// Name returns the adapter name
func (fa *FiberAdapter) Name() string {
	return "Fiber"
}

// GetApp returns the underlying Fiber app
func (fa *FiberAdapter) GetApp() *fiber.App {
	return fa.app
}

// FiberRouteGroup wraps a Fiber route group to implement axon.RouteGroup
type FiberRouteGroup struct {
	group fiber.Router
}

// RegisterRoute registers a route in the group
func (frg *FiberRouteGroup) RegisterRoute(method string, path axon.AxonPath, handler axon.HandlerFunc, middlewares ...axon.MiddlewareFunc) {
	frg.group.Add(strings.ToUpper(method), fiberPath(path), fiberHandlers(handler, middlewares)...)
}

// Use adds middleware to the route group
func (frg *FiberRouteGroup) Use(middleware axon.MiddlewareFunc) {
	frg.group.Use(fiberMiddleware(middleware))
}

// Group creates a nested route group
func (frg *FiberRouteGroup) Group(prefix string) axon.RouteGroup {
	return &FiberRouteGroup{group: frg.group.Group(prefix)}
}

func fiberPath(path axon.AxonPath) string {
	return path.Format(":", "*")
}

func fiberHandlers(handler axon.HandlerFunc, middlewares []axon.MiddlewareFunc) []fiber.Handler {
	handlers := make([]fiber.Handler, 0, len(middlewares)+1)
	for _, mw := range middlewares {
		handlers = append(handlers, fiberMiddleware(mw))
	}
	return append(handlers, fiberHandler(handler))
}

// fiberHandler converts an Axon handler to a Fiber handler. Errors flow to
// the app's ErrorHandler.
func fiberHandler(handler axon.HandlerFunc) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return handler(&FiberRequestContext{ctx: c})
	}
}

// fiberMiddleware converts an Axon middleware to a Fiber middleware
func fiberMiddleware(middleware axon.MiddlewareFunc) fiber.Handler {
	return func(c *fiber.Ctx) error {
		next := func(axon.RequestContext) error {
			return c.Next()
		}
		return middleware(next)(&FiberRequestContext{ctx: c})
	}
}

// FiberRequestContext wraps fiber.Ctx to implement axon.RequestContext
type FiberRequestContext struct {
	ctx *fiber.Ctx
}

// NewFiberRequestContext wraps a fiber.Ctx.
func NewFiberRequestContext(c *fiber.Ctx) *FiberRequestContext {
	return &FiberRequestContext{ctx: c}
}

func (frc *FiberRequestContext) Context() context.Context {
	return frc.ctx.UserContext()
}

func (frc *FiberRequestContext) Method() string {
	return frc.ctx.Method()
}

func (frc *FiberRequestContext) Path() string {
	return frc.ctx.Path()
}

func (frc *FiberRequestContext) Param(name string) string {
	return frc.ctx.Params(name)
}

// RouteParams copies the matched parameters; fiber reuses its buffers
// once the handler returns.
func (frc *FiberRequestContext) RouteParams() map[string]string {
	params := make(map[string]string)
	for key, value := range frc.ctx.AllParams() {
		params[strings.Clone(key)] = strings.Clone(value)
	}
	return params
}

func (frc *FiberRequestContext) QueryParams() map[string][]string {
	result := make(map[string][]string)
	frc.ctx.Request().URI().QueryArgs().VisitAll(func(key, value []byte) {
		k := string(key)
		result[k] = append(result[k], string(value))
	})
	return result
}

func (frc *FiberRequestContext) Request() axon.RequestInterface {
	return &FiberRequest{ctx: frc.ctx}
}

func (frc *FiberRequestContext) Response() axon.ResponseInterface {
	return &FiberResponse{ctx: frc.ctx}
}

func (frc *FiberRequestContext) FormParams() (map[string][]string, error) {
	if frc.isMultipart() {
		form, err := frc.ctx.MultipartForm()
		if err != nil {
			return nil, err
		}
		return form.Value, nil
	}

	result := make(map[string][]string)
	frc.ctx.Request().PostArgs().VisitAll(func(key, value []byte) {
		k := string(key)
		result[k] = append(result[k], string(value))
	})
	return result, nil
}

func (frc *FiberRequestContext) FormFiles() (map[string][]axon.FileHeader, error) {
	if !frc.isMultipart() {
		return map[string][]axon.FileHeader{}, nil
	}
	form, err := frc.ctx.MultipartForm()
	if err != nil {
		return nil, err
	}
	return convertMultipartFiles(form), nil
}

func (frc *FiberRequestContext) isMultipart() bool {
	return strings.HasPrefix(string(frc.ctx.Request().Header.ContentType()), fiber.MIMEMultipartForm)
}

func (frc *FiberRequestContext) Get(key string) any {
	return frc.ctx.Locals(key)
}

func (frc *FiberRequestContext) Set(key string, val any) {
	frc.ctx.Locals(key, val)
}

// FiberRequest wraps fiber.Ctx to implement axon.RequestInterface
type FiberRequest struct {
	ctx *fiber.Ctx
}

func (fr *FiberRequest) Header(key string) string {
	return fr.ctx.Get(key)
}

// Body returns a copy of the body, which stays valid after the handler returns.
func (fr *FiberRequest) Body() ([]byte, error) {
	return bytes.Clone(fr.ctx.Body()), nil
}

// LimitedBody checks the body fasthttp has already read, bounded by the
// app's BodyLimit, against limit before copying it.
func (fr *FiberRequest) LimitedBody(limit int64) ([]byte, error) {
	body := fr.ctx.Body()
	if limit > 0 && int64(len(body)) > limit {
		return nil, fmt.Errorf("%w: more than %d bytes", axon.ErrBodyTooLarge, limit)
	}
	return bytes.Clone(body), nil
}

func (fr *FiberRequest) ContentLength() int64 {
	return int64(fr.ctx.Request().Header.ContentLength())
}

func (fr *FiberRequest) ContentType() string {
	return fr.ctx.Get(fiber.HeaderContentType)
}

// FiberResponse wraps fiber.Ctx to implement axon.ResponseInterface
type FiberResponse struct {
	ctx *fiber.Ctx
}

func (fr *FiberResponse) Status() int {
	return fr.ctx.Response().StatusCode()
}

func (fr *FiberResponse) SetHeader(name, value string) {
	fr.ctx.Set(name, value)
}

func (fr *FiberResponse) JSON(code int, data any) error {
	return fr.ctx.Status(code).JSON(data)
}

func (fr *FiberResponse) NoContent(code int) error {
	return fr.ctx.SendStatus(code)
}

func (fr *FiberResponse) Written() bool {
	return len(fr.ctx.Response().Body()) > 0
}
