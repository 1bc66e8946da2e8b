package binding

import (
	"errors"
	"net/http"

	"github.com/toyz/axonbind/pkg/axon"
)

// Handle wraps fn so it receives the value resolved from each request.
// Resolution errors are returned as *axon.HttpError via ErrorResponse.
func Handle[T any](res *Resolver, fn func(axon.RequestContext, *T) error) axon.HandlerFunc {
	return func(rc axon.RequestContext) error {
		in, err := Bind[T](res, rc)
		if err != nil {
			return ErrorResponse(err)
		}
		return fn(rc, in)
	}
}

// ErrorResponse maps a resolution error to the HTTP error sent to clients.
// Violations become a 400 whose details hold the violation list.
func ErrorResponse(err error) *axon.HttpError {
	var verr *ViolationError
	if errors.As(err, &verr) {
		return axon.ErrBadRequestWithDetails("Invalid request parameters", map[string]any{
			"violations": verr.Violations,
		}).WithInternal(err)
	}

	switch {
	case errors.Is(err, ErrUnsupportedMethod):
		return axon.ErrMethodNotAllowed(http.StatusText(http.StatusMethodNotAllowed)).WithInternal(err)
	case errors.Is(err, ErrUnsupportedMediaType):
		return axon.ErrUnsupportedMediaType(http.StatusText(http.StatusUnsupportedMediaType)).WithInternal(err)
	case errors.Is(err, ErrBodyTooLarge):
		return axon.ErrRequestEntityTooLarge(http.StatusText(http.StatusRequestEntityTooLarge)).WithInternal(err)
	case errors.Is(err, ErrMalformedBody):
		return axon.ErrBadRequest("Malformed request body").WithInternal(err)
	default:
		return axon.AsHttpError(err)
	}
}
