package binding

import (
	"net/http"
	"strings"
)

// Allowed methods per declaration variant.
var (
	ReadMethods  = []string{http.MethodGet, http.MethodDelete}
	WriteMethods = []string{http.MethodPost, http.MethodPut, http.MethodPatch}
)

// CheckMethod returns a *MethodError when method is not in allowed.
// Comparison ignores case.
func CheckMethod(method string, allowed []string) error {
	for _, m := range allowed {
		if strings.EqualFold(m, method) {
			return nil
		}
	}
	return &MethodError{Method: method, Allowed: allowed}
}
