package middleware

import (
	"net/http"

	"github.com/cmlabs-hris/hris-correction-go/internal/pkg/hrisapi"
)

// ForwardBearer keeps the caller's bearer token on the request context so
// calls to the attendance service can be made on the employee's behalf.
func ForwardBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token := hrisapi.BearerFromHeader(r.Header.Get("Authorization")); token != "" {
			r = r.WithContext(hrisapi.WithBearer(r.Context(), token))
		}
		next.ServeHTTP(w, r)
	})
}
