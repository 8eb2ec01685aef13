package middleware

import (
	"net/http"

	"github.com/cmlabs-hris/hris-correction-go/internal/domain/correction"
	"github.com/cmlabs-hris/hris-correction-go/internal/handler/http/response"
	"github.com/go-chi/jwtauth/v5"
)

// RequireEmployee rejects tokens of users that are not linked to an
// employee, such as pending accounts.
func RequireEmployee(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, claims, err := jwtauth.FromContext(r.Context())
		if err != nil {
			response.Unauthorized(w, "Unauthorized")
			return
		}

		employeeID, ok := claims["employee_id"].(string)
		if !ok || employeeID == "" {
			response.HandleError(w, correction.ErrEmployeeIDRequired)
			return
		}

		next.ServeHTTP(w, r)
	})
}
