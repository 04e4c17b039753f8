package http

import (
	"net/http"

	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers/gorillamux"
)

// requestValidator builds middleware that rejects requests violating
// the embedded OpenAPI contract before they reach a handler. Paths the
// contract does not describe pass through untouched.
func (s *Server) requestValidator() (func(http.Handler) http.Handler, error) {
	doc, err := GetSwagger()
	if err != nil {
		return nil, err
	}
	router, err := gorillamux.NewRouter(doc)
	if err != nil {
		return nil, err
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route, pathParams, err := router.FindRoute(r)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			input := &openapi3filter.RequestValidationInput{
				Request:    r,
				PathParams: pathParams,
				Route:      route,
			}
			if err := openapi3filter.ValidateRequest(r.Context(), input); err != nil {
				writeError(w, http.StatusBadRequest, err.Error())
				s.log.Warn("request rejected by contract", "path", r.URL.Path, "error", err)
				return
			}

			next.ServeHTTP(w, r)
		})
	}, nil
}
