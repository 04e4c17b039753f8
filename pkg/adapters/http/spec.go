package http

import (
	"context"
	_ "embed"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
)

//go:embed openapi.yaml
var openapiSpec []byte

var (
	swaggerOnce sync.Once
	swaggerDoc  *openapi3.T
	swaggerErr  error
)

// rawSpec returns the embedded OpenAPI document, verbatim.
func rawSpec() []byte {
	return openapiSpec
}

// GetSwagger parses and validates the embedded OpenAPI document. The
// parsed document is shared across calls and must be treated as
// read-only.
func GetSwagger() (*openapi3.T, error) {
	swaggerOnce.Do(func() {
		loader := openapi3.NewLoader()
		swaggerDoc, swaggerErr = loader.LoadFromData(openapiSpec)
		if swaggerErr != nil {
			return
		}
		swaggerErr = swaggerDoc.Validate(context.Background())
	})
	return swaggerDoc, swaggerErr
}
