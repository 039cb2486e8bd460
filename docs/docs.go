// Package docs serves the OpenAPI description of the HTTP API at /swagger/doc.json.
package docs

import (
	_ "embed"

	"github.com/swaggo/swag"
)

//go:embed swagger.json
var doc string

type swaggerDoc struct{}

func (swaggerDoc) ReadDoc() string { return doc }

func init() {
	swag.Register(swag.Name, swaggerDoc{})
}
