package api

import _ "embed"

// openAPISpec is the OpenAPI document served at /docs/doc.json and rendered
// by the Swagger UI at /docs/index.html.
//
//go:embed openapi.json
var openAPISpec []byte
