// Package api holds the OpenAPI contract of the HTTP interface. The Go types in
// internal/generated/servers are maintained by hand to match it.
package api

import _ "embed"

// Spec is the OpenAPI 3 document in YAML.
//
//go:embed openapi.yml
var Spec []byte
