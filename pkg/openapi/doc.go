// Package openapi describes the books endpoint request body with an embedded
// OpenAPI document. kin-openapi parses it into field descriptors and validates
// form state against the schema before anything is sent.
package openapi
