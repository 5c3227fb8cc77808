// Package validation provides input validation for request payloads and
// component options.
//
// It supports both struct tag validation (using the validator library) and
// programmatic validation with error collection. Struct tag validation is
// the usual choice for wire requests; the fluent Validator suits config
// structs whose checks depend on other fields.
//
// # Struct Tag Validation
//
//	type ProcessRequest struct {
//	    Payload string `json:"payload" validate:"required"`
//	}
//	err := validation.Validate(req)
//
// # Programmatic Validation
//
//	v := validation.New()
//	v.Required("address", addr).Range("port", port, 1, 65535)
//	err := v.Validate()
package validation
