// Package validation checks API request payloads and configuration
// values before they reach the engines. Unknown kinds are deliberately
// not rejected here: the navigator owns that distinction, since an
// unknown kind is a lookup failure rather than a malformed request.
package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	// validate is a singleton validator instance
	validate *validator.Validate

	// Validation constants
	MaxIDLength     = 512
	MaxSearchLength = 256
	MaxNameLength   = 128
)

func init() {
	validate = validator.New()
}

// ExpandRequest asks for the children of one node.
type ExpandRequest struct {
	ID   string `json:"id" validate:"required,max=512"`
	Kind string `json:"kind" validate:"required,max=64"`
}

// ListRequest asks for the root listing. GroupBy defaults to "type"
// when empty.
type ListRequest struct {
	GroupBy string `json:"groupBy" validate:"omitempty,oneof=type bay"`
	Search  string `json:"search" validate:"omitempty,max=256"`
}

// SessionRequest opens a server-side tree session rooted at one node.
type SessionRequest struct {
	RootID   string `json:"rootId" validate:"required,max=512"`
	RootKind string `json:"rootKind" validate:"required,max=64"`
	Label    string `json:"label" validate:"omitempty,max=128"`
}

// ExportRequest writes a session snapshot to the configured sink.
type ExportRequest struct {
	Name string `json:"name" validate:"omitempty,max=128"`
}

// Struct validates any tagged struct, formatting the first failure the
// same way the request validators do.
func Struct(s any) error {
	if err := validate.Struct(s); err != nil {
		return formatValidationError(err)
	}
	return nil
}

// ValidateExpandRequest validates an expansion request
func ValidateExpandRequest(req *ExpandRequest) error {
	if req == nil {
		return errors.New("expand request cannot be nil")
	}
	if err := validate.Struct(req); err != nil {
		return formatValidationError(err)
	}
	if strings.TrimSpace(req.ID) == "" {
		return errors.New("ID: field is required")
	}
	return nil
}

// ValidateListRequest validates a root listing request
func ValidateListRequest(req *ListRequest) error {
	if req == nil {
		return errors.New("list request cannot be nil")
	}
	if err := validate.Struct(req); err != nil {
		return formatValidationError(err)
	}
	return nil
}

// ValidateSessionRequest validates a session creation request
func ValidateSessionRequest(req *SessionRequest) error {
	if req == nil {
		return errors.New("session request cannot be nil")
	}
	if err := validate.Struct(req); err != nil {
		return formatValidationError(err)
	}
	if strings.TrimSpace(req.RootID) == "" {
		return errors.New("RootID: field is required")
	}
	return nil
}

// ValidateExportRequest validates an export request
func ValidateExportRequest(req *ExportRequest) error {
	if req == nil {
		return errors.New("export request cannot be nil")
	}
	if err := validate.Struct(req); err != nil {
		return formatValidationError(err)
	}
	return nil
}

// formatValidationError converts validator errors to a more user-friendly format
func formatValidationError(err error) error {
	if err == nil {
		return nil
	}

	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	// Return the first validation error in a user-friendly format
	for _, e := range validationErrs {
		field := e.Field()
		tag := e.Tag()
		param := e.Param()

		switch tag {
		case "required":
			return fmt.Errorf("%s: field is required", field)
		case "min":
			return fmt.Errorf("%s: must be at least %s", field, param)
		case "max":
			return fmt.Errorf("%s: must not exceed %s", field, param)
		case "oneof":
			return fmt.Errorf("%s: must be one of [%s]", field, param)
		default:
			return fmt.Errorf("%s: validation failed (%s)", field, tag)
		}
	}

	return err
}
