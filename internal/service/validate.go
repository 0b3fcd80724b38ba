package service

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/aanand-mishra/patients-api/internal/types"
)

// validate is safe for concurrent use and caches struct metadata, so one
// instance serves the whole process.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their JSON names so errors match the request body.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidatePatient checks every field rule on p. It returns a
// *ValidationError listing all failing fields, or nil.
//
// A record whose BMI is not a finite number is rejected too: it could be
// stored but never encoded back out.
func ValidatePatient(p types.Patient) error {
	if err := toValidationError(validate.Struct(p)); err != nil {
		return err
	}
	if bmi := types.BMI(p.Height, p.Weight); math.IsInf(bmi, 0) || math.IsNaN(bmi) {
		field := "height"
		if p.Height >= 1 {
			field = "weight"
		}
		return fieldError(field, "bmi", fmt.Sprintf("field %s gives a BMI out of range", field))
	}
	return nil
}

// ParsePatient decodes a create request body and validates it. Every
// problem with the body, including an empty body, malformed JSON, a
// missing field or a value of the wrong JSON type, is a *ValidationError.
func ParsePatient(body []byte) (types.Patient, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return types.Patient{}, fieldError("body", "required", "request body is empty")
	}

	var req types.PatientRequest
	if err := json.Unmarshal(body, &req); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			field := typeErr.Field
			if field == "" {
				field = "body"
			}
			return types.Patient{}, fieldError(field, "type",
				fmt.Sprintf("field %s must be of type %s", field, jsonKind(typeErr.Type)))
		}
		return types.Patient{}, fieldError("body", "json", "request body is not valid JSON: "+err.Error())
	}

	if err := toValidationError(validate.Struct(req)); err != nil {
		return types.Patient{}, err
	}

	p := req.Patient()
	if err := ValidatePatient(p); err != nil {
		return types.Patient{}, err
	}
	return p, nil
}

func toValidationError(err error) error {
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	out := &ValidationError{Fields: make([]FieldError, 0, len(verrs))}
	for _, e := range verrs {
		out.Fields = append(out.Fields, FieldError{
			Field:   e.Field(),
			Rule:    e.Tag(),
			Message: message(e),
		})
	}
	return out
}

func message(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("field %s is required", e.Field())
	case "gt":
		return fmt.Sprintf("field %s must be greater than %s", e.Field(), e.Param())
	case "lt":
		return fmt.Sprintf("field %s must be less than %s", e.Field(), e.Param())
	case "oneof":
		return fmt.Sprintf("field %s must be one of [%s]", e.Field(), e.Param())
	default:
		return fmt.Sprintf("field %s is invalid", e.Field())
	}
}

func jsonKind(t reflect.Type) string {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return "unknown"
	}
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return "integer"
	case reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Bool:
		return "boolean"
	default:
		return t.Kind().String()
	}
}
