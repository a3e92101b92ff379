package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/rolegate/rolegate/internal/shared"
)

const maxBodyBytes = 1 << 20

// MessageBody is the error payload of every failed request.
type MessageBody struct {
	Message string `json:"message"`
}

// SuccessBody acknowledges a write.
type SuccessBody struct {
	Success bool `json:"success"`
}

// JSON sends a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// Message sends {"message": msg}.
func Message(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, MessageBody{Message: msg})
}

// Success sends {"success": true}.
func Success(w http.ResponseWriter, status int) {
	JSON(w, status, SuccessBody{Success: true})
}

// NewValidator returns a validator that reports fields by their json names.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// DecodeJSON decodes the request body into target and validates it with v.
// Decode and validation failures are returned as *shared.FieldError.
func DecodeJSON(r *http.Request, v *validator.Validate, target any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(target); err != nil {
		if errors.Is(err, io.EOF) {
			return shared.NewFieldError("body", "Request body is required")
		}
		return shared.NewFieldError("body", "Malformed JSON body")
	}
	if v == nil {
		return nil
	}
	return Validate(v, target)
}

// Validate runs struct validation and converts the first failure to a FieldError.
func Validate(v *validator.Validate, target any) error {
	err := v.Struct(target)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return shared.NewFieldError("", err.Error())
	}
	fe := verrs[0]
	return shared.NewFieldError(fe.Field(), describe(fe))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "email":
		return fmt.Sprintf("%s must be a valid email", fe.Field())
	case "min":
		if fe.Kind().String() == "string" {
			return fmt.Sprintf("%s must be at least %s characters long", fe.Field(), fe.Param())
		}
		if fe.Kind().String() == "slice" {
			return fmt.Sprintf("%s must contain at least %s item(s)", fe.Field(), fe.Param())
		}
		return fmt.Sprintf("%s must be greater than or equal to %s", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be less than or equal to %s", fe.Field(), fe.Param())
	case "uuid4", "uuid":
		return fmt.Sprintf("%s must be a valid id", fe.Field())
	case "dive":
		return fmt.Sprintf("%s is invalid", fe.Field())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}
