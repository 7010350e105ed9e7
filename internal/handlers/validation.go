package handlers

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// newValidator returns a validator reporting fields by their form/json name.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"form", "json"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return fld.Name
	})
	return v
}

// validationErrors flattens a validator error into a field to message map.
func validationErrors(err error) map[string]string {
	errorMessages := make(map[string]string)
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		errorMessages["__all__"] = err.Error()
		return errorMessages
	}
	for _, e := range validationErrs {
		errorMessages[e.Field()] = fieldMessage(e)
	}
	return errorMessages
}

func fieldMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required."
	case "oneof":
		return fmt.Sprintf("Select a valid choice. %s is not one of the available choices.", e.Value())
	case "gte":
		return fmt.Sprintf("Ensure this value is greater than or equal to %s.", e.Param())
	case "max":
		return fmt.Sprintf("Ensure this value has at most %s characters.", e.Param())
	case "min":
		return fmt.Sprintf("Ensure this value has at least %s characters.", e.Param())
	case "url":
		return "Enter a valid URL."
	case "eqfield":
		return "The two password fields didn't match."
	default:
		return fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
	}
}

// jsonStatus writes the {"status": ...} envelope used by the AJAX endpoints.
func jsonStatus(c *fiber.Ctx, code int, status string, extra fiber.Map) error {
	body := fiber.Map{"status": status}
	for k, v := range extra {
		body[k] = v
	}
	return c.Status(code).JSON(body)
}

func methodNotAllowed(c *fiber.Ctx) error {
	return jsonStatus(c, fiber.StatusMethodNotAllowed, "error", fiber.Map{
		"message": "Method not allowed",
	})
}
