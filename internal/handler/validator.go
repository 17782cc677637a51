package handler

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/aman-churiwal/blog-api/internal/apperrors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

var usernamePattern = regexp.MustCompile(`^[a-z0-9]+$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
			if name != "" && name != "-" {
				return name
			}
		}
		return f.Name
	})
	v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})
	return v
}

// bind decodes the body (JSON or form, by Content-Type) into dst and validates it.
func bind(c *gin.Context, dst any) error {
	if err := c.ShouldBind(dst); err != nil {
		return apperrors.BadRequest("Invalid request body")
	}
	return validateStruct(dst)
}

func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	return apperrors.Validation(formatValidationErrors(verrs))
}

func formatValidationErrors(verrs validator.ValidationErrors) []string {
	messages := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		var msg string
		switch fe.Tag() {
		case "required":
			msg = fe.Field() + " is required"
		case "email":
			msg = "Invalid email format"
		case "min":
			msg = fe.Field() + " must be at least " + fe.Param()
		case "max":
			msg = fe.Field() + " must be at most " + fe.Param()
		case "gt":
			msg = fe.Field() + " must be greater than " + fe.Param()
		case "gte":
			msg = fe.Field() + " must be greater than or equal to " + fe.Param()
		case "url":
			msg = fe.Field() + " must be a valid URL"
		case "username":
			msg = fe.Field() + " must contain only lowercase letters and digits"
		default:
			msg = fe.Field() + " is invalid"
		}
		messages = append(messages, msg)
	}
	return messages
}
