// Package validation holds the account field rules shared by registration and
// profile updates, so every path that accepts a username, email or password
// applies the same checks and reports the same messages.
package validation

import (
	"errors"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/reelbase/reelbase-api/internal/core/domain"
)

const (
	MinUsernameLen = 3
	MaxUsernameLen = 30
	MinPasswordLen = 6
)

var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
	emailPattern    = regexp.MustCompile(`^\w+([\.-]?\w+)*@\w+([\.-]?\w+)*(\.\w{2,3})+$`)

	validate = newValidate()
)

// rule pairs a validator tag chain with the client-facing message per tag.
type rule struct {
	field    string
	tags     string
	messages map[string]string
}

var (
	usernameRule = rule{
		field: "username",
		tags:  "required,username,min=3,max=30",
		messages: map[string]string{
			"required": "Username is required",
			"username": "Username can only contain letters, numbers, and underscores",
			"min":      "Username must be at least 3 characters",
			"max":      "Username cannot exceed 30 characters",
		},
	}
	emailRule = rule{
		field: "email",
		tags:  "required,basic_email",
		messages: map[string]string{
			"required":    "Email is required",
			"basic_email": "Please enter a valid email address",
		},
	}
	passwordRule = rule{
		field: "password",
		tags:  "required,min=6",
		messages: map[string]string{
			"required": "Password is required",
			"min":      "Password must be at least 6 characters",
		},
	}
)

// RegisterRules installs the custom tags used here (username, basic_email,
// mediatype) on v so request structs can reference them.
func RegisterRules(v *validator.Validate) {
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("basic_email", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("mediatype", func(fl validator.FieldLevel) bool {
		return domain.MediaType(fl.Field().String()).Valid()
	})
}

func newValidate() *validator.Validate {
	v := validator.New()
	RegisterRules(v)
	return v
}

// Username checks the allowed alphabet and length bounds.
func Username(s string) error {
	return check(usernameRule, s)
}

// Email checks s against the basic email pattern.
func Email(s string) error {
	return check(emailRule, s)
}

// Password enforces the minimum length.
func Password(s string) error {
	return check(passwordRule, s)
}

// NormalizeEmail trims and lower-cases an address before it is stored or compared.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func check(r rule, value string) error {
	err := validate.Var(value, r.tags)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		if msg, ok := r.messages[ve[0].Tag()]; ok {
			return domain.NewValidationError(r.field, msg)
		}
	}
	return domain.NewValidationError(r.field, "Invalid "+r.field)
}
