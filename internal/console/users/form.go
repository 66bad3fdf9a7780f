package users

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"regexp"
	"strings"

	"github.com/aussiebroadwan/console/pkg/consolesdk"
	"github.com/go-playground/validator/v10"
)

// ValidationError maps a form field name to the message shown beside it.
type ValidationError map[string]string

func (ve ValidationError) Error() string {
	parts := make([]string, 0, len(ve))
	for field, msg := range ve {
		parts = append(parts, field+": "+msg)
	}
	return "invalid form: " + strings.Join(parts, "; ")
}

// CreateForm is the "Add User" form.
type CreateForm struct {
	Name            string `form:"name"            validate:"required"`
	Email           string `form:"email"           validate:"required,mailbox"`
	Role            string `form:"role"            validate:"required,oneof=ADMIN USER"`
	Department      string `form:"department"`
	Password        string `form:"password"        validate:"required,min=6"`
	PasswordConfirm string `form:"passwordConfirm" validate:"required,eqfield=Password"`
}

// UpdateForm edits an existing account. Password changes are not offered
// here.
type UpdateForm struct {
	Name       string `form:"name"       validate:"required"`
	Role       string `form:"role"       validate:"required,oneof=ADMIN USER"`
	Department string `form:"department"`
	Enabled    bool   `form:"enabled"`
}

// ParseCreateForm reads a posted "Add User" form. Text fields are trimmed,
// passwords are taken verbatim.
func ParseCreateForm(values url.Values) CreateForm {
	return CreateForm{
		Name:            strings.TrimSpace(values.Get("name")),
		Email:           strings.TrimSpace(values.Get("email")),
		Role:            strings.TrimSpace(values.Get("role")),
		Department:      strings.TrimSpace(values.Get("department")),
		Password:        values.Get("password"),
		PasswordConfirm: values.Get("passwordConfirm"),
	}
}

// ParseUpdateForm reads a posted edit form. An unchecked checkbox is absent,
// so enabled is true only when the field is present.
func ParseUpdateForm(values url.Values) UpdateForm {
	return UpdateForm{
		Name:       strings.TrimSpace(values.Get("name")),
		Role:       strings.TrimSpace(values.Get("role")),
		Department: strings.TrimSpace(values.Get("department")),
		Enabled:    values.Has("enabled"),
	}
}

// mailboxPattern is the address shape the console accepts: a dotted domain
// ending in a label of two or more letters.
var mailboxPattern = regexp.MustCompile(`(?i)^[A-Z0-9._%+-]+@[A-Z0-9.-]+\.[A-Z]{2,}$`)

// Validator wraps go-playground/validator and turns its errors into the
// console's per-field messages.
type Validator struct {
	v *validator.Validate
}

// NewValidator returns a Validator that reports fields by their form name.
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("form")
	})
	_ = v.RegisterValidation("mailbox", func(fl validator.FieldLevel) bool {
		return mailboxPattern.MatchString(fl.Field().String())
	})
	return &Validator{v: v}
}

// Validate returns nil or a ValidationError.
func (fv *Validator) Validate(form any) error {
	err := fv.v.Struct(form)
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}

	out := make(ValidationError, len(ve))
	for _, fe := range ve {
		// First failure per field wins
		if _, seen := out[fe.Field()]; !seen {
			out[fe.Field()] = fieldError(fe)
		}
	}
	return out
}

// fieldError converts a single FieldError into the message shown in the form.
func fieldError(fe validator.FieldError) string {
	switch fe.Field() + "." + fe.Tag() {
	case "name.required":
		return "Name is required"
	case "email.required":
		return "Email is required"
	case "email.mailbox":
		return "Invalid email address"
	case "role.required":
		return "Role is required"
	case "password.required":
		return "Password is required"
	case "password.min":
		return fmt.Sprintf("Password must be at least %s characters", fe.Param())
	case "passwordConfirm.required":
		return "Please confirm your password"
	case "passwordConfirm.eqfield":
		return "Passwords do not match"
	}

	switch fe.Tag() {
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed validation (%s)", fe.Field(), fe.Tag())
	}
}

// NewUser converts a validated form into the sales service request. The
// single selected role becomes the roles list.
func (f CreateForm) NewUser() consolesdk.NewUser {
	return consolesdk.NewUser{
		Name:            f.Name,
		Email:           f.Email,
		Roles:           []string{f.Role},
		Department:      f.Department,
		Password:        f.Password,
		PasswordConfirm: f.PasswordConfirm,
	}
}

// UpdateUser converts a validated form into the sales service request.
func (f UpdateForm) UpdateUser() consolesdk.UpdateUser {
	name, dept, enabled := f.Name, f.Department, f.Enabled

	return consolesdk.UpdateUser{
		Name:       &name,
		Roles:      []string{f.Role},
		Department: &dept,
		Enabled:    &enabled,
	}
}
