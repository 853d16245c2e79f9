package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateUser checks the user's structural constraints (username length,
// non-blank profile fields, email shape).
func ValidateUser(u *User) error {
	return wrapValidation(validate.Struct(u))
}

// ValidateRole checks the role's structural constraints.
func ValidateRole(r *Role) error {
	return wrapValidation(validate.Struct(r))
}

// ValidatePermission checks the permission's structural constraints.
func ValidatePermission(p *Permission) error {
	return wrapValidation(validate.Struct(p))
}

func wrapValidation(err error) error {
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		msgs := make([]string, 0, len(ve))
		for _, fe := range ve {
			msgs = append(msgs, fmt.Sprintf("%s (%s)", strings.ToLower(fe.Field()), fe.Tag()))
		}
		return fmt.Errorf("%w: %s", ErrValidation, strings.Join(msgs, "; "))
	}
	return fmt.Errorf("%w: %v", ErrValidation, err)
}
