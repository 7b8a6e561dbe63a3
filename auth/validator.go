package auth

import (
	"fmt"
	"inbox-lab/errors"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

type LoginRequest struct {
	Username string `json:"username" validate:"required,max=64,excludesall=/\\"`
	Password string `json:"password" validate:"required,max=256"`
}

type SendRequest struct {
	ThreadID string `validate:"required,max=128"`
	Text     string `validate:"required"`
}

func ValidateLogin(req LoginRequest) error {
	if err := validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrInvalidRequest, err)
	}
	return nil
}

// ValidateSend checks a message before it reaches the remote platform.
// maxLength is in characters; zero disables the check.
func ValidateSend(req SendRequest, maxLength int) error {
	if err := validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrInvalidRequest, err)
	}
	if maxLength > 0 {
		if err := validate.Var(req.Text, fmt.Sprintf("max=%d", maxLength)); err != nil {
			return fmt.Errorf("%w: message longer than %d characters", errors.ErrInvalidRequest, maxLength)
		}
	}
	return nil
}
