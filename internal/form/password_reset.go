package form

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// PasswordResetRequest asks for the email a reset link should go to.
type PasswordResetRequest struct {
	Email string `form:"email"`
}

// Validate applies the reset request rules.
func (f PasswordResetRequest) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.Email, validation.Required, is.Email),
	)
}

// ResetPassword collects the replacement credential.
type ResetPassword struct {
	Password       string `form:"password"`
	PasswordRepeat string `form:"password_repeat"`
}

// Validate applies the new password rules.
func (f ResetPassword) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.Password, validation.Required, validation.Length(8, 100)),
		validation.Field(&f.PasswordRepeat, validation.Required, validation.By(matches(f.Password))),
	)
}

func matches(expected string) validation.RuleFunc {
	return func(value interface{}) error {
		s, _ := value.(string)
		if s != expected {
			return errors.New("passwords do not match")
		}
		return nil
	}
}
