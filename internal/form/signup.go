package form

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// Signup is satisfied by the signup form variants.
type Signup interface {
	Validate() error
	Fields() SignupFields
}

// SignupFields are the submitted registration values common to all variants.
type SignupFields struct {
	Username string
	Email    string
	Password string
}

// StandardSignup registers an account that becomes usable immediately.
type StandardSignup struct {
	Username string `form:"username"`
	Email    string `form:"email"`
	Password string `form:"password"`
}

// Validate applies the standard variant's rules.
func (f StandardSignup) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.Username, validation.Required, validation.Length(3, 40), is.Alphanumeric),
		validation.Field(&f.Email, validation.Required, is.Email),
		validation.Field(&f.Password, validation.Required, validation.Length(8, 100)),
	)
}

// Fields returns the submitted values.
func (f StandardSignup) Fields() SignupFields {
	return SignupFields{Username: f.Username, Email: f.Email, Password: f.Password}
}

// ActivationSignup registers an account that must be activated by email
// before it can log in; selected when registration_needs_activation is
// enabled. The email rules are stricter since the address has to receive
// the activation link.
type ActivationSignup struct {
	Username string `form:"username"`
	Email    string `form:"email"`
	Password string `form:"password"`
}

// Validate applies the activation variant's rules.
func (f ActivationSignup) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.Username, validation.Required, validation.Length(3, 40), is.Alphanumeric),
		validation.Field(&f.Email, validation.Required, validation.Length(6, 255), is.Email),
		validation.Field(&f.Password, validation.Required, validation.Length(8, 100)),
	)
}

// Fields returns the submitted values.
func (f ActivationSignup) Fields() SignupFields {
	return SignupFields{Username: f.Username, Email: f.Email, Password: f.Password}
}
