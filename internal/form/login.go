// Package form holds the transient request-scoped form objects. Each flow
// that can run under more than one rule set is modelled as a tagged set of
// variants instead of a single form with a runtime scenario switch; the
// handler picks the variant from the relevant site setting.
package form

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// Login is satisfied by the login form variants. Identifier returns the
// submitted lookup key (username or email depending on the variant).
type Login interface {
	Validate() error
	Identifier() string
	Secret() string
	Remember() bool
}

// StandardLogin authenticates by username.
type StandardLogin struct {
	Username   string `form:"username"`
	Password   string `form:"password"`
	RememberMe bool   `form:"remember_me"`
}

// Validate applies the username variant's rules.
func (f StandardLogin) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.Username, validation.Required, validation.Length(3, 255)),
		validation.Field(&f.Password, validation.Required),
	)
}

func (f StandardLogin) Identifier() string { return f.Username }
func (f StandardLogin) Secret() string     { return f.Password }
func (f StandardLogin) Remember() bool     { return f.RememberMe }

// EmailLogin authenticates by email address; selected when the
// login_with_email setting is enabled.
type EmailLogin struct {
	Email      string `form:"email"`
	Password   string `form:"password"`
	RememberMe bool   `form:"remember_me"`
}

// Validate applies the email variant's rules.
func (f EmailLogin) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.Email, validation.Required, is.Email),
		validation.Field(&f.Password, validation.Required),
	)
}

func (f EmailLogin) Identifier() string { return f.Email }
func (f EmailLogin) Secret() string     { return f.Password }
func (f EmailLogin) Remember() bool     { return f.RememberMe }
