package form

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// Contact is the message a visitor submits through the contact page.
type Contact struct {
	Name    string `form:"name"`
	Email   string `form:"email"`
	Subject string `form:"subject"`
	Body    string `form:"body"`
}

// Validate applies the contact page rules.
func (f Contact) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.Name, validation.Required, validation.Length(1, 128)),
		validation.Field(&f.Email, validation.Required, is.Email),
		validation.Field(&f.Subject, validation.Required, validation.Length(1, 128)),
		validation.Field(&f.Body, validation.Required, validation.Length(1, 4000)),
	)
}
