package form

import (
	"testing"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStandardLoginValidate(t *testing.T) {
	valid := StandardLogin{Username: "alice", Password: "secret"}
	assert.NoError(t, valid.Validate())

	missing := StandardLogin{}
	err := missing.Validate()
	require.Error(t, err)

	errs, ok := err.(validation.Errors)
	require.True(t, ok)
	assert.Contains(t, errs, "Username")
	assert.Contains(t, errs, "Password")

	tooShort := StandardLogin{Username: "ab", Password: "secret"}
	assert.Error(t, tooShort.Validate())
}

func TestEmailLoginValidate(t *testing.T) {
	valid := EmailLogin{Email: "alice@example.com", Password: "secret"}
	assert.NoError(t, valid.Validate())

	bad := EmailLogin{Email: "not-an-email", Password: "secret"}
	err := bad.Validate()
	require.Error(t, err)

	errs, ok := err.(validation.Errors)
	require.True(t, ok)
	assert.Contains(t, errs, "Email")
}

func TestLoginVariantsExposeIdentifier(t *testing.T) {
	var l Login = StandardLogin{Username: "alice", Password: "pw", RememberMe: true}
	assert.Equal(t, "alice", l.Identifier())
	assert.Equal(t, "pw", l.Secret())
	assert.True(t, l.Remember())

	l = EmailLogin{Email: "alice@example.com", Password: "pw"}
	assert.Equal(t, "alice@example.com", l.Identifier())
	assert.False(t, l.Remember())
}

func TestSignupVariantsValidate(t *testing.T) {
	for _, s := range []Signup{
		StandardSignup{Username: "alice", Email: "alice@example.com", Password: "longenough1"},
		ActivationSignup{Username: "alice", Email: "alice@example.com", Password: "longenough1"},
	} {
		assert.NoError(t, s.Validate())
		assert.Equal(t, "alice", s.Fields().Username)
	}

	bad := ActivationSignup{Username: "a b", Email: "x", Password: "short"}
	err := bad.Validate()
	require.Error(t, err)

	errs, ok := err.(validation.Errors)
	require.True(t, ok)
	assert.Contains(t, errs, "Username")
	assert.Contains(t, errs, "Email")
	assert.Contains(t, errs, "Password")
}

func TestPasswordResetRequestValidate(t *testing.T) {
	assert.NoError(t, PasswordResetRequest{Email: "alice@example.com"}.Validate())
	assert.Error(t, PasswordResetRequest{}.Validate())
	assert.Error(t, PasswordResetRequest{Email: "nope"}.Validate())
}

func TestResetPasswordValidate(t *testing.T) {
	assert.NoError(t, ResetPassword{Password: "longenough1", PasswordRepeat: "longenough1"}.Validate())

	mismatch := ResetPassword{Password: "longenough1", PasswordRepeat: "different12"}
	err := mismatch.Validate()
	require.Error(t, err)

	errs, ok := err.(validation.Errors)
	require.True(t, ok)
	assert.Contains(t, errs, "PasswordRepeat")

	assert.Error(t, ResetPassword{Password: "short", PasswordRepeat: "short"}.Validate())
}

func TestContactValidate(t *testing.T) {
	valid := Contact{
		Name:    "Visitor",
		Email:   "visitor@example.com",
		Subject: "Hello",
		Body:    "A question about the site.",
	}
	assert.NoError(t, valid.Validate())

	err := Contact{}.Validate()
	require.Error(t, err)

	errs, ok := err.(validation.Errors)
	require.True(t, ok)
	assert.Len(t, errs, 4)
}
