package domain

// Setting keys consulted by the site flows. Values are mutated from the
// admin surface, never from this service.
const (
	SettingLoginWithEmail              = "login_with_email"
	SettingRegistrationNeedsActivation = "registration_needs_activation"
)

// Setting is a named flag from the settings table.
type Setting struct {
	Key   string
	Value string
}
