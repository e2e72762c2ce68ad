package port

import "context"

// SettingStore reads named site flags. Settings are mutated elsewhere
// (admin surface); this service only performs keyed lookups.
type SettingStore interface {
	// Bool returns the boolean value of the setting, or def when the key
	// does not exist.
	Bool(ctx context.Context, key string, def bool) (bool, error)
}
