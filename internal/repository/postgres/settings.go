package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
)

// SettingStore implements port.SettingStore over the settings table.
// Settings are written by the admin surface; this service only reads them.
type SettingStore struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewSettingStore constructs a read-only setting store.
func NewSettingStore(exec pgExecutor) *SettingStore {
	return &SettingStore{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Bool returns the boolean value of the setting, or def when the key is absent.
func (s *SettingStore) Bool(ctx context.Context, key string, def bool) (bool, error) {
	stmt, args, err := s.builder.Select("value").
		From("settings").
		Where(squirrel.Eq{"key": key}).
		Limit(1).
		ToSql()
	if err != nil {
		return def, fmt.Errorf("build select setting sql: %w", err)
	}

	var value string
	if err := s.exec.QueryRow(ctx, stmt, args...).Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, sql.ErrNoRows) {
			return def, nil
		}
		return def, fmt.Errorf("scan setting: %w", err)
	}

	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "yes", "1", "on":
		return true, nil
	default:
		return false, nil
	}
}
