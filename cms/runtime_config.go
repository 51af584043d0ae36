package cms

import (
	"database/sql"
	"log/slog"
	"strconv"
	"time"
)

// RuntimeConfig holds configuration values stored in the database.
// These settings can be modified at runtime without restarting the application.
type RuntimeConfig struct {
	PublicationActive  bool
	PagesPerDay        int
	LastPublicationRun time.Time
}

// Setting key constants
const (
	SettingPublicationActive  = "publication_active"
	SettingPagesPerDay        = "publication_pages_per_day"
	SettingLastPublicationRun = "publication_last_run_at"
	SettingSchemaVersion      = "schema_version"
)

// Default values for runtime settings
const (
	DefaultPublicationActive = true
	DefaultPagesPerDay       = 5
)

// LoadRuntimeConfig loads runtime configuration from the database.
// If settings don't exist, it creates them with default values.
func LoadRuntimeConfig(db *sql.DB) (*RuntimeConfig, error) {
	config := &RuntimeConfig{}

	activeStr, err := GetOrCreateSetting(db, SettingPublicationActive, func() string {
		return strconv.FormatBool(DefaultPublicationActive)
	})
	if err != nil {
		return nil, err
	}
	config.PublicationActive, err = strconv.ParseBool(activeStr)
	if err != nil {
		return nil, err
	}

	perDayStr, err := GetOrCreateSetting(db, SettingPagesPerDay, func() string {
		return strconv.Itoa(DefaultPagesPerDay)
	})
	if err != nil {
		return nil, err
	}
	config.PagesPerDay, err = strconv.Atoi(perDayStr)
	if err != nil {
		return nil, err
	}

	// Empty until the first batch runs.
	lastRunStr, err := GetOrCreateSetting(db, SettingLastPublicationRun, func() string { return "" })
	if err != nil {
		return nil, err
	}
	if lastRunStr != "" {
		config.LastPublicationRun, err = time.Parse(time.RFC3339Nano, lastRunStr)
		if err != nil {
			return nil, err
		}
	}

	slog.Debug("runtime config loaded from database")
	return config, nil
}

// GetOrCreateSetting retrieves a setting from the database, or creates it with
// the value returned by defaultFn if it doesn't exist.
func GetOrCreateSetting(db *sql.DB, key string, defaultFn func() string) (string, error) {
	var value string
	err := db.QueryRow("SELECT value FROM Setting WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		value = defaultFn()
		_, err = db.Exec(
			"INSERT INTO Setting (key, value) VALUES (?, ?)",
			key, value,
		)
		if err != nil {
			return "", err
		}
		slog.Info("created default setting", "key", key)
		return value, nil
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

// UpdateSetting updates an existing setting or creates it if it doesn't exist.
func UpdateSetting(db *sql.DB, key string, value string) error {
	_, err := db.Exec(
		`INSERT INTO Setting (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		key, value,
	)
	return err
}

// SetLastPublicationRun records when the publication batch last ran.
func SetLastPublicationRun(db *sql.DB, t time.Time) error {
	return UpdateSetting(db, SettingLastPublicationRun, t.UTC().Format(time.RFC3339Nano))
}
