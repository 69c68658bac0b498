package server

import (
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/vipowerus/schedule-bot/internal/sheets"
	"github.com/vipowerus/schedule-bot/internal/store"
)

// Store drivers
const (
	DriverSheets   = "sheets"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverMemory   = "memory"
)

// Config ...
type Config struct {
	LogLevel        string         `toml:"log_level"`
	BotToken        string         `toml:"bot_token"`
	Debug           bool           `toml:"debug"`
	Timezone        string         `toml:"timezone"`
	Groups          []string       `toml:"groups"`
	Admins          []int64        `toml:"admins"`
	Superadmins     []int64        `toml:"superadmins"`
	RefreshInterval time.Duration  `toml:"refresh_interval"`
	Sheets          *sheets.Config `toml:"sheets"`
	Store           *store.Config  `toml:"store"`
}

// NewConfig ...
func NewConfig() *Config {
	return &Config{
		LogLevel:        "info",
		Timezone:        "Europe/Samara",
		Groups:          []string{"10", "11"},
		RefreshInterval: 60 * time.Second,
		Sheets:          sheets.NewConfig(),
		Store:           store.NewConfig(),
	}
}

// ApplyEnv overrides the file values with the environment variables the bot
// has always been configured with.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(dst *string, keys ...string) {
		for _, key := range keys {
			if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
				*dst = strings.TrimSpace(v)
				return
			}
		}
	}

	str(&c.BotToken, "BOT_TOKEN")
	str(&c.LogLevel, "LOG_LEVEL")
	str(&c.Timezone, "TZ_NAME")
	str(&c.Sheets.SpreadsheetID, "SPREADSHEET_ID", "GSHEET_ID")
	str(&c.Sheets.CredentialsFile, "GOOGLE_CREDS_JSON_PATH")
	str(&c.Sheets.CredentialsJSON, "GOOGLE_CREDS_JSON_CONTENT")
	str(&c.Sheets.ScheduleSheet, "GS_SCHEDULE_SHEET")
	str(&c.Sheets.ExamsSheet, "GS_EXAMS_SHEET")
	str(&c.Sheets.SubsSheet, "GS_SUBS_SHEET")
	str(&c.Store.Driver, "STORE_DRIVER")
	str(&c.Store.DatabaseURL, "DATABASE_URL")

	if v, ok := lookup("GROUPS"); ok && strings.TrimSpace(v) != "" {
		c.Groups = splitList(v)
	}
	if v, ok := lookup("WATCH_INTERVAL"); ok && strings.TrimSpace(v) != "" {
		d, err := parseInterval(v)
		if err != nil {
			return errors.Wrap(err, "WATCH_INTERVAL")
		}
		c.RefreshInterval = d
	}
	for key, dst := range map[string]*[]int64{"ADMINS": &c.Admins, "SUPERADMINS": &c.Superadmins} {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			continue
		}
		ids, err := parseIDs(v)
		if err != nil {
			return errors.Wrap(err, key)
		}
		*dst = ids
	}
	return nil
}

// Validate checks that the bot can start with this config.
func (c *Config) Validate() error {
	if c.BotToken == "" {
		return errors.New("bot token is required (bot_token or BOT_TOKEN)")
	}
	if c.Sheets.SpreadsheetID == "" {
		return errors.New("spreadsheet id is required (sheets.spreadsheet_id or SPREADSHEET_ID)")
	}
	if len(c.Groups) == 0 {
		return errors.New("at least one group is required")
	}
	if c.RefreshInterval < time.Second {
		return errors.Errorf("refresh interval %s is too short", c.RefreshInterval)
	}
	if !c.Sheets.Published && !c.Sheets.HasCredentials() {
		return errors.New("google credentials are required unless sheets.published is set")
	}
	switch c.StoreDriver() {
	case DriverMemory:
	case DriverSheets:
		if c.Sheets.Published {
			return errors.New("the sheets store needs API access; pick another store driver for a published spreadsheet")
		}
	case DriverPostgres, DriverMySQL:
		if c.Store.DatabaseURL == "" {
			return errors.Errorf("store driver %s needs database_url", c.Store.Driver)
		}
	default:
		return errors.Errorf("unknown store driver %q", c.Store.Driver)
	}
	return nil
}

// StoreDriver resolves an empty driver: subscriptions live in the spreadsheet
// when the API is available and in memory otherwise.
func (c *Config) StoreDriver() string {
	if c.Store.Driver != "" {
		return strings.ToLower(c.Store.Driver)
	}
	if c.Sheets.Published || !c.Sheets.HasCredentials() {
		return DriverMemory
	}
	return DriverSheets
}

// IsAdmin ...
func (c *Config) IsAdmin(userID int64) bool {
	return contains(c.Admins, userID) || contains(c.Superadmins, userID)
}

// HasGroup ...
func (c *Config) HasGroup(group string) bool {
	for _, g := range c.Groups {
		if g == group {
			return true
		}
	}
	return false
}

// alertTargets are the users told about refresh failures: superadmins when
// configured, all admins otherwise.
func (c *Config) alertTargets() []int64 {
	if len(c.Superadmins) > 0 {
		return c.Superadmins
	}
	return c.Admins
}

func contains(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseIDs(raw string) ([]int64, error) {
	var ids []int64
	for _, part := range splitList(raw) {
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, errors.Errorf("invalid id %q", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// parseInterval accepts plain seconds ("60") or a duration ("1m30s").
func parseInterval(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	return time.ParseDuration(raw)
}
