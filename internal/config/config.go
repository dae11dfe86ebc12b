// Package config loads and validates gateway configuration from the process
// environment. Server configuration is loaded once at startup; storage
// configuration is re-derived on every upload so credential or limit changes
// take effect without a restart.
package config

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"mediadrop/gateway/internal/domain"
)

// Storage provider kinds.
const (
	ProviderS3 = "s3"
	ProviderR2 = "r2"
)

const (
	DefaultCookieName = "mediadrop_session"
	DefaultSessionTTL = 24 * time.Hour
	MinSecretLength   = 16
)

// ServerConfig holds the process-lifetime configuration: listen address,
// session sealing parameters, the identity-provider client, and the optional
// upload-record database.
type ServerConfig struct {
	Address       string
	Environment   string
	SessionSecret string
	CookieName    string
	SessionTTL    time.Duration
	Discord       DiscordConfig
	DatabaseURI   string
	DatabaseName  string
}

// DiscordConfig holds the identity-provider client settings. Role-gating is
// enabled only when ClientID, ClientSecret, GuildID and RoleID are all set.
type DiscordConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	GuildID      string
	RoleID       string
}

// Enabled reports whether role-gating is configured.
func (d DiscordConfig) Enabled() bool {
	return d.ClientID != "" && d.ClientSecret != "" && d.GuildID != "" && d.RoleID != ""
}

// IsProduction reports whether the gateway runs in production mode, which
// controls the Secure flag on the session cookie.
func (c *ServerConfig) IsProduction() bool {
	return c.Environment == "production"
}

// StorageConfig holds the per-request storage backend configuration.
// MaxFileSize is zero when no limit is configured.
type StorageConfig struct {
	Provider        string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	PublicURL       string
	Endpoint        string
	Region          string
	MaxFileSize     int64
}

// Load reads the server configuration from the environment and enforces the
// startup invariants. A sealing secret shorter than MinSecretLength is a
// refuse-to-start condition, not a per-request error.
func Load() (*ServerConfig, error) {
	v := newEnvViper(
		"SERVER_ADDRESS", "APP_ENV",
		"SESSION_PASSWORD", "SESSION_COOKIE_NAME", "SESSION_TTL",
		"DISCORD_CLIENT_ID", "DISCORD_CLIENT_SECRET", "DISCORD_REDIRECT_URI",
		"DISCORD_GUILD_ID", "DISCORD_ROLE_ID",
		"DATABASE_URI", "DATABASE_NAME",
	)
	v.SetDefault("SERVER_ADDRESS", ":8080")
	v.SetDefault("SESSION_COOKIE_NAME", DefaultCookieName)
	v.SetDefault("DATABASE_NAME", "mediadrop")

	cfg := &ServerConfig{
		Address:       v.GetString("SERVER_ADDRESS"),
		Environment:   v.GetString("APP_ENV"),
		SessionSecret: v.GetString("SESSION_PASSWORD"),
		CookieName:    v.GetString("SESSION_COOKIE_NAME"),
		SessionTTL:    DefaultSessionTTL,
		Discord: DiscordConfig{
			ClientID:     v.GetString("DISCORD_CLIENT_ID"),
			ClientSecret: v.GetString("DISCORD_CLIENT_SECRET"),
			RedirectURI:  v.GetString("DISCORD_REDIRECT_URI"),
			GuildID:      v.GetString("DISCORD_GUILD_ID"),
			RoleID:       v.GetString("DISCORD_ROLE_ID"),
		},
		DatabaseURI:  v.GetString("DATABASE_URI"),
		DatabaseName: v.GetString("DATABASE_NAME"),
	}

	if ttl := v.GetString("SESSION_TTL"); ttl != "" {
		d, err := time.ParseDuration(ttl)
		if err != nil || d <= 0 {
			return nil, domain.NewConfigError("SESSION_TTL must be a positive duration, got %q", ttl)
		}
		cfg.SessionTTL = d
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the startup invariants on an already-built ServerConfig.
func (c *ServerConfig) Validate() error {
	if c.SessionSecret == "" {
		return domain.NewConfigError("SESSION_PASSWORD is not set")
	}
	if len(c.SessionSecret) < MinSecretLength {
		return domain.NewConfigError("SESSION_PASSWORD is too weak: it must be at least %d characters long", MinSecretLength)
	}
	return nil
}

// LoadStorage reads the storage configuration from the environment and
// validates it. It performs no network I/O and caches nothing; callers invoke
// it once per upload.
func LoadStorage() (StorageConfig, error) {
	v := newEnvViper(
		"STORAGE_PROVIDER", "STORAGE_BUCKET",
		"STORAGE_ACCESS_KEY_ID", "STORAGE_SECRET_ACCESS_KEY",
		"STORAGE_PUBLIC_URL", "STORAGE_ENDPOINT", "STORAGE_REGION",
		"MAX_FILE_SIZE",
	)

	cfg := StorageConfig{
		Provider:        v.GetString("STORAGE_PROVIDER"),
		Bucket:          v.GetString("STORAGE_BUCKET"),
		AccessKeyID:     v.GetString("STORAGE_ACCESS_KEY_ID"),
		SecretAccessKey: v.GetString("STORAGE_SECRET_ACCESS_KEY"),
		PublicURL:       v.GetString("STORAGE_PUBLIC_URL"),
		Endpoint:        v.GetString("STORAGE_ENDPOINT"),
		Region:          v.GetString("STORAGE_REGION"),
	}

	if raw := v.GetString("MAX_FILE_SIZE"); raw != "" {
		bytes, err := ParseFileSize(raw)
		if err != nil {
			return StorageConfig{}, err
		}
		cfg.MaxFileSize = bytes
	}

	if err := cfg.Validate(); err != nil {
		return StorageConfig{}, err
	}
	return cfg, nil
}

// Validate checks the storage invariants on an already-built StorageConfig,
// so tests can construct configurations without touching the environment.
func (c StorageConfig) Validate() error {
	switch c.Provider {
	case ProviderS3, ProviderR2:
	case "":
		return domain.NewConfigError("STORAGE_PROVIDER is not set")
	default:
		return domain.NewConfigError("unsupported storage provider: %q", c.Provider)
	}
	if c.Bucket == "" {
		return domain.NewConfigError("STORAGE_BUCKET is not set")
	}
	if c.AccessKeyID == "" {
		return domain.NewConfigError("STORAGE_ACCESS_KEY_ID is not set")
	}
	if c.SecretAccessKey == "" {
		return domain.NewConfigError("STORAGE_SECRET_ACCESS_KEY is not set")
	}
	if c.Provider == ProviderR2 && c.Endpoint == "" {
		return domain.NewConfigError("R2 storage requires STORAGE_ENDPOINT to be set")
	}
	if c.Provider == ProviderS3 && c.Region == "" {
		return domain.NewConfigError("S3 storage requires STORAGE_REGION to be set")
	}
	return nil
}

var fileSizeRe = regexp.MustCompile(`^(\d+)(kb|mb|gb)$`)

// ParseFileSize parses a size string like "100mb" into bytes. The grammar is
// strict: an integer followed by kb, mb or gb, nothing else.
func ParseFileSize(size string) (int64, error) {
	m := fileSizeRe.FindStringSubmatch(strings.ToLower(strings.TrimSpace(size)))
	if m == nil {
		return 0, domain.NewConfigError(`MAX_FILE_SIZE must be like "100mb", "20mb", etc, got %q`, size)
	}
	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, domain.NewConfigError("MAX_FILE_SIZE value out of range: %q", size)
	}
	var shift uint
	switch m[2] {
	case "kb":
		shift = 10
	case "mb":
		shift = 20
	default: // gb
		shift = 30
	}
	// Shifting past MaxInt64 wraps negative and would disable the limit.
	if n > math.MaxInt64>>shift {
		return 0, domain.NewConfigError("MAX_FILE_SIZE value out of range: %q", size)
	}
	return n << shift, nil
}

// newEnvViper builds a fresh viper instance bound to the given environment
// keys. A new instance per load keeps reads pure with respect to package
// state: identical environment, identical result.
func newEnvViper(keys ...string) *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()
	for _, k := range keys {
		_ = v.BindEnv(k)
	}
	return v
}
