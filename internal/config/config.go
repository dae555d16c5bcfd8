package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config captures runtime configuration sourced from an optional YAML file and
// environment variables. Environment variables win over the file.
type Config struct {
	Environment  string `yaml:"environment"`
	HTTPPort     string `yaml:"http_port"`
	DatabasePath string `yaml:"database_path"`
	FrontendDir  string `yaml:"frontend_dir"`
	LogDir       string `yaml:"log_dir"`
	Debug        bool   `yaml:"debug"`
	JWTSecret    string `yaml:"jwt_secret"`
	OwnerOpenID  string `yaml:"owner_open_id"`
	FilesRoot    string `yaml:"files_root"`
	// TrustedProxies lists the proxy addresses or CIDRs whose X-Forwarded-For
	// header is honoured. Empty means the TCP peer is always the client.
	TrustedProxies []string       `yaml:"trusted_proxies"`
	Security       SecurityConfig `yaml:"security"`

	// JWTSecretGenerated is set when no secret was configured and Load
	// generated a random one. Sessions do not survive a restart in that case.
	JWTSecretGenerated bool `yaml:"-"`
}

// SecurityConfig configures the IP ban manager, the host scanner and the
// periodic sweeps.
type SecurityConfig struct {
	CerberusEnabled    bool          `yaml:"cerberus_enabled"`
	FirewallEnforce    bool          `yaml:"firewall_enforce"`
	BanThreshold       int           `yaml:"ban_threshold"`
	BanDuration        time.Duration `yaml:"ban_duration"`
	BanSweepInterval   time.Duration `yaml:"ban_sweep_interval"`
	CacheSweepInterval time.Duration `yaml:"cache_sweep_interval"`
	CommandTimeout     time.Duration `yaml:"command_timeout"`
}

// Default returns the zero-configuration settings.
func Default() Config {
	return Config{
		Environment:  "development",
		HTTPPort:     "8080",
		DatabasePath: filepath.Join("data", "hostdeck.db"),
		FrontendDir:  filepath.Clean(filepath.Join("..", "frontend", "dist")),
		LogDir:       "/app/data/logs",
		FilesRoot:    "/home",
		Security: SecurityConfig{
			CerberusEnabled:    true,
			FirewallEnforce:    false,
			BanThreshold:       5,
			BanDuration:        time.Hour,
			BanSweepInterval:   10 * time.Minute,
			CacheSweepInterval: 5 * time.Minute,
			CommandTimeout:     5 * time.Second,
		},
	}
}

// Load reads the optional YAML file named by HOSTDECK_CONFIG_FILE, then env vars,
// and falls back to defaults so the server can boot with zero configuration.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv("HOSTDECK_CONFIG_FILE"); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	cfg.Environment = getEnv("HOSTDECK_ENV", cfg.Environment)
	cfg.HTTPPort = getEnv("HOSTDECK_HTTP_PORT", cfg.HTTPPort)
	cfg.DatabasePath = getEnv("HOSTDECK_DB_PATH", cfg.DatabasePath)
	cfg.FrontendDir = getEnv("HOSTDECK_FRONTEND_DIR", cfg.FrontendDir)
	cfg.LogDir = getEnv("HOSTDECK_LOG_DIR", cfg.LogDir)
	cfg.JWTSecret = getEnv("HOSTDECK_JWT_SECRET", cfg.JWTSecret)
	cfg.OwnerOpenID = getEnv("HOSTDECK_OWNER_OPEN_ID", cfg.OwnerOpenID)
	cfg.FilesRoot = getEnv("HOSTDECK_FILES_ROOT", cfg.FilesRoot)
	cfg.Debug = getEnvBool("HOSTDECK_DEBUG", cfg.Debug)
	if v := strings.TrimSpace(os.Getenv("HOSTDECK_TRUSTED_PROXIES")); v != "" {
		cfg.TrustedProxies = splitList(v)
	}

	sec := &cfg.Security
	sec.CerberusEnabled = getEnvBool("HOSTDECK_CERBERUS_ENABLED", sec.CerberusEnabled)
	sec.FirewallEnforce = getEnvBool("HOSTDECK_FIREWALL_ENFORCE", sec.FirewallEnforce)
	sec.BanThreshold = getEnvInt("HOSTDECK_BAN_THRESHOLD", sec.BanThreshold)
	sec.BanDuration = getEnvDuration("HOSTDECK_BAN_DURATION", sec.BanDuration)
	sec.BanSweepInterval = getEnvDuration("HOSTDECK_BAN_SWEEP_INTERVAL", sec.BanSweepInterval)
	sec.CacheSweepInterval = getEnvDuration("HOSTDECK_CACHE_SWEEP_INTERVAL", sec.CacheSweepInterval)
	sec.CommandTimeout = getEnvDuration("HOSTDECK_COMMAND_TIMEOUT", sec.CommandTimeout)

	if cfg.JWTSecret == "" {
		if cfg.Environment == "production" {
			return Config{}, errors.New("HOSTDECK_JWT_SECRET is required in production")
		}
		secret, err := randomSecret()
		if err != nil {
			return Config{}, fmt.Errorf("generate jwt secret: %w", err)
		}
		cfg.JWTSecret = secret
		cfg.JWTSecretGenerated = true
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0o755); err != nil {
		return Config{}, fmt.Errorf("ensure data directory: %w", err)
	}

	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func randomSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}

	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return fallback
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return b
}

func getEnvInt(key string, fallback int) int {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return fallback
	}
	n, err := strconv.Atoi(val)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return fallback
	}
	d, err := time.ParseDuration(val)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
