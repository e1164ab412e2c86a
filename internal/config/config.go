package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"standup-bot/internal/utils"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	defaultStorageDriver = "json"
	defaultStoragePath   = "data.json"
	defaultExportDriver  = "auto"
	defaultXLSXDir       = "exports"
	defaultHTTPPort      = 3000
	defaultLogLevel      = "info"

	tokenSecretPath = "/run/secrets/telegram_bot_token"
)

// Config is the runtime configuration of the bot process.
type Config struct {
	TelegramToken string

	GoogleClientEmail     string
	GooglePrivateKey      string
	GoogleCredentialsFile string
	DefaultSpreadsheetID  string

	ExportDriver string
	XLSXDir      string

	StorageDriver string
	StoragePath   string

	HTTPPort int
	LogLevel string

	BotAdminIDs []int64
}

// HasGoogleCredentials reports whether a service account is configured.
func (c Config) HasGoogleCredentials() bool {
	return c.GoogleCredentialsFile != "" || (c.GoogleClientEmail != "" && c.GooglePrivateKey != "")
}

// LoadDotEnv loads variables from the given .env files; a missing file is not an error.
func LoadDotEnv(files ...string) error {
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// NewViper returns a viper instance with defaults and env bindings configured.
func NewViper() *viper.Viper {
	v := viper.New()
	ApplyDefaults(v)
	return v
}

// ApplyDefaults configures defaults and env bindings on v.
func ApplyDefaults(v *viper.Viper) {
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bind(v, "telegram.token", "TELEGRAM_BOT_TOKEN", "BOT_TOKEN")
	bind(v, "google.client_email", "GOOGLE_CLIENT_EMAIL")
	bind(v, "google.private_key", "GOOGLE_PRIVATE_KEY")
	bind(v, "google.credentials_file", "GOOGLE_APPLICATION_CREDENTIALS")
	bind(v, "google.spreadsheet_id", "GOOGLE_SPREADSHEET_ID")
	bind(v, "export.driver", "EXPORT_DRIVER")
	bind(v, "export.xlsx_dir", "EXPORT_XLSX_DIR")
	bind(v, "storage.driver", "STORAGE_DRIVER")
	bind(v, "storage.path", "DATA_PATH")
	bind(v, "http.port", "PORT")
	bind(v, "log.level", "LOG_LEVEL")
	bind(v, "bot.admin_ids", "BOT_ADMIN_IDS")

	v.SetDefault("storage.driver", defaultStorageDriver)
	v.SetDefault("storage.path", defaultStoragePath)
	v.SetDefault("export.driver", defaultExportDriver)
	v.SetDefault("export.xlsx_dir", defaultXLSXDir)
	v.SetDefault("http.port", defaultHTTPPort)
	v.SetDefault("log.level", defaultLogLevel)
}

func bind(v *viper.Viper, key string, envs ...string) {
	utils.Must(v.BindEnv(append([]string{key}, envs...)...))
}

// Load parses runtime configuration from v.
func Load(v *viper.Viper) (Config, error) {
	cfg := Config{
		TelegramToken:         getBotToken(v),
		GoogleClientEmail:     strings.TrimSpace(v.GetString("google.client_email")),
		GooglePrivateKey:      strings.ReplaceAll(v.GetString("google.private_key"), `\n`, "\n"),
		GoogleCredentialsFile: strings.TrimSpace(v.GetString("google.credentials_file")),
		DefaultSpreadsheetID:  strings.TrimSpace(v.GetString("google.spreadsheet_id")),
		ExportDriver:          strings.ToLower(strings.TrimSpace(v.GetString("export.driver"))),
		XLSXDir:               v.GetString("export.xlsx_dir"),
		StorageDriver:         strings.ToLower(strings.TrimSpace(v.GetString("storage.driver"))),
		StoragePath:           v.GetString("storage.path"),
		HTTPPort:              v.GetInt("http.port"),
		LogLevel:              v.GetString("log.level"),
	}

	ids, err := parseIDs(v.GetString("bot.admin_ids"))
	if err != nil {
		return Config{}, err
	}
	cfg.BotAdminIDs = ids

	if cfg.ExportDriver == "auto" {
		cfg.ExportDriver = "xlsx"
		if cfg.HasGoogleCredentials() {
			cfg.ExportDriver = "sheets"
		}
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.TelegramToken == "" {
		return fmt.Errorf("telegram token is required: set TELEGRAM_BOT_TOKEN or mount %s", tokenSecretPath)
	}
	switch c.StorageDriver {
	case "json", "sqlite":
	default:
		return fmt.Errorf("storage.driver must be json or sqlite, got %q", c.StorageDriver)
	}
	if strings.TrimSpace(c.StoragePath) == "" {
		return fmt.Errorf("storage.path is required")
	}
	switch c.ExportDriver {
	case "sheets":
		if !c.HasGoogleCredentials() {
			return fmt.Errorf("export.driver sheets requires GOOGLE_CLIENT_EMAIL/GOOGLE_PRIVATE_KEY or GOOGLE_APPLICATION_CREDENTIALS")
		}
	case "xlsx":
		if strings.TrimSpace(c.XLSXDir) == "" {
			return fmt.Errorf("export.xlsx_dir is required")
		}
	default:
		return fmt.Errorf("export.driver must be auto, sheets or xlsx, got %q", c.ExportDriver)
	}
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("http.port out of range: %d", c.HTTPPort)
	}
	return nil
}

// getBotToken prefers a Docker secret over the environment.
func getBotToken(v *viper.Viper) string {
	if data, err := os.ReadFile(tokenSecretPath); err == nil {
		if token := strings.TrimSpace(string(data)); token != "" {
			return token
		}
	}
	return strings.TrimSpace(v.GetString("telegram.token"))
}

func parseIDs(raw string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bot.admin_ids: invalid id %q", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
