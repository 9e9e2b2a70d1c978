package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr    string
	DBPath      string
	InboxDir    string
	OutputDir   string
	UploadMaxMB int
	LogLevel    string

	SessionTTLMin int
	SessionMax    int

	DashboardConfigPath string
	Dashboards          Dashboards

	GmailClientID     string
	GmailClientSecret string
	GmailRedirectURI  string
	GmailRefreshToken string
	GmailQuery        string

	IMAPHost     string
	IMAPPort     int
	IMAPSecure   bool
	IMAPUser     string
	IMAPPassword string
	IMAPMarkSeen bool

	MailListenerProvider    string
	MailListenerLabel       string
	MailListenerIntervalSec int
	MailListenerFetchMax    int
	MailListenerAutoExport  bool
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		HTTPAddr:    getEnv("HTTP_ADDR", ":8501"),
		DBPath:      getEnv("DB_PATH", ":memory:"),
		InboxDir:    getEnv("INBOX_DIR", filepath.Join(cwd, "data", "inbox")),
		OutputDir:   getEnv("OUTPUT_DIR", filepath.Join(cwd, "out")),
		UploadMaxMB: getEnvInt("UPLOAD_MAX_MB", 32),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		SessionTTLMin: getEnvInt("SESSION_TTL_MIN", 120),
		SessionMax:    getEnvInt("SESSION_MAX", 50),

		DashboardConfigPath: getEnv("DASHBOARD_CONFIG", ""),

		GmailClientID:     getEnv("GMAIL_CLIENT_ID", ""),
		GmailClientSecret: getEnv("GMAIL_CLIENT_SECRET", ""),
		GmailRedirectURI:  getEnv("GMAIL_REDIRECT_URI", "https://developers.google.com/oauthplayground"),
		GmailRefreshToken: getEnv("GMAIL_REFRESH_TOKEN", ""),
		GmailQuery:        getEnv("GMAIL_QUERY", "has:attachment filename:xlsx"),

		IMAPHost:     getEnv("IMAP_HOST", ""),
		IMAPPort:     getEnvInt("IMAP_PORT", 993),
		IMAPSecure:   getEnvBool("IMAP_SECURE", true),
		IMAPUser:     getEnv("IMAP_USER", ""),
		IMAPPassword: getEnv("IMAP_PASSWORD", ""),
		IMAPMarkSeen: getEnvBool("IMAP_MARK_SEEN", false),

		MailListenerProvider:    getEnv("MAIL_LISTENER_PROVIDER", "imap"),
		MailListenerLabel:       getEnv("MAIL_LISTENER_LABEL", "INBOX"),
		MailListenerIntervalSec: getEnvInt("MAIL_LISTENER_INTERVAL_SEC", 300),
		MailListenerFetchMax:    getEnvInt("MAIL_LISTENER_FETCH_MAX", 20),
		MailListenerAutoExport:  getEnvBool("MAIL_LISTENER_AUTO_EXPORT", false),
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	dashboards, err := LoadDashboards(cfg.DashboardConfigPath)
	if err != nil {
		return Config{}, fmt.Errorf("dashboard config %s: %w", cfg.DashboardConfigPath, err)
	}
	cfg.Dashboards = dashboards

	return cfg, nil
}

func (c Config) validate() error {
	switch strings.ToLower(strings.TrimSpace(c.MailListenerProvider)) {
	case "gmail", "imap":
	default:
		return fmt.Errorf("MAIL_LISTENER_PROVIDER must be gmail or imap, got %q", c.MailListenerProvider)
	}
	if c.IMAPPort <= 0 || c.IMAPPort > 65535 {
		return fmt.Errorf("IMAP_PORT out of range: %d", c.IMAPPort)
	}
	return nil
}

func (c Config) Require(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("missing required env var: %s", name)
	}
	return nil
}

func (c Config) UploadMaxBytes() int64 {
	if c.UploadMaxMB <= 0 {
		return 32 << 20
	}
	return int64(c.UploadMaxMB) << 20
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	parsed, err := strconv.Atoi(strings.TrimSpace(getEnv(key, "")))
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(getEnv(key, ""))) {
	case "1", "true", "yes", "on", "si", "sí":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return fallback
}
