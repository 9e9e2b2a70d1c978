package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9000")
	t.Setenv("UPLOAD_MAX_MB", "8")
	t.Setenv("IMAP_SECURE", "off")
	t.Setenv("MAIL_LISTENER_FETCH_MAX", "no-es-numero")
	t.Setenv("MAIL_LISTENER_AUTO_EXPORT", "yes")
	t.Setenv("DASHBOARD_CONFIG", "")
	t.Setenv("SESSION_TTL_MIN", "30")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.HTTPAddr)
	assert.Equal(t, int64(8<<20), cfg.UploadMaxBytes())
	assert.False(t, cfg.IMAPSecure)
	assert.Equal(t, 20, cfg.MailListenerFetchMax, "invalid ints fall back")
	assert.True(t, cfg.MailListenerAutoExport)
	assert.Equal(t, 30, cfg.SessionTTLMin)
	assert.Equal(t, 50, cfg.SessionMax)
	assert.Equal(t, DefaultDashboards(), cfg.Dashboards)
}

func TestLoadRejectsUnknownProvider(t *testing.T) {
	t.Setenv("DASHBOARD_CONFIG", "")
	t.Setenv("MAIL_LISTENER_PROVIDER", "pop3")
	_, err := Load()
	assert.ErrorContains(t, err, "MAIL_LISTENER_PROVIDER")

	t.Setenv("MAIL_LISTENER_PROVIDER", "Gmail")
	t.Setenv("IMAP_PORT", "70000")
	_, err = Load()
	assert.ErrorContains(t, err, "IMAP_PORT")
}

func TestUploadMaxBytesDefault(t *testing.T) {
	assert.Equal(t, int64(32<<20), Config{}.UploadMaxBytes())
}

func TestRequire(t *testing.T) {
	assert.NoError(t, Config{}.Require("IMAP_HOST", "mail"))
	assert.EqualError(t, Config{}.Require("IMAP_HOST", "  "), "missing required env var: IMAP_HOST")
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger("warn", false)
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))

	logger, err = NewLogger("warn", true)
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))

	_, err = NewLogger("ruidoso", false)
	assert.Error(t, err)
}
