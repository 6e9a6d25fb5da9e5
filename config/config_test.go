package config

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", ":memory:")
	t.Setenv("OPERATION_TIMEOUT", "")
	t.Setenv("AUDIT_S3_BUCKET", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":memory:", cfg.DatabaseURL)
	assert.Equal(t, 10*time.Second, cfg.OperationTimeout)
	assert.Equal(t, 100, cfg.AuditBatchSize)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.False(t, cfg.AuditArchiveEnabled())
	assert.True(t, cfg.IsTest())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", ":memory:")
	t.Setenv("OPERATION_TIMEOUT", "250ms")
	t.Setenv("AUDIT_S3_BUCKET", "audit-bucket")
	t.Setenv("AUDIT_BATCH_SIZE", "7")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 250*time.Millisecond, cfg.OperationTimeout)
	assert.Equal(t, 7, cfg.AuditBatchSize)
	assert.True(t, cfg.AuditArchiveEnabled())
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"unparseable timeout", "OPERATION_TIMEOUT", "soon"},
		{"negative timeout", "OPERATION_TIMEOUT", "-1s"},
		{"unparseable batch size", "AUDIT_BATCH_SIZE", "many"},
		{"zero batch size", "AUDIT_BATCH_SIZE", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("DATABASE_URL", ":memory:")
			t.Setenv(tt.key, tt.val)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestValidateRequiresDatabaseURL(t *testing.T) {
	cfg := &Config{OperationTimeout: time.Second, AuditBatchSize: 1}
	assert.EqualError(t, cfg.Validate(), "DATABASE_URL is required")
}

func TestNewLogger(t *testing.T) {
	logger := NewLogger("DEBUG", true)
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, logger.Formatter)

	logger = NewLogger("nonsense", false)
	assert.Equal(t, logrus.InfoLevel, logger.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, logger.Formatter)
}
