package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"APP_ENV", "HTTP_PORT", "TIMEZONE", "REPORT_HONOR_SCHEDULE", "RATE_LIMIT_PER_MIN", "REQUEST_TIMEOUT", "MAX_REPORT_DAYS"} {
		t.Setenv(k, "")
	}
	cfg := Load()
	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, "8081", cfg.HTTPPort)
	assert.Equal(t, time.UTC, cfg.Location)
	assert.False(t, cfg.HonorSchedule)
	assert.Equal(t, 120, cfg.RateLimitPerMin)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 366, cfg.MaxReportDays)
	assert.False(t, cfg.Production())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("TIMEZONE", "Asia/Kolkata")
	t.Setenv("REPORT_HONOR_SCHEDULE", "true")
	t.Setenv("RATE_LIMIT_PER_MIN", "30")
	t.Setenv("REPORT_CACHE_TTL", "1m")
	t.Setenv("MAX_REPORT_DAYS", "31")
	t.Setenv("CORS_ALLOW_ORIGINS", "https://a.example, ,https://b.example")

	cfg := Load()
	assert.True(t, cfg.Production())
	assert.Equal(t, "Asia/Kolkata", cfg.Location.String())
	assert.True(t, cfg.HonorSchedule)
	assert.Equal(t, 30, cfg.RateLimitPerMin)
	assert.Equal(t, time.Minute, cfg.ReportCacheTTL)
	assert.Equal(t, 31, cfg.MaxReportDays)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
}

func TestLoadFallsBackOnBadValues(t *testing.T) {
	t.Setenv("TIMEZONE", "Mars/Olympus")
	t.Setenv("ROSTER_CACHE_TTL", "soon")
	t.Setenv("AUTO_MIGRATE", "maybe")
	t.Setenv("RATE_LIMIT_PER_MIN", "lots")

	cfg := Load()
	assert.Equal(t, time.UTC, cfg.Location)
	assert.Equal(t, 5*time.Minute, cfg.RosterCacheTTL)
	assert.True(t, cfg.AutoMigrate)
	assert.Equal(t, 120, cfg.RateLimitPerMin)
}
