package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/ugel-satipo/portal/internal/config"
)

func TestLogStartup(t *testing.T) {
	cfg := &config.Config{
		HTTP:     config.HTTPConfig{Address: ":8080", CORSOrigins: []string{"https://ugelsatipo.gob.pe"}},
		Database: config.DatabaseConfig{URL: "/var/lib/ugel/ugel.sqlite"},
		Redis:    config.RedisConfig{Address: "redis:6379"},
		Auth:     config.AuthConfig{TokenTTL: 24 * time.Hour},
		Storage:  config.StorageConfig{UploadDir: "/var/lib/ugel/uploads", MaxUploadSize: 10 << 20},
	}

	var buf bytes.Buffer
	logStartup(zerolog.New(&buf), cfg)

	out := buf.String()
	assert.Contains(t, out, `"database":"/var/lib/ugel/ugel.sqlite"`)
	assert.Contains(t, out, `"cors_origins":["https://ugelsatipo.gob.pe"]`)
	assert.Contains(t, out, `"max_upload":"10 MB"`)
	assert.Contains(t, out, `"redis":"redis:6379"`)
	assert.NotContains(t, out, "CORS_ORIGINS")

	buf.Reset()
	cfg.HTTP.CORSOrigins = []string{"*"}
	logStartup(zerolog.New(&buf), cfg)
	assert.Contains(t, buf.String(), "allows any origin")
}
