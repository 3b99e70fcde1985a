// AngelaMos | 2026
// config_test.go

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://fd:fd@localhost:5432/fd?sslmode=disable")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	c, err := load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, c.Server.Port)
	assert.Equal(t, 30*time.Second, c.Server.ReadTimeout)
	assert.Equal(t, 5, c.RateLimit.SubmitPerHour)
	assert.Equal(t, "claim-documents", c.Storage.Bucket)
	assert.Equal(t, 15*time.Minute, c.Storage.PresignExpiry)
	assert.Equal(t, "0 */5 * * * *", c.Jobs.PendingGaugesSpec)
	assert.False(t, c.Kafka.Enabled)
	assert.True(t, c.IsDevelopment())
}

func TestLoadFileThenEnv(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 7070
  host: 127.0.0.1
password:
  min_length: 12
`), 0o600))

	c, err := load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, c.Server.Port)
	assert.Equal(t, "127.0.0.1:9090", c.Server.Address())
	assert.Equal(t, 12, c.Password.MinLength)
	assert.True(t, c.Kafka.Enabled)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, c.Kafka.Brokers)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		msg  string
	}{
		{
			name: "kafka without brokers",
			env:  map[string]string{"KAFKA_ENABLED": "true"},
			msg:  "KAFKA_BROKERS",
		},
		{
			name: "storage without endpoint",
			env:  map[string]string{"STORAGE_ENABLED": "true"},
			msg:  "STORAGE_ENDPOINT",
		},
		{
			name: "password strength out of range",
			env:  map[string]string{"PASSWORD_MIN_STRENGTH": "7"},
			msg:  "min_strength",
		},
		{
			name: "insecure tracing in production",
			env: map[string]string{
				"ENVIRONMENT":  "production",
				"OTEL_ENABLED": "true",
			},
			msg: "OTEL_INSECURE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := load("")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")

	_, err := load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}
