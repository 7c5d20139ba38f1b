package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViper(t *testing.T, yaml string) *viper.Viper {
	t.Helper()

	dir := t.TempDir()
	if yaml != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "config.test.yaml"), []byte(yaml), 0o600))
	}

	v := viper.New()
	v.SetConfigName("config.test")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	return v
}

func TestLoad(t *testing.T) {
	t.Run("Defaults_WithoutConfigFile", func(t *testing.T) {
		t.Setenv("ENV", "")
		t.Setenv("JWT_SECRET", "secret")

		cfg, err := load(newViper(t, ""), "test")
		require.NoError(t, err)

		assert.Equal(t, "test", cfg.Env)
		assert.Equal(t, "8080", cfg.Server.Port)
		assert.Equal(t, "9090", cfg.GRPC.Port)
		assert.Equal(t, "disable", cfg.Database.SSLMode)
		assert.Equal(t, 60, cfg.Auth.TokenTTLMinute)
		assert.Equal(t, "secret", cfg.Auth.JWTSecret)
		assert.Empty(t, cfg.Events.Driver)
		assert.Equal(t, "students", cfg.Events.NATS.Subject)
	})

	t.Run("ConfigFile_OverridesDefaults", func(t *testing.T) {
		v := newViper(t, `
server:
  port: "9000"
database:
  host: db
  name: registry
auth:
  jwt_secret: from-file
events:
  driver: kafka
  kafka:
    brokers: ["kafka:9092"]
    topic: registry
`)
		cfg, err := load(v, "test")
		require.NoError(t, err)

		assert.Equal(t, "9000", cfg.Server.Port)
		assert.Equal(t, "db", cfg.Database.Host)
		assert.Equal(t, "registry", cfg.Database.DBName)
		assert.Equal(t, "kafka", cfg.Events.Driver)
		assert.Equal(t, []string{"kafka:9092"}, cfg.Events.Kafka.Brokers)
		assert.Equal(t, "registry", cfg.Events.Kafka.Topic)
	})

	t.Run("Env_OverridesSecrets", func(t *testing.T) {
		t.Setenv("DB_PASSWORD", "from-env")
		t.Setenv("JWT_SECRET", "env-secret")

		cfg, err := load(newViper(t, "auth:\n  jwt_secret: file-secret\n"), "test")
		require.NoError(t, err)

		assert.Equal(t, "from-env", cfg.Database.Password)
		assert.Equal(t, "env-secret", cfg.Auth.JWTSecret)
	})

	t.Run("MissingJWTSecret", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "")

		_, err := load(newViper(t, ""), "test")
		assert.ErrorContains(t, err, "jwt_secret")
	})

	t.Run("UnknownEventsDriver", func(t *testing.T) {
		_, err := load(newViper(t, "auth:\n  jwt_secret: x\nevents:\n  driver: rabbit\n"), "test")
		assert.ErrorContains(t, err, "unknown events driver")
	})

	t.Run("NATSDriverRequiresURL", func(t *testing.T) {
		_, err := load(newViper(t, "auth:\n  jwt_secret: x\nevents:\n  driver: nats\n"), "test")
		assert.ErrorContains(t, err, "events.nats.url")
	})
}
