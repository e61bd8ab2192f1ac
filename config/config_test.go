package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	var c Config
	c.JWT = JWTConfig{SecretKey: "s3cret", Issuer: "shophub-api", TokenTTL: time.Hour}
	c.Storage.Driver = StorageMemory
	return c
}

func TestConfigValidate(t *testing.T) {
	tests := map[string]struct {
		mutate  func(c *Config)
		wantErr string
	}{
		"valid":           {mutate: func(c *Config) {}},
		"empty secret":    {mutate: func(c *Config) { c.JWT.SecretKey = "" }, wantErr: "jwt.secretKey"},
		"zero ttl":        {mutate: func(c *Config) { c.JWT.TokenTTL = 0 }, wantErr: "jwt.tokenTTL"},
		"unknown driver":  {mutate: func(c *Config) { c.Storage.Driver = "redis" }, wantErr: "storage.driver"},
		"bucket required": {mutate: func(c *Config) { c.ObjectStorage.Enabled = true }, wantErr: "objectStorage.bucket"},
		"storage with bucket": {mutate: func(c *Config) {
			c.ObjectStorage.Enabled = true
			c.ObjectStorage.Bucket = "shophub"
		}},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestInitConfig(t *testing.T) {
	t.Run("missing secret fails", func(t *testing.T) {
		t.Setenv("SHOPHUB_JWT_SECRETKEY", "")
		_, err := InitConfig()
		require.Error(t, err)
	})

	t.Run("environment overrides file values", func(t *testing.T) {
		t.Setenv("SHOPHUB_JWT_SECRETKEY", "from-env")
		t.Setenv("SHOPHUB_STORAGE_DRIVER", "memory")

		cfg, err := InitConfig()
		require.NoError(t, err)
		assert.Equal(t, "from-env", cfg.JWT.SecretKey)
		assert.Equal(t, StorageMemory, cfg.Storage.Driver)
		assert.Equal(t, 720*time.Hour, cfg.JWT.TokenTTL)
		assert.Equal(t, 10, cfg.Password.Cost)
		assert.Equal(t, 5*time.Minute, cfg.Cache.DefaultTTL)
		assert.Contains(t, cfg.CORS.AllowedOrigins, "http://localhost:5173")
	})
}
