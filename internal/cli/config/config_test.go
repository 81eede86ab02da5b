package config

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	// Register stores so validation can resolve store types.
	_ "github.com/leapstack-labs/doctable/pkg/stores/memory"
	_ "github.com/leapstack-labs/doctable/pkg/stores/postgres"
	_ "github.com/leapstack-labs/doctable/pkg/stores/sqlite"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doctable.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	ResetConfig()
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, OutputTable, cfg.OutputFormat)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.ReadHeaderTimeout)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "sqlite", cfg.Store.Type)
	assert.Equal(t, "doctable.db", cfg.Store.Path)
	assert.Equal(t, 5, cfg.Datasource.ConnectAttempts)
	assert.Equal(t, time.Second, cfg.Datasource.ConnectRetryDelay)
	assert.Equal(t, int64(500), cfg.Datasource.DefaultLimit)
	assert.Equal(t, int64(5000), cfg.Datasource.MaxLimit)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Empty(t, GetConfigFileUsed())
	assert.Same(t, cfg, GetCurrentConfig())
}

func TestLoadConfig_File(t *testing.T) {
	ResetConfig()
	path := writeConfig(t, `
output: json
server:
  port: 9090
  read_header_timeout: 3s
  cors_origins: [http://localhost:3000]
store:
  type: memory
datasource:
  connect_attempts: 2
  connect_retry_delay: 250ms
  default_limit: 50
  max_limit: 100
logging:
  level: debug
`)

	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)

	assert.Equal(t, path, GetConfigFileUsed())
	assert.Equal(t, OutputJSON, cfg.OutputFormat)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 3*time.Second, cfg.Server.ReadHeaderTimeout)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "memory", cfg.Store.Type)
	assert.Equal(t, 2, cfg.Datasource.ConnectAttempts)
	assert.Equal(t, 250*time.Millisecond, cfg.Datasource.ConnectRetryDelay)
	assert.Equal(t, int64(50), cfg.Datasource.DefaultLimit)
	assert.Equal(t, int64(100), cfg.Datasource.MaxLimit)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadConfig_FindsFileInWorkingDir(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "doctable.yml"), []byte("store:\n  type: memory\n"), 0600))
	t.Chdir(dir)

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)
	assert.Equal(t, "doctable.yml", GetConfigFileUsed())
	assert.Equal(t, "memory", cfg.Store.Type)
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	ResetConfig()
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestLoadConfig_Validation(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		errSubstr string
	}{
		{
			name:      "unknown store type",
			content:   "store:\n  type: mongodb\n",
			errSubstr: "unknown store type",
		},
		{
			name:      "unknown output",
			content:   "output: xml\nstore:\n  type: memory\n",
			errSubstr: "unknown output format",
		},
		{
			name:      "negative limit",
			content:   "store:\n  type: memory\ndatasource:\n  default_limit: -1\n",
			errSubstr: "default_limit must be positive",
		},
		{
			name:      "default above max",
			content:   "store:\n  type: memory\ndatasource:\n  default_limit: 800\n  max_limit: 600\n",
			errSubstr: "exceeds datasource.max_limit",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ResetConfig()
			_, err := LoadConfig(writeConfig(t, tt.content), nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
			assert.Nil(t, GetCurrentConfig())
		})
	}
}

func TestLoadConfig_EnvPrecedenceOverFile(t *testing.T) {
	ResetConfig()
	path := writeConfig(t, "store:\n  type: memory\nserver:\n  port: 9000\n")
	t.Setenv("DOCTABLE_SERVER__PORT", "9100")
	t.Setenv("DOCTABLE_LOGGING__LEVEL", "warn")

	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoadConfig_FlagPrecedence(t *testing.T) {
	ResetConfig()
	path := writeConfig(t, "store:\n  type: memory\nserver:\n  port: 9000\n")
	t.Setenv("DOCTABLE_SERVER__PORT", "9100")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("port", 0, "")
	flags.String("store", "", "")
	flags.String("output", "", "")
	flags.String("url", "", "")
	require.NoError(t, flags.Set("port", "9200"))
	require.NoError(t, flags.Set("url", "http://localhost:9200"))

	cfg, err := LoadConfig(path, flags)
	require.NoError(t, err)

	assert.Equal(t, 9200, cfg.Server.Port, "flag should override env and file")
	assert.Equal(t, "http://localhost:9200", cfg.URL)
	assert.Equal(t, "memory", cfg.Store.Type, "unset flag must not override file")
	assert.Equal(t, OutputTable, cfg.OutputFormat)
}

func TestLoadConfig_Environments(t *testing.T) {
	content := `
url: http://localhost:8080
store:
  type: sqlite
  path: base.db
  params:
    busy_timeout: 1000
environments:
  test:
    store:
      type: memory
  staging:
    url: http://staging:8080
    store:
      path: staging.db
      params:
        journal_mode: DELETE
`
	t.Run("memory override", func(t *testing.T) {
		ResetConfig()
		flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
		flags.String("env", "", "")
		require.NoError(t, flags.Set("env", "test"))

		cfg, err := LoadConfig(writeConfig(t, content), flags)
		require.NoError(t, err)
		assert.Equal(t, "test", cfg.Environment)
		assert.Equal(t, "memory", cfg.Store.Type)
		assert.Equal(t, "http://localhost:8080", cfg.URL)
	})

	t.Run("staging merges params", func(t *testing.T) {
		ResetConfig()
		t.Setenv("DOCTABLE_ENVIRONMENT", "staging")

		cfg, err := LoadConfig(writeConfig(t, content), nil)
		require.NoError(t, err)
		assert.Equal(t, "sqlite", cfg.Store.Type)
		assert.Equal(t, "staging.db", cfg.Store.Path)
		assert.Equal(t, "http://staging:8080", cfg.URL)
		assert.EqualValues(t, 1000, cfg.Store.Params["busy_timeout"])
		assert.Equal(t, "DELETE", cfg.Store.Params["journal_mode"])
	})

	t.Run("undefined environment keeps base", func(t *testing.T) {
		ResetConfig()
		t.Setenv("DOCTABLE_ENVIRONMENT", "nonexistent")

		cfg, err := LoadConfig(writeConfig(t, content), nil)
		require.NoError(t, err)
		assert.Equal(t, "base.db", cfg.Store.Path)
	})
}

func TestLoadConfig_ExpandsStoreSecrets(t *testing.T) {
	ResetConfig()
	t.Setenv("TEST_PG_USER", "reader")
	t.Setenv("TEST_PG_PASSWORD", "secret123")

	cfg, err := LoadConfig(writeConfig(t, `
store:
  type: postgres
  host: db.internal
  user: ${TEST_PG_USER}
  password: ${TEST_PG_PASSWORD}
`), nil)
	require.NoError(t, err)
	assert.Equal(t, "reader", cfg.Store.User)
	assert.Equal(t, "secret123", cfg.Store.Password)
	assert.Equal(t, 5432, cfg.Store.Port)
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("TEST_VAR_ONE", "value_one")
	t.Setenv("TEST_VAR_TWO", "value_two")

	tests := []struct {
		input string
		want  string
	}{
		{"no vars here", "no vars here"},
		{"${TEST_VAR_ONE}", "value_one"},
		{"prefix_${TEST_VAR_ONE}_suffix", "prefix_value_one_suffix"},
		{"${TEST_VAR_ONE}:${TEST_VAR_TWO}", "value_one:value_two"},
		{"${TEST_VAR_UNSET_FOR_DOCTABLE}", "${TEST_VAR_UNSET_FOR_DOCTABLE}"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, expandEnvVars(tt.input))
		})
	}
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "store.type", envKey("DOCTABLE_STORE__TYPE"))
	assert.Equal(t, "datasource.max_limit", envKey("DOCTABLE_DATASOURCE__MAX_LIMIT"))
	assert.Equal(t, "url", envKey("DOCTABLE_URL"))
}

func TestMergeStoreConfig(t *testing.T) {
	base := &StoreConfig{
		Type:    "postgres",
		Host:    "localhost",
		Port:    5432,
		User:    "base",
		Options: map[string]string{"sslmode": "disable"},
	}

	assert.Same(t, base, MergeStoreConfig(base, nil))
	override := &StoreConfig{Host: "db.prod"}
	assert.Same(t, override, MergeStoreConfig(nil, override))

	merged := MergeStoreConfig(base, &StoreConfig{
		Host:     "db.prod",
		Password: "pw",
		Options:  map[string]string{"sslmode": "require", "connect_timeout": "5"},
	})
	assert.Equal(t, "postgres", merged.Type)
	assert.Equal(t, "db.prod", merged.Host)
	assert.Equal(t, 5432, merged.Port)
	assert.Equal(t, "base", merged.User)
	assert.Equal(t, "pw", merged.Password)
	assert.Equal(t, map[string]string{"sslmode": "require", "connect_timeout": "5"}, merged.Options)
	assert.Equal(t, "disable", base.Options["sslmode"], "base must not be mutated")
}

func TestGetLogger(t *testing.T) {
	assert.NotNil(t, GetLogger(context.Background()))

	logger := slog.New(slog.DiscardHandler)
	ctx := context.WithValue(context.Background(), LoggerKey(), logger)
	assert.Same(t, logger, GetLogger(ctx))
}
