package config

import (
	"reflect"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

const (
	configFileENV     = "CONFIG_FILE"
	defaultConfigFile = "/config/library.yaml"
)

type Config struct {
	DatabaseConnectRetryCount int           `koanf:"database_connect_retry_count" default:"5"`
	DatabaseConnectRetryDelay time.Duration `koanf:"database_connect_retry_delay" default:"2s"`
	DatabaseBusyTimeout       time.Duration `koanf:"database_busy_timeout" default:"5s"`
	DatabaseDebug             bool          `koanf:"database_debug"`
	DatabaseFilePath          string        `koanf:"database_file_path" validate:"required"`
	DatabaseMaxRetries        int           `koanf:"database_max_retries" default:"5"`
	Environment               string        `koanf:"environment" default:"production"`
	JWTAccessExpiry           time.Duration `koanf:"jwt_access_expiry" default:"5m"`
	JWTRefreshExpiry          time.Duration `koanf:"jwt_refresh_expiry" default:"24h"`
	JWTSecret                 string        `koanf:"jwt_secret" validate:"required"`
	PageSize                  int           `koanf:"page_size" default:"10"`
	RedisAddr                 string        `koanf:"redis_addr"`
	RedisDB                   int           `koanf:"redis_db"`
	RedisPassword             string        `koanf:"redis_password"`
	ServerHost                string        `koanf:"server_host" default:"0.0.0.0"`
	ServerPort                int           `koanf:"server_port" default:"8000"`
}

// New loads the config from, in increasing order of precedence, the struct
// defaults, the YAML file at $CONFIG_FILE and the environment. Environment
// variables are the upper-cased keys, e.g. DATABASE_FILE_PATH.
func New() (*Config, error) {
	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		return nil, errors.WithStack(err)
	}

	k := koanf.New(".")

	configFile := lookupEnv(configFileENV, defaultConfigFile)
	if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil && !isNotExist(err) {
		return nil, errors.Wrapf(err, "failed to load config file %s", configFile)
	}

	// Empty env values (e.g. FOO=) are skipped so they don't wipe out values
	// from the file.
	keys := knownKeys()
	err := k.Load(env.ProviderWithValue("", ".", func(s, v string) (string, interface{}) {
		key := strings.ToLower(s)
		if _, ok := keys[key]; !ok || v == "" {
			return "", nil
		}
		return key, v
	}), nil)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, errors.WithStack(err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// IsDevelopment reports whether the server runs in a local development setup.
func (cfg *Config) IsDevelopment() bool {
	return cfg.Environment == "development"
}

// IsTest reports whether the server runs against an end-to-end test suite,
// which turns on the /test endpoints.
func (cfg *Config) IsTest() bool {
	return cfg.Environment == "test"
}

// SessionsEnabled reports whether refresh tokens are tracked in Redis.
func (cfg *Config) SessionsEnabled() bool {
	return cfg.RedisAddr != ""
}

func (cfg *Config) validate() error {
	missing := []string{}
	v := reflect.ValueOf(cfg).Elem()
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.Tag.Get("validate") != "required" {
			continue
		}
		if v.Field(i).IsZero() {
			key := field.Tag.Get("koanf")
			missing = append(missing, strings.ToUpper(key)+" ("+key+")")
		}
	}
	if len(missing) > 0 {
		return errors.Errorf("missing required config: %s", strings.Join(missing, ", "))
	}
	if cfg.PageSize < 1 {
		return errors.New("page_size must be at least 1")
	}
	return nil
}

func knownKeys() map[string]struct{} {
	keys := map[string]struct{}{}
	t := reflect.TypeOf(Config{})
	for i := 0; i < t.NumField(); i++ {
		if key := t.Field(i).Tag.Get("koanf"); key != "" {
			keys[key] = struct{}{}
		}
	}
	return keys
}
