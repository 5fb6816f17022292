// Package config loads the registry's setting.toml, with an APP_-prefixed
// environment variable override pass. The Config/Validate shape follows
// dexidp/dex's cmd/dex/config.go; the environment override walker is a
// generalization of cmd/dex/config_env_replacer.go's reflect-based field
// walk (that file substitutes "$VAR"-shaped string values; this one
// instead checks an APP_<PATH> environment variable for every field and,
// if set, overrides the TOML-decoded value — same technique, different
// trigger).
package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config is the top-level setting.toml shape (spec.md section 6).
type Config struct {
	ServerAddress string `toml:"server_address"`
	PublicKeyFile string `toml:"public_key_file"`
	Telemetry     Telemetry
	Logger        Logger
}

// Telemetry configures the metrics/health HTTP listener (ambient stack,
// SPEC_FULL.md section 3).
type Telemetry struct {
	Addr string `toml:"addr"`
}

// Logger configures the slog handler (ambient stack, SPEC_FULL.md section
// 2).
type Logger struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Validate performs the fast, fail-fast checks dex's Config.Validate
// performs before attempting to bind anything network-facing.
func (c Config) Validate() error {
	checks := []struct {
		bad    bool
		errMsg string
	}{
		{c.ServerAddress == "", "no server_address specified in config file"},
		{c.PublicKeyFile == "", "no public_key_file specified in config file"},
	}

	var problems []string
	for _, check := range checks {
		if check.bad {
			problems = append(problems, check.errMsg)
		}
	}
	if len(problems) != 0 {
		return fmt.Errorf("invalid config:\n\t-\t%s", strings.Join(problems, "\n\t-\t"))
	}
	return nil
}

// Load decodes path as TOML into a Config, then applies any APP_-prefixed
// environment overrides on top.
func Load(path string) (Config, error) {
	var c Config
	if _, err := toml.DecodeFile(path, &c); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	applyEnvOverrides(&c, "APP", os.LookupEnv)
	return c, nil
}

// applyEnvOverrides walks data's fields by reflection. For each leaf
// field it checks whether "<prefix>_<FIELD_PATH>" (upper-cased, path
// segments joined by underscore) is set in the environment, and if so
// parses it into the field, overriding whatever TOML decoded.
func applyEnvOverrides(data interface{}, prefix string, lookup func(string) (string, bool)) {
	v := reflect.ValueOf(data)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return
	}
	walkEnvOverrides(v.Elem(), prefix, lookup)
}

func walkEnvOverrides(v reflect.Value, envKey string, lookup func(string) (string, bool)) {
	switch v.Kind() {
	case reflect.Struct:
		t := v.Type()
		for i := 0; i < t.NumField(); i++ {
			field := t.Field(i)
			if !v.Field(i).CanSet() {
				continue
			}
			walkEnvOverrides(v.Field(i), envKey+"_"+strings.ToUpper(field.Name), lookup)
		}
	case reflect.String:
		if value, ok := lookup(envKey); ok {
			v.SetString(value)
		}
	case reflect.Bool:
		if value, ok := lookup(envKey); ok {
			if parsed, err := strconv.ParseBool(value); err == nil {
				v.SetBool(parsed)
			}
		}
	case reflect.Int, reflect.Int32, reflect.Int64:
		if value, ok := lookup(envKey); ok {
			if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
				v.SetInt(parsed)
			}
		}
	}
}
