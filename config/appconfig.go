package config

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// AppKey declares an application setting. Name is used as-is in config files
// and as the flag name; the environment variable is Name upper-cased.
type AppKey struct {
	Name string

	// Default determines the value type: string, int, int64, bool, []string
	// or time.Duration.
	Default any

	Desc string

	// Secret values are redacted from the startup log.
	Secret bool
}

// AppConfigValues holds loaded app settings keyed by AppKey.Name.
type AppConfigValues map[string]any

// String returns a string value or "" if absent.
func (a AppConfigValues) String(key string) string {
	if v, ok := a[key].(string); ok {
		return v
	}
	return ""
}

// Int returns an int value or 0 if absent.
func (a AppConfigValues) Int(key string) int {
	switch v := a[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	}
	return 0
}

// Int64 returns an int64 value or 0 if absent.
func (a AppConfigValues) Int64(key string) int64 {
	switch v := a[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	}
	return 0
}

// Bool returns a bool value or false if absent.
func (a AppConfigValues) Bool(key string) bool {
	if v, ok := a[key].(bool); ok {
		return v
	}
	return false
}

// StringSlice returns a []string value or nil if absent.
func (a AppConfigValues) StringSlice(key string) []string {
	if v, ok := a[key].([]string); ok {
		return v
	}
	return nil
}

// Duration returns a duration value, or def when absent or invalid. Plain
// numbers are seconds.
func (a AppConfigValues) Duration(key string, def time.Duration) time.Duration {
	raw := a[key]
	if raw == nil {
		return def
	}
	dur, err := parseDurationFlexible(raw, def)
	if err != nil {
		return def
	}
	return dur
}

// loadAppConfig resolves each key as flag > env > config file > default and
// coerces it to the type of its default, since env values arrive as strings.
func loadAppConfig(logger *zap.Logger, fileV *viper.Viper, fs *pflag.FlagSet, keys []AppKey) AppConfigValues {
	result := make(AppConfigValues, len(keys))
	if len(keys) == 0 {
		return result
	}

	appV := viper.New()
	appV.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	appV.AutomaticEnv()

	for _, key := range keys {
		appV.SetDefault(key.Name, key.Default)
		_ = appV.BindEnv(key.Name, strings.ToUpper(key.Name))
		if fileV.InConfig(key.Name) {
			appV.SetDefault(key.Name, fileV.Get(key.Name))
		}
		if f := fs.Lookup(key.Name); f != nil && f.Changed {
			_ = appV.BindPFlag(key.Name, f)
		}
	}

	fields := make([]zap.Field, 0, len(keys))
	for _, key := range keys {
		val := coerce(appV, key)
		result[key.Name] = val
		if key.Secret {
			if s, _ := val.(string); s != "" {
				fields = append(fields, zap.String(key.Name, "[REDACTED]"))
				continue
			}
		}
		fields = append(fields, zap.Any(key.Name, val))
	}
	logger.Info("app config loaded", fields...)

	return result
}

func coerce(v *viper.Viper, key AppKey) any {
	switch d := key.Default.(type) {
	case string:
		return v.GetString(key.Name)
	case int:
		return v.GetInt(key.Name)
	case int64:
		return v.GetInt64(key.Name)
	case bool:
		return v.GetBool(key.Name)
	case time.Duration:
		dur, err := parseDurationFlexible(v.Get(key.Name), d)
		if err != nil {
			return d
		}
		return dur
	case []string:
		return parseList(v.Get(key.Name))
	default:
		return v.Get(key.Name)
	}
}

// parseList accepts a JSON array string, a comma-separated string, or a list.
func parseList(raw any) []string {
	var out []string
	switch t := raw.(type) {
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return nil
		}
		if strings.HasPrefix(s, "[") {
			var arr []string
			if err := json.Unmarshal([]byte(s), &arr); err == nil {
				out = arr
				break
			}
		}
		out = strings.Split(s, ",")
	case []string:
		out = t
	case []any:
		for _, e := range t {
			out = append(out, fmt.Sprint(e))
		}
	}

	cleaned := out[:0:0]
	for _, s := range out {
		if s = strings.TrimSpace(s); s != "" {
			cleaned = append(cleaned, s)
		}
	}
	return cleaned
}

// registerAppFlags adds one flag per key to fs.
func registerAppFlags(fs *pflag.FlagSet, keys []AppKey) error {
	for _, key := range keys {
		if fs.Lookup(key.Name) != nil {
			return fmt.Errorf("config key %q conflicts with existing flag", key.Name)
		}

		switch d := key.Default.(type) {
		case string:
			fs.String(key.Name, d, key.Desc)
		case int:
			fs.Int(key.Name, d, key.Desc)
		case int64:
			fs.Int64(key.Name, d, key.Desc)
		case bool:
			fs.Bool(key.Name, d, key.Desc)
		case time.Duration:
			fs.String(key.Name, d.String(), key.Desc)
		case []string:
			fs.String(key.Name, strings.Join(d, ","), key.Desc+" (comma list or JSON array)")
		default:
			return fmt.Errorf("config key %q has unsupported default type %T", key.Name, key.Default)
		}
	}
	return nil
}
