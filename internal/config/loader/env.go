package loader

import (
	"encoding/json"
	"os"
	"strconv"
	"strings"
)

// DefaultEnvPrefix is the prefix of stoat's environment variables.
const DefaultEnvPrefix = "STOAT_"

// EnvLoader loads configuration from environment variables.
type EnvLoader struct {
	prefix  string
	mapping map[string]string // env var -> config path
	environ func() []string
}

// NewEnvLoader creates an environment loader with the default mappings.
// The prefix includes the trailing underscore, e.g. "STOAT_".
func NewEnvLoader(prefix string) *EnvLoader {
	return &EnvLoader{
		prefix:  prefix,
		mapping: defaultEnvMapping(prefix),
		environ: os.Environ,
	}
}

// defaultEnvMapping covers the short names; anything else under the prefix
// is derived with envToPath.
func defaultEnvMapping(prefix string) map[string]string {
	return map[string]string{
		prefix + "LOG_LEVEL":    "log.level",
		prefix + "TAB_WIDTH":    "display.tabWidth",
		prefix + "WRAP_WIDTH":   "display.wrapWidth",
		prefix + "LEXER":        "syntax.lexer",
		prefix + "PARSER":       "syntax.parser",
		prefix + "MIN_SEVERITY": "diagnostics.minSeverity",
		prefix + "CACHE_DIR":    "diagnostics.cacheDir",
	}
}

// AddMapping adds a custom environment variable mapping.
func (l *EnvLoader) AddMapping(envVar, configPath string) {
	l.mapping[envVar] = configPath
}

// Load reads prefixed environment variables into a configuration map.
// Empty values count as set.
func (l *EnvLoader) Load() (map[string]any, error) {
	config := make(map[string]any)
	for _, env := range l.environ() {
		name, value, ok := strings.Cut(env, "=")
		if !ok || !strings.HasPrefix(name, l.prefix) {
			continue
		}
		path, mapped := l.mapping[name]
		if !mapped {
			path = l.envToPath(name)
		}
		if path == "" {
			continue
		}
		setByPath(config, path, parseValue(value))
	}
	return config, nil
}

// envToPath converts STOAT_DISPLAY_FOLD_PLACEHOLDER to
// display.foldPlaceholder.
func (l *EnvLoader) envToPath(env string) string {
	parts := strings.Split(strings.TrimPrefix(env, l.prefix), "_")
	if len(parts) < 2 || parts[0] == "" {
		return ""
	}
	setting := strings.ToLower(parts[1])
	for _, part := range parts[2:] {
		if part != "" {
			setting += strings.ToUpper(part[:1]) + strings.ToLower(part[1:])
		}
	}
	return strings.ToLower(parts[0]) + "." + setting
}

// parseValue guesses the type of an environment value. Digits stay
// numbers, so "1" is never read as true.
func parseValue(s string) any {
	switch strings.ToLower(s) {
	case "":
		return s
	case "true", "yes", "on":
		return true
	case "false", "no", "off":
		return false
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if strings.Contains(s, ".") {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}
	if strings.HasPrefix(s, "[") || strings.HasPrefix(s, "{") {
		var v any
		if err := json.Unmarshal([]byte(s), &v); err == nil {
			return v
		}
	}
	return s
}

// setByPath sets a value in a nested map using a dot-separated path.
func setByPath(data map[string]any, path string, value any) {
	parts := strings.Split(path, ".")
	current := data
	for _, part := range parts[:len(parts)-1] {
		next, ok := current[part].(map[string]any)
		if !ok {
			next = make(map[string]any)
			current[part] = next
		}
		current = next
	}
	current[parts[len(parts)-1]] = value
}
