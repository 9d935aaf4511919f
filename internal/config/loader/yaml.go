package loader

import (
	"regexp"
	"strconv"

	"gopkg.in/yaml.v3"
)

// yaml.v3 only reports positions inside the message text.
var yamlLine = regexp.MustCompile(`line (\d+)`)

func parseYAML(source string, data []byte) (map[string]any, error) {
	var config map[string]any
	if err := yaml.Unmarshal(data, &config); err != nil {
		perr := &ParseError{Path: source, Message: err.Error(), Err: err}
		if m := yamlLine.FindStringSubmatch(err.Error()); m != nil {
			perr.Line, _ = strconv.Atoi(m[1])
		}
		return nil, perr
	}
	return normalizeYAML(config), nil
}

// normalizeYAML widens ints to int64 so both formats decode alike.
func normalizeYAML(m map[string]any) map[string]any {
	for k, v := range m {
		m[k] = normalizeValue(v)
	}
	return m
}

func normalizeValue(v any) any {
	switch x := v.(type) {
	case int:
		return int64(x)
	case map[string]any:
		return normalizeYAML(x)
	case []any:
		for i := range x {
			x[i] = normalizeValue(x[i])
		}
		return x
	}
	return v
}
