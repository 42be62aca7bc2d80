package env

import "strings"

// GetOrDefault retrieves an environment variable with a default value
func GetOrDefault(key, defaultValue string) string {
	if value, ok := Get(key); ok {
		return value
	}
	return defaultValue
}

// GetList splits a comma separated variable, dropping empty entries.
// defaultValue is returned when the variable is unset or holds no entries.
func GetList(key string, defaultValue []string) []string {
	raw, ok := Get(key)
	if !ok {
		return defaultValue
	}

	var values []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			values = append(values, part)
		}
	}
	if len(values) == 0 {
		return defaultValue
	}
	return values
}
