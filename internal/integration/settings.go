package integration

import (
	"strings"

	"github.com/spf13/cast"

	"github.com/nhle/itsm-sync/internal/model"
)

// Settings reads typed values out of an integration's opaque settings map.
type Settings struct {
	Type   model.IntegrationType
	Values map[string]any
}

// String returns the setting as a trimmed string. YAML numbers such as a
// Jira issue type id of 10001 come back as "10001".
func (s Settings) String(key string) string {
	raw, ok := s.Values[key]
	if !ok || raw == nil {
		return ""
	}
	return strings.TrimSpace(cast.ToString(raw))
}

// StringOr returns the setting or def when it is empty.
func (s Settings) StringOr(key, def string) string {
	if v := s.String(key); v != "" {
		return v
	}
	return def
}

// Required returns the setting or a MissingSettingError when it is empty.
func (s Settings) Required(key string) (string, error) {
	v := s.String(key)
	if v == "" {
		return "", &MissingSettingError{Type: s.Type, Key: key}
	}
	return v, nil
}

// Strings returns a list setting. A comma-separated string is split.
func (s Settings) Strings(key string) []string {
	raw, ok := s.Values[key]
	if !ok || raw == nil {
		return nil
	}
	var values []string
	if str, isString := raw.(string); isString {
		values = strings.Split(str, ",")
	} else {
		values = cast.ToStringSlice(raw)
	}

	result := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			result = append(result, v)
		}
	}
	return result
}
