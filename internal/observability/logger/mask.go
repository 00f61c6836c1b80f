package logger

import (
	"net/http"
	"strings"
)

var sensitiveKeys = []string{
	"password",
	"secret",
	"token",
	"authorization",
}

// MaskAuthorization hides a credential, keeping the auth scheme and
// the last four characters so separate tokens stay distinguishable in
// logs.
func MaskAuthorization(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	if scheme, credential, ok := strings.Cut(value, " "); ok {
		return scheme + " " + maskTail(strings.TrimSpace(credential))
	}
	return maskTail(value)
}

// MaskHeaders flattens headers into a loggable map with credentials
// masked. Used when logging rejected webhook deliveries.
func MaskHeaders(headers http.Header) map[string]string {
	out := make(map[string]string, len(headers))
	for name, values := range headers {
		joined := strings.Join(values, ",")
		if isSensitiveKey(name) {
			joined = MaskAuthorization(joined)
		}
		out[name] = joined
	}
	return out
}

// MaskJSON deep-copies a metadata map, masking values under sensitive
// keys. Audit metadata passes through here before it is persisted.
func MaskJSON(input map[string]any) map[string]any {
	if input == nil {
		return nil
	}
	out := make(map[string]any, len(input))
	for key, value := range input {
		switch {
		case isSensitiveKey(key):
			out[key] = maskAny(value)
		default:
			out[key] = maskNested(value)
		}
	}
	return out
}

func maskNested(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		return MaskJSON(typed)
	case []any:
		items := make([]any, len(typed))
		for i, entry := range typed {
			items[i] = maskNested(entry)
		}
		return items
	default:
		return value
	}
}

func maskAny(value any) any {
	if s, ok := value.(string); ok {
		return maskTail(s)
	}
	return "****"
}

func isSensitiveKey(key string) bool {
	key = strings.ToLower(strings.TrimSpace(key))
	for _, needle := range sensitiveKeys {
		if strings.Contains(key, needle) {
			return true
		}
	}
	return false
}

func maskTail(value string) string {
	if len(value) <= 4 {
		return "****" + value
	}
	return "****" + value[len(value)-4:]
}
