// Package redact removes credentials and secrets from query text, parameter
// payloads and error messages before they are logged or retained.
package redact

import (
	"regexp"
	"strings"
)

// Placeholder replaces every redacted value.
const Placeholder = "[REDACTED]"

var (
	// key=value and key: value pairs, quoted or bare.
	secretPairRe = regexp.MustCompile(`(?i)\b(password|passwd|pwd|secret|token|api[_-]?key|access[_-]?key|auth)(\s*[=:]\s*)('[^']*'|"[^"]*"|[^\s;&,)]+)`)
	// user:password@host in URLs and DSNs.
	urlCredsRe = regexp.MustCompile(`(?i)([a-z][a-z0-9+.-]*://[^:/@\s]+):[^@\s]+@`)
	// IDENTIFIED BY 'x' and PASSWORD 'x' clauses.
	identifiedByRe = regexp.MustCompile(`(?i)\b(identified\s+by|password)\s+('[^']*'|"[^"]*")`)
)

// sensitiveKeys are parameter names whose values are always hidden.
var sensitiveKeys = []string{"password", "passwd", "pwd", "secret", "token", "apikey", "api_key", "credential", "dsn", "authorization"}

// String redacts secrets embedded in free text such as SQL or error messages.
func String(s string) string {
	if s == "" {
		return s
	}
	s = urlCredsRe.ReplaceAllString(s, "${1}:"+Placeholder+"@")
	s = identifiedByRe.ReplaceAllString(s, "${1} '"+Placeholder+"'")
	s = secretPairRe.ReplaceAllString(s, "${1}${2}"+Placeholder)
	return s
}

// Params returns a redacted copy of a parameter payload. Maps have values of
// sensitive keys replaced; nested maps, slices and strings are walked.
// Other values are returned unchanged.
func Params(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case string:
		return String(val)
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			if IsSensitiveKey(k) {
				out[k] = Placeholder
				continue
			}
			out[k] = Params(item)
		}
		return out
	case map[string]string:
		out := make(map[string]any, len(val))
		for k, item := range val {
			if IsSensitiveKey(k) {
				out[k] = Placeholder
				continue
			}
			out[k] = String(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = Params(item)
		}
		return out
	case []string:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = String(item)
		}
		return out
	default:
		return v
	}
}

// IsSensitiveKey reports whether a parameter name looks like it holds a secret.
func IsSensitiveKey(key string) bool {
	k := strings.ToLower(key)
	for _, s := range sensitiveKeys {
		if strings.Contains(k, s) {
			return true
		}
	}
	return false
}
