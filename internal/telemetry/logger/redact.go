package logger

import (
	"log/slog"
	"net/url"
	"regexp"
	"strings"
)

// APIKeyPrefix starts every engine API key.
const APIKeyPrefix = "nvak_"

const (
	redactedValue = "***REDACTED***"
	removedSecret = "<removed>"
)

// Attribute keys whose values are never logged.
var sensitiveKeys = []string{
	"password",
	"secret",
	"token",
	"api_key",
	"apikey",
	"credential",
	"authorization",
	"community",
}

// Device configuration statements that carry a credential as their last
// token, optionally preceded by an encryption type digit.
var (
	configSecretRe = regexp.MustCompile(`(?im)\b(password|secret|community|key-string|pre-shared-key|encrypted-password|authentication-key)((?:[ \t]+[0-9])?)[ \t]+("[^"\n]*"|\S+)`)
	configKeyRe    = regexp.MustCompile(`(?im)\b(key)([ \t]+[0-9])[ \t]+(\S+)`)
)

// redactSensitive is the ReplaceAttr hook of every handler built by New.
func redactSensitive(a slog.Attr) slog.Attr {
	switch a.Value.Kind() {
	case slog.KindString:
		if v, ok := redactString(a.Key, a.Value.String()); ok {
			return slog.String(a.Key, v)
		}
	case slog.KindGroup:
		attrs := a.Value.Group()
		out := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			out[i] = redactSensitive(attr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(out...)}
	}
	return a
}

// redactString returns the value to log in place of v, and whether it
// differs from v.
func redactString(key, v string) (string, bool) {
	if v == "" {
		return v, false
	}
	if strings.HasPrefix(v, APIKeyPrefix) {
		return MaskAPIKey(v), true
	}
	if isSensitiveKey(key) {
		return redactedValue, true
	}
	if strings.Contains(v, "@") && strings.Contains(v, "://") {
		if u, err := url.Parse(v); err == nil && u.User != nil {
			return u.Redacted(), true
		}
	}
	if strings.Contains(v, "\n") {
		if r := RedactConfig(v); r != v {
			return r, true
		}
	}
	return v, false
}

func isSensitiveKey(key string) bool {
	key = strings.ToLower(key)
	for _, s := range sensitiveKeys {
		if strings.Contains(key, s) {
			return true
		}
	}
	return false
}

// MaskAPIKey keeps the prefix and the first and last three characters of
// an engine API key.
func MaskAPIKey(key string) string {
	body := strings.TrimPrefix(key, APIKeyPrefix)
	if len(body) <= 6 {
		return APIKeyPrefix + "***"
	}
	return APIKeyPrefix + body[:3] + "..." + body[len(body)-3:]
}

// RedactConfig replaces passwords, secrets, SNMP communities and keys in
// device configuration text with a placeholder. Line structure is kept.
func RedactConfig(text string) string {
	text = configSecretRe.ReplaceAllString(text, "${1}${2} "+removedSecret)
	return configKeyRe.ReplaceAllString(text, "${1}${2} "+removedSecret)
}
