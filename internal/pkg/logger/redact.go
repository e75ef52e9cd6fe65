package logger

import (
	"regexp"
	"strings"
)

// Redacted replaces the value of a credential field.
const Redacted = "[REDACTED]"

var (
	emailRegex = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	// SendGrid API keys look like SG.<22 chars>.<43 chars>
	apiKeyRegex = regexp.MustCompile(`SG\.[A-Za-z0-9_-]{8,}\.[A-Za-z0-9_-]{8,}`)
	bearerRegex = regexp.MustCompile(`\b(Bearer|Basic) [A-Za-z0-9._~+/=-]{12,}`)
)

var secretKeys = []string{"apikey", "api_key", "password", "secret", "authorization", "token", "credential"}

func isSecretKey(key string) bool {
	key = strings.ToLower(strings.ReplaceAll(key, "-", "_"))
	for _, s := range secretKeys {
		if strings.Contains(key, s) {
			return true
		}
	}
	return false
}

func redactValue(key, val string) string {
	if isSecretKey(key) {
		if val == "" {
			return val
		}
		return Redacted
	}
	lower := strings.ToLower(key)
	if strings.Contains(lower, "email") || strings.Contains(lower, "recipient") {
		return RedactEmail(val)
	}
	val = apiKeyRegex.ReplaceAllString(val, Redacted)
	val = bearerRegex.ReplaceAllString(val, "$1 "+Redacted)
	return emailRegex.ReplaceAllStringFunc(val, RedactEmail)
}

// RedactEmail masks an email address for logging.
// "john.doe@example.com" → "jo***@example.com"
// Local parts of two characters or fewer are fully masked: "ab@example.com" → "***@example.com"
func RedactEmail(email string) string {
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return "***@***"
	}
	name := parts[0]
	if len(name) > 2 {
		return name[:2] + "***@" + parts[1]
	}
	return "***@" + parts[1]
}
