package config

import (
	"os"
	"strconv"
	"strings"
)

// FrontendBaseURL is the portal root used for links embedded in emails.
func FrontendBaseURL() string {
	base := strings.TrimSpace(os.Getenv("FRONTEND_BASE_URL"))
	if base == "" {
		base = "http://localhost:3000"
	}
	return strings.TrimRight(base, "/")
}

// JWTSecret returns the HMAC key for login tokens.
func JWTSecret() []byte {
	return []byte(os.Getenv("JWT_SECRET"))
}

// JWTExpireHours defaults to 24.
func JWTExpireHours() int {
	hours, err := strconv.Atoi(os.Getenv("JWT_EXPIRE_HOURS"))
	if err != nil || hours <= 0 {
		return 24
	}
	return hours
}

// AllowedOrigins parses ALLOWED_ORIGINS (comma separated). Empty means any origin.
func AllowedOrigins() []string {
	raw := strings.TrimSpace(os.Getenv("ALLOWED_ORIGINS"))
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			origins = append(origins, p)
		}
	}
	return origins
}
