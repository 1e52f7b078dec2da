// ABOUTME: Bearer token sourcing and client-side expiry inspection.
// ABOUTME: Tokens come from config, env var, or the XDG token file, in that order.

package auth

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// envToken is the environment variable consulted for the bearer token.
const envToken = "AGENT_CLIENT_TOKEN"

// Token resolves the bearer token for stream requests.
// Priority: explicit config value > AGENT_CLIENT_TOKEN env var >
// ~/.config/agent-web-client/token file. Returns "" when none is configured.
func Token(configToken string) string {
	if configToken != "" {
		return configToken
	}

	if token := os.Getenv(envToken); token != "" {
		return token
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	tokenPath := filepath.Join(configDir, "agent-web-client", "token")
	data, err := os.ReadFile(tokenPath)
	if err != nil {
		return ""
	}

	return strings.TrimSpace(string(data))
}

// ExpiresAt returns the expiry timestamp encoded in a JWT, if present.
//
// The signature is not verified. This is only used for client-side control
// flow such as warning before opening a stream with a stale token; the
// server remains the source of truth.
func ExpiresAt(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// IsExpired reports whether a token carries an expiry in the past. Tokens
// without a parseable expiry are treated as usable; the server will reject
// them if needed.
func IsExpired(token string) bool {
	exp, ok := ExpiresAt(token)
	if !ok {
		return false
	}
	return time.Now().After(exp)
}
